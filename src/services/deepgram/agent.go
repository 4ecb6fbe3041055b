package deepgram

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/square-key-labs/voicebridge/src/frames"
	"github.com/square-key-labs/voicebridge/src/logger"
	"github.com/square-key-labs/voicebridge/src/transports"
)

// DefaultAgentURL is the Deepgram Voice Agent endpoint
const DefaultAgentURL = "wss://agent.deepgram.com/agent"

// AgentConfig holds everything needed to open and configure an agent session
type AgentConfig struct {
	APIKey string
	URL    string // defaults to DefaultAgentURL

	ListenModel   string // e.g., "nova-2"
	ThinkProvider string // e.g., "open_ai"
	ThinkModel    string // e.g., "gpt-4o-mini"
	Voice         string // e.g., "aura-asteria-en"

	Instructions string
	Functions    []Function
	Greeting     string // optional seeded assistant opener

	InputEncoding    string
	InputSampleRate  int
	OutputEncoding   string
	OutputSampleRate int
}

// AgentClient is one live Voice Agent session. It exchanges raw binary
// audio frames and JSON event frames over a single WebSocket; concurrent
// writers are safe because the underlying link serializes writes.
type AgentClient struct {
	link *transports.WebSocketLink
	log  *logger.Logger
}

// DialAgent connects to the Voice Agent API and sends the settings
// handshake. The SettingsApplied confirmation arrives later as a control
// event on the receive path; it is not awaited here.
func DialAgent(cfg AgentConfig) (*AgentClient, error) {
	url := cfg.URL
	if url == "" {
		url = DefaultAgentURL
	}

	header := http.Header{
		"Authorization": {fmt.Sprintf("Token %s", cfg.APIKey)},
	}

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to voice agent: %w", err)
	}

	c := &AgentClient{
		link: transports.NewWebSocketLink(conn),
		log:  logger.WithPrefix("AgentLink"),
	}

	if err := c.sendSettings(cfg); err != nil {
		c.link.Close()
		return nil, err
	}

	c.log.Info("Connected to voice agent at %s", url)
	return c, nil
}

func (c *AgentClient) sendSettings(cfg AgentConfig) error {
	settings := SettingsConfiguration{
		Type: "SettingsConfiguration",
		Audio: AudioSettings{
			Input: AudioFormat{
				Encoding:   cfg.InputEncoding,
				SampleRate: cfg.InputSampleRate,
			},
			Output: AudioFormat{
				Encoding:   cfg.OutputEncoding,
				SampleRate: cfg.OutputSampleRate,
				Container:  "none",
			},
		},
		Agent: AgentSettings{
			Listen: ListenSettings{Model: cfg.ListenModel},
			Think: ThinkSettings{
				Provider:     ThinkProvider{Type: cfg.ThinkProvider},
				Model:        cfg.ThinkModel,
				Instructions: cfg.Instructions,
				Functions:    cfg.Functions,
			},
			Speak: SpeakSettings{Model: cfg.Voice},
		},
	}

	if cfg.Greeting != "" {
		settings.Context = &ContextSettings{
			Messages: []ContextMessage{{Role: "assistant", Content: cfg.Greeting}},
			Replay:   true,
		}
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := c.link.SendText(data); err != nil {
		return fmt.Errorf("failed to send settings: %w", err)
	}

	c.log.Debug("Sent SettingsConfiguration (listen=%s think=%s/%s speak=%s)",
		cfg.ListenModel, cfg.ThinkProvider, cfg.ThinkModel, cfg.Voice)
	return nil
}

// Receive blocks for the next frame from the agent: binary frames are raw
// audio in the negotiated output encoding, text frames are JSON events.
func (c *AgentClient) Receive() (transports.Message, error) {
	return c.link.Receive()
}

// SendAudio forwards one already-encoded audio frame to the agent
func (c *AgentClient) SendAudio(data []byte) error {
	return c.link.SendBinary(data)
}

// SendFunctionResponse writes the correlated result of a function call
// back to the agent. Output must be the JSON-serialized result payload.
func (c *AgentClient) SendFunctionResponse(resp frames.FunctionCallResponse) error {
	msg := struct {
		Type           string `json:"type"`
		FunctionCallID string `json:"function_call_id"`
		Output         string `json:"output"`
	}{
		Type:           "FunctionCallResponse",
		FunctionCallID: resp.CallID,
		Output:         resp.Output,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal function response: %w", err)
	}
	return c.link.SendText(data)
}

// Close tears down the agent connection
func (c *AgentClient) Close() error {
	return c.link.Close()
}

// ParseEvent decodes one JSON text frame from the agent into a control
// event. Unrecognized types come back as UnknownEvent so callers can log
// and move on; malformed JSON is a decode error.
func ParseEvent(data []byte) (frames.ControlEvent, error) {
	var envelope struct {
		Type           string          `json:"type"`
		FunctionName   string          `json:"function_name"`
		FunctionCallID string          `json:"function_call_id"`
		Input          json.RawMessage `json:"input"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse agent event: %w", err)
	}

	switch envelope.Type {
	case "UserStartedSpeaking":
		return frames.UserStartedSpeaking{}, nil
	case "SettingsApplied":
		return frames.SettingsApplied{}, nil
	case "FunctionCallRequest":
		return frames.FunctionCallRequest{
			Name:   envelope.FunctionName,
			CallID: envelope.FunctionCallID,
			Params: envelope.Input,
		}, nil
	case "CloseConnection":
		return frames.ConversationClosed{}, nil
	default:
		return frames.UnknownEvent{Type: envelope.Type}, nil
	}
}
