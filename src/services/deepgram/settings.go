package deepgram

import "encoding/json"

// SettingsConfiguration is the capability/settings handshake sent as the
// first message after connecting to the Voice Agent API.
type SettingsConfiguration struct {
	Type  string        `json:"type"`
	Audio AudioSettings `json:"audio"`
	Agent AgentSettings `json:"agent"`
	// Context seeds the conversation so the agent speaks first.
	Context *ContextSettings `json:"context,omitempty"`
}

type AudioSettings struct {
	Input  AudioFormat `json:"input"`
	Output AudioFormat `json:"output"`
}

type AudioFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
	Container  string `json:"container,omitempty"`
}

type AgentSettings struct {
	Listen ListenSettings `json:"listen"`
	Think  ThinkSettings  `json:"think"`
	Speak  SpeakSettings  `json:"speak"`
}

type ListenSettings struct {
	Model string `json:"model"`
}

type ThinkSettings struct {
	Provider     ThinkProvider `json:"provider"`
	Model        string        `json:"model"`
	Instructions string        `json:"instructions"`
	Functions    []Function    `json:"functions,omitempty"`
}

type ThinkProvider struct {
	Type string `json:"type"`
}

type SpeakSettings struct {
	Model string `json:"model"`
}

type ContextSettings struct {
	Messages []ContextMessage `json:"messages"`
	Replay   bool             `json:"replay"`
}

type ContextMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Function describes one callable operation advertised to the agent's
// think provider. Parameters is a JSON-schema object.
type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
