package serializers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/square-key-labs/voicebridge/src/frames"
)

// TwilioSerializer handles the Twilio Media Streams WebSocket protocol.
// Media payloads are base64-encoded mulaw inside JSON text frames; binary
// WebSocket frames are not used on this leg.
type TwilioSerializer struct{}

// Twilio message structures
type twilioMessage struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid,omitempty"`
	Media     *twilioMedia `json:"media,omitempty"`
	Start     *twilioStart `json:"start,omitempty"`
}

type twilioMedia struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"` // base64-encoded mulaw audio
}

type twilioStart struct {
	StreamSid   string                 `json:"streamSid"`
	CallSid     string                 `json:"callSid"`
	AccountSid  string                 `json:"accountSid"`
	Tracks      []string               `json:"tracks"`
	MediaFormat map[string]interface{} `json:"mediaFormat"`
}

// NewTwilioSerializer creates a new Twilio serializer
func NewTwilioSerializer() *TwilioSerializer {
	return &TwilioSerializer{}
}

// Decode parses one Twilio wire message into a control event or audio frame
func (s *TwilioSerializer) Decode(msg []byte) (frames.ControlEvent, *frames.AudioFrame, error) {
	var m twilioMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal Twilio message: %w", err)
	}

	switch m.Event {
	case "start":
		if m.Start == nil {
			return nil, nil, fmt.Errorf("start event missing start data")
		}
		return frames.StreamStarted{
			StreamSID: m.Start.StreamSid,
			CallSID:   m.Start.CallSid,
		}, nil, nil

	case "media":
		if m.Media == nil {
			return nil, nil, fmt.Errorf("media event missing media data")
		}
		if m.Media.Track != "" && m.Media.Track != "inbound" {
			// Outbound-track echoes are not relayed
			return nil, nil, nil
		}
		audio, err := base64.StdEncoding.DecodeString(m.Media.Payload)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode media payload: %w", err)
		}
		return nil, frames.NewAudioFrame(frames.TelephonyInbound, audio), nil

	case "stop":
		return frames.StreamStopped{}, nil, nil

	case "connected", "mark":
		return nil, nil, nil

	default:
		return frames.UnknownEvent{Type: m.Event}, nil, nil
	}
}

// EncodeMedia wraps raw agent audio in a Twilio media envelope
func (s *TwilioSerializer) EncodeMedia(streamSID string, audio []byte) ([]byte, error) {
	msg := twilioMessage{
		Event:     "media",
		StreamSid: streamSID,
		Media: &twilioMedia{
			Payload: base64.StdEncoding.EncodeToString(audio),
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Twilio media message: %w", err)
	}
	return data, nil
}

// EncodeClear produces the clear event that stops buffered playback
func (s *TwilioSerializer) EncodeClear(streamSID string) ([]byte, error) {
	msg := twilioMessage{
		Event:     "clear",
		StreamSid: streamSID,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Twilio clear message: %w", err)
	}
	return data, nil
}
