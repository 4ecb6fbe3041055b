package frames

import "encoding/json"

// ControlEvent is the tagged variant for non-audio traffic on either leg.
// Events are decoded once at the link boundary, then matched and dispatched
// by the relay; they are never mutated.
type ControlEvent interface {
	EventName() string
}

// StreamStarted carries the carrier-assigned stream identifier. No outbound
// media can be addressed to the carrier until this has been observed.
type StreamStarted struct {
	StreamSID string
	CallSID   string
}

func (StreamStarted) EventName() string { return "stream-started" }

// StreamStopped signals the carrier has ended the media stream.
type StreamStopped struct{}

func (StreamStopped) EventName() string { return "stream-stopped" }

// UserStartedSpeaking signals barge-in: the caller began speaking while the
// agent's audio may still be playing.
type UserStartedSpeaking struct{}

func (UserStartedSpeaking) EventName() string { return "user-started-speaking" }

// SettingsApplied confirms the agent accepted the settings handshake.
type SettingsApplied struct{}

func (SettingsApplied) EventName() string { return "settings-applied" }

// ConversationClosed signals the agent is closing the conversation.
type ConversationClosed struct{}

func (ConversationClosed) EventName() string { return "conversation-closed" }

// FunctionCallRequest is a structured request issued by the agent. Every
// decoded request must receive exactly one FunctionCallResponse with the
// same CallID, even when the underlying operation fails.
type FunctionCallRequest struct {
	Name   string
	CallID string
	Params json.RawMessage
}

func (FunctionCallRequest) EventName() string { return "function-call-request" }

// FunctionCallResponse correlates a serialized result back to its request.
// Output is the JSON-encoded result payload; failures travel as an error
// object inside Output, never as a dropped response.
type FunctionCallResponse struct {
	CallID string
	Output string
}

// UnknownEvent preserves the type tag of an event the relay does not handle.
type UnknownEvent struct {
	Type string
}

func (e UnknownEvent) EventName() string { return "unknown(" + e.Type + ")" }
