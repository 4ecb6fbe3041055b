package transports

// MessageType distinguishes the two WebSocket payload kinds a link can carry
type MessageType int

const (
	TextMessage   MessageType = iota // JSON control/media envelopes
	BinaryMessage                    // raw encoded audio
)

func (t MessageType) String() string {
	switch t {
	case TextMessage:
		return "text"
	case BinaryMessage:
		return "binary"
	default:
		return "unknown"
	}
}

// Message is one wire frame received from a link
type Message struct {
	Type MessageType
	Data []byte
}

// Link is the capability set the relay core needs from either leg of a
// call: send binary, send text, receive the next frame, close. The
// telephony leg and the agent leg are two instances of the same interface,
// so the relay is written once. A read blocks until a frame arrives or the
// link fails; closing the link unblocks any pending read with an error.
type Link interface {
	Receive() (Message, error)
	SendText(data []byte) error
	SendBinary(data []byte) error
	Close() error
}
