package relay

// State tracks a session through its lifecycle. Transitions only move
// forward: AwaitingStream, Streaming, Draining, Closed.
type State int32

const (
	// AwaitingStream means the telephony connection is up but no start
	// event has been observed yet, so the stream SID is unknown.
	AwaitingStream State = iota
	// Streaming means media is flowing in both directions.
	Streaming
	// Draining means the caller hung up and buffered audio is being
	// discarded while the session winds down.
	Draining
	// Closed means both links are torn down.
	Closed
)

func (s State) String() string {
	switch s {
	case AwaitingStream:
		return "awaiting-stream"
	case Streaming:
		return "streaming"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
