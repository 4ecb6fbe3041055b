package serializers

import (
	"github.com/square-key-labs/voicebridge/src/frames"
)

// TelephonySerializer translates between relay frames/events and a
// carrier's wire format (e.g., Twilio Media Streams, Telnyx). Decoding a
// single malformed message is recoverable: the caller skips the message
// with a warning and keeps reading.
type TelephonySerializer interface {
	// Decode parses one inbound wire message. At most one of the returned
	// event/frame is non-nil; both nil means the message is recognized but
	// carries nothing the relay acts on (e.g. a "connected" handshake).
	Decode(msg []byte) (frames.ControlEvent, *frames.AudioFrame, error)

	// EncodeMedia wraps already-encoded audio in the carrier's outbound
	// media envelope, addressed to the given stream.
	EncodeMedia(streamSID string, audio []byte) ([]byte, error)

	// EncodeClear produces the control message that discards any audio the
	// carrier has buffered for playback on the given stream (barge-in).
	EncodeClear(streamSID string) ([]byte, error)
}
