package frames

import (
	"fmt"
	"sync/atomic"
	"time"
)

var frameCounter uint64

// Source identifies which leg of the relay a frame belongs to
type Source int

const (
	TelephonyInbound  Source = iota // caller audio arriving from the carrier
	TelephonyOutbound               // agent audio leaving toward the carrier
	AgentInbound                    // audio arriving from the voice agent
	AgentOutbound                   // audio leaving toward the voice agent
)

func (s Source) String() string {
	switch s {
	case TelephonyInbound:
		return "telephony-in"
	case TelephonyOutbound:
		return "telephony-out"
	case AgentInbound:
		return "agent-in"
	case AgentOutbound:
		return "agent-out"
	default:
		return "unknown"
	}
}

// AudioFrame is an opaque, already-encoded audio payload. The relay never
// decodes or inspects the bytes; it only moves them between legs.
type AudioFrame struct {
	id     uint64
	source Source
	data   []byte
	pts    time.Time
}

// NewAudioFrame wraps data in a frame tagged with its source. The caller must
// not mutate data after handing it over.
func NewAudioFrame(source Source, data []byte) *AudioFrame {
	return &AudioFrame{
		id:     atomic.AddUint64(&frameCounter, 1),
		source: source,
		data:   data,
		pts:    time.Now(),
	}
}

func (f *AudioFrame) ID() uint64 {
	return f.id
}

func (f *AudioFrame) Source() Source {
	return f.source
}

func (f *AudioFrame) Data() []byte {
	return f.data
}

func (f *AudioFrame) Len() int {
	return len(f.data)
}

// Duration reports the playback time this frame represents for a given
// byte rate (bytes per second of the negotiated encoding).
func (f *AudioFrame) Duration(bytesPerSec int) time.Duration {
	if bytesPerSec <= 0 {
		return 0
	}
	return time.Duration(float64(len(f.data)) / float64(bytesPerSec) * float64(time.Second))
}

func (f *AudioFrame) String() string {
	return fmt.Sprintf("AudioFrame[id=%d, src=%s, bytes=%d, pts=%s]",
		f.id, f.source, len(f.data), f.pts.Format("15:04:05.000"))
}
