package audio

// Chunker accumulates variable-size inbound audio chunks and emits
// fixed-size frames. Carriers deliver narrow-band audio in small slices
// (Twilio: 160 bytes = 20 ms of 8 kHz mulaw); batching several of them into
// one frame amortizes per-frame overhead on the agent leg.
//
// Byte order is preserved exactly; no byte is duplicated or dropped while a
// stream is live. Any sub-frame remainder at stream termination is simply
// abandoned with the Chunker. It represents at most one buffering window
// of trailing audio.
type Chunker struct {
	frameSize int
	buf       []byte
}

// NewChunker creates a chunker emitting frames of frameSize bytes.
// frameSize must be positive.
func NewChunker(frameSize int) *Chunker {
	if frameSize <= 0 {
		panic("audio: chunker frame size must be positive")
	}
	return &Chunker{
		frameSize: frameSize,
		buf:       make([]byte, 0, frameSize),
	}
}

// FrameSize returns the configured output frame size in bytes.
func (c *Chunker) FrameSize() int {
	return c.frameSize
}

// Write appends chunk to the accumulator and returns every complete frame
// now available, in order. Each returned frame is exactly FrameSize bytes
// and owns its backing array. A zero-length chunk is a no-op.
func (c *Chunker) Write(chunk []byte) [][]byte {
	if len(chunk) == 0 {
		return nil
	}

	c.buf = append(c.buf, chunk...)

	var out [][]byte
	for len(c.buf) >= c.frameSize {
		frame := make([]byte, c.frameSize)
		copy(frame, c.buf[:c.frameSize])
		out = append(out, frame)
		c.buf = c.buf[c.frameSize:]
	}

	// Compact so the remainder does not pin the consumed prefix
	if len(out) > 0 {
		rest := make([]byte, len(c.buf), c.frameSize)
		copy(rest, c.buf)
		c.buf = rest
	}

	return out
}

// Pending returns how many sub-frame bytes are currently buffered.
func (c *Chunker) Pending() int {
	return len(c.buf)
}

// Reset discards any buffered remainder.
func (c *Chunker) Reset() {
	c.buf = c.buf[:0]
}
