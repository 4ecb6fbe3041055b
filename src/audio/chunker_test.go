package audio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func TestChunkerExactMultiple(t *testing.T) {
	c := NewChunker(100)

	frames := c.Write(fill(300, 0x7f))
	require.Len(t, frames, 3)
	for _, f := range frames {
		assert.Len(t, f, 100)
	}
	assert.Equal(t, 0, c.Pending())
}

func TestChunkerRetainsRemainder(t *testing.T) {
	c := NewChunker(100)

	frames := c.Write(fill(250, 0x01))
	require.Len(t, frames, 2)
	assert.Equal(t, 50, c.Pending())

	// The next write completes the partial frame first.
	frames = c.Write(fill(50, 0x02))
	require.Len(t, frames, 1)
	assert.Equal(t, 0, c.Pending())

	expected := append(fill(50, 0x01), fill(50, 0x02)...)
	assert.Equal(t, expected, frames[0])
}

func TestChunkerSmallWritesAccumulate(t *testing.T) {
	c := NewChunker(160 * 20)

	// 19 chunks of 160 bytes stay buffered.
	for i := 0; i < 19; i++ {
		assert.Empty(t, c.Write(fill(160, byte(i))))
	}
	assert.Equal(t, 160*19, c.Pending())

	// The 20th completes exactly one frame.
	frames := c.Write(fill(160, 19))
	require.Len(t, frames, 1)
	assert.Len(t, frames[0], 160*20)
	assert.Equal(t, 0, c.Pending())
}

func TestChunkerZeroLengthWrite(t *testing.T) {
	c := NewChunker(100)

	assert.Empty(t, c.Write(nil))
	assert.Empty(t, c.Write([]byte{}))
	assert.Equal(t, 0, c.Pending())
}

func TestChunkerReset(t *testing.T) {
	c := NewChunker(100)

	c.Write(fill(50, 0xaa))
	require.Equal(t, 50, c.Pending())

	c.Reset()
	assert.Equal(t, 0, c.Pending())

	// Buffered bytes from before the reset never leak into later frames.
	frames := c.Write(fill(100, 0xbb))
	require.Len(t, frames, 1)
	assert.Equal(t, fill(100, 0xbb), frames[0])
}

func TestChunkerFramesAreIndependentCopies(t *testing.T) {
	c := NewChunker(4)

	input := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	frames := c.Write(input)
	require.Len(t, frames, 2)

	// Mutating the input must not corrupt already returned frames.
	input[0] = 0xff
	assert.Equal(t, []byte{1, 2, 3, 4}, frames[0])
}

func TestChunkerPanicsOnInvalidSize(t *testing.T) {
	assert.Panics(t, func() { NewChunker(0) })
	assert.Panics(t, func() { NewChunker(-1) })
}
