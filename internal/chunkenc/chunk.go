// Package chunkenc implements EncodedChunk, the immutable owned byte
// sequence produced by encoders and consumed by decoders (§3).
package chunkenc

import "github.com/embedkit/webcodecs-core/internal/codecerr"

// Type tags whether a chunk can be decoded standalone (Key) or depends on
// a prior key chunk (Delta).
type Type int

const (
	Key Type = iota
	Delta
)

func (t Type) String() string {
	if t == Key {
		return "key"
	}
	return "delta"
}

// Chunk is an immutable, owned encoded byte sequence with timing and
// key/delta tags. Once constructed its Data is never mutated.
type Chunk struct {
	chunkType  Type
	timestamp  int64
	duration   *int64
	data       []byte
}

// New constructs a Chunk, taking ownership of a private copy of data so the
// caller's buffer can be reused or mutated freely afterward.
func New(chunkType Type, timestampUs int64, durationUs *int64, data []byte) *Chunk {
	owned := make([]byte, len(data))
	copy(owned, data)

	var dur *int64
	if durationUs != nil {
		d := *durationUs
		dur = &d
	}

	return &Chunk{
		chunkType: chunkType,
		timestamp: timestampUs,
		duration:  dur,
		data:      owned,
	}
}

// Type returns whether this chunk is a key or delta chunk.
func (c *Chunk) Type() Type { return c.chunkType }

// TimestampUs returns the presentation timestamp in microseconds.
func (c *Chunk) TimestampUs() int64 { return c.timestamp }

// DurationUs returns the chunk's duration in microseconds, or nil if
// unknown.
func (c *Chunk) DurationUs() *int64 { return c.duration }

// ByteLength returns the number of bytes in the chunk's payload.
func (c *Chunk) ByteLength() int { return len(c.data) }

// CopyTo copies the chunk's bytes into dst. Fails with a *type* error when
// dst is smaller than ByteLength().
func (c *Chunk) CopyTo(dst []byte) error {
	if len(dst) < len(c.data) {
		return codecerr.NewTypeError("copyTo destination has %d bytes, need %d", len(dst), len(c.data))
	}
	copy(dst, c.data)
	return nil
}

// IsKey reports whether this chunk can be decoded standalone.
func (c *Chunk) IsKey() bool {
	return c.chunkType == Key
}
