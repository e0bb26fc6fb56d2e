// Package codeclib defines the native codec library binding contract
// (§6: create/configure/send-packet/send-frame/receive-packet/
// receive-frame/flush/free) and two implementations: an in-process
// synthetic library used by tests and cmd/codecctl, and an
// ffmpeg-process-backed library for real elementary-stream codecs.
//
// Every call on a Handle must come from a single goroutine — the CWQ
// worker that owns it — matching the spec's "single-threaded per handle"
// threading contract.
package codeclib

import (
	"github.com/embedkit/webcodecs-core/internal/config"
	"github.com/embedkit/webcodecs-core/internal/state"
)

// Library creates Handles for a given codec kind and configuration.
type Library interface {
	// Create instantiates a native codec context for kind, configured with
	// cfg. Returns a *not-supported* codecerr if the library cannot honor
	// cfg.
	Create(kind state.CodecKind, cfg config.CodecConfig) (Handle, error)

	// IsConfigSupported reports whether Create would accept cfg for kind,
	// without creating a handle or touching the CWQ (§4.1's
	// isConfigSupported).
	IsConfigSupported(kind state.CodecKind, cfg config.CodecConfig) (bool, error)
}

// Handle is a configured native codec context bound to one codec object.
// Encoders accept *mediaresource.VideoFrame / *mediaresource.AudioData via
// SendInput and produce *chunkenc.Chunk via ReceiveOutputs. Decoders accept
// *chunkenc.Chunk and produce *mediaresource.VideoFrame /
// *mediaresource.AudioData. The exact types are kind-dependent; callers
// know which kind they created.
type Handle interface {
	// SendInput submits one unit of work to the native codec. It may block
	// briefly if the underlying process's input buffer is full, but must
	// not block indefinitely — the CWQ worker calls this synchronously per
	// job.
	SendInput(input any) error

	// ReceiveOutputs drains whatever outputs the native codec has produced
	// so far without blocking for more input.
	ReceiveOutputs() ([]any, error)

	// Flush signals end-of-stream to the native codec and blocks until all
	// buffered output has been produced and returned.
	Flush() ([]any, error)

	// Free releases the native codec context. Idempotent.
	Free()
}

// ImageLibrary decodes complete or streaming image buffers (§4.5). Unlike
// Library/Handle this models the image decoder's demux+decode-together
// surface rather than a streaming chunk codec.
type ImageLibrary interface {
	// IsTypeSupported is the static isTypeSupported(type) probe.
	IsTypeSupported(mimeType string) (bool, error)

	// Open begins parsing an image source identified by mimeType.
	Open(mimeType string) (ImageHandle, error)
}

// ImageMeta is the metadata available once an image source's container
// header has been parsed (§4.5's ImageTrack fields).
type ImageMeta struct {
	FrameCount      int
	Animated        bool
	RepetitionCount int // -1 means infinite ("∞ for loop-forever")
	Width           uint32
	Height          uint32
}

// ImageHandle incrementally consumes an image byte stream and decodes
// individual frames on demand.
type ImageHandle interface {
	// Feed appends newly available bytes to the source. final marks the
	// end of input for a non-streaming caller that already has the whole
	// buffer.
	Feed(data []byte, final bool) error

	// Meta returns the parsed metadata once available, or ok=false if the
	// header hasn't been parsed yet.
	Meta() (meta ImageMeta, ok bool)

	// Complete reports whether the full input has been consumed.
	Complete() bool

	// DecodeFrame decodes the frame at frameIndex. It does not block: it
	// returns a *range* error while the frame's bytes have not arrived yet
	// or frameIndex is past the source's frame count, and an *encoding*
	// error for undecodable data. Waiting for more data is done by
	// codec/imagedecoder.go, which retries pending decodes on each Feed.
	DecodeFrame(frameIndex int) (frame any, err error)

	// Free releases resources held by this decode session.
	Free()
}
