package codec

import (
	"github.com/embedkit/webcodecs-core/internal/chunkenc"
	"github.com/embedkit/webcodecs-core/internal/cmq"
	"github.com/embedkit/webcodecs-core/internal/codecerr"
	"github.com/embedkit/webcodecs-core/internal/codeclib"
	"github.com/embedkit/webcodecs-core/internal/config"
	"github.com/embedkit/webcodecs-core/internal/state"
)

// VideoDecoder is the video decoder codec object (§4.1, §6).
type VideoDecoder struct {
	*base
}

// NewVideoDecoder constructs an unconfigured video decoder.
func NewVideoDecoder(opts Options) (*VideoDecoder, error) {
	b, err := newBase(state.VideoDecoder, opts)
	if err != nil {
		return nil, err
	}
	return &VideoDecoder{base: b}, nil
}

// Configure configures the decoder (§4.1).
func (d *VideoDecoder) Configure(cfg *config.VideoDecoderConfig) error {
	return d.configure(cfg)
}

// Decode submits an encoded chunk for decoding. The first chunk since
// configure()/reset() must be a key chunk (§3, §8.9); violating this is
// delivered asynchronously as a *data* error, not returned synchronously.
func (d *VideoDecoder) Decode(chunk *chunkenc.Chunk) error {
	if chunk == nil {
		return codecerr.NewTypeError("videoDecoder.decode: chunk is required")
	}

	execute := func() ([]any, error) {
		handle := d.currentHandle()
		if handle == nil {
			return nil, codecerr.NewInvalidStateError("videoDecoder.decode: codec not configured")
		}
		if err := handle.SendInput(chunk); err != nil {
			return nil, err
		}
		return handle.ReceiveOutputs()
	}

	return d.submit(cmq.Decode, d.decoderKeyCheck(chunk.IsKey()), execute)
}

// Flush returns a future resolving after all prior outputs are delivered
// (§4.1, §4.2).
func (d *VideoDecoder) Flush() (*FlushFuture, error) {
	return d.flush()
}

// Reset synchronously discards queued work (§4.1).
func (d *VideoDecoder) Reset() error {
	return d.reset()
}

// Close tears the decoder down permanently (§4.1).
func (d *VideoDecoder) Close() error {
	return d.close()
}

// IsVideoDecoderConfigSupported probes whether library can honor cfg.
func IsVideoDecoderConfigSupported(library codeclib.Library, cfg *config.VideoDecoderConfig) (bool, *config.VideoDecoderConfig, error) {
	supported, cloned, err := IsConfigSupported(library, state.VideoDecoder, cfg)
	if cloned == nil {
		return supported, nil, err
	}
	return supported, cloned.(*config.VideoDecoderConfig), err
}
