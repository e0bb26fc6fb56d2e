package codec

import (
	"github.com/embedkit/webcodecs-core/internal/chunkenc"
	"github.com/embedkit/webcodecs-core/internal/cmq"
	"github.com/embedkit/webcodecs-core/internal/codecerr"
	"github.com/embedkit/webcodecs-core/internal/codeclib"
	"github.com/embedkit/webcodecs-core/internal/config"
	"github.com/embedkit/webcodecs-core/internal/state"
)

// AudioDecoder is the audio decoder codec object (§4.1, §6).
type AudioDecoder struct {
	*base
}

// NewAudioDecoder constructs an unconfigured audio decoder.
func NewAudioDecoder(opts Options) (*AudioDecoder, error) {
	b, err := newBase(state.AudioDecoder, opts)
	if err != nil {
		return nil, err
	}
	return &AudioDecoder{base: b}, nil
}

// Configure configures the decoder (§4.1).
func (d *AudioDecoder) Configure(cfg *config.AudioDecoderConfig) error {
	return d.configure(cfg)
}

// Decode submits an encoded chunk for decoding. The first chunk since
// configure()/reset() must be a key chunk (§3, §8.9).
func (d *AudioDecoder) Decode(chunk *chunkenc.Chunk) error {
	if chunk == nil {
		return codecerr.NewTypeError("audioDecoder.decode: chunk is required")
	}

	execute := func() ([]any, error) {
		handle := d.currentHandle()
		if handle == nil {
			return nil, codecerr.NewInvalidStateError("audioDecoder.decode: codec not configured")
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
func (d *AudioDecoder) Flush() (*FlushFuture, error) {
	return d.flush()
}

// Reset synchronously discards queued work (§4.1).
func (d *AudioDecoder) Reset() error {
	return d.reset()
}

// Close tears the decoder down permanently (§4.1).
func (d *AudioDecoder) Close() error {
	return d.close()
}

// IsAudioDecoderConfigSupported probes whether library can honor cfg.
func IsAudioDecoderConfigSupported(library codeclib.Library, cfg *config.AudioDecoderConfig) (bool, *config.AudioDecoderConfig, error) {
	supported, cloned, err := IsConfigSupported(library, state.AudioDecoder, cfg)
	if cloned == nil {
		return supported, nil, err
	}
	return supported, cloned.(*config.AudioDecoderConfig), err
}
