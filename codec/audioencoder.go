package codec

import (
	"github.com/embedkit/webcodecs-core/internal/chunkenc"
	"github.com/embedkit/webcodecs-core/internal/cmq"
	"github.com/embedkit/webcodecs-core/internal/codecerr"
	"github.com/embedkit/webcodecs-core/internal/codeclib"
	"github.com/embedkit/webcodecs-core/internal/config"
	"github.com/embedkit/webcodecs-core/internal/mediaresource"
	"github.com/embedkit/webcodecs-core/internal/state"
)

// EncodedAudioChunkOutput pairs an encoded chunk with the decoder config
// that accompanies the first chunk after every configure()/reset().
type EncodedAudioChunkOutput struct {
	Chunk         *chunkenc.Chunk
	DecoderConfig *config.AudioDecoderConfig
}

// AudioEncoder is the audio encoder codec object (§4.1, §6).
type AudioEncoder struct {
	*base
}

// NewAudioEncoder constructs an unconfigured audio encoder.
func NewAudioEncoder(opts Options) (*AudioEncoder, error) {
	b, err := newBase(state.AudioEncoder, opts)
	if err != nil {
		return nil, err
	}
	e := &AudioEncoder{base: b}
	b.decorate = e.decorateOutput
	return e, nil
}

// Configure configures the encoder (§4.1).
func (e *AudioEncoder) Configure(cfg *config.AudioEncoderConfig) error {
	return e.configure(cfg)
}

// Encode submits audio data for encoding (§4.1).
func (e *AudioEncoder) Encode(data *mediaresource.AudioData) error {
	if data == nil {
		return codecerr.NewTypeError("audioEncoder.encode: data is required")
	}

	owned, err := data.Clone()
	if err != nil {
		return err
	}

	execute := func() ([]any, error) {
		defer owned.Close()
		handle := e.currentHandle()
		if handle == nil {
			return nil, codecerr.NewInvalidStateError("audioEncoder.encode: codec not configured")
		}
		if err := handle.SendInput(owned); err != nil {
			return nil, err
		}
		raw, err := handle.ReceiveOutputs()
		if err != nil {
			return nil, err
		}
		return wrapChunks(raw), nil
	}

	return e.submit(cmq.Encode, nil, execute)
}

// Flush returns a future resolving after all prior outputs are delivered
// (§4.1, §4.2).
func (e *AudioEncoder) Flush() (*FlushFuture, error) {
	return e.flush()
}

// Reset synchronously discards queued work (§4.1).
func (e *AudioEncoder) Reset() error {
	return e.reset()
}

// Close tears the encoder down permanently (§4.1).
func (e *AudioEncoder) Close() error {
	return e.close()
}

func (e *AudioEncoder) decorateOutput(out any) any {
	chunk, ok := out.(*chunkenc.Chunk)
	if !ok {
		return out
	}

	e.mu.Lock()
	var decoderCfg *config.AudioDecoderConfig
	if !e.outputConfigEmitted {
		e.outputConfigEmitted = true
		if enc, ok := e.cfg.(*config.AudioEncoderConfig); ok {
			decoderCfg = &config.AudioDecoderConfig{
				Codec:            enc.Codec,
				SampleRate:       enc.SampleRate,
				NumberOfChannels: enc.NumberOfChannels,
				Description:      append([]byte(nil), enc.Description...),
			}
		}
	}
	e.mu.Unlock()

	return EncodedAudioChunkOutput{Chunk: chunk, DecoderConfig: decoderCfg}
}

// IsAudioEncoderConfigSupported probes whether library can honor cfg.
func IsAudioEncoderConfigSupported(library codeclib.Library, cfg *config.AudioEncoderConfig) (bool, *config.AudioEncoderConfig, error) {
	supported, cloned, err := IsConfigSupported(library, state.AudioEncoder, cfg)
	if cloned == nil {
		return supported, nil, err
	}
	return supported, cloned.(*config.AudioEncoderConfig), err
}
