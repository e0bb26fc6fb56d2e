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

// EncodedVideoChunkOutput pairs an encoded chunk with the decoder config
// that must accompany the first chunk after every configure()/reset()
// (§3's "[[active output config]]" metadata item).
type EncodedVideoChunkOutput struct {
	Chunk          *chunkenc.Chunk
	DecoderConfig  *config.VideoDecoderConfig // non-nil only on the first output since (re)configure
}

// VideoEncoder is the video encoder codec object (§4.1, §6).
type VideoEncoder struct {
	*base
}

// NewVideoEncoder constructs an unconfigured video encoder bound to a
// native codec library.
func NewVideoEncoder(opts Options) (*VideoEncoder, error) {
	b, err := newBase(state.VideoEncoder, opts)
	if err != nil {
		return nil, err
	}
	e := &VideoEncoder{base: b}
	b.decorate = e.decorateOutput
	return e, nil
}

// Configure configures the encoder (§4.1).
func (e *VideoEncoder) Configure(cfg *config.VideoEncoderConfig) error {
	return e.configure(cfg)
}

// Encode submits a video frame for encoding (§4.1, §3's orientation
// decision: a frame whose orientation differs from the
// [[active orientation]] established by the first encoded frame is
// rejected with a *data* error rather than normalized, per SPEC_FULL.md
// Open Question 1).
func (e *VideoEncoder) Encode(frame *mediaresource.VideoFrame) error {
	if frame == nil {
		return codecerr.NewTypeError("videoEncoder.encode: frame is required")
	}

	owned, err := frame.Clone()
	if err != nil {
		return err
	}

	preCheck := func() error {
		e.mu.Lock()
		if e.activeOrientation == nil {
			o := owned.Orientation
			e.activeOrientation = &o
		} else if *e.activeOrientation != owned.Orientation {
			e.mu.Unlock()
			owned.Close()
			return codecerr.NewDataError("videoEncoder.encode: frame orientation does not match the active orientation")
		}
		e.mu.Unlock()
		return nil
	}

	execute := func() ([]any, error) {
		defer owned.Close()
		handle := e.currentHandle()
		if handle == nil {
			return nil, codecerr.NewInvalidStateError("videoEncoder.encode: codec not configured")
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

	return e.submit(cmq.Encode, preCheck, execute)
}

// Flush returns a future that resolves once every prior submission's
// outputs have been produced and delivered (§4.1, §4.2).
func (e *VideoEncoder) Flush() (*FlushFuture, error) {
	return e.flush()
}

// Reset synchronously discards queued work and returns to unconfigured
// (§4.1).
func (e *VideoEncoder) Reset() error {
	return e.reset()
}

// Close tears the encoder down permanently (§4.1).
func (e *VideoEncoder) Close() error {
	return e.close()
}

func wrapChunks(raw []any) []any {
	out := make([]any, 0, len(raw))
	for _, r := range raw {
		if c, ok := r.(*chunkenc.Chunk); ok {
			out = append(out, c)
		}
	}
	return out
}

// decorateOutput attaches a VideoDecoderConfig to the first chunk produced
// since the last configure()/reset(), mirroring the [[active output
// config]] metadata item from §3.
func (e *VideoEncoder) decorateOutput(out any) any {
	chunk, ok := out.(*chunkenc.Chunk)
	if !ok {
		return out
	}

	e.mu.Lock()
	var decoderCfg *config.VideoDecoderConfig
	if !e.outputConfigEmitted {
		e.outputConfigEmitted = true
		if enc, ok := e.cfg.(*config.VideoEncoderConfig); ok {
			decoderCfg = &config.VideoDecoderConfig{
				Codec:       enc.Codec,
				Width:       enc.Width,
				Height:      enc.Height,
				Description: append([]byte(nil), enc.Description...),
				ColorSpace:  enc.ColorSpace,
			}
		}
	}
	e.mu.Unlock()

	return EncodedVideoChunkOutput{Chunk: chunk, DecoderConfig: decoderCfg}
}

// IsVideoEncoderConfigSupported probes whether library can honor cfg (§4.1).
func IsVideoEncoderConfigSupported(library codeclib.Library, cfg *config.VideoEncoderConfig) (bool, *config.VideoEncoderConfig, error) {
	supported, cloned, err := IsConfigSupported(library, state.VideoEncoder, cfg)
	if cloned == nil {
		return supported, nil, err
	}
	return supported, cloned.(*config.VideoEncoderConfig), err
}
