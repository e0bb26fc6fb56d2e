package codeclib

import (
	"github.com/embedkit/webcodecs-core/internal/chunkenc"
	"github.com/embedkit/webcodecs-core/internal/codecerr"
	"github.com/embedkit/webcodecs-core/internal/config"
	"github.com/embedkit/webcodecs-core/internal/mediaresource"
	"github.com/embedkit/webcodecs-core/internal/state"
)

// syntheticCodecs lists codec name strings the synthetic library accepts,
// standing in for the set of codecs a real native library would probe.
var syntheticCodecs = map[string]bool{
	"vp8": true, "vp09.00.10.08": true, "av01.0.04M.08": true, "avc1.42001f": true,
	"opus": true, "mp4a.40.2": true, "alaw": true, "ulaw": true, "pcm-s16": true,
}

// SyntheticLibrary is an in-process stand-in codec library used by tests and
// cmd/codecctl when no real ffmpeg binary is wanted. It does not compress
// anything: encoders wrap input bytes into a Chunk unchanged and decoders
// wrap a Chunk's bytes back into a MediaResource sized per the handle's
// config, so round-tripping through it is lossless and deterministic.
type SyntheticLibrary struct{}

// NewSyntheticLibrary constructs a SyntheticLibrary.
func NewSyntheticLibrary() *SyntheticLibrary { return &SyntheticLibrary{} }

func (l *SyntheticLibrary) Create(kind state.CodecKind, cfg config.CodecConfig) (Handle, error) {
	ok, err := l.IsConfigSupported(kind, cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, codecerr.NewNotSupportedError("synthetic library does not support this configuration")
	}
	switch kind {
	case state.VideoEncoder:
		return &videoEncoderHandle{cfg: cfg.(*config.VideoEncoderConfig)}, nil
	case state.VideoDecoder:
		return &videoDecoderHandle{cfg: cfg.(*config.VideoDecoderConfig)}, nil
	case state.AudioEncoder:
		return &audioEncoderHandle{cfg: cfg.(*config.AudioEncoderConfig)}, nil
	case state.AudioDecoder:
		return &audioDecoderHandle{cfg: cfg.(*config.AudioDecoderConfig)}, nil
	default:
		return nil, codecerr.NewNotSupportedError("synthetic library has no handle for %s", kind)
	}
}

func (l *SyntheticLibrary) IsConfigSupported(kind state.CodecKind, cfg config.CodecConfig) (bool, error) {
	if cfg == nil {
		return false, codecerr.NewTypeError("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return false, nil
	}
	switch c := cfg.(type) {
	case *config.VideoEncoderConfig:
		return syntheticCodecs[c.Codec], nil
	case *config.VideoDecoderConfig:
		return syntheticCodecs[c.Codec], nil
	case *config.AudioEncoderConfig:
		return syntheticCodecs[c.Codec], nil
	case *config.AudioDecoderConfig:
		return syntheticCodecs[c.Codec], nil
	default:
		return false, codecerr.NewTypeError("unsupported config kind for %s", kind)
	}
}

// freeGuard tracks whether Free has been called, shared by every synthetic
// handle kind.
type freeGuard struct{ freed bool }

func (g *freeGuard) checkLive(op string) error {
	if g.freed {
		return codecerr.NewInvalidStateError("%s: handle already freed", op)
	}
	return nil
}

func (g *freeGuard) Free() { g.freed = true }

// videoEncoderHandle passes each frame's bytes through as an immediately
// produced key chunk; it has nothing left to emit on Flush.
type videoEncoderHandle struct {
	freeGuard
	cfg     *config.VideoEncoderConfig
	pending []any
}

func (h *videoEncoderHandle) SendInput(input any) error {
	if err := h.checkLive("videoEncoderHandle.encode"); err != nil {
		return err
	}
	frame, ok := input.(*mediaresource.VideoFrame)
	if !ok {
		return codecerr.NewTypeError("video encoder expects a *mediaresource.VideoFrame")
	}
	data, err := frame.Bytes()
	if err != nil {
		return err
	}
	h.pending = append(h.pending, chunkenc.New(chunkenc.Key, frame.TimestampUs, frame.DurationUs, data))
	return nil
}

func (h *videoEncoderHandle) ReceiveOutputs() ([]any, error) {
	out := h.pending
	h.pending = nil
	return out, nil
}

func (h *videoEncoderHandle) Flush() ([]any, error) {
	return h.ReceiveOutputs()
}

// videoDecoderHandle reconstructs a VideoFrame from each chunk's bytes,
// tagged with the decoder's configured coded dimensions.
type videoDecoderHandle struct {
	freeGuard
	cfg     *config.VideoDecoderConfig
	pending []any
}

func (h *videoDecoderHandle) SendInput(input any) error {
	if err := h.checkLive("videoDecoderHandle.decode"); err != nil {
		return err
	}
	chunk, ok := input.(*chunkenc.Chunk)
	if !ok {
		return codecerr.NewTypeError("video decoder expects a *chunkenc.Chunk")
	}
	buf := make([]byte, chunk.ByteLength())
	if err := chunk.CopyTo(buf); err != nil {
		return err
	}
	rect := mediaresource.Rect{Width: h.cfg.Width, Height: h.cfg.Height}
	frame := mediaresource.NewVideoFrame(buf, nil, mediaresource.VideoFrame{
		Format:        "I420",
		CodedWidth:    h.cfg.Width,
		CodedHeight:   h.cfg.Height,
		CodedRect:     rect,
		VisibleRect:   rect,
		DisplayWidth:  h.cfg.Width,
		DisplayHeight: h.cfg.Height,
		TimestampUs:   chunk.TimestampUs(),
		DurationUs:    chunk.DurationUs(),
	})
	h.pending = append(h.pending, frame)
	return nil
}

func (h *videoDecoderHandle) ReceiveOutputs() ([]any, error) {
	out := h.pending
	h.pending = nil
	return out, nil
}

func (h *videoDecoderHandle) Flush() ([]any, error) {
	return h.ReceiveOutputs()
}

// audioEncoderHandle passes each buffer's bytes through as an immediately
// produced key chunk.
type audioEncoderHandle struct {
	freeGuard
	cfg     *config.AudioEncoderConfig
	pending []any
}

func (h *audioEncoderHandle) SendInput(input any) error {
	if err := h.checkLive("audioEncoderHandle.encode"); err != nil {
		return err
	}
	data, ok := input.(*mediaresource.AudioData)
	if !ok {
		return codecerr.NewTypeError("audio encoder expects a *mediaresource.AudioData")
	}
	bytes, err := data.Bytes()
	if err != nil {
		return err
	}
	dur := data.Duration()
	h.pending = append(h.pending, chunkenc.New(chunkenc.Key, data.TimestampUs, &dur, bytes))
	return nil
}

func (h *audioEncoderHandle) ReceiveOutputs() ([]any, error) {
	out := h.pending
	h.pending = nil
	return out, nil
}

func (h *audioEncoderHandle) Flush() ([]any, error) {
	return h.ReceiveOutputs()
}

// audioDecoderHandle reconstructs an AudioData from each chunk's bytes,
// tagged with the decoder's configured sample format. NumberOfFrames is
// derived from the byte length assuming 16-bit samples, matching the
// synthetic encoder's pass-through payload.
type audioDecoderHandle struct {
	freeGuard
	cfg     *config.AudioDecoderConfig
	pending []any
}

func (h *audioDecoderHandle) SendInput(input any) error {
	if err := h.checkLive("audioDecoderHandle.decode"); err != nil {
		return err
	}
	chunk, ok := input.(*chunkenc.Chunk)
	if !ok {
		return codecerr.NewTypeError("audio decoder expects a *chunkenc.Chunk")
	}
	buf := make([]byte, chunk.ByteLength())
	if err := chunk.CopyTo(buf); err != nil {
		return err
	}
	bytesPerFrame := 2 * h.cfg.NumberOfChannels
	var frames uint32
	if bytesPerFrame > 0 {
		frames = uint32(len(buf)) / bytesPerFrame
	}
	h.pending = append(h.pending, mediaresource.NewAudioData(buf, nil, mediaresource.AudioData{
		Format:           "s16",
		SampleRate:       h.cfg.SampleRate,
		NumberOfFrames:   frames,
		NumberOfChannels: h.cfg.NumberOfChannels,
		TimestampUs:      chunk.TimestampUs(),
	}))
	return nil
}

func (h *audioDecoderHandle) ReceiveOutputs() ([]any, error) {
	out := h.pending
	h.pending = nil
	return out, nil
}

func (h *audioDecoderHandle) Flush() ([]any, error) {
	return h.ReceiveOutputs()
}
