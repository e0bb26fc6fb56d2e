package codeclib

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/embedkit/webcodecs-core/internal/chunkenc"
	"github.com/embedkit/webcodecs-core/internal/codecerr"
	"github.com/embedkit/webcodecs-core/internal/config"
	"github.com/embedkit/webcodecs-core/internal/mediaresource"
	"github.com/embedkit/webcodecs-core/internal/state"
)

// ffmpegVideoEncoders maps a codec string to the ffmpeg encoder name that
// can produce it, restricted to codecs with a real elementary-stream
// muxer (`-f ivf`) so this package never has to write its own demuxer
// (§ Non-goals: no container muxing/demuxing).
var ffmpegVideoEncoders = map[string]string{
	"vp8":           "libvpx",
	"vp09.00.10.08": "libvpx-vp9",
	"av01.0.04M.08": "libaom-av1",
}

// FFmpegLibrary implements Library by shelling out to an ffmpeg binary per
// handle, grounded on the teacher's internal/ffmpeg.RunEncode: a
// context-scoped subprocess with piped stdin/stdout and a background
// reader goroutine, here parsing IVF frames or raw PCM instead of stderr
// progress lines.
type FFmpegLibrary struct {
	// Binary is the ffmpeg executable name or path. Defaults to "ffmpeg".
	Binary string
}

// NewFFmpegLibrary constructs an FFmpegLibrary using the "ffmpeg" binary
// found on PATH.
func NewFFmpegLibrary() *FFmpegLibrary {
	return &FFmpegLibrary{Binary: "ffmpeg"}
}

func (l *FFmpegLibrary) binary() string {
	if l.Binary == "" {
		return "ffmpeg"
	}
	return l.Binary
}

func (l *FFmpegLibrary) IsConfigSupported(kind state.CodecKind, cfg config.CodecConfig) (bool, error) {
	if cfg == nil {
		return false, codecerr.NewTypeError("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return false, nil
	}
	switch c := cfg.(type) {
	case *config.VideoEncoderConfig:
		_, ok := ffmpegVideoEncoders[c.Codec]
		return ok, nil
	case *config.VideoDecoderConfig:
		_, err := ivfFourcc(c.Codec)
		return err == nil, nil
	case *config.AudioEncoderConfig:
		return c.Codec == "pcm-s16", nil
	case *config.AudioDecoderConfig:
		return c.Codec == "pcm-s16", nil
	default:
		return false, codecerr.NewTypeError("unsupported config kind for %s", kind)
	}
}

func (l *FFmpegLibrary) Create(kind state.CodecKind, cfg config.CodecConfig) (Handle, error) {
	ok, err := l.IsConfigSupported(kind, cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, codecerr.NewNotSupportedError("ffmpeg library does not support this configuration")
	}

	args, frameBytes, useIVF, codec, err := buildFFmpegArgs(kind, cfg)
	if err != nil {
		return nil, codecerr.NewNotSupportedError("%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, l.binary(), args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, codecerr.WrapExecError("ffmpeg", err, "")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, codecerr.WrapExecError("ffmpeg", err, "")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, codecerr.WrapExecError("ffmpeg", err, "")
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, codecerr.WrapExecError("ffmpeg", err, "")
	}

	h := &ffmpegHandle{
		kind:       kind,
		cfg:        cfg,
		codec:      codec,
		cmd:        cmd,
		cancel:     cancel,
		stdin:      stdin,
		frameBytes: frameBytes,
		readDone:   make(chan struct{}),
	}
	if useIVF {
		h.ivf = &ivfFramer{}
	}
	if kind == state.VideoDecoder {
		fourcc, _ := ivfFourcc(cfg.(*config.VideoDecoderConfig).Codec)
		h.ivfOutFourcc = fourcc
		h.ivfWidth = uint16(cfg.(*config.VideoDecoderConfig).Width)
		h.ivfHeight = uint16(cfg.(*config.VideoDecoderConfig).Height)
	}

	go h.readStdout(stdout)
	go h.drainStderr(stderr)

	return h, nil
}

func buildFFmpegArgs(kind state.CodecKind, cfg config.CodecConfig) (args []string, frameBytes int, useIVF bool, codec string, err error) {
	switch c := cfg.(type) {
	case *config.VideoEncoderConfig:
		encoder := ffmpegVideoEncoders[c.Codec]
		args = []string{
			"-loglevel", "error",
			"-f", "rawvideo", "-pix_fmt", "yuv420p",
			"-s", fmt.Sprintf("%dx%d", c.Width, c.Height),
			"-r", "30",
			"-i", "-",
			"-c:v", encoder,
			"-f", "ivf", "-",
		}
		return args, 0, true, c.Codec, nil

	case *config.VideoDecoderConfig:
		args = []string{
			"-loglevel", "error",
			"-f", "ivf",
			"-i", "-",
			"-f", "rawvideo", "-pix_fmt", "yuv420p",
			"-",
		}
		frameBytes = int(c.Width) * int(c.Height) * 3 / 2
		return args, frameBytes, false, c.Codec, nil

	case *config.AudioEncoderConfig:
		if c.Codec != "pcm-s16" {
			return nil, 0, false, "", fmt.Errorf("codeclib: unsupported audio encoder codec %q", c.Codec)
		}
		args = []string{
			"-loglevel", "error",
			"-f", "s16le", "-ar", fmt.Sprint(c.SampleRate), "-ac", fmt.Sprint(c.NumberOfChannels),
			"-i", "-",
			"-f", "s16le", "-ar", fmt.Sprint(c.SampleRate), "-ac", fmt.Sprint(c.NumberOfChannels),
			"-",
		}
		frameBytes = int(c.SampleRate) / 50 * int(c.NumberOfChannels) * 2 // 20ms frames
		return args, frameBytes, false, c.Codec, nil

	case *config.AudioDecoderConfig:
		if c.Codec != "pcm-s16" {
			return nil, 0, false, "", fmt.Errorf("codeclib: unsupported audio decoder codec %q", c.Codec)
		}
		args = []string{
			"-loglevel", "error",
			"-f", "s16le", "-ar", fmt.Sprint(c.SampleRate), "-ac", fmt.Sprint(c.NumberOfChannels),
			"-i", "-",
			"-f", "s16le", "-ar", fmt.Sprint(c.SampleRate), "-ac", fmt.Sprint(c.NumberOfChannels),
			"-",
		}
		frameBytes = int(c.SampleRate) / 50 * int(c.NumberOfChannels) * 2
		return args, frameBytes, false, c.Codec, nil

	default:
		return nil, 0, false, "", fmt.Errorf("codeclib: unrecognized config type %T", cfg)
	}
}

// ffmpegHandle drives one ffmpeg subprocess as a Handle. Input for video
// decode is wrapped into IVF frames before being written to stdin; every
// other direction writes raw bytes straight through. Output is parsed back
// into domain values (*chunkenc.Chunk or *mediaresource.VideoFrame /
// *mediaresource.AudioData) by the background reader goroutine.
type ffmpegHandle struct {
	kind  state.CodecKind
	cfg   config.CodecConfig
	codec string

	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdin  io.WriteCloser

	ivf          *ivfFramer
	ivfOutFourcc string
	ivfWidth     uint16
	ivfHeight    uint16
	ivfInHdrSent bool

	frameBytes int
	fixedBuf   []byte

	mu         sync.Mutex
	outputs    []any
	timestamps []int64
	durations  []*int64
	closed     bool

	readDone chan struct{}
	stderr   strings.Builder
}

func (h *ffmpegHandle) pushTiming(ts int64, dur *int64) {
	h.mu.Lock()
	h.timestamps = append(h.timestamps, ts)
	h.durations = append(h.durations, dur)
	h.mu.Unlock()
}

func (h *ffmpegHandle) popTiming() (int64, *int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.timestamps) == 0 {
		return 0, nil
	}
	ts := h.timestamps[0]
	dur := h.durations[0]
	h.timestamps = h.timestamps[1:]
	h.durations = h.durations[1:]
	return ts, dur
}

func (h *ffmpegHandle) appendOutput(v any) {
	h.mu.Lock()
	h.outputs = append(h.outputs, v)
	h.mu.Unlock()
}

func (h *ffmpegHandle) SendInput(input any) error {
	if h.closed {
		return codecerr.NewInvalidStateError("ffmpegHandle: use after Free")
	}

	switch h.kind {
	case state.VideoEncoder:
		frame, ok := input.(*mediaresource.VideoFrame)
		if !ok {
			return codecerr.NewTypeError("video encoder expects a *mediaresource.VideoFrame")
		}
		data, err := frame.Bytes()
		if err != nil {
			return err
		}
		h.pushTiming(frame.TimestampUs, frame.DurationUs)
		_, err = h.stdin.Write(data)
		return wrapWriteErr(err)

	case state.AudioEncoder:
		data, ok := input.(*mediaresource.AudioData)
		if !ok {
			return codecerr.NewTypeError("audio encoder expects a *mediaresource.AudioData")
		}
		bytes, err := data.Bytes()
		if err != nil {
			return err
		}
		dur := data.Duration()
		h.pushTiming(data.TimestampUs, &dur)
		_, err = h.stdin.Write(bytes)
		return wrapWriteErr(err)

	case state.VideoDecoder, state.AudioDecoder:
		chunk, ok := input.(*chunkenc.Chunk)
		if !ok {
			return codecerr.NewTypeError("decoder expects a *chunkenc.Chunk")
		}
		buf := make([]byte, chunk.ByteLength())
		if err := chunk.CopyTo(buf); err != nil {
			return err
		}
		h.pushTiming(chunk.TimestampUs(), chunk.DurationUs())

		if h.kind == state.VideoDecoder {
			var framed []byte
			if !h.ivfInHdrSent {
				framed = appendIVFFileHeader(framed, h.ivfOutFourcc, h.ivfWidth, h.ivfHeight)
				h.ivfInHdrSent = true
			}
			framed = appendIVFFrame(framed, buf, uint64(chunk.TimestampUs()))
			_, err := h.stdin.Write(framed)
			return wrapWriteErr(err)
		}
		_, err := h.stdin.Write(buf)
		return wrapWriteErr(err)

	default:
		return codecerr.NewNotSupportedError("ffmpeg library has no handle direction for %s", h.kind)
	}
}

func wrapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	return codecerr.WrapExecError("ffmpeg stdin write", err, "")
}

func (h *ffmpegHandle) ReceiveOutputs() ([]any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.outputs
	h.outputs = nil
	return out, nil
}

// Flush closes stdin so ffmpeg sees end-of-stream, waits for the reader
// goroutine to drain stdout and the process to exit, and returns whatever
// outputs remain buffered.
func (h *ffmpegHandle) Flush() ([]any, error) {
	if h.closed {
		return nil, codecerr.NewInvalidStateError("ffmpegHandle: use after Free")
	}
	_ = h.stdin.Close()
	<-h.readDone

	waitErr := h.cmd.Wait()
	if waitErr != nil {
		return nil, codecerr.WrapExecError("ffmpeg", waitErr, h.stderr.String())
	}
	return h.ReceiveOutputs()
}

// Free terminates the subprocess if still running and releases resources.
// Idempotent.
func (h *ffmpegHandle) Free() {
	if h.closed {
		return
	}
	h.closed = true
	h.cancel()
	_ = h.stdin.Close()
	<-h.readDone
	_ = h.cmd.Wait()
}

func (h *ffmpegHandle) readStdout(stdout io.Reader) {
	defer close(h.readDone)
	buf := make([]byte, 32*1024)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			h.consume(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (h *ffmpegHandle) consume(b []byte) {
	if h.ivf != nil {
		frames := h.ivf.feed(b)
		for i, payload := range frames {
			ts, dur := h.popTiming()
			switch h.kind {
			case state.VideoEncoder:
				key := true
				if h.codec == "vp8" {
					key = isVP8KeyFrame(payload)
				} else {
					key = h.ivf.frameIndex-len(frames)+i == 0
				}
				ctype := chunkenc.Delta
				if key {
					ctype = chunkenc.Key
				}
				h.appendOutput(chunkenc.New(ctype, ts, dur, payload))
			}
		}
		return
	}

	h.fixedBuf = append(h.fixedBuf, b...)
	for h.frameBytes > 0 && len(h.fixedBuf) >= h.frameBytes {
		payload := make([]byte, h.frameBytes)
		copy(payload, h.fixedBuf[:h.frameBytes])
		h.fixedBuf = h.fixedBuf[h.frameBytes:]
		ts, dur := h.popTiming()

		switch h.kind {
		case state.AudioEncoder:
			h.appendOutput(chunkenc.New(chunkenc.Key, ts, dur, payload))
		case state.VideoDecoder:
			c := h.cfg.(*config.VideoDecoderConfig)
			rect := mediaresource.Rect{Width: c.Width, Height: c.Height}
			h.appendOutput(mediaresource.NewVideoFrame(payload, nil, mediaresource.VideoFrame{
				Format:        "I420",
				CodedWidth:    c.Width,
				CodedHeight:   c.Height,
				CodedRect:     rect,
				VisibleRect:   rect,
				DisplayWidth:  c.Width,
				DisplayHeight: c.Height,
				TimestampUs:   ts,
				DurationUs:    dur,
			}))
		case state.AudioDecoder:
			c := h.cfg.(*config.AudioDecoderConfig)
			bytesPerFrame := 2 * c.NumberOfChannels
			var frames uint32
			if bytesPerFrame > 0 {
				frames = uint32(len(payload)) / bytesPerFrame
			}
			h.appendOutput(mediaresource.NewAudioData(payload, nil, mediaresource.AudioData{
				Format:           "s16",
				SampleRate:       c.SampleRate,
				NumberOfFrames:   frames,
				NumberOfChannels: c.NumberOfChannels,
				TimestampUs:      ts,
			}))
		}
	}
}

func (h *ffmpegHandle) drainStderr(stderr io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			h.stderr.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}
