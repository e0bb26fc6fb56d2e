package codec

import (
	"sync"

	"github.com/embedkit/webcodecs-core/internal/codecerr"
	"github.com/embedkit/webcodecs-core/internal/codeclib"
	"github.com/embedkit/webcodecs-core/internal/config"
	"github.com/embedkit/webcodecs-core/internal/imagetrack"
)

// DecodeResult is what a resolved decode() future yields (§4.5).
type DecodeResult struct {
	Image    any // the decoded *mediaresource.VideoFrame from the native library
	Complete bool
}

// DecodeOptions configures a single decode() call (§4.5).
type DecodeOptions struct {
	FrameIndex         int
	CompleteFramesOnly bool
}

type pendingDecode struct {
	opts   DecodeOptions
	future chan decodeSettled
}

type decodeSettled struct {
	result DecodeResult
	err    error
}

// ImageDecoder demuxes and decodes a single image source (§4.5). Unlike the
// streaming codecs it has no CMQ/CWQ/Dispatcher of its own: decode() calls
// block the caller on a one-shot slot until the underlying ImageHandle
// produces the requested frame, since there's no separate "application
// thread" to marshal results back to.
type ImageDecoder struct {
	library codeclib.ImageLibrary

	mu       sync.Mutex
	cfg      *config.ImageDecoderConfig
	handle   codeclib.ImageHandle
	tracks   *imagetrack.List
	complete bool
	closed   bool

	completedOnce sync.Once
	completedCh   chan struct{}

	pending []*pendingDecode
}

// NewImageDecoder validates cfg and opens the native handle. It consumes no
// data itself; source bytes are supplied afterwards through Feed.
func NewImageDecoder(library codeclib.ImageLibrary, cfg *config.ImageDecoderConfig) (*ImageDecoder, error) {
	if library == nil {
		return nil, codecerr.NewTypeError("imageDecoder: a codec library is required")
	}
	if cfg == nil {
		return nil, codecerr.NewTypeError("imageDecoder: config is required")
	}
	clone := cfg.Clone().(*config.ImageDecoderConfig)
	if err := clone.Validate(); err != nil {
		return nil, codecerr.NewTypeError("imageDecoder: %v", err)
	}

	handle, err := library.Open(clone.MimeType)
	if err != nil {
		return nil, err
	}

	return &ImageDecoder{
		library:     library,
		cfg:         clone,
		handle:      handle,
		tracks:      imagetrack.New(),
		completedCh: make(chan struct{}),
	}, nil
}

// Feed appends newly available source bytes. final marks end of input for a
// caller that already has the whole buffer (§4.5).
func (d *ImageDecoder) Feed(data []byte, final bool) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return codecerr.NewInvalidStateError("imageDecoder.feed: decoder is closed")
	}
	handle := d.handle
	d.mu.Unlock()

	if err := handle.Feed(data, final); err != nil {
		return err
	}

	if meta, ok := handle.Meta(); ok && !d.tracks.IsReady() {
		track := imagetrack.Track{
			FrameCount:      meta.FrameCount,
			Animated:        meta.Animated,
			RepetitionCount: meta.RepetitionCount,
		}
		d.tracks.SetTracks([]imagetrack.Track{track})
	}

	if handle.Complete() {
		d.markComplete()
	}
	d.wakePending()
	return nil
}

func (d *ImageDecoder) markComplete() {
	d.mu.Lock()
	already := d.complete
	d.complete = true
	d.mu.Unlock()
	if !already {
		d.completedOnce.Do(func() { close(d.completedCh) })
	}
}

// Complete reports whether the full input has been consumed (§4.5).
func (d *ImageDecoder) Complete() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.complete
}

// Completed returns a channel that closes once Complete() becomes true
// (§4.5's `completed` promise).
func (d *ImageDecoder) Completed() <-chan struct{} {
	return d.completedCh
}

// Tracks returns the ImageTrackList, whose Ready() channel closes once
// container metadata has been parsed (§4.5).
func (d *ImageDecoder) Tracks() *imagetrack.List {
	return d.tracks
}

// Decode blocks until the requested frame is available, the stream
// completes without enough frames (*range*), a decode error occurs
// (*encoding*), or the decoder is reset/closed (*abort*). §4.5.
func (d *ImageDecoder) Decode(opts DecodeOptions) (DecodeResult, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return DecodeResult{}, codecerr.NewInvalidStateError("imageDecoder.decode: decoder is closed")
	}
	handle := d.handle
	pd := &pendingDecode{opts: opts, future: make(chan decodeSettled, 1)}
	d.pending = append(d.pending, pd)
	d.mu.Unlock()

	d.attemptDecode(handle, pd)

	settled := <-pd.future
	return settled.result, settled.err
}

// attemptDecode tries to resolve pd immediately; if the frame isn't
// available yet and the stream isn't complete, it leaves pd pending for a
// later Feed()/reset()/close() to retry or reject.
func (d *ImageDecoder) attemptDecode(handle codeclib.ImageHandle, pd *pendingDecode) bool {
	meta, haveMeta := handle.Meta()
	complete := handle.Complete()

	if haveMeta && pd.opts.FrameIndex >= meta.FrameCount && complete {
		d.settle(pd, decodeSettled{err: codecerr.NewRangeError("imageDecoder.decode: frameIndex %d out of range (frameCount %d)", pd.opts.FrameIndex, meta.FrameCount)})
		return true
	}

	frame, err := handle.DecodeFrame(pd.opts.FrameIndex)
	if err != nil {
		if codecerr.IsKind(err, codecerr.Range) && !complete {
			return false // not enough data yet; keep waiting
		}
		d.settle(pd, decodeSettled{err: err})
		return true
	}
	if frame == nil {
		if complete {
			d.settle(pd, decodeSettled{err: codecerr.NewRangeError("imageDecoder.decode: frame %d unavailable", pd.opts.FrameIndex)})
			return true
		}
		return false
	}

	d.settle(pd, decodeSettled{result: DecodeResult{Image: frame, Complete: complete}})
	return true
}

func (d *ImageDecoder) settle(pd *pendingDecode, s decodeSettled) {
	select {
	case pd.future <- s:
	default:
	}
}

func (d *ImageDecoder) wakePending() {
	d.mu.Lock()
	handle := d.handle
	remaining := make([]*pendingDecode, 0, len(d.pending))
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, pd := range pending {
		if !d.attemptDecode(handle, pd) {
			remaining = append(remaining, pd)
		}
	}

	if len(remaining) > 0 {
		d.mu.Lock()
		d.pending = append(d.pending, remaining...)
		d.mu.Unlock()
	}
}

// Reset clears pending decodes, rejecting each with *abort* (§4.5).
func (d *ImageDecoder) Reset() {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, pd := range pending {
		d.settle(pd, decodeSettled{err: codecerr.NewAbortError("imageDecoder.reset: decode aborted")})
	}
}

// Close releases resources and rejects any pending decodes with *abort*
// (§4.5). Idempotent.
func (d *ImageDecoder) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	handle := d.handle
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, pd := range pending {
		d.settle(pd, decodeSettled{err: codecerr.NewAbortError("imageDecoder.close: decode aborted")})
	}
	if handle != nil {
		handle.Free()
	}
}

// ImageTypeSupported is the static isTypeSupported(type) probe (§4.5).
func ImageTypeSupported(library codeclib.ImageLibrary, mimeType string) (bool, error) {
	if library == nil {
		return false, codecerr.NewTypeError("imageTypeSupported: a codec library is required")
	}
	return library.IsTypeSupported(mimeType)
}
