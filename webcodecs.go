// Package webcodecs provides a WebCodecs-shaped Go library for building
// audio/video encoders and decoders and an image decoder on top of a
// pluggable native codec library.
//
// Basic usage:
//
//	enc, err := webcodecs.NewVideoEncoder(
//	    func(out any) { /* handle EncodedVideoChunkOutput */ },
//	    func(err error) { log.Println(err) },
//	    webcodecs.WithLibrary(codeclib.NewSyntheticLibrary()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := enc.Configure(&webcodecs.VideoEncoderConfig{...}); err != nil {
//	    log.Fatal(err)
//	}
package webcodecs

import (
	"context"
	"time"

	"github.com/embedkit/webcodecs-core/codec"
	"github.com/embedkit/webcodecs-core/internal/codeclib"
	"github.com/embedkit/webcodecs-core/internal/config"
	"github.com/embedkit/webcodecs-core/internal/resourcemgr"
)

// Re-export the config types applications build codec
// configs from, so callers need only import this package for the common
// case.
type (
	VideoEncoderConfig = config.VideoEncoderConfig
	VideoDecoderConfig = config.VideoDecoderConfig
	AudioEncoderConfig = config.AudioEncoderConfig
	AudioDecoderConfig = config.AudioDecoderConfig
	ImageDecoderConfig = config.ImageDecoderConfig
)

// Re-export the codec objects and their shared supporting types.
type (
	VideoEncoder  = codec.VideoEncoder
	VideoDecoder  = codec.VideoDecoder
	AudioEncoder  = codec.AudioEncoder
	AudioDecoder  = codec.AudioDecoder
	ImageDecoder  = codec.ImageDecoder
	FlushFuture   = codec.FlushFuture
	DecodeOptions = codec.DecodeOptions
	DecodeResult  = codec.DecodeResult

	EncodedVideoChunkOutput = codec.EncodedVideoChunkOutput
	EncodedAudioChunkOutput = codec.EncodedAudioChunkOutput
)

// Registry is the process-wide resource manager type (§4.6); most
// applications use the package-level DefaultRegistry instead of
// constructing their own.
type Registry = resourcemgr.Registry

// DefaultRegistry is the process-wide singleton codec objects register with
// unless constructed WithRegistry(nil) or a custom registry. Spec.md §9
// flags bare global mutable state as a redesign target: callers that want
// isolation (tests, multiple independent cores in one process) construct
// their own *Registry and pass it with WithRegistry.
var DefaultRegistry = resourcemgr.New(resourcemgr.DefaultInactivityTimeout)

// Option configures a codec object's construction.
type Option func(*codec.Options)

// WithLibrary selects the native codec library a codec object drives. Every
// constructor requires one; there is no default, since encoders and
// decoders need different concrete libraries (codeclib.NewSyntheticLibrary
// for tests/CLI, an ffmpeg-backed codeclib.Library for production).
func WithLibrary(library codeclib.Library) Option {
	return func(o *codec.Options) {
		o.Library = library
	}
}

// WithRegistry overrides the resource manager a codec registers with.
// Passing nil disables reclamation entirely for that codec.
func WithRegistry(registry *Registry) Option {
	return func(o *codec.Options) {
		o.Registry = registry
	}
}

// WithQueueThresholds overrides the CWQ's soft backpressure threshold and
// hard submission cap (§4.3). Zero values fall back to the package
// defaults.
func WithQueueThresholds(softThreshold, hardCap int) Option {
	return func(o *codec.Options) {
		o.SoftThreshold = softThreshold
		o.HardCap = hardCap
	}
}

// WithPanicObserver installs a callback notified when an application
// output/error/dequeue handler panics (§4.4).
func WithPanicObserver(observer func(recovered any)) Option {
	return func(o *codec.Options) {
		o.OnPanic = observer
	}
}

func buildOptions(output codec.OutputFunc, errorFn codec.ErrorFunc, opts []Option) codec.Options {
	o := codec.Options{
		Output:   output,
		Error:    errorFn,
		Registry: DefaultRegistry,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewVideoEncoder constructs an unconfigured video encoder. output is
// called once per produced codec.EncodedVideoChunkOutput, in submission
// order; errorFn is called on a codec-level failure.
func NewVideoEncoder(output func(any), errorFn func(error), opts ...Option) (*VideoEncoder, error) {
	return codec.NewVideoEncoder(buildOptions(output, errorFn, opts))
}

// NewVideoDecoder constructs an unconfigured video decoder. output is
// called once per produced *mediaresource.VideoFrame.
func NewVideoDecoder(output func(any), errorFn func(error), opts ...Option) (*VideoDecoder, error) {
	return codec.NewVideoDecoder(buildOptions(output, errorFn, opts))
}

// NewAudioEncoder constructs an unconfigured audio encoder. output is
// called once per produced codec.EncodedAudioChunkOutput.
func NewAudioEncoder(output func(any), errorFn func(error), opts ...Option) (*AudioEncoder, error) {
	return codec.NewAudioEncoder(buildOptions(output, errorFn, opts))
}

// NewAudioDecoder constructs an unconfigured audio decoder. output is
// called once per produced *mediaresource.AudioData.
func NewAudioDecoder(output func(any), errorFn func(error), opts ...Option) (*AudioDecoder, error) {
	return codec.NewAudioDecoder(buildOptions(output, errorFn, opts))
}

// NewImageDecoder opens an image source whose bytes are then supplied
// through the returned decoder's Feed (§4.5). The
// image decoder has no output/error callback pair — decode() results
// resolve through the returned *ImageDecoder directly.
func NewImageDecoder(library codeclib.ImageLibrary, cfg *ImageDecoderConfig) (*ImageDecoder, error) {
	return codec.NewImageDecoder(library, cfg)
}

// IsVideoEncoderConfigSupported is the static isConfigSupported(cfg) probe
// for video encoder configs (§4.1).
func IsVideoEncoderConfigSupported(library codeclib.Library, cfg *VideoEncoderConfig) (bool, *VideoEncoderConfig, error) {
	return codec.IsVideoEncoderConfigSupported(library, cfg)
}

// IsVideoDecoderConfigSupported is the static isConfigSupported(cfg) probe
// for video decoder configs (§4.1).
func IsVideoDecoderConfigSupported(library codeclib.Library, cfg *VideoDecoderConfig) (bool, *VideoDecoderConfig, error) {
	return codec.IsVideoDecoderConfigSupported(library, cfg)
}

// IsAudioEncoderConfigSupported is the static isConfigSupported(cfg) probe
// for audio encoder configs (§4.1).
func IsAudioEncoderConfigSupported(library codeclib.Library, cfg *AudioEncoderConfig) (bool, *AudioEncoderConfig, error) {
	return codec.IsAudioEncoderConfigSupported(library, cfg)
}

// IsAudioDecoderConfigSupported is the static isConfigSupported(cfg) probe
// for audio decoder configs (§4.1).
func IsAudioDecoderConfigSupported(library codeclib.Library, cfg *AudioDecoderConfig) (bool, *AudioDecoderConfig, error) {
	return codec.IsAudioDecoderConfigSupported(library, cfg)
}

// ImageTypeSupported is the static isTypeSupported(type) probe (§4.5).
func ImageTypeSupported(library codeclib.ImageLibrary, mimeType string) (bool, error) {
	return codec.ImageTypeSupported(library, mimeType)
}

// RunReclaimLoop periodically sweeps registry for inactive codecs until ctx
// is cancelled (§4.6). Applications embedding the core as a long-lived
// process typically run this once against DefaultRegistry at startup.
func RunReclaimLoop(ctx context.Context, registry *Registry, interval time.Duration) {
	if registry == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.ReclaimInactive()
		}
	}
}
