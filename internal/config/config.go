// Package config provides the tagged per-codec-kind configuration records
// accepted by configure(), their deep-clone semantics, and validation.
package config

import (
	"fmt"

	"github.com/embedkit/webcodecs-core/internal/state"
)

// LatencyMode selects between throughput- and latency-optimized encoding.
type LatencyMode string

const (
	LatencyQuality  LatencyMode = "quality"
	LatencyRealtime LatencyMode = "realtime"
)

// BitrateMode selects the encoder's rate-control strategy.
type BitrateMode string

const (
	BitrateConstant  BitrateMode = "constant"
	BitrateVariable  BitrateMode = "variable"
	BitrateQuantizer BitrateMode = "quantizer"
)

// HardwarePreference selects whether the codec library should prefer a
// hardware or software implementation.
type HardwarePreference string

const (
	HardwareNoPreference HardwarePreference = "no-preference"
	HardwarePreferHW      HardwarePreference = "prefer-hardware"
	HardwarePreferSW      HardwarePreference = "prefer-software"
)

// AlphaOption controls whether the codec keeps or discards an alpha plane.
type AlphaOption string

const (
	AlphaDiscard AlphaOption = "discard"
	AlphaKeep    AlphaOption = "keep"
)

// ColorSpaceConversion controls the image decoder's color management policy.
type ColorSpaceConversion string

const (
	ColorSpaceConversionNone    ColorSpaceConversion = "none"
	ColorSpaceConversionDefault ColorSpaceConversion = "default"
)

// ColorSpace describes the primaries/transfer/matrix/full-range tuple of a
// video config or frame. Zero value means "unspecified, inherit default."
type ColorSpace struct {
	Primaries string
	Transfer  string
	Matrix    string
	FullRange *bool
}

func cloneColorSpace(cs ColorSpace) ColorSpace {
	out := cs
	if cs.FullRange != nil {
		v := *cs.FullRange
		out.FullRange = &v
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneUint8Ptr(p *uint8) *uint8 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUint32Ptr(p *uint32) *uint32 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBoolPtr(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// OpusOptions holds opus-specific encoder sub-options.
type OpusOptions struct {
	Application        string // "voip", "audio", or "lowdelay"
	Complexity          *uint8
	FrameDurationMicros *uint32
}

func (o *OpusOptions) clone() *OpusOptions {
	if o == nil {
		return nil
	}
	return &OpusOptions{
		Application:         o.Application,
		Complexity:          cloneUint8Ptr(o.Complexity),
		FrameDurationMicros: cloneUint32Ptr(o.FrameDurationMicros),
	}
}

// AVCOptions holds avc (H.264)-specific options shared by encoder and
// decoder configs.
type AVCOptions struct {
	Format string // "annexb" or "avc"
}

func (a *AVCOptions) clone() *AVCOptions {
	if a == nil {
		return nil
	}
	return &AVCOptions{Format: a.Format}
}

// CodecConfig is the tagged-union interface every per-kind config variant
// satisfies. Clone returns a deep copy whose embedded byte buffers are
// independent of the source; Validate performs structural checks only
// (not library support — that is isConfigSupported's job).
type CodecConfig interface {
	Kind() state.CodecKind
	Clone() CodecConfig
	Validate() error
}

// VideoEncoderConfig configures a video encoder.
type VideoEncoderConfig struct {
	Codec              string
	Width              uint32
	Height             uint32
	Description        []byte
	ColorSpace         ColorSpace
	HardwarePreference HardwarePreference
	Latency            LatencyMode
	BitrateBps         uint64
	BitrateModeValue   BitrateMode
	ScalabilityMode    string
	Alpha              AlphaOption
}

func (c *VideoEncoderConfig) Kind() state.CodecKind { return state.VideoEncoder }

func (c *VideoEncoderConfig) Clone() CodecConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Description = cloneBytes(c.Description)
	clone.ColorSpace = cloneColorSpace(c.ColorSpace)
	return &clone
}

func (c *VideoEncoderConfig) Validate() error {
	if c.Codec == "" {
		return ErrEmptyCodec
	}
	if c.Width == 0 || c.Height == 0 {
		return fmt.Errorf("%w: got %dx%d", ErrZeroDimension, c.Width, c.Height)
	}
	return nil
}

// VideoDecoderConfig configures a video decoder.
type VideoDecoderConfig struct {
	Codec              string
	Width              uint32
	Height             uint32
	Description        []byte
	ColorSpace         ColorSpace
	HardwarePreference HardwarePreference
	AVC                *AVCOptions
}

func (c *VideoDecoderConfig) Kind() state.CodecKind { return state.VideoDecoder }

func (c *VideoDecoderConfig) Clone() CodecConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Description = cloneBytes(c.Description)
	clone.ColorSpace = cloneColorSpace(c.ColorSpace)
	clone.AVC = c.AVC.clone()
	return &clone
}

func (c *VideoDecoderConfig) Validate() error {
	if c.Codec == "" {
		return ErrEmptyCodec
	}
	return nil
}

// AudioEncoderConfig configures an audio encoder.
type AudioEncoderConfig struct {
	Codec            string
	SampleRate       uint32
	NumberOfChannels uint32
	Description      []byte
	BitrateBps       uint64
	Opus             *OpusOptions
}

func (c *AudioEncoderConfig) Kind() state.CodecKind { return state.AudioEncoder }

func (c *AudioEncoderConfig) Clone() CodecConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Description = cloneBytes(c.Description)
	clone.Opus = c.Opus.clone()
	return &clone
}

func (c *AudioEncoderConfig) Validate() error {
	if c.Codec == "" {
		return ErrEmptyCodec
	}
	if c.SampleRate == 0 {
		return ErrZeroSampleRate
	}
	if c.NumberOfChannels == 0 {
		return ErrZeroChannels
	}
	return nil
}

// AudioDecoderConfig configures an audio decoder.
type AudioDecoderConfig struct {
	Codec            string
	SampleRate       uint32
	NumberOfChannels uint32
	Description      []byte
	AVC              *AVCOptions
}

func (c *AudioDecoderConfig) Kind() state.CodecKind { return state.AudioDecoder }

func (c *AudioDecoderConfig) Clone() CodecConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Description = cloneBytes(c.Description)
	clone.AVC = c.AVC.clone()
	return &clone
}

func (c *AudioDecoderConfig) Validate() error {
	if c.Codec == "" {
		return ErrEmptyCodec
	}
	if c.SampleRate == 0 {
		return ErrZeroSampleRate
	}
	if c.NumberOfChannels == 0 {
		return ErrZeroChannels
	}
	return nil
}

// ImageDecoderConfig configures an image decoder. DesiredWidth and
// DesiredHeight must be both-present or both-absent; zero is a valid
// explicit value once present.
type ImageDecoderConfig struct {
	MimeType             string
	DesiredWidth         *uint32
	DesiredHeight        *uint32
	ColorSpaceConversion ColorSpaceConversion
	PreferAnimation      *bool
}

func (c *ImageDecoderConfig) Kind() state.CodecKind { return state.ImageDecoder }

func (c *ImageDecoderConfig) Clone() CodecConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.DesiredWidth = cloneUint32Ptr(c.DesiredWidth)
	clone.DesiredHeight = cloneUint32Ptr(c.DesiredHeight)
	clone.PreferAnimation = cloneBoolPtr(c.PreferAnimation)
	return &clone
}

// Validate enforces the both-or-neither rule for DesiredWidth/DesiredHeight.
// A malformed config is a *type* error at the boundary (§4.5, §8.10); the
// codec.ImageDecoder caller is responsible for wrapping this into a
// codecerr.NewTypeError.
func (c *ImageDecoderConfig) Validate() error {
	if c.MimeType == "" {
		return ErrEmptyCodec
	}
	if (c.DesiredWidth == nil) != (c.DesiredHeight == nil) {
		return ErrMismatchedDesiredSize
	}
	return nil
}
