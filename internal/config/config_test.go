package config

import (
	"errors"
	"testing"

	"github.com/embedkit/webcodecs-core/internal/state"
)

func TestVideoEncoderConfigValidate(t *testing.T) {
	tests := []struct {
		name         string
		cfg          *VideoEncoderConfig
		wantErr      bool
		wantSentinel error
	}{
		{
			name: "valid config",
			cfg:  &VideoEncoderConfig{Codec: "avc1.42001E", Width: 1280, Height: 720},
		},
		{
			name:         "empty codec",
			cfg:          &VideoEncoderConfig{Width: 1280, Height: 720},
			wantErr:      true,
			wantSentinel: ErrEmptyCodec,
		},
		{
			name:         "zero width",
			cfg:          &VideoEncoderConfig{Codec: "avc1.42001E", Height: 720},
			wantErr:      true,
			wantSentinel: ErrZeroDimension,
		},
		{
			name:         "zero height",
			cfg:          &VideoEncoderConfig{Codec: "avc1.42001E", Width: 1280},
			wantErr:      true,
			wantSentinel: ErrZeroDimension,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("Validate() error = %v, want sentinel %v", err, tt.wantSentinel)
			}
		})
	}
}

func TestVideoEncoderConfigKind(t *testing.T) {
	cfg := &VideoEncoderConfig{Codec: "avc1.42001E", Width: 1280, Height: 720}
	if cfg.Kind() != state.VideoEncoder {
		t.Errorf("Kind() = %v, want VideoEncoder", cfg.Kind())
	}
}

func TestVideoEncoderConfigCloneIsolatesBuffers(t *testing.T) {
	original := &VideoEncoderConfig{
		Codec:       "avc1.42001E",
		Width:       1280,
		Height:      720,
		Description: []byte{1, 2, 3},
	}

	cloned := original.Clone().(*VideoEncoderConfig)
	cloned.Description[0] = 0xFF

	if original.Description[0] != 1 {
		t.Error("mutating a clone's byte buffer must not affect the original config")
	}

	original.Width = 1920
	if cloned.Width != 1280 {
		t.Error("mutating the original after clone must not affect the clone")
	}
}

func TestVideoEncoderConfigCloneDeepCopiesColorSpace(t *testing.T) {
	fullRange := true
	original := &VideoEncoderConfig{
		Codec:  "avc1.42001E",
		Width:  1280,
		Height: 720,
		ColorSpace: ColorSpace{
			Primaries: "bt709",
			FullRange: &fullRange,
		},
	}

	cloned := original.Clone().(*VideoEncoderConfig)
	*cloned.ColorSpace.FullRange = false

	if *original.ColorSpace.FullRange != true {
		t.Error("mutating a clone's ColorSpace pointer fields must not affect the original")
	}
}

func TestAudioEncoderConfigValidate(t *testing.T) {
	tests := []struct {
		name         string
		cfg          *AudioEncoderConfig
		wantErr      bool
		wantSentinel error
	}{
		{
			name: "valid config",
			cfg:  &AudioEncoderConfig{Codec: "opus", SampleRate: 48000, NumberOfChannels: 2},
		},
		{
			name:         "empty codec",
			cfg:          &AudioEncoderConfig{SampleRate: 48000, NumberOfChannels: 2},
			wantErr:      true,
			wantSentinel: ErrEmptyCodec,
		},
		{
			name:         "zero sample rate",
			cfg:          &AudioEncoderConfig{Codec: "opus", NumberOfChannels: 2},
			wantErr:      true,
			wantSentinel: ErrZeroSampleRate,
		},
		{
			name:         "zero channels",
			cfg:          &AudioEncoderConfig{Codec: "opus", SampleRate: 48000},
			wantErr:      true,
			wantSentinel: ErrZeroChannels,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("Validate() error = %v, want sentinel %v", err, tt.wantSentinel)
			}
		})
	}
}

func TestAudioEncoderConfigCloneIsolatesOpusOptions(t *testing.T) {
	complexity := uint8(5)
	original := &AudioEncoderConfig{
		Codec:            "opus",
		SampleRate:       48000,
		NumberOfChannels: 2,
		Opus:             &OpusOptions{Application: "audio", Complexity: &complexity},
	}

	cloned := original.Clone().(*AudioEncoderConfig)
	*cloned.Opus.Complexity = 0
	cloned.Opus.Application = "voip"

	if *original.Opus.Complexity != 5 || original.Opus.Application != "audio" {
		t.Error("mutating a clone's Opus options must not affect the original")
	}
}

func TestImageDecoderConfigValidate(t *testing.T) {
	width := uint32(100)
	height := uint32(100)

	tests := []struct {
		name         string
		cfg          *ImageDecoderConfig
		wantErr      bool
		wantSentinel error
	}{
		{
			name: "valid with neither desired dimension",
			cfg:  &ImageDecoderConfig{MimeType: "image/gif"},
		},
		{
			name: "valid with both desired dimensions",
			cfg:  &ImageDecoderConfig{MimeType: "image/gif", DesiredWidth: &width, DesiredHeight: &height},
		},
		{
			name:         "empty mime type",
			cfg:          &ImageDecoderConfig{},
			wantErr:      true,
			wantSentinel: ErrEmptyCodec,
		},
		{
			name:         "width without height",
			cfg:          &ImageDecoderConfig{MimeType: "image/gif", DesiredWidth: &width},
			wantErr:      true,
			wantSentinel: ErrMismatchedDesiredSize,
		},
		{
			name:         "height without width",
			cfg:          &ImageDecoderConfig{MimeType: "image/gif", DesiredHeight: &height},
			wantErr:      true,
			wantSentinel: ErrMismatchedDesiredSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("Validate() error = %v, want sentinel %v", err, tt.wantSentinel)
			}
		})
	}
}

func TestImageDecoderConfigCloneIsolatesPointers(t *testing.T) {
	width := uint32(100)
	height := uint32(200)
	original := &ImageDecoderConfig{MimeType: "image/gif", DesiredWidth: &width, DesiredHeight: &height}

	cloned := original.Clone().(*ImageDecoderConfig)
	*cloned.DesiredWidth = 50

	if *original.DesiredWidth != 100 {
		t.Error("mutating a clone's DesiredWidth must not affect the original")
	}
}
