// Package config provides the tagged per-codec-kind configuration records
// accepted by configure(), their deep-clone semantics, and validation.
package config

import "errors"

// Sentinel errors for CodecConfig validation.
var (
	// ErrEmptyCodec indicates a config's Codec/MimeType identifier was empty.
	ErrEmptyCodec = errors.New("codec identifier must be non-empty")

	// ErrZeroDimension indicates a video config's width or height was zero.
	ErrZeroDimension = errors.New("width and height must be non-zero")

	// ErrZeroSampleRate indicates an audio config's sample rate was zero.
	ErrZeroSampleRate = errors.New("sampleRate must be non-zero")

	// ErrZeroChannels indicates an audio config's channel count was zero.
	ErrZeroChannels = errors.New("numberOfChannels must be non-zero")

	// ErrMismatchedDesiredSize indicates an image decoder config set only
	// one of DesiredWidth/DesiredHeight.
	ErrMismatchedDesiredSize = errors.New("desiredWidth and desiredHeight must both be set or both be absent")
)
