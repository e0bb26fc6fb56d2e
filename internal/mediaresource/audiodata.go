package mediaresource

import "github.com/embedkit/webcodecs-core/internal/codecerr"

// AudioData is a reference-counted handle to a raw audio buffer. See
// VideoFrame for the shared refcounting discipline.
type AudioData struct {
	handleState

	payload *payload

	Format           string
	SampleRate       uint32
	NumberOfFrames   uint32
	NumberOfChannels uint32
	TimestampUs      int64
}

// Duration returns the computed duration in microseconds, per §3
// ("computed duration"): numberOfFrames / sampleRate.
func (d *AudioData) Duration() int64 {
	if d.SampleRate == 0 {
		return 0
	}
	return int64(d.NumberOfFrames) * 1_000_000 / int64(d.SampleRate)
}

// NewAudioData constructs an AudioData owning data with an initial refcount
// of 1.
func NewAudioData(data []byte, release func([]byte), meta AudioData) *AudioData {
	d := meta
	d.payload = newPayload(data, release)
	return &d
}

// Bytes returns the buffer's immutable backing bytes.
func (d *AudioData) Bytes() ([]byte, error) {
	if err := d.errIfClosed("AudioData.data"); err != nil {
		return nil, err
	}
	return d.payload.bytes, nil
}

// Clone produces a new handle sharing the same payload, incrementing the
// refcount.
func (d *AudioData) Clone() (*AudioData, error) {
	if err := d.errIfClosed("AudioData.clone"); err != nil {
		return nil, err
	}
	d.payload.retain()
	clone := *d
	clone.handleState = handleState{}
	return &clone, nil
}

// Close drops exactly one reference. Idempotent.
func (d *AudioData) Close() {
	d.closeOnce(func() {
		d.payload.drop()
	})
}

// IsClosed reports whether Close has already run for this handle.
func (d *AudioData) IsClosed() bool {
	return d.isClosed()
}

// Transfer closes the source handle and returns an equivalent handle
// sharing the same underlying payload.
func (d *AudioData) Transfer() (*AudioData, error) {
	if d.isClosed() {
		return nil, codecerr.NewInvalidStateError("AudioData.transfer: media resource is closed")
	}
	dst := *d
	dst.handleState = handleState{}
	d.closeOnce(func() {})
	return &dst, nil
}
