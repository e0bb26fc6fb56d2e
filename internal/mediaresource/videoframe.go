package mediaresource

import "github.com/embedkit/webcodecs-core/internal/codecerr"

// Rotation is a clockwise rotation applied to a video frame's visible
// content, one of the four values the spec allows (§3).
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Rect is an integer rectangle within a coded video plane.
type Rect struct {
	X, Y, Width, Height uint32
}

// Orientation is the {rotation, flip} pair snapshotted as
// [[active orientation]] from the first frame encoded under a
// configuration (§3, §9's orientation-mismatch decision in SPEC_FULL.md).
type Orientation struct {
	Rotation Rotation
	Flip     bool
}

// VideoFrame is a reference-counted handle to a raw video frame buffer.
// Multiple handles may share one payload; closing the last handle releases
// the underlying buffer.
type VideoFrame struct {
	handleState

	payload *payload

	Format        string
	CodedWidth    uint32
	CodedHeight   uint32
	CodedRect     Rect
	VisibleRect   Rect
	DisplayWidth  uint32
	DisplayHeight uint32
	TimestampUs   int64
	DurationUs    *int64
	ColorSpace    string
	Orientation   Orientation
}

// NewVideoFrame constructs a VideoFrame owning data with an initial refcount
// of 1. release, if non-nil, runs when the payload's last reference drops.
func NewVideoFrame(data []byte, release func([]byte), meta VideoFrame) *VideoFrame {
	f := meta
	f.payload = newPayload(data, release)
	return &f
}

// Bytes returns the frame's immutable backing buffer. The caller must not
// retain it past the frame's close().
func (f *VideoFrame) Bytes() ([]byte, error) {
	if err := f.errIfClosed("VideoFrame.data"); err != nil {
		return nil, err
	}
	return f.payload.bytes, nil
}

// Clone produces a new handle sharing the same payload, incrementing the
// refcount. Fails with *invalid-state* if the source is already closed.
func (f *VideoFrame) Clone() (*VideoFrame, error) {
	if err := f.errIfClosed("VideoFrame.clone"); err != nil {
		return nil, err
	}
	f.payload.retain()
	clone := *f
	clone.handleState = handleState{}
	return &clone, nil
}

// Close drops exactly one reference and flips this handle to closed.
// Idempotent: a second Close is a no-op, not an error.
func (f *VideoFrame) Close() {
	f.closeOnce(func() {
		f.payload.drop()
	})
}

// IsClosed reports whether Close has already run for this handle.
func (f *VideoFrame) IsClosed() bool {
	return f.isClosed()
}

// Transfer closes the source handle and returns an equivalent handle
// sharing the same underlying payload, modeling the spec's transfer
// boundary semantics (§3: "handing a handle across a transfer boundary
// closes the source and produces an equivalent handle on the destination").
func (f *VideoFrame) Transfer() (*VideoFrame, error) {
	if f.isClosed() {
		return nil, codecerr.NewInvalidStateError("VideoFrame.transfer: media resource is closed")
	}
	dst := *f
	dst.handleState = handleState{}
	f.closeOnce(func() {})
	return &dst, nil
}
