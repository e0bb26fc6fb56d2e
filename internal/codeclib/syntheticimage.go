package codeclib

import (
	"encoding/binary"

	"github.com/embedkit/webcodecs-core/internal/codecerr"
	"github.com/embedkit/webcodecs-core/internal/mediaresource"
)

// syntheticImageTypes lists the mime types the synthetic image library
// accepts, standing in for the set of containers a real image decoder would
// demux (§4.5).
var syntheticImageTypes = map[string]bool{
	"image/png": true, "image/jpeg": true, "image/webp": true, "image/gif": true,
}

// imageHeaderSize is the synthetic container's fixed header: a 4-byte magic
// followed by big-endian width/height uint32s. What follows is the frame's
// raw pixel payload, passed through unchanged (mirrors SyntheticLibrary's
// lossless pass-through discipline for the streaming codecs).
const imageHeaderSize = 12

var imageMagic = [4]byte{'S', 'I', 'M', 'G'}

// SyntheticImageLibrary is an in-process stand-in ImageLibrary used by tests
// and cmd/codecctl. It always yields a single static frame (frameCount=1,
// animated=false, repetitionCount=0), matching §4.5's "a static image
// yields a single track."
type SyntheticImageLibrary struct{}

// NewSyntheticImageLibrary constructs a SyntheticImageLibrary.
func NewSyntheticImageLibrary() *SyntheticImageLibrary { return &SyntheticImageLibrary{} }

func (l *SyntheticImageLibrary) IsTypeSupported(mimeType string) (bool, error) {
	return syntheticImageTypes[mimeType], nil
}

func (l *SyntheticImageLibrary) Open(mimeType string) (ImageHandle, error) {
	if !syntheticImageTypes[mimeType] {
		return nil, codecerr.NewNotSupportedError("synthetic image library does not support %q", mimeType)
	}
	return &syntheticImageHandle{}, nil
}

type syntheticImageHandle struct {
	freeGuard
	buf      []byte
	final    bool
	haveMeta bool
	meta     ImageMeta
}

func (h *syntheticImageHandle) Feed(data []byte, final bool) error {
	if err := h.checkLive("syntheticImageHandle.feed"); err != nil {
		return err
	}
	h.buf = append(h.buf, data...)
	if final {
		h.final = true
	}
	if !h.haveMeta && len(h.buf) >= imageHeaderSize {
		if [4]byte(h.buf[:4]) != imageMagic {
			return codecerr.NewEncodingError("synthetic image source has an invalid header")
		}
		width := binary.BigEndian.Uint32(h.buf[4:8])
		height := binary.BigEndian.Uint32(h.buf[8:12])
		h.meta = ImageMeta{
			FrameCount:      1,
			Animated:        false,
			RepetitionCount: 0,
			Width:           width,
			Height:          height,
		}
		h.haveMeta = true
	}
	return nil
}

func (h *syntheticImageHandle) Meta() (ImageMeta, bool) {
	return h.meta, h.haveMeta
}

func (h *syntheticImageHandle) Complete() bool {
	return h.final
}

func (h *syntheticImageHandle) DecodeFrame(frameIndex int) (any, error) {
	if !h.haveMeta {
		return nil, codecerr.NewRangeError("synthetic image source: header not yet available")
	}
	if frameIndex != 0 {
		return nil, codecerr.NewRangeError("synthetic image source: frameIndex %d out of range (frameCount 1)", frameIndex)
	}
	expected := imageHeaderSize + int(h.meta.Width)*int(h.meta.Height)*3/2
	if len(h.buf) < expected {
		return nil, codecerr.NewRangeError("synthetic image source: payload not yet available")
	}
	payload := make([]byte, len(h.buf)-imageHeaderSize)
	copy(payload, h.buf[imageHeaderSize:])

	rect := mediaresource.Rect{Width: h.meta.Width, Height: h.meta.Height}
	frame := mediaresource.NewVideoFrame(payload, nil, mediaresource.VideoFrame{
		Format:        "I420",
		CodedWidth:    h.meta.Width,
		CodedHeight:   h.meta.Height,
		CodedRect:     rect,
		VisibleRect:   rect,
		DisplayWidth:  h.meta.Width,
		DisplayHeight: h.meta.Height,
	})
	return frame, nil
}
