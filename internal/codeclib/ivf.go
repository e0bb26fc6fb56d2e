package codeclib

import (
	"encoding/binary"
	"fmt"
)

// IVF is the minimal per-frame-length-prefixed container ffmpeg emits for
// raw vp8/vp9/av1 elementary streams (`-f ivf`). It carries no codec
// configuration beyond a fourcc and frame dimensions, so it is the
// narrowest real ffmpeg format that lets this package split a byte stream
// into discrete encoded frames without writing a demuxer of its own.
const (
	ivfFileHeaderSize  = 32
	ivfFrameHeaderSize = 12
)

func ivfFourcc(codec string) (string, error) {
	switch {
	case codec == "vp8":
		return "VP80", nil
	case len(codec) >= 5 && codec[:5] == "vp09.":
		return "VP90", nil
	case len(codec) >= 5 && codec[:5] == "av01.":
		return "AV01", nil
	default:
		return "", fmt.Errorf("codeclib: %q has no IVF fourcc mapping", codec)
	}
}

func appendIVFFileHeader(dst []byte, fourcc string, width, height uint16) []byte {
	hdr := make([]byte, ivfFileHeaderSize)
	copy(hdr[0:4], "DKIF")
	binary.LittleEndian.PutUint16(hdr[4:6], 0)  // version
	binary.LittleEndian.PutUint16(hdr[6:8], ivfFileHeaderSize)
	copy(hdr[8:12], fourcc)
	binary.LittleEndian.PutUint16(hdr[12:14], width)
	binary.LittleEndian.PutUint16(hdr[14:16], height)
	binary.LittleEndian.PutUint32(hdr[16:20], 1000000) // timebase denominator: microseconds
	binary.LittleEndian.PutUint32(hdr[20:24], 1)        // timebase numerator
	// frame count (24:28) and reserved (28:32) are left zero; ffmpeg
	// tolerates a zero frame count in a streamed IVF input.
	return append(dst, hdr...)
}

func appendIVFFrame(dst []byte, payload []byte, timestampUs uint64) []byte {
	hdr := make([]byte, ivfFrameHeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint64(hdr[4:12], timestampUs)
	dst = append(dst, hdr...)
	dst = append(dst, payload...)
	return dst
}

// ivfFramer incrementally parses an IVF byte stream (ffmpeg's stdout for a
// video encode) into individual frame payloads, skipping the 32-byte file
// header once.
type ivfFramer struct {
	buf         []byte
	sawFileHdr  bool
	frameIndex  int
}

func (f *ivfFramer) feed(b []byte) [][]byte {
	f.buf = append(f.buf, b...)

	if !f.sawFileHdr {
		if len(f.buf) < ivfFileHeaderSize {
			return nil
		}
		f.buf = f.buf[ivfFileHeaderSize:]
		f.sawFileHdr = true
	}

	var frames [][]byte
	for {
		if len(f.buf) < ivfFrameHeaderSize {
			break
		}
		size := binary.LittleEndian.Uint32(f.buf[0:4])
		need := ivfFrameHeaderSize + int(size)
		if len(f.buf) < need {
			break
		}
		payload := make([]byte, size)
		copy(payload, f.buf[ivfFrameHeaderSize:need])
		frames = append(frames, payload)
		f.buf = f.buf[need:]
		f.frameIndex++
	}
	return frames
}

// isVP8KeyFrame reads the VP8 uncompressed data partition tag (RFC 6386
// §9.1): bit 0 of the first byte is 0 for a key frame.
func isVP8KeyFrame(payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	return payload[0]&0x01 == 0
}
