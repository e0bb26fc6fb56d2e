package codec

import (
	"sync"
	"testing"
	"time"

	"github.com/embedkit/webcodecs-core/internal/codecerr"
	"github.com/embedkit/webcodecs-core/internal/codeclib"
	"github.com/embedkit/webcodecs-core/internal/config"
	"github.com/embedkit/webcodecs-core/internal/mediaresource"
	"github.com/embedkit/webcodecs-core/internal/state"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func newTestVideoFrame(timestampUs int64) *mediaresource.VideoFrame {
	rect := mediaresource.Rect{Width: 4, Height: 4}
	return mediaresource.NewVideoFrame(make([]byte, 24), nil, mediaresource.VideoFrame{
		Format:      "I420",
		CodedWidth:  4,
		CodedHeight: 4,
		CodedRect:   rect,
		VisibleRect: rect,
		TimestampUs: timestampUs,
	})
}

// blockingLibrary is a test-only codeclib.Library whose handle's SendInput
// blocks until release is closed, used to pin the CWQ worker so a hard-cap
// rejection can be observed deterministically instead of racing a
// near-instant synthetic handle.
type blockingLibrary struct{ release <-chan struct{} }

func (l *blockingLibrary) Create(kind state.CodecKind, cfg config.CodecConfig) (codeclib.Handle, error) {
	return &blockingHandle{release: l.release}, nil
}

func (l *blockingLibrary) IsConfigSupported(state.CodecKind, config.CodecConfig) (bool, error) {
	return true, nil
}

type blockingHandle struct{ release <-chan struct{} }

func (h *blockingHandle) SendInput(any) error {
	<-h.release
	return nil
}
func (h *blockingHandle) ReceiveOutputs() ([]any, error) { return nil, nil }
func (h *blockingHandle) Flush() ([]any, error)          { return nil, nil }
func (h *blockingHandle) Free()                          {}

func TestVideoEncoderEncodeFlushRoundTrip(t *testing.T) {
	var mu sync.Mutex
	var outputs []EncodedVideoChunkOutput
	var errs []error

	enc, err := NewVideoEncoder(Options{
		Output: func(out any) {
			mu.Lock()
			outputs = append(outputs, out.(EncodedVideoChunkOutput))
			mu.Unlock()
		},
		Error: func(e error) {
			mu.Lock()
			errs = append(errs, e)
			mu.Unlock()
		},
		Library: codeclib.NewSyntheticLibrary(),
	})
	if err != nil {
		t.Fatalf("NewVideoEncoder: %v", err)
	}
	defer enc.Close()

	if err := enc.Configure(&config.VideoEncoderConfig{Codec: "vp8", Width: 4, Height: 4}); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	for i := 0; i < 3; i++ {
		frame := newTestVideoFrame(int64(i) * 1000)
		if err := enc.Encode(frame); err != nil {
			t.Fatalf("Encode %d: %v", i, err)
		}
		frame.Close()
	}

	future, err := enc.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := future.Wait(); err != nil {
		t.Fatalf("flush future: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(outputs) != 3 {
		t.Fatalf("got %d outputs, want 3", len(outputs))
	}
	for i, out := range outputs {
		if out.Chunk.TimestampUs() != int64(i)*1000 {
			t.Errorf("output %d out of order: timestamp %d", i, out.Chunk.TimestampUs())
		}
	}
	if outputs[0].DecoderConfig == nil {
		t.Error("first output missing decoder config")
	}
	for i := 1; i < len(outputs); i++ {
		if outputs[i].DecoderConfig != nil {
			t.Errorf("output %d unexpectedly carries a decoder config", i)
		}
	}
}

func TestVideoEncoderRejectsOrientationMismatch(t *testing.T) {
	errCh := make(chan error, 1)
	enc, err := NewVideoEncoder(Options{
		Output:  func(any) {},
		Error:   func(e error) { errCh <- e },
		Library: codeclib.NewSyntheticLibrary(),
	})
	if err != nil {
		t.Fatalf("NewVideoEncoder: %v", err)
	}
	defer enc.Close()

	if err := enc.Configure(&config.VideoEncoderConfig{Codec: "vp8", Width: 4, Height: 4}); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	first := newTestVideoFrame(0)
	if err := enc.Encode(first); err != nil {
		t.Fatalf("Encode first: %v", err)
	}
	first.Close()

	second := newTestVideoFrame(1000)
	second.Orientation = mediaresource.Orientation{Rotation: 90}
	if err := enc.Encode(second); err != nil {
		t.Fatalf("Encode second: %v", err)
	}
	second.Close()

	select {
	case got := <-errCh:
		if !codecerr.IsKind(got, codecerr.Data) {
			t.Errorf("got error kind %v, want Data", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for orientation-mismatch error")
	}

	// An error callback firing transitions an audio/video codec to closed.
	waitFor(t, func() bool { return enc.State() == state.Closed })
}

func TestVideoEncoderHardCapRejectsSynchronously(t *testing.T) {
	release := make(chan struct{})
	enc, err := NewVideoEncoder(Options{
		Output:  func(any) {},
		Error:   func(error) {},
		Library: &blockingLibrary{release: release},
		HardCap: 1,
	})
	if err != nil {
		t.Fatalf("NewVideoEncoder: %v", err)
	}
	defer func() {
		close(release)
		enc.Close()
	}()

	if err := enc.Configure(&config.VideoEncoderConfig{Codec: "vp8", Width: 4, Height: 4}); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	first := newTestVideoFrame(0)
	if err := enc.Encode(first); err != nil {
		t.Fatalf("first Encode: %v", err)
	}
	first.Close()

	// The worker is now blocked inside SendInput on the first job, so the
	// queue is pinned at its outstanding count of 1 (== hardCap).
	waitFor(t, func() bool { return enc.QueueSize() >= 1 })

	second := newTestVideoFrame(1000)
	defer second.Close()
	err = enc.Encode(second)
	if err == nil {
		t.Fatal("expected quota-exceeded error, got nil")
	}
	if !codecerr.IsQuotaExceeded(err) {
		t.Errorf("got error %v, want quota-exceeded", err)
	}
}
