package imagetrack

import (
	"testing"

	"github.com/embedkit/webcodecs-core/internal/codecerr"
)

func TestNewListIsNotReadyUntilSetTracks(t *testing.T) {
	l := New()
	if l.IsReady() {
		t.Error("expected a fresh list to be not ready")
	}
	if _, err := l.Track(0); !codecerr.IsKind(err, codecerr.InvalidState) {
		t.Errorf("expected *invalid-state* before ready, got %v", err)
	}

	l.SetTracks([]Track{{FrameCount: 1, Animated: false, RepetitionCount: 0}})
	if !l.IsReady() {
		t.Error("expected list to be ready after SetTracks")
	}
	select {
	case <-l.Ready():
	default:
		t.Error("expected Ready() channel to be closed")
	}
}

func TestStaticImageYieldsSingleTrack(t *testing.T) {
	l := New()
	l.SetTracks([]Track{{FrameCount: 1, Animated: false, RepetitionCount: 0}})

	if l.Len() != 1 {
		t.Fatalf("expected 1 track, got %d", l.Len())
	}
	tr, err := l.Selected()
	if err != nil {
		t.Fatalf("Selected: %v", err)
	}
	if tr.FrameCount != 1 || tr.Animated || tr.RepetitionCount != 0 {
		t.Errorf("unexpected track: %+v", tr)
	}
}

func TestTrackOutOfRangeIsRangeError(t *testing.T) {
	l := New()
	l.SetTracks([]Track{{FrameCount: 1}})
	_, err := l.Track(5)
	if !codecerr.IsKind(err, codecerr.Range) {
		t.Errorf("expected *range* error, got %v", err)
	}
}

func TestSelectTrackChangesSelection(t *testing.T) {
	l := New()
	l.SetTracks([]Track{{FrameCount: 1}, {FrameCount: 10, Animated: true, RepetitionCount: -1}})

	if err := l.SelectTrack(1); err != nil {
		t.Fatalf("SelectTrack: %v", err)
	}
	if l.SelectedIndex() != 1 {
		t.Errorf("expected selected index 1, got %d", l.SelectedIndex())
	}
	tr, err := l.Selected()
	if err != nil {
		t.Fatalf("Selected: %v", err)
	}
	if !tr.Animated || tr.RepetitionCount != -1 {
		t.Errorf("unexpected selected track: %+v", tr)
	}
}

func TestSelectTrackOutOfRangeFails(t *testing.T) {
	l := New()
	l.SetTracks([]Track{{FrameCount: 1}})
	if err := l.SelectTrack(3); !codecerr.IsKind(err, codecerr.Range) {
		t.Errorf("expected *range* error, got %v", err)
	}
}

func TestSetTracksIsOnlyAppliedOnce(t *testing.T) {
	l := New()
	l.SetTracks([]Track{{FrameCount: 1}})
	l.SetTracks([]Track{{FrameCount: 99}}) // must be ignored

	if l.Len() != 1 {
		t.Fatalf("expected first SetTracks call to win, got len %d", l.Len())
	}
}
