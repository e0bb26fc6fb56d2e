// Package imagetrack implements ImageTrack and ImageTrackList, the image
// decoder's per-track metadata surface (§4.5).
package imagetrack

import (
	"sync"

	"github.com/embedkit/webcodecs-core/internal/codecerr"
)

// Track describes one decodable image track: its frame count, whether it
// animates, and its repetition count (-1 means loop forever).
type Track struct {
	FrameCount      int
	Animated        bool
	RepetitionCount int
}

// List is an ImageTrackList: the set of tracks discovered once an image
// source's container header has been parsed, plus which track decode()
// currently targets. ready gates on metadata parsing completing, modeled
// as a closed channel rather than a promise.
type List struct {
	mu            sync.Mutex
	tracks        []Track
	selectedIndex int
	readyCh       chan struct{}
	readyOnce     sync.Once
}

// New constructs an empty, not-yet-ready track list.
func New() *List {
	return &List{readyCh: make(chan struct{})}
}

// SetTracks populates the list's tracks and marks it ready. Selecting index
// 0 by default, matching the spec's single-track static-image case. Safe to
// call only once; a second call is a no-op beyond the first.
func (l *List) SetTracks(tracks []Track) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tracks != nil {
		return
	}
	l.tracks = tracks
	l.readyOnce.Do(func() { close(l.readyCh) })
}

// Ready returns a channel that closes once metadata has been parsed and
// Tracks()/Len() report their final values.
func (l *List) Ready() <-chan struct{} {
	return l.readyCh
}

// IsReady reports whether metadata parsing has completed without blocking.
func (l *List) IsReady() bool {
	select {
	case <-l.readyCh:
		return true
	default:
		return false
	}
}

// Len returns the number of tracks, or 0 before ready.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tracks)
}

// Track returns a copy of the track at index, or an *invalid-state* error
// if metadata isn't parsed yet.
func (l *List) Track(index int) (Track, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tracks == nil {
		return Track{}, codecerr.NewInvalidStateError("ImageTrackList: not ready")
	}
	if index < 0 || index >= len(l.tracks) {
		return Track{}, codecerr.NewRangeError("ImageTrackList: index %d out of range [0,%d)", index, len(l.tracks))
	}
	return l.tracks[index], nil
}

// SelectedIndex returns the index of the track decode() currently targets.
func (l *List) SelectedIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selectedIndex
}

// Selected returns the currently selected track.
func (l *List) Selected() (Track, error) {
	return l.Track(l.SelectedIndex())
}

// SelectTrack changes which track decode() targets.
func (l *List) SelectTrack(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tracks == nil {
		return codecerr.NewInvalidStateError("ImageTrackList: not ready")
	}
	if index < 0 || index >= len(l.tracks) {
		return codecerr.NewRangeError("ImageTrackList: index %d out of range [0,%d)", index, len(l.tracks))
	}
	l.selectedIndex = index
	return nil
}
