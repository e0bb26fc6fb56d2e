// Package resourcemgr implements the process-wide codec registry and its
// reclaimInactive() sweep (§4.6). It is injectable rather than a bare
// package-level singleton so tests can run a fresh registry with an
// overridden inactivity timeout and clock (spec.md §9's "Global mutable
// state" redesign flag).
package resourcemgr

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/embedkit/webcodecs-core/internal/codecerr"
	"github.com/embedkit/webcodecs-core/internal/state"
)

// RegistryID names a registered codec independent of its pointer identity,
// so a reclaimed codec's old handle can still be referenced in log lines or
// diagnostics after a new codec takes its slot.
type RegistryID = uuid.UUID

// DefaultInactivityTimeout is the spec's default "no activity in the past
// N seconds" window (§4.6).
const DefaultInactivityTimeout = 10 * time.Second

// CloseFunc runs a codec's close algorithm with the given reason, invoked
// by a reclaim sweep after the entry has been removed from the registry.
type CloseFunc func(reason error)

type entry struct {
	id           RegistryID
	kind         state.CodecKind
	lastActivity time.Time
	background   bool
	closeFn      CloseFunc
}

// Registry is a process-wide singleton in production (see webcodecs.go's
// default instance) but is itself just a plain struct so tests can
// construct independent instances.
type Registry struct {
	mu                sync.Mutex
	entries           map[RegistryID]*entry
	inactivityTimeout time.Duration
	now               func() time.Time
}

// New constructs a Registry with the given inactivity timeout. A zero
// timeout defaults to DefaultInactivityTimeout.
func New(inactivityTimeout time.Duration) *Registry {
	if inactivityTimeout <= 0 {
		inactivityTimeout = DefaultInactivityTimeout
	}
	return &Registry{
		entries:           make(map[RegistryID]*entry),
		inactivityTimeout: inactivityTimeout,
		now:               time.Now,
	}
}

// Register adds a newly configured codec to the registry and returns its
// RegistryID. Initial activity is recorded as "now."
func (r *Registry) Register(kind state.CodecKind, closeFn CloseFunc) RegistryID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	r.entries[id] = &entry{
		id:           id,
		kind:         kind,
		lastActivity: r.now(),
		closeFn:      closeFn,
	}
	return id
}

// Unregister removes a codec from the registry, for a normal (non-reclaim)
// close().
func (r *Registry) Unregister(id RegistryID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// RecordActivity updates a codec's last-activity timestamp. Called on every
// successful submission and every output (§4.6).
func (r *Registry) RecordActivity(id RegistryID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.lastActivity = r.now()
	}
}

// SetBackground marks whether the codec's owning context is currently
// backgrounded (e.g. a backgrounded tab or an app moved off-screen),
// feeding protection rule (2)'s "background AND not protected" clause.
func (r *Registry) SetBackground(id RegistryID, background bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.background = background
	}
}

// Count returns the number of currently registered codecs, mostly useful
// in tests and diagnostics.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// SetClock overrides the registry's time source, letting tests simulate
// inactivity without a real 10-second sleep.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *Registry) isInactive(e *entry, now time.Time) bool {
	return now.Sub(e.lastActivity) >= r.inactivityTimeout
}

// protected applies rule 3: (a) an active encoder is never reclaimed; (b) a
// decoder is protected while the same registry holds an active encoder of
// the paired media kind. Both sub-rules only shield a codec that is itself
// still active — an inactive codec is already reclaimable via rule 1
// regardless of pairing.
func (r *Registry) protected(e *entry, now time.Time) bool {
	active := !r.isInactive(e, now)
	if !active {
		return false
	}

	if e.kind.IsEncoder() {
		return true
	}
	if e.kind.IsDecoder() {
		paired, ok := e.kind.PairedKind()
		if !ok {
			return false
		}
		for _, other := range r.entries {
			if other.kind == paired && !r.isInactive(other, now) {
				return true
			}
		}
	}
	return false
}

// ReclaimInactive runs one sweep of the reclaim algorithm: it removes every
// reclaimable codec from the registry, then runs that codec's close
// algorithm with a *quota-exceeded* error, and returns the RegistryIDs
// reclaimed.
func (r *Registry) ReclaimInactive() []RegistryID {
	r.mu.Lock()
	now := r.now()

	var toReclaim []*entry
	for _, e := range r.entries {
		if r.protected(e, now) {
			continue
		}
		inactive := r.isInactive(e, now)
		if inactive || e.background {
			toReclaim = append(toReclaim, e)
		}
	}
	for _, e := range toReclaim {
		delete(r.entries, e.id)
	}
	r.mu.Unlock()

	ids := make([]RegistryID, 0, len(toReclaim))
	for _, e := range toReclaim {
		ids = append(ids, e.id)
		if e.closeFn != nil {
			e.closeFn(codecerr.NewQuotaExceededError("reclaimed by resource manager after inactivity"))
		}
	}
	return ids
}
