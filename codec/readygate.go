package codec

import "sync"

// readyGate models the `ready` backpressure signal (§4.3, §9: "another such
// [one-shot] slot, re-created when the soft threshold is re-crossed"). It
// starts ready; block() transitions it to not-ready (a fresh, open channel),
// unblock()/forceReady() complete the current slot.
type readyGate struct {
	mu sync.Mutex
	ch chan struct{}
}

func newReadyGate() *readyGate {
	g := &readyGate{ch: make(chan struct{})}
	close(g.ch)
	return g
}

// Wait returns the channel that closes when the codec becomes ready.
func (g *readyGate) Wait() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ch
}

// IsReady reports readiness without blocking.
func (g *readyGate) IsReady() bool {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// block opens a fresh, unclosed slot if the gate is currently ready. Calling
// it while already blocked is a no-op — the existing slot keeps its waiters.
func (g *readyGate) block() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
		g.ch = make(chan struct{})
	default:
	}
}

// unblock completes the current slot if it isn't already complete.
func (g *readyGate) unblock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.ch:
	default:
		close(g.ch)
	}
}

// forceReady is unblock's name at reset()/configure() call sites, where the
// gate must report ready regardless of its prior state.
func (g *readyGate) forceReady() {
	g.unblock()
}
