// Package mediaresource implements reference-counted handles to raw video
// frame and audio data buffers (§3, §9 "Reference-counted media resources").
//
// Each handle holds a per-handle metadata shell plus a pointer to a shared,
// immutable payload. The payload's native buffer is released exactly once,
// when the last handle referencing it closes.
package mediaresource

import (
	"sync"
	"sync/atomic"

	"github.com/embedkit/webcodecs-core/internal/codecerr"
)

// payloadAlignment is a page-aligned sizing hint for device-backed buffers:
// large video frame payloads are rounded up to a multiple of the platform
// page size so a future GPU-backed allocator can hand out whole pages
// without internal fragmentation. Pure software payloads don't need this;
// it only affects the capacity of the byte slice AllocPayload reserves.
var payloadAlignment = detectPageSize()

// payload is the shared, reference-counted, immutable buffer underlying one
// or more MediaResource handles. Once constructed its Bytes are never
// mutated; only the refcount changes.
type payload struct {
	bytes    []byte
	refcount atomic.Int32
	released atomic.Bool
	release  func([]byte)
}

// newPayload wraps data in a refcounted payload with an initial refcount of
// 1. release, if non-nil, is invoked exactly once when the last reference
// drops (e.g. to return the buffer to a pool or unmap device memory).
func newPayload(data []byte, release func([]byte)) *payload {
	p := &payload{bytes: data, release: release}
	p.refcount.Store(1)
	return p
}

// AllocPayload allocates a page-aligned-capacity buffer of exactly n usable
// bytes, backing a freshly constructed media resource.
func AllocPayload(n int) []byte {
	capAligned := n
	if payloadAlignment > 0 {
		rem := n % payloadAlignment
		if rem != 0 {
			capAligned = n + (payloadAlignment - rem)
		}
	}
	buf := make([]byte, n, capAligned)
	return buf
}

func (p *payload) retain() {
	p.refcount.Add(1)
}

// drop releases one reference. When it is the last reference, the
// underlying buffer is released via the payload's release hook (if any).
func (p *payload) drop() {
	if p.refcount.Add(-1) == 0 {
		if p.released.CompareAndSwap(false, true) && p.release != nil {
			p.release(p.bytes)
		}
	}
}

// handleState tracks whether an individual handle has already been closed,
// independent of the shared payload's refcount. Embedded by VideoFrame and
// AudioData so close() is idempotent per §3: "close() itself is idempotent."
type handleState struct {
	mu     sync.Mutex
	closed bool
}

// closeOnce runs fn exactly once for this handle and reports whether this
// call was the one that ran it.
func (h *handleState) closeOnce(fn func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.closed = true
	fn()
	return true
}

func (h *handleState) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// errIfClosed returns an invalid-state CodecError naming op if the handle
// is already closed, otherwise nil.
func (h *handleState) errIfClosed(op string) error {
	if h.isClosed() {
		return codecerr.NewInvalidStateError("%s: media resource is closed", op)
	}
	return nil
}
