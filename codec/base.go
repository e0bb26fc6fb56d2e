// Package codec implements the five WebCodecs-shaped codec objects —
// VideoEncoder, VideoDecoder, AudioEncoder, AudioDecoder, ImageDecoder —
// by binding the state machine (internal/state), the Control Message Queue
// (internal/cmq), the Codec Work Queue (internal/cwq), the Dispatcher
// (internal/dispatch) and a native codec library (internal/codeclib) into
// one application-facing object per §4.1 and §6.
package codec

import (
	"sync"

	"github.com/embedkit/webcodecs-core/internal/cmq"
	"github.com/embedkit/webcodecs-core/internal/codecerr"
	"github.com/embedkit/webcodecs-core/internal/codeclib"
	"github.com/embedkit/webcodecs-core/internal/config"
	"github.com/embedkit/webcodecs-core/internal/cwq"
	"github.com/embedkit/webcodecs-core/internal/dispatch"
	"github.com/embedkit/webcodecs-core/internal/logging"
	"github.com/embedkit/webcodecs-core/internal/mediaresource"
	"github.com/embedkit/webcodecs-core/internal/resourcemgr"
	"github.com/embedkit/webcodecs-core/internal/state"
)

// OutputFunc is the application's output callback, invoked once per
// delivered output in submission order (§6).
type OutputFunc = dispatch.OutputFunc

// ErrorFunc is the application's error callback (§6, §7).
type ErrorFunc = dispatch.ErrorFunc

// Options configures the ambient parts of a codec object shared by every
// kind: callbacks, the native library binding, the optional process-wide
// resource manager, and the CWQ's backpressure thresholds.
type Options struct {
	Output OutputFunc
	Error  ErrorFunc

	// Library is the native codec library this codec object drives (§6).
	Library codeclib.Library

	// Registry, if non-nil, is the process-wide resource manager this codec
	// registers with while configured (§4.6). Nil disables reclamation.
	Registry *resourcemgr.Registry

	// SoftThreshold/HardCap override the CWQ's defaults (§4.3); zero means
	// "use the package default."
	SoftThreshold int
	HardCap       int

	// OnPanic observes application callback panics recovered by the
	// dispatcher (§4.4). May be nil.
	OnPanic dispatch.PanicObserver
}

// base implements everything §4.1/§4.2/§4.3/§4.4/§4.6 describe that is
// common to the four streaming codec kinds (the image decoder has its own
// architecture per §4.5 and lives in imagedecoder.go). Each exported codec
// type embeds *base and adds kind-specific encode/decode/configure surface.
type base struct {
	kind    state.CodecKind
	library codeclib.Library
	registry *resourcemgr.Registry

	softThreshold, hardCap int

	cmqueue *cmq.Queue
	drainMu sync.Mutex

	dispatcher *dispatch.Dispatcher
	ready      *readyGate

	// decorate post-processes a raw codec-library output before it reaches
	// the dispatcher — used by encoders to attach [[active output config]]
	// to the first chunk after configure (§3). Decoders leave it nil.
	decorate func(out any) any

	mu                  sync.Mutex
	st                  state.CodecState
	cfg                 config.CodecConfig
	handle              codeclib.Handle
	cwqueue             *cwq.Queue
	registryID          resourcemgr.RegistryID
	registered          bool
	expectsKeyFirst     bool
	pendingFlushes      []*FlushFuture
	outputConfigEmitted bool
	activeOrientation   *mediaresource.Orientation
}

func newBase(kind state.CodecKind, opts Options) (*base, error) {
	if opts.Library == nil {
		return nil, codecerr.NewTypeError("%s: a codec library is required", kind)
	}

	d, err := dispatch.New(opts.Output, opts.Error, opts.OnPanic)
	if err != nil {
		return nil, err
	}

	b := &base{
		kind:          kind,
		library:       opts.Library,
		registry:      opts.Registry,
		softThreshold: opts.SoftThreshold,
		hardCap:       opts.HardCap,
		cmqueue:       cmq.New(),
		dispatcher:    d,
		ready:         newReadyGate(),
		st:            state.Unconfigured,
	}
	return b, nil
}

// State returns the codec's current lifecycle state (§4.1).
func (b *base) State() state.CodecState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st
}

// QueueSize is encodeQueueSize/decodeQueueSize (§3's invariant): outstanding
// CWQ work for the currently configured native handle.
func (b *base) QueueSize() int {
	b.mu.Lock()
	cwqueue := b.cwqueue
	b.mu.Unlock()
	if cwqueue == nil {
		return 0
	}
	return cwqueue.Outstanding()
}

// Ready returns the channel the application-facing `ready` signal closes on
// (§4.3).
func (b *base) Ready() <-chan struct{} {
	return b.ready.Wait()
}

// SetOndequeue installs the application's ondequeue handler (§4.4).
func (b *base) SetOndequeue(handler dispatch.EventHandler) {
	b.dispatcher.SetOndequeue(handler)
}

func (b *base) currentHandle() codeclib.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle
}

func (b *base) drain() {
	b.drainMu.Lock()
	defer b.drainMu.Unlock()
	b.cmqueue.Drain()
}

// configure clones/validates cfg synchronously, then enqueues a Configure
// control message that installs a new native codec handle when drained
// (§4.1). A failure detected during the real configure (library.Create
// returning *not-supported*) is delivered through the error callback and
// closes the codec, matching §7's "firing the error callback transitions an
// audio/video codec to closed."
func (b *base) configure(cfg config.CodecConfig) error {
	if cfg == nil {
		return codecerr.NewTypeError("%s.configure: config is required", b.kind)
	}
	clone := cfg.Clone()
	if clone == nil {
		// A typed-nil concrete pointer (e.g. a nil *config.VideoDecoderConfig
		// passed through the CodecConfig interface) clones to a true nil
		// interface rather than tripping the cfg == nil check above.
		return codecerr.NewTypeError("%s.configure: config is required", b.kind)
	}
	if err := clone.Validate(); err != nil {
		return codecerr.NewTypeError("%s.configure: %v", b.kind, err)
	}

	b.mu.Lock()
	if !b.st.CanConfigure() {
		st := b.st
		b.mu.Unlock()
		return codecerr.NewInvalidStateError("%s.configure: invalid state %s", b.kind, st)
	}
	b.mu.Unlock()

	var asyncErr error
	b.cmqueue.Enqueue(cmq.Message{
		Kind: cmq.Configure,
		Run: func() bool {
			asyncErr = b.runConfigure(clone)
			return false
		},
	})
	b.drain()

	if asyncErr != nil {
		b.dispatcher.DeliverError(asyncErr)
		b.closeWithReason(nil)
	}
	return nil
}

func (b *base) runConfigure(cfg config.CodecConfig) error {
	handle, err := b.library.Create(b.kind, cfg)
	if err != nil {
		return err
	}

	b.mu.Lock()
	oldCwq := b.cwqueue
	oldHandle := b.handle
	wasRegistered := b.registered
	oldRegID := b.registryID
	b.mu.Unlock()

	if oldCwq != nil {
		oldCwq.Close()
	}
	if oldHandle != nil {
		oldHandle.Free()
	}
	if wasRegistered && b.registry != nil {
		b.registry.Unregister(oldRegID)
	}

	newQueue := cwq.New(b.softThreshold, b.hardCap, cwq.Handler{
		Output: b.onOutput,
		Error:  b.onError,
		Ready:  b.onReady,
	})

	var regID resourcemgr.RegistryID
	registered := false
	if b.registry != nil {
		regID = b.registry.Register(b.kind, b.closeWithReason)
		registered = true
	}

	b.mu.Lock()
	b.cfg = cfg
	b.handle = handle
	b.cwqueue = newQueue
	b.registryID = regID
	b.registered = registered
	b.expectsKeyFirst = true
	b.activeOrientation = nil
	b.outputConfigEmitted = false
	b.st = state.Configured
	b.mu.Unlock()

	logging.ForCodec(b.kind).Debug("codec configured")
	b.ready.forceReady()
	return nil
}

func (b *base) onOutput(out any) {
	b.mu.Lock()
	registered, regID := b.registered, b.registryID
	b.mu.Unlock()
	if registered && b.registry != nil {
		b.registry.RecordActivity(regID)
	}

	if b.decorate != nil {
		out = b.decorate(out)
	}
	b.dispatcher.DeliverOutput(out)
	b.dispatcher.NotifyDequeue(b.QueueSize())
}

func (b *base) onError(err error) {
	b.dispatcher.NotifyDequeue(b.QueueSize())
	b.dispatcher.DeliverError(err)
	// onError runs on the CWQ worker goroutine; closeWithReason's teardown
	// joins that same worker via cwqueue.Close(), so closing must happen
	// off this goroutine to avoid a self-join deadlock.
	go b.closeWithReason(nil)
}

func (b *base) onReady() {
	b.ready.unblock()
}

// submit runs the shared encode()/decode() submission path: a state check,
// an optional pre-submission check (the decoder key-first-chunk rule, §3),
// and a CWQ submission whose synchronous accept/reject is the hard-cap
// boundary (§5, §8.8). preCheck failures are delivered asynchronously via
// the error callback, not returned, per §7's channel split.
func (b *base) submit(kind cmq.Kind, preCheck func() error, execute func() ([]any, error)) error {
	b.mu.Lock()
	if b.st != state.Configured {
		st := b.st
		b.mu.Unlock()
		return codecerr.NewInvalidStateError("%s.%s: invalid state %s", b.kind, kind, st)
	}
	b.mu.Unlock()

	var submitErr error
	b.cmqueue.Enqueue(cmq.Message{
		Kind: kind,
		Run: func() bool {
			if preCheck != nil {
				if err := preCheck(); err != nil {
					b.dispatcher.DeliverError(err)
					b.closeWithReason(nil)
					return false
				}
				b.mu.Lock()
				b.expectsKeyFirst = false
				b.mu.Unlock()
			}

			cwqueue := b.currentCwq()
			if cwqueue == nil {
				submitErr = codecerr.NewInvalidStateError("%s.%s: codec not configured", b.kind, kind)
				return false
			}
			if err := cwqueue.Submit(cwq.Job{Execute: execute}); err != nil {
				submitErr = err
				return false
			}

			b.mu.Lock()
			registered, regID := b.registered, b.registryID
			b.mu.Unlock()
			if registered && b.registry != nil {
				b.registry.RecordActivity(regID)
			}
			soft := b.softThreshold
			if soft <= 0 {
				soft = cwq.DefaultSoftThreshold
			}
			if cwqueue.Outstanding() >= soft {
				b.ready.block()
			}
			return false
		},
	})
	b.drain()
	return submitErr
}

func (b *base) currentCwq() *cwq.Queue {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cwqueue
}

// decoderKeyCheck returns the preCheck function for a decode submission:
// the first chunk after configure()/reset() must be key (§3, §8.9).
func (b *base) decoderKeyCheck(isKey bool) func() error {
	return func() error {
		b.mu.Lock()
		needKey := b.expectsKeyFirst
		b.mu.Unlock()
		if needKey && !isKey {
			return codecerr.NewDataError("%s.decode: first chunk after configure/reset must be a key chunk", b.kind)
		}
		return nil
	}
}

// flush enqueues a Flush control message that blocks (within the CMQ
// drain) until all prior submissions are idle on the CWQ and their outputs
// have been delivered through the dispatcher, then resolves the returned
// future (§4.1, §4.2, §8.2).
func (b *base) flush() (*FlushFuture, error) {
	b.mu.Lock()
	if !b.st.CanFlush() {
		st := b.st
		b.mu.Unlock()
		return nil, codecerr.NewInvalidStateError("%s.flush: invalid state %s", b.kind, st)
	}
	future := newFlushFuture()
	b.pendingFlushes = append(b.pendingFlushes, future)
	b.mu.Unlock()

	b.cmqueue.Enqueue(cmq.Message{
		Kind: cmq.Flush,
		Run: func() bool {
			cwqueue := b.currentCwq()
			handle := b.currentHandle()
			if cwqueue != nil && handle != nil {
				if err := cwqueue.Submit(cwq.Job{Execute: handle.Flush}); err != nil {
					// Hard cap reached: the flush drain itself cannot be
					// queued. Fall back to waiting for existing work only;
					// the native codec's buffered tail is lost, which is
					// only reachable if the application ignored backpressure.
					logging.ForCodec(b.kind).Warn("flush drain job rejected", "err", err)
				}
			}
			if cwqueue != nil {
				cwqueue.WaitIdle()
			}

			b.mu.Lock()
			idx := -1
			for i, f := range b.pendingFlushes {
				if f == future {
					idx = i
					break
				}
			}
			stillPending := idx >= 0
			if stillPending {
				b.pendingFlushes = append(b.pendingFlushes[:idx], b.pendingFlushes[idx+1:]...)
			}
			b.mu.Unlock()

			if stillPending {
				<-b.dispatcher.Barrier()
				future.resolve(nil)
			}
			return false
		},
	})
	b.drain()
	return future, nil
}

// teardownLocked clears every piece of configured state under b.mu and
// returns what the caller must finish tearing down without holding the
// lock (rejecting flush futures and closing the CWQ/handle can block on
// goroutines that themselves touch b.mu via onOutput/onError/onReady).
func (b *base) teardownLocked() (pending []*FlushFuture, cwqueue *cwq.Queue, handle codeclib.Handle, regID resourcemgr.RegistryID, registered bool) {
	pending = b.pendingFlushes
	b.pendingFlushes = nil
	cwqueue = b.cwqueue
	handle = b.handle
	regID, registered = b.registryID, b.registered
	b.registered = false
	b.cwqueue = nil
	b.handle = nil
	b.cfg = nil
	b.activeOrientation = nil
	b.outputConfigEmitted = false
	return
}

func (b *base) finishTeardown(pending []*FlushFuture, cwqueue *cwq.Queue, handle codeclib.Handle, regID resourcemgr.RegistryID, registered bool) {
	for _, f := range pending {
		f.resolve(codecerr.NewAbortError("%s: flush aborted", b.kind))
	}
	b.cmqueue.Clear()
	if cwqueue != nil {
		cwqueue.Close()
	}
	if handle != nil {
		handle.Free()
	}
	if registered && b.registry != nil {
		b.registry.Unregister(regID)
	}
}

// reset synchronously clears the CMQ/CWQ, rejects pending flushes with
// *abort*, and returns the codec to unconfigured (§4.1). Invalid from
// closed.
func (b *base) reset() error {
	b.mu.Lock()
	if b.st == state.Closed {
		b.mu.Unlock()
		return codecerr.NewInvalidStateError("%s.reset: codec is closed", b.kind)
	}
	pending, cwqueue, handle, regID, registered := b.teardownLocked()
	b.expectsKeyFirst = true
	b.st = state.Unconfigured
	b.mu.Unlock()

	b.finishTeardown(pending, cwqueue, handle, regID, registered)
	b.ready.forceReady()
	return nil
}

// closeWithReason runs the close algorithm (§4.1: "runs reset semantics,
// then state -> closed"), optionally delivering reason through the error
// callback first (§4.6's reclaim path: "invokes its close algorithm with a
// quota-exceeded error delivered through the error callback before state
// transitions to closed"). Idempotent.
func (b *base) closeWithReason(reason error) {
	b.mu.Lock()
	if b.st == state.Closed {
		b.mu.Unlock()
		return
	}
	pending, cwqueue, handle, regID, registered := b.teardownLocked()
	b.st = state.Closed
	b.mu.Unlock()

	b.finishTeardown(pending, cwqueue, handle, regID, registered)
	b.ready.forceReady()

	if reason != nil {
		b.dispatcher.DeliverError(reason)
	}
	b.dispatcher.Stop()
}

// close is the application-facing close() (§4.1): no reason is reported
// through the error callback, matching a user-initiated close rather than a
// reclaim.
func (b *base) close() error {
	b.closeWithReason(nil)
	return nil
}

// IsConfigSupported is the static isConfigSupported(cfg) probe (§4.1):
// clones and structurally validates cfg, then asks the library whether it
// can actually honor it (SPEC_FULL.md §5: "real probing," not a static
// allow-list). A structurally malformed config reports unsupported rather
// than erroring, matching the spec's {supported, config} result shape.
func IsConfigSupported(library codeclib.Library, kind state.CodecKind, cfg config.CodecConfig) (supported bool, cloned config.CodecConfig, err error) {
	if library == nil {
		return false, nil, codecerr.NewTypeError("isConfigSupported: a codec library is required")
	}
	if cfg == nil {
		return false, nil, codecerr.NewTypeError("isConfigSupported: config is required")
	}
	cloned = cfg.Clone()
	if cloned == nil {
		return false, nil, codecerr.NewTypeError("isConfigSupported: config is required")
	}
	if verr := cloned.Validate(); verr != nil {
		return false, cloned, nil
	}
	supported, err = library.IsConfigSupported(kind, cloned)
	if err != nil {
		return false, cloned, err
	}
	return supported, cloned, nil
}
