// Package dispatch delivers codec worker outputs and errors back to the
// application thread, and coalesces dequeue notifications (§4.4).
package dispatch

import (
	"sync"

	"github.com/embedkit/webcodecs-core/internal/codecerr"
)

// OutputFunc is the application-provided output callback. Called once per
// output, in submission order.
type OutputFunc func(output any)

// ErrorFunc is the application-provided error callback.
type ErrorFunc func(err error)

// PanicObserver is notified when an application callback panics, so the
// panic can be reported to a diagnostic listener instead of crashing the
// dispatcher goroutine (§4.4: "handlers that throw must not corrupt the
// codec; their exceptions are reported and swallowed").
type PanicObserver func(recovered any)

type deliveryKind int

const (
	deliveryOutput deliveryKind = iota
	deliveryError
	deliveryDequeue
	deliveryBarrier
)

type delivery struct {
	kind      deliveryKind
	output    any
	err       error
	queueSize int
	reached   chan struct{}
}

// Dispatcher serializes output/error/dequeue delivery onto a single
// goroutine that plays the role of "the application thread" for this
// codec, decoupling callback execution from the CWQ worker that produced
// the result.
type Dispatcher struct {
	output OutputFunc
	error  ErrorFunc
	onPanic PanicObserver

	mu        sync.Mutex
	ondequeue EventHandler
	scheduled bool

	sendMu     sync.RWMutex
	stopped    bool
	deliveries chan delivery
	done       chan struct{}
	closeOnce  sync.Once
}

// New constructs a Dispatcher. Both output and errorFn are required; per
// §6 a missing callback is a construction-time *type* error.
func New(output OutputFunc, errorFn ErrorFunc, onPanic PanicObserver) (*Dispatcher, error) {
	if output == nil {
		return nil, codecerr.NewTypeError("output callback is required")
	}
	if errorFn == nil {
		return nil, codecerr.NewTypeError("error callback is required")
	}

	d := &Dispatcher{
		output:     output,
		error:      errorFn,
		onPanic:    onPanic,
		deliveries: make(chan delivery, 256),
		done:       make(chan struct{}),
	}
	go d.run()
	return d, nil
}

// SetOndequeue installs (or clears, with nil) the dequeue listener.
func (d *Dispatcher) SetOndequeue(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ondequeue = handler
}

// send queues del for delivery, silently dropping it if Stop() has already
// been called — a codec's teardown path may race a late CWQ completion
// against Stop(), and a dropped delivery after the codec is closed is
// correct, not a bug (§5: "never enqueue after the codec is closed").
func (d *Dispatcher) send(del delivery) {
	d.sendMu.RLock()
	defer d.sendMu.RUnlock()
	if d.stopped {
		if del.reached != nil {
			close(del.reached)
		}
		return
	}
	d.deliveries <- del
}

// DeliverOutput queues an output for delivery on the dispatcher goroutine.
func (d *Dispatcher) DeliverOutput(out any) {
	d.send(delivery{kind: deliveryOutput, output: out})
}

// DeliverError queues an error for delivery on the dispatcher goroutine.
func (d *Dispatcher) DeliverError(err error) {
	d.send(delivery{kind: deliveryError, err: err})
}

// NotifyDequeue requests a coalesced dequeue notification. If one is
// already scheduled and not yet fired, this call adds no additional event
// (§4.4). The notification always fires asynchronously on the dispatcher
// goroutine, never synchronously from the caller.
func (d *Dispatcher) NotifyDequeue(queueSize int) {
	d.mu.Lock()
	if d.scheduled {
		d.mu.Unlock()
		return
	}
	d.scheduled = true
	d.mu.Unlock()

	d.send(delivery{kind: deliveryDequeue, queueSize: queueSize})
}

// Barrier enqueues a marker delivery and returns a channel that closes once
// the dispatcher goroutine reaches it — i.e. once every output/error queued
// before this call has been delivered to the application callbacks. A
// flush() control message uses this to satisfy §4.2's ordering guarantee
// that a Flush barrier resolves only after all prior outputs are delivered,
// not merely produced.
func (d *Dispatcher) Barrier() <-chan struct{} {
	reached := make(chan struct{})
	d.send(delivery{kind: deliveryBarrier, reached: reached})
	return reached
}

// Stop prevents further deliveries and closes the delivery channel once any
// in-flight send has returned; the dispatcher goroutine drains whatever is
// already queued and exits. Idempotent.
func (d *Dispatcher) Stop() {
	d.closeOnce.Do(func() {
		d.sendMu.Lock()
		d.stopped = true
		d.sendMu.Unlock()
		close(d.deliveries)
	})
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for del := range d.deliveries {
		switch del.kind {
		case deliveryOutput:
			d.safeCall(func() { d.output(del.output) })
		case deliveryError:
			d.safeCall(func() { d.error(del.err) })
		case deliveryDequeue:
			d.mu.Lock()
			d.scheduled = false
			handler := d.ondequeue
			d.mu.Unlock()

			if handler != nil {
				evt := DequeueEvent{
					BaseEvent: BaseEvent{EventType: EventTypeDequeue, Time: NewTimestamp()},
					QueueSize: del.queueSize,
				}
				d.safeCall(func() { _ = handler(evt) })
			}
		case deliveryBarrier:
			close(del.reached)
		}
	}
}

// safeCall runs fn, recovering any panic so a misbehaving application
// callback cannot crash the dispatcher goroutine or corrupt codec state.
func (d *Dispatcher) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil && d.onPanic != nil {
			d.onPanic(r)
		}
	}()
	fn()
}
