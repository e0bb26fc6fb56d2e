package dispatch

import "time"

// EventType names the kinds of events a dispatcher's ondequeue handler and
// any diagnostic listeners observe.
const (
	EventTypeDequeue = "dequeue"
	EventTypeOutput  = "output"
	EventTypeError   = "error"
)

// Event is the common interface satisfied by every dispatcher event.
type Event interface {
	Type() string
	Timestamp() int64
}

// BaseEvent carries the fields common to every event.
type BaseEvent struct {
	EventType string
	Time      int64
}

func (e BaseEvent) Type() string     { return e.EventType }
func (e BaseEvent) Timestamp() int64 { return e.Time }

// NewTimestamp returns the current Unix timestamp in seconds.
func NewTimestamp() int64 {
	return time.Now().Unix()
}

// DequeueEvent is the coalesced notification fired when queue-size drops
// (§4.4).
type DequeueEvent struct {
	BaseEvent
	QueueSize int
}

// OutputEvent wraps a delivered output (an encoded chunk or media resource)
// for diagnostic listeners; the codec object's own output callback receives
// the raw value directly, not this wrapper.
type OutputEvent struct {
	BaseEvent
	Output any
}

// ErrorEvent wraps a delivered error for diagnostic listeners.
type ErrorEvent struct {
	BaseEvent
	Err error
}

// EventHandler observes dispatcher events. A non-nil error return is
// ignored; a panic is recovered and passed to the dispatcher's
// PanicObserver (§4.4: "handlers that throw must not corrupt the codec").
type EventHandler func(Event) error
