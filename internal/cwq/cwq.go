// Package cwq implements the Codec Work Queue: a bounded per-codec queue
// feeding a dedicated background worker that owns the underlying native
// codec handle (§4.3, §5). Submissions beyond the hard cap fail
// synchronously with *quota-exceeded*; outstanding work crossing the soft
// threshold drives the codec's `ready` backpressure signal.
package cwq

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/embedkit/webcodecs-core/internal/codecerr"
)

// DefaultSoftThreshold is the default backpressure threshold (§4.3).
const DefaultSoftThreshold = 16

// DefaultHardCap is the default submission hard cap (§4.3).
const DefaultHardCap = 64

// Job is one unit of work submitted to the queue: a native codec call that
// produces zero or more outputs or an error.
type Job struct {
	// Execute runs the native codec call on the worker goroutine and
	// returns the outputs produced (encoded chunks for encoders, media
	// resources for decoders) or an error.
	Execute func() ([]any, error)
}

// Handler receives deliveries from the worker. Output is called once per
// produced output, in submission order; Error is called at most once per
// job. Neither is called for a job whose generation was invalidated by an
// intervening Reset/Close (§5: "a late output from a reset job must be
// dropped before reaching the application callback").
type Handler struct {
	Output func(out any)
	Error  func(err error)
	// Ready fires when outstanding work transitions from >= soft threshold
	// to below it (an edge, not a level) — §4.3's `ready` signal.
	Ready func()
}

type queuedJob struct {
	job        Job
	generation uint64
}

// Queue is a bounded codec work queue with a dedicated worker goroutine.
type Queue struct {
	softThreshold int
	hardCap       int
	handler       Handler

	mu          sync.Mutex
	cond        *sync.Cond
	outstanding int
	generation  uint64
	wasAboveSoft bool

	jobCh     chan queuedJob
	group     *errgroup.Group
	stopCh    chan struct{}
	closeOnce sync.Once
}

// New constructs a Queue and starts its worker goroutine. softThreshold and
// hardCap of 0 fall back to the spec defaults.
func New(softThreshold, hardCap int, handler Handler) *Queue {
	if softThreshold <= 0 {
		softThreshold = DefaultSoftThreshold
	}
	if hardCap <= 0 {
		hardCap = DefaultHardCap
	}

	q := &Queue{
		softThreshold: softThreshold,
		hardCap:       hardCap,
		handler:       handler,
		jobCh:         make(chan queuedJob, hardCap),
		stopCh:        make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)

	var g errgroup.Group
	q.group = &g
	g.Go(q.runWorker)

	return q
}

// Submit enqueues a job. Fails synchronously with *quota-exceeded* if
// outstanding work is already at the hard cap (§4.3, §5: enforced before
// decrementing queue-size via completion, so cooperative ready-driven
// callers never trip it).
func (q *Queue) Submit(job Job) error {
	q.mu.Lock()
	if q.outstanding >= q.hardCap {
		q.mu.Unlock()
		return codecerr.NewQuotaExceededError("codec work queue hard cap (%d) reached", q.hardCap)
	}
	q.outstanding++
	if q.outstanding >= q.softThreshold {
		q.wasAboveSoft = true
	}
	gen := q.generation
	q.mu.Unlock()

	q.jobCh <- queuedJob{job: job, generation: gen}
	return nil
}

// Outstanding returns the current queue-size counter.
func (q *Queue) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outstanding
}

// WaitIdle blocks until outstanding work reaches zero under the current
// generation. Used by a Flush control message to implement §4.2's barrier
// guarantee: "a Flush barrier resolves strictly after every prior
// Encode/Decode submission has produced its outputs."
func (q *Queue) WaitIdle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.outstanding > 0 {
		q.cond.Wait()
	}
}

func (q *Queue) runWorker() error {
	for {
		select {
		case <-q.stopCh:
			return nil
		case qj, ok := <-q.jobCh:
			if !ok {
				return nil
			}
			q.runJob(qj)
		}
	}
}

func (q *Queue) runJob(qj queuedJob) {
	outputs, err := qj.job.Execute()

	q.mu.Lock()
	stale := qj.generation != q.generation
	if !stale {
		q.outstanding--
	}
	crossedReady := false
	if !stale {
		wasAbove := q.wasAboveSoft
		nowAbove := q.outstanding >= q.softThreshold
		if wasAbove && !nowAbove {
			crossedReady = true
		}
		q.wasAboveSoft = nowAbove
	}
	q.cond.Broadcast()
	q.mu.Unlock()

	if stale {
		return
	}

	if err != nil {
		if q.handler.Error != nil {
			q.handler.Error(err)
		}
	} else if q.handler.Output != nil {
		for _, out := range outputs {
			q.handler.Output(out)
		}
	}

	if crossedReady && q.handler.Ready != nil {
		q.handler.Ready()
	}
}

// Reset discards all queued-but-not-started jobs and invalidates the
// current generation so any job already running on the worker has its
// outputs dropped on completion. Zeroes the outstanding counter atomically
// with the invalidation, per §5's queue-size-drift invariant.
func (q *Queue) Reset() {
	q.mu.Lock()
	q.generation++
	q.outstanding = 0
	q.wasAboveSoft = false
	q.cond.Broadcast()
	q.mu.Unlock()

	q.drainPending()
}

func (q *Queue) drainPending() {
	for {
		select {
		case <-q.jobCh:
		default:
			return
		}
	}
}

// Close stops the worker goroutine after discarding pending work via
// Reset. Idempotent.
func (q *Queue) Close() {
	q.Reset()
	q.closeOnce.Do(func() { close(q.stopCh) })
	_ = q.group.Wait()
}

// generationSnapshot exposes the current generation for tests that need to
// assert a Submit happened under a particular epoch.
func (q *Queue) generationSnapshot() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.generation
}
