package tilekit

import (
	"fmt"
	"sync"
)

// OutcomeKind distinguishes the two terminal results of a fetch.
type OutcomeKind uint8

const (
	OutcomeSuccess OutcomeKind = iota // body received and Data is set
	OutcomeFailure                    // fetch failed or was canceled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", uint8(k))
	}
}

// FetchOutcome is the single terminal result owed to a submitted token.
type FetchOutcome struct {
	Kind  OutcomeKind
	Token uint64
	URL   string
	Data  []byte // nil for failures
}

// TileConsumer receives fetch outcomes. It is called from whichever
// goroutine drains the OutcomeQueue, normally the render thread. The data
// passed to DeliverSuccess belongs to the consumer; the cache keeps its own
// copy.
type TileConsumer interface {
	DeliverSuccess(data []byte, token uint64)
	DeliverFailure(token uint64)
}

// OutcomeSink accepts outcomes from fetch workers. Implementations must be
// safe for concurrent use.
type OutcomeSink interface {
	Deliver(o FetchOutcome)
}

// ConsumerFuncs adapts two functions to TileConsumer. Nil fields are
// skipped.
type ConsumerFuncs struct {
	Success func(data []byte, token uint64)
	Failure func(token uint64)
}

// DeliverSuccess calls f.Success.
func (f ConsumerFuncs) DeliverSuccess(data []byte, token uint64) {
	if f.Success != nil {
		f.Success(data, token)
	}
}

// DeliverFailure calls f.Failure.
func (f ConsumerFuncs) DeliverFailure(token uint64) {
	if f.Failure != nil {
		f.Failure(token)
	}
}

// OutcomeQueue hands outcomes from fetch workers to a single-threaded
// consumer. Workers call Deliver from any goroutine; the consumer calls
// Drain on its own thread, typically once per frame. Outcomes are drained
// in arrival order.
type OutcomeQueue struct {
	mu      sync.Mutex
	pending []FetchOutcome
	ready   chan struct{}
}

// NewOutcomeQueue creates an empty queue.
func NewOutcomeQueue() *OutcomeQueue {
	return &OutcomeQueue{ready: make(chan struct{}, 1)}
}

// Deliver enqueues o without blocking.
func (q *OutcomeQueue) Deliver(o FetchOutcome) {
	q.mu.Lock()
	q.pending = append(q.pending, o)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Ready returns a channel that receives a value after Deliver when the
// consumer may have outcomes to drain. Useful for consumers that block
// instead of polling.
func (q *OutcomeQueue) Ready() <-chan struct{} {
	return q.ready
}

// Len returns the number of undrained outcomes.
func (q *OutcomeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain delivers every queued outcome to c and returns how many were
// delivered. c runs without the queue lock held, so it may submit new
// requests.
func (q *OutcomeQueue) Drain(c TileConsumer) int {
	return q.DrainFunc(func(o FetchOutcome) {
		switch o.Kind {
		case OutcomeSuccess:
			c.DeliverSuccess(o.Data, o.Token)
		default:
			c.DeliverFailure(o.Token)
		}
	})
}

// DrainFunc is Drain for callers that need the whole FetchOutcome.
func (q *OutcomeQueue) DrainFunc(fn func(FetchOutcome)) int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, o := range batch {
		fn(o)
	}
	return len(batch)
}
