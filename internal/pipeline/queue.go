package pipeline

import (
	"sync"
	"sync/atomic"
)

// WorkQueue is the FIFO handoff between the discovery worker and the
// processing pool. It also carries the run's cancellation flag.
//
// Once discovery is marked done nothing more is inserted, and cancellation
// never resets; a new run gets a new queue.
type WorkQueue struct {
	mu            sync.Mutex
	cond          *sync.Cond
	items         []string
	cancelled     bool
	discoveryDone bool
	discovered    atomic.Int64
}

// NewWorkQueue returns an empty queue.
func NewWorkQueue() *WorkQueue {
	q := &WorkQueue{}
	q.cond = sync.NewCond(&q.mu)

	return q
}

// Enqueue appends path and returns the number of paths discovered so far.
// It never blocks. Paths offered after MarkDiscoveryDone are dropped and ok is false.
func (q *WorkQueue) Enqueue(path string) (total int64, ok bool) {
	q.mu.Lock()
	if q.discoveryDone {
		q.mu.Unlock()
		return q.discovered.Load(), false
	}

	q.items = append(q.items, path)
	total = q.discovered.Add(1)
	q.mu.Unlock()

	// One item, one consumer
	q.cond.Signal()

	return total, true
}

// Dequeue blocks until the queue is cancelled, holds an item, or discovery is
// done. It returns the head of the queue, or ok=false once the queue is
// cancelled or drained.
func (q *WorkQueue) Dequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.cancelled && len(q.items) == 0 && !q.discoveryDone {
		q.cond.Wait()
	}

	if q.cancelled || len(q.items) == 0 {
		return "", false
	}

	item := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]

	return item, true
}

// MarkDiscoveryDone records that no more paths will be enqueued and wakes
// every waiting consumer. Calling it again has no further effect.
func (q *WorkQueue) MarkDiscoveryDone() {
	q.mu.Lock()
	q.discoveryDone = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Cancel sets the cancellation flag and wakes every waiting consumer.
func (q *WorkQueue) Cancel() {
	q.mu.Lock()
	q.cancelled = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Cancelled reports whether Cancel has been called.
func (q *WorkQueue) Cancelled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.cancelled
}

// DiscoveryDone reports whether MarkDiscoveryDone has been called.
func (q *WorkQueue) DiscoveryDone() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.discoveryDone
}

// Len returns the number of paths waiting to be dequeued.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Discovered returns the number of paths enqueued so far.
func (q *WorkQueue) Discovered() int64 {
	return q.discovered.Load()
}
