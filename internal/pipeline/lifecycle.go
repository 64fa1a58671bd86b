package pipeline

import "sync"

// WorkerHandle identifies one live worker for the duration of a run.
// It is issued at registration and handed back on exit.
type WorkerHandle uint64

// Worker roles.
const (
	RoleDiscovery  = "discovery"
	RoleProcessing = "processing"
)

// Tracker keeps the set of live workers and fires onFinished exactly once,
// when the set goes from non-empty to empty.
//
// Register every worker before starting any of them: a worker that exits
// while its siblings are still unregistered would otherwise empty the set early.
type Tracker struct {
	mu         sync.Mutex
	live       map[WorkerHandle]string
	next       WorkerHandle
	fired      bool
	onFinished func()
}

// NewTracker returns a tracker that calls onFinished once the last registered
// worker deregisters. onFinished runs on that worker's goroutine.
func NewTracker(onFinished func()) *Tracker {
	return &Tracker{
		live:       make(map[WorkerHandle]string),
		onFinished: onFinished,
	}
}

// Register adds a worker with the given role and returns its handle.
func (t *Tracker) Register(role string) WorkerHandle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	t.live[t.next] = role

	return t.next
}

// Deregister removes the worker. It returns true for the one call that emptied
// the set; onFinished has returned by then. Unknown or repeated handles are ignored.
func (t *Tracker) Deregister(handle WorkerHandle) bool {
	t.mu.Lock()
	if _, ok := t.live[handle]; !ok {
		t.mu.Unlock()
		return false
	}

	delete(t.live, handle)

	last := len(t.live) == 0 && !t.fired
	if last {
		t.fired = true
	}
	t.mu.Unlock()

	if last && t.onFinished != nil {
		t.onFinished()
	}

	return last
}

// Live returns the number of registered workers that have not exited.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.live)
}

// LiveByRole returns the live worker count for one role.
func (t *Tracker) LiveByRole(role string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, r := range t.live {
		if r == role {
			count++
		}
	}

	return count
}

// Finished reports whether the set has emptied.
func (t *Tracker) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.fired
}
