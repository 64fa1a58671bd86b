package pipeline

import "time"

// Event is the interface implemented by all pipeline events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
// Emit is called from worker goroutines, possibly concurrently; implementations
// that need single-threaded delivery must marshal the event themselves.
type EventEmitter interface {
	Emit(event Event)
}

// EmitterFunc adapts a plain function to EventEmitter.
type EmitterFunc func(Event)

// Emit calls f(event).
func (f EmitterFunc) Emit(event Event) {
	f(event)
}

// RunStarted is emitted once per run, after the workers are registered and
// before any of them starts.
type RunStarted struct {
	RunID   string
	Workers int // processing workers, discovery excluded
	Config  RunConfiguration
}

func (RunStarted) isEvent() {}

// Discovery events

// QueueSizeChanged is emitted every time discovery enqueues a file.
type QueueSizeChanged struct {
	Total int64 // files discovered so far
}

func (QueueSizeChanged) isEvent() {}

// DiscoverySkipped is emitted when discovery cannot read an entry and moves on.
type DiscoverySkipped struct {
	Path string
	Err  error
}

func (DiscoverySkipped) isEvent() {}

// Processing events

// ItemProcessed is emitted after each per-file operation returns, whatever
// its outcome.
type ItemProcessed struct {
	Total   int64 // files processed so far
	Outcome Outcome
}

func (ItemProcessed) isEvent() {}

// Finished is emitted exactly once per run, after the last worker exits.
type Finished struct {
	Result *Result
}

func (Finished) isEvent() {}

// Result summarizes a completed run.
type Result struct {
	RunID      string
	Discovered int64
	Processed  int64
	Failed     []FileError // per-file operation failures
	Skipped    []FileError // entries discovery could not read
	Cancelled  bool
	StartTime  time.Time
	EndTime    time.Time
}

// Succeeded returns the number of processed files whose operation succeeded.
func (r *Result) Succeeded() int64 {
	return r.Processed - int64(len(r.Failed))
}

// Duration returns the wall-clock length of the run.
func (r *Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// FileError records an error against a single path.
type FileError struct {
	Path string
	Err  error
}
