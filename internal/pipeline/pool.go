package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

// MinPoolSize is the floor on the number of processing workers.
const MinPoolSize = 2

// PoolSize returns the number of processing workers for the given available
// parallelism: never fewer than MinPoolSize.
func PoolSize(availableParallelism int) int {
	return max(availableParallelism, MinPoolSize)
}

// AvailableParallelism reports how many goroutines can run in parallel.
func AvailableParallelism() int {
	return runtime.GOMAXPROCS(0)
}

// pool is the processing side of one run.
type pool struct {
	queue     *WorkQueue
	processor Processor
	processed atomic.Int64
	logger    *slog.Logger

	// onProcessed is called after every Process call with the new total.
	onProcessed func(total int64, outcome Outcome)
}

// work is the loop of one processing worker. It returns when the run is
// cancelled, or when the queue is drained and discovery is done.
func (p *pool) work(ctx context.Context) {
	for {
		if p.queue.Cancelled() {
			return
		}

		path, ok := p.queue.Dequeue()
		if !ok {
			if p.queue.DiscoveryDone() {
				return
			}

			continue
		}

		outcome := p.process(ctx, path)
		total := p.processed.Add(1)

		if p.onProcessed != nil {
			p.onProcessed(total, outcome)
		}
	}
}

// process runs the operation with no lock held and normalizes its outcome.
// A panicking operation counts as a failure of that file.
func (p *pool) process(ctx context.Context, path string) (outcome Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Path: path, Err: fmt.Errorf("%w: %v", ErrProcessorPanic, r), Duration: time.Since(start)}
			p.logger.Error("file operation panicked", "path", path, "panic", r)
		}
	}()

	outcome = p.processor.Process(ctx, path)

	outcome.Path = path
	if outcome.Duration == 0 {
		outcome.Duration = time.Since(start)
	}

	if outcome.Err != nil {
		p.logger.Warn("file failed", "path", path, "error", outcome.Err)
	} else {
		p.logger.Debug("file processed", "path", path, "duration", outcome.Duration)
	}

	return outcome
}
