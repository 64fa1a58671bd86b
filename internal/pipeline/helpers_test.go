//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/joe/batch-files/internal/pipeline"
)

// recordingEmitter is a concurrency-safe test double that captures events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []pipeline.Event
	onEmit func(pipeline.Event)
}

func (r *recordingEmitter) Emit(event pipeline.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()

	if r.onEmit != nil {
		r.onEmit(event)
	}
}

func (r *recordingEmitter) Events() []pipeline.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]pipeline.Event(nil), r.events...)
}

func (r *recordingEmitter) processedTotals() []int64 {
	var totals []int64
	for _, event := range r.Events() {
		if p, ok := event.(pipeline.ItemProcessed); ok {
			totals = append(totals, p.Total)
		}
	}

	return totals
}

func (r *recordingEmitter) count(match func(pipeline.Event) bool) int {
	n := 0
	for _, event := range r.Events() {
		if match(event) {
			n++
		}
	}

	return n
}

func isFinished(event pipeline.Event) bool {
	_, ok := event.(pipeline.Finished)
	return ok
}

func isProcessed(event pipeline.Event) bool {
	_, ok := event.(pipeline.ItemProcessed)
	return ok
}

// countingProcessor records every path it sees and succeeds after delay.
type countingProcessor struct {
	mu    sync.Mutex
	seen  map[string]int
	delay time.Duration
	fail  func(path string) error
}

func newCountingProcessor(delay time.Duration) *countingProcessor {
	return &countingProcessor{seen: make(map[string]int), delay: delay}
}

func (p *countingProcessor) Process(_ context.Context, path string) pipeline.Outcome {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	p.mu.Lock()
	p.seen[path]++
	p.mu.Unlock()

	if p.fail != nil {
		return pipeline.Outcome{Err: p.fail(path)}
	}

	return pipeline.Outcome{}
}

func (p *countingProcessor) Seen() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]int, len(p.seen))
	for k, v := range p.seen {
		seen[k] = v
	}

	return seen
}

// createTestFile creates a file (and its parent directories) under dir.
func createTestFile(t *testing.T, dir, relPath, content string) string {
	t.Helper()

	path := filepath.Join(dir, relPath)

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	err = os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	return path
}

// waitForResult waits for the controller's run with a deadline.
func waitForResult(t *testing.T, c *pipeline.Controller, timeout time.Duration) *pipeline.Result {
	t.Helper()

	resultCh := make(chan *pipeline.Result, 1)
	go func() {
		resultCh <- c.Wait()
	}()

	select {
	case result := <-resultCh:
		return result
	case <-time.After(timeout):
		t.Fatalf("run did not finish within %v", timeout)
		return nil
	}
}

func fixedParallelism(n int) func() int {
	return func() int { return n }
}
