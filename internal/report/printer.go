package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/joe/batch-files/internal/pipeline"
)

// Printer is a pipeline.EventEmitter that writes one line per file. It is
// used when standard output is not a terminal.
type Printer struct {
	mu         sync.Mutex
	w          io.Writer
	inputDir   string
	discovered int64
}

// NewPrinter creates a Printer writing to w. Paths are shown relative to
// inputDir.
func NewPrinter(w io.Writer, inputDir string) *Printer {
	return &Printer{w: w, inputDir: inputDir}
}

// Emit implements pipeline.EventEmitter.
func (p *Printer) Emit(event pipeline.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e := event.(type) {
	case pipeline.RunStarted:
		fmt.Fprintf(p.w, "run %s: %d workers, input %s\n", e.RunID, e.Workers, e.Config.InputDir)
	case pipeline.QueueSizeChanged:
		p.discovered = max(p.discovered, e.Total)
	case pipeline.DiscoverySkipped:
		fmt.Fprintf(p.w, "skipped %s: %v\n", relative(p.inputDir, e.Path), e.Err)
	case pipeline.ItemProcessed:
		status := "ok"
		if e.Outcome.Err != nil {
			status = "FAILED: " + e.Outcome.Err.Error()
		}

		fmt.Fprintf(p.w, "[%d/%d] %s %s\n", e.Total, max(p.discovered, e.Total), relative(p.inputDir, e.Outcome.Path), status)
	case pipeline.Finished:
		fmt.Fprintln(p.w, Summary(e.Result, p.inputDir))
	}
}
