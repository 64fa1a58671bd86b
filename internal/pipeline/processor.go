package pipeline

import (
	"context"
	"time"
)

// Processor is the per-file operation applied by the pool.
// Process must be safe to call from several goroutines at once. A failure is
// reported through Outcome.Err and never stops the run.
type Processor interface {
	Process(ctx context.Context, path string) Outcome
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(ctx context.Context, path string) Outcome

// Process calls f(ctx, path).
func (f ProcessorFunc) Process(ctx context.Context, path string) Outcome {
	return f(ctx, path)
}

// ProcessorFactory builds the processor for one run from that run's
// configuration snapshot. An error fails Start with a ConfigError.
type ProcessorFactory func(cfg RunConfiguration) (Processor, error)

// StaticProcessor returns a factory that ignores the configuration and always
// yields p.
func StaticProcessor(p Processor) ProcessorFactory {
	return func(RunConfiguration) (Processor, error) {
		return p, nil
	}
}

// Outcome is the result of processing one file.
type Outcome struct {
	Path     string
	Err      error         // nil on success
	Duration time.Duration // time spent inside Process
	Output   string        // optional diagnostic output, e.g. a tool's stderr tail
}

// Succeeded reports whether the operation succeeded.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}
