package operation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/joe/batch-files/internal/pipeline"
	"github.com/joe/batch-files/pkg/filesystem"
)

// Placeholders recognised in tool arguments.
const (
	PlaceholderInput  = "{input}"
	PlaceholderOutput = "{output}"
	PlaceholderOutDir = "{outdir}"
	PlaceholderName   = "{name}"
	PlaceholderStem   = "{stem}"
)

const waitDelay = time.Second

// ToolRunner runs an external program once per file.
type ToolRunner struct {
	FS       filesystem.FileSystem // creates output directories; defaults to the real filesystem
	Tool     string                // resolved executable path
	Args     []string              // argument template, placeholders unexpanded
	InputDir string
	OutDir   string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Process implements pipeline.Processor.
func (r *ToolRunner) Process(ctx context.Context, path string) pipeline.Outcome {
	start := time.Now()

	args, output, err := r.Expand(path)
	if err != nil {
		return pipeline.Outcome{Err: err, Duration: time.Since(start)}
	}

	if output != "" {
		err = r.fs().MkdirAll(filepath.Dir(output), DefaultDirPermissions)
		if err != nil {
			return pipeline.Outcome{
				Err:      fmt.Errorf("failed to create output directory %s: %w", filepath.Dir(output), err),
				Duration: time.Since(start),
			}
		}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Tool, args...) // #nosec G204 - tool and arguments are chosen by the user

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// Children of a killed tool may hold its pipes open
	cmd.WaitDelay = waitDelay

	r.Logger.Debug("running tool", "tool", r.Tool, "args", args)

	err = cmd.Run()

	outcome := pipeline.Outcome{Duration: time.Since(start), Output: output}
	if err != nil {
		outcome.Err = r.classify(ctx, err, stderr.String())
	}

	return outcome
}

// Expand substitutes the placeholders of the argument template for path. It
// returns the expanded arguments and the output path, which is empty when
// the template does not refer to the output tree.
func (r *ToolRunner) Expand(path string) ([]string, string, error) {
	name := filepath.Base(path)
	values := map[string]string{
		PlaceholderInput: path,
		PlaceholderName:  name,
		PlaceholderStem:  strings.TrimSuffix(name, filepath.Ext(name)),
	}

	var output string

	if usesOutput(r.Args) {
		mirrored, err := MirrorPath(r.InputDir, r.OutDir, path)
		if err != nil {
			return nil, "", err
		}

		output = mirrored
		values[PlaceholderOutput] = output
		values[PlaceholderOutDir] = filepath.Dir(output)
	}

	pairs := make([]string, 0, 2*len(values))
	for placeholder, value := range values {
		pairs = append(pairs, placeholder, value)
	}

	replacer := strings.NewReplacer(pairs...)
	args := make([]string, 0, len(r.Args)+1)
	hasInput := false

	for _, arg := range r.Args {
		if strings.Contains(arg, PlaceholderInput) {
			hasInput = true
		}

		args = append(args, replacer.Replace(arg))
	}

	if !hasInput {
		args = append(args, path)
	}

	return args, output, nil
}

func (r *ToolRunner) classify(ctx context.Context, err error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %v: %w", ErrToolTimedOut, r.Timeout, ctx.Err())
	}

	if ctx.Err() != nil {
		return fmt.Errorf("tool interrupted: %w", ctx.Err())
	}

	tail := tailLines(stderr, StderrTailLines)
	if tail == "" {
		return fmt.Errorf("%w: %w", ErrToolFailed, err)
	}

	return fmt.Errorf("%w: %w: %s", ErrToolFailed, err, tail)
}

func usesOutput(args []string) bool {
	for _, arg := range args {
		if strings.Contains(arg, PlaceholderOutput) || strings.Contains(arg, PlaceholderOutDir) {
			return true
		}
	}

	return false
}

func (r *ToolRunner) fs() filesystem.FileSystem {
	if r.FS == nil {
		return filesystem.NewRealFileSystem()
	}

	return r.FS
}

// tailLines returns the last n non-empty lines of s joined by " | ".
func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")

	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" {
			kept = append(kept, line)
		}
	}

	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	return strings.Join(kept, " | ")
}
