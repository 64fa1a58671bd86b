// Package operation provides the per-file operations a run applies: an
// external tool invoked once per file, or a built-in copy into the output
// tree when no tool is configured.
package operation

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/joe/batch-files/internal/pipeline"
	"github.com/joe/batch-files/pkg/filesystem"
)

// Exported constants.
const (
	// DefaultDirPermissions is the permission mode for created output directories
	DefaultDirPermissions = 0o750
	// StderrTailLines is how many trailing stderr lines a tool failure keeps
	StderrTailLines = 5
)

// Exported variables.
var (
	ErrNoOutputDir  = errors.New("an output directory is required")
	ErrToolNotFound = errors.New("tool not found")
	ErrBadToolArgs  = errors.New("cannot parse tool arguments")
	ErrOutsideInput = errors.New("path is outside the input directory")
	ErrToolTimedOut = errors.New("tool timed out")
	ErrToolFailed   = errors.New("tool failed")
)

// Options configures the operations built by NewFactory.
type Options struct {
	FS      filesystem.FileSystem // used by the built-in copy; defaults to the real filesystem
	Timeout time.Duration         // per-file tool timeout, 0 for none
	Logger  *slog.Logger
}

// NewFactory returns a pipeline.ProcessorFactory that builds a ToolRunner
// when the run names a tool and a Copier otherwise.
func NewFactory(opts Options) pipeline.ProcessorFactory {
	return func(cfg pipeline.RunConfiguration) (pipeline.Processor, error) {
		if strings.TrimSpace(cfg.Tool) == "" {
			return newCopier(opts, cfg)
		}

		return newToolRunner(opts, cfg)
	}
}

func newCopier(opts Options, cfg pipeline.RunConfiguration) (*Copier, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("built-in copy: %w", ErrNoOutputDir)
	}

	return &Copier{
		FS:       opts.fs(),
		InputDir: cfg.InputDir,
		OutDir:   cfg.OutputDir,
	}, nil
}

func newToolRunner(opts Options, cfg pipeline.RunConfiguration) (*ToolRunner, error) {
	path, err := exec.LookPath(cfg.Tool)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrToolNotFound, cfg.Tool, err)
	}

	args, err := shlex.Split(cfg.ToolArgs)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrBadToolArgs, cfg.ToolArgs, err)
	}

	if usesOutput(args) && cfg.OutputDir == "" {
		return nil, fmt.Errorf("tool arguments use an output placeholder: %w", ErrNoOutputDir)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &ToolRunner{
		FS:       opts.fs(),
		Tool:     path,
		Args:     args,
		InputDir: cfg.InputDir,
		OutDir:   cfg.OutputDir,
		Timeout:  opts.Timeout,
		Logger:   logger,
	}, nil
}

func (opts Options) fs() filesystem.FileSystem {
	if opts.FS == nil {
		return filesystem.NewRealFileSystem()
	}

	return opts.FS
}

// MirrorPath maps path, which lies under inputDir, to the same relative
// location under outputDir.
func MirrorPath(inputDir, outputDir, path string) (string, error) {
	rel, err := filepath.Rel(inputDir, path)
	if err != nil {
		return "", fmt.Errorf("failed to relate %s to %s: %w", path, inputDir, err)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideInput, path)
	}

	return filepath.Join(outputDir, rel), nil
}
