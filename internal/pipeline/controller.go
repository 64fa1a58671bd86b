// Package pipeline runs a bounded-parallelism file-processing pipeline.
//
// One discovery worker walks the input tree and feeds a WorkQueue; a pool of
// processing workers drains it and applies a Processor to every file. Stop
// requests a cooperative shutdown, and a Finished event is emitted exactly
// once per run, after the last worker has returned.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joe/batch-files/pkg/filesystem"
)

// Controller starts and stops runs and republishes their progress to an
// EventEmitter. Configuration setters only affect the next run.
type Controller struct {
	FS          filesystem.FileSystem // defaults to the real filesystem
	Logger      *slog.Logger          // defaults to a discarding logger
	Parallelism func() int            // defaults to AvailableParallelism
	NewRunID    func() string         // defaults to a random UUID

	factory ProcessorFactory
	emitter EventEmitter

	mu      sync.Mutex
	pending RunConfiguration
	active  *run
	last    *run
}

// Status is a point-in-time view of the current or most recent run.
type Status struct {
	RunID       string
	Running     bool
	Discovered  int64
	Processed   int64
	Failed      int
	LiveWorkers int
	Cancelled   bool
}

// NewController creates a controller that builds each run's per-file
// operation with factory.
func NewController(factory ProcessorFactory) *Controller {
	return &Controller{factory: factory}
}

// SetEventEmitter sets the event emitter for progress notifications.
// The emitter is optional - if nil, no events will be emitted.
func (c *Controller) SetEventEmitter(emitter EventEmitter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.emitter = emitter
}

// GetEventEmitter returns the current event emitter.
func (c *Controller) GetEventEmitter() EventEmitter {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.emitter
}

// SetInputDirectory sets the tree the next run walks.
func (c *Controller) SetInputDirectory(dir string) {
	c.update(func(cfg *RunConfiguration) { cfg.InputDir = dir })
}

// SetOutputDirectory sets where the next run's operation writes.
func (c *Controller) SetOutputDirectory(dir string) {
	c.update(func(cfg *RunConfiguration) { cfg.OutputDir = dir })
}

// SetFileFilter sets the name filter of the next run.
func (c *Controller) SetFileFilter(filter string) {
	c.update(func(cfg *RunConfiguration) { cfg.Filter = filter })
}

// SetTool sets the tool the next run invokes per file.
func (c *Controller) SetTool(tool string) {
	c.update(func(cfg *RunConfiguration) { cfg.Tool = tool })
}

// SetToolArguments sets the tool arguments of the next run.
func (c *Controller) SetToolArguments(args string) {
	c.update(func(cfg *RunConfiguration) { cfg.ToolArgs = args })
}

// Configure replaces the whole pending configuration.
func (c *Controller) Configure(cfg RunConfiguration) {
	c.update(func(pending *RunConfiguration) { *pending = cfg })
}

// Config returns the pending configuration.
func (c *Controller) Config() RunConfiguration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pending
}

// Start begins a run with a snapshot of the pending configuration, its
// directories made absolute, and returns without waiting for it. It fails with *BusyError while a run is active and
// with *ConfigError when the configuration is unusable; in both cases no
// worker is spawned.
//
// ctx is handed to every Process call. Cancelling it also stops the run, and
// unlike Stop it may interrupt operations already in progress.
func (c *Controller) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.active != nil {
		id := c.active.id
		c.mu.Unlock()

		return &BusyError{RunID: id}
	}

	cfg, err := absolutePaths(c.pending)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	if err := c.validate(cfg); err != nil {
		c.mu.Unlock()
		return err
	}

	processor, err := c.factory(cfg)
	if err != nil {
		c.mu.Unlock()
		return &ConfigError{Field: "tool", Reason: "cannot prepare file operation", Err: err}
	}

	r := c.newRun(cfg, processor)
	c.active = r
	emitter := c.emitter
	c.mu.Unlock()

	// Every handle exists before any worker runs
	discoveryHandle := r.tracker.Register(RoleDiscovery)

	workerHandles := make([]WorkerHandle, r.workers)
	for i := range workerHandles {
		workerHandles[i] = r.tracker.Register(RoleProcessing)
	}

	r.logger.Info("run started",
		"input", cfg.InputDir,
		"output", cfg.OutputDir,
		"filter", cfg.Filter,
		"tool", cfg.Tool,
		"workers", r.workers)
	emit(emitter, RunStarted{RunID: r.id, Workers: r.workers, Config: cfg})

	go func() {
		defer r.tracker.Deregister(discoveryHandle)

		r.discoverer.Run()
	}()

	for _, handle := range workerHandles {
		go func() {
			defer r.tracker.Deregister(handle)

			r.pool.work(ctx)
		}()
	}

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				r.queue.Cancel()
			case <-r.done:
			}
		}()
	}

	return nil
}

// Stop requests a graceful shutdown of the active run and returns at once.
// Operations already running finish; no further file is started. The run ends
// when Finished is emitted. Stop is a no-op when no run is active.
func (c *Controller) Stop() {
	c.mu.Lock()
	r := c.active
	c.mu.Unlock()

	if r == nil {
		return
	}

	if !r.queue.Cancelled() {
		r.logger.Info("stop requested")
	}

	r.queue.Cancel()
}

// Wait blocks until the active run finishes and returns its result. With no
// active run it returns the result of the last run, or nil if there was none.
// Do not call Wait from inside an EventEmitter.
func (c *Controller) Wait() *Result {
	c.mu.Lock()
	r := c.active
	if r == nil {
		r = c.last
	}
	c.mu.Unlock()

	if r == nil {
		return nil
	}

	<-r.done

	return r.result
}

// Running reports whether a run is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active != nil
}

// GetStatus returns the status of the active run, or of the last run when
// none is active.
func (c *Controller) GetStatus() Status {
	c.mu.Lock()
	r := c.active
	running := r != nil
	if r == nil {
		r = c.last
	}
	c.mu.Unlock()

	if r == nil {
		return Status{}
	}

	r.recordMu.Lock()
	failed := len(r.failed)
	r.recordMu.Unlock()

	return Status{
		RunID:       r.id,
		Running:     running,
		Discovered:  r.queue.Discovered(),
		Processed:   r.pool.processed.Load(),
		Failed:      failed,
		LiveWorkers: r.tracker.Live(),
		Cancelled:   r.queue.Cancelled(),
	}
}

func (c *Controller) update(apply func(*RunConfiguration)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	apply(&c.pending)
}

func (c *Controller) fs() filesystem.FileSystem {
	if c.FS == nil {
		return filesystem.NewRealFileSystem()
	}

	return c.FS
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return c.Logger
}

func (c *Controller) validate(cfg RunConfiguration) error {
	if cfg.InputDir == "" {
		return &ConfigError{Field: "input directory", Reason: "is required"}
	}

	info, err := c.fs().Stat(cfg.InputDir)
	if err != nil {
		return &ConfigError{Field: "input directory", Reason: "cannot access " + cfg.InputDir, Err: err}
	}

	if !info.IsDir() {
		return &ConfigError{Field: "input directory", Reason: cfg.InputDir + " is not a directory"}
	}

	if cfg.OutputDir != "" && isWithin(cfg.InputDir, cfg.OutputDir) {
		return &ConfigError{
			Field:  "output directory",
			Reason: cfg.OutputDir + " is inside the input directory; its files would be rediscovered",
		}
	}

	return nil
}

func (c *Controller) newRun(cfg RunConfiguration, processor Processor) *run {
	newRunID := uuid.NewString
	if c.NewRunID != nil {
		newRunID = c.NewRunID
	}

	parallelism := AvailableParallelism
	if c.Parallelism != nil {
		parallelism = c.Parallelism
	}

	emitter := c.emitter
	id := newRunID()
	logger := c.logger().With("run_id", id)
	queue := NewWorkQueue()

	r := &run{
		id:      id,
		cfg:     cfg,
		queue:   queue,
		workers: PoolSize(parallelism()),
		logger:  logger,
		start:   time.Now(),
		done:    make(chan struct{}),
	}

	r.tracker = NewTracker(func() { c.finish(r, emitter) })

	r.discoverer = &Discoverer{
		FS:     c.fs(),
		Root:   cfg.InputDir,
		Filter: NewGlobFilter(cfg.Filter),
		Queue:  queue,
		Logger: logger,
		OnEnqueued: func(total int64) {
			emit(emitter, QueueSizeChanged{Total: total})
		},
		OnSkipped: func(path string, err error) {
			r.record(&r.skipped, path, err)
			emit(emitter, DiscoverySkipped{Path: path, Err: err})
		},
	}

	r.pool = &pool{
		queue:     queue,
		processor: processor,
		logger:    logger,
		onProcessed: func(total int64, outcome Outcome) {
			if outcome.Err != nil {
				r.record(&r.failed, outcome.Path, outcome.Err)
			}

			emit(emitter, ItemProcessed{Total: total, Outcome: outcome})
		},
	}

	return r
}

// finish runs once per run, on the goroutine of the last worker to exit.
func (c *Controller) finish(r *run, emitter EventEmitter) {
	r.recordMu.Lock()
	r.result = &Result{
		RunID:      r.id,
		Discovered: r.queue.Discovered(),
		Processed:  r.pool.processed.Load(),
		Failed:     append([]FileError(nil), r.failed...),
		Skipped:    append([]FileError(nil), r.skipped...),
		Cancelled:  r.queue.Cancelled(),
		StartTime:  r.start,
		EndTime:    time.Now(),
	}
	r.recordMu.Unlock()

	c.mu.Lock()
	if c.active == r {
		c.active = nil
	}
	c.last = r
	c.mu.Unlock()

	r.logger.Info("run finished",
		"discovered", r.result.Discovered,
		"processed", r.result.Processed,
		"failed", len(r.result.Failed),
		"skipped", len(r.result.Skipped),
		"cancelled", r.result.Cancelled,
		"duration", r.result.Duration())

	emit(emitter, Finished{Result: r.result})
	close(r.done)
}

// run is the state of one Start-to-Finished lifecycle.
type run struct {
	id         string
	cfg        RunConfiguration
	queue      *WorkQueue
	tracker    *Tracker
	discoverer *Discoverer
	pool       *pool
	workers    int
	logger     *slog.Logger
	start      time.Time
	done       chan struct{}
	result     *Result

	recordMu sync.Mutex
	failed   []FileError
	skipped  []FileError
}

func (r *run) record(list *[]FileError, path string, err error) {
	r.recordMu.Lock()
	defer r.recordMu.Unlock()

	*list = append(*list, FileError{Path: path, Err: err})
}

// emit sends an event if an emitter is configured.
func emit(emitter EventEmitter, event Event) {
	if emitter != nil {
		emitter.Emit(event)
	}
}

// absolutePaths resolves the directories of cfg against the working
// directory, so every discovered path is absolute.
func absolutePaths(cfg RunConfiguration) (RunConfiguration, error) {
	if cfg.InputDir != "" {
		abs, err := filepath.Abs(cfg.InputDir)
		if err != nil {
			return cfg, &ConfigError{Field: "input directory", Reason: "cannot resolve " + cfg.InputDir, Err: err}
		}

		cfg.InputDir = abs
	}

	if cfg.OutputDir != "" {
		abs, err := filepath.Abs(cfg.OutputDir)
		if err != nil {
			return cfg, &ConfigError{Field: "output directory", Reason: "cannot resolve " + cfg.OutputDir, Err: err}
		}

		cfg.OutputDir = abs
	}

	return cfg, nil
}

// isWithin reports whether path is root or lies below it.
func isWithin(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
