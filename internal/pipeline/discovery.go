package pipeline

import (
	"log/slog"
	"path/filepath"

	"github.com/joe/batch-files/pkg/filesystem"
)

// Discoverer walks an input tree and feeds matching files to a WorkQueue.
type Discoverer struct {
	FS     filesystem.FileSystem
	Root   string
	Filter FileFilter
	Queue  *WorkQueue
	Logger *slog.Logger

	// OnEnqueued is called after each enqueue with the running total.
	OnEnqueued func(total int64)
	// OnSkipped is called for each entry that could not be read.
	OnSkipped func(path string, err error)
}

// Run walks the tree in pre-order, directory entries in case-insensitive
// name order, and enqueues files as they are found. It stops at the first
// entry that sees the queue cancelled. Discovery is always marked done on
// return, cancelled or not.
func (d *Discoverer) Run() {
	defer d.Queue.MarkDiscoveryDone()

	walker := filesystem.Walk(d.FS, d.Root)
	for walker.Step() {
		if d.Queue.Cancelled() {
			d.logger().Debug("discovery cancelled", "at", walker.Path())
			return
		}

		path := walker.Path()

		// Unreadable entries are reported once; the walker does not descend into them
		if err := walker.Err(); err != nil {
			d.skip(path, err)
			continue
		}

		info := walker.Stat()
		if info == nil || info.IsDir() {
			continue
		}

		if !d.include(path) {
			continue
		}

		total, ok := d.Queue.Enqueue(path)
		if ok && d.OnEnqueued != nil {
			d.OnEnqueued(total)
		}
	}
}

func (d *Discoverer) include(path string) bool {
	if d.Filter == nil {
		return true
	}

	rel, err := filepath.Rel(d.Root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	return d.Filter.ShouldInclude(rel)
}

func (d *Discoverer) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return d.Logger
}

func (d *Discoverer) skip(path string, err error) {
	d.logger().Warn("skipping unreadable entry", "path", path, "error", err)

	if d.OnSkipped != nil {
		d.OnSkipped(path, err)
	}
}
