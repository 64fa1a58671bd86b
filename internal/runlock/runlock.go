// Package runlock keeps two batch-files processes from writing the same
// output tree at once.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockSuffix is appended to the output directory to name its lock file.
const LockSuffix = ".lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("output directory is in use by another batch-files process")

// Lock is a held advisory lock on an output directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// PathFor returns the lock file used for outputDir. It lives next to the
// directory rather than inside it, so it never shows up in the output tree.
func PathFor(outputDir string) string {
	return filepath.Clean(outputDir) + LockSuffix
}

// Acquire takes the lock for outputDir without blocking.
func Acquire(outputDir string) (*Lock, error) {
	path := PathFor(outputDir)

	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}

	lock := flock.New(path)

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	return &Lock{path: path, lock: lock}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	err := l.lock.Unlock()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}

	err = os.Remove(l.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}

	return nil
}
