package pipeline

import (
	"errors"
	"fmt"
)

// Exported variables.
var (
	ErrBusy           = errors.New("a run is already active")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrProcessorPanic = errors.New("file operation panicked")
)

// BusyError is returned by Start while another run is active.
// It matches ErrBusy with errors.Is.
type BusyError struct {
	RunID string // the active run
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("cannot start: run %s is still active", e.RunID)
}

// Is reports whether target is ErrBusy.
func (e *BusyError) Is(target error) bool {
	return target == ErrBusy
}

// ConfigError is returned by Start when the run configuration is unusable.
// No workers are spawned. It matches ErrInvalidConfig with errors.Is.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Unwrap returns the underlying cause, if any.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
