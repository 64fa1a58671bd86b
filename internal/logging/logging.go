// Package logging builds the structured logger used across a run.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string // debug, info, warn or error; "" means info
	Format string // text or json; "" means text
	Path   string // log file, appended to; "" means Fallback
	// Fallback receives the log when Path is empty. nil discards it, which is
	// what the terminal UI wants since it owns the screen.
	Fallback io.Writer
}

// New constructs a slog logger. The returned close function releases the log
// file and is safe to call when there is none.
func New(opts Options) (*slog.Logger, func() error, error) {
	writer, closeFn, err := openWriter(opts)
	if err != nil {
		return nil, nil, err
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       ParseLevel(opts.Level),
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		handler = slog.NewTextHandler(writer, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(writer, handlerOpts)
	default:
		_ = closeFn()
		return nil, nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	return slog.New(handler), closeFn, nil
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openWriter(opts Options) (io.Writer, func() error, error) {
	noop := func() error { return nil }

	if opts.Path == "" {
		if opts.Fallback == nil {
			return io.Discard, noop, nil
		}

		return opts.Fallback, noop, nil
	}

	dir := filepath.Dir(opts.Path)
	if dir != "." && dir != "" {
		err := os.MkdirAll(dir, 0o750)
		if err != nil {
			return nil, nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}

	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 - path is chosen by the user
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", opts.Path, err)
	}

	return file, file.Close, nil
}

// replaceAttr shortens keys and renders times in UTC.
func replaceAttr(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
		}
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	}

	return attr
}
