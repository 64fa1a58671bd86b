package shared

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FormatDuration formats duration into human-readable format (e.g., "2m 30s")
func FormatDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)
	hours := duration / time.Hour
	duration %= time.Hour
	minutes := duration / time.Minute
	duration %= time.Minute
	seconds := duration / time.Second

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// FormatFileRate formats a processing rate (e.g., "12.5 files/s").
func FormatFileRate(files int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "0.0 files/s"
	}

	return fmt.Sprintf("%.1f files/s", float64(files)/elapsed.Seconds())
}

// RelativePath shows path relative to root when it lies below it.
func RelativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}

	return rel
}

// TruncateLeft shortens s to width runes by dropping its start, keeping the
// file name end of a path visible.
func TruncateLeft(s string, width int) string {
	const ellipsis = "..."

	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}

	if width <= len(ellipsis) {
		return string(runes[len(runes)-width:])
	}

	return ellipsis + string(runes[len(runes)-width+len(ellipsis):])
}
