package shared

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// ColorsDisabled reports whether the terminal asked for no colour, through
// NO_COLOR or TERM=dumb.
func ColorsDisabled() bool {
	return os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb"
}

// NewProgressModel creates a progress bar with the given width and the
// UI's colours. The percentage is rendered by the caller.
func NewProgressModel(width int) progress.Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = width
	bar.ShowPercentage = false

	if !ColorsDisabled() {
		bar.EmptyColor = dimColorCode
		bar.FullColor = accentColorCode
	}

	return bar
}

// Percent returns done/total clamped to [0, 1]. An empty total is 0.
func Percent(done, total int64) float64 {
	if total <= 0 {
		return 0
	}

	return min(float64(done)/float64(total), 1)
}

// RenderASCIIProgress renders a bar like "[=====>    ] 45%" for terminals
// without colour. percent is in [0, 1].
func RenderASCIIProgress(percent float64, width int) string {
	percent = max(0, min(percent, 1))
	filled := int(percent * float64(width))

	var bar string

	switch {
	case filled >= width:
		bar = strings.Repeat("=", width)
	case percent > 0:
		head := max(filled-1, 0)
		bar = strings.Repeat("=", head) + ">" + strings.Repeat(" ", width-head-1)
	default:
		bar = strings.Repeat(" ", width)
	}

	return fmt.Sprintf("[%s] %d%%", bar, int(percent*100))
}

// RenderProgress renders the bar with bubbles/progress, or with the ASCII
// fallback when colours are disabled.
func RenderProgress(model progress.Model, percent float64) string {
	if ColorsDisabled() {
		return RenderASCIIProgress(percent, model.Width)
	}

	return model.ViewAs(percent)
}
