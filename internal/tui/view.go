package tui

import (
	"fmt"
	"strings"

	"github.com/joe/batch-files/internal/report"
	"github.com/joe/batch-files/internal/tui/shared"
)

// runIDWidth is how much of the run id the header shows.
const runIDWidth = 8

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(shared.RenderTitle("batch-files"))
	b.WriteString("\n")
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderProgress())
	b.WriteString("\n")
	b.WriteString(m.renderCounters())

	if m.lastPath != "" && m.active() {
		b.WriteString("\n")
		b.WriteString(shared.RenderDim("Last: " + shared.TruncateLeft(shared.RelativePath(m.inputDir, m.lastPath), m.progress.Width)))
	}

	if len(m.failures) > 0 && m.state != StateDone {
		b.WriteString("\n\n")
		b.WriteString(shared.RenderActivityLog("Recent problems", m.failures, shared.RecentFailures))
	}

	if m.state == StateDone && m.result != nil {
		b.WriteString("\n\n")
		b.WriteString(report.Summary(m.result, m.inputDir))
	}

	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(shared.RenderError("Error: " + m.err.Error()))
	}

	b.WriteString("\n\n")
	b.WriteString(shared.RenderDim(m.help()))

	return shared.RenderBox(b.String())
}

func (m Model) renderHeader() string {
	header := shared.RenderLabel("Input: ") + m.inputDir

	if m.workers > 0 {
		header += fmt.Sprintf("   %s%d", shared.RenderLabel("Workers: "), m.workers)
	}

	if m.runID != "" {
		id := m.runID
		if len(id) > runIDWidth {
			id = id[:runIDWidth]
		}

		header += "   " + shared.RenderLabel("Run: ") + id
	}

	return header
}

func (m Model) renderStatus() string {
	switch m.state {
	case StateRunning:
		return m.spinner.View() + " Processing"
	case StateStopping:
		if m.presses > 1 {
			return m.spinner.View() + " " + shared.RenderWarning("Aborting")
		}

		return m.spinner.View() + " " + shared.RenderWarning("Stopping") + shared.RenderDim(" (press again to abort)")
	case StateDone:
		if m.result != nil && m.result.Cancelled {
			return shared.RenderWarning("Stopped")
		}

		if m.failed > 0 || m.skipped > 0 {
			return shared.RenderWarning("Finished with problems")
		}

		return shared.RenderSuccess("Finished")
	default:
		if m.err != nil {
			return shared.RenderError("Not started")
		}

		return m.spinner.View() + " Starting"
	}
}

func (m Model) renderProgress() string {
	percent := shared.Percent(m.processed, m.discovered)

	return fmt.Sprintf("%s %d/%d (%d%%)",
		shared.RenderProgress(m.progress, percent), m.processed, m.discovered, int(percent*100))
}

func (m Model) renderCounters() string {
	elapsed := m.now.Sub(m.started)
	if m.started.IsZero() || elapsed < 0 {
		elapsed = 0
	}

	failed := fmt.Sprintf("Failed: %d", m.failed)
	if m.failed > 0 {
		failed = shared.RenderError(failed)
	}

	return fmt.Sprintf("%s   Skipped: %d   %s   Elapsed: %s",
		failed, m.skipped, shared.FormatFileRate(m.processed, elapsed), shared.FormatDuration(elapsed))
}

func (m Model) help() string {
	switch m.state {
	case StateRunning:
		return "s: stop   q/ctrl+c: stop and quit"
	case StateStopping:
		return "q/ctrl+c: abort in-flight files"
	case StateDone:
		return "r/enter: run again   q: quit"
	default:
		if m.err != nil {
			return "r/enter: retry   q: quit"
		}

		return "q: quit"
	}
}
