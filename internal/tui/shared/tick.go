package shared

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg refreshes time-dependent parts of the screen.
type TickMsg time.Time

// TickCmd returns a command that sends one TickMsg after TickIntervalMs.
func TickCmd() tea.Cmd {
	return tea.Tick(TickIntervalMs*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
