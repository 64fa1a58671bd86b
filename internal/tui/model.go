// Package tui is the terminal front end of batch-files: a progress view that
// follows the pipeline's events and lets the user stop, abort or restart a
// run from the keyboard.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joe/batch-files/internal/pipeline"
	"github.com/joe/batch-files/internal/tui/shared"
)

// Screen states.
const (
	StateIdle     = "idle"
	StateRunning  = "running"
	StateStopping = "stopping"
	StateDone     = "done"
)

// Runner is the part of pipeline.Controller the screen drives.
type Runner interface {
	Start(ctx context.Context) error
	Stop()
}

// Model represents the TUI state
type Model struct {
	runner   Runner
	bridge   *shared.EventBridge
	parent   context.Context //nolint:containedctx // parent of every run started from the screen
	inputDir string

	state     string
	runCtx    context.Context //nolint:containedctx // handed to the next Start
	abort     context.CancelFunc
	starting  bool // Start issued, result not yet received
	presses   int  // stop requests during the current run
	quitAfter bool // quit once the current run has finished
	quitting  bool
	err       error

	runID      string
	workers    int
	discovered int64
	processed  int64
	failed     int
	skipped    int
	lastPath   string
	failures   []string
	started    time.Time
	now        time.Time
	result     *pipeline.Result

	progress progress.Model
	spinner  spinner.Model
	width    int
}

// startResultMsg carries the outcome of Runner.Start.
type startResultMsg struct {
	err error
}

// NewModel creates a model that starts runner as soon as it is initialised
// and receives the run's events through bridge.
func NewModel(ctx context.Context, runner Runner, bridge *shared.EventBridge, inputDir string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(shared.PrimaryColor())

	m := Model{
		runner:   runner,
		bridge:   bridge,
		parent:   ctx,
		inputDir: inputDir,
		state:    StateIdle,
		starting: true,
		progress: shared.NewProgressModel(shared.ProgressBarWidth),
		spinner:  s,
	}
	m.runCtx, m.abort = context.WithCancel(ctx)

	return m
}

// Init starts the first run and begins listening for pipeline events
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.bridge.ListenCmd(), m.spinner.Tick, shared.TickCmd(), startCmd(m.runner, m.runCtx))
}

// Result returns the result of the last finished run, or nil.
func (m Model) Result() *pipeline.Result {
	return m.result
}

// State returns the screen state.
func (m Model) State() string {
	return m.state
}

// Err returns the error of the last failed start, if any.
func (m Model) Err() error {
	return m.err
}

// startCmd starts a run. Cancelling ctx aborts it.
func startCmd(runner Runner, ctx context.Context) tea.Cmd { //nolint:revive // ctx is captured, not used for the call
	return func() tea.Msg {
		return startResultMsg{err: runner.Start(ctx)}
	}
}

// Run shows the model until the user quits and returns its final state.
func Run(model Model, opts ...tea.ProgramOption) (Model, error) {
	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return model, err //nolint:wrapcheck // bubbletea errors are reported as-is
	}

	finalModel, ok := final.(Model)
	if !ok {
		return model, nil
	}

	return finalModel, nil
}
