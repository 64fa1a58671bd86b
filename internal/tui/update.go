package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/batch-files/internal/pipeline"
	"github.com/joe/batch-files/internal/tui/shared"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-4*shared.DefaultPadding, shared.ProgressBarWidth/2), shared.MaxProgressBarWidth)

		return m, nil
	case startResultMsg:
		return m.handleStartResult(msg)
	case shared.PipelineEventMsg:
		return m.handleEvent(msg.Event)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	case shared.TickMsg:
		m.now = time.Time(msg)
		return m, shared.TickCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case shared.KeyCtrlC, shared.KeyQuit, "esc":
		if m.active() {
			m.quitAfter = true
			return m.requestStop(), nil
		}

		m.quitting = true

		return m, tea.Quit
	case shared.KeyStop:
		if m.active() {
			return m.requestStop(), nil
		}
	case shared.KeyRestart, "enter":
		if !m.starting && (m.state == StateDone || (m.state == StateIdle && m.err != nil)) {
			m.err = nil
			m.starting = true
			m.presses = 0
			m.runCtx, m.abort = context.WithCancel(m.parent)

			return m, startCmd(m.runner, m.runCtx)
		}
	}

	return m, nil
}

// requestStop asks the run to stop after its in-flight files; asked again it
// cancels the run's context, interrupting them.
func (m Model) requestStop() Model {
	m.presses++

	if m.presses == 1 {
		m.runner.Stop()
	} else if m.abort != nil {
		m.abort()
	}

	m.state = StateStopping

	return m
}

func (m Model) handleStartResult(msg startResultMsg) (tea.Model, tea.Cmd) {
	m.starting = false

	if msg.err == nil {
		// A stop asked for before the run existed reaches it now
		if m.presses > 0 {
			m.runner.Stop()
		}

		return m, nil
	}

	m.err = msg.err
	if m.state == StateStopping {
		m.state = StateIdle
	}

	if m.abort != nil {
		m.abort()
	}

	if m.quitAfter {
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleEvent(event pipeline.Event) (tea.Model, tea.Cmd) {
	listen := m.bridge.ListenCmd()

	switch e := event.(type) {
	case pipeline.RunStarted:
		m.state = StateRunning
		if m.presses > 0 {
			m.state = StateStopping
		}

		m.runID = e.RunID
		m.workers = e.Workers
		m.discovered, m.processed = 0, 0
		m.failed, m.skipped = 0, 0
		m.failures = nil
		m.lastPath = ""
		m.result = nil
		m.started = time.Now()
		m.now = m.started
	case pipeline.QueueSizeChanged:
		m.discovered = max(m.discovered, e.Total)
	case pipeline.DiscoverySkipped:
		m.skipped++
		m.failures = m.appendFailure(fmt.Sprintf("skipped %s: %v", shared.RelativePath(m.inputDir, e.Path), e.Err))
	case pipeline.ItemProcessed:
		m.processed = max(m.processed, e.Total)
		m.lastPath = e.Outcome.Path

		if e.Outcome.Err != nil {
			m.failed++
			m.failures = m.appendFailure(fmt.Sprintf("%s: %v", shared.RelativePath(m.inputDir, e.Outcome.Path), e.Outcome.Err))
		}
	case pipeline.Finished:
		m.state = StateDone
		m.result = e.Result
		m.now = time.Now()

		if e.Result != nil {
			m.discovered = e.Result.Discovered
			m.processed = e.Result.Processed
			m.failed = len(e.Result.Failed)
			m.skipped = len(e.Result.Skipped)
		}

		if m.abort != nil {
			m.abort()
		}

		if m.quitAfter {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, listen
}

// active reports whether a run is in progress, or about to be, from the
// screen's point of view.
func (m Model) active() bool {
	return m.starting || m.state == StateRunning || m.state == StateStopping
}

func (m Model) appendFailure(line string) []string {
	failures := append(m.failures, line)
	if len(failures) > shared.RecentFailures {
		failures = failures[len(failures)-shared.RecentFailures:]
	}

	return failures
}
