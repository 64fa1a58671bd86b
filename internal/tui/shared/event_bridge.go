package shared

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/batch-files/internal/pipeline"
)

// EventBufferSize is how many pipeline events the bridge holds for the TUI.
const EventBufferSize = 256

// PipelineEventMsg wraps a pipeline.Event for use as a tea.Msg.
type PipelineEventMsg struct {
	Event pipeline.Event
}

// EventBridge adapts pipeline events to bubble tea messages.
// It implements pipeline.EventEmitter and provides a channel for TUI consumption.
//
// Progress events are dropped when the buffer is full; the next one carries
// a newer total. Lifecycle events (RunStarted, DiscoverySkipped, Finished)
// and failed ItemProcessed events wait for room, so a slow screen can never
// miss a failure or the end of a run. After
// Close every Emit returns at once.
type EventBridge struct {
	eventChan chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
}

// NewEventBridge creates a new event bridge.
func NewEventBridge() *EventBridge {
	return &EventBridge{
		eventChan: make(chan tea.Msg, EventBufferSize),
		done:      make(chan struct{}),
	}
}

// Emit implements pipeline.EventEmitter. It is safe for concurrent use.
func (b *EventBridge) Emit(event pipeline.Event) {
	msg := PipelineEventMsg{Event: event}

	if droppable(event) {
		select {
		case b.eventChan <- msg:
		case <-b.done:
		default:
		}

		return
	}

	select {
	case b.eventChan <- msg:
	case <-b.done:
	}
}

// Subscribe returns the event channel for receiving events.
func (b *EventBridge) Subscribe() <-chan tea.Msg {
	return b.eventChan
}

// ListenCmd returns a tea.Cmd that blocks until an event is received.
// Use this in Init() or after processing an event to continue listening.
// It yields nil once the bridge is closed.
func (b *EventBridge) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.eventChan:
			return msg
		case <-b.done:
			return nil
		}
	}
}

// Close stops delivery. Calling it again has no effect.
func (b *EventBridge) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
}

func droppable(event pipeline.Event) bool {
	switch e := event.(type) {
	case pipeline.QueueSizeChanged:
		return true
	case pipeline.ItemProcessed:
		return e.Outcome.Err == nil
	default:
		return false
	}
}
