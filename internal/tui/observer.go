package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// StateObserver adapts a store subscription to Bubble Tea. Snapshots are
// coalesced: a slow reader skips intermediate states but always sees
// the latest one.
type StateObserver[S any] struct {
	mu     sync.Mutex
	latest S
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
	wrap   func(S) tea.Msg
}

// NewStateObserver creates an observer that turns snapshots into messages with wrap.
func NewStateObserver[S any](wrap func(S) tea.Msg) *StateObserver[S] {
	return &StateObserver[S]{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		wrap:   wrap,
	}
}

// OnState records s and wakes the waiting command (non-blocking).
func (o *StateObserver[S]) OnState(s S) {
	o.mu.Lock()
	o.latest = s
	o.mu.Unlock()

	select {
	case o.signal <- struct{}{}:
	default: // a wake-up is already pending
	}
}

// Wait returns a command that blocks until the next snapshot.
// It must be re-issued after every delivered message.
func (o *StateObserver[S]) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-o.signal:
		case <-o.done:
			return nil
		}
		o.mu.Lock()
		s := o.latest
		o.mu.Unlock()
		return o.wrap(s)
	}
}

// Close releases any waiting command.
func (o *StateObserver[S]) Close() {
	o.once.Do(func() { close(o.done) })
}
