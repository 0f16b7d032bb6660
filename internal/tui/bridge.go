// Package tui is the terminal front end of the admin dashboard.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// changeMsg tells the model the dashboard view was written to.
type changeMsg struct{}

// alertMsg carries a blocking alert. Closing ack releases the caller.
type alertMsg struct {
	text string
	ack  chan struct{}
}

// Bridge carries controller callbacks into the bubbletea program.
type Bridge struct {
	changes chan struct{}
	alerts  chan alertMsg
}

// NewBridge creates a bridge. Wire Notify as the controller's OnChange and
// the bridge itself as its Alerter.
func NewBridge() *Bridge {
	return &Bridge{
		changes: make(chan struct{}, 1),
		alerts:  make(chan alertMsg),
	}
}

// Notify flags a pending redraw. It never blocks; redraws coalesce.
func (b *Bridge) Notify() {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

// Alert shows message and waits until the user acknowledges it or ctx ends.
func (b *Bridge) Alert(ctx context.Context, message string) {
	msg := alertMsg{text: message, ack: make(chan struct{})}
	select {
	case b.alerts <- msg:
	case <-ctx.Done():
		return
	}
	select {
	case <-msg.ack:
	case <-ctx.Done():
	}
}

func waitForChange(b *Bridge) tea.Cmd {
	return func() tea.Msg {
		<-b.changes
		return changeMsg{}
	}
}

func waitForAlert(b *Bridge) tea.Cmd {
	return func() tea.Msg {
		return <-b.alerts
	}
}
