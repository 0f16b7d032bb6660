package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	New       key.Binding
	Delivered key.Binding
	Toggle    key.Binding
	Up        key.Binding
	Down      key.Binding
	MarkDone  key.Binding
	Refresh   key.Binding
	Ack       key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Delivered: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delivered")),
		Toggle:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch filter")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		MarkDone:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "mark done")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Ack:       key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "dismiss")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.MarkDone, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.Delivered, k.Toggle},
		{k.Up, k.Down, k.MarkDone},
		{k.Refresh, k.Quit},
	}
}
