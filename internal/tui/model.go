package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/newthinker/orderdesk/internal/core"
	"github.com/newthinker/orderdesk/internal/dashboard"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9FAFB"))
	badgeStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("#DC2626")).Foreground(lipgloss.Color("#FFFFFF"))
	statStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#374151", Dark: "#D1D5DB"})
	activeStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("#2563EB")).Foreground(lipgloss.Color("#FFFFFF"))
	inactiveStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#9CA3AF"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	alertStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F59E0B")).
			Padding(1, 2)
)

// errMsg reports a failed user action.
type errMsg struct{ err error }

// Model hosts a dashboard controller in the terminal. It redraws from view
// snapshots and turns key presses into controller calls.
type Model struct {
	ctx    context.Context
	ctrl   *dashboard.Controller
	bridge *Bridge
	keys   keyMap
	help   help.Model

	snap   dashboard.Snapshot
	cursor int
	alert  *alertMsg
	status string
	width  int
}

// New creates the model. ctx bounds every controller call it makes.
func New(ctx context.Context, ctrl *dashboard.Controller, bridge *Bridge) Model {
	return Model{
		ctx:    ctx,
		ctrl:   ctrl,
		bridge: bridge,
		keys:   newKeyMap(),
		help:   help.New(),
		snap:   ctrl.View().Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.bridge), waitForAlert(m.bridge))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case changeMsg:
		m.snap = m.ctrl.View().Snapshot()
		m.clampCursor()
		return m, waitForChange(m.bridge)

	case alertMsg:
		m.alert = &msg
		return m, waitForAlert(m.bridge)

	case errMsg:
		m.status = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.alert != nil {
		switch {
		case key.Matches(msg, m.keys.Ack):
			m.dismissAlert()
		case key.Matches(msg, m.keys.Quit):
			m.dismissAlert()
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.New):
		return m, m.setFilter(core.StatusNew)
	case key.Matches(msg, m.keys.Delivered):
		return m, m.setFilter(core.StatusDelivered)
	case key.Matches(msg, m.keys.Toggle):
		next := core.StatusDelivered
		if m.ctrl.State().Filter == core.StatusDelivered {
			next = core.StatusNew
		}
		return m, m.setFilter(next)
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Cards)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.MarkDone):
		return m, m.markSelected()
	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		ctx, ctrl := m.ctx, m.ctrl
		return m, func() tea.Msg {
			ctrl.PollCycle(ctx)
			return nil
		}
	}
	return m, nil
}

func (m *Model) dismissAlert() {
	close(m.alert.ack)
	m.alert = nil
}

func (m *Model) setFilter(f core.Status) tea.Cmd {
	m.status = ""
	m.cursor = 0
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		if err := ctrl.SetFilter(ctx, f); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

// markSelected clicks the selected card's mark-done control. Cards without
// one, eg delivered orders, ignore the key.
func (m *Model) markSelected() tea.Cmd {
	if m.cursor >= len(m.snap.Cards) {
		return nil
	}
	card := m.snap.Cards[m.cursor]
	if card.Action == nil {
		m.status = "order already delivered"
		return nil
	}
	m.status = ""
	ev := *card.Action
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		ctrl.Dispatch(ctx, ev)
		return nil
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.snap.Cards) {
		m.cursor = len(m.snap.Cards) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Orders") + " " + badgeStyle.Render(m.snap.Badge) + "\n")
	b.WriteString(statStyle.Render(fmt.Sprintf("New %s · Delivered %s", m.snap.NewCount, m.snap.DeliveredCount)) + "\n\n")

	var toggles []string
	for _, s := range core.Statuses {
		style := inactiveStyle
		if s == m.snap.ActiveToggle {
			style = activeStyle
		}
		toggles = append(toggles, style.Render(s.Label()))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, toggles...) + "\n\n")

	if len(m.snap.Cards) == 0 {
		b.WriteString(mutedStyle.Render("  No orders") + "\n")
	}
	for i, c := range m.snap.Cards {
		prefix := "  "
		line := c.Text
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
			line = cursorStyle.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status) + "\n")
	}

	if m.alert != nil {
		b.WriteString("\n" + alertStyle.Render(m.alert.text+"\n\n"+mutedStyle.Render("press enter to dismiss")) + "\n")
		return b.String()
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}
