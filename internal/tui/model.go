package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kdimtricp/vidagent/internal/display"
)

var (
	helperStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const defaultWidth = 80

type snapshotMsg display.Snapshot

// watchClosedMsg arrives when the watcher stops without a terminal snapshot,
// which only happens when its context ends.
type watchClosedMsg struct{}

type model struct {
	sessionID string
	updates   <-chan display.Snapshot
	spinner   spinner.Model

	snapshot *display.Snapshot
	closed   bool
	width    int
}

// New builds the session view. updates is normally the channel returned by
// display.Watcher.Watch.
func New(sessionID string, updates <-chan display.Snapshot) tea.Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &model{
		sessionID: sessionID,
		updates:   updates,
		spinner:   spin,
		width:     defaultWidth,
	}
}

func waitForSnapshot(updates <-chan display.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return watchClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.updates))
}

func (m *model) done() bool {
	return m.closed || (m.snapshot != nil && m.snapshot.Done())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case snapshotMsg:
		snap := display.Snapshot(msg)
		m.snapshot = &snap
		if snap.Done() {
			return m, nil
		}
		return m, waitForSnapshot(m.updates)
	case watchClosedMsg:
		m.closed = true
		return m, nil
	case spinner.TickMsg:
		if m.done() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) View() string {
	if m.snapshot == nil {
		if m.closed {
			return errorStyle.Render("Stopped before the first poll.") + "\n"
		}
		return fmt.Sprintf("%s Waiting for session %s…\n", m.spinner.View(), m.sessionID)
	}

	body := display.RenderText(*m.snapshot, m.width)
	if m.done() {
		return body + "\n" + helperStyle.Render("Press q to quit.") + "\n"
	}
	return fmt.Sprintf("%s Analysing…\n%s", m.spinner.View(), body)
}
