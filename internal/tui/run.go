package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kdimtricp/vidagent/internal/display"
)

// Run watches sessionID until the user quits. The watcher stops with the
// program.
func Run(ctx context.Context, watcher *display.Watcher, sessionID string, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(New(sessionID, watcher.Watch(ctx, sessionID)), opts...)
	_, err := program.Run()
	return err
}
