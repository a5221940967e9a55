package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/cashmind/internal/chat"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the chat TUI over session and blocks until the user quits
// or ctx is cancelled.
func Run(ctx context.Context, session *chat.Session, opts ...Option) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	program := tea.NewProgram(
		newModel(ctx, session, cfg),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
