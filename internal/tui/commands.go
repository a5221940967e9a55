package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/config"
	tea "github.com/charmbracelet/bubbletea"
)

const receiptCommand = "/recibo"

// sendMessage forwards a line of user text to the session.
func sendMessage(ctx context.Context, session *chat.Session, text string) tea.Cmd {
	return func() tea.Msg {
		state, err := session.SendMessage(ctx, text)
		return stateMsg{state: state, err: err}
	}
}

// confirmAction commits the pending action.
func confirmAction(ctx context.Context, session *chat.Session) tea.Cmd {
	return func() tea.Msg {
		state, err := session.Confirm(ctx)
		return stateMsg{state: state, err: err}
	}
}

// analyzeReceipt loads a receipt from disk and hands it to the session.
func analyzeReceipt(ctx context.Context, session *chat.Session, read func(string) ([]byte, error), path string) tea.Cmd {
	return func() tea.Msg {
		path = config.ExpandPath(path)
		data, err := read(path)
		if err != nil {
			return stateMsg{err: fmt.Errorf("no pude leer %s: %w", path, err)}
		}
		state, err := session.AnalyzeReceipt(ctx, chat.Upload{
			Name: filepath.Base(path),
			URL:  path,
			Data: data,
		})
		return stateMsg{state: state, err: err}
	}
}

// receiptPath reports whether text is a receipt command and returns its argument.
func receiptPath(text string) (string, bool) {
	rest, ok := strings.CutPrefix(text, receiptCommand)
	if !ok || (rest != "" && rest[0] != ' ') {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// describeError turns session errors into a status line.
func describeError(err error) string {
	switch {
	case errors.Is(err, common.ErrBusy):
		return "Esperá a que termine la operación en curso."
	case errors.Is(err, common.ErrNoPendingAction):
		return "No hay ninguna operación en curso."
	default:
		return err.Error()
	}
}
