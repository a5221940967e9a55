package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Conversation
	Send    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Reset   key.Binding

	// Quick actions
	Expense key.Binding
	Income  key.Binding
	Budget  key.Binding
	Goal    key.Binding
	Receipt key.Binding

	// Scrolling
	PageUp   key.Binding
	PageDown key.Binding

	// Application
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "enviar"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "confirmar"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "cancelar"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "nueva conversación"),
		),

		Expense: key.NewBinding(
			key.WithKeys("alt+1"),
			key.WithHelp("alt+1", "gasto"),
		),
		Income: key.NewBinding(
			key.WithKeys("alt+2"),
			key.WithHelp("alt+2", "ingreso"),
		),
		Budget: key.NewBinding(
			key.WithKeys("alt+3"),
			key.WithHelp("alt+3", "presupuesto"),
		),
		Goal: key.NewBinding(
			key.WithKeys("alt+4"),
			key.WithHelp("alt+4", "aportar a meta"),
		),
		Receipt: key.NewBinding(
			key.WithKeys("alt+5"),
			key.WithHelp("alt+5", "comprobante"),
		),

		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "subir"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "bajar"),
		),

		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "ayuda"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "salir"),
		),
	}
}

// ShortHelp returns the bindings shown in the compact footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Confirm, k.Cancel, k.Help, k.Quit}
}

// FullHelp returns every binding grouped by column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Confirm, k.Cancel, k.Reset},
		{k.Expense, k.Income, k.Budget, k.Goal, k.Receipt},
		{k.PageUp, k.PageDown, k.Help, k.Quit},
	}
}

// flowIndex maps a quick-action key to its position in chat.FlowTypes.
func (k KeyMap) flowIndex(msg tea.KeyMsg) (int, bool) {
	for i, b := range []key.Binding{k.Expense, k.Income, k.Budget, k.Goal, k.Receipt} {
		if key.Matches(msg, b) {
			return i, true
		}
	}
	return 0, false
}
