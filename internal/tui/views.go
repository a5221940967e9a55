package tui

import (
	"strings"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/charmbracelet/lipgloss"
)

var phaseLabels = map[chat.Phase]string{
	chat.PhaseIdle:       "Listo",
	chat.PhaseCollecting: "Completando datos",
	chat.PhaseConfirming: "Esperando confirmación",
}

var flowLabels = map[chat.FlowType]string{
	chat.FlowCreateExpense:  "Nuevo gasto",
	chat.FlowCreateIncome:   "Nuevo ingreso",
	chat.FlowCreateBudget:   "Nuevo presupuesto",
	chat.FlowContributeGoal: "Aporte a meta",
	chat.FlowAnalyzeReceipt: "Análisis de comprobante",
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.viewport.View(),
		m.renderStatus(),
		m.theme.Input.Width(max(m.width-2, 10)).Render(m.input.View()),
	}
	if m.config.ShowHelp {
		sections = append(sections, m.theme.Help.Render(m.help.View(m.keymap)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("💰 CashMind")
	subtitle := phaseLabels[m.state.Phase()]
	if m.state.CurrentFlow != nil {
		subtitle = flowLabels[*m.state.CurrentFlow] + " · " + subtitle
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.theme.Subtitle.Render(subtitle))
}

func (m Model) renderStatus() string {
	switch {
	case m.busy:
		return m.spinner.View() + m.theme.StatusBar.Render(" Pensando...")
	case m.status != "" && m.failed:
		return m.theme.StatusError.Render("✗ " + m.status)
	case m.status != "":
		return m.theme.StatusInfo.Render(m.status)
	case m.state.Phase() == chat.PhaseConfirming:
		return m.theme.StatusBar.Render("Respondé \"sí\" o \"no\" (ctrl+y confirma, ctrl+x cancela)")
	default:
		return ""
	}
}

// renderTranscript lays out every message for the viewport.
func (m Model) renderTranscript() string {
	width := max(m.width-2, 20)
	last := len(m.state.Messages) - 1

	blocks := make([]string, 0, len(m.state.Messages))
	for i, msg := range m.state.Messages {
		blocks = append(blocks, m.renderMessage(msg, width, i == last))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg chat.Message, width int, last bool) string {
	label := m.theme.AssistantLabel.Render("CashMind")
	text := m.theme.AssistantText
	if msg.Role == chat.RoleUser {
		label = m.theme.UserLabel.Render("Vos")
		text = m.theme.UserText
	}

	body := text.Width(width).Render(msg.Content)
	if msg.ImageURL != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, m.theme.ImageRef.Render("📎 "+msg.ImageURL))
	}

	confirming := last && msg.Metadata != nil && msg.Metadata.ConfirmationRequired &&
		m.state.Phase() == chat.PhaseConfirming
	if confirming {
		body = m.theme.Pending.Width(max(width-4, 10)).Render(msg.Content)
	}

	return lipgloss.JoinVertical(lipgloss.Left, label, body)
}
