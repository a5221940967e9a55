package tui

import (
	"context"
	"strings"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight = 2
	statusHeight = 1
	inputHeight  = 3
)

// Model holds the chat TUI state.
type Model struct {
	ctx      context.Context
	session  *chat.Session
	readFile func(string) ([]byte, error)
	theme    themes.Theme
	keymap   KeyMap
	help     help.Model
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	state    chat.State
	status   string
	config   Config
	width    int
	height   int
	busy     bool
	failed   bool
	quitting bool
}

func newModel(ctx context.Context, session *chat.Session, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Escribí un mensaje o /recibo <ruta>..."
	input.CharLimit = 500
	input.Prompt = "› "
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	h := help.New()
	h.ShowAll = false

	m := Model{
		ctx:      ctx,
		session:  session,
		readFile: cfg.ReadFile,
		theme:    cfg.Theme,
		keymap:   DefaultKeyMap(),
		help:     h,
		input:    input,
		spinner:  s,
		state:    session.State(),
		config:   cfg,
		viewport: viewport.New(cfg.Width, 1),
	}
	m.resize(cfg.Width, cfg.Height)
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateMsg:
		m.busy = false
		m.apply(msg.state, msg.err)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize(m.width, m.height)
		return m, nil

	case key.Matches(msg, m.keymap.PageUp, m.keymap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keymap.Reset):
		m.busy = false
		m.apply(m.session.Reset(), nil)
		m.input.Reset()
		return m, nil
	}

	if m.busy {
		return m, nil
	}

	if i, ok := m.keymap.flowIndex(msg); ok {
		state, err := m.session.StartFlow(chat.FlowTypes[i])
		m.apply(state, err)
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Cancel):
		state, err := m.session.Cancel()
		m.apply(state, err)
		return m, nil

	case key.Matches(msg, m.keymap.Confirm):
		return m.start(confirmAction(m.ctx, m.session))

	case key.Matches(msg, m.keymap.Send):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input line as a message or a receipt command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()

	if path, ok := receiptPath(text); ok {
		if path == "" {
			m.setStatus("Indicá la ruta del comprobante: /recibo <ruta>", true)
			return m, nil
		}
		return m.start(analyzeReceipt(m.ctx, m.session, m.readFile, path))
	}
	return m.start(sendMessage(m.ctx, m.session, text))
}

// start marks the model busy and runs cmd alongside the spinner.
func (m Model) start(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	m.setStatus("", false)
	return m, tea.Batch(cmd, m.spinner.Tick)
}

// apply adopts a session state and reports err in the status bar.
func (m *Model) apply(state chat.State, err error) {
	if err != nil {
		m.setStatus(describeError(err), true)
	} else {
		m.setStatus("", false)
	}
	if state.Messages == nil {
		return
	}
	m.state = state
	m.refresh()
}

func (m *Model) setStatus(text string, failed bool) {
	m.status = text
	m.failed = failed
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	helpHeight := 0
	if m.config.ShowHelp {
		helpHeight = lipgloss.Height(m.help.View(m.keymap))
	}
	body := max(height-headerHeight-statusHeight-inputHeight-helpHeight, 1)

	m.viewport.Width = width
	m.viewport.Height = body
	m.input.Width = max(width-6, 10)
	m.help.Width = width
	m.refresh()
}

// refresh re-renders the transcript and scrolls to the newest message.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
