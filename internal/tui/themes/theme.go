package themes

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the chat TUI.
type Theme struct {
	Title          lipgloss.Style
	Subtitle       lipgloss.Style
	UserLabel      lipgloss.Style
	UserText       lipgloss.Style
	AssistantLabel lipgloss.Style
	AssistantText  lipgloss.Style
	ImageRef       lipgloss.Style
	Pending        lipgloss.Style
	StatusBar      lipgloss.Style
	StatusError    lipgloss.Style
	StatusInfo     lipgloss.Style
	Input          lipgloss.Style
	Help           lipgloss.Style
	Primary        lipgloss.Color
	Secondary      lipgloss.Color
	Muted          lipgloss.Color
	Border         lipgloss.Color
	Foreground     lipgloss.Color
	Error          lipgloss.Color
	Warning        lipgloss.Color
	Success        lipgloss.Color
}

func build(t Theme) Theme {
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	t.Subtitle = lipgloss.NewStyle().Foreground(t.Muted)
	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)
	t.UserText = lipgloss.NewStyle().Foreground(t.Foreground)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	t.AssistantText = lipgloss.NewStyle().Foreground(t.Foreground)
	t.ImageRef = lipgloss.NewStyle().Italic(true).Foreground(t.Muted)
	t.Pending = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Warning).
		Padding(0, 1)
	t.StatusBar = lipgloss.NewStyle().Foreground(t.Muted)
	t.StatusError = lipgloss.NewStyle().Bold(true).Foreground(t.Error)
	t.StatusInfo = lipgloss.NewStyle().Foreground(t.Success)
	t.Input = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)
	t.Help = lipgloss.NewStyle().Foreground(t.Muted)
	return t
}

// Default is the default theme.
var Default = build(Theme{
	Primary:    lipgloss.Color("#2EC4B6"),
	Secondary:  lipgloss.Color("#a78bfa"),
	Success:    lipgloss.Color("#10b981"),
	Warning:    lipgloss.Color("#f59e0b"),
	Error:      lipgloss.Color("#ef4444"),
	Foreground: lipgloss.Color("#fafafa"),
	Border:     lipgloss.Color("#404040"),
	Muted:      lipgloss.Color("#737373"),
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(Theme{
	Primary:    lipgloss.Color("#cba6f7"),
	Secondary:  lipgloss.Color("#f5c2e7"),
	Success:    lipgloss.Color("#a6e3a1"),
	Warning:    lipgloss.Color("#f9e2af"),
	Error:      lipgloss.Color("#f38ba8"),
	Foreground: lipgloss.Color("#cdd6f4"),
	Border:     lipgloss.Color("#45475a"),
	Muted:      lipgloss.Color("#6c7086"),
})

// ByName looks a theme up by its configuration name.
func ByName(name string) (Theme, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return Default, true
	case "catppuccin", "catppuccin-mocha":
		return CatppuccinMocha, true
	}
	return Theme{}, false
}
