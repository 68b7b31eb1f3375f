package output

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	errorColor   = lipgloss.Color("#FF6B6B")
	warningColor = lipgloss.Color("#FFA726")
	successColor = lipgloss.Color("#66BB6A")
	mutedColor   = lipgloss.Color("#6C757D")
	accentColor  = lipgloss.Color("#7C3AED")
)

// Styles are the lipgloss styles bound to one renderer.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Key      lipgloss.Style
	Bold     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Title:    r.NewStyle().Bold(true).Foreground(accentColor),
		Subtitle: r.NewStyle().Bold(true),
		Success:  r.NewStyle().Foreground(successColor).Bold(true),
		Warning:  r.NewStyle().Foreground(warningColor).Bold(true),
		Error:    r.NewStyle().Foreground(errorColor).Bold(true),
		Muted:    r.NewStyle().Foreground(mutedColor),
		Key:      r.NewStyle().Foreground(mutedColor),
		Bold:     r.NewStyle().Bold(true),
	}
}
