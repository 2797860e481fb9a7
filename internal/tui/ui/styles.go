package ui

import (
	"github.com/charmbracelet/lipgloss"
	tint "github.com/lrstanley/bubbletint"
)

// Styles contains all the styles used by the dashboard
type Styles struct {
	App    lipgloss.Style
	Header lipgloss.Style
	Period lipgloss.Style

	Label lipgloss.Style
	Value lipgloss.Style
	Muted lipgloss.Style

	// Bar frames the deviation bar; its fill takes the status color.
	Bar lipgloss.Style

	StatusBar lipgloss.Style

	Error   lipgloss.Style
	Warning lipgloss.Style
}

// NewStylesFromRegistry maps the current bubbletint theme onto the
// dashboard: purple for the header, bright black for labels and muted
// text, yellow for stale warnings and red for errors.
func NewStylesFromRegistry(r *tint.Registry) Styles {
	primary := r.Purple()
	secondary := r.Cyan()
	muted := r.BrightBlack()
	warning := r.Yellow()
	errorColor := r.Red()
	fg := r.Fg()

	return Styles{
		App: lipgloss.NewStyle().Padding(1, 2),
		Header: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),
		Period: lipgloss.NewStyle().
			Foreground(secondary),

		Label: lipgloss.NewStyle().
			Foreground(muted).
			Width(11),
		Value: lipgloss.NewStyle().
			Foreground(fg).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(muted),

		Bar: lipgloss.NewStyle().
			MarginTop(1).
			MarginBottom(1),

		StatusBar: lipgloss.NewStyle().
			MarginTop(1).
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(muted),

		Error: lipgloss.NewStyle().
			Foreground(errorColor),
		Warning: lipgloss.NewStyle().
			Foreground(warning),
	}
}

// StatusStyle renders text in a classification color such as "#FF9500".
func StatusStyle(color string) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	if color != "" {
		s = s.Foreground(lipgloss.Color(color))
	}
	return s
}
