package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles of the browser.
type Styles struct {
	Title       lipgloss.Style
	Tab         lipgloss.Style
	ActiveTab   lipgloss.Style
	Card        lipgloss.Style
	Selected    lipgloss.Style
	Badge       lipgloss.Style
	Excerpt     lipgloss.Style
	Muted       lipgloss.Style
	Error       lipgloss.Style
	Status      lipgloss.Style
	ModalBorder lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	accent := lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	muted := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginBottom(1),
		Tab: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(muted),
		ActiveTab: lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Underline(true).
			Foreground(accent),
		Card: lipgloss.NewStyle().
			PaddingLeft(2),
		Selected: lipgloss.NewStyle().
			PaddingLeft(1).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(accent).
			Bold(true),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(accent).
			Padding(0, 1),
		Excerpt: lipgloss.NewStyle().
			Foreground(muted),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F87")),
		Status: lipgloss.NewStyle().
			Italic(true).
			Foreground(accent),
		ModalBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
	}
}
