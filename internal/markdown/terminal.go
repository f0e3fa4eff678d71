package markdown

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Terminal styles accepted by RenderTerminal.
const (
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
	// StyleAuto picks dark or light from the terminal background, and
	// notty when stdout is not a terminal.
	StyleAuto = "auto"
)

// DefaultWrap is the terminal word wrap width.
const DefaultWrap = 80

// NewTermRenderer returns a glamour renderer for style and width. Widths
// below 20 fall back to DefaultWrap.
func NewTermRenderer(style string, width int) (*glamour.TermRenderer, error) {
	if style == "" {
		style = StyleDark
	}
	if width < 20 {
		width = DefaultWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("create terminal renderer: %w", err)
	}
	return r, nil
}

// RenderTerminal renders src for a terminal.
func RenderTerminal(src, style string, width int) (string, error) {
	r, err := NewTermRenderer(style, width)
	if err != nil {
		return "", err
	}
	out, err := r.Render(src)
	if err != nil {
		return "", fmt.Errorf("render for terminal: %w", err)
	}
	return out, nil
}
