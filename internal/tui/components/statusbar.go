package components

import (
	"strings"

	"github.com/theirongolddev/costcmp/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// context in the middle and data age on the right.
func RenderStatusBar(width int, context, dataAge string, refreshing bool) string {
	t := theme.Active

	barStyle := lipgloss.NewStyle().Background(t.Surface)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	contextStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	ageStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	left := hintStyle.Render(" [?]help  [r]efresh  [q]uit")
	if context != "" {
		left += hintStyle.Render("  │  ") + contextStyle.Render(context)
	}

	right := ""
	switch {
	case refreshing:
		right = contextStyle.Render("refreshing… ")
	case dataAge != "":
		right = ageStyle.Render("updated " + dataAge + " ")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return left + barStyle.Render(strings.Repeat(" ", padding)) + right
}
