package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/costcmp/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// ProgressBar renders a loading bar with percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	var barColor lipgloss.Color
	switch {
	case pct >= 0.8:
		barColor = t.AccentBright
	case pct >= 0.5:
		barColor = t.Accent
	default:
		barColor = t.Highlight
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))

	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// ColorForChange returns the color for a signed percent change in cost:
// increases shade from orange to red, decreases are green.
func ColorForChange(pct decimal.Decimal) lipgloss.Color {
	t := theme.Active
	switch {
	case pct.GreaterThanOrEqual(decimal.NewFromInt(25)):
		return t.Increase
	case pct.IsPositive():
		return t.Warning
	case pct.IsNegative():
		return t.Decrease
	default:
		return t.TextMuted
	}
}

// BarPair is one row of a period-against-period bar comparison.
type BarPair struct {
	Label  string
	P1, P2 decimal.Decimal
	P1Text string
	P2Text string
}

// PairedBars renders two bars per row, period 1 above period 2, both scaled
// to the largest value across rows.
func PairedBars(rows []BarPair, labelW, barWidth int) string {
	if len(rows) == 0 {
		return ""
	}
	t := theme.Active

	peak := decimal.Zero
	for _, r := range rows {
		peak = decimal.Max(peak, r.P1, r.P2)
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	p1Style := lipgloss.NewStyle().Foreground(t.Period1).Background(t.Surface)
	p2Style := lipgloss.NewStyle().Foreground(t.Period2).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	p1Bar := newBar(t.Period1, t.TextDim, barWidth)
	p2Bar := newBar(t.Period2, t.TextDim, barWidth)

	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(r.Label, labelW))))
		b.WriteString(spaceStyle.Render(" "))
		b.WriteString(p1Bar.ViewAs(fraction(r.P1, peak)))
		b.WriteString(spaceStyle.Render(" "))
		b.WriteString(p1Style.Render(r.P1Text))
		b.WriteString("\n")
		b.WriteString(spaceStyle.Render(strings.Repeat(" ", labelW+1)))
		b.WriteString(p2Bar.ViewAs(fraction(r.P2, peak)))
		b.WriteString(spaceStyle.Render(" "))
		b.WriteString(p2Style.Render(r.P2Text))
	}
	return b.String()
}

func newBar(fill, empty lipgloss.Color, width int) progress.Model {
	bar := progress.New(
		progress.WithSolidFill(string(fill)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(empty)
	return bar
}

func fraction(v, peak decimal.Decimal) float64 {
	if !peak.IsPositive() || !v.IsPositive() {
		return 0
	}
	f := v.Div(peak).InexactFloat64()
	if f > 1 {
		return 1
	}
	return f
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 {
		return ""
	}
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
