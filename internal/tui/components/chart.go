package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/costcmp/internal/cli"
	"github.com/theirongolddev/costcmp/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	sparkBlocks  = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	columnBlocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
)

// ChartPoint is one period's amount on a PeriodChart.
type ChartPoint struct {
	Label string
	Value decimal.Decimal
}

// Sparkline renders amounts as a one-line unicode sparkline.
// Negative amounts sit on the baseline.
func Sparkline(values []decimal.Decimal, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	peak := decimal.Zero
	for _, v := range values {
		peak = decimal.Max(peak, v)
	}

	top := decimal.NewFromInt(int64(len(sparkBlocks) - 1))
	var buf strings.Builder
	for _, v := range values {
		idx := 0
		if peak.IsPositive() && v.IsPositive() {
			idx = int(v.Div(peak).Mul(top).Round(0).IntPart())
		}
		buf.WriteRune(sparkBlocks[min(idx, len(sparkBlocks)-1)])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// PeriodChart draws one column per period, oldest on the left. The last two
// columns are the compared pair and take the Period1 and Period2 colors.
// When the periods do not fit, the oldest are dropped. Charts too small for
// columns fall back to a sparkline.
func PeriodChart(points []ChartPoint, width, height int) string {
	if len(points) == 0 {
		return ""
	}
	t := theme.Active
	if width < 15 || height < 3 {
		values := make([]decimal.Decimal, len(points))
		for i, p := range points {
			values[i] = p.Value
		}
		return Sparkline(values, t.Period2)
	}

	peak := decimal.Zero
	for _, p := range points {
		peak = decimal.Max(peak, p.Value)
	}
	ceiling := axisCeiling(peak)

	topLabel := cli.FormatCompact(ceiling)
	midLabel := cli.FormatCompact(ceiling.Div(decimal.NewFromInt(2)))
	axisW := max(len(topLabel), len(midLabel)) + 1

	plotW := width - axisW - 1
	colW := 4
	if fit := (plotW + 1) / (colW + 1); fit < len(points) {
		colW = 2
		fit = (plotW + 1) / (colW + 1)
		if fit < len(points) {
			points = points[len(points)-max(fit, 1):]
		}
	}
	n := len(points)

	// Heights in eighths of a row.
	eighths := make([]int64, n)
	scale := decimal.NewFromInt(int64(height * 8))
	for i, p := range points {
		if p.Value.IsPositive() {
			eighths[i] = p.Value.Div(ceiling).Mul(scale).Round(0).IntPart()
		}
	}

	styles := make([]lipgloss.Style, n)
	for i := range styles {
		c := t.History
		switch i {
		case n - 1:
			c = t.Period2
		case n - 2:
			c = t.Period1
		}
		styles[i] = lipgloss.NewStyle().Foreground(c).Background(t.Surface)
	}
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		label := ""
		switch row {
		case height:
			label = topLabel
		case (height + 1) / 2:
			label = midLabel
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", axisW, label)))

		for i, e := range eighths {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			fill := e - int64(row-1)*8
			switch {
			case fill >= 8:
				b.WriteString(styles[i].Render(strings.Repeat("█", colW)))
			case fill > 0:
				b.WriteString(styles[i].Render(strings.Repeat(string(columnBlocks[fill]), colW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", colW)))
			}
		}
		b.WriteString("\n")
	}

	axisLen := n*colW + n - 1
	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└%s", axisW, "0", strings.Repeat("─", axisLen))))
	b.WriteString("\n")
	b.WriteString(blank.Render(strings.Repeat(" ", axisW+1)))
	b.WriteString(axisStyle.Render(spanLabels(points[0].Label, points[n-1].Label, axisLen)))
	return b.String()
}

// spanLabels puts first at the left edge and last at the right edge of a
// line width wide. A lone label or a line too narrow for both keeps last.
func spanLabels(first, last string, width int) string {
	if first == last || len(first)+len(last)+1 > width {
		return truncate(last, width)
	}
	return first + strings.Repeat(" ", width-len(first)-len(last)) + last
}

// axisCeiling rounds peak up to 1, 2 or 5 times a power of ten.
func axisCeiling(peak decimal.Decimal) decimal.Decimal {
	if !peak.IsPositive() {
		return decimal.NewFromInt(1)
	}
	exp := int32(math.Floor(math.Log10(peak.InexactFloat64())))
	base := decimal.New(1, exp)
	for _, m := range []int64{1, 2, 5, 10} {
		if c := base.Mul(decimal.NewFromInt(m)); c.GreaterThanOrEqual(peak) {
			return c
		}
	}
	return base.Mul(decimal.NewFromInt(10))
}
