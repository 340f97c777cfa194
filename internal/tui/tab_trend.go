package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/costcmp/internal/cli"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/tui/components"
	"github.com/theirongolddev/costcmp/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// trendSeries returns actual costs oldest first. trend is newest first.
func trendSeries(trend []model.PeriodSummary) []components.ChartPoint {
	n := len(trend)
	points := make([]components.ChartPoint, n)
	for i, p := range trend {
		points[n-1-i] = components.ChartPoint{Label: p.Label, Value: p.Summary.TotalActualCost}
	}
	return points
}

func (a App) renderTrendTab(cw int) string {
	t := theme.Active
	trend := a.data.Trend
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if a.data.Report.Mode == model.ModeCustom {
		return components.ContentCard("Trend", mutedStyle.Render("Trends need a month, quarter or year mode."), cw)
	}
	if len(trend) == 0 {
		return components.ContentCard("Trend", mutedStyle.Render("No periods to show."), cw)
	}

	var b strings.Builder

	chartH := 10
	if a.isCompactLayout() {
		chartH = 7
	}
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Actual Cost, last %d periods", len(trend)),
		components.PeriodChart(trendSeries(trend), components.CardInnerWidth(cw), chartH),
		cw,
	))
	b.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	const labelW, ordersW, moneyW = 14, 8, 12
	var table strings.Builder
	table.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s %*s %*s",
		labelW, "Period", ordersW, "Orders", moneyW, "Planned", moneyW, "Actual", moneyW, "Variance", moneyW, "Avg/Order")))
	table.WriteString("\n")
	table.WriteString(mutedStyle.Render(strings.Repeat("─", labelW+ordersW+moneyW*4+5)))

	for _, p := range trend {
		s := p.Summary
		varianceColor := t.TextPrimary
		switch {
		case s.TotalCostVariance.IsPositive():
			varianceColor = t.Increase
		case s.TotalCostVariance.IsNegative():
			varianceColor = t.Decrease
		}
		varianceStyle := lipgloss.NewStyle().Foreground(varianceColor).Background(t.Surface)

		table.WriteString("\n")
		table.WriteString(rowStyle.Render(fmt.Sprintf("%-*s", labelW, truncStr(p.Label, labelW))) + space)
		table.WriteString(rowStyle.Render(fmt.Sprintf("%*s", ordersW, cli.FormatNumber(int64(s.TotalRecords)))) + space)
		table.WriteString(mutedStyle.Render(fmt.Sprintf("%*s", moneyW, cli.FormatCompact(s.TotalPlannedCost))) + space)
		table.WriteString(rowStyle.Render(fmt.Sprintf("%*s", moneyW, cli.FormatCompact(s.TotalActualCost))) + space)
		table.WriteString(varianceStyle.Render(fmt.Sprintf("%*s", moneyW, cli.FormatCompact(s.TotalCostVariance))) + space)
		table.WriteString(rowStyle.Render(fmt.Sprintf("%*s", moneyW, cli.FormatCompact(s.AvgCostPerOrder))))
	}

	avg := make([]decimal.Decimal, len(trend))
	for i, p := range trend {
		avg[len(trend)-1-i] = p.Summary.AvgCostPerOrder
	}
	table.WriteString("\n\n")
	table.WriteString(mutedStyle.Render("Avg / order  "))
	table.WriteString(components.Sparkline(avg, t.Highlight))

	b.WriteString(components.ContentCard("Periods", table.String(), cw))
	return b.String()
}
