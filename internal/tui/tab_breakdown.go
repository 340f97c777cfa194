package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/costcmp/internal/cli"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/pipeline"
	"github.com/theirongolddev/costcmp/internal/tui/components"
	"github.com/theirongolddev/costcmp/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// breakdownRow compares one garage across both periods.
type breakdownRow = pipeline.GroupComparison

func joinBreakdown(p1, p2 []model.GroupSummary) []breakdownRow {
	return pipeline.CompareGroups(p1, p2)
}

func (a App) renderBreakdownTab(cw int) string {
	t := theme.Active
	rows := a.data.Breakdown

	if len(rows) == 0 {
		return components.ContentCard("By Garage", lipgloss.NewStyle().
			Foreground(t.TextMuted).Background(t.Surface).
			Render("No work orders in either period."), cw)
	}

	innerW := components.CardInnerWidth(cw)
	const moneyW, changeW, ordersW = 12, 8, 9
	fixedCols := moneyW*3 + changeW + ordersW
	gaps := 5
	nameW := innerW - fixedCols - gaps
	if nameW < 10 {
		nameW = 10
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	p1Style := lipgloss.NewStyle().Foreground(t.Period1).Background(t.Surface)
	p2Style := lipgloss.NewStyle().Foreground(t.Period2).Background(t.Surface)

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s %*s %*s",
		nameW, "Garage",
		moneyW, "Period 1",
		moneyW, "Period 2",
		moneyW, "Variance",
		changeW, "Change",
		ordersW, "Orders")))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", nameW+fixedCols+gaps)))
	body.WriteString("\n")

	for _, r := range rows {
		body.WriteString(renderBreakdownLine(r.Key, r.Comparison, nameW, moneyW, changeW, ordersW, nameStyle, p1Style, p2Style))
		body.WriteString("\n")
	}

	body.WriteString(mutedStyle.Render(strings.Repeat("─", nameW+fixedCols+gaps)))
	body.WriteString("\n")
	// Groups partition the filtered records, so the report totals are the column sums.
	body.WriteString(renderBreakdownLine("Total", a.data.Report.Comparison, nameW, moneyW, changeW, ordersW, headerStyle, p1Style, p2Style))

	title := fmt.Sprintf("By Garage (%d)", len(rows))
	if d := a.opts.Request.Filters.Describe(); d != "" {
		title += "  " + d
	}
	return components.ContentCard(title, body.String(), cw)
}

func renderBreakdownLine(key string, c model.PeriodComparison, nameW, moneyW, changeW, ordersW int, nameStyle, p1Style, p2Style lipgloss.Style) string {
	t := theme.Active
	pct := c.PercentChange.TotalActualCost
	noBaseline := c.NoBaseline.TotalActualCost

	changeColor := components.ColorForChange(pct)
	if noBaseline {
		changeColor = t.Accent
	}
	changeStyle := lipgloss.NewStyle().Foreground(changeColor).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	orders := fmt.Sprintf("%d→%d", c.Period1.TotalRecords, c.Period2.TotalRecords)

	return nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(key, nameW))) + space +
		p1Style.Render(fmt.Sprintf("%*s", moneyW, cli.FormatCompact(c.Period1.TotalActualCost))) + space +
		p2Style.Render(fmt.Sprintf("%*s", moneyW, cli.FormatCompact(c.Period2.TotalActualCost))) + space +
		changeStyle.Render(fmt.Sprintf("%*s", moneyW, cli.FormatCompact(c.Variance.TotalActualCost))) + space +
		changeStyle.Render(fmt.Sprintf("%*s", changeW, cli.FormatChange(pct, noBaseline))) + space +
		p2Style.Render(fmt.Sprintf("%*s", ordersW, orders))
}
