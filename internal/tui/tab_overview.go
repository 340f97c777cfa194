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

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	rep := a.data.Report
	cmp := rep.Comparison
	var b strings.Builder

	// Row 1: period headers
	halves := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		a.periodCard("Period 1", rep.Periods.Period1, cmp.Period1, t.Period1, halves[0]),
		a.periodCard("Period 2", rep.Periods.Period2, cmp.Period2, t.Period2, halves[1]),
	}))
	b.WriteString("\n")

	// Row 2: one card per compared metric
	cards := a.metricCards()
	if a.isCompactLayout() {
		b.WriteString(components.MetricCardRow(cards[:3], cw))
		b.WriteString("\n")
		b.WriteString(components.MetricCardRow(cards[3:], cw))
	} else {
		b.WriteString(components.MetricCardRow(cards, cw))
	}
	b.WriteString("\n")

	// Row 3: side-by-side bars
	labelW := 12
	barW := components.CardInnerWidth(cw) - labelW - 20
	if barW < 10 {
		barW = 10
	}
	rows := make([]components.BarPair, 0, len(model.Metrics))
	for _, m := range model.Metrics {
		p1, p2 := cmp.Period1.Metric(m), cmp.Period2.Metric(m)
		rows = append(rows, components.BarPair{
			Label:  m.Label(),
			P1:     p1,
			P2:     p2,
			P1Text: cli.FormatCompact(p1),
			P2Text: cli.FormatCompact(p2),
		})
	}
	b.WriteString(components.ContentCard("Period 1 vs Period 2", components.PairedBars(rows, labelW, barW), cw))

	return b.String()
}

func (a App) metricCards() []components.Metric {
	t := theme.Active
	cmp := a.data.Report.Comparison
	compact := a.isCompactLayout()

	cards := make([]components.Metric, 0, len(model.Metrics))
	for _, m := range model.Metrics {
		p1, p2 := cmp.Period1.Metric(m), cmp.Period2.Metric(m)
		pct := cmp.PercentChange.Get(m)
		noBaseline := cmp.NoBaseline.Get(m)

		value := cli.FormatMoney(p2, a.currency())
		was := "was " + cli.FormatMoney(p1, "")
		if compact {
			value = cli.FormatCompact(p2)
			was = "was " + cli.FormatCompact(p1)
		}

		color := components.ColorForChange(pct)
		if noBaseline {
			color = t.Accent
		}

		cards = append(cards, components.Metric{
			Label:      m.Label(),
			Value:      value,
			Delta:      fmt.Sprintf("%s  %s", cli.FormatChange(pct, noBaseline), cli.FormatCompact(cmp.Variance.Get(m))),
			DeltaColor: color,
			Sub:        was,
		})
	}
	return cards
}

func (a App) periodCard(title string, r model.DateRange, s model.CostSummary, accent lipgloss.Color, outerW int) string {
	t := theme.Active

	nameStyle := lipgloss.NewStyle().Foreground(accent).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	varianceColor := t.TextPrimary
	switch {
	case s.TotalCostVariance.IsPositive():
		varianceColor = t.Increase
	case s.TotalCostVariance.IsNegative():
		varianceColor = t.Decrease
	}
	varianceStyle := lipgloss.NewStyle().Foreground(varianceColor).Background(t.Surface)

	cur := a.currency()
	var body strings.Builder
	body.WriteString(nameStyle.Render(pipeline.PeriodLabel(a.opts.Resolver, a.data.Report.Mode, r)))
	body.WriteString(labelStyle.Render("  " + cli.FormatRange(r)))
	body.WriteString("\n")
	body.WriteString(labelStyle.Render("Orders:   ") + valueStyle.Render(cli.FormatNumber(int64(s.TotalRecords))) + "\n")
	body.WriteString(labelStyle.Render("Planned:  ") + valueStyle.Render(cli.FormatMoney(s.TotalPlannedCost, cur)) + "\n")
	body.WriteString(labelStyle.Render("Actual:   ") + valueStyle.Render(cli.FormatMoney(s.TotalActualCost, cur)) + "\n")
	body.WriteString(labelStyle.Render("Variance: ") + varianceStyle.Render(cli.FormatDelta(s.TotalCostVariance, cur)))

	return components.ContentCard(title, body.String(), outerW)
}
