package cmd

import (
	"fmt"

	"github.com/theirongolddev/costcmp/internal/cli"
	"github.com/theirongolddev/costcmp/internal/pipeline"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var flagPeriods int

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Costs over the last N months, quarters or years",
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().IntVar(&flagPeriods, "periods", 6, "Number of periods to show")
	rootCmd.AddCommand(trendCmd)
}

func runTrend(cmd *cobra.Command, _ []string) error {
	env, err := newRunEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	ranges, err := pipeline.TrendRanges(env.res, env.req.Mode, env.req.Now, flagPeriods)
	if err != nil {
		return err
	}
	span := pipeline.Span(ranges...)
	progressf("  Loading %s...\n", cli.FormatRange(span))
	records, err := env.fetcher.Fetch(cmd.Context(), span)
	if err != nil {
		return err
	}
	trend, err := pipeline.Trend(env.res, env.req.Mode, env.req.Now, flagPeriods, records, env.req.Filters)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("COST TREND  last %d %s periods", len(trend), env.req.Mode)
	if d := env.req.Filters.Describe(); d != "" {
		title += "  " + d
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	rows := make([][]string, 0, len(trend))
	actual := make([]decimal.Decimal, len(trend))
	for i, p := range trend {
		s := p.Summary
		change := ""
		if i+1 < len(trend) {
			cmp := pipeline.Compare(trend[i+1].Summary, s)
			change = renderPercent(cmp.PercentChange.TotalActualCost, cmp.NoBaseline.TotalActualCost)
		}
		rows = append(rows, []string{
			p.Label,
			cli.FormatNumber(int64(s.TotalRecords)),
			cli.FormatMoney(s.TotalPlannedCost, ""),
			cli.FormatMoney(s.TotalActualCost, ""),
			cli.FormatMoney(s.AvgCostPerOrder, ""),
			change,
		})
		actual[len(trend)-1-i] = s.TotalActualCost
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Periods, newest first",
		Headers: []string{"Period", "Orders", "Planned", "Actual", "Avg / Order", "vs Prev"},
		Rows:    rows,
	}))
	fmt.Printf("  Actual cost, oldest to newest  %s\n\n", cli.RenderSparkline(actual))
	return nil
}
