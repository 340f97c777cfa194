package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/costcmp/internal/cli"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagBy    string
	flagLimit int
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Compare both periods per garage, workshop or equipment category",
	RunE:  runBreakdown,
}

func init() {
	breakdownCmd.Flags().StringVar(&flagBy, "by", string(pipeline.ByGarage), "Group by: garage, workshop or category")
	breakdownCmd.Flags().IntVarP(&flagLimit, "limit", "l", 0, "Show only the top N groups (0 = all)")
	rootCmd.AddCommand(breakdownCmd)
}

func runBreakdown(cmd *cobra.Command, _ []string) error {
	dim, err := pipeline.ParseDimension(flagBy)
	if err != nil {
		return err
	}

	env, err := newRunEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	pair, err := pipeline.SelectPeriods(env.res, env.req.Mode, env.req.Now, env.req.Custom)
	if err != nil {
		return err
	}
	progressf("  Loading %s and %s...\n", cli.FormatRange(pair.Period1), cli.FormatRange(pair.Period2))
	p1, p2, err := pipeline.LoadPair(cmd.Context(), env.fetcher, pair)
	if err != nil {
		return err
	}

	rows := pipeline.CompareGroups(
		pipeline.Breakdown(p1, pair.Period1, env.req.Filters, dim),
		pipeline.Breakdown(p2, pair.Period2, env.req.Filters, dim),
	)
	if len(rows) == 0 {
		fmt.Println("\n  No work orders in either period.")
		return nil
	}
	total := pipeline.BuildReport(env.res, env.req, pair, p1, p2).Comparison

	title := fmt.Sprintf("BREAKDOWN BY %s  %s vs %s", strings.ToUpper(string(dim)),
		pipeline.PeriodLabel(env.res, env.req.Mode, pair.Period1),
		pipeline.PeriodLabel(env.res, env.req.Mode, pair.Period2))
	if d := env.req.Filters.Describe(); d != "" {
		title += "  " + d
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	shown := rows
	if flagLimit > 0 && len(shown) > flagLimit {
		shown = shown[:flagLimit]
	}

	tableRows := make([][]string, 0, len(shown)+2)
	for _, r := range shown {
		tableRows = append(tableRows, groupRow(r.Key, r.Comparison))
	}
	tableRows = append(tableRows, cli.SeparatorRow)
	tableRows = append(tableRows, groupRow("TOTAL", total))

	tableTitle := fmt.Sprintf("Actual Cost by %s (%d)", dim, len(rows))
	if len(shown) < len(rows) {
		tableTitle = fmt.Sprintf("Actual Cost by %s (top %d of %d)", dim, len(shown), len(rows))
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   tableTitle,
		Headers: []string{strings.ToUpper(string(dim[:1])) + string(dim[1:]), "Orders", "Period 1", "Period 2", "Variance", "Change"},
		Rows:    tableRows,
	}))
	return nil
}

func groupRow(key string, c model.PeriodComparison) []string {
	variance := c.Variance.TotalActualCost
	return []string{
		key,
		fmt.Sprintf("%d → %d", c.Period1.TotalRecords, c.Period2.TotalRecords),
		cli.FormatMoney(c.Period1.TotalActualCost, ""),
		cli.FormatMoney(c.Period2.TotalActualCost, ""),
		cli.RenderChange(cli.FormatDelta(variance, ""), variance),
		renderPercent(c.PercentChange.TotalActualCost, c.NoBaseline.TotalActualCost),
	}
}
