package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/theirongolddev/costcmp/internal/cli"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/pipeline"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var flagJSON bool

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare costs between two periods",
	RunE:  runCompare,
}

func init() {
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the report as JSON")
	compareCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, _ []string) error {
	env, err := newRunEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	progressf("  Loading %s comparison from %s...\n", env.req.Mode, sourceName(env.cfg.Source.Kind))
	report, err := pipeline.Run(cmd.Context(), env.fetcher, env.res, env.req)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report, pipeline.PeriodLabel(env.res, report.Mode, report.Periods.Period1),
		pipeline.PeriodLabel(env.res, report.Mode, report.Periods.Period2), env.cfg.General.Currency)
	return nil
}

func printReport(report model.Report, label1, label2, currency string) {
	c := report.Comparison

	title := fmt.Sprintf("COST COMPARISON  %s  %s", report.Mode, report.Calendar)
	if d := report.Filters.Describe(); d != "" {
		title += "  " + d
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Periods",
		Headers: []string{"Period", "Label", "Range", "Orders"},
		Rows: [][]string{
			{"Period 1", label1, cli.FormatRange(report.Periods.Period1), cli.FormatNumber(int64(c.Period1.TotalRecords))},
			{"Period 2", label2, cli.FormatRange(report.Periods.Period2), cli.FormatNumber(int64(c.Period2.TotalRecords))},
		},
	}))

	rows := make([][]string, 0, len(model.Metrics)+4)
	for _, m := range model.Metrics {
		variance := c.Variance.Get(m)
		noBaseline := c.NoBaseline.Get(m)
		rows = append(rows, []string{
			m.Label(),
			cli.FormatMoney(c.Period1.Metric(m), ""),
			cli.FormatMoney(c.Period2.Metric(m), ""),
			cli.RenderChange(cli.FormatDelta(variance, ""), variance),
			renderPercent(c.PercentChange.Get(m), noBaseline),
		})
	}
	rows = append(rows, cli.SeparatorRow)
	planned := c.Period2.TotalPlannedCost.Sub(c.Period1.TotalPlannedCost)
	rows = append(rows, []string{
		"Planned",
		cli.FormatMoney(c.Period1.TotalPlannedCost, ""),
		cli.FormatMoney(c.Period2.TotalPlannedCost, ""),
		cli.RenderChange(cli.FormatDelta(planned, ""), planned),
		"",
	})
	rows = append(rows, []string{
		"Over Plan",
		cli.FormatMoney(c.Period1.TotalCostVariance, ""),
		cli.FormatMoney(c.Period2.TotalCostVariance, ""),
		"",
		"",
	})

	tableTitle := "Costs"
	if currency != "" {
		tableTitle += " (" + currency + ")"
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   tableTitle,
		Headers: []string{"Metric", "Period 1", "Period 2", "Variance", "Change"},
		Rows:    rows,
	}))

	if c.NoBaseline.Get(model.MetricActualCost) {
		fmt.Println(cli.RenderMuted("  n/a: period 1 has no cost to compare against"))
		fmt.Println()
	}

	peak := decimal.Max(c.Period1.TotalActualCost, c.Period2.TotalActualCost)
	fmt.Println("  Actual Cost")
	fmt.Printf("%s  %s\n", cli.RenderHorizontalBar(fmt.Sprintf("%-10s", "Period 1"), c.Period1.TotalActualCost, peak, 30),
		cli.FormatMoney(c.Period1.TotalActualCost, currency))
	fmt.Printf("%s  %s\n", cli.RenderHorizontalBar(fmt.Sprintf("%-10s", "Period 2"), c.Period2.TotalActualCost, peak, 30),
		cli.FormatMoney(c.Period2.TotalActualCost, currency))
	fmt.Println()
}

func renderPercent(pct decimal.Decimal, noBaseline bool) string {
	s := cli.FormatChange(pct, noBaseline)
	if noBaseline {
		return cli.RenderMuted(s)
	}
	return cli.RenderChange(s, pct)
}

func sourceName(kind string) string {
	switch kind {
	case "", "store":
		return dbPath()
	}
	return kind
}
