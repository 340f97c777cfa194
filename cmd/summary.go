package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/costcmp/internal/cli"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagFrom string
	flagTo   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Cost summary for the current period or a date range",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&flagFrom, "from", "", "First day (YYYY-MM-DD)")
	summaryCmd.Flags().StringVar(&flagTo, "to", "", "Last day (YYYY-MM-DD)")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	env, err := newRunEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	r, label, err := summaryRange(env.req, env)
	if err != nil {
		return err
	}

	progressf("  Loading %s...\n", cli.FormatRange(r))
	records, err := env.fetcher.Fetch(cmd.Context(), r)
	if err != nil {
		return err
	}
	s := pipeline.Aggregate(records, r, env.req.Filters)

	title := "COST SUMMARY  " + label
	if d := env.req.Filters.Describe(); d != "" {
		title += "  " + d
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	cur := env.cfg.General.Currency
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   cli.FormatRange(r),
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Work Orders", cli.FormatNumber(int64(s.TotalRecords))},
			cli.SeparatorRow,
			{"Planned", cli.FormatMoney(s.TotalPlannedCost, cur)},
			{"Actual", cli.FormatMoney(s.TotalActualCost, cur)},
			{"Over Plan", cli.RenderChange(cli.FormatDelta(s.TotalCostVariance, cur), s.TotalCostVariance)},
			cli.SeparatorRow,
			{"Labor", cli.FormatMoney(s.TotalLaborCost, cur)},
			{"Lubricants", cli.FormatMoney(s.TotalLubricantCost, cur)},
			{"Outsource", cli.FormatMoney(s.TotalOutsourceCost, cur)},
			cli.SeparatorRow,
			{"Avg / Order", cli.FormatMoney(s.AvgCostPerOrder, cur)},
		},
	}))
	return nil
}

// summaryRange is --from/--to when given, else period 2 of the request.
func summaryRange(req pipeline.Request, env *runEnv) (model.DateRange, string, error) {
	if flagFrom != "" || flagTo != "" {
		if flagFrom == "" || flagTo == "" {
			return model.DateRange{}, "", errors.New("--from and --to go together")
		}
		loc := req.Now.Location()
		from, err := time.ParseInLocation("2006-01-02", flagFrom, loc)
		if err != nil {
			return model.DateRange{}, "", fmt.Errorf("--from: %w", err)
		}
		to, err := time.ParseInLocation("2006-01-02", flagTo, loc)
		if err != nil {
			return model.DateRange{}, "", fmt.Errorf("--to: %w", err)
		}
		r := model.NewDayRange(from, to)
		return r, cli.FormatRange(r), nil
	}

	pair, err := pipeline.SelectPeriods(env.res, req.Mode, req.Now, req.Custom)
	if err != nil {
		return model.DateRange{}, "", err
	}
	return pair.Period2, pipeline.PeriodLabel(env.res, req.Mode, pair.Period2), nil
}
