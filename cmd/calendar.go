package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/costcmp/internal/cli"
	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"

	"github.com/spf13/cobra"
)

var flagFiscalYear int

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show the fiscal quarters of a fiscal year",
	RunE:  runCalendar,
}

func init() {
	calendarCmd.Flags().IntVar(&flagFiscalYear, "fy", 0, "Fiscal year (default: the current one)")
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res, err := cfg.Resolver()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	if flagNow != "" {
		if now, err = model.ParseInstant(flagNow, loc); err != nil {
			return err
		}
	}

	current := res.CurrentFiscalQuarter(now)
	fy := flagFiscalYear
	if fy == 0 {
		fy = current.FiscalYear
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FISCAL YEAR %d  %s", fy, res.Name())))
	fmt.Println()

	rows, err := quarterRows(res, fy, current)
	if err != nil {
		return err
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Quarter", "Start", "End", "Days", "Start (EC)", "End (EC)"},
		Rows:    rows,
	}))
	return nil
}

// quarterRows renders the four quarters of fy, marking current.
func quarterRows(res fiscal.Resolver, fy int, current fiscal.Quarter) ([][]string, error) {
	rows := make([][]string, 0, 4)
	for n := 1; n <= 4; n++ {
		q := fiscal.Quarter{FiscalYear: fy, Number: n}
		r, err := q.Range(res)
		if err != nil {
			return nil, err
		}
		name := q.String()
		if q == current {
			name += " *"
		}
		rows = append(rows, []string{
			name,
			r.Start.Format("Mon Jan 2 2006"),
			r.End.Format("Mon Jan 2 2006"),
			fmt.Sprintf("%d", r.Days()),
			fiscal.ToEthiopian(r.Start).String(),
			fiscal.ToEthiopian(r.End).String(),
		})
	}
	return rows, nil
}
