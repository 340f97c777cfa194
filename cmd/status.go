package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/theirongolddev/costcmp/internal/cli"
	"github.com/theirongolddev/costcmp/internal/daemon"
	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/pipeline"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon's latest comparison",
	RunE:  runDaemonStatus,
}

func init() {
	statusCmd.Flags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPIDFile(), "PID file path")
	statusCmd.Flags().StringVar(&flagDaemonAddr, "addr", "", "Daemon address (default from the pid state or daemon.addr)")
	rootCmd.AddCommand(statusCmd)
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pid, err := readPID(flagDaemonPIDFile)
	if err != nil && flagDaemonAddr == "" {
		fmt.Printf("  Daemon: not running (pid file not found)\n")
		return nil
	}
	if err == nil && !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := daemonAddr(cfg)
	if st, err := readState(statePath(flagDaemonPIDFile)); err == nil && st.Addr != "" && flagDaemonAddr == "" {
		addr = st.Addr
	}

	if pid > 0 {
		fmt.Printf("  Daemon PID: %d\n", pid)
	}
	fmt.Printf("  Address: http://%s\n", addr)

	st, err := fetchDaemonStatus(cmd.Context(), addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	rows := [][]string{
		{"Started", st.StartedAt.Local().Format(time.RFC3339)},
		{"Last poll", formatPoll(st.LastPollAt)},
		{"Poll interval", (time.Duration(st.PollIntervalSec) * time.Second).String()},
		{"Poll count", cli.FormatNumber(st.PollCount)},
		{"Mode", string(st.Mode)},
		{"Calendar", st.Calendar},
		{"Filters", orDefault(st.Filters.Describe(), "none")},
	}
	if st.LastSync != nil {
		rows = append(rows, []string{"Last sync", fmt.Sprintf("%s  %s, %s fetched",
			st.LastSync.At.Local().Format(time.RFC3339), st.LastSync.Window, cli.FormatNumber(int64(st.LastSync.Fetched)))})
	} else if st.Upstream {
		rows = append(rows, []string{"Last sync", "pending"})
	}
	rows = append(rows,
		[]string{"Events", cli.FormatNumber(int64(st.EventCount))},
		[]string{"Subscribers", cli.FormatNumber(int64(st.SubscriberCount))},
	)
	if st.LastError != "" {
		rows = append(rows, []string{"Last error", st.LastError})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Daemon",
		Headers: []string{"", "Value"},
		Rows:    rows,
	}))

	if st.Snapshot == nil {
		fmt.Println("  No comparison yet.")
		return nil
	}

	report := model.Report{
		Mode:        st.Mode,
		Calendar:    st.Calendar,
		Filters:     st.Filters,
		Periods:     st.Snapshot.Periods,
		Comparison:  st.Snapshot.Comparison,
		GeneratedAt: st.Snapshot.At,
	}
	label1, label2 := cli.FormatRange(report.Periods.Period1), cli.FormatRange(report.Periods.Period2)
	if loc, err := cfg.Location(); err == nil {
		if res, err := fiscal.New(st.Calendar, time.Month(cfg.General.FiscalStartMonth), loc); err == nil {
			label1 = pipeline.PeriodLabel(res, st.Mode, report.Periods.Period1)
			label2 = pipeline.PeriodLabel(res, st.Mode, report.Periods.Period2)
		}
	}
	printReport(report, label1, label2, cfg.General.Currency)
	return nil
}

func fetchDaemonStatus(ctx context.Context, addr string) (*daemon.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("malformed response (%w)", err)
	}
	return &st, nil
}

func formatPoll(t time.Time) string {
	if t.IsZero() {
		return "pending"
	}
	return t.Local().Format(time.RFC3339)
}
