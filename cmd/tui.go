package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/costcmp/internal/tui"
	"github.com/theirongolddev/costcmp/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var flagTrendPeriods int

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&flagTrendPeriods, "periods", tui.DefaultTrendPeriods, "Periods on the Trend tab")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	env, err := newRunEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	theme.SetActive(env.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	req := env.req
	if flagNow == "" {
		// Unpinned: every refresh re-reads the clock.
		req.Now = time.Time{}
	}

	app := tui.NewApp(tui.Options{
		Config:       env.cfg,
		Fetcher:      env.fetcher,
		Resolver:     env.res,
		Request:      req,
		TrendPeriods: flagTrendPeriods,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
