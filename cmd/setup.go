package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/costcmp/internal/config"
	"github.com/theirongolddev/costcmp/internal/store"
	"github.com/theirongolddev/costcmp/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	if st, err := store.Open(dbPath()); err == nil {
		if n, err := st.Count(cmd.Context()); err == nil && n > 0 {
			fmt.Printf("\n  Found %d work orders in %s\n", n, dbPath())
		}
		_ = st.Close()
	}

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}
	vals.Apply(&cfg)

	if cfg.Source.Kind == config.SourceAPI && config.GetAPIToken(cfg) == "" {
		var token string
		err := huh.NewInput().
			Title("Fleet API token").
			Description("Stored in the config file. COSTCMP_API_TOKEN overrides it.").
			EchoMode(huh.EchoModePassword).
			Value(&token).
			Run()
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		cfg.Source.APIToken = strings.TrimSpace(token)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	switch cfg.Source.Kind {
	case config.SourceStore:
		fmt.Println("  Load records with `costcmp import FILE...` or `costcmp sync`.")
	case config.SourcePostgres:
		fmt.Println("  Set COSTCMP_POSTGRES_DSN (or source.postgres_dsn) to connect.")
	}
	fmt.Println("  Run `costcmp setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
