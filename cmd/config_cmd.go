package cmd

import (
	"fmt"

	"github.com/theirongolddev/costcmp/internal/config"
	"github.com/theirongolddev/costcmp/internal/model"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Calendar:           %s\n", cfg.General.Calendar)
	fmt.Printf("    Fiscal start month: %d\n", cfg.General.FiscalStartMonth)
	fmt.Printf("    Timezone:           %s\n", orDefault(cfg.General.Timezone, "local"))
	fmt.Printf("    Default mode:       %s\n", cfg.General.DefaultMode)
	fmt.Printf("    Currency:           %s\n", orDefault(cfg.General.Currency, "none"))
	fmt.Println()

	fmt.Println("  [Source]")
	fmt.Printf("    Kind:      %s\n", orDefault(cfg.Source.Kind, config.SourceStore))
	fmt.Printf("    Store:     %s\n", dbPath())
	fmt.Printf("    API URL:   %s\n", orDefault(cfg.Source.APIURL, "not configured"))
	if tok := config.GetAPIToken(cfg); tok != "" {
		fmt.Printf("    API token: %s\n", maskSecret(tok))
	} else {
		fmt.Println("    API token: not configured")
	}
	if dsn := config.GetPostgresDSN(cfg); dsn != "" {
		fmt.Printf("    Postgres:  %s\n", maskSecret(dsn))
	} else {
		fmt.Println("    Postgres:  not configured")
	}
	fmt.Printf("    Sync days: %d\n", cfg.Source.SyncDays)
	fmt.Println()

	fmt.Println("  [Filters]")
	fmt.Printf("    Garage:    %s\n", orDefault(cfg.Filters.Garage, model.FilterAll))
	fmt.Printf("    Workshop:  %s\n", orDefault(cfg.Filters.Workshop, model.FilterAll))
	fmt.Printf("    Category:  %s\n", orDefault(cfg.Filters.Category, model.FilterAll))
	fmt.Printf("    Cost type: %s\n", orDefault(cfg.Filters.CostType, string(model.CostTypeAll)))
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.PollInterval())
	if u := config.GetAMQPURL(cfg); u != "" {
		fmt.Printf("    AMQP:     %s (exchange %s, key %s)\n", maskSecret(u), cfg.Daemon.AMQPExchange, cfg.Daemon.AMQPRoutingKey)
	} else {
		fmt.Println("    AMQP:     not configured")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `costcmp setup` to reconfigure.")
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// maskSecret keeps the first and last four characters of s.
func maskSecret(s string) string {
	if len(s) <= 12 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
