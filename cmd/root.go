// Package cmd implements the costcmp CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/costcmp/internal/config"
	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/fleetapi"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/pgsource"
	"github.com/theirongolddev/costcmp/internal/pipeline"
	"github.com/theirongolddev/costcmp/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagMode     string
	flagNow      string
	flagP1       string
	flagP2       string
	flagGarage   string
	flagWorkshop string
	flagCategory string
	flagCostType string
	flagCalendar string
	flagSource   string
	flagDB       string
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "costcmp",
	Short: "Fiscal period cost comparator",
	Long: "Compare maintenance costs of completed work orders between two periods:\n" +
		"consecutive months, fiscal quarters, fiscal years or custom date ranges.",
	RunE:         runCompare,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	// A missing .env is normal; real environment variables still apply.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagMode, "mode", "m", "", "Comparison mode: month, quarter, year or custom (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagNow, "now", "", "Pin the current instant (RFC3339 or YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&flagP1, "p1", "", "Custom period 1 (YYYY-MM-DD..YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&flagP2, "p2", "", "Custom period 2 (YYYY-MM-DD..YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&flagGarage, "garage", "", "Filter to a garage id (\"all\" clears the config filter)")
	rootCmd.PersistentFlags().StringVar(&flagWorkshop, "workshop", "", "Filter to a workshop id")
	rootCmd.PersistentFlags().StringVar(&flagCategory, "category", "", "Filter to an equipment category id")
	rootCmd.PersistentFlags().StringVarP(&flagCostType, "cost-type", "t", "", "Cost type: all, labor, lubricants or outsource")
	rootCmd.PersistentFlags().StringVar(&flagCalendar, "calendar", "", "Fiscal calendar: gregorian or ethiopian")
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "", "Record source: store, api or postgres")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Record database path (default "+store.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// runEnv is the resolved configuration shared by the report commands.
type runEnv struct {
	cfg     config.Config
	res     fiscal.Resolver
	req     pipeline.Request
	fetcher pipeline.Fetcher
	close   func()
}

func (e *runEnv) Close() {
	if e.close != nil {
		e.close()
	}
}

// loadConfig reads the config file and applies the --calendar and --source overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagCalendar != "" {
		cfg.General.Calendar = strings.ToLower(strings.TrimSpace(flagCalendar))
	}
	if flagSource != "" {
		cfg.Source.Kind = strings.ToLower(strings.TrimSpace(flagSource))
	}
	return cfg, nil
}

// newRunEnv is the shared setup path used by the report commands.
func newRunEnv(ctx context.Context) (*runEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	res, err := cfg.Resolver()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	req, err := buildRequest(cfg, loc, time.Now())
	if err != nil {
		return nil, err
	}
	fetcher, closeFn, err := openFetcher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &runEnv{cfg: cfg, res: res, req: req, fetcher: fetcher, close: closeFn}, nil
}

// buildRequest merges the configured defaults with the command-line flags.
func buildRequest(cfg config.Config, loc *time.Location, wallNow time.Time) (pipeline.Request, error) {
	var req pipeline.Request

	modeName := flagMode
	if modeName == "" && (flagP1 != "" || flagP2 != "") {
		modeName = string(model.ModeCustom)
	}
	if modeName == "" {
		modeName = cfg.General.DefaultMode
	}
	mode, err := model.ParseMode(modeName)
	if err != nil {
		return req, err
	}
	req.Mode = mode

	req.Now = wallNow.In(loc)
	if flagNow != "" {
		if req.Now, err = model.ParseInstant(flagNow, loc); err != nil {
			return req, err
		}
	}

	if mode == model.ModeCustom {
		if flagP1 == "" || flagP2 == "" {
			return req, errors.New("custom mode needs both --p1 and --p2")
		}
		p1, err := model.ParseDayRange(flagP1, loc)
		if err != nil {
			return req, fmt.Errorf("--p1: %w", err)
		}
		p2, err := model.ParseDayRange(flagP2, loc)
		if err != nil {
			return req, fmt.Errorf("--p2: %w", err)
		}
		req.Custom = &model.PeriodPair{Period1: p1, Period2: p2}
	} else if flagP1 != "" || flagP2 != "" {
		return req, fmt.Errorf("--p1/--p2 need --mode custom, not %s", mode)
	}

	f, err := cfg.DefaultFilters()
	if err != nil {
		return req, err
	}
	if flagGarage != "" {
		f.GarageID = flagGarage
	}
	if flagWorkshop != "" {
		f.WorkshopID = flagWorkshop
	}
	if flagCategory != "" {
		f.EquipmentCategoryID = flagCategory
	}
	if flagCostType != "" {
		if f.CostType, err = model.ParseCostType(flagCostType); err != nil {
			return req, err
		}
	}
	req.Filters = f
	return req, nil
}

func dbPath() string {
	if flagDB != "" {
		return flagDB
	}
	return store.DefaultPath()
}

// openFetcher returns the record source named by the config.
func openFetcher(ctx context.Context, cfg config.Config) (pipeline.Fetcher, func(), error) {
	switch cfg.Source.Kind {
	case "", config.SourceStore:
		st, err := store.Open(dbPath())
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case config.SourceAPI:
		client, err := openAPIClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	case config.SourcePostgres:
		src, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown record source %q (want store, api or postgres)", cfg.Source.Kind)
}

func openAPIClient(cfg config.Config) (*fleetapi.Client, error) {
	if cfg.Source.APIURL == "" {
		return nil, errors.New("api source needs source.api_url in the config")
	}
	client := fleetapi.NewClient(cfg.Source.APIURL, config.GetAPIToken(cfg))
	if client == nil {
		return nil, fmt.Errorf("source.api_url %q must be an absolute http(s) URL", cfg.Source.APIURL)
	}
	return client, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*pgsource.Source, error) {
	dsn := config.GetPostgresDSN(cfg)
	if dsn == "" {
		return nil, errors.New("postgres source needs COSTCMP_POSTGRES_DSN or source.postgres_dsn")
	}
	return pgsource.Open(ctx, dsn)
}

func progressf(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
