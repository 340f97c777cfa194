package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/costcmp/internal/cli"
	"github.com/theirongolddev/costcmp/internal/config"
	"github.com/theirongolddev/costcmp/internal/pipeline"
	"github.com/theirongolddev/costcmp/internal/store"

	"github.com/spf13/cobra"
)

var flagSyncDays int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull completed work orders from the API or Postgres into the local store",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().IntVar(&flagSyncDays, "days", 0, "Days to pull, ending today (default source.sync_days)")
	rootCmd.AddCommand(syncCmd)
}

// errNoUpstream means neither the API nor Postgres is configured.
var errNoUpstream = errors.New("no upstream configured: set source.api_url or COSTCMP_POSTGRES_DSN")

// openUpstream picks the remote source to sync from. An explicit api or
// postgres source wins; with the store as source, the API is tried first.
func openUpstream(ctx context.Context, cfg config.Config) (pipeline.Fetcher, string, func(), error) {
	kind := cfg.Source.Kind
	if kind == "" || kind == config.SourceStore {
		switch {
		case cfg.Source.APIURL != "":
			kind = config.SourceAPI
		case config.GetPostgresDSN(cfg) != "":
			kind = config.SourcePostgres
		default:
			return nil, "", nil, errNoUpstream
		}
	}

	switch kind {
	case config.SourceAPI:
		client, err := openAPIClient(cfg)
		if err != nil {
			return nil, "", nil, err
		}
		return client, pipeline.OriginAPI, func() {}, nil
	case config.SourcePostgres:
		src, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, "", nil, err
		}
		return src, pipeline.OriginPostgres, src.Close, nil
	}
	return nil, "", nil, fmt.Errorf("unknown record source %q (want store, api or postgres)", kind)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	upstream, origin, closeFn, err := openUpstream(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	st, err := store.Open(dbPath())
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	days := flagSyncDays
	if days <= 0 {
		days = cfg.Source.SyncDays
	}
	now := time.Now().In(loc)
	window := pipeline.SyncWindow(now, days)

	progressf("  Syncing %s from %s...\n", cli.FormatRange(window), origin)
	start := time.Now()
	res, err := pipeline.Sync(cmd.Context(), upstream, st, window, origin, now)
	if err != nil {
		return err
	}

	count, err := st.Count(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Sync from %s", origin),
		Headers: []string{"", "Value"},
		Rows: [][]string{
			{"Window", cli.FormatRange(res.Window)},
			{"Requests", cli.FormatNumber(int64(res.Chunks))},
			{"Fetched", cli.FormatNumber(int64(res.Fetched))},
			{"Stored", cli.FormatNumber(int64(res.Stored))},
			cli.SeparatorRow,
			{"Records in store", cli.FormatNumber(int64(count))},
			{"Took", time.Since(start).Round(time.Millisecond).String()},
		},
	}))
	return nil
}
