package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/source"
	"github.com/theirongolddev/costcmp/internal/store"
)

// Record origins written to the store.
const (
	OriginImport   = "import"
	OriginAPI      = "api"
	OriginPostgres = "postgres"
)

// maxSyncFetches bounds concurrent upstream requests during Sync.
const maxSyncFetches = 4

// ImportResult extends LoadResult with store bookkeeping.
type ImportResult struct {
	LoadResult
	Unchanged int
	Stored    int
}

// ImportFiles parses the export files under paths and stores their records.
// Files whose size and mtime match the last import are skipped unless force is set.
func ImportFiles(ctx context.Context, st *store.Store, paths []string, force bool, progressFn ProgressFunc) (*ImportResult, error) {
	files, err := source.Discover(paths)
	if err != nil {
		return nil, fmt.Errorf("discovering export files: %w", err)
	}

	tracked := map[string]store.FileInfo{}
	if !force {
		tracked, err = st.GetTrackedFiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading file tracker: %w", err)
		}
	}

	var (
		toParse []source.DiscoveredFile
		infos   = make(map[string]store.FileInfo)
		result  = &ImportResult{}
	)
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			toParse = append(toParse, f)
			continue
		}
		fi := store.FileInfo{MtimeNs: info.ModTime().UnixNano(), SizeBytes: info.Size()}
		infos[f.Path] = fi
		if prev, ok := tracked[f.Path]; ok && prev == fi {
			result.Unchanged++
			continue
		}
		toParse = append(toParse, f)
	}

	result.LoadResult = *LoadFiles(toParse, progressFn)
	result.TotalFiles = len(files)

	stored, err := st.Upsert(ctx, result.Records, OriginImport)
	if err != nil {
		return nil, fmt.Errorf("storing records: %w", err)
	}
	result.Stored = stored

	failed := make(map[string]bool, len(result.Failed))
	for _, p := range result.Failed {
		failed[p] = true
	}
	for _, f := range toParse {
		fi, ok := infos[f.Path]
		if !ok || failed[f.Path] {
			continue
		}
		if err := st.TrackFile(ctx, f.Path, fi); err != nil {
			return nil, fmt.Errorf("tracking %s: %w", f.Path, err)
		}
	}
	return result, nil
}

// Sink is where Sync writes pulled records.
type Sink interface {
	Upsert(ctx context.Context, records []model.CostRecord, origin string) (int, error)
	SetState(ctx context.Context, key, value string) error
}

// SyncResult reports what a Sync pulled.
type SyncResult struct {
	Window  model.DateRange
	Chunks  int
	Fetched int
	Stored  int
}

// SyncWindow returns the day range of the last days days ending on now.
func SyncWindow(now time.Time, days int) model.DateRange {
	if days < 1 {
		days = 1
	}
	return model.NewDayRange(now.AddDate(0, 0, -(days - 1)), now)
}

// Sync pulls window from upstream month by month and stores the records.
// The last successful sync time is saved under "last_sync:<origin>".
func Sync(ctx context.Context, upstream Fetcher, sink Sink, window model.DateRange, origin string, now time.Time) (*SyncResult, error) {
	chunks := monthChunks(window)
	batches := make([][]model.CostRecord, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSyncFetches)
	for i, c := range chunks {
		g.Go(func() error {
			recs, err := upstream.Fetch(gctx, c)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", c, err)
			}
			batches[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SyncResult{Window: window, Chunks: len(chunks)}
	var all []model.CostRecord
	for _, b := range batches {
		all = append(all, b...)
	}
	result.Fetched = len(all)

	stored, err := sink.Upsert(ctx, all, origin)
	if err != nil {
		return nil, fmt.Errorf("storing records: %w", err)
	}
	result.Stored = stored

	if err := sink.SetState(ctx, "last_sync:"+origin, now.UTC().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("saving sync state: %w", err)
	}
	return result, nil
}

// monthChunks splits r at calendar month boundaries.
func monthChunks(r model.DateRange) []model.DateRange {
	var out []model.DateRange
	start := r.Start
	for !start.After(r.End) {
		monthEnd := model.EndOfDay(time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, start.Location()))
		end := monthEnd
		if end.After(r.End) {
			end = r.End
		}
		out = append(out, model.DateRange{Start: start, End: end})
		start = model.StartOfDay(monthEnd.Add(time.Millisecond))
	}
	return out
}
