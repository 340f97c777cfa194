package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/source"
)

// Fetcher returns the records completed within a range. The store, the
// REST client and the Postgres source all satisfy it.
type Fetcher interface {
	Fetch(ctx context.Context, r model.DateRange) ([]model.CostRecord, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, r model.DateRange) ([]model.CostRecord, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, r model.DateRange) ([]model.CostRecord, error) {
	return f(ctx, r)
}

// LoadPair fetches both periods' records concurrently.
func LoadPair(ctx context.Context, f Fetcher, pair model.PeriodPair) (p1, p2 []model.CostRecord, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := f.Fetch(gctx, pair.Period1)
		if err != nil {
			return fmt.Errorf("fetching period 1 (%s): %w", pair.Period1, err)
		}
		p1 = recs
		return nil
	})
	g.Go(func() error {
		recs, err := f.Fetch(gctx, pair.Period2)
		if err != nil {
			return fmt.Errorf("fetching period 2 (%s): %w", pair.Period2, err)
		}
		p2 = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return p1, p2, nil
}

// Request describes one comparison run.
type Request struct {
	Mode    model.Mode
	Now     time.Time
	Custom  *model.PeriodPair
	Filters model.Filters
}

// Run selects the periods for req, loads them through f and compares them.
// The same filters are applied to each period independently.
func Run(ctx context.Context, f Fetcher, res fiscal.Resolver, req Request) (model.Report, error) {
	pair, err := SelectPeriods(res, req.Mode, req.Now, req.Custom)
	if err != nil {
		return model.Report{}, err
	}
	p1, p2, err := LoadPair(ctx, f, pair)
	if err != nil {
		return model.Report{}, err
	}
	return BuildReport(res, req, pair, p1, p2), nil
}

// BuildReport aggregates already loaded period records into a Report.
func BuildReport(res fiscal.Resolver, req Request, pair model.PeriodPair, p1, p2 []model.CostRecord) model.Report {
	s1 := Aggregate(p1, pair.Period1, req.Filters)
	s2 := Aggregate(p2, pair.Period2, req.Filters)
	return model.Report{
		Mode:        req.Mode,
		Calendar:    res.Name(),
		Filters:     req.Filters,
		Periods:     pair,
		Comparison:  Compare(s1, s2),
		GeneratedAt: req.Now,
	}
}

// LoadResult holds the output of parsing a batch of export files.
type LoadResult struct {
	Records     []model.CostRecord
	TotalFiles  int
	ParsedFiles int
	FileErrors  int
	Skipped     int
	Duplicates  int
	Errors      []error
	// Failed lists the paths of files that could not be read or parsed.
	Failed []string
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// LoadFiles parses export files with a bounded worker pool. Records keep the
// order of files, then the order within each file.
func LoadFiles(files []source.DiscoveredFile, progressFn ProgressFunc) *LoadResult {
	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}

	wg.Wait()

	for _, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			result.Errors = append(result.Errors, pr.Err)
			result.Failed = append(result.Failed, pr.File.Path)
			continue
		}
		result.ParsedFiles++
		result.Skipped += pr.Skipped
		result.Duplicates += pr.Duplicates
		result.Records = append(result.Records, pr.Records...)
	}
	return result
}
