package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
	"github.com/theirongolddev/costcmp/internal/source"
)

// memoryFetcher serves records from a slice, filtering by completion time.
func memoryFetcher(records []model.CostRecord) FetcherFunc {
	return func(_ context.Context, r model.DateRange) ([]model.CostRecord, error) {
		var out []model.CostRecord
		for _, rec := range records {
			if rec.Completed() && r.Contains(*rec.CompletedAt) {
				out = append(out, rec)
			}
		}
		return out, nil
	}
}

func TestLoadPair_Error(t *testing.T) {
	boom := errors.New("boom")
	f := FetcherFunc(func(_ context.Context, r model.DateRange) ([]model.CostRecord, error) {
		if r.Start.Month() == time.February {
			return nil, boom
		}
		return nil, nil
	})
	pair := model.PeriodPair{
		Period1: dayRange(t, "2024-02-01", "2024-02-29"),
		Period2: dayRange(t, "2024-03-01", "2024-03-31"),
	}

	_, _, err := LoadPair(context.Background(), f, pair)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestRun_AppliesFiltersToBothPeriods(t *testing.T) {
	records := []model.CostRecord{
		{ID: "1", CompletedAt: at(t, "2024-02-10T00:00:00Z"), TotalActualCost: "100", GarageID: "G1"},
		{ID: "2", CompletedAt: at(t, "2024-02-11T00:00:00Z"), TotalActualCost: "900", GarageID: "G2"},
		{ID: "3", CompletedAt: at(t, "2024-03-10T00:00:00Z"), TotalActualCost: "150", GarageID: "G1"},
		{ID: "4", CompletedAt: at(t, "2024-03-11T00:00:00Z"), TotalActualCost: "50", GarageID: "G2"},
	}
	res := fiscal.NewGregorian(time.January, time.UTC)
	req := Request{
		Mode:    model.ModeMonth,
		Now:     mustTime(t, "2024-03-15T00:00:00Z"),
		Filters: model.Filters{GarageID: "G1"},
	}

	report, err := Run(context.Background(), memoryFetcher(records), res, req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	c := report.Comparison
	if c.Period1.TotalRecords != 1 || c.Period2.TotalRecords != 1 {
		t.Fatalf("records = %d/%d, want 1/1", c.Period1.TotalRecords, c.Period2.TotalRecords)
	}
	assertDecimal(t, "variance", c.Variance.Get(model.MetricActualCost), "50")
	assertDecimal(t, "pct", c.PercentChange.Get(model.MetricActualCost), "50")
	if report.Calendar != fiscal.CalendarGregorian {
		t.Errorf("Calendar = %q", report.Calendar)
	}
	if report.Periods.Period1.String() != "2024-02-01..2024-02-29" {
		t.Errorf("Period1 = %s", report.Periods.Period1)
	}
}

func TestRun_PropagatesSelectionError(t *testing.T) {
	var called atomic.Bool
	f := FetcherFunc(func(context.Context, model.DateRange) ([]model.CostRecord, error) {
		called.Store(true)
		return nil, nil
	})
	res := fiscal.NewGregorian(time.January, time.UTC)

	_, err := Run(context.Background(), f, res, Request{Mode: model.ModeCustom, Now: time.Now()})
	if !errors.Is(err, ErrNoCustomRanges) {
		t.Fatalf("err = %v, want ErrNoCustomRanges", err)
	}
	if called.Load() {
		t.Error("fetcher called after selection failed")
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) source.DiscoveredFile {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		format, _ := source.FormatForPath(path)
		return source.DiscoveredFile{Path: path, Format: format}
	}
	files := []source.DiscoveredFile{
		write("a.json", `[{"id":"1","completedAt":"2024-03-01T00:00:00Z","totalActualCost":"5"}]`),
		write("b.jsonl", "{\"id\":\"2\",\"totalActualCost\":1}\nnot json\n{\"id\":\"2\",\"totalActualCost\":2}\n"),
		write("c.json", `{"unexpected": true}`),
	}

	var calls atomic.Int64
	result := LoadFiles(files, func(current, total int) {
		calls.Add(1)
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
	})

	if result.TotalFiles != 3 || result.ParsedFiles != 2 || result.FileErrors != 1 {
		t.Errorf("files total/parsed/errors = %d/%d/%d, want 3/2/1",
			result.TotalFiles, result.ParsedFiles, result.FileErrors)
	}
	if len(result.Failed) != 1 || result.Failed[0] != files[2].Path {
		t.Errorf("Failed = %v", result.Failed)
	}
	if len(result.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(result.Records))
	}
	if result.Records[0].ID != "1" || result.Records[1].TotalActualCost != "2" {
		t.Errorf("records out of order or not deduplicated: %+v", result.Records)
	}
	if result.Skipped != 1 || result.Duplicates != 1 {
		t.Errorf("skipped/duplicates = %d/%d, want 1/1", result.Skipped, result.Duplicates)
	}
	if calls.Load() != 3 {
		t.Errorf("progress calls = %d, want 3", calls.Load())
	}
}

func TestLoadFiles_Empty(t *testing.T) {
	result := LoadFiles(nil, nil)
	if result.TotalFiles != 0 || len(result.Records) != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}
