package pipeline

import (
	"time"

	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
)

// Trend summarizes the last n periods of mode ending with the one containing
// now, newest first. Custom mode has no natural step and is rejected.
func Trend(res fiscal.Resolver, mode model.Mode, now time.Time, n int, records []model.CostRecord, f model.Filters) ([]model.PeriodSummary, error) {
	ranges, err := TrendRanges(res, mode, now, n)
	if err != nil {
		return nil, err
	}

	out := make([]model.PeriodSummary, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, model.PeriodSummary{
			Label:   PeriodLabel(res, mode, r),
			Range:   r,
			Summary: Aggregate(records, r, f),
		})
	}
	return out, nil
}

// TrendRanges returns the ranges Trend would summarize, newest first.
func TrendRanges(res fiscal.Resolver, mode model.Mode, now time.Time, n int) ([]model.DateRange, error) {
	if n < 1 {
		n = 1
	}
	r, err := CurrentPeriod(res, mode, now)
	if err != nil {
		return nil, err
	}

	ranges := make([]model.DateRange, 0, n)
	ranges = append(ranges, r)
	for len(ranges) < n {
		r, err = PreviousPeriod(res, mode, r)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// Span returns the smallest range covering all of ranges.
func Span(ranges ...model.DateRange) model.DateRange {
	var span model.DateRange
	for i, r := range ranges {
		if i == 0 || r.Start.Before(span.Start) {
			span.Start = r.Start
		}
		if i == 0 || r.End.After(span.End) {
			span.End = r.End
		}
	}
	return span
}
