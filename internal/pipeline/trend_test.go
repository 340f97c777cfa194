package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
)

func TestTrendRanges_Quarters(t *testing.T) {
	res := fiscal.NewGregorian(time.January, time.UTC)
	ranges, err := TrendRanges(res, model.ModeQuarter, mustTime(t, "2024-05-05T00:00:00Z"), 4)
	if err != nil {
		t.Fatalf("TrendRanges: %v", err)
	}
	want := []string{
		"2024-04-01..2024-06-30",
		"2024-01-01..2024-03-31",
		"2023-10-01..2023-12-31",
		"2023-07-01..2023-09-30",
	}
	if len(ranges) != len(want) {
		t.Fatalf("ranges = %d, want %d", len(ranges), len(want))
	}
	for i, w := range want {
		if got := ranges[i].String(); got != w {
			t.Errorf("range %d = %s, want %s", i, got, w)
		}
	}
	for i := 1; i < len(ranges); i++ {
		if !ranges[i].End.Add(time.Millisecond).Equal(ranges[i-1].Start) {
			t.Errorf("range %d does not abut range %d", i, i-1)
		}
	}
}

func TestTrendRanges_AtLeastOne(t *testing.T) {
	res := fiscal.NewGregorian(time.January, time.UTC)
	ranges, err := TrendRanges(res, model.ModeMonth, mustTime(t, "2024-05-05"), 0)
	if err != nil {
		t.Fatalf("TrendRanges: %v", err)
	}
	if len(ranges) != 1 {
		t.Errorf("ranges = %d, want 1", len(ranges))
	}
}

func TestTrend_CustomRejected(t *testing.T) {
	res := fiscal.NewGregorian(time.January, time.UTC)
	if _, err := Trend(res, model.ModeCustom, time.Now(), 3, nil, model.Filters{}); err == nil {
		t.Error("expected error for custom mode")
	}
}

func TestTrend_Summaries(t *testing.T) {
	res := fiscal.NewGregorian(time.January, time.UTC)
	records := []model.CostRecord{
		{ID: "a", CompletedAt: at(t, "2024-05-02T00:00:00Z"), TotalActualCost: "10"},
		{ID: "b", CompletedAt: at(t, "2024-04-30T00:00:00Z"), TotalActualCost: "20"},
		{ID: "c", CompletedAt: at(t, "2024-04-01T00:00:00Z"), TotalActualCost: "5"},
	}

	out, err := Trend(res, model.ModeMonth, mustTime(t, "2024-05-20"), 3, records, model.Filters{})
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	want := []struct {
		label  string
		actual string
	}{
		{"May 2024", "10"},
		{"Apr 2024", "25"},
		{"Mar 2024", "0"},
	}
	for i, w := range want {
		if out[i].Label != w.label {
			t.Errorf("label %d = %q, want %q", i, out[i].Label, w.label)
		}
		assertDecimal(t, w.label, out[i].Summary.TotalActualCost, w.actual)
	}
}

func TestSpan(t *testing.T) {
	a := dayRange(t, "2024-03-01", "2024-03-31")
	b := dayRange(t, "2023-12-01", "2023-12-31")
	c := dayRange(t, "2024-01-15", "2024-02-01")

	got := Span(a, b, c)
	if got.String() != "2023-12-01..2024-03-31" {
		t.Errorf("Span = %s", got)
	}
	if !got.End.Equal(a.End) {
		t.Errorf("Span end = %v, want %v", got.End, a.End)
	}
}
