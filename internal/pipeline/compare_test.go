package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costcmp/internal/model"
)

func summaryWithActual(actual string, records int) model.CostSummary {
	s := model.CostSummary{
		TotalRecords:       records,
		TotalPlannedCost:   decimal.Zero,
		TotalActualCost:    decimal.RequireFromString(actual),
		TotalLaborCost:     decimal.Zero,
		TotalLubricantCost: decimal.Zero,
		TotalOutsourceCost: decimal.Zero,
		TotalCostVariance:  decimal.Zero,
		AvgCostPerOrder:    decimal.Zero,
	}
	return s
}

func TestCompare_Growth(t *testing.T) {
	c := Compare(summaryWithActual("100", 2), summaryWithActual("150", 3))

	assertDecimal(t, "variance", c.Variance.Get(model.MetricActualCost), "50")
	assertDecimal(t, "pct", c.PercentChange.Get(model.MetricActualCost), "50")
	if c.NoBaseline.Get(model.MetricActualCost) {
		t.Error("actual cost flagged as having no baseline")
	}
}

func TestCompare_Decline(t *testing.T) {
	c := Compare(summaryWithActual("200", 1), summaryWithActual("50", 1))

	assertDecimal(t, "variance", c.Variance.Get(model.MetricActualCost), "-150")
	assertDecimal(t, "pct", c.PercentChange.Get(model.MetricActualCost), "-75")
}

func TestCompare_ZeroBaseline(t *testing.T) {
	c := Compare(summaryWithActual("0", 0), summaryWithActual("500", 4))

	assertDecimal(t, "variance", c.Variance.Get(model.MetricActualCost), "500")
	assertDecimal(t, "pct", c.PercentChange.Get(model.MetricActualCost), "0")
	if !c.NoBaseline.Get(model.MetricActualCost) {
		t.Error("expected NoBaseline for actual cost")
	}
}

func TestCompare_NoBaselineIsPerMetric(t *testing.T) {
	p1 := summaryWithActual("80", 2)
	p1.AvgCostPerOrder = decimal.Zero
	p2 := summaryWithActual("120", 3)
	p2.AvgCostPerOrder = decimal.NewFromInt(40)

	c := Compare(p1, p2)
	assertDecimal(t, "avg variance", c.Variance.Get(model.MetricAvgCostPerOrder), "40")
	assertDecimal(t, "avg pct", c.PercentChange.Get(model.MetricAvgCostPerOrder), "0")
	if !c.NoBaseline.Get(model.MetricAvgCostPerOrder) {
		t.Error("expected NoBaseline for avg cost per order")
	}
	if c.NoBaseline.Get(model.MetricActualCost) {
		t.Error("actual cost has a baseline")
	}
	assertDecimal(t, "actual pct", c.PercentChange.Get(model.MetricActualCost), "50")
}

func TestCompare_CoversAllMetrics(t *testing.T) {
	p1 := model.CostSummary{
		TotalActualCost:    decimal.NewFromInt(10),
		TotalLaborCost:     decimal.NewFromInt(20),
		TotalLubricantCost: decimal.NewFromInt(40),
		TotalOutsourceCost: decimal.NewFromInt(80),
		AvgCostPerOrder:    decimal.NewFromInt(5),
	}
	p2 := model.CostSummary{
		TotalActualCost:    decimal.NewFromInt(20),
		TotalLaborCost:     decimal.NewFromInt(20),
		TotalLubricantCost: decimal.NewFromInt(30),
		TotalOutsourceCost: decimal.NewFromInt(0),
		AvgCostPerOrder:    decimal.NewFromInt(10),
	}
	want := map[model.Metric]struct{ variance, pct string }{
		model.MetricActualCost:      {"10", "100"},
		model.MetricLaborCost:       {"0", "0"},
		model.MetricLubricantCost:   {"-10", "-25"},
		model.MetricOutsourceCost:   {"-80", "-100"},
		model.MetricAvgCostPerOrder: {"5", "100"},
	}

	c := Compare(p1, p2)
	for _, m := range model.Metrics {
		w, ok := want[m]
		if !ok {
			t.Fatalf("unexpected metric %s", m)
		}
		assertDecimal(t, string(m)+" variance", c.Variance.Get(m), w.variance)
		assertDecimal(t, string(m)+" pct", c.PercentChange.Get(m), w.pct)
		if c.NoBaseline.Get(m) {
			t.Errorf("%s flagged as having no baseline", m)
		}
	}
	if len(model.Metrics) != len(want) {
		t.Errorf("metrics = %d, want %d", len(model.Metrics), len(want))
	}
}
