package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostSummary is the aggregate of one period's filtered records.
// It is built fresh by every aggregation and never mutated afterwards.
type CostSummary struct {
	TotalRecords       int             `json:"totalRecords"`
	TotalPlannedCost   decimal.Decimal `json:"totalPlannedCost"`
	TotalActualCost    decimal.Decimal `json:"totalActualCost"`
	TotalLaborCost     decimal.Decimal `json:"totalLaborCost"`
	TotalLubricantCost decimal.Decimal `json:"totalLubricantCost"`
	TotalOutsourceCost decimal.Decimal `json:"totalOutsourceCost"`
	TotalCostVariance  decimal.Decimal `json:"totalCostVariance"`
	AvgCostPerOrder    decimal.Decimal `json:"avgCostPerOrder"`
}

// Metric returns the value of one comparable metric.
func (s CostSummary) Metric(m Metric) decimal.Decimal {
	switch m {
	case MetricActualCost:
		return s.TotalActualCost
	case MetricLaborCost:
		return s.TotalLaborCost
	case MetricLubricantCost:
		return s.TotalLubricantCost
	case MetricOutsourceCost:
		return s.TotalOutsourceCost
	case MetricAvgCostPerOrder:
		return s.AvgCostPerOrder
	}
	return decimal.Zero
}

// GroupSummary is one row of a per-garage, per-workshop or per-category breakdown.
type GroupSummary struct {
	Key     string      `json:"key"`
	Summary CostSummary `json:"summary"`
}

// PeriodSummary is one period of a trend series.
type PeriodSummary struct {
	Label   string      `json:"label"`
	Range   DateRange   `json:"range"`
	Summary CostSummary `json:"summary"`
}

// Report is a complete comparison run, ready to render or serve.
type Report struct {
	Mode        Mode             `json:"mode"`
	Calendar    string           `json:"calendar"`
	Filters     Filters          `json:"filters"`
	Periods     PeriodPair       `json:"periods"`
	Comparison  PeriodComparison `json:"comparison"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
