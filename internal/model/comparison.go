package model

import "github.com/shopspring/decimal"

// Metric names one of the five values compared between periods.
type Metric string

const (
	MetricActualCost      Metric = "totalActualCost"
	MetricLaborCost       Metric = "totalLaborCost"
	MetricLubricantCost   Metric = "totalLubricantCost"
	MetricOutsourceCost   Metric = "totalOutsourceCost"
	MetricAvgCostPerOrder Metric = "avgCostPerOrder"
)

// Metrics lists the comparable metrics in report order.
var Metrics = []Metric{
	MetricActualCost,
	MetricLaborCost,
	MetricLubricantCost,
	MetricOutsourceCost,
	MetricAvgCostPerOrder,
}

// Label returns a human-readable metric name.
func (m Metric) Label() string {
	switch m {
	case MetricActualCost:
		return "Actual Cost"
	case MetricLaborCost:
		return "Labor"
	case MetricLubricantCost:
		return "Lubricants"
	case MetricOutsourceCost:
		return "Outsource"
	case MetricAvgCostPerOrder:
		return "Avg / Order"
	}
	return string(m)
}

// MetricValues holds one decimal per comparable metric.
type MetricValues struct {
	TotalActualCost    decimal.Decimal `json:"totalActualCost"`
	TotalLaborCost     decimal.Decimal `json:"totalLaborCost"`
	TotalLubricantCost decimal.Decimal `json:"totalLubricantCost"`
	TotalOutsourceCost decimal.Decimal `json:"totalOutsourceCost"`
	AvgCostPerOrder    decimal.Decimal `json:"avgCostPerOrder"`
}

// Get returns the value stored for m.
func (v MetricValues) Get(m Metric) decimal.Decimal {
	switch m {
	case MetricActualCost:
		return v.TotalActualCost
	case MetricLaborCost:
		return v.TotalLaborCost
	case MetricLubricantCost:
		return v.TotalLubricantCost
	case MetricOutsourceCost:
		return v.TotalOutsourceCost
	case MetricAvgCostPerOrder:
		return v.AvgCostPerOrder
	}
	return decimal.Zero
}

// Set stores d for m.
func (v *MetricValues) Set(m Metric, d decimal.Decimal) {
	switch m {
	case MetricActualCost:
		v.TotalActualCost = d
	case MetricLaborCost:
		v.TotalLaborCost = d
	case MetricLubricantCost:
		v.TotalLubricantCost = d
	case MetricOutsourceCost:
		v.TotalOutsourceCost = d
	case MetricAvgCostPerOrder:
		v.AvgCostPerOrder = d
	}
}

// MetricFlags holds one boolean per comparable metric.
type MetricFlags struct {
	TotalActualCost    bool `json:"totalActualCost"`
	TotalLaborCost     bool `json:"totalLaborCost"`
	TotalLubricantCost bool `json:"totalLubricantCost"`
	TotalOutsourceCost bool `json:"totalOutsourceCost"`
	AvgCostPerOrder    bool `json:"avgCostPerOrder"`
}

// Get returns the flag stored for m.
func (f MetricFlags) Get(m Metric) bool {
	switch m {
	case MetricActualCost:
		return f.TotalActualCost
	case MetricLaborCost:
		return f.TotalLaborCost
	case MetricLubricantCost:
		return f.TotalLubricantCost
	case MetricOutsourceCost:
		return f.TotalOutsourceCost
	case MetricAvgCostPerOrder:
		return f.AvgCostPerOrder
	}
	return false
}

// Set stores b for m.
func (f *MetricFlags) Set(m Metric, b bool) {
	switch m {
	case MetricActualCost:
		f.TotalActualCost = b
	case MetricLaborCost:
		f.TotalLaborCost = b
	case MetricLubricantCost:
		f.TotalLubricantCost = b
	case MetricOutsourceCost:
		f.TotalOutsourceCost = b
	case MetricAvgCostPerOrder:
		f.AvgCostPerOrder = b
	}
}

// PeriodComparison holds two period summaries and their per-metric deltas.
//
// PercentChange is zero whenever Period1's metric is not positive; NoBaseline
// marks those metrics so a move from nothing is not read as "no change".
type PeriodComparison struct {
	Period1       CostSummary  `json:"period1"`
	Period2       CostSummary  `json:"period2"`
	Variance      MetricValues `json:"variance"`
	PercentChange MetricValues `json:"percentChange"`
	NoBaseline    MetricFlags  `json:"noBaseline"`
}
