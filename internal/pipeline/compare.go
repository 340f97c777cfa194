package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costcmp/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Compare computes per-metric variance (p2 - p1) and percent change against p1.
// When p1's metric is not positive the percent change is zero and the metric
// is flagged in NoBaseline.
func Compare(p1, p2 model.CostSummary) model.PeriodComparison {
	c := model.PeriodComparison{Period1: p1, Period2: p2}

	for _, m := range model.Metrics {
		base := p1.Metric(m)
		variance := p2.Metric(m).Sub(base)
		c.Variance.Set(m, variance)

		if base.IsPositive() {
			c.PercentChange.Set(m, variance.Div(base).Mul(hundred))
			continue
		}
		c.PercentChange.Set(m, decimal.Zero)
		c.NoBaseline.Set(m, true)
	}
	return c
}
