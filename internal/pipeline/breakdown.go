package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/costcmp/internal/model"
)

// Dimension is a categorical field records can be grouped by.
type Dimension string

const (
	ByGarage   Dimension = "garage"
	ByWorkshop Dimension = "workshop"
	ByCategory Dimension = "category"
)

// Dimensions lists the supported breakdown dimensions.
var Dimensions = []Dimension{ByGarage, ByWorkshop, ByCategory}

// NoKey labels records that carry no value for the grouped field.
const NoKey = "(none)"

// ParseDimension validates a breakdown dimension name.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Dimensions {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown breakdown dimension %q (want garage, workshop or category)", s)
}

func (d Dimension) key(rec model.CostRecord) string {
	var k model.Key
	switch d {
	case ByGarage:
		k = rec.GarageID
	case ByWorkshop:
		k = rec.WorkshopID
	case ByCategory:
		k = rec.EquipmentCategoryID
	}
	if k == "" {
		return NoKey
	}
	return string(k)
}

// Breakdown aggregates the filtered records of r per value of dim.
// Rows are sorted by actual cost descending, then by key.
func Breakdown(records []model.CostRecord, r model.DateRange, f model.Filters, dim Dimension) []model.GroupSummary {
	filtered := FilterByRange(records, r)
	filtered = FilterByCategory(filtered, f)
	filtered = FilterByCostType(filtered, f.CostType)

	groups := make(map[string][]model.CostRecord)
	for _, rec := range filtered {
		k := dim.key(rec)
		groups[k] = append(groups[k], rec)
	}

	result := make([]model.GroupSummary, 0, len(groups))
	for k, recs := range groups {
		result = append(result, model.GroupSummary{Key: k, Summary: Summarize(recs)})
	}

	sort.Slice(result, func(i, j int) bool {
		c := result[i].Summary.TotalActualCost.Cmp(result[j].Summary.TotalActualCost)
		if c != 0 {
			return c > 0
		}
		return result[i].Key < result[j].Key
	})
	return result
}

// GroupKeys returns the distinct values of dim across records, sorted.
// Records without a value are skipped.
func GroupKeys(records []model.CostRecord, dim Dimension) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		if k := dim.key(rec); k != NoKey {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GroupComparison compares one group across both periods.
type GroupComparison struct {
	Key        string                 `json:"key"`
	Comparison model.PeriodComparison `json:"comparison"`
}

// CompareGroups pairs per-group summaries of two periods. A group seen in
// only one period compares against an empty summary. Rows are ordered by
// period 2 actual cost, then period 1 actual cost, then key.
func CompareGroups(p1, p2 []model.GroupSummary) []GroupComparison {
	first := make(map[string]model.CostSummary, len(p1))
	second := make(map[string]model.CostSummary, len(p2))
	var keys []string
	for _, g := range p1 {
		first[g.Key] = g.Summary
		keys = append(keys, g.Key)
	}
	for _, g := range p2 {
		second[g.Key] = g.Summary
		if _, ok := first[g.Key]; !ok {
			keys = append(keys, g.Key)
		}
	}

	rows := make([]GroupComparison, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, GroupComparison{Key: k, Comparison: Compare(first[k], second[k])})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].Comparison, rows[j].Comparison
		if c := a.Period2.TotalActualCost.Cmp(b.Period2.TotalActualCost); c != 0 {
			return c > 0
		}
		if c := a.Period1.TotalActualCost.Cmp(b.Period1.TotalActualCost); c != 0 {
			return c > 0
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}
