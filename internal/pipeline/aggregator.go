// Package pipeline selects comparison periods, aggregates cost records and
// compares the results. The functions here are pure; loading lives in
// loader.go and sync.go.
package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costcmp/internal/model"
)

// Aggregate filters records to r and f and sums them into a CostSummary.
// The stages run in a fixed order: time, category, cost type, then sums.
func Aggregate(records []model.CostRecord, r model.DateRange, f model.Filters) model.CostSummary {
	filtered := FilterByRange(records, r)
	filtered = FilterByCategory(filtered, f)
	filtered = FilterByCostType(filtered, f.CostType)
	return Summarize(filtered)
}

// Summarize sums records without filtering.
func Summarize(records []model.CostRecord) model.CostSummary {
	var s model.CostSummary
	planned := decimal.Zero
	actual := decimal.Zero
	labor := decimal.Zero
	lubricant := decimal.Zero
	outsource := decimal.Zero

	for _, rec := range records {
		planned = planned.Add(rec.TotalPlannedCost.Value())
		actual = actual.Add(rec.TotalActualCost.Value())
		labor = labor.Add(rec.ActualLaborCost.Value())
		lubricant = lubricant.Add(rec.ActualLubricantCost.Value())
		outsource = outsource.Add(rec.ActualOutsourceCost.Value())
	}

	s.TotalRecords = len(records)
	s.TotalPlannedCost = planned
	s.TotalActualCost = actual
	s.TotalLaborCost = labor
	s.TotalLubricantCost = lubricant
	s.TotalOutsourceCost = outsource
	s.TotalCostVariance = actual.Sub(planned)
	s.AvgCostPerOrder = decimal.Zero
	if s.TotalRecords > 0 {
		s.AvgCostPerOrder = actual.Div(decimal.NewFromInt(int64(s.TotalRecords)))
	}
	return s
}

// FilterByRange keeps completed records whose completion time is within r.
func FilterByRange(records []model.CostRecord, r model.DateRange) []model.CostRecord {
	var out []model.CostRecord
	for _, rec := range records {
		if !rec.Completed() {
			continue
		}
		if r.Contains(*rec.CompletedAt) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterByCategory applies the garage, workshop and equipment category filters.
// Inactive filters ("" or "all") match every record.
func FilterByCategory(records []model.CostRecord, f model.Filters) []model.CostRecord {
	if !model.Active(f.GarageID) && !model.Active(f.WorkshopID) && !model.Active(f.EquipmentCategoryID) {
		return records
	}

	var out []model.CostRecord
	for _, rec := range records {
		if model.Active(f.GarageID) && string(rec.GarageID) != f.GarageID {
			continue
		}
		if model.Active(f.WorkshopID) && string(rec.WorkshopID) != f.WorkshopID {
			continue
		}
		if model.Active(f.EquipmentCategoryID) && string(rec.EquipmentCategoryID) != f.EquipmentCategoryID {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// FilterByCostType keeps records whose component for ct is non-zero.
// A record that fails the test is dropped whole, so none of its fields are summed.
// An unrecognized ct filters nothing, the same as all.
func FilterByCostType(records []model.CostRecord, ct model.CostType) []model.CostRecord {
	ct, err := model.ParseCostType(string(ct))
	if err != nil || ct == model.CostTypeAll {
		return records
	}

	var out []model.CostRecord
	for _, rec := range records {
		if !rec.CostFor(ct).IsZero() {
			out = append(out, rec)
		}
	}
	return out
}
