package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/theirongolddev/costcmp/internal/model"
)

func syntheticRecords(n int) []model.CostRecord {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.CostRecord, n)
	for i := range out {
		at := base.Add(time.Duration(i%(90*24)) * time.Hour)
		out[i] = model.CostRecord{
			ID:                  model.Key(fmt.Sprintf("wo-%d", i)),
			CompletedAt:         &at,
			TotalPlannedCost:    model.RawAmount(fmt.Sprintf("%d.50", 100+i%400)),
			TotalActualCost:     model.RawAmount(fmt.Sprintf("%d.25", 90+i%500)),
			ActualLaborCost:     model.RawAmount(fmt.Sprintf("%d", i%3*40)),
			ActualLubricantCost: model.RawAmount(fmt.Sprintf("%d.10", i%7)),
			ActualOutsourceCost: model.RawAmount(fmt.Sprintf("%d", i%5*15)),
			GarageID:            model.Key(fmt.Sprintf("G%d", i%8)),
			WorkshopID:          model.Key(fmt.Sprintf("W%d", i%20)),
			EquipmentCategoryID: model.Key(fmt.Sprintf("C%d", i%12)),
		}
	}
	return out
}

func BenchmarkAggregate(b *testing.B) {
	records := syntheticRecords(50_000)
	r := model.NewDayRange(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	f := model.Filters{GarageID: "G3", CostType: model.CostTypeLabor}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Aggregate(records, r, f)
	}
}

func BenchmarkBreakdown(b *testing.B) {
	records := syntheticRecords(50_000)
	r := model.NewDayRange(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Breakdown(records, r, model.Filters{}, ByWorkshop)
	}
}
