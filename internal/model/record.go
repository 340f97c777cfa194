// Package model defines the value types shared by the cost comparison pipeline.
package model

import "time"

// CostRecord is one completed work order with its cost fields.
// Planned and actual totals are independent of the three components.
type CostRecord struct {
	ID                  Key        `json:"id"`
	CompletedAt         *time.Time `json:"completedAt"`
	TotalPlannedCost    RawAmount  `json:"totalPlannedCost"`
	TotalActualCost     RawAmount  `json:"totalActualCost"`
	ActualLaborCost     RawAmount  `json:"actualLaborCost"`
	ActualLubricantCost RawAmount  `json:"actualLubricantCost"`
	ActualOutsourceCost RawAmount  `json:"actualOutsourceCost"`
	GarageID            Key        `json:"garageId,omitempty"`
	WorkshopID          Key        `json:"workshopId,omitempty"`
	EquipmentCategoryID Key        `json:"equipmentCategoryId,omitempty"`
}

// Completed reports whether the record has a completion timestamp.
func (r CostRecord) Completed() bool {
	return r.CompletedAt != nil && !r.CompletedAt.IsZero()
}

// CostFor returns the raw component amount matching a cost type.
// CostTypeAll has no single component and returns an empty amount.
func (r CostRecord) CostFor(ct CostType) RawAmount {
	switch ct {
	case CostTypeLabor:
		return r.ActualLaborCost
	case CostTypeLubricants:
		return r.ActualLubricantCost
	case CostTypeOutsource:
		return r.ActualOutsourceCost
	default:
		return ""
	}
}
