package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMode is returned when a comparison mode name is not recognized.
	ErrUnknownMode = errors.New("unknown comparison mode")
	// ErrUnknownCostType is returned when a cost type name is not recognized.
	ErrUnknownCostType = errors.New("unknown cost type")
)

// Mode selects how the two comparison periods are derived.
type Mode string

const (
	ModeMonth   Mode = "month"
	ModeQuarter Mode = "quarter"
	ModeYear    Mode = "year"
	ModeCustom  Mode = "custom"
)

// Modes lists every comparison mode in display order.
var Modes = []Mode{ModeMonth, ModeQuarter, ModeYear, ModeCustom}

// ParseMode validates a mode name. Matching ignores case and surrounding space.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// CostType narrows a summary to records that carry a given cost component.
type CostType string

const (
	CostTypeAll        CostType = "all"
	CostTypeLabor      CostType = "labor"
	CostTypeLubricants CostType = "lubricants"
	CostTypeOutsource  CostType = "outsource"
)

// CostTypes lists every cost type in display order.
var CostTypes = []CostType{CostTypeAll, CostTypeLabor, CostTypeLubricants, CostTypeOutsource}

// ParseCostType validates a cost type name. The empty string means all.
func ParseCostType(s string) (CostType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return CostTypeAll, nil
	}
	for _, known := range CostTypes {
		if CostType(v) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCostType, s)
}

// FilterAll is the sentinel value meaning "do not filter on this field".
const FilterAll = "all"

// Filters are the categorical and cost-type restrictions applied to a period.
// Empty strings and "all" disable the corresponding filter.
type Filters struct {
	GarageID            string   `json:"garageId,omitempty"`
	WorkshopID          string   `json:"workshopId,omitempty"`
	EquipmentCategoryID string   `json:"equipmentCategoryId,omitempty"`
	CostType            CostType `json:"costType,omitempty"`
}

// Active reports whether a filter value restricts anything.
func Active(v string) bool {
	return v != "" && v != FilterAll
}

// Describe renders the active filters for titles, e.g. "garage=G1 labor".
func (f Filters) Describe() string {
	var parts []string
	if Active(f.GarageID) {
		parts = append(parts, "garage="+f.GarageID)
	}
	if Active(f.WorkshopID) {
		parts = append(parts, "workshop="+f.WorkshopID)
	}
	if Active(f.EquipmentCategoryID) {
		parts = append(parts, "category="+f.EquipmentCategoryID)
	}
	if f.CostType != "" && f.CostType != CostTypeAll {
		parts = append(parts, string(f.CostType))
	}
	return strings.Join(parts, " ")
}
