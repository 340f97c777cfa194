package model

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"100", "100"},
		{"  12.50 ", "12.5"},
		{"-3.25", "-3.25"},
		{"0.0001", "0.0001"},
		{"", "0"},
		{"   ", "0"},
		{"abc", "0"},
		{"12,50", "0"},
		{"1.2.3", "0"},
	}
	for _, tt := range tests {
		got := ParseAmount(tt.raw)
		if got.String() != tt.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestParseAmountKeepsPrecision(t *testing.T) {
	sum := ParseAmount("0")
	for i := 0; i < 1000; i++ {
		sum = sum.Add(ParseAmount("0.1"))
	}
	if sum.String() != "100" {
		t.Fatalf("sum of 1000 x 0.1 = %s, want 100", sum)
	}
}

func TestRecordDecodeFlexibleScalars(t *testing.T) {
	data := `{
		"id": 42,
		"completedAt": "2024-03-15T10:30:00.000Z",
		"totalPlannedCost": "200.00",
		"totalActualCost": 250.75,
		"actualLaborCost": null,
		"actualLubricantCost": "n/a",
		"actualOutsourceCost": {"nested": true},
		"garageId": 7,
		"workshopId": "W-1"
	}`

	var r CostRecord
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if r.ID != "42" {
		t.Errorf("ID = %q, want 42", r.ID)
	}
	if !r.Completed() {
		t.Fatal("record should be completed")
	}
	if got := r.TotalActualCost.Value().String(); got != "250.75" {
		t.Errorf("actual = %s, want 250.75", got)
	}
	if got := r.TotalPlannedCost.Value().String(); got != "200" {
		t.Errorf("planned = %s, want 200", got)
	}
	if !r.ActualLaborCost.IsZero() {
		t.Errorf("null labor should be zero, got %s", r.ActualLaborCost.Value())
	}
	if !r.ActualLubricantCost.IsZero() {
		t.Errorf("non-numeric lubricant should be zero")
	}
	if r.ActualOutsourceCost != "" {
		t.Errorf("object outsource should decode empty, got %q", r.ActualOutsourceCost)
	}
	if r.GarageID != "7" || r.WorkshopID != "W-1" || r.EquipmentCategoryID != "" {
		t.Errorf("keys = %q %q %q", r.GarageID, r.WorkshopID, r.EquipmentCategoryID)
	}
}

func TestRecordWithoutCompletion(t *testing.T) {
	var r CostRecord
	if err := json.Unmarshal([]byte(`{"id":"a","completedAt":null}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Completed() {
		t.Error("null completedAt should not count as completed")
	}
}
