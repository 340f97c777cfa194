package source

import (
	"encoding/json"

	"github.com/theirongolddev/costcmp/internal/model"
)

// Format is the layout of an export file.
type Format int

const (
	// FormatJSON is a single JSON document: an array of work orders or an
	// object wrapping one under "data", "items" or "workOrders".
	FormatJSON Format = iota
	// FormatJSONL holds one work order object per line.
	FormatJSONL
)

func (f Format) String() string {
	if f == FormatJSONL {
		return "jsonl"
	}
	return "json"
}

// DiscoveredFile is an export file found on disk.
type DiscoveredFile struct {
	Path   string
	Size   int64
	Format Format
}

// ParseResult holds the output of parsing one export file.
type ParseResult struct {
	File    DiscoveredFile
	Records []model.CostRecord
	// Skipped counts lines or elements that were not work order objects.
	Skipped int
	// Duplicates counts records replaced by a later entry with the same id.
	Duplicates int
	Err        error
}

// envelope covers the wrapper objects the backend uses for paged listings.
type envelope struct {
	Data       []json.RawMessage `json:"data"`
	Items      []json.RawMessage `json:"items"`
	WorkOrders []json.RawMessage `json:"workOrders"`
}
