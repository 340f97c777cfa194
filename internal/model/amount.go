package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts stored decimal text into a fixed-point amount.
// Empty, missing or malformed input yields exactly zero; it never fails.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RawAmount is a cost as the backend stores it: decimal text that may be
// empty or not a number at all. Use Value to read it.
type RawAmount string

// Value returns the amount under the parse-or-zero rule.
func (r RawAmount) Value() decimal.Decimal {
	return ParseAmount(string(r))
}

// IsZero reports whether the amount parses to zero.
func (r RawAmount) IsZero() bool {
	return r.Value().IsZero()
}

// UnmarshalJSON accepts a JSON string, a bare number, or null.
// Other shapes (objects, arrays, booleans) become an empty amount.
func (r *RawAmount) UnmarshalJSON(b []byte) error {
	*r = RawAmount(rawScalar(b))
	return nil
}

// Key is an opaque identifier that the backend may send as a string or a number.
type Key string

// UnmarshalJSON accepts a JSON string, a bare number, or null.
func (k *Key) UnmarshalJSON(b []byte) error {
	*k = Key(rawScalar(b))
	return nil
}

func rawScalar(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return ""
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(b)
	}
	return ""
}
