// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costcmp/internal/model"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// FormatMoney formats an amount with two decimals, thousands separators and
// an optional currency prefix.
// e.g., 1234567.891 -> "ETB 1,234,567.89"
func FormatMoney(d decimal.Decimal, currency string) string {
	s := groupDecimal(d.StringFixed(2))
	if currency == "" {
		return s
	}
	return currency + " " + s
}

// FormatCompact formats an amount with a magnitude suffix.
// e.g., 1234 -> "1.2K", 1234567 -> "1.2M"
func FormatCompact(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(billion):
		return d.Div(billion).StringFixed(1) + "B"
	case abs.GreaterThanOrEqual(million):
		return d.Div(million).StringFixed(1) + "M"
	case abs.GreaterThanOrEqual(thousand):
		return d.Div(thousand).StringFixed(1) + "K"
	default:
		return d.StringFixed(0)
	}
}

// FormatDelta formats a signed money difference.
// e.g., 50 -> "+50.00", -12.5 -> "-12.50"
func FormatDelta(d decimal.Decimal, currency string) string {
	if d.IsNegative() {
		return "-" + FormatMoney(d.Neg(), currency)
	}
	return "+" + FormatMoney(d, currency)
}

// FormatPercent formats a percent change with sign and one decimal.
func FormatPercent(pct decimal.Decimal) string {
	s := pct.StringFixed(1)
	if !pct.IsNegative() {
		s = "+" + s
	}
	return s + "%"
}

// FormatChange formats a percent change, or "n/a" when period 1 had no
// baseline to compare against.
func FormatChange(pct decimal.Decimal, noBaseline bool) string {
	if noBaseline {
		return "n/a"
	}
	return FormatPercent(pct)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	return groupDigits(strconv.FormatInt(n, 10))
}

// FormatRange renders a date range as "Mar 1 2024 - Mar 31 2024",
// collapsing to one date when both ends fall on the same day.
func FormatRange(r model.DateRange) string {
	from := r.Start.Format("Jan 2 2006")
	to := r.End.Format("Jan 2 2006")
	if from == to {
		return from
	}
	return fmt.Sprintf("%s - %s", from, to)
}

func groupDecimal(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	out := sign + groupDigits(whole)
	if hasFrac {
		out += "." + frac
	}
	return out
}

func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
