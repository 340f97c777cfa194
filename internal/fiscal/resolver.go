// Package fiscal maps instants to fiscal quarters and back.
//
// The comparison pipeline depends only on the Resolver interface; the calendar
// behind it (Gregorian with a configurable start month, or Ethiopian) is chosen
// at construction time.
package fiscal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/costcmp/internal/model"
)

var (
	// ErrInvalidQuarter is returned when a quarter number is outside 1..4.
	ErrInvalidQuarter = errors.New("invalid fiscal quarter")
	// ErrUnknownCalendar is returned by New for an unrecognized calendar name.
	ErrUnknownCalendar = errors.New("unknown fiscal calendar")
)

// Calendar names accepted by New.
const (
	CalendarGregorian = "gregorian"
	CalendarEthiopian = "ethiopian"
)

// Calendars lists the supported calendar names.
var Calendars = []string{CalendarGregorian, CalendarEthiopian}

// Resolver converts between instants and fiscal quarters.
//
// Quarters partition a fiscal year with no gaps or overlaps, and the end of
// Q4 of year Y immediately precedes the start of Q1 of year Y+1.
type Resolver interface {
	// Name identifies the calendar, e.g. "ethiopian".
	Name() string
	// CurrentFiscalQuarter returns the quarter containing now. It never fails.
	CurrentFiscalQuarter(now time.Time) Quarter
	// FiscalQuarterRange returns the day-bounded range of a quarter.
	// It fails with ErrInvalidQuarter when quarter is outside 1..4.
	FiscalQuarterRange(quarter, fiscalYear int) (model.DateRange, error)
}

// Quarter identifies one fiscal quarter.
type Quarter struct {
	FiscalYear int `json:"fiscalYear"`
	Number     int `json:"quarter"`
}

// Previous returns the quarter before q. Q1 rolls back to Q4 of the prior year.
func (q Quarter) Previous() Quarter {
	if q.Number <= 1 {
		return Quarter{FiscalYear: q.FiscalYear - 1, Number: 4}
	}
	return Quarter{FiscalYear: q.FiscalYear, Number: q.Number - 1}
}

// Next returns the quarter after q. Q4 rolls forward to Q1 of the next year.
func (q Quarter) Next() Quarter {
	if q.Number >= 4 {
		return Quarter{FiscalYear: q.FiscalYear + 1, Number: 1}
	}
	return Quarter{FiscalYear: q.FiscalYear, Number: q.Number + 1}
}

func (q Quarter) String() string {
	return fmt.Sprintf("FY%d Q%d", q.FiscalYear, q.Number)
}

// Range resolves q through r.
func (q Quarter) Range(r Resolver) (model.DateRange, error) {
	return r.FiscalQuarterRange(q.Number, q.FiscalYear)
}

// New builds a resolver by calendar name. startMonth only applies to the
// Gregorian calendar; zero means January. A nil loc means UTC.
func New(name string, startMonth time.Month, loc *time.Location) (Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CalendarGregorian:
		return NewGregorian(startMonth, loc), nil
	case CalendarEthiopian:
		return NewEthiopian(loc), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCalendar, name)
}

func checkQuarter(quarter int) error {
	if quarter < 1 || quarter > 4 {
		return fmt.Errorf("%w: %d", ErrInvalidQuarter, quarter)
	}
	return nil
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
