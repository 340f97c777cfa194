package fiscal

import (
	"time"

	"github.com/theirongolddev/costcmp/internal/model"
)

// Gregorian is a fiscal calendar whose year starts on the first day of
// StartMonth. A fiscal year is named after the calendar year it ends in, so
// with a July start FY2025 runs from 2024-07-01 to 2025-06-30.
type Gregorian struct {
	StartMonth time.Month
	Location   *time.Location
}

// NewGregorian returns a Gregorian resolver. Invalid months fall back to January.
func NewGregorian(startMonth time.Month, loc *time.Location) *Gregorian {
	if startMonth < time.January || startMonth > time.December {
		startMonth = time.January
	}
	return &Gregorian{StartMonth: startMonth, Location: orUTC(loc)}
}

func (g *Gregorian) Name() string { return CalendarGregorian }

func (g *Gregorian) CurrentFiscalQuarter(now time.Time) Quarter {
	t := now.In(g.Location)
	offset := (int(t.Month()) - int(g.StartMonth) + 12) % 12

	fy := t.Year()
	if g.StartMonth != time.January && t.Month() >= g.StartMonth {
		fy++
	}
	return Quarter{FiscalYear: fy, Number: offset/3 + 1}
}

func (g *Gregorian) FiscalQuarterRange(quarter, fiscalYear int) (model.DateRange, error) {
	if err := checkQuarter(quarter); err != nil {
		return model.DateRange{}, err
	}

	startYear := fiscalYear
	if g.StartMonth != time.January {
		startYear--
	}
	// time.Date normalizes month overflow into the following year.
	start := time.Date(startYear, g.StartMonth+time.Month(3*(quarter-1)), 1, 0, 0, 0, 0, g.Location)
	last := start.AddDate(0, 3, -1)
	return model.NewDayRange(start, last), nil
}
