package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
)

// ErrNoCustomRanges is returned when custom mode is selected without ranges.
var ErrNoCustomRanges = errors.New("custom mode requires both period ranges")

// SelectPeriods derives the two comparison windows for mode, anchored on now.
// Period2 contains now and Period1 is the one before it. Custom mode returns
// the caller's ranges untouched, overlapping or not.
//
// Errors from the resolver (ErrInvalidQuarter) are returned unchanged.
func SelectPeriods(res fiscal.Resolver, mode model.Mode, now time.Time, custom *model.PeriodPair) (model.PeriodPair, error) {
	if mode == model.ModeCustom {
		if custom == nil {
			return model.PeriodPair{}, ErrNoCustomRanges
		}
		return *custom, nil
	}

	if mode == model.ModeQuarter {
		q := res.CurrentFiscalQuarter(now)
		current, err := q.Range(res)
		if err != nil {
			return model.PeriodPair{}, err
		}
		previous, err := q.Previous().Range(res)
		if err != nil {
			return model.PeriodPair{}, err
		}
		return model.PeriodPair{Period1: previous, Period2: current}, nil
	}

	current, err := CurrentPeriod(res, mode, now)
	if err != nil {
		return model.PeriodPair{}, err
	}
	previous, err := PreviousPeriod(res, mode, current)
	if err != nil {
		return model.PeriodPair{}, err
	}
	return model.PeriodPair{Period1: previous, Period2: current}, nil
}

// CurrentPeriod returns the month, fiscal quarter or calendar year containing now.
func CurrentPeriod(res fiscal.Resolver, mode model.Mode, now time.Time) (model.DateRange, error) {
	switch mode {
	case model.ModeMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return model.NewDayRange(first, first.AddDate(0, 1, -1)), nil
	case model.ModeYear:
		return yearRange(now.Year(), now.Location()), nil
	case model.ModeQuarter:
		return res.CurrentFiscalQuarter(now).Range(res)
	}
	return model.DateRange{}, fmt.Errorf("%w: %q", model.ErrUnknownMode, mode)
}

// PreviousPeriod returns the period of the same mode that precedes r.
// r must be a period previously produced for that mode.
func PreviousPeriod(res fiscal.Resolver, mode model.Mode, r model.DateRange) (model.DateRange, error) {
	switch mode {
	case model.ModeMonth:
		first := time.Date(r.Start.Year(), r.Start.Month()-1, 1, 0, 0, 0, 0, r.Start.Location())
		return model.NewDayRange(first, first.AddDate(0, 1, -1)), nil
	case model.ModeYear:
		return yearRange(r.Start.Year()-1, r.Start.Location()), nil
	case model.ModeQuarter:
		return res.CurrentFiscalQuarter(r.Start).Previous().Range(res)
	}
	return model.DateRange{}, fmt.Errorf("%w: %q", model.ErrUnknownMode, mode)
}

// PeriodLabel names a period for tables and chart axes.
func PeriodLabel(res fiscal.Resolver, mode model.Mode, r model.DateRange) string {
	switch mode {
	case model.ModeMonth:
		return r.Start.Format("Jan 2006")
	case model.ModeYear:
		return r.Start.Format("2006")
	case model.ModeQuarter:
		return res.CurrentFiscalQuarter(r.Start).String()
	}
	return r.String()
}

func yearRange(year int, loc *time.Location) model.DateRange {
	return model.NewDayRange(
		time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		time.Date(year, time.December, 31, 0, 0, 0, 0, loc),
	)
}
