package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBadRange is returned when a range argument is not "YYYY-MM-DD..YYYY-MM-DD".
var ErrBadRange = errors.New("range must look like YYYY-MM-DD..YYYY-MM-DD")

// DateRange is an inclusive interval whose bounds sit on day boundaries:
// Start at 00:00:00.000 and End at 23:59:59.999.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PeriodPair holds the earlier (Period1) and later (Period2) comparison windows.
type PeriodPair struct {
	Period1 DateRange `json:"period1"`
	Period2 DateRange `json:"period2"`
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay moves t to the last millisecond of its day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// NewDayRange builds a range covering whole days from..to.
func NewDayRange(from, to time.Time) DateRange {
	return DateRange{Start: StartOfDay(from), End: EndOfDay(to)}
}

// Contains reports whether t falls within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days returns the number of calendar days the range covers.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	s := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours()/24) + 1
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
}

// ParseDayRange parses "YYYY-MM-DD..YYYY-MM-DD" as whole days in loc.
// The bounds are taken as given; a reversed range is not an error.
func ParseDayRange(s string, loc *time.Location) (DateRange, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), "..")
	if !ok {
		return DateRange{}, fmt.Errorf("%w: %q", ErrBadRange, s)
	}
	start, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(from), loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: %q", ErrBadRange, s)
	}
	end, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(to), loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: %q", ErrBadRange, s)
	}
	return NewDayRange(start, end), nil
}

// ParseInstant parses an RFC 3339 timestamp, or a bare date taken as
// midday in loc so it lands on that day in any zone offset.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want RFC3339 or YYYY-MM-DD)", s)
	}
	return d.Add(12 * time.Hour), nil
}
