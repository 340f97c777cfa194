package fiscal

import (
	"fmt"
	"time"

	"github.com/theirongolddev/costcmp/internal/model"
)

const (
	// Julian day number of Meskerem 1, year 1 (Amete Mihret era).
	ethiopianEpoch = 1724221
	// Julian day number of 1970-01-01.
	unixEpochJDN = 2440588
)

// Ethiopian month numbers used by the fiscal year.
const (
	Meskerem = 1
	Tikimt   = 2
	Tir      = 5
	Miyazya  = 8
	Hamle    = 11
	Pagume   = 13
)

var ethiopianMonthNames = [...]string{
	"Meskerem", "Tikimt", "Hidar", "Tahsas", "Tir", "Yekatit", "Megabit",
	"Miyazya", "Ginbot", "Sene", "Hamle", "Nehase", "Pagume",
}

// EthiopianDate is a day in the Ethiopian calendar. Months 1-12 have 30
// days; Pagume (13) has 5, or 6 when Year%4 == 3.
type EthiopianDate struct {
	Year  int
	Month int
	Day   int
}

// MonthName returns the Ethiopian month name.
func (d EthiopianDate) MonthName() string {
	if d.Month < 1 || d.Month > len(ethiopianMonthNames) {
		return "?"
	}
	return ethiopianMonthNames[d.Month-1]
}

func (d EthiopianDate) String() string {
	return fmt.Sprintf("%s %d, %d", d.MonthName(), d.Day, d.Year)
}

func (d EthiopianDate) jdn() int {
	return ethiopianEpoch + 365*(d.Year-1) + d.Year/4 + 30*(d.Month-1) + d.Day - 1
}

// Time returns midnight of the Gregorian day matching d, in loc.
func (d EthiopianDate) Time(loc *time.Location) time.Time {
	return fromJDN(d.jdn(), orUTC(loc))
}

// ToEthiopian converts the calendar day of t (in its own location).
func ToEthiopian(t time.Time) EthiopianDate {
	off := toJDN(t) - ethiopianEpoch
	year := (4*off + 1463) / 1461
	doy := off - (365*(year-1) + year/4)
	return EthiopianDate{Year: year, Month: doy/30 + 1, Day: doy%30 + 1}
}

func toJDN(t time.Time) int {
	y, m, d := t.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	return int(days) + unixEpochJDN
}

func fromJDN(jdn int, loc *time.Location) time.Time {
	u := time.Unix(int64(jdn-unixEpochJDN)*86400, 0).UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, loc)
}

// Ethiopian is the Ethiopian government fiscal calendar. The fiscal year runs
// from Hamle 1 to Sene 30 and is named after the Ethiopian year it ends in:
//
//	Q1  Hamle, Nehase, Pagume, Meskerem
//	Q2  Tikimt .. Tahsas
//	Q3  Tir .. Megabit
//	Q4  Miyazya .. Sene
type Ethiopian struct {
	Location *time.Location
}

// NewEthiopian returns an Ethiopian resolver evaluating days in loc.
func NewEthiopian(loc *time.Location) *Ethiopian {
	return &Ethiopian{Location: orUTC(loc)}
}

func (e *Ethiopian) Name() string { return CalendarEthiopian }

func (e *Ethiopian) CurrentFiscalQuarter(now time.Time) Quarter {
	d := ToEthiopian(now.In(e.Location))
	switch {
	case d.Month >= Hamle:
		return Quarter{FiscalYear: d.Year + 1, Number: 1}
	case d.Month == Meskerem:
		return Quarter{FiscalYear: d.Year, Number: 1}
	case d.Month < Tir:
		return Quarter{FiscalYear: d.Year, Number: 2}
	case d.Month < Miyazya:
		return Quarter{FiscalYear: d.Year, Number: 3}
	default:
		return Quarter{FiscalYear: d.Year, Number: 4}
	}
}

func (e *Ethiopian) FiscalQuarterRange(quarter, fiscalYear int) (model.DateRange, error) {
	if err := checkQuarter(quarter); err != nil {
		return model.DateRange{}, err
	}
	start := quarterStart(quarter, fiscalYear).Time(e.Location)
	q := Quarter{FiscalYear: fiscalYear, Number: quarter}.Next()
	next := quarterStart(q.Number, q.FiscalYear).Time(e.Location)
	return model.NewDayRange(start, next.AddDate(0, 0, -1)), nil
}

func quarterStart(quarter, fiscalYear int) EthiopianDate {
	switch quarter {
	case 1:
		return EthiopianDate{Year: fiscalYear - 1, Month: Hamle, Day: 1}
	case 2:
		return EthiopianDate{Year: fiscalYear, Month: Tikimt, Day: 1}
	case 3:
		return EthiopianDate{Year: fiscalYear, Month: Tir, Day: 1}
	default:
		return EthiopianDate{Year: fiscalYear, Month: Miyazya, Day: 1}
	}
}
