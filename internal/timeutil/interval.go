package timeutil

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnknownInterval is returned when an interval string has no recognized unit.
var ErrUnknownInterval = errors.New("unknown interval")

// IntervalBase is the base unit of a time-series interval.
type IntervalBase int

const (
	IntervalUnknown IntervalBase = iota
	IntervalHundredth
	IntervalSecond
	IntervalMinute
	IntervalHour
	IntervalDay
	IntervalWeek
	IntervalMonth
	IntervalYear
	IntervalIrregular
)

var intervalNames = map[IntervalBase]string{
	IntervalUnknown:   "Unknown",
	IntervalHundredth: "Hsec",
	IntervalSecond:    "Sec",
	IntervalMinute:    "Min",
	IntervalHour:      "Hour",
	IntervalDay:       "Day",
	IntervalWeek:      "Week",
	IntervalMonth:     "Month",
	IntervalYear:      "Year",
	IntervalIrregular: "Irregular",
}

func (b IntervalBase) String() string {
	if s, ok := intervalNames[b]; ok {
		return s
	}
	return "Unknown"
}

// intervalPrefixes is matched in order against the upper-cased unit text;
// the first prefix that matches wins.
var intervalPrefixes = []struct {
	prefix string
	base   IntervalBase
}{
	{"MIN", IntervalMinute},
	{"HOUR", IntervalHour},
	{"HR", IntervalHour},
	{"DAY", IntervalDay},
	{"DAI", IntervalDay},
	{"SEC", IntervalSecond},
	{"WEEK", IntervalWeek},
	{"WK", IntervalWeek},
	{"MON", IntervalMonth},
	{"YEAR", IntervalYear},
	{"YR", IntervalYear},
	{"IRR", IntervalIrregular},
}

// Interval is a parsed multiplier and base unit, e.g. "6Month".
type Interval struct {
	Base       IntervalBase
	Multiplier int
	// BaseString is the unit text as it appeared in the parsed string.
	BaseString string
}

// Month is the single-month interval used by StateMod monthly files.
var Month = Interval{Base: IntervalMonth, Multiplier: 1, BaseString: "Month"}

// ParseInterval parses a multiplier+unit string such as "Month", "6Month",
// "24Hour" or "Irregular". A string made only of digits is treated as that
// many hours. An unrecognized unit yields IntervalUnknown and ErrUnknownInterval.
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Interval{Base: IntervalUnknown, Multiplier: 1}, ErrUnknownInterval
	}

	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}

	mult := 1
	if digits > 0 {
		n, err := strconv.Atoi(s[:digits])
		if err != nil {
			return Interval{Base: IntervalUnknown, Multiplier: 1}, ErrUnknownInterval
		}
		mult = n
	}

	if digits == len(s) {
		return Interval{Base: IntervalHour, Multiplier: mult}, nil
	}

	unit := s[digits:]
	upper := strings.ToUpper(unit)
	for _, p := range intervalPrefixes {
		if strings.HasPrefix(upper, p.prefix) {
			return Interval{Base: p.base, Multiplier: mult, BaseString: unit}, nil
		}
	}
	return Interval{Base: IntervalUnknown, Multiplier: mult, BaseString: unit}, ErrUnknownInterval
}

// String renders the interval as "[multiplier]Unit"; a multiplier of 1 is
// omitted. It does not necessarily reproduce the parsed text.
func (i Interval) String() string {
	if i.Base == IntervalIrregular || i.Multiplier <= 1 {
		return i.Base.String()
	}
	return strconv.Itoa(i.Multiplier) + i.Base.String()
}

// IsMonthly reports whether the interval is exactly one month.
func (i Interval) IsMonthly() bool {
	return i.Base == IntervalMonth && i.Multiplier == 1
}
