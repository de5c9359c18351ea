// Package timeutil provides the calendar value and interval types used to
// index StateMod time series.
//
// DateTime is deliberately not a time.Time: StateMod periods are calendar
// months with no clock or zone, the period may start in year 0 (average
// files), and arithmetic must carry field by field the way the data files
// are laid out.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Precision is the finest field a DateTime carries. Fields finer than the
// precision are held at their defaults (month and day 1, clock fields 0).
type Precision int

const (
	PrecisionYear Precision = iota
	PrecisionMonth
	PrecisionDay
	PrecisionHour
	PrecisionMinute
	PrecisionSecond
	PrecisionHundredth
)

func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionMonth:
		return "month"
	case PrecisionDay:
		return "day"
	case PrecisionHour:
		return "hour"
	case PrecisionMinute:
		return "minute"
	case PrecisionSecond:
		return "second"
	case PrecisionHundredth:
		return "hundredth"
	default:
		return "unknown"
	}
}

// DateTime is a mutable calendar value. Copies are made explicitly with
// Clone; all methods take a pointer receiver.
//
// A strict DateTime validates field ranges in its setters. A fast DateTime
// skips validation for bulk iteration where values are known to be valid.
// Derived values (absolute month, day of year, leap year) are always
// computed from the current fields, never cached.
type DateTime struct {
	year      int
	month     int
	day       int
	hour      int
	minute    int
	second    int
	hundredth int
	precision Precision
	fast      bool
}

// NewDateTime returns a zeroed strict DateTime (year 0, January 1, midnight).
func NewDateTime(precision Precision) *DateTime {
	return &DateTime{month: 1, day: 1, precision: precision}
}

// NewDateTimeFast returns a zeroed DateTime whose setters skip validation.
func NewDateTimeFast(precision Precision) *DateTime {
	d := NewDateTime(precision)
	d.fast = true
	return d
}

// NewMonth returns a month-precision DateTime. Month is not validated.
func NewMonth(year, month int) *DateTime {
	return &DateTime{year: year, month: month, day: 1, precision: PrecisionMonth}
}

// NewDay returns a day-precision DateTime. Fields are not validated.
func NewDay(year, month, day int) *DateTime {
	return &DateTime{year: year, month: month, day: day, precision: PrecisionDay}
}

// FromTime converts t (in its own location) to a DateTime at the given precision.
func FromTime(t time.Time, precision Precision) *DateTime {
	d := &DateTime{
		year:      t.Year(),
		month:     int(t.Month()),
		day:       t.Day(),
		hour:      t.Hour(),
		minute:    t.Minute(),
		second:    t.Second(),
		hundredth: t.Nanosecond() / int(10*time.Millisecond),
		precision: precision,
	}
	d.SetPrecision(precision)
	return d
}

// Clone returns an independent copy.
func (d *DateTime) Clone() *DateTime {
	c := *d
	return &c
}

func (d *DateTime) Year() int            { return d.year }
func (d *DateTime) Month() int           { return d.month }
func (d *DateTime) Day() int             { return d.day }
func (d *DateTime) Hour() int            { return d.hour }
func (d *DateTime) Minute() int          { return d.minute }
func (d *DateTime) Second() int          { return d.second }
func (d *DateTime) Hundredth() int       { return d.hundredth }
func (d *DateTime) Precision() Precision { return d.precision }
func (d *DateTime) Fast() bool           { return d.fast }

// SetFast toggles setter validation.
func (d *DateTime) SetFast(fast bool) { d.fast = fast }

// SetYear sets the year. Any integer is valid, including 0 for average files.
func (d *DateTime) SetYear(year int) {
	d.year = year
}

// SetMonth sets the month (1-12).
func (d *DateTime) SetMonth(month int) error {
	if !d.fast && (month < 1 || month > 12) {
		return fmt.Errorf("month %d out of range 1-12", month)
	}
	d.month = month
	return nil
}

// SetDay sets the day of month, validated against the current month and year.
func (d *DateTime) SetDay(day int) error {
	if !d.fast {
		if n := DaysInMonth(d.month, d.year); day < 1 || day > n {
			return fmt.Errorf("day %d out of range 1-%d for %04d-%02d", day, n, d.year, d.month)
		}
	}
	d.day = day
	return nil
}

// SetHour sets the hour (0-23).
func (d *DateTime) SetHour(hour int) error {
	if !d.fast && (hour < 0 || hour > 23) {
		return fmt.Errorf("hour %d out of range 0-23", hour)
	}
	d.hour = hour
	return nil
}

// SetMinute sets the minute (0-59).
func (d *DateTime) SetMinute(minute int) error {
	if !d.fast && (minute < 0 || minute > 59) {
		return fmt.Errorf("minute %d out of range 0-59", minute)
	}
	d.minute = minute
	return nil
}

// SetSecond sets the second (0-59).
func (d *DateTime) SetSecond(second int) error {
	if !d.fast && (second < 0 || second > 59) {
		return fmt.Errorf("second %d out of range 0-59", second)
	}
	d.second = second
	return nil
}

// SetHundredth sets hundredths of a second (0-99).
func (d *DateTime) SetHundredth(hundredth int) error {
	if !d.fast && (hundredth < 0 || hundredth > 99) {
		return fmt.Errorf("hundredth %d out of range 0-99", hundredth)
	}
	d.hundredth = hundredth
	return nil
}

// SetPrecision declares the precision and resets every finer field to its
// default. It is idempotent.
func (d *DateTime) SetPrecision(p Precision) {
	d.precision = p
	if p < PrecisionHundredth {
		d.hundredth = 0
	}
	if p < PrecisionSecond {
		d.second = 0
	}
	if p < PrecisionMinute {
		d.minute = 0
	}
	if p < PrecisionHour {
		d.hour = 0
	}
	if p < PrecisionDay {
		d.day = 1
	}
	if p < PrecisionMonth {
		d.month = 1
	}
}

// IsLeapYear reports whether the current year is a leap year.
func (d *DateTime) IsLeapYear() bool {
	return IsLeapYear(d.year)
}

// AbsoluteMonth returns year*12 + month.
func (d *DateTime) AbsoluteMonth() int {
	return AbsoluteMonth(d.year, d.month)
}

// YearDay returns the 1-based day of the year.
func (d *DateTime) YearDay() int {
	n := d.day
	for m := 1; m < d.month && m <= 12; m++ {
		n += DaysInMonth(m, d.year)
	}
	return n
}

// Compare returns -1, 0 or +1 comparing d to o field by field from year
// down to the receiver's precision.
func (d *DateTime) Compare(o *DateTime) int {
	a := d.fields()
	b := o.fields()
	for i := 0; i <= int(d.precision) && i < len(a); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

func (d *DateTime) Equal(o *DateTime) bool  { return d.Compare(o) == 0 }
func (d *DateTime) Before(o *DateTime) bool { return d.Compare(o) < 0 }
func (d *DateTime) After(o *DateTime) bool  { return d.Compare(o) > 0 }

func (d *DateTime) fields() [7]int {
	return [7]int{d.year, d.month, d.day, d.hour, d.minute, d.second, d.hundredth}
}

// Time converts d to a UTC time.Time.
func (d *DateTime) Time() time.Time {
	return time.Date(d.year, time.Month(d.month), d.day, d.hour, d.minute, d.second,
		d.hundredth*int(10*time.Millisecond), time.UTC)
}

// String formats d to its precision, e.g. "2010-01" for month precision
// or "2010-01-15 06:30:00.25" for hundredths.
func (d *DateTime) String() string {
	s := fmt.Sprintf("%04d", d.year)
	if d.precision >= PrecisionMonth {
		s += fmt.Sprintf("-%02d", d.month)
	}
	if d.precision >= PrecisionDay {
		s += fmt.Sprintf("-%02d", d.day)
	}
	if d.precision >= PrecisionHour {
		s += fmt.Sprintf(" %02d", d.hour)
	}
	if d.precision >= PrecisionMinute {
		s += fmt.Sprintf(":%02d", d.minute)
	}
	if d.precision >= PrecisionSecond {
		s += fmt.Sprintf(":%02d", d.second)
	}
	if d.precision >= PrecisionHundredth {
		s += fmt.Sprintf(".%02d", d.hundredth)
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (d *DateTime) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DateTime) UnmarshalText(b []byte) error {
	parsed, err := ParseDateTime(string(b))
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

var (
	isoDateRe   = regexp.MustCompile(`^(-?\d{1,4})(?:-(\d{1,2})(?:-(\d{1,2})(?:[ T](\d{1,2})(?::(\d{1,2})(?::(\d{1,2})(?:\.(\d{1,2}))?)?)?)?)?)?$`)
	monthYearRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,4})$`)
	usDateRe    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{1,4})$`)
)

// ParseDateTime parses "YYYY", "YYYY-MM", "MM/YYYY", "YYYY-MM-DD",
// "MM/DD/YYYY" and "YYYY-MM-DD hh[:mm[:ss[.hh]]]". The precision is taken
// from the most specific field present. Fields are range-checked.
func ParseDateTime(s string) (*DateTime, error) {
	var parts []string
	switch {
	case monthYearRe.MatchString(s):
		m := monthYearRe.FindStringSubmatch(s)
		parts = []string{m[2], m[1]}
	case usDateRe.MatchString(s):
		m := usDateRe.FindStringSubmatch(s)
		parts = []string{m[3], m[1], m[2]}
	case isoDateRe.MatchString(s):
		m := isoDateRe.FindStringSubmatch(s)
		for _, p := range m[1:] {
			if p == "" {
				break
			}
			parts = append(parts, p)
		}
	default:
		return nil, fmt.Errorf("parse date/time %q: unrecognized format", s)
	}
	d := NewDateTime(Precision(len(parts) - 1))
	values := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parse date/time %q: %w", s, err)
		}
		values[i] = n
	}

	d.SetYear(values[0])
	setters := []func(int) error{d.SetMonth, d.SetDay, d.SetHour, d.SetMinute, d.SetSecond, d.SetHundredth}
	for i, v := range values[1:] {
		if err := setters[i](v); err != nil {
			return nil, fmt.Errorf("parse date/time %q: %w", s, err)
		}
	}
	return d, nil
}
