package ts

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/statemod-etl/internal/timeutil"
)

// MonthTS is a monthly series stored as a dense grid of
// [year - date1.year][month - 1]. Months in the first and last rows that fall
// outside the period stay allocated but are never read or written.
type MonthTS struct {
	Header

	data   [][12]float64
	minAbs int
	maxAbs int

	limits *Limits
}

// NewMonthTS returns an empty, unallocated monthly series.
func NewMonthTS() *MonthTS {
	return &MonthTS{Header: newHeader(timeutil.Month)}
}

func (m *MonthTS) Kind() Kind { return KindMonthly }

// Allocate sizes the grid for [start, end] and fills it with the missing
// value. Both dates are copied and truncated to month precision.
func (m *MonthTS) Allocate(start, end *timeutil.DateTime) error {
	if m.interval.Multiplier != 1 {
		return &UnsupportedError{Interval: m.interval, Reason: fmt.Sprintf("%d-month series", m.interval.Multiplier)}
	}
	if start == nil || end == nil {
		return errors.New("allocate monthly series: period start and end are required")
	}

	d1 := start.Clone()
	d1.SetPrecision(timeutil.PrecisionMonth)
	d2 := end.Clone()
	d2.SetPrecision(timeutil.PrecisionMonth)
	if d2.Before(d1) {
		return fmt.Errorf("allocate monthly series: end %s before start %s", d2, d1)
	}

	rows := d2.Year() - d1.Year() + 1
	m.data = make([][12]float64, rows)
	for i := range m.data {
		for j := range m.data[i] {
			m.data[i][j] = m.missing
		}
	}

	m.date1, m.date2 = d1, d2
	if m.date1Original == nil {
		m.date1Original = d1.Clone()
	}
	if m.date2Original == nil {
		m.date2Original = d2.Clone()
	}
	m.minAbs = d1.AbsoluteMonth()
	m.maxAbs = d2.AbsoluteMonth()
	m.dirty = true
	m.limits = nil
	return nil
}

// Allocated reports whether Allocate has succeeded.
func (m *MonthTS) Allocated() bool { return m.data != nil }

func (m *MonthTS) index(d *timeutil.DateTime) (row, col int, ok bool) {
	if m.data == nil || d == nil || d.Month() < 1 || d.Month() > 12 {
		return 0, 0, false
	}
	abs := d.AbsoluteMonth()
	if abs < m.minAbs || abs > m.maxAbs {
		return 0, 0, false
	}
	return d.Year() - m.date1.Year(), d.Month() - 1, true
}

// Value returns the value for the month of d, or the missing value when d is
// outside the period.
func (m *MonthTS) Value(d *timeutil.DateTime) float64 {
	row, col, ok := m.index(d)
	if !ok {
		return m.missing
	}
	return m.data[row][col]
}

// SetValue stores v for the month of d. Dates outside the period, or with a
// month outside 1-12, are ignored.
func (m *MonthTS) SetValue(d *timeutil.DateTime, v float64) {
	row, col, ok := m.index(d)
	if !ok {
		return
	}
	m.data[row][col] = v
	m.dirty = true
}

// Each calls fn for every month in the period in order. fn receives its own
// copy of the date.
func (m *MonthTS) Each(fn func(d *timeutil.DateTime, v float64)) {
	if m.data == nil {
		return
	}
	d := m.date1.Clone()
	for d.AbsoluteMonth() <= m.maxAbs {
		fn(d.Clone(), m.Value(d))
		d.AddMonth(1)
	}
}

// Len returns the number of months in the period.
func (m *MonthTS) Len() int {
	if m.data == nil {
		return 0
	}
	return m.maxAbs - m.minAbs + 1
}

// Limits summarizes the non-missing values of a series.
type Limits struct {
	Min   float64
	Max   float64
	Sum   float64
	Mean  float64
	Count int
	// First and Last are the first and last months holding a non-missing
	// value; nil when every value is missing.
	First *timeutil.DateTime
	Last  *timeutil.DateTime
}

// Limits returns the data limits, recomputing them when values changed.
func (m *MonthTS) Limits() Limits {
	if m.limits == nil || m.dirty {
		l := ComputeLimits(m)
		m.limits = &l
		m.dirty = false
	}
	return *m.limits
}

// ComputeLimits scans every month of s.
func ComputeLimits(s *MonthTS) Limits {
	var l Limits
	s.Each(func(d *timeutil.DateTime, v float64) {
		if s.IsMissing(v) {
			return
		}
		if l.Count == 0 {
			l.Min, l.Max = v, v
			l.First = d
		}
		l.Min = min(l.Min, v)
		l.Max = max(l.Max, v)
		l.Sum += v
		l.Count++
		l.Last = d
	})
	if l.Count > 0 {
		l.Mean = l.Sum / float64(l.Count)
	}
	return l
}
