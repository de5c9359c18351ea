// Package ts holds the in-memory time-series model. Only monthly series are
// supported; every other interval is rejected with an UnsupportedError rather
// than stubbed.
package ts

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/statemod-etl/internal/timeutil"
	"github.com/couchcryptid/statemod-etl/internal/tsident"
)

// Kind identifies the concrete series type behind a Series.
type Kind int

const (
	KindMonthly Kind = iota + 1
)

func (k Kind) String() string {
	if k == KindMonthly {
		return "monthly"
	}
	return "unknown"
}

// ErrUnsupported matches every UnsupportedError via errors.Is.
var ErrUnsupported = errors.New("unsupported time series")

// UnsupportedError reports an interval or file variant that has no series
// implementation.
type UnsupportedError struct {
	Interval timeutil.Interval
	Reason   string
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported time series: %s", e.Reason)
	}
	return fmt.Sprintf("unsupported time series interval %s", e.Interval)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// Series is the common surface of every supported series type.
type Series interface {
	Kind() Kind
	Ident() *tsident.Ident
	Date1() *timeutil.DateTime
	Date2() *timeutil.DateTime
	Interval() timeutil.Interval
	Units() string
	Missing() float64
	IsMissing(v float64) bool
	Allocate(start, end *timeutil.DateTime) error
	Value(d *timeutil.DateTime) float64
	SetValue(d *timeutil.DateTime, v float64)
}

// New returns an empty series for interval.
func New(interval timeutil.Interval) (Series, error) {
	if interval.IsMonthly() {
		return NewMonthTS(), nil
	}
	return nil, &UnsupportedError{Interval: interval}
}
