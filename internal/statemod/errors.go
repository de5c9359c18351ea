package statemod

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/statemod-etl/internal/ts"
)

var (
	// ErrFormat matches every FormatError.
	ErrFormat = errors.New("statemod format error")
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("time series not found")
)

// FormatError reports a file that cannot be read at all: no content, an
// unparseable header or an unusable identifier.
type FormatError struct {
	Line int // 1-based; 0 when the error is not tied to a line
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("statemod: line %d: %s", e.Line, msg)
	}
	return "statemod: " + msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// NotFoundError reports a requested identifier that is not in the file.
type NotFoundError struct {
	TSID      string
	InputName string
}

func (e *NotFoundError) Error() string {
	if e.InputName != "" {
		return fmt.Sprintf("statemod: time series %q not found in %s", e.TSID, e.InputName)
	}
	return fmt.Sprintf("statemod: time series %q not found", e.TSID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// LineParseError wraps a failure decoding a data line with the header
// context needed to find it in the file.
type LineParseError struct {
	Line   int
	Period string
	Units  string
	Err    error
}

func (e *LineParseError) Error() string {
	return fmt.Sprintf("statemod: line %d (period %s, units %q): %v", e.Line, e.Period, e.Units, e.Err)
}

func (e *LineParseError) Unwrap() error { return e.Err }

// ErrorKind classifies a read error for metrics and logs: "format",
// "not_found", "unsupported", "line" or "other".
func ErrorKind(err error) string {
	var lineErr *LineParseError
	switch {
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ts.ErrUnsupported):
		return "unsupported"
	case errors.As(err, &lineErr):
		return "line"
	default:
		return "other"
	}
}
