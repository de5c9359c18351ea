package statemod

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/statemod-etl/internal/timeutil"
	"github.com/couchcryptid/statemod-etl/internal/tokenize"
)

// YearType is the 12-month convention a data line's year refers to.
type YearType int

const (
	// CalendarYear lines hold January through December of the line year.
	CalendarYear YearType = iota
	// WaterYear lines hold October of the previous year through September.
	WaterYear
	// IrrigationYear lines hold November of the previous year through October.
	IrrigationYear
)

// ParseYearType maps the header code (CYR, WYR, IYR) to a YearType. Blank
// and unrecognized codes are calendar years.
func ParseYearType(code string) YearType {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "WYR":
		return WaterYear
	case "IYR":
		return IrrigationYear
	default:
		return CalendarYear
	}
}

func (y YearType) String() string {
	switch y {
	case WaterYear:
		return "WYR"
	case IrrigationYear:
		return "IYR"
	default:
		return "CYR"
	}
}

// FirstMonth returns the calendar year and month of the first value on a
// data line labelled lineYear.
func (y YearType) FirstMonth(lineYear int) (year, month int) {
	switch y {
	case WaterYear:
		return lineYear - 1, 10
	case IrrigationYear:
		return lineYear - 1, 11
	default:
		return lineYear, 1
	}
}

func isYearTypeCode(s string) bool {
	switch strings.ToUpper(s) {
	case "CYR", "WYR", "IYR":
		return true
	}
	return false
}

// Header is the first non-comment line of a StateMod file, e.g.
//
//	    1/1950  -     12/2010 ACFT  CYR
type Header struct {
	Month1   int
	Year1    int
	Month2   int
	Year2    int
	Units    string
	YearType YearType
}

var (
	// Standard layout: month in 5 columns, "/" at index 5.
	standardHeader = mustFields("i5x1i4x5i5x1i4")
	// Alternate layout: month in 3 columns, "/" at index 3.
	alternateHeader = mustFields("i3x1i4x5i3x1i4")

	// headerRe accepts free-form headers such as
	// "  1 2010  12 2010MONTHLY          WYR".
	headerRe = regexp.MustCompile(`^\s*(\d{1,2})\s*[/ ]\s*(\d{1,4})\s*-?\s*(\d{1,2})\s*[/ ]\s*(\d{1,4})(.*)$`)
)

func mustFields(format string) []tokenize.Field {
	f, err := tokenize.ParseFormat(format)
	if err != nil {
		panic(err)
	}
	return f
}

func fixedLayoutWidth(fields []tokenize.Field) int {
	n := 0
	for _, f := range fields {
		n += f.Width
	}
	return n
}

// ParseHeader reads the period, units and year type from a header line.
func ParseHeader(line string) (Header, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Header{}, errors.New("empty header")
	}

	var layout []tokenize.Field
	switch {
	case len(line) > 5 && line[5] == '/':
		layout = standardHeader
	case len(line) > 3 && line[3] == '/':
		layout = alternateHeader
	}

	var (
		h    Header
		rest string
	)
	if layout != nil {
		values, err := tokenize.FixedWidth(line, layout)
		if err != nil {
			return Header{}, fmt.Errorf("header %q: %w", line, err)
		}
		h.Month1, h.Year1, h.Month2, h.Year2 = values[0].Int, values[1].Int, values[2].Int, values[3].Int
		if w := fixedLayoutWidth(layout); len(line) > w {
			rest = line[w:]
		}
	} else {
		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			return Header{}, fmt.Errorf("header %q: expected \"MM/YYYY - MM/YYYY units\"", line)
		}
		h.Month1, _ = strconv.Atoi(m[1])
		h.Year1, _ = strconv.Atoi(m[2])
		h.Month2, _ = strconv.Atoi(m[3])
		h.Year2, _ = strconv.Atoi(m[4])
		rest = m[5]
	}

	if h.Month1 < 1 || h.Month1 > 12 || h.Month2 < 1 || h.Month2 > 12 {
		return Header{}, fmt.Errorf("header %q: month out of range", line)
	}
	// Average files label their months within year 0, so only dated
	// periods are ordered.
	if !h.Average() && h.End().Before(h.Start()) {
		return Header{}, fmt.Errorf("header %q: end %s before start %s", line, h.End(), h.Start())
	}

	tokens := tokenize.Split(rest, " \t", tokenize.SplitOptions{SkipBlanks: true})
	if n := len(tokens); n > 0 && isYearTypeCode(tokens[n-1]) {
		h.YearType = ParseYearType(tokens[n-1])
		tokens = tokens[:n-1]
	}
	h.Units = strings.Join(tokens, " ")
	return h, nil
}

// Average reports whether the file holds long-term monthly averages rather
// than a dated record. Such files use year 0 in the header.
func (h Header) Average() bool { return h.Year1 == 0 }

// Start returns the first month of the header period.
func (h Header) Start() *timeutil.DateTime { return timeutil.NewMonth(h.Year1, h.Month1) }

// End returns the last month of the header period.
func (h Header) End() *timeutil.DateTime { return timeutil.NewMonth(h.Year2, h.Month2) }

// FirstDataYear is the year label expected on the first data line. Water
// and irrigation year files start in the previous calendar year, so their
// first line carries year1 + 1.
func (h Header) FirstDataYear() int {
	if h.Month2 < h.Month1 {
		return h.Year1 + 1
	}
	return h.Year1
}

// Period formats the header period for messages.
func (h Header) Period() string {
	return fmt.Sprintf("%02d/%04d - %02d/%04d", h.Month1, h.Year1, h.Month2, h.Year2)
}
