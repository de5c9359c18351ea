// Package statemod reads StateMod fixed-column time-series files into
// monthly series. The reader takes text that has already been loaded and
// split into lines; it performs no I/O.
package statemod

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/statemod-etl/internal/timeutil"
	"github.com/couchcryptid/statemod-etl/internal/tokenize"
	"github.com/couchcryptid/statemod-etl/internal/ts"
	"github.com/couchcryptid/statemod-etl/internal/tsident"
)

const (
	// InputType is the input type recorded in identifiers of series read
	// by this package.
	InputType = "StateMod"

	// dailyLineThreshold is the data line length above which a file is
	// taken to hold daily values (up to 31 per line).
	dailyLineThreshold = 150

	monthsPerLine = 12
)

// monthlyLine is year(I5) stationId(A12) value1..value12(F8).
var monthlyLine = mustFields("i5s12" + strings.Repeat("f8", monthsPerLine))

// stationKey is year(I5) stationId(A12), enough to peek at a line.
var stationKey = mustFields("i5s12")

// ReadOptions controls a read.
type ReadOptions struct {
	// InputName is the file path recorded in each identifier.
	InputName string
	// Start and End override the header period. Both must be set for the
	// override to apply. End alone stops reading at that month without
	// changing the period.
	Start *timeutil.DateTime
	End   *timeutil.DateTime
	// DataType is the identifier data type. When empty it is derived from
	// the InputName extension.
	DataType string
	// Source is the identifier source, e.g. "StateMod" or an agency code.
	Source string
}

// Reader parses StateMod files. It holds no per-read state and is safe for
// concurrent use.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader. A nil logger uses slog.Default.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// stationLine is one decoded monthly data line.
type stationLine struct {
	year    int
	station string
	values  []float64
}

// numberedLine is a data line with its 1-based position in the file.
type numberedLine struct {
	number int
	text   string
}

// ReadTimeSeries reads the single series identified by tsid. Only the
// location part of tsid selects the station; the other parts are carried
// into the returned identifier. A file holding one station repeated across
// years is returned even when its id differs from the requested location.
func (r *Reader) ReadTimeSeries(lines []string, tsid string, opts ReadOptions) (*ts.MonthTS, error) {
	req, err := tsident.Parse(tsid, tsident.Options{})
	if err != nil {
		return nil, &FormatError{Msg: fmt.Sprintf("time series identifier %q", tsid), Err: err}
	}
	if req.Interval() != "" {
		if _, err := ts.New(req.IntervalValue()); err != nil {
			return nil, err
		}
	}

	series, err := r.read(lines, req, opts)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, &NotFoundError{TSID: tsid, InputName: opts.InputName}
	}
	return series[0], nil
}

// ReadTimeSeriesList reads every station in the file, in order of first
// appearance.
func (r *Reader) ReadTimeSeriesList(lines []string, opts ReadOptions) ([]*ts.MonthTS, error) {
	return r.read(lines, nil, opts)
}

func (r *Reader) read(lines []string, req *tsident.Ident, opts ReadOptions) ([]*ts.MonthTS, error) {
	if len(lines) == 0 {
		return nil, &FormatError{Msg: "empty file"}
	}

	headerIdx := -1
	var data []numberedLine
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if isComment(line) {
			continue
		}
		if headerIdx < 0 {
			headerIdx = i
			continue
		}
		data = append(data, numberedLine{number: i + 1, text: line})
	}
	if headerIdx < 0 {
		return nil, &FormatError{Msg: "no header line"}
	}

	hdr, err := ParseHeader(lines[headerIdx])
	if err != nil {
		return nil, &FormatError{Line: headerIdx + 1, Msg: "read header", Err: err}
	}
	log := r.logger.With("input", opts.InputName, "period", hdr.Period())

	if len(data) == 0 {
		log.Warn("statemod file has no data lines")
		return nil, nil
	}
	if len(data[0].text) > dailyLineThreshold {
		return nil, &ts.UnsupportedError{
			Interval: timeutil.Interval{Base: timeutil.IntervalDay, Multiplier: 1},
			Reason:   "daily StateMod files",
		}
	}

	lineErr := func(number int, err error) error {
		return &LineParseError{Line: number, Period: hdr.Period(), Units: hdr.Units, Err: err}
	}

	first, err := parseStationLine(data[0])
	if err != nil {
		return nil, lineErr(data[0].number, err)
	}

	single := false
	if len(data) > 1 {
		second, err := tokenize.FixedWidth(data[1].text, stationKey)
		if err != nil {
			return nil, lineErr(data[1].number, err)
		}
		single = strings.TrimSpace(second[1].Str) == first.station && second[0].Int != first.year
	}

	average := hdr.Average()
	if !average && first.year != hdr.FirstDataYear() {
		log.Warn("first data year does not match header",
			"expected", hdr.FirstDataYear(), "actual", first.year)
	}

	start, end := r.period(hdr, opts)
	b := &seriesBuilder{
		hdr:   hdr,
		opts:  opts,
		req:   req,
		start: start,
		end:   end,
	}

	var (
		series  = make(map[string]*ts.MonthTS)
		ordered []*ts.MonthTS
		skipped = make(map[string]bool)
	)
	for _, nl := range data {
		rec, err := parseStationLine(nl)
		if err != nil {
			return nil, lineErr(nl.number, err)
		}

		if opts.End != nil && !average {
			y, m := hdr.YearType.FirstMonth(rec.year)
			if timeutil.NewMonth(y, m).After(opts.End) {
				break
			}
		}

		s, known := series[rec.station]
		if !known {
			if skipped[rec.station] {
				continue
			}
			if !average && rec.year != first.year {
				log.Warn("skipping station not present in first year",
					"station", rec.station, "line", nl.number, "year", rec.year)
				skipped[rec.station] = true
				continue
			}
			if req != nil && !single && !req.MatchesLocation(rec.station) {
				skipped[rec.station] = true
				continue
			}
			s, err = b.build(rec.station)
			if err != nil {
				return nil, lineErr(nl.number, err)
			}
			series[rec.station] = s
			ordered = append(ordered, s)
		}

		place(s, hdr.YearType, rec, average, opts.End)
	}

	if req != nil && single && len(ordered) == 1 && !req.MatchesLocation(first.station) {
		log.Warn("requested location does not match single time series file, using file id",
			"requested", req.Location(), "station", first.station)
	}
	return ordered, nil
}

// period returns the allocation period: the caller override when both
// dates are given, year 0 for average files, else the header period.
func (r *Reader) period(hdr Header, opts ReadOptions) (start, end *timeutil.DateTime) {
	switch {
	case opts.Start != nil && opts.End != nil:
		return opts.Start.Clone(), opts.End.Clone()
	case hdr.Average():
		return timeutil.NewMonth(0, 1), timeutil.NewMonth(0, 12)
	default:
		return hdr.Start(), hdr.End()
	}
}

// place writes the values of one line, advancing a month per value, and
// stops once the cursor passes end. In average files every value lands in
// year 0 at its year-type month and end is ignored.
func place(s *ts.MonthTS, yt YearType, rec stationLine, average bool, end *timeutil.DateTime) {
	y, m := yt.FirstMonth(rec.year)
	cursor := timeutil.NewDateTimeFast(timeutil.PrecisionMonth)
	cursor.SetYear(y)
	_ = cursor.SetMonth(m)

	for _, v := range rec.values {
		if average {
			cursor.SetYear(0)
		} else if end != nil && cursor.After(end) {
			return
		}
		s.SetValue(cursor, v)
		cursor.AddMonth(1)
	}
}

func parseStationLine(nl numberedLine) (stationLine, error) {
	values, err := tokenize.FixedWidth(nl.text, monthlyLine)
	if err != nil {
		return stationLine{}, err
	}
	rec := stationLine{
		year:    values[0].Int,
		station: strings.TrimSpace(values[1].Str),
		values:  make([]float64, 0, monthsPerLine),
	}
	if rec.station == "" {
		return stationLine{}, errors.New("missing station id")
	}
	for _, v := range values[2:] {
		rec.values = append(rec.values, v.Double)
	}
	return rec, nil
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "#") || strings.TrimSpace(line) == ""
}

// seriesBuilder allocates and labels a new series for each station.
type seriesBuilder struct {
	hdr   Header
	opts  ReadOptions
	req   *tsident.Ident
	start *timeutil.DateTime
	end   *timeutil.DateTime
}

func (b *seriesBuilder) build(station string) (*ts.MonthTS, error) {
	id, err := b.ident(station)
	if err != nil {
		return nil, err
	}

	created, err := ts.New(timeutil.Month)
	if err != nil {
		return nil, err
	}
	s := created.(*ts.MonthTS)
	s.SetIdent(id)
	s.SetDescription(station)
	s.SetUnits(b.hdr.Units)
	s.SetDate1Original(b.hdr.Start())
	s.SetDate2Original(b.hdr.End())
	if err := s.Allocate(b.start, b.end); err != nil {
		return nil, err
	}
	s.AddGenesis(fmt.Sprintf("Read StateMod time series for %s from %q for period %s to %s",
		station, b.opts.InputName, s.Date1(), s.Date2()))
	return s, nil
}

func (b *seriesBuilder) ident(station string) (*tsident.Ident, error) {
	dataType := b.opts.DataType
	if dataType == "" {
		dataType = DataTypeForFile(b.opts.InputName)
	}

	var id *tsident.Ident
	if b.req != nil {
		id = b.req.Clone()
		id.SetLocation(station)
		if id.Source() == "" {
			id.SetSource(b.opts.Source)
		}
		if id.Type() == "" {
			id.SetType(dataType)
		}
		if err := id.SetInterval(timeutil.Month.String()); err != nil {
			return nil, err
		}
	} else {
		var err error
		id, err = tsident.New(station, b.opts.Source, dataType, timeutil.Month.String(), "", tsident.Options{})
		if err != nil {
			return nil, err
		}
	}
	id.SetInputType(InputType)
	id.SetInputName(b.opts.InputName)
	return id, nil
}
