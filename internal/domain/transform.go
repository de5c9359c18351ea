package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/statemod-etl/internal/statemod"
	"github.com/couchcryptid/statemod-etl/internal/timeutil"
	"github.com/couchcryptid/statemod-etl/internal/ts"
)

// FileDefaults fills identifier parts that a raw file does not carry in its
// headers.
type FileDefaults struct {
	DataType string
	Source   string
}

// ParseRawFile reads every series in a raw StateMod file, or only the one
// named by the tsid header. The start and end headers override the file
// period when both are present.
func ParseRawFile(raw RawFile, reader *statemod.Reader, defaults FileDefaults) ([]*ts.MonthTS, error) {
	opts, err := readOptions(raw, defaults)
	if err != nil {
		return nil, err
	}

	lines := statemod.SplitLines(string(raw.Value))
	if tsid := raw.Headers[HeaderTSID]; tsid != "" {
		s, err := reader.ReadTimeSeries(lines, tsid, opts)
		if err != nil {
			return nil, err
		}
		return []*ts.MonthTS{s}, nil
	}
	return reader.ReadTimeSeriesList(lines, opts)
}

func readOptions(raw RawFile, defaults FileDefaults) (statemod.ReadOptions, error) {
	opts := statemod.ReadOptions{
		InputName: raw.InputName(),
		DataType:  firstNonEmpty(raw.Headers[HeaderDataType], defaults.DataType),
		Source:    firstNonEmpty(raw.Headers[HeaderSource], defaults.Source),
	}

	var err error
	if opts.Start, err = parseDateHeader(raw, HeaderStart); err != nil {
		return opts, err
	}
	if opts.End, err = parseDateHeader(raw, HeaderEnd); err != nil {
		return opts, err
	}
	return opts, nil
}

// parseDateHeader returns nil when the header is absent.
func parseDateHeader(raw RawFile, key string) (*timeutil.DateTime, error) {
	s := raw.Headers[key]
	if s == "" {
		return nil, nil
	}
	d, err := timeutil.ParseDateTime(s)
	if err != nil {
		return nil, fmt.Errorf("parse %s header: %w", key, err)
	}
	d.SetPrecision(timeutil.PrecisionMonth)
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// BuildSeriesRecord converts a parsed series into its published form.
// Missing months are emitted with a null value so consumers see the full
// period.
func BuildSeriesRecord(s *ts.MonthTS) SeriesRecord {
	id := s.Ident()
	rec := SeriesRecord{
		TSID:        id.String(),
		Location:    id.Location(),
		Source:      id.Source(),
		DataType:    id.Type(),
		Interval:    id.Interval(),
		Scenario:    id.Scenario(),
		InputType:   id.InputType(),
		InputName:   id.InputName(),
		Description: s.Description(),
		Units:       s.Units(),
		Missing:     s.Missing(),
		Values:      make([]SeriesValue, 0, s.Len()),
		Genesis:     s.Genesis(),
		ProcessedAt: clock.Now().UTC(),
	}
	if d := s.Date1(); d != nil {
		rec.Start = d.String()
	}
	if d := s.Date2(); d != nil {
		rec.End = d.String()
	}

	s.Each(func(d *timeutil.DateTime, v float64) {
		sv := SeriesValue{Date: d.String()}
		if !s.IsMissing(v) {
			sv.Value = &v
		}
		rec.Values = append(rec.Values, sv)
	})

	l := s.Limits()
	rec.Limits = SeriesLimits{
		Count: l.Count,
		Min:   l.Min,
		Max:   l.Max,
		Mean:  l.Mean,
		Sum:   l.Sum,
	}
	if l.First != nil {
		rec.Limits.First = l.First.String()
	}
	if l.Last != nil {
		rec.Limits.Last = l.Last.String()
	}
	return rec
}

// SerializeSeriesRecord marshals a record into an output event keyed by its
// identifier.
func SerializeSeriesRecord(rec SeriesRecord) (OutputEvent, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize series record %s: %w", rec.TSID, err)
	}
	return OutputEvent{
		Key:   []byte(rec.TSID),
		Value: data,
		Headers: map[string]string{
			HeaderTSID:     rec.TSID,
			"processed_at": rec.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
