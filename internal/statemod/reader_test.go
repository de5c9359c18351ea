package statemod_test

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/couchcryptid/statemod-etl/internal/statemod"
	"github.com/couchcryptid/statemod-etl/internal/timeutil"
	"github.com/couchcryptid/statemod-etl/internal/ts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dataLine formats a monthly line: year(I5) station(A12) 12 x F8.1.
func dataLine(year int, station string, values ...float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%5d%-12s", year, station)
	for _, v := range values {
		fmt.Fprintf(&b, "%8.1f", v)
	}
	return b.String()
}

// yearValues returns 12 values encoding station, year and month so each
// cell is distinguishable.
func yearValues(station, year int) []float64 {
	out := make([]float64, 12)
	for i := range out {
		out[i] = float64(station*1000 + (year-2010)*100 + i + 1)
	}
	return out
}

func month(y, m int) *timeutil.DateTime { return timeutil.NewMonth(y, m) }

func threeStationFile() []string {
	lines := []string{
		"# StateMod historical streamflow",
		"# generated for tests",
		"    1/2010  -     12/2011 ACFT  CYR",
	}
	for _, year := range []int{2010, 2011} {
		for i, st := range []string{"A1", "B2", "C3"} {
			lines = append(lines, dataLine(year, st, yearValues(i+1, year)...))
		}
	}
	return lines
}

func TestReadTimeSeriesList_ThreeStations(t *testing.T) {
	r := statemod.NewReader(discardLogger())
	series, err := r.ReadTimeSeriesList(threeStationFile(), statemod.ReadOptions{
		InputName: "data/flow.rih",
		Source:    "SM",
	})
	require.NoError(t, err)
	require.Len(t, series, 3)

	for i, st := range []string{"A1", "B2", "C3"} {
		s := series[i]
		assert.Equal(t, st, s.Ident().Location())
		assert.Equal(t, st+".SM.StreamflowHistorical.Month~StateMod~data/flow.rih", s.Ident().String())
		assert.Equal(t, st, s.Description())
		assert.Equal(t, "ACFT", s.Units())
		assert.Equal(t, "2010-01", s.Date1().String())
		assert.Equal(t, "2011-12", s.Date2().String())
		assert.NotEmpty(t, s.Genesis())

		base := float64((i + 1) * 1000)
		assert.InDelta(t, base+1, s.Value(month(2010, 1)), 1e-6)
		assert.InDelta(t, base+12, s.Value(month(2010, 12)), 1e-6)
		assert.InDelta(t, base+101, s.Value(month(2011, 1)), 1e-6)
		assert.InDelta(t, base+112, s.Value(month(2011, 12)), 1e-6)

		for _, out := range []*timeutil.DateTime{month(2009, 12), month(2012, 1), month(1900, 6)} {
			assert.Equal(t, -999.0, s.Value(out), out.String())
		}
		assert.Equal(t, 24, s.Limits().Count)
	}
}

func TestReadTimeSeries_ByID(t *testing.T) {
	r := statemod.NewReader(discardLogger())
	s, err := r.ReadTimeSeries(threeStationFile(), "B2.USGS.Flow.Month", statemod.ReadOptions{InputName: "flow.rih"})
	require.NoError(t, err)

	assert.Equal(t, "B2.USGS.Flow.Month~StateMod~flow.rih", s.Ident().String())
	assert.InDelta(t, 2105.0, s.Value(month(2011, 5)), 1e-6)
}

func TestReadTimeSeries_NotFound(t *testing.T) {
	r := statemod.NewReader(discardLogger())
	_, err := r.ReadTimeSeries(threeStationFile(), "ZZZ.SM.Flow.Month", statemod.ReadOptions{InputName: "flow.rih"})
	require.ErrorIs(t, err, statemod.ErrNotFound)

	var nf *statemod.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ZZZ.SM.Flow.Month", nf.TSID)
	assert.Equal(t, "flow.rih", nf.InputName)
}

func TestReadTimeSeries_SingleSeriesFileWins(t *testing.T) {
	var logs bytes.Buffer
	r := statemod.NewReader(slog.New(slog.NewTextHandler(&logs, nil)))

	lines := []string{
		"    1/2010  -     12/2011 CFS   CYR",
		dataLine(2010, "X", yearValues(1, 2010)...),
		dataLine(2011, "X", yearValues(1, 2011)...),
	}
	s, err := r.ReadTimeSeries(lines, "Y.SM.Flow.Month", statemod.ReadOptions{InputName: "x.rih"})
	require.NoError(t, err)

	assert.Equal(t, "X.SM.Flow.Month~StateMod~x.rih", s.Ident().String())
	assert.InDelta(t, 1112.0, s.Value(month(2011, 12)), 1e-6)
	assert.Contains(t, logs.String(), "requested location does not match")
}

func TestReadTimeSeriesList_WaterYear(t *testing.T) {
	lines := []string{
		"  1 2010  12 2010MONTHLY          WYR",
		dataLine(2010, "X", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12),
		dataLine(2011, "X", 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24),
	}
	r := statemod.NewReader(discardLogger())
	series, err := r.ReadTimeSeriesList(lines, statemod.ReadOptions{})
	require.NoError(t, err)
	require.Len(t, series, 1)
	s := series[0]

	assert.Equal(t, "MONTHLY", s.Units())
	// The first value of water year 2010 is October 2009, before the period.
	y, m := statemod.WaterYear.FirstMonth(2010)
	assert.Equal(t, 2009, y)
	assert.Equal(t, 10, m)
	assert.Equal(t, -999.0, s.Value(month(2009, 10)))

	assert.InDelta(t, 4.0, s.Value(month(2010, 1)), 1e-6)
	assert.InDelta(t, 12.0, s.Value(month(2010, 9)), 1e-6)
	assert.InDelta(t, 13.0, s.Value(month(2010, 10)), 1e-6)
	assert.InDelta(t, 15.0, s.Value(month(2010, 12)), 1e-6)
}

func TestReadTimeSeriesList_IrrigationYear(t *testing.T) {
	lines := []string{
		"   11/2009  -     10/2010 ACFT  IYR",
		dataLine(2010, "X", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12),
	}
	series, err := statemod.NewReader(discardLogger()).ReadTimeSeriesList(lines, statemod.ReadOptions{})
	require.NoError(t, err)
	require.Len(t, series, 1)

	s := series[0]
	assert.InDelta(t, 1.0, s.Value(month(2009, 11)), 1e-6)
	assert.InDelta(t, 3.0, s.Value(month(2010, 1)), 1e-6)
	assert.InDelta(t, 12.0, s.Value(month(2010, 10)), 1e-6)
}

func TestReadTimeSeriesList_AverageFile(t *testing.T) {
	lines := []string{
		"   10/   0  -      9/   0 ACFT  WYR",
		dataLine(0, "A1", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12),
		"     " + dataLine(0, "B2", 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32)[5:],
	}
	series, err := statemod.NewReader(discardLogger()).ReadTimeSeriesList(lines, statemod.ReadOptions{})
	require.NoError(t, err)
	require.Len(t, series, 2)

	a := series[0]
	assert.Equal(t, "0000-01", a.Date1().String())
	assert.Equal(t, "0000-12", a.Date2().String())
	assert.InDelta(t, 1.0, a.Value(month(0, 10)), 1e-6)
	assert.InDelta(t, 3.0, a.Value(month(0, 12)), 1e-6)
	assert.InDelta(t, 4.0, a.Value(month(0, 1)), 1e-6)
	assert.InDelta(t, 12.0, a.Value(month(0, 9)), 1e-6)

	assert.InDelta(t, 24.0, series[1].Value(month(0, 1)), 1e-6)
}

func TestReadTimeSeriesList_UnknownStationAfterFirstYear(t *testing.T) {
	lines := []string{
		"    1/2010  -     12/2011 ACFT  CYR",
		dataLine(2010, "A1", yearValues(1, 2010)...),
		dataLine(2010, "B2", yearValues(2, 2010)...),
		dataLine(2011, "A1", yearValues(1, 2011)...),
		dataLine(2011, "B2", yearValues(2, 2011)...),
		dataLine(2011, "C3", yearValues(3, 2011)...),
	}
	series, err := statemod.NewReader(discardLogger()).ReadTimeSeriesList(lines, statemod.ReadOptions{})
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "A1", series[0].Ident().Location())
	assert.Equal(t, "B2", series[1].Ident().Location())
}

func TestReadTimeSeriesList_PeriodOverride(t *testing.T) {
	r := statemod.NewReader(discardLogger())
	series, err := r.ReadTimeSeriesList(threeStationFile(), statemod.ReadOptions{
		Start: month(2011, 1),
		End:   month(2011, 6),
	})
	require.NoError(t, err)
	require.Len(t, series, 3)

	s := series[0]
	assert.Equal(t, "2011-01", s.Date1().String())
	assert.Equal(t, "2011-06", s.Date2().String())
	assert.Equal(t, "2010-01", s.Date1Original().String())
	assert.InDelta(t, 1103.0, s.Value(month(2011, 3)), 1e-6)
	assert.Equal(t, -999.0, s.Value(month(2010, 3)))
	assert.Equal(t, -999.0, s.Value(month(2011, 7)))
}

func TestReadTimeSeriesList_EndStopsReading(t *testing.T) {
	r := statemod.NewReader(discardLogger())
	series, err := r.ReadTimeSeriesList(threeStationFile(), statemod.ReadOptions{End: month(2010, 12)})
	require.NoError(t, err)
	require.Len(t, series, 3)

	s := series[0]
	assert.Equal(t, "2011-12", s.Date2().String())
	assert.InDelta(t, 1012.0, s.Value(month(2010, 12)), 1e-6)
	assert.Equal(t, -999.0, s.Value(month(2011, 1)))
}

func TestReadTimeSeriesList_EndMidYear(t *testing.T) {
	r := statemod.NewReader(discardLogger())
	series, err := r.ReadTimeSeriesList(threeStationFile(), statemod.ReadOptions{End: month(2010, 6)})
	require.NoError(t, err)
	require.Len(t, series, 3)

	// End alone keeps the header period but nothing after it is filled.
	s := series[1]
	assert.Equal(t, "2011-12", s.Date2().String())
	assert.InDelta(t, 2006.0, s.Value(month(2010, 6)), 1e-6)
	for _, d := range []*timeutil.DateTime{month(2010, 7), month(2010, 9), month(2010, 12), month(2011, 1)} {
		assert.Equal(t, -999.0, s.Value(d), d.String())
	}
	assert.Equal(t, 6, s.Limits().Count)
}

func TestReadTimeSeriesList_ReversedHeaderPeriod(t *testing.T) {
	lines := []string{
		"# reversed",
		"    1/2012  -     12/2010 ACFT  CYR",
		dataLine(2012, "A1", yearValues(1, 2012)...),
	}
	_, err := statemod.NewReader(discardLogger()).ReadTimeSeriesList(lines, statemod.ReadOptions{})
	require.ErrorIs(t, err, statemod.ErrFormat)

	var fe *statemod.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Line)
	assert.Equal(t, "format", statemod.ErrorKind(err))
}

func TestReadTimeSeriesList_FormatErrors(t *testing.T) {
	r := statemod.NewReader(discardLogger())

	_, err := r.ReadTimeSeriesList(nil, statemod.ReadOptions{})
	require.ErrorIs(t, err, statemod.ErrFormat)

	_, err = r.ReadTimeSeriesList([]string{"# only", "# comments"}, statemod.ReadOptions{})
	require.ErrorIs(t, err, statemod.ErrFormat)

	_, err = r.ReadTimeSeriesList([]string{"# c", "not a header"}, statemod.ReadOptions{})
	require.ErrorIs(t, err, statemod.ErrFormat)
	var fe *statemod.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Line)
}

func TestReadTimeSeriesList_HeaderOnly(t *testing.T) {
	series, err := statemod.NewReader(discardLogger()).ReadTimeSeriesList(
		[]string{"    1/2010  -     12/2011 ACFT  CYR"}, statemod.ReadOptions{})
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestReadTimeSeriesList_DailyUnsupported(t *testing.T) {
	values := make([]float64, 31)
	line := fmt.Sprintf("%4d%4d%-12s", 2010, 1, "A1")
	for range values {
		line += fmt.Sprintf("%8.1f", 1.0)
	}
	lines := []string{"    1/2010  -     12/2010 CFS   CYR", line}

	_, err := statemod.NewReader(discardLogger()).ReadTimeSeriesList(lines, statemod.ReadOptions{})
	require.ErrorIs(t, err, ts.ErrUnsupported)
}

func TestReadTimeSeries_IntervalChecks(t *testing.T) {
	r := statemod.NewReader(discardLogger())

	_, err := r.ReadTimeSeries(threeStationFile(), "A1.SM.Flow.Day", statemod.ReadOptions{})
	require.ErrorIs(t, err, ts.ErrUnsupported)

	_, err = r.ReadTimeSeries(threeStationFile(), "A1.SM.Flow.6Month", statemod.ReadOptions{})
	require.ErrorIs(t, err, ts.ErrUnsupported)

	_, err = r.ReadTimeSeries(threeStationFile(), "A1.SM.Flow.Fortnight", statemod.ReadOptions{})
	require.ErrorIs(t, err, statemod.ErrFormat)
	require.ErrorIs(t, err, timeutil.ErrUnknownInterval)
}

func TestReadTimeSeriesList_LineParseError(t *testing.T) {
	lines := threeStationFile()
	lines[4] = lines[4][:20] + "   abc.x" + lines[4][28:]

	_, err := statemod.NewReader(discardLogger()).ReadTimeSeriesList(lines, statemod.ReadOptions{})
	require.Error(t, err)

	var lpe *statemod.LineParseError
	require.ErrorAs(t, err, &lpe)
	assert.Equal(t, 5, lpe.Line)
	assert.Equal(t, "01/2010 - 12/2011", lpe.Period)
	assert.Equal(t, "ACFT", lpe.Units)
	assert.Contains(t, err.Error(), "invalid number")
}

func TestReadTimeSeriesList_CRLF(t *testing.T) {
	text := strings.Join(threeStationFile(), "\r\n") + "\r\n"
	series, err := statemod.NewReader(discardLogger()).ReadTimeSeriesList(statemod.SplitLines(text), statemod.ReadOptions{})
	require.NoError(t, err)
	assert.Len(t, series, 3)
}
