// Command genmock writes the synthetic StateMod fixtures used by the pipeline,
// HTTP and integration test suites. Values follow a closed-form pattern so
// tests can assert them without reading the files back by hand. Every file is
// read through the statemod package before it is written, so a fixture that
// the reader rejects never lands on disk.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/statemod-etl/internal/statemod"
)

// fixture describes one generated StateMod file.
type fixture struct {
	file     string
	comment  string
	header   string
	yearType statemod.YearType
	stations []string
	years    []int
	value    func(station, year, month int) float64
}

var fixtures = []fixture{
	{
		file:     "cm2015.rih",
		comment:  "Historical natural streamflow, Colorado mainstem (synthetic)",
		header:   "    1/2000  -     12/2004 ACFT  CYR",
		yearType: statemod.CalendarYear,
		stations: []string{"09152500", "09163500", "09180500"},
		years:    []int{2000, 2001, 2002, 2003, 2004},
		value:    streamflow,
	},
	{
		file:     "cm2015.ddh",
		comment:  "Historical diversions by water year (synthetic)",
		header:   "   10/1999  -      9/2004 ACFT  WYR",
		yearType: statemod.WaterYear,
		stations: []string{"3600507", "3600508"},
		years:    []int{2000, 2001, 2002, 2003, 2004},
		value:    diversion,
	},
}

// streamflow is 100 per station index plus 10 per year plus the month.
// Station 09163500 is missing July 2002.
func streamflow(station, year, month int) float64 {
	if station == 1 && year == 2002 && month == 7 {
		return -999
	}
	return float64(100*(station+1) + 10*(year-2000) + month)
}

// diversion is 50 per station index plus the year offset plus half the
// position of the month within the water year.
func diversion(station, year, month int) float64 {
	return float64(50*(station+1)+(year-2000)) + 0.5*float64(month)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory for StateMod fixtures")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	reader := statemod.NewReader(slog.Default())
	for _, f := range fixtures {
		text := render(f)

		series, err := reader.ReadTimeSeriesList(statemod.SplitLines(text), statemod.ReadOptions{InputName: f.file})
		if err != nil {
			return fmt.Errorf("verify %s: %w", f.file, err)
		}

		path := filepath.Join(*out, f.file)
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("%s: %d series, %d years, %s", f.file, len(series), len(f.years), f.yearType)
	}
	return nil
}

// render lays out a file the way StateMod writes it: station lines grouped
// by year, twelve F8.1 values in year-type order followed by the annual
// total.
func render(f fixture) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", f.comment)
	fmt.Fprintf(&b, "# generated by genmock\n")
	fmt.Fprintf(&b, "%s\n", f.header)

	for _, year := range f.years {
		for si, station := range f.stations {
			fmt.Fprintf(&b, "%5d %-11s", year, station)
			total := 0.0
			for month := 1; month <= 12; month++ {
				v := f.value(si, year, month)
				if v != -999 {
					total += v
				}
				fmt.Fprintf(&b, "%8.1f", v)
			}
			fmt.Fprintf(&b, "%8.0f\n", total)
		}
	}
	return b.String()
}
