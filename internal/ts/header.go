package ts

import (
	"math"

	"github.com/couchcryptid/statemod-etl/internal/timeutil"
	"github.com/couchcryptid/statemod-etl/internal/tsident"
)

// DefaultMissing is the missing-value sentinel used by StateMod files.
const DefaultMissing = -999.0

// MissingTolerance is the half-width of the band around the missing value
// that still counts as missing. It is wider than 0.001 so that -998.9985,
// 0.0015 from the sentinel, is treated as missing.
const MissingTolerance = 0.002

// Header holds the metadata shared by every series type.
type Header struct {
	ident *tsident.Ident

	date1         *timeutil.DateTime
	date2         *timeutil.DateTime
	date1Original *timeutil.DateTime
	date2Original *timeutil.DateTime

	interval         timeutil.Interval
	intervalOriginal timeutil.Interval

	units         string
	unitsOriginal string

	missing    float64
	missingMin float64
	missingMax float64

	dirty       bool
	description string
	genesis     []string
}

func newHeader(interval timeutil.Interval) Header {
	h := Header{
		ident:            &tsident.Ident{},
		interval:         interval,
		intervalOriginal: interval,
	}
	h.SetMissing(DefaultMissing)
	return h
}

// Ident returns the owned identifier. It is never nil.
func (h *Header) Ident() *tsident.Ident { return h.ident }

// SetIdent replaces the identifier with a copy of id.
func (h *Header) SetIdent(id *tsident.Ident) {
	if id == nil {
		h.ident = &tsident.Ident{}
		return
	}
	h.ident = id.Clone()
}

func (h *Header) Date1() *timeutil.DateTime         { return h.date1 }
func (h *Header) Date2() *timeutil.DateTime         { return h.date2 }
func (h *Header) Date1Original() *timeutil.DateTime { return h.date1Original }
func (h *Header) Date2Original() *timeutil.DateTime { return h.date2Original }

// SetDate1Original records the period start as given in the source, before
// any override.
func (h *Header) SetDate1Original(d *timeutil.DateTime) { h.date1Original = cloneDate(d) }

// SetDate2Original records the period end as given in the source.
func (h *Header) SetDate2Original(d *timeutil.DateTime) { h.date2Original = cloneDate(d) }

func (h *Header) Interval() timeutil.Interval         { return h.interval }
func (h *Header) IntervalOriginal() timeutil.Interval { return h.intervalOriginal }

func (h *Header) Units() string         { return h.units }
func (h *Header) UnitsOriginal() string { return h.unitsOriginal }

// SetUnits sets the current units. The original units are set the first
// time only.
func (h *Header) SetUnits(units string) {
	h.units = units
	if h.unitsOriginal == "" {
		h.unitsOriginal = units
	}
}

// SetUnitsOriginal overrides the units recorded from the source.
func (h *Header) SetUnitsOriginal(units string) { h.unitsOriginal = units }

func (h *Header) Missing() float64 { return h.missing }

// SetMissing sets the missing sentinel and recomputes the tolerance band.
func (h *Header) SetMissing(v float64) {
	h.missing = v
	if math.IsNaN(v) {
		h.missingMin, h.missingMax = v, v
		return
	}
	h.missingMin = v - MissingTolerance
	h.missingMax = v + MissingTolerance
}

// IsMissing reports whether v is NaN or within the band around the missing
// sentinel.
func (h *Header) IsMissing(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	if math.IsNaN(h.missing) {
		return false
	}
	return v >= h.missingMin && v <= h.missingMax
}

// Dirty reports whether values changed since limits were last computed.
func (h *Header) Dirty() bool { return h.dirty }

func (h *Header) SetDirty(dirty bool) { h.dirty = dirty }

func (h *Header) Description() string     { return h.description }
func (h *Header) SetDescription(s string) { h.description = s }

// Genesis returns the audit lines describing how the series was produced.
func (h *Header) Genesis() []string { return append([]string(nil), h.genesis...) }

// AddGenesis appends an audit line.
func (h *Header) AddGenesis(line string) { h.genesis = append(h.genesis, line) }

func cloneDate(d *timeutil.DateTime) *timeutil.DateTime {
	if d == nil {
		return nil
	}
	return d.Clone()
}
