// Package tsident parses and formats time-series identifiers (TSIDs):
//
//	[LocationType:]Location.Source.DataType.Interval[.Scenario][[SequenceID]][~InputType[~InputName]]
//
// Location, source and data type each split into a main and sub part on the
// first "-". The full identifier is regenerated whenever any part changes,
// so String always reflects the current parts.
package tsident

import (
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/statemod-etl/internal/timeutil"
	"github.com/couchcryptid/statemod-etl/internal/tokenize"
)

const (
	sepPart      = "."
	sepSub       = "-"
	sepInput     = "~"
	sepLocType   = ":"
	seqOpen      = "["
	seqClose     = "]"
	quoteLiteral = "'"
)

// Options controls how the location, source and type split into main and sub parts.
type Options struct {
	// NoSubLocation keeps "-" inside the location as part of the main location.
	NoSubLocation bool
	// NoSubSource keeps "-" inside the source as part of the main source.
	NoSubSource bool
	// NoSubType keeps "-" inside the data type as part of the main type.
	NoSubType bool
}

// Ident is a parsed time-series identifier.
type Ident struct {
	opts Options

	locationType string
	mainLocation string
	subLocation  string
	location     string

	mainSource string
	subSource  string
	source     string

	mainType string
	subType  string
	dataType string

	interval   string
	intervalV  timeutil.Interval
	scenario   string
	sequenceID string
	inputType  string
	inputName  string

	identifier string
}

// New builds an identifier from its five primary parts. The interval is
// validated when non-empty.
func New(location, source, dataType, interval, scenario string, opts Options) (*Ident, error) {
	id := &Ident{opts: opts}
	id.SetLocation(location)
	id.SetSource(source)
	id.SetType(dataType)
	if err := id.SetInterval(interval); err != nil {
		return nil, err
	}
	id.SetScenario(scenario)
	return id, nil
}

// Parse parses s into an Ident.
func Parse(s string, opts Options) (*Ident, error) {
	id := &Ident{opts: opts}

	body, inputType, inputName := splitInput(s)
	id.inputType = inputType
	id.inputName = inputName

	var parts []string
	if strings.Contains(body, quoteLiteral) {
		parts = tokenize.Split(body, sepPart, tokenize.SplitOptions{
			AllowQuotedStrings: true,
			RetainQuotes:       true,
		})
	} else {
		parts = strings.Split(body, sepPart)
	}

	// Scenario may itself contain periods.
	if len(parts) > 5 {
		parts = append(parts[:4], strings.Join(parts[4:], sepPart))
	}

	// The sequence ID trails the last supplied field: the scenario when
	// present, otherwise the interval.
	if n := len(parts); n >= 4 {
		last := parts[n-1]
		if strings.HasSuffix(last, seqClose) {
			if open := strings.LastIndex(last, seqOpen); open >= 0 {
				id.sequenceID = last[open+1 : len(last)-1]
				parts[n-1] = last[:open]
			}
		}
	}

	location := parts[0]
	if i := strings.Index(location, sepLocType); i >= 0 && !strings.HasPrefix(location, quoteLiteral) {
		id.locationType = location[:i]
		location = location[i+1:]
	}
	id.setLocationParts(location)

	if len(parts) > 1 {
		id.setSourceParts(parts[1])
	}
	if len(parts) > 2 {
		id.setTypeParts(parts[2])
	}
	if len(parts) > 3 {
		if err := id.setIntervalValue(parts[3]); err != nil {
			return nil, fmt.Errorf("parse tsid %q: %w", s, err)
		}
	}
	if len(parts) > 4 {
		id.scenario = parts[4]
	}

	id.refresh()
	return id, nil
}

// MustParse is Parse for identifiers known to be valid at compile time.
func MustParse(s string) *Ident {
	id, err := Parse(s, Options{})
	if err != nil {
		panic(err)
	}
	return id
}

// splitInput separates the "~InputType~InputName" suffix. Only the first
// two "~" are separators; an input name such as a file path may contain more.
func splitInput(s string) (body, inputType, inputName string) {
	body, rest, found := strings.Cut(s, sepInput)
	if !found {
		return s, "", ""
	}
	inputType, inputName, _ = strings.Cut(rest, sepInput)
	return body, inputType, inputName
}

func splitSub(s string, noSub bool) (main, sub string) {
	if noSub {
		return s, ""
	}
	if strings.HasPrefix(s, quoteLiteral) {
		return s, ""
	}
	main, sub, _ = strings.Cut(s, sepSub)
	return main, sub
}

func joinSub(main, sub string) string {
	if sub == "" {
		return main
	}
	return main + sepSub + sub
}

func (id *Ident) setLocationParts(s string) {
	id.mainLocation, id.subLocation = splitSub(s, id.opts.NoSubLocation)
	id.location = joinSub(id.mainLocation, id.subLocation)
}

func (id *Ident) setSourceParts(s string) {
	id.mainSource, id.subSource = splitSub(s, id.opts.NoSubSource)
	id.source = joinSub(id.mainSource, id.subSource)
}

func (id *Ident) setTypeParts(s string) {
	id.mainType, id.subType = splitSub(s, id.opts.NoSubType)
	id.dataType = joinSub(id.mainType, id.subType)
}

func (id *Ident) setIntervalValue(s string) error {
	id.interval = s
	id.intervalV = timeutil.Interval{}
	if s == "" {
		return nil
	}
	iv, err := timeutil.ParseInterval(s)
	if err != nil {
		return fmt.Errorf("interval %q: %w", s, err)
	}
	id.intervalV = iv
	return nil
}

// refresh regenerates the composite parts and the full identifier.
func (id *Ident) refresh() {
	id.location = joinSub(id.mainLocation, id.subLocation)
	id.source = joinSub(id.mainSource, id.subSource)
	id.dataType = joinSub(id.mainType, id.subType)
	id.identifier = id.build()
}

func (id *Ident) build() string {
	var b strings.Builder
	if id.locationType != "" {
		b.WriteString(id.locationType)
		b.WriteString(sepLocType)
	}
	b.WriteString(id.location)
	b.WriteString(sepPart)
	b.WriteString(id.source)
	b.WriteString(sepPart)
	b.WriteString(id.dataType)
	b.WriteString(sepPart)
	b.WriteString(id.interval)
	if id.scenario != "" {
		b.WriteString(sepPart)
		b.WriteString(id.scenario)
	}
	if id.sequenceID != "" {
		b.WriteString(seqOpen)
		b.WriteString(id.sequenceID)
		b.WriteString(seqClose)
	}
	if id.inputType != "" || id.inputName != "" {
		b.WriteString(sepInput)
		b.WriteString(id.inputType)
	}
	if id.inputName != "" {
		b.WriteString(sepInput)
		b.WriteString(id.inputName)
	}
	return b.String()
}

// String returns the full identifier.
func (id *Ident) String() string { return id.identifier }

// Identifier returns the full identifier without the input suffix, as used
// when matching series across sources.
func (id *Ident) Identifier() string {
	body, _, _ := splitInput(id.identifier)
	return body
}

func (id *Ident) LocationType() string { return id.locationType }
func (id *Ident) Location() string     { return id.location }
func (id *Ident) MainLocation() string { return id.mainLocation }
func (id *Ident) SubLocation() string  { return id.subLocation }
func (id *Ident) Source() string       { return id.source }
func (id *Ident) MainSource() string   { return id.mainSource }
func (id *Ident) SubSource() string    { return id.subSource }
func (id *Ident) Type() string         { return id.dataType }
func (id *Ident) MainType() string     { return id.mainType }
func (id *Ident) SubType() string      { return id.subType }
func (id *Ident) Interval() string     { return id.interval }
func (id *Ident) Scenario() string     { return id.scenario }
func (id *Ident) SequenceID() string   { return id.sequenceID }
func (id *Ident) InputType() string    { return id.inputType }
func (id *Ident) InputName() string    { return id.inputName }
func (id *Ident) Options() Options     { return id.opts }

// IntervalValue returns the parsed interval. It is zero when the interval text is empty.
func (id *Ident) IntervalValue() timeutil.Interval { return id.intervalV }

// SetLocationType sets the optional "Type:" location prefix.
func (id *Ident) SetLocationType(s string) {
	id.locationType = s
	id.refresh()
}

// SetLocation sets the full location, splitting main and sub parts.
func (id *Ident) SetLocation(s string) {
	id.setLocationParts(s)
	id.refresh()
}

func (id *Ident) SetMainLocation(s string) {
	id.mainLocation = s
	id.refresh()
}

func (id *Ident) SetSubLocation(s string) {
	id.subLocation = s
	id.refresh()
}

// SetSource sets the full source, splitting main and sub parts.
func (id *Ident) SetSource(s string) {
	id.setSourceParts(s)
	id.refresh()
}

func (id *Ident) SetMainSource(s string) {
	id.mainSource = s
	id.refresh()
}

func (id *Ident) SetSubSource(s string) {
	id.subSource = s
	id.refresh()
}

// SetType sets the full data type, splitting main and sub parts.
func (id *Ident) SetType(s string) {
	id.setTypeParts(s)
	id.refresh()
}

func (id *Ident) SetMainType(s string) {
	id.mainType = s
	id.refresh()
}

func (id *Ident) SetSubType(s string) {
	id.subType = s
	id.refresh()
}

// SetInterval sets and parses the interval. On error the identifier is unchanged.
func (id *Ident) SetInterval(s string) error {
	prevText, prevValue := id.interval, id.intervalV
	if err := id.setIntervalValue(s); err != nil {
		id.interval, id.intervalV = prevText, prevValue
		return err
	}
	id.refresh()
	return nil
}

func (id *Ident) SetScenario(s string) {
	id.scenario = s
	id.refresh()
}

func (id *Ident) SetSequenceID(s string) {
	id.sequenceID = s
	id.refresh()
}

func (id *Ident) SetInputType(s string) {
	id.inputType = s
	id.refresh()
}

func (id *Ident) SetInputName(s string) {
	id.inputName = s
	id.refresh()
}

// Clone returns an independent copy.
func (id *Ident) Clone() *Ident {
	c := *id
	return &c
}

// MatchesLocation reports whether loc equals the location, ignoring case.
func (id *Ident) MatchesLocation(loc string) bool {
	return strings.EqualFold(strings.TrimSpace(loc), id.location)
}

// MarshalText implements encoding.TextMarshaler.
func (id *Ident) MarshalText() ([]byte, error) {
	return []byte(id.identifier), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with the receiver's options.
func (id *Ident) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b), id.opts)
	if err != nil {
		return err
	}
	*id = *parsed
	return nil
}

// ErrEmpty is returned by Validate for an identifier without a location.
var ErrEmpty = errors.New("tsid has no location")

// Validate checks that the identifier names a location.
func (id *Ident) Validate() error {
	if id.location == "" {
		return ErrEmpty
	}
	return nil
}
