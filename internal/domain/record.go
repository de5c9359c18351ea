package domain

import (
	"context"
	"time"
)

// Message header keys understood on raw files.
const (
	HeaderTSID      = "tsid"
	HeaderStart     = "start"
	HeaderEnd       = "end"
	HeaderDataType  = "data_type"
	HeaderSource    = "source"
	HeaderInputName = "input_name"
)

// RawFile is one StateMod file as delivered by a source. Key carries the
// file path or name; Value carries the full file text.
type RawFile struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// InputName is the name recorded in series identifiers: the input_name
// header when present, else the key.
func (r RawFile) InputName() string {
	if name := r.Headers[HeaderInputName]; name != "" {
		return name
	}
	return string(r.Key)
}

// SeriesValue is one month of a series. Value is nil when missing.
type SeriesValue struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// SeriesLimits summarizes the non-missing values of a series.
type SeriesLimits struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Sum   float64 `json:"sum"`
	First string  `json:"first,omitempty"`
	Last  string  `json:"last,omitempty"`
}

// SeriesRecord is the JSON form of a parsed monthly series published to the
// sink.
type SeriesRecord struct {
	TSID        string        `json:"tsid"`
	Location    string        `json:"location"`
	Source      string        `json:"source,omitempty"`
	DataType    string        `json:"data_type,omitempty"`
	Interval    string        `json:"interval"`
	Scenario    string        `json:"scenario,omitempty"`
	InputType   string        `json:"input_type,omitempty"`
	InputName   string        `json:"input_name,omitempty"`
	Description string        `json:"description,omitempty"`
	Units       string        `json:"units,omitempty"`
	Missing     float64       `json:"missing"`
	Start       string        `json:"start"`
	End         string        `json:"end"`
	Values      []SeriesValue `json:"values"`
	Limits      SeriesLimits  `json:"limits"`
	Genesis     []string      `json:"genesis,omitempty"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
