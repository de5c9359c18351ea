package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/statemod-etl/internal/domain"
	"github.com/couchcryptid/statemod-etl/internal/observability"
	"github.com/couchcryptid/statemod-etl/internal/statemod"
	"github.com/couchcryptid/statemod-etl/internal/ts"
	"github.com/couchcryptid/statemod-etl/internal/tsident"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds an uploaded StateMod file.
const maxBodyBytes = 32 << 20

// API serves on-demand parsing of StateMod files and identifiers.
type API struct {
	reader   *statemod.Reader
	defaults domain.FileDefaults
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewAPI creates the parse API. defaults fill identifier parts the request
// does not supply.
func NewAPI(defaults domain.FileDefaults, metrics *observability.Metrics, logger *slog.Logger) *API {
	return &API{
		reader:   statemod.NewReader(logger),
		defaults: defaults,
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterRoutes registers the parse API routes.
func (a *API) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/parse", a.Parse).Methods(http.MethodPost)
	router.HandleFunc("/ident", a.Ident).Methods(http.MethodGet)
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// IdentResponse lists the parts of a parsed identifier.
type IdentResponse struct {
	Identifier   string `json:"identifier"`
	TSID         string `json:"tsid"`
	LocationType string `json:"location_type,omitempty"`
	Location     string `json:"location"`
	MainLocation string `json:"main_location"`
	SubLocation  string `json:"sub_location,omitempty"`
	Source       string `json:"source"`
	MainSource   string `json:"main_source"`
	SubSource    string `json:"sub_source,omitempty"`
	DataType     string `json:"data_type"`
	MainType     string `json:"main_type"`
	SubType      string `json:"sub_type,omitempty"`
	Interval     string `json:"interval"`
	IntervalBase string `json:"interval_base"`
	IntervalMult int    `json:"interval_mult"`
	Scenario     string `json:"scenario,omitempty"`
	SequenceID   string `json:"sequence_id,omitempty"`
	InputType    string `json:"input_type,omitempty"`
	InputName    string `json:"input_name,omitempty"`
}

// Parse handles POST /v1/parse. The body is the StateMod file text; the
// tsid, start, end, data_type, source and input_name query parameters act
// like the raw file headers of the same names.
func (a *API) Parse(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		a.fail(w, "read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	q := r.URL.Query()
	raw := domain.RawFile{
		Key:     []byte(q.Get("input_name")),
		Value:   body,
		Headers: map[string]string{},
	}
	for _, key := range []string{
		domain.HeaderTSID, domain.HeaderStart, domain.HeaderEnd,
		domain.HeaderDataType, domain.HeaderSource, domain.HeaderInputName,
	} {
		if v := q.Get(key); v != "" {
			raw.Headers[key] = v
		}
	}

	series, err := domain.ParseRawFile(raw, a.reader, a.defaults)
	if err != nil {
		a.logger.Info("parse request rejected", "error", err, "kind", statemod.ErrorKind(err))
		a.fail(w, err.Error(), statusFor(err))
		return
	}

	records := make([]domain.SeriesRecord, 0, len(series))
	for _, s := range series {
		records = append(records, domain.BuildSeriesRecord(s))
	}
	a.metrics.ParseRequests.WithLabelValues("success").Inc()
	sendJSON(w, records, http.StatusOK)
}

// Ident handles GET /v1/ident?id=..., splitting an identifier into parts.
func (a *API) Ident(w http.ResponseWriter, r *http.Request) {
	s := r.URL.Query().Get("id")
	if s == "" {
		sendError(w, "missing id parameter", http.StatusBadRequest)
		return
	}

	id, err := tsident.Parse(s, tsident.Options{})
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	iv := id.IntervalValue()
	sendJSON(w, IdentResponse{
		Identifier:   id.Identifier(),
		TSID:         id.String(),
		LocationType: id.LocationType(),
		Location:     id.Location(),
		MainLocation: id.MainLocation(),
		SubLocation:  id.SubLocation(),
		Source:       id.Source(),
		MainSource:   id.MainSource(),
		SubSource:    id.SubSource(),
		DataType:     id.Type(),
		MainType:     id.MainType(),
		SubType:      id.SubType(),
		Interval:     id.Interval(),
		IntervalBase: iv.Base.String(),
		IntervalMult: iv.Multiplier,
		Scenario:     id.Scenario(),
		SequenceID:   id.SequenceID(),
		InputType:    id.InputType(),
		InputName:    id.InputName(),
	}, http.StatusOK)
}

func (a *API) fail(w http.ResponseWriter, message string, code int) {
	a.metrics.ParseRequests.WithLabelValues("error").Inc()
	sendError(w, message, code)
}

// statusFor maps a parse error to an HTTP status.
func statusFor(err error) int {
	var lineErr *statemod.LineParseError
	switch {
	case errors.Is(err, statemod.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, statemod.ErrFormat), errors.Is(err, ts.ErrUnsupported), errors.As(err, &lineErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func sendError(w http.ResponseWriter, message string, code int) {
	sendJSON(w, ErrorResponse{Error: http.StatusText(code), Message: message, Code: code}, code)
}

func sendJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
