package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/statemod-etl/internal/domain"
	"github.com/couchcryptid/statemod-etl/internal/statemod"
)

// StatemodTransformer implements Transformer by reading every monthly series
// in a raw StateMod file and serializing each as a series record.
type StatemodTransformer struct {
	reader   *statemod.Reader
	defaults domain.FileDefaults
	logger   *slog.Logger
}

// NewTransformer creates a StatemodTransformer. defaults supply the data
// type and source for files that carry no such headers.
func NewTransformer(defaults domain.FileDefaults, logger *slog.Logger) *StatemodTransformer {
	return &StatemodTransformer{
		reader:   statemod.NewReader(logger),
		defaults: defaults,
		logger:   logger,
	}
}

func (t *StatemodTransformer) Transform(_ context.Context, raw domain.RawFile) ([]domain.OutputEvent, error) {
	series, err := domain.ParseRawFile(raw, t.reader, t.defaults)
	if err != nil {
		return nil, err
	}

	out := make([]domain.OutputEvent, 0, len(series))
	for _, s := range series {
		event, err := domain.SerializeSeriesRecord(domain.BuildSeriesRecord(s))
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}

	t.logger.Debug("file transformed", "input_name", raw.InputName(), "series", len(out))
	return out, nil
}
