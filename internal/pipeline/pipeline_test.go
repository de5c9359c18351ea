package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/statemod-etl/internal/domain"
	"github.com/couchcryptid/statemod-etl/internal/observability"
	"github.com/couchcryptid/statemod-etl/internal/pipeline"
	"github.com/couchcryptid/statemod-etl/internal/statemod"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawFile
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawFile, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for files
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawFile) ([]domain.OutputEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.OutputEvent{
		{Key: []byte(string(raw.Key) + "#1"), Value: raw.Value},
		{Key: []byte(string(raw.Key) + "#2"), Value: raw.Value},
	}, nil
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.OutputEvent
	failures int
	calls    int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func (m *mockLoader) Loaded() []domain.OutputEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OutputEvent(nil), m.loaded...)
}

func newTestMetrics() *observability.Metrics {
	// Use unregistered collectors to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawFile(name string) domain.RawFile {
	return domain.RawFile{Key: []byte(name), Value: []byte("file " + name), Topic: "raw-statemod-files"}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawFile{{rawFile("a.rih"), rawFile("b.ddh")}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)
	require.Error(t, p.CheckReadiness(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))

	loaded := ldr.Loaded()
	require.Len(t, loaded, 4)
	assert.Equal(t, "a.rih#1", string(loaded[0].Key))
	assert.Equal(t, "b.ddh#2", string(loaded[3].Key))
	require.NoError(t, p.CheckReadiness(context.Background()))

	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.FilesConsumed), 0)
	assert.InDelta(t, 4.0, testutil.ToFloat64(metrics.SeriesProduced), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no files, will block
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.Loaded())
}

func TestPipeline_Run_TransformErrorCommitsAndCounts(t *testing.T) {
	var commits atomic.Int32
	raw := rawFile("bad.rih")
	raw.Commit = func(_ context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawFile{{raw}}}
	tfm := &mockTransformer{err: &statemod.FormatError{Msg: "no header line"}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.Loaded())
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, int32(1), commits.Load(), "poison file is committed so it is not redelivered")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.TransformErrors.WithLabelValues("format")), 0)
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var committed atomic.Bool
	raw := rawFile("a.rih")
	raw.Commit = func(_ context.Context) error {
		committed.Store(true)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawFile{{raw}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.True(t, committed.Load())
}

func TestPipeline_Run_RetriesFailedLoad(t *testing.T) {
	var commits atomic.Int32
	commit := func(_ context.Context) error {
		commits.Add(1)
		return nil
	}
	first := rawFile("a.rih")
	first.Commit = commit
	retry := rawFile("a.rih")
	retry.Commit = commit

	// The failed batch is not committed, so the source redelivers it.
	ext := &mockExtractor{batches: [][]domain.RawFile{{first}, {retry}}}
	ldr := &mockLoader{failures: 1}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Len(t, ldr.Loaded(), 2)
	assert.Equal(t, int32(1), commits.Load())
	assert.Equal(t, 2, ldr.calls)
}

func TestPipeline_Run_StopsBetweenFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ext := &mockExtractor{batches: [][]domain.RawFile{{rawFile("a.rih"), rawFile("b.rih")}}}
	tfm := &cancellingTransformer{cancel: cancel}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tfm, ldr, discardLogger(), newTestMetrics(), 10)

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 1, tfm.calls, "the second file is not started after cancellation")
	assert.Empty(t, ldr.Loaded())
}

// cancellingTransformer cancels the run while the first file is in flight.
type cancellingTransformer struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingTransformer) Transform(_ context.Context, raw domain.RawFile) ([]domain.OutputEvent, error) {
	c.calls++
	c.cancel()
	return []domain.OutputEvent{{Key: raw.Key}}, nil
}

func TestStatemodTransformer_Transform(t *testing.T) {
	line := fmt.Sprintf("%5d %-11s", 2010, "ALPHA")
	for month := 1; month <= 12; month++ {
		line += fmt.Sprintf("%8.1f", float64(month))
	}
	raw := domain.RawFile{
		Key:   []byte("flows.rih"),
		Value: []byte("    1/2010  -     12/2010 CFS   CYR\n" + line + "\n"),
	}

	tfm := pipeline.NewTransformer(domain.FileDefaults{Source: "CDSS"}, discardLogger())
	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ALPHA.CDSS.StreamflowHistorical.Month~StateMod~flows.rih", string(out[0].Key))
	assert.Contains(t, string(out[0].Value), `"units":"CFS"`)
}

func TestStatemodTransformer_TransformError(t *testing.T) {
	tfm := pipeline.NewTransformer(domain.FileDefaults{}, discardLogger())
	_, err := tfm.Transform(context.Background(), domain.RawFile{Key: []byte("x.rih"), Value: []byte("# only a comment\n")})
	require.ErrorIs(t, err, statemod.ErrFormat)
}
