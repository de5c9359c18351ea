// Package ftp polls an FTP directory for StateMod files.
package ftp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/statemod-etl/internal/config"
	"github.com/couchcryptid/statemod-etl/internal/domain"
	"github.com/couchcryptid/statemod-etl/internal/observability"
	"github.com/couchcryptid/statemod-etl/internal/statemod"
	goftp "github.com/jlaffaye/ftp"
	"github.com/jonboulle/clockwork"
)

// Conn is the subset of an FTP session the poller needs.
type Conn interface {
	Login(user, password string) error
	List(path string) ([]*goftp.Entry, error)
	Retrieve(path string) ([]byte, error)
	Quit() error
}

// Dialer opens a new FTP session.
type Dialer func(ctx context.Context) (Conn, error)

// serverConn adapts *goftp.ServerConn to Conn.
type serverConn struct {
	*goftp.ServerConn
}

func (c serverConn) Retrieve(p string) ([]byte, error) {
	resp, err := c.Retr(p)
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	return io.ReadAll(resp)
}

// NewDialer returns a Dialer for addr with the given connect timeout.
func NewDialer(addr string, timeout time.Duration) Dialer {
	return func(ctx context.Context) (Conn, error) {
		c, err := goftp.Dial(addr, goftp.DialWithTimeout(timeout), goftp.DialWithContext(ctx))
		if err != nil {
			return nil, err
		}
		return serverConn{c}, nil
	}
}

// Poller lists a directory on a fixed interval and hands out StateMod files
// it has not delivered before. A file is identified by name, size and
// modification time, so a rewritten file is delivered again.
// It implements pipeline.BatchExtractor.
type Poller struct {
	dial     Dialer
	dir      string
	user     string
	password string
	interval time.Duration
	retryFor time.Duration
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu       sync.Mutex
	seen     map[string]bool
	pending  []*goftp.Entry
	lastPoll time.Time
}

// NewPoller creates a Poller for the configured FTP directory.
func NewPoller(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Poller {
	return newPoller(NewDialer(cfg.FTPAddr, cfg.FTPTimeout), cfg, metrics, logger)
}

func newPoller(dial Dialer, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Poller {
	return &Poller{
		dial:     dial,
		dir:      cfg.FTPDir,
		user:     cfg.FTPUser,
		password: cfg.FTPPassword,
		interval: cfg.FTPPollInterval,
		retryFor: cfg.FTPPollInterval,
		clock:    clockwork.NewRealClock(),
		metrics:  metrics,
		logger:   logger,
		seen:     make(map[string]bool),
	}
}

// ExtractBatch returns up to batchSize new files. When nothing is pending it
// waits for the next poll, lists the directory and queues unseen StateMod
// files in name order. An empty batch means the poll found nothing new.
func (p *Poller) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawFile, error) {
	needList := p.pendingCount() == 0
	if needList {
		if err := p.waitForPoll(ctx); err != nil {
			return nil, err
		}
	}

	conn, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			p.logger.Debug("ftp quit failed", "error", err)
		}
	}()

	if needList {
		p.mu.Lock()
		p.lastPoll = p.clock.Now()
		p.mu.Unlock()

		entries, err := conn.List(p.dir)
		if err != nil {
			return nil, fmt.Errorf("ftp list %s: %w", p.dir, err)
		}
		p.enqueue(entries)
	}

	return p.fetch(ctx, conn, batchSize), nil
}

func (p *Poller) pendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Poller) waitForPoll(ctx context.Context) error {
	p.mu.Lock()
	last := p.lastPoll
	p.mu.Unlock()

	if last.IsZero() {
		return ctx.Err()
	}
	wait := p.interval - p.clock.Since(last)
	if wait <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(wait):
		return nil
	}
}

// connect dials and logs in, retrying dial failures with exponential
// backoff. A rejected login is not retried.
func (p *Poller) connect(ctx context.Context) (Conn, error) {
	var conn Conn
	operation := func() error {
		c, err := p.dial(ctx)
		if err != nil {
			p.logger.Warn("ftp dial failed, retrying", "error", err)
			return fmt.Errorf("ftp dial: %w", err)
		}
		if err := c.Login(p.user, p.password); err != nil {
			_ = c.Quit()
			return backoff.Permanent(fmt.Errorf("ftp login: %w", err))
		}
		conn = c
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = p.retryFor
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return conn, nil
}

// enqueue queues the listed StateMod files that have not been delivered.
func (p *Poller) enqueue(entries []*goftp.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	queued := make(map[string]bool, len(p.pending))
	for _, e := range p.pending {
		queued[entryKey(e)] = true
	}

	for _, e := range entries {
		if e == nil || e.Type != goftp.EntryTypeFile {
			continue
		}
		if statemod.DataTypeForFile(e.Name) == "" {
			p.metrics.FTPFetches.WithLabelValues("skipped").Inc()
			continue
		}
		key := entryKey(e)
		if p.seen[key] || queued[key] {
			continue
		}
		p.pending = append(p.pending, e)
		queued[key] = true
	}
	sort.Slice(p.pending, func(i, j int) bool { return p.pending[i].Name < p.pending[j].Name })
}

// fetch retrieves up to batchSize pending files. A failed retrieval is
// dropped from the queue but not marked seen, so the next poll retries it.
func (p *Poller) fetch(ctx context.Context, conn Conn, batchSize int) []domain.RawFile {
	p.mu.Lock()
	n := min(batchSize, len(p.pending))
	todo := append([]*goftp.Entry(nil), p.pending[:n]...)
	p.mu.Unlock()

	batch := make([]domain.RawFile, 0, n)
	for _, e := range todo {
		if ctx.Err() != nil {
			break
		}
		full := path.Join(p.dir, e.Name)
		data, err := conn.Retrieve(full)
		p.remove(e)
		if err != nil {
			p.metrics.FTPFetches.WithLabelValues("error").Inc()
			p.logger.Warn("ftp retrieve failed", "error", err, "path", full)
			continue
		}
		p.metrics.FTPFetches.WithLabelValues("success").Inc()
		batch = append(batch, p.rawFile(e, full, data))
	}
	return batch
}

func (p *Poller) remove(e *goftp.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, q := range p.pending {
		if q == e {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			return
		}
	}
}

func (p *Poller) rawFile(e *goftp.Entry, full string, data []byte) domain.RawFile {
	key := entryKey(e)
	return domain.RawFile{
		Key:       []byte(e.Name),
		Value:     data,
		Headers:   map[string]string{domain.HeaderInputName: full},
		Topic:     "ftp://" + p.dir,
		Timestamp: e.Time,
		Commit: func(context.Context) error {
			p.mu.Lock()
			p.seen[key] = true
			p.mu.Unlock()
			return nil
		},
	}
}

func entryKey(e *goftp.Entry) string {
	return fmt.Sprintf("%s|%d|%d", e.Name, e.Size, e.Time.UnixNano())
}
