package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ftpadapter "github.com/couchcryptid/statemod-etl/internal/adapter/ftp"
	"github.com/couchcryptid/statemod-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/statemod-etl/internal/adapter/kafka"
	"github.com/couchcryptid/statemod-etl/internal/config"
	"github.com/couchcryptid/statemod-etl/internal/domain"
	"github.com/couchcryptid/statemod-etl/internal/observability"
	"github.com/couchcryptid/statemod-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	defaults := domain.FileDefaults{DataType: cfg.StatemodDataType, Source: cfg.StatemodSource}

	var extractor pipeline.BatchExtractor
	closeSrc := func() error { return nil }
	switch cfg.Source {
	case config.SourceFTP:
		extractor = ftpadapter.NewPoller(cfg, metrics, logger)
		logger.Info("polling ftp for statemod files", "addr", cfg.FTPAddr, "dir", cfg.FTPDir, "interval", cfg.FTPPollInterval)
	default:
		reader := kafkaadapter.NewReader(cfg, logger)
		extractor = reader
		closeSrc = reader.Close
		logger.Info("consuming statemod files from kafka", "topic", cfg.KafkaSourceTopic)
	}

	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(defaults, logger)

	p := pipeline.New(extractor, transformer, writer, logger, metrics, cfg.BatchSize)

	api := httpadapter.NewAPI(defaults, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, api, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := closeSrc(); err != nil {
		logger.Error("source close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
