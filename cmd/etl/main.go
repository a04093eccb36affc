package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/streamflow-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/streamflow-etl/internal/adapter/kafka"
	"github.com/couchcryptid/streamflow-etl/internal/adapter/usgs"
	"github.com/couchcryptid/streamflow-etl/internal/config"
	"github.com/couchcryptid/streamflow-etl/internal/observability"
	"github.com/couchcryptid/streamflow-etl/internal/pipeline"
	"github.com/couchcryptid/streamflow-etl/internal/scheduler"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, metrics, logger)
	fetcher := usgs.NewCachedFetcher(client, cfg.USGSCacheSize, metrics)
	logger.Info("usgs client configured",
		"base_url", cfg.USGSBaseURL,
		"timeout", cfg.USGSTimeout,
		"cache_size", cfg.USGSCacheSize,
		"history_years", cfg.HistoryYears,
	)

	comparator := pipeline.NewComparator(fetcher, cfg.HistoryYears, metrics, logger)
	transformer := pipeline.NewTransformer(comparator)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	var (
		sched         *scheduler.Scheduler
		requestWriter *kafkaadapter.RequestWriter
	)
	if len(cfg.ScheduleGauges) > 0 {
		requestWriter = kafkaadapter.NewRequestWriter(cfg, logger)
		sched, err = scheduler.New(cfg.ScheduleCron, cfg.ScheduleGauges, requestWriter, metrics, logger)
		if err != nil {
			logger.Error("failed to create scheduler", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("scheduler disabled: no SCHEDULE_GAUGES configured")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, comparator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	if sched != nil {
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if requestWriter != nil {
		if err := requestWriter.Close(); err != nil {
			logger.Error("kafka request writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
