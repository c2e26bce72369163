// Package main runs the JSON HTTP API:
// - POST /v1/simulate, POST /v1/sweep: run and persist simulations
// - GET /v1/models, /v1/runs/{id}, /v1/runs/{id}/series: read back
// - GET /health, /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"token-demand-lab/internal/api"
	"token-demand-lab/internal/app"
	"token-demand-lab/internal/config"
	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Parse flags (env vars as defaults)
	httpAddr := flag.String("http-addr", cfg.HTTPAddr, "HTTP API listen address")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Separate Prometheus listen address (empty to serve only on the API port)")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickHouseDSN, "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	flag.Parse()

	cfg.HTTPAddr = *httpAddr
	cfg.MetricsAddr = *metricsAddr
	cfg.PostgresDSN = *postgresDSN
	cfg.ClickHouseDSN = *clickhouseDSN
	cfg.UseMemory = *useMemory

	logger := app.Logger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	runner := app.NewRunner(stores, logger)
	handler := api.NewHandler(api.Options{
		Runner:       runner,
		Orchestrator: app.NewOrchestrator(cfg, runner, logger),
		RunStore:     stores.Runs,
		SeriesStore:  stores.Series,
		Defaults: func(tag domain.ModelTag) (domain.SimulationParameters, error) {
			return app.Defaults(cfg, tag)
		},
		Logger: logger,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" && cfg.MetricsAddr != cfg.HTTPAddr {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadTimeout: 10 * time.Second}
		go serve(logger, "metrics", metricsSrv)
	}

	logger.WithFields(logrus.Fields{
		"addr":   cfg.HTTPAddr,
		"memory": cfg.UseMemory,
	}).Info("Starting API server")
	go serve(logger, "api", srv)

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("API server shutdown")
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Metrics server shutdown")
		}
	}
	logger.Info("Server stopped")
}

// serve runs srv until it is shut down. Any other failure is fatal.
func serve(logger *logrus.Logger, name string, srv *http.Server) {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Errorf("%s server failed", name)
		os.Exit(1)
	}
}
