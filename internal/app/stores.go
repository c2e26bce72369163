// Package app wires configuration, storage and logging for the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"token-demand-lab/internal/config"
	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/observability"
	"token-demand-lab/internal/simulation"
	"token-demand-lab/internal/storage"
	chstore "token-demand-lab/internal/storage/clickhouse"
	"token-demand-lab/internal/storage/memory"
	"token-demand-lab/internal/storage/migrations"
	pgstore "token-demand-lab/internal/storage/postgres"
	"token-demand-lab/internal/sweep"
)

// Stores holds the run and series stores selected by configuration.
type Stores struct {
	Runs   storage.RunStore
	Series storage.SeriesStore
}

// OpenStores creates in-memory stores, or Postgres runs with series in
// ClickHouse (Postgres when no ClickHouse DSN is set).
// Migrations are applied on open. The returned cleanup closes connections.
func OpenStores(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*Stores, func(), error) {
	if cfg.UseMemory {
		return &Stores{
			Runs:   memory.NewRunStore(),
			Series: memory.NewSeriesStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, pgstore.WithMaxConns(cfg.PostgresMaxConns))
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	if len(applied) > 0 {
		logger.WithField("versions", applied).Info("applied postgres migrations")
	}

	stores := &Stores{Runs: pgstore.NewRunStore(pool)}
	if cfg.ClickHouseDSN == "" {
		stores.Series = pgstore.NewSeriesStore(pool)
		return stores, pool.Close, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	stores.Series = chstore.NewSeriesStore(conn)

	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// Logger builds the process logger from configuration.
func Logger(cfg *config.Config) *logrus.Logger {
	return observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

// NewRunner creates a simulation runner over stores.
// A nil stores value runs without persistence.
func NewRunner(stores *Stores, logger logrus.FieldLogger) *simulation.Runner {
	opts := simulation.RunnerOptions{Logger: logger}
	if stores != nil {
		opts.RunStore = stores.Runs
		opts.SeriesStore = stores.Series
	}
	return simulation.NewRunner(opts)
}

// NewOrchestrator creates a sweep orchestrator bounded by the configured concurrency.
func NewOrchestrator(cfg *config.Config, runner *simulation.Runner, logger logrus.FieldLogger) *sweep.Orchestrator {
	return sweep.New(sweep.Options{
		Runner:      runner,
		Concurrency: cfg.SweepConcurrency,
		Logger:      logger,
	})
}

// Defaults returns the model defaults with the configured discount factor.
func Defaults(cfg *config.Config, tag domain.ModelTag) (domain.SimulationParameters, error) {
	params, err := domain.DefaultParameters(tag)
	if err != nil {
		return domain.SimulationParameters{}, err
	}
	params.Common.DiscountFactor = cfg.DiscountFactor
	return params, nil
}
