package storage

import (
	"context"

	"token-demand-lab/internal/domain"
)

// RunStore provides access to simulation_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetByBatchID retrieves all runs of a sweep batch, ordered by created_at, run_id ASC.
	GetByBatchID(ctx context.Context, batchID string) ([]*domain.RunRecord, error)

	// GetByModel retrieves all runs of a model, ordered by created_at, run_id ASC.
	GetByModel(ctx context.Context, model domain.ModelTag) ([]*domain.RunRecord, error)

	// GetByTimeRange retrieves runs created within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.RunRecord, error)
}

// SeriesStore provides access to simulation_series storage.
type SeriesStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (run_id, period).
	InsertBulk(ctx context.Context, points []*domain.SeriesPoint) error

	// GetByRunID retrieves all points for a run, ordered by period ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.SeriesPoint, error)
}
