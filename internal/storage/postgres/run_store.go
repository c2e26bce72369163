package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
// Parameters and summary are stored as JSONB.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const selectRunColumns = `
		SELECT run_id, batch_id, label, model, params, summary, created_at
		FROM simulation_runs
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	params, err := json.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	summary, err := json.Marshal(r.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	query := `
		INSERT INTO simulation_runs (
			run_id, batch_id, label, model, params, summary, total_demand, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	start := time.Now()
	_, err = s.pool.Exec(ctx, query,
		r.RunID,
		r.BatchID,
		r.Label,
		string(r.Model),
		params,
		summary,
		r.Summary.TotalDemand,
		r.CreatedAt,
	)
	observe("insert_run", start, err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := selectRunColumns + `
		WHERE run_id = $1
	`

	start := time.Now()
	row := s.pool.QueryRow(ctx, query, runID)
	r, err := scanRun(row)
	if isNotFoundError(err) {
		observe("get_run", start, nil)
	} else {
		observe("get_run", start, err)
	}
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// GetByBatchID retrieves all runs of a sweep batch.
func (s *RunStore) GetByBatchID(ctx context.Context, batchID string) ([]*domain.RunRecord, error) {
	query := selectRunColumns + `
		WHERE batch_id = $1
		ORDER BY created_at ASC, run_id ASC
	`

	began := time.Now()
	rows, err := s.pool.Query(ctx, query, batchID)
	if err != nil {
		observe("get_runs_by_batch", began, err)
		return nil, fmt.Errorf("get runs by batch id: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	observe("get_runs_by_batch", began, err)
	return runs, err
}

// GetByModel retrieves all runs of a model.
func (s *RunStore) GetByModel(ctx context.Context, model domain.ModelTag) ([]*domain.RunRecord, error) {
	query := selectRunColumns + `
		WHERE model = $1
		ORDER BY created_at ASC, run_id ASC
	`

	began := time.Now()
	rows, err := s.pool.Query(ctx, query, string(model))
	if err != nil {
		observe("get_runs_by_model", began, err)
		return nil, fmt.Errorf("get runs by model: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	observe("get_runs_by_model", began, err)
	return runs, err
}

// GetByTimeRange retrieves runs created within [start, end] (inclusive).
func (s *RunStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.RunRecord, error) {
	query := selectRunColumns + `
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC, run_id ASC
	`

	began := time.Now()
	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		observe("get_runs_by_time_range", began, err)
		return nil, fmt.Errorf("get runs by time range: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	observe("get_runs_by_time_range", began, err)
	return runs, err
}

// scanRun scans a single row into a RunRecord.
func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var r domain.RunRecord
	var model string
	var params, summary []byte

	err := row.Scan(
		&r.RunID,
		&r.BatchID,
		&r.Label,
		&model,
		&params,
		&summary,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Model = domain.ModelTag(model)
	if err := json.Unmarshal(params, &r.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	if err := json.Unmarshal(summary, &r.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &r, nil
}

// scanRuns scans multiple rows into a slice of RunRecord.
func scanRuns(rows pgx.Rows) ([]*domain.RunRecord, error) {
	var runs []*domain.RunRecord

	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}
