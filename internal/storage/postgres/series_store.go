package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/storage"
)

// SeriesStore implements storage.SeriesStore using PostgreSQL.
// Used when ClickHouse is not configured.
type SeriesStore struct {
	pool *Pool
}

// NewSeriesStore creates a new SeriesStore.
func NewSeriesStore(pool *Pool) *SeriesStore {
	return &SeriesStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SeriesStore = (*SeriesStore)(nil)

// InsertBulk adds multiple points atomically. Fails entire batch on any duplicate.
func (s *SeriesStore) InsertBulk(ctx context.Context, points []*domain.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	query := `
		INSERT INTO simulation_series (
			run_id, period, supply, volume, demand_value
		) VALUES ($1, $2, $3, $4, $5)
	`

	start := time.Now()
	err := s.pool.withTx(ctx, func(tx pgx.Tx) error {
		for _, p := range points {
			if p == nil || p.RunID == "" {
				return storage.ErrInvalidInput
			}
			_, err := tx.Exec(ctx, query,
				p.RunID,
				p.Period,
				p.Supply,
				p.Volume,
				p.DemandValue,
			)
			if err != nil {
				if isDuplicateKeyError(err) {
					return storage.ErrDuplicateKey
				}
				return fmt.Errorf("insert series point in bulk: %w", err)
			}
		}
		return nil
	})
	observe("insert_series", start, err)
	return err
}

// GetByRunID retrieves all points for a run, ordered by period ASC.
func (s *SeriesStore) GetByRunID(ctx context.Context, runID string) ([]*domain.SeriesPoint, error) {
	query := `
		SELECT run_id, period, supply, volume, demand_value
		FROM simulation_series
		WHERE run_id = $1
		ORDER BY period ASC
	`

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, runID)
	observe("get_series", start, err)
	if err != nil {
		return nil, fmt.Errorf("get series by run id: %w", err)
	}
	defer rows.Close()

	var points []*domain.SeriesPoint
	for rows.Next() {
		var p domain.SeriesPoint
		if err := rows.Scan(&p.RunID, &p.Period, &p.Supply, &p.Volume, &p.DemandValue); err != nil {
			return nil, fmt.Errorf("scan series row: %w", err)
		}
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series rows: %w", err)
	}

	return points, nil
}
