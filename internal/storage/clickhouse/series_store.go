package clickhouse

import (
	"context"
	"fmt"
	"time"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/storage"
)

// SeriesStore implements storage.SeriesStore using ClickHouse.
type SeriesStore struct {
	conn *Conn
}

// NewSeriesStore creates a new SeriesStore.
func NewSeriesStore(conn *Conn) *SeriesStore {
	return &SeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SeriesStore = (*SeriesStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (run_id, period).
func (s *SeriesStore) InsertBulk(ctx context.Context, points []*domain.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runID  string
		period int
	}
	seen := make(map[key]struct{})
	runIDs := make(map[string]struct{})
	for _, p := range points {
		if p == nil || p.RunID == "" || p.Period < 0 {
			return storage.ErrInvalidInput
		}
		k := key{p.RunID, p.Period}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		runIDs[p.RunID] = struct{}{}
	}

	// Check for duplicates against existing rows, one query per run
	for runID := range runIDs {
		existing, err := s.existingPeriods(ctx, runID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for period := range existing {
			if _, clash := seen[key{runID, period}]; clash {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO simulation_series (
			run_id, period, supply, volume, demand_value
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.RunID, uint32(p.Period),
			p.Supply, p.Volume, p.DemandValue,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	start := time.Now()
	err = batch.Send()
	observe("insert_series", start, err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all points for a run, ordered by period ASC.
func (s *SeriesStore) GetByRunID(ctx context.Context, runID string) ([]*domain.SeriesPoint, error) {
	query := `
		SELECT run_id, period, supply, volume, demand_value
		FROM simulation_series
		WHERE run_id = ?
		ORDER BY period ASC
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, runID)
	observe("get_series", start, err)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanSeries(rows)
}

// existingPeriods returns the set of periods already stored for a run.
func (s *SeriesStore) existingPeriods(ctx context.Context, runID string) (map[int]struct{}, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT period FROM simulation_series
		WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	periods := make(map[int]struct{})
	for rows.Next() {
		var period uint32
		if err := rows.Scan(&period); err != nil {
			return nil, err
		}
		periods[int(period)] = struct{}{}
	}
	return periods, rows.Err()
}

// scanSeries scans multiple rows.
func scanSeries(rows chRows) ([]*domain.SeriesPoint, error) {
	var points []*domain.SeriesPoint

	for rows.Next() {
		var p domain.SeriesPoint
		var period uint32

		err := rows.Scan(
			&p.RunID, &period,
			&p.Supply, &p.Volume, &p.DemandValue,
		)
		if err != nil {
			return nil, fmt.Errorf("scan series row: %w", err)
		}

		p.Period = int(period)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series rows: %w", err)
	}

	return points, nil
}
