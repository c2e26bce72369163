package memory

import (
	"context"
	"sort"
	"sync"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/storage"
)

// SeriesStore is an in-memory implementation of storage.SeriesStore.
type SeriesStore struct {
	mu   sync.RWMutex
	runs map[string]map[int]domain.SeriesPoint // run_id -> period -> point
}

// NewSeriesStore creates a new in-memory series store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{
		runs: make(map[string]map[int]domain.SeriesPoint),
	}
}

// InsertBulk adds multiple points. A nil point, an empty run id, or a
// (run_id, period) already stored or repeated within points fails the
// whole batch and stores nothing.
func (s *SeriesStore) InsertBulk(_ context.Context, points []*domain.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct {
		runID  string
		period int
	}
	seen := make(map[key]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.RunID == "" {
			return storage.ErrInvalidInput
		}
		k := key{p.RunID, p.Period}
		if _, dup := seen[k]; dup {
			return storage.ErrDuplicateKey
		}
		if _, exists := s.runs[p.RunID][p.Period]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, p := range points {
		periods, ok := s.runs[p.RunID]
		if !ok {
			periods = make(map[int]domain.SeriesPoint)
			s.runs[p.RunID] = periods
		}
		periods[p.Period] = *p
	}
	return nil
}

// GetByRunID retrieves all points for a run, ordered by period ASC.
// An unknown run yields an empty slice.
func (s *SeriesStore) GetByRunID(_ context.Context, runID string) ([]*domain.SeriesPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	periods := s.runs[runID]
	result := make([]*domain.SeriesPoint, 0, len(periods))
	for _, p := range periods {
		p := p
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Period < result[j].Period
	})
	return result, nil
}

var _ storage.SeriesStore = (*SeriesStore)(nil)
