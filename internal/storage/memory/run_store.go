package memory

import (
	"context"
	"sort"
	"sync"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunRecord // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.RunRecord),
	}
}

// copyRun returns a deep copy so callers never share parameter blocks with the store.
func copyRun(r *domain.RunRecord) *domain.RunRecord {
	runCopy := *r
	runCopy.Params = r.Params.Clone()
	return &runCopy
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyRun(r)
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(r), nil
}

// GetByBatchID retrieves all runs of a sweep batch.
func (s *RunStore) GetByBatchID(_ context.Context, batchID string) ([]*domain.RunRecord, error) {
	return s.filter(func(r *domain.RunRecord) bool {
		return r.BatchID == batchID
	}), nil
}

// GetByModel retrieves all runs of a model.
func (s *RunStore) GetByModel(_ context.Context, model domain.ModelTag) ([]*domain.RunRecord, error) {
	return s.filter(func(r *domain.RunRecord) bool {
		return r.Model == model
	}), nil
}

// GetByTimeRange retrieves runs created within [start, end] (inclusive).
func (s *RunStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.RunRecord, error) {
	return s.filter(func(r *domain.RunRecord) bool {
		return r.CreatedAt >= start && r.CreatedAt <= end
	}), nil
}

func (s *RunStore) filter(match func(*domain.RunRecord) bool) []*domain.RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RunRecord
	for _, r := range s.data {
		if match(r) {
			result = append(result, copyRun(r))
		}
	}

	// Sort by created_at ASC, run_id ASC
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].RunID < result[j].RunID
	})

	return result
}

// Verify interface compliance at compile time.
var _ storage.RunStore = (*RunStore)(nil)
