package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/storage"
)

// ErrNoRuns is returned when no runs are available for aggregation.
var ErrNoRuns = errors.New("no runs available for aggregation")

// Aggregator computes batch aggregates from persisted runs.
type Aggregator struct {
	runStore    storage.RunStore
	seriesStore storage.SeriesStore

	// MissingSeries tracks run_ids whose series could not be found (for data quality reporting).
	MissingSeries map[string]struct{}
}

// NewAggregator creates a new metrics aggregator.
// seriesStore may be nil, in which case series completeness is not checked.
func NewAggregator(runStore storage.RunStore, seriesStore storage.SeriesStore) *Aggregator {
	return &Aggregator{
		runStore:      runStore,
		seriesStore:   seriesStore,
		MissingSeries: make(map[string]struct{}),
	}
}

// ComputeBatch computes the aggregate for a sweep batch.
// Returns ErrNoRuns if the batch has no runs.
func (a *Aggregator) ComputeBatch(ctx context.Context, batchID string) (*domain.BatchAggregate, error) {
	runs, err := a.runStore.GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}

	if err := a.checkSeries(ctx, runs); err != nil {
		return nil, err
	}

	return AggregateRuns(batchID, runs), nil
}

// checkSeries records runs whose series length does not match the horizon.
func (a *Aggregator) checkSeries(ctx context.Context, runs []*domain.RunRecord) error {
	if a.seriesStore == nil {
		return nil
	}
	for _, r := range runs {
		points, err := a.seriesStore.GetByRunID(ctx, r.RunID)
		if err != nil {
			return fmt.Errorf("load series %s: %w", r.RunID, err)
		}
		if len(points) != r.Summary.Horizon {
			a.MissingSeries[r.RunID] = struct{}{}
		}
	}
	return nil
}

// GetMissingSeriesErrors returns data quality errors for incomplete series.
// Sorted by run_id for deterministic output.
func (a *Aggregator) GetMissingSeriesErrors() []string {
	if len(a.MissingSeries) == 0 {
		return nil
	}

	keys := make([]string, 0, len(a.MissingSeries))
	for k := range a.MissingSeries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	errs := make([]string, len(keys))
	for i, runID := range keys {
		errs[i] = fmt.Sprintf("run %s has incomplete series", runID)
	}
	return errs
}
