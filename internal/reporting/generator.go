package reporting

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/metrics"
	"token-demand-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	runStore    storage.RunStore
	seriesStore storage.SeriesStore // optional, enables series completeness checks
	now         func() time.Time    // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. seriesStore may be nil.
func NewGenerator(runStore storage.RunStore, seriesStore storage.SeriesStore) *Generator {
	return &Generator{
		runStore:    runStore,
		seriesStore: seriesStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report over the runs matching filter.
func (g *Generator) Generate(ctx context.Context, filter Filter) (*Report, error) {
	// Load runs
	runs, err := g.loadRuns(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Generate run metrics
	rows := g.generateRunRows(runs)

	// Generate model comparison
	comparison := g.generateModelComparison(runs)

	// Generate scenario sensitivity
	sensitivity := g.generateScenarioSensitivity(runs)

	// Generate batch aggregates
	batches, integrityErrors, err := g.generateBatches(ctx, runs)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt:         g.now(),
		Filter:              filter,
		RunCount:            len(runs),
		ModelCount:          len(comparison),
		Runs:                rows,
		ModelComparison:     comparison,
		ScenarioSensitivity: sensitivity,
		Batches:             batches,
		DataQuality:         DataQualitySection{IntegrityErrors: integrityErrors},
	}, nil
}

// loadRuns picks the narrowest store query for the filter, then applies
// the remaining predicates in memory.
func (g *Generator) loadRuns(ctx context.Context, f Filter) ([]*domain.RunRecord, error) {
	var (
		runs []*domain.RunRecord
		err  error
	)
	switch {
	case f.BatchID != "":
		runs, err = g.runStore.GetByBatchID(ctx, f.BatchID)
	case f.Model != "":
		runs, err = g.runStore.GetByModel(ctx, f.Model)
	default:
		end := f.End
		if end == 0 {
			end = math.MaxInt64
		}
		runs, err = g.runStore.GetByTimeRange(ctx, f.Start, end)
	}
	if err != nil {
		return nil, err
	}

	filtered := runs[:0]
	for _, r := range runs {
		if f.Model != "" && r.Model != f.Model {
			continue
		}
		if r.CreatedAt < f.Start || (f.End != 0 && r.CreatedAt >= f.End) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

// generateRunRows builds sorted rows from run summaries.
func (g *Generator) generateRunRows(runs []*domain.RunRecord) []RunRow {
	rows := make([]RunRow, len(runs))
	for i, r := range runs {
		s := r.Summary
		rows[i] = RunRow{
			RunID:       r.RunID,
			BatchID:     r.BatchID,
			Label:       r.Label,
			Model:       r.Model,
			Horizon:     s.Horizon,
			FinalSupply: s.FinalSupply,
			TotalDemand: s.TotalDemand,
			PeakDemand:  s.PeakDemand,
			MeanDemand:  s.MeanDemand,
			DemandP10:   s.DemandP10,
			DemandP50:   s.DemandP50,
			DemandP90:   s.DemandP90,
			FinalVolume: s.FinalVolume,
			TotalVolume: s.TotalVolume,
			CreatedAt:   r.CreatedAt,
		}
	}

	// Sort by (model, batch_id, label, run_id)
	sortRunRows(rows)
	return rows
}

// generateModelComparison groups runs by model.
// Best run ties resolve to the lowest run_id.
func (g *Generator) generateModelComparison(runs []*domain.RunRecord) []ModelComparisonRow {
	groups := make(map[domain.ModelTag][]*domain.RunRecord)
	for _, r := range runs {
		groups[r.Model] = append(groups[r.Model], r)
	}

	rows := make([]ModelComparisonRow, 0, len(groups))
	for model, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].RunID < group[j].RunID })

		best := group[0]
		sum := 0.0
		for _, r := range group {
			sum += r.Summary.TotalDemand
			if r.Summary.TotalDemand > best.Summary.TotalDemand {
				best = r
			}
		}
		rows = append(rows, ModelComparisonRow{
			Model:           model,
			Runs:            len(group),
			MeanTotalDemand: sum / float64(len(group)),
			MaxTotalDemand:  best.Summary.TotalDemand,
			BestRunID:       best.RunID,
			BestLabel:       best.Label,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Model < rows[j].Model })
	return rows
}

// generateScenarioSensitivity compares scenario-labelled runs within each
// (batch_id, model). Groups without a realistic run are skipped.
func (g *Generator) generateScenarioSensitivity(runs []*domain.RunRecord) []ScenarioSensitivityRow {
	type key struct {
		BatchID string
		Model   domain.ModelTag
	}
	groups := make(map[key]map[string]float64)

	for _, r := range runs {
		if r.BatchID == "" {
			continue
		}
		if _, err := domain.ScenarioByID(r.Label); err != nil {
			continue
		}
		k := key{BatchID: r.BatchID, Model: r.Model}
		if groups[k] == nil {
			groups[k] = make(map[string]float64)
		}
		groups[k][r.Label] = r.Summary.TotalDemand
	}

	var rows []ScenarioSensitivityRow
	for k, scenarios := range groups {
		realistic, ok := scenarios[domain.ScenarioRealistic]
		if !ok {
			continue
		}
		row := ScenarioSensitivityRow{
			BatchID:     k.BatchID,
			Model:       k.Model,
			Optimistic:  scenarios[domain.ScenarioOptimistic],
			Realistic:   realistic,
			Pessimistic: scenarios[domain.ScenarioPessimistic],
			Degraded:    scenarios[domain.ScenarioDegraded],
		}
		if realistic != 0 {
			row.DegradationPct = (realistic - row.Degraded) / math.Abs(realistic) * 100
		}
		rows = append(rows, row)
	}

	// Sort by (batch_id, model)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BatchID != rows[j].BatchID {
			return rows[i].BatchID < rows[j].BatchID
		}
		return rows[i].Model < rows[j].Model
	})

	return rows
}

// generateBatches aggregates every batch present in runs.
func (g *Generator) generateBatches(ctx context.Context, runs []*domain.RunRecord) ([]*domain.BatchAggregate, []string, error) {
	batchSet := make(map[string]struct{})
	for _, r := range runs {
		if r.BatchID != "" {
			batchSet[r.BatchID] = struct{}{}
		}
	}
	batchIDs := make([]string, 0, len(batchSet))
	for id := range batchSet {
		batchIDs = append(batchIDs, id)
	}
	sort.Strings(batchIDs)

	aggregator := metrics.NewAggregator(g.runStore, g.seriesStore)
	batches := make([]*domain.BatchAggregate, 0, len(batchIDs))
	for _, id := range batchIDs {
		agg, err := aggregator.ComputeBatch(ctx, id)
		if err != nil {
			if errors.Is(err, metrics.ErrNoRuns) {
				continue
			}
			return nil, nil, err
		}
		batches = append(batches, agg)
	}

	return batches, aggregator.GetMissingSeriesErrors(), nil
}

// sortRunRows sorts rows by (model, batch_id, label, run_id).
func sortRunRows(rows []RunRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Model != rows[j].Model {
			return rows[i].Model < rows[j].Model
		}
		if rows[i].BatchID != rows[j].BatchID {
			return rows[i].BatchID < rows[j].BatchID
		}
		if rows[i].Label != rows[j].Label {
			return rows[i].Label < rows[j].Label
		}
		return rows[i].RunID < rows[j].RunID
	})
}
