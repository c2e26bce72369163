package metrics

import (
	"context"
	"errors"
	"math"
	"testing"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/storage/memory"
)

// Helper to create a run with a given total demand.
func makeRun(runID, batchID, label string, model domain.ModelTag, totalDemand float64, horizon int) *domain.RunRecord {
	return &domain.RunRecord{
		RunID:   runID,
		BatchID: batchID,
		Label:   label,
		Model:   model,
		Summary: domain.Summary{
			Model:       model,
			Horizon:     horizon,
			TotalDemand: totalDemand,
		},
		CreatedAt: 1000,
	}
}

func TestComputeBatch_Quantiles(t *testing.T) {
	ctx := context.Background()
	runStore := memory.NewRunStore()

	totals := []float64{100, -50, 300, 0, 200}
	labels := []string{"a", "b", "c", "d", "e"}
	models := []domain.ModelTag{
		domain.ModelBuybackBurn,
		domain.ModelExponentialDecay,
		domain.ModelExponentialDecay,
		domain.ModelFeeHoliday,
		domain.ModelFeeHoliday,
	}
	for i, total := range totals {
		r := makeRun("run-"+labels[i], "batch-1", labels[i], models[i], total, 12)
		if err := runStore.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	// Other batch must not leak in
	if err := runStore.Insert(ctx, makeRun("run-x", "batch-2", "x", domain.ModelBuybackBurn, 1e9, 12)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	agg, err := NewAggregator(runStore, nil).ComputeBatch(ctx, "batch-1")
	if err != nil {
		t.Fatalf("ComputeBatch failed: %v", err)
	}

	// sorted: [-50, 0, 100, 200, 300]
	// P10: idx 0.4 → -50 + 0.4*50 = -30
	// P50: idx 2 → 100
	// P90: idx 3.6 → 200 + 0.6*100 = 260
	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"Mean", agg.TotalDemandMean, 110},
		{"Min", agg.TotalDemandMin, -50},
		{"Max", agg.TotalDemandMax, 300},
		{"P10", agg.TotalDemandP10, -30},
		{"P50", agg.TotalDemandP50, 100},
		{"P90", agg.TotalDemandP90, 260},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.expected) > 1e-9 {
			t.Errorf("%s: expected %.4f, got %.4f", tt.name, tt.expected, tt.got)
		}
	}

	if agg.Runs != 5 {
		t.Errorf("expected 5 runs, got %d", agg.Runs)
	}
	if agg.BestLabel != "c" || agg.BestRunID != "run-c" {
		t.Errorf("best: expected c, got %s (%s)", agg.BestLabel, agg.BestRunID)
	}
	if agg.WorstLabel != "b" {
		t.Errorf("worst: expected b, got %s", agg.WorstLabel)
	}
	if agg.RunsByModel[domain.ModelExponentialDecay] != 2 || agg.RunsByModel[domain.ModelFeeHoliday] != 2 {
		t.Errorf("unexpected runs by model: %v", agg.RunsByModel)
	}
}

func TestComputeBatch_Deterministic(t *testing.T) {
	ctx := context.Background()
	runStore := memory.NewRunStore()

	// Equal totals: tie resolves to lowest run_id
	for _, id := range []string{"run-b", "run-a", "run-c"} {
		if err := runStore.Insert(ctx, makeRun(id, "batch", id, domain.ModelLogarithmicBurn, 42, 12)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	aggregator := NewAggregator(runStore, nil)
	first, err := aggregator.ComputeBatch(ctx, "batch")
	if err != nil {
		t.Fatalf("ComputeBatch failed: %v", err)
	}
	second, err := aggregator.ComputeBatch(ctx, "batch")
	if err != nil {
		t.Fatalf("ComputeBatch failed: %v", err)
	}

	if first.BestRunID != "run-a" || first.WorstRunID != "run-a" {
		t.Errorf("expected run-a for ties, got best=%s worst=%s", first.BestRunID, first.WorstRunID)
	}
	if first.BestRunID != second.BestRunID || first.TotalDemandStddev != second.TotalDemandStddev {
		t.Error("aggregate is not deterministic")
	}
	if first.TotalDemandStddev != 0 {
		t.Errorf("expected zero stddev, got %f", first.TotalDemandStddev)
	}
}

func TestComputeBatch_NoRuns(t *testing.T) {
	_, err := NewAggregator(memory.NewRunStore(), nil).ComputeBatch(context.Background(), "missing")
	if !errors.Is(err, ErrNoRuns) {
		t.Errorf("expected ErrNoRuns, got %v", err)
	}
}

func TestComputeBatch_MissingSeries(t *testing.T) {
	ctx := context.Background()
	runStore := memory.NewRunStore()
	seriesStore := memory.NewSeriesStore()

	if err := runStore.Insert(ctx, makeRun("run-full", "batch", "full", domain.ModelExponentialDecay, 1, 2)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := runStore.Insert(ctx, makeRun("run-partial", "batch", "partial", domain.ModelExponentialDecay, 2, 2)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	points := []*domain.SeriesPoint{
		{RunID: "run-full", Period: 1},
		{RunID: "run-full", Period: 2},
		{RunID: "run-partial", Period: 1},
	}
	if err := seriesStore.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	aggregator := NewAggregator(runStore, seriesStore)
	if _, err := aggregator.ComputeBatch(ctx, "batch"); err != nil {
		t.Fatalf("ComputeBatch failed: %v", err)
	}

	errs := aggregator.GetMissingSeriesErrors()
	if len(errs) != 1 || errs[0] != "run run-partial has incomplete series" {
		t.Errorf("unexpected data quality errors: %v", errs)
	}
}
