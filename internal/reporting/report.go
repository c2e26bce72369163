package reporting

import (
	"time"

	"token-demand-lab/internal/domain"
)

// Report represents a demand-simulation report over stored runs.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Filter      Filter
	RunCount    int
	ModelCount  int

	// Run Metrics (sorted by model, batch_id, label, run_id)
	Runs []RunRow

	// Comparisons
	ModelComparison     []ModelComparisonRow     // one row per model
	ScenarioSensitivity []ScenarioSensitivityRow // optimistic vs realistic vs pessimistic vs degraded

	// Batch aggregates (sorted by batch_id)
	Batches []*domain.BatchAggregate

	// Data Quality
	DataQuality DataQualitySection

	// Reproducibility, filled by the report pipeline
	Reproducibility ReproducibilityMetadata
}

// ReproducibilityMetadata identifies the inputs a report was built from.
type ReproducibilityMetadata struct {
	GeneratorVersion string
	DataVersion      string // short hash over run ids and total demand
	ReplayCommand    string
}

// Filter selects the runs a report covers. Zero fields match everything.
type Filter struct {
	BatchID string
	Model   domain.ModelTag
	Start   int64 // Unix ms, inclusive
	End     int64 // Unix ms, exclusive; 0 means unbounded
}

// DataQualitySection contains integrity errors found while loading runs.
type DataQualitySection struct {
	IntegrityErrors []string
}

// RunRow represents one row in the run metrics table.
type RunRow struct {
	RunID       string
	BatchID     string
	Label       string
	Model       domain.ModelTag
	Horizon     int
	FinalSupply float64
	TotalDemand float64
	PeakDemand  float64
	MeanDemand  float64
	DemandP10   float64
	DemandP50   float64
	DemandP90   float64
	FinalVolume float64
	TotalVolume float64
	CreatedAt   int64 // Unix ms
}

// ModelComparisonRow summarises all runs of one model.
type ModelComparisonRow struct {
	Model           domain.ModelTag
	Runs            int
	MeanTotalDemand float64
	MaxTotalDemand  float64
	BestRunID       string
	BestLabel       string
}

// ScenarioSensitivityRow compares scenario outlooks within one batch and model.
type ScenarioSensitivityRow struct {
	BatchID        string
	Model          domain.ModelTag
	Optimistic     float64
	Realistic      float64
	Pessimistic    float64
	Degraded       float64
	DegradationPct float64 // (realistic - degraded) / |realistic| * 100, 0 if realistic == 0
}
