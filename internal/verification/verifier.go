// Package verification re-simulates stored runs and checks that the
// persisted summary and series still match the simulators.
package verification

import (
	"context"
	"fmt"
	"math"

	"token-demand-lab/internal/domain"
)

// FloatTolerance is the absolute tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      `json:"field"`
	Expected interface{} `json:"expected"` // stored value
	Actual   interface{} `json:"actual"`   // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID               string            `json:"run_id"`
	Match               bool              `json:"match"`
	Divergences         []FieldDivergence `json:"divergences,omitempty"`
	StoredTotalDemand   float64           `json:"stored_total_demand"`
	ReplayedTotalDemand float64           `json:"replayed_total_demand"`
	SeriesChecked       bool              `json:"series_checked"`
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalRuns     int                  `json:"total_runs"`
	MatchedRuns   int                  `json:"matched_runs"`
	DivergentRuns int                  `json:"divergent_runs"`
	Results       []VerificationResult `json:"results"`
}

// Verifier verifies stored runs against a fresh simulation.
type Verifier interface {
	// VerifyRun loads the stored run, re-executes the simulation with the
	// same parameters and compares summary and series.
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)

	// VerifyBatch verifies every run of a sweep batch.
	VerifyBatch(ctx context.Context, batchID string) (*VerificationReport, error)
}

// CompareSummaries compares two summaries and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareSummaries(stored, replayed domain.Summary) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.Model != replayed.Model {
		divergences = append(divergences, FieldDivergence{
			Field:    "Model",
			Expected: stored.Model,
			Actual:   replayed.Model,
		})
	}
	if stored.Horizon != replayed.Horizon {
		divergences = append(divergences, FieldDivergence{
			Field:    "Horizon",
			Expected: stored.Horizon,
			Actual:   replayed.Horizon,
		})
	}

	floats := []struct {
		name     string
		expected float64
		actual   float64
	}{
		{"FinalSupply", stored.FinalSupply, replayed.FinalSupply},
		{"TotalDemand", stored.TotalDemand, replayed.TotalDemand},
		{"PeakDemand", stored.PeakDemand, replayed.PeakDemand},
		{"MeanDemand", stored.MeanDemand, replayed.MeanDemand},
		{"DemandStdev", stored.DemandStdev, replayed.DemandStdev},
		{"DemandP10", stored.DemandP10, replayed.DemandP10},
		{"DemandP50", stored.DemandP50, replayed.DemandP50},
		{"DemandP90", stored.DemandP90, replayed.DemandP90},
		{"FinalVolume", stored.FinalVolume, replayed.FinalVolume},
		{"TotalVolume", stored.TotalVolume, replayed.TotalVolume},
	}
	for _, f := range floats {
		if !floatEquals(f.expected, f.actual) {
			divergences = append(divergences, FieldDivergence{
				Field:    f.name,
				Expected: f.expected,
				Actual:   f.actual,
			})
		}
	}

	return divergences
}

// CompareSeries compares stored points with replayed records period by period.
func CompareSeries(stored []*domain.SeriesPoint, replayed []domain.Record) []FieldDivergence {
	if len(stored) != len(replayed) {
		return []FieldDivergence{{
			Field:    "Series.Length",
			Expected: len(stored),
			Actual:   len(replayed),
		}}
	}

	var divergences []FieldDivergence
	for i, pt := range stored {
		rec := replayed[i]
		prefix := fmt.Sprintf("Series[%d].", pt.Period)
		if pt.Period != rec.Period {
			divergences = append(divergences, FieldDivergence{Field: prefix + "Period", Expected: pt.Period, Actual: rec.Period})
			continue
		}
		if !floatEquals(pt.Supply, rec.Supply) {
			divergences = append(divergences, FieldDivergence{Field: prefix + "Supply", Expected: pt.Supply, Actual: rec.Supply})
		}
		if !floatEquals(pt.Volume, rec.Volume) {
			divergences = append(divergences, FieldDivergence{Field: prefix + "Volume", Expected: pt.Volume, Actual: rec.Volume})
		}
		if !floatEquals(pt.DemandValue, rec.DemandValue) {
			divergences = append(divergences, FieldDivergence{Field: prefix + "DemandValue", Expected: pt.DemandValue, Actual: rec.DemandValue})
		}
	}
	return divergences
}

// floatEquals compares two floats within FloatTolerance.
func floatEquals(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= FloatTolerance
}
