package metrics

import (
	"math"
	"sort"

	"token-demand-lab/internal/domain"
)

// Summarize computes headline metrics from a simulation result.
// Percentiles are over per-period demand values.
func Summarize(r *domain.SimulationResult) domain.Summary {
	if r == nil || len(r.Records) == 0 {
		if r == nil {
			return domain.Summary{}
		}
		return domain.Summary{Model: r.Model}
	}

	n := len(r.Records)
	demand := make([]float64, n)
	totalVolume := 0.0
	for i, rec := range r.Records {
		demand[i] = rec.DemandValue
		totalVolume += rec.Volume
	}

	sorted := make([]float64, n)
	copy(sorted, demand)
	sort.Float64s(sorted)

	mean := computeMean(demand)
	final := r.FinalRecord()

	return domain.Summary{
		Model:       r.Model,
		Horizon:     n,
		FinalSupply: final.Supply,
		TotalDemand: r.TotalDemand,
		PeakDemand:  sorted[n-1],
		MeanDemand:  mean,
		DemandStdev: computeStddev(demand, mean),
		DemandP10:   computePercentile(sorted, 0.10),
		DemandP50:   computePercentile(sorted, 0.50),
		DemandP90:   computePercentile(sorted, 0.90),
		FinalVolume: final.Volume,
		TotalVolume: totalVolume,
	}
}

// AggregateRuns aggregates run summaries of one batch.
// Runs are sorted by RunID ASC first so ties resolve deterministically.
func AggregateRuns(batchID string, runs []*domain.RunRecord) *domain.BatchAggregate {
	n := len(runs)
	agg := &domain.BatchAggregate{
		BatchID:     batchID,
		Runs:        n,
		RunsByModel: make(map[domain.ModelTag]int),
	}
	if n == 0 {
		return agg
	}

	sortedRuns := make([]*domain.RunRecord, n)
	copy(sortedRuns, runs)
	sort.Slice(sortedRuns, func(i, j int) bool {
		return sortedRuns[i].RunID < sortedRuns[j].RunID
	})

	totals := make([]float64, n)
	best, worst := sortedRuns[0], sortedRuns[0]
	for i, r := range sortedRuns {
		totals[i] = r.Summary.TotalDemand
		agg.RunsByModel[r.Model]++
		if r.Summary.TotalDemand > best.Summary.TotalDemand {
			best = r
		}
		if r.Summary.TotalDemand < worst.Summary.TotalDemand {
			worst = r
		}
	}

	sorted := make([]float64, n)
	copy(sorted, totals)
	sort.Float64s(sorted)

	mean := computeMean(totals)
	agg.TotalDemandMean = mean
	agg.TotalDemandMin = sorted[0]
	agg.TotalDemandMax = sorted[n-1]
	agg.TotalDemandP10 = computePercentile(sorted, 0.10)
	agg.TotalDemandP50 = computePercentile(sorted, 0.50)
	agg.TotalDemandP90 = computePercentile(sorted, 0.90)
	agg.TotalDemandStddev = computeStddev(totals, mean)
	agg.BestRunID, agg.BestLabel = best.RunID, best.Label
	agg.WorstRunID, agg.WorstLabel = worst.RunID, worst.Label

	return agg
}

// computeMean calculates arithmetic mean of values.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	// Index for percentile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	// Linear interpolation
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
