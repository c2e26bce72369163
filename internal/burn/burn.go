// Package burn implements the four supply-reduction demand drivers:
// buyback+burn, exponential decay, logarithmic burn and schedule-based burn.
//
// Each variant steps over periods t = 0..horizon-1 and shares the trailing
// valuation step: the discounted dollar value of supply removed (or, for
// buyback, of the remaining supply marked to the current price).
package burn

import (
	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/timeseries"
)

// Model produces a supply/demand series from common and revenue inputs.
type Model interface {
	// Simulate runs the variant. Returns a result with len(Records) == horizon.
	Simulate(common domain.CommonParams, revenue domain.RevenueParams) (*domain.SimulationResult, error)

	// Tag returns the model tag of the variant.
	Tag() domain.ModelTag
}

// removedValue is the valuation shared by exponential, logarithmic and
// schedule variants: tokens removed marked at the constant TGE price.
func removedValue(common domain.CommonParams, supply float64, t int) (float64, error) {
	raw := (common.InitialSupply - supply) * common.TGEPrice
	return timeseries.PresentValue(raw, common.DiscountFactor, t)
}

// buildResult assembles records from per-period supply and demand arrays.
func buildResult(tag domain.ModelTag, supply, demand []float64) *domain.SimulationResult {
	records := make([]domain.Record, len(supply))
	for t := range supply {
		records[t] = domain.Record{
			Period:      t + 1,
			Supply:      supply[t],
			DemandValue: demand[t],
		}
	}
	return &domain.SimulationResult{
		Model:       tag,
		Records:     records,
		TotalDemand: timeseries.Sum(demand),
	}
}
