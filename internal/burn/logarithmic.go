package burn

import (
	"fmt"
	"math"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/timeseries"
)

// LogarithmicBurn removes alpha * ln(1+t) tokens by period t.
type LogarithmicBurn struct {
	Coefficient float64 // alpha
}

// NewLogarithmicBurn creates a new LogarithmicBurn model.
func NewLogarithmicBurn(p domain.LogarithmicParams) *LogarithmicBurn {
	return &LogarithmicBurn{Coefficient: p.LogBurnCoefficient}
}

// Tag returns the model tag.
func (m *LogarithmicBurn) Tag() domain.ModelTag {
	return domain.ModelLogarithmicBurn
}

// Simulate runs the logarithmic burn. Supply is clamped at zero.
func (m *LogarithmicBurn) Simulate(common domain.CommonParams, _ domain.RevenueParams) (*domain.SimulationResult, error) {
	if err := common.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(m.Coefficient) || math.IsInf(m.Coefficient, 0) || m.Coefficient < 0 {
		return nil, fmt.Errorf("%w: log_burn_coefficient must be >= 0, got %v", domain.ErrDomain, m.Coefficient)
	}

	horizon := common.Horizon
	supply := make([]float64, horizon)
	demand := make([]float64, horizon)

	for t := 0; t < horizon; t++ {
		supply[t] = timeseries.ClampNonNegative(common.InitialSupply - m.Coefficient*math.Log(1+float64(t)))
		value, err := removedValue(common, supply[t], t)
		if err != nil {
			return nil, err
		}
		demand[t] = value
	}

	return buildResult(m.Tag(), supply, demand), nil
}

// SimulateLogarithmic runs the logarithmic burn variant directly.
func SimulateLogarithmic(common domain.CommonParams, p domain.LogarithmicParams) (*domain.SimulationResult, error) {
	return NewLogarithmicBurn(p).Simulate(common, domain.RevenueParams{})
}

// Ensure LogarithmicBurn implements Model
var _ Model = (*LogarithmicBurn)(nil)
