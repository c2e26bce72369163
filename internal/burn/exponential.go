package burn

import (
	"fmt"
	"math"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/timeseries"
)

// decayRateScale converts the percentage-like decay input to lambda.
// A decay rate of 50 means 0.5% per period.
const decayRateScale = 0.01

// ExponentialDecay removes supply along S0 * exp(-lambda * t).
type ExponentialDecay struct {
	DecayRate float64 // percentage-like input, lambda = DecayRate * 0.01
}

// NewExponentialDecay creates a new ExponentialDecay model.
func NewExponentialDecay(p domain.ExponentialParams) *ExponentialDecay {
	return &ExponentialDecay{DecayRate: p.DecayRate}
}

// Tag returns the model tag.
func (m *ExponentialDecay) Tag() domain.ModelTag {
	return domain.ModelExponentialDecay
}

// Lambda returns the effective per-period decay constant.
func (m *ExponentialDecay) Lambda() float64 {
	return m.DecayRate * decayRateScale
}

// Simulate runs exponential decay. Revenue is not used.
func (m *ExponentialDecay) Simulate(common domain.CommonParams, _ domain.RevenueParams) (*domain.SimulationResult, error) {
	if err := common.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(m.DecayRate) || math.IsInf(m.DecayRate, 0) || m.DecayRate < 0 {
		return nil, fmt.Errorf("%w: decay_rate must be >= 0, got %v", domain.ErrDomain, m.DecayRate)
	}

	horizon := common.Horizon
	supply := make([]float64, horizon)
	demand := make([]float64, horizon)
	lambda := m.Lambda()

	for t := 0; t < horizon; t++ {
		supply[t] = timeseries.ClampNonNegative(common.InitialSupply * math.Exp(-lambda*float64(t)))
		value, err := removedValue(common, supply[t], t)
		if err != nil {
			return nil, err
		}
		demand[t] = value
	}

	return buildResult(m.Tag(), supply, demand), nil
}

// SimulateExponential runs the exponential decay variant directly.
func SimulateExponential(common domain.CommonParams, p domain.ExponentialParams) (*domain.SimulationResult, error) {
	return NewExponentialDecay(p).Simulate(common, domain.RevenueParams{})
}

// Ensure ExponentialDecay implements Model
var _ Model = (*ExponentialDecay)(nil)
