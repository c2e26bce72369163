package burn

import (
	"fmt"
	"math"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/timeseries"
)

// ScheduleBurn burns a fraction of the running supply at scheduled periods.
type ScheduleBurn struct {
	Schedule map[int]float64 // period index -> fractional burn
}

// NewScheduleBurn creates a new ScheduleBurn model.
// The schedule map is copied so later caller mutation has no effect.
func NewScheduleBurn(p domain.ScheduleParams) *ScheduleBurn {
	schedule := make(map[int]float64, len(p.BurnSchedule))
	for period, rate := range p.BurnSchedule {
		schedule[period] = rate
	}
	return &ScheduleBurn{Schedule: schedule}
}

// Tag returns the model tag.
func (m *ScheduleBurn) Tag() domain.ModelTag {
	return domain.ModelScheduleBurn
}

// Simulate applies supply_t = supply_{t-1} * (1 - schedule[t]) from t=1.
// An entry at period 0 is ignored: supply_0 is always the initial supply.
func (m *ScheduleBurn) Simulate(common domain.CommonParams, _ domain.RevenueParams) (*domain.SimulationResult, error) {
	if err := common.Validate(); err != nil {
		return nil, err
	}
	for period, rate := range m.Schedule {
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
			return nil, fmt.Errorf("%w: burn rate at period %d must be >= 0, got %v", domain.ErrDomain, period, rate)
		}
	}

	horizon := common.Horizon
	supply := make([]float64, horizon)
	demand := make([]float64, horizon)
	supply[0] = common.InitialSupply

	for t := 1; t < horizon; t++ {
		supply[t] = timeseries.ClampNonNegative(supply[t-1] * (1 - m.Schedule[t]))
		value, err := removedValue(common, supply[t], t)
		if err != nil {
			return nil, err
		}
		demand[t] = value
	}

	return buildResult(m.Tag(), supply, demand), nil
}

// SimulateSchedule runs the schedule-based burn variant directly.
func SimulateSchedule(common domain.CommonParams, p domain.ScheduleParams) (*domain.SimulationResult, error) {
	return NewScheduleBurn(p).Simulate(common, domain.RevenueParams{})
}

// Ensure ScheduleBurn implements Model
var _ Model = (*ScheduleBurn)(nil)
