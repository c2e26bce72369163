// Package feediscount models the trading-volume response to a fee discount.
//
// The core transform is closed-form: discounting the fee by a multiplier lifts
// volume by (standard/discounted)^elasticity. The series linearly ramps from
// the base volume to that steady state over the horizon.
package feediscount

import (
	"math"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/timeseries"
)

// DiscountedFee returns standard_fee * discount_multiplier.
func DiscountedFee(p domain.FeeDiscountParams) float64 {
	return p.StandardFeePct * p.DiscountMultiplier
}

// NewVolume returns the steady-state volume after the fee discount.
// A zero discounted fee leaves volume unchanged rather than diverging.
func NewVolume(p domain.FeeDiscountParams) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	discounted := DiscountedFee(p)
	if discounted <= 0 {
		return p.BaseVolume, nil
	}
	return p.BaseVolume * math.Pow(p.StandardFeePct/discounted, p.Elasticity), nil
}

// VolumeSeries interpolates from baseVolume toward newVolume over months:
// volume_t = base + (new - base) * t/months for t = 1..months.
func VolumeSeries(baseVolume, newVolume float64, months int) []float64 {
	return timeseries.LinearRamp(baseVolume, newVolume, months)
}

// Simulate runs the fee-discount model over common.Horizon months.
// Record volume is the interpolated series; demand is the staking demand when
// the staking sub-model is enabled, otherwise zero.
func Simulate(common domain.CommonParams, p domain.FeeDiscountParams) (*domain.SimulationResult, error) {
	if err := common.Validate(); err != nil {
		return nil, err
	}
	newVolume, err := NewVolume(p)
	if err != nil {
		return nil, err
	}

	months := common.Horizon
	volume := VolumeSeries(p.BaseVolume, newVolume, months)

	var staking []domain.StakingRecord
	if p.Staking != nil {
		staking, err = StakingSeries(p.BaseVolume, *p.Staking, months)
		if err != nil {
			return nil, err
		}
	}

	records := make([]domain.Record, months)
	total := 0.0
	for i := range records {
		records[i] = domain.Record{
			Period: i + 1,
			Volume: timeseries.ClampNonNegative(volume[i]),
		}
		if staking != nil {
			records[i].DemandValue = staking[i].DemandGenerated
			total += staking[i].DemandGenerated
		}
	}

	return &domain.SimulationResult{
		Model:       domain.ModelFeeDiscount,
		Records:     records,
		TotalDemand: total,
		NewVolume:   &newVolume,
		Staking:     staking,
	}, nil
}
