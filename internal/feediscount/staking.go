package feediscount

import (
	"fmt"

	"token-demand-lab/internal/domain"
)

// StakingSeries runs the staking sub-model over months:
//   - staking_t = base_volume * adoption * t/months
//   - price_t = base_token_price * (1 + staking_t / market_cap_constant)
//   - demand_t = staking_t * price_t
//
// It only shares the time axis with the volume transform and may be called
// on its own.
func StakingSeries(baseVolume float64, p domain.StakingParams, months int) ([]domain.StakingRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if months <= 0 {
		return nil, fmt.Errorf("%w: months must be > 0, got %d", domain.ErrDomain, months)
	}

	out := make([]domain.StakingRecord, months)
	for i := range out {
		t := float64(i + 1)
		volume := baseVolume * p.AdoptionRate * (t / float64(months))
		price := p.BaseTokenPrice * (1 + volume/p.MarketCapConstant)
		out[i] = domain.StakingRecord{
			Period:          i + 1,
			StakingVolume:   volume,
			TokenPrice:      price,
			DemandGenerated: volume * price,
		}
	}
	return out, nil
}
