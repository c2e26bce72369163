package burn

import (
	"fmt"
	"math"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/timeseries"
)

// BuybackBurn uses a share of protocol revenue to buy tokens at the current
// price and burn them.
type BuybackBurn struct {
	BuybackRate     float64 // beta, share of revenue spent on buybacks
	PriceGrowthRate float64 // per-period price compounding
}

// NewBuybackBurn creates a new BuybackBurn model.
func NewBuybackBurn(p domain.BuybackParams) *BuybackBurn {
	return &BuybackBurn{
		BuybackRate:     p.BuybackRate,
		PriceGrowthRate: p.PriceGrowthRate,
	}
}

// Tag returns the model tag.
func (m *BuybackBurn) Tag() domain.ModelTag {
	return domain.ModelBuybackBurn
}

// Simulate runs the buyback+burn state machine:
//   - P_t = P_{t-1} * (1 + price_growth), applied from t=1
//   - burn_buy = beta * R_t / P_t
//   - supply_t = max(supply_{t-1} - burn_buy, 0)
//   - demand_t = (supply_t*P_t - S0*P0) * df^t
//
// A price that reaches zero fails with ErrDivisionDegenerate.
func (m *BuybackBurn) Simulate(common domain.CommonParams, revenue domain.RevenueParams) (*domain.SimulationResult, error) {
	if err := common.Validate(); err != nil {
		return nil, err
	}
	if err := revenue.Validate(); err != nil {
		return nil, err
	}
	if !finite(m.BuybackRate) || m.BuybackRate < 0 {
		return nil, fmt.Errorf("%w: buyback_rate must be >= 0, got %v", domain.ErrDomain, m.BuybackRate)
	}
	if !finite(m.PriceGrowthRate) || m.PriceGrowthRate < -1 {
		return nil, fmt.Errorf("%w: price_growth_rate must be >= -1, got %v", domain.ErrDomain, m.PriceGrowthRate)
	}

	horizon := common.Horizon
	supply := make([]float64, horizon)
	demand := make([]float64, horizon)
	supply[0] = common.InitialSupply

	revenuePath := RevenuePath(revenue, horizon)
	initialMark := common.InitialSupply * common.TGEPrice
	price := common.TGEPrice

	for t := 1; t < horizon; t++ {
		price *= 1 + m.PriceGrowthRate
		if price == 0 {
			return nil, fmt.Errorf("%w: token price reached zero at period %d", domain.ErrDivisionDegenerate, t)
		}
		if math.IsInf(price, 0) {
			return nil, fmt.Errorf("%w: token price overflowed at period %d", domain.ErrDomain, t)
		}

		burnBuy := (m.BuybackRate * revenuePath[t]) / price
		supply[t] = timeseries.ClampNonNegative(supply[t-1] - burnBuy)

		value, err := timeseries.PresentValue(supply[t]*price-initialMark, common.DiscountFactor, t)
		if err != nil {
			return nil, err
		}
		demand[t] = value
	}

	return buildResult(m.Tag(), supply, demand), nil
}

// SimulateBuybackBurn runs the buyback+burn variant directly.
func SimulateBuybackBurn(common domain.CommonParams, revenue domain.RevenueParams, p domain.BuybackParams) (*domain.SimulationResult, error) {
	return NewBuybackBurn(p).Simulate(common, revenue)
}

// Ensure BuybackBurn implements Model
var _ Model = (*BuybackBurn)(nil)

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
