package domain

import "fmt"

// Default parameter values, matching the original demand-driver workbench.
const (
	DefaultInitialSupply     = 1_000_000
	DefaultTGEPrice          = 4.0
	DefaultInitialRevenue    = 200_000
	DefaultRevenueGrowthRate = 0.02
	DefaultTargetRevenue     = 3_000_000
	DefaultMonths            = 60
	DefaultDiscountFactor    = 0.9
	DefaultPriceGrowthRate   = 0.03

	DefaultFeeDiscountMonths = 12
	DefaultFeeHolidayDays    = 90
)

// DefaultParameters returns a fully populated bundle for the given model.
// Only the block matching the tag is set.
func DefaultParameters(tag ModelTag) (SimulationParameters, error) {
	target := float64(DefaultTargetRevenue)
	p := SimulationParameters{
		Common: CommonParams{
			InitialSupply:  DefaultInitialSupply,
			TGEPrice:       DefaultTGEPrice,
			Horizon:        DefaultMonths,
			DiscountFactor: DefaultDiscountFactor,
		},
		Revenue: RevenueParams{
			InitialRevenue:    DefaultInitialRevenue,
			RevenueGrowthRate: DefaultRevenueGrowthRate,
			UseTargetRevenue:  false,
			TargetRevenue:     &target,
		},
	}

	switch tag {
	case ModelBuybackBurn:
		p.Buyback = &BuybackParams{BuybackRate: 0.2, PriceGrowthRate: DefaultPriceGrowthRate}
	case ModelExponentialDecay:
		p.Exponential = &ExponentialParams{DecayRate: 0.5}
	case ModelLogarithmicBurn:
		p.Logarithmic = &LogarithmicParams{LogBurnCoefficient: 50_000}
	case ModelScheduleBurn:
		schedule, err := IntervalSchedule(0.01, 5, DefaultMonths)
		if err != nil {
			return SimulationParameters{}, err
		}
		p.Schedule = &ScheduleParams{BurnSchedule: schedule}
	case ModelFeeDiscount:
		p.Common.Horizon = DefaultFeeDiscountMonths
		p.FeeDiscount = &FeeDiscountParams{
			BaseVolume:         1_000_000,
			StandardFeePct:     0.3,
			DiscountMultiplier: 0.5,
			Elasticity:         1.5,
			Staking: &StakingParams{
				AdoptionRate:      0.5,
				BaseTokenPrice:    1.0,
				MarketCapConstant: 10_000_000,
			},
		}
	case ModelFeeHoliday:
		p.Common.Horizon = DefaultFeeHolidayDays
		p.Common.TGEPrice = 5.0
		p.FeeHoliday = &FeeHolidayParams{
			Day1VolumeFraction:  1.0,
			NumSurgeEvents:      3,
			FeeDiscountFraction: 0.6,
			MarketElasticity:    1.0,
			AdoptionRate:        0.6,
			ConversionFactor:    15.0,
			Seed:                1,
		}
	default:
		return SimulationParameters{}, fmt.Errorf("%w: %q", ErrUnknownModel, tag)
	}

	return p, nil
}

// IntervalSchedule burns rate at periods interval, 2*interval, ... below months.
func IntervalSchedule(rate float64, interval, months int) (map[int]float64, error) {
	if interval < 1 {
		return nil, fmt.Errorf("%w: schedule interval must be >= 1, got %d", ErrDomain, interval)
	}
	schedule := make(map[int]float64)
	for m := interval; m < months; m += interval {
		schedule[m] = rate
	}
	return schedule, nil
}
