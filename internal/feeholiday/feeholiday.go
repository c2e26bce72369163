// Package feeholiday simulates a temporary fee holiday: a daily baseline
// volume path, randomly placed decaying surges, and the conversion of volume
// above the day-1 level into token demand.
package feeholiday

import (
	"fmt"
	"math"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/timeseries"
)

const (
	// lookbackDays is the trailing window averaged before each surge.
	lookbackDays = 30
	// surgeDays is how long a single surge blends into volume.
	surgeDays = 15
	// timeConstantScale multiplies the adoption rate to give the decay constant.
	timeConstantScale = 3.0
	// minAdoption floors the adoption rate used for the time constant.
	minAdoption = 0.01
)

// Simulator runs the fee-holiday model with an injectable day picker.
type Simulator struct {
	picker DayPicker
}

// New creates a Simulator. A nil picker falls back to the per-run default:
// FixedPicker when params carry SurgeDays, else SeededPicker(params.Seed).
func New(picker DayPicker) *Simulator {
	return &Simulator{picker: picker}
}

// Simulate runs the default Simulator.
func Simulate(common domain.CommonParams, revenue domain.RevenueParams, p domain.FeeHolidayParams) (*domain.SimulationResult, error) {
	return New(nil).Simulate(common, revenue, p)
}

// Simulate runs all three stages over common.Horizon days.
// With no injected picker, p.SurgeDays takes precedence over
// p.NumSurgeEvents: the surge count becomes len(p.SurgeDays).
// revenue.InitialRevenue is the monthly revenue and revenue.RevenueGrowthRate
// its monthly growth.
func (s *Simulator) Simulate(common domain.CommonParams, revenue domain.RevenueParams, p domain.FeeHolidayParams) (*domain.SimulationResult, error) {
	if err := common.Validate(); err != nil {
		return nil, err
	}
	if err := revenue.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	days := common.Horizon
	day1 := Day1Volume(revenue.InitialRevenue, p.Day1VolumeFraction)
	dailyGrowth, err := timeseries.MonthlyToDailyRate(revenue.RevenueGrowthRate)
	if err != nil {
		return nil, err
	}
	baseline := Baseline(day1, dailyGrowth, days)

	picker, k := s.picker, p.NumSurgeEvents
	if picker == nil {
		if p.SurgeDays != nil {
			picker, k = NewFixedPicker(p.SurgeDays), len(p.SurgeDays)
		} else {
			picker = NewSeededPicker(p.Seed)
		}
	}
	picked, err := picker.Pick(k, days)
	if err != nil {
		return nil, err
	}
	starts, err := checkDays(picked, k, days)
	if err != nil {
		return nil, fmt.Errorf("picker returned invalid days: %w", err)
	}
	starts = sortedDays(starts)

	volume := InjectSurges(baseline, starts, p)
	excess, tokens, usd := Convert(volume, day1, p.ConversionFactor, common.TGEPrice)

	records := make([]domain.Record, days)
	for d := range records {
		records[d] = domain.Record{
			Period:      d + 1,
			Volume:      timeseries.ClampNonNegative(volume[d]),
			DemandValue: usd[d],
		}
	}

	return &domain.SimulationResult{
		Model:       domain.ModelFeeHoliday,
		Records:     records,
		TotalDemand: timeseries.Sum(usd),
		Surge: &domain.SurgeDetail{
			SurgeDays:  starts,
			Day1Volume: day1,
			Baseline:   baseline,
			Excess:     excess,
			Tokens:     tokens,
			DemandUSD:  usd,
		},
	}, nil
}

// Day1Volume returns (monthly_revenue * fraction) / 30.
func Day1Volume(monthlyRevenue, fraction float64) float64 {
	return (monthlyRevenue * fraction) / timeseries.DaysPerMonth
}

// Baseline compounds day1 by dailyGrowth for days entries.
func Baseline(day1, dailyGrowth float64, days int) []float64 {
	if days <= 0 {
		return nil
	}
	out := make([]float64, days)
	out[0] = day1
	for d := 1; d < days; d++ {
		out[d] = out[d-1] * (1 + dailyGrowth)
	}
	return out
}

// ElasticityFactor returns (1/(1-fee_discount_fraction))^market_elasticity.
func ElasticityFactor(feeDiscountFraction, marketElasticity float64) float64 {
	return math.Pow(1/(1-feeDiscountFraction), marketElasticity)
}

// TimeConstant returns 3 * max(0.01, adoption).
func TimeConstant(adoption float64) float64 {
	return timeConstantScale * math.Max(minAdoption, adoption)
}

// InjectSurges blends each surge into a copy of baseline. starts must be
// ascending: overlapping surges blend into the already modified volume, so
// order is observable.
func InjectSurges(baseline []float64, starts []int, p domain.FeeHolidayParams) []float64 {
	volume := make([]float64, len(baseline))
	copy(volume, baseline)

	factor := ElasticityFactor(p.FeeDiscountFraction, p.MarketElasticity)
	tau := TimeConstant(p.AdoptionRate)
	horizon := len(baseline)

	for _, start := range starts {
		amplitude := trailingAverage(baseline, start) * factor
		end := min(start+surgeDays, horizon)
		for d := start; d < end; d++ {
			decay := math.Exp(-float64(d-start) / tau)
			volume[d] += (amplitude - volume[d]) * decay
		}
	}
	return volume
}

// trailingAverage averages baseline[max(0,p-30):p], or returns baseline[p]
// when that window is empty.
func trailingAverage(baseline []float64, p int) float64 {
	from := max(0, p-lookbackDays)
	if from == p {
		return baseline[p]
	}
	return timeseries.Mean(baseline[from:p])
}

// Convert turns volume above the day-1 level into tokens and dollars.
// conversionFactor must be non-zero; callers validate it first.
func Convert(volume []float64, day1, conversionFactor, tgePrice float64) (excess, tokens, usd []float64) {
	excess = make([]float64, len(volume))
	tokens = make([]float64, len(volume))
	usd = make([]float64, len(volume))
	for d, v := range volume {
		excess[d] = timeseries.ClampNonNegative(v - day1)
		tokens[d] = excess[d] / conversionFactor
		usd[d] = tokens[d] * tgePrice
	}
	return excess, tokens, usd
}
