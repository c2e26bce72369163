package burn

import (
	"errors"
	"math"
	"testing"

	"token-demand-lab/internal/domain"
)

const tolerance = 1e-9

func approxEqual(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func baseCommon(horizon int) domain.CommonParams {
	return domain.CommonParams{
		InitialSupply:  1_000_000,
		TGEPrice:       4,
		Horizon:        horizon,
		DiscountFactor: 0.9,
	}
}

func baseRevenue() domain.RevenueParams {
	return domain.RevenueParams{
		InitialRevenue:    200_000,
		RevenueGrowthRate: 0.02,
	}
}

func allModels() []Model {
	return []Model{
		NewBuybackBurn(domain.BuybackParams{BuybackRate: 0.2, PriceGrowthRate: 0.03}),
		NewExponentialDecay(domain.ExponentialParams{DecayRate: 50}),
		NewLogarithmicBurn(domain.LogarithmicParams{LogBurnCoefficient: 50_000}),
		NewScheduleBurn(domain.ScheduleParams{BurnSchedule: map[int]float64{5: 0.01, 10: 0.01}}),
	}
}

func TestModels_PeriodsContiguous(t *testing.T) {
	for _, m := range allModels() {
		t.Run(string(m.Tag()), func(t *testing.T) {
			result, err := m.Simulate(baseCommon(24), baseRevenue())
			if err != nil {
				t.Fatalf("Simulate failed: %v", err)
			}
			if len(result.Records) != 24 {
				t.Fatalf("expected 24 records, got %d", len(result.Records))
			}
			for i, rec := range result.Records {
				if rec.Period != i+1 {
					t.Errorf("record %d: expected period %d, got %d", i, i+1, rec.Period)
				}
			}
			if result.Model != m.Tag() {
				t.Errorf("expected model %s, got %s", m.Tag(), result.Model)
			}
		})
	}
}

func TestModels_FirstRecord(t *testing.T) {
	for _, m := range allModels() {
		t.Run(string(m.Tag()), func(t *testing.T) {
			result, err := m.Simulate(baseCommon(10), baseRevenue())
			if err != nil {
				t.Fatalf("Simulate failed: %v", err)
			}
			first := result.Records[0]
			if first.Supply != 1_000_000 {
				t.Errorf("expected initial supply 1000000, got %f", first.Supply)
			}
			if first.DemandValue != 0 {
				t.Errorf("expected zero demand at t=0, got %f", first.DemandValue)
			}
		})
	}
}

func TestModels_SupplyNonNegative(t *testing.T) {
	aggressive := []Model{
		NewBuybackBurn(domain.BuybackParams{BuybackRate: 1, PriceGrowthRate: -0.5}),
		NewExponentialDecay(domain.ExponentialParams{DecayRate: 10_000}),
		NewLogarithmicBurn(domain.LogarithmicParams{LogBurnCoefficient: 5_000_000}),
		NewScheduleBurn(domain.ScheduleParams{BurnSchedule: map[int]float64{1: 1.5, 2: 0.3}}),
	}
	revenue := domain.RevenueParams{InitialRevenue: 50_000_000, RevenueGrowthRate: 0.1}

	for _, m := range aggressive {
		t.Run(string(m.Tag()), func(t *testing.T) {
			result, err := m.Simulate(baseCommon(36), revenue)
			if err != nil {
				t.Fatalf("Simulate failed: %v", err)
			}
			for _, rec := range result.Records {
				if rec.Supply < 0 {
					t.Errorf("period %d: negative supply %f", rec.Period, rec.Supply)
				}
			}
			if final := result.FinalRecord(); final.Supply != 0 {
				t.Errorf("expected supply exhausted, got %f", final.Supply)
			}
		})
	}
}

func TestScheduleBurn_EmptyScheduleConstantSupply(t *testing.T) {
	result, err := SimulateSchedule(baseCommon(12), domain.ScheduleParams{})
	if err != nil {
		t.Fatalf("SimulateSchedule failed: %v", err)
	}
	for _, rec := range result.Records {
		if rec.Supply != 1_000_000 {
			t.Errorf("period %d: expected 1000000, got %f", rec.Period, rec.Supply)
		}
		if rec.DemandValue != 0 {
			t.Errorf("period %d: expected zero demand, got %f", rec.Period, rec.DemandValue)
		}
	}
	if result.TotalDemand != 0 {
		t.Errorf("expected zero total demand, got %f", result.TotalDemand)
	}
}

func TestScheduleBurn_AppliesScheduledRates(t *testing.T) {
	common := domain.CommonParams{InitialSupply: 1000, TGEPrice: 2, Horizon: 4, DiscountFactor: 1}
	schedule := domain.ScheduleParams{BurnSchedule: map[int]float64{0: 0.9, 1: 0.1, 3: 0.5}}

	result, err := SimulateSchedule(common, schedule)
	if err != nil {
		t.Fatalf("SimulateSchedule failed: %v", err)
	}

	wantSupply := []float64{1000, 900, 900, 450}
	wantDemand := []float64{0, 200, 200, 1100}
	for i, rec := range result.Records {
		if !approxEqual(rec.Supply, wantSupply[i]) {
			t.Errorf("t=%d: expected supply %f, got %f", i, wantSupply[i], rec.Supply)
		}
		if !approxEqual(rec.DemandValue, wantDemand[i]) {
			t.Errorf("t=%d: expected demand %f, got %f", i, wantDemand[i], rec.DemandValue)
		}
	}
	if !approxEqual(result.TotalDemand, 1500) {
		t.Errorf("expected total 1500, got %f", result.TotalDemand)
	}
}

func TestScheduleBurn_CopiesSchedule(t *testing.T) {
	schedule := map[int]float64{1: 0.5}
	m := NewScheduleBurn(domain.ScheduleParams{BurnSchedule: schedule})
	schedule[1] = 0

	result, err := m.Simulate(domain.CommonParams{InitialSupply: 100, TGEPrice: 1, Horizon: 2, DiscountFactor: 1}, domain.RevenueParams{})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if result.Records[1].Supply != 50 {
		t.Errorf("expected 50, got %f", result.Records[1].Supply)
	}
}

func TestExponentialDecay_ZeroRateConstantSupply(t *testing.T) {
	result, err := SimulateExponential(baseCommon(60), domain.ExponentialParams{DecayRate: 0})
	if err != nil {
		t.Fatalf("SimulateExponential failed: %v", err)
	}
	for _, rec := range result.Records {
		if rec.Supply != 1_000_000 {
			t.Errorf("period %d: expected 1000000, got %f", rec.Period, rec.Supply)
		}
	}
}

func TestExponentialDecay_RateScaling(t *testing.T) {
	m := NewExponentialDecay(domain.ExponentialParams{DecayRate: 50})
	if !approxEqual(m.Lambda(), 0.5) {
		t.Fatalf("expected lambda 0.5, got %f", m.Lambda())
	}

	result, err := m.Simulate(baseCommon(3), domain.RevenueParams{})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	wantSupply := 1_000_000 * math.Exp(-0.5)
	if !approxEqual(result.Records[1].Supply, wantSupply) {
		t.Errorf("expected supply %f, got %f", wantSupply, result.Records[1].Supply)
	}
	wantDemand := (1_000_000 - wantSupply) * 4 * 0.9
	if !approxEqual(result.Records[1].DemandValue, wantDemand) {
		t.Errorf("expected demand %f, got %f", wantDemand, result.Records[1].DemandValue)
	}
}

func TestLogarithmicBurn_Formula(t *testing.T) {
	result, err := SimulateLogarithmic(baseCommon(3), domain.LogarithmicParams{LogBurnCoefficient: 50_000})
	if err != nil {
		t.Fatalf("SimulateLogarithmic failed: %v", err)
	}

	wantSupply := 1_000_000 - 50_000*math.Log(3)
	if !approxEqual(result.Records[2].Supply, wantSupply) {
		t.Errorf("expected supply %f, got %f", wantSupply, result.Records[2].Supply)
	}
	wantDemand := (1_000_000 - wantSupply) * 4 * 0.81
	if !approxEqual(result.Records[2].DemandValue, wantDemand) {
		t.Errorf("expected demand %f, got %f", wantDemand, result.Records[2].DemandValue)
	}
}

func TestBuybackBurn_HandComputed(t *testing.T) {
	common := domain.CommonParams{InitialSupply: 1000, TGEPrice: 10, Horizon: 3, DiscountFactor: 1}
	revenue := domain.RevenueParams{InitialRevenue: 100}

	result, err := SimulateBuybackBurn(common, revenue, domain.BuybackParams{BuybackRate: 0.5})
	if err != nil {
		t.Fatalf("SimulateBuybackBurn failed: %v", err)
	}

	wantSupply := []float64{1000, 995, 990}
	wantDemand := []float64{0, -50, -100}
	for i, rec := range result.Records {
		if !approxEqual(rec.Supply, wantSupply[i]) {
			t.Errorf("t=%d: expected supply %f, got %f", i, wantSupply[i], rec.Supply)
		}
		if !approxEqual(rec.DemandValue, wantDemand[i]) {
			t.Errorf("t=%d: expected demand %f, got %f", i, wantDemand[i], rec.DemandValue)
		}
	}
	if !approxEqual(result.TotalDemand, -150) {
		t.Errorf("expected total -150, got %f", result.TotalDemand)
	}
}

func TestBuybackBurn_EndToEndSupplyNonIncreasing(t *testing.T) {
	common := domain.CommonParams{
		InitialSupply:  1_000_000,
		TGEPrice:       4,
		Horizon:        60,
		DiscountFactor: 0.9,
	}
	revenue := domain.RevenueParams{InitialRevenue: 200_000, RevenueGrowthRate: 0.02}

	result, err := SimulateBuybackBurn(common, revenue, domain.BuybackParams{BuybackRate: 0.2, PriceGrowthRate: 0.03})
	if err != nil {
		t.Fatalf("SimulateBuybackBurn failed: %v", err)
	}
	if len(result.Records) != 60 {
		t.Fatalf("expected 60 records, got %d", len(result.Records))
	}

	for i := 1; i < len(result.Records); i++ {
		if result.Records[i].Supply > result.Records[i-1].Supply {
			t.Errorf("supply increased at period %d: %f -> %f",
				result.Records[i].Period, result.Records[i-1].Supply, result.Records[i].Supply)
		}
	}
	if final := result.FinalRecord(); final.Supply > common.InitialSupply {
		t.Errorf("final supply %f exceeds initial %f", final.Supply, common.InitialSupply)
	}
}

func TestBuybackBurn_ZeroPriceDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		price  float64
		growth float64
	}{
		{"zero_tge_price", 0, 0.03},
		{"price_wiped_out", 4, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			common := baseCommon(5)
			common.TGEPrice = tt.price
			_, err := SimulateBuybackBurn(common, baseRevenue(), domain.BuybackParams{BuybackRate: 0.2, PriceGrowthRate: tt.growth})
			if !errors.Is(err, domain.ErrDivisionDegenerate) {
				t.Errorf("expected ErrDivisionDegenerate, got %v", err)
			}
		})
	}
}

func TestBuybackBurn_TargetRevenueStartsAtZero(t *testing.T) {
	target := 3_000_000.0
	revenue := domain.RevenueParams{
		InitialRevenue:    200_000,
		RevenueGrowthRate: 0.02,
		UseTargetRevenue:  true,
		TargetRevenue:     &target,
	}

	path := RevenuePath(revenue, 4)
	if path[0] != 0 {
		t.Errorf("expected R_0 = 0 in target mode, got %f", path[0])
	}
	want := target * (1 - math.Exp(-0.02*3))
	if !approxEqual(path[3], want) {
		t.Errorf("expected R_3 %f, got %f", want, path[3])
	}
}

func TestRevenuePath_Compounding(t *testing.T) {
	path := RevenuePath(domain.RevenueParams{InitialRevenue: 100, RevenueGrowthRate: 0.1}, 3)
	want := []float64{100, 110, 121}
	for i := range want {
		if !approxEqual(path[i], want[i]) {
			t.Errorf("R_%d: expected %f, got %f", i, want[i], path[i])
		}
	}
	if RevenuePath(domain.RevenueParams{}, 0) != nil {
		t.Error("expected nil path for zero horizon")
	}
}

func TestModels_DomainErrors(t *testing.T) {
	tests := []struct {
		name  string
		model Model
	}{
		{"negative_decay", NewExponentialDecay(domain.ExponentialParams{DecayRate: -1})},
		{"negative_alpha", NewLogarithmicBurn(domain.LogarithmicParams{LogBurnCoefficient: -1})},
		{"negative_schedule_rate", NewScheduleBurn(domain.ScheduleParams{BurnSchedule: map[int]float64{2: -0.1}})},
		{"negative_beta", NewBuybackBurn(domain.BuybackParams{BuybackRate: -0.1})},
		{"price_growth_below_minus_one", NewBuybackBurn(domain.BuybackParams{BuybackRate: 0.1, PriceGrowthRate: -1.5})},
		{"infinite_beta", NewBuybackBurn(domain.BuybackParams{BuybackRate: math.Inf(1)})},
		{"nan_beta", NewBuybackBurn(domain.BuybackParams{BuybackRate: math.NaN()})},
		{"infinite_price_growth", NewBuybackBurn(domain.BuybackParams{BuybackRate: 0.1, PriceGrowthRate: math.Inf(1)})},
		{"price_overflow", NewBuybackBurn(domain.BuybackParams{BuybackRate: 0.1, PriceGrowthRate: 1e300})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.model.Simulate(baseCommon(5), baseRevenue())
			if !errors.Is(err, domain.ErrDomain) {
				t.Errorf("expected ErrDomain, got %v", err)
			}
		})
	}
}

func TestModels_InvalidCommon(t *testing.T) {
	common := baseCommon(5)
	common.DiscountFactor = 1.2

	for _, m := range allModels() {
		if _, err := m.Simulate(common, baseRevenue()); !errors.Is(err, domain.ErrDomain) {
			t.Errorf("%s: expected ErrDomain, got %v", m.Tag(), err)
		}
	}
}

func TestFromParams(t *testing.T) {
	params := domain.SimulationParameters{
		Common:      baseCommon(12),
		Exponential: &domain.ExponentialParams{DecayRate: 20},
	}

	m, err := FromParams(domain.ModelExponentialDecay, params)
	if err != nil {
		t.Fatalf("FromParams failed: %v", err)
	}
	ed, ok := m.(*ExponentialDecay)
	if !ok {
		t.Fatalf("expected *ExponentialDecay, got %T", m)
	}
	if ed.DecayRate != 20 {
		t.Errorf("expected decay rate 20, got %f", ed.DecayRate)
	}

	if _, err := FromParams(domain.ModelBuybackBurn, params); !errors.Is(err, domain.ErrMissingParams) {
		t.Errorf("expected ErrMissingParams, got %v", err)
	}
	if _, err := FromParams(domain.ModelFeeDiscount, params); !errors.Is(err, domain.ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}
