package domain

import (
	"errors"
	"math"
	"testing"
)

func TestCommonParams_Validate(t *testing.T) {
	valid := CommonParams{InitialSupply: 1_000_000, TGEPrice: 4, Horizon: 60, DiscountFactor: 0.9}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid params, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*CommonParams)
	}{
		{"negative_supply", func(c *CommonParams) { c.InitialSupply = -1 }},
		{"nan_price", func(c *CommonParams) { c.TGEPrice = math.NaN() }},
		{"zero_horizon", func(c *CommonParams) { c.Horizon = 0 }},
		{"zero_discount", func(c *CommonParams) { c.DiscountFactor = 0 }},
		{"discount_above_one", func(c *CommonParams) { c.DiscountFactor = 1.01 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, ErrDomain) {
				t.Errorf("expected ErrDomain, got %v", err)
			}
		})
	}
}

func TestRevenueParams_Validate(t *testing.T) {
	if err := (RevenueParams{InitialRevenue: 200_000, RevenueGrowthRate: 0.02}).Validate(); err != nil {
		t.Fatalf("expected valid params, got %v", err)
	}

	missingTarget := RevenueParams{InitialRevenue: 1, UseTargetRevenue: true}
	if err := missingTarget.Validate(); !errors.Is(err, ErrDomain) {
		t.Errorf("expected ErrDomain for missing target, got %v", err)
	}

	target := -5.0
	negativeTarget := RevenueParams{UseTargetRevenue: true, TargetRevenue: &target}
	if err := negativeTarget.Validate(); !errors.Is(err, ErrDomain) {
		t.Errorf("expected ErrDomain for negative target, got %v", err)
	}
}

func TestFeeHolidayParams_Validate(t *testing.T) {
	valid := FeeHolidayParams{
		Day1VolumeFraction:  1,
		NumSurgeEvents:      3,
		FeeDiscountFraction: 0.6,
		MarketElasticity:    1,
		AdoptionRate:        0.6,
		ConversionFactor:    15,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid params, got %v", err)
	}

	zeroConversion := valid
	zeroConversion.ConversionFactor = 0
	if err := zeroConversion.Validate(); !errors.Is(err, ErrDivisionDegenerate) {
		t.Errorf("expected ErrDivisionDegenerate, got %v", err)
	}

	fullDiscount := valid
	fullDiscount.FeeDiscountFraction = 1
	if err := fullDiscount.Validate(); !errors.Is(err, ErrDomain) {
		t.Errorf("expected ErrDomain for fee_discount_fraction=1, got %v", err)
	}

	negativeSurges := valid
	negativeSurges.NumSurgeEvents = -1
	if err := negativeSurges.Validate(); !errors.Is(err, ErrDomain) {
		t.Errorf("expected ErrDomain for negative surge count, got %v", err)
	}

	for _, rate := range []float64{math.NaN(), math.Inf(1), -0.1, 1.5} {
		bad := valid
		bad.AdoptionRate = rate
		if err := bad.Validate(); !errors.Is(err, ErrDomain) {
			t.Errorf("adoption_rate=%v: expected ErrDomain, got %v", rate, err)
		}
	}
}

func TestStakingParams_Validate(t *testing.T) {
	valid := StakingParams{AdoptionRate: 0.3, BaseTokenPrice: 4, MarketCapConstant: 1e7}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid params, got %v", err)
	}

	for _, rate := range []float64{math.NaN(), math.Inf(-1), -0.1, 1.5} {
		bad := valid
		bad.AdoptionRate = rate
		if err := bad.Validate(); !errors.Is(err, ErrDomain) {
			t.Errorf("adoption_rate=%v: expected ErrDomain, got %v", rate, err)
		}
	}

	for _, mc := range []float64{0, math.NaN(), math.Inf(1), math.Inf(-1)} {
		bad := valid
		bad.MarketCapConstant = mc
		if err := bad.Validate(); !errors.Is(err, ErrDivisionDegenerate) {
			t.Errorf("market_cap_constant=%v: expected ErrDivisionDegenerate, got %v", mc, err)
		}
	}
}

func TestSimulationParameters_Clone(t *testing.T) {
	target := 3_000_000.0
	orig := SimulationParameters{
		Revenue:     RevenueParams{TargetRevenue: &target},
		Schedule:    &ScheduleParams{BurnSchedule: map[int]float64{5: 0.01}},
		FeeDiscount: &FeeDiscountParams{Staking: &StakingParams{AdoptionRate: 0.5}},
		FeeHoliday:  &FeeHolidayParams{SurgeDays: []int{1, 2}},
	}

	cp := orig.Clone()
	*cp.Revenue.TargetRevenue = 1
	cp.Schedule.BurnSchedule[5] = 0.5
	cp.FeeDiscount.Staking.AdoptionRate = 0.9
	cp.FeeHoliday.SurgeDays[0] = 40

	if *orig.Revenue.TargetRevenue != 3_000_000 {
		t.Error("target revenue shared with clone")
	}
	if orig.Schedule.BurnSchedule[5] != 0.01 {
		t.Error("burn schedule shared with clone")
	}
	if orig.FeeDiscount.Staking.AdoptionRate != 0.5 {
		t.Error("staking params shared with clone")
	}
	if orig.FeeHoliday.SurgeDays[0] != 1 {
		t.Error("surge days shared with clone")
	}
}
