package domain

import (
	"fmt"
	"math"
)

// SimulationParameters is the immutable per-run input bundle.
// Exactly the block matching the selected ModelTag must be populated;
// the others are ignored.
type SimulationParameters struct {
	Common  CommonParams  `json:"common" yaml:"common"`
	Revenue RevenueParams `json:"revenue" yaml:"revenue"`

	Buyback     *BuybackParams     `json:"buyback,omitempty" yaml:"buyback,omitempty"`
	Exponential *ExponentialParams `json:"exponential,omitempty" yaml:"exponential,omitempty"`
	Logarithmic *LogarithmicParams `json:"logarithmic,omitempty" yaml:"logarithmic,omitempty"`
	Schedule    *ScheduleParams    `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	FeeDiscount *FeeDiscountParams `json:"fee_discount,omitempty" yaml:"fee_discount,omitempty"`
	FeeHoliday  *FeeHolidayParams  `json:"fee_holiday,omitempty" yaml:"fee_holiday,omitempty"`
}

// CommonParams are shared by every driver.
type CommonParams struct {
	InitialSupply  float64 `json:"initial_supply" yaml:"initial_supply"`
	TGEPrice       float64 `json:"tge_price" yaml:"tge_price"`
	Horizon        int     `json:"horizon" yaml:"horizon"`                 // months, or days for fee holiday
	DiscountFactor float64 `json:"discount_factor" yaml:"discount_factor"` // per-period PV discount, not the fee discount
}

// RevenueParams drive protocol revenue. Fee holiday reads InitialRevenue as
// monthly revenue and RevenueGrowthRate as its monthly growth.
type RevenueParams struct {
	InitialRevenue    float64  `json:"initial_revenue" yaml:"initial_revenue"`
	RevenueGrowthRate float64  `json:"revenue_growth_rate" yaml:"revenue_growth_rate"`
	UseTargetRevenue  bool     `json:"use_target_revenue" yaml:"use_target_revenue"`
	TargetRevenue     *float64 `json:"target_revenue,omitempty" yaml:"target_revenue,omitempty"`
}

// BuybackParams configure the Buyback+Burn variant.
type BuybackParams struct {
	BuybackRate     float64 `json:"buyback_rate" yaml:"buyback_rate"` // beta
	PriceGrowthRate float64 `json:"price_growth_rate" yaml:"price_growth_rate"`
}

// ExponentialParams configure the Exponential Decay variant.
// DecayRate is percentage-like: the effective lambda is DecayRate * 0.01.
type ExponentialParams struct {
	DecayRate float64 `json:"decay_rate" yaml:"decay_rate"`
}

// LogarithmicParams configure the Logarithmic Burn variant.
type LogarithmicParams struct {
	LogBurnCoefficient float64 `json:"log_burn_coefficient" yaml:"log_burn_coefficient"` // alpha
}

// ScheduleParams configure the Schedule-Based Burn variant.
// Periods absent from BurnSchedule burn 0%.
type ScheduleParams struct {
	BurnSchedule map[int]float64 `json:"burn_schedule" yaml:"burn_schedule"`
}

// FeeDiscountParams configure the fee-discount volume model.
type FeeDiscountParams struct {
	BaseVolume         float64        `json:"base_volume" yaml:"base_volume"`
	StandardFeePct     float64        `json:"standard_fee_pct" yaml:"standard_fee_pct"`
	DiscountMultiplier float64        `json:"discount_multiplier" yaml:"discount_multiplier"`
	Elasticity         float64        `json:"elasticity" yaml:"elasticity"`
	Staking            *StakingParams `json:"staking,omitempty" yaml:"staking,omitempty"`
}

// StakingParams enable the optional staking sub-model.
type StakingParams struct {
	AdoptionRate      float64 `json:"adoption_rate" yaml:"adoption_rate"`
	BaseTokenPrice    float64 `json:"base_token_price" yaml:"base_token_price"`
	MarketCapConstant float64 `json:"market_cap_constant" yaml:"market_cap_constant"`
}

// FeeHolidayParams configure the fee-holiday surge simulator.
type FeeHolidayParams struct {
	Day1VolumeFraction  float64 `json:"day1_volume_fraction" yaml:"day1_volume_fraction"`
	NumSurgeEvents      int     `json:"num_surge_events" yaml:"num_surge_events"`
	FeeDiscountFraction float64 `json:"fee_discount_fraction" yaml:"fee_discount_fraction"`
	MarketElasticity    float64 `json:"market_elasticity" yaml:"market_elasticity"`
	AdoptionRate        float64 `json:"adoption_rate" yaml:"adoption_rate"`
	ConversionFactor    float64 `json:"conversion_factor" yaml:"conversion_factor"` // USD per token

	// Seed drives the default surge-day picker. SurgeDays, when set,
	// bypasses random placement entirely and overrides NumSurgeEvents:
	// len(SurgeDays) surges are placed whatever NumSurgeEvents says.
	Seed      int64 `json:"seed" yaml:"seed"`
	SurgeDays []int `json:"surge_days,omitempty" yaml:"surge_days,omitempty"`
}

// Validate checks constraints shared by every driver.
func (c CommonParams) Validate() error {
	if !isFinite(c.InitialSupply) || c.InitialSupply < 0 {
		return fmt.Errorf("%w: initial_supply must be >= 0, got %v", ErrDomain, c.InitialSupply)
	}
	if !isFinite(c.TGEPrice) || c.TGEPrice < 0 {
		return fmt.Errorf("%w: tge_price must be >= 0, got %v", ErrDomain, c.TGEPrice)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("%w: horizon must be > 0, got %d", ErrDomain, c.Horizon)
	}
	if !(c.DiscountFactor > 0 && c.DiscountFactor <= 1) {
		return fmt.Errorf("%w: discount_factor must be in (0,1], got %v", ErrDomain, c.DiscountFactor)
	}
	return nil
}

// Validate checks revenue constraints.
func (r RevenueParams) Validate() error {
	if !isFinite(r.InitialRevenue) || r.InitialRevenue < 0 {
		return fmt.Errorf("%w: initial_revenue must be >= 0, got %v", ErrDomain, r.InitialRevenue)
	}
	if !isFinite(r.RevenueGrowthRate) {
		return fmt.Errorf("%w: revenue_growth_rate must be finite", ErrDomain)
	}
	if r.UseTargetRevenue {
		if r.TargetRevenue == nil {
			return fmt.Errorf("%w: target_revenue required when use_target_revenue is set", ErrDomain)
		}
		if !isFinite(*r.TargetRevenue) || *r.TargetRevenue < 0 {
			return fmt.Errorf("%w: target_revenue must be >= 0, got %v", ErrDomain, *r.TargetRevenue)
		}
	}
	return nil
}

// Validate checks fee-discount constraints.
func (p FeeDiscountParams) Validate() error {
	if !isFinite(p.BaseVolume) || p.BaseVolume < 0 {
		return fmt.Errorf("%w: base_volume must be >= 0, got %v", ErrDomain, p.BaseVolume)
	}
	if !isFinite(p.StandardFeePct) || p.StandardFeePct < 0 {
		return fmt.Errorf("%w: standard_fee_pct must be >= 0, got %v", ErrDomain, p.StandardFeePct)
	}
	if !isFinite(p.DiscountMultiplier) || p.DiscountMultiplier < 0 || p.DiscountMultiplier > 1 {
		return fmt.Errorf("%w: discount_multiplier must be in [0,1], got %v", ErrDomain, p.DiscountMultiplier)
	}
	if !isFinite(p.Elasticity) || p.Elasticity < 0 {
		return fmt.Errorf("%w: elasticity must be >= 0, got %v", ErrDomain, p.Elasticity)
	}
	if p.Staking != nil {
		return p.Staking.Validate()
	}
	return nil
}

// Validate checks staking sub-model constraints.
func (p StakingParams) Validate() error {
	if !isFinite(p.AdoptionRate) || p.AdoptionRate < 0 || p.AdoptionRate > 1 {
		return fmt.Errorf("%w: adoption_rate must be in [0,1], got %v", ErrDomain, p.AdoptionRate)
	}
	if !isFinite(p.BaseTokenPrice) || p.BaseTokenPrice < 0 {
		return fmt.Errorf("%w: base_token_price must be >= 0, got %v", ErrDomain, p.BaseTokenPrice)
	}
	if !isFinite(p.MarketCapConstant) || p.MarketCapConstant == 0 {
		return fmt.Errorf("%w: market_cap_constant must be non-zero", ErrDivisionDegenerate)
	}
	return nil
}

// Validate checks fee-holiday constraints.
func (p FeeHolidayParams) Validate() error {
	if !isFinite(p.Day1VolumeFraction) || p.Day1VolumeFraction < 0 {
		return fmt.Errorf("%w: day1_volume_fraction must be >= 0, got %v", ErrDomain, p.Day1VolumeFraction)
	}
	if p.NumSurgeEvents < 0 {
		return fmt.Errorf("%w: num_surge_events must be >= 0, got %d", ErrDomain, p.NumSurgeEvents)
	}
	if !isFinite(p.FeeDiscountFraction) || p.FeeDiscountFraction < 0 || p.FeeDiscountFraction > 0.99 {
		return fmt.Errorf("%w: fee_discount_fraction must be in [0,0.99], got %v", ErrDomain, p.FeeDiscountFraction)
	}
	if !isFinite(p.MarketElasticity) {
		return fmt.Errorf("%w: market_elasticity must be finite", ErrDomain)
	}
	if !isFinite(p.AdoptionRate) || p.AdoptionRate < 0 || p.AdoptionRate > 1 {
		return fmt.Errorf("%w: adoption_rate must be in [0,1], got %v", ErrDomain, p.AdoptionRate)
	}
	if p.ConversionFactor == 0 {
		return fmt.Errorf("%w: conversion_factor must be > 0", ErrDivisionDegenerate)
	}
	if !isFinite(p.ConversionFactor) || p.ConversionFactor < 0 {
		return fmt.Errorf("%w: conversion_factor must be > 0, got %v", ErrDomain, p.ConversionFactor)
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Clone returns a deep copy of the bundle.
func (p SimulationParameters) Clone() SimulationParameters {
	out := p
	if p.Revenue.TargetRevenue != nil {
		v := *p.Revenue.TargetRevenue
		out.Revenue.TargetRevenue = &v
	}
	if p.Buyback != nil {
		v := *p.Buyback
		out.Buyback = &v
	}
	if p.Exponential != nil {
		v := *p.Exponential
		out.Exponential = &v
	}
	if p.Logarithmic != nil {
		v := *p.Logarithmic
		out.Logarithmic = &v
	}
	if p.Schedule != nil {
		schedule := make(map[int]float64, len(p.Schedule.BurnSchedule))
		for k, v := range p.Schedule.BurnSchedule {
			schedule[k] = v
		}
		out.Schedule = &ScheduleParams{BurnSchedule: schedule}
	}
	if p.FeeDiscount != nil {
		v := *p.FeeDiscount
		if p.FeeDiscount.Staking != nil {
			s := *p.FeeDiscount.Staking
			v.Staking = &s
		}
		out.FeeDiscount = &v
	}
	if p.FeeHoliday != nil {
		v := *p.FeeHoliday
		if p.FeeHoliday.SurgeDays != nil {
			v.SurgeDays = append([]int(nil), p.FeeHoliday.SurgeDays...)
		}
		out.FeeHoliday = &v
	}
	return out
}
