package domain

import "fmt"

// ScenarioConfig shifts a base parameter bundle toward a market outlook.
type ScenarioConfig struct {
	ScenarioID           string  // "optimistic" | "realistic" | "pessimistic" | "degraded"
	RevenueMultiplier    float64 // scales initial and target revenue
	GrowthShift          float64 // added to the monthly revenue growth rate
	PriceGrowthShift     float64 // added to the buyback price growth rate
	ElasticityMultiplier float64 // scales fee-discount and fee-holiday elasticity
}

// Scenario ID constants
const (
	ScenarioOptimistic  = "optimistic"
	ScenarioRealistic   = "realistic"
	ScenarioPessimistic = "pessimistic"
	ScenarioDegraded    = "degraded"
)

// Predefined scenario configurations
var (
	ScenarioConfigOptimistic = ScenarioConfig{
		ScenarioID:           ScenarioOptimistic,
		RevenueMultiplier:    1.5,
		GrowthShift:          0.01,
		PriceGrowthShift:     0.01,
		ElasticityMultiplier: 1.2,
	}

	ScenarioConfigRealistic = ScenarioConfig{
		ScenarioID:           ScenarioRealistic,
		RevenueMultiplier:    1.0,
		GrowthShift:          0,
		PriceGrowthShift:     0,
		ElasticityMultiplier: 1.0,
	}

	ScenarioConfigPessimistic = ScenarioConfig{
		ScenarioID:           ScenarioPessimistic,
		RevenueMultiplier:    0.6,
		GrowthShift:          -0.01,
		PriceGrowthShift:     -0.02,
		ElasticityMultiplier: 0.8,
	}

	ScenarioConfigDegraded = ScenarioConfig{
		ScenarioID:           ScenarioDegraded,
		RevenueMultiplier:    0.3,
		GrowthShift:          -0.03,
		PriceGrowthShift:     -0.05,
		ElasticityMultiplier: 0.5,
	}
)

// AllScenarios returns the predefined scenarios, most favourable first.
func AllScenarios() []ScenarioConfig {
	return []ScenarioConfig{
		ScenarioConfigOptimistic,
		ScenarioConfigRealistic,
		ScenarioConfigPessimistic,
		ScenarioConfigDegraded,
	}
}

// ScenarioByID looks up a predefined scenario.
func ScenarioByID(id string) (ScenarioConfig, error) {
	for _, s := range AllScenarios() {
		if s.ScenarioID == id {
			return s, nil
		}
	}
	return ScenarioConfig{}, fmt.Errorf("%w: unknown scenario %q", ErrDomain, id)
}

// Apply returns a copy of p adjusted by the scenario. p is not modified.
func (s ScenarioConfig) Apply(p SimulationParameters) SimulationParameters {
	out := p.Clone()

	out.Revenue.InitialRevenue *= s.RevenueMultiplier
	out.Revenue.RevenueGrowthRate += s.GrowthShift
	if out.Revenue.TargetRevenue != nil {
		*out.Revenue.TargetRevenue *= s.RevenueMultiplier
	}
	if out.Buyback != nil {
		out.Buyback.PriceGrowthRate += s.PriceGrowthShift
	}
	if out.FeeDiscount != nil {
		out.FeeDiscount.Elasticity *= s.ElasticityMultiplier
	}
	if out.FeeHoliday != nil {
		out.FeeHoliday.MarketElasticity *= s.ElasticityMultiplier
	}
	return out
}
