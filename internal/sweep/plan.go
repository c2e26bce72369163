package sweep

import (
	"fmt"

	"token-demand-lab/internal/domain"
)

// Variation is one labelled simulation inside a Plan.
type Variation struct {
	Label  string                      `json:"label" yaml:"label"`
	Model  domain.ModelTag             `json:"model" yaml:"model"`
	Params domain.SimulationParameters `json:"parameters" yaml:"parameters"`
}

// Plan is an ordered list of variations executed as one batch.
type Plan struct {
	Name       string      `json:"name" yaml:"name"`
	Variations []Variation `json:"variations" yaml:"variations"`
}

// Validate checks the plan shape. Parameter constraints are left to the
// simulators so a bad variation fails alone.
func (p Plan) Validate() error {
	if len(p.Variations) == 0 {
		return fmt.Errorf("%w: plan has no variations", domain.ErrDomain)
	}
	seen := make(map[string]struct{}, len(p.Variations))
	for i, v := range p.Variations {
		if v.Label == "" {
			return fmt.Errorf("%w: variation %d has no label", domain.ErrDomain, i)
		}
		if _, dup := seen[v.Label]; dup {
			return fmt.Errorf("%w: duplicate variation label %q", domain.ErrDomain, v.Label)
		}
		seen[v.Label] = struct{}{}
	}
	return nil
}

// ScenarioPlan applies each scenario to base, one variation per scenario.
func ScenarioPlan(name string, model domain.ModelTag, base domain.SimulationParameters, scenarios []domain.ScenarioConfig) Plan {
	plan := Plan{Name: name, Variations: make([]Variation, 0, len(scenarios))}
	for _, s := range scenarios {
		plan.Variations = append(plan.Variations, Variation{
			Label:  s.ScenarioID,
			Model:  model,
			Params: s.Apply(base),
		})
	}
	return plan
}

// ModelPlan runs every model with its default parameters.
func ModelPlan(name string) (Plan, error) {
	return ModelPlanWith(name, domain.DefaultParameters)
}

// ModelPlanWith runs every model with the parameters returned by defaults.
func ModelPlanWith(name string, defaults func(domain.ModelTag) (domain.SimulationParameters, error)) (Plan, error) {
	plan := Plan{Name: name}
	for _, tag := range domain.AllModels() {
		params, err := defaults(tag)
		if err != nil {
			return Plan{}, err
		}
		plan.Variations = append(plan.Variations, Variation{
			Label:  tag.String(),
			Model:  tag,
			Params: params,
		})
	}
	return plan, nil
}

// RangePlan sweeps one parameter of base across values.
// set mutates a cloned bundle; labels are "<param>=<value>".
func RangePlan(name string, model domain.ModelTag, base domain.SimulationParameters, param string, values []float64, set func(*domain.SimulationParameters, float64)) Plan {
	plan := Plan{Name: name, Variations: make([]Variation, 0, len(values))}
	for _, v := range values {
		params := base.Clone()
		set(&params, v)
		plan.Variations = append(plan.Variations, Variation{
			Label:  fmt.Sprintf("%s=%g", param, v),
			Model:  model,
			Params: params,
		})
	}
	return plan
}
