package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/sweep"
)

var errBadRequest = errors.New("bad request")

// SimulateRequest is the body of POST /v1/simulate.
// Parameters overlay the model defaults; omitted fields keep their default.
type SimulateRequest struct {
	Model      string          `json:"model"`
	Label      string          `json:"label,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// VariationRequest is one explicit variation of a sweep.
type VariationRequest struct {
	Label      string          `json:"label"`
	Model      string          `json:"model"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// SweepRequest is the body of POST /v1/sweep. Exactly one shape applies:
// explicit Variations, Model with Scenarios (all presets when empty),
// or neither for a run of every model with defaults.
type SweepRequest struct {
	Name       string             `json:"name"`
	Model      string             `json:"model,omitempty"`
	Scenarios  []string           `json:"scenarios,omitempty"`
	Parameters json.RawMessage    `json:"parameters,omitempty"`
	Variations []VariationRequest `json:"variations,omitempty"`
}

func (req SweepRequest) plan(defaults DefaultsFunc) (sweep.Plan, error) {
	name := req.Name
	if name == "" {
		name = "api"
	}

	switch {
	case len(req.Variations) > 0:
		if req.Model != "" || len(req.Scenarios) > 0 {
			return sweep.Plan{}, fmt.Errorf("%w: variations cannot be combined with model or scenarios", errBadRequest)
		}
		plan := sweep.Plan{Name: name, Variations: make([]sweep.Variation, 0, len(req.Variations))}
		for i, v := range req.Variations {
			tag, params, err := resolve(defaults, v.Model, v.Parameters)
			if err != nil {
				return sweep.Plan{}, fmt.Errorf("variation %d: %w", i, err)
			}
			label := v.Label
			if label == "" {
				label = fmt.Sprintf("%s-%d", tag, i+1)
			}
			plan.Variations = append(plan.Variations, sweep.Variation{Label: label, Model: tag, Params: params})
		}
		return plan, nil

	case req.Model != "":
		tag, base, err := resolve(defaults, req.Model, req.Parameters)
		if err != nil {
			return sweep.Plan{}, err
		}
		scenarios := domain.AllScenarios()
		if len(req.Scenarios) > 0 {
			scenarios = scenarios[:0:0]
			for _, id := range req.Scenarios {
				s, err := domain.ScenarioByID(id)
				if err != nil {
					return sweep.Plan{}, err
				}
				scenarios = append(scenarios, s)
			}
		}
		return sweep.ScenarioPlan(name, tag, base, scenarios), nil

	default:
		if len(req.Scenarios) > 0 || len(req.Parameters) > 0 {
			return sweep.Plan{}, fmt.Errorf("%w: scenarios and parameters require a model", errBadRequest)
		}
		return sweep.ModelPlanWith(name, defaults)
	}
}

// resolve parses the model and overlays raw JSON parameters on its defaults.
// A "schedule" block replaces the default burn schedule instead of merging.
func resolve(defaults DefaultsFunc, model string, raw json.RawMessage) (domain.ModelTag, domain.SimulationParameters, error) {
	tag, err := domain.ParseModelTag(model)
	if err != nil {
		return "", domain.SimulationParameters{}, err
	}
	params, err := defaults(tag)
	if err != nil {
		return "", domain.SimulationParameters{}, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return tag, params, nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return "", domain.SimulationParameters{}, fmt.Errorf("%w: parameters: %v", errBadRequest, err)
	}
	if _, ok := keys["schedule"]; ok {
		params.Schedule = nil
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return "", domain.SimulationParameters{}, fmt.Errorf("%w: parameters: %v", errBadRequest, err)
	}
	return tag, params, nil
}
