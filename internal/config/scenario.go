package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/sweep"
)

// Scenario is a single simulation definition.
type Scenario struct {
	Model      domain.ModelTag
	Label      string
	Parameters domain.SimulationParameters
}

// scenarioFile is the on-disk shape. parameters overlays the model's
// defaults, so a file only lists what it changes.
type scenarioFile struct {
	Model      string    `yaml:"model"`
	Label      string    `yaml:"label"`
	Parameters yaml.Node `yaml:"parameters"`
}

// planFile is a named list of scenarios.
type planFile struct {
	Name       string         `yaml:"name"`
	Variations []scenarioFile `yaml:"variations"`
}

// LoadScenario loads and parses a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses a YAML scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario YAML: %w", err)
	}
	return f.resolve()
}

// LoadPlan loads a YAML sweep plan.
func LoadPlan(path string) (sweep.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sweep.Plan{}, fmt.Errorf("failed to read plan file: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan parses a YAML sweep plan document.
func ParsePlan(data []byte) (sweep.Plan, error) {
	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return sweep.Plan{}, fmt.Errorf("failed to unmarshal plan YAML: %w", err)
	}

	plan := sweep.Plan{Name: f.Name}
	for i, v := range f.Variations {
		s, err := v.resolve()
		if err != nil {
			return sweep.Plan{}, fmt.Errorf("variation %d: %w", i, err)
		}
		label := s.Label
		if label == "" {
			label = fmt.Sprintf("%s-%d", s.Model, i)
		}
		plan.Variations = append(plan.Variations, sweep.Variation{
			Label:  label,
			Model:  s.Model,
			Params: s.Parameters,
		})
	}
	if err := plan.Validate(); err != nil {
		return sweep.Plan{}, err
	}
	return plan, nil
}

func (f scenarioFile) resolve() (*Scenario, error) {
	tag, err := domain.ParseModelTag(f.Model)
	if err != nil {
		return nil, err
	}

	params, err := domain.DefaultParameters(tag)
	if err != nil {
		return nil, err
	}

	if !f.Parameters.IsZero() {
		// A listed schedule replaces the default one instead of merging into it.
		if hasKey(&f.Parameters, "schedule") {
			params.Schedule = &domain.ScheduleParams{}
		}
		if err := f.Parameters.Decode(&params); err != nil {
			return nil, fmt.Errorf("failed to decode parameters: %w", err)
		}
	}

	return &Scenario{Model: tag, Label: f.Label, Parameters: params}, nil
}

// hasKey reports whether a mapping node has the given top-level key.
func hasKey(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}
