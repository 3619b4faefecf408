package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadScenario loads a scenario from a YAML file
func LoadScenario(filepath string) (*Scenario, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	return LoadScenarioFromBytes(data)
}

// LoadScenarioFromBytes loads a scenario from byte data (useful for testing)
func LoadScenarioFromBytes(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	applyDefaults(&scenario)

	if err := ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}

	return &scenario, nil
}

// applyDefaults fills in omitted per-batch fields before validation
func applyDefaults(s *Scenario) {
	for i := range s.Batches {
		if s.Batches[i].Device == "" {
			s.Batches[i].Device = s.Setup.Device
		}
		if s.Batches[i].Cells == 0 {
			s.Batches[i].Cells = 3
		}
		if s.Batches[i].IntervalMs == 0 {
			s.Batches[i].IntervalMs = 1000
		}
	}
}
