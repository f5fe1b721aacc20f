// Package mining reconstructs business-process task instances from the
// unlabeled event log and computes cycle metrics over them. Events carry no
// task or session identifier, so instances are inferred with a time-window
// correlation heuristic.
package mining

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProcessDefinition names a known business workflow and the action-name
// fragments that identify its steps. An event belongs to the process when
// its action contains any fragment (case-sensitive substring match).
type ProcessDefinition struct {
	Name          string   `yaml:"name" json:"name"`
	StepFragments []string `yaml:"steps" json:"steps"`
}

// DefaultCatalogue returns the built-in workflow catalogue of the host
// application. The names are the workflow labels used by the business.
func DefaultCatalogue() []ProcessDefinition {
	return []ProcessDefinition{
		{Name: "Offerte → Factuur", StepFragments: []string{"quote", "invoice"}},
		{Name: "Offerte → Werkbon", StepFragments: []string{"quote", "work_order"}},
		{Name: "Werkbon Afhandeling", StepFragments: []string{"work_order"}},
		{Name: "Factuur Validatie", StepFragments: []string{"validate_invoice", "send_invoice", "pay_invoice"}},
	}
}

// LoadCatalogue reads a workflow catalogue from a YAML file. The file
// replaces the default catalogue wholesale.
func LoadCatalogue(path string) ([]ProcessDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}

	var wrapper struct {
		Processes []ProcessDefinition `yaml:"processes"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}
	if len(wrapper.Processes) == 0 {
		return nil, fmt.Errorf("catalogue %s defines no processes", path)
	}
	for _, p := range wrapper.Processes {
		if p.Name == "" || len(p.StepFragments) == 0 {
			return nil, fmt.Errorf("catalogue %s contains a process without name or steps", path)
		}
	}
	return wrapper.Processes, nil
}
