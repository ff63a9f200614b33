package workflowspec

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefinitionSchemaV1 = "taskflow.workflow.v1"

// Definition is a complete workflow setup document for one organization:
// the status set plus the transition allow-list, with edges referencing
// statuses by name. Parsed from YAML (JSON is a YAML subset).
type Definition struct {
	Schema      string          `json:"schema" yaml:"schema"`
	Statuses    []StatusDef     `json:"statuses" yaml:"statuses"`
	Transitions []TransitionDef `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

type StatusDef struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	OrderIndex  int    `json:"order_index,omitempty" yaml:"order_index,omitempty"`
	IsDefault   bool   `json:"is_default,omitempty" yaml:"is_default,omitempty"`
}

type TransitionDef struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

func ParseDefinition(input []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(input, &def); err != nil {
		return Definition{}, fmt.Errorf("decode workflow definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func (d Definition) Validate() error {
	if strings.TrimSpace(d.Schema) != DefinitionSchemaV1 {
		return fmt.Errorf("definition.schema must be %q", DefinitionSchemaV1)
	}
	if len(d.Statuses) == 0 {
		return errors.New("definition.statuses must be non-empty")
	}

	names := make(map[string]struct{}, len(d.Statuses))
	defaults := 0
	for i, status := range d.Statuses {
		name := strings.TrimSpace(status.Name)
		if name == "" {
			return fmt.Errorf("definition.statuses[%d].name is required", i)
		}
		if strings.TrimSpace(status.DisplayName) == "" {
			return fmt.Errorf("definition.statuses[%d].display_name is required", i)
		}
		if _, dup := names[name]; dup {
			return fmt.Errorf("definition.statuses duplicate name: %q", name)
		}
		names[name] = struct{}{}
		if status.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return errors.New("definition.statuses must declare at most one default")
	}

	seenEdges := make(map[string]struct{}, len(d.Transitions))
	for i, edge := range d.Transitions {
		from := strings.TrimSpace(edge.From)
		to := strings.TrimSpace(edge.To)
		if from == "" || to == "" {
			return fmt.Errorf("definition.transitions[%d] requires from and to", i)
		}
		if _, ok := names[from]; !ok {
			return fmt.Errorf("definition.transitions[%d].from references undeclared status %q", i, from)
		}
		if _, ok := names[to]; !ok {
			return fmt.Errorf("definition.transitions[%d].to references undeclared status %q", i, to)
		}
		key := from + "\x00" + to
		if _, dup := seenEdges[key]; dup {
			return fmt.Errorf("definition.transitions duplicate edge: %q -> %q", from, to)
		}
		seenEdges[key] = struct{}{}
	}
	return nil
}

// DefaultStatusName returns the declared default status name, if any.
func (d Definition) DefaultStatusName() (string, bool) {
	for _, status := range d.Statuses {
		if status.IsDefault {
			return strings.TrimSpace(status.Name), true
		}
	}
	return "", false
}
