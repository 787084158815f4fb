package workflow

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// Parse reads the display name and trigger events of a workflow file.
func Parse(data []byte) (Definition, error) {
	var raw rawWorkflow
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Definition{}, err
	}

	return Definition{Name: raw.Name, Triggers: raw.On.events}, nil
}

type rawWorkflow struct {
	Name string       `yaml:"name"`
	On   rawOnTrigger `yaml:"on"`
}

// rawOnTrigger handles "on" being either a string, list, or map.
type rawOnTrigger struct {
	events []string
}

func (t *rawOnTrigger) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != "" {
			t.events = []string{node.Value}
		}
	case yaml.SequenceNode:
		return node.Decode(&t.events)
	case yaml.MappingNode:
		var m map[string]yaml.Node
		if err := node.Decode(&m); err != nil {
			return err
		}

		for event := range m {
			t.events = append(t.events, event)
		}

		sort.Strings(t.events)
	}

	return nil
}
