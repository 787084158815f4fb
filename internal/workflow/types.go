package workflow

import "slices"

// Definition is a workflow file found under .github/workflows.
type Definition struct {
	// Name is the display name GitHub reports on runs. Files without a
	// "name" key are reported by their path relative to the repository.
	Name     string
	Filename string
	Triggers []string
}

// HasTrigger reports whether the workflow runs on the given event.
func (d Definition) HasTrigger(event string) bool {
	return slices.Contains(d.Triggers, event)
}

// Names returns the display names of defs in order.
func Names(defs []Definition) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}

	return names
}

// Find returns the definition whose display name is name.
func Find(defs []Definition, name string) (Definition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}

	return Definition{}, false
}
