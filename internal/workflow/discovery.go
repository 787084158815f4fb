// Package workflow reads the GitHub Actions workflow definitions checked into a repository.
package workflow

import (
	"os"
	"path/filepath"
	"sort"
)

// Dir is the workflow directory relative to the repository root.
const Dir = ".github/workflows"

// Discover parses every workflow file under repoRoot. A missing directory
// yields no definitions, and files that fail to parse are skipped.
func Discover(repoRoot string) ([]Definition, error) {
	workflowDir := filepath.Join(repoRoot, Dir)

	patterns := []string{
		filepath.Join(workflowDir, "*.yml"),
		filepath.Join(workflowDir, "*.yaml"),
	}

	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}

		files = append(files, matches...)
	}

	var defs []Definition

	for _, file := range files {
		def, err := parseWorkflowFile(file)
		if err != nil {
			continue
		}

		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Filename < defs[j].Filename
	})

	return defs, nil
}

func parseWorkflowFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, err
	}

	def, err := Parse(data)
	if err != nil {
		return Definition{}, err
	}

	def.Filename = filepath.Base(path)
	if def.Name == "" {
		def.Name = Dir + "/" + def.Filename
	}

	return def, nil
}
