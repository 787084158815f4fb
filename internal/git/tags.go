// Package git provides read-only Git queries used before registering a release.
package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kyleking/gh-ci-helpers/internal/exec"
)

const commandTimeout = 5 * time.Second

// Tags queries the tags of the repository in the executor's working directory.
type Tags struct {
	exec exec.CommandExecutor
}

// NewTags creates a Tags query over the given executor.
func NewTags(e exec.CommandExecutor) *Tags {
	return &Tags{exec: e}
}

// List returns the tags matching a glob pattern.
func (t *Tags) List(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	stdout, stderr, err := t.exec.Execute(ctx, "git", "tag", "-l", pattern)
	if err != nil {
		if msg := strings.TrimSpace(stderr); msg != "" {
			return nil, fmt.Errorf("git tag -l %s: %s: %w", pattern, msg, err)
		}

		return nil, fmt.Errorf("git tag -l %s: %w", pattern, err)
	}

	return _parseTags(stdout), nil
}

// Exists reports whether tag is present.
func (t *Tags) Exists(ctx context.Context, tag string) (bool, error) {
	tags, err := t.List(ctx, tag)
	if err != nil {
		return false, err
	}

	for _, existing := range tags {
		if existing == tag {
			return true, nil
		}
	}

	return false, nil
}

func _parseTags(output string) []string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	tags := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		tags = append(tags, line)
	}

	return tags
}
