package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMutationCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    []string
		want    bool
	}{
		{"git tag list", "git", []string{"tag", "-l", "v1.0.0"}, false},
		{"git tag long list", "git", []string{"tag", "--list", "dev-v*"}, false},
		{"bare git tag", "git", []string{"tag"}, false},
		{"git tag create", "git", []string{"tag", "v1.0.0"}, true},
		{"git tag delete", "git", []string{"tag", "-d", "v1.0.0"}, true},
		{"git push", "git", []string{"push", "origin", "v1.0.0"}, true},
		{"git commit", "git", []string{"commit", "-m", "x"}, true},
		{"git branch list", "git", []string{"branch", "-r"}, false},
		{"git branch delete", "git", []string{"branch", "-D", "main"}, true},
		{"git rev-parse", "git", []string{"rev-parse", "HEAD"}, false},
		{"gh workflow run", "gh", []string{"workflow", "run", "ci.yml"}, true},
		{"gh run view", "gh", []string{"run", "view", "123"}, false},
		{"gh run cancel", "gh", []string{"run", "cancel", "123"}, true},
		{"gh api", "gh", []string{"api", "repos/o/r/actions/runs"}, false},
		{"other command", "echo", []string{"push"}, false},
		{"no args", "git", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isMutationCommand(tt.command, tt.args))
		})
	}
}

func TestRealExecutor_SafetyCheck_PanicsOnMutation(t *testing.T) {
	executor := NewRealExecutor()

	assert.Panics(t, func() {
		_, _, _ = executor.Execute(context.Background(), "git", "push", "origin", "master")
	})
}

func TestRealExecutor_RunsReadOnlyCommand(t *testing.T) {
	executor := NewRealExecutor()

	stdout, _, err := executor.Execute(context.Background(), "go", "env", "GOOS")
	if err != nil {
		t.Skipf("go toolchain unavailable: %v", err)
	}

	assert.NotEmpty(t, stdout)
}

func TestMockExecutor(t *testing.T) {
	m := NewMockExecutor()
	m.AddGitTagList("v1.2.3", "v1.2.3")
	m.AddCommand("git", []string{"rev-parse", "*"}, "abc123\n", "", nil)

	stdout, _, err := m.Execute(context.Background(), "git", "tag", "-l", "v1.2.3")
	assert.NoError(t, err)
	assert.Equal(t, "v1.2.3\n", stdout)

	stdout, _, err = m.Execute(context.Background(), "git", "rev-parse", "HEAD")
	assert.NoError(t, err)
	assert.Equal(t, "abc123\n", stdout)

	_, _, err = m.Execute(context.Background(), "git", "status")
	assert.Error(t, err)

	assert.Len(t, m.ExecutedCommands, 3)

	m.Reset()
	assert.Empty(t, m.ExecutedCommands)
	assert.Empty(t, m.Commands)
}

func TestMockExecutor_CancelledContext(t *testing.T) {
	m := NewMockExecutor()
	m.AddGitTagList("v1.0.0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.Execute(ctx, "git", "tag", "-l", "v1.0.0")
	assert.ErrorIs(t, err, context.Canceled)
}
