// Package exec runs external commands behind an interface so tests can replace them.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"testing"
)

// CommandExecutor defines an interface for executing external commands.
type CommandExecutor interface {
	// Execute runs a command with the given name and arguments.
	// Returns stdout, stderr, and any error.
	Execute(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// RealExecutor executes actual system commands.
type RealExecutor struct {
	// Dir is the working directory; empty means the current directory.
	Dir string
}

// NewRealExecutor creates an executor that runs real commands.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{}
}

// Execute runs the actual command using os/exec.
// It includes a safety check to prevent accidental mutation of the repository during tests.
func (e *RealExecutor) Execute(ctx context.Context, name string, args ...string) (string, string, error) {
	if testing.Testing() && isMutationCommand(name, args) {
		panic(fmt.Sprintf(
			"SAFETY VIOLATION: Attempted to run mutation command during test: %s %s\n"+
				"This could modify the repository or remote resources!\n"+
				"Use exec.MockExecutor in your test instead.",
			name, strings.Join(args, " "),
		))
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir

	var stdout bytes.Buffer

	var stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return stdout.String(), stderr.String(), err
}

// isMutationCommand checks if a command could mutate the repository or remote state.
func isMutationCommand(name string, args []string) bool {
	if len(args) == 0 {
		return false
	}

	switch name {
	case "git":
		return isGitMutation(args)
	case "gh":
		return isGHMutation(args)
	default:
		return false
	}
}

func isGitMutation(args []string) bool {
	mutationCommands := map[string]bool{
		"push":     true,
		"commit":   true,
		"reset":    true,
		"checkout": true,
		"merge":    true,
		"rebase":   true,
	}

	subcommand := args[0]

	switch subcommand {
	case "tag":
		// "git tag -l <pattern>" and bare "git tag" only list
		if len(args) == 1 {
			return false
		}

		for _, arg := range args[1:] {
			if arg == "-l" || arg == "--list" {
				return false
			}
		}

		return true
	case "branch":
		for _, arg := range args[1:] {
			if arg == "-d" || arg == "-D" || arg == "--delete" || arg == "-m" || arg == "-M" {
				return true
			}
		}

		return false
	}

	return mutationCommands[subcommand]
}

func isGHMutation(args []string) bool {
	mutationCommands := map[string]bool{
		"workflow": true, // gh workflow run
		"release":  true, // gh release create/delete
		"repo":     true, // gh repo create/delete
		"secret":   true, // gh secret set/delete
		"variable": true, // gh variable set/delete
		"run":      true, // gh run cancel/rerun (but not "run view")
	}

	subcommand := args[0]

	if subcommand == "run" && len(args) > 1 {
		operation := args[1]
		if operation == "view" || operation == "list" || operation == "watch" {
			return false
		}

		return true
	}

	return mutationCommands[subcommand]
}
