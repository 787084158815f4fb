// Package cli wires the cobra commands of gh-ci-helpers.
package cli

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/spf13/cobra"

	"github.com/kyleking/gh-ci-helpers/internal/config"
	"github.com/kyleking/gh-ci-helpers/internal/exec"
	"github.com/kyleking/gh-ci-helpers/internal/github"
	"github.com/kyleking/gh-ci-helpers/internal/waiter"
)

// Deps are the collaborators the commands reach the outside world through.
type Deps struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Environ func() []string

	// RepoRoot is where local workflow definitions are read from. Empty skips the check.
	RepoRoot string

	// NewRunLister builds the provider client for wait-for-run.
	NewRunLister func(cfg config.Config, userAgent string) (waiter.RunLister, error)
	Clock        waiter.Clock
	Executor     exec.CommandExecutor
	HTTPClient   *http.Client
}

// DefaultDeps returns the production collaborators.
func DefaultDeps() Deps {
	return Deps{
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Environ:      os.Environ,
		RepoRoot:     ".",
		NewRunLister: newGitHubLister,
		Clock:        waiter.SystemClock(),
		Executor:     exec.NewRealExecutor(),
	}
}

func newGitHubLister(cfg config.Config, userAgent string) (waiter.RunLister, error) {
	client, err := github.NewClient(cfg.Repository, api.ClientOptions{
		Host:      cfg.Host,
		AuthToken: cfg.Token,
		Headers:   map[string]string{"User-Agent": userAgent},
		Timeout:   30 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return client.WithPerPage(cfg.Wait.PerPage), nil
}

type app struct {
	deps    Deps
	version string

	configPath string
	envFile    string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string, deps Deps) *cobra.Command {
	if deps.Environ == nil {
		deps.Environ = os.Environ
	}

	a := &app{deps: deps, version: version}

	root := &cobra.Command{
		Use:   "gh-ci-helpers",
		Short: "Release pipeline helpers for CI jobs",
		Long: `gh-ci-helpers bundles the steps a release pipeline runs from CI:
waiting for a related GitHub Actions workflow run to finish, and registering
a new dev version with the version registry.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	root.SetOut(deps.Stdout)
	root.SetErr(deps.Stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", config.ConfigFilename, "Config file path")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", config.DefaultEnvFile, `.env file path ("-" disables)`)
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug|info|warn|error)")

	root.AddCommand(
		a.newWaitCmd(),
		a.newRegisterCmd(),
		a.newVersionCmd(),
	)

	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: a.configPath,
		EnvFile:    a.envFile,
		Environ:    a.deps.Environ(),
	})
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}

	a.cfg = cfg
	a.logger = NewLogger(a.deps.Stderr, cfg.LogLevel)

	return nil
}

func (a *app) userAgent() string {
	return "gh-ci-helpers/" + a.version
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("gh-ci-helpers %s\n", a.version)
			return nil
		},
	}
}
