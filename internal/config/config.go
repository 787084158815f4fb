// Package config builds the settings of the CI helper commands from defaults, an
// optional YAML file, an optional .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/hashicorp/go-envparse"
	"gopkg.in/yaml.v3"

	cierr "github.com/kyleking/gh-ci-helpers/internal/errors"
	"github.com/kyleking/gh-ci-helpers/internal/github"
	"github.com/kyleking/gh-ci-helpers/internal/registry"
	"github.com/kyleking/gh-ci-helpers/internal/release"
	"github.com/kyleking/gh-ci-helpers/internal/waiter"
)

// ConfigFilename is the default name for the configuration file.
const ConfigFilename = ".github/ci-helpers.yml"

// DefaultEnvFile is the default .env file; "-" disables loading.
const DefaultEnvFile = ".env"

// DefaultRepository is the repository whose runs are waited for.
const DefaultRepository = "supertokens/supertokens-core"

// DefaultHost is the GitHub host queried for runs.
const DefaultHost = "github.com"

// Environment variables read by Load.
const (
	EnvCommitSHA      = "GITHUB_SHA"
	EnvWorkflowName   = "WAIT_WORKFLOW_NAME"
	EnvRepository     = "CI_HELPERS_REPOSITORY"
	EnvTimeout        = "WAIT_TIMEOUT"
	EnvPollInterval   = "WAIT_POLL_INTERVAL"
	EnvGraceDelay     = "WAIT_GRACE_DELAY"
	EnvHost           = "GH_HOST"
	EnvGHToken        = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvRegistryAPIKey = "SUPERTOKENS_API_KEY"
	EnvRegistryURL    = "REGISTRY_URL"
	EnvLogLevel       = "CI_HELPERS_LOG_LEVEL"
)

// Config holds the settings of all commands.
type Config struct {
	Version    int            `yaml:"version"`
	Repository string         `yaml:"repository"`
	Host       string         `yaml:"host"`
	LogLevel   string         `yaml:"log_level"`
	Token      string         `yaml:"-"`
	Wait       WaitConfig     `yaml:"wait"`
	Register   RegisterConfig `yaml:"register"`
}

// WaitConfig holds the settings of wait-for-run.
type WaitConfig struct {
	CommitSHA    string        `yaml:"-"`
	Workflow     string        `yaml:"workflow"`
	GraceDelay   time.Duration `yaml:"grace_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
	PerPage      int           `yaml:"per_page"`
}

// RegisterConfig holds the settings of register-dev-tag.
type RegisterConfig struct {
	URL                  string `yaml:"url"`
	APIVersion           string `yaml:"api_version"`
	PlanType             string `yaml:"plan_type"`
	APIKey               string `yaml:"-"`
	BuildFile            string `yaml:"build_file"`
	PluginInterfacesFile string `yaml:"plugin_interfaces_file"`
	DriverInterfacesFile string `yaml:"driver_interfaces_file"`
	CheckTag             bool   `yaml:"check_tag"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Version:    1,
		Repository: DefaultRepository,
		Host:       DefaultHost,
		LogLevel:   "info",
		Wait: WaitConfig{
			Workflow:     waiter.DefaultWorkflowName,
			GraceDelay:   waiter.DefaultGraceDelay,
			PollInterval: waiter.DefaultPollInterval,
			Timeout:      waiter.DefaultTimeout,
			PerPage:      github.DefaultPerPage,
		},
		Register: RegisterConfig{
			URL:                  registry.DefaultURL,
			APIVersion:           registry.DefaultAPIVersion,
			PlanType:             release.DefaultPlanType,
			BuildFile:            release.DefaultBuildFile,
			PluginInterfacesFile: release.DefaultPluginInterfacesFile,
			DriverInterfacesFile: release.DefaultDriverInterfacesFile,
			CheckTag:             true,
		},
	}
}

// LoadOptions selects the sources merged by Load.
type LoadOptions struct {
	// ConfigPath is the YAML file; a missing file is ignored.
	ConfigPath string
	// EnvFile is the .env file; a missing file is ignored and "-" disables it.
	EnvFile string
	// Environ is the process environment in KEY=VALUE form.
	Environ []string
}

// Load merges defaults, the YAML file, the .env file and the environment, in that order.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.ConfigPath != "" {
		if err := mergeFile(&cfg, opts.ConfigPath); err != nil {
			return Config{}, err
		}
	}

	env, err := loadDotEnv(opts.EnvFile)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read env file: %w", err)
	}

	for k, v := range ParseEnvironment(opts.Environ) {
		env[k] = v
	}

	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}

	if cfg.Token == "" {
		cfg.Token, _ = auth.TokenForHost(cfg.Host)
	}

	return cfg, nil
}

// LoadFrom parses the YAML file at path over the defaults.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if err := mergeFile(&cfg, path); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version: %d (expected 1)", cfg.Version)
	}

	return nil
}

// Path returns the default config file location under repoRoot.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, ConfigFilename)
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" || path == "-" {
		return make(map[string]string), nil
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}

	if err != nil {
		return nil, err
	}
	defer file.Close()

	return envparse.Parse(file)
}

// ParseEnvironment converts KEY=VALUE pairs into a map.
func ParseEnvironment(environ []string) map[string]string {
	items := make(map[string]string, len(environ))

	for _, item := range environ {
		key, val, _ := strings.Cut(item, "=")
		if key == "" {
			continue
		}

		items[key] = val
	}

	return items
}

func applyEnv(cfg *Config, env map[string]string) error {
	setString(&cfg.Wait.CommitSHA, env[EnvCommitSHA])
	setString(&cfg.Wait.Workflow, env[EnvWorkflowName])
	setString(&cfg.Repository, env[EnvRepository])
	setString(&cfg.Host, env[EnvHost])
	setString(&cfg.LogLevel, env[EnvLogLevel])
	setString(&cfg.Register.APIKey, env[EnvRegistryAPIKey])
	setString(&cfg.Register.URL, env[EnvRegistryURL])

	setString(&cfg.Token, env[EnvGitHubToken])
	setString(&cfg.Token, env[EnvGHToken])

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvTimeout, &cfg.Wait.Timeout},
		{EnvPollInterval, &cfg.Wait.PollInterval},
		{EnvGraceDelay, &cfg.Wait.GraceDelay},
	}

	for _, d := range durations {
		raw := env[d.key]
		if raw == "" {
			continue
		}

		parsed, err := ParseDuration(raw)
		if err != nil {
			return &cierr.ConfigError{Field: d.key, Err: err}
		}

		*d.dst = parsed
	}

	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// ParseDuration accepts Go duration syntax or a bare number of seconds.
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)

	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	return time.ParseDuration(raw)
}

// ValidateWait checks the settings wait-for-run needs.
func (c Config) ValidateWait() error {
	if c.Wait.CommitSHA == "" {
		return &cierr.ConfigError{Field: "commit sha", Err: fmt.Errorf("set --sha or %s", EnvCommitSHA)}
	}

	if c.Wait.Workflow == "" {
		return &cierr.ConfigError{Field: "workflow", Err: errors.New("must not be empty")}
	}

	if !strings.Contains(c.Repository, "/") {
		return &cierr.ConfigError{Field: "repository", Err: fmt.Errorf("%q is not in owner/repo format", c.Repository)}
	}

	if c.Wait.Timeout <= 0 {
		return &cierr.ConfigError{Field: "timeout", Err: errors.New("must be positive")}
	}

	if c.Wait.PollInterval <= 0 {
		return &cierr.ConfigError{Field: "poll interval", Err: errors.New("must be positive")}
	}

	if c.Wait.GraceDelay < 0 {
		return &cierr.ConfigError{Field: "grace delay", Err: errors.New("must not be negative")}
	}

	if c.Token == "" {
		return &cierr.ConfigError{Field: "token", Err: fmt.Errorf("set %s or %s, or run gh auth login", EnvGHToken, EnvGitHubToken)}
	}

	return nil
}

// ValidateRegister checks the settings register-dev-tag needs. The API key is
// only required when the registration is actually sent.
func (c Config) ValidateRegister(send bool) error {
	if send && c.Register.APIKey == "" {
		return &cierr.ConfigError{Field: "api key", Err: fmt.Errorf("set %s", EnvRegistryAPIKey)}
	}

	if c.Register.URL == "" {
		return &cierr.ConfigError{Field: "registry url", Err: errors.New("must not be empty")}
	}

	files := map[string]string{
		"build file":             c.Register.BuildFile,
		"plugin interfaces file": c.Register.PluginInterfacesFile,
		"driver interfaces file": c.Register.DriverInterfacesFile,
	}

	for field, path := range files {
		if path == "" {
			return &cierr.ConfigError{Field: field, Err: errors.New("must not be empty")}
		}
	}

	return nil
}

// WaiterOptions returns the timing settings as waiter options.
func (c Config) WaiterOptions() waiter.Options {
	return waiter.Options{
		GraceDelay:   c.Wait.GraceDelay,
		PollInterval: c.Wait.PollInterval,
		Timeout:      c.Wait.Timeout,
	}
}

// Query returns the run query described by the configuration.
func (c Config) Query() waiter.RunQuery {
	return waiter.RunQuery{
		Repository:   c.Repository,
		CommitSHA:    c.Wait.CommitSHA,
		WorkflowName: c.Wait.Workflow,
	}
}

// ReleaseSources returns the files a registration is read from.
func (c Config) ReleaseSources() release.Sources {
	return release.Sources{
		BuildFile:            c.Register.BuildFile,
		PluginInterfacesFile: c.Register.PluginInterfacesFile,
		DriverInterfacesFile: c.Register.DriverInterfacesFile,
	}
}
