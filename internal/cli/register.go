package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	cierr "github.com/kyleking/gh-ci-helpers/internal/errors"
	"github.com/kyleking/gh-ci-helpers/internal/git"
	"github.com/kyleking/gh-ci-helpers/internal/registry"
	"github.com/kyleking/gh-ci-helpers/internal/release"
	"github.com/kyleking/gh-ci-helpers/internal/ui"
)

type registerFlags struct {
	buildFile        string
	pluginInterfaces string
	driverInterfaces string
	registryURL      string
	skipTagCheck     bool
	dryRun           bool
}

func (a *app) newRegisterCmd() *cobra.Command {
	var f registerFlags

	cmd := &cobra.Command{
		Use:   "register-dev-tag",
		Short: "Register the build's version with the version registry",
		Long: `Reads the version from the build file and the supported plugin and
driver interface versions from their JSON files, checks that the version has
not been released yet, and registers it with the version registry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.applyRegisterFlags(cmd, f)
			return a.runRegister(cmd, f.dryRun)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.buildFile, "build-file", release.DefaultBuildFile, "Build descriptor holding the version")
	flags.StringVar(&f.pluginInterfaces, "plugin-interfaces", release.DefaultPluginInterfacesFile, "Supported plugin interface versions file")
	flags.StringVar(&f.driverInterfaces, "driver-interfaces", release.DefaultDriverInterfacesFile, "Supported driver interface versions file")
	flags.StringVar(&f.registryURL, "registry-url", registry.DefaultURL, "Registry endpoint")
	flags.BoolVar(&f.skipTagCheck, "skip-tag-check", false, "Do not check for an existing release tag")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Print the registration instead of sending it")

	return cmd
}

func (a *app) applyRegisterFlags(cmd *cobra.Command, f registerFlags) {
	flags := cmd.Flags()

	if flags.Changed("build-file") {
		a.cfg.Register.BuildFile = f.buildFile
	}

	if flags.Changed("plugin-interfaces") {
		a.cfg.Register.PluginInterfacesFile = f.pluginInterfaces
	}

	if flags.Changed("driver-interfaces") {
		a.cfg.Register.DriverInterfacesFile = f.driverInterfaces
	}

	if flags.Changed("registry-url") {
		a.cfg.Register.URL = f.registryURL
	}

	if f.skipTagCheck {
		a.cfg.Register.CheckTag = false
	}
}

func (a *app) runRegister(cmd *cobra.Command, dryRun bool) error {
	if err := a.cfg.ValidateRegister(!dryRun); err != nil {
		return err
	}

	reg, err := release.Load(a.cfg.ReleaseSources(), a.cfg.Register.APIKey, a.cfg.Register.PlanType)
	if err != nil {
		return err
	}

	a.logger.Info("read release metadata",
		"version", reg.Version,
		"plugin_interfaces", len(reg.PluginInterfaces),
		"driver_interfaces", len(reg.CoreDriverInterfaces))

	if a.cfg.Register.CheckTag {
		tag := release.ReleaseTag(reg.Version)

		exists, err := git.NewTags(a.deps.Executor).Exists(cmd.Context(), tag)
		if err != nil {
			return fmt.Errorf("failed to check release tag: %w", err)
		}

		if exists {
			return &cierr.TagExistsError{Tag: tag}
		}
	}

	if dryRun {
		data, err := json.MarshalIndent(reg.Redacted(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal registration: %w", err)
		}

		cmd.Println(string(data))

		return nil
	}

	options := []registry.Option{registry.WithLogger(a.logger)}
	if a.deps.HTTPClient != nil {
		options = append(options, registry.WithHTTPClient(a.deps.HTTPClient))
	}

	client := registry.NewClient(a.cfg.Register.URL, a.cfg.Register.APIVersion, options...)
	if err := client.Register(cmd.Context(), *reg); err != nil {
		return err
	}

	cmd.Println(ui.Success("registered %s as %s", reg.Version, release.DevTag(reg.Version)))

	return nil
}
