// Package release reads the version metadata registered for a build.
package release

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Default locations relative to the repository root.
const (
	DefaultBuildFile            = "build.gradle"
	DefaultPluginInterfacesFile = "pluginInterfaceSupported.json"
	DefaultDriverInterfacesFile = "coreDriverInterfaceSupported.json"
)

// DefaultPlanType is the plan a dev tag is registered under.
const DefaultPlanType = "FREE"

var versionPattern = regexp.MustCompile(`(?m)^\s*version\s*=\s*["']([^"']*)["']`)

// ErrNoVersion indicates the build file has no version assignment.
var ErrNoVersion = errors.New("no version assignment found")

// ParseVersion extracts the version from build descriptor content.
func ParseVersion(content string) (string, error) {
	match := versionPattern.FindStringSubmatch(content)
	if match == nil {
		return "", ErrNoVersion
	}

	version := strings.TrimSpace(match[1])
	if version == "" {
		return "", fmt.Errorf("empty version assignment: %w", ErrNoVersion)
	}

	return version, nil
}

// ReadVersion reads the version from the build descriptor at path.
func ReadVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read build file: %w", err)
	}

	version, err := ParseVersion(string(data))
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	return version, nil
}

// InterfaceVersions is the content of an interface support file.
type InterfaceVersions struct {
	Versions []string `json:"versions"`
}

// ReadInterfaceVersions reads the supported interface versions listed at path.
func ReadInterfaceVersions(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read interface file: %w", err)
	}

	var iv InterfaceVersions
	if err := json.Unmarshal(data, &iv); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(iv.Versions) == 0 {
		return nil, fmt.Errorf("%s lists no versions", path)
	}

	return iv.Versions, nil
}

// ReleaseTag is the tag a released version is published under.
func ReleaseTag(version string) string {
	return "v" + version
}

// DevTag is the tag a dev build of version is published under.
func DevTag(version string) string {
	return "dev-v" + version
}

// Registration is the payload sent to the version registry.
type Registration struct {
	Password             string   `json:"password"`
	PlanType             string   `json:"planType"`
	Version              string   `json:"version"`
	PluginInterfaces     []string `json:"pluginInterfaces"`
	CoreDriverInterfaces []string `json:"coreDriverInterfaces"`
}

// Sources lists the files a Registration is assembled from.
type Sources struct {
	BuildFile            string
	PluginInterfacesFile string
	DriverInterfacesFile string
}

// Load reads all sources and assembles a Registration.
func Load(src Sources, apiKey, planType string) (*Registration, error) {
	version, err := ReadVersion(src.BuildFile)
	if err != nil {
		return nil, err
	}

	plugins, err := ReadInterfaceVersions(src.PluginInterfacesFile)
	if err != nil {
		return nil, err
	}

	drivers, err := ReadInterfaceVersions(src.DriverInterfacesFile)
	if err != nil {
		return nil, err
	}

	if planType == "" {
		planType = DefaultPlanType
	}

	return &Registration{
		Password:             apiKey,
		PlanType:             planType,
		Version:              version,
		PluginInterfaces:     plugins,
		CoreDriverInterfaces: drivers,
	}, nil
}

// Redacted returns a copy safe to print.
func (r Registration) Redacted() Registration {
	if r.Password != "" {
		r.Password = "********"
	}

	return r
}
