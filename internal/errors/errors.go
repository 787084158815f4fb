// Package errors defines the failure taxonomy shared by the CI helper commands.
package errors

import (
	"errors"
	"fmt"
)

// Category names a failure class in the diagnostic printed before exiting.
type Category string

const (
	CategoryProvider  Category = "ProviderUnreachableOrErrorStatus"
	CategoryNotFound  Category = "RunNotFound"
	CategoryRunFailed Category = "RunFailed"
	CategoryTimeout   Category = "Timeout"
	CategoryRegistry  Category = "RegistryError"
	CategoryTagExists Category = "TagExists"
	CategoryConfig    Category = "ConfigError"
	CategoryAborted   Category = "Aborted"
	CategoryUnknown   Category = "Error"
)

// Categorized is implemented by every error in this package.
type Categorized interface {
	error
	Category() Category
}

// ProviderError represents a failed request against the CI provider API.
// StatusCode is zero when no response was received.
type ProviderError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: provider returned HTTP %d: %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Category() Category {
	return CategoryProvider
}

// RegistryError represents a failed version registration.
type RegistryError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *RegistryError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("registry %s: %v", e.URL, e.Err)
	case e.Body != "":
		return fmt.Sprintf("registry %s returned HTTP %d: %s", e.URL, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("registry %s returned HTTP %d", e.URL, e.StatusCode)
	}
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

func (e *RegistryError) Category() Category {
	return CategoryRegistry
}

// TagExistsError indicates the version was already released under Tag.
type TagExistsError struct {
	Tag string
}

func (e *TagExistsError) Error() string {
	return fmt.Sprintf("tag %s already exists, version was already released", e.Tag)
}

func (e *TagExistsError) Category() Category {
	return CategoryTagExists
}

// ConfigError indicates a missing or invalid setting.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Category() Category {
	return CategoryConfig
}

// CategoryOf returns the category of the first categorized error in the chain.
func CategoryOf(err error) Category {
	var c Categorized
	if errors.As(err, &c) {
		return c.Category()
	}
	return CategoryUnknown
}

// ExitCode maps a command result to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
