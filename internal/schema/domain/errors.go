package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is the sentinel wrapped by every ConfigError.
	ErrConfig = errors.New("schema: invalid configuration")
	// ErrUnknownEntity is returned when a name is not declared.
	ErrUnknownEntity = errors.New("schema: unknown entity")
	// ErrEmptyRegistry is returned when a registry has no entries.
	ErrEmptyRegistry = errors.New("schema: empty registry")
)

// ConfigError reports a malformed or inconsistent entity declaration.
type ConfigError struct {
	Entity string
	Reason string
	// Err is an optional sentinel naming the failure class.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("schema: %s", e.Reason)
	}
	return fmt.Sprintf("schema: %s: %s", e.Entity, e.Reason)
}

// Unwrap exposes ErrConfig, and Err when set, to errors.Is.
func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfig, e.Err}
	}
	return []error{ErrConfig}
}

func emptyRegistryError() error {
	return &ConfigError{Reason: "no entities declared", Err: ErrEmptyRegistry}
}

func configErrorf(entity, format string, args ...any) error {
	return &ConfigError{Entity: entity, Reason: fmt.Sprintf(format, args...)}
}
