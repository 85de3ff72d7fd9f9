package formats

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is the sentinel wrapped by every FormatError.
	ErrFormat = errors.New("formats: malformed input")
	// ErrSchemaMismatch is the sentinel wrapped by every SchemaMismatchError.
	ErrSchemaMismatch = errors.New("formats: entity not declared in schema")
	// ErrUnknownFormat is returned when no adapter is registered for a name.
	ErrUnknownFormat = errors.New("formats: unknown format")
	// ErrWriteOnly is returned when reading from a write-only format.
	ErrWriteOnly = errors.New("formats: format is write-only")
)

// FormatError reports a token that violates an entity's type or the grammar.
type FormatError struct {
	Entity   string
	Location string
	Token    string
	Reason   string
}

func (e *FormatError) Error() string {
	msg := "formats: "
	if e.Entity != "" {
		msg += e.Entity + ": "
	}
	if e.Location != "" {
		msg += e.Location + ": "
	}
	msg += e.Reason
	if e.Token != "" {
		msg += fmt.Sprintf(" (token %q)", e.Token)
	}
	return msg
}

// Unwrap exposes ErrFormat to errors.Is.
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// SchemaMismatchError reports source data for an entity the schema lacks.
type SchemaMismatchError struct {
	Entity string
	Source string
}

func (e *SchemaMismatchError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("formats: %s is not declared in the configuration", e.Entity)
	}
	return fmt.Sprintf("formats: %s (in %s) is not declared in the configuration", e.Entity, e.Source)
}

// Unwrap exposes ErrSchemaMismatch to errors.Is.
func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}
