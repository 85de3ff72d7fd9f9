package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilRegistry is returned when a model is built without a schema.
	ErrNilRegistry = errors.New("dataset: nil registry")
	// ErrShape is the sentinel wrapped by every ShapeError.
	ErrShape = errors.New("dataset: index arity mismatch")
	// ErrDuplicateIndex is the sentinel wrapped by every DuplicateIndexError.
	ErrDuplicateIndex = errors.New("dataset: duplicate index tuple")
	// ErrUnknownEntity is returned for names missing from the schema.
	ErrUnknownEntity = errors.New("dataset: unknown entity")
	// ErrWrongKind is returned when a set is used as a table or vice versa.
	ErrWrongKind = errors.New("dataset: wrong entity kind")
	// ErrInvalidMember is returned when an integer set receives a non-integer member.
	ErrInvalidMember = errors.New("dataset: invalid set member")
)

// ShapeError reports an index tuple whose arity differs from the schema.
type ShapeError struct {
	Entity string
	Want   int
	Got    int
	Tuple  []string
}

func (e *ShapeError) Error() string {
	if e.Tuple == nil {
		return fmt.Sprintf("dataset: %s: expected %d indices, got %d", e.Entity, e.Want, e.Got)
	}
	return fmt.Sprintf("dataset: %s: expected %d indices, got %d in (%s)", e.Entity, e.Want, e.Got, strings.Join(e.Tuple, ","))
}

// Unwrap exposes ErrShape to errors.Is.
func (e *ShapeError) Unwrap() error {
	return ErrShape
}

// DuplicateIndexError reports one tuple given two different values.
type DuplicateIndexError struct {
	Entity   string
	Tuple    []string
	Existing float64
	Value    float64
}

func (e *DuplicateIndexError) Error() string {
	return fmt.Sprintf("dataset: %s: index (%s) already holds %v, got %v", e.Entity, strings.Join(e.Tuple, ","), e.Existing, e.Value)
}

// Unwrap exposes ErrDuplicateIndex to errors.Is.
func (e *DuplicateIndexError) Unwrap() error {
	return ErrDuplicateIndex
}
