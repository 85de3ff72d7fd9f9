package results

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingDependency is the sentinel wrapped by MissingDependencyError.
	ErrMissingDependency = errors.New("results: missing dependency")
	// ErrUnknownVariant is returned when no variant is registered for a name.
	ErrUnknownVariant = errors.New("results: unknown variant")
	// ErrDims is returned when frame operands have incompatible dimensions.
	ErrDims = errors.New("results: incompatible dimensions")
)

// MissingDependencyError reports a step input that is neither declared,
// present, native to the variant nor derived earlier.
type MissingDependencyError struct {
	Variant    string
	Target     string
	Dependency string
	Reason     string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("results: variant %s cannot derive %s: %s %s", e.Variant, e.Target, e.Dependency, e.Reason)
}

// Unwrap exposes ErrMissingDependency to errors.Is.
func (e *MissingDependencyError) Unwrap() error {
	return ErrMissingDependency
}
