package solver

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDialect is returned when no parser is registered for a name.
	ErrUnknownDialect = errors.New("solver: unknown dialect")
	// ErrUnsorted is the sentinel wrapped by UnsortedInputError.
	ErrUnsorted = errors.New("solver: input is not sorted by variable")
	// ErrMissingYears is returned when CPLEX output is parsed without a YEAR horizon.
	ErrMissingYears = errors.New("solver: cplex output requires an input dataset with a YEAR set")
	// ErrModelFileRequired is returned when GLPK output is parsed without its model file.
	ErrModelFileRequired = errors.New("solver: glpk output requires the model file written with --wglp")
)

// UnsortedInputError reports a variable whose lines are not contiguous.
type UnsortedInputError struct {
	Variable  string
	Line      int
	FirstLine int
}

func (e *UnsortedInputError) Error() string {
	return fmt.Sprintf("solver: %s at line %d continues a block closed after line %d; sort the file first (for example `sort input.sol > sorted.sol`) or enable input sorting",
		e.Variable, e.Line, e.FirstLine)
}

// Unwrap exposes ErrUnsorted to errors.Is.
func (e *UnsortedInputError) Unwrap() error {
	return ErrUnsorted
}
