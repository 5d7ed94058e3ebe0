package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound      = errors.New("resource not found")
	ErrCurveNotFound = fmt.Errorf("%w: survival curve", ErrNotFound)

	// Validation errors
	ErrInvalidInput     = errors.New("invalid input")
	ErrNonNumericTime   = fmt.Errorf("%w: non-numeric time value", ErrInvalidInput)
	ErrNegativeTime     = fmt.Errorf("%w: negative time value", ErrInvalidInput)
	ErrMissingSubject   = fmt.Errorf("%w: missing subject ID", ErrInvalidInput)
	ErrInsufficientData = errors.New("insufficient data for estimation")

	// Estimation errors
	ErrConvergence = errors.New("weighting iteration failed to converge")
)

// Error constructors with context
func NewInvalidInputError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

func NewConvergenceError(iterations int, delta, tolerance float64) error {
	return fmt.Errorf("%w after %d iterations: |delta|=%g > tolerance=%g",
		ErrConvergence, iterations, delta, tolerance)
}

func NewCurveNotFoundError(id string) error {
	return fmt.Errorf("%w: id %s", ErrCurveNotFound, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsConvergenceError(err error) bool {
	return errors.Is(err, ErrConvergence)
}
