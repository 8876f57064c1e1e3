package impactor

import (
	"errors"
	"fmt"
)

// Error taxonomy of the engine. Every error returned by this package wraps
// exactly one of these, so callers can use errors.Is.
var (
	// ErrInvalidInput is returned when an input lies outside its documented domain.
	ErrInvalidInput = errors.New("impactor: invalid input")

	// ErrNonConvergence is returned when the Kepler iteration cap is reached.
	ErrNonConvergence = errors.New("impactor: kepler iteration did not converge")

	// ErrDomain is returned when a log10 or sqrt operand would be non-positive.
	ErrDomain = errors.New("impactor: numeric domain error")

	// ErrNoOrientation is returned by the 3D extension when the elements carry no orientation.
	ErrNoOrientation = fmt.Errorf("%w: orbital elements have no orientation", ErrInvalidInput)
)

// InputError describes which field was rejected and why.
type InputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s=%g %s", ErrInvalidInput, e.Field, e.Value, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidInput).
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field string, value float64, reason string) error {
	return &InputError{Field: field, Value: value, Reason: reason}
}

// NonConvergenceError carries the best eccentric anomaly estimate found
// before the iteration cap was hit. Callers decide whether to use it.
type NonConvergenceError struct {
	MeanAnomaly  float64 // degrees
	Eccentricity float64
	Estimate     float64 // radians
	Iterations   int
	LastStep     float64 // |E_{n+1} - E_n| of the final iteration
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%s after %d iterations (M=%.6f° e=%.6f, E≈%.9f rad, last step %.3e)",
		ErrNonConvergence, e.Iterations, e.MeanAnomaly, e.Eccentricity, e.Estimate, e.LastStep)
}

// Unwrap allows errors.Is(err, ErrNonConvergence).
func (e *NonConvergenceError) Unwrap() error {
	return ErrNonConvergence
}

func domainErr(op string, operand float64) error {
	return fmt.Errorf("%w: %s of %g", ErrDomain, op, operand)
}
