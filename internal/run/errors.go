// internal/run/errors.go
//
// Error taxonomy for engine operations. Every failure is scoped to one
// operation on one run; callers dispatch with errors.Is.
package run

import "errors"

var (
	// ErrRunNotFound: unknown or evicted run id.
	ErrRunNotFound = errors.New("run not found")

	// ErrValidation: malformed guess, wrong selection arity, unknown
	// powerup/theme id. The run is left unchanged.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState: operation attempted while a choice is pending or
	// the run is lost. The run is left unchanged.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrCapacity: inventory full on choose-powerup. Reported distinctly
	// from a generic rejection so the caller can explain why.
	ErrCapacity = errors.New("inventory full")
)
