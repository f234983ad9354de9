package stepper

import "errors"

var (
	// ErrInvalidState indicates zero or non-finite momentum, or a
	// direction that is not a unit vector.
	ErrInvalidState = errors.New("stepper: invalid state")

	// ErrNoReferenceSurface indicates start parameters with a covariance
	// whose reference surface cannot be resolved.
	ErrNoReferenceSurface = errors.New("stepper: reference surface unavailable")
)
