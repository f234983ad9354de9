package params

import "errors"

var (
	// ErrDimensionMismatch indicates values, indices or covariance of different sizes.
	ErrDimensionMismatch = errors.New("params: dimension mismatch")

	// ErrUnknownParameter indicates an index outside the parameter space.
	ErrUnknownParameter = errors.New("params: unknown parameter index")

	// ErrDuplicateParameter indicates an index listed twice in one set.
	ErrDuplicateParameter = errors.New("params: duplicate parameter index")

	// ErrMissingParameter indicates a residual against a set lacking an index.
	ErrMissingParameter = errors.New("params: parameter not in set")
)
