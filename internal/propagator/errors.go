package propagator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOptions indicates options that cannot drive a propagation.
	ErrInvalidOptions = errors.New("propagator: invalid options")

	ErrCanceled = errors.New("propagator: propagation canceled")
)

// PropagationError wraps a failure with the step at which it happened.
type PropagationError struct {
	Step    int
	Path    float64
	Wrapped error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagator: step %d at path %.4g: %v", e.Step, e.Path, e.Wrapped)
}

func (e *PropagationError) Unwrap() error {
	return e.Wrapped
}
