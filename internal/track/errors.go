package track

import "errors"

var (
	ErrZeroMomentum = errors.New("track: zero or non-finite momentum")

	// ErrZeroCharge indicates a charged constructor called with q = 0. Use the
	// neutral constructors instead.
	ErrZeroCharge = errors.New("track: zero charge for charged parameters")
)
