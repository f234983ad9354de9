package geom

import "errors"

var (
	ErrUnknownSurface = errors.New("geom: unknown surface id")
	ErrUnknownVolume  = errors.New("geom: unknown volume id")

	// ErrDegenerateNormal indicates a surface normal of zero length.
	ErrDegenerateNormal = errors.New("geom: degenerate surface normal")

	// ErrInvalidBounds indicates non-positive half lengths.
	ErrInvalidBounds = errors.New("geom: invalid bounds")
)
