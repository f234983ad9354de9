package geom

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// GeometryContext selects a geometry condition, e.g. an alignment set.
// It is passed through unchanged.
type GeometryContext struct {
	Label string
}

// MagneticFieldContext selects a field condition. The straight-line stepper
// ignores it.
type MagneticFieldContext struct {
	Label string
}

// OnSurfaceTolerance is the distance below which a point counts as being on
// a surface.
const OnSurfaceTolerance = 1e-4

// IntersectionStatus classifies the result of a surface intersection.
type IntersectionStatus int

const (
	Missed IntersectionStatus = iota
	Unreachable
	Reachable
	OnSurface
)

func (s IntersectionStatus) String() string {
	switch s {
	case Missed:
		return "missed"
	case Unreachable:
		return "unreachable"
	case Reachable:
		return "reachable"
	case OnSurface:
		return "on-surface"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Intersection is the straight-line intersection of a track with a surface.
// PathLength is signed along the direction used for the intersection.
type Intersection struct {
	Position   r3.Vec
	PathLength float64
	Status     IntersectionStatus
}

// BoundaryCheck toggles whether an intersection outside the surface bounds
// counts as missed.
type BoundaryCheck bool
