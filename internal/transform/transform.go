// Package transform converts track parameters between the bound (surface
// local) and free (global) parameterizations.
package transform

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/params"
)

// ErrNotOnSurface indicates a global position that does not lie on the
// requested surface.
var ErrNotOnSurface = errors.New("transform: position not on surface")

// Phi returns the azimuthal angle of dir.
func Phi(dir r3.Vec) float64 { return math.Atan2(dir.Y, dir.X) }

// Theta returns the polar angle of dir.
func Theta(dir r3.Vec) float64 { return math.Atan2(math.Hypot(dir.X, dir.Y), dir.Z) }

// DirectionFromAngles returns the unit vector with angles phi and theta.
func DirectionFromAngles(phi, theta float64) r3.Vec {
	sinPhi, cosPhi := math.Sincos(phi)
	sinTheta, cosTheta := math.Sincos(theta)
	return r3.Vec{X: cosPhi * sinTheta, Y: sinPhi * sinTheta, Z: cosTheta}
}

// BoundToFree places the bound parameters on surface in global coordinates.
// Time and q/p are copied.
func BoundToFree(gctx geom.GeometryContext, bound params.BoundVector, surface geom.Surface) params.FreeVector {
	dir := DirectionFromAngles(bound[params.BoundPhi], bound[params.BoundTheta])
	pos := surface.LocalToGlobal(gctx, r2.Vec{X: bound[params.BoundLoc0], Y: bound[params.BoundLoc1]}, dir)
	return params.NewFreeVector(pos, bound[params.BoundTime], dir, bound[params.BoundQOverP])
}

// FreeToBound projects free parameters onto surface.
func FreeToBound(gctx geom.GeometryContext, free params.FreeVector, surface geom.Surface) (params.BoundVector, error) {
	dir := free.Direction()
	loc, ok := surface.GlobalToLocal(gctx, free.Position(), dir)
	if !ok {
		return params.BoundVector{}, ErrNotOnSurface
	}
	return params.BoundVector{
		loc.X,
		loc.Y,
		Phi(dir),
		Theta(dir),
		free.QOverP(),
		free.Time(),
	}, nil
}

// CurvilinearSurface returns the plane through pos perpendicular to dir.
func CurvilinearSurface(pos, dir r3.Vec) *geom.PlaneSurface {
	return geom.NewPlaneSurface(pos, dir)
}

// FreeToCurvilinear is FreeToBound on the curvilinear surface of free. The
// local coordinates are zero by construction.
func FreeToCurvilinear(free params.FreeVector) params.BoundVector {
	dir := free.Direction()
	return params.BoundVector{0, 0, Phi(dir), Theta(dir), free.QOverP(), free.Time()}
}
