package geom

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/params"
)

// Surface is a reference surface for bound track parameters.
//
// Jacobian matrices are passed in by the caller and filled in place:
// InitJacobianToGlobal writes an 8x6 bound-to-free matrix and
// InitJacobianToLocal a 6x8 free-to-bound matrix.
type Surface interface {
	Name() string
	Center(gctx GeometryContext) r3.Vec
	Normal(gctx GeometryContext, pos r3.Vec) r3.Vec
	ReferenceFrame(gctx GeometryContext, pos, dir r3.Vec) Frame

	LocalToGlobal(gctx GeometryContext, loc r2.Vec, dir r3.Vec) r3.Vec
	// GlobalToLocal reports false when pos is off the surface by more than
	// OnSurfaceTolerance.
	GlobalToLocal(gctx GeometryContext, pos, dir r3.Vec) (r2.Vec, bool)
	InsideBounds(loc r2.Vec) bool

	Intersect(gctx GeometryContext, pos, dir r3.Vec, bcheck BoundaryCheck) Intersection

	InitJacobianToGlobal(gctx GeometryContext, jac *mat.Dense, pos, dir r3.Vec, bound params.BoundVector)
	InitJacobianToLocal(gctx GeometryContext, jac *mat.Dense, pos, dir r3.Vec) Frame
	// DerivativeFactors returns the path correction n·J[pos rows] / (n·dir)
	// for the 8x6 jacobian jac, one entry per bound parameter.
	DerivativeFactors(gctx GeometryContext, pos, dir r3.Vec, frame Frame, jac mat.Matrix) *mat.VecDense
}

// Volume is a region of the detector.
type Volume interface {
	Name() string
	Center() r3.Vec
	Inside(pos r3.Vec, tolerance float64) bool
}
