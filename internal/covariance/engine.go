// Package covariance transports the covariance of track parameters along a
// propagation and builds bound or curvilinear states from a stepper.
//
// The transport uses the chain rule
//
//	J_full = J_toLocal · (J_transport · J_toGlobal - derivative ⊗ s)
//	C'     = J_full · C · J_fullᵀ
//
// where s corrects for the path length needed to reach the target surface.
package covariance

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/track"
	"github.com/san-kum/trackprop/internal/transform"
)

// Snapshot is a view on the transport data of a stepper state. Matrices and
// Derivative are shared with the state and updated in place.
type Snapshot struct {
	Parameters params.FreeVector
	Charge     float64

	// Cov is the 6x6 bound covariance, nil if unknown.
	Cov          *mat.SymDense
	Jacobian     *mat.Dense // 6x6
	JacTransport *mat.Dense // 8x8
	JacToGlobal  *mat.Dense // 8x6
	Derivative   *params.FreeVector

	CovTransport bool
	Path         float64
}

// Transport transports the covariance to the curvilinear frame at the
// current position.
func Transport(s Snapshot) {
	pos, dir := s.Parameters.Position(), s.Parameters.Direction()
	transportTo(geom.GeometryContext{}, s, transform.CurvilinearSurface(pos, dir))
}

// TransportToSurface transports the covariance to surface. The current
// position is expected to be on it.
func TransportToSurface(gctx geom.GeometryContext, s Snapshot, surface geom.Surface) {
	transportTo(gctx, s, surface)
}

func transportTo(gctx geom.GeometryContext, s Snapshot, surface geom.Surface) {
	pos, dir := s.Parameters.Position(), s.Parameters.Direction()

	var jtg mat.Dense
	jtg.Mul(s.JacTransport, s.JacToGlobal)

	toLocal := mat.NewDense(params.BoundSize, params.FreeSize, nil)
	frame := surface.InitJacobianToLocal(gctx, toLocal, pos, dir)
	sf := surface.DerivativeFactors(gctx, pos, dir, frame, &jtg)
	jtg.RankOne(&jtg, -1, s.Derivative.Vec(), sf)

	var full mat.Dense
	full.Mul(toLocal, &jtg)

	if s.Cov != nil {
		var c mat.Dense
		c.Product(&full, s.Cov, full.T())
		symmetrize(s.Cov, &c)
	}

	setIdentity(s.JacTransport)
	*s.Derivative = params.FreeVector{}
	surface.InitJacobianToGlobal(gctx, s.JacToGlobal, pos, dir, boundOn(gctx, s.Parameters, surface))
	s.Jacobian.Copy(&full)
}

// BoundState builds bound parameters on the surface behind ref. With
// covariance transport enabled the covariance is transported first and the
// returned parameters carry a copy of it. The jacobian is a copy of the
// state's and path is the accumulated path length.
func BoundState(gctx geom.GeometryContext, s Snapshot, ref geom.SurfaceRef) (*track.BoundParameters, *mat.Dense, float64, error) {
	surface, err := ref.Resolve()
	if err != nil {
		return nil, nil, 0, err
	}

	var cov *mat.SymDense
	if s.CovTransport {
		TransportToSurface(gctx, s, surface)
		cov = cloneSym(s.Cov)
	}

	bp, err := track.NewBoundParametersFromVector(gctx, cov, boundOn(gctx, s.Parameters, surface), s.Charge, ref)
	if err != nil {
		return nil, nil, 0, err
	}
	return bp, mat.DenseCopyOf(s.Jacobian), s.Path, nil
}

// CurvilinearState is BoundState on the curvilinear frame.
func CurvilinearState(s Snapshot) (*track.CurvilinearParameters, *mat.Dense, float64, error) {
	var cov *mat.SymDense
	if s.CovTransport {
		Transport(s)
		cov = cloneSym(s.Cov)
	}

	cp, err := track.NewCurvilinearParametersFromFree(cov, s.Parameters, s.Charge)
	if err != nil {
		return nil, nil, 0, err
	}
	return cp, mat.DenseCopyOf(s.Jacobian), s.Path, nil
}

// boundOn projects free onto surface without the on-surface check.
func boundOn(gctx geom.GeometryContext, free params.FreeVector, surface geom.Surface) params.BoundVector {
	dir := free.Direction()
	loc, _ := surface.GlobalToLocal(gctx, free.Position(), dir)
	return params.BoundVector{
		loc.X, loc.Y,
		transform.Phi(dir), transform.Theta(dir),
		free.QOverP(), free.Time(),
	}
}

