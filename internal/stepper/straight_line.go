package stepper

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/covariance"
	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/track"
	"github.com/san-kum/trackprop/internal/transform"
)

// Unconstrained is the step size that imposes no user limit.
const Unconstrained = math.MaxFloat64

// Options carries the per-propagation settings the stepper needs.
type Options struct {
	// Mass of the particle in GeV.
	Mass float64
}

// StraightLineStepper propagates in the absence of a magnetic field.
type StraightLineStepper struct{}

func New() *StraightLineStepper { return &StraightLineStepper{} }

func (s *StraightLineStepper) Position(st *State) r3.Vec  { return st.Pos }
func (s *StraightLineStepper) Direction(st *State) r3.Vec { return st.Dir }
func (s *StraightLineStepper) Momentum(st *State) float64 { return st.P }
func (s *StraightLineStepper) Charge(st *State) float64   { return st.Q }
func (s *StraightLineStepper) Time(st *State) float64     { return st.T }

// OverstepLimit is the most negative path to a surface still accepted as
// reachable.
func (s *StraightLineStepper) OverstepLimit(st *State) float64 { return -st.Tolerance }

func (s *StraightLineStepper) OutputStepSize(st *State) string { return st.StepSize.String() }

// Step moves the state by the current step size and returns the signed
// length moved.
func (s *StraightLineStepper) Step(st *State, opts Options) (float64, error) {
	if err := st.validate(); err != nil {
		return 0, err
	}

	h := st.StepSize.Value()
	dtds := math.Hypot(1, opts.Mass/st.P)

	st.Pos = r3.Add(st.Pos, r3.Scale(h, st.Dir))
	st.T += h * dtds

	if st.CovTransport {
		d := covariance.Identity(params.FreeSize)
		for i := 0; i < 3; i++ {
			d.Set(int(params.FreePos0)+i, int(params.FreeDir0)+i, h)
		}
		d.Set(int(params.FreeTime), int(params.FreeQOverP), h*opts.Mass*opts.Mass*track.QOverP(st.Q, st.P)/(chargeScale(st.Q)*dtds))

		var jt mat.Dense
		jt.Mul(d, st.JacTransport)
		st.JacTransport.Copy(&jt)

		st.Derivative[params.FreePos0] = st.Dir.X
		st.Derivative[params.FreePos1] = st.Dir.Y
		st.Derivative[params.FreePos2] = st.Dir.Z
		st.Derivative[params.FreeTime] = dtds
	}

	st.PathAccumulated += h
	return h, nil
}

// chargeScale is q² for charged and 1 for neutral tracks, the factor
// relating q/p to 1/p².
func chargeScale(q float64) float64 {
	if q == 0 {
		return 1
	}
	return q * q
}

// Update overwrites the state from free parameters and a covariance. The
// direction is normalised. For a charged state the charge keeps its
// magnitude and takes the sign of q/p.
func (s *StraightLineStepper) Update(st *State, free params.FreeVector, cov *mat.SymDense) error {
	qop := free.QOverP()
	dir := free.Direction()
	n := r3.Norm(dir)
	if n == 0 || math.IsNaN(n) || qop == 0 || math.IsNaN(qop) || math.IsInf(qop, 0) {
		return fmt.Errorf("%w: dir %v q/p %g", ErrInvalidState, dir, qop)
	}

	st.Pos = free.Position()
	st.Dir = r3.Scale(1/n, dir)
	st.P = track.MomentumFromQOverP(st.Q, qop)
	st.Q = track.ChargeFromQOverP(st.Q, qop)
	st.T = free.Time()
	if cov == nil {
		st.Cov = nil
		return nil
	}
	if st.Cov == nil {
		st.Cov = mat.NewSymDense(params.BoundSize, nil)
	}
	st.Cov.CopySym(cov)
	return nil
}

// UpdatePosition sets the kinematics directly. The jacobians are not
// touched.
func (s *StraightLineStepper) UpdatePosition(st *State, pos, dir r3.Vec, p, t float64) error {
	if !(p > 0) || r3.Norm(dir) == 0 {
		return fmt.Errorf("%w: p %g dir %v", ErrInvalidState, p, dir)
	}
	st.Pos = pos
	st.Dir = r3.Unit(dir)
	st.P = p
	st.T = t
	return nil
}

// ResetState restarts the propagation from bound parameters on surface.
// The step size is used as given; pass Unconstrained for no limit. The
// previous step size and tolerance are kept.
func (s *StraightLineStepper) ResetState(st *State, bound params.BoundVector, cov *mat.SymDense, surface geom.Surface, navDir NavigationDirection, stepSize float64) error {
	free := transform.BoundToFree(st.GeoContext, bound, surface)
	if err := s.Update(st, free, cov); err != nil {
		return err
	}
	st.NavDir = navDir
	st.StepSize = NewConstrainedStep(stepSize)
	st.PathAccumulated = 0

	surface.InitJacobianToGlobal(st.GeoContext, st.JacToGlobal, st.Pos, st.Dir, bound)
	st.Jacobian.Copy(covariance.Identity(params.BoundSize))
	st.JacTransport.Copy(covariance.Identity(params.FreeSize))
	st.Derivative = params.FreeVector{}
	st.CovTransport = cov != nil
	return nil
}

// UpdateSurfaceStatus intersects the track with surface in the navigation
// direction and constrains the actor step size to reach it.
func (s *StraightLineStepper) UpdateSurfaceStatus(st *State, surface geom.Surface, bcheck geom.BoundaryCheck) geom.IntersectionStatus {
	dir := r3.Scale(float64(st.NavDir), st.Dir)
	is := surface.Intersect(st.GeoContext, st.Pos, dir, bcheck)

	switch is.Status {
	case geom.OnSurface:
		st.StepSize.Release(Actor)
		return geom.OnSurface
	case geom.Reachable:
		c := is.PathLength
		pLimit := st.StepSize.Limit(Aborter)
		if c > s.OverstepLimit(st) && c*c < pLimit*pLimit {
			s.SetStepSize(st, float64(st.NavDir)*c, Actor)
			return geom.Reachable
		}
	case geom.Missed:
		return geom.Missed
	}
	return geom.Unreachable
}

// UpdateStepSize constrains the actor step size to the path of is, which
// must have been computed along the navigation direction.
func (s *StraightLineStepper) UpdateStepSize(st *State, is geom.Intersection, release bool) {
	st.StepSize.Update(float64(st.NavDir)*is.PathLength, Actor, release)
}

// SetStepSize records the current step size as previous and replaces the
// limit for reason.
func (s *StraightLineStepper) SetStepSize(st *State, v float64, reason Constraint) {
	st.PreviousStepSize = st.StepSize.Value()
	st.StepSize.Update(v, reason, true)
}

// ReleaseStepSize drops the actor limit.
func (s *StraightLineStepper) ReleaseStepSize(st *State) {
	st.StepSize.Release(Actor)
}

// BoundState returns the parameters on the surface behind ref, the
// jacobian since the last transport and the accumulated path.
func (s *StraightLineStepper) BoundState(st *State, ref geom.SurfaceRef) (*track.BoundParameters, *mat.Dense, float64, error) {
	return covariance.BoundState(st.GeoContext, st.snapshot(), ref)
}

func (s *StraightLineStepper) CurvilinearState(st *State) (*track.CurvilinearParameters, *mat.Dense, float64, error) {
	return covariance.CurvilinearState(st.snapshot())
}

func (s *StraightLineStepper) CovarianceTransport(st *State) {
	covariance.Transport(st.snapshot())
}

func (s *StraightLineStepper) CovarianceTransportToSurface(st *State, surface geom.Surface) {
	covariance.TransportToSurface(st.GeoContext, st.snapshot(), surface)
}
