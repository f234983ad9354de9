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
)

// State is the mutable record of one propagation.
type State struct {
	Pos r3.Vec
	Dir r3.Vec
	P   float64
	Q   float64
	T   float64

	NavDir           NavigationDirection
	PathAccumulated  float64
	StepSize         ConstrainedStep
	PreviousStepSize float64
	Tolerance        float64

	Jacobian     *mat.Dense // 6x6 bound to bound
	JacTransport *mat.Dense // 8x8 free to free
	JacToGlobal  *mat.Dense // 8x6 bound to free
	Derivative   params.FreeVector
	CovTransport bool
	Cov          *mat.SymDense

	GeoContext   geom.GeometryContext
	FieldContext geom.MagneticFieldContext
}

// NewState prepares a state at start. The step size is applied in the
// navigation direction. If start has a covariance it is copied and
// covariance transport is switched on.
func NewState(gctx geom.GeometryContext, mctx geom.MagneticFieldContext, start track.Bound, navDir NavigationDirection, stepSize, tolerance float64) (*State, error) {
	st := &State{
		Pos:          start.Position(),
		Dir:          start.Direction(),
		P:            start.AbsoluteMomentum(),
		Q:            start.Charge(),
		T:            start.Time(),
		NavDir:       navDir,
		StepSize:     NewConstrainedStep(float64(navDir) * math.Abs(stepSize)),
		Tolerance:    tolerance,
		Jacobian:     covariance.Identity(params.BoundSize),
		JacTransport: covariance.Identity(params.FreeSize),
		JacToGlobal:  mat.NewDense(params.FreeSize, params.BoundSize, nil),
		GeoContext:   gctx,
		FieldContext: mctx,
	}
	if err := st.validate(); err != nil {
		return nil, err
	}

	if cov := start.Covariance(); cov != nil {
		surface, err := start.ReferenceSurface()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoReferenceSurface, err)
		}
		st.Cov = mat.NewSymDense(params.BoundSize, nil)
		st.Cov.CopySym(cov)
		st.CovTransport = true
		surface.InitJacobianToGlobal(gctx, st.JacToGlobal, st.Pos, st.Dir, start.BoundVector())
	}
	return st, nil
}

func (st *State) validate() error {
	if !(st.P > 0) || math.IsInf(st.P, 0) {
		return fmt.Errorf("%w: momentum %g", ErrInvalidState, st.P)
	}
	if n := r3.Norm(st.Dir); math.Abs(n-1) > 1e-6 {
		return fmt.Errorf("%w: direction norm %g", ErrInvalidState, n)
	}
	return nil
}

// FreeVector returns the current free parameters.
func (st *State) FreeVector() params.FreeVector {
	return params.NewFreeVector(st.Pos, st.T, st.Dir, track.QOverP(st.Q, st.P))
}

func (st *State) snapshot() covariance.Snapshot {
	return covariance.Snapshot{
		Parameters:   st.FreeVector(),
		Charge:       st.Q,
		Cov:          st.Cov,
		Jacobian:     st.Jacobian,
		JacTransport: st.JacTransport,
		JacToGlobal:  st.JacToGlobal,
		Derivative:   &st.Derivative,
		CovTransport: st.CovTransport,
		Path:         st.PathAccumulated,
	}
}

// Clone returns a deep copy. The clone shares nothing with st.
func (st *State) Clone() *State {
	c := *st
	c.Jacobian = mat.DenseCopyOf(st.Jacobian)
	c.JacTransport = mat.DenseCopyOf(st.JacTransport)
	c.JacToGlobal = mat.DenseCopyOf(st.JacToGlobal)
	if st.Cov != nil {
		c.Cov = mat.NewSymDense(params.BoundSize, nil)
		c.Cov.CopySym(st.Cov)
	}
	return &c
}
