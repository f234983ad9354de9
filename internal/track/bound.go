package track

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/transform"
)

// BoundParameters are track parameters local to a reference surface. The
// surface is not owned, only referenced.
type BoundParameters struct {
	kinematics
	set *params.ParameterSet[params.BoundIndex]
	ref geom.SurfaceRef
}

var _ Bound = (*BoundParameters)(nil)

// NewBoundParameters expresses a charged track at pos with momentum mom on
// the surface behind ref. The position is kept as given; it is not checked
// to lie on the surface.
func NewBoundParameters(gctx geom.GeometryContext, cov *mat.SymDense, pos, mom r3.Vec, charge, time float64, ref geom.SurfaceRef) (*BoundParameters, error) {
	if charge == 0 {
		return nil, ErrZeroCharge
	}
	return newBound(gctx, cov, pos, mom, charge, time, ref)
}

// NewNeutralBoundParameters is NewBoundParameters for a neutral track.
func NewNeutralBoundParameters(gctx geom.GeometryContext, cov *mat.SymDense, pos, mom r3.Vec, time float64, ref geom.SurfaceRef) (*BoundParameters, error) {
	return newBound(gctx, cov, pos, mom, 0, time, ref)
}

func newBound(gctx geom.GeometryContext, cov *mat.SymDense, pos, mom r3.Vec, charge, time float64, ref geom.SurfaceRef) (*BoundParameters, error) {
	p := r3.Norm(mom)
	if err := checkMomentum(p); err != nil {
		return nil, err
	}
	surface, err := ref.Resolve()
	if err != nil {
		return nil, err
	}
	dir := r3.Scale(1/p, mom)
	loc, _ := surface.GlobalToLocal(gctx, pos, dir)

	v := params.BoundVector{
		loc.X, loc.Y,
		transform.Phi(dir), transform.Theta(dir),
		QOverP(charge, p), time,
	}
	set, err := params.NewBoundSet(cov, v)
	if err != nil {
		return nil, err
	}
	return &BoundParameters{
		kinematics: kinematics{pos: pos, dir: dir, p: p, charge: charge, time: time},
		set:        set,
		ref:        ref,
	}, nil
}

// NewBoundParametersFromVector builds parameters from a bound vector. The
// magnitude of charge is used with the sign of q/p. A zero charge means
// neutral.
func NewBoundParametersFromVector(gctx geom.GeometryContext, cov *mat.SymDense, v params.BoundVector, charge float64, ref geom.SurfaceRef) (*BoundParameters, error) {
	surface, err := ref.Resolve()
	if err != nil {
		return nil, err
	}
	qop := v[params.BoundQOverP]
	p := MomentumFromQOverP(charge, qop)
	if err := checkMomentum(p); err != nil {
		return nil, err
	}
	set, err := params.NewBoundSet(cov, v)
	if err != nil {
		return nil, err
	}
	free := transform.BoundToFree(gctx, params.BoundVectorFrom(set.Parameters()), surface)
	return &BoundParameters{
		kinematics: kinematics{
			pos:    free.Position(),
			dir:    free.Direction(),
			p:      p,
			charge: ChargeFromQOverP(charge, qop),
			time:   free.Time(),
		},
		set: set,
		ref: ref,
	}, nil
}

func (b *BoundParameters) BoundVector() params.BoundVector {
	return params.BoundVectorFrom(b.set.Parameters())
}

func (b *BoundParameters) Parameters() *mat.VecDense { return b.set.Parameters() }

// Set returns the underlying parameter set.
func (b *BoundParameters) Set() *params.ParameterSet[params.BoundIndex] { return b.set }

func (b *BoundParameters) Covariance() *mat.SymDense { return b.set.Covariance() }

func (b *BoundParameters) SurfaceRef() geom.SurfaceRef { return b.ref }

func (b *BoundParameters) ReferenceSurface() (geom.Surface, error) { return b.ref.Resolve() }

func (b *BoundParameters) Clone() *BoundParameters {
	c := *b
	c.set = b.set.Clone()
	return &c
}
