package track

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/transform"
)

// CurvilinearParameters are bound parameters on the plane through the
// position perpendicular to the direction. loc0 and loc1 are always zero.
type CurvilinearParameters struct {
	kinematics
	set *params.ParameterSet[params.BoundIndex]
}

var _ Bound = (*CurvilinearParameters)(nil)

func NewCurvilinearParameters(cov *mat.SymDense, pos, mom r3.Vec, charge, time float64) (*CurvilinearParameters, error) {
	if charge == 0 {
		return nil, ErrZeroCharge
	}
	return newCurvilinear(cov, pos, mom, charge, time)
}

func NewNeutralCurvilinearParameters(cov *mat.SymDense, pos, mom r3.Vec, time float64) (*CurvilinearParameters, error) {
	return newCurvilinear(cov, pos, mom, 0, time)
}

func newCurvilinear(cov *mat.SymDense, pos, mom r3.Vec, charge, time float64) (*CurvilinearParameters, error) {
	p := r3.Norm(mom)
	if err := checkMomentum(p); err != nil {
		return nil, err
	}
	dir := r3.Scale(1/p, mom)
	free := params.NewFreeVector(pos, time, dir, QOverP(charge, p))
	set, err := params.NewBoundSet(cov, transform.FreeToCurvilinear(free))
	if err != nil {
		return nil, err
	}
	return &CurvilinearParameters{
		kinematics: kinematics{pos: pos, dir: dir, p: p, charge: charge, time: time},
		set:        set,
	}, nil
}

// NewCurvilinearParametersFromFree builds curvilinear parameters from a free
// vector. The magnitude of charge is used with the sign of q/p.
func NewCurvilinearParametersFromFree(cov *mat.SymDense, free params.FreeVector, charge float64) (*CurvilinearParameters, error) {
	qop := free.QOverP()
	p := MomentumFromQOverP(charge, qop)
	if err := checkMomentum(p); err != nil {
		return nil, err
	}
	q := ChargeFromQOverP(charge, qop)
	return newCurvilinear(cov, free.Position(), r3.Scale(p, r3.Unit(free.Direction())), q, free.Time())
}

func (c *CurvilinearParameters) BoundVector() params.BoundVector {
	return params.BoundVectorFrom(c.set.Parameters())
}

func (c *CurvilinearParameters) Parameters() *mat.VecDense { return c.set.Parameters() }

func (c *CurvilinearParameters) Set() *params.ParameterSet[params.BoundIndex] { return c.set }

func (c *CurvilinearParameters) Covariance() *mat.SymDense { return c.set.Covariance() }

// ReferenceSurface builds the curvilinear plane. It never fails.
func (c *CurvilinearParameters) ReferenceSurface() (geom.Surface, error) {
	return transform.CurvilinearSurface(c.pos, c.dir), nil
}

func (c *CurvilinearParameters) Clone() *CurvilinearParameters {
	n := *c
	n.set = c.set.Clone()
	return &n
}
