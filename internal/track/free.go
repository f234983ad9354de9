package track

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/params"
)

// FreeParameters are global track parameters, optionally associated with a
// volume. A zero Volume means none.
type FreeParameters struct {
	kinematics
	set    *params.ParameterSet[params.FreeIndex]
	volume geom.VolumeID
}

var _ Parameters = (*FreeParameters)(nil)

// NewFreeParameters builds free parameters from v. The magnitude of charge
// is used with the sign of q/p; zero means neutral.
func NewFreeParameters(cov *mat.SymDense, v params.FreeVector, charge float64, volume geom.VolumeID) (*FreeParameters, error) {
	qop := v.QOverP()
	p := MomentumFromQOverP(charge, qop)
	if err := checkMomentum(p); err != nil {
		return nil, err
	}
	n := r3.Norm(v.Direction())
	if n == 0 || math.IsNaN(n) {
		return nil, ErrZeroMomentum
	}
	dir := r3.Scale(1/n, v.Direction())
	v[params.FreeDir0], v[params.FreeDir1], v[params.FreeDir2] = dir.X, dir.Y, dir.Z

	set, err := params.NewFreeSet(cov, v)
	if err != nil {
		return nil, err
	}
	return &FreeParameters{
		kinematics: kinematics{
			pos:    v.Position(),
			dir:    dir,
			p:      p,
			charge: ChargeFromQOverP(charge, qop),
			time:   v.Time(),
		},
		set:    set,
		volume: volume,
	}, nil
}

func (f *FreeParameters) FreeVector() params.FreeVector {
	return params.FreeVectorFrom(f.set.Parameters())
}

func (f *FreeParameters) Parameters() *mat.VecDense { return f.set.Parameters() }

func (f *FreeParameters) Set() *params.ParameterSet[params.FreeIndex] { return f.set }

func (f *FreeParameters) Covariance() *mat.SymDense { return f.set.Covariance() }

func (f *FreeParameters) Volume() geom.VolumeID { return f.volume }
