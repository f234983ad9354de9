package params

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPolicyApply(t *testing.T) {
	phi := BoundPhi.Policy()
	theta := BoundTheta.Policy()

	tests := []struct {
		name   string
		policy Policy
		in     float64
		want   float64
	}{
		{"phi in range", phi, 1.0, 1.0},
		{"phi at max", phi, math.Pi, math.Pi},
		{"phi at min wraps", phi, -math.Pi, math.Pi},
		{"phi above", phi, math.Pi + 0.5, -math.Pi + 0.5},
		{"phi far below", phi, -5 * math.Pi / 2, -math.Pi / 2},
		{"theta clamp high", theta, 4, math.Pi},
		{"theta clamp low", theta, -1, 0},
		{"unbounded", BoundLoc0.Policy(), -1e9, -1e9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.policy.Apply(tt.in), 1e-12)
		})
	}
}

func TestPolicyDifferenceCyclic(t *testing.T) {
	p := BoundPhi.Policy()
	d := p.Difference(math.Pi-0.1, -math.Pi+0.1)
	assert.InDelta(t, -0.2, d, 1e-12)

	d = p.Difference(-math.Pi+0.1, math.Pi-0.1)
	assert.InDelta(t, 0.2, d, 1e-12)

	assert.InDelta(t, 0.5, BoundLoc1.Policy().Difference(1.5, 1), 1e-12)
}

func TestNewParameterSetErrors(t *testing.T) {
	_, err := NewParameterSet[BoundIndex](nil, nil)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NewParameterSet(nil, []BoundIndex{BoundLoc0, BoundLoc1}, 1.0)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = NewParameterSet(nil, []BoundIndex{BoundLoc0, BoundLoc0}, 1, 2)
	require.ErrorIs(t, err, ErrDuplicateParameter)

	_, err = NewParameterSet(nil, []BoundIndex{BoundIndex(9)}, 1)
	require.ErrorIs(t, err, ErrUnknownParameter)

	_, err = NewParameterSet(mat.NewSymDense(3, nil), []BoundIndex{BoundLoc0, BoundLoc1}, 1, 2)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestParameterSetAccessors(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{4, 0, 0, 9})
	s, err := NewParameterSet(cov, []BoundIndex{BoundLoc1, BoundPhi}, 0.5, 4.0)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Size())
	assert.True(t, s.Contains(BoundPhi))
	assert.False(t, s.Contains(BoundTheta))

	v, ok := s.Parameter(BoundLoc1)
	require.True(t, ok)
	assert.Equal(t, 0.5, v)

	// phi is wrapped on construction
	v, _ = s.Parameter(BoundPhi)
	assert.InDelta(t, 4.0-2*math.Pi, v, 1e-12)

	_, ok = s.Parameter(BoundTime)
	assert.False(t, ok)

	sigma, ok := s.Uncertainty(BoundPhi)
	require.True(t, ok)
	assert.Equal(t, 3.0, sigma)

	require.NoError(t, s.SetParameter(BoundLoc1, -2))
	v, _ = s.Parameter(BoundLoc1)
	assert.Equal(t, -2.0, v)
	require.ErrorIs(t, s.SetParameter(BoundQOverP, 1), ErrMissingParameter)

	// covariance is copied
	cov.SetSym(0, 0, 100)
	assert.Equal(t, 4.0, s.Covariance().At(0, 0))

	require.NoError(t, s.SetCovariance(nil))
	_, ok = s.Uncertainty(BoundLoc1)
	assert.False(t, ok)
}

func TestParameterSetProjector(t *testing.T) {
	s, err := NewParameterSet(nil, []BoundIndex{BoundTheta, BoundLoc0}, 1, 2)
	require.NoError(t, err)

	p := s.Projector()
	r, c := p.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, BoundSize, c)

	full := BoundVector{10, 11, 12, 13, 14, 15}
	var got mat.VecDense
	got.MulVec(p, full.Vec())
	assert.Equal(t, []float64{13, 10}, got.RawVector().Data)
}

func TestParameterSetResidual(t *testing.T) {
	meas, err := NewParameterSet(nil, []BoundIndex{BoundLoc0, BoundPhi}, 1.0, math.Pi-0.05)
	require.NoError(t, err)

	full, err := NewBoundSet(nil, BoundVector{0.25, 7, -math.Pi + 0.05, 1, 0.1, 0})
	require.NoError(t, err)

	r, err := meas.Residual(full)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, r.AtVec(0), 1e-12)
	assert.InDelta(t, -0.1, r.AtVec(1), 1e-12)

	partial, err := NewParameterSet(nil, []BoundIndex{BoundLoc0}, 0)
	require.NoError(t, err)
	_, err = meas.Residual(partial)
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestParameterSetCloneEqual(t *testing.T) {
	cov := mat.NewSymDense(FreeSize, nil)
	for i := 0; i < FreeSize; i++ {
		cov.SetSym(i, i, float64(i+1))
	}
	s, err := NewFreeSet(cov, FreeVector{1, 2, 3, 4, 0, 0, 1, -0.5})
	require.NoError(t, err)

	c := s.Clone()
	assert.True(t, s.Equal(c))

	require.NoError(t, c.SetParameter(FreeTime, 5))
	assert.False(t, s.Equal(c))
	v, _ := s.Parameter(FreeTime)
	assert.Equal(t, 4.0, v)

	c = s.Clone()
	c.Covariance().SetSym(0, 0, 42)
	assert.False(t, s.Equal(c))
	assert.False(t, s.Equal(nil))
}

func TestFreeVectorParts(t *testing.T) {
	v := FreeVector{1, 2, 3, 4, 0, 1, 0, -0.5}
	assert.Equal(t, 1.0, v.Position().X)
	assert.Equal(t, 1.0, v.Direction().Y)
	assert.Equal(t, 4.0, v.Time())
	assert.Equal(t, -0.5, v.QOverP())
	assert.Equal(t, v, NewFreeVector(v.Position(), v.Time(), v.Direction(), v.QOverP()))
	assert.Equal(t, v, FreeVectorFrom(v.Vec()))

	b := BoundVector{1, 2, 3, 1, 5, 6}
	assert.Equal(t, b, BoundVectorFrom(b.Vec()))
}

func TestIndexNames(t *testing.T) {
	assert.Equal(t, "phi", BoundPhi.String())
	assert.Equal(t, "qop", FreeQOverP.String())
	assert.Equal(t, "bound(7)", BoundIndex(7).String())
	assert.Len(t, AllBoundIndices(), BoundSize)
	assert.Len(t, AllFreeIndices(), FreeSize)
}
