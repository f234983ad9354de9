package params

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ParameterSet is an ordered subset of the parameters of one
// parameterization with an optional covariance. A nil covariance means the
// uncertainty is unknown.
type ParameterSet[I Index] struct {
	indices []I
	values  []float64
	cov     *mat.SymDense
}

// NewParameterSet builds a set over indices with one value per index, in the
// same order. The covariance is copied and may be nil.
func NewParameterSet[I Index](cov *mat.SymDense, indices []I, values ...float64) (*ParameterSet[I], error) {
	if len(indices) == 0 || len(indices) != len(values) {
		return nil, fmt.Errorf("%w: %d indices, %d values", ErrDimensionMismatch, len(indices), len(values))
	}

	seen := make(map[I]struct{}, len(indices))
	for _, idx := range indices {
		if int(idx) < 0 || int(idx) >= idx.Space() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownParameter, int(idx))
		}
		if _, dup := seen[idx]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParameter, idx)
		}
		seen[idx] = struct{}{}
	}

	s := &ParameterSet[I]{
		indices: append([]I(nil), indices...),
		values:  make([]float64, len(values)),
	}
	for k, v := range values {
		s.values[k] = indices[k].Policy().Apply(v)
	}
	if err := s.SetCovariance(cov); err != nil {
		return nil, err
	}
	return s, nil
}

// NewBoundSet builds the full bound set from v.
func NewBoundSet(cov *mat.SymDense, v BoundVector) (*ParameterSet[BoundIndex], error) {
	return NewParameterSet(cov, AllBoundIndices(), v[:]...)
}

// NewFreeSet builds the full free set from v.
func NewFreeSet(cov *mat.SymDense, v FreeVector) (*ParameterSet[FreeIndex], error) {
	return NewParameterSet(cov, AllFreeIndices(), v[:]...)
}

func (s *ParameterSet[I]) Size() int { return len(s.indices) }

// Indices returns a copy of the active indices in set order.
func (s *ParameterSet[I]) Indices() []I {
	return append([]I(nil), s.indices...)
}

func (s *ParameterSet[I]) position(idx I) int {
	for k, i := range s.indices {
		if i == idx {
			return k
		}
	}
	return -1
}

func (s *ParameterSet[I]) Contains(idx I) bool { return s.position(idx) >= 0 }

// Parameter returns the value of idx and whether idx is in the set.
func (s *ParameterSet[I]) Parameter(idx I) (float64, bool) {
	k := s.position(idx)
	if k < 0 {
		return 0, false
	}
	return s.values[k], true
}

// SetParameter overwrites the value of idx, applying its policy.
func (s *ParameterSet[I]) SetParameter(idx I, v float64) error {
	k := s.position(idx)
	if k < 0 {
		return fmt.Errorf("%w: %s", ErrMissingParameter, idx)
	}
	s.values[k] = idx.Policy().Apply(v)
	return nil
}

// Parameters returns the values as a new vector in set order.
func (s *ParameterSet[I]) Parameters() *mat.VecDense {
	return mat.NewVecDense(len(s.values), append([]float64(nil), s.values...))
}

// Values returns a copy of the raw values in set order.
func (s *ParameterSet[I]) Values() []float64 {
	return append([]float64(nil), s.values...)
}

// Uncertainty returns the standard deviation of idx. It reports false when
// idx is not in the set or no covariance is known.
func (s *ParameterSet[I]) Uncertainty(idx I) (float64, bool) {
	k := s.position(idx)
	if k < 0 || s.cov == nil {
		return 0, false
	}
	return math.Sqrt(s.cov.At(k, k)), true
}

// Covariance returns the covariance or nil. The returned matrix is shared.
func (s *ParameterSet[I]) Covariance() *mat.SymDense { return s.cov }

// SetCovariance replaces the covariance with a copy of cov. A nil cov
// clears it.
func (s *ParameterSet[I]) SetCovariance(cov *mat.SymDense) error {
	if cov == nil {
		s.cov = nil
		return nil
	}
	if n := cov.SymmetricDim(); n != len(s.indices) {
		return fmt.Errorf("%w: covariance %dx%d for %d parameters", ErrDimensionMismatch, n, n, len(s.indices))
	}
	c := mat.NewSymDense(len(s.indices), nil)
	c.CopySym(cov)
	s.cov = c
	return nil
}

// Projector maps the full parameter space onto this subset.
func (s *ParameterSet[I]) Projector() *mat.Dense {
	var zero I
	p := mat.NewDense(len(s.indices), zero.Space(), nil)
	for k, idx := range s.indices {
		p.Set(k, int(idx), 1)
	}
	return p
}

// Residual returns this set minus the matching values of other, in set
// order. Cyclic parameters are corrected to the shortest signed distance.
func (s *ParameterSet[I]) Residual(other *ParameterSet[I]) (*mat.VecDense, error) {
	r := mat.NewVecDense(len(s.indices), nil)
	for k, idx := range s.indices {
		v, ok := other.Parameter(idx)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingParameter, idx)
		}
		r.SetVec(k, idx.Policy().Difference(s.values[k], v))
	}
	return r, nil
}

// Equal reports whether both sets have the same indices, values and
// covariance.
func (s *ParameterSet[I]) Equal(other *ParameterSet[I]) bool {
	if other == nil || len(s.indices) != len(other.indices) {
		return false
	}
	for k := range s.indices {
		if s.indices[k] != other.indices[k] || s.values[k] != other.values[k] {
			return false
		}
	}
	if (s.cov == nil) != (other.cov == nil) {
		return false
	}
	return s.cov == nil || mat.Equal(s.cov, other.cov)
}

// Clone returns a deep copy.
func (s *ParameterSet[I]) Clone() *ParameterSet[I] {
	c := &ParameterSet[I]{
		indices: append([]I(nil), s.indices...),
		values:  append([]float64(nil), s.values...),
	}
	if s.cov != nil {
		c.cov = mat.NewSymDense(len(s.indices), nil)
		c.cov.CopySym(s.cov)
	}
	return c
}
