package covariance

import "gonum.org/v1/gonum/mat"

func setIdentity(m *mat.Dense) {
	m.Zero()
	r, c := m.Dims()
	for i := 0; i < min(r, c); i++ {
		m.Set(i, i, 1)
	}
}

// Identity returns an n×n identity matrix.
func Identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	setIdentity(m)
	return m
}

// symmetrize writes (m + mᵀ)/2 into dst.
func symmetrize(dst *mat.SymDense, m mat.Matrix) {
	n := dst.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
}

func cloneSym(s *mat.SymDense) *mat.SymDense {
	if s == nil {
		return nil
	}
	c := mat.NewSymDense(s.SymmetricDim(), nil)
	c.CopySym(s)
	return c
}
