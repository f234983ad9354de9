package params

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// BoundVector is a full set of bound parameter values.
type BoundVector [BoundSize]float64

// FreeVector is a full set of free parameter values.
type FreeVector [FreeSize]float64

// Vec returns a copy of v as a gonum vector.
func (v BoundVector) Vec() *mat.VecDense {
	return mat.NewVecDense(BoundSize, v[:])
}

// Vec returns a copy of v as a gonum vector.
func (v FreeVector) Vec() *mat.VecDense {
	return mat.NewVecDense(FreeSize, v[:])
}

// BoundVectorFrom copies the first BoundSize elements of m.
func BoundVectorFrom(m mat.Vector) BoundVector {
	var v BoundVector
	for i := range v {
		v[i] = m.AtVec(i)
	}
	return v
}

// FreeVectorFrom copies the first FreeSize elements of m.
func FreeVectorFrom(m mat.Vector) FreeVector {
	var v FreeVector
	for i := range v {
		v[i] = m.AtVec(i)
	}
	return v
}

func (v FreeVector) Position() r3.Vec {
	return r3.Vec{X: v[FreePos0], Y: v[FreePos1], Z: v[FreePos2]}
}

func (v FreeVector) Direction() r3.Vec {
	return r3.Vec{X: v[FreeDir0], Y: v[FreeDir1], Z: v[FreeDir2]}
}

func (v FreeVector) Time() float64   { return v[FreeTime] }
func (v FreeVector) QOverP() float64 { return v[FreeQOverP] }

// NewFreeVector assembles a free vector from its parts.
func NewFreeVector(pos r3.Vec, t float64, dir r3.Vec, qop float64) FreeVector {
	return FreeVector{pos.X, pos.Y, pos.Z, t, dir.X, dir.Y, dir.Z, qop}
}
