package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// CurvilinearProjTolerance is the |T·Z| above which the curvilinear frame is
// built from the x axis instead of the z axis.
const CurvilinearProjTolerance = 0.999995

var (
	unitX = r3.Vec{X: 1}
	unitZ = r3.Vec{Z: 1}
)

// Frame is a right-handed orthonormal basis. U and V span the surface, N is
// its normal.
type Frame struct {
	U, V, N r3.Vec
}

// ToLocal expresses the global vector v in the frame.
func (f Frame) ToLocal(v r3.Vec) r3.Vec {
	return r3.Vec{X: r3.Dot(v, f.U), Y: r3.Dot(v, f.V), Z: r3.Dot(v, f.N)}
}

// ToGlobal is the inverse of ToLocal.
func (f Frame) ToGlobal(l r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(l.X, f.U), r3.Scale(l.Y, f.V)), r3.Scale(l.Z, f.N))
}

// CurvilinearFrame builds the frame whose normal is dir. dir must be a unit
// vector.
func CurvilinearFrame(dir r3.Vec) Frame {
	var u r3.Vec
	if math.Abs(r3.Dot(dir, unitZ)) < CurvilinearProjTolerance {
		u = r3.Unit(r3.Cross(unitZ, dir))
	} else {
		u = r3.Unit(r3.Cross(unitX, dir))
	}
	return Frame{U: u, V: r3.Cross(dir, u), N: dir}
}
