package track

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/params"
)

// Parameters is the common view of every track representation.
type Parameters interface {
	Position() r3.Vec
	Direction() r3.Vec
	Momentum() r3.Vec
	AbsoluteMomentum() float64
	Charge() float64
	Time() float64
	Transverse() float64
	Eta() float64
	Covariance() *mat.SymDense
}

// Bound is implemented by parameters expressed on a reference surface.
type Bound interface {
	Parameters
	BoundVector() params.BoundVector
	ReferenceSurface() (geom.Surface, error)
}

// QOverP returns the value stored in the QOverP slot for momentum p and
// charge q.
func QOverP(q, p float64) float64 {
	if q == 0 {
		return 1 / p
	}
	return q / p
}

// MomentumFromQOverP inverts QOverP. For charged tracks only the magnitude
// of q is used.
func MomentumFromQOverP(q, qop float64) float64 {
	if q == 0 {
		return math.Abs(1 / qop)
	}
	return math.Abs(q / qop)
}

// ChargeFromQOverP returns |q| with the sign of qop, or 0 for neutral
// tracks.
func ChargeFromQOverP(q, qop float64) float64 {
	if q == 0 {
		return 0
	}
	return math.Copysign(math.Abs(q), qop)
}

func checkMomentum(p float64) error {
	if !(p > 0) || math.IsInf(p, 0) {
		return fmt.Errorf("%w: %g", ErrZeroMomentum, p)
	}
	return nil
}

// kinematics carries the global quantities shared by all representations.
type kinematics struct {
	pos    r3.Vec
	dir    r3.Vec
	p      float64
	charge float64
	time   float64
}

func (k kinematics) Position() r3.Vec          { return k.pos }
func (k kinematics) Direction() r3.Vec         { return k.dir }
func (k kinematics) Momentum() r3.Vec          { return r3.Scale(k.p, k.dir) }
func (k kinematics) AbsoluteMomentum() float64 { return k.p }
func (k kinematics) Charge() float64           { return k.charge }
func (k kinematics) Time() float64             { return k.time }

// Transverse returns the momentum component perpendicular to z.
func (k kinematics) Transverse() float64 { return k.p * math.Hypot(k.dir.X, k.dir.Y) }

// Eta returns the pseudorapidity.
func (k kinematics) Eta() float64 { return math.Atanh(k.dir.Z) }

func (k kinematics) String() string {
	return fmt.Sprintf("pos=(%.4g, %.4g, %.4g) p=%.4g q=%g t=%.4g",
		k.pos.X, k.pos.Y, k.pos.Z, k.p, k.charge, k.time)
}
