package export

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/propagator"
)

var axisNames = [3]string{"x", "y", "z"}

// Projection selects the global axes drawn horizontally and vertically.
type Projection struct {
	H, V int
}

func component(v r3.Vec, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

// ParseProjection parses a two letter axis pair such as "xy" or "zx".
func ParseProjection(s string) (Projection, error) {
	if len(s) != 2 || s[0] == s[1] {
		return Projection{}, fmt.Errorf("invalid projection %q", s)
	}
	var axes [2]int
	for k := 0; k < 2; k++ {
		switch s[k] {
		case 'x':
			axes[k] = 0
		case 'y':
			axes[k] = 1
		case 'z':
			axes[k] = 2
		default:
			return Projection{}, fmt.Errorf("invalid projection %q", s)
		}
	}
	return Projection{H: axes[0], V: axes[1]}, nil
}

// FitProjection picks the two axes with the largest spread, the larger one
// horizontal. Ties go to the lower axis.
func FitProjection(points []r3.Vec) Projection {
	var spans [3]float64
	for i := range spans {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, p := range points {
			c := component(p, i)
			lo, hi = math.Min(lo, c), math.Max(hi, c)
		}
		if hi > lo {
			spans[i] = hi - lo
		}
	}

	h := 0
	for i := 1; i < 3; i++ {
		if spans[i] > spans[h] {
			h = i
		}
	}
	v := -1
	for i := 0; i < 3; i++ {
		if i != h && (v < 0 || spans[i] > spans[v]) {
			v = i
		}
	}
	return Projection{H: h, V: v}
}

func (p Projection) String() string { return axisNames[p.H] + axisNames[p.V] }

func (p Projection) Apply(v r3.Vec) r2.Vec {
	return r2.Vec{X: component(v, p.H), Y: component(v, p.V)}
}

func (p Projection) ApplyAll(vs []r3.Vec) []r2.Vec {
	out := make([]r2.Vec, len(vs))
	for i, v := range vs {
		out[i] = p.Apply(v)
	}
	return out
}

// Positions extracts the sample positions.
func Positions(samples []propagator.Sample) []r3.Vec {
	out := make([]r3.Vec, len(samples))
	for i, s := range samples {
		out[i] = s.Position
	}
	return out
}
