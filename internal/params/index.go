package params

import (
	"fmt"
	"math"
)

// PolicyKind selects how a parameter value is kept in range.
type PolicyKind int

const (
	Unbounded PolicyKind = iota
	Bounded
	Cyclic
)

// Policy describes the valid range of a single parameter.
type Policy struct {
	Kind     PolicyKind
	Min, Max float64
}

// Apply maps v into the policy range. Bounded values are clamped, cyclic
// values are wrapped into (Min, Max].
func (p Policy) Apply(v float64) float64 {
	switch p.Kind {
	case Bounded:
		return math.Min(math.Max(v, p.Min), p.Max)
	case Cyclic:
		if v > p.Min && v <= p.Max {
			return v
		}
		period := p.Max - p.Min
		w := v - period*math.Floor((v-p.Min)/period)
		if w <= p.Min {
			w += period
		}
		return w
	default:
		return v
	}
}

// Difference returns a - b after applying the policy to both. For cyclic
// parameters the result is the shortest signed distance.
func (p Policy) Difference(a, b float64) float64 {
	d := p.Apply(a) - p.Apply(b)
	if p.Kind != Cyclic {
		return d
	}
	half := (p.Max - p.Min) / 2
	if d < -half {
		d += 2 * half
	} else if d > half {
		d -= 2 * half
	}
	return d
}

// Index is implemented by the index types of every parameterization.
type Index interface {
	~int
	// Space is the size of the full parameter space.
	Space() int
	Policy() Policy
	String() string
}

// BoundIndex enumerates surface-local parameters.
type BoundIndex int

const (
	BoundLoc0 BoundIndex = iota
	BoundLoc1
	BoundPhi
	BoundTheta
	BoundQOverP
	BoundTime
)

// BoundSize is the number of bound parameters.
const BoundSize = 6

var boundNames = [BoundSize]string{"loc0", "loc1", "phi", "theta", "qop", "t"}

func (i BoundIndex) Space() int { return BoundSize }

func (i BoundIndex) Policy() Policy {
	switch i {
	case BoundPhi:
		return Policy{Kind: Cyclic, Min: -math.Pi, Max: math.Pi}
	case BoundTheta:
		return Policy{Kind: Bounded, Min: 0, Max: math.Pi}
	}
	return Policy{}
}

func (i BoundIndex) String() string {
	if i < 0 || int(i) >= BoundSize {
		return fmt.Sprintf("bound(%d)", int(i))
	}
	return boundNames[i]
}

// FreeIndex enumerates global parameters.
type FreeIndex int

const (
	FreePos0 FreeIndex = iota
	FreePos1
	FreePos2
	FreeTime
	FreeDir0
	FreeDir1
	FreeDir2
	FreeQOverP
)

// FreeSize is the number of free parameters.
const FreeSize = 8

var freeNames = [FreeSize]string{"x", "y", "z", "t", "dx", "dy", "dz", "qop"}

func (i FreeIndex) Space() int { return FreeSize }

func (i FreeIndex) Policy() Policy { return Policy{} }

func (i FreeIndex) String() string {
	if i < 0 || int(i) >= FreeSize {
		return fmt.Sprintf("free(%d)", int(i))
	}
	return freeNames[i]
}

// AllBoundIndices returns the bound indices in canonical order.
func AllBoundIndices() []BoundIndex {
	return []BoundIndex{BoundLoc0, BoundLoc1, BoundPhi, BoundTheta, BoundQOverP, BoundTime}
}

// AllFreeIndices returns the free indices in canonical order.
func AllFreeIndices() []FreeIndex {
	return []FreeIndex{FreePos0, FreePos1, FreePos2, FreeTime, FreeDir0, FreeDir1, FreeDir2, FreeQOverP}
}
