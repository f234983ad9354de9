package stepper

import (
	"fmt"
	"math"
	"strings"
)

// NavigationDirection is the sign of propagation along the track
// direction.
type NavigationDirection float64

const (
	Backward NavigationDirection = -1
	Forward  NavigationDirection = 1
)

func (d NavigationDirection) String() string {
	if d < 0 {
		return "backward"
	}
	return "forward"
}

// Constraint names the reason a step size limit was imposed.
type Constraint int

const (
	Accuracy Constraint = iota
	Actor
	Aborter
	User

	numConstraints
)

var constraintNames = [numConstraints]string{"accuracy", "actor", "aborter", "user"}

func (c Constraint) String() string {
	if c < 0 || c >= numConstraints {
		return fmt.Sprintf("constraint(%d)", int(c))
	}
	return constraintNames[c]
}

// ConstrainedStep is a step size made of independent limits, one per
// Constraint. The effective step is the most restrictive limit in the
// step direction. A released limit counts as unconstrained.
type ConstrainedStep struct {
	values    [numConstraints]float64
	active    [numConstraints]bool
	direction NavigationDirection
}

// NewConstrainedStep returns a step limited by the user to v. The sign of v
// sets the direction.
func NewConstrainedStep(v float64) ConstrainedStep {
	var c ConstrainedStep
	c.direction = directionOf(v)
	c.values[User] = v
	c.active[User] = true
	return c
}

func directionOf(v float64) NavigationDirection {
	if v < 0 {
		return Backward
	}
	return Forward
}

func (c ConstrainedStep) unconstrained() float64 {
	return float64(c.direction) * math.MaxFloat64
}

// Value returns the effective step size.
func (c ConstrainedStep) Value() float64 {
	v := c.unconstrained()
	for k := range c.values {
		if !c.active[k] {
			continue
		}
		if c.direction == Forward {
			v = math.Min(v, c.values[k])
		} else {
			v = math.Max(v, c.values[k])
		}
	}
	return v
}

// Limit returns the limit set for k, or the unconstrained value.
func (c ConstrainedStep) Limit(k Constraint) float64 {
	if !c.active[k] {
		return c.unconstrained()
	}
	return c.values[k]
}

func (c ConstrainedStep) Direction() NavigationDirection { return c.direction }

// Update tightens the limit for k to v. An existing limit of smaller
// magnitude is kept unless release is set, which drops it first.
func (c *ConstrainedStep) Update(v float64, k Constraint, release bool) {
	if release {
		c.Release(k)
	}
	if cur := c.Limit(k); math.Abs(cur) < math.Abs(v) {
		return
	}
	c.values[k] = v
	c.active[k] = true
}

func (c *ConstrainedStep) Release(k Constraint) {
	c.values[k] = 0
	c.active[k] = false
}

// Set overrides the accuracy limit and takes its sign as the direction.
func (c *ConstrainedStep) Set(v float64) {
	c.values[Accuracy] = v
	c.active[Accuracy] = true
	c.direction = directionOf(v)
}

func (c ConstrainedStep) String() string {
	var b strings.Builder
	b.WriteString("(")
	for k := Constraint(0); k < numConstraints; k++ {
		if k > 0 {
			b.WriteString(", ")
		}
		v := c.Limit(k)
		if math.Abs(v) == math.MaxFloat64 {
			if v > 0 {
				fmt.Fprintf(&b, "%5s", "+∞")
			} else {
				fmt.Fprintf(&b, "%5s", "-∞")
			}
			continue
		}
		fmt.Fprintf(&b, "%5g", v)
	}
	b.WriteString(" )")
	return b.String()
}
