package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// CuboidVolume is an axis-aligned box.
type CuboidVolume struct {
	name   string
	center r3.Vec
	half   r3.Vec
}

func NewCuboidVolume(name string, center, halfLengths r3.Vec) (*CuboidVolume, error) {
	if !(halfLengths.X > 0 && halfLengths.Y > 0 && halfLengths.Z > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBounds, halfLengths)
	}
	return &CuboidVolume{name: name, center: center, half: halfLengths}, nil
}

func (c *CuboidVolume) Name() string        { return c.name }
func (c *CuboidVolume) Center() r3.Vec      { return c.center }
func (c *CuboidVolume) HalfLengths() r3.Vec { return c.half }

func (c *CuboidVolume) Inside(pos r3.Vec, tolerance float64) bool {
	d := r3.Sub(pos, c.center)
	return math.Abs(d.X) <= c.half.X+tolerance &&
		math.Abs(d.Y) <= c.half.Y+tolerance &&
		math.Abs(d.Z) <= c.half.Z+tolerance
}
