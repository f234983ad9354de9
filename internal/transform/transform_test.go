package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/params"
)

func TestAngles(t *testing.T) {
	tests := []struct {
		name       string
		dir        r3.Vec
		phi, theta float64
	}{
		{"x", r3.Vec{X: 1}, 0, math.Pi / 2},
		{"-y", r3.Vec{Y: -1}, -math.Pi / 2, math.Pi / 2},
		{"z", r3.Vec{Z: 1}, 0, 0},
		{"-z", r3.Vec{Z: -1}, 0, math.Pi},
		{"diag", r3.Unit(r3.Vec{X: 1, Y: 1, Z: math.Sqrt2}), math.Pi / 4, math.Pi / 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.phi, Phi(tt.dir), 1e-12)
			assert.InDelta(t, tt.theta, Theta(tt.dir), 1e-12)

			back := DirectionFromAngles(tt.phi, tt.theta)
			assert.InDelta(t, tt.dir.X, back.X, 1e-12)
			assert.InDelta(t, tt.dir.Y, back.Y, 1e-12)
			assert.InDelta(t, tt.dir.Z, back.Z, 1e-12)
		})
	}
}

func TestBoundFreeRoundTrip(t *testing.T) {
	gctx := geom.GeometryContext{}
	surfaces := []geom.Surface{
		geom.NewPlaneSurface(r3.Vec{}, r3.Vec{X: 1}),
		geom.NewPlaneSurface(r3.Vec{X: 3, Y: -2, Z: 7}, r3.Vec{X: 0.3, Y: 0.3, Z: 1}),
		geom.NewPlaneSurface(r3.Vec{Z: 100}, r3.Vec{Z: -1}),
	}
	bounds := []params.BoundVector{
		{0, 0, 0.1, 1.2, -0.5, 0},
		{12.5, -3.25, -2.9, 0.3, 0.01, 42},
		{-1e3, 1e3, 3.1, 2.8, 1 / 7.0, -1},
	}

	for _, s := range surfaces {
		for _, b := range bounds {
			free := BoundToFree(gctx, b, s)
			assert.InDelta(t, 1, r3.Norm(free.Direction()), 1e-12)

			got, err := FreeToBound(gctx, free, s)
			require.NoError(t, err)
			for i := range b {
				assert.InDelta(t, b[i], got[i], 1e-6, "index %s", params.BoundIndex(i))
			}
		}
	}
}

func TestFreeToBoundOffSurface(t *testing.T) {
	s := geom.NewPlaneSurface(r3.Vec{}, r3.Vec{Z: 1})
	free := params.NewFreeVector(r3.Vec{Z: 1}, 0, r3.Vec{Z: 1}, 1)
	_, err := FreeToBound(geom.GeometryContext{}, free, s)
	assert.ErrorIs(t, err, ErrNotOnSurface)
}

func TestFreeToCurvilinear(t *testing.T) {
	pos := r3.Vec{X: 1, Y: 2, Z: 3}
	dir := r3.Unit(r3.Vec{X: 4, Y: 5, Z: 6})
	free := params.NewFreeVector(pos, 7, dir, -0.1)

	cs := CurvilinearSurface(pos, dir)
	want, err := FreeToBound(geom.GeometryContext{}, free, cs)
	require.NoError(t, err)

	got := FreeToCurvilinear(free)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}
}
