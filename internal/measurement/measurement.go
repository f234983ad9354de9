// Package measurement models detector measurements: a subset of track
// parameters with a covariance, the surface or volume it was taken on and
// a link back to the raw data.
package measurement

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/track"
)

var (
	ErrMissingCovariance = errors.New("measurement: covariance required")

	// ErrReferenceMismatch indicates a residual against parameters bound to
	// a different surface.
	ErrReferenceMismatch = errors.New("measurement: reference surface mismatch")
)

// Measurement is a measured parameter subset of parameterization I, taken
// on the reference object R, linked to source L.
type Measurement[I params.Index, R ~uint64, L comparable] struct {
	set  *params.ParameterSet[I]
	ref  R
	link L
}

// New builds a measurement. The covariance is copied and must be given.
func New[I params.Index, R ~uint64, L comparable](ref R, link L, cov *mat.SymDense, indices []I, values ...float64) (*Measurement[I, R, L], error) {
	if cov == nil {
		return nil, ErrMissingCovariance
	}
	set, err := params.NewParameterSet(cov, indices, values...)
	if err != nil {
		return nil, fmt.Errorf("measurement: %w", err)
	}
	return &Measurement[I, R, L]{set: set, ref: ref, link: link}, nil
}

// NewBound builds a measurement on a surface.
func NewBound[L comparable](surface geom.SurfaceID, link L, cov *mat.SymDense, indices []params.BoundIndex, values ...float64) (*Measurement[params.BoundIndex, geom.SurfaceID, L], error) {
	return New(surface, link, cov, indices, values...)
}

// NewFree builds a measurement in a volume.
func NewFree[L comparable](volume geom.VolumeID, link L, cov *mat.SymDense, indices []params.FreeIndex, values ...float64) (*Measurement[params.FreeIndex, geom.VolumeID, L], error) {
	return New(volume, link, cov, indices, values...)
}

func (m *Measurement[I, R, L]) Parameter(idx I) (float64, bool)   { return m.set.Parameter(idx) }
func (m *Measurement[I, R, L]) Uncertainty(idx I) (float64, bool) { return m.set.Uncertainty(idx) }
func (m *Measurement[I, R, L]) Parameters() *mat.VecDense         { return m.set.Parameters() }
func (m *Measurement[I, R, L]) Covariance() *mat.SymDense         { return m.set.Covariance() }
func (m *Measurement[I, R, L]) Size() int                         { return m.set.Size() }
func (m *Measurement[I, R, L]) Indices() []I                      { return m.set.Indices() }
func (m *Measurement[I, R, L]) Projector() *mat.Dense             { return m.set.Projector() }
func (m *Measurement[I, R, L]) Reference() R                      { return m.ref }
func (m *Measurement[I, R, L]) SourceLink() L                     { return m.link }

// Residual returns measured minus predicted values for the measured
// indices of full.
func (m *Measurement[I, R, L]) Residual(full *params.ParameterSet[I]) (*mat.VecDense, error) {
	return m.set.Residual(full)
}

func (m *Measurement[I, R, L]) Equal(other *Measurement[I, R, L]) bool {
	return other != nil && m.ref == other.ref && m.link == other.link && m.set.Equal(other.set)
}

func (m *Measurement[I, R, L]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dD measurement on %d:", m.set.Size(), uint64(m.ref))
	for _, idx := range m.set.Indices() {
		v, _ := m.set.Parameter(idx)
		sigma, _ := m.set.Uncertainty(idx)
		fmt.Fprintf(&b, " %s=%.4g±%.2g", idx, v, sigma)
	}
	return b.String()
}

// BoundResidual is the residual of a surface measurement against track
// parameters bound to the same surface.
func BoundResidual[L comparable](m *Measurement[params.BoundIndex, geom.SurfaceID, L], bp *track.BoundParameters) (*mat.VecDense, error) {
	if id := bp.SurfaceRef().ID; id != m.ref {
		return nil, fmt.Errorf("%w: measured on %d, parameters on %d", ErrReferenceMismatch, m.ref, id)
	}
	return m.Residual(bp.Set())
}
