package experiment

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/measurement"
	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/propagator"
	"github.com/san-kum/trackprop/internal/track"
	"github.com/san-kum/trackprop/internal/transform"
)

// SmearStarts draws n starts around start with independent Gaussian offsets
// on its bound parameters. A nil sigma returns n copies of start.
func SmearStarts(start *track.CurvilinearParameters, sigma []float64, n int, src rand.Source) ([]track.Bound, error) {
	if len(sigma) != 0 && len(sigma) != params.BoundSize {
		return nil, fmt.Errorf("smear: %d sigmas for %d parameters", len(sigma), params.BoundSize)
	}
	surface, err := start.ReferenceSurface()
	if err != nil {
		return nil, err
	}

	gauss := make([]distuv.Normal, len(sigma))
	for i, s := range sigma {
		gauss[i] = distuv.Normal{Mu: 0, Sigma: s, Src: src}
	}

	out := make([]track.Bound, n)
	base := start.BoundVector()
	for k := range out {
		if len(gauss) == 0 {
			out[k] = start.Clone()
			continue
		}
		v := base
		for i := range v {
			v[i] += gauss[i].Rand()
		}
		free := transform.BoundToFree(geom.GeometryContext{}, v, surface)
		cp, err := track.NewCurvilinearParametersFromFree(start.Covariance(), free, start.Charge())
		if err != nil {
			return nil, fmt.Errorf("smear: track %d: %w", k, err)
		}
		out[k] = cp
	}
	return out, nil
}

// HitMeasurement is a local position measured on a target surface.
type HitMeasurement = measurement.Measurement[params.BoundIndex, geom.SurfaceID, uuid.UUID]

// Digitize turns hits into loc0/loc1 measurements smeared by resolution.
// The source link of each measurement is the hit ID.
func Digitize(hits []propagator.SurfaceHit, resolution float64, src rand.Source) ([]*HitMeasurement, error) {
	gauss := distuv.Normal{Mu: 0, Sigma: resolution, Src: src}
	cov := mat.NewSymDense(2, []float64{resolution * resolution, 0, 0, resolution * resolution})
	indices := []params.BoundIndex{params.BoundLoc0, params.BoundLoc1}

	out := make([]*HitMeasurement, 0, len(hits))
	for _, hit := range hits {
		v := hit.Parameters.BoundVector()
		loc0, loc1 := v[params.BoundLoc0], v[params.BoundLoc1]
		if resolution > 0 {
			loc0 += gauss.Rand()
			loc1 += gauss.Rand()
		}
		m, err := measurement.NewBound(hit.Surface, hit.ID, cov, indices, loc0, loc1)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Pulls returns the residuals of m against hit divided by the combined
// uncertainty of the measurement and the propagated track. A component
// without any uncertainty is returned as the raw residual.
func Pulls(m *HitMeasurement, hit propagator.SurfaceHit) ([]float64, error) {
	r, err := measurement.BoundResidual(m, hit.Parameters)
	if err != nil {
		return nil, err
	}

	trackCov := hit.Parameters.Covariance()
	out := make([]float64, r.Len())
	for k, idx := range m.Indices() {
		variance := m.Covariance().At(k, k)
		if trackCov != nil {
			variance += trackCov.At(int(idx), int(idx))
		}
		out[k] = r.AtVec(k)
		if variance > 0 {
			out[k] /= math.Sqrt(variance)
		}
	}
	return out, nil
}
