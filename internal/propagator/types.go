package propagator

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/stepper"
	"github.com/san-kum/trackprop/internal/track"
)

// PionMass in GeV.
const PionMass = 0.13957

// Options configure one propagation. Lengths are in mm, momenta and masses
// in GeV.
type Options struct {
	Direction   stepper.NavigationDirection
	MaxStepSize float64
	Tolerance   float64
	PathLimit   float64
	MaxSteps    int
	Mass        float64

	// Targets are visited in order. A missed target is skipped.
	Targets          []geom.SurfaceRef
	BoundaryCheck    geom.BoundaryCheck
	StopAtLastTarget bool

	// SampleCovariance transports the covariance to the curvilinear frame
	// after every step so each sample carries its uncertainty.
	SampleCovariance bool
}

func DefaultOptions() Options {
	return Options{
		Direction:        stepper.Forward,
		MaxStepSize:      10,
		Tolerance:        geom.OnSurfaceTolerance,
		PathLimit:        1000,
		MaxSteps:         10000,
		Mass:             PionMass,
		BoundaryCheck:    true,
		StopAtLastTarget: true,
		SampleCovariance: true,
	}
}

// AbortReason tells why a propagation stopped.
type AbortReason string

const (
	AbortPathLimit AbortReason = "path-limit"
	AbortMaxSteps  AbortReason = "max-steps"
	AbortTargets   AbortReason = "targets-reached"
	AbortCallback  AbortReason = "callback"
)

// Sample is the state after a step. Sigma holds the square roots of the
// covariance diagonal and is zero when no covariance is transported.
type Sample struct {
	Step     int                       `json:"step"`
	Path     float64                   `json:"path"`
	StepSize float64                   `json:"step_size"`
	Position r3.Vec                    `json:"position"`
	Time     float64                   `json:"time"`
	Sigma    [params.BoundSize]float64 `json:"sigma"`
}

// SurfaceHit records a target surface crossed by the track.
type SurfaceHit struct {
	ID         uuid.UUID
	Target     int
	Surface    geom.SurfaceID
	Step       int
	Path       float64
	Parameters *track.BoundParameters
	Jacobian   *mat.Dense
}

type Result struct {
	Samples       []Sample
	Hits          []SurfaceHit
	Final         *track.CurvilinearParameters
	FinalJacobian *mat.Dense
	PathLength    float64
	StepsTaken    int
	AbortReason   AbortReason
	Metrics       map[string]float64
}

// Observer is notified of every sample. Observers added to a Propagator
// used by an Ensemble must be safe for concurrent use.
type Observer interface {
	OnStep(s Sample)
}
