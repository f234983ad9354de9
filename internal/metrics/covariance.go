package metrics

import (
	"math"

	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/stepper"
)

// SigmaGrowth is the ratio of the final to the initial transverse position
// uncertainty, sqrt(var(loc0) + var(loc1)). It is zero without a
// covariance.
type SigmaGrowth struct {
	name    string
	initial float64
	current float64
}

func NewSigmaGrowth() *SigmaGrowth {
	return &SigmaGrowth{name: "sigma_growth"}
}

func (s *SigmaGrowth) Name() string { return s.name }

func (s *SigmaGrowth) Observe(st *stepper.State, _ float64) {
	if st.Cov == nil {
		return
	}
	sigma := math.Sqrt(st.Cov.At(int(params.BoundLoc0), int(params.BoundLoc0)) +
		st.Cov.At(int(params.BoundLoc1), int(params.BoundLoc1)))
	if s.initial == 0 {
		s.initial = sigma
	}
	s.current = sigma
}

func (s *SigmaGrowth) Value() float64 {
	if s.initial == 0 {
		return 0
	}
	return s.current / s.initial
}

func (s *SigmaGrowth) Reset() {
	s.initial = 0
	s.current = 0
}
