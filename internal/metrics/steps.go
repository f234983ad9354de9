package metrics

import (
	"math"

	"github.com/san-kum/trackprop/internal/stepper"
)

type StepCount struct {
	name  string
	steps int
}

func NewStepCount() *StepCount {
	return &StepCount{name: "steps"}
}

func (s *StepCount) Name() string { return s.name }

func (s *StepCount) Observe(_ *stepper.State, h float64) {
	if h != 0 {
		s.steps++
	}
}

func (s *StepCount) Value() float64 { return float64(s.steps) }

func (s *StepCount) Reset() { s.steps = 0 }

// MeanStepSize is the average magnitude of the steps taken.
type MeanStepSize struct {
	name    string
	total   float64
	samples int
}

func NewMeanStepSize() *MeanStepSize {
	return &MeanStepSize{name: "mean_step"}
}

func (m *MeanStepSize) Name() string { return m.name }

func (m *MeanStepSize) Observe(_ *stepper.State, h float64) {
	if h == 0 {
		return
	}
	m.total += math.Abs(h)
	m.samples++
}

func (m *MeanStepSize) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanStepSize) Reset() {
	m.total = 0
	m.samples = 0
}
