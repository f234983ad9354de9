package metrics

import (
	"math"

	"github.com/san-kum/trackprop/internal/stepper"
)

// PathLength is the unsigned path accumulated by the state.
type PathLength struct {
	name string
	path float64
}

func NewPathLength() *PathLength {
	return &PathLength{name: "path_length"}
}

func (p *PathLength) Name() string { return p.name }

func (p *PathLength) Observe(st *stepper.State, _ float64) {
	p.path = math.Abs(st.PathAccumulated)
}

func (p *PathLength) Value() float64 { return p.path }

func (p *PathLength) Reset() { p.path = 0 }

// TimeOfFlight is the time elapsed since the first observation.
type TimeOfFlight struct {
	name    string
	start   float64
	current float64
	samples int
}

func NewTimeOfFlight() *TimeOfFlight {
	return &TimeOfFlight{name: "time_of_flight"}
}

func (t *TimeOfFlight) Name() string { return t.name }

func (t *TimeOfFlight) Observe(st *stepper.State, _ float64) {
	if t.samples == 0 {
		t.start = st.T
	}
	t.current = st.T
	t.samples++
}

func (t *TimeOfFlight) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return math.Abs(t.current - t.start)
}

func (t *TimeOfFlight) Reset() {
	t.start = 0
	t.current = 0
	t.samples = 0
}
