package metrics

import "github.com/san-kum/trackprop/internal/stepper"

// Metric accumulates a figure of merit over the steps of one propagation.
// Observe is called once with h = 0 for the start state and then after
// every step with the signed length h moved.
type Metric interface {
	Name() string
	Observe(st *stepper.State, h float64)
	Value() float64
	Reset()
}

// Factory builds a fresh metric. Concurrent propagations each get their own
// instances.
type Factory func() Metric

// DefaultFactories returns the metrics recorded for every run.
func DefaultFactories() []Factory {
	return []Factory{
		func() Metric { return NewStepCount() },
		func() Metric { return NewPathLength() },
		func() Metric { return NewTimeOfFlight() },
		func() Metric { return NewMeanStepSize() },
		func() Metric { return NewSigmaGrowth() },
	}
}
