package tui

import (
	"fmt"
	"sort"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/trackprop/internal/propagator"
)

var series = map[string]func(propagator.Sample) float64{
	"x":           func(s propagator.Sample) float64 { return s.Position.X },
	"y":           func(s propagator.Sample) float64 { return s.Position.Y },
	"z":           func(s propagator.Sample) float64 { return s.Position.Z },
	"t":           func(s propagator.Sample) float64 { return s.Time },
	"path":        func(s propagator.Sample) float64 { return s.Path },
	"step":        func(s propagator.Sample) float64 { return s.StepSize },
	"sigma_loc0":  func(s propagator.Sample) float64 { return s.Sigma[0] },
	"sigma_loc1":  func(s propagator.Sample) float64 { return s.Sigma[1] },
	"sigma_phi":   func(s propagator.Sample) float64 { return s.Sigma[2] },
	"sigma_theta": func(s propagator.Sample) float64 { return s.Sigma[3] },
	"sigma_qop":   func(s propagator.Sample) float64 { return s.Sigma[4] },
	"sigma_t":     func(s propagator.Sample) float64 { return s.Sigma[5] },
}

// SeriesNames lists the quantities Plot understands.
func SeriesNames() []string {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Series extracts one quantity from every sample.
func Series(samples []propagator.Sample, name string) ([]float64, error) {
	fn, ok := series[name]
	if !ok {
		return nil, fmt.Errorf("unknown series: %s", name)
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = fn(s)
	}
	return out, nil
}

// Plot renders the named quantity against the step index.
func Plot(samples []propagator.Sample, name string, width, height int) (string, error) {
	data, err := Series(samples, name)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no samples to plot")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(name)), nil
}
