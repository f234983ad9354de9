package config

import "sort"

var Presets = map[string]*Config{
	"pion": {
		Name:     "pion",
		Particle: ParticleConfig{Momentum: [3]float64{1, 0, 0}, Charge: 1, Mass: DefaultPionMass},
		Covariance: CovarianceConfig{
			Diagonal: []float64{0.01, 0.01, 1e-4, 1e-4, 1e-4, 1},
		},
		Propagation: PropagationConfig{
			Direction: "forward", StepSize: 25, Tolerance: DefaultTolerance,
			PathLimit: 600, MaxSteps: DefaultMaxSteps, CovTransport: true,
		},
		Layout:   LayoutConfig{Name: "telescope", Planes: 5, Axis: "x", First: 100, Spacing: 100, HalfX: 50, HalfY: 50},
		Ensemble: EnsembleConfig{Tracks: 1},
	},
	"pion-backward": {
		Name:     "pion-backward",
		Particle: ParticleConfig{Position: [3]float64{1, 2, 3}, Momentum: [3]float64{4, 5, 6}, Charge: -1, Time: 7, Mass: DefaultPionMass},
		Covariance: CovarianceConfig{
			Diagonal: []float64{1, 1, 1, 1, 1, 1},
		},
		Propagation: PropagationConfig{
			Direction: "backward", StepSize: 123, Tolerance: DefaultTolerance,
			PathLimit: 1000, MaxSteps: DefaultMaxSteps, CovTransport: true,
		},
		Layout:   LayoutConfig{Name: "none", Axis: "x"},
		Ensemble: EnsembleConfig{Tracks: 1},
	},
	"muon-plane": {
		Name:     "muon-plane",
		Particle: ParticleConfig{Momentum: [3]float64{10, 1, 0.5}, Charge: -1, Mass: 0.10566},
		Covariance: CovarianceConfig{
			Diagonal: []float64{0.0025, 0.0025, 1e-6, 1e-6, 1e-6, 0.01},
		},
		Propagation: PropagationConfig{
			Direction: "forward", StepSize: 50, Tolerance: DefaultTolerance,
			PathLimit: 2000, MaxSteps: DefaultMaxSteps, CovTransport: true,
		},
		Layout:   LayoutConfig{Name: "plane", Planes: 1, Axis: "x", First: 1000},
		Ensemble: EnsembleConfig{Tracks: 1},
	},
	"neutral": {
		Name:     "neutral",
		Particle: ParticleConfig{Momentum: [3]float64{2, 0, 0}, Charge: 0, Mass: 0.497611},
		Propagation: PropagationConfig{
			Direction: "forward", StepSize: 20, Tolerance: DefaultTolerance,
			PathLimit: 500, MaxSteps: DefaultMaxSteps,
		},
		Layout:   LayoutConfig{Name: "telescope", Planes: 4, Axis: "x", First: 100, Spacing: 100},
		Ensemble: EnsembleConfig{Tracks: 1},
	},
	"telescope-ensemble": {
		Name:     "telescope-ensemble",
		Particle: ParticleConfig{Momentum: [3]float64{5, 0, 0}, Charge: 1, Mass: DefaultPionMass},
		Covariance: CovarianceConfig{
			Diagonal: []float64{0.01, 0.01, 1e-4, 1e-4, 1e-4, 1},
		},
		Propagation: PropagationConfig{
			Direction: "forward", StepSize: 50, Tolerance: DefaultTolerance,
			PathLimit: 1000, MaxSteps: DefaultMaxSteps, CovTransport: true,
		},
		Layout: LayoutConfig{Name: "telescope", Planes: 6, Axis: "x", First: 150, Spacing: 150, HalfX: 100, HalfY: 100},
		Ensemble: EnsembleConfig{
			Tracks: 200, Seed: 42, Resolution: 0.05,
			Smear: []float64{0.1, 0.1, 0.01, 0.01, 0.01, 0},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
