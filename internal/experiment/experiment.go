package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/config"
	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/metrics"
	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/propagator"
	"github.com/san-kum/trackprop/internal/stepper"
	"github.com/san-kum/trackprop/internal/track"
)

// Setup is everything a propagation needs, built from a configuration.
type Setup struct {
	Arena   *geom.Arena
	Start   *track.CurvilinearParameters
	Options propagator.Options
}

// Build resolves the layout of cfg in reg and prepares the start parameters
// and propagation options.
func Build(cfg *config.Config, reg *Registry) (*Setup, error) {
	layout, err := reg.GetLayout(cfg.Layout.Name)
	if err != nil {
		return nil, err
	}
	surfaces, err := layout(cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", cfg.Layout.Name, err)
	}

	arena := geom.NewArena()
	opts := propagator.DefaultOptions()
	opts.Targets = make([]geom.SurfaceRef, len(surfaces))
	for i, s := range surfaces {
		opts.Targets[i] = arena.Ref(arena.AddSurface(s))
	}

	opts.Direction = stepper.Forward
	if cfg.Propagation.Direction == "backward" {
		opts.Direction = stepper.Backward
	}
	opts.MaxStepSize = cfg.Propagation.StepSize
	opts.Tolerance = cfg.Propagation.Tolerance
	opts.PathLimit = cfg.Propagation.PathLimit
	opts.MaxSteps = cfg.Propagation.MaxSteps
	opts.Mass = cfg.Particle.Mass
	opts.SampleCovariance = cfg.Propagation.CovTransport

	start, err := startParameters(cfg)
	if err != nil {
		return nil, err
	}
	return &Setup{Arena: arena, Start: start, Options: opts}, nil
}

func startParameters(cfg *config.Config) (*track.CurvilinearParameters, error) {
	var cov *mat.SymDense
	if d := cfg.Covariance.Diagonal; cfg.Propagation.CovTransport && len(d) == params.BoundSize {
		cov = mat.NewSymDense(params.BoundSize, nil)
		for i, v := range d {
			cov.SetSym(i, i, v)
		}
	}

	p := cfg.Particle
	pos := r3.Vec{X: p.Position[0], Y: p.Position[1], Z: p.Position[2]}
	mom := r3.Vec{X: p.Momentum[0], Y: p.Momentum[1], Z: p.Momentum[2]}
	if p.Charge == 0 {
		return track.NewNeutralCurvilinearParameters(cov, pos, mom, p.Time)
	}
	return track.NewCurvilinearParameters(cov, pos, mom, p.Charge, p.Time)
}

type Experiment struct {
	cfg        *config.Config
	setup      *Setup
	propagator *propagator.Propagator
	randSource *rand.Rand
}

// New validates cfg and builds its setup with the default registry.
func New(cfg *config.Config, logger *slog.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	setup, err := Build(cfg, NewRegistry())
	if err != nil {
		return nil, err
	}

	p := propagator.New(logger)
	for _, f := range metrics.DefaultFactories() {
		p.AddMetric(f)
	}

	return &Experiment{
		cfg:        cfg,
		setup:      setup,
		propagator: p,
		randSource: rand.New(rand.NewPCG(cfg.Ensemble.Seed, cfg.Ensemble.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

func (e *Experiment) Setup() *Setup { return e.setup }

// Propagator returns the underlying propagator for adding observers.
func (e *Experiment) Propagator() *propagator.Propagator { return e.propagator }

// Run propagates the configured start once.
func (e *Experiment) Run(ctx context.Context) (*propagator.Result, error) {
	return e.propagator.Propagate(ctx, e.setup.Start, e.setup.Options)
}

// RunEnsemble propagates cfg.Ensemble.Tracks smeared copies of the start.
func (e *Experiment) RunEnsemble(ctx context.Context) ([]*propagator.Result, error) {
	starts, err := SmearStarts(e.setup.Start, e.cfg.Ensemble.Smear, e.cfg.Ensemble.Tracks, e.randSource)
	if err != nil {
		return nil, err
	}
	return propagator.NewEnsemble(e.propagator, e.cfg.Ensemble.Workers).Run(ctx, starts, e.setup.Options)
}

// Digitize turns the hits of result into measurements with the configured
// resolution.
func (e *Experiment) Digitize(result *propagator.Result) ([]*HitMeasurement, error) {
	return Digitize(result.Hits, e.cfg.Ensemble.Resolution, e.randSource)
}
