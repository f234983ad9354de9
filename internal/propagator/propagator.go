package propagator

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/san-kum/trackprop/internal/geom"
	"github.com/san-kum/trackprop/internal/metrics"
	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/stepper"
	"github.com/san-kum/trackprop/internal/track"
)

type Propagator struct {
	stepper   *stepper.StraightLineStepper
	logger    *slog.Logger
	factories []metrics.Factory
	observers []Observer

	GeoContext   geom.GeometryContext
	FieldContext geom.MagneticFieldContext
}

// New returns a propagator logging to logger, or to the default logger if
// logger is nil.
func New(logger *slog.Logger) *Propagator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Propagator{
		stepper:   stepper.New(),
		logger:    logger,
		factories: make([]metrics.Factory, 0),
		observers: make([]Observer, 0),
	}
}

func (p *Propagator) AddMetric(f metrics.Factory) { p.factories = append(p.factories, f) }
func (p *Propagator) AddObserver(o Observer)      { p.observers = append(p.observers, o) }

// Propagate moves start through opts.Targets. A failing step returns the
// partial result together with a *PropagationError.
func (p *Propagator) Propagate(ctx context.Context, start track.Bound, opts Options) (*Result, error) {
	return p.run(ctx, start, opts, nil)
}

// PropagateWithCallback is Propagate with callback invoked after every
// sample. Returning false stops the propagation.
func (p *Propagator) PropagateWithCallback(ctx context.Context, start track.Bound, opts Options, callback func(Sample) bool) (*Result, error) {
	return p.run(ctx, start, opts, callback)
}

func (p *Propagator) run(ctx context.Context, start track.Bound, opts Options, callback func(Sample) bool) (*Result, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	st, err := stepper.NewState(p.GeoContext, p.FieldContext, start, opts.Direction, opts.MaxStepSize, opts.Tolerance)
	if err != nil {
		return nil, err
	}
	stepOpts := stepper.Options{Mass: opts.Mass}

	ms := make([]metrics.Metric, len(p.factories))
	for i, f := range p.factories {
		ms[i] = f()
		ms[i].Reset()
		ms[i].Observe(st, 0)
	}

	result := &Result{
		Samples: make([]Sample, 0, 64),
		Hits:    make([]SurfaceHit, 0, len(opts.Targets)),
		Metrics: make(map[string]float64),
	}
	log := p.logger.With("direction", opts.Direction.String())

	emit := func(s Sample) bool {
		result.Samples = append(result.Samples, s)
		for _, o := range p.observers {
			o.OnStep(s)
		}
		return callback == nil || callback(s)
	}

	if !emit(sampleOf(st, 0, 0, st.Cov != nil)) {
		result.AbortReason = AbortCallback
	}

	target := 0
	for step := 0; result.AbortReason == ""; {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
		default:
		}

		remaining := float64(opts.Direction)*opts.PathLimit - st.PathAccumulated
		if math.Abs(remaining) < opts.Tolerance {
			result.AbortReason = AbortPathLimit
			break
		}
		st.StepSize.Update(remaining, stepper.Aborter, true)

		if target < len(opts.Targets) {
			surface, err := opts.Targets[target].Resolve()
			if err != nil {
				return result, &PropagationError{Step: step, Path: st.PathAccumulated, Wrapped: err}
			}

			switch status := p.stepper.UpdateSurfaceStatus(st, surface, opts.BoundaryCheck); status {
			case geom.OnSurface:
				hit, err := p.recordHit(st, opts.Targets[target], target, step)
				if err != nil {
					return result, &PropagationError{Step: step, Path: st.PathAccumulated, Wrapped: err}
				}
				result.Hits = append(result.Hits, hit)
				log.Debug("target reached", "target", target, "surface", surface.Name(), "path", hit.Path)
				target++
				if target == len(opts.Targets) && opts.StopAtLastTarget {
					result.AbortReason = AbortTargets
				}
				continue
			case geom.Missed, geom.Unreachable:
				log.Debug("target skipped", "target", target, "surface", surface.Name(), "status", status.String())
				p.stepper.ReleaseStepSize(st)
				target++
				continue
			}
		}

		if step >= opts.MaxSteps {
			result.AbortReason = AbortMaxSteps
			break
		}

		h, err := p.stepper.Step(st, stepOpts)
		if err != nil {
			return result, &PropagationError{Step: step, Path: st.PathAccumulated, Wrapped: err}
		}
		step++
		result.StepsTaken = step

		sampled := false
		if opts.SampleCovariance && st.CovTransport {
			p.stepper.CovarianceTransport(st)
			sampled = true
		}
		for _, m := range ms {
			m.Observe(st, h)
		}
		if !emit(sampleOf(st, step, h, sampled && st.Cov != nil)) {
			result.AbortReason = AbortCallback
		}
	}

	final, jac, path, err := p.stepper.CurvilinearState(st)
	if err != nil {
		return result, &PropagationError{Step: result.StepsTaken, Path: st.PathAccumulated, Wrapped: err}
	}
	result.Final = final
	result.FinalJacobian = jac
	result.PathLength = path

	for _, m := range ms {
		result.Metrics[m.Name()] = m.Value()
	}

	log.Info("propagation finished",
		"steps", result.StepsTaken,
		"path", result.PathLength,
		"hits", len(result.Hits),
		"reason", string(result.AbortReason))
	return result, nil
}

func (p *Propagator) recordHit(st *stepper.State, ref geom.SurfaceRef, target, step int) (SurfaceHit, error) {
	bp, jac, path, err := p.stepper.BoundState(st, ref)
	if err != nil {
		return SurfaceHit{}, err
	}
	return SurfaceHit{
		ID:         uuid.New(),
		Target:     target,
		Surface:    ref.ID,
		Step:       step,
		Path:       path,
		Parameters: bp,
		Jacobian:   jac,
	}, nil
}

func sampleOf(st *stepper.State, step int, h float64, withSigma bool) Sample {
	s := Sample{
		Step:     step,
		Path:     st.PathAccumulated,
		StepSize: h,
		Position: st.Pos,
		Time:     st.T,
	}
	if withSigma {
		for i := 0; i < params.BoundSize; i++ {
			s.Sigma[i] = math.Sqrt(math.Max(st.Cov.At(i, i), 0))
		}
	}
	return s
}

func validateOptions(opts Options) error {
	if opts.Direction != stepper.Forward && opts.Direction != stepper.Backward {
		return fmt.Errorf("%w: direction must be +1 or -1, got %g", ErrInvalidOptions, float64(opts.Direction))
	}
	if !(opts.MaxStepSize > 0) {
		return fmt.Errorf("%w: max step size must be positive, got %g", ErrInvalidOptions, opts.MaxStepSize)
	}
	if !(opts.Tolerance > 0) {
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidOptions, opts.Tolerance)
	}
	if !(opts.PathLimit > 0) {
		return fmt.Errorf("%w: path limit must be positive, got %g", ErrInvalidOptions, opts.PathLimit)
	}
	if opts.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be positive, got %d", ErrInvalidOptions, opts.MaxSteps)
	}
	if opts.Mass < 0 {
		return fmt.Errorf("%w: mass must not be negative, got %g", ErrInvalidOptions, opts.Mass)
	}
	for i, t := range opts.Targets {
		if !t.Valid() {
			return fmt.Errorf("%w: target %d has no lookup", ErrInvalidOptions, i)
		}
	}
	return nil
}
