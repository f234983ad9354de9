package optim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/trackprop/internal/config"
	"github.com/san-kum/trackprop/internal/experiment"
	"github.com/san-kum/trackprop/internal/propagator"
)

// MetricHits is the number of target surfaces crossed.
const MetricHits = "hits"

// ResultMetric reads a named figure of merit from a propagation result.
func ResultMetric(result *propagator.Result, name string) (float64, error) {
	if name == MetricHits {
		return float64(len(result.Hits)), nil
	}
	v, ok := result.Metrics[name]
	if !ok {
		return 0, fmt.Errorf("unknown metric: %s", name)
	}
	return v, nil
}

// MetricObjective builds an objective that applies the grid point to a copy
// of base, propagates it and reads metric. Ensembles average the metric over
// their tracks.
func MetricObjective(base *config.Config, metric string, logger *slog.Logger) Objective {
	return func(ctx context.Context, point map[string]float64) (float64, error) {
		cfg := base.Clone()
		for name, v := range point {
			if err := experiment.ApplyOverride(cfg, name, v); err != nil {
				return 0, err
			}
		}

		exp, err := experiment.New(cfg, logger)
		if err != nil {
			return 0, err
		}

		if cfg.Ensemble.Tracks <= 1 {
			result, err := exp.Run(ctx)
			if err != nil {
				return 0, err
			}
			return ResultMetric(result, metric)
		}

		results, err := exp.RunEnsemble(ctx)
		if err != nil {
			return 0, err
		}
		var sum float64
		for _, r := range results {
			v, err := ResultMetric(r, metric)
			if err != nil {
				return 0, err
			}
			sum += v
		}
		return sum / float64(len(results)), nil
	}
}
