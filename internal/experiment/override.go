package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/trackprop/internal/config"
)

type override func(cfg *config.Config, v float64) error

var overrides = map[string]override{
	"p": func(cfg *config.Config, v float64) error {
		if !(v > 0) {
			return fmt.Errorf("momentum must be positive, got %g", v)
		}
		p := momentumOf(cfg)
		n := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
		for i := range p {
			cfg.Particle.Momentum[i] = p[i] / n * v
		}
		return nil
	},
	"phi": func(cfg *config.Config, v float64) error {
		p, _, theta := polar(cfg)
		setPolar(cfg, p, v, theta)
		return nil
	},
	"theta": func(cfg *config.Config, v float64) error {
		if v < 0 || v > math.Pi {
			return fmt.Errorf("theta must be in [0, pi], got %g", v)
		}
		p, phi, _ := polar(cfg)
		setPolar(cfg, p, phi, v)
		return nil
	},
	"charge":     func(cfg *config.Config, v float64) error { cfg.Particle.Charge = v; return nil },
	"mass":       func(cfg *config.Config, v float64) error { cfg.Particle.Mass = v; return nil },
	"time":       func(cfg *config.Config, v float64) error { cfg.Particle.Time = v; return nil },
	"step_size":  func(cfg *config.Config, v float64) error { cfg.Propagation.StepSize = v; return nil },
	"tolerance":  func(cfg *config.Config, v float64) error { cfg.Propagation.Tolerance = v; return nil },
	"path_limit": func(cfg *config.Config, v float64) error { cfg.Propagation.PathLimit = v; return nil },
	"planes":     func(cfg *config.Config, v float64) error { cfg.Layout.Planes = int(v); return nil },
	"first":      func(cfg *config.Config, v float64) error { cfg.Layout.First = v; return nil },
	"spacing":    func(cfg *config.Config, v float64) error { cfg.Layout.Spacing = v; return nil },
	"resolution": func(cfg *config.Config, v float64) error { cfg.Ensemble.Resolution = v; return nil },
}

func momentumOf(cfg *config.Config) [3]float64 { return cfg.Particle.Momentum }

func polar(cfg *config.Config) (p, phi, theta float64) {
	m := momentumOf(cfg)
	p = math.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2])
	return p, math.Atan2(m[1], m[0]), math.Atan2(math.Hypot(m[0], m[1]), m[2])
}

func setPolar(cfg *config.Config, p, phi, theta float64) {
	cfg.Particle.Momentum = [3]float64{
		p * math.Cos(phi) * math.Sin(theta),
		p * math.Sin(phi) * math.Sin(theta),
		p * math.Cos(theta),
	}
}

// ApplyOverride sets the named quantity of cfg. Direction angles keep the
// momentum magnitude and "p" keeps the direction.
func ApplyOverride(cfg *config.Config, name string, v float64) error {
	fn, ok := overrides[name]
	if !ok {
		return fmt.Errorf("unknown parameter: %s", name)
	}
	if err := fn(cfg, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func OverrideNames() []string {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
