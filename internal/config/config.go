package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStepSize  = 10.0
	DefaultTolerance = 1e-4
	DefaultPathLimit = 1000.0
	DefaultMaxSteps  = 10000
	DefaultPionMass  = 0.13957
	DefaultPlanes    = 5
	DefaultSpacing   = 100.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name        string            `yaml:"name"`
	Particle    ParticleConfig    `yaml:"particle"`
	Covariance  CovarianceConfig  `yaml:"covariance"`
	Propagation PropagationConfig `yaml:"propagation"`
	Layout      LayoutConfig      `yaml:"layout"`
	Ensemble    EnsembleConfig    `yaml:"ensemble"`
}

// ParticleConfig is the starting track. Lengths in mm, momenta and mass in
// GeV, time in ns. A zero charge starts a neutral track.
type ParticleConfig struct {
	Position [3]float64 `yaml:"position"`
	Momentum [3]float64 `yaml:"momentum"`
	Charge   float64    `yaml:"charge" validate:"gte=-3,lte=3"`
	Time     float64    `yaml:"time"`
	Mass     float64    `yaml:"mass" validate:"gte=0"`
}

// CovarianceConfig holds the diagonal of the starting bound covariance in
// the order loc0, loc1, phi, theta, q/p, t. Empty means no covariance.
type CovarianceConfig struct {
	Diagonal []float64 `yaml:"diagonal,omitempty" validate:"omitempty,len=6,dive,gte=0"`
}

type PropagationConfig struct {
	Direction    string  `yaml:"direction" validate:"oneof=forward backward"`
	StepSize     float64 `yaml:"step_size" validate:"gt=0"`
	Tolerance    float64 `yaml:"tolerance" validate:"gt=0"`
	PathLimit    float64 `yaml:"path_limit" validate:"gt=0"`
	MaxSteps     int     `yaml:"max_steps" validate:"gt=0"`
	CovTransport bool    `yaml:"cov_transport"`
}

// LayoutConfig selects a detector layout. Planes are placed along Axis
// starting at First, Spacing apart. Zero half sizes leave the planes
// unbounded.
type LayoutConfig struct {
	Name    string  `yaml:"name" validate:"required"`
	Planes  int     `yaml:"planes" validate:"gte=0"`
	Axis    string  `yaml:"axis" validate:"oneof=x y z"`
	First   float64 `yaml:"first"`
	Spacing float64 `yaml:"spacing" validate:"gte=0"`
	HalfX   float64 `yaml:"half_x" validate:"gte=0"`
	HalfY   float64 `yaml:"half_y" validate:"gte=0"`
}

// EnsembleConfig controls repeated propagation of smeared starts. Smear
// holds one standard deviation per bound parameter.
type EnsembleConfig struct {
	Tracks     int       `yaml:"tracks" validate:"gte=1"`
	Workers    int       `yaml:"workers" validate:"gte=0"`
	Seed       uint64    `yaml:"seed"`
	Smear      []float64 `yaml:"smear,omitempty" validate:"omitempty,len=6,dive,gte=0"`
	Resolution float64   `yaml:"resolution" validate:"gte=0"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "default",
		Particle: ParticleConfig{
			Momentum: [3]float64{1, 0, 0},
			Charge:   1,
			Mass:     DefaultPionMass,
		},
		Propagation: PropagationConfig{
			Direction:    "forward",
			StepSize:     DefaultStepSize,
			Tolerance:    DefaultTolerance,
			PathLimit:    DefaultPathLimit,
			MaxSteps:     DefaultMaxSteps,
			CovTransport: true,
		},
		Layout: LayoutConfig{
			Name:    "telescope",
			Planes:  DefaultPlanes,
			Axis:    "x",
			First:   DefaultSpacing,
			Spacing: DefaultSpacing,
		},
		Ensemble: EnsembleConfig{
			Tracks: 1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var validate = validator.New()

// Validate checks the struct tags and the cross-field rules tags cannot
// express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", ErrInvalidConfig, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Particle.Momentum == [3]float64{} {
		return fmt.Errorf("%w: particle momentum must not be zero", ErrInvalidConfig)
	}
	if c.Layout.Planes > 1 && c.Layout.Spacing == 0 {
		return fmt.Errorf("%w: layout spacing must be positive for %d planes", ErrInvalidConfig, c.Layout.Planes)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Covariance.Diagonal = append([]float64(nil), c.Covariance.Diagonal...)
	out.Ensemble.Smear = append([]float64(nil), c.Ensemble.Smear...)
	return &out
}
