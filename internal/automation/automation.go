package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/trackprop/internal/config"
	"github.com/san-kum/trackprop/internal/experiment"
	"github.com/san-kum/trackprop/internal/propagator"
	"github.com/san-kum/trackprop/internal/storage"
)

var ErrInvalidScenario = errors.New("automation: invalid scenario")

// Scenario defines a scripted sequence of propagation runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`

	dir string
}

// ScenarioStep is a single run in a scenario. The base configuration is a
// preset, a config file or the defaults, in that order of preference.
type ScenarioStep struct {
	Preset    string             `yaml:"preset"`
	Config    string             `yaml:"config"`
	Tracks    int                `yaml:"tracks"`
	Overrides map[string]float64 `yaml:"overrides"`
	SaveAs    string             `yaml:"save_as"`
}

// StepOutcome is the result of one scenario step. Ensemble is set for
// steps with more than one track, and Result is then its first track.
type StepOutcome struct {
	Index    int
	Name     string
	RunDir   string
	Result   *propagator.Result
	Ensemble []*propagator.Result
}

// LoadScenario loads a scenario from a YAML file. Config paths in steps are
// relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s has no steps", ErrInvalidScenario, path)
	}
	scenario.dir = filepath.Dir(path)

	return &scenario, nil
}

func (s *Scenario) stepConfig(step ScenarioStep) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case step.Preset != "":
		cfg = config.GetPreset(step.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", step.Preset)
		}
	case step.Config != "":
		path := step.Config
		if !filepath.IsAbs(path) && s.dir != "" {
			path = filepath.Join(s.dir, path)
		}
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	default:
		cfg = config.DefaultConfig()
	}

	names := make([]string, 0, len(step.Overrides))
	for name := range step.Overrides {
		names = append(names, name)
	}
	// "p" before the angles keeps the result independent of map order
	sort.Strings(names)
	for _, name := range names {
		if err := experiment.ApplyOverride(cfg, name, step.Overrides[name]); err != nil {
			return nil, err
		}
	}

	if step.Tracks > 0 {
		cfg.Ensemble.Tracks = step.Tracks
	}
	if step.SaveAs != "" {
		cfg.Name = step.SaveAs
	}
	return cfg, nil
}

// RunScenario executes all steps in order. Steps with SaveAs are persisted
// when store is not nil. It stops at the first failing step and returns the
// outcomes so far.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, logger *slog.Logger) ([]StepOutcome, error) {
	outcomes := make([]StepOutcome, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := scenario.stepConfig(step)
		if err != nil {
			return outcomes, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("running scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", cfg.Name)

		exp, err := experiment.New(cfg, logger)
		if err != nil {
			return outcomes, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		out := StepOutcome{Index: i, Name: cfg.Name}
		if cfg.Ensemble.Tracks > 1 {
			out.Ensemble, err = exp.RunEnsemble(ctx)
			if err == nil {
				out.Result = out.Ensemble[0]
			}
		} else {
			out.Result, err = exp.Run(ctx)
		}
		if err != nil {
			return outcomes, fmt.Errorf("step %d run: %w", i+1, err)
		}

		if store != nil && step.SaveAs != "" {
			if out.RunDir, err = store.Save(cfg, out.Result); err != nil {
				return outcomes, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}

		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}
