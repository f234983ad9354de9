package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Layout.Name != "telescope" {
		t.Errorf("expected layout telescope, got %s", cfg.Layout.Name)
	}
	if cfg.Propagation.StepSize <= 0 {
		t.Error("step size should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pion-backward")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Particle.Charge != -1 {
		t.Errorf("expected charge -1, got %f", cfg.Particle.Charge)
	}
	if cfg.Propagation.Direction != "backward" {
		t.Errorf("expected backward, got %s", cfg.Propagation.Direction)
	}

	// presets are copied
	cfg.Covariance.Diagonal[0] = 99
	if Presets["pion-backward"].Covariance.Diagonal[0] != 1 {
		t.Error("preset was modified through its copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero momentum", func(c *Config) { c.Particle.Momentum = [3]float64{} }},
		{"bad direction", func(c *Config) { c.Propagation.Direction = "sideways" }},
		{"zero step", func(c *Config) { c.Propagation.StepSize = 0 }},
		{"negative mass", func(c *Config) { c.Particle.Mass = -1 }},
		{"short covariance", func(c *Config) { c.Covariance.Diagonal = []float64{1, 2} }},
		{"negative variance", func(c *Config) { c.Covariance.Diagonal = []float64{1, 1, 1, -1, 1, 1} }},
		{"no tracks", func(c *Config) { c.Ensemble.Tracks = 0 }},
		{"no layout", func(c *Config) { c.Layout.Name = "" }},
		{"bad axis", func(c *Config) { c.Layout.Axis = "w" }},
		{"stacked planes", func(c *Config) { c.Layout.Spacing = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	want := GetPreset("telescope-ensemble")

	if err := Save(path, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("particle:\n  momentum: [0, 2, 0]\n  charge: -1\npropagation:\n  direction: backward\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Particle.Momentum != [3]float64{0, 2, 0} || cfg.Propagation.Direction != "backward" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Propagation.StepSize != DefaultStepSize || cfg.Layout.Planes != DefaultPlanes {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("propagation:\n  step_size: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
