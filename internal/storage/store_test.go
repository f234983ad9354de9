package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/trackprop/internal/config"
	"github.com/san-kum/trackprop/internal/experiment"
	"github.com/san-kum/trackprop/internal/propagator"
)

func runPreset(t *testing.T, name string) (*config.Config, *propagator.Result) {
	t.Helper()
	cfg := config.GetPreset(name)
	e, err := experiment.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("experiment: %v", err)
	}
	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return cfg, result
}

func TestSaveAndLoad(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	cfg, result := runPreset(t, "pion")
	runDir, err := store.Save(cfg, result)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := store.Load(runDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Dir != runDir || meta.Name != "pion" || meta.Layout != "telescope" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.Steps != result.StepsTaken || meta.AbortReason != string(result.AbortReason) {
		t.Errorf("expected %d steps (%s), got %d (%s)", result.StepsTaken, result.AbortReason, meta.Steps, meta.AbortReason)
	}
	if len(meta.Hits) != len(result.Hits) {
		t.Fatalf("expected %d hits, got %d", len(result.Hits), len(meta.Hits))
	}
	if meta.Hits[0].ID != result.Hits[0].ID.String() || meta.Hits[0].Sigma0 <= 0 {
		t.Errorf("unexpected hit record: %+v", meta.Hits[0])
	}

	samples, err := store.LoadTrajectory(runDir)
	if err != nil {
		t.Fatalf("load trajectory: %v", err)
	}
	if diff := cmp.Diff(result.Samples, samples); diff != "" {
		t.Errorf("trajectory mismatch (-want +got):\n%s", diff)
	}

	got, err := store.LoadConfig(runDir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestList(t *testing.T) {
	store := New(t.TempDir())

	runs, err := store.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected no runs, got %v (%v)", runs, err)
	}

	for _, name := range []string{"pion", "neutral"} {
		cfg, result := runPreset(t, name)
		if _, err := store.Save(cfg, result); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	runs, err = store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Timestamp.After(runs[1].Timestamp) {
		t.Error("runs not sorted by time")
	}
}

func TestLoadMissing(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := store.LoadTrajectory("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	store := New(t.TempDir())
	cfg, result := runPreset(t, "neutral")
	runDir, err := store.Save(cfg, result)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	var buf bytes.Buffer
	if err := store.ExportJSON(runDir, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	var doc struct {
		ID         string              `json:"id"`
		Trajectory []propagator.Sample `json:"trajectory"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ID == "" {
		t.Error("expected run id")
	}
	if len(doc.Trajectory) != len(result.Samples) {
		t.Errorf("expected %d samples, got %d", len(result.Samples), len(doc.Trajectory))
	}
}
