package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/trackprop/internal/config"
	"github.com/san-kum/trackprop/internal/experiment"
	"github.com/san-kum/trackprop/internal/optim"
	"github.com/san-kum/trackprop/internal/storage"
)

func storedRun(t *testing.T) string {
	t.Helper()
	dataDir = t.TempDir()

	cfg := config.GetPreset("pion")
	exp, err := experiment.New(cfg, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	runDir, err := storage.New(dataDir).Save(cfg, result)
	if err != nil {
		t.Fatal(err)
	}
	return runDir
}

func TestExportSVG(t *testing.T) {
	runDir := storedRun(t)
	defer func() { svgOut, svgProjection, svgBraille = "", "", false }()
	svgWidth, svgHeight = 800, 400

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	if err := exportSVG(cmd, []string{runDir}); err != nil {
		t.Fatal(err)
	}
	svg := buf.String()
	if !strings.Contains(svg, "<path") {
		t.Errorf("expected a path element")
	}
	if n := strings.Count(svg, "<circle"); n != 5 {
		t.Errorf("expected 5 hit markers, got %d", n)
	}

	svgOut = filepath.Join(t.TempDir(), "run.svg")
	svgBraille = true
	svgProjection = "xz"
	buf.Reset()
	if err := exportSVG(cmd, []string{runDir}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(svgOut)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<circle") {
		t.Errorf("expected braille dots in %s", svgOut)
	}
	if !strings.Contains(buf.String(), "xz projection") {
		t.Errorf("unexpected output %q", buf.String())
	}

	svgProjection = "qq"
	if err := exportSVG(cmd, []string{runDir}); err == nil {
		t.Error("expected error for bad projection")
	}
	if err := exportSVG(cmd, []string{"missing"}); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestRunBatch(t *testing.T) {
	dataDir = t.TempDir()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	body := "name: smoke\nsteps:\n  - preset: pion\n    save_as: first\n  - preset: neutral\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	if err := runBatch(cmd, []string{path}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "neutral") {
		t.Errorf("unexpected batch output:\n%s", out)
	}
	runs, err := storage.New(dataDir).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("expected one saved run, got %d", len(runs))
	}
}

func TestPrintScan(t *testing.T) {
	report := &optim.Report{
		Points: []optim.Point{
			{Params: map[string]float64{"planes": 1}, Value: 1},
			{Params: map[string]float64{"planes": 2}, Err: errors.New("bad layout")},
		},
		Best:      map[string]float64{"planes": 1},
		BestValue: 1,
	}

	var buf bytes.Buffer
	if err := printScan(&buf, []string{"planes"}, report); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"planes", "VALUE", "error: bad layout", "best: planes=1 -> 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
