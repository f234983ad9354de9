package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/config"
	"github.com/san-kum/trackprop/internal/params"
	"github.com/san-kum/trackprop/internal/propagator"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	configFile     = "config.yaml"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// HitRecord is the persisted form of a surface hit.
type HitRecord struct {
	ID      string  `json:"id"`
	Target  int     `json:"target"`
	Surface uint64  `json:"surface"`
	Path    float64 `json:"path"`
	Global  r3.Vec  `json:"global"`
	Loc0    float64 `json:"loc0"`
	Loc1    float64 `json:"loc1"`
	Sigma0  float64 `json:"sigma_loc0,omitempty"`
	Sigma1  float64 `json:"sigma_loc1,omitempty"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Dir         string             `json:"dir"`
	Name        string             `json:"name"`
	Layout      string             `json:"layout"`
	Timestamp   time.Time          `json:"timestamp"`
	Direction   string             `json:"direction"`
	StepSize    float64            `json:"step_size"`
	PathLimit   float64            `json:"path_limit"`
	Seed        uint64             `json:"seed"`
	Steps       int                `json:"steps"`
	PathLength  float64            `json:"path_length"`
	AbortReason string             `json:"abort_reason"`
	Hits        []HitRecord        `json:"hits"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding the metadata, the configuration and
// the sampled trajectory. It returns the directory name, which is the run
// key for Load.
func (s *Store) Save(cfg *config.Config, result *propagator.Result) (string, error) {
	id := uuid.New()
	runDir := fmt.Sprintf("%s_%s", cfg.Name, id.String()[:8])
	path := filepath.Join(s.baseDir, runDir)

	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          id.String(),
		Dir:         runDir,
		Name:        cfg.Name,
		Layout:      cfg.Layout.Name,
		Timestamp:   time.Now(),
		Direction:   cfg.Propagation.Direction,
		StepSize:    cfg.Propagation.StepSize,
		PathLimit:   cfg.Propagation.PathLimit,
		Seed:        cfg.Ensemble.Seed,
		Steps:       result.StepsTaken,
		PathLength:  result.PathLength,
		AbortReason: string(result.AbortReason),
		Hits:        make([]HitRecord, 0, len(result.Hits)),
		Metrics:     result.Metrics,
	}
	for _, h := range result.Hits {
		v := h.Parameters.BoundVector()
		rec := HitRecord{
			ID:      h.ID.String(),
			Target:  h.Target,
			Surface: uint64(h.Surface),
			Path:    h.Path,
			Global:  h.Parameters.Position(),
			Loc0:    v[params.BoundLoc0],
			Loc1:    v[params.BoundLoc1],
		}
		if sigma, ok := h.Parameters.Set().Uncertainty(params.BoundLoc0); ok {
			rec.Sigma0 = sigma
		}
		if sigma, ok := h.Parameters.Set().Uncertainty(params.BoundLoc1); ok {
			rec.Sigma1 = sigma
		}
		meta.Hits = append(meta.Hits, rec)
	}

	if err := writeJSON(filepath.Join(path, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(path, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(path, trajectoryFile), result.Samples); err != nil {
		return "", err
	}
	return runDir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var trajectoryHeader = []string{
	"step", "path", "step_size", "x", "y", "z", "t",
	"sigma_loc0", "sigma_loc1", "sigma_phi", "sigma_theta", "sigma_qop", "sigma_t",
}

func writeTrajectory(path string, samples []propagator.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(trajectoryHeader); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.Step), format(s.Path), format(s.StepSize),
			format(s.Position.X), format(s.Position.Y), format(s.Position.Z), format(s.Time),
		}
		for _, sigma := range s.Sigma {
			row = append(row, format(sigma))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first. Unreadable entries are
// skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runDir string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runDir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runDir)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", runDir, err)
	}
	return &meta, nil
}

// LoadConfig returns the configuration the run was made with.
func (s *Store) LoadConfig(runDir string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runDir, configFile))
}

// LoadTrajectory reads back the samples of a run.
func (s *Store) LoadTrajectory(runDir string) ([]propagator.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runDir, trajectoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runDir)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(trajectoryHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []propagator.Sample{}, nil
	}

	samples := make([]propagator.Sample, 0, len(records)-1)
	for line, record := range records[1:] {
		var vals [13]float64
		for j := 1; j < len(record); j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", trajectoryFile, line+2, err)
			}
			vals[j] = v
		}
		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", trajectoryFile, line+2, err)
		}

		s := propagator.Sample{
			Step:     step,
			Path:     vals[1],
			StepSize: vals[2],
			Position: r3.Vec{X: vals[3], Y: vals[4], Z: vals[5]},
			Time:     vals[6],
		}
		copy(s.Sigma[:], vals[7:])
		samples = append(samples, s)
	}
	return samples, nil
}

// ExportJSON writes the metadata and trajectory of a run as one JSON
// document.
func (s *Store) ExportJSON(runDir string, w io.Writer) error {
	meta, err := s.Load(runDir)
	if err != nil {
		return err
	}
	samples, err := s.LoadTrajectory(runDir)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*RunMetadata
		Trajectory []propagator.Sample `json:"trajectory"`
	}{meta, samples})
}
