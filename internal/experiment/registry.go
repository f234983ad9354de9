package experiment

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/config"
	"github.com/san-kum/trackprop/internal/geom"
)

// LayoutBuilder creates the target surfaces of a detector layout in
// propagation order.
type LayoutBuilder func(cfg config.LayoutConfig) ([]geom.Surface, error)

type Registry struct {
	layouts map[string]LayoutBuilder
}

func NewRegistry() *Registry {
	r := &Registry{
		layouts: make(map[string]LayoutBuilder),
	}

	r.layouts["none"] = func(config.LayoutConfig) ([]geom.Surface, error) { return nil, nil }
	r.layouts["plane"] = func(cfg config.LayoutConfig) ([]geom.Surface, error) {
		cfg.Planes = 1
		return telescope(cfg)
	}
	r.layouts["telescope"] = telescope

	return r
}

// Register adds or replaces a layout.
func (r *Registry) Register(name string, b LayoutBuilder) {
	r.layouts[name] = b
}

func (r *Registry) GetLayout(name string) (LayoutBuilder, error) {
	fn, ok := r.layouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListLayouts() []string {
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func axisVector(axis string) (r3.Vec, error) {
	switch axis {
	case "x", "":
		return r3.Vec{X: 1}, nil
	case "y":
		return r3.Vec{Y: 1}, nil
	case "z":
		return r3.Vec{Z: 1}, nil
	}
	return r3.Vec{}, fmt.Errorf("unknown axis: %s", axis)
}

// telescope places parallel planes facing along the layout axis.
func telescope(cfg config.LayoutConfig) ([]geom.Surface, error) {
	axis, err := axisVector(cfg.Axis)
	if err != nil {
		return nil, err
	}

	bounded := cfg.HalfX > 0 || cfg.HalfY > 0
	surfaces := make([]geom.Surface, 0, cfg.Planes)
	for i := 0; i < cfg.Planes; i++ {
		center := r3.Scale(cfg.First+float64(i)*cfg.Spacing, axis)
		if !bounded {
			surfaces = append(surfaces, geom.NewPlaneSurface(center, axis))
			continue
		}
		p, err := geom.NewBoundedPlaneSurface(fmt.Sprintf("%s-%d", cfg.Name, i), center, axis, cfg.HalfX, cfg.HalfY)
		if err != nil {
			return nil, err
		}
		surfaces = append(surfaces, p)
	}
	return surfaces, nil
}
