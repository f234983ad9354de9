package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrNoFeasiblePoint = errors.New("optim: no grid point could be evaluated")

// Objective evaluates one grid point.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

// Point is one evaluated grid point. Err is set when the objective failed
// for it.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type Report struct {
	Points    []Point
	Best      map[string]float64
	BestValue float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters with %d ranges", len(params), len(ranges))
	}
	seen := make(map[string]bool, len(params))
	for i, name := range params {
		if seen[name] {
			return nil, fmt.Errorf("optim: duplicate parameter %s", name)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", name)
		}
		seen[name] = true
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Maximize makes Search keep the largest objective value instead of the
// smallest.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every grid point in row-major order. Points whose
// objective fails are kept in the report with their error.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (*Report, error) {
	report := &Report{Points: make([]Point, 0, g.Size())}
	if g.maximize {
		report.BestValue = math.Inf(-1)
	} else {
		report.BestValue = math.Inf(1)
	}

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), objective, report); err != nil {
		return report, err
	}
	if report.Best == nil {
		return report, ErrNoFeasiblePoint
	}
	return report, nil
}

func (g *GridSearch) better(v, best float64) bool {
	if g.maximize {
		return v > best
	}
	return v < best
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, objective Objective, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		point := Point{Params: current}
		point.Value, point.Err = objective(ctx, current)
		report.Points = append(report.Points, point)
		if point.Err == nil && g.better(point.Value, report.BestValue) {
			report.BestValue = point.Value
			report.Best = current
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, objective, report); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the scanned parameter names sorted.
func (r *Report) Names() []string {
	if len(r.Points) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Points[0].Params))
	for k := range r.Points[0].Params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
