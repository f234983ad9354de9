package propagator

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/trackprop/internal/track"
)

// Ensemble propagates many tracks with the same options.
type Ensemble struct {
	base  *Propagator
	limit int
}

// NewEnsemble runs at most limit propagations at a time. A limit below one
// uses the number of CPUs.
func NewEnsemble(p *Propagator, limit int) *Ensemble {
	if limit < 1 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{base: p, limit: limit}
}

// Run returns one result per start, in order. The first error cancels the
// remaining propagations.
func (e *Ensemble) Run(ctx context.Context, starts []track.Bound, opts Options) ([]*Result, error) {
	results := make([]*Result, len(starts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i, start := range starts {
		g.Go(func() error {
			r, err := e.base.Propagate(ctx, start, opts)
			results[i] = r
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
