package trace

import (
	"context"

	"github.com/san-kum/linkage/internal/linkage"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent mechanisms concurrently. Mechanisms share
// nothing, so each gets its own Runner and its own metrics.
type Ensemble struct {
	newMetrics func() []Metric
	limit      int
}

// NewEnsemble builds an ensemble. newMetrics may be nil; limit <= 0 means
// no bound on concurrent runs.
func NewEnsemble(newMetrics func() []Metric, limit int) *Ensemble {
	return &Ensemble{newMetrics: newMetrics, limit: limit}
}

func (e *Ensemble) Run(ctx context.Context, states []linkage.MechanismState, cfg Config) ([]*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Result, len(states))
	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, st := range states {
		i, st := i, st
		g.Go(func() error {
			r := New()
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					r.AddMetric(m)
				}
			}
			res, err := r.Run(ctx, st, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
