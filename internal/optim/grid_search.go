// Package optim searches mechanism parameters for the best traced metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/linkage/internal/linkage"
	"github.com/san-kum/linkage/internal/trace"
)

var ErrNoCandidate = errors.New("optim: no parameter combination produced a valid mechanism")

// Goal selects whether a metric is minimized or maximized.
type Goal int

const (
	Minimize Goal = iota
	Maximize
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

// NewGridSearch searches the cartesian product of ranges; params[i] takes
// the values of ranges[i]. Names are those of linkage.Mechanism.WithParam.
func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// Candidate is one evaluated parameter set.
type Candidate struct {
	Params map[string]float64
	Value  float64
}

// Search traces base with every parameter combination and returns the best
// one for metricName. Combinations that do not validate are skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	base linkage.Mechanism,
	cfg trace.Config,
	newMetrics func() []trace.Metric,
	metricName string,
	goal Goal,
) (Candidate, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Candidate{}, fmt.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}
	if err := cfg.Validate(); err != nil {
		return Candidate{}, err
	}

	best := Candidate{Value: math.Inf(1)}
	if goal == Maximize {
		best.Value = math.Inf(-1)
	}
	found := false

	eval := func(params map[string]float64) error {
		m := base
		for name, v := range params {
			var err error
			if m, err = m.WithParam(name, v); err != nil {
				if errors.Is(err, linkage.ErrNonPositiveLength) || errors.Is(err, linkage.ErrNonFinite) {
					return nil
				}
				return err
			}
		}
		st, err := linkage.NewState(m, time.Unix(0, 0))
		if err != nil {
			return nil
		}

		r := trace.New()
		for _, metric := range newMetrics() {
			r.AddMetric(metric)
		}
		result, err := r.Run(ctx, st, cfg)
		if err != nil {
			return err
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("optim: unknown metric: %s", metricName)
		}
		if !found || better(goal, val, best.Value) {
			found = true
			best = Candidate{Params: copyParams(params), Value: val}
		}
		return nil
	}

	if err := g.searchRecursive(0, make(map[string]float64), eval); err != nil {
		return Candidate{}, err
	}
	if !found {
		return Candidate{}, ErrNoCandidate
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(depth int, current map[string]float64, eval func(map[string]float64) error) error {
	if depth == len(g.paramNames) {
		return eval(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := copyParams(current)
		newParams[paramName] = val

		if err := g.searchRecursive(depth+1, newParams, eval); err != nil {
			return err
		}
	}
	return nil
}

func better(goal Goal, v, best float64) bool {
	if goal == Maximize {
		return v > best
	}
	return v < best
}

func copyParams(p map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
