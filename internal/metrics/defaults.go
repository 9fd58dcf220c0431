package metrics

import "github.com/san-kum/linkage/internal/trace"

// DefaultToggleTolerance is the span slack, in model units, treated as a
// dead point.
const DefaultToggleTolerance = 0.5

// Defaults returns a fresh set of the standard run metrics.
func Defaults() []trace.Metric {
	return []trace.Metric{
		NewPathLength(),
		NewClampRatio(),
		NewToggleCount(DefaultToggleTolerance),
		NewExcursion(),
	}
}
