package metrics

import "github.com/san-kum/linkage/internal/trace"

// ToggleCount counts entries into the dead-point band. Consecutive frames
// inside the band count once.
type ToggleCount struct {
	tolerance float64
	count     int
	inside    bool
}

func NewToggleCount(tolerance float64) *ToggleCount {
	return &ToggleCount{tolerance: tolerance}
}

func (t *ToggleCount) Name() string {
	return "toggles"
}

func (t *ToggleCount) Observe(f trace.Frame) {
	near := f.Pose.NearToggle(t.tolerance)
	if near && !t.inside {
		t.count++
	}
	t.inside = near
}

func (t *ToggleCount) Value() float64 {
	return float64(t.count)
}

func (t *ToggleCount) Reset() {
	t.count = 0
	t.inside = false
}
