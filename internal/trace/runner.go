package trace

import (
	"context"

	"github.com/san-kum/linkage/internal/linkage"
)

// Runner drives a mechanism through frames on a synthetic clock. It plays
// the part of a render loop: one Advance and one Solve per frame.
type Runner struct {
	metrics   []Metric
	observers []Observer
}

func New() *Runner {
	return &Runner{
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Run(ctx context.Context, st linkage.MechanismState, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	result := &Result{
		Frames:  make([]Frame, 0, steps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	err := r.loop(ctx, st, cfg, func(f Frame, s linkage.MechanismState) bool {
		for _, m := range r.metrics {
			m.Observe(f)
		}
		result.Frames = append(result.Frames, f)
		result.Final = s
		return true
	})

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, err
}

// RunWithCallback streams frames to fn until it returns false or the run
// ends. Metrics are not collected.
func (r *Runner) RunWithCallback(ctx context.Context, st linkage.MechanismState, cfg Config, fn func(Frame) bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return r.loop(ctx, st, cfg, func(f Frame, _ linkage.MechanismState) bool {
		return fn(f)
	})
}

func (r *Runner) loop(ctx context.Context, st linkage.MechanismState, cfg Config, emit func(Frame, linkage.MechanismState) bool) error {
	start := st.Timestamp
	steps := cfg.Steps()

	var prev linkage.Pose
	for i := 0; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if i > 0 {
			st = st.Step(start.Add(cfg.FrameTime(i)))
		}

		pose := SolveFrame(st, cfg.Branch, prev, i == 0)
		prev = pose

		f := Frame{
			Index: i,
			Time:  st.Timestamp.Sub(start).Seconds(),
			Angle: st.Angle,
			RPM:   st.Mechanism.Crank.RPM,
			Pose:  pose,
		}
		for _, o := range r.observers {
			o.OnFrame(f)
		}
		if !emit(f, st) {
			return nil
		}
	}
	return nil
}

// SolveFrame resolves st under mode. prev is the pose of the previous
// frame and is ignored on the first one.
func SolveFrame(st linkage.MechanismState, mode BranchMode, prev linkage.Pose, first bool) linkage.Pose {
	switch {
	case mode == BranchPlus:
		return st.Pose(linkage.BranchPlus)
	case mode == BranchNearest && !first:
		return st.PoseNearest(prev.Coupler)
	}
	return st.Pose(linkage.BranchMinus)
}
