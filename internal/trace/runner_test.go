package trace

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/san-kum/linkage/internal/linkage"
)

func testState(t *testing.T, rpm float64) linkage.MechanismState {
	t.Helper()
	m := linkage.Mechanism{
		Crank: linkage.Crank{Length: 20, RPM: rpm},
		Fixed: linkage.FixedLink{Pivot: linkage.Point{X: 100}, Length: 80},
		Link:  linkage.ConnectingLink{Length: 90},
	}
	st, err := linkage.NewState(m, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	return st
}

func TestRunnerRun(t *testing.T) {
	r := New()
	cfg := Config{FPS: 10, Duration: time.Second, Branch: BranchMinus}

	result, err := r.Run(context.Background(), testState(t, 10), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Frames) != 11 {
		t.Fatalf("expected 11 frames, got %d", len(result.Frames))
	}

	last := result.Frames[len(result.Frames)-1]
	if math.Abs(last.Time-1.0) > 1e-9 {
		t.Errorf("expected last frame at 1s, got %v", last.Time)
	}
	if math.Abs(last.Angle-math.Pi/3) > 1e-9 {
		t.Errorf("expected π/3 after one second at 10 rpm, got %v", last.Angle)
	}
	if math.Abs(result.Final.Angle-last.Angle) > 0 {
		t.Error("final state should match the last frame")
	}

	for i, f := range result.Frames {
		if f.Index != i {
			t.Errorf("frame %d has index %d", i, f.Index)
		}
		if f.Pose.Branch != linkage.BranchMinus {
			t.Errorf("frame %d on %v branch", i, f.Pose.Branch)
		}
	}
}

func TestRunnerInvalidConfig(t *testing.T) {
	r := New()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero fps", Config{FPS: 0, Duration: time.Second}},
		{"negative fps", Config{FPS: -5, Duration: time.Second}},
		{"zero duration", Config{FPS: 30, Duration: 0}},
		{"negative duration", Config{FPS: 30, Duration: -time.Second}},
		{"tick below a nanosecond", Config{FPS: 2_000_000_000, Duration: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Run(context.Background(), testState(t, 10), tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

type countMetric struct {
	count int
}

func (c *countMetric) Name() string    { return "count" }
func (c *countMetric) Observe(f Frame) { c.count++ }
func (c *countMetric) Value() float64  { return float64(c.count) }
func (c *countMetric) Reset()          { c.count = 0 }

func TestRunnerMetrics(t *testing.T) {
	r := New()
	m := &countMetric{count: 99}
	r.AddMetric(m)

	result, err := r.Run(context.Background(), testState(t, 10), Config{FPS: 20, Duration: time.Second})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := result.Metrics["count"]; got != 21 {
		t.Errorf("expected 21 observations, got %v", got)
	}
}

type recorder struct {
	times []float64
}

func (r *recorder) OnFrame(f Frame) { r.times = append(r.times, f.Time) }

func TestRunnerObserver(t *testing.T) {
	r := New()
	rec := &recorder{}
	r.AddObserver(rec)

	if _, err := r.Run(context.Background(), testState(t, 10), Config{FPS: 4, Duration: time.Second}); err != nil {
		t.Fatal(err)
	}

	want := []float64{0, 0.25, 0.5, 0.75, 1}
	if diff := cmp.Diff(want, rec.times, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("observer times mismatch (-want +got):\n%s", diff)
	}
}

func TestRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New().Run(ctx, testState(t, 10), DefaultConfig())
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result == nil || len(result.Frames) != 0 {
		t.Error("expected an empty partial result")
	}
}

func TestRunnerNearestIsContinuous(t *testing.T) {
	cfg := Config{FPS: 120, Duration: 2 * time.Second, Branch: BranchNearest}
	result, err := New().Run(context.Background(), testState(t, 30), cfg)
	if err != nil {
		t.Fatal(err)
	}

	path := result.CouplerPath()
	for i := 1; i < len(path); i++ {
		if d := path[i].Distance(path[i-1]); d > 5 {
			t.Fatalf("coupler jumped %.2f between frames %d and %d", d, i-1, i)
		}
	}
}

func TestRunWithCallback(t *testing.T) {
	seen := 0
	err := New().RunWithCallback(context.Background(), testState(t, 10), DefaultConfig(), func(f Frame) bool {
		seen++
		return f.Index < 4
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen != 5 {
		t.Errorf("expected 5 frames before stop, got %d", seen)
	}
}

func TestParseBranchMode(t *testing.T) {
	tests := []struct {
		in   string
		want BranchMode
		ok   bool
	}{
		{"minus", BranchMinus, true},
		{"+", BranchPlus, true},
		{"nearest", BranchNearest, true},
		{"", BranchNearest, true},
		{"sideways", BranchNearest, false},
	}

	for _, tt := range tests {
		got, err := ParseBranchMode(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseBranchMode(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBranchMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if tt.ok && got.Next().Next().Next() != got {
			t.Errorf("Next should cycle through three modes")
		}
	}
}

func TestEnsembleMatchesSequential(t *testing.T) {
	cfg := Config{FPS: 30, Duration: time.Second, Branch: BranchNearest}
	states := []linkage.MechanismState{
		testState(t, 10),
		testState(t, -20),
		testState(t, 0),
		testState(t, 45),
	}

	ens := NewEnsemble(func() []Metric { return []Metric{&countMetric{}} }, 2)
	results, err := ens.Run(context.Background(), states, cfg)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != len(states) {
		t.Fatalf("expected %d results, got %d", len(states), len(results))
	}

	for i, st := range states {
		seq, err := New().Run(context.Background(), st, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(seq.Frames, results[i].Frames); diff != "" {
			t.Errorf("mechanism %d differs (-seq +ens):\n%s", i, diff)
		}
		if results[i].Metrics["count"] != 31 {
			t.Errorf("mechanism %d: expected 31 observations, got %v", i, results[i].Metrics["count"])
		}
	}
}

func TestEnsembleInvalidConfig(t *testing.T) {
	_, err := NewEnsemble(nil, 0).Run(context.Background(), []linkage.MechanismState{testState(t, 1)}, Config{})
	if err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestFrameTimeDoesNotDrift(t *testing.T) {
	for _, fps := range []int{3, 7, 60, 90} {
		cfg := Config{FPS: fps, Duration: 2 * time.Second, Branch: BranchMinus}
		result, err := New().Run(context.Background(), testState(t, 10), cfg)
		if err != nil {
			t.Fatalf("fps=%d: %v", fps, err)
		}
		if got, want := len(result.Frames), 2*fps+1; got != want {
			t.Errorf("fps=%d: expected %d frames, got %d", fps, want, got)
		}
		if last := result.Frames[len(result.Frames)-1].Time; last != 2 {
			t.Errorf("fps=%d: last frame at %.12f, want 2", fps, last)
		}
		if got := cfg.FrameTime(fps); got != time.Second {
			t.Errorf("fps=%d: frame %d at %v, want 1s", fps, fps, got)
		}
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		cfg  Config
		want int
	}{
		{Config{FPS: 3, Duration: time.Second}, 3},
		{Config{FPS: 60, Duration: 6 * time.Second}, 360},
		{Config{FPS: 30, Duration: 1500 * time.Millisecond}, 45},
		{Config{FPS: 10, Duration: 250 * time.Millisecond}, 2},
	}
	for _, tt := range tests {
		if got := tt.cfg.Steps(); got != tt.want {
			t.Errorf("Steps(%+v) = %d, want %d", tt.cfg, got, tt.want)
		}
	}
}
