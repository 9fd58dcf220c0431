package trace

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/linkage/internal/linkage"
)

// BranchMode decides which assembly each frame resolves to.
type BranchMode int

const (
	BranchMinus BranchMode = iota
	BranchPlus
	// BranchNearest keeps the coupler continuous, starting on the minus
	// branch and following whichever candidate is closest to the last frame.
	BranchNearest
)

func (b BranchMode) String() string {
	switch b {
	case BranchPlus:
		return "plus"
	case BranchNearest:
		return "nearest"
	}
	return "minus"
}

func ParseBranchMode(s string) (BranchMode, error) {
	switch s {
	case "minus", "-":
		return BranchMinus, nil
	case "plus", "+":
		return BranchPlus, nil
	case "nearest", "":
		return BranchNearest, nil
	}
	return BranchNearest, fmt.Errorf("unknown branch mode: %s", s)
}

// Next returns the mode after b, wrapping around.
func (b BranchMode) Next() BranchMode {
	return (b + 1) % 3
}

type Config struct {
	FPS      int
	Duration time.Duration
	Branch   BranchMode
}

func DefaultConfig() Config {
	return Config{
		FPS:      60,
		Duration: 6 * time.Second,
		Branch:   BranchNearest,
	}
}

func (c Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if time.Second/time.Duration(c.FPS) == 0 {
		return fmt.Errorf("fps must be at most %d, got %d", int64(time.Second), c.FPS)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", c.Duration)
	}
	return nil
}

// FrameInterval is the synthetic clock tick, truncated to a nanosecond.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// FrameTime is the offset of frame i from the first frame. It is computed
// from i directly so truncated ticks do not accumulate.
func (c Config) FrameTime(i int) time.Duration {
	fps := int64(c.FPS)
	whole, rest := int64(i)/fps, int64(i)%fps
	return time.Duration(whole)*time.Second + time.Duration(rest*int64(time.Second)/fps)
}

// Steps is the number of ticks after the initial frame.
func (c Config) Steps() int {
	d, fps := int64(c.Duration), int64(c.FPS)
	if d > math.MaxInt64/fps {
		return int(c.Duration.Seconds() * float64(c.FPS))
	}
	return int(d * fps / int64(time.Second))
}

type Frame struct {
	Index int
	// Time is seconds since the first frame.
	Time  float64
	Angle float64
	RPM   float64
	Pose  linkage.Pose
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

type Result struct {
	Frames  []Frame
	Metrics map[string]float64
	Final   linkage.MechanismState
}

// CouplerPath returns the coupler positions of every frame.
func (r *Result) CouplerPath() []linkage.Point {
	pts := make([]linkage.Point, len(r.Frames))
	for i, f := range r.Frames {
		pts[i] = f.Pose.Coupler
	}
	return pts
}

// Series extracts one value per frame.
func (r *Result) Series(fn func(Frame) float64) []float64 {
	out := make([]float64, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = fn(f)
	}
	return out
}
