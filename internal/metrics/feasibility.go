package metrics

import (
	"github.com/san-kum/linkage/internal/linkage"
	"github.com/san-kum/linkage/internal/trace"
)

// ClampRatio is the share of frames whose span had to be clamped.
type ClampRatio struct {
	name       string
	violations int
	samples    int
}

func NewClampRatio() *ClampRatio {
	return &ClampRatio{
		name: "clamp_ratio",
	}
}

func (c *ClampRatio) Name() string {
	return c.name
}

func (c *ClampRatio) Observe(f trace.Frame) {
	c.samples++
	if f.Pose.Feasibility != linkage.Feasible {
		c.violations++
	}
}

func (c *ClampRatio) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.violations) / float64(c.samples)
}

func (c *ClampRatio) Reset() {
	c.violations = 0
	c.samples = 0
}
