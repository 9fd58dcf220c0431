package metrics

import (
	"github.com/san-kum/linkage/internal/linkage"
	"github.com/san-kum/linkage/internal/trace"
)

// PathLength accumulates the distance travelled by the coupler.
type PathLength struct {
	total float64
	last  linkage.Point
	seen  bool
}

func NewPathLength() *PathLength {
	return &PathLength{}
}

func (p *PathLength) Name() string {
	return "path_length"
}

func (p *PathLength) Observe(f trace.Frame) {
	if p.seen {
		p.total += p.last.Distance(f.Pose.Coupler)
	}
	p.last = f.Pose.Coupler
	p.seen = true
}

func (p *PathLength) Value() float64 {
	return p.total
}

func (p *PathLength) Reset() {
	p.total = 0
	p.seen = false
}
