package linkage

import (
	"fmt"
	"math"
)

// Branch selects one of the two mirror assemblies of the linkage.
type Branch int

const (
	// BranchMinus places the coupler at tilt+π minus the interior angle at
	// the crank end.
	BranchMinus Branch = iota
	// BranchPlus is the mirror solution.
	BranchPlus
)

func (b Branch) String() string {
	if b == BranchPlus {
		return "plus"
	}
	return "minus"
}

// Other returns the mirror branch.
func (b Branch) Other() Branch {
	if b == BranchPlus {
		return BranchMinus
	}
	return BranchPlus
}

// ParseBranch accepts "minus"/"-" and "plus"/"+".
func ParseBranch(s string) (Branch, error) {
	switch s {
	case "minus", "-":
		return BranchMinus, nil
	case "plus", "+":
		return BranchPlus, nil
	}
	return BranchMinus, fmt.Errorf("unknown branch: %s", s)
}

// Feasibility classifies the span against the triangle inequality.
type Feasibility int

const (
	Feasible Feasibility = iota
	// Overextended: span longer than fixed+link, clamped to the sum.
	Overextended
	// Underextended: span shorter than |fixed-link|, clamped to the difference.
	Underextended
)

func (f Feasibility) String() string {
	switch f {
	case Overextended:
		return "overextended"
	case Underextended:
		return "underextended"
	}
	return "feasible"
}

// Pose is the resolved geometry of one frame. All values are finite.
type Pose struct {
	Angle    float64
	CrankEnd Point

	// Span is the measured crank-end to fixed-pivot distance; SolvedSpan is
	// the same distance clamped into the closable range.
	Span        float64
	SolvedSpan  float64
	Feasibility Feasibility
	// Slack is the distance from the nearest dead point, negative when the
	// span had to be clamped.
	Slack float64

	// Tilt is the heading from the fixed pivot to the crank end.
	Tilt float64
	// FixedAngle is the law-of-cosines angle between the fixed and
	// connecting links, opposite the span: 0 fully folded, π fully extended.
	FixedAngle float64
	// Interior is the angle at the crank end between the span and the
	// connecting link.
	Interior float64

	Candidates [2]Point
	Branch     Branch
	Coupler    Point

	// CouplerAngle is the heading of the connecting link from the crank end;
	// RockerAngle is the heading of the fixed link from its pivot.
	CouplerAngle float64
	RockerAngle  float64
}

// NearToggle reports whether the mechanism is within tol of a dead point,
// where the two branches meet and a branch swap can occur.
func (p Pose) NearToggle(tol float64) bool {
	return p.Slack <= tol
}

// IsFinite reports whether every value of the pose is finite.
func (p Pose) IsFinite() bool {
	vals := []float64{p.Angle, p.Span, p.SolvedSpan, p.Slack, p.Tilt,
		p.FixedAngle, p.Interior, p.CouplerAngle, p.RockerAngle}
	for _, v := range vals {
		if !isFinite(v) {
			return false
		}
	}
	return p.CrankEnd.IsFinite() && p.Coupler.IsFinite() &&
		p.Candidates[0].IsFinite() && p.Candidates[1].IsFinite()
}

// Solve resolves the linkage at the given crank angle on the given branch.
// Unreachable spans are clamped to the nearest closable bound, so the
// result is always finite.
func Solve(crank Crank, fixed FixedLink, link ConnectingLink, angle float64, branch Branch) Pose {
	p := resolve(crank, fixed, link, angle)
	p.choose(branch, fixed)
	return p
}

// SolveNearest resolves the linkage choosing the branch whose coupler is
// closest to prev. Ties go to BranchMinus.
func SolveNearest(crank Crank, fixed FixedLink, link ConnectingLink, angle float64, prev Point) Pose {
	p := resolve(crank, fixed, link, angle)
	branch := BranchMinus
	if p.Candidates[BranchPlus].Distance(prev) < p.Candidates[BranchMinus].Distance(prev) {
		branch = BranchPlus
	}
	p.choose(branch, fixed)
	return p
}

func resolve(crank Crank, fixed FixedLink, link ConnectingLink, angle float64) Pose {
	f, c := fixed.Length, link.Length
	end := crank.End(angle)

	p := Pose{
		Angle:    angle,
		CrankEnd: end,
		Span:     end.Distance(fixed.Pivot),
		Tilt:     fixed.Pivot.Heading(end),
	}

	upper, lower := f+c, math.Abs(f-c)
	p.SolvedSpan = p.Span
	switch {
	case p.Span > upper:
		p.SolvedSpan, p.Feasibility = upper, Overextended
	case p.Span < lower:
		p.SolvedSpan, p.Feasibility = lower, Underextended
	}
	p.Slack = math.Min(upper-p.Span, p.Span-lower)

	p.FixedAngle = LawOfCosinesAngle(f, c, p.SolvedSpan)
	p.Interior = LawOfCosinesAngle(c, p.SolvedSpan, f)

	// Direction from the crank end back toward the fixed pivot.
	back := p.Tilt + math.Pi
	p.Candidates[BranchMinus] = end.Add(Polar(back-p.Interior, c))
	p.Candidates[BranchPlus] = end.Add(Polar(back+p.Interior, c))
	return p
}

func (p *Pose) choose(b Branch, fixed FixedLink) {
	p.Branch = b
	p.Coupler = p.Candidates[b]
	p.CouplerAngle = p.CrankEnd.Heading(p.Coupler)
	p.RockerAngle = fixed.Pivot.Heading(p.Coupler)
}
