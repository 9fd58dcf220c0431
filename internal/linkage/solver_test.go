package linkage_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/linkage/internal/linkage"
)

const tol = 1e-9

var _ = Describe("Solve", func() {
	var (
		crank linkage.Crank
		fixed linkage.FixedLink
		link  linkage.ConnectingLink
	)

	BeforeEach(func() {
		crank = linkage.Crank{Pivot: linkage.Point{X: -100, Y: -100}, Length: 120}
		fixed = linkage.FixedLink{Pivot: linkage.Point{X: 100, Y: 20}, Length: 200}
		link = linkage.ConnectingLink{Length: 170}
	})

	Context("reference mechanism at angle 0", func() {
		var pose linkage.Pose

		BeforeEach(func() {
			pose = linkage.Solve(crank, fixed, link, 0, linkage.BranchMinus)
		})

		It("places the crank end along +x", func() {
			Expect(pose.CrankEnd.X).To(BeNumerically("~", 20, tol))
			Expect(pose.CrankEnd.Y).To(BeNumerically("~", -100, tol))
		})

		It("measures the span to the fixed pivot", func() {
			Expect(pose.Span).To(BeNumerically("~", math.Sqrt(80*80+120*120), tol))
			Expect(pose.Feasibility).To(Equal(linkage.Feasible))
			Expect(pose.SolvedSpan).To(Equal(pose.Span))
		})

		It("computes tilt from the fixed pivot", func() {
			Expect(pose.Tilt).To(BeNumerically("~", math.Atan2(-120, -80), tol))
		})

		It("computes the law-of-cosines angle opposite the span", func() {
			c := pose.Span
			want := math.Acos((200*200 + 170*170 - c*c) / (2 * 200 * 170))
			Expect(pose.FixedAngle).To(BeNumerically("~", want, tol))
		})

		It("closes the triangle", func() {
			Expect(pose.Coupler.Distance(pose.CrankEnd)).To(BeNumerically("~", 170, 1e-9))
			Expect(pose.Coupler.Distance(fixed.Pivot)).To(BeNumerically("~", 200, 1e-9))
		})

		It("reports the branch it returned", func() {
			Expect(pose.Branch).To(Equal(linkage.BranchMinus))
			Expect(pose.Coupler).To(Equal(pose.Candidates[linkage.BranchMinus]))
		})
	})

	It("returns mirror candidates on the requested branch", func() {
		minus := linkage.Solve(crank, fixed, link, 1.2, linkage.BranchMinus)
		plus := linkage.Solve(crank, fixed, link, 1.2, linkage.BranchPlus)

		Expect(plus.Branch).To(Equal(linkage.BranchPlus))
		Expect(plus.Candidates).To(Equal(minus.Candidates))
		Expect(plus.Coupler).NotTo(Equal(minus.Coupler))

		for _, p := range minus.Candidates {
			Expect(p.Distance(minus.CrankEnd)).To(BeNumerically("~", link.Length, 1e-9))
			Expect(p.Distance(fixed.Pivot)).To(BeNumerically("~", fixed.Length, 1e-9))
		}
	})

	It("keeps the crank end at crank length for every angle", func() {
		for i := 0; i < 720; i++ {
			a := float64(i) * 2 * math.Pi / 720
			p := linkage.Solve(crank, fixed, link, a, linkage.BranchMinus)
			Expect(p.CrankEnd.Distance(crank.Pivot)).To(BeNumerically("~", crank.Length, 1e-9*crank.Length))
		}
	})

	It("never returns non-finite values", func() {
		lengths := []float64{1e-170, 1e-6, 0.5, 1, 7, 120, 1e6, 1e200}
		for _, cl := range lengths {
			for _, fl := range lengths {
				for _, ll := range lengths {
					for i := 0; i < 16; i++ {
						a := float64(i) * 2 * math.Pi / 16
						p := linkage.Solve(
							linkage.Crank{Pivot: crank.Pivot, Length: cl},
							linkage.FixedLink{Pivot: fixed.Pivot, Length: fl},
							linkage.ConnectingLink{Length: ll},
							a, linkage.BranchPlus,
						)
						Expect(p.IsFinite()).To(BeTrue(), "crank=%g fixed=%g link=%g angle=%g", cl, fl, ll, a)
					}
				}
			}
		}
	})

	It("solves the same shape at any scale", func() {
		shape := func(l float64) linkage.Pose {
			return linkage.Solve(
				linkage.Crank{Length: l},
				linkage.FixedLink{Pivot: linkage.Point{X: 3 * l}, Length: 2 * l},
				linkage.ConnectingLink{Length: 2 * l},
				0.3, linkage.BranchMinus,
			)
		}
		unit := shape(1)
		for _, l := range []float64{1e-170, 1e-100, 1e100, 1e200} {
			p := shape(l)
			Expect(p.IsFinite()).To(BeTrue(), "scale %g", l)
			Expect(p.FixedAngle).To(BeNumerically("~", unit.FixedAngle, 1e-12), "scale %g", l)
			Expect(p.Interior).To(BeNumerically("~", unit.Interior, 1e-12), "scale %g", l)
			Expect(p.Coupler.X/l).To(BeNumerically("~", unit.Coupler.X, 1e-9), "scale %g", l)
			Expect(p.Coupler.Y/l).To(BeNumerically("~", unit.Coupler.Y, 1e-9), "scale %g", l)
		}
	})

	Context("when the span cannot be closed", func() {
		It("clamps an overextended span to full extension", func() {
			short := linkage.FixedLink{Pivot: linkage.Point{X: 1000, Y: 0}, Length: 10}
			p := linkage.Solve(linkage.Crank{Length: 5}, short, linkage.ConnectingLink{Length: 10}, 0, linkage.BranchMinus)

			Expect(p.Feasibility).To(Equal(linkage.Overextended))
			Expect(p.SolvedSpan).To(Equal(20.0))
			Expect(p.FixedAngle).To(Equal(math.Pi))
			Expect(p.Slack).To(BeNumerically("<", 0))
			Expect(p.Coupler.Distance(p.CrankEnd)).To(BeNumerically("~", 10, 1e-9))
			Expect(p.IsFinite()).To(BeTrue())
		})

		It("clamps an underextended span to full fold", func() {
			near := linkage.FixedLink{Pivot: linkage.Point{X: 6, Y: 0}, Length: 100}
			p := linkage.Solve(linkage.Crank{Length: 5}, near, linkage.ConnectingLink{Length: 10}, 0, linkage.BranchMinus)

			Expect(p.Feasibility).To(Equal(linkage.Underextended))
			Expect(p.SolvedSpan).To(Equal(90.0))
			Expect(p.FixedAngle).To(Equal(0.0))
			Expect(p.IsFinite()).To(BeTrue())
		})
	})

	Context("when the crank end sits on the fixed pivot", func() {
		It("defines tilt as zero", func() {
			on := linkage.FixedLink{Pivot: linkage.Point{X: 10, Y: 0}, Length: 5}
			p := linkage.Solve(linkage.Crank{Length: 10}, on, linkage.ConnectingLink{Length: 5}, 0, linkage.BranchMinus)

			Expect(p.Span).To(BeNumerically("~", 0, tol))
			Expect(p.Tilt).To(Equal(0.0))
			Expect(p.IsFinite()).To(BeTrue())
		})
	})

	It("round-trips the law of cosines for feasible poses", func() {
		for i := 0; i < 360; i++ {
			a := float64(i) * 2 * math.Pi / 360
			p := linkage.Solve(crank, fixed, link, a, linkage.BranchMinus)
			if p.Feasibility != linkage.Feasible {
				continue
			}
			Expect(linkage.LawOfCosinesSide(fixed.Length, link.Length, p.FixedAngle)).
				To(BeNumerically("~", p.Span, 1e-6))
			// Solving the same triangle for the connecting link from the
			// other two sides and the angle at the crank end.
			Expect(linkage.LawOfCosinesSide(p.Span, link.Length, p.Interior)).
				To(BeNumerically("~", fixed.Length, 1e-6))
		}
	})
})

var _ = Describe("SolveNearest", func() {
	// Crank-rocker: the span stays between 80 and 120, always closable.
	crank := linkage.Crank{Length: 20}
	fixed := linkage.FixedLink{Pivot: linkage.Point{X: 100}, Length: 80}
	link := linkage.ConnectingLink{Length: 90}

	It("follows the branch of the previous coupler", func() {
		start := linkage.Solve(crank, fixed, link, 0, linkage.BranchPlus)
		prev := start.Coupler
		for i := 1; i <= 360; i++ {
			a := float64(i) * 2 * math.Pi / 360
			p := linkage.SolveNearest(crank, fixed, link, a, prev)
			Expect(p.Branch).To(Equal(linkage.BranchPlus))
			Expect(p.Coupler.Distance(prev)).To(BeNumerically("<", 5))
			prev = p.Coupler
		}
	})

	It("picks the minus branch on a tie", func() {
		// At full extension the interior angle is exactly zero and both
		// candidates are the same point, so every prev is equidistant.
		toggleFixed := linkage.FixedLink{Pivot: linkage.Point{X: 100}, Length: 60}
		toggleLink := linkage.ConnectingLink{Length: 60}
		prev := linkage.Point{X: 40, Y: 25}

		p := linkage.SolveNearest(crank, toggleFixed, toggleLink, math.Pi, prev)
		Expect(p.Interior).To(Equal(0.0))
		Expect(p.Candidates[linkage.BranchMinus].Distance(prev)).
			To(Equal(p.Candidates[linkage.BranchPlus].Distance(prev)))
		Expect(p.Branch).To(Equal(linkage.BranchMinus))
	})
})

var _ = Describe("Pose.NearToggle", func() {
	It("flags the dead point where the span is fully extended", func() {
		crank := linkage.Crank{Length: 20}
		fixed := linkage.FixedLink{Pivot: linkage.Point{X: 100}, Length: 60}
		link := linkage.ConnectingLink{Length: 60}

		dead := linkage.Solve(crank, fixed, link, math.Pi, linkage.BranchMinus)
		Expect(dead.NearToggle(1e-6)).To(BeTrue())
		Expect(dead.Candidates[0].Distance(dead.Candidates[1])).To(BeNumerically("<", 1e-3))

		open := linkage.Solve(crank, fixed, link, 0, linkage.BranchMinus)
		Expect(open.NearToggle(1e-6)).To(BeFalse())
		Expect(open.Slack).To(BeNumerically("~", 40, 1e-9))
	})
})

var _ = DescribeTable("ParseBranch",
	func(in string, want linkage.Branch, ok bool) {
		got, err := linkage.ParseBranch(in)
		if !ok {
			Expect(err).To(HaveOccurred())
			return
		}
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
		Expect(got.Other().Other()).To(Equal(got))
	},
	Entry("minus", "minus", linkage.BranchMinus, true),
	Entry("dash", "-", linkage.BranchMinus, true),
	Entry("plus", "plus", linkage.BranchPlus, true),
	Entry("sign", "+", linkage.BranchPlus, true),
	Entry("unknown", "up", linkage.BranchMinus, false),
)
