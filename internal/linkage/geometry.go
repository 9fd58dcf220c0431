package linkage

import "math"

// Point is a position in model space.
type Point struct {
	X, Y float64
}

// Polar returns the point at the given angle and distance from the origin.
func Polar(angle, length float64) Point {
	s, c := math.Sincos(angle)
	return Point{X: length * c, Y: length * s}
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Heading returns the direction from p to q. It is 0 when p == q.
func (p Point) Heading(q Point) float64 {
	dx, dy := q.X-p.X, q.Y-p.Y
	if dx == 0 && dy == 0 {
		return 0
	}
	return math.Atan2(dy, dx)
}

func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LawOfCosinesSide returns the side opposite gamma in a triangle with
// adjacent sides a and b.
func LawOfCosinesSide(a, b, gamma float64) float64 {
	s := math.Max(a, b)
	if s == 0 {
		return 0
	}
	a, b = a/s, b/s
	c2 := a*a + b*b - 2*a*b*math.Cos(gamma)
	if c2 < 0 {
		return 0
	}
	return s * math.Sqrt(c2)
}

// LawOfCosinesAngle returns the angle opposite c, with the cosine clamped
// into [-1, 1] so that slightly inconsistent sides never produce NaN.
// Sides are scaled by the longest first; the angle does not depend on scale
// and squaring very large or very small lengths would overflow or underflow.
func LawOfCosinesAngle(a, b, c float64) float64 {
	if a == 0 || b == 0 {
		return math.Pi / 2
	}
	s := math.Max(a, math.Max(b, c))
	a, b, c = a/s, b/s, c/s
	cos := (a*a + b*b - c*c) / (2 * a * b)
	if math.IsNaN(cos) {
		// a or b vanished against the longest side.
		return math.Pi / 2
	}
	return math.Acos(clamp(cos, -1, 1))
}
