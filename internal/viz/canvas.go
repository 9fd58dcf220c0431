package viz

import (
	"math"
	"strings"

	"github.com/san-kum/linkage/internal/linkage"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights a sub-pixel. The canvas is (Width*2) x (Height*4) sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether a sub-pixel is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle draws a circle outline of radius r sub-pixels.
func (c *Canvas) DrawCircle(cx, cy, r int) {
	if r <= 0 {
		c.Set(cx, cy)
		return
	}
	steps := max(16, 8*r)
	for i := 0; i < steps; i++ {
		s, co := math.Sincos(2 * math.Pi * float64(i) / float64(steps))
		c.Set(cx+int(math.Round(float64(r)*co)), cy+int(math.Round(float64(r)*s)))
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Viewport maps model space onto canvas sub-pixels with uniform scale.
// Model Y grows upwards; canvas rows grow downwards.
type Viewport struct {
	CenterX, CenterY float64
	Scale            float64
	Cols, Rows       int
}

// FitMechanism frames every position the mechanism can reach.
func FitMechanism(m linkage.Mechanism, c *Canvas) Viewport {
	cr, fr := m.Crank.Length, m.Fixed.Length
	minX := math.Min(m.Crank.Pivot.X-cr, m.Fixed.Pivot.X-fr)
	maxX := math.Max(m.Crank.Pivot.X+cr, m.Fixed.Pivot.X+fr)
	minY := math.Min(m.Crank.Pivot.Y-cr, m.Fixed.Pivot.Y-fr)
	maxY := math.Max(m.Crank.Pivot.Y+cr, m.Fixed.Pivot.Y+fr)

	cols, rows := c.Width*2, c.Height*4
	scale := math.Min(float64(cols-2)/(maxX-minX), float64(rows-2)/(maxY-minY))
	return Viewport{
		CenterX: (minX + maxX) / 2,
		CenterY: (minY + maxY) / 2,
		Scale:   scale,
		Cols:    cols,
		Rows:    rows,
	}
}

func (v Viewport) Project(p linkage.Point) (int, int) {
	x := float64(v.Cols)/2 + (p.X-v.CenterX)*v.Scale
	y := float64(v.Rows)/2 - (p.Y-v.CenterY)*v.Scale
	return int(math.Round(x)), int(math.Round(y))
}

func (v Viewport) segment(c *Canvas, a, b linkage.Point) {
	x0, y0 := v.Project(a)
	x1, y1 := v.Project(b)
	c.DrawLine(x0, y0, x1, y1)
}

// DrawPose draws the trail, the three moving links and the joints.
func DrawPose(c *Canvas, v Viewport, m linkage.Mechanism, p linkage.Pose, trail []linkage.Point) {
	for _, pt := range trail {
		c.Set(v.Project(pt))
	}

	v.segment(c, m.Crank.Pivot, p.CrankEnd)
	v.segment(c, p.CrankEnd, p.Coupler)
	v.segment(c, m.Fixed.Pivot, p.Coupler)

	for _, pivot := range []linkage.Point{m.Crank.Pivot, m.Fixed.Pivot} {
		x, y := v.Project(pivot)
		c.DrawCircle(x, y, 2)
	}
	x, y := v.Project(p.Coupler)
	c.DrawCircle(x, y, 1)
}
