package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/linkage/internal/linkage"
)

// frame maps model space onto an SVG viewport with 10% padding. Model Y
// grows upwards, SVG Y grows downwards; the flip happens here only.
type frame struct {
	minX, minY     float64
	rangeX, rangeY float64
	width, height  int
}

func fit(points []linkage.Point, width, height int) frame {
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	// Keep the aspect ratio so circles stay circles.
	sx := float64(width) / rangeX
	sy := float64(height) / rangeY
	if sx < sy {
		extra := float64(height)/sx - rangeY
		minY -= extra / 2
		rangeY += extra
	} else {
		extra := float64(width)/sy - rangeX
		minX -= extra / 2
		rangeX += extra
	}

	return frame{minX: minX, minY: minY, rangeX: rangeX, rangeY: rangeY, width: width, height: height}
}

func (f frame) project(p linkage.Point) (float64, float64) {
	x := (p.X - f.minX) / f.rangeX * float64(f.width)
	y := float64(f.height) - (p.Y-f.minY)/f.rangeY*float64(f.height)
	return x, y
}

func header(sb *strings.Builder, width, height int) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))
}

func writePath(sb *strings.Builder, f frame, points []linkage.Point, stroke string) {
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
	for i, p := range points {
		x, y := f.project(p)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")
}

// PathToSVG draws a polyline through points, e.g. a coupler curve.
func PathToSVG(points []linkage.Point, width, height int, stroke string) string {
	if len(points) < 2 {
		return ""
	}

	var sb strings.Builder
	header(&sb, width, height)
	writePath(&sb, fit(points, width, height), points, stroke)
	sb.WriteString("</svg>")
	return sb.String()
}

// PoseToSVG draws the mechanism at one pose over the coupler curve.
func PoseToSVG(m linkage.Mechanism, pose linkage.Pose, path []linkage.Point, width, height int) string {
	bounds := append([]linkage.Point{m.Crank.Pivot, m.Fixed.Pivot, pose.CrankEnd, pose.Coupler}, path...)
	f := fit(bounds, width, height)

	var sb strings.Builder
	header(&sb, width, height)
	if len(path) >= 2 {
		writePath(&sb, f, path, "#444466")
	}

	links := []struct {
		a, b  linkage.Point
		color string
	}{
		{m.Crank.Pivot, pose.CrankEnd, "#00ffff"},
		{pose.CrankEnd, pose.Coupler, "#ff00ff"},
		{m.Fixed.Pivot, pose.Coupler, "#ffff00"},
	}
	for _, l := range links {
		x1, y1 := f.project(l.a)
		x2, y2 := f.project(l.b)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="3"/>
`, x1, y1, x2, y2, l.color))
	}

	for _, p := range []linkage.Point{m.Crank.Pivot, m.Fixed.Pivot, pose.CrankEnd, pose.Coupler} {
		x, y := f.project(p)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="4" fill="#ffffff"/>
`, x, y))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
