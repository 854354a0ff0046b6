package engine

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const capSegments = 6

// StrokeOutline returns a closed polygon around a pressure-sensitive stroke.
// Each point is offset along its normal by half of size scaled by its
// pressure; the ends are closed with round caps.
func StrokeOutline(points []StrokePoint, size float64) []Point {
	switch len(points) {
	case 0:
		return nil
	case 1:
		p := points[0]
		return circle(Point{X: p.X, Y: p.Y}, radius(p, size))
	}

	n := len(points)
	left := make([]Point, n)
	right := make([]Point, n)
	for i, p := range points {
		prev := points[max(i-1, 0)]
		next := points[min(i+1, n-1)]
		dir := r2.Sub(Point{X: next.X, Y: next.Y}, Point{X: prev.X, Y: prev.Y})
		if r2.Norm(dir) == 0 {
			dir = Point{X: 1}
		}
		dir = r2.Unit(dir)
		normal := Point{X: -dir.Y, Y: dir.X}
		c := Point{X: p.X, Y: p.Y}
		r := radius(p, size)
		left[i] = r2.Add(c, r2.Scale(r, normal))
		right[i] = r2.Sub(c, r2.Scale(r, normal))
	}

	out := make([]Point, 0, 2*n+2*capSegments)
	out = append(out, left...)
	last := points[n-1]
	out = append(out, arc(Point{X: last.X, Y: last.Y}, left[n-1], capSegments)...)
	for i := n - 1; i >= 0; i-- {
		out = append(out, right[i])
	}
	first := points[0]
	out = append(out, arc(Point{X: first.X, Y: first.Y}, right[0], capSegments)...)
	return out
}

// OutlinePath converts a polygon to closed path commands.
func OutlinePath(poly []Point) []PathCommand {
	if len(poly) == 0 {
		return nil
	}
	path := make([]PathCommand, 0, len(poly)+1)
	path = append(path, PathCommand{"M", poly[0].X, poly[0].Y})
	for _, p := range poly[1:] {
		path = append(path, PathCommand{"L", p.X, p.Y})
	}
	return append(path, PathCommand{"Z"})
}

func radius(p StrokePoint, size float64) float64 {
	return math.Max(size/2*p.Pressure, 0.25)
}

// arc sweeps half a turn around center starting just after from. The sweep
// runs counter-clockwise on screen so caps bulge away from the stroke.
func arc(center, from Point, segments int) []Point {
	rot := make([]Point, 0, segments-1)
	for i := 1; i < segments; i++ {
		a := -math.Pi * float64(i) / float64(segments)
		rot = append(rot, r2.Rotate(from, a, center))
	}
	return rot
}

func circle(center Point, r float64) []Point {
	pts := make([]Point, 0, 2*capSegments)
	for i := 0; i < 2*capSegments; i++ {
		a := math.Pi * float64(i) / capSegments
		pts = append(pts, Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)})
	}
	return pts
}
