package engine

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/codecanvas/codecanvas/internal/document"
)

// Point is a 2D position in either screen or canvas space.
type Point = r2.Vec

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], etc.
type PathCommand []interface{}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the rect spanned by two corners in any order.
func RectFromPoints(a, b Point) Rect {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects reports whether the two rects overlap. Touching edges count,
// and degenerate rects (a connection between two points on one axis) are
// still tested by their extent.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width && other.X <= r.X+r.Width &&
		r.Y <= other.Y+other.Height && other.Y <= r.Y+r.Height
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// FootprintRect returns the unrotated rect of f, substituting size for
// unknown dimensions.
func FootprintRect(f document.Footprint, size Size) Rect {
	w, h := f.Width, f.Height
	if w <= 0 {
		w = size.Width
	}
	if h <= 0 {
		h = size.Height
	}
	return Rect{X: f.X, Y: f.Y, Width: w, Height: h}
}

// FootprintBounds returns the axis-aligned bounds of f after rotation about
// its center.
func FootprintBounds(f document.Footprint, size Size) Rect {
	r := FootprintRect(f, size)
	if f.Rotation == 0 {
		return r
	}
	return footprintMatrix(r, f.Rotation).TransformRect(Rect{Width: r.Width, Height: r.Height})
}

// footprintMatrix maps local footprint coordinates (origin at the top-left of
// the unrotated box) into canvas space, rotating about the box center.
func footprintMatrix(r Rect, rotation float64) Matrix2D {
	return FromTransform(r.X, r.Y, 1, 1, rotation, r.Width/2, r.Height/2)
}

// Size is a width/height pair in canvas units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
