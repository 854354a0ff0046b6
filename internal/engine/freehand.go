package engine

import (
	"math"

	"github.com/codecanvas/codecanvas/internal/document"
)

const (
	defaultPressure = 0.5
	minStrokePoints = 3
)

// StrokePoint is a captured canvas position with pen pressure in [0, 1].
type StrokePoint struct {
	X, Y, Pressure float64
}

// FreehandCapture accumulates a pencil stroke and turns it into a shape whose
// points are stored relative to the stroke's bounding box, so the stroke
// follows the shape when it is moved or resized.
type FreehandCapture struct {
	points []StrokePoint
	active bool
	style  document.ShapeStyle
	newID  func() string
}

func NewFreehandCapture(newID func() string) *FreehandCapture {
	return &FreehandCapture{newID: newID, style: document.DefaultProperties().DefaultShapeStyle}
}

// SetStyle sets the stroke color and width for the next completed stroke.
func (fc *FreehandCapture) SetStyle(s document.ShapeStyle) {
	fc.style = s
}

// Active reports whether a stroke is being captured.
func (fc *FreehandCapture) Active() bool { return fc.active }

// Begin starts a new stroke at canvas point p.
func (fc *FreehandCapture) Begin(p Point, pressure float64) {
	fc.points = fc.points[:0]
	fc.active = true
	fc.Add(p, pressure)
}

// Add appends a point to the current stroke.
func (fc *FreehandCapture) Add(p Point, pressure float64) {
	if !fc.active {
		return
	}
	if pressure <= 0 || math.IsNaN(pressure) {
		pressure = defaultPressure
	}
	fc.points = append(fc.points, StrokePoint{X: p.X, Y: p.Y, Pressure: math.Min(pressure, 1)})
}

// Points exposes the in-progress stroke for live preview. The slice is reused
// across strokes; callers must not retain it.
func (fc *FreehandCapture) Points() []StrokePoint {
	return fc.points
}

// Cancel drops the current stroke.
func (fc *FreehandCapture) Cancel() {
	fc.points = fc.points[:0]
	fc.active = false
}

// Complete ends the stroke. Strokes with fewer than three points are
// discarded.
func (fc *FreehandCapture) Complete() (document.Shape, bool) {
	defer fc.Cancel()
	if !fc.active || len(fc.points) < minStrokePoints {
		return document.Shape{}, false
	}

	x, y, w, h, pts := NormalizeStroke(fc.points)
	return document.Shape{
		Footprint: document.Footprint{
			ID:     fc.newID(),
			X:      x,
			Y:      y,
			Width:  w,
			Height: h,
		},
		Type:        document.ShapeTypePencil,
		StrokeColor: fc.style.StrokeColor,
		FillColor:   fc.style.StrokeColor,
		StrokeWidth: fc.style.StrokeWidth,
		Opacity:     1,
		Points:      pts,
	}, true
}

// NormalizeStroke returns the stroke's bounding box and its points mapped
// into [0, 1] relative to that box. An axis with no extent is given a size of
// one so the mapping stays invertible.
func NormalizeStroke(points []StrokePoint) (x, y, w, h float64, out [][3]float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	w = maxX - minX
	h = maxY - minY
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}

	out = make([][3]float64, len(points))
	for i, p := range points {
		out[i] = [3]float64{(p.X - minX) / w, (p.Y - minY) / h, p.Pressure}
	}
	return minX, minY, w, h, out
}

// Denormalize maps a pencil shape's stored points back to canvas space using
// its current footprint.
func Denormalize(s document.Shape) []StrokePoint {
	out := make([]StrokePoint, len(s.Points))
	for i, p := range s.Points {
		out[i] = StrokePoint{
			X:        s.X + p[0]*s.Width,
			Y:        s.Y + p[1]*s.Height,
			Pressure: p[2],
		}
	}
	return out
}
