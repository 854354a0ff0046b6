package engine

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/codecanvas/codecanvas/internal/document"
)

const (
	DefaultMinScale          = 0.1
	DefaultMaxScale          = 5.0
	DefaultViewportSyncDelay = 150 * time.Millisecond

	wheelZoomBase = 1.1
)

// WheelInput is a wheel event in screen coordinates. Modifier is set when
// ctrl or meta was held, which turns the wheel into zoom.
type WheelInput struct {
	X        float64 `json:"x" toml:"x"`
	Y        float64 `json:"y" toml:"y"`
	DeltaX   float64 `json:"deltaX" toml:"delta_x"`
	DeltaY   float64 `json:"deltaY" toml:"delta_y"`
	Modifier bool    `json:"modifier" toml:"modifier"`
}

// ViewportTransform holds the live scale and offset that map canvas space to
// screen space, plus a committed copy that observers read. The live values
// change on every event; the committed copy is synced at gesture end or once
// input has been idle for the sync delay.
type ViewportTransform struct {
	scale  float64
	offset Point

	minScale, maxScale float64

	pinching  bool
	pinchDist float64

	committed document.Viewport
	changed   bool // mutated since the last Settle
	unsynced  bool // live differs from committed
	lastInput time.Duration
	syncDelay time.Duration
}

func NewViewportTransform(minScale, maxScale float64, syncDelay time.Duration) *ViewportTransform {
	if minScale <= 0 {
		minScale = DefaultMinScale
	}
	if maxScale < minScale {
		maxScale = DefaultMaxScale
	}
	v := &ViewportTransform{
		scale:     1,
		minScale:  minScale,
		maxScale:  maxScale,
		syncDelay: syncDelay,
	}
	v.committed = v.Live()
	return v
}

// Live returns the current, possibly unsynced, viewport.
func (v *ViewportTransform) Live() document.Viewport {
	return document.Viewport{Scale: v.scale, OffsetX: v.offset.X, OffsetY: v.offset.Y}
}

// Committed returns the viewport last published to observers.
func (v *ViewportTransform) Committed() document.Viewport {
	return v.committed
}

// Set replaces both live and committed state, e.g. when a project is loaded.
func (v *ViewportTransform) Set(vp document.Viewport) {
	v.scale = clamp(vp.Scale, v.minScale, v.maxScale)
	if vp.Scale == 0 {
		v.scale = 1
	}
	v.offset = Point{X: vp.OffsetX, Y: vp.OffsetY}
	v.pinching = false
	v.sync()
}

// Scale returns the live scale.
func (v *ViewportTransform) Scale() float64 { return v.scale }

// Offset returns the live offset.
func (v *ViewportTransform) Offset() Point { return v.offset }

// Pan moves the view by a screen-space delta.
func (v *ViewportTransform) Pan(dx, dy float64) {
	v.offset = r2.Add(v.offset, Point{X: dx, Y: dy})
	v.touch()
}

// ZoomAt scales the view by factor while keeping the canvas point under the
// screen point p fixed. The resulting scale is clamped to the allowed range.
func (v *ViewportTransform) ZoomAt(p Point, factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	newScale := clamp(v.scale*factor, v.minScale, v.maxScale)
	ratio := newScale / v.scale
	v.offset = r2.Sub(p, r2.Scale(ratio, r2.Sub(p, v.offset)))
	v.scale = newScale
	v.touch()
}

// ZoomStep adds delta to the scale without moving the offset, as the zoom
// buttons do.
func (v *ViewportTransform) ZoomStep(delta float64) {
	v.scale = clamp(v.scale+delta, v.minScale, v.maxScale)
	v.touch()
}

// Wheel zooms about the pointer when the modifier is held and pans otherwise.
func (v *ViewportTransform) Wheel(in WheelInput) {
	if in.Modifier {
		delta := -in.DeltaY
		v.ZoomAt(Point{X: in.X, Y: in.Y}, math.Pow(wheelZoomBase, delta/100))
		return
	}
	v.Pan(-in.DeltaX, -in.DeltaY)
}

// BeginPinch records the initial distance between two touch points.
func (v *ViewportTransform) BeginPinch(a, b Point) {
	v.pinching = true
	v.pinchDist = r2.Norm(r2.Sub(a, b))
}

// Pinch zooms about the midpoint of the two touches by the ratio of the new
// finger distance to the previous one.
func (v *ViewportTransform) Pinch(a, b Point) {
	if !v.pinching {
		v.BeginPinch(a, b)
		return
	}
	dist := r2.Norm(r2.Sub(a, b))
	if v.pinchDist > 0 && dist > 0 {
		mid := r2.Scale(0.5, r2.Add(a, b))
		v.ZoomAt(mid, dist/v.pinchDist)
	}
	v.pinchDist = dist
}

// EndPinch finishes a pinch and publishes the result.
func (v *ViewportTransform) EndPinch() {
	v.pinching = false
	v.pinchDist = 0
	v.sync()
}

// Pinching reports whether a pinch is in progress.
func (v *ViewportTransform) Pinching() bool { return v.pinching }

// Reset returns to scale 1 at the origin.
func (v *ViewportTransform) Reset() {
	v.scale = 1
	v.offset = Point{}
	v.sync()
}

// ToCanvas converts a screen point to canvas space.
func (v *ViewportTransform) ToCanvas(p Point) Point {
	return r2.Scale(1/v.scale, r2.Sub(p, v.offset))
}

// ToScreen converts a canvas point to screen space.
func (v *ViewportTransform) ToScreen(p Point) Point {
	return r2.Add(r2.Scale(v.scale, p), v.offset)
}

// Matrix returns the canvas to screen transform.
func (v *ViewportTransform) Matrix() Matrix2D {
	return ViewportMatrix(v.scale, v.offset.X, v.offset.Y)
}

// Flush publishes the live state immediately.
func (v *ViewportTransform) Flush() bool {
	if !v.unsynced {
		return false
	}
	v.sync()
	return true
}

// Settle publishes the live state once no input has arrived for the sync
// delay. now is a monotonic timestamp supplied by the caller's clock. It
// returns true when the committed viewport changed.
func (v *ViewportTransform) Settle(now time.Duration) bool {
	if v.changed {
		v.changed = false
		v.lastInput = now
	}
	if !v.unsynced || v.pinching {
		return false
	}
	if now-v.lastInput < v.syncDelay {
		return false
	}
	v.sync()
	return true
}

func (v *ViewportTransform) touch() {
	v.changed = true
	v.unsynced = true
}

func (v *ViewportTransform) sync() {
	v.committed = v.Live()
	v.changed = false
	v.unsynced = false
}
