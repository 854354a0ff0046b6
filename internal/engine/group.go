package engine

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/codecanvas/codecanvas/internal/document"
)

const (
	DefaultGroupMinSize = 10.0

	// rotateHandleOffset is how far above the top edge the rotate handle sits,
	// in screen pixels.
	rotateHandleOffset = 25.0
	handleRadius       = 6.0
)

// HandleDirection names a resize handle on a bounding box.
type HandleDirection string

const (
	HandleTopLeft     HandleDirection = "top-left"
	HandleTopRight    HandleDirection = "top-right"
	HandleBottomLeft  HandleDirection = "bottom-left"
	HandleBottomRight HandleDirection = "bottom-right"
	HandleTop         HandleDirection = "top"
	HandleBottom      HandleDirection = "bottom"
	HandleLeft        HandleDirection = "left"
	HandleRight       HandleDirection = "right"

	// HandleRotate is the rotation grip above the box.
	HandleRotate HandleDirection = "rotate"
)

var resizeHandles = []HandleDirection{
	HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight,
	HandleTop, HandleBottom, HandleLeft, HandleRight,
}

func (d HandleDirection) edges() (left, right, top, bottom bool) {
	switch d {
	case HandleTopLeft:
		return true, false, true, false
	case HandleTopRight:
		return false, true, true, false
	case HandleBottomLeft:
		return true, false, false, true
	case HandleBottomRight:
		return false, true, false, true
	case HandleTop:
		return false, false, true, false
	case HandleBottom:
		return false, false, false, true
	case HandleLeft:
		return true, false, false, false
	case HandleRight:
		return false, true, false, false
	}
	return false, false, false, false
}

// Valid reports whether d is one of the eight resize directions.
func (d HandleDirection) Valid() bool {
	l, r, t, b := d.edges()
	return l || r || t || b
}

// handlePoint returns where the handle for d sits on bounds.
func handlePoint(bounds Rect, d HandleDirection) Point {
	l, r, t, b := d.edges()
	p := Point{X: bounds.X + bounds.Width/2, Y: bounds.Y + bounds.Height/2}
	if l {
		p.X = bounds.X
	} else if r {
		p.X = bounds.X + bounds.Width
	}
	if t {
		p.Y = bounds.Y
	} else if b {
		p.Y = bounds.Y + bounds.Height
	}
	return p
}

// HandleAt returns the resize or rotate handle of bounds under canvas point
// p. Handle sizes are fixed in screen pixels, so scale is needed.
func HandleAt(bounds Rect, p Point, scale float64) (HandleDirection, bool) {
	if scale <= 0 {
		scale = 1
	}
	radius := handleRadius / scale
	rot := Point{X: bounds.X + bounds.Width/2, Y: bounds.Y - rotateHandleOffset/scale}
	if r2.Norm(r2.Sub(p, rot)) <= radius {
		return HandleRotate, true
	}
	for _, d := range resizeHandles {
		if r2.Norm(r2.Sub(p, handlePoint(bounds, d))) <= radius {
			return d, true
		}
	}
	return "", false
}

// ResizeBounds applies a canvas-space pointer delta to the edges implied by
// dir. Width and height never drop below minSize; when a left or top edge is
// clamped the origin moves only as far as the size actually shrank.
func ResizeBounds(start Rect, dir HandleDirection, delta Point, minSize float64) Rect {
	left, right, top, bottom := dir.edges()
	out := start

	switch {
	case right:
		out.Width = math.Max(minSize, start.Width+delta.X)
	case left:
		out.Width = math.Max(minSize, start.Width-delta.X)
		out.X = start.X + (start.Width - out.Width)
	}
	switch {
	case bottom:
		out.Height = math.Max(minSize, start.Height+delta.Y)
	case top:
		out.Height = math.Max(minSize, start.Height-delta.Y)
		out.Y = start.Y + (start.Height - out.Height)
	}
	return out
}

// ScaleMembers maps member footprints captured inside from onto to, keeping
// each member's relative position and scaling its size per axis.
func ScaleMembers(from, to Rect, members []document.Footprint) []document.Footprint {
	sx, sy := 1.0, 1.0
	if from.Width > 0 {
		sx = to.Width / from.Width
	}
	if from.Height > 0 {
		sy = to.Height / from.Height
	}
	out := make([]document.Footprint, len(members))
	for i, m := range members {
		m.X = to.X + (m.X-from.X)*sx
		m.Y = to.Y + (m.Y-from.Y)*sy
		m.Width *= sx
		m.Height *= sy
		out[i] = m
	}
	return out
}

// RotateMembers rotates each member's center about pivot by angle radians and
// adds the angle, in degrees, to its own rotation. Members must carry a size.
func RotateMembers(pivot Point, angle float64, members []document.Footprint) []document.Footprint {
	rot := r2.NewRotation(angle, pivot)
	out := make([]document.Footprint, len(members))
	for i, m := range members {
		c := rot.Rotate(Point{X: m.X + m.Width/2, Y: m.Y + m.Height/2})
		m.X = c.X - m.Width/2
		m.Y = c.Y - m.Height/2
		m.Rotation += degrees(angle)
		out[i] = m
	}
	return out
}

func pointerAngle(center, p Point) float64 {
	return math.Atan2(p.Y-center.Y, p.X-center.X)
}

// groupMember is a member's state captured at gesture start.
type groupMember struct {
	ref ObjectRef
	fp  document.Footprint
	// sized is false when the member was auto-sized; its dimensions in fp
	// were filled from the anchor cache or the default footprint and the
	// stored ones are kept in raw.
	sized bool
	raw   Size
}

// GroupTransform applies a resize or rotation to several objects at once.
// All geometry is derived from the state captured when the gesture began, so
// repeated updates never accumulate error.
type GroupTransform struct {
	arena   *Arena
	start   Rect
	members []groupMember
	minSize float64

	startAngle float64
}

// BeginGroupTransform captures bounds and member footprints for refs.
// Connections are ignored. It returns false when no footprint member exists.
func BeginGroupTransform(arena *Arena, anchors *AnchorCache, refs []ObjectRef, minSize float64) (*GroupTransform, bool) {
	g := &GroupTransform{arena: arena, minSize: minSize}
	found := false
	for _, ref := range refs {
		if ref.Kind == KindConnection {
			continue
		}
		f, _, ok := arena.Lookup(ref.ID)
		if !ok {
			continue
		}
		size := DefaultFootprintSize
		if s, ok := anchors.SizeOf(f.ID); ok {
			size = s
		}
		r := FootprintRect(f, size)
		m := groupMember{ref: ref, fp: f, sized: f.HasSize(), raw: Size{Width: f.Width, Height: f.Height}}
		m.fp.Width, m.fp.Height = r.Width, r.Height
		g.members = append(g.members, m)

		b := FootprintBounds(f, size)
		if !found {
			g.start = b
			found = true
		} else {
			g.start = g.start.Union(b)
		}
	}
	return g, found
}

// StartBounds returns the group bounds captured at gesture start.
func (g *GroupTransform) StartBounds() Rect { return g.start }

// Members returns the refs taking part in the transform.
func (g *GroupTransform) Members() []ObjectRef {
	refs := make([]ObjectRef, len(g.members))
	for i, m := range g.members {
		refs[i] = m.ref
	}
	return refs
}

func (g *GroupTransform) startFootprints() []document.Footprint {
	fps := make([]document.Footprint, len(g.members))
	for i, m := range g.members {
		fps[i] = m.fp
	}
	return fps
}

// Resize stretches the group so its bounds follow the dragged handle. delta
// is the canvas-space pointer movement since gesture start.
func (g *GroupTransform) Resize(dir HandleDirection, delta Point) Rect {
	bounds := ResizeBounds(g.start, dir, delta, g.minSize)
	g.apply(ScaleMembers(g.start, bounds, g.startFootprints()))
	return bounds
}

// BeginRotate records the pointer angle around the group center.
func (g *GroupTransform) BeginRotate(pointer Point) {
	cx, cy := g.start.Center()
	g.startAngle = pointerAngle(Point{X: cx, Y: cy}, pointer)
}

// Rotate turns every member about the group center by the angle the pointer
// has swept since BeginRotate. It returns that angle in degrees.
func (g *GroupTransform) Rotate(pointer Point) float64 {
	cx, cy := g.start.Center()
	center := Point{X: cx, Y: cy}
	diff := pointerAngle(center, pointer) - g.startAngle
	g.apply(RotateMembers(center, diff, g.startFootprints()))
	return degrees(diff)
}

func (g *GroupTransform) apply(fps []document.Footprint) {
	for i, m := range g.members {
		live, ok := g.arena.Footprint(m.ref)
		if !ok {
			continue
		}
		next := fps[i]
		live.X, live.Y, live.Rotation = next.X, next.Y, next.Rotation
		switch {
		case m.sized || next.Width != m.fp.Width || next.Height != m.fp.Height:
			live.Width, live.Height = next.Width, next.Height
		default:
			live.Width, live.Height = m.raw.Width, m.raw.Height
		}
	}
}
