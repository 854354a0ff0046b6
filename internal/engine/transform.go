package engine

import (
	"gonum.org/v1/gonum/spatial/r2"
)

const DefaultSingleMinSize = 50.0

// DragTransform moves a set of objects by the pointer delta since the
// gesture began, converted from screen pixels to canvas units.
type DragTransform struct {
	arena  *Arena
	origin Point // screen position of the pointer at gesture start
	starts []dragStart
}

type dragStart struct {
	ref ObjectRef
	pos Point
}

// BeginDrag captures the positions of the footprint members of refs.
func BeginDrag(arena *Arena, refs []ObjectRef, pointer Point) *DragTransform {
	d := &DragTransform{arena: arena, origin: pointer}
	for _, ref := range refs {
		if ref.Kind == KindConnection {
			continue
		}
		if f, _, ok := arena.Lookup(ref.ID); ok {
			d.starts = append(d.starts, dragStart{ref: ref, pos: Point{X: f.X, Y: f.Y}})
		}
	}
	return d
}

// Moved returns the ids of the objects being dragged.
func (d *DragTransform) Moved() map[string]bool {
	ids := make(map[string]bool, len(d.starts))
	for _, s := range d.starts {
		ids[s.ref.ID] = true
	}
	return ids
}

// Update places every member at its start position plus the pointer delta.
func (d *DragTransform) Update(pointer Point, scale float64) {
	delta := r2.Scale(1/scale, r2.Sub(pointer, d.origin))
	for _, s := range d.starts {
		f, ok := d.arena.Footprint(s.ref)
		if !ok {
			continue
		}
		p := r2.Add(s.pos, delta)
		f.X, f.Y = p.X, p.Y
	}
}

// ResizeTransform resizes a single object from one of its handles.
type ResizeTransform struct {
	arena   *Arena
	ref     ObjectRef
	dir     HandleDirection
	origin  Point
	start   Rect
	minSize float64
}

// BeginResize captures the object's rect. Unknown sizes come from the anchor
// cache or the default footprint.
func BeginResize(arena *Arena, anchors *AnchorCache, ref ObjectRef, dir HandleDirection, pointer Point, minSize float64) (*ResizeTransform, bool) {
	f, _, ok := arena.Lookup(ref.ID)
	if !ok || !dir.Valid() {
		return nil, false
	}
	size := DefaultFootprintSize
	if s, ok := anchors.SizeOf(f.ID); ok {
		size = s
	}
	return &ResizeTransform{
		arena:   arena,
		ref:     ref,
		dir:     dir,
		origin:  pointer,
		start:   FootprintRect(f, size),
		minSize: minSize,
	}, true
}

// Update applies the pointer delta since gesture start.
func (t *ResizeTransform) Update(pointer Point, scale float64) Rect {
	delta := r2.Scale(1/scale, r2.Sub(pointer, t.origin))
	r := ResizeBounds(t.start, t.dir, delta, t.minSize)
	if f, ok := t.arena.Footprint(t.ref); ok {
		f.X, f.Y, f.Width, f.Height = r.X, r.Y, r.Width, r.Height
	}
	return r
}

// RotateTransform spins a single object about its own center.
type RotateTransform struct {
	arena         *Arena
	ref           ObjectRef
	center        Point
	startAngle    float64
	startRotation float64
}

// BeginRotate records the pointer angle about the object's center. pointer
// is in canvas space.
func BeginRotate(arena *Arena, anchors *AnchorCache, ref ObjectRef, pointer Point) (*RotateTransform, bool) {
	f, _, ok := arena.Lookup(ref.ID)
	if !ok {
		return nil, false
	}
	size := DefaultFootprintSize
	if s, ok := anchors.SizeOf(f.ID); ok {
		size = s
	}
	cx, cy := FootprintRect(f, size).Center()
	center := Point{X: cx, Y: cy}
	return &RotateTransform{
		arena:         arena,
		ref:           ref,
		center:        center,
		startAngle:    pointerAngle(center, pointer),
		startRotation: f.Rotation,
	}, true
}

// Update sets the rotation to the start rotation plus the swept angle.
func (t *RotateTransform) Update(pointer Point) float64 {
	rot := t.startRotation + degrees(pointerAngle(t.center, pointer)-t.startAngle)
	if f, ok := t.arena.Footprint(t.ref); ok {
		f.Rotation = rot
	}
	return rot
}
