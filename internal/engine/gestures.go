package engine

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/codecanvas/codecanvas/internal/document"
)

// PointerInput is a pointer event in screen coordinates.
type PointerInput struct {
	X        float64 `json:"x" toml:"x"`
	Y        float64 `json:"y" toml:"y"`
	Pressure float64 `json:"pressure,omitempty" toml:"pressure"`
	Shift    bool    `json:"shift,omitempty" toml:"shift"`
	Modifier bool    `json:"modifier,omitempty" toml:"modifier"`
}

func (in PointerInput) point() Point { return Point{X: in.X, Y: in.Y} }

// KeyInput is a key press. Editing is set while a text field has focus, in
// which case shortcuts are left to the field.
type KeyInput struct {
	Key     string `json:"key" toml:"key"`
	Ctrl    bool   `json:"ctrl,omitempty" toml:"ctrl"`
	Meta    bool   `json:"meta,omitempty" toml:"meta"`
	Shift   bool   `json:"shift,omitempty" toml:"shift"`
	Editing bool   `json:"editing,omitempty" toml:"editing"`
}

func (e *Engine) begin(kind GestureKind, screen Point) Token {
	tok := e.gate.begin(kind)
	if tok == 0 {
		e.log.Debug("gesture refused", "want", kind.String(), "active", e.gate.current().String())
		return 0
	}
	e.g = activeGesture{last: screen, origin: screen, view: e.viewport.Live()}
	return tok
}

func (e *Engine) finish() {
	e.g = activeGesture{}
	e.gate.end()
}

// BeginPan starts panning from a screen point.
func (e *Engine) BeginPan(p Point) Token {
	return e.begin(GesturePan, p)
}

// BeginPinch starts a two-finger zoom.
func (e *Engine) BeginPinch(a, b Point) Token {
	tok := e.begin(GesturePinch, r2.Scale(0.5, r2.Add(a, b)))
	if tok != 0 {
		e.viewport.BeginPinch(a, b)
	}
	return tok
}

// PinchMove updates a pinch with new finger positions.
func (e *Engine) PinchMove(tok Token, a, b Point) {
	if !e.gate.owns(tok, GesturePinch) {
		return
	}
	e.viewport.Pinch(a, b)
}

// BeginDrag starts moving the selected nodes and shapes.
func (e *Engine) BeginDrag(p Point) Token {
	refs := e.selection.FootprintMembers()
	if len(refs) == 0 {
		return 0
	}
	tok := e.begin(GestureDrag, p)
	if tok != 0 {
		e.g.drag = BeginDrag(e.arena, refs, p)
	}
	return tok
}

// BeginBoxSelect starts a rubber-band selection. With multi the existing
// selection is kept.
func (e *Engine) BeginBoxSelect(p Point, multi bool) Token {
	tok := e.begin(GestureBoxSelect, p)
	if tok != 0 {
		c := e.viewport.ToCanvas(p)
		e.g.boxStart, e.g.boxEnd, e.g.boxMulti = c, c, multi
	}
	return tok
}

// BeginResize grabs a resize handle of the selection. Several selected
// objects resize as a group; a single one resizes alone with a larger
// minimum size.
func (e *Engine) BeginResize(p Point, dir HandleDirection) Token {
	refs := e.selection.FootprintMembers()
	switch {
	case len(refs) > 1:
		g, ok := BeginGroupTransform(e.arena, e.anchors, refs, e.opts.GroupMinSize)
		if !ok {
			return 0
		}
		tok := e.begin(GestureGroupResize, p)
		if tok != 0 {
			e.g.group, e.g.direction = g, dir
		}
		return tok
	case len(refs) == 1:
		t, ok := BeginResize(e.arena, e.anchors, refs[0], dir, p, e.opts.SingleMinSize)
		if !ok {
			return 0
		}
		tok := e.begin(GestureResize, p)
		if tok != 0 {
			e.g.resize = t
		}
		return tok
	}
	return 0
}

// BeginRotate grabs the rotate handle of the selection.
func (e *Engine) BeginRotate(p Point) Token {
	refs := e.selection.FootprintMembers()
	c := e.viewport.ToCanvas(p)
	switch {
	case len(refs) > 1:
		g, ok := BeginGroupTransform(e.arena, e.anchors, refs, e.opts.GroupMinSize)
		if !ok {
			return 0
		}
		tok := e.begin(GestureGroupRotate, p)
		if tok != 0 {
			g.BeginRotate(c)
			e.g.group = g
		}
		return tok
	case len(refs) == 1:
		t, ok := BeginRotate(e.arena, e.anchors, refs[0], c)
		if !ok {
			return 0
		}
		tok := e.begin(GestureRotate, p)
		if tok != 0 {
			e.g.rotate = t
		}
		return tok
	}
	return 0
}

// BeginLink starts a provisional connection from an anchor.
func (e *Engine) BeginLink(src document.Endpoint) Token {
	fp, _, ok := e.arena.Lookup(src.ObjectID)
	if !ok {
		return 0
	}
	e.anchors.Refresh(fp, e.viewport.Scale())
	pos := e.anchors.PositionOf(src.ObjectID, src.AnchorID, Point{X: fp.X, Y: fp.Y})
	tok := e.begin(GestureLink, e.viewport.ToScreen(pos))
	if tok != 0 {
		e.router.StartLinking(src, pos)
	}
	return tok
}

// BeginDraw starts a freehand stroke.
func (e *Engine) BeginDraw(p Point, pressure float64) Token {
	tok := e.begin(GestureDraw, p)
	if tok != 0 {
		e.freehand.Begin(e.viewport.ToCanvas(p), pressure)
	}
	return tok
}

// Move feeds a pointer move to the active gesture. Stale tokens are ignored.
func (e *Engine) Move(tok Token, in PointerInput) {
	if tok == 0 || tok != e.gate.active {
		return
	}
	p := in.point()
	scale := e.viewport.Scale()
	switch e.gate.current() {
	case GesturePan:
		e.viewport.Pan(p.X-e.g.last.X, p.Y-e.g.last.Y)
	case GestureDrag:
		e.g.drag.Update(p, scale)
	case GestureBoxSelect:
		e.g.boxEnd = e.viewport.ToCanvas(p)
	case GestureResize:
		r := e.g.resize.Update(p, scale)
		e.anchors.Sync(e.g.resize.ref.ID, r.Width, r.Height)
	case GestureRotate:
		e.g.rotate.Update(e.viewport.ToCanvas(p))
	case GestureGroupResize:
		e.g.group.Resize(e.g.direction, r2.Scale(1/scale, r2.Sub(p, e.g.origin)))
		e.syncGroupAnchors()
	case GestureGroupRotate:
		e.g.group.Rotate(e.viewport.ToCanvas(p))
	case GestureLink:
		e.router.UpdateLinking(e.viewport.ToCanvas(p))
	case GestureDraw:
		e.freehand.Add(e.viewport.ToCanvas(p), in.Pressure)
	default:
		return
	}
	if p != e.g.last {
		e.g.moved = true
	}
	e.g.last = p
}

// End finishes the active gesture at the given pointer position. For a link
// gesture the pointer must be released over an anchor; otherwise the link is
// abandoned.
func (e *Engine) End(tok Token, in PointerInput) {
	if tok == 0 || tok != e.gate.active {
		return
	}
	kind := e.gate.current()
	switch kind {
	case GesturePan:
		e.viewport.Flush()
	case GesturePinch:
		e.viewport.EndPinch()
	case GestureBoxSelect:
		e.selection.SelectBox(RectFromPoints(e.g.boxStart, e.g.boxEnd), e.g.boxMulti)
	case GestureDrag, GestureResize, GestureRotate, GestureGroupResize, GestureGroupRotate:
		if e.g.moved {
			e.commit(kind.String())
		} else {
			e.arena.Revert()
		}
	case GestureLink:
		c := e.viewport.ToCanvas(in.point())
		if target, ok := e.AnchorAt(c); ok {
			e.completeLink(target)
		} else {
			e.log.Debug("link abandoned", "source", e.router.source.ObjectID)
			e.router.Cancel()
		}
	case GestureDraw:
		if s, ok := e.freehand.Complete(); ok {
			e.arena.AddShape(s)
			e.anchors.Sync(s.ID, s.Width, s.Height)
			e.commit("draw")
		} else {
			e.log.Debug("stroke discarded")
		}
	}
	e.props.Viewport = e.viewport.Committed()
	e.finish()
}

// CompleteLink ends a link gesture on an explicit target anchor.
func (e *Engine) CompleteLink(tok Token, target document.Endpoint) (document.Connection, bool) {
	if !e.gate.owns(tok, GestureLink) {
		return document.Connection{}, false
	}
	defer e.finish()
	return e.completeLink(target)
}

func (e *Engine) completeLink(target document.Endpoint) (document.Connection, bool) {
	fp, _, ok := e.arena.Lookup(target.ObjectID)
	if !ok {
		e.router.Cancel()
		e.log.Debug("link target missing", "target", target.ObjectID)
		return document.Connection{}, false
	}
	e.anchors.Refresh(fp, e.viewport.Scale())
	conn, ok := e.router.CompleteLinking(target)
	if !ok {
		e.log.Debug("link to own anchor discarded", "object", target.ObjectID, "anchor", target.AnchorID)
		return document.Connection{}, false
	}
	e.arena.AddConnection(conn)
	e.commit("link")
	return conn, true
}

// Cancel aborts the active gesture without committing or recording history.
func (e *Engine) Cancel() {
	switch e.gate.current() {
	case GestureNone:
		return
	case GesturePan, GesturePinch:
		e.viewport.Set(e.g.view)
	case GestureDrag, GestureResize, GestureRotate, GestureGroupResize, GestureGroupRotate:
		e.arena.Revert()
		e.refreshAllAnchors()
	case GestureLink:
		e.router.Cancel()
	case GestureDraw:
		e.freehand.Cancel()
	}
	e.log.Debug("gesture cancelled", "gesture", e.gate.current().String())
	e.finish()
}

// Wheel handles a wheel event. It is ignored while a gesture other than
// panning is active.
func (e *Engine) Wheel(in WheelInput) bool {
	if k := e.gate.current(); k != GestureNone && k != GesturePan {
		return false
	}
	e.viewport.Wheel(in)
	return true
}

// AnchorAt returns the topmost known anchor within handle reach of a canvas
// point.
func (e *Engine) AnchorAt(c Point) (document.Endpoint, bool) {
	radius := handleRadius / e.viewport.Scale()
	try := func(f document.Footprint) (document.Endpoint, bool) {
		origin := Point{X: f.X, Y: f.Y}
		for _, id := range AnchorIDs {
			off, ok := e.anchors.Offset(f.ID, id)
			if !ok {
				continue
			}
			if r2.Norm(r2.Sub(c, r2.Add(origin, off))) <= radius {
				return document.Endpoint{ObjectID: f.ID, AnchorID: id}, true
			}
		}
		return document.Endpoint{}, false
	}
	nodes := e.arena.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if ep, ok := try(nodes[i].Footprint); ok {
			return ep, true
		}
	}
	shapes := e.arena.Shapes()
	for i := len(shapes) - 1; i >= 0; i-- {
		if ep, ok := try(shapes[i].Footprint); ok {
			return ep, true
		}
	}
	return document.Endpoint{}, false
}

// PointerDown decides which gesture a press starts: a selection handle wins,
// then an anchor, then an object, then empty canvas. A zero token means the
// press selected something (or nothing) without starting a gesture.
func (e *Engine) PointerDown(in PointerInput) Token {
	p := in.point()
	c := e.viewport.ToCanvas(p)
	scale := e.viewport.Scale()

	switch e.tool {
	case ToolHand:
		return e.BeginPan(p)
	case ToolPencil:
		return e.BeginDraw(p, in.Pressure)
	}

	if bounds, ok := e.selection.Bounds(); ok {
		if dir, ok := HandleAt(bounds, c, scale); ok {
			if dir == HandleRotate {
				return e.BeginRotate(p)
			}
			return e.BeginResize(p, dir)
		}
	}

	if ep, ok := e.AnchorAt(c); ok {
		return e.BeginLink(ep)
	}

	if ref, ok := e.selection.HitTestPoint(c, scale); ok {
		switch {
		case in.Shift:
			e.selection.Toggle(ref)
		case !e.selection.Contains(ref):
			e.selection.Select(ref, false)
		}
		if ref.Kind == KindConnection || !e.selection.Contains(ref) {
			return 0
		}
		return e.BeginDrag(p)
	}

	if in.Shift || in.Modifier {
		return e.BeginBoxSelect(p, in.Shift)
	}
	e.selection.Clear()
	return e.BeginPan(p)
}

// Key handles keyboard shortcuts. It returns true when the key was used.
func (e *Engine) Key(k KeyInput) bool {
	if k.Editing {
		return false
	}
	mod := k.Ctrl || k.Meta
	switch {
	case mod && (k.Key == "z" || k.Key == "Z"):
		if k.Shift {
			return e.Redo()
		}
		return e.Undo()
	case mod && k.Key == "y":
		return e.Redo()
	case k.Key == "Delete" || k.Key == "Backspace":
		return e.DeleteSelected() > 0
	case k.Key == "Escape":
		if e.gate.current() != GestureNone {
			e.Cancel()
			return true
		}
		e.selection.Clear()
		return true
	}
	return false
}

func (e *Engine) syncGroupAnchors() {
	for _, ref := range e.g.group.Members() {
		if f, _, ok := e.arena.Lookup(ref.ID); ok {
			e.anchors.Sync(f.ID, f.Width, f.Height)
		}
	}
}
