package engine

import (
	"slices"

	"github.com/codecanvas/codecanvas/internal/document"
)

// DefaultFootprintSize stands in for objects whose size is not known yet.
var DefaultFootprintSize = Size{Width: 200, Height: 200}

// connectionHitTolerance is the pick radius around a connection curve in
// screen pixels.
const connectionHitTolerance = 6.0

// Selection is the set of selected objects, one ordered id list per kind.
type Selection struct {
	Nodes       []string `json:"nodes"`
	Connections []string `json:"connections"`
	Shapes      []string `json:"shapes"`
}

func (s Selection) ids(kind ObjectKind) []string {
	switch kind {
	case KindNode:
		return s.Nodes
	case KindConnection:
		return s.Connections
	default:
		return s.Shapes
	}
}

// SelectionIndex owns the selection and answers hit-test queries against the
// live arena.
type SelectionIndex struct {
	sel     Selection
	arena   *Arena
	anchors *AnchorCache
}

func NewSelectionIndex(arena *Arena, anchors *AnchorCache) *SelectionIndex {
	return &SelectionIndex{arena: arena, anchors: anchors}
}

func (si *SelectionIndex) list(kind ObjectKind) *[]string {
	switch kind {
	case KindNode:
		return &si.sel.Nodes
	case KindConnection:
		return &si.sel.Connections
	default:
		return &si.sel.Shapes
	}
}

// Select adds ref to the selection. Without multi, everything else is
// deselected first.
func (si *SelectionIndex) Select(ref ObjectRef, multi bool) {
	if !multi {
		si.Clear()
	}
	l := si.list(ref.Kind)
	if !slices.Contains(*l, ref.ID) {
		*l = append(*l, ref.ID)
	}
}

// Toggle flips ref in or out of the selection, keeping the rest.
func (si *SelectionIndex) Toggle(ref ObjectRef) {
	l := si.list(ref.Kind)
	if i := slices.Index(*l, ref.ID); i >= 0 {
		*l = slices.Delete(*l, i, i+1)
		return
	}
	*l = append(*l, ref.ID)
}

// Clear empties all three sets.
func (si *SelectionIndex) Clear() {
	si.sel = Selection{}
}

// Set replaces the selection.
func (si *SelectionIndex) Set(s Selection) {
	si.sel = Selection{
		Nodes:       slices.Clone(s.Nodes),
		Connections: slices.Clone(s.Connections),
		Shapes:      slices.Clone(s.Shapes),
	}
}

// Current returns a copy of the selection.
func (si *SelectionIndex) Current() Selection {
	return Selection{
		Nodes:       slices.Clone(si.sel.Nodes),
		Connections: slices.Clone(si.sel.Connections),
		Shapes:      slices.Clone(si.sel.Shapes),
	}
}

func (si *SelectionIndex) Contains(ref ObjectRef) bool {
	return slices.Contains(si.sel.ids(ref.Kind), ref.ID)
}

// Len returns the number of selected objects across all kinds.
func (si *SelectionIndex) Len() int {
	return len(si.sel.Nodes) + len(si.sel.Connections) + len(si.sel.Shapes)
}

// Single returns the selected object when exactly one is selected.
func (si *SelectionIndex) Single() (ObjectRef, bool) {
	if si.Len() != 1 {
		return ObjectRef{}, false
	}
	return si.Members()[0], true
}

// Members lists the selection as refs: nodes, then shapes, then connections.
func (si *SelectionIndex) Members() []ObjectRef {
	refs := make([]ObjectRef, 0, si.Len())
	for _, id := range si.sel.Nodes {
		refs = append(refs, ObjectRef{Kind: KindNode, ID: id})
	}
	for _, id := range si.sel.Shapes {
		refs = append(refs, ObjectRef{Kind: KindShape, ID: id})
	}
	for _, id := range si.sel.Connections {
		refs = append(refs, ObjectRef{Kind: KindConnection, ID: id})
	}
	return refs
}

// FootprintMembers lists the selected nodes and shapes.
func (si *SelectionIndex) FootprintMembers() []ObjectRef {
	refs := si.Members()
	return slices.DeleteFunc(refs, func(r ObjectRef) bool { return r.Kind == KindConnection })
}

// Prune drops selected ids that no longer exist, e.g. after undo.
func (si *SelectionIndex) Prune() {
	for _, kind := range []ObjectKind{KindNode, KindConnection, KindShape} {
		l := si.list(kind)
		*l = slices.DeleteFunc(*l, func(id string) bool {
			return !si.arena.Exists(ObjectRef{Kind: kind, ID: id})
		})
	}
}

func (si *SelectionIndex) sizeOf(f document.Footprint) Size {
	if s, ok := si.anchors.SizeOf(f.ID); ok {
		return s
	}
	return DefaultFootprintSize
}

// hitFootprint tests p against the axis-aligned bounds of the footprint,
// the same box HitTestBox uses. A rotated object is therefore also hit in
// the corners of its bounds outside the rotated outline.
func (si *SelectionIndex) hitFootprint(f document.Footprint, p Point) bool {
	return FootprintBounds(f, si.sizeOf(f)).Contains(p.X, p.Y)
}

// HitTestPoint returns the topmost object under canvas point p. Nodes paint
// over connections, which paint over shapes; within a kind the last one
// added is on top. scale is used to keep the connection pick radius
// constant on screen.
func (si *SelectionIndex) HitTestPoint(p Point, scale float64) (ObjectRef, bool) {
	nodes := si.arena.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if si.hitFootprint(nodes[i].Footprint, p) {
			return ObjectRef{Kind: KindNode, ID: nodes[i].ID}, true
		}
	}

	if scale <= 0 {
		scale = 1
	}
	tol := connectionHitTolerance / scale
	resolver := EndpointResolver{arena: si.arena, anchors: si.anchors}
	conns := si.arena.Connections()
	for i := len(conns) - 1; i >= 0; i-- {
		curve, ok := resolver.Curve(conns[i])
		if ok && curve.Distance(p) <= tol {
			return ObjectRef{Kind: KindConnection, ID: conns[i].ID}, true
		}
	}

	shapes := si.arena.Shapes()
	for i := len(shapes) - 1; i >= 0; i-- {
		if si.hitFootprint(shapes[i].Footprint, p) {
			return ObjectRef{Kind: KindShape, ID: shapes[i].ID}, true
		}
	}
	return ObjectRef{}, false
}

// HitTestBox returns every object whose bounds overlap r. A connection's
// bounds are the box spanned by its two resolved anchors.
func (si *SelectionIndex) HitTestBox(r Rect) []ObjectRef {
	var refs []ObjectRef
	for _, n := range si.arena.Nodes() {
		if FootprintBounds(n.Footprint, si.sizeOf(n.Footprint)).Intersects(r) {
			refs = append(refs, ObjectRef{Kind: KindNode, ID: n.ID})
		}
	}
	resolver := EndpointResolver{arena: si.arena, anchors: si.anchors}
	for _, c := range si.arena.Connections() {
		curve, ok := resolver.Curve(c)
		if ok && curve.EndBounds().Intersects(r) {
			refs = append(refs, ObjectRef{Kind: KindConnection, ID: c.ID})
		}
	}
	for _, s := range si.arena.Shapes() {
		if FootprintBounds(s.Footprint, si.sizeOf(s.Footprint)).Intersects(r) {
			refs = append(refs, ObjectRef{Kind: KindShape, ID: s.ID})
		}
	}
	return refs
}

// SelectBox selects everything overlapping r. Without multi the previous
// selection is replaced.
func (si *SelectionIndex) SelectBox(r Rect, multi bool) {
	if !multi {
		si.Clear()
	}
	for _, ref := range si.HitTestBox(r) {
		si.Select(ref, true)
	}
}

// BoundsOf returns the union of the footprints of refs. Connections have no
// footprint and are skipped. ok is false when nothing contributed.
func (si *SelectionIndex) BoundsOf(refs []ObjectRef) (Rect, bool) {
	var result Rect
	found := false
	for _, ref := range refs {
		if ref.Kind == KindConnection {
			continue
		}
		f, _, ok := si.arena.Lookup(ref.ID)
		if !ok {
			continue
		}
		b := FootprintBounds(f, si.sizeOf(f))
		if !found {
			result = b
			found = true
		} else {
			result = result.Union(b)
		}
	}
	return result, found
}

// Bounds returns the bounds of the current selection.
func (si *SelectionIndex) Bounds() (Rect, bool) {
	return si.BoundsOf(si.Members())
}
