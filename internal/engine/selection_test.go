package engine

import (
	"slices"
	"testing"

	"github.com/codecanvas/codecanvas/internal/document"
)

func node(id string, x, y, w, h float64) document.Node {
	return document.Node{Footprint: document.Footprint{ID: id, X: x, Y: y, Width: w, Height: h}}
}

func shape(id string, x, y, w, h float64) document.Shape {
	return document.Shape{
		Footprint: document.Footprint{ID: id, X: x, Y: y, Width: w, Height: h},
		Type:      document.ShapeTypeRectangle,
	}
}

func link(id, from, fromAnchor, to, toAnchor string) document.Connection {
	return document.Connection{
		ID:     id,
		Source: document.Endpoint{ObjectID: from, AnchorID: fromAnchor},
		Target: document.Endpoint{ObjectID: to, AnchorID: toAnchor},
		Type:   document.LineTypeArrow,
	}
}

func newTestIndex(s document.Scene) *SelectionIndex {
	arena := NewArena(s)
	anchors := NewAnchorCache()
	for _, n := range s.Nodes {
		anchors.Refresh(n.Footprint, 1)
	}
	for _, sh := range s.Shapes {
		anchors.Refresh(sh.Footprint, 1)
	}
	return NewSelectionIndex(arena, anchors)
}

func TestBoxSelectConnectionByEndpoints(t *testing.T) {
	// The connection runs from (0, 0) to (200, 200).
	si := newTestIndex(document.Scene{
		Nodes: []document.Node{
			node("a", -100, -100, 100, 100),
			node("b", 200, 200, 100, 100),
		},
		Connections: []document.Connection{
			link("c", "a", AnchorBottomRight, "b", AnchorTopLeft),
		},
	})
	conn := ObjectRef{Kind: KindConnection, ID: "c"}

	tests := []struct {
		name string
		box  Rect
		want bool
	}{
		{"overlapping", RectFromPoints(Point{X: 150, Y: 150}, Point{X: 250, Y: 250}), true},
		{"outside", RectFromPoints(Point{X: 300, Y: 300}, Point{X: 400, Y: 400}), false},
		{"inside span off curve", RectFromPoints(Point{X: 150, Y: 10}, Point{X: 190, Y: 40}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Contains(si.HitTestBox(tt.box), conn)
			if got != tt.want {
				t.Errorf("connection selected = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHitTestPointOrder(t *testing.T) {
	si := newTestIndex(document.Scene{
		Nodes: []document.Node{
			node("lower", 0, 0, 100, 100),
			node("upper", 50, 50, 100, 100),
		},
		Shapes: []document.Shape{
			shape("under", 0, 0, 300, 300),
		},
	})

	tests := []struct {
		p    Point
		want string
	}{
		{Point{X: 75, Y: 75}, "upper"},
		{Point{X: 25, Y: 25}, "lower"},
		{Point{X: 250, Y: 250}, "under"},
	}
	for _, tt := range tests {
		ref, ok := si.HitTestPoint(tt.p, 1)
		if !ok || ref.ID != tt.want {
			t.Errorf("HitTestPoint(%v) = %v, %v; want %s", tt.p, ref, ok, tt.want)
		}
	}
	if _, ok := si.HitTestPoint(Point{X: 400, Y: 400}, 1); ok {
		t.Error("hit on empty canvas")
	}
}

func TestHitTestConnectionOverShape(t *testing.T) {
	si := newTestIndex(document.Scene{
		Nodes: []document.Node{
			node("a", 0, 0, 100, 100),
			node("b", 300, 0, 100, 100),
		},
		Connections: []document.Connection{
			link("c", "a", AnchorRightMid, "b", AnchorLeftMid),
		},
		Shapes: []document.Shape{
			shape("bg", 0, 0, 500, 500),
		},
	})

	ref, ok := si.HitTestPoint(Point{X: 200, Y: 53}, 1)
	if !ok || ref.Kind != KindConnection {
		t.Errorf("hit = %v, %v; want connection", ref, ok)
	}
	// The pick radius is fixed in screen pixels.
	ref, _ = si.HitTestPoint(Point{X: 200, Y: 53}, 4)
	if ref.Kind != KindShape {
		t.Errorf("zoomed-in hit = %v; want shape", ref)
	}
}

func TestHitTestRotatedFootprint(t *testing.T) {
	n := node("bar", 0, 0, 100, 20)
	n.Rotation = 90
	si := newTestIndex(document.Scene{Nodes: []document.Node{n}})

	if _, ok := si.HitTestPoint(Point{X: 50, Y: 50}, 1); !ok {
		t.Error("missed point inside rotated footprint")
	}
	if _, ok := si.HitTestPoint(Point{X: 90, Y: 10}, 1); ok {
		t.Error("hit point outside rotated footprint")
	}
}

func TestHitTestUsesRotatedBounds(t *testing.T) {
	n := node("diamond", 0, 0, 100, 100)
	n.Rotation = 45
	si := newTestIndex(document.Scene{Nodes: []document.Node{n}})

	// Outside the rotated square but inside its axis-aligned bounds, which
	// span about -20.7 to 120.7 on both axes.
	corner := Point{X: -18.7, Y: -18.7}
	if _, ok := si.HitTestPoint(corner, 1); !ok {
		t.Error("missed point inside the rotated bounds")
	}
	box := si.HitTestBox(Rect{X: corner.X - 1, Y: corner.Y - 1, Width: 2, Height: 2})
	if len(box) != 1 {
		t.Errorf("HitTestBox around the same point = %v", box)
	}
	if _, ok := si.HitTestPoint(Point{X: -22, Y: 50}, 1); ok {
		t.Error("hit point left of the rotated bounds")
	}
}

func TestSelectReplacesAcrossKinds(t *testing.T) {
	si := newTestIndex(document.Scene{
		Nodes:  []document.Node{node("n", 0, 0, 10, 10)},
		Shapes: []document.Shape{shape("s", 0, 0, 10, 10)},
	})
	si.Select(ObjectRef{Kind: KindNode, ID: "n"}, false)
	si.Select(ObjectRef{Kind: KindShape, ID: "s"}, false)

	got := si.Current()
	if len(got.Nodes) != 0 || !slices.Equal(got.Shapes, []string{"s"}) {
		t.Errorf("selection = %+v, want only shape s", got)
	}

	si.Select(ObjectRef{Kind: KindNode, ID: "n"}, true)
	si.Select(ObjectRef{Kind: KindNode, ID: "n"}, true)
	if si.Len() != 2 {
		t.Errorf("Len = %d, want 2", si.Len())
	}

	si.Toggle(ObjectRef{Kind: KindShape, ID: "s"})
	if ref, ok := si.Single(); !ok || ref.ID != "n" {
		t.Errorf("Single = %v, %v; want n", ref, ok)
	}
}

func TestPruneDropsMissing(t *testing.T) {
	si := newTestIndex(document.Scene{Nodes: []document.Node{node("n", 0, 0, 10, 10)}})
	si.Set(Selection{Nodes: []string{"n", "gone"}, Connections: []string{"c"}})
	si.Prune()
	if got := si.Current(); !slices.Equal(got.Nodes, []string{"n"}) || len(got.Connections) != 0 {
		t.Errorf("after Prune = %+v", got)
	}
}

func TestBoundsOfUsesDefaultSize(t *testing.T) {
	si := newTestIndex(document.Scene{
		Nodes: []document.Node{
			node("auto", 0, 0, 0, 0),
			node("sized", 300, 50, 100, 100),
		},
	})
	b, ok := si.BoundsOf([]ObjectRef{
		{Kind: KindNode, ID: "auto"},
		{Kind: KindNode, ID: "sized"},
		{Kind: KindConnection, ID: "ignored"},
	})
	if !ok {
		t.Fatal("no bounds")
	}
	want := Rect{X: 0, Y: 0, Width: 400, Height: 200}
	if b != want {
		t.Errorf("bounds = %+v, want %+v", b, want)
	}
	if _, ok := si.BoundsOf([]ObjectRef{{Kind: KindConnection, ID: "x"}}); ok {
		t.Error("bounds reported for connections only")
	}
}
