package engine

import (
	"math"
	"testing"

	"github.com/codecanvas/codecanvas/internal/document"
)

func TestResizeBounds(t *testing.T) {
	start := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	tests := []struct {
		name  string
		dir   HandleDirection
		delta Point
		want  Rect
	}{
		{"right grows", HandleRight, Point{X: 50, Y: 30}, Rect{X: 0, Y: 0, Width: 150, Height: 100}},
		{"top moves origin", HandleTop, Point{X: 0, Y: -20}, Rect{X: 0, Y: -20, Width: 100, Height: 120}},
		{"left clamped", HandleLeft, Point{X: 95, Y: 0}, Rect{X: 90, Y: 0, Width: 10, Height: 100}},
		{"bottom-right clamped", HandleBottomRight, Point{X: -200, Y: -200}, Rect{X: 0, Y: 0, Width: 10, Height: 10}},
		{"top-left", HandleTopLeft, Point{X: 10, Y: 20}, Rect{X: 10, Y: 20, Width: 90, Height: 80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResizeBounds(start, tt.dir, tt.delta, DefaultGroupMinSize)
			if got != tt.want {
				t.Errorf("ResizeBounds = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScaleMembersProportional(t *testing.T) {
	from := Rect{X: 0, Y: 0, Width: 200, Height: 100}
	to := Rect{X: 10, Y: 0, Width: 400, Height: 50}
	members := []document.Footprint{
		{ID: "a", X: 0, Y: 0, Width: 100, Height: 50},
		{ID: "b", X: 100, Y: 50, Width: 100, Height: 50},
	}
	got := ScaleMembers(from, to, members)

	want := []document.Footprint{
		{ID: "a", X: 10, Y: 0, Width: 200, Height: 25},
		{ID: "b", X: 210, Y: 25, Width: 200, Height: 25},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("member %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if members[0].Width != 100 {
		t.Error("input footprints mutated")
	}
}

func TestRotateMembers(t *testing.T) {
	members := []document.Footprint{{ID: "a", X: 95, Y: -5, Width: 10, Height: 10}}
	got := RotateMembers(Point{}, math.Pi/2, members)[0]
	if !approx(got.X, -5) || !approx(got.Y, 95) || !approx(got.Rotation, 90) {
		t.Errorf("rotated = %+v, want (-5, 95) at 90 degrees", got)
	}
}

func TestRotateMembersRoundTrip(t *testing.T) {
	pivot := Point{X: 37, Y: -12}
	members := []document.Footprint{
		{ID: "a", X: 10, Y: 20, Width: 40, Height: 30, Rotation: 15},
		{ID: "b", X: -80, Y: 140, Width: 100, Height: 60},
	}
	for _, angle := range []float64{0.3, -1.2, math.Pi, 2.5} {
		back := RotateMembers(pivot, -angle, RotateMembers(pivot, angle, members))
		for i, m := range members {
			if !approx(back[i].X, m.X) || !approx(back[i].Y, m.Y) || !approx(back[i].Rotation, m.Rotation) {
				t.Errorf("angle %v member %d = %+v, want %+v", angle, i, back[i], m)
			}
		}
	}
}

func TestHandleAt(t *testing.T) {
	bounds := Rect{X: 0, Y: 0, Width: 100, Height: 100}
	tests := []struct {
		p     Point
		scale float64
		want  HandleDirection
		ok    bool
	}{
		{Point{X: 100, Y: 100}, 1, HandleBottomRight, true},
		{Point{X: 2, Y: 49}, 1, HandleLeft, true},
		{Point{X: 50, Y: -25}, 1, HandleRotate, true},
		{Point{X: 50, Y: -12.5}, 2, HandleRotate, true},
		{Point{X: 50, Y: 50}, 1, "", false},
		{Point{X: 108, Y: 100}, 1, "", false},
	}
	for _, tt := range tests {
		got, ok := HandleAt(bounds, tt.p, tt.scale)
		if got != tt.want || ok != tt.ok {
			t.Errorf("HandleAt(%v, %v) = %q, %v; want %q, %v", tt.p, tt.scale, got, ok, tt.want, tt.ok)
		}
	}
}

func TestGroupTransformResize(t *testing.T) {
	arena := NewArena(document.Scene{
		Nodes: []document.Node{
			node("a", 0, 0, 100, 100),
			node("auto", 100, 100, 0, 0),
		},
	})
	anchors := NewAnchorCache()
	anchors.Sync("auto", 100, 100)

	refs := []ObjectRef{{Kind: KindNode, ID: "a"}, {Kind: KindNode, ID: "auto"}}
	g, ok := BeginGroupTransform(arena, anchors, refs, DefaultGroupMinSize)
	if !ok {
		t.Fatal("no members")
	}
	if g.StartBounds() != (Rect{X: 0, Y: 0, Width: 200, Height: 200}) {
		t.Fatalf("start bounds = %+v", g.StartBounds())
	}

	g.Resize(HandleBottomRight, Point{X: 200, Y: 200})
	a, _, _ := arena.Lookup("a")
	if a.X != 0 || a.Y != 0 || a.Width != 200 || a.Height != 200 {
		t.Errorf("a = %+v, want (0, 0) 200x200", a)
	}
	auto, _, _ := arena.Lookup("auto")
	if auto.X != 200 || auto.Y != 200 || auto.Width != 200 {
		t.Errorf("auto = %+v, want (200, 200) 200x200", auto)
	}

	// Back to the start size: the auto-sized member stays unsized.
	g.Resize(HandleBottomRight, Point{})
	auto, _, _ = arena.Lookup("auto")
	if auto.HasSize() {
		t.Errorf("auto-sized member acquired a size: %+v", auto)
	}
	if auto.X != 100 || auto.Y != 100 {
		t.Errorf("auto = %+v, want (100, 100)", auto)
	}
}

func TestGroupTransformMinSize(t *testing.T) {
	arena := NewArena(document.Scene{
		Shapes: []document.Shape{
			shape("a", 0, 0, 50, 50),
			shape("b", 50, 50, 50, 50),
		},
	})
	refs := []ObjectRef{{Kind: KindShape, ID: "a"}, {Kind: KindShape, ID: "b"}}
	g, _ := BeginGroupTransform(arena, NewAnchorCache(), refs, DefaultGroupMinSize)

	bounds := g.Resize(HandleLeft, Point{X: 500})
	if bounds.Width != DefaultGroupMinSize || bounds.X != 90 {
		t.Errorf("bounds = %+v, want x 90 width %v", bounds, DefaultGroupMinSize)
	}
	b, _, _ := arena.Lookup("b")
	if !approx(b.Width, 5) || !approx(b.X, 95) {
		t.Errorf("b = %+v, want x 95 width 5", b)
	}
}
