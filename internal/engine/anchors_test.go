package engine

import (
	"testing"

	"github.com/codecanvas/codecanvas/internal/document"
)

type fakeMeasurer struct {
	origin  Point
	handles map[string]Point
}

func (m fakeMeasurer) MeasureHandles(objectID string) (Point, map[string]Point, bool) {
	if m.handles == nil {
		return Point{}, nil, false
	}
	return m.origin, m.handles, true
}

func TestAnchorsFor(t *testing.T) {
	got := AnchorsFor(200, 100)
	want := map[string]Point{
		AnchorTopLeft:     {X: 0, Y: 0},
		AnchorTopRight:    {X: 200, Y: 0},
		AnchorBottomLeft:  {X: 0, Y: 100},
		AnchorBottomRight: {X: 200, Y: 100},
		AnchorTopMid:      {X: 100, Y: 0},
		AnchorBottomMid:   {X: 100, Y: 100},
		AnchorLeftMid:     {X: 0, Y: 50},
		AnchorRightMid:    {X: 200, Y: 50},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for id, p := range want {
		if got[id] != p {
			t.Errorf("%s = %v, want %v", id, got[id], p)
		}
	}
}

func TestPositionOfFallback(t *testing.T) {
	c := NewAnchorCache()
	got := c.PositionOf("node_missing", AnchorTopMid, Point{X: 10, Y: 20})
	if got != (Point{X: 110, Y: 120}) {
		t.Errorf("PositionOf = %v, want (110, 120)", got)
	}
}

func TestSyncOnlyOnSizeChange(t *testing.T) {
	c := NewAnchorCache()
	if !c.Sync("a", 100, 50) {
		t.Fatal("first sync wrote nothing")
	}
	if c.Sync("a", 100, 50) {
		t.Error("sync with unchanged size rewrote entries")
	}
	if !c.Sync("a", 120, 50) {
		t.Error("sync after resize wrote nothing")
	}
	if off, _ := c.Offset("a", AnchorRightMid); off != (Point{X: 120, Y: 25}) {
		t.Errorf("right-mid = %v, want (120, 25)", off)
	}
	if c.Sync("b", 0, 50) {
		t.Error("sync with unknown width wrote entries")
	}
}

func TestMeasureDividesByScale(t *testing.T) {
	c := NewAnchorCache()
	c.SetMeasurer(fakeMeasurer{
		origin: Point{X: 100, Y: 100},
		handles: map[string]Point{
			AnchorLeftMid:  {X: 100, Y: 160},
			AnchorRightMid: {X: 300, Y: 160},
		},
	})

	c.Refresh(document.Footprint{ID: "auto", X: 5, Y: 5}, 2)

	off, ok := c.Offset("auto", AnchorRightMid)
	if !ok {
		t.Fatal("right-mid not cached")
	}
	if off != (Point{X: 100, Y: 30}) {
		t.Errorf("right-mid offset = %v, want (100, 30)", off)
	}
	if s, ok := c.SizeOf("auto"); !ok || s.Width != 100 || s.Height != 30 {
		t.Errorf("SizeOf = %v, %v; want {100 30}, true", s, ok)
	}
}

func TestForget(t *testing.T) {
	c := NewAnchorCache()
	c.Sync("a", 10, 10)
	c.Sync("b", 10, 10)
	c.Forget("a")
	if _, ok := c.Offset("a", AnchorTopLeft); ok {
		t.Error("entries for a survived Forget")
	}
	if c.Len() != len(AnchorIDs) {
		t.Errorf("Len = %d, want %d", c.Len(), len(AnchorIDs))
	}
}
