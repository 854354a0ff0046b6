package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/codecanvas/codecanvas/internal/document"
)

type countingSink struct {
	commits int
	last    document.Scene
}

func (s *countingSink) SceneCommitted(scene document.Scene) {
	s.commits++
	s.last = scene
}

func newTestEngine(t *testing.T, scene document.Scene) *Engine {
	t.Helper()
	n := 0
	e := NewEngine(Options{
		NewID: func(prefix string) string {
			n++
			return fmt.Sprintf("%s_%d", prefix, n)
		},
	})
	e.Load(scene, document.DefaultProperties())
	e.SetScreenSize(800, 600)
	return e
}

func twoNodes() document.Scene {
	return document.Scene{
		Nodes: []document.Node{
			node("a", 0, 0, 100, 100),
			node("b", 300, 0, 100, 100),
		},
	}
}

func press(x, y float64) PointerInput { return PointerInput{X: x, Y: y} }

func footprintOf(t *testing.T, e *Engine, id string) document.Footprint {
	t.Helper()
	f, _, ok := e.arena.Lookup(id)
	if !ok {
		t.Fatalf("object %s not found", id)
	}
	return f
}

func TestDragCommitAndUndo(t *testing.T) {
	e := newTestEngine(t, twoNodes())

	tok := e.PointerDown(press(50, 50))
	if tok == 0 || e.ActiveGesture() != GestureDrag {
		t.Fatalf("PointerDown started %v", e.ActiveGesture())
	}
	e.Move(tok, press(60, 70))
	e.Move(tok, press(80, 90))

	if got := e.Scene().Nodes[0].X; got != 0 {
		t.Errorf("committed x moved mid-gesture: %v", got)
	}
	e.End(tok, press(80, 90))

	if f := footprintOf(t, e, "a"); f.X != 30 || f.Y != 40 {
		t.Errorf("a = (%v, %v), want (30, 40)", f.X, f.Y)
	}
	if res := e.Tick(0); !res.HistoryPushed {
		t.Fatal("drag not recorded in history")
	}

	if !e.Undo() {
		t.Fatal("undo failed")
	}
	if f := footprintOf(t, e, "a"); f.X != 0 || f.Y != 0 {
		t.Errorf("after undo a = (%v, %v), want (0, 0)", f.X, f.Y)
	}
	if !e.Redo() {
		t.Fatal("redo failed")
	}
	if f := footprintOf(t, e, "a"); f.X != 30 || f.Y != 40 {
		t.Errorf("after redo a = (%v, %v), want (30, 40)", f.X, f.Y)
	}
}

func TestRevisionCountsSinceLoad(t *testing.T) {
	e := newTestEngine(t, twoNodes())
	if got := e.Revision(); got != 0 {
		t.Fatalf("revision after Load = %d, want 0", got)
	}

	tok := e.PointerDown(press(50, 50))
	e.Move(tok, press(60, 50))
	e.End(tok, press(60, 50))
	if got := e.Revision(); got != 1 {
		t.Errorf("revision after drag = %d, want 1", got)
	}

	e.Load(twoNodes(), document.DefaultProperties())
	if got := e.Revision(); got != 0 {
		t.Errorf("revision after reload = %d, want 0", got)
	}
}

func TestDragAtScale(t *testing.T) {
	props := document.DefaultProperties()
	props.Viewport = document.Viewport{Scale: 2}
	e := newTestEngine(t, twoNodes())
	e.Load(twoNodes(), props)

	tok := e.PointerDown(press(100, 100))
	e.Move(tok, press(140, 100))
	e.End(tok, press(140, 100))

	if f := footprintOf(t, e, "a"); f.X != 20 {
		t.Errorf("a.X = %v, want 20", f.X)
	}
}

func TestClickWithoutMoveRecordsNothing(t *testing.T) {
	e := newTestEngine(t, twoNodes())
	rev := e.Revision()

	tok := e.PointerDown(press(50, 50))
	e.End(tok, press(50, 50))
	e.Tick(0)

	if e.Revision() != rev {
		t.Errorf("revision changed from %d to %d", rev, e.Revision())
	}
	if e.CanUndo() {
		t.Error("click produced an undo entry")
	}
	if sel := e.Selection(); len(sel.Nodes) != 1 || sel.Nodes[0] != "a" {
		t.Errorf("selection = %+v, want node a", sel)
	}
}

func TestCancelRestores(t *testing.T) {
	e := newTestEngine(t, twoNodes())

	tok := e.PointerDown(press(50, 50))
	e.Move(tok, press(150, 150))
	e.Cancel()

	if f := footprintOf(t, e, "a"); f.X != 0 || f.Y != 0 {
		t.Errorf("a = (%v, %v) after cancel", f.X, f.Y)
	}
	if e.ActiveGesture() != GestureNone {
		t.Errorf("gesture %v still active", e.ActiveGesture())
	}
	e.Tick(0)
	if e.CanUndo() {
		t.Error("cancelled gesture recorded history")
	}
}

func TestStaleTokenIgnored(t *testing.T) {
	e := newTestEngine(t, twoNodes())

	first := e.PointerDown(press(50, 50))
	if second := e.BeginPan(Point{}); second != 0 {
		t.Error("second gesture admitted while one is active")
	}
	e.End(first, press(50, 50))

	pan := e.BeginPan(Point{})
	e.Move(first, press(500, 500))
	if f := footprintOf(t, e, "a"); f.X != 0 {
		t.Errorf("stale move applied: a.X = %v", f.X)
	}
	e.End(first, press(500, 500))
	if e.ActiveGesture() != GesturePan {
		t.Error("stale end finished the active gesture")
	}
	e.End(pan, press(0, 0))
}

func TestPanFlushesViewport(t *testing.T) {
	e := newTestEngine(t, document.Scene{})

	tok := e.PointerDown(press(400, 300))
	if e.ActiveGesture() != GesturePan {
		t.Fatalf("empty canvas started %v", e.ActiveGesture())
	}
	e.Move(tok, press(420, 310))
	if got := e.Viewport().OffsetX; got != 0 {
		t.Errorf("committed offset changed mid-pan: %v", got)
	}
	e.End(tok, press(420, 310))
	if got := e.Viewport(); got.OffsetX != 20 || got.OffsetY != 10 {
		t.Errorf("viewport = %+v, want offset (20, 10)", got)
	}
}

func TestWheelSettlesOnTick(t *testing.T) {
	e := newTestEngine(t, document.Scene{})

	e.Wheel(WheelInput{DeltaY: 40})
	if res := e.Tick(0); res.ViewportSynced {
		t.Error("synced immediately")
	}
	if res := e.Tick(200 * time.Millisecond); !res.ViewportSynced {
		t.Error("not synced after the idle delay")
	}
	if got := e.Properties().Viewport.OffsetY; got != -40 {
		t.Errorf("properties offsetY = %v, want -40", got)
	}
}

func TestWheelIgnoredDuringDrag(t *testing.T) {
	e := newTestEngine(t, twoNodes())
	tok := e.PointerDown(press(50, 50))
	if e.Wheel(WheelInput{DeltaY: 10}) {
		t.Error("wheel handled during drag")
	}
	e.End(tok, press(50, 50))
}

func TestLinkGesture(t *testing.T) {
	e := newTestEngine(t, twoNodes())

	tok := e.PointerDown(press(100, 50))
	if e.ActiveGesture() != GestureLink {
		t.Fatalf("press on anchor started %v", e.ActiveGesture())
	}
	e.Move(tok, press(250, 50))
	e.End(tok, press(300, 50))

	conns := e.Scene().Connections
	if len(conns) != 1 {
		t.Fatalf("connections = %d, want 1", len(conns))
	}
	c := conns[0]
	if c.Source != (document.Endpoint{ObjectID: "a", AnchorID: AnchorRightMid}) ||
		c.Target != (document.Endpoint{ObjectID: "b", AnchorID: AnchorLeftMid}) {
		t.Errorf("connection = %+v", c)
	}
	if c.Type != document.LineTypeArrow {
		t.Errorf("type = %s, want arrow", c.Type)
	}
	path, ok := e.ConnectionPath(c.ID)
	if !ok || path != "M 100 50 C 200 50, 200 50, 300 50" {
		t.Errorf("path = %q", path)
	}
}

func TestLinkToSelfOrNothing(t *testing.T) {
	e := newTestEngine(t, twoNodes())

	tok := e.PointerDown(press(100, 50))
	e.End(tok, press(100, 50))
	tok = e.PointerDown(press(100, 50))
	e.End(tok, press(200, 300))

	if n := len(e.Scene().Connections); n != 0 {
		t.Errorf("connections = %d, want 0", n)
	}
	if e.router.State() != LinkIdle {
		t.Error("router left linking")
	}
}

func TestDeleteRemovesIncidentConnections(t *testing.T) {
	scene := twoNodes()
	scene.Connections = []document.Connection{link("c", "a", AnchorRightMid, "b", AnchorLeftMid)}
	e := newTestEngine(t, scene)

	e.Select(ObjectRef{Kind: KindNode, ID: "a"}, false)
	if !e.Key(KeyInput{Key: "Delete"}) {
		t.Fatal("delete key not handled")
	}
	s := e.Scene()
	if len(s.Nodes) != 1 || len(s.Connections) != 0 {
		t.Errorf("scene after delete: %d nodes, %d connections", len(s.Nodes), len(s.Connections))
	}

	if !e.Key(KeyInput{Key: "z", Ctrl: true}) {
		t.Fatal("undo shortcut not handled")
	}
	if s := e.Scene(); len(s.Nodes) != 2 || len(s.Connections) != 1 {
		t.Errorf("scene after undo: %d nodes, %d connections", len(s.Nodes), len(s.Connections))
	}
	if !e.Key(KeyInput{Key: "z", Meta: true, Shift: true}) {
		t.Error("redo shortcut not handled")
	}
	if e.Key(KeyInput{Key: "Delete", Editing: true}) {
		t.Error("shortcut handled while editing text")
	}
}

func TestPencilStroke(t *testing.T) {
	e := newTestEngine(t, document.Scene{})
	e.SetTool(ToolPencil)

	tok := e.PointerDown(PointerInput{X: 10, Y: 10, Pressure: 0.4})
	e.Move(tok, PointerInput{X: 20, Y: 30, Pressure: 0.6})
	e.Move(tok, PointerInput{X: 40, Y: 20, Pressure: 0.8})
	e.End(tok, PointerInput{X: 40, Y: 20})

	shapes := e.Scene().Shapes
	if len(shapes) != 1 {
		t.Fatalf("shapes = %d, want 1", len(shapes))
	}
	s := shapes[0]
	if s.Type != document.ShapeTypePencil || s.X != 10 || s.Y != 10 || s.Width != 30 || s.Height != 20 {
		t.Errorf("stroke = %+v", s.Footprint)
	}
	if len(s.Points) != 3 {
		t.Errorf("points = %d, want 3", len(s.Points))
	}
}

func TestBoxSelect(t *testing.T) {
	e := newTestEngine(t, twoNodes())

	tok := e.PointerDown(PointerInput{X: -10, Y: -10, Modifier: true})
	if e.ActiveGesture() != GestureBoxSelect {
		t.Fatalf("modifier press started %v", e.ActiveGesture())
	}
	e.Move(tok, press(350, 20))
	e.End(tok, press(350, 20))

	if sel := e.Selection(); len(sel.Nodes) != 2 {
		t.Errorf("selection = %+v, want both nodes", sel)
	}
}

func TestGroupResizeGesture(t *testing.T) {
	e := newTestEngine(t, document.Scene{
		Nodes: []document.Node{
			node("a", 0, 0, 100, 100),
			node("b", 100, 100, 100, 100),
		},
	})
	e.Select(ObjectRef{Kind: KindNode, ID: "a"}, false)
	e.Select(ObjectRef{Kind: KindNode, ID: "b"}, true)

	tok := e.PointerDown(press(200, 200))
	if e.ActiveGesture() != GestureGroupResize {
		t.Fatalf("press on handle started %v", e.ActiveGesture())
	}
	e.Move(tok, press(400, 400))
	e.End(tok, press(400, 400))

	if a := footprintOf(t, e, "a"); a.Width != 200 || a.Height != 200 {
		t.Errorf("a = %+v, want 200x200", a)
	}
	if b := footprintOf(t, e, "b"); b.X != 200 || b.Y != 200 || b.Width != 200 {
		t.Errorf("b = %+v, want (200, 200) 200x200", b)
	}
	if b, _ := e.SelectionBounds(); b != (Rect{X: 0, Y: 0, Width: 400, Height: 400}) {
		t.Errorf("selection bounds = %+v", b)
	}
}

func TestGroupRotateGesture(t *testing.T) {
	e := newTestEngine(t, document.Scene{
		Nodes: []document.Node{
			node("a", 0, 0, 100, 100),
			node("b", 100, 100, 100, 100),
		},
	})
	e.Select(ObjectRef{Kind: KindNode, ID: "a"}, false)
	e.Select(ObjectRef{Kind: KindNode, ID: "b"}, true)

	// The rotate handle sits 25px above the top center of (0, 0)-(200, 200).
	tok := e.PointerDown(press(100, -25))
	if e.ActiveGesture() != GestureGroupRotate {
		t.Fatalf("press on rotate handle started %v", e.ActiveGesture())
	}

	e.Move(tok, press(225, 100))
	a := footprintOf(t, e, "a")
	if !approx(a.X, 100) || !approx(a.Y, 0) || !approx(a.Rotation, 90) {
		t.Errorf("a after quarter turn = %+v", a)
	}

	e.Move(tok, press(100, -25))
	a = footprintOf(t, e, "a")
	if !approx(a.X, 0) || !approx(a.Y, 0) || !approx(a.Rotation, 0) {
		t.Errorf("a after returning = %+v", a)
	}
	e.End(tok, press(100, -25))
}

func TestSingleResizeMinimum(t *testing.T) {
	e := newTestEngine(t, twoNodes())
	e.Select(ObjectRef{Kind: KindNode, ID: "a"}, false)

	tok := e.PointerDown(press(100, 100))
	if e.ActiveGesture() != GestureResize {
		t.Fatalf("press on handle started %v", e.ActiveGesture())
	}
	e.Move(tok, press(-300, -300))
	e.End(tok, press(-300, -300))

	if a := footprintOf(t, e, "a"); a.Width != DefaultSingleMinSize || a.Height != DefaultSingleMinSize {
		t.Errorf("a = %+v, want %vx%v", a, DefaultSingleMinSize, DefaultSingleMinSize)
	}
}

func TestSinkNotified(t *testing.T) {
	e := newTestEngine(t, document.Scene{})
	sink := &countingSink{}
	e.SetSink(sink)

	id := e.AddTextNode()
	if sink.commits != 1 || len(sink.last.Nodes) != 1 || sink.last.Nodes[0].ID != id {
		t.Errorf("sink = %d commits, last %+v", sink.commits, sink.last.Nodes)
	}
	n := sink.last.Nodes[0]
	if n.X != 300 || n.Y != 250 || n.Width != 200 || n.Height != 150 || n.Title != "Note" {
		t.Errorf("text node = %+v", n)
	}
}

func TestStyleSelectedConnection(t *testing.T) {
	scene := twoNodes()
	scene.Connections = []document.Connection{link("c", "a", AnchorRightMid, "b", AnchorLeftMid)}
	e := newTestEngine(t, scene)

	e.Select(ObjectRef{Kind: KindConnection, ID: "c"}, false)
	if !e.StyleSelected("#ff0000", 4) {
		t.Fatal("style not applied")
	}
	c := e.Scene().Connections[0]
	if c.Style == nil || c.Style.Color != "#ff0000" || c.Style.Width != 4 {
		t.Errorf("style = %+v", c.Style)
	}
}

func TestUnlink(t *testing.T) {
	scene := twoNodes()
	scene.Connections = []document.Connection{
		link("c1", "a", AnchorRightMid, "b", AnchorLeftMid),
		link("c2", "b", AnchorTopMid, "a", AnchorTopMid),
	}
	e := newTestEngine(t, scene)
	e.Select(ObjectRef{Kind: KindConnection, ID: "c1"}, false)

	if n := e.Unlink("a"); n != 2 {
		t.Errorf("Unlink = %d, want 2", n)
	}
	if len(e.Selection().Connections) != 0 {
		t.Error("removed connection still selected")
	}
}

func TestRenderOrder(t *testing.T) {
	scene := twoNodes()
	scene.Shapes = []document.Shape{shape("s", 0, 200, 50, 50)}
	scene.Connections = []document.Connection{link("c", "a", AnchorRightMid, "b", AnchorLeftMid)}
	e := newTestEngine(t, scene)

	var layers []string
	for _, cmd := range e.DrawCommands() {
		if len(layers) == 0 || layers[len(layers)-1] != cmd.Layer {
			layers = append(layers, cmd.Layer)
		}
	}
	want := []string{"shape", "connection", "node"}
	if fmt.Sprint(layers) != fmt.Sprint(want) {
		t.Errorf("layers = %v, want %v", layers, want)
	}
}
