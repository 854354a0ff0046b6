package replay

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/engine"
)

func twoNodeEngine() *engine.Engine {
	e := engine.NewEngine(engine.Options{})
	e.Load(document.Scene{
		Nodes: []document.Node{
			{Footprint: document.Footprint{ID: "a", Width: 100, Height: 100}, Type: document.NodeTypeText},
			{Footprint: document.Footprint{ID: "b", X: 300, Width: 100, Height: 100}, Type: document.NodeTypeText},
		},
	}, document.DefaultProperties())
	return e
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func mustParse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return s
}

const dragScript = `
[screen]
width = 800
height = 600

[[step]]
op = "down"
pointer = { x = 50, y = 50 }

[[step]]
op = "move"
pointer = { x = 150, y = 80 }

[[step]]
op = "up"
pointer = { x = 150, y = 80 }

[[step]]
op = "tick"
advance = "200ms"
`

func TestReplayDrag(t *testing.T) {
	s := mustParse(t, dragScript)
	if len(s.Steps) != 4 || s.Screen.Width != 800 {
		t.Fatalf("script = %+v", s)
	}
	if s.Steps[3].Advance.Milliseconds() != 200 {
		t.Errorf("advance = %v, want 200ms", s.Steps[3].Advance)
	}

	e := twoNodeEngine()
	res, err := Run(e, s, quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Steps != 4 || res.Revision != 1 || !res.State.CanUndo {
		t.Errorf("result = %+v", res)
	}
	if n := e.Scene().Nodes[0]; n.X != 100 || n.Y != 30 {
		t.Errorf("a = (%v, %v), want (100, 30)", n.X, n.Y)
	}
}

func TestReplayLinkAndUndo(t *testing.T) {
	s := mustParse(t, `
[[step]]
op = "down"
pointer = { x = 100, y = 50 }

[[step]]
op = "up"
pointer = { x = 300, y = 50 }

[[step]]
op = "tick"
advance = "1ms"

[[step]]
op = "undo"
`)
	e := twoNodeEngine()
	if _, err := Run(e, s, quiet()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := len(e.Scene().Connections); n != 0 {
		t.Errorf("connections after undo = %d, want 0", n)
	}
	if !e.CanRedo() {
		t.Error("link not redoable")
	}
}

func TestReplayPencilStroke(t *testing.T) {
	s := mustParse(t, `
[[step]]
op = "tool"
tool = "pencil"

[[step]]
op = "down"
pointer = { x = 500, y = 300, pressure = 0.5 }

[[step]]
op = "move"
pointer = { x = 520, y = 310, pressure = 0.7 }

[[step]]
op = "move"
pointer = { x = 540, y = 340, pressure = 0.9 }

[[step]]
op = "up"
pointer = { x = 540, y = 340 }
`)
	e := twoNodeEngine()
	if _, err := Run(e, s, quiet()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	shapes := e.Scene().Shapes
	if len(shapes) != 1 || shapes[0].Type != document.ShapeTypePencil {
		t.Fatalf("shapes = %+v", shapes)
	}
	if shapes[0].X != 500 || shapes[0].Width != 40 || shapes[0].Height != 40 {
		t.Errorf("stroke footprint = %+v", shapes[0].Footprint)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader(`
[[step]]
op = "down"
poitner = { x = 1, y = 2 }
`))
	if err == nil || !strings.Contains(err.Error(), "poitner") {
		t.Errorf("err = %v, want unknown key error", err)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"unknown op", `[[step]]
op = "teleport"`, `step 1 (teleport): unknown op "teleport"`},
		{"unknown tool", `[[step]]
op = "tool"
tool = "laser"`, "unknown tool"},
		{"bad line type", `[[step]]
op = "line-type"
line_type = "zigzag"`, "unknown line type"},
		{"missing node", `[[step]]
op = "content"
id = "zz"`, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(twoNodeEngine(), mustParse(t, tt.src), quiet())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
