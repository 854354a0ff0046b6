// Package replay drives an engine from a recorded TOML script of input
// events. It is used by canvasctl to reproduce gesture bugs without a
// browser.
//
// A script looks like:
//
//	[screen]
//	width = 800
//	height = 600
//
//	[[step]]
//	op = "down"
//	pointer = { x = 50, y = 50 }
//
//	[[step]]
//	op = "tick"
//	advance = "200ms"
package replay

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/engine"
)

type Script struct {
	Screen Screen `toml:"screen"`
	Steps  []Step `toml:"step"`
}

type Screen struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// Step is one input event. Which fields apply depends on Op.
type Step struct {
	Op       string              `toml:"op"`
	Pointer  engine.PointerInput `toml:"pointer"`
	Pointer2 engine.PointerInput `toml:"pointer2"`
	Wheel    engine.WheelInput   `toml:"wheel"`
	Key      engine.KeyInput     `toml:"key"`
	Advance  time.Duration       `toml:"advance"`
	Tool     string              `toml:"tool"`
	Shape    string              `toml:"shape"`
	LineType string              `toml:"line_type"`
	ID       string              `toml:"id"`
	Content  string              `toml:"content"`
}

// Parse reads a script. Unknown keys are rejected so typos do not silently
// turn into zero values.
func Parse(r io.Reader) (*Script, error) {
	var s Script
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in script: %s", strings.Join(keys, ", "))
	}
	return &s, nil
}

// Result summarizes a finished replay.
type Result struct {
	Steps    int
	Revision uint64
	State    engine.State
}

// settleAdvance is the clock step of the implicit tick that ends a replay.
const settleAdvance = time.Second

type runner struct {
	e     *engine.Engine
	log   *slog.Logger
	now   time.Duration
	token engine.Token
}

// Run applies every step of s to e in order. The engine's clock starts at
// zero and only moves on "tick" steps; a final tick settles history and the
// viewport.
func Run(e *engine.Engine, s *Script, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.Default()
	}
	if s.Screen.Width > 0 && s.Screen.Height > 0 {
		e.SetScreenSize(s.Screen.Width, s.Screen.Height)
	}

	r := &runner{e: e, log: log}
	for i, step := range s.Steps {
		if err := r.apply(step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		log.Debug("step", "n", i+1, "op", step.Op, "gesture", e.ActiveGesture().String(), "revision", e.Revision())
	}

	r.now += settleAdvance
	e.Tick(r.now)

	return &Result{Steps: len(s.Steps), Revision: e.Revision(), State: e.State()}, nil
}

func (r *runner) apply(s Step) error {
	e := r.e
	switch s.Op {
	case "down":
		if e.ActiveGesture() != engine.GestureNone {
			e.Cancel()
		}
		r.token = e.PointerDown(s.Pointer)
	case "move":
		e.Move(r.token, s.Pointer)
	case "up":
		e.End(r.token, s.Pointer)
		r.token = 0
	case "pinch-start":
		r.token = e.BeginPinch(point(s.Pointer), point(s.Pointer2))
	case "pinch-move":
		e.PinchMove(r.token, point(s.Pointer), point(s.Pointer2))
	case "pinch-end":
		e.End(r.token, engine.PointerInput{})
		r.token = 0
	case "wheel":
		e.Wheel(s.Wheel)
	case "key":
		e.Key(s.Key)
	case "tick":
		r.now += s.Advance
		e.Tick(r.now)
	case "cancel":
		e.Cancel()
		r.token = 0
	case "undo":
		e.Undo()
	case "redo":
		e.Redo()
	case "clear-selection":
		e.ClearSelection()
	case "tool":
		e.SetTool(engine.Tool(s.Tool))
		if string(e.Tool()) != s.Tool {
			return fmt.Errorf("unknown tool %q", s.Tool)
		}
	case "line-type":
		t := document.LineType(s.LineType)
		if !t.Valid() {
			return fmt.Errorf("unknown line type %q", s.LineType)
		}
		e.SetDefaultLineType(t)
	case "add-text":
		e.AddTextNode()
	case "add-shape":
		if e.AddShape(document.ShapeType(s.Shape)) == "" {
			return fmt.Errorf("cannot add shape %q", s.Shape)
		}
	case "content":
		if !e.UpdateNodeContent(s.ID, s.Content) {
			return fmt.Errorf("node %q not found", s.ID)
		}
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

func point(in engine.PointerInput) engine.Point {
	return engine.Point{X: in.X, Y: in.Y}
}
