//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"time"

	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/engine"
)

var (
	eng   *engine.Engine
	start = time.Now()
)

func main() {
	eng = engine.NewEngine(engine.Options{})

	// Create the engine API object
	canvasEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	canvasEngine.Set("loadCanvas", js.FuncOf(loadCanvas))
	canvasEngine.Set("loadSampleScene", js.FuncOf(loadSampleScene))
	canvasEngine.Set("setScreenSize", js.FuncOf(setScreenSize))
	canvasEngine.Set("setTool", js.FuncOf(setTool))
	canvasEngine.Set("setLineType", js.FuncOf(setLineType))
	canvasEngine.Set("setMeasurer", js.FuncOf(setMeasurer))
	canvasEngine.Set("setOnCommit", js.FuncOf(setOnCommit))
	canvasEngine.Set("reportHandles", js.FuncOf(reportHandles))
	canvasEngine.Set("pointerDown", js.FuncOf(pointerDown))
	canvasEngine.Set("pointerMove", js.FuncOf(pointerMove))
	canvasEngine.Set("pointerUp", js.FuncOf(pointerUp))
	canvasEngine.Set("pinchStart", js.FuncOf(pinchStart))
	canvasEngine.Set("pinchMove", js.FuncOf(pinchMove))
	canvasEngine.Set("wheel", js.FuncOf(wheel))
	canvasEngine.Set("key", js.FuncOf(key))
	canvasEngine.Set("cancel", js.FuncOf(cancel))
	canvasEngine.Set("addTextNode", js.FuncOf(addTextNode))
	canvasEngine.Set("addShape", js.FuncOf(addShape))
	canvasEngine.Set("updateNodeContent", js.FuncOf(updateNodeContent))
	canvasEngine.Set("styleSelected", js.FuncOf(styleSelected))
	canvasEngine.Set("unlink", js.FuncOf(unlink))
	canvasEngine.Set("undo", js.FuncOf(undo))
	canvasEngine.Set("redo", js.FuncOf(redo))
	canvasEngine.Set("zoomStep", js.FuncOf(zoomStep))
	canvasEngine.Set("resetView", js.FuncOf(resetView))
	canvasEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	canvasEngine.Set("render", js.FuncOf(render))
	canvasEngine.Set("getState", js.FuncOf(getState))
	canvasEngine.Set("getScene", js.FuncOf(getScene))
	canvasEngine.Set("getProperties", js.FuncOf(getProperties))
	canvasEngine.Set("hitTest", js.FuncOf(hitTest))
	canvasEngine.Set("connectionPath", js.FuncOf(connectionPath))
	canvasEngine.Set("affectedConnections", js.FuncOf(affectedConnections))

	// Register on global scope
	js.Global().Set("canvasEngine", canvasEngine)

	// Signal that WASM is ready
	js.Global().Set("canvasWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// decodeArg unmarshals the JSON string in args[i] into v.
func decodeArg(args []js.Value, i int, v any) bool {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return false
	}
	return json.Unmarshal([]byte(args[i].String()), v) == nil
}

func token(args []js.Value) engine.Token {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return 0
	}
	return engine.Token(args[0].Int())
}

// jsMeasurer asks the page for rendered anchor positions. The callback
// returns a JSON string {"origin":{x,y},"handles":{id:{x,y}}} or null.
type jsMeasurer struct {
	fn js.Value
}

type measured struct {
	Origin  struct{ X, Y float64 }            `json:"origin"`
	Handles map[string]struct{ X, Y float64 } `json:"handles"`
}

func (m jsMeasurer) MeasureHandles(objectID string) (engine.Point, map[string]engine.Point, bool) {
	res := m.fn.Invoke(objectID)
	if res.Type() != js.TypeString {
		return engine.Point{}, nil, false
	}
	var out measured
	if err := json.Unmarshal([]byte(res.String()), &out); err != nil || len(out.Handles) == 0 {
		return engine.Point{}, nil, false
	}
	handles := make(map[string]engine.Point, len(out.Handles))
	for id, p := range out.Handles {
		handles[id] = engine.Point{X: p.X, Y: p.Y}
	}
	return engine.Point{X: out.Origin.X, Y: out.Origin.Y}, handles, true
}

type jsSink struct {
	fn js.Value
}

func (s jsSink) SceneCommitted(scene document.Scene) {
	data, err := json.Marshal(scene)
	if err != nil {
		return
	}
	s.fn.Invoke(string(data))
}

// --- Command Handlers ---

func loadCanvas(this js.Value, args []js.Value) interface{} {
	var c struct {
		Scene      document.Scene       `json:"scene"`
		Properties *document.Properties `json:"properties"`
	}
	if !decodeArg(args, 0, &c) {
		return js.ValueOf(map[string]interface{}{"error": "missing canvas JSON"})
	}
	props := document.DefaultProperties()
	if c.Properties != nil {
		props = *c.Properties
	}
	if err := c.Scene.Validate(); err != nil {
		return errorResult(err)
	}
	eng.Load(c.Scene, props)
	return okResult()
}

func loadSampleScene(this js.Value, args []js.Value) interface{} {
	eng.Load(document.NewSampleScene(), document.DefaultProperties())
	return okResult()
}

func setScreenSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetScreenSize(args[0].Float(), args[1].Float())
	return nil
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetTool(engine.Tool(args[0].String()))
	return js.ValueOf(string(eng.Tool()))
}

func setLineType(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	t := document.LineType(args[0].String())
	if !t.Valid() {
		return js.ValueOf(map[string]interface{}{"error": "unknown line type"})
	}
	eng.SetDefaultLineType(t)
	return okResult()
}

func setMeasurer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		eng.SetMeasurer(nil)
		return nil
	}
	eng.SetMeasurer(jsMeasurer{fn: args[0]})
	return nil
}

func setOnCommit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		eng.SetSink(nil)
		return nil
	}
	eng.SetSink(jsSink{fn: args[0]})
	return nil
}

func reportHandles(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	var out measured
	if !decodeArg(args, 1, &out) {
		return nil
	}
	handles := make(map[string]engine.Point, len(out.Handles))
	for id, p := range out.Handles {
		handles[id] = engine.Point{X: p.X, Y: p.Y}
	}
	eng.ReportHandles(args[0].String(), engine.Point{X: out.Origin.X, Y: out.Origin.Y}, handles)
	return nil
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	var in engine.PointerInput
	if !decodeArg(args, 0, &in) {
		return js.ValueOf(0)
	}
	return js.ValueOf(int(eng.PointerDown(in)))
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	var in engine.PointerInput
	if !decodeArg(args, 1, &in) {
		return nil
	}
	eng.Move(token(args), in)
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	var in engine.PointerInput
	decodeArg(args, 1, &in)
	eng.End(token(args), in)
	return nil
}

func pinchStart(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf(0)
	}
	a := engine.Point{X: args[0].Float(), Y: args[1].Float()}
	b := engine.Point{X: args[2].Float(), Y: args[3].Float()}
	return js.ValueOf(int(eng.BeginPinch(a, b)))
}

func pinchMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 {
		return nil
	}
	a := engine.Point{X: args[1].Float(), Y: args[2].Float()}
	b := engine.Point{X: args[3].Float(), Y: args[4].Float()}
	eng.PinchMove(token(args), a, b)
	return nil
}

func wheel(this js.Value, args []js.Value) interface{} {
	var in engine.WheelInput
	if !decodeArg(args, 0, &in) {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Wheel(in))
}

func key(this js.Value, args []js.Value) interface{} {
	var k engine.KeyInput
	if !decodeArg(args, 0, &k) {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Key(k))
}

func cancel(this js.Value, args []js.Value) interface{} {
	eng.Cancel()
	return nil
}

func addTextNode(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.AddTextNode())
}

func addShape(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.AddShape(document.ShapeType(args[0].String())))
}

func updateNodeContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.UpdateNodeContent(args[0].String(), args[1].String()))
}

func styleSelected(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.StyleSelected(args[0].String(), args[1].Float()))
}

func unlink(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	return js.ValueOf(eng.Unlink(args[0].String()))
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Redo())
}

func zoomStep(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.ZoomStep(args[0].Float())
	return nil
}

func resetView(this js.Value, args []js.Value) interface{} {
	eng.ResetView()
	return nil
}

func tick(this js.Value, args []js.Value) interface{} {
	res := eng.Tick(time.Since(start))
	return js.ValueOf(map[string]interface{}{
		"viewportSynced": res.ViewportSynced,
		"historyPushed":  res.HistoryPushed,
	})
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.StateJSON())
}

func getScene(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.SceneJSON())
}

func getProperties(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.Properties())
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(string(data))
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	ref, ok := eng.HitTest(engine.Point{X: args[0].Float(), Y: args[1].Float()})
	if !ok {
		return js.ValueOf("")
	}
	return js.ValueOf(map[string]interface{}{"kind": ref.Kind.String(), "id": ref.ID})
}

func connectionPath(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("")
	}
	path, _ := eng.ConnectionPath(args[0].String())
	return js.ValueOf(path)
}

func affectedConnections(this js.Value, args []js.Value) interface{} {
	ids := eng.AffectedConnections()
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return js.ValueOf(out)
}
