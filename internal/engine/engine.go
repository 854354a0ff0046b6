package engine

import (
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/typeid"
)

// Options tunes the engine's limits. Zero values fall back to the defaults.
type Options struct {
	HistoryCapacity   int
	MinScale          float64
	MaxScale          float64
	GroupMinSize      float64
	SingleMinSize     float64
	ViewportSyncDelay time.Duration

	Logger *slog.Logger

	// NewID generates object ids for a typeid prefix.
	NewID func(prefix string) string
}

// DefaultOptions returns the stock limits.
func DefaultOptions() Options {
	return Options{
		HistoryCapacity:   DefaultHistoryCapacity,
		MinScale:          DefaultMinScale,
		MaxScale:          DefaultMaxScale,
		GroupMinSize:      DefaultGroupMinSize,
		SingleMinSize:     DefaultSingleMinSize,
		ViewportSyncDelay: DefaultViewportSyncDelay,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HistoryCapacity <= 0 {
		o.HistoryCapacity = d.HistoryCapacity
	}
	if o.MinScale <= 0 {
		o.MinScale = d.MinScale
	}
	if o.MaxScale <= 0 {
		o.MaxScale = d.MaxScale
	}
	if o.GroupMinSize <= 0 {
		o.GroupMinSize = d.GroupMinSize
	}
	if o.SingleMinSize <= 0 {
		o.SingleMinSize = d.SingleMinSize
	}
	if o.ViewportSyncDelay <= 0 {
		o.ViewportSyncDelay = d.ViewportSyncDelay
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.NewID == nil {
		o.NewID = typeid.New
	}
	return o
}

// Tool selects what a pointer press on empty canvas does.
type Tool string

const (
	ToolSelect Tool = "select"
	ToolHand   Tool = "hand"
	ToolPencil Tool = "pencil"
)

// SceneSink is notified after every committed change to the scene.
type SceneSink interface {
	SceneCommitted(s document.Scene)
}

// Engine owns the canvas state and routes pointer gestures to the component
// that handles them. It is not safe for concurrent use; one goroutine (or the
// browser event loop) drives it.
type Engine struct {
	opts Options
	log  *slog.Logger

	arena     *Arena
	anchors   *AnchorCache
	viewport  *ViewportTransform
	selection *SelectionIndex
	router    *ConnectionRouter
	freehand  *FreehandCapture
	history   *HistoryStore

	props  document.Properties
	tool   Tool
	screen Size
	sink   SceneSink

	gate gestureGate
	g    activeGesture

	revision uint64
}

// activeGesture carries per-gesture state between begin and end.
type activeGesture struct {
	last      Point // last screen pointer
	boxStart  Point // canvas
	boxEnd    Point // canvas
	boxMulti  bool
	drag      *DragTransform
	resize    *ResizeTransform
	rotate    *RotateTransform
	group     *GroupTransform
	direction HandleDirection
	origin    Point // screen pointer at gesture start
	view      document.Viewport
	moved     bool
}

// NewEngine creates an engine with an empty scene.
func NewEngine(opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		opts:     opts,
		log:      opts.Logger,
		arena:    NewArena(document.NewEmptyScene()),
		anchors:  NewAnchorCache(),
		viewport: NewViewportTransform(opts.MinScale, opts.MaxScale, opts.ViewportSyncDelay),
		history:  NewHistoryStore(opts.HistoryCapacity),
		props:    document.DefaultProperties(),
		tool:     ToolSelect,
	}
	e.selection = NewSelectionIndex(e.arena, e.anchors)
	e.router = NewConnectionRouter(func() string { return opts.NewID(typeid.PrefixConnection) })
	e.freehand = NewFreehandCapture(func() string { return opts.NewID(typeid.PrefixShape) })
	e.history.Seed(e.arena.Committed())
	return e
}

// --- Commands ---

// Load replaces the scene and viewport, e.g. on project switch. History is
// cleared and reseeded with the loaded scene, and the revision restarts at 0.
func (e *Engine) Load(s document.Scene, props document.Properties) {
	e.Cancel()
	e.arena.Load(s)
	e.anchors.Reset()
	e.refreshAllAnchors()
	e.selection.Clear()
	e.props = props
	e.viewport.Set(props.Viewport)
	e.freehand.SetStyle(props.DefaultShapeStyle)
	e.history.Clear()
	e.history.Seed(e.arena.Committed())
	e.revision = 0
}

// LoadJSON loads a scene from its JSON encoding, keeping the current
// properties.
func (e *Engine) LoadJSON(data string) error {
	var s document.Scene
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return err
	}
	e.Load(s, e.Properties())
	return nil
}

// SetSink installs a commit observer.
func (e *Engine) SetSink(s SceneSink) { e.sink = s }

// SetMeasurer installs the renderer hook for measuring anchors of auto-sized
// objects.
func (e *Engine) SetMeasurer(m HandleMeasurer) { e.anchors.SetMeasurer(m) }

// SetScreenSize records the viewport element size in pixels.
func (e *Engine) SetScreenSize(w, h float64) { e.screen = Size{Width: w, Height: h} }

// SetTool changes the active tool. It has no effect during a gesture.
func (e *Engine) SetTool(t Tool) {
	if e.gate.current() != GestureNone {
		return
	}
	switch t {
	case ToolSelect, ToolHand, ToolPencil:
		e.tool = t
	}
}

func (e *Engine) Tool() Tool { return e.tool }

// SetDefaultLineType changes the type of newly created connections.
func (e *Engine) SetDefaultLineType(t document.LineType) { e.router.SetDefaultLineType(t) }

// SetDefaultShapeStyle changes the style used for new shapes and strokes.
func (e *Engine) SetDefaultShapeStyle(s document.ShapeStyle) {
	e.props.DefaultShapeStyle = s
	e.freehand.SetStyle(s)
}

// ReportHandles stores renderer-measured anchor positions for an object.
func (e *Engine) ReportHandles(objectID string, origin Point, handles map[string]Point) {
	e.anchors.StoreMeasured(objectID, origin, handles, e.viewport.Scale())
}

// AddTextNode creates an empty note centered in the visible area and selects it.
func (e *Engine) AddTextNode() string {
	if e.gate.current() != GestureNone {
		return ""
	}
	off := e.viewport.Offset()
	scale := e.viewport.Scale()
	n := document.Node{
		Footprint: document.Footprint{
			ID:     e.opts.NewID(typeid.PrefixNode),
			X:      (e.screen.Width/2 - off.X - 100) / scale,
			Y:      (e.screen.Height/2 - off.Y - 50) / scale,
			Width:  200,
			Height: 150,
		},
		Title:              "Note",
		Type:               document.NodeTypeText,
		HasWritePermission: true,
	}
	e.arena.AddNode(n)
	e.anchors.Sync(n.ID, n.Width, n.Height)
	e.selection.Select(ObjectRef{Kind: KindNode, ID: n.ID}, false)
	e.commit("add-node")
	return n.ID
}

// AddNode inserts a fully specified node, generating an id when empty.
func (e *Engine) AddNode(n document.Node) string {
	if e.gate.current() != GestureNone {
		return ""
	}
	if n.ID == "" {
		n.ID = e.opts.NewID(typeid.PrefixNode)
	}
	e.arena.AddNode(n)
	e.anchors.Refresh(n.Footprint, e.viewport.Scale())
	e.commit("add-node")
	return n.ID
}

// AddShape creates a shape of type t centered in the visible area.
func (e *Engine) AddShape(t document.ShapeType) string {
	if e.gate.current() != GestureNone || t == document.ShapeTypePencil {
		return ""
	}
	off := e.viewport.Offset()
	scale := e.viewport.Scale()
	style := e.props.DefaultShapeStyle
	s := document.Shape{
		Footprint: document.Footprint{
			ID:     e.opts.NewID(typeid.PrefixShape),
			X:      (e.screen.Width/2 - off.X - 75) / scale,
			Y:      (e.screen.Height/2 - off.Y - 50) / scale,
			Width:  150,
			Height: 100,
		},
		Type:        t,
		StrokeColor: style.StrokeColor,
		FillColor:   style.FillColor,
		StrokeWidth: style.StrokeWidth,
		Opacity:     1,
	}
	e.arena.AddShape(s)
	e.anchors.Sync(s.ID, s.Width, s.Height)
	e.selection.Select(ObjectRef{Kind: KindShape, ID: s.ID}, false)
	e.commit("add-shape")
	return s.ID
}

// DeleteSelected removes the selected objects together with every connection
// attached to a removed node or shape.
func (e *Engine) DeleteSelected() int {
	if e.gate.current() != GestureNone {
		return 0
	}
	refs := e.selection.Members()
	if len(refs) == 0 {
		return 0
	}
	before := len(e.arena.Nodes()) + len(e.arena.Shapes()) + len(e.arena.Connections())
	for _, id := range e.arena.Remove(refs) {
		e.anchors.Forget(id)
	}
	e.selection.Clear()
	e.commit("delete")
	return before - len(e.arena.Nodes()) - len(e.arena.Shapes()) - len(e.arena.Connections())
}

// Unlink removes every connection attached to objectID.
func (e *Engine) Unlink(objectID string) int {
	if e.gate.current() != GestureNone {
		return 0
	}
	var refs []ObjectRef
	for _, c := range e.arena.Connections() {
		if c.Touches(objectID) {
			refs = append(refs, ObjectRef{Kind: KindConnection, ID: c.ID})
		}
	}
	if len(refs) == 0 {
		return 0
	}
	e.arena.Remove(refs)
	e.selection.Prune()
	e.commit("unlink")
	return len(refs)
}

// StyleSelected applies a color and width to the selected connection or
// shape. Zero values leave the attribute unchanged.
func (e *Engine) StyleSelected(color string, width float64) bool {
	ref, ok := e.selection.Single()
	if !ok || e.gate.current() != GestureNone {
		return false
	}
	switch ref.Kind {
	case KindConnection:
		c, ok := e.arena.Connection(ref.ID)
		if !ok {
			return false
		}
		style := document.ConnectionStyle{}
		if c.Style != nil {
			style = *c.Style
		}
		if color != "" {
			style.Color = color
		}
		if width > 0 {
			style.Width = width
		}
		c.Style = &style
	case KindShape:
		s, ok := e.arena.Shape(ref.ID)
		if !ok {
			return false
		}
		if color != "" {
			s.StrokeColor = color
			if s.Type == document.ShapeTypePencil {
				s.FillColor = color
			}
		}
		if width > 0 {
			s.StrokeWidth = width
		}
	default:
		return false
	}
	e.commit("style")
	return true
}

// UpdateNodeContent replaces a node's text content and marks it dirty.
func (e *Engine) UpdateNodeContent(id, content string) bool {
	if e.gate.current() != GestureNone {
		return false
	}
	n, ok := e.arena.Node(id)
	if !ok {
		return false
	}
	n.Content = content
	n.IsDirty = true
	e.commit("edit")
	return true
}

// SetEditing toggles a node's editing flag. Editing state is not undoable,
// so no snapshot is requested.
func (e *Engine) SetEditing(id string, editing bool) bool {
	if e.gate.current() != GestureNone {
		return false
	}
	n, ok := e.arena.Node(id)
	if !ok {
		return false
	}
	n.IsEditing = editing
	e.arena.Commit()
	e.revision++
	return true
}

// Undo restores the previous snapshot.
func (e *Engine) Undo() bool {
	if e.gate.current() != GestureNone {
		return false
	}
	e.history.Settle(e.arena.Committed())
	s, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

// Redo re-applies the next snapshot.
func (e *Engine) Redo() bool {
	if e.gate.current() != GestureNone {
		return false
	}
	e.history.Settle(e.arena.Committed())
	s, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

func (e *Engine) restore(s document.Scene) {
	e.arena.Load(s)
	e.refreshAllAnchors()
	e.selection.Prune()
	e.revision++
	if e.sink != nil {
		e.sink.SceneCommitted(s)
	}
}

// ClearHistory drops all undo state and reseeds it with the live scene.
func (e *Engine) ClearHistory() {
	e.history.Clear()
	e.history.Seed(e.arena.Committed())
}

// Select replaces or extends the selection.
func (e *Engine) Select(ref ObjectRef, multi bool) {
	if !e.arena.Exists(ref) {
		return
	}
	e.selection.Select(ref, multi)
}

// ClearSelection deselects everything.
func (e *Engine) ClearSelection() { e.selection.Clear() }

// ZoomStep changes the scale by delta without moving the offset.
func (e *Engine) ZoomStep(delta float64) {
	e.viewport.ZoomStep(delta)
	e.viewport.Flush()
}

// ResetView returns to scale 1 at the origin.
func (e *Engine) ResetView() { e.viewport.Reset() }

// TickResult reports what settled during a Tick.
type TickResult struct {
	ViewportSynced bool `json:"viewportSynced"`
	HistoryPushed  bool `json:"historyPushed"`
}

// Tick settles deferred work: pending history snapshots are captured and an
// idle viewport is published. now is a monotonic timestamp.
func (e *Engine) Tick(now time.Duration) TickResult {
	var res TickResult
	if e.gate.current() == GestureNone {
		res.HistoryPushed = e.history.Settle(e.arena.Committed())
	}
	if e.gate.current() != GesturePan && e.gate.current() != GesturePinch {
		res.ViewportSynced = e.viewport.Settle(now)
		if res.ViewportSynced {
			e.props.Viewport = e.viewport.Committed()
		}
	}
	return res
}

// commit publishes arena changes and asks history for a snapshot.
func (e *Engine) commit(reason string) {
	s, changed := e.arena.Commit()
	if !changed {
		return
	}
	e.revision++
	e.history.RequestSnapshot()
	e.log.Debug("scene committed", "reason", reason, "revision", e.revision,
		"nodes", len(s.Nodes), "connections", len(s.Connections), "shapes", len(s.Shapes))
	if e.sink != nil {
		e.sink.SceneCommitted(s)
	}
}

func (e *Engine) refreshAllAnchors() {
	scale := e.viewport.Scale()
	for _, n := range e.arena.Nodes() {
		e.anchors.Refresh(n.Footprint, scale)
	}
	for _, s := range e.arena.Shapes() {
		e.anchors.Refresh(s.Footprint, scale)
	}
}

// --- Queries ---

// Scene returns the committed scene.
func (e *Engine) Scene() document.Scene { return e.arena.Committed() }

// LiveScene returns the working scene including in-progress gesture edits.
// The slices are owned by the engine and must not be retained.
func (e *Engine) LiveScene() document.Scene {
	return document.Scene{
		Nodes:       e.arena.Nodes(),
		Connections: e.arena.Connections(),
		Shapes:      e.arena.Shapes(),
	}
}

// Properties returns the canvas properties with the committed viewport.
func (e *Engine) Properties() document.Properties {
	p := e.props
	p.Viewport = e.viewport.Committed()
	return p
}

// Viewport returns the committed viewport.
func (e *Engine) Viewport() document.Viewport { return e.viewport.Committed() }

// LiveViewport returns the viewport including unsynced changes.
func (e *Engine) LiveViewport() document.Viewport { return e.viewport.Live() }

// ToCanvas converts a screen point using the live viewport.
func (e *Engine) ToCanvas(p Point) Point { return e.viewport.ToCanvas(p) }

// ToScreen converts a canvas point using the live viewport.
func (e *Engine) ToScreen(p Point) Point { return e.viewport.ToScreen(p) }

func (e *Engine) Selection() Selection { return e.selection.Current() }

// SelectionBounds returns the bounds of the selected nodes and shapes.
func (e *Engine) SelectionBounds() (Rect, bool) { return e.selection.Bounds() }

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// Revision counts changes to the committed scene since the last Load.
func (e *Engine) Revision() uint64 { return e.revision }

// ActiveGesture returns the kind of gesture in progress.
func (e *Engine) ActiveGesture() GestureKind { return e.gate.current() }

// AnchorPosition returns the canvas position of an anchor.
func (e *Engine) AnchorPosition(objectID, anchorID string) (Point, bool) {
	return EndpointResolver{arena: e.arena, anchors: e.anchors}.Resolve(document.Endpoint{ObjectID: objectID, AnchorID: anchorID})
}

// ConnectionPath returns the SVG path of a connection.
func (e *Engine) ConnectionPath(id string) (string, bool) {
	for _, c := range e.arena.Connections() {
		if c.ID == id {
			curve, ok := EndpointResolver{arena: e.arena, anchors: e.anchors}.Curve(c)
			if !ok {
				return "", false
			}
			return curve.SVG(), true
		}
	}
	return "", false
}

// AffectedConnections lists connections attached to objects moved by the
// active gesture.
func (e *Engine) AffectedConnections() []string {
	moving := make(map[string]bool)
	switch {
	case e.g.drag != nil:
		moving = e.g.drag.Moved()
	case e.g.group != nil:
		for _, ref := range e.g.group.Members() {
			moving[ref.ID] = true
		}
	case e.g.resize != nil:
		moving[e.g.resize.ref.ID] = true
	case e.g.rotate != nil:
		moving[e.g.rotate.ref.ID] = true
	}
	if len(moving) == 0 {
		return nil
	}
	return ConnectionsOf(e.arena.Connections(), moving)
}

// HitTest returns the topmost object at a screen point.
func (e *Engine) HitTest(screen Point) (ObjectRef, bool) {
	return e.selection.HitTestPoint(e.viewport.ToCanvas(screen), e.viewport.Scale())
}

// State is the JSON snapshot of everything a renderer shell needs besides
// the draw list.
type State struct {
	Viewport        document.Viewport `json:"viewport"`
	Selection       Selection         `json:"selection"`
	SelectionBounds *Rect             `json:"selectionBounds,omitempty"`
	CanUndo         bool              `json:"canUndo"`
	CanRedo         bool              `json:"canRedo"`
	Gesture         string            `json:"gesture"`
	Tool            Tool              `json:"tool"`
	LineType        document.LineType `json:"lineType"`
	Revision        uint64            `json:"revision"`
}

// State returns the current engine state.
func (e *Engine) State() State {
	st := State{
		Viewport:  e.viewport.Live(),
		Selection: e.selection.Current(),
		CanUndo:   e.history.CanUndo(),
		CanRedo:   e.history.CanRedo(),
		Gesture:   e.gate.current().String(),
		Tool:      e.tool,
		LineType:  e.router.DefaultLineType(),
		Revision:  e.revision,
	}
	if b, ok := e.selection.Bounds(); ok {
		st.SelectionBounds = &b
	}
	return st
}

// StateJSON returns State as JSON.
func (e *Engine) StateJSON() string {
	data, _ := json.Marshal(e.State())
	return string(data)
}

// SceneJSON returns the committed scene as JSON.
func (e *Engine) SceneJSON() string {
	data, err := json.Marshal(e.arena.Committed())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Render returns the draw list as JSON.
func (e *Engine) Render() string {
	result, _ := DrawCommandsToJSON(e.DrawCommands())
	return result
}
