package session

import (
	"encoding/json"

	"github.com/codecanvas/codecanvas/internal/document"
	"github.com/codecanvas/codecanvas/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const (
	// Pointer and gesture input
	TypePointerDown  = "pointer.down"
	TypePointerMove  = "pointer.move"
	TypePointerUp    = "pointer.up"
	TypeWheel        = "wheel"
	TypePinchStart   = "pinch.start"
	TypePinchMove    = "pinch.move"
	TypePinchEnd     = "pinch.end"
	TypeLinkStart    = "link.start"
	TypeLinkComplete = "link.complete"
	TypeLinkCancel   = "link.cancel"
	TypeKey          = "key"
	TypeCancel       = "cancel"

	// Commands
	TypeUndo        = "history.undo"
	TypeRedo        = "history.redo"
	TypeSelectClear = "select.clear"
	TypeNodeCreate  = "node.create"
	TypeNodeContent = "node.content"
	TypeNodeUnlink  = "node.unlink"
	TypeShapeCreate = "shape.create"
	TypeToolSet     = "tool.set"
	TypeLineTypeSet = "linetype.set"
	TypeStyleSet    = "style.set"
	TypeZoomStep    = "zoom.step"
	TypeViewReset   = "view.reset"
	TypeScreenSize  = "screen.size"
	TypeHandles     = "handles.report"

	// Server to client
	TypeWelcome = "welcome"
	TypeState   = "state"
	TypeError   = "error"
)

// Vec is a point on the wire.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) point() engine.Point { return engine.Point{X: v.X, Y: v.Y} }

type PinchPayload struct {
	A Vec `json:"a"`
	B Vec `json:"b"`
}

// NodeCreatePayload creates a note centered in the view when Type is empty
// or "text", and a positioned node otherwise.
type NodeCreatePayload struct {
	Type    document.NodeType `json:"type,omitempty"`
	Title   string            `json:"title,omitempty"`
	URI     string            `json:"uri,omitempty"`
	Content string            `json:"content,omitempty"`
	X       float64           `json:"x,omitempty"`
	Y       float64           `json:"y,omitempty"`
}

type NodeContentPayload struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type UnlinkPayload struct {
	ID string `json:"nodeId"`
}

type ShapeCreatePayload struct {
	Type document.ShapeType `json:"type"`
}

type ToolPayload struct {
	Tool engine.Tool `json:"tool"`
}

type LineTypePayload struct {
	LineType document.LineType `json:"lineType"`
}

type StylePayload struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

type ZoomPayload struct {
	Delta float64 `json:"delta"`
}

type ScreenPayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// HandlesPayload reports renderer-measured anchor centers, in screen pixels,
// for an object whose size the engine does not know.
type HandlesPayload struct {
	ObjectID string         `json:"objectId"`
	Origin   Vec            `json:"origin"`
	Handles  map[string]Vec `json:"handles"`
}

type WelcomePayload struct {
	ClientID   string              `json:"clientId"`
	SessionID  string              `json:"sessionId"`
	ProjectID  string              `json:"projectId"`
	Scene      document.Scene      `json:"scene"`
	Properties document.Properties `json:"properties"`
}

type StatePayload struct {
	engine.State
	Commands []engine.DrawCommand `json:"commands"`
	// AffectedConnections lists connections attached to objects moving in
	// the active gesture.
	AffectedConnections []string `json:"affectedConnections,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(ErrorPayload{Message: err.Error()})
		typ = TypeError
	}
	return &Message{Type: typ, Payload: data}
}

func errorMessage(text string) *Message {
	return newMessage(TypeError, ErrorPayload{Message: text})
}

func decode[T any](msg *Message) (T, error) {
	var v T
	if len(msg.Payload) == 0 {
		return v, nil
	}
	err := json.Unmarshal(msg.Payload, &v)
	return v, err
}
