package engine

// GestureKind names the interaction that currently owns the pointer.
type GestureKind int

const (
	GestureNone GestureKind = iota
	GesturePan
	GesturePinch
	GestureDrag
	GestureBoxSelect
	GestureResize
	GestureRotate
	GestureGroupResize
	GestureGroupRotate
	GestureLink
	GestureDraw
)

var gestureNames = map[GestureKind]string{
	GestureNone:        "none",
	GesturePan:         "pan",
	GesturePinch:       "pinch",
	GestureDrag:        "drag",
	GestureBoxSelect:   "box-select",
	GestureResize:      "resize",
	GestureRotate:      "rotate",
	GestureGroupResize: "group-resize",
	GestureGroupRotate: "group-rotate",
	GestureLink:        "link",
	GestureDraw:        "draw",
}

func (k GestureKind) String() string {
	if s, ok := gestureNames[k]; ok {
		return s
	}
	return "unknown"
}

// Token identifies one gesture from begin to end. The zero Token is never
// issued and means the gesture was refused.
type Token uint64

// gestureGate admits one gesture at a time. Updates carrying a token other
// than the active one are stale and must be ignored.
type gestureGate struct {
	kind   GestureKind
	active Token
	next   Token
}

func (g *gestureGate) begin(kind GestureKind) Token {
	if g.active != 0 {
		return 0
	}
	g.next++
	g.active = g.next
	g.kind = kind
	return g.active
}

func (g *gestureGate) owns(tok Token, kind GestureKind) bool {
	return tok != 0 && tok == g.active && g.kind == kind
}

func (g *gestureGate) end() {
	g.active = 0
	g.kind = GestureNone
}

func (g *gestureGate) current() GestureKind {
	return g.kind
}
