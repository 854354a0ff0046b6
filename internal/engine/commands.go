package engine

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/codecanvas/codecanvas/internal/document"
)

const (
	defaultConnectionColor = "#8b5cf6"
	defaultConnectionWidth = 2.0
	overlayColor           = "#38bdf8"

	cornerRadius = 8.0
	arrowHead    = 15.0
	markerSize   = 10.0

	// kappa places cubic control points for a quarter ellipse.
	kappa = 0.5522847498
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "path" or "frame"
	Layer       string        `json:"layer"`                 // "shape", "connection", "node", "overlay"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Opacity     float64       `json:"opacity,omitempty"`     // Global alpha
	Dash        []float64     `json:"dash,omitempty"`        // Line dash pattern in screen pixels
	Selected    bool          `json:"selected,omitempty"`
	Width       float64       `json:"width,omitempty"`  // Frame width for "frame" ops
	Height      float64       `json:"height,omitempty"` // Frame height for "frame" ops
}

// DrawCommands compiles the live scene into draw commands in painter's
// order: shapes, connections, nodes, then interaction overlays.
func (e *Engine) DrawCommands() []DrawCommand {
	view := e.viewport.Matrix()
	sel := e.selection
	var commands []DrawCommand

	for _, s := range e.arena.Shapes() {
		r := FootprintRect(s.Footprint, e.sizeFor(s.Footprint))
		cmd := DrawCommand{
			Op:          "path",
			Layer:       "shape",
			ObjectID:    s.ID,
			Transform:   view.Multiply(footprintMatrix(r, s.Rotation)).ToSlice(),
			Path:        ShapePath(s, r.Width, r.Height),
			Stroke:      s.StrokeColor,
			StrokeWidth: s.StrokeWidth,
			Opacity:     s.Opacity,
			Selected:    sel.Contains(ObjectRef{Kind: KindShape, ID: s.ID}),
		}
		switch s.Type {
		case document.ShapeTypePencil:
			cmd.Fill, cmd.Stroke, cmd.StrokeWidth = s.StrokeColor, "", 0
		case document.ShapeTypeArrow:
		default:
			if s.FillColor != "transparent" {
				cmd.Fill = s.FillColor
			}
		}
		commands = append(commands, cmd)
	}

	resolver := EndpointResolver{arena: e.arena, anchors: e.anchors}
	for _, c := range e.arena.Connections() {
		curve, ok := resolver.Curve(c)
		if !ok {
			continue
		}
		commands = append(commands, connectionCommands(c, curve, view, sel.Contains(ObjectRef{Kind: KindConnection, ID: c.ID}))...)
	}

	for _, n := range e.arena.Nodes() {
		r := FootprintRect(n.Footprint, e.sizeFor(n.Footprint))
		commands = append(commands, DrawCommand{
			Op:        "frame",
			Layer:     "node",
			ObjectID:  n.ID,
			Transform: view.Multiply(footprintMatrix(r, n.Rotation)).ToSlice(),
			Width:     r.Width,
			Height:    r.Height,
			Selected:  sel.Contains(ObjectRef{Kind: KindNode, ID: n.ID}),
		})
	}

	return append(commands, e.overlayCommands(view)...)
}

func (e *Engine) sizeFor(f document.Footprint) Size {
	if s, ok := e.anchors.SizeOf(f.ID); ok {
		return s
	}
	return DefaultFootprintSize
}

func connectionCommands(c document.Connection, curve Curve, view Matrix2D, selected bool) []DrawCommand {
	color, width := defaultConnectionColor, defaultConnectionWidth
	if c.Style != nil {
		if c.Style.Color != "" {
			color = c.Style.Color
		}
		if c.Style.Width > 0 {
			width = c.Style.Width
		}
	}
	if selected {
		width += 2
	}
	transform := view.ToSlice()
	cmds := []DrawCommand{{
		Op:          "path",
		Layer:       "connection",
		ObjectID:    c.ID,
		Transform:   transform,
		Path:        curve.PathCommands(),
		Stroke:      color,
		StrokeWidth: width,
		Selected:    selected,
	}}
	marker := func(tip, dir Point) DrawCommand {
		return DrawCommand{
			Op:        "path",
			Layer:     "connection",
			ObjectID:  c.ID,
			Transform: transform,
			Path:      arrowMarker(tip, dir, markerSize),
			Fill:      color,
		}
	}
	if c.Type != document.LineTypeLine {
		cmds = append(cmds, marker(curve.P1, curve.EndTangent()))
	}
	if c.Type == document.LineTypeBiArrow {
		cmds = append(cmds, marker(curve.P0, curve.StartTangent()))
	}
	return cmds
}

func (e *Engine) overlayCommands(view Matrix2D) []DrawCommand {
	transform := view.ToSlice()
	var cmds []DrawCommand

	switch e.gate.current() {
	case GestureBoxSelect:
		r := RectFromPoints(e.g.boxStart, e.g.boxEnd)
		cmds = append(cmds, DrawCommand{
			Op:          "path",
			Layer:       "overlay",
			Transform:   transform,
			Path:        rectPath(r.X, r.Y, r.Width, r.Height),
			Fill:        "rgba(56, 189, 248, 0.1)",
			Stroke:      overlayColor,
			StrokeWidth: 1 / e.viewport.Scale(),
			Dash:        []float64{4, 4},
		})
	case GestureLink:
		if curve, ok := e.router.Preview(); ok {
			cmds = append(cmds, DrawCommand{
				Op:          "path",
				Layer:       "overlay",
				Transform:   transform,
				Path:        curve.PathCommands(),
				Stroke:      defaultConnectionColor,
				StrokeWidth: defaultConnectionWidth,
				Dash:        []float64{6, 4},
			})
		}
	case GestureDraw:
		if pts := e.freehand.Points(); len(pts) > 0 {
			style := e.props.DefaultShapeStyle
			cmds = append(cmds, DrawCommand{
				Op:        "path",
				Layer:     "overlay",
				Transform: transform,
				Path:      OutlinePath(StrokeOutline(pts, strokeSize(style.StrokeWidth))),
				Fill:      style.StrokeColor,
			})
		}
	}

	if b, ok := e.selection.Bounds(); ok && e.selection.Len() > 1 {
		cmds = append(cmds, DrawCommand{
			Op:          "path",
			Layer:       "overlay",
			Transform:   transform,
			Path:        rectPath(b.X, b.Y, b.Width, b.Height),
			Stroke:      overlayColor,
			StrokeWidth: 1 / e.viewport.Scale(),
			Dash:        []float64{5, 3},
		})
	}
	return cmds
}

// ShapePath returns the outline of a shape in its local frame, where the
// footprint spans (0, 0) to (w, h).
func ShapePath(s document.Shape, w, h float64) []PathCommand {
	switch s.Type {
	case document.ShapeTypeRectangle:
		return roundedRectPath(0, 0, w, h, cornerRadius)
	case document.ShapeTypeEllipse:
		return ellipsePath(w/2, h/2, math.Abs(w/2), math.Abs(h/2))
	case document.ShapeTypeDiamond:
		return []PathCommand{
			{"M", w / 2, 0.0},
			{"L", w, h / 2},
			{"L", w / 2, h},
			{"L", 0.0, h / 2},
			{"Z"},
		}
	case document.ShapeTypeArrow:
		return arrowPath(Point{}, Point{X: w, Y: h})
	case document.ShapeTypePencil:
		local := document.Shape{Footprint: document.Footprint{Width: w, Height: h}, Points: s.Points}
		return OutlinePath(StrokeOutline(Denormalize(local), strokeSize(s.StrokeWidth)))
	}
	return rectPath(0, 0, w, h)
}

func strokeSize(width float64) float64 {
	if width <= 0 {
		return 4
	}
	return width * 2
}

func rectPath(x, y, w, h float64) []PathCommand {
	return []PathCommand{
		{"M", x, y},
		{"L", x + w, y},
		{"L", x + w, y + h},
		{"L", x, y + h},
		{"Z"},
	}
}

func roundedRectPath(x, y, w, h, r float64) []PathCommand {
	r = math.Min(r, math.Min(math.Abs(w)/2, math.Abs(h)/2))
	k := r * (1 - kappa)
	return []PathCommand{
		{"M", x + r, y},
		{"L", x + w - r, y},
		{"C", x + w - k, y, x + w, y + k, x + w, y + r},
		{"L", x + w, y + h - r},
		{"C", x + w, y + h - k, x + w - k, y + h, x + w - r, y + h},
		{"L", x + r, y + h},
		{"C", x + k, y + h, x, y + h - k, x, y + h - r},
		{"L", x, y + r},
		{"C", x, y + k, x + k, y, x + r, y},
		{"Z"},
	}
}

func ellipsePath(cx, cy, rx, ry float64) []PathCommand {
	ox, oy := rx*kappa, ry*kappa
	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + oy, cx + ox, cy + ry, cx, cy + ry},
		{"C", cx - ox, cy + ry, cx - rx, cy + oy, cx - rx, cy},
		{"C", cx - rx, cy - oy, cx - ox, cy - ry, cx, cy - ry},
		{"C", cx + ox, cy - ry, cx + rx, cy - oy, cx + rx, cy},
		{"Z"},
	}
}

// arrowPath is an open line from a to b with a two-stroke head at b.
func arrowPath(a, b Point) []PathCommand {
	angle := math.Atan2(b.Y-a.Y, b.X-a.X)
	return []PathCommand{
		{"M", a.X, a.Y},
		{"L", b.X, b.Y},
		{"L", b.X - arrowHead*math.Cos(angle-math.Pi/6), b.Y - arrowHead*math.Sin(angle-math.Pi/6)},
		{"M", b.X, b.Y},
		{"L", b.X - arrowHead*math.Cos(angle+math.Pi/6), b.Y - arrowHead*math.Sin(angle+math.Pi/6)},
	}
}

// arrowMarker is a filled triangle with its tip at tip pointing along dir.
func arrowMarker(tip, dir Point, size float64) []PathCommand {
	back := r2.Sub(tip, r2.Scale(size, dir))
	normal := Point{X: -dir.Y, Y: dir.X}
	left := r2.Add(back, r2.Scale(size/2, normal))
	right := r2.Sub(back, r2.Scale(size/2, normal))
	return []PathCommand{
		{"M", tip.X, tip.Y},
		{"L", left.X, left.Y},
		{"L", right.X, right.Y},
		{"Z"},
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
