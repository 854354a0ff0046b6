package document

// Scene is the persisted canvas triple. A committed Scene is treated as
// immutable: a change to one collection replaces that slice and shares the
// others, so slice identity tells which collections changed.
type Scene struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
	Shapes      []Shape      `json:"shapes"`
}

// Footprint is the rectangular extent shared by nodes and shapes.
// A zero Width or Height means the size is unknown (auto-sized content).
// Rotation is in degrees, clockwise, about the footprint center.
type Footprint struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
}

// HasSize reports whether both dimensions are known.
func (f Footprint) HasSize() bool {
	return f.Width > 0 && f.Height > 0
}

type NodeType string

const (
	NodeTypeFile NodeType = "file"
	NodeTypeCode NodeType = "code"
	NodeTypeText NodeType = "text"
)

type Node struct {
	Footprint
	Title              string   `json:"title"`
	Type               NodeType `json:"type"`
	Content            string   `json:"content,omitempty"`
	URI                string   `json:"uri,omitempty"`
	IsEditing          bool     `json:"isEditing,omitempty"`
	HasWritePermission bool     `json:"hasWritePermission,omitempty"`
	IsDirty            bool     `json:"isDirty,omitempty"`
}

type ShapeType string

const (
	ShapeTypeRectangle ShapeType = "rectangle"
	ShapeTypeEllipse   ShapeType = "ellipse"
	ShapeTypeDiamond   ShapeType = "diamond"
	ShapeTypeArrow     ShapeType = "arrow"
	ShapeTypePencil    ShapeType = "pencil"
)

type Shape struct {
	Footprint
	Type        ShapeType `json:"type"`
	StrokeColor string    `json:"strokeColor"`
	FillColor   string    `json:"fillColor"`
	StrokeWidth float64   `json:"strokeWidth"`
	Opacity     float64   `json:"opacity"`
	Roughness   float64   `json:"roughness,omitempty"`

	// Points holds normalized (x, y, pressure) triples for pencil shapes.
	Points [][3]float64 `json:"points,omitempty"`
}

type LineType string

const (
	LineTypeLine    LineType = "line"
	LineTypeArrow   LineType = "arrow"
	LineTypeBiArrow LineType = "bi-arrow"
)

// Valid reports whether t is one of the known line types.
func (t LineType) Valid() bool {
	switch t {
	case LineTypeLine, LineTypeArrow, LineTypeBiArrow:
		return true
	}
	return false
}

// Endpoint names an anchor on a node or shape.
type Endpoint struct {
	ObjectID string `json:"nodeId"`
	AnchorID string `json:"handleId"`
}

type ConnectionStyle struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

type Connection struct {
	ID     string           `json:"id"`
	Source Endpoint         `json:"source"`
	Target Endpoint         `json:"target"`
	Type   LineType         `json:"type"`
	Style  *ConnectionStyle `json:"style,omitempty"`
}

// Touches reports whether either endpoint is attached to objectID.
func (c Connection) Touches(objectID string) bool {
	return c.Source.ObjectID == objectID || c.Target.ObjectID == objectID
}

// Viewport maps canvas coordinates to screen coordinates:
// screen = canvas*Scale + Offset.
type Viewport struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// DefaultViewport is the identity view.
func DefaultViewport() Viewport {
	return Viewport{Scale: 1}
}

// ShapeStyle is the style applied to newly drawn shapes.
type ShapeStyle struct {
	StrokeColor string  `json:"strokeColor"`
	FillColor   string  `json:"fillColor"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// Properties are per-canvas display settings stored alongside the scene.
type Properties struct {
	BackgroundPattern string     `json:"backgroundPattern"`
	BackgroundOpacity float64    `json:"backgroundOpacity"`
	Theme             string     `json:"theme"`
	SyntaxTheme       string     `json:"syntaxTheme"`
	Viewport          Viewport   `json:"transform"`
	DefaultShapeStyle ShapeStyle `json:"defaultShapeStyle"`
}

// DefaultProperties returns the settings of a fresh canvas.
func DefaultProperties() Properties {
	return Properties{
		BackgroundPattern: "dots",
		BackgroundOpacity: 0.5,
		Theme:             "dark",
		SyntaxTheme:       "classic",
		Viewport:          DefaultViewport(),
		DefaultShapeStyle: ShapeStyle{
			StrokeColor: "#e2e8f0",
			FillColor:   "transparent",
			StrokeWidth: 2,
		},
	}
}

// NewEmptyScene returns a scene with non-nil, empty collections.
func NewEmptyScene() Scene {
	return Scene{
		Nodes:       []Node{},
		Connections: []Connection{},
		Shapes:      []Shape{},
	}
}
