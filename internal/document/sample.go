package document

import (
	"github.com/codecanvas/codecanvas/internal/typeid"
)

// NewSampleScene returns a small scene used for new projects and demos:
// two notes joined by an arrow, and a rectangle behind them.
func NewSampleScene() Scene {
	readmeID := typeid.NewNodeID()
	todoID := typeid.NewNodeID()
	frameID := typeid.NewShapeID()

	return Scene{
		Nodes: []Node{
			{
				Footprint: Footprint{ID: readmeID, X: 120, Y: 120, Width: 260, Height: 180},
				Title:     "README.md",
				Type:      NodeTypeFile,
				URI:       "file:///README.md",
			},
			{
				Footprint:          Footprint{ID: todoID, X: 520, Y: 160, Width: 200, Height: 150},
				Title:              "Notes",
				Type:               NodeTypeText,
				Content:            "Drag me around.",
				HasWritePermission: true,
			},
		},
		Connections: []Connection{
			{
				ID:     typeid.NewConnectionID(),
				Source: Endpoint{ObjectID: readmeID, AnchorID: "right-mid"},
				Target: Endpoint{ObjectID: todoID, AnchorID: "left-mid"},
				Type:   LineTypeArrow,
			},
		},
		Shapes: []Shape{
			{
				Footprint:   Footprint{ID: frameID, X: 80, Y: 80, Width: 700, Height: 280},
				Type:        ShapeTypeRectangle,
				StrokeColor: "#e2e8f0",
				FillColor:   "transparent",
				StrokeWidth: 2,
				Opacity:     1,
			},
		},
	}
}
