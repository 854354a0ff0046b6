package engine

import (
	"slices"

	"github.com/codecanvas/codecanvas/internal/document"
)

// ObjectKind tags which collection an object lives in.
type ObjectKind int

const (
	KindNode ObjectKind = iota
	KindConnection
	KindShape
)

func (k ObjectKind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindConnection:
		return "connection"
	case KindShape:
		return "shape"
	}
	return "unknown"
}

// ObjectRef identifies one object on the canvas.
type ObjectRef struct {
	Kind ObjectKind
	ID   string
}

// Arena is the mutable working copy of the scene. Gestures write here on
// every pointer event; Commit publishes the result as a new immutable Scene.
type Arena struct {
	committed document.Scene

	nodes       []document.Node
	connections []document.Connection
	shapes      []document.Shape

	nodeIndex  map[string]int
	connIndex  map[string]int
	shapeIndex map[string]int

	nodesDirty, connectionsDirty, shapesDirty bool
}

func NewArena(s document.Scene) *Arena {
	a := &Arena{}
	a.Load(s)
	return a
}

// Load replaces both the working copy and the committed scene.
func (a *Arena) Load(s document.Scene) {
	if s.Nodes == nil {
		s.Nodes = []document.Node{}
	}
	if s.Connections == nil {
		s.Connections = []document.Connection{}
	}
	if s.Shapes == nil {
		s.Shapes = []document.Shape{}
	}
	a.committed = s
	a.Revert()
}

// Revert discards uncommitted changes.
func (a *Arena) Revert() {
	a.nodes = slices.Clone(a.committed.Nodes)
	a.connections = slices.Clone(a.committed.Connections)
	a.shapes = cloneShapes(a.committed.Shapes)
	a.reindex()
	a.nodesDirty, a.connectionsDirty, a.shapesDirty = false, false, false
}

// Dirty reports whether the working copy differs from the committed scene.
func (a *Arena) Dirty() bool {
	return a.nodesDirty || a.connectionsDirty || a.shapesDirty
}

// Commit publishes the working copy. Collections that were not touched keep
// the committed slice so identity comparison can detect no-op commits.
func (a *Arena) Commit() (document.Scene, bool) {
	if !a.Dirty() {
		return a.committed, false
	}
	next := a.committed
	if a.nodesDirty {
		next.Nodes = slices.Clone(a.nodes)
	}
	if a.connectionsDirty {
		next.Connections = slices.Clone(a.connections)
	}
	if a.shapesDirty {
		next.Shapes = cloneShapes(a.shapes)
	}
	a.committed = next
	a.nodesDirty, a.connectionsDirty, a.shapesDirty = false, false, false
	return next, true
}

// Committed returns the last committed scene.
func (a *Arena) Committed() document.Scene {
	return a.committed
}

func (a *Arena) Nodes() []document.Node             { return a.nodes }
func (a *Arena) Connections() []document.Connection { return a.connections }
func (a *Arena) Shapes() []document.Shape           { return a.shapes }

// Node returns a mutable pointer to a live node and marks nodes dirty.
func (a *Arena) Node(id string) (*document.Node, bool) {
	i, ok := a.nodeIndex[id]
	if !ok {
		return nil, false
	}
	a.nodesDirty = true
	return &a.nodes[i], true
}

// Shape returns a mutable pointer to a live shape and marks shapes dirty.
func (a *Arena) Shape(id string) (*document.Shape, bool) {
	i, ok := a.shapeIndex[id]
	if !ok {
		return nil, false
	}
	a.shapesDirty = true
	return &a.shapes[i], true
}

// Connection returns a mutable pointer to a live connection and marks
// connections dirty.
func (a *Arena) Connection(id string) (*document.Connection, bool) {
	i, ok := a.connIndex[id]
	if !ok {
		return nil, false
	}
	a.connectionsDirty = true
	return &a.connections[i], true
}

// Footprint returns a mutable footprint for a node or shape.
func (a *Arena) Footprint(ref ObjectRef) (*document.Footprint, bool) {
	switch ref.Kind {
	case KindNode:
		if n, ok := a.Node(ref.ID); ok {
			return &n.Footprint, true
		}
	case KindShape:
		if s, ok := a.Shape(ref.ID); ok {
			return &s.Footprint, true
		}
	}
	return nil, false
}

// Lookup returns a read-only copy of the footprint of a node or shape.
func (a *Arena) Lookup(objectID string) (document.Footprint, ObjectKind, bool) {
	if i, ok := a.nodeIndex[objectID]; ok {
		return a.nodes[i].Footprint, KindNode, true
	}
	if i, ok := a.shapeIndex[objectID]; ok {
		return a.shapes[i].Footprint, KindShape, true
	}
	return document.Footprint{}, 0, false
}

// Exists reports whether ref names a live object.
func (a *Arena) Exists(ref ObjectRef) bool {
	var ok bool
	switch ref.Kind {
	case KindNode:
		_, ok = a.nodeIndex[ref.ID]
	case KindConnection:
		_, ok = a.connIndex[ref.ID]
	case KindShape:
		_, ok = a.shapeIndex[ref.ID]
	}
	return ok
}

func (a *Arena) AddNode(n document.Node) {
	a.nodeIndex[n.ID] = len(a.nodes)
	a.nodes = append(a.nodes, n)
	a.nodesDirty = true
}

func (a *Arena) AddShape(s document.Shape) {
	a.shapeIndex[s.ID] = len(a.shapes)
	a.shapes = append(a.shapes, s)
	a.shapesDirty = true
}

func (a *Arena) AddConnection(c document.Connection) {
	a.connIndex[c.ID] = len(a.connections)
	a.connections = append(a.connections, c)
	a.connectionsDirty = true
}

// Remove deletes the referenced objects and every connection attached to a
// removed node or shape. It returns the ids of the removed nodes and shapes.
func (a *Arena) Remove(refs []ObjectRef) []string {
	gone := make(map[string]bool, len(refs))
	connGone := make(map[string]bool)
	for _, ref := range refs {
		if ref.Kind == KindConnection {
			connGone[ref.ID] = true
		} else {
			gone[ref.ID] = true
		}
	}

	var removed []string
	if n := len(a.nodes); n > 0 {
		a.nodes = slices.DeleteFunc(a.nodes, func(x document.Node) bool {
			if gone[x.ID] {
				removed = append(removed, x.ID)
				return true
			}
			return false
		})
		a.nodesDirty = a.nodesDirty || len(a.nodes) != n
	}
	if n := len(a.shapes); n > 0 {
		a.shapes = slices.DeleteFunc(a.shapes, func(x document.Shape) bool {
			if gone[x.ID] {
				removed = append(removed, x.ID)
				return true
			}
			return false
		})
		a.shapesDirty = a.shapesDirty || len(a.shapes) != n
	}
	if n := len(a.connections); n > 0 {
		a.connections = slices.DeleteFunc(a.connections, func(c document.Connection) bool {
			return connGone[c.ID] || gone[c.Source.ObjectID] || gone[c.Target.ObjectID]
		})
		a.connectionsDirty = a.connectionsDirty || len(a.connections) != n
	}
	a.reindex()
	return removed
}

func (a *Arena) reindex() {
	a.nodeIndex = make(map[string]int, len(a.nodes))
	for i, n := range a.nodes {
		a.nodeIndex[n.ID] = i
	}
	a.connIndex = make(map[string]int, len(a.connections))
	for i, c := range a.connections {
		a.connIndex[c.ID] = i
	}
	a.shapeIndex = make(map[string]int, len(a.shapes))
	for i, s := range a.shapes {
		a.shapeIndex[s.ID] = i
	}
}

// cloneShapes also copies point slices so a live stroke edit cannot reach
// into a committed snapshot.
func cloneShapes(src []document.Shape) []document.Shape {
	out := slices.Clone(src)
	for i := range out {
		if out[i].Points != nil {
			out[i].Points = slices.Clone(out[i].Points)
		}
	}
	return out
}
