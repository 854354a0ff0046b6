package engine

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/codecanvas/codecanvas/internal/document"
)

// Anchor identifiers, in the order AnchorsFor reports them.
const (
	AnchorTopLeft     = "top-left"
	AnchorTopRight    = "top-right"
	AnchorBottomLeft  = "bottom-left"
	AnchorBottomRight = "bottom-right"
	AnchorTopMid      = "top-mid"
	AnchorBottomMid   = "bottom-mid"
	AnchorLeftMid     = "left-mid"
	AnchorRightMid    = "right-mid"
)

// AnchorIDs lists every anchor an object exposes.
var AnchorIDs = []string{
	AnchorTopLeft, AnchorTopRight, AnchorBottomLeft, AnchorBottomRight,
	AnchorTopMid, AnchorBottomMid, AnchorLeftMid, AnchorRightMid,
}

// fallbackAnchorOffset is used for anchors that were never measured.
var fallbackAnchorOffset = Point{X: 100, Y: 100}

// AnchorsFor returns the eight anchor offsets of a w×h footprint, relative to
// its unrotated top-left corner.
func AnchorsFor(w, h float64) map[string]Point {
	return map[string]Point{
		AnchorTopLeft:     {X: 0, Y: 0},
		AnchorTopRight:    {X: w, Y: 0},
		AnchorBottomLeft:  {X: 0, Y: h},
		AnchorBottomRight: {X: w, Y: h},
		AnchorTopMid:      {X: w / 2, Y: 0},
		AnchorBottomMid:   {X: w / 2, Y: h},
		AnchorLeftMid:     {X: 0, Y: h / 2},
		AnchorRightMid:    {X: w, Y: h / 2},
	}
}

// HandleMeasurer reports where the renderer drew an object's anchor handles.
// Positions are screen-space centers; origin is the screen position of the
// object's top-left corner. ok is false when the object is not rendered.
type HandleMeasurer interface {
	MeasureHandles(objectID string) (origin Point, handles map[string]Point, ok bool)
}

// AnchorCache maps "objectId:anchorId" to an offset in canvas units from the
// object's top-left corner.
type AnchorCache struct {
	offsets  map[string]Point
	sizes    map[string]Size
	measurer HandleMeasurer
}

func NewAnchorCache() *AnchorCache {
	return &AnchorCache{
		offsets: make(map[string]Point),
		sizes:   make(map[string]Size),
	}
}

// SetMeasurer installs the renderer hook used for objects of unknown size.
func (c *AnchorCache) SetMeasurer(m HandleMeasurer) {
	c.measurer = m
}

func anchorKey(objectID, anchorID string) string {
	return objectID + ":" + anchorID
}

// Sync computes anchors analytically when the size is known and differs from
// the last one seen. It returns true when entries were written.
func (c *AnchorCache) Sync(objectID string, w, h float64) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	size := Size{Width: w, Height: h}
	if prev, ok := c.sizes[objectID]; ok && prev == size {
		return false
	}
	for id, off := range AnchorsFor(w, h) {
		c.offsets[anchorKey(objectID, id)] = off
	}
	c.sizes[objectID] = size
	return true
}

// Measure asks the renderer for handle positions and stores them.
// Objects the renderer does not know about are left untouched.
func (c *AnchorCache) Measure(objectID string, scale float64) bool {
	if c.measurer == nil {
		return false
	}
	origin, handles, ok := c.measurer.MeasureHandles(objectID)
	if !ok {
		return false
	}
	return c.StoreMeasured(objectID, origin, handles, scale)
}

// StoreMeasured records screen-space handle centers reported by a renderer,
// converting them to canvas units relative to origin.
func (c *AnchorCache) StoreMeasured(objectID string, origin Point, handles map[string]Point, scale float64) bool {
	if scale <= 0 || len(handles) == 0 {
		return false
	}
	var extent Size
	for id, p := range handles {
		off := r2.Scale(1/scale, r2.Sub(p, origin))
		c.offsets[anchorKey(objectID, id)] = off
		extent.Width = max(extent.Width, off.X)
		extent.Height = max(extent.Height, off.Y)
	}
	if extent.Width > 0 && extent.Height > 0 {
		c.sizes[objectID] = extent
	}
	return true
}

// Refresh brings the entries for f up to date, analytically when possible
// and by measurement otherwise.
func (c *AnchorCache) Refresh(f document.Footprint, scale float64) {
	if f.HasSize() {
		c.Sync(f.ID, f.Width, f.Height)
		return
	}
	c.Measure(f.ID, scale)
}

// Offset returns the cached offset of an anchor.
func (c *AnchorCache) Offset(objectID, anchorID string) (Point, bool) {
	off, ok := c.offsets[anchorKey(objectID, anchorID)]
	return off, ok
}

// PositionOf returns the canvas position of an anchor for an object whose
// top-left corner is at origin. Unknown anchors resolve to origin + (100, 100).
func (c *AnchorCache) PositionOf(objectID, anchorID string, origin Point) Point {
	off, ok := c.Offset(objectID, anchorID)
	if !ok {
		off = fallbackAnchorOffset
	}
	return r2.Add(origin, off)
}

// SizeOf returns the last known size of an object.
func (c *AnchorCache) SizeOf(objectID string) (Size, bool) {
	s, ok := c.sizes[objectID]
	return s, ok
}

// Forget drops all entries for a deleted object.
func (c *AnchorCache) Forget(objectID string) {
	for _, id := range AnchorIDs {
		delete(c.offsets, anchorKey(objectID, id))
	}
	delete(c.sizes, objectID)
}

// Reset drops every entry.
func (c *AnchorCache) Reset() {
	clear(c.offsets)
	clear(c.sizes)
}

// Len returns the number of cached anchor entries.
func (c *AnchorCache) Len() int {
	return len(c.offsets)
}
