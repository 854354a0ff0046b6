package engine

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/codecanvas/codecanvas/internal/document"
)

const (
	curvature    = 0.5
	verticalBias = 0.2

	rootEpsilon = 1e-12
)

// Curve is a cubic Bézier from P0 to P1 through control points C1 and C2.
type Curve struct {
	P0, C1, C2, P1 Point
}

// RoutePath returns the connection curve between two anchor positions. The
// horizontal control offset is always half the span; a vertical bias is
// added only when the endpoints are further apart vertically.
func RoutePath(x1, y1, x2, y2 float64) Curve {
	dx := x2 - x1
	dy := y2 - y1

	bias := 0.0
	if math.Abs(dy) > math.Abs(dx) {
		bias = verticalBias
	}

	return Curve{
		P0: Point{X: x1, Y: y1},
		C1: Point{X: x1 + dx*curvature, Y: y1 + dy*bias},
		C2: Point{X: x2 - dx*curvature, Y: y2 - dy*bias},
		P1: Point{X: x2, Y: y2},
	}
}

// SVG returns the curve as an SVG path string: "M x1 y1 C cx1 cy1, cx2 cy2, x2 y2".
func (c Curve) SVG() string {
	var b strings.Builder
	b.WriteString("M ")
	writePair(&b, c.P0)
	b.WriteString(" C ")
	writePair(&b, c.C1)
	b.WriteString(", ")
	writePair(&b, c.C2)
	b.WriteString(", ")
	writePair(&b, c.P1)
	return b.String()
}

func writePair(b *strings.Builder, p Point) {
	b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
}

// PathCommands returns the curve in draw-command form.
func (c Curve) PathCommands() []PathCommand {
	return []PathCommand{
		{"M", c.P0.X, c.P0.Y},
		{"C", c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.P1.X, c.P1.Y},
	}
}

// At evaluates the curve at t in [0, 1].
func (c Curve) At(t float64) Point {
	a, b, k, d := c.coefficients()
	return r2.Add(r2.Scale(t, r2.Add(r2.Scale(t, r2.Add(r2.Scale(t, a), b)), k)), d)
}

// Deriv returns the first derivative of the curve at t.
func (c Curve) Deriv(t float64) Point {
	a, b, k, _ := c.coefficients()
	return r2.Add(r2.Scale(t, r2.Add(r2.Scale(3*t, a), r2.Scale(2, b))), k)
}

// coefficients returns the power basis a t³ + b t² + k t + d of the curve.
func (c Curve) coefficients() (a, b, k, d Point) {
	a = r2.Add(r2.Sub(c.P1, c.P0), r2.Scale(3, r2.Sub(c.C1, c.C2)))
	b = r2.Scale(3, r2.Add(r2.Sub(c.P0, r2.Scale(2, c.C1)), c.C2))
	k = r2.Scale(3, r2.Sub(c.C1, c.P0))
	return a, b, k, c.P0
}

// Nearest returns the parameter of the point on the curve closest to p and
// its distance. Interior minima are roots of the quintic (B(t) - p)·B'(t),
// located through the eigenvalues of its companion matrix and polished with
// Newton steps. The endpoints are always candidates.
func (c Curve) Nearest(p Point) (t, dist float64) {
	a, b, k, d := c.coefficients()
	q := r2.Sub(d, p)
	poly := []float64{
		r2.Dot(k, q),
		r2.Dot(k, k) + 2*r2.Dot(b, q),
		3*r2.Dot(b, k) + 3*r2.Dot(a, q),
		4*r2.Dot(a, k) + 2*r2.Dot(b, b),
		5 * r2.Dot(a, b),
		3 * r2.Dot(a, a),
	}

	t, dist = 0, r2.Norm(r2.Sub(c.P0, p))
	if d1 := r2.Norm(r2.Sub(c.P1, p)); d1 < dist {
		t, dist = 1, d1
	}
	for _, root := range rootCandidates(poly) {
		root = polish(poly, root)
		if root <= 0 || root >= 1 {
			continue
		}
		if dr := r2.Norm(r2.Sub(c.At(root), p)); dr < dist {
			t, dist = root, dr
		}
	}
	return t, dist
}

// Distance returns the distance from p to the closest point on the curve.
func (c Curve) Distance(p Point) float64 {
	_, dist := c.Nearest(p)
	return dist
}

// rootCandidates returns the real parts of the roots of the polynomial with
// coefficients poly[i] for t^i. Vanishing leading terms lower the degree.
// Near-real pairs show up with a small imaginary part, so every eigenvalue is
// kept; callers compare actual distances.
func rootCandidates(poly []float64) []float64 {
	scale := 0.0
	for _, v := range poly {
		scale = math.Max(scale, math.Abs(v))
	}
	if scale == 0 {
		return nil
	}
	n := len(poly) - 1
	for n > 0 && math.Abs(poly[n]) <= rootEpsilon*scale {
		n--
	}
	if n == 0 {
		return nil
	}

	companion := mat.NewDense(n, n, nil)
	for i := 1; i < n; i++ {
		companion.Set(i, i-1, 1)
	}
	for i := 0; i < n; i++ {
		companion.Set(i, n-1, -poly[i]/poly[n])
	}

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return nil
	}
	values := eig.Values(nil)
	roots := make([]float64, len(values))
	for i, v := range values {
		roots[i] = real(v)
	}
	return roots
}

// polish refines a root estimate with a few Newton steps.
func polish(poly []float64, t float64) float64 {
	for range 3 {
		var f, df float64
		for i := len(poly) - 1; i >= 0; i-- {
			df = df*t + f
			f = f*t + poly[i]
		}
		if df == 0 {
			break
		}
		t -= f / df
	}
	return t
}

// EndBounds is the box spanned by the two endpoints. Box selection uses it
// rather than the curve hull.
func (c Curve) EndBounds() Rect {
	return RectFromPoints(c.P0, c.P1)
}

// EndTangent returns the direction the curve arrives at P1, for arrowheads.
func (c Curve) EndTangent() Point {
	return direction(c.Deriv(1), r2.Sub(c.P1, c.P0))
}

// StartTangent returns the direction leaving P0, reversed, for start arrowheads.
func (c Curve) StartTangent() Point {
	return direction(r2.Scale(-1, c.Deriv(0)), r2.Sub(c.P0, c.P1))
}

// direction normalizes d, falling back to the chord when the control point
// coincides with its endpoint and to +x for a zero-length curve.
func direction(d, chord Point) Point {
	if r2.Norm(d) < 1e-12 {
		d = chord
	}
	if r2.Norm(d) < 1e-12 {
		return Point{X: 1}
	}
	return r2.Unit(d)
}

// EndpointResolver turns a connection endpoint into a canvas position.
type EndpointResolver struct {
	arena   *Arena
	anchors *AnchorCache
}

// Resolve returns the anchor position of ep, or false when the object is gone.
func (r EndpointResolver) Resolve(ep document.Endpoint) (Point, bool) {
	fp, _, ok := r.arena.Lookup(ep.ObjectID)
	if !ok {
		return Point{}, false
	}
	return r.anchors.PositionOf(ep.ObjectID, ep.AnchorID, Point{X: fp.X, Y: fp.Y}), true
}

// Curve routes a stored connection.
func (r EndpointResolver) Curve(c document.Connection) (Curve, bool) {
	a, ok := r.Resolve(c.Source)
	if !ok {
		return Curve{}, false
	}
	b, ok := r.Resolve(c.Target)
	if !ok {
		return Curve{}, false
	}
	return RoutePath(a.X, a.Y, b.X, b.Y), true
}

// LinkState is the state of the connection router.
type LinkState int

const (
	LinkIdle LinkState = iota
	LinkLinking
)

func (s LinkState) String() string {
	if s == LinkLinking {
		return "linking"
	}
	return "idle"
}

// ConnectionRouter drives the linking gesture: pressing on an anchor starts a
// provisional line that follows the pointer until it is released on another
// anchor or abandoned.
type ConnectionRouter struct {
	state    LinkState
	source   document.Endpoint
	start    Point
	cursor   Point
	lineType document.LineType
	newID    func() string
}

func NewConnectionRouter(newID func() string) *ConnectionRouter {
	return &ConnectionRouter{lineType: document.LineTypeArrow, newID: newID}
}

// State returns the current router state.
func (r *ConnectionRouter) State() LinkState { return r.state }

// DefaultLineType returns the type given to new connections.
func (r *ConnectionRouter) DefaultLineType() document.LineType { return r.lineType }

// SetDefaultLineType changes the type given to new connections. Unknown
// types are ignored.
func (r *ConnectionRouter) SetDefaultLineType(t document.LineType) {
	if t.Valid() {
		r.lineType = t
	}
}

// StartLinking begins a provisional connection at a source anchor whose
// canvas position is pos.
func (r *ConnectionRouter) StartLinking(src document.Endpoint, pos Point) {
	r.state = LinkLinking
	r.source = src
	r.start = pos
	r.cursor = pos
}

// UpdateLinking moves the free end of the provisional line to a canvas point.
func (r *ConnectionRouter) UpdateLinking(p Point) {
	if r.state != LinkLinking {
		return
	}
	r.cursor = p
}

// Preview returns the provisional curve while linking.
func (r *ConnectionRouter) Preview() (Curve, bool) {
	if r.state != LinkLinking {
		return Curve{}, false
	}
	return RoutePath(r.start.X, r.start.Y, r.cursor.X, r.cursor.Y), true
}

// Source returns the anchor linking started from.
func (r *ConnectionRouter) Source() (document.Endpoint, bool) {
	return r.source, r.state == LinkLinking
}

// CompleteLinking ends the gesture on target. A connection is produced
// unless target is the source anchor itself. The router returns to idle in
// every case.
func (r *ConnectionRouter) CompleteLinking(target document.Endpoint) (document.Connection, bool) {
	if r.state != LinkLinking {
		return document.Connection{}, false
	}
	src := r.source
	r.Cancel()

	if src.ObjectID == target.ObjectID && src.AnchorID == target.AnchorID {
		return document.Connection{}, false
	}
	return document.Connection{
		ID:     r.newID(),
		Source: src,
		Target: target,
		Type:   r.lineType,
	}, true
}

// Cancel abandons any provisional connection.
func (r *ConnectionRouter) Cancel() {
	r.state = LinkIdle
	r.source = document.Endpoint{}
	r.start = Point{}
	r.cursor = Point{}
}

// ConnectionsOf returns the ids of connections attached to any of objectIDs,
// in scene order. Renderers use it to refresh only affected paths.
func ConnectionsOf(conns []document.Connection, objectIDs map[string]bool) []string {
	var ids []string
	for _, c := range conns {
		if objectIDs[c.Source.ObjectID] || objectIDs[c.Target.ObjectID] {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
