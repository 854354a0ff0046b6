package engine

import "math"

// Matrix2D is a 2D affine transform in canvas order [a b c d e f]:
//
//	| a  c  e |
//	| b  d  f |
//	| 0  0  1 |
//
// Draw commands carry it as a six-element slice so the client can pass it
// straight to setTransform.
type Matrix2D [6]float64

// Identity leaves points where they are.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// Multiply returns m * other, which applies other first.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

func (m Matrix2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformRect maps the four corners of r and returns their bounding box.
func (m Matrix2D) TransformRect(r Rect) Rect {
	var xs, ys [4]float64
	for i, c := range [4][2]float64{
		{r.X, r.Y}, {r.X + r.Width, r.Y}, {r.X + r.Width, r.Y + r.Height}, {r.X, r.Y + r.Height},
	} {
		xs[i], ys[i] = m.TransformPoint(c[0], c[1])
	}
	minX, maxX := min(xs[0], xs[1], xs[2], xs[3]), max(xs[0], xs[1], xs[2], xs[3])
	minY, maxY := min(ys[0], ys[1], ys[2], ys[3]), max(ys[0], ys[1], ys[2], ys[3])
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Determinant is the area scale factor of m. Stroke widths use its root.
func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// FromTransform places a footprint: it scales by (sx, sy) and rotates
// clockwise by rDegrees about the local anchor (ax, ay), then moves the
// local origin to (x, y). With no rotation or scale it is Translate(x, y).
func FromTransform(x, y, sx, sy, rDegrees, ax, ay float64) Matrix2D {
	sin, cos := math.Sincos(rDegrees * math.Pi / 180.0)

	return Matrix2D{
		cos * sx,
		sin * sx,
		-sin * sy,
		cos * sy,
		x + ax - cos*sx*ax + sin*sy*ay,
		y + ay - sin*sx*ax - cos*sy*ay,
	}
}

// ViewportMatrix maps canvas coordinates to screen coordinates.
func ViewportMatrix(scale, offsetX, offsetY float64) Matrix2D {
	return Translate(offsetX, offsetY).Multiply(Scale(scale, scale))
}

func (m Matrix2D) ToSlice() []float64 {
	return m[:]
}
