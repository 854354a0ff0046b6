// Package snapshot rasterizes engine draw commands to PNG so a canvas can be
// inspected without a browser.
package snapshot

import (
	"fmt"
	"image"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/codecanvas/codecanvas/internal/engine"
)

const (
	frameFill   = "#ffffff"
	frameStroke = "#94a3b8"
	selectColor = "#38bdf8"
	background  = "#f8fafc"
)

// Render paints cmds onto a width x height image. Commands carry their own
// viewport transform, so the image shows what the screen would.
func Render(cmds []engine.DrawCommand, width, height int) (image.Image, error) {
	dc, err := paintAll(cmds, width, height)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG renders cmds and encodes the result to w.
func WritePNG(w io.Writer, cmds []engine.DrawCommand, width, height int) error {
	dc, err := paintAll(cmds, width, height)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func paintAll(cmds []engine.DrawCommand, width, height int) (*gg.Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("snapshot: invalid size %dx%d", width, height)
	}
	dc := gg.NewContext(width, height)
	setColor(dc, background, 1)
	dc.Clear()

	for i, cmd := range cmds {
		m := matrixOf(cmd.Transform)
		switch cmd.Op {
		case "path":
			if err := tracePath(dc, m, cmd.Path); err != nil {
				return nil, fmt.Errorf("command %d (%s): %w", i, cmd.ObjectID, err)
			}
			paint(dc, cmd, m)
		case "frame":
			drawFrame(dc, cmd, m)
		default:
			return nil, fmt.Errorf("command %d: unknown op %q", i, cmd.Op)
		}
	}
	return dc, nil
}

func matrixOf(t []float64) engine.Matrix2D {
	if len(t) != 6 {
		return engine.Identity()
	}
	return engine.Matrix2D{t[0], t[1], t[2], t[3], t[4], t[5]}
}

func tracePath(dc *gg.Context, m engine.Matrix2D, path []engine.PathCommand) error {
	dc.NewSubPath()
	for _, pc := range path {
		if len(pc) == 0 {
			continue
		}
		op, _ := pc[0].(string)
		args, err := numbers(pc[1:])
		if err != nil {
			return err
		}
		switch {
		case op == "M" && len(args) == 2:
			dc.MoveTo(m.TransformPoint(args[0], args[1]))
		case op == "L" && len(args) == 2:
			dc.LineTo(m.TransformPoint(args[0], args[1]))
		case op == "C" && len(args) == 6:
			x1, y1 := m.TransformPoint(args[0], args[1])
			x2, y2 := m.TransformPoint(args[2], args[3])
			x3, y3 := m.TransformPoint(args[4], args[5])
			dc.CubicTo(x1, y1, x2, y2, x3, y3)
		case op == "Z":
			dc.ClosePath()
		default:
			return fmt.Errorf("bad path command %v", pc)
		}
	}
	return nil
}

func numbers(vs []interface{}) ([]float64, error) {
	out := make([]float64, len(vs))
	for i, v := range vs {
		switch n := v.(type) {
		case float64:
			out[i] = n
		case int:
			out[i] = float64(n)
		default:
			return nil, fmt.Errorf("non-numeric path argument %v", v)
		}
	}
	return out, nil
}

func paint(dc *gg.Context, cmd engine.DrawCommand, m engine.Matrix2D) {
	alpha := cmd.Opacity
	if alpha <= 0 {
		alpha = 1
	}
	if cmd.Fill != "" && setColor(dc, cmd.Fill, alpha) {
		if cmd.Stroke != "" {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if cmd.Stroke != "" && setColor(dc, cmd.Stroke, alpha) {
		dc.SetLineWidth(lineWidth(cmd.StrokeWidth, m))
		if len(cmd.Dash) > 0 {
			dc.SetDash(cmd.Dash...)
		}
		dc.Stroke()
		dc.SetDash()
	}
	dc.ClearPath()
}

// lineWidth scales a local stroke width the way a canvas transform would.
func lineWidth(w float64, m engine.Matrix2D) float64 {
	if w <= 0 {
		w = 1
	}
	return w * math.Sqrt(math.Abs(m.Determinant()))
}

func drawFrame(dc *gg.Context, cmd engine.DrawCommand, m engine.Matrix2D) {
	corners := [4][2]float64{{0, 0}, {cmd.Width, 0}, {cmd.Width, cmd.Height}, {0, cmd.Height}}
	dc.NewSubPath()
	for i, c := range corners {
		x, y := m.TransformPoint(c[0], c[1])
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
	setColor(dc, frameFill, 1)
	dc.FillPreserve()
	stroke := frameStroke
	if cmd.Selected {
		stroke = selectColor
	}
	setColor(dc, stroke, 1)
	dc.SetLineWidth(lineWidth(1, m))
	dc.Stroke()
}

// setColor understands the colour forms the engine emits: #rgb, #rrggbb
// and rgba(). It reports false for anything else, including "transparent".
func setColor(dc *gg.Context, s string, alpha float64) bool {
	r, g, b, a, ok := parseColor(s)
	if !ok {
		return false
	}
	dc.SetRGBA(r, g, b, a*alpha)
	return true
}

func parseColor(s string) (r, g, b, a float64, ok bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case strings.HasPrefix(s, "#"):
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return 0, 0, 0, 0, false
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, 0, 0, 0, false
		}
		return float64(v>>16&0xff) / 255, float64(v>>8&0xff) / 255, float64(v&0xff) / 255, 1, true
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[len("rgba("):len(s)-1], ",")
		if len(parts) != 4 {
			return 0, 0, 0, 0, false
		}
		var v [4]float64
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return 0, 0, 0, 0, false
			}
			v[i] = f
		}
		return v[0] / 255, v[1] / 255, v[2] / 255, v[3], true
	}
	return 0, 0, 0, 0, false
}
