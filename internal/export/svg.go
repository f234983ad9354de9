package export

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/trackprop/internal/tui"
)

const (
	background  = "#0a0a0a"
	markerColor = "#ff5f87"
)

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *tui.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#00ff00">
`, width, height, width, height, background)

	dotRadius := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// frame maps data coordinates onto a width x height viewport with 10%
// padding and the y axis pointing up.
type frame struct {
	minX, minY     float64
	rangeX, rangeY float64
	width, height  float64
}

func fit(points []r2.Vec, width, height int) frame {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return frame{
		minX:   minX - rangeX*0.1,
		minY:   minY - rangeY*0.1,
		rangeX: rangeX * 1.2,
		rangeY: rangeY * 1.2,
		width:  float64(width),
		height: float64(height),
	}
}

func (f frame) apply(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: (p.X - f.minX) / f.rangeX * f.width,
		Y: f.height - (p.Y-f.minY)/f.rangeY*f.height,
	}
}

// TrajectoryToSVG draws the projected trajectory as a path and marks as
// circles. Both share one viewport.
func TrajectoryToSVG(points, marks []r2.Vec, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	f := fit(append(append([]r2.Vec(nil), points...), marks...), width, height)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, strokeColor)

	for i, p := range points {
		q := f.apply(p)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", q.X, q.Y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", q.X, q.Y)
		}
	}
	sb.WriteString("\"/>\n")

	if len(marks) > 0 {
		fmt.Fprintf(&sb, "<g fill=\"%s\">\n", markerColor)
		for _, m := range marks {
			q := f.apply(m)
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\"/>\n", q.X, q.Y)
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// Rasterize draws the trajectory onto c, scaled to fill its dot grid.
func Rasterize(points []r2.Vec, c *tui.Canvas) {
	if len(points) == 0 {
		return
	}
	w, h := c.Width*2-1, c.Height*4-1
	f := fit(points, w, h)
	dot := func(p r2.Vec) (int, int) {
		q := f.apply(p)
		return int(math.Round(q.X)), int(math.Round(q.Y))
	}

	x0, y0 := dot(points[0])
	c.Set(x0, y0)
	for _, p := range points[1:] {
		x1, y1 := dot(p)
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
}
