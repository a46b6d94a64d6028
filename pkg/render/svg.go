package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/scadkit/pkg/geom"
	"github.com/matzehuels/scadkit/pkg/transform"
)

const (
	colorFill     = "#cfe3f7"
	colorStroke   = "#1f5f99"
	colorLocal    = "#9a9a9a"
	colorAxis     = "#d0d0d0"
	colorCentroid = "#c0392b"
)

// RenderSVG draws the footprint of pl as an SVG document.
func RenderSVG(pl transform.Placement, opts ...Option) []byte {
	c := newConfig(opts...)
	return renderSVG(placementDrawing(pl, c), c)
}

// RenderOutlineSVG draws o in its own coordinates.
func RenderOutlineSVG(o geom.Outline, opts ...Option) []byte {
	c := newConfig(opts...)
	return renderSVG(outlineDrawing(o), c)
}

func renderSVG(d drawing, c config) []byte {
	vp := newViewport(d, c)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		c.width, c.height, c.width, c.height)
	if c.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(c.title))
	}
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="white"/>`+"\n")

	if c.axes {
		renderAxes(&buf, vp, c)
	}
	for _, l := range d.layers {
		renderLayer(&buf, vp, l)
	}
	if c.vertices {
		for _, l := range d.layers {
			if l.primary {
				renderVertices(&buf, vp, l.outline)
			}
		}
	}
	if d.centroid != nil {
		x, y := vp.pixel(*d.centroid)
		fmt.Fprintf(&buf, `  <circle class="centroid" cx="%.2f" cy="%.2f" r="4" fill="%s"/>`+"\n", x, y, colorCentroid)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderAxes(buf *bytes.Buffer, vp viewport, c config) {
	ox, oy := vp.pixel(geom.Pt(0, 0))
	fmt.Fprintf(buf, `  <g class="axes" stroke="%s" stroke-width="1">`+"\n", colorAxis)
	fmt.Fprintf(buf, `    <line x1="0" y1="%.2f" x2="%d" y2="%.2f"/>`+"\n", oy, c.width, oy)
	fmt.Fprintf(buf, `    <line x1="%.2f" y1="0" x2="%.2f" y2="%d"/>`+"\n", ox, ox, c.height)
	buf.WriteString("  </g>\n")
}

func renderLayer(buf *bytes.Buffer, vp viewport, l layer) {
	for i := range l.outline.Paths {
		ring := l.outline.Ring(i)
		if len(ring) == 0 {
			continue
		}
		buf.WriteString(`  <path d="`)
		for j, p := range ring {
			x, y := vp.pixel(p)
			cmd := "L"
			if j == 0 {
				cmd = "M"
			}
			fmt.Fprintf(buf, "%s%.2f %.2f ", cmd, x, y)
		}
		buf.WriteString(`Z"`)
		if l.primary {
			fmt.Fprintf(buf, ` class="footprint" fill="%s" stroke="%s" stroke-width="2"/>`+"\n", colorFill, colorStroke)
		} else {
			fmt.Fprintf(buf, ` class="local" fill="none" stroke="%s" stroke-width="1.5" stroke-dasharray="6 4"/>`+"\n", colorLocal)
		}
	}
}

func renderVertices(buf *bytes.Buffer, vp viewport, o geom.Outline) {
	for i, p := range o.Points {
		x, y := vp.pixel(p)
		fmt.Fprintf(buf, `  <circle class="vertex" cx="%.2f" cy="%.2f" r="3" fill="%s"/>`+"\n", x, y, colorStroke)
		fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-family="sans-serif" font-size="12" fill="%s">%d</text>`+"\n",
			x+6, y-6, colorStroke, i)
	}
}
