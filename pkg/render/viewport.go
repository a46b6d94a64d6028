package render

import (
	"math"

	"github.com/matzehuels/scadkit/pkg/geom"
	"github.com/matzehuels/scadkit/pkg/transform"
)

const (
	defaultWidth  = 800
	defaultHeight = 600
	defaultMargin = 40
)

// Option configures SVG and PNG rendering.
type Option func(*config)

type config struct {
	width, height int
	margin        float64
	vertices      bool
	local         bool
	axes          bool
	title         string
}

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(c *config) { c.width, c.height = width, height }
}

// WithMargin sets the empty border around the drawing in pixels.
func WithMargin(px float64) Option { return func(c *config) { c.margin = px } }

// WithVertices draws and numbers each outline vertex.
func WithVertices() Option { return func(c *config) { c.vertices = true } }

// WithLocalOutline also draws the outline before any transform, dashed.
func WithLocalOutline() Option { return func(c *config) { c.local = true } }

// WithoutAxes hides the world X and Y axes.
func WithoutAxes() Option { return func(c *config) { c.axes = false } }

// WithTitle sets the SVG title element.
func WithTitle(s string) Option { return func(c *config) { c.title = s } }

func newConfig(opts ...Option) config {
	c := config{width: defaultWidth, height: defaultHeight, margin: defaultMargin, axes: true}
	for _, opt := range opts {
		opt(&c)
	}
	if c.width <= 0 {
		c.width = defaultWidth
	}
	if c.height <= 0 {
		c.height = defaultHeight
	}
	if c.margin < 0 || 2*c.margin >= float64(min(c.width, c.height)) {
		c.margin = 0
	}
	return c
}

// layer is one outline to draw and whether it is the primary shape.
type layer struct {
	outline geom.Outline
	primary bool
}

// drawing collects what a preview draws, in world coordinates.
type drawing struct {
	layers   []layer
	centroid *geom.Point2D
}

func placementDrawing(pl transform.Placement, c config) drawing {
	d := drawing{}
	if c.local {
		d.layers = append(d.layers, layer{outline: pl.Solid.Outline})
	}
	d.layers = append(d.layers, layer{outline: pl.Footprint(), primary: true})
	cen := geom.Pt(pl.Centroid[0], pl.Centroid[1])
	d.centroid = &cen
	return d
}

func outlineDrawing(o geom.Outline) drawing {
	cen := o.Centroid()
	return drawing{layers: []layer{{outline: o, primary: true}}, centroid: &cen}
}

// viewport maps world XY to pixel coordinates with Y flipped.
type viewport struct {
	scale  float64
	offset geom.Point2D
}

func newViewport(d drawing, c config) viewport {
	b := geom.Rect{
		Min: geom.Pt(math.Inf(1), math.Inf(1)),
		Max: geom.Pt(math.Inf(-1), math.Inf(-1)),
	}
	for _, l := range d.layers {
		lb := l.outline.Bounds()
		b.Min = geom.Pt(math.Min(b.Min.X, lb.Min.X), math.Min(b.Min.Y, lb.Min.Y))
		b.Max = geom.Pt(math.Max(b.Max.X, lb.Max.X), math.Max(b.Max.Y, lb.Max.Y))
	}
	if math.IsInf(b.Min.X, 0) {
		b = geom.Rect{Min: geom.Pt(-1, -1), Max: geom.Pt(1, 1)}
	}

	availW := float64(c.width) - 2*c.margin
	availH := float64(c.height) - 2*c.margin
	scale := 1.0
	switch {
	case b.Width() > 0 && b.Height() > 0:
		scale = math.Min(availW/b.Width(), availH/b.Height())
	case b.Width() > 0:
		scale = availW / b.Width()
	case b.Height() > 0:
		scale = availH / b.Height()
	}

	// Center the content within the canvas.
	center := b.Center()
	return viewport{
		scale:  scale,
		offset: geom.Pt(float64(c.width)/2-center.X*scale, float64(c.height)/2+center.Y*scale),
	}
}

func (v viewport) pixel(p geom.Point2D) (x, y float64) {
	return v.offset.X + p.X*v.scale, v.offset.Y - p.Y*v.scale
}
