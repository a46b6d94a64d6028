package render

import (
	"bytes"
	"fmt"

	"github.com/gogpu/gg"

	"github.com/matzehuels/scadkit/pkg/geom"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// RenderPNG rasterizes the footprint of pl. It draws the same layers as
// [RenderSVG] except vertex labels.
func RenderPNG(pl transform.Placement, opts ...Option) ([]byte, error) {
	c := newConfig(opts...)
	return renderPNG(placementDrawing(pl, c), c)
}

// RenderOutlinePNG rasterizes o in its own coordinates.
func RenderOutlinePNG(o geom.Outline, opts ...Option) ([]byte, error) {
	c := newConfig(opts...)
	return renderPNG(outlineDrawing(o), c)
}

func renderPNG(d drawing, c config) ([]byte, error) {
	vp := newViewport(d, c)

	dc := gg.NewContext(c.width, c.height)
	defer dc.Close()
	dc.ClearWithColor(gg.White)

	if c.axes {
		ox, oy := vp.pixel(geom.Pt(0, 0))
		setColor(dc, colorAxis)
		dc.SetLineWidth(1)
		dc.MoveTo(0, oy)
		dc.LineTo(float64(c.width), oy)
		dc.MoveTo(ox, 0)
		dc.LineTo(ox, float64(c.height))
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("stroke axes: %w", err)
		}
	}

	for _, l := range d.layers {
		if err := drawLayer(dc, vp, l); err != nil {
			return nil, err
		}
	}

	if c.vertices {
		for _, l := range d.layers {
			if !l.primary {
				continue
			}
			setColor(dc, colorStroke)
			for _, p := range l.outline.Points {
				x, y := vp.pixel(p)
				dc.DrawCircle(x, y, 3)
			}
			if err := dc.Fill(); err != nil {
				return nil, fmt.Errorf("fill vertices: %w", err)
			}
		}
	}

	if d.centroid != nil {
		x, y := vp.pixel(*d.centroid)
		setColor(dc, colorCentroid)
		dc.DrawCircle(x, y, 4)
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("fill centroid: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawLayer(dc *gg.Context, vp viewport, l layer) error {
	tracePaths(dc, vp, l.outline)
	if !l.primary {
		setColor(dc, colorLocal)
		dc.SetLineWidth(1.5)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("stroke outline: %w", err)
		}
		return nil
	}
	setColor(dc, colorFill)
	if err := dc.FillPreserve(); err != nil {
		return fmt.Errorf("fill footprint: %w", err)
	}
	setColor(dc, colorStroke)
	dc.SetLineWidth(2)
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroke footprint: %w", err)
	}
	return nil
}

func tracePaths(dc *gg.Context, vp viewport, o geom.Outline) {
	for i := range o.Paths {
		for j, p := range o.Ring(i) {
			x, y := vp.pixel(p)
			if j == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
	}
}

func setColor(dc *gg.Context, hex string) {
	c := gg.Hex(hex)
	dc.SetRGBA(c.R, c.G, c.B, c.A)
}
