package transform

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/scadkit/pkg/geom"
)

// Solid describes the prism produced by extruding an outline. Height 0
// means the outline was not extruded and lies flat in the Z = 0 plane.
type Solid struct {
	Outline geom.Outline `json:"outline"`
	Height  float64      `json:"height"`
	ZMin    float64      `json:"z_min"`
	ZMax    float64      `json:"z_max"`
}

// Extruded reports whether the solid has volume along Z.
func (s Solid) Extruded() bool { return s.Height > 0 }

// LocalCentroid returns the centroid of the solid in its own frame: the
// outline centroid lifted to the middle of the extrusion.
func (s Solid) LocalCentroid() mgl64.Vec3 {
	c := s.Outline.Centroid()
	return mgl64.Vec3{c.X, c.Y, (s.ZMin + s.ZMax) / 2}
}

// Box is an axis-aligned bounding box in world space.
type Box struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`
}

// Size returns the extent of b along each axis.
func (b Box) Size() mgl64.Vec3 { return b.Max.Sub(b.Min) }

// TraceEntry records where the solid's centroid is after one step has run.
type TraceEntry struct {
	Step     Step       `json:"step"`
	Centroid mgl64.Vec3 `json:"centroid"`
}

// Placement is the result of evaluating a pipeline against an outline.
type Placement struct {
	// Pipeline is the evaluated stack in source order.
	Pipeline Pipeline `json:"pipeline"`

	// Solid is the extruded outline in local coordinates.
	Solid Solid `json:"solid"`

	// Matrix maps local coordinates to world coordinates.
	Matrix mgl64.Mat4 `json:"matrix"`

	// Bottom and Top are the world-space vertex rings of the prism, one
	// entry per outline point. They coincide when the solid is flat.
	Bottom []mgl64.Vec3 `json:"bottom"`
	Top    []mgl64.Vec3 `json:"top"`

	// Centroid is the world-space position of Solid.LocalCentroid.
	Centroid mgl64.Vec3 `json:"centroid"`

	// Bounds encloses Bottom and Top.
	Bounds Box `json:"bounds"`

	// Trace lists the centroid after each step in execution order.
	Trace []TraceEntry `json:"trace"`
}

// Evaluate extrudes o and applies the rigid steps of p to it.
func Evaluate(o geom.Outline, p Pipeline) (Placement, error) {
	if err := p.Validate(); err != nil {
		return Placement{}, err
	}

	solid := Solid{Outline: o.Clone()}
	if ext, ok := p.Extrusion(); ok {
		solid.Height = ext.Height
		solid.ZMax = ext.Height
		if ext.Center {
			solid.ZMin, solid.ZMax = -ext.Height/2, ext.Height/2
		}
	}

	m := p.Matrix()
	pl := Placement{
		Pipeline: append(Pipeline(nil), p...),
		Solid:    solid,
		Matrix:   m,
		Bottom:   make([]mgl64.Vec3, len(o.Points)),
		Top:      make([]mgl64.Vec3, len(o.Points)),
		Centroid: Apply(m, solid.LocalCentroid()),
	}
	for i, pt := range o.Points {
		pl.Bottom[i] = Apply(m, mgl64.Vec3{pt.X, pt.Y, solid.ZMin})
		pl.Top[i] = Apply(m, mgl64.Vec3{pt.X, pt.Y, solid.ZMax})
	}
	pl.Bounds = bounds(pl.Bottom, pl.Top)
	pl.Trace = trace(p, solid)
	return pl, nil
}

// Apply transforms point v by m.
func Apply(m mgl64.Mat4, v mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(v.Vec4(1)).Vec3()
}

// Footprint projects the world-space prism onto the XY plane, returning
// the bottom ring as an outline with the original paths.
func (pl Placement) Footprint() geom.Outline {
	o := geom.Outline{
		Points: make([]geom.Point2D, len(pl.Bottom)),
		Paths:  pl.Solid.Outline.Clone().Paths,
	}
	for i, v := range pl.Bottom {
		o.Points[i] = geom.Point2D{X: v[0], Y: v[1]}
	}
	return o
}

// trace replays the stack innermost first. The extrusion entry records the
// lifted centroid; each rigid step is then pre-multiplied onto the
// accumulated matrix, since it acts on already-transformed geometry.
func trace(p Pipeline, solid Solid) []TraceEntry {
	c := solid.LocalCentroid()
	acc := mgl64.Ident4()
	entries := make([]TraceEntry, 0, len(p))
	for _, s := range p.ExecutionOrder() {
		if !s.IsExtrude() {
			acc = s.Matrix().Mul4(acc)
		}
		entries = append(entries, TraceEntry{Step: s, Centroid: Apply(acc, c)})
	}
	return entries
}

func bounds(rings ...[]mgl64.Vec3) Box {
	b := Box{
		Min: mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
	empty := true
	for _, ring := range rings {
		for _, v := range ring {
			empty = false
			for i := range 3 {
				b.Min[i] = math.Min(b.Min[i], v[i])
				b.Max[i] = math.Max(b.Max[i], v[i])
			}
		}
	}
	if empty {
		return Box{}
	}
	return b
}
