// Package render draws previews of outlines and placements.
//
// All previews are top views: the XY plane seen from +Z, with Y pointing
// up. A placement is drawn as its footprint (the world-space bottom ring),
// optionally over the untransformed local outline and the world axes, so
// the effect of the transform stack is visible at a glance.
//
//	svg := render.RenderSVG(pl, render.WithVertices())
//	png, err := render.RenderPNG(pl, render.WithSize(1024, 768))
//
// # Formats
//
//   - SVG: hand-built XML, no dependencies
//   - PNG: rasterized in-process with gogpu/gg
//   - PDF: converted from SVG with rsvg-convert (external tool)
//
// The transform stack itself can be drawn as a diagram with [ToDOT] and
// [RenderGraphSVG], which uses Graphviz.
package render
