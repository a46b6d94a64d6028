// Package scad is the boundary to the external geometry engine.
//
// scadkit computes outlines and placements itself, but tessellation, mesh
// booleans and solid-model export belong to OpenSCAD. This package turns a
// scene into OpenSCAD source with [Emit] and hands that source to an
// [Engine] for export:
//
//	src, err := scad.Emit(s)
//	stl, err := scad.NewCLIEngine("").Export(ctx, src, scad.FormatSTL)
//
// [CLIEngine] shells out to the openscad binary. Engine errors are reported
// as they come back; nothing is retried.
package scad
