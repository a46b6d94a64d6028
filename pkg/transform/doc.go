// Package transform applies OpenSCAD-style transform stacks to outlines.
//
// # Source Order
//
// A [Pipeline] lists steps in the order they are written, outermost first:
//
//	rotate([0, 0, 45])
//	    translate([20, 40, 0])
//	        linear_extrude(2)
//	            rhombus(10, 20);
//
// becomes
//
//	p := transform.Pipeline{
//	    transform.Rotate(0, 0, 45),
//	    transform.Translate(20, 40, 0),
//	    transform.LinearExtrude(2),
//	}
//
// The innermost step runs first against the outline's local coordinates and
// every outer step is applied to the geometry the inner steps already
// produced. The composite matrix is therefore the product of the step
// matrices in source order, M = S0 · S1 · … · Sn-1, applied to column
// vectors. In the example the rhombus is extruded, moved to (20, 40), and
// then rotated about the world Z axis: the rotation pivots on the world
// origin, so the translated solid swings around it rather than spinning in
// place.
//
// # Extrusion
//
// linear_extrude turns the 2D outline into a prism along +Z (or centered on
// Z = 0). It only accepts 2D input, so it must be the innermost step and may
// appear at most once. A pipeline without an extrusion places the flat
// outline in the Z = 0 plane.
//
// The prism is described by its two vertex rings; building faces from them
// is the job of the external geometry engine.
//
// # Rotation Convention
//
// rotate([x, y, z]) rotates about X, then Y, then Z (Rz · Ry · Rx), angles in
// degrees, matching OpenSCAD. [RotateAxis] rotates about an arbitrary axis.
package transform
