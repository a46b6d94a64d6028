// Package geom provides the 2D outline data model shared by shape
// generators, the transform pipeline and the renderers.
//
// # Conventions
//
// X increases to the right and Y increases up, as on graph paper. This is the
// convention OpenSCAD uses for polygon() and it gives meaning to clockwise
// and counter-clockwise: a path with positive [Outline.SignedArea] winds
// counter-clockwise.
//
// # Outlines
//
// An [Outline] is a vertex ring plus one or more closed paths of indices into
// that ring, mirroring polygon(points=..., paths=...):
//
//	o := geom.Outline{
//	    Points: []geom.Point2D{{-5, 0}, {0, 10}, {5, 0}, {0, -10}},
//	    Paths:  [][]int{{0, 1, 2, 3}},
//	}
//	if err := o.Validate(); err != nil {
//	    // index out of range, duplicate index or short path
//	}
//
// Generators build outlines that satisfy the invariants by construction and
// do not validate them. [Outline.Validate] is for outlines that arrive from
// outside: scene files, JSON payloads or tests.
//
// Degenerate outlines (zero area) are valid: the invariants are about
// indices, not about geometry.
package geom
