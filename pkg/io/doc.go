// Package io reads and writes scadkit placement documents.
//
// A placement document is the JSON export of one evaluation. It carries the
// scene that produced it next to the computed placement, so other tools can
// consume world-space coordinates without re-implementing the transform
// stack:
//
//	{
//	  "version": 1,
//	  "scene": {
//	    "name": "rhombus",
//	    "shape": {"kind": "rhombus", "params": {"l": 20, "w": 10}},
//	    "transform": [
//	      {"op": "rotate", "v": [0, 0, 45]},
//	      {"op": "translate", "v": [20, 40, 0]},
//	      {"op": "linear_extrude", "height": 2}
//	    ]
//	  },
//	  "placement": {"centroid": [-14.142, 42.426, 1], ...}
//	}
//
// # Round trips
//
// [ReadJSON] treats the scene as the source of truth. The placement is
// recomputed on import and compared against the stored one; a document
// whose placement disagrees with its scene is rejected with an
// INVALID_INPUT error. This catches hand-edited files.
//
// # Matrices
//
// Matrices are stored column-major (16 numbers), the layout of
// [mgl64.Mat4]. Vectors are stored as 3-element arrays.
//
// [mgl64.Mat4]: https://pkg.go.dev/github.com/go-gl/mathgl/mgl64#Mat4
package io
