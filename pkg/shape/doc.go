// Package shape generates parametric 2D outlines.
//
// Generators are pure functions of their parameters: nothing is cached and
// nothing is retained after the outline is returned. The rhombus generator
// is the canonical one:
//
//	o := shape.Rhombus(10, 20)
//	// o.Points == [(-5,0) (0,10) (5,0) (0,-10)], o.Paths == [[0 1 2 3]]
//
// # Parameters
//
// Generators do not validate their inputs. A zero width or length collapses
// the rhombus to a line segment (zero area); negative values mirror the
// outline and flip its winding. Rejecting such values is the caller's
// decision; the scene loader, for example, only rejects non-finite numbers.
//
// # Registry
//
// Scenes and the HTTP API refer to shapes by kind. [Lookup] resolves a kind
// to a [Generator], and [Generate] does lookup and generation in one step:
//
//	o, err := shape.Generate("rhombus", shape.Params{"w": 10, "l": 20})
package shape
