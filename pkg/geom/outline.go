package geom

import (
	"math"

	"github.com/matzehuels/scadkit/pkg/errors"
)

// Winding is the orientation of a closed path.
type Winding int

const (
	// Degenerate paths enclose no area (collinear or coincident vertices).
	Degenerate Winding = iota
	// CounterClockwise paths have positive signed area.
	CounterClockwise
	// Clockwise paths have negative signed area.
	Clockwise
)

// String returns the lowercase name of the winding.
func (w Winding) String() string {
	switch w {
	case CounterClockwise:
		return "ccw"
	case Clockwise:
		return "cw"
	default:
		return "degenerate"
	}
}

// minPathLen is the smallest ring that can enclose an area.
const minPathLen = 3

// Outline is a 2D shape boundary: a vertex ring and the closed paths that
// index into it.
type Outline struct {
	Points []Point2D `json:"points" toml:"points" yaml:"points"`
	Paths  [][]int   `json:"paths" toml:"paths" yaml:"paths"`
}

// Validate checks the index invariants: every path has at least three
// entries, each entry indexes into Points, and no index repeats within a
// path. The returned error has code [errors.ErrCodeInvalidOutline].
func (o Outline) Validate() error {
	if len(o.Paths) == 0 {
		return errors.New(errors.ErrCodeInvalidOutline, "outline has no paths")
	}
	for i, p := range o.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return errors.New(errors.ErrCodeInvalidOutline, "point %d is not finite: (%v, %v)", i, p.X, p.Y)
		}
	}
	for pi, path := range o.Paths {
		if len(path) < minPathLen {
			return errors.New(errors.ErrCodeInvalidOutline, "path %d has %d indices (need at least %d)", pi, len(path), minPathLen)
		}
		seen := make(map[int]bool, len(path))
		for _, idx := range path {
			if idx < 0 || idx >= len(o.Points) {
				return errors.New(errors.ErrCodeInvalidOutline, "path %d references index %d (have %d points)", pi, idx, len(o.Points))
			}
			if seen[idx] {
				return errors.New(errors.ErrCodeInvalidOutline, "path %d repeats index %d", pi, idx)
			}
			seen[idx] = true
		}
	}
	return nil
}

// Ring returns the points of path i in path order.
// It panics if i is out of range; indices are assumed valid.
func (o Outline) Ring(i int) []Point2D {
	path := o.Paths[i]
	ring := make([]Point2D, len(path))
	for j, idx := range path {
		ring[j] = o.Points[idx]
	}
	return ring
}

// Centroid returns the average of the vertex ring. For the symmetric shapes
// the generators produce this coincides with the area centroid; it is also
// defined for degenerate outlines, where the area centroid is not.
func (o Outline) Centroid() Point2D {
	if len(o.Points) == 0 {
		return Point2D{}
	}
	var sum Point2D
	for _, p := range o.Points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(o.Points)))
}

// SignedArea returns the shoelace area of path i. Positive values mean the
// path winds counter-clockwise.
func (o Outline) SignedArea(i int) float64 {
	return signedArea(o.Ring(i))
}

// Area returns the total absolute area of all paths. Paths are treated as
// independent regions; holes are not subtracted.
func (o Outline) Area() float64 {
	var total float64
	for i := range o.Paths {
		total += math.Abs(o.SignedArea(i))
	}
	return total
}

// Winding returns the orientation of path i.
func (o Outline) Winding(i int) Winding {
	a := o.SignedArea(i)
	switch {
	case a > 0:
		return CounterClockwise
	case a < 0:
		return Clockwise
	default:
		return Degenerate
	}
}

// TurnSigns returns the sign of the cross product of each pair of
// consecutive edges along path i: +1 for a left turn, -1 for a right turn
// and 0 for a straight or zero-length edge. A convex counter-clockwise path
// has all +1.
func (o Outline) TurnSigns(i int) []int {
	ring := o.Ring(i)
	n := len(ring)
	signs := make([]int, n)
	for j := range ring {
		e1 := ring[(j+1)%n].Sub(ring[j])
		e2 := ring[(j+2)%n].Sub(ring[(j+1)%n])
		switch c := e1.Cross(e2); {
		case c > 0:
			signs[j] = 1
		case c < 0:
			signs[j] = -1
		}
	}
	return signs
}

// Bounds returns the bounding rectangle of all points.
func (o Outline) Bounds() Rect {
	if len(o.Points) == 0 {
		return Rect{}
	}
	r := Rect{Min: o.Points[0], Max: o.Points[0]}
	for _, p := range o.Points[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

// Clone returns a deep copy of o.
func (o Outline) Clone() Outline {
	c := Outline{
		Points: append([]Point2D(nil), o.Points...),
		Paths:  make([][]int, len(o.Paths)),
	}
	for i, p := range o.Paths {
		c.Paths[i] = append([]int(nil), p...)
	}
	return c
}

func signedArea(ring []Point2D) float64 {
	var sum float64
	for i := range ring {
		j := (i + 1) % len(ring)
		sum += ring[i].Cross(ring[j])
	}
	return sum / 2
}
