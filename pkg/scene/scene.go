// Package scene describes one evaluation: a shape, its parameters and the
// transform stack applied to it.
//
// Scenes are what the CLI reads from disk and the HTTP API accepts as a
// request body. Three encodings are supported and chosen by file extension:
// TOML (.toml), YAML (.yaml, .yml) and JSON (.json).
//
//	name = "tile"
//
//	[shape]
//	kind = "rhombus"
//	params = { w = 10, l = 20 }
//
//	[[transform]]
//	op = "rotate"
//	v = [0, 0, 45]
//
//	[[transform]]
//	op = "translate"
//	v = [20, 40, 0]
//
//	[[transform]]
//	op = "linear_extrude"
//	height = 2
//
// Transforms are listed in source order, outermost first, exactly as they
// would be nested in OpenSCAD.
package scene

import (
	"encoding/json"

	"github.com/matzehuels/scadkit/pkg/errors"
	"github.com/matzehuels/scadkit/pkg/geom"
	"github.com/matzehuels/scadkit/pkg/shape"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// KindPolygon is the shape kind for literal outlines, the equivalent of a
// bare polygon(points, paths) call.
const KindPolygon = "polygon"

// Shape selects a generator and its parameters.
type Shape struct {
	Kind   string         `json:"kind" toml:"kind" yaml:"kind"`
	Params shape.Params   `json:"params,omitempty" toml:"params,omitempty" yaml:"params,omitempty"`
	Args   []float64      `json:"args,omitempty" toml:"args,omitempty" yaml:"args,omitempty"`
	Points []geom.Point2D `json:"points,omitempty" toml:"points,omitempty" yaml:"points,omitempty"`
	Paths  [][]int        `json:"paths,omitempty" toml:"paths,omitempty" yaml:"paths,omitempty"`
}

// Scene is a shape plus the transform stack applied to it.
type Scene struct {
	Name      string             `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Shape     Shape              `json:"shape" toml:"shape" yaml:"shape"`
	Transform transform.Pipeline `json:"transform,omitempty" toml:"transform,omitempty" yaml:"transform,omitempty"`
}

// Default returns the reference scene:
//
//	rotate([0, 0, 45]) translate([20, 40, 0]) linear_extrude(2) rhombus(10, 20);
func Default() Scene {
	return Scene{
		Name: "rhombus",
		Shape: Shape{
			Kind:   shape.KindRhombus,
			Params: shape.Params{"w": 10, "l": 20},
		},
		Transform: transform.Pipeline{
			transform.Rotate(0, 0, 45),
			transform.Translate(20, 40, 0),
			transform.LinearExtrude(2),
		},
	}
}

// Validate checks the name, the shape selection and the transform stack.
// Degenerate shape parameters (zero or negative sizes) are accepted.
func (s Scene) Validate() error {
	if err := errors.ValidateName(s.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScene, err, "name")
	}
	if _, err := s.Outline(); err != nil {
		return err
	}
	if err := s.Transform.Validate(); err != nil {
		return err
	}
	return nil
}

// Outline builds the scene's 2D outline.
func (s Scene) Outline() (geom.Outline, error) {
	if s.Shape.Kind == "" {
		return geom.Outline{}, errors.New(errors.ErrCodeInvalidScene, "shape kind is required")
	}
	if s.Shape.Kind == KindPolygon {
		o := geom.Outline{Points: s.Shape.Points, Paths: s.Shape.Paths}
		if len(o.Paths) == 0 && len(o.Points) > 0 {
			// polygon(points) without paths uses the points in order.
			path := make([]int, len(o.Points))
			for i := range path {
				path[i] = i
			}
			o.Paths = [][]int{path}
		}
		if err := o.Validate(); err != nil {
			return geom.Outline{}, err
		}
		return o.Clone(), nil
	}

	g, err := shape.Lookup(s.Shape.Kind)
	if err != nil {
		return geom.Outline{}, err
	}
	params := shape.Params{}
	if len(s.Shape.Args) > 0 {
		if params, err = shape.Positional(g, s.Shape.Args...); err != nil {
			return geom.Outline{}, err
		}
	}
	// A named parameter replaces the positional value it aliases; two named
	// keys for one parameter are left for the generator to reject.
	for k := range s.Shape.Params {
		delete(params, shape.CanonicalName(g, k))
	}
	for k, v := range s.Shape.Params {
		params[k] = v
	}
	return g.Generate(params)
}

// Canonical returns a stable JSON encoding of s, suitable for hashing.
// encoding/json sorts map keys, so equal scenes encode identically.
func (s Scene) Canonical() []byte {
	data, _ := json.Marshal(s)
	return data
}
