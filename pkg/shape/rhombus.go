package shape

import "github.com/matzehuels/scadkit/pkg/geom"

// KindRhombus is the registry name of the rhombus generator.
const KindRhombus = "rhombus"

// Rhombus returns a rhombus centered at the origin whose horizontal diagonal
// is w long and whose vertical diagonal is l long.
//
// Vertices are emitted left, top, right, bottom and referenced by a single
// path [0 1 2 3]. Downstream extrusion derives face orientation from this
// order, so it must not change.
func Rhombus(w, l float64) geom.Outline {
	return geom.Outline{
		Points: []geom.Point2D{
			{X: -w / 2, Y: 0}, // left
			{X: 0, Y: l / 2},  // top
			{X: w / 2, Y: 0},  // right
			{X: 0, Y: -l / 2}, // bottom
		},
		Paths: [][]int{{0, 1, 2, 3}},
	}
}

// rhombusGenerator adapts [Rhombus] to the [Generator] interface.
type rhombusGenerator struct{}

func (rhombusGenerator) Kind() string { return KindRhombus }

func (rhombusGenerator) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "w", Aliases: []string{"width"}, Default: 10, Doc: "horizontal diagonal"},
		{Name: "l", Aliases: []string{"length"}, Default: 20, Doc: "vertical diagonal"},
	}
}

func (g rhombusGenerator) Generate(p Params) (geom.Outline, error) {
	v, err := p.resolve(g.Params())
	if err != nil {
		return geom.Outline{}, err
	}
	return Rhombus(v["w"], v["l"]), nil
}
