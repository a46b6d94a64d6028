package transform_test

import (
	"fmt"

	"github.com/matzehuels/scadkit/pkg/shape"
	"github.com/matzehuels/scadkit/pkg/transform"
)

func ExampleEvaluate() {
	p := transform.Pipeline{
		transform.Rotate(0, 0, 45),
		transform.Translate(20, 40, 0),
		transform.LinearExtrude(2),
	}
	pl, err := transform.Evaluate(shape.Rhombus(10, 20), p)
	if err != nil {
		panic(err)
	}
	for _, e := range pl.Trace {
		fmt.Printf("%-14s -> (%.3f, %.3f, %.3f)\n", e.Step.Op, e.Centroid[0], e.Centroid[1], e.Centroid[2])
	}
	// Output:
	// linear_extrude -> (0.000, 0.000, 1.000)
	// translate      -> (20.000, 40.000, 1.000)
	// rotate         -> (-14.142, 42.426, 1.000)
}
