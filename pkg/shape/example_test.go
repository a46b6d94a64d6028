package shape_test

import (
	"fmt"

	"github.com/matzehuels/scadkit/pkg/shape"
)

func ExampleRhombus() {
	o := shape.Rhombus(10, 20)
	fmt.Println(o.Points)
	fmt.Println(o.Paths)
	fmt.Println(o.Area())
	// Output:
	// [{-5 0} {0 10} {5 0} {0 -10}]
	// [[0 1 2 3]]
	// 100
}
