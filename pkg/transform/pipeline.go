package transform

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/scadkit/pkg/errors"
)

// Pipeline is a transform stack in source order, outermost step first.
type Pipeline []Step

// Validate checks every step and the structural rules: at most one
// linear_extrude, and only as the innermost step.
func (p Pipeline) Validate() error {
	for i, s := range p {
		if err := s.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidTransform, err, "step %d (%s)", i, s.Op)
		}
		if s.IsExtrude() && i != len(p)-1 {
			return errors.New(errors.ErrCodeInvalidTransform,
				"step %d: linear_extrude must be the innermost step (it only accepts 2D input)", i)
		}
	}
	return nil
}

// Extrusion returns the linear_extrude step, if any. The pipeline is
// assumed valid.
func (p Pipeline) Extrusion() (Step, bool) {
	if len(p) > 0 && p[len(p)-1].IsExtrude() {
		return p[len(p)-1], true
	}
	return Step{}, false
}

// Rigid returns the steps that act on the 3D solid, in source order.
func (p Pipeline) Rigid() Pipeline {
	if _, ok := p.Extrusion(); ok {
		return p[:len(p)-1]
	}
	return p
}

// Matrix composes the step matrices in source order. Applied to a column
// vector, the last (innermost) step acts first.
func (p Pipeline) Matrix() mgl64.Mat4 {
	m := mgl64.Ident4()
	for _, s := range p.Rigid() {
		m = m.Mul4(s.Matrix())
	}
	return m
}

// ExecutionOrder returns the steps in the order they act on the geometry,
// innermost first.
func (p Pipeline) ExecutionOrder() Pipeline {
	out := make(Pipeline, len(p))
	for i, s := range p {
		out[len(p)-1-i] = s
	}
	return out
}

// String renders the stack as OpenSCAD source, e.g.
// "rotate([0, 0, 45]) translate([20, 40, 0]) linear_extrude(height = 2)".
func (p Pipeline) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

// Kinds returns the step kinds in source order.
func (p Pipeline) Kinds() []string {
	kinds := make([]string, len(p))
	for i, s := range p {
		kinds[i] = string(s.Op)
	}
	return kinds
}
