package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/scadkit/pkg/errors"
)

// Kind identifies a transform step.
type Kind string

// Step kinds.
const (
	KindTranslate     Kind = "translate"
	KindRotate        Kind = "rotate"
	KindScale         Kind = "scale"
	KindMirror        Kind = "mirror"
	KindLinearExtrude Kind = "linear_extrude"
)

// ValidKinds is the set of supported step kinds.
var ValidKinds = map[Kind]bool{
	KindTranslate:     true,
	KindRotate:        true,
	KindScale:         true,
	KindMirror:        true,
	KindLinearExtrude: true,
}

// Step is one entry of a transform stack. Which fields are meaningful
// depends on Op:
//
//   - translate: V = [dx, dy, dz]
//   - rotate: V = [rx, ry, rz] in degrees, or Angle about Axis
//   - scale: V = [sx, sy, sz]
//   - mirror: V = plane normal
//   - linear_extrude: Height, Center
//
// Vectors may have two components, in which case Z is 0, as OpenSCAD allows.
type Step struct {
	Op     Kind      `json:"op" toml:"op" yaml:"op"`
	V      []float64 `json:"v,omitempty" toml:"v,omitempty" yaml:"v,omitempty"`
	Angle  float64   `json:"angle,omitempty" toml:"angle,omitempty" yaml:"angle,omitempty"`
	Axis   []float64 `json:"axis,omitempty" toml:"axis,omitempty" yaml:"axis,omitempty"`
	Height float64   `json:"height,omitempty" toml:"height,omitempty" yaml:"height,omitempty"`
	Center bool      `json:"center,omitempty" toml:"center,omitempty" yaml:"center,omitempty"`
}

// Translate returns a translate([dx, dy, dz]) step.
func Translate(dx, dy, dz float64) Step {
	return Step{Op: KindTranslate, V: []float64{dx, dy, dz}}
}

// Rotate returns a rotate([rx, ry, rz]) step with angles in degrees.
func Rotate(rx, ry, rz float64) Step {
	return Step{Op: KindRotate, V: []float64{rx, ry, rz}}
}

// RotateAxis returns a rotate(a = angle, v = axis) step.
func RotateAxis(angle float64, axis [3]float64) Step {
	return Step{Op: KindRotate, Angle: angle, Axis: axis[:]}
}

// Scale returns a scale([sx, sy, sz]) step.
func Scale(sx, sy, sz float64) Step {
	return Step{Op: KindScale, V: []float64{sx, sy, sz}}
}

// Mirror returns a mirror([nx, ny, nz]) step reflecting across the plane
// through the origin with the given normal.
func Mirror(nx, ny, nz float64) Step {
	return Step{Op: KindMirror, V: []float64{nx, ny, nz}}
}

// LinearExtrude returns a linear_extrude(height) step spanning Z in [0, h].
func LinearExtrude(h float64) Step {
	return Step{Op: KindLinearExtrude, Height: h}
}

// LinearExtrudeCentered returns a linear_extrude(height, center = true) step
// spanning Z in [-h/2, h/2].
func LinearExtrudeCentered(h float64) Step {
	return Step{Op: KindLinearExtrude, Height: h, Center: true}
}

// IsExtrude reports whether s is a linear_extrude step.
func (s Step) IsExtrude() bool { return s.Op == KindLinearExtrude }

// Validate checks that s is well-formed on its own. Structural rules that
// involve the whole stack live in [Pipeline.Validate].
func (s Step) Validate() error {
	if !ValidKinds[s.Op] {
		return errors.New(errors.ErrCodeInvalidTransform, "unknown transform %q", s.Op)
	}
	if s.IsExtrude() {
		if err := errors.ValidateFinite("height", s.Height); err != nil {
			return err
		}
		if s.Height <= 0 {
			return errors.New(errors.ErrCodeInvalidTransform, "linear_extrude height must be positive, got %v", s.Height)
		}
		return nil
	}

	if s.Op == KindRotate && len(s.Axis) > 0 {
		axis, err := vec3("axis", s.Axis)
		if err != nil {
			return err
		}
		if axis.Len() == 0 {
			return errors.New(errors.ErrCodeInvalidTransform, "rotate axis must be non-zero")
		}
		return errors.ValidateFinite("angle", s.Angle)
	}

	v, err := vec3(string(s.Op), s.V)
	if err != nil {
		return err
	}
	if s.Op == KindMirror && v.Len() == 0 {
		return errors.New(errors.ErrCodeInvalidTransform, "mirror normal must be non-zero")
	}
	return nil
}

// Matrix returns the homogeneous matrix of s. linear_extrude has no matrix
// of its own; it returns the identity. The step is assumed valid.
func (s Step) Matrix() mgl64.Mat4 {
	switch s.Op {
	case KindTranslate:
		v, _ := vec3("", s.V)
		return mgl64.Translate3D(v[0], v[1], v[2])
	case KindRotate:
		if len(s.Axis) > 0 {
			axis, _ := vec3("", s.Axis)
			return mgl64.HomogRotate3D(mgl64.DegToRad(s.Angle), axis.Normalize())
		}
		v, _ := vec3("", s.V)
		rx := mgl64.HomogRotate3DX(mgl64.DegToRad(v[0]))
		ry := mgl64.HomogRotate3DY(mgl64.DegToRad(v[1]))
		rz := mgl64.HomogRotate3DZ(mgl64.DegToRad(v[2]))
		return rz.Mul4(ry).Mul4(rx)
	case KindScale:
		v, _ := vec3("", s.V)
		return mgl64.Scale3D(v[0], v[1], v[2])
	case KindMirror:
		v, _ := vec3("", s.V)
		return mirrorMatrix(v.Normalize())
	default:
		return mgl64.Ident4()
	}
}

// String renders s in OpenSCAD syntax, e.g. "translate([20, 40, 0])".
func (s Step) String() string {
	switch s.Op {
	case KindLinearExtrude:
		if s.Center {
			return fmt.Sprintf("linear_extrude(height = %s, center = true)", FormatNumber(s.Height))
		}
		return fmt.Sprintf("linear_extrude(height = %s)", FormatNumber(s.Height))
	case KindRotate:
		if len(s.Axis) > 0 {
			axis, _ := vec3("", s.Axis)
			return fmt.Sprintf("rotate(a = %s, v = %s)", FormatNumber(s.Angle), formatVec(axis))
		}
	}
	v, _ := vec3("", s.V)
	return fmt.Sprintf("%s(%s)", s.Op, formatVec(v))
}

// vec3 pads a two-component vector with Z = 0 and rejects anything that is
// not two or three finite components.
func vec3(name string, v []float64) (mgl64.Vec3, error) {
	var out mgl64.Vec3
	if len(v) < 2 || len(v) > 3 {
		return out, errors.New(errors.ErrCodeInvalidTransform, "%s expects 2 or 3 components, got %d", name, len(v))
	}
	copy(out[:], v)
	if err := errors.ValidateVector(name, out); err != nil {
		return out, err
	}
	return out, nil
}

// mirrorMatrix is the Householder reflection I - 2nnᵀ for unit normal n.
func mirrorMatrix(n mgl64.Vec3) mgl64.Mat4 {
	m := mgl64.Ident4()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, m.At(r, c)-2*n[r]*n[c])
		}
	}
	return m
}

func formatVec(v mgl64.Vec3) string {
	parts := make([]string, 3)
	for i, c := range v {
		parts[i] = FormatNumber(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatNumber prints the shortest representation that round-trips, without
// exponent notation for ordinary magnitudes.
func FormatNumber(f float64) string {
	if f == 0 {
		return "0" // also folds -0
	}
	if math.Abs(f) >= 1e-6 && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
