package scad

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/scadkit/pkg/geom"
	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/shape"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// identRe matches characters OpenSCAD does not allow in identifiers.
var identRe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Emit renders s as a self-contained OpenSCAD program: a module that draws
// the outline with polygon() followed by the transform stack applied to one
// instance of it.
//
// Outlines are emitted as literal points rather than as the parametric
// module source, so the engine sees exactly the geometry scadkit evaluated.
func Emit(s scene.Scene) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	o, err := s.Outline()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	name := moduleName(s)
	fmt.Fprintf(&buf, "// scene: %s\n", sanitizeComment(s.Name))
	fmt.Fprintf(&buf, "// shape: %s\n\n", describeShape(s.Shape))
	writeModule(&buf, name, o)
	buf.WriteString("\n")
	writeStack(&buf, s.Transform, name+"();")
	return buf.Bytes(), nil
}

// EmitOutline renders only the polygon() call for o.
func EmitOutline(o geom.Outline) string {
	var buf bytes.Buffer
	writePolygon(&buf, o, "")
	return buf.String()
}

func writeModule(buf *bytes.Buffer, name string, o geom.Outline) {
	fmt.Fprintf(buf, "module %s() {\n", name)
	writePolygon(buf, o, "    ")
	buf.WriteString("}\n")
}

func writePolygon(buf *bytes.Buffer, o geom.Outline, indent string) {
	points := make([]string, len(o.Points))
	for i, p := range o.Points {
		points[i] = fmt.Sprintf("[%s, %s]", transform.FormatNumber(p.X), transform.FormatNumber(p.Y))
	}
	paths := make([]string, len(o.Paths))
	for i, path := range o.Paths {
		idx := make([]string, len(path))
		for j, v := range path {
			idx[j] = fmt.Sprint(v)
		}
		paths[i] = "[" + strings.Join(idx, ",") + "]"
	}
	fmt.Fprintf(buf, "%spolygon(points = [%s], paths = [%s]);\n", indent, strings.Join(points, ", "), strings.Join(paths, ", "))
}

// writeStack nests the steps in source order, each one indenting the next.
func writeStack(buf *bytes.Buffer, p transform.Pipeline, leaf string) {
	for depth, step := range p {
		fmt.Fprintf(buf, "%s%s\n", strings.Repeat("    ", depth), step.String())
	}
	fmt.Fprintf(buf, "%s%s\n", strings.Repeat("    ", len(p)), leaf)
}

func moduleName(s scene.Scene) string {
	kind := s.Shape.Kind
	if kind == scene.KindPolygon {
		// A module named polygon would shadow the builtin it calls.
		kind = "outline"
	}
	name := identRe.ReplaceAllString(strings.ToLower(kind), "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "shape_" + name
	}
	return name
}

func describeShape(sh scene.Shape) string {
	if sh.Kind == scene.KindPolygon {
		return fmt.Sprintf("polygon with %d points", len(sh.Points))
	}
	g, err := shape.Lookup(sh.Kind)
	if err != nil {
		return sh.Kind
	}
	var args []string
	for i, spec := range g.Params() {
		v := spec.Default
		if i < len(sh.Args) {
			v = sh.Args[i]
		}
		for k, pv := range sh.Params {
			if strings.EqualFold(k, spec.Name) || containsFold(spec.Aliases, k) {
				v = pv
			}
		}
		args = append(args, fmt.Sprintf("%s = %s", spec.Name, transform.FormatNumber(v)))
	}
	return fmt.Sprintf("%s(%s)", g.Kind(), strings.Join(args, ", "))
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func sanitizeComment(s string) string {
	if s == "" {
		return "unnamed"
	}
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}
