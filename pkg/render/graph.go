package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/scadkit/pkg/transform"
)

// GraphOptions configures the transform stack diagram.
type GraphOptions struct {
	// Label names the shape node. Defaults to "shape".
	Label string

	// Centroids adds the centroid position after each step to its node.
	Centroids bool
}

// ToDOT draws the transform stack of pl as a Graphviz digraph. Nodes run in
// execution order, from the raw shape through the innermost step to the
// outermost, so the arrows follow the data.
func ToDOT(pl transform.Placement, opts GraphOptions) string {
	label := opts.Label
	if label == "" {
		label = "shape"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	shapeLabel := fmt.Sprintf("%s\n%d points", label, len(pl.Solid.Outline.Points))
	if opts.Centroids {
		c := pl.Solid.Outline.Centroid()
		shapeLabel += "\n" + fmtVec(mgl64.Vec3{c.X, c.Y, 0})
	}
	fmt.Fprintf(&buf, "  \"s0\" [label=%q, fillcolor=\"#cfe3f7\"];\n", shapeLabel)

	for i, e := range pl.Trace {
		nodeLabel := e.Step.String()
		if opts.Centroids {
			nodeLabel += "\n" + fmtVec(e.Centroid)
		}
		attrs := []string{fmt.Sprintf("label=%q", nodeLabel)}
		if e.Step.IsExtrude() {
			attrs = append(attrs, "style=\"rounded,filled,bold\"")
		}
		fmt.Fprintf(&buf, "  \"s%d\" [%s];\n", i+1, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for i := range pl.Trace {
		fmt.Fprintf(&buf, "  \"s%d\" -> \"s%d\";\n", i, i+1)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func fmtVec(v mgl64.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}

// RenderGraphSVG renders a DOT graph to SVG using Graphviz.
func RenderGraphSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg element with one
// sized in user units, so the diagram scales like the other previews.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
