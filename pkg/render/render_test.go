package render

import (
	"bytes"
	"context"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/scadkit/pkg/errors"
	"github.com/matzehuels/scadkit/pkg/geom"
	"github.com/matzehuels/scadkit/pkg/shape"
	"github.com/matzehuels/scadkit/pkg/transform"
)

func square() geom.Outline {
	return geom.Outline{
		Points: []geom.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		Paths:  [][]int{{0, 1, 2, 3}},
	}
}

func defaultPlacement(t *testing.T) transform.Placement {
	t.Helper()
	pl, err := transform.Evaluate(shape.Rhombus(10, 20), transform.Pipeline{
		transform.Rotate(0, 0, 45),
		transform.Translate(20, 40, 0),
		transform.LinearExtrude(2),
	})
	if err != nil {
		t.Fatal(err)
	}
	return pl
}

func TestViewport(t *testing.T) {
	c := newConfig()
	vp := newViewport(outlineDrawing(square()), c)

	tests := []struct {
		in     geom.Point2D
		wx, wy float64
	}{
		{geom.Pt(0, 0), 140, 560},
		{geom.Pt(10, 10), 660, 40},
		{geom.Pt(5, 5), 400, 300},
	}
	for _, tt := range tests {
		x, y := vp.pixel(tt.in)
		if math.Abs(x-tt.wx) > 1e-9 || math.Abs(y-tt.wy) > 1e-9 {
			t.Errorf("pixel(%v) = (%v, %v), want (%v, %v)", tt.in, x, y, tt.wx, tt.wy)
		}
	}
}

func TestViewportDegenerate(t *testing.T) {
	for _, o := range []geom.Outline{shape.Rhombus(0, 20), shape.Rhombus(0, 0), {}} {
		vp := newViewport(outlineDrawing(o), newConfig())
		x, y := vp.pixel(geom.Pt(0, 0))
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			t.Errorf("degenerate outline %v produced pixel (%v, %v)", o.Points, x, y)
		}
	}
}

func TestNewConfigClampsInvalid(t *testing.T) {
	c := newConfig(WithSize(-1, 0), WithMargin(1000))
	if c.width != defaultWidth || c.height != defaultHeight || c.margin != 0 {
		t.Errorf("config = %+v", c)
	}
}

func TestRenderSVG(t *testing.T) {
	pl := defaultPlacement(t)

	tests := []struct {
		name    string
		opts    []Option
		want    []string
		notWant []string
	}{
		{
			name: "default",
			want: []string{`width="800" height="600"`, `class="footprint"`, `class="axes"`, `class="centroid"`},
			notWant: []string{`class="vertex"`, `class="local"`, "<title>"},
		},
		{
			name: "all layers",
			opts: []Option{WithVertices(), WithLocalOutline(), WithTitle("a < b"), WithSize(400, 400)},
			want: []string{`width="400" height="400"`, `class="local"`, `class="vertex"`, "<title>a &lt; b</title>", ">3</text>"},
		},
		{
			name:    "no axes",
			opts:    []Option{WithoutAxes()},
			notWant: []string{`class="axes"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svg := string(RenderSVG(pl, tt.opts...))
			if !strings.HasPrefix(svg, "<svg ") || !strings.HasSuffix(svg, "</svg>\n") {
				t.Fatalf("not an svg document:\n%s", svg)
			}
			for _, w := range tt.want {
				if !strings.Contains(svg, w) {
					t.Errorf("missing %q", w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(svg, w) {
					t.Errorf("unexpected %q", w)
				}
			}
		})
	}
}

func TestRenderSVGVertexCount(t *testing.T) {
	svg := string(RenderSVG(defaultPlacement(t), WithVertices(), WithLocalOutline()))
	// Only the footprint gets vertex markers.
	if n := strings.Count(svg, `class="vertex"`); n != 4 {
		t.Errorf("vertex markers = %d, want 4", n)
	}
}

func TestRenderOutlineSVGPath(t *testing.T) {
	svg := string(RenderOutlineSVG(square(), WithoutAxes()))
	want := `<path d="M140.00 560.00 L660.00 560.00 L660.00 40.00 L140.00 40.00 Z"`
	if !strings.Contains(svg, want) {
		t.Errorf("missing %q in:\n%s", want, svg)
	}
}

func TestRenderOutlinePNG(t *testing.T) {
	data, err := RenderOutlinePNG(square(), WithoutAxes())
	if err != nil {
		t.Fatalf("RenderOutlinePNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Fatalf("size = %v", b)
	}

	near := func(x, y int, r0, g0, b0 uint8) bool {
		r, g, b, _ := img.At(x, y).RGBA()
		d := func(a uint32, want uint8) bool { return math.Abs(float64(a>>8)-float64(want)) <= 3 }
		return d(r, r0) && d(g, g0) && d(b, b0)
	}
	if !near(20, 20, 0xff, 0xff, 0xff) {
		t.Errorf("background pixel = %v, want white", img.At(20, 20))
	}
	if !near(200, 300, 0xcf, 0xe3, 0xf7) {
		t.Errorf("interior pixel = %v, want fill color", img.At(200, 300))
	}
}

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG(defaultPlacement(t), WithVertices(), WithLocalOutline(), WithSize(200, 100))
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 200 || cfg.Height != 100 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(defaultPlacement(t), GraphOptions{Label: "rhombus", Centroids: true})

	for _, want := range []string{
		`"s0" [label="rhombus\n4 points\n(0.000, 0.000, 0.000)"`,
		`label="linear_extrude(height = 2)\n(0.000, 0.000, 1.000)", style="rounded,filled,bold"`,
		`label="translate([20, 40, 0])\n(20.000, 40.000, 1.000)"`,
		`label="rotate([0, 0, 45])\n(-14.142, 42.426, 1.000)"`,
		`"s0" -> "s1";`,
		`"s2" -> "s3";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"s3" -> "s4"`) {
		t.Error("extra edge past the outermost step")
	}
}

func TestToDOTEmptyPipeline(t *testing.T) {
	pl, err := transform.Evaluate(square(), nil)
	if err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(pl, GraphOptions{})
	if !strings.Contains(dot, `"s0" [label="shape\n4 points"`) || strings.Contains(dot, "->") {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
}

func TestRenderGraphSVG(t *testing.T) {
	svg, err := RenderGraphSVG(context.Background(), ToDOT(defaultPlacement(t), GraphOptions{}))
	if err != nil {
		t.Fatalf("RenderGraphSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("linear_extrude")) {
		t.Errorf("unexpected output: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox =\n%s\nwant\n%s", got, want)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("no viewBox should pass through, got %s", got)
	}
}

func TestToPDFUnavailable(t *testing.T) {
	old := rsvgPath
	rsvgPath = filepath.Join(t.TempDir(), "no-rsvg-convert")
	t.Cleanup(func() { rsvgPath = old })

	_, err := ToPDF(context.Background(), RenderSVG(defaultPlacement(t)))
	if !errors.Is(err, errors.ErrCodeEngineUnavailable) {
		t.Errorf("ToPDF error = %v, want ENGINE_UNAVAILABLE", err)
	}
}
