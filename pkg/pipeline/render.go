package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/scadkit/pkg/errors"
	scadio "github.com/matzehuels/scadkit/pkg/io"
	"github.com/matzehuels/scadkit/pkg/observability"
	"github.com/matzehuels/scadkit/pkg/render"
	"github.com/matzehuels/scadkit/pkg/scad"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// Render generates output artifacts for pl in the requested formats.
// opts.Scene must be the scene pl was evaluated from; the JSON and OpenSCAD
// outputs embed it.
func Render(ctx context.Context, pl transform.Placement, opts Options) (map[string][]byte, error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	artifacts, err := renderFormats(ctx, pl, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func renderFormats(ctx context.Context, pl transform.Placement, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	// The engine source is shared by scad and all engine formats.
	var source []byte
	emit := func() ([]byte, error) {
		if source != nil {
			return source, nil
		}
		src, err := scad.Emit(opts.Scene)
		source = src
		return src, err
	}

	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = render.RenderSVG(pl, previewOptions(opts)...)
		case FormatPNG:
			data, err = render.RenderPNG(pl, previewOptions(opts)...)
		case FormatPDF:
			data, err = render.ToPDF(ctx, render.RenderSVG(pl, previewOptions(opts)...))
		case FormatJSON:
			data, err = scadio.MarshalJSON(scadio.NewDocument(opts.Scene, pl))
		case FormatSCAD:
			data, err = emit()
		case FormatDOT:
			data = []byte(render.ToDOT(pl, graphOptions(opts)))
		case FormatGraph:
			data, err = render.RenderGraphSVG(ctx, render.ToDOT(pl, graphOptions(opts)))
		default:
			if !IsEngineFormat(format) {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
			}
			var src []byte
			if src, err = emit(); err == nil {
				data, err = engine(opts).Export(ctx, src, format)
			}
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func previewOptions(opts Options) []render.Option {
	ro := []render.Option{render.WithSize(opts.Width, opts.Height)}
	if opts.ShowVertices {
		ro = append(ro, render.WithVertices())
	}
	if opts.ShowOutline {
		ro = append(ro, render.WithLocalOutline())
	}
	if opts.Scene.Name != "" {
		ro = append(ro, render.WithTitle(opts.Scene.Name))
	}
	return ro
}

func graphOptions(opts Options) render.GraphOptions {
	return render.GraphOptions{Label: opts.Scene.Shape.Kind, Centroids: true}
}

func engine(opts Options) scad.Engine {
	if opts.Engine != nil {
		return opts.Engine
	}
	return scad.NewCLIEngine("")
}
