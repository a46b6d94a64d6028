package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/scadkit/pkg/geom"
	"github.com/matzehuels/scadkit/pkg/observability"
	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// Generate builds the scene's outline.
func Generate(ctx context.Context, s scene.Scene) (geom.Outline, error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnGenerateStart(ctx, s.Shape.Kind)
	o, err := s.Outline()
	hooks.OnGenerateComplete(ctx, s.Shape.Kind, len(o.Points), time.Since(start), err)
	return o, err
}

// Evaluate generates the outline and applies the transform stack.
func Evaluate(ctx context.Context, s scene.Scene) (transform.Placement, error) {
	o, err := Generate(ctx, s)
	if err != nil {
		return transform.Placement{}, err
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnEvaluateStart(ctx, len(s.Transform))
	pl, err := transform.Evaluate(o, s.Transform)
	hooks.OnEvaluateComplete(ctx, len(s.Transform), time.Since(start), err)
	return pl, err
}
