package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scadkit/pkg/cache"
	scadio "github.com/matzehuels/scadkit/pkg/io"
	"github.com/matzehuels/scadkit/pkg/observability"
	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// Cache key types reported to observability hooks.
const (
	keyTypePlacement = "placement"
	keyTypeArtifact  = "artifact"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// SceneHash returns the content hash of s used in cache keys.
func SceneHash(s scene.Scene) string {
	return cache.Hash(s.Canonical())
}

// Execute runs the complete generate → evaluate → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{SceneHash: SceneHash(opts.Scene)}

	evalStart := time.Now()
	pl, evalHit, err := r.EvaluateWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	result.Placement = pl
	result.Stats.EvaluateTime = time.Since(evalStart)
	result.Stats.Points = len(pl.Solid.Outline.Points)
	result.Stats.Steps = len(pl.Pipeline)
	result.CacheInfo.EvaluateHit = evalHit

	opts.Logger.Info("evaluated scene",
		"shape", opts.Scene.Shape.Kind,
		"steps", result.Stats.Steps,
		"centroid", formatVec(pl.Centroid),
		"cached", evalHit,
		"duration", result.Stats.EvaluateTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, pl, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// EvaluateWithCacheInfo evaluates the scene with caching and reports
// whether the placement came from the cache.
func (r *Runner) EvaluateWithCacheInfo(ctx context.Context, opts Options) (transform.Placement, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForEvaluate(); err != nil {
		return transform.Placement{}, false, err
	}

	key := r.Keyer.PlacementKey(SceneHash(opts.Scene))
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var pl transform.Placement
			if err := json.Unmarshal(data, &pl); err == nil {
				hooks.OnCacheHit(ctx, keyTypePlacement)
				return pl, true, nil
			}
			opts.Logger.Warn("discarding unreadable cached placement", "key", key)
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "key", key, "error", err)
		}
		hooks.OnCacheMiss(ctx, keyTypePlacement)
	}

	pl, err := Evaluate(ctx, opts.Scene)
	if err != nil {
		return transform.Placement{}, false, err
	}

	if data, err := json.Marshal(pl); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.PlacementTTL); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "error", err)
		} else {
			hooks.OnCacheSet(ctx, keyTypePlacement, len(data))
		}
	}
	return pl, false, nil
}

// Evaluate is EvaluateWithCacheInfo without the cache hit info.
func (r *Runner) Evaluate(ctx context.Context, opts Options) (transform.Placement, error) {
	pl, _, err := r.EvaluateWithCacheInfo(ctx, opts)
	return pl, err
}

// RenderWithCacheInfo renders the requested formats, serving each from cache
// when possible. It reports true only if every format was a cache hit.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, pl transform.Placement, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	base, err := cache.HashJSON(scadio.NewDocument(opts.Scene, pl))
	if err != nil {
		return nil, false, fmt.Errorf("hash placement for cache key: %w", err)
	}
	hooks := observability.Cache()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if _, seen := artifacts[format]; seen || slices.Contains(missing, format) {
			continue
		}
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(base, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				hooks.OnCacheHit(ctx, keyTypeArtifact)
				artifacts[format] = data
				continue
			}
			hooks.OnCacheMiss(ctx, keyTypeArtifact)
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, pl, renderOpts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(base, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "error", err)
		} else {
			hooks.OnCacheSet(ctx, keyTypeArtifact, len(data))
		}
		artifacts[format] = data
	}
	return artifacts, false, nil
}

// Render is RenderWithCacheInfo without the cache hit info.
func (r *Runner) Render(ctx context.Context, pl transform.Placement, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, pl, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func formatVec(v [3]float64) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
