// Package cache stores evaluated placements and rendered artifacts.
//
// Evaluating a scene is cheap, but rendering PNG previews and running the
// external geometry engine are not. The [Runner] in package pipeline keys
// every stage by the content hash of its input, so repeated invocations with
// the same scene hit the cache.
//
// # Backends
//
//   - [FileCache]: JSON entries under a directory, the CLI default
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: disables caching
//
// # Keys
//
// Keys are built by a [Keyer] so that callers never format them by hand.
// [ScopedKeyer] prefixes every key, which lets several servers share one
// Redis database.
//
// [Runner]: github.com/matzehuels/scadkit/pkg/pipeline.Runner
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per stage.
const (
	// PlacementTTL applies to evaluated placements.
	PlacementTTL = 7 * 24 * time.Hour

	// ArtifactTTL applies to rendered previews and engine exports.
	ArtifactTTL = 30 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss with ok == false and a nil error. Backends treat a
// zero ttl as "never expires".
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys for each pipeline stage.
type Keyer interface {
	// PlacementKey identifies the placement computed for a scene.
	PlacementKey(sceneHash string) string

	// ArtifactKey identifies one rendered output of a placement.
	ArtifactKey(placementHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format       string  `json:"format"`
	Width        float64 `json:"width,omitempty"`
	Height       float64 `json:"height,omitempty"`
	ShowVertices bool    `json:"show_vertices,omitempty"`
	ShowOutline  bool    `json:"show_outline,omitempty"`
}

// DefaultKeyer builds unscoped keys of the form "stage:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PlacementKey returns "placement:<hash>".
func (DefaultKeyer) PlacementKey(sceneHash string) string {
	return hashKey("placement", sceneHash)
}

// ArtifactKey returns "artifact:<hash>" over the placement hash and options.
func (DefaultKeyer) ArtifactKey(placementHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", placementHash, opts)
}

var _ Keyer = DefaultKeyer{}
