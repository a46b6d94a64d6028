// Package pipeline runs scenes through generate → evaluate → render.
//
// The same pipeline backs the CLI and the HTTP API, so caching, defaults and
// validation behave identically on both.
//
// # Stages
//
//  1. Generate: build the 2D outline from the scene's shape
//  2. Evaluate: apply the transform stack, producing a [transform.Placement]
//  3. Render: produce artifacts (previews, exports, engine output)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Scene:   scene.Default(),
//	    Formats: []string{"svg", "scad"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Engine formats (stl, off, amf, 3mf) hand the emitted OpenSCAD source to a
// [scad.Engine]; unless Options.Engine is set, that is the openscad binary.
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scadkit/pkg/cache"
	"github.com/matzehuels/scadkit/pkg/errors"
	"github.com/matzehuels/scadkit/pkg/scad"
	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default preview width in pixels.
	DefaultWidth = 800

	// DefaultHeight is the default preview height in pixels.
	DefaultHeight = 600

	// MaxDimension bounds preview sizes requested through the API.
	MaxDimension = 8192
)

// Format constants for output formats.
const (
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatPDF   = "pdf"
	FormatJSON  = "json"
	FormatSCAD  = "scad"
	FormatDOT   = "dot"
	FormatGraph = "graph"
	FormatSTL   = scad.FormatSTL
	FormatOFF   = scad.FormatOFF
	FormatAMF   = scad.FormatAMF
	Format3MF   = scad.Format3MF
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:   true,
	FormatPNG:   true,
	FormatPDF:   true,
	FormatJSON:  true,
	FormatSCAD:  true,
	FormatDOT:   true,
	FormatGraph: true,
	FormatSTL:   true,
	FormatOFF:   true,
	FormatAMF:   true,
	Format3MF:   true,
}

// previewFormats depend on the preview size and layer flags.
var previewFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// Extension returns the file extension for format. The graph diagram is
// an SVG file.
func Extension(format string) string {
	if format == FormatGraph {
		return "graph.svg"
	}
	return format
}

// ContentType returns the MIME type served for format.
func ContentType(format string) string {
	switch format {
	case FormatSVG, FormatGraph:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	case FormatSTL:
		return "model/stl"
	case Format3MF:
		return "model/3mf"
	default:
		return "text/plain; charset=utf-8"
	}
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Scene scene.Scene `json:"scene"`

	// Render options
	Formats      []string `json:"formats,omitempty"`
	Width        int      `json:"width,omitempty"`
	Height       int      `json:"height,omitempty"`
	ShowVertices bool     `json:"show_vertices,omitempty"`
	ShowOutline  bool     `json:"show_outline,omitempty"`

	// Refresh bypasses cached results but still stores fresh ones.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Engine scad.Engine `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Placement is the evaluated scene.
	Placement transform.Placement

	// SceneHash is the content hash of the scene.
	SceneHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Points       int
	Steps        int
	EvaluateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	EvaluateHit bool // Whether the placement came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(FormatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// FormatNames returns the supported formats in sorted order.
func FormatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// IsEngineFormat reports whether format is produced by the geometry engine.
func IsEngineFormat(format string) bool {
	return scad.ValidFormats[format]
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the scene and formats and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForEvaluate(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForEvaluate checks the scene.
func (o *Options) ValidateForEvaluate() error {
	if err := o.Scene.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Width < 0 || o.Height < 0 || o.Width > MaxDimension || o.Height > MaxDimension {
		return errors.New(errors.ErrCodeInvalidInput, "preview size %dx%d out of range (max %d)", o.Width, o.Height, MaxDimension)
	}
	return ValidateFormats(o.Formats)
}

// ArtifactKeyOpts returns cache key options for one format. Only preview
// formats depend on size and layer flags.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	if !previewFormats[format] {
		return cache.ArtifactKeyOpts{Format: format}
	}
	return cache.ArtifactKeyOpts{
		Format:       format,
		Width:        float64(o.Width),
		Height:       float64(o.Height),
		ShowVertices: o.ShowVertices,
		ShowOutline:  o.ShowOutline,
	}
}
