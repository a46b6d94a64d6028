// Package cli implements the scadkit command-line interface.
//
// # Commands
//
//   - outline: Generate a shape and print its 2D outline
//   - eval: Evaluate a scene and print where the solid lands
//   - render: Write previews (svg, png, pdf, graph, ...) of a scene
//   - scad: Print the OpenSCAD source of a scene
//   - export: Write solid-model files through OpenSCAD, or a JSON document
//   - import: Verify a JSON document written by export
//   - graph: Diagram the transform stack
//   - tweak: Adjust shape parameters interactively
//   - serve: Run the HTTP API
//   - models: Manage saved models
//   - cache: Manage the result cache
//
// Every command that takes a scene reads it from a TOML, YAML or JSON file.
// Without a file the reference scene is used:
//
//	rotate([0, 0, 45]) translate([20, 40, 0]) linear_extrude(2) rhombus(10, 20);
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// passed to commands through context.Context.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scadkit/pkg/buildinfo"
	"github.com/matzehuels/scadkit/pkg/cache"
	"github.com/matzehuels/scadkit/pkg/errors"
	"github.com/matzehuels/scadkit/pkg/pipeline"
	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/shape"
	"github.com/matzehuels/scadkit/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "scadkit"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "scadkit places parametric shapes in 3D space",
		Long:         `scadkit generates 2D outlines from a few parameters, runs them through an OpenSCAD-style transform stack and reports where the resulting solid lands. OpenSCAD itself is used for solid-model export.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.outlineCommand())
	root.AddCommand(c.evalCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.scadCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.tweakCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.modelsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner and Store Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use. A Redis cache is used
// when $SCADKIT_REDIS_URL is set, the file cache otherwise.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

func newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	rc, err := cache.NewRedisCacheFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		return rc, nil
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newStore opens MongoDB when $SCADKIT_MONGO_URI is set, the file store
// otherwise.
func newStore(ctx context.Context, dir string) (store.Store, error) {
	ms, err := store.NewMongoStoreFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	if ms != nil {
		return ms, nil
	}
	return store.NewFileStore(dir)
}

// =============================================================================
// Scene Helpers
// =============================================================================

// sceneFlags are shared by every command that evaluates a scene.
type sceneFlags struct {
	params []string // key=value shape parameter overrides
}

func (f *sceneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "override a shape parameter (e.g. -p w=12), repeatable")
}

// load reads the scene at path, or the reference scene when path is empty,
// and applies parameter overrides.
func (f *sceneFlags) load(path string) (scene.Scene, error) {
	s := scene.Default()
	if path != "" {
		var err error
		if s, err = scene.Load(path); err != nil {
			return scene.Scene{}, err
		}
	}
	overrides, err := parseParams(f.params)
	if err != nil {
		return scene.Scene{}, err
	}
	if len(overrides) > 0 {
		// Fold both sides onto canonical names so "-p w=12" replaces a
		// scene's "width" instead of competing with it.
		params := shape.Params{}
		g, gerr := shape.Lookup(s.Shape.Kind)
		if gerr == nil {
			params = s.Shape.Params.Fold(g)
			overrides = overrides.Fold(g)
		} else {
			for k, v := range s.Shape.Params {
				params[k] = v
			}
		}
		for k, v := range overrides {
			params[k] = v
		}
		s.Shape.Params = params
		if err := s.Validate(); err != nil {
			return scene.Scene{}, err
		}
	}
	return s, nil
}

// sceneArg returns the optional scene file argument.
func sceneArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// parseParams parses key=value pairs into shape parameters.
func parseParams(pairs []string) (shape.Params, error) {
	p := shape.Params{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid parameter %q (want key=value)", pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid value for %s: %q", k, v)
		}
		if err := errors.ValidateFinite(k, f); err != nil {
			return nil, err
		}
		p[k] = f
	}
	return p, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// describeScene returns a one-line description for status output.
func describeScene(path string, s scene.Scene) string {
	name := s.Name
	if name == "" {
		name = s.Shape.Kind
	}
	if path == "" {
		return fmt.Sprintf("%s (built-in)", name)
	}
	return fmt.Sprintf("%s (%s)", name, path)
}
