package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scadkit/pkg/pipeline"
	"github.com/matzehuels/scadkit/pkg/scad"
)

// renderOpts holds the flags shared by render, export and graph.
type renderOpts struct {
	sceneFlags
	output       string // output file (single format) or base path
	formats      []string
	width        int
	height       int
	showVertices bool
	showOutline  bool
	noCache      bool
	refresh      bool
	openscad     string // engine binary override
}

func (o *renderOpts) registerCommon(cmd *cobra.Command) {
	o.sceneFlags.register(cmd)
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "recompute even when cached")
}

func (o *renderOpts) registerPreview(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.width, "width", pipeline.DefaultWidth, "preview width in pixels")
	cmd.Flags().IntVar(&o.height, "height", pipeline.DefaultHeight, "preview height in pixels")
	cmd.Flags().BoolVar(&o.showVertices, "vertices", false, "mark outline vertices and the centroid")
	cmd.Flags().BoolVar(&o.showOutline, "outline", false, "overlay the untransformed outline")
}

func (o *renderOpts) registerEngine(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.openscad, "openscad", "", "OpenSCAD binary (default $"+scad.EnvBinary+" or openscad)")
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [scene]",
		Short: "Render previews of a scene",
		Long: `Render a scene to one or more formats.

Formats: ` + strings.Join(pipeline.FormatNames(), ", ") + `

Previews (svg, png, pdf) show the top view of the placed solid. The solid
formats (stl, off, amf, 3mf) are produced by OpenSCAD.`,
		Example: `  scadkit render
  scadkit render tile.toml -f svg,png --vertices
  scadkit render tile.toml -f stl -o tile.stl`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), sceneArg(args), &opts)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s), comma-separated (default svg)")
	opts.registerCommon(cmd)
	opts.registerPreview(cmd)
	opts.registerEngine(cmd)
	return cmd
}

// runRender evaluates the scene and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	s, err := opts.load(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	po := pipeline.Options{
		Scene:        s,
		Formats:      opts.formats,
		Width:        opts.width,
		Height:       opts.height,
		ShowVertices: opts.showVertices,
		ShowOutline:  opts.showOutline,
		Refresh:      opts.refresh,
		Logger:       logger,
	}
	if opts.openscad != "" {
		po.Engine = scad.NewCLIEngine(opts.openscad)
	}

	var spin *Spinner
	if needsEngine(opts.formats) {
		spin = newSpinner(ctx, "Running OpenSCAD...").Start()
	}
	prog := newProgress(logger)
	result, err := runner.Execute(ctx, po)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}
	prog.done("Rendered " + describeScene(input, s))

	paths, err := writeArtifacts(outputBase(opts.output, input, s.Name), opts.output, opts.formats, result.Artifacts)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", describeScene(input, s))
	printStats(result.Stats.Points, result.Stats.Steps, result.CacheInfo.EvaluateHit && result.CacheInfo.RenderHit)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

func needsEngine(formats []string) bool {
	for _, f := range formats {
		if pipeline.IsEngineFormat(f) {
			return true
		}
	}
	return false
}

// outputBase derives the base output path. Without -o the scene file name
// (or the scene name for the built-in scene) is used. A known format
// extension on -o is stripped.
func outputBase(output, input, name string) string {
	if output == "" {
		if input != "" {
			return strings.TrimSuffix(input, filepath.Ext(input))
		}
		if name == "" {
			name = appName
		}
		return name
	}
	if strings.HasSuffix(output, "."+pipeline.Extension(pipeline.FormatGraph)) {
		return strings.TrimSuffix(output, "."+pipeline.Extension(pipeline.FormatGraph))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeArtifacts writes each format to base.EXT, or a single format to
// output exactly as given. It returns the written paths in format order.
func writeArtifacts(base, output string, formats []string, artifacts map[string][]byte) ([]string, error) {
	var paths []string
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok || seen[f] {
			continue
		}
		seen[f] = true
		path := base + "." + pipeline.Extension(f)
		if len(formats) == 1 && output != "" {
			path = output
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
