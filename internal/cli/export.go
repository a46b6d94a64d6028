package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scadkit/pkg/errors"
	scadio "github.com/matzehuels/scadkit/pkg/io"
	"github.com/matzehuels/scadkit/pkg/pipeline"
	"github.com/matzehuels/scadkit/pkg/scad"
	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// exportFormats are the formats accepted by export.
var exportFormats = []string{scad.FormatSTL, scad.FormatOFF, scad.FormatAMF, scad.Format3MF, pipeline.FormatJSON}

// scadCommand creates the scad command, which prints OpenSCAD source.
func (c *CLI) scadCommand() *cobra.Command {
	var sf sceneFlags
	var output string

	cmd := &cobra.Command{
		Use:   "scad [scene]",
		Short: "Print the OpenSCAD source of a scene",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sf.load(sceneArg(args))
			if err != nil {
				return err
			}
			src, err := scad.Emit(s)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(src)
				return err
			}
			if _, err := writeArtifacts(output, output, []string{pipeline.FormatSCAD}, map[string][]byte{pipeline.FormatSCAD: src}); err != nil {
				return err
			}
			printSuccess("Wrote OpenSCAD source")
			printFile(output)
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "export [scene]",
		Short: "Export solid models through OpenSCAD, or a JSON document",
		Long: `Export a scene as a solid model or as a JSON document.

Formats: ` + strings.Join(exportFormats, ", ") + `

Solid formats are tessellated by OpenSCAD, which must be installed (see
--openscad). The JSON document holds the scene and its evaluation and can
be checked later with "scadkit import".`,
		Example: `  scadkit export tile.toml -o tile.stl
  scadkit export tile.toml -f stl,json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if formatsStr == "" {
				formatsStr = scad.FormatSTL
			}
			opts.formats = parseFormats(formatsStr)
			for _, f := range opts.formats {
				if !isExportFormat(f) {
					return errors.New(errors.ErrCodeInvalidFormat, "invalid export format: %q (must be one of: %s)", f, strings.Join(exportFormats, ", "))
				}
			}
			return c.runRender(cmd.Context(), sceneArg(args), &opts)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "export format(s), comma-separated (default stl)")
	opts.registerCommon(cmd)
	opts.registerEngine(cmd)
	return cmd
}

func isExportFormat(f string) bool {
	return f == pipeline.FormatJSON || pipeline.IsEngineFormat(f)
}

// writeDocument prints the JSON document for s and pl to stdout.
func writeDocument(cmd *cobra.Command, s scene.Scene, pl transform.Placement) error {
	return scadio.WriteJSON(scadio.NewDocument(s, pl), cmd.OutOrStdout())
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <document.json>",
		Short: "Verify a JSON document written by export",
		Long: `Read a JSON document, re-evaluate its scene and check that the stored
matrix and centroid still match.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			doc, err := scadio.ImportJSON(args[0])
			if err != nil {
				return err
			}
			logger.Debug("imported document", "version", doc.Version, "steps", len(doc.Placement.Pipeline))

			printSuccess("Verified %s", describeScene(args[0], doc.Scene))
			printPlacement(doc.Placement)
			printNextStep("Export a solid", fmt.Sprintf("%s export <scene> -f stl", appName))
			return nil
		},
	}
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var dotOnly bool
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "graph [scene]",
		Short: "Diagram the transform stack",
		Long: `Draw the transform stack as a chain from the raw outline to the placed
solid, annotated with the centroid after each step. Rendered with Graphviz
to SVG, or printed as DOT with --dot.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dotOnly {
				return c.printDOT(cmd, sceneArg(args), &opts)
			}
			opts.formats = []string{pipeline.FormatGraph}
			return c.runRender(cmd.Context(), sceneArg(args), &opts)
		},
	}

	cmd.Flags().BoolVar(&dotOnly, "dot", false, "print DOT source to stdout")
	opts.registerCommon(cmd)
	return cmd
}

func (c *CLI) printDOT(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	s, err := opts.load(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	po := pipeline.Options{Scene: s, Formats: []string{pipeline.FormatDOT}, Refresh: opts.refresh, Logger: loggerFromContext(ctx)}
	result, err := runner.Execute(ctx, po)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(result.Artifacts[pipeline.FormatDOT])
	return err
}
