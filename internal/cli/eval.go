package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scadkit/pkg/geom"
	"github.com/matzehuels/scadkit/pkg/pipeline"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// outlineCommand creates the outline command.
func (c *CLI) outlineCommand() *cobra.Command {
	var sf sceneFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "outline [scene]",
		Short: "Generate a shape and print its 2D outline",
		Example: `  scadkit outline
  scadkit outline -p w=12 -p l=30 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sf.load(sceneArg(args))
			if err != nil {
				return err
			}
			o, err := pipeline.Generate(cmd.Context(), s)
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndentedJSON(cmd, o)
			}
			printOutline(o)
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outline as JSON")
	return cmd
}

func printOutline(o geom.Outline) {
	rows := make([][]string, len(o.Points))
	for i, p := range o.Points {
		rows[i] = []string{fmt.Sprint(i), transform.FormatNumber(p.X), transform.FormatNumber(p.Y)}
	}
	printTable([]string{"#", "x", "y"}, rows)

	for i, path := range o.Paths {
		printKeyValue(fmt.Sprintf("path %d", i), fmt.Sprintf("%v %s, area %s",
			path, o.Winding(i), transform.FormatNumber(o.SignedArea(i))))
	}
	ctr := o.Centroid()
	printKeyValue("centroid", fmt.Sprintf("(%s, %s)", transform.FormatNumber(ctr.X), transform.FormatNumber(ctr.Y)))
	b := o.Bounds()
	printKeyValue("size", fmt.Sprintf("%s x %s", transform.FormatNumber(b.Width()), transform.FormatNumber(b.Height())))
}

func writeIndentedJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// evalCommand creates the eval command.
func (c *CLI) evalCommand() *cobra.Command {
	var sf sceneFlags
	var asJSON, noCache, refresh bool

	cmd := &cobra.Command{
		Use:   "eval [scene]",
		Short: "Evaluate a scene and print where the solid lands",
		Long: `Evaluate a scene's transform stack.

Prints the composite matrix, the world-space centroid of the solid, its
bounding box and the centroid after each step in execution order
(innermost first).`,
		Example: `  scadkit eval
  scadkit eval tile.yaml --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEval(cmd, sceneArg(args), &sf, asJSON, noCache, refresh)
		},
	}

	sf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the evaluation as a JSON document")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	return cmd
}

func (c *CLI) runEval(cmd *cobra.Command, input string, sf *sceneFlags, asJSON, noCache, refresh bool) error {
	ctx := cmd.Context()
	s, err := sf.load(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	pl, hit, err := runner.EvaluateWithCacheInfo(ctx, pipeline.Options{Scene: s, Refresh: refresh, Logger: loggerFromContext(ctx)})
	if err != nil {
		return err
	}
	prog.done("Evaluated " + describeScene(input, s))

	if asJSON {
		return writeDocument(cmd, s, pl)
	}

	printSuccess("Evaluated %s", describeScene(input, s))
	printStats(len(pl.Solid.Outline.Points), len(pl.Pipeline), hit)
	printPlacement(pl)
	return nil
}

func printPlacement(pl transform.Placement) {
	printKeyValue("source", pl.Pipeline.String())
	printKeyValue("centroid", fmtVec(pl.Centroid))
	printKeyValue("bounds", fmtVec(pl.Bounds.Min)+" .. "+fmtVec(pl.Bounds.Max))
	if pl.Solid.Extruded() {
		printKeyValue("height", fmt.Sprintf("%s (z %s..%s)", transform.FormatNumber(pl.Solid.Height),
			transform.FormatNumber(pl.Solid.ZMin), transform.FormatNumber(pl.Solid.ZMax)))
	}

	m := pl.Matrix
	for row := range 4 {
		label := ""
		if row == 0 {
			label = "matrix"
		}
		printKeyValue(label, fmt.Sprintf("[% 9.4f % 9.4f % 9.4f % 9.4f]", m.At(row, 0), m.At(row, 1), m.At(row, 2), m.At(row, 3)))
	}

	if len(pl.Trace) == 0 {
		return
	}
	rows := make([][]string, len(pl.Trace))
	for i, e := range pl.Trace {
		rows[i] = []string{fmt.Sprint(i + 1), e.Step.String(), fmtVec(e.Centroid)}
	}
	printTable([]string{"#", "step", "centroid after"}, rows)
}

func fmtVec(v [3]float64) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
