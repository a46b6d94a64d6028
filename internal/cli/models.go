package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scadkit/pkg/pipeline"
	"github.com/matzehuels/scadkit/pkg/store"
)

// modelsCommand creates the models command group.
func (c *CLI) modelsCommand() *cobra.Command {
	var storeDir string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage saved models",
		Long: `Save evaluated scenes and list, show or delete them.

Models are kept in MongoDB when $SCADKIT_MONGO_URI is set and as JSON files
under the config directory otherwise.`,
	}
	cmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "model directory for the file store")

	cmd.AddCommand(c.modelsSaveCommand(&storeDir))
	cmd.AddCommand(c.modelsListCommand(&storeDir))
	cmd.AddCommand(c.modelsGetCommand(&storeDir))
	cmd.AddCommand(c.modelsDeleteCommand(&storeDir))
	return cmd
}

func (c *CLI) modelsSaveCommand(storeDir *string) *cobra.Command {
	var sf sceneFlags
	var name string

	cmd := &cobra.Command{
		Use:   "save [scene]",
		Short: "Evaluate a scene and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := sf.load(sceneArg(args))
			if err != nil {
				return err
			}
			pl, err := pipeline.Evaluate(ctx, s)
			if err != nil {
				return err
			}

			st, err := newStore(ctx, *storeDir)
			if err != nil {
				return err
			}
			defer st.Close()

			m := store.NewModel(s, pl, pipeline.SceneHash(s))
			if name != "" {
				m.Name = name
			}
			if err := st.Save(ctx, m); err != nil {
				return err
			}
			loggerFromContext(ctx).Debug("saved model", "id", m.ID, "scene_hash", m.SceneHash)

			printSuccess("Saved model %s", StyleNumber.Render(m.ID))
			printNextStep("Show it", fmt.Sprintf("%s models get %s", appName, m.ID))
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "model name (default: scene name)")
	return cmd
}

func (c *CLI) modelsListCommand(storeDir *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved models, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := newStore(ctx, *storeDir)
			if err != nil {
				return err
			}
			defer st.Close()

			models, err := st.List(ctx, store.ListOptions{Limit: limit})
			if err != nil {
				return err
			}
			if len(models) == 0 {
				printInfo("No saved models")
				return nil
			}

			rows := make([][]string, len(models))
			for i, m := range models {
				rows[i] = []string{m.ID, m.Name, m.Scene.Shape.Kind, fmtVec(m.Placement.Centroid), m.CreatedAt.Local().Format("2006-01-02 15:04")}
			}
			printTable([]string{"ID", "Name", "Shape", "Centroid", "Created"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", store.DefaultListLimit, "maximum number of models")
	return cmd
}

func (c *CLI) modelsGetCommand(storeDir *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a saved model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := newStore(ctx, *storeDir)
			if err != nil {
				return err
			}
			defer st.Close()

			m, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndentedJSON(cmd, m)
			}
			printKeyValue("id", m.ID)
			printKeyValue("name", m.Name)
			printKeyValue("created", m.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			printPlacement(m.Placement)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the model as JSON")
	return cmd
}

func (c *CLI) modelsDeleteCommand(storeDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := newStore(ctx, *storeDir)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted model %s", args[0])
			return nil
		},
	}
}
