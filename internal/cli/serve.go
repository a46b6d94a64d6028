package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scadkit/internal/server"
	"github.com/matzehuels/scadkit/pkg/scad"
	"github.com/matzehuels/scadkit/pkg/store"
)

const defaultAddr = "127.0.0.1:8080"

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		noCache  bool
		noStore  bool
		storeDir string
		openscad string
		maxBody  int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the evaluation API over HTTP.

Results are cached in Redis when $SCADKIT_REDIS_URL is set and in the file
cache otherwise. Saved models go to MongoDB when $SCADKIT_MONGO_URI is set
and to the model directory otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			var st store.Store
			if !noStore {
				if st, err = newStore(ctx, storeDir); err != nil {
					return err
				}
				defer st.Close()
			}

			cfg := server.Config{
				Runner:       runner,
				Store:        st,
				Logger:       logger,
				MaxBodyBytes: maxBody,
			}
			if openscad != "" {
				cfg.Engine = scad.NewCLIEngine(openscad)
			}

			printInfo("Listening on http://%s", addr)
			err = server.New(cfg).ListenAndServe(ctx, addr)
			if errors.Is(err, context.Canceled) {
				printSuccess("Server stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the model routes")
	cmd.Flags().StringVar(&storeDir, "store-dir", "", "model directory for the file store")
	cmd.Flags().StringVar(&openscad, "openscad", "", "OpenSCAD binary (default $"+scad.EnvBinary+" or openscad)")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodyBytes, "maximum request body size in bytes")
	return cmd
}
