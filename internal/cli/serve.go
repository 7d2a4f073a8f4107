package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tableau/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the consistency checker over HTTP",
		Long: `Serve the consistency checker over HTTP.

Endpoints:
  POST /v1/check    body: knowledge base TOML; query: all, semantic, backjump, blocking, max_branches
  POST /v1/render   as check, plus format (svg, dot, json), detailed, retired
  GET  /v1/health
  GET  /v1/version

Results share the CLI cache; set ` + envRedisURL + ` to share them between
instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, c.Logger, server.WithTimeout(timeout))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "per-request time limit (0 = none)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
