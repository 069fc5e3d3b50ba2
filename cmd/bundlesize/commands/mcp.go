package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bundlesize/pkg/mcp"
	"github.com/Sumatoshi-tech/bundlesize/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server reads snapshots from the configured store and exposes:
  - size_diff: size report between two commits (json or markdown)
  - size_snapshot: stored file sizes of one commit`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, global, observability.ModeMCP)
			if err != nil {
				return err
			}

			defer func() {
				closeErr := a.Close(cmd.Context())
				if closeErr != nil {
					a.logger.Warn("observability shutdown failed", "error", closeErr)
				}
			}()

			red, redErr := observability.NewREDMetrics(a.providers.Meter)
			if redErr != nil {
				return redErr
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Store:         a.store,
				Keys:          a.pattern,
				RepositoryURL: a.cfg.RepositoryURL(),
				Logger:        a.logger,
				Metrics:       red,
				Tracer:        a.providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}
}
