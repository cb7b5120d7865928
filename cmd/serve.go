package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentic-research/loom/internal/mcpserve"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve <location>",
		Short: "Serve a document's edit tools over MCP on stdio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open()
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ed, err := s.editor(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			srv := mcpserve.New(ed, version, mcpserve.WithStore(s.store), mcpserve.WithLogger(s.log))
			s.log.Info().Str("location", args[0]).Msg("serving MCP on stdio")
			return srv.ServeStdio()
		},
	}
}
