package main

import (
	"github.com/dhamidi/ziggurat/codebase"
	"github.com/spf13/cobra"
)

func newLSPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := codebase.NewLSPServer(a.config.Server.Name, version,
				codebase.WithMetrics(a.metrics(), "lsp"))
			return server.RunStdio()
		},
	}
}
