package main

import (
	"fmt"

	"github.com/dhamidi/ziggurat/syntax/token"
	"github.com/spf13/cobra"
)

func newTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [file]",
		Short: "Dump the token stream with line, column and indentation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, source, err := readSource(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, tok := range token.Tokenize(source) {
				fmt.Fprintf(out, "%4d %4d:%-3d indent=%-2d %-12s %q\n",
					i, tok.Line, tok.Column, tok.Indent, tok.Tag, tok.Literal)
			}
			return nil
		},
	}
}
