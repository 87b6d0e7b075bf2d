package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dhamidi/ziggurat/format"
	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/parser"
	"github.com/dhamidi/ziggurat/telemetry"
	"github.com/spf13/cobra"
)

func newParseCmd(a *app) *cobra.Command {
	var outputFormat string
	var mode string

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a source file and print its diagnostics or tree",
		Long: `Parse a source file and print the result.

If no file is provided, reads source from stdin.

The --mode flag selects the entry point: a whole file, a single braced
block, or a single expression.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat == "" {
				outputFormat = a.config.Check.Format
			}

			filename, source, err := readSource(args)
			if err != nil {
				return err
			}

			encoder, err := format.NewEncoder(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			p := parser.New(source, parser.WithFile(filename))
			start := time.Now()
			tree, parseErr := parseWithMode(p, mode)
			a.metrics().RecordParse(cmd.Context(), telemetry.Parse{
				Source:   "parse",
				Stats:    p.Stats(),
				Failed:   parseErr != nil,
				Duration: time.Since(start),
			})
			if tree == nil {
				return parseErr
			}

			if err := encoder.Encode(filename, tree); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return parseErr
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format ("+strings.Join(format.Names, ", ")+"), defaults to check.format")
	cmd.Flags().StringVarP(&mode, "mode", "m", "file", "entry point (file, block, expr)")

	return cmd
}

func parseWithMode(p *parser.Parser, mode string) (*ast.Tree, error) {
	switch mode {
	case "file":
		return p.ParseFile()
	case "block":
		return p.ParseBlock()
	case "expr":
		return p.ParseExpression()
	}
	return nil, fmt.Errorf("unknown mode: %s", mode)
}

// readSource reads the single file argument, or stdin when there is none.
func readSource(args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", nil, fmt.Errorf("read stdin: %w", err)
		}
		return "<stdin>", source, nil
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		return "", nil, fmt.Errorf("read file: %w", err)
	}
	return args[0], source, nil
}
