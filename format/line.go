package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/muesli/termenv"
)

// LineEncoder writes one diagnostic per line in the
//
//	file:line:col: severity: message [context depth N]
//
// form understood by editors and grep. The severity is colored when w is a
// terminal that supports it.
type LineEncoder struct {
	w    io.Writer
	out  *termenv.Output
	file string
	tree *ast.Tree
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w, out: termenv.NewOutput(w)}
}

func (e *LineEncoder) Encode(file string, tree *ast.Tree) error {
	e.file = file
	e.tree = tree
	return write(e.w, e)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for _, r := range Records(e.file, e.tree) {
		fmt.Fprintf(&sb, "%s:%d:%d: %s: %s", r.File, r.Line, r.Column, e.severity(r.Severity), r.Message)
		if r.Context != "" {
			fmt.Fprintf(&sb, " [%s depth %d]", r.Context, r.Depth)
		}
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}

func (e *LineEncoder) severity(s string) string {
	if e.out == nil {
		return s
	}
	style := e.out.String(s).Bold()
	switch s {
	case "error":
		style = style.Foreground(e.out.Color("1"))
	case "warning":
		style = style.Foreground(e.out.Color("3"))
	}
	return style.String()
}

// TreeEncoder writes the indented tree dump followed by the diagnostics.
type TreeEncoder struct {
	w    io.Writer
	file string
	tree *ast.Tree
}

func NewTreeEncoder(w io.Writer) *TreeEncoder {
	return &TreeEncoder{w: w}
}

func (e *TreeEncoder) Encode(file string, tree *ast.Tree) error {
	e.file = file
	e.tree = tree
	return write(e.w, e)
}

func (e *TreeEncoder) MarshalText() ([]byte, error) {
	diags, err := (&LineEncoder{out: termenv.NewOutput(e.w), file: e.file, tree: e.tree}).MarshalText()
	if err != nil {
		return nil, err
	}
	return append([]byte(e.tree.String()), diags...), nil
}
