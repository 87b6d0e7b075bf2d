// Package format renders parse results for humans and tools.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/recovery"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(file string, tree *ast.Tree) error
}

// Names lists the encoders accepted by NewEncoder.
var Names = []string{"text", "json", "yaml", "ast", "tree"}

func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "text":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "yaml":
		return NewYAMLEncoder(w), nil
	case "ast":
		return NewASTJSONEncoder(w), nil
	case "tree":
		return NewTreeEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format %q", name)
}

// Record is the flattened form of a diagnostic shared by the JSON and YAML
// encoders.
type Record struct {
	File     string `json:"file" yaml:"file"`
	Line     int    `json:"line" yaml:"line"`
	Column   int    `json:"column" yaml:"column"`
	Severity string `json:"severity" yaml:"severity"`
	Code     string `json:"code" yaml:"code"`
	Message  string `json:"message" yaml:"message"`
	Context  string `json:"context,omitempty" yaml:"context,omitempty"`
	Depth    int    `json:"depth,omitempty" yaml:"depth,omitempty"`
	Skip     int    `json:"skip,omitempty" yaml:"skip,omitempty"`
}

func Records(file string, tree *ast.Tree) []Record {
	records := make([]Record, 0, len(tree.Diagnostics))
	for _, d := range tree.Diagnostics {
		records = append(records, NewRecord(file, tree, d))
	}
	return records
}

func NewRecord(file string, tree *ast.Tree, d recovery.Diagnostic) Record {
	r := Record{
		File:     file,
		Severity: d.Severity.String(),
		Code:     string(d.Code),
		Message:  d.Message,
		Skip:     d.Skip,
	}
	if d.Token >= 0 && d.Token < len(tree.Tokens) {
		tok := tree.Tokens[d.Token]
		r.Line = tok.Line
		r.Column = tok.Column
	}
	if d.Context != nil {
		r.Context = d.Context.Kind.String()
		r.Depth = d.Context.NestingLevel
	}
	return r
}

func write(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
