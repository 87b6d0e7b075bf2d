package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/ziggurat/syntax/ast"
)

// ASTJSONEncoder writes the syntax tree and its diagnostics as one JSON
// document.
type ASTJSONEncoder struct {
	w    io.Writer
	file string
	tree *ast.Tree
}

func NewASTJSONEncoder(w io.Writer) *ASTJSONEncoder {
	return &ASTJSONEncoder{w: w}
}

func (e *ASTJSONEncoder) Encode(file string, tree *ast.Tree) error {
	e.file = file
	e.tree = tree
	return write(e.w, e)
}

type astDocument struct {
	File        string    `json:"file"`
	Tree        *ast.Tree `json:"tree"`
	Diagnostics []Record  `json:"diagnostics,omitempty"`
}

func (e *ASTJSONEncoder) MarshalText() ([]byte, error) {
	data, err := json.MarshalIndent(astDocument{
		File:        e.file,
		Tree:        e.tree,
		Diagnostics: Records(e.file, e.tree),
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
