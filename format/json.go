package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/ziggurat/syntax/ast"
	"gopkg.in/yaml.v3"
)

type JSONEncoder struct {
	w    io.Writer
	file string
	tree *ast.Tree
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(file string, tree *ast.Tree) error {
	e.file = file
	e.tree = tree
	return write(e.w, e)
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	data, err := json.MarshalIndent(e.report(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

type report struct {
	File        string   `json:"file" yaml:"file"`
	Invalid     bool     `json:"invalid" yaml:"invalid"`
	Cancelled   bool     `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	Diagnostics []Record `json:"diagnostics" yaml:"diagnostics"`
}

func (e *JSONEncoder) report() report {
	return newReport(e.file, e.tree)
}

func newReport(file string, tree *ast.Tree) report {
	return report{
		File:        file,
		Invalid:     tree.HasInvalid(),
		Cancelled:   tree.Cancelled,
		Diagnostics: Records(file, tree),
	}
}

type YAMLEncoder struct {
	w    io.Writer
	file string
	tree *ast.Tree
}

func NewYAMLEncoder(w io.Writer) *YAMLEncoder {
	return &YAMLEncoder{w: w}
}

func (e *YAMLEncoder) Encode(file string, tree *ast.Tree) error {
	e.file = file
	e.tree = tree
	return write(e.w, e)
}

func (e *YAMLEncoder) MarshalText() ([]byte, error) {
	return yaml.Marshal(newReport(e.file, e.tree))
}
