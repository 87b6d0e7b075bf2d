package ast

import "encoding/json"

type jsonNode struct {
	Tag      string      `json:"tag"`
	Span     *jsonSpan   `json:"span,omitempty"`
	Token    string      `json:"token,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`
}

type jsonSpan struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

type jsonTree struct {
	Root      *jsonNode `json:"root"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(&jsonTree{
		Root:      t.toJSON(RootIndex),
		Cancelled: t.Cancelled,
	})
}

func (t *Tree) toJSON(i NodeIndex) *jsonNode {
	n := t.Nodes[i]
	jn := &jsonNode{
		Tag: n.Tag.String(),
	}

	if n.Token != NoToken && n.Token < len(t.Tokens) {
		tok := t.Tokens[n.Token]
		jn.Token = tok.Literal
		jn.Span = &jsonSpan{Line: tok.Line, Column: tok.Column, Start: tok.Start, End: tok.End}
	}

	if len(n.Children) > 0 {
		jn.Children = make([]*jsonNode, len(n.Children))
		for j, child := range n.Children {
			jn.Children[j] = t.toJSON(child)
		}
	}

	return jn
}
