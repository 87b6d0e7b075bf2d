// Package ast holds the arena-allocated syntax tree produced by the parser.
//
// Nodes are addressed by NodeIndex and never by pointer. Node 0 is always the
// root of the tree.
package ast

import (
	"strings"

	"github.com/dhamidi/ziggurat/syntax/recovery"
	"github.com/dhamidi/ziggurat/syntax/token"
)

type Tag int

const (
	// Invalid stands in for a region the parser could not make sense of.
	Invalid Tag = iota

	Root

	// Declarations
	ContainerDecl
	ContainerField
	FnDecl
	Param
	VarDecl
	TestDecl
	ComptimeBlock

	// Statements
	Block
	ExprStmt
	Assign
	If
	While
	For
	Return
	Break
	Continue
	Defer
	Switch
	SwitchProng

	// Expressions
	Binary
	Unary
	Call
	FieldAccess
	Index
	Paren
	Identifier
	Literal
	BuiltinCall
	ArrayInit
	StructInit
	StructInitField
	EnumLiteral
	Unwrap
	Range

	// Types
	PointerType
	OptionalType
	SliceType
	ArrayType
	ErrorUnionType
)

var tagNames = map[Tag]string{
	Invalid:         "Invalid",
	Root:            "Root",
	ContainerDecl:   "ContainerDecl",
	ContainerField:  "ContainerField",
	FnDecl:          "FnDecl",
	Param:           "Param",
	VarDecl:         "VarDecl",
	TestDecl:        "TestDecl",
	ComptimeBlock:   "ComptimeBlock",
	Block:           "Block",
	ExprStmt:        "ExprStmt",
	Assign:          "Assign",
	If:              "If",
	While:           "While",
	For:             "For",
	Return:          "Return",
	Break:           "Break",
	Continue:        "Continue",
	Defer:           "Defer",
	Switch:          "Switch",
	SwitchProng:     "SwitchProng",
	Binary:          "Binary",
	Unary:           "Unary",
	Call:            "Call",
	FieldAccess:     "FieldAccess",
	Index:           "Index",
	Paren:           "Paren",
	Identifier:      "Identifier",
	Literal:         "Literal",
	BuiltinCall:     "BuiltinCall",
	ArrayInit:       "ArrayInit",
	StructInit:      "StructInit",
	StructInitField: "StructInitField",
	EnumLiteral:     "EnumLiteral",
	Unwrap:          "Unwrap",
	Range:           "Range",
	PointerType:     "PointerType",
	OptionalType:    "OptionalType",
	SliceType:       "SliceType",
	ArrayType:       "ArrayType",
	ErrorUnionType:  "ErrorUnionType",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Unknown"
}

// NodeIndex addresses a node inside Tree.Nodes.
type NodeIndex int

// NoToken marks a node without a main token.
const NoToken = -1

type Node struct {
	Tag      Tag
	Token    int // index into Tree.Tokens, or NoToken
	Children []NodeIndex
}

type Tree struct {
	Source      []byte
	Tokens      []token.Token
	Nodes       []Node
	Diagnostics []recovery.Diagnostic

	// Cancelled is set when the parse stopped early because its
	// cancellation flag was raised.
	Cancelled bool
}

// NewTree returns a tree whose node 0 is an empty root.
func NewTree(source []byte, tokens []token.Token) *Tree {
	t := &Tree{
		Source: source,
		Tokens: tokens,
	}
	t.Add(Root, NoToken)
	return t
}

const RootIndex NodeIndex = 0

func (t *Tree) Add(tag Tag, tok int, children ...NodeIndex) NodeIndex {
	t.Nodes = append(t.Nodes, Node{Tag: tag, Token: tok, Children: children})
	return NodeIndex(len(t.Nodes) - 1)
}

func (t *Tree) AddChild(parent, child NodeIndex) {
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, child)
}

func (t *Tree) Node(i NodeIndex) *Node {
	return &t.Nodes[i]
}

func (t *Tree) Children(i NodeIndex) []NodeIndex {
	return t.Nodes[i].Children
}

// ValidChildren returns the children of i that are not Invalid placeholders.
func (t *Tree) ValidChildren(i NodeIndex) []NodeIndex {
	var result []NodeIndex
	for _, child := range t.Nodes[i].Children {
		if t.Nodes[child].Tag != Invalid {
			result = append(result, child)
		}
	}
	return result
}

func (t *Tree) ChildrenOfTag(i NodeIndex, tag Tag) []NodeIndex {
	var result []NodeIndex
	for _, child := range t.Nodes[i].Children {
		if t.Nodes[child].Tag == tag {
			result = append(result, child)
		}
	}
	return result
}

// HasInvalid reports whether any node reachable from the root is an
// Invalid placeholder. Consumers use it to decide whether a tree may be
// reused across edits.
func (t *Tree) HasInvalid() bool {
	return t.containsInvalid(RootIndex)
}

func (t *Tree) containsInvalid(i NodeIndex) bool {
	if t.Nodes[i].Tag == Invalid {
		return true
	}
	for _, child := range t.Nodes[i].Children {
		if t.containsInvalid(child) {
			return true
		}
	}
	return false
}

func (t *Tree) TokenLiteral(i NodeIndex) string {
	tok := t.Nodes[i].Token
	if tok == NoToken || tok >= len(t.Tokens) {
		return ""
	}
	return t.Tokens[tok].Literal
}

func (t *Tree) String() string {
	var sb strings.Builder
	t.writeIndent(&sb, RootIndex, 0)
	return sb.String()
}

func (t *Tree) writeIndent(sb *strings.Builder, i NodeIndex, indent int) {
	sb.WriteString(strings.Repeat("  ", indent))
	sb.WriteString(t.Nodes[i].Tag.String())
	if lit := t.TokenLiteral(i); lit != "" {
		sb.WriteString(" ")
		sb.WriteString(lit)
	}
	sb.WriteString("\n")
	for _, child := range t.Nodes[i].Children {
		t.writeIndent(sb, child, indent+1)
	}
}
