package recovery

import "github.com/dhamidi/ziggurat/syntax/token"

// Rule describes where a production of one Kind may resume.
type Rule struct {
	// Patterns are tried in order at every candidate position. A pattern
	// matches when the tags starting at the position equal it exactly.
	Patterns [][]token.Tag

	// MinDistance is the smallest accepted offset from the failing token.
	MinDistance int

	// RequireBalance rejects candidates while the tokens skipped so far
	// leave a delimiter open or over-closed.
	RequireBalance bool

	// Nest lists the tags that open a nested construct. Candidates inside
	// such a construct belong to it and are skipped.
	Nest []token.Tag

	// Validate, when set, has the final say on an otherwise accepted
	// candidate.
	Validate func(tokens []token.Token, i int, frame Frame) bool
}

// Table maps every Kind to its synchronization rule. It is the only place
// where grammar knowledge enters the engine.
var Table = map[Kind]Rule{
	ContainerMembers: {
		Patterns: [][]token.Tag{
			{token.KeywordPub},
			{token.KeywordConst},
			{token.KeywordVar},
			{token.KeywordFn},
			{token.KeywordTest},
			{token.KeywordComptime},
			{token.Identifier, token.Colon},
			{token.RBrace},
		},
		Nest: []token.Tag{token.LBrace},
	},
	ContainerField: {
		Patterns: [][]token.Tag{
			{token.Comma},
			{token.RBrace},
		},
		RequireBalance: true,
		Nest:           []token.Tag{token.LBrace},
	},
	FnDecl: {
		Patterns: [][]token.Tag{
			{token.LBrace},
			{token.Semicolon},
		},
	},
	VarDecl: {
		Patterns: [][]token.Tag{
			{token.Equal},
			{token.Semicolon},
		},
		RequireBalance: true,
	},
	TestDecl: {
		Patterns: [][]token.Tag{
			{token.LBrace},
		},
	},
	BlockStmt: {
		Patterns: [][]token.Tag{
			{token.KeywordConst},
			{token.KeywordVar},
			{token.KeywordIf},
			{token.KeywordWhile},
			{token.KeywordFor},
			{token.KeywordSwitch},
			{token.KeywordReturn},
			{token.KeywordBreak},
			{token.KeywordContinue},
			{token.KeywordDefer},
			{token.Identifier, token.Equal},
			{token.Identifier, token.LParen},
			{token.RBrace},
		},
		Nest: []token.Tag{token.LBrace},
	},
	IfStmt: {
		Patterns: [][]token.Tag{
			{token.LBrace},
			{token.KeywordElse},
		},
	},
	WhileStmt: {
		Patterns: [][]token.Tag{
			{token.LBrace},
		},
	},
	ForStmt: {
		Patterns: [][]token.Tag{
			{token.Pipe, token.Identifier, token.Pipe},
			{token.LBrace},
		},
	},
	SwitchExpr: {
		Patterns: [][]token.Tag{
			{token.KeywordElse, token.FatArrow},
			{token.Identifier, token.FatArrow},
			{token.IntLiteral, token.FatArrow},
			{token.CharLiteral, token.FatArrow},
			{token.StringLiteral, token.FatArrow},
			{token.Period, token.Identifier, token.FatArrow},
			{token.RBrace},
		},
		MinDistance: 1,
		Nest:        []token.Tag{token.LBrace},
		Validate:    notDedented,
	},
	Expr: {
		Patterns: [][]token.Tag{
			{token.Semicolon},
			{token.Comma},
			{token.RParen},
			{token.RBracket},
			{token.RBrace},
			{token.FatArrow},
		},
		RequireBalance: true,
	},
	TypeExpr: {
		Patterns: [][]token.Tag{
			{token.Equal},
			{token.Comma},
			{token.RParen},
			{token.Semicolon},
			{token.LBrace},
			{token.RBrace},
		},
		RequireBalance: true,
	},
}

// notDedented rejects tokens on lines indented less than the line that
// opened the frame.
func notDedented(tokens []token.Token, i int, frame Frame) bool {
	return tokens[i].Indent >= frame.Indent
}

func (r Rule) nests(tag token.Tag) bool {
	for _, t := range r.Nest {
		if t == tag {
			return true
		}
	}
	return false
}

func (r Rule) match(tokens []token.Token, i int) bool {
	for _, pattern := range r.Patterns {
		if matchAt(tokens, i, pattern) {
			return true
		}
	}
	return false
}

func matchAt(tokens []token.Token, i int, pattern []token.Tag) bool {
	if len(pattern) == 0 || i+len(pattern) > len(tokens) {
		return false
	}
	for j, tag := range pattern {
		if tokens[i+j].Tag != tag {
			return false
		}
	}
	return true
}
