package parser

import (
	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/recovery"
	"github.com/dhamidi/ziggurat/syntax/token"
)

// parseType parses a type expression. Like parseExpr it answers a
// recovered failure with an Invalid placeholder.
func (p *Parser) parseType() (ast.NodeIndex, error) {
	defer p.enter(recovery.TypeExpr)()

	node, err := p.parseTypeTerm()
	if err == nil {
		return node, nil
	}
	if rerr := p.resync(err); rerr != nil {
		return p.placeholder(node), rerr
	}
	return p.invalid(), nil
}

func (p *Parser) parseTypeTerm() (ast.NodeIndex, error) {
	switch p.peek().Tag {
	case token.Question:
		op := p.advance()
		elem, err := p.parseTypeTerm()
		return p.tree.Add(ast.OptionalType, op, elem), err

	case token.Bang:
		op := p.advance()
		elem, err := p.parseTypeTerm()
		return p.tree.Add(ast.ErrorUnionType, op, elem), err

	case token.Star:
		op := p.advance()
		if p.check(token.KeywordConst) {
			p.advance()
		}
		elem, err := p.parseTypeTerm()
		return p.tree.Add(ast.PointerType, op, elem), err

	case token.LBracket:
		lbracket := p.advance()
		if p.check(token.RBracket) {
			p.advance()
			if p.check(token.KeywordConst) {
				p.advance()
			}
			elem, err := p.parseTypeTerm()
			return p.tree.Add(ast.SliceType, lbracket, elem), err
		}
		node := p.tree.Add(ast.ArrayType, lbracket)
		length, err := p.parseExpr()
		p.tree.AddChild(node, length)
		if err != nil {
			return node, err
		}
		if _, err := p.expect(token.RBracket); err != nil {
			return node, err
		}
		elem, err := p.parseTypeTerm()
		p.tree.AddChild(node, elem)
		return node, err
	}

	node, err := p.parseTypeName()
	if err != nil || !p.check(token.Bang) {
		return node, err
	}
	// ErrorSet!Payload
	op := p.advance()
	payload, err := p.parseTypeTerm()
	return p.tree.Add(ast.ErrorUnionType, op, node, payload), err
}

func (p *Parser) parseTypeName() (ast.NodeIndex, error) {
	switch p.peek().Tag {
	case token.Identifier:
		node := p.tree.Add(ast.Identifier, p.advance())
		for p.check(token.Period) {
			dot := p.advance()
			name, err := p.expect(token.Identifier)
			if err != nil {
				return node, err
			}
			node = p.tree.Add(ast.FieldAccess, dot, node, p.tree.Add(ast.Identifier, name))
		}
		return node, nil

	case token.Builtin:
		name := p.tree.Add(ast.Identifier, p.advance())
		if !p.check(token.LParen) {
			return name, p.errExpected(token.LParen)
		}
		return p.parseCall(ast.BuiltinCall, name)

	case token.KeywordStruct, token.KeywordEnum, token.KeywordUnion:
		return p.parseContainerDecl()
	}

	return p.invalid(), p.errUnexpected("type")
}
