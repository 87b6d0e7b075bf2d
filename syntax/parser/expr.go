package parser

import (
	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/recovery"
	"github.com/dhamidi/ziggurat/syntax/token"
)

var binaryPrecedence = map[token.Tag]int{
	token.KeywordOr:    1,
	token.KeywordAnd:   2,
	token.EqualEqual:   3,
	token.BangEqual:    3,
	token.Less:         3,
	token.LessEqual:    3,
	token.Greater:      3,
	token.GreaterEqual: 3,
	token.Pipe:         4,
	token.Caret:        4,
	token.Ampersand:    4,
	token.Plus:         5,
	token.Minus:        5,
	token.Star:         6,
	token.Slash:        6,
	token.Percent:      6,
}

// parseExpr parses one expression. When the expression is malformed it
// tries to recover on its own; if that succeeds the caller gets an
// Invalid placeholder and no error, otherwise it gets the placeholder
// together with the failure.
func (p *Parser) parseExpr() (ast.NodeIndex, error) {
	defer p.enter(recovery.Expr)()

	node, err := p.parseBinary(1)
	if err == nil {
		return node, nil
	}
	if rerr := p.resync(err); rerr != nil {
		return p.placeholder(node), rerr
	}
	return p.invalid(), nil
}

// parseRange parses an expression optionally followed by ".. [end]".
func (p *Parser) parseRange() (ast.NodeIndex, error) {
	lo, err := p.parseExpr()
	if err != nil || !p.check(token.Ellipsis2) {
		return lo, err
	}
	node := p.tree.Add(ast.Range, p.advance(), lo)
	if p.match(token.RParen, token.Comma, token.FatArrow, token.RBracket) {
		return node, nil
	}
	hi, err := p.parseExpr()
	p.tree.AddChild(node, hi)
	return node, err
}

func (p *Parser) parseBinary(minPrec int) (ast.NodeIndex, error) {
	left, err := p.parseUnary()
	if err != nil {
		return left, err
	}

	for {
		prec, ok := binaryPrecedence[p.peek().Tag]
		if !ok || prec < minPrec {
			return left, nil
		}
		op := p.advance()
		right, err := p.parseBinary(prec + 1)
		left = p.tree.Add(ast.Binary, op, left, right)
		if err != nil {
			return left, err
		}
	}
}

func (p *Parser) parseUnary() (ast.NodeIndex, error) {
	switch p.peek().Tag {
	case token.Bang, token.Minus, token.Ampersand, token.KeywordTry:
		op := p.advance()
		operand, err := p.parseUnary()
		return p.tree.Add(ast.Unary, op, operand), err
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.NodeIndex, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return node, err
	}

	for {
		switch p.peek().Tag {
		case token.LParen:
			node, err = p.parseCall(ast.Call, node)
		case token.Period:
			dot := p.advance()
			name, nerr := p.expect(token.Identifier)
			if nerr != nil {
				return node, nerr
			}
			node = p.tree.Add(ast.FieldAccess, dot, node, p.tree.Add(ast.Identifier, name))
		case token.PeriodQuestion:
			node = p.tree.Add(ast.Unwrap, p.advance(), node)
		case token.LBracket:
			lbracket := p.advance()
			index, ierr := p.parseRange()
			node = p.tree.Add(ast.Index, lbracket, node, index)
			if ierr != nil {
				return node, ierr
			}
			err = p.closeDelimited(node, token.RBracket)
		default:
			return node, nil
		}
		if err != nil {
			return node, err
		}
	}
}

// parseCall parses a parenthesized argument list following callee.
func (p *Parser) parseCall(tag ast.Tag, callee ast.NodeIndex) (ast.NodeIndex, error) {
	node := p.tree.Add(tag, p.advance(), callee)
	for !p.match(token.RParen, token.EOF) {
		arg, err := p.parseExpr()
		p.tree.AddChild(node, arg)
		if err != nil {
			return node, err
		}
		if !p.check(token.Comma) {
			break
		}
		p.advance()
	}
	return node, p.closeDelimited(node, token.RParen)
}

func (p *Parser) parsePrimary() (ast.NodeIndex, error) {
	switch p.peek().Tag {
	case token.Identifier:
		return p.tree.Add(ast.Identifier, p.advance()), nil

	case token.IntLiteral, token.FloatLiteral, token.StringLiteral, token.CharLiteral,
		token.KeywordTrue, token.KeywordFalse, token.KeywordNull, token.KeywordUndefined:
		return p.tree.Add(ast.Literal, p.advance()), nil

	case token.Builtin:
		name := p.tree.Add(ast.Identifier, p.advance())
		if !p.check(token.LParen) {
			return name, p.errExpected(token.LParen)
		}
		return p.parseCall(ast.BuiltinCall, name)

	case token.LParen:
		node := p.tree.Add(ast.Paren, p.advance())
		inner, err := p.parseExpr()
		p.tree.AddChild(node, inner)
		if err != nil {
			return node, err
		}
		return node, p.closeDelimited(node, token.RParen)

	case token.LBracket:
		return p.parseArrayInit()

	case token.LBrace:
		return p.parseStructInit()

	case token.Period:
		dot := p.advance()
		name, err := p.expect(token.Identifier)
		if err != nil {
			return p.invalid(), err
		}
		return p.tree.Add(ast.EnumLiteral, dot, p.tree.Add(ast.Identifier, name)), nil

	case token.KeywordSwitch:
		return p.parseSwitch()

	case token.KeywordStruct, token.KeywordEnum, token.KeywordUnion:
		return p.parseContainerDecl()
	}

	return p.invalid(), p.errUnexpected("expression")
}

// parseArrayInit parses "[a, b, c]".
func (p *Parser) parseArrayInit() (ast.NodeIndex, error) {
	node := p.tree.Add(ast.ArrayInit, p.advance())
	for !p.match(token.RBracket, token.EOF) {
		elem, err := p.parseExpr()
		p.tree.AddChild(node, elem)
		if err != nil {
			return node, err
		}
		if !p.check(token.Comma) {
			break
		}
		p.advance()
	}
	return node, p.closeDelimited(node, token.RBracket)
}

// parseStructInit parses "{a: 1, b: 2}".
func (p *Parser) parseStructInit() (ast.NodeIndex, error) {
	node := p.tree.Add(ast.StructInit, p.advance())
	for !p.match(token.RBrace, token.EOF) {
		name, err := p.expect(token.Identifier)
		if err != nil {
			return node, err
		}
		field := p.tree.Add(ast.StructInitField, name)
		p.tree.AddChild(node, field)
		if _, err := p.expect(token.Colon); err != nil {
			return node, err
		}
		value, err := p.parseExpr()
		p.tree.AddChild(field, value)
		if err != nil {
			return node, err
		}
		if !p.check(token.Comma) {
			break
		}
		p.advance()
	}
	return node, p.closeDelimited(node, token.RBrace)
}
