package parser

import (
	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/recovery"
	"github.com/dhamidi/ziggurat/syntax/token"
)

// parseContainerMembers appends declarations and fields to parent until
// closer. At file level closer is EOF; inside struct, enum and union
// bodies it is the closing brace, which is left for the caller.
func (p *Parser) parseContainerMembers(parent ast.NodeIndex, closer token.Tag) error {
	defer p.enter(recovery.ContainerMembers)()

	for {
		if p.cancelRequested() {
			return errCancelled
		}
		if p.check(closer) || p.check(token.EOF) {
			return nil
		}
		if closer == token.EOF && p.check(token.RBrace) {
			p.engine.Report(recovery.CodeUnexpectedToken, recovery.SeverityError, p.pos, "unmatched }")
			p.advance()
			continue
		}

		member, err := p.parseMember()
		if err != nil {
			if rerr := p.resync(err); rerr != nil {
				p.tree.AddChild(parent, p.placeholder(member))
				return rerr
			}
			p.tree.AddChild(parent, p.invalid())
			continue
		}
		p.tree.AddChild(parent, member)
	}
}

func (p *Parser) parseMember() (ast.NodeIndex, error) {
	if p.check(token.KeywordPub) {
		p.advance()
		switch p.peek().Tag {
		case token.KeywordConst, token.KeywordVar:
			return p.parseVarDecl()
		case token.KeywordFn:
			return p.parseFnDecl()
		}
		return p.invalid(), p.errExpected(token.KeywordConst, token.KeywordVar, token.KeywordFn)
	}

	switch p.peek().Tag {
	case token.KeywordConst, token.KeywordVar:
		return p.parseVarDecl()
	case token.KeywordFn:
		return p.parseFnDecl()
	case token.KeywordTest:
		return p.parseTestDecl()
	case token.KeywordComptime:
		comptime := p.advance()
		body, err := p.parseBlock()
		return p.tree.Add(ast.ComptimeBlock, comptime, body), err
	case token.Identifier:
		return p.parseContainerField()
	}
	return p.invalid(), p.errUnexpected("declaration")
}

// parseContainerDecl parses struct, enum and union bodies.
func (p *Parser) parseContainerDecl() (ast.NodeIndex, error) {
	node := p.tree.Add(ast.ContainerDecl, p.advance())
	if _, err := p.expect(token.LBrace); err != nil {
		return node, err
	}
	if err := p.parseContainerMembers(node, token.RBrace); err != nil {
		return node, err
	}
	p.closeWith(token.RBrace)
	return node, nil
}

// parseContainerField parses
//
//	name: Type [= default]
//
// and the separating comma. A missing comma before the next member is
// left to the enclosing member loop.
func (p *Parser) parseContainerField() (ast.NodeIndex, error) {
	defer p.enter(recovery.ContainerField)()

	node := p.tree.Add(ast.ContainerField, p.pos)
	if err := p.parseFieldHeader(node); err != nil {
		if rerr := p.resync(err); rerr != nil {
			return node, rerr
		}
		p.tree.AddChild(node, p.invalid())
	}

	if p.check(token.Comma) {
		p.advance()
		return node, nil
	}
	if p.match(token.RBrace, token.EOF) {
		return node, nil
	}
	return node, p.errExpected(token.Comma, token.RBrace)
}

func (p *Parser) parseFieldHeader(node ast.NodeIndex) error {
	if _, err := p.expect(token.Identifier); err != nil {
		return err
	}
	if !p.match(token.Colon, token.Equal, token.Comma, token.RBrace, token.EOF) {
		return p.errExpected(token.Colon)
	}
	if p.check(token.Colon) {
		p.advance()
		typ, err := p.parseType()
		p.tree.AddChild(node, typ)
		if err != nil {
			return err
		}
	}
	if p.check(token.Equal) {
		p.advance()
		value, err := p.parseExpr()
		p.tree.AddChild(node, value)
		if err != nil {
			return err
		}
	}
	return nil
}

// parseVarDecl parses
//
//	const name [: Type] [= value];
//
// Failures in the header resume at the initializer or the semicolon. A
// missing semicolon is returned to the caller.
func (p *Parser) parseVarDecl() (ast.NodeIndex, error) {
	defer p.enter(recovery.VarDecl)()

	node := p.tree.Add(ast.VarDecl, p.advance())
	if err := p.parseVarHeader(node); err != nil {
		if rerr := p.resync(err); rerr != nil {
			return node, rerr
		}
		p.tree.AddChild(node, p.invalid())
	}

	if p.check(token.Equal) {
		p.advance()
		value, err := p.parseExpr()
		p.tree.AddChild(node, value)
		if err != nil {
			return node, err
		}
	}

	_, err := p.expect(token.Semicolon)
	return node, err
}

func (p *Parser) parseVarHeader(node ast.NodeIndex) error {
	name, err := p.expect(token.Identifier)
	if err != nil {
		return err
	}
	p.tree.AddChild(node, p.tree.Add(ast.Identifier, name))

	if p.check(token.Colon) {
		p.advance()
		typ, err := p.parseType()
		p.tree.AddChild(node, typ)
		if err != nil {
			return err
		}
	}

	if !p.match(token.Equal, token.Semicolon) {
		return p.errExpected(token.Equal, token.Semicolon)
	}
	return nil
}

// parseFnDecl parses
//
//	fn name(params) ReturnType { ... }
//
// or a prototype ending in a semicolon.
func (p *Parser) parseFnDecl() (ast.NodeIndex, error) {
	defer p.enter(recovery.FnDecl)()

	node := p.tree.Add(ast.FnDecl, p.advance())
	if err := p.parseFnHeader(node); err != nil {
		if rerr := p.resync(err); rerr != nil {
			return node, rerr
		}
		p.tree.AddChild(node, p.invalid())
	}

	if p.check(token.Semicolon) {
		p.advance()
		return node, nil
	}
	body, err := p.parseBlock()
	p.tree.AddChild(node, body)
	return node, err
}

func (p *Parser) parseFnHeader(node ast.NodeIndex) error {
	name, err := p.expect(token.Identifier)
	if err != nil {
		return err
	}
	p.tree.AddChild(node, p.tree.Add(ast.Identifier, name))

	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	for !p.match(token.RParen, token.EOF) {
		param, err := p.parseParam()
		p.tree.AddChild(node, param)
		if err != nil {
			return err
		}
		if !p.check(token.Comma) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}

	ret, err := p.parseType()
	p.tree.AddChild(node, ret)
	if err != nil {
		return err
	}

	if !p.match(token.LBrace, token.Semicolon) {
		return p.errExpected(token.LBrace, token.Semicolon)
	}
	return nil
}

func (p *Parser) parseParam() (ast.NodeIndex, error) {
	if p.check(token.KeywordComptime) {
		p.advance()
	}
	name, err := p.expect(token.Identifier)
	if err != nil {
		return p.invalid(), err
	}
	node := p.tree.Add(ast.Param, name)
	if _, err := p.expect(token.Colon); err != nil {
		return node, err
	}
	typ, err := p.parseType()
	p.tree.AddChild(node, typ)
	return node, err
}

// parseTestDecl parses
//
//	test "name" { ... }
func (p *Parser) parseTestDecl() (ast.NodeIndex, error) {
	defer p.enter(recovery.TestDecl)()

	node := p.tree.Add(ast.TestDecl, p.advance())
	if p.match(token.StringLiteral, token.Identifier) {
		p.tree.AddChild(node, p.tree.Add(ast.Literal, p.advance()))
	}
	if !p.check(token.LBrace) {
		err := p.fail(recovery.CodeExpectedToken, "expected test body, found %s", describe(p.peek()))
		if rerr := p.resync(err); rerr != nil {
			return node, rerr
		}
	}

	body, err := p.parseBlock()
	p.tree.AddChild(node, body)
	return node, err
}
