package parser

import (
	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/recovery"
	"github.com/dhamidi/ziggurat/syntax/token"
)

// parseBlock parses a braced statement list. Statement failures are
// recovered inside the block; only a failure no sync point can absorb is
// returned.
func (p *Parser) parseBlock() (ast.NodeIndex, error) {
	lbrace, err := p.expect(token.LBrace)
	if err != nil {
		return p.invalid(), err
	}
	node := p.tree.Add(ast.Block, lbrace)

	defer p.enter(recovery.BlockStmt)()

	for {
		if p.cancelRequested() {
			return node, errCancelled
		}
		if p.match(token.RBrace, token.EOF) {
			break
		}

		stmt, err := p.parseStatement()
		if err != nil {
			if rerr := p.resync(err); rerr != nil {
				p.tree.AddChild(node, p.placeholder(stmt))
				return node, rerr
			}
			p.tree.AddChild(node, p.invalid())
			continue
		}
		p.tree.AddChild(node, stmt)
	}

	p.closeWith(token.RBrace)
	return node, nil
}

func (p *Parser) parseStatement() (ast.NodeIndex, error) {
	switch p.peek().Tag {
	case token.KeywordConst, token.KeywordVar:
		return p.parseVarDecl()
	case token.KeywordIf:
		return p.parseIf()
	case token.KeywordWhile:
		return p.parseWhile()
	case token.KeywordFor:
		return p.parseFor()
	case token.KeywordSwitch:
		node, err := p.parseSwitch()
		if err == nil && p.check(token.Semicolon) {
			p.advance()
		}
		return node, err
	case token.LBrace:
		return p.parseBlock()
	case token.KeywordComptime:
		comptime := p.advance()
		body, err := p.parseBlock()
		return p.tree.Add(ast.ComptimeBlock, comptime, body), err
	case token.KeywordReturn:
		node := p.tree.Add(ast.Return, p.advance())
		return p.parseOptionalOperand(node)
	case token.KeywordBreak:
		node := p.tree.Add(ast.Break, p.advance())
		if err := p.parseLabel(node); err != nil {
			return node, err
		}
		return p.parseOptionalOperand(node)
	case token.KeywordContinue:
		node := p.tree.Add(ast.Continue, p.advance())
		if err := p.parseLabel(node); err != nil {
			return node, err
		}
		_, err := p.expect(token.Semicolon)
		return node, err
	case token.KeywordDefer:
		node := p.tree.Add(ast.Defer, p.advance())
		if p.check(token.LBrace) {
			body, err := p.parseBlock()
			p.tree.AddChild(node, body)
			return node, err
		}
		return p.parseOptionalOperand(node)
	}

	return p.parseExprStatement()
}

// parseOptionalOperand parses "[expr] ;" after return, break and defer.
func (p *Parser) parseOptionalOperand(node ast.NodeIndex) (ast.NodeIndex, error) {
	if !p.check(token.Semicolon) {
		value, err := p.parseExpr()
		p.tree.AddChild(node, value)
		if err != nil {
			return node, err
		}
	}
	_, err := p.expect(token.Semicolon)
	return node, err
}

func (p *Parser) parseLabel(node ast.NodeIndex) error {
	if !p.check(token.Colon) {
		return nil
	}
	p.advance()
	label, err := p.expect(token.Identifier)
	if err != nil {
		return err
	}
	p.tree.AddChild(node, p.tree.Add(ast.Identifier, label))
	return nil
}

// parseExprStatement parses "expr ;" and "target = value ;".
func (p *Parser) parseExprStatement() (ast.NodeIndex, error) {
	start := p.pos
	lhs, err := p.parseExpr()
	if err != nil {
		return lhs, err
	}

	node := p.tree.Add(ast.ExprStmt, start, lhs)
	if p.check(token.Equal) {
		p.tree.Node(node).Tag = ast.Assign
		p.tree.Node(node).Token = p.advance()
		rhs, err := p.parseExpr()
		p.tree.AddChild(node, rhs)
		if err != nil {
			return node, err
		}
	}

	_, err = p.expect(token.Semicolon)
	return node, err
}

// parseIf parses
//
//	if (cond) [|capture|] body [else body]
//
// A malformed header resumes at the body or at else.
func (p *Parser) parseIf() (ast.NodeIndex, error) {
	defer p.enter(recovery.IfStmt)()

	node := p.tree.Add(ast.If, p.advance())
	if err := p.parseCondition(node); err != nil {
		if rerr := p.resync(err); rerr != nil {
			return node, rerr
		}
		p.tree.AddChild(node, p.invalid())
	}

	if p.check(token.KeywordElse) {
		// The header swallowed the body.
		p.tree.AddChild(node, p.invalid())
	} else {
		body, err := p.parseBody()
		p.tree.AddChild(node, body)
		if err != nil {
			return node, err
		}
	}

	if !p.check(token.KeywordElse) {
		return node, nil
	}
	p.advance()

	var alt ast.NodeIndex
	var err error
	if p.check(token.KeywordIf) {
		alt, err = p.parseIf()
	} else {
		alt, err = p.parseBody()
	}
	p.tree.AddChild(node, alt)
	return node, err
}

// parseBody parses the body of if, else and while: a block or a single
// statement.
func (p *Parser) parseBody() (ast.NodeIndex, error) {
	if p.check(token.LBrace) {
		return p.parseBlock()
	}
	return p.parseStatement()
}

// parseCondition parses "(expr) [|capture|]".
func (p *Parser) parseCondition(node ast.NodeIndex) error {
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	cond, err := p.parseExpr()
	p.tree.AddChild(node, cond)
	if err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	return p.parseCapture(node)
}

// parseCapture parses an optional "|a, b|".
func (p *Parser) parseCapture(node ast.NodeIndex) error {
	if !p.check(token.Pipe) {
		return nil
	}
	p.advance()
	for {
		name, err := p.expect(token.Identifier)
		if err != nil {
			return err
		}
		p.tree.AddChild(node, p.tree.Add(ast.Identifier, name))
		if !p.check(token.Comma) {
			break
		}
		p.advance()
	}
	_, err := p.expect(token.Pipe)
	return err
}

// parseWhile parses
//
//	while (cond) [|capture|] [: (continue)] { ... }
func (p *Parser) parseWhile() (ast.NodeIndex, error) {
	defer p.enter(recovery.WhileStmt)()

	node := p.tree.Add(ast.While, p.advance())
	if err := p.parseWhileHeader(node); err != nil {
		if rerr := p.resync(err); rerr != nil {
			return node, rerr
		}
		p.tree.AddChild(node, p.invalid())
	}

	body, err := p.parseBlock()
	p.tree.AddChild(node, body)
	return node, err
}

func (p *Parser) parseWhileHeader(node ast.NodeIndex) error {
	if err := p.parseCondition(node); err != nil {
		return err
	}
	if p.check(token.Colon) {
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return err
		}
		cont, err := p.parseExpr()
		p.tree.AddChild(node, cont)
		if err != nil {
			return err
		}
		if p.check(token.Equal) {
			p.advance()
			value, err := p.parseExpr()
			p.tree.AddChild(node, value)
			if err != nil {
				return err
			}
		}
		if _, err := p.expect(token.RParen); err != nil {
			return err
		}
	}
	if !p.check(token.LBrace) {
		return p.errExpected(token.LBrace)
	}
	return nil
}

// parseFor parses
//
//	for (a, b) |x, y| { ... }
//
// A malformed operand list resumes at the capture or the body.
func (p *Parser) parseFor() (ast.NodeIndex, error) {
	defer p.enter(recovery.ForStmt)()

	node := p.tree.Add(ast.For, p.advance())
	if err := p.parseForHeader(node); err != nil {
		if rerr := p.resync(err); rerr != nil {
			return node, rerr
		}
		p.tree.AddChild(node, p.invalid())
		if err := p.parseCapture(node); err != nil {
			return node, err
		}
	}

	body, err := p.parseBlock()
	p.tree.AddChild(node, body)
	return node, err
}

func (p *Parser) parseForHeader(node ast.NodeIndex) error {
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	for {
		operand, err := p.parseRange()
		p.tree.AddChild(node, operand)
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
	if !p.check(token.Pipe) {
		return p.errExpected(token.Pipe)
	}
	if err := p.parseCapture(node); err != nil {
		return err
	}
	if !p.check(token.LBrace) {
		return p.errExpected(token.LBrace)
	}
	return nil
}
