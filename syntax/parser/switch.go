package parser

import (
	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/recovery"
	"github.com/dhamidi/ziggurat/syntax/token"
)

// parseSwitch parses
//
//	switch (operand) {
//	    a, b => x,
//	    c..d => |v| y,
//	    else => z,
//	}
//
// The header must be well formed; prong failures are recovered inside the
// switch. The frame is pushed at the switch keyword so that prong sync
// points dedented below it are rejected.
func (p *Parser) parseSwitch() (ast.NodeIndex, error) {
	start := p.advance()
	node := p.tree.Add(ast.Switch, start)

	if _, err := p.expect(token.LParen); err != nil {
		return node, err
	}
	operand, err := p.parseExpr()
	p.tree.AddChild(node, operand)
	if err != nil {
		return node, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return node, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return node, err
	}

	defer p.engine.Enter(recovery.SwitchExpr, start)()

	seenElse := false
	for {
		if p.cancelRequested() {
			return node, errCancelled
		}
		if p.match(token.RBrace, token.EOF) {
			break
		}

		prong, err := p.parseProng(&seenElse)
		if err != nil {
			if rerr := p.resync(err); rerr != nil {
				p.tree.AddChild(node, p.placeholder(prong))
				return node, rerr
			}
			p.tree.AddChild(node, p.invalid())
			continue
		}
		p.tree.AddChild(node, prong)
	}

	p.closeWith(token.RBrace)
	return node, nil
}

func (p *Parser) parseProng(seenElse *bool) (ast.NodeIndex, error) {
	node := p.tree.Add(ast.SwitchProng, p.pos)

	if p.check(token.KeywordElse) {
		if *seenElse {
			return node, p.fail(recovery.CodeDuplicateElse, "duplicate else prong")
		}
		*seenElse = true
		p.advance()
	} else {
		for {
			item, err := p.parseRange()
			p.tree.AddChild(node, item)
			if err != nil {
				return node, err
			}
			if !p.check(token.Comma) || p.peekN(1).Tag == token.FatArrow {
				break
			}
			p.advance()
		}
		if p.check(token.Comma) {
			p.advance()
		}
	}

	arrow, err := p.expect(token.FatArrow)
	if err != nil {
		return node, err
	}
	p.tree.Node(node).Token = arrow

	if err := p.parseCapture(node); err != nil {
		return node, err
	}

	var body ast.NodeIndex
	if p.check(token.LBrace) {
		body, err = p.parseBlock()
	} else {
		body, err = p.parseExpr()
	}
	p.tree.AddChild(node, body)
	if err != nil {
		return node, err
	}

	if p.check(token.Comma) {
		p.advance()
		return node, nil
	}
	if !p.match(token.RBrace, token.EOF) {
		return node, p.errExpected(token.Comma, token.RBrace)
	}
	return node, nil
}
