package parser

import (
	"fmt"
	"strings"

	"github.com/dhamidi/ziggurat/syntax/recovery"
	"github.com/dhamidi/ziggurat/syntax/token"
)

// Error is a grammar failure at a single token. It is handed to the
// recovery engine and, when nothing can resume, returned to the caller
// wrapped in ErrUnrecoverable.
type Error struct {
	Code     recovery.Code
	Index    int // token index
	Token    token.Token
	Expected []token.Tag
	Message  string
}

func (e *Error) Error() string {
	return e.Message
}

func (p *Parser) fail(code recovery.Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Index:   p.tokenIndex(),
		Token:   p.peek(),
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *Parser) errExpected(expected ...token.Tag) *Error {
	names := make([]string, len(expected))
	for i, tag := range expected {
		names[i] = tag.String()
	}
	code := recovery.CodeExpectedToken
	if p.check(token.Invalid) {
		code = recovery.CodeInvalidToken
	}
	e := p.fail(code, "expected %s, found %s", strings.Join(names, " or "), describe(p.peek()))
	e.Expected = expected
	return e
}

func (p *Parser) errUnexpected(what string) *Error {
	if p.check(token.Invalid) {
		return p.fail(recovery.CodeInvalidToken, "invalid token %q", p.peek().Literal)
	}
	return p.fail(recovery.CodeUnexpectedToken, "expected %s, found %s", what, describe(p.peek()))
}

func describe(tok token.Token) string {
	switch tok.Tag {
	case token.EOF:
		return "end of file"
	case token.Identifier:
		return fmt.Sprintf("identifier %s", tok.Literal)
	}
	return fmt.Sprintf("%q", tok.Literal)
}
