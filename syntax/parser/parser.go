// Package parser is a recursive-descent parser for ziggurat sources that
// keeps producing a tree while the text is malformed.
//
// Every production that can fail returns an ast.NodeIndex together with an
// error. Productions register themselves with the recovery engine for the
// duration of their body and hand failures of their sub-parses to it; the
// engine decides whether the production may resume and where.
package parser

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/recovery"
	"github.com/dhamidi/ziggurat/syntax/token"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("ziggurat.parser")

// ErrUnrecoverable is wrapped by the error an entry point returns when a
// failure reached the top of the parse without any production being able
// to resume.
var ErrUnrecoverable = errors.New("unrecoverable syntax error")

// errCancelled is returned by every production once cancellation was
// observed. run turns it back into a nil error.
var errCancelled = errors.New("parse cancelled")

type Option func(*Parser)

func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

// WithCancel installs a flag that is polled between members and
// statements. Once it reads true the parse returns what it has built so
// far. The parser never writes the flag.
func WithCancel(flag *atomic.Bool) Option {
	return func(p *Parser) {
		p.cancel = flag
	}
}

type Parser struct {
	file      string
	cancel    *atomic.Bool
	source    []byte
	tokens    []token.Token
	pos       int
	tree      *ast.Tree
	engine    *recovery.Engine
	cancelled bool
}

// New lexes source and returns a parser ready for one of the Parse entry
// points.
func New(source []byte, opts ...Option) *Parser {
	p := &Parser{
		source: source,
		tokens: token.Tokenize(source),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parser) File() string {
	return p.file
}

func (p *Parser) Tokens() []token.Token {
	return p.tokens
}

// Diagnostics returns the diagnostics of the most recent parse in the
// order they were detected.
func (p *Parser) Diagnostics() []recovery.Diagnostic {
	if p.engine == nil {
		return nil
	}
	return p.engine.Diagnostics()
}

func (p *Parser) Stats() recovery.Stats {
	if p.engine == nil {
		return recovery.Stats{}
	}
	return p.engine.Stats()
}

// ParseFile parses the source as a sequence of container members.
func (p *Parser) ParseFile() (*ast.Tree, error) {
	return p.run(func() error {
		return p.parseContainerMembers(ast.RootIndex, token.EOF)
	})
}

// ParseBlock parses the source as a single braced block.
func (p *Parser) ParseBlock() (*ast.Tree, error) {
	return p.run(func() error {
		block, err := p.parseBlock()
		p.tree.AddChild(ast.RootIndex, block)
		return err
	})
}

// ParseExpression parses the source as a single expression.
func (p *Parser) ParseExpression() (*ast.Tree, error) {
	return p.run(func() error {
		expr, err := p.parseExpr()
		p.tree.AddChild(ast.RootIndex, expr)
		return err
	})
}

// run starts a fresh session over the token stream. Recovery state from
// earlier calls is discarded.
func (p *Parser) run(entry func() error) (*ast.Tree, error) {
	p.pos = 0
	p.cancelled = false
	p.tree = ast.NewTree(p.source, p.tokens)
	p.engine = recovery.NewEngine(p.tokens)

	err := entry()
	switch {
	case p.cancelled:
		err = nil
	case err != nil:
		p.engine.Report(recovery.CodeUnrecoverable, recovery.SeverityError, p.errorToken(err), err.Error())
		p.tree.AddChild(ast.RootIndex, p.invalid())
		err = fmt.Errorf("%w: %w", ErrUnrecoverable, err)
	case !p.check(token.EOF):
		p.engine.Report(recovery.CodeUnexpectedToken, recovery.SeverityError, p.pos,
			fmt.Sprintf("unexpected %s after end of input", p.peek()))
	}

	p.tree.Diagnostics = p.engine.Diagnostics()
	p.tree.Cancelled = p.cancelled

	stats := p.engine.Stats()
	log.Debugf("parsed %q: %d tokens, %d nodes, %d diagnostics, %d/%d recoveries",
		p.file, len(p.tokens), len(p.tree.Nodes), len(p.tree.Diagnostics), stats.Recovered, stats.Attempts)
	return p.tree, err
}

// cancelRequested reports whether the caller asked the parse to stop. It
// is only consulted between members, statements and switch prongs; the
// loop that sees it returns errCancelled.
func (p *Parser) cancelRequested() bool {
	if p.cancelled {
		return true
	}
	if p.cancel != nil && p.cancel.Load() {
		p.cancelled = true
	}
	return p.cancelled
}

// enter pushes a recovery frame for kind at the current token. Callers
// defer the returned function.
func (p *Parser) enter(kind recovery.Kind) func() {
	return p.engine.Enter(kind, p.pos)
}

// resync hands a failure to the recovery engine. On success the cursor is
// moved to the resumption point and nil is returned; otherwise the
// failure comes back unchanged. After cancellation nothing is recovered.
func (p *Parser) resync(err error) error {
	if p.cancelled {
		return errCancelled
	}
	sync, rerr := p.engine.Recover(p.pos, err)
	if rerr != nil {
		return rerr
	}
	p.pos = sync
	return nil
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekN(n int) token.Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

// advance consumes the current token and returns its index. EOF is never
// consumed.
func (p *Parser) advance() int {
	i := p.pos
	if p.peek().Tag != token.EOF {
		p.pos++
	}
	return i
}

func (p *Parser) check(tag token.Tag) bool {
	return p.peek().Tag == tag
}

func (p *Parser) match(tags ...token.Tag) bool {
	for _, tag := range tags {
		if p.check(tag) {
			return true
		}
	}
	return false
}

// expect consumes a token of the given tag and returns its index.
func (p *Parser) expect(tag token.Tag) (int, error) {
	if p.cancelled {
		return p.pos, errCancelled
	}
	if p.check(tag) {
		return p.advance(), nil
	}
	return p.pos, p.errExpected(tag)
}

// invalid adds a placeholder node at the current token.
func (p *Parser) invalid() ast.NodeIndex {
	return p.tree.Add(ast.Invalid, p.tokenIndex())
}

// placeholder stands in for a construct whose failure could not be
// recovered. A cancelled parse keeps the partial construct instead.
func (p *Parser) placeholder(partial ast.NodeIndex) ast.NodeIndex {
	if p.cancelled {
		return partial
	}
	return p.invalid()
}

// closeDelimited consumes the closer of a parenthesized, bracketed or
// braced expression under node. When it is missing the failure is
// recovered in the enclosing frame, and a resumption point on the closer
// itself is consumed here so the enclosing production never sees it.
func (p *Parser) closeDelimited(node ast.NodeIndex, tag token.Tag) error {
	_, err := p.expect(tag)
	if err == nil {
		return nil
	}
	if err := p.resync(err); err != nil {
		return err
	}
	p.tree.AddChild(node, p.invalid())
	if p.check(tag) {
		p.advance()
	}
	return nil
}

func (p *Parser) tokenIndex() int {
	if p.pos >= len(p.tokens) {
		return len(p.tokens) - 1
	}
	return p.pos
}

func (p *Parser) errorToken(err error) int {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Index
	}
	return p.tokenIndex()
}

// closeWith consumes the closing delimiter of a block, container or
// switch. A missing closer is only a warning.
func (p *Parser) closeWith(tag token.Tag) {
	if p.check(tag) {
		p.advance()
		return
	}
	if p.cancelled {
		return
	}
	p.engine.Report(recovery.CodeMissingDelimiter, recovery.SeverityWarning, p.tokenIndex(),
		fmt.Sprintf("expected %s, found %s", tag, p.peek()))
}
