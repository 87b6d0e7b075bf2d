package recovery

import (
	"github.com/dhamidi/ziggurat/syntax/token"
	"github.com/tliron/commonlog"
)

// MaxAttempts is the number of times recovery may be tried at a single
// token position.
const MaxAttempts = 3

var log = commonlog.GetLogger("ziggurat.recovery")

// Ledger counts recovery attempts per token position.
type Ledger struct {
	attempts map[int]int
}

// Attempt records one more attempt at pos. It reports false, and leaves the
// count untouched, once the budget for pos is spent.
func (l *Ledger) Attempt(pos int) (int, bool) {
	if l.attempts == nil {
		l.attempts = make(map[int]int)
	}
	n := l.attempts[pos] + 1
	if n > MaxAttempts {
		return l.attempts[pos], false
	}
	l.attempts[pos] = n
	return n, true
}

func (l *Ledger) Count(pos int) int {
	return l.attempts[pos]
}

// Max returns the highest attempt count of any position.
func (l *Ledger) Max() int {
	highest := 0
	for _, n := range l.attempts {
		if n > highest {
			highest = n
		}
	}
	return highest
}

type Stats struct {
	Attempts  int // calls to Recover
	Recovered int // calls that found a sync point
	Exhausted int // calls refused because the position's budget was spent
}

// Engine is the per-session recovery state. It is not safe for concurrent
// use; every parse owns its own Engine.
type Engine struct {
	tokens      []token.Token
	stack       Stack
	ledger      Ledger
	diagnostics []Diagnostic
	stats       Stats
}

func NewEngine(tokens []token.Token) *Engine {
	return &Engine{tokens: tokens}
}

// Enter pushes a frame of kind starting at cursor and returns the function
// that pops it. Productions defer the result so the pop runs on every exit
// path:
//
//	defer p.engine.Enter(recovery.BlockStmt, p.pos)()
func (e *Engine) Enter(kind Kind, cursor int) func() {
	e.stack.Push(kind, cursor, e.indentAt(cursor))
	return func() {
		e.stack.Pop()
	}
}

func (e *Engine) indentAt(cursor int) int {
	if cursor < 0 || cursor >= len(e.tokens) {
		return 0
	}
	return e.tokens[cursor].Indent
}

func (e *Engine) Stack() *Stack {
	return &e.stack
}

func (e *Engine) Ledger() *Ledger {
	return &e.ledger
}

// Recover is called by a production right after one of its sub-parses
// failed at cursor. It returns the index at which the production should
// resume, or failure unchanged when no resumption is allowed.
func (e *Engine) Recover(cursor int, failure error) (int, error) {
	e.stats.Attempts++

	frame, ok := e.stack.Top()
	if !ok {
		return cursor, failure
	}

	n, ok := e.ledger.Attempt(cursor)
	if !ok {
		e.stats.Exhausted++
		log.Debugf("recovery budget spent at token %d: %v", cursor, failure)
		return cursor, failure
	}

	sync, found := Locate(e.tokens, cursor, frame)
	if !found {
		log.Debugf("no sync point for %s at token %d (attempt %d)", frame.Kind, cursor, n)
		return cursor, failure
	}

	e.stats.Recovered++
	e.diagnostics = append(e.diagnostics, Diagnostic{
		Code:     CodeRecoveryAttempted,
		Severity: SeverityError,
		Token:    cursor,
		Message:  failure.Error(),
		Context:  &Context{Kind: frame.Kind, NestingLevel: frame.NestingLevel},
		Skip:     sync - cursor,
	})
	log.Debugf("recovered %s at token %d, resuming at %d (attempt %d)", frame.Kind, cursor, sync, n)
	return sync, nil
}

// Report appends a diagnostic, tagging it with the innermost frame when
// there is one.
func (e *Engine) Report(code Code, severity Severity, tok int, message string) {
	d := Diagnostic{
		Code:     code,
		Severity: severity,
		Token:    tok,
		Message:  message,
	}
	if frame, ok := e.stack.Top(); ok {
		d.Context = &Context{Kind: frame.Kind, NestingLevel: frame.NestingLevel}
	}
	e.diagnostics = append(e.diagnostics, d)
}

func (e *Engine) Diagnostics() []Diagnostic {
	return e.diagnostics
}

func (e *Engine) Stats() Stats {
	return e.stats
}
