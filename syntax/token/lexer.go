package token

// tabWidth is the indentation width credited to a leading tab.
const tabWidth = 4

type Lexer struct {
	input  []byte
	pos    int
	line   int
	column int
	indent int
}

func NewLexer(input []byte) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 1,
	}
	l.indent = l.measureIndent(0)
	return l
}

// Tokenize lexes the whole input. The returned slice always ends with an
// EOF token.
func Tokenize(input []byte) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Tag == EOF {
			return tokens
		}
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
		l.indent = l.measureIndent(l.pos)
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) measureIndent(lineStart int) int {
	width := 0
	for i := lineStart; i < len(l.input); i++ {
		switch l.input[i] {
		case ' ':
			width++
		case '\t':
			width += tabWidth
		default:
			return width
		}
	}
	return width
}

func (l *Lexer) skipTrivia() {
	for {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.peekN(1) == '/':
			for l.peek() != 0 && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

type mark struct {
	pos    int
	line   int
	column int
	indent int
}

func (l *Lexer) mark() mark {
	return mark{pos: l.pos, line: l.line, column: l.column, indent: l.indent}
}

func (l *Lexer) token(tag Tag, start mark) Token {
	return Token{
		Tag:     tag,
		Start:   start.pos,
		End:     l.pos,
		Line:    start.line,
		Column:  start.column,
		Indent:  start.indent,
		Literal: string(l.input[start.pos:l.pos]),
	}
}

func (l *Lexer) NextToken() Token {
	l.skipTrivia()
	start := l.mark()

	if l.pos >= len(l.input) {
		return l.token(EOF, start)
	}

	ch := l.peek()
	switch {
	case isLetter(ch):
		return l.scanIdentOrKeyword(start)
	case isDigit(ch):
		return l.scanNumber(start)
	case ch == '"':
		return l.scanQuoted(start, '"', StringLiteral)
	case ch == '\'':
		return l.scanQuoted(start, '\'', CharLiteral)
	case ch == '@' && isLetter(l.peekN(1)):
		l.advance()
		for isLetterOrDigit(l.peek()) {
			l.advance()
		}
		return l.token(Builtin, start)
	}

	return l.scanOperator(start)
}

func (l *Lexer) scanIdentOrKeyword(start mark) Token {
	for isLetterOrDigit(l.peek()) {
		l.advance()
	}
	return l.token(LookupKeyword(string(l.input[start.pos:l.pos])), start)
}

func (l *Lexer) scanNumber(start mark) Token {
	if l.peek() == '0' && (l.peekN(1) == 'x' || l.peekN(1) == 'b' || l.peekN(1) == 'o') {
		l.advanceN(2)
		for isHexDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
		return l.token(IntLiteral, start)
	}

	tag := IntLiteral
	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	// "1..2" is a range, not a float.
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		tag = FloatLiteral
		l.advance()
		for isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		tag = FloatLiteral
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.token(tag, start)
}

func (l *Lexer) scanQuoted(start mark, quote byte, tag Tag) Token {
	l.advance()
	for l.peek() != 0 && l.peek() != quote && l.peek() != '\n' {
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	if l.peek() != quote {
		return l.token(Invalid, start)
	}
	l.advance()
	return l.token(tag, start)
}

func (l *Lexer) scanOperator(start mark) Token {
	ch := l.advance()

	switch ch {
	case '(':
		return l.token(LParen, start)
	case ')':
		return l.token(RParen, start)
	case '{':
		return l.token(LBrace, start)
	case '}':
		return l.token(RBrace, start)
	case '[':
		return l.token(LBracket, start)
	case ']':
		return l.token(RBracket, start)
	case ';':
		return l.token(Semicolon, start)
	case ',':
		return l.token(Comma, start)
	case ':':
		return l.token(Colon, start)
	case '+':
		return l.token(Plus, start)
	case '-':
		return l.token(Minus, start)
	case '*':
		return l.token(Star, start)
	case '/':
		return l.token(Slash, start)
	case '%':
		return l.token(Percent, start)
	case '&':
		return l.token(Ampersand, start)
	case '|':
		return l.token(Pipe, start)
	case '^':
		return l.token(Caret, start)
	case '?':
		return l.token(Question, start)

	case '.':
		if l.peek() == '?' {
			l.advance()
			return l.token(PeriodQuestion, start)
		}
		if l.peek() == '.' {
			l.advance()
			return l.token(Ellipsis2, start)
		}
		return l.token(Period, start)

	case '=':
		if l.peek() == '=' {
			l.advance()
			return l.token(EqualEqual, start)
		}
		if l.peek() == '>' {
			l.advance()
			return l.token(FatArrow, start)
		}
		return l.token(Equal, start)

	case '!':
		if l.peek() == '=' {
			l.advance()
			return l.token(BangEqual, start)
		}
		return l.token(Bang, start)

	case '<':
		if l.peek() == '=' {
			l.advance()
			return l.token(LessEqual, start)
		}
		return l.token(Less, start)

	case '>':
		if l.peek() == '=' {
			l.advance()
			return l.token(GreaterEqual, start)
		}
		return l.token(Greater, start)
	}

	return l.token(Invalid, start)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isLetterOrDigit(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}
