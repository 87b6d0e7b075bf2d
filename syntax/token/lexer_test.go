package token

import "testing"

func TestLexer(t *testing.T) {
	tests := []struct {
		input    string
		expected []Tag
	}{
		{"", []Tag{EOF}},
		{"const", []Tag{KeywordConst, EOF}},
		{"const x = 1;", []Tag{KeywordConst, Identifier, Equal, IntLiteral, Semicolon, EOF}},
		{"123", []Tag{IntLiteral, EOF}},
		{"0xff_ff", []Tag{IntLiteral, EOF}},
		{"3.14", []Tag{FloatLiteral, EOF}},
		{"1e10", []Tag{FloatLiteral, EOF}},
		{"0..10", []Tag{IntLiteral, Ellipsis2, IntLiteral, EOF}},
		{`"hello"`, []Tag{StringLiteral, EOF}},
		{`"esc\"aped"`, []Tag{StringLiteral, EOF}},
		{`"unterminated`, []Tag{Invalid, EOF}},
		{"'a'", []Tag{CharLiteral, EOF}},
		{"@import", []Tag{Builtin, EOF}},
		{"@", []Tag{Invalid, EOF}},
		{"// comment\nconst", []Tag{KeywordConst, EOF}},
		{"+ - * / %", []Tag{Plus, Minus, Star, Slash, Percent, EOF}},
		{"== != < <= > >=", []Tag{EqualEqual, BangEqual, Less, LessEqual, Greater, GreaterEqual, EOF}},
		{"=> = !", []Tag{FatArrow, Equal, Bang, EOF}},
		{"a.b a.? a..b", []Tag{Identifier, Period, Identifier, Identifier, PeriodQuestion, Identifier, Ellipsis2, Identifier, EOF}},
		{"|x| & ^ ?", []Tag{Pipe, Identifier, Pipe, Ampersand, Caret, Question, EOF}},
		{"( ) { } [ ] ; , :", []Tag{LParen, RParen, LBrace, RBrace, LBracket, RBracket, Semicolon, Comma, Colon, EOF}},
		{"#", []Tag{Invalid, EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := Tokenize([]byte(tt.input))
			if len(tokens) != len(tt.expected) {
				t.Errorf("got %d tokens, want %d: %v", len(tokens), len(tt.expected), tokens)
				return
			}
			for i := range tokens {
				if tokens[i].Tag != tt.expected[i] {
					t.Errorf("token %d: got %v, want %v", i, tokens[i].Tag, tt.expected[i])
				}
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	src := "const x = 1;\n    foo(x);\n\tbar"
	tokens := Tokenize([]byte(src))

	tests := []struct {
		index   int
		literal string
		line    int
		column  int
		indent  int
	}{
		{0, "const", 1, 1, 0},
		{1, "x", 1, 7, 0},
		{5, "foo", 2, 5, 4},
		{6, "(", 2, 8, 4},
		{10, "bar", 3, 2, tabWidth},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			tok := tokens[tt.index]
			if tok.Literal != tt.literal {
				t.Fatalf("token %d: got literal %q, want %q", tt.index, tok.Literal, tt.literal)
			}
			if tok.Line != tt.line || tok.Column != tt.column {
				t.Errorf("got %d:%d, want %d:%d", tok.Line, tok.Column, tt.line, tt.column)
			}
			if tok.Indent != tt.indent {
				t.Errorf("got indent %d, want %d", tok.Indent, tt.indent)
			}
			if src[tok.Start:tok.End] != tt.literal {
				t.Errorf("offsets %d..%d select %q", tok.Start, tok.End, src[tok.Start:tok.End])
			}
		})
	}
}

func TestLookupKeyword(t *testing.T) {
	for name, tag := range keywords {
		if got := LookupKeyword(name); got != tag {
			t.Errorf("LookupKeyword(%q) = %v, want %v", name, got, tag)
		}
		if !tag.IsKeyword() {
			t.Errorf("%v.IsKeyword() = false", tag)
		}
		if tag.String() != name {
			t.Errorf("%v.String() = %q, want %q", tag, tag.String(), name)
		}
	}
	if got := LookupKeyword("constant"); got != Identifier {
		t.Errorf("LookupKeyword(constant) = %v, want Identifier", got)
	}
}

func TestTagString(t *testing.T) {
	if got := FatArrow.String(); got != "=>" {
		t.Errorf("FatArrow.String() = %q", got)
	}
	if got := Tag(9999).String(); got != "Tag(9999)" {
		t.Errorf("unknown tag String() = %q", got)
	}
}
