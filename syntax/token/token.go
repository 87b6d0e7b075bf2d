package token

import "fmt"

type Tag int

const (
	EOF Tag = iota
	Invalid

	// Literals
	Identifier
	IntLiteral
	FloatLiteral
	StringLiteral
	CharLiteral
	Builtin

	// Keywords
	KeywordAnd
	KeywordBreak
	KeywordComptime
	KeywordConst
	KeywordContinue
	KeywordDefer
	KeywordElse
	KeywordEnum
	KeywordFalse
	KeywordFn
	KeywordFor
	KeywordIf
	KeywordNull
	KeywordOr
	KeywordPub
	KeywordReturn
	KeywordStruct
	KeywordSwitch
	KeywordTest
	KeywordTrue
	KeywordTry
	KeywordUndefined
	KeywordUnion
	KeywordVar
	KeywordWhile

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semicolon
	Comma
	Period
	PeriodQuestion
	Ellipsis2
	Colon
	FatArrow

	// Operators
	Equal
	EqualEqual
	BangEqual
	Less
	LessEqual
	Greater
	GreaterEqual
	Plus
	Minus
	Star
	Slash
	Percent
	Bang
	Ampersand
	Pipe
	Caret
	Question
)

var tagNames = map[Tag]string{
	EOF:              "EOF",
	Invalid:          "Invalid",
	Identifier:       "Identifier",
	IntLiteral:       "IntLiteral",
	FloatLiteral:     "FloatLiteral",
	StringLiteral:    "StringLiteral",
	CharLiteral:      "CharLiteral",
	Builtin:          "Builtin",
	KeywordAnd:       "and",
	KeywordBreak:     "break",
	KeywordComptime:  "comptime",
	KeywordConst:     "const",
	KeywordContinue:  "continue",
	KeywordDefer:     "defer",
	KeywordElse:      "else",
	KeywordEnum:      "enum",
	KeywordFalse:     "false",
	KeywordFn:        "fn",
	KeywordFor:       "for",
	KeywordIf:        "if",
	KeywordNull:      "null",
	KeywordOr:        "or",
	KeywordPub:       "pub",
	KeywordReturn:    "return",
	KeywordStruct:    "struct",
	KeywordSwitch:    "switch",
	KeywordTest:      "test",
	KeywordTrue:      "true",
	KeywordTry:       "try",
	KeywordUndefined: "undefined",
	KeywordUnion:     "union",
	KeywordVar:       "var",
	KeywordWhile:     "while",
	LParen:           "(",
	RParen:           ")",
	LBrace:           "{",
	RBrace:           "}",
	LBracket:         "[",
	RBracket:         "]",
	Semicolon:        ";",
	Comma:            ",",
	Period:           ".",
	PeriodQuestion:   ".?",
	Ellipsis2:        "..",
	Colon:            ":",
	FatArrow:         "=>",
	Equal:            "=",
	EqualEqual:       "==",
	BangEqual:        "!=",
	Less:             "<",
	LessEqual:        "<=",
	Greater:          ">",
	GreaterEqual:     ">=",
	Plus:             "+",
	Minus:            "-",
	Star:             "*",
	Slash:            "/",
	Percent:          "%",
	Bang:             "!",
	Ampersand:        "&",
	Pipe:             "|",
	Caret:            "^",
	Question:         "?",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// IsKeyword reports whether t is a reserved word.
func (t Tag) IsKeyword() bool {
	return t >= KeywordAnd && t <= KeywordWhile
}

// Token is one lexical unit. Tokens are owned by the parse session and
// referenced everywhere else by their index in the token slice.
type Token struct {
	Tag     Tag
	Start   int // byte offset of the first byte
	End     int // byte offset one past the last byte
	Line    int // 1-based
	Column  int // 1-based, in bytes
	Indent  int // leading whitespace width of the token's line
	Literal string
}

func (t Token) String() string {
	if t.Literal == "" {
		return t.Tag.String()
	}
	return t.Literal
}

var keywords = map[string]Tag{
	"and":       KeywordAnd,
	"break":     KeywordBreak,
	"comptime":  KeywordComptime,
	"const":     KeywordConst,
	"continue":  KeywordContinue,
	"defer":     KeywordDefer,
	"else":      KeywordElse,
	"enum":      KeywordEnum,
	"false":     KeywordFalse,
	"fn":        KeywordFn,
	"for":       KeywordFor,
	"if":        KeywordIf,
	"null":      KeywordNull,
	"or":        KeywordOr,
	"pub":       KeywordPub,
	"return":    KeywordReturn,
	"struct":    KeywordStruct,
	"switch":    KeywordSwitch,
	"test":      KeywordTest,
	"true":      KeywordTrue,
	"try":       KeywordTry,
	"undefined": KeywordUndefined,
	"union":     KeywordUnion,
	"var":       KeywordVar,
	"while":     KeywordWhile,
}

func LookupKeyword(ident string) Tag {
	if tag, ok := keywords[ident]; ok {
		return tag
	}
	return Identifier
}
