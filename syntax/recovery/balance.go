package recovery

import "github.com/dhamidi/ziggurat/syntax/token"

// Balance counts unmatched opening delimiters. It is only ever used as a
// local copy while the locator scans ahead.
type Balance struct {
	Paren   int
	Brace   int
	Bracket int
}

func (b *Balance) Apply(tag token.Tag) {
	switch tag {
	case token.LParen:
		b.Paren++
	case token.RParen:
		b.Paren--
	case token.LBrace:
		b.Brace++
	case token.RBrace:
		b.Brace--
	case token.LBracket:
		b.Bracket++
	case token.RBracket:
		b.Bracket--
	}
}

func (b Balance) IsBalanced() bool {
	return b.Paren == 0 && b.Brace == 0 && b.Bracket == 0
}
