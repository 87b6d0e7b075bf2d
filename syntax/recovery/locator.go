package recovery

import "github.com/dhamidi/ziggurat/syntax/token"

// Locate returns the first index at or after cursor where a production of
// frame.Kind may safely resume. The scan never looks past EOF and never
// mutates anything but its own speculative counters.
func Locate(tokens []token.Token, cursor int, frame Frame) (int, bool) {
	rule, ok := Table[frame.Kind]
	if !ok {
		return -1, false
	}

	var bal Balance
	nest := frame.NestingLevel
	// Brace depth at which each nested construct was opened.
	var openDepths []int

	for i := cursor; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Tag == token.EOF {
			return -1, false
		}

		if nest <= frame.NestingLevel &&
			i-cursor >= rule.MinDistance &&
			(!rule.RequireBalance || bal.IsBalanced()) &&
			rule.match(tokens, i) &&
			(rule.Validate == nil || rule.Validate(tokens, i, frame)) {
			return i, true
		}

		if rule.nests(tok.Tag) {
			openDepths = append(openDepths, bal.Brace)
			nest++
		}
		bal.Apply(tok.Tag)
		if tok.Tag == token.RBrace {
			for len(openDepths) > 0 && openDepths[len(openDepths)-1] >= bal.Brace {
				openDepths = openDepths[:len(openDepths)-1]
				nest--
			}
		}
	}

	return -1, false
}
