package token

import "waspy/internal/source"

// Token is a single lexeme.
// Text holds the identifier (NFKC-normalized), the decoded string/bytes value,
// the raw f-string body, or the literal spelling of a number.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
	// Body is the span between the quotes of string, bytes and f-string literals.
	Body source.Span
	// Raw is set for r-prefixed literals.
	Raw bool
}

// IsLiteral reports whether the token is a numeric or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, StringLit, BytesLit, FStringLit:
		return true
	default:
		return false
	}
}

func (t Token) Is(kinds ...Kind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}
