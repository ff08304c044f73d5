package lexer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"waspy/internal/diag"
	"waspy/internal/token"
)

// scanIdentOrString scans an identifier or keyword. An identifier made only of
// string prefix letters and directly followed by a quote starts a string literal.
func (lx *Lexer) scanIdentOrString() token.Token {
	start := lx.cursor.Mark()
	ascii := true
	first := true
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b < utf8.RuneSelf {
			if (first && !isIdentStartByte(b)) || !isIdentContinueByte(b) {
				break
			}
			lx.cursor.Bump()
			first = false
			continue
		}
		r, size := lx.peekRune()
		if r == utf8.RuneError || (first && !isIdentStartRune(r)) || !isIdentContinueRune(r) {
			break
		}
		ascii = false
		lx.cursor.Off += size
		first = false
	}
	sp := lx.cursor.SpanFrom(start)
	if sp.Empty() {
		lx.cursor.Bump()
		sp = lx.cursor.SpanFrom(start)
		lx.errorf(diag.LexUnknownChar, sp, "invalid character in identifier")
		return token.Token{Kind: token.Invalid, Span: sp}
	}
	text := string(lx.file.Content[sp.Start:sp.End])

	if q := lx.cursor.Peek(); (q == '"' || q == '\'') && len(text) <= 2 {
		if prefix, ok := parsePrefix(text); ok {
			return lx.scanString(start, prefix)
		}
	}

	if !ascii {
		text = norm.NFKC.String(text)
	}
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

type stringPrefix struct {
	raw, bytes, format bool
}

func parsePrefix(text string) (stringPrefix, bool) {
	var p stringPrefix
	switch strings.ToLower(text) {
	case "r":
		p.raw = true
	case "u":
	case "b":
		p.bytes = true
	case "f":
		p.format = true
	case "br", "rb":
		p.raw, p.bytes = true, true
	case "fr", "rf":
		p.raw, p.format = true, true
	default:
		return p, false
	}
	return p, true
}
