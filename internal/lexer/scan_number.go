package lexer

import (
	"errors"
	"strconv"
	"strings"

	"waspy/internal/diag"
	"waspy/internal/source"
	"waspy/internal/token"
)

// scanNumber scans int and float literals. Int tokens carry the decimal value
// as Text; float tokens carry the spelling without underscores.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	if lx.cursor.Peek() == '0' {
		switch lx.cursor.PeekAt(1) | 0x20 {
		case 'x':
			return lx.scanRadix(start, 16, isHex)
		case 'o':
			return lx.scanRadix(start, 8, isOct)
		case 'b':
			return lx.scanRadix(start, 2, isBin)
		}
	}

	var sb strings.Builder
	isFloat := false
	if lx.cursor.Peek() != '.' && !lx.scanDigits(&sb, isDec) {
		return lx.badNumber(start)
	}
	if lx.cursor.Peek() == '.' {
		isFloat = true
		sb.WriteByte(lx.cursor.Bump())
		if isDec(lx.cursor.Peek()) && !lx.scanDigits(&sb, isDec) {
			return lx.badNumber(start)
		}
	}
	if c := lx.cursor.Peek(); c == 'e' || c == 'E' {
		isFloat = true
		sb.WriteByte(lx.cursor.Bump())
		if c := lx.cursor.Peek(); c == '+' || c == '-' {
			sb.WriteByte(lx.cursor.Bump())
		}
		if !isDec(lx.cursor.Peek()) || !lx.scanDigits(&sb, isDec) {
			return lx.badNumber(start)
		}
	}
	if c := lx.cursor.Peek(); c == 'j' || c == 'J' {
		lx.cursor.Bump()
		sp := lx.cursor.SpanFrom(start)
		lx.errorf(diag.LexBadNumber, sp, "complex literals are not supported")
		return token.Token{Kind: token.Invalid, Span: sp}
	}
	if isIdentContinueByte(lx.cursor.Peek()) {
		return lx.badNumber(start)
	}

	sp := lx.cursor.SpanFrom(start)
	text := sb.String()
	if isFloat {
		if _, err := strconv.ParseFloat(text, 64); err != nil && !errors.Is(err, strconv.ErrRange) {
			return lx.badNumber(start)
		}
		return token.Token{Kind: token.FloatLit, Span: sp, Text: text}
	}
	if len(text) > 1 && text[0] == '0' && strings.Trim(text, "0") != "" {
		lx.errorf(diag.LexBadNumber, sp, "leading zeros in decimal integer literals are not permitted; use an 0o prefix for octal integers")
		return token.Token{Kind: token.Invalid, Span: sp}
	}
	return lx.intToken(sp, text, 10)
}

func (lx *Lexer) scanRadix(start Mark, base int, ok func(byte) bool) token.Token {
	lx.cursor.Bump()
	lx.cursor.Bump()
	var sb strings.Builder
	lx.cursor.Eat('_')
	if !ok(lx.cursor.Peek()) || !lx.scanDigits(&sb, ok) || isIdentContinueByte(lx.cursor.Peek()) {
		return lx.badNumber(start)
	}
	return lx.intToken(lx.cursor.SpanFrom(start), sb.String(), base)
}

func (lx *Lexer) intToken(sp source.Span, digits string, base int) token.Token {
	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		lx.errorf(diag.LexIntOverflow, sp, "integer literal too large for a 64-bit int")
		return token.Token{Kind: token.Invalid, Span: sp}
	}
	return token.Token{Kind: token.IntLit, Span: sp, Text: strconv.FormatInt(v, 10)}
}

// scanDigits consumes digits with single underscores between them.
func (lx *Lexer) scanDigits(sb *strings.Builder, ok func(byte) bool) bool {
	if !ok(lx.cursor.Peek()) {
		return false
	}
	for {
		for ok(lx.cursor.Peek()) {
			sb.WriteByte(lx.cursor.Bump())
		}
		if lx.cursor.Peek() != '_' {
			return true
		}
		lx.cursor.Bump()
		if !ok(lx.cursor.Peek()) {
			return false
		}
	}
}

func (lx *Lexer) badNumber(start Mark) token.Token {
	for isIdentContinueByte(lx.cursor.Peek()) || lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errorf(diag.LexBadNumber, sp, "invalid number literal '"+string(lx.file.Content[sp.Start:sp.End])+"'")
	return token.Token{Kind: token.Invalid, Span: sp}
}
