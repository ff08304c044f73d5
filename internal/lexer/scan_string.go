package lexer

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"waspy/internal/diag"
	"waspy/internal/token"
)

// scanString scans a quoted literal whose prefix (if any) starts at start.
func (lx *Lexer) scanString(start Mark, prefix stringPrefix) token.Token {
	q := lx.cursor.Bump()
	triple := false
	if lx.cursor.Peek() == q && lx.cursor.PeekAt(1) == q {
		lx.cursor.Bump()
		lx.cursor.Bump()
		triple = true
	}
	bodyStart := lx.cursor.Off
	var bodyEnd uint32
	for {
		if lx.cursor.EOF() {
			sp := lx.cursor.SpanFrom(start)
			lx.errorf(diag.LexUnterminatedString, sp, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: sp}
		}
		c := lx.cursor.Peek()
		if c == '\\' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		}
		if c == '\n' && !triple {
			sp := lx.cursor.SpanFrom(start)
			lx.errorf(diag.LexUnterminatedString, sp, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: sp}
		}
		if c == q && (!triple || (lx.cursor.PeekAt(1) == q && lx.cursor.PeekAt(2) == q)) {
			bodyEnd = lx.cursor.Off
			lx.cursor.Bump()
			if triple {
				lx.cursor.Bump()
				lx.cursor.Bump()
			}
			break
		}
		lx.cursor.Bump()
	}

	sp := lx.cursor.SpanFrom(start)
	body := lx.cursor.SpanFrom(Mark(bodyStart))
	body.End = bodyEnd
	raw := string(lx.file.Content[bodyStart:bodyEnd])
	tok := token.Token{Span: sp, Body: body, Raw: prefix.raw}

	switch {
	case prefix.format:
		tok.Kind = token.FStringLit
		tok.Text = raw
		return tok
	case prefix.bytes:
		tok.Kind = token.BytesLit
		for i := 0; i < len(raw); i++ {
			if raw[i] >= utf8.RuneSelf {
				lx.errorf(diag.LexBadEscape, sp, "bytes can only contain ASCII literal characters")
				return token.Token{Kind: token.Invalid, Span: sp}
			}
		}
	default:
		tok.Kind = token.StringLit
	}
	if prefix.raw {
		tok.Text = raw
		return tok
	}
	text, err := Unescape(raw, prefix.bytes)
	if err != nil {
		lx.errorf(diag.LexBadEscape, sp, err.Error())
		return token.Token{Kind: token.Invalid, Span: sp}
	}
	tok.Text = text
	return tok
}

var errTruncatedEscape = errors.New("truncated escape sequence")

// Unescape decodes Python backslash escapes. In bytes mode \x and octal escapes
// produce raw bytes and \u, \U, \N are kept verbatim; otherwise they produce UTF-8.
// Unknown escapes keep the backslash.
func Unescape(raw string, bytesMode bool) (string, error) {
	if !strings.Contains(raw, "\\") {
		return raw, nil
	}
	var sb strings.Builder
	sb.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(raw) {
			return "", errTruncatedEscape
		}
		i++
		switch e := raw[i]; e {
		case '\n':
		case '\\', '\'', '"':
			sb.WriteByte(e)
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(raw) && j < i+3 && isOct(raw[j]) {
				j++
			}
			v, _ := strconv.ParseUint(raw[i:j], 8, 16)
			writeCode(&sb, rune(v), bytesMode) //nolint:gosec // at most 0o777
			i = j - 1
		case 'x':
			if i+2 >= len(raw) {
				return "", errTruncatedEscape
			}
			v, err := strconv.ParseUint(raw[i+1:i+3], 16, 8)
			if err != nil {
				return "", errors.New("invalid \\x escape")
			}
			writeCode(&sb, rune(v), bytesMode)
			i += 2
		case 'u', 'U':
			if bytesMode {
				sb.WriteByte('\\')
				sb.WriteByte(e)
				continue
			}
			n := 4
			if e == 'U' {
				n = 8
			}
			if i+n >= len(raw) {
				return "", errTruncatedEscape
			}
			v, err := strconv.ParseUint(raw[i+1:i+1+n], 16, 32)
			if err != nil || v > utf8.MaxRune {
				return "", errors.New("invalid \\" + string(e) + " escape")
			}
			sb.WriteRune(rune(v))
			i += n
		default:
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}
	return sb.String(), nil
}

func writeCode(sb *strings.Builder, v rune, bytesMode bool) {
	if bytesMode {
		sb.WriteByte(byte(v)) //nolint:gosec // octal escapes above 0o377 wrap like CPython bytes
		return
	}
	sb.WriteRune(v)
}
