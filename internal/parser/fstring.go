package parser

import (
	"strings"

	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/lexer"
	"waspy/internal/source"
	"waspy/internal/token"
)

// parseStrings folds adjacent literals ("a" "b", f"x" "y") into one expression.
func (p *Parser) parseStrings() ast.ExprID {
	start := p.tok.Span
	isBytes := p.at(token.BytesLit)
	var parts []ast.FStringPart
	var lit strings.Builder
	formatted := false

	for p.at(token.StringLit) || p.at(token.BytesLit) || p.at(token.FStringLit) {
		tok := p.advance()
		if (tok.Kind == token.BytesLit) != isBytes {
			p.errorf(diag.SynUnexpectedToken, tok.Span, "cannot mix bytes and nonbytes literals")
		}
		if tok.Kind != token.FStringLit {
			lit.WriteString(tok.Text)
			continue
		}
		formatted = true
		for _, part := range p.splitFString(tok) {
			if part.Expr.IsValid() {
				if lit.Len() > 0 {
					parts = append(parts, ast.FStringPart{Lit: lit.String()})
					lit.Reset()
				}
				parts = append(parts, part)
				continue
			}
			lit.WriteString(part.Lit)
		}
	}

	sp := p.spanFrom(start)
	if !formatted {
		kind := ast.ExprStr
		if isBytes {
			kind = ast.ExprBytes
		}
		return p.mod.Exprs.NewLiteral(sp, kind, ast.LitData{Str: lit.String()})
	}
	if lit.Len() > 0 {
		parts = append(parts, ast.FStringPart{Lit: lit.String()})
	}
	return p.mod.Exprs.NewFString(sp, parts)
}

// splitFString separates literal text from {expression} fields in one f-string token.
func (p *Parser) splitFString(tok token.Token) []ast.FStringPart {
	raw := tok.Text
	var parts []ast.FStringPart
	var lit strings.Builder
	flush := func() {
		if lit.Len() == 0 {
			return
		}
		text := lit.String()
		if !tok.Raw {
			decoded, err := lexer.Unescape(text, false)
			if err != nil {
				p.errorf(diag.LexBadEscape, tok.Span, err.Error())
			}
			text = decoded
		}
		parts = append(parts, ast.FStringPart{Lit: text})
		lit.Reset()
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '{' && i+1 < len(raw) && raw[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(raw) && raw[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '}':
			p.errorf(diag.LexBadFString, p.bodySpan(tok, i, i+1), "f-string: single '}' is not allowed")
		case c == '{':
			flush()
			end, conv := fieldEnd(raw, i+1)
			if end < 0 {
				p.errorf(diag.LexBadFString, tok.Span, "f-string: expecting '}'")
			}
			exprEnd := end
			if conv >= 0 {
				exprEnd = conv
				spec := raw[conv:end]
				if spec != "!s" {
					p.unsupported(p.bodySpan(tok, conv, end), "f-string conversion or format spec '"+spec+"'")
				}
			}
			if strings.TrimSpace(raw[i+1:exprEnd]) == "" {
				p.errorf(diag.LexBadFString, p.bodySpan(tok, i, end+1), "f-string: empty expression not allowed")
			}
			parts = append(parts, ast.FStringPart{Expr: p.parseFragment(p.bodySpan(tok, i+1, exprEnd))})
			i = end
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return parts
}

func (p *Parser) bodySpan(tok token.Token, from, to int) source.Span {
	return source.Span{
		File:  tok.Body.File,
		Start: tok.Body.Start + uint32(from), //nolint:gosec // offsets within one token
		End:   tok.Body.Start + uint32(to),   //nolint:gosec
	}
}

// fieldEnd finds the closing '}' of a replacement field starting at from.
// conv is the index of a top-level '!' or ':' (conversion or format spec), or -1.
func fieldEnd(raw string, from int) (end, conv int) {
	depth := 0
	conv = -1
	var quote byte
	for i := from; i < len(raw); i++ {
		c := raw[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				return i, conv
			}
			depth--
		case '!':
			if depth == 0 && conv < 0 && (i+1 >= len(raw) || raw[i+1] != '=') {
				conv = i
			}
		case ':':
			if depth == 0 && conv < 0 {
				conv = i
			}
		}
	}
	return -1, -1
}

// parseFragment parses the expression inside an f-string field with a nested parser
// sharing this module's arenas.
func (p *Parser) parseFragment(sp source.Span) ast.ExprID {
	lx := lexer.NewFragment(p.file, sp.Start, sp.End, lexer.Options{Reporter: p.opts.Reporter})
	sub := newParser(p.file, lx, p.mod, p.opts)
	x := sub.parseExprList()
	if !sub.at(token.EOF) {
		sub.errorf(diag.SynUnexpectedToken, sub.tok.Span, "f-string: expected '}', found "+sub.describe(sub.tok))
	}
	return x
}
