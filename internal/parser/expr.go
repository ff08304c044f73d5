package parser

import (
	"strconv"

	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/source"
	"waspy/internal/token"
)

// parseExprList parses "a" or a tuple display without parentheses: "a, b".
func (p *Parser) parseExprList() ast.ExprID {
	start := p.tok.Span
	first := p.parseExpr()
	if !p.at(token.Comma) {
		return first
	}
	elems := []ast.ExprID{first}
	for p.accept(token.Comma) {
		if !p.startsExpr() {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	return p.mod.Exprs.NewSeq(p.spanFrom(start), ast.ExprTuple, elems)
}

func (p *Parser) startsExpr() bool {
	switch p.tok.Kind {
	case token.Ident, token.IntLit, token.FloatLit, token.StringLit, token.BytesLit, token.FStringLit,
		token.KwTrue, token.KwFalse, token.KwNone, token.KwNot, token.KwLambda, token.Ellipsis,
		token.LParen, token.LBracket, token.LBrace, token.Minus, token.Plus, token.Tilde:
		return true
	}
	return false
}

// parseExpr parses a full expression including the conditional form.
func (p *Parser) parseExpr() ast.ExprID {
	if p.at(token.KwLambda) {
		p.unsupported(p.tok.Span, "lambda")
	}
	start := p.tok.Span
	body := p.parseOr()
	if p.at(token.Walrus) {
		p.unsupported(p.tok.Span, "assignment expression")
	}
	if !p.accept(token.KwIf) {
		return body
	}
	cond := p.parseOr()
	p.expect(token.KwElse)
	els := p.parseExpr()
	return p.mod.Exprs.NewTernary(p.spanFrom(start), cond, body, els)
}

func (p *Parser) parseOr() ast.ExprID {
	start := p.tok.Span
	left := p.parseAnd()
	for p.accept(token.KwOr) {
		right := p.parseAnd()
		left = p.mod.Exprs.NewBoolOp(p.spanFrom(start), ast.BoolOr, left, right)
	}
	return left
}

func (p *Parser) parseAnd() ast.ExprID {
	start := p.tok.Span
	left := p.parseNot()
	for p.accept(token.KwAnd) {
		right := p.parseNot()
		left = p.mod.Exprs.NewBoolOp(p.spanFrom(start), ast.BoolAnd, left, right)
	}
	return left
}

func (p *Parser) parseNot() ast.ExprID {
	if p.at(token.KwNot) {
		start := p.advance().Span
		operand := p.parseNot()
		return p.mod.Exprs.NewUnary(p.spanFrom(start), ast.UnaryNot, operand)
	}
	return p.parseComparison()
}

var cmpOps = map[token.Kind]ast.CmpOp{
	token.EqEq:   ast.CmpEq,
	token.BangEq: ast.CmpNotEq,
	token.Lt:     ast.CmpLt,
	token.LtEq:   ast.CmpLtEq,
	token.Gt:     ast.CmpGt,
	token.GtEq:   ast.CmpGtEq,
}

func (p *Parser) parseComparison() ast.ExprID {
	start := p.tok.Span
	left := p.parseBitOr()
	var ops []ast.CmpOp
	var rights []ast.ExprID
	for {
		op, ok := cmpOps[p.tok.Kind]
		switch {
		case ok:
			p.advance()
		case p.at(token.KwIn):
			p.advance()
			op = ast.CmpIn
		case p.at(token.KwNot) && p.peek().Kind == token.KwIn:
			p.advance()
			p.advance()
			op = ast.CmpNotIn
		case p.at(token.KwIs):
			p.advance()
			op = ast.CmpIs
			if p.accept(token.KwNot) {
				op = ast.CmpIsNot
			}
		default:
			if len(ops) == 0 {
				return left
			}
			return p.mod.Exprs.NewCompare(p.spanFrom(start), left, ops, rights)
		}
		ops = append(ops, op)
		rights = append(rights, p.parseBitOr())
	}
}

// binary precedence levels from loosest to tightest
var binaryLevels = [][]struct {
	tok token.Kind
	op  ast.BinaryOp
}{
	{{token.Pipe, ast.BinBitOr}},
	{{token.Caret, ast.BinBitXor}},
	{{token.Amp, ast.BinBitAnd}},
	{{token.Shl, ast.BinShl}, {token.Shr, ast.BinShr}},
	{{token.Plus, ast.BinAdd}, {token.Minus, ast.BinSub}},
	{{token.Star, ast.BinMul}, {token.Slash, ast.BinDiv}, {token.SlashSlash, ast.BinFloorDiv},
		{token.Percent, ast.BinMod}, {token.At, ast.BinMatMul}},
}

func (p *Parser) parseBitOr() ast.ExprID {
	return p.parseBinaryLevel(0)
}

func (p *Parser) parseBinaryLevel(level int) ast.ExprID {
	if level == len(binaryLevels) {
		return p.parseFactor()
	}
	start := p.tok.Span
	left := p.parseBinaryLevel(level + 1)
	for {
		matched := false
		for _, entry := range binaryLevels[level] {
			if p.at(entry.tok) {
				opTok := p.advance()
				if entry.op == ast.BinMatMul {
					p.unsupported(opTok.Span, "matrix multiplication")
				}
				right := p.parseBinaryLevel(level + 1)
				left = p.mod.Exprs.NewBinary(p.spanFrom(start), entry.op, left, right)
				matched = true
				break
			}
		}
		if !matched {
			return left
		}
	}
}

func (p *Parser) parseFactor() ast.ExprID {
	start := p.tok.Span
	var op ast.UnaryOp
	switch p.tok.Kind {
	case token.Minus:
		op = ast.UnaryNeg
	case token.Plus:
		op = ast.UnaryPos
	case token.Tilde:
		op = ast.UnaryInvert
	default:
		return p.parsePower()
	}
	p.advance()
	operand := p.parseFactor()
	return p.mod.Exprs.NewUnary(p.spanFrom(start), op, operand)
}

// parsePower: '**' binds tighter than a unary operator on its left and is right-associative.
func (p *Parser) parsePower() ast.ExprID {
	start := p.tok.Span
	base := p.parsePrimary()
	if !p.accept(token.StarStar) {
		return base
	}
	exp := p.parseFactor()
	return p.mod.Exprs.NewBinary(p.spanFrom(start), ast.BinPow, base, exp)
}

func (p *Parser) parsePrimary() ast.ExprID {
	start := p.tok.Span
	x := p.parseAtom()
	for {
		switch p.tok.Kind {
		case token.LParen:
			x = p.parseCall(start, x)
		case token.Dot:
			p.advance()
			name := p.expect(token.Ident)
			x = p.mod.Exprs.NewAttr(p.spanFrom(start), x, name.Text, name.Span)
		case token.LBracket:
			x = p.parseSubscript(start, x)
		default:
			return x
		}
	}
}

func (p *Parser) parseCall(start source.Span, fn ast.ExprID) ast.ExprID {
	p.expect(token.LParen)
	var args []ast.ExprID
	var keywords []ast.Keyword
	for !p.at(token.RParen) {
		if p.at(token.Star) || p.at(token.StarStar) {
			p.unsupported(p.tok.Span, "argument unpacking")
		}
		if p.at(token.Ident) && p.peek().Kind == token.Assign {
			name := p.advance()
			p.advance()
			for _, kw := range keywords {
				if kw.Name == name.Text {
					p.errorf(diag.SynKeywordArgRepeated, name.Span, "keyword argument repeated: "+name.Text)
				}
			}
			keywords = append(keywords, ast.Keyword{Name: name.Text, Span: name.Span, Value: p.parseExpr()})
		} else {
			if len(keywords) > 0 {
				p.errorf(diag.SynPositionalAfterKw, p.tok.Span, "positional argument follows keyword argument")
			}
			args = append(args, p.parseExpr())
			if p.at(token.KwFor) {
				p.unsupported(p.tok.Span, "generator expression")
			}
		}
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	return p.mod.Exprs.NewCall(p.spanFrom(start), fn, args, keywords)
}

func (p *Parser) parseSubscript(start source.Span, target ast.ExprID) ast.ExprID {
	p.expect(token.LBracket)
	lower := ast.NoExprID
	if !p.at(token.Colon) {
		lower = p.parseExprList()
		if p.accept(token.RBracket) {
			return p.mod.Exprs.NewIndex(p.spanFrom(start), target, lower)
		}
	}
	p.expect(token.Colon)
	upper, step := ast.NoExprID, ast.NoExprID
	if !p.at(token.Colon) && !p.at(token.RBracket) {
		upper = p.parseExpr()
	}
	if p.accept(token.Colon) && !p.at(token.RBracket) {
		step = p.parseExpr()
	}
	p.expect(token.RBracket)
	return p.mod.Exprs.NewSlice(p.spanFrom(start), target, lower, upper, step)
}

func (p *Parser) parseAtom() ast.ExprID {
	tok := p.tok
	exprs := p.mod.Exprs
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return exprs.NewName(tok.Span, tok.Text)
	case token.KwTrue, token.KwFalse:
		p.advance()
		return exprs.NewLiteral(tok.Span, ast.ExprBool, ast.LitData{Bool: tok.Kind == token.KwTrue})
	case token.KwNone, token.Ellipsis:
		p.advance()
		return exprs.NewNone(tok.Span)
	case token.IntLit:
		p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			p.errorf(diag.LexIntOverflow, tok.Span, "integer literal too large")
		}
		return exprs.NewLiteral(tok.Span, ast.ExprInt, ast.LitData{Int: v})
	case token.FloatLit:
		p.advance()
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil && v == 0 {
			p.errorf(diag.LexBadNumber, tok.Span, "invalid float literal")
		}
		return exprs.NewLiteral(tok.Span, ast.ExprFloat, ast.LitData{Float: v})
	case token.StringLit, token.BytesLit, token.FStringLit:
		return p.parseStrings()
	case token.LParen:
		return p.parseParen()
	case token.LBracket:
		return p.parseListDisplay()
	case token.LBrace:
		return p.parseBraceDisplay()
	}
	p.errorf(diag.SynExpectExpr, tok.Span, "expected expression, found "+p.describe(tok))
	return ast.NoExprID
}

func (p *Parser) parseParen() ast.ExprID {
	start := p.advance().Span
	if p.accept(token.RParen) {
		return p.mod.Exprs.NewSeq(p.spanFrom(start), ast.ExprTuple, nil)
	}
	if p.at(token.KwYield) {
		p.unsupported(p.tok.Span, "yield expression")
	}
	first := p.parseExpr()
	if p.at(token.KwFor) {
		p.unsupported(p.tok.Span, "generator expression")
	}
	if p.accept(token.RParen) {
		return first
	}
	elems := []ast.ExprID{first}
	for p.accept(token.Comma) {
		if p.at(token.RParen) {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	p.expect(token.RParen)
	return p.mod.Exprs.NewSeq(p.spanFrom(start), ast.ExprTuple, elems)
}

func (p *Parser) parseListDisplay() ast.ExprID {
	start := p.advance().Span
	var elems []ast.ExprID
	for !p.at(token.RBracket) {
		elems = append(elems, p.parseExpr())
		if p.at(token.KwFor) {
			p.unsupported(p.tok.Span, "list comprehension")
		}
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RBracket)
	return p.mod.Exprs.NewSeq(p.spanFrom(start), ast.ExprList, elems)
}

func (p *Parser) parseBraceDisplay() ast.ExprID {
	start := p.advance().Span
	if p.accept(token.RBrace) {
		return p.mod.Exprs.NewDict(p.spanFrom(start), nil, nil)
	}
	first := p.parseExpr()
	if p.at(token.KwFor) {
		p.unsupported(p.tok.Span, "comprehension")
	}
	if p.accept(token.Colon) {
		keys := []ast.ExprID{first}
		values := []ast.ExprID{p.parseExpr()}
		for p.accept(token.Comma) {
			if p.at(token.RBrace) {
				break
			}
			keys = append(keys, p.parseExpr())
			p.expect(token.Colon)
			values = append(values, p.parseExpr())
		}
		p.expect(token.RBrace)
		return p.mod.Exprs.NewDict(p.spanFrom(start), keys, values)
	}
	elems := []ast.ExprID{first}
	for p.accept(token.Comma) {
		if p.at(token.RBrace) {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	p.expect(token.RBrace)
	return p.mod.Exprs.NewSeq(p.spanFrom(start), ast.ExprSet, elems)
}
