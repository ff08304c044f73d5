package parser

import (
	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/source"
	"waspy/internal/token"
)

// parseBlock parses ':' followed by an indented suite or simple statements on the same line.
func (p *Parser) parseBlock() []ast.StmtID {
	p.expect(token.Colon)
	if !p.at(token.Newline) {
		return p.parseSimpleStatements()
	}
	p.advance()
	if !p.at(token.Indent) {
		p.errorf(diag.SynExpectIndent, p.tok.Span, "expected an indented block")
	}
	p.advance()
	var body []ast.StmtID
	for !p.at(token.Dedent) && !p.at(token.EOF) {
		body = append(body, p.parseStatement()...)
	}
	p.accept(token.Dedent)
	return body
}

func (p *Parser) parseLoopBlock() []ast.StmtID {
	p.loopDepth++
	defer func() { p.loopDepth-- }()
	return p.parseBlock()
}

func (p *Parser) parseIf() ast.StmtID {
	start := p.advance().Span
	data := ast.IfData{Cond: p.parseExpr()}
	data.Body = p.parseBlock()
	switch {
	case p.at(token.KwElif):
		data.Else = []ast.StmtID{p.parseIf()}
	case p.accept(token.KwElse):
		data.Else = p.parseBlock()
	}
	return p.mod.Stmts.NewIf(p.spanFrom(start), data)
}

func (p *Parser) parseWhile() ast.StmtID {
	start := p.advance().Span
	data := ast.WhileData{Cond: p.parseExpr()}
	data.Body = p.parseLoopBlock()
	if p.accept(token.KwElse) {
		data.Else = p.parseBlock()
	}
	return p.mod.Stmts.NewWhile(p.spanFrom(start), data)
}

func (p *Parser) parseFor() ast.StmtID {
	start := p.advance().Span
	target := p.parseTargetList()
	p.checkTarget(target, false)
	p.expect(token.KwIn)
	data := ast.ForData{Target: target, Iter: p.parseExprList()}
	data.Body = p.parseLoopBlock()
	if p.accept(token.KwElse) {
		data.Else = p.parseBlock()
	}
	return p.mod.Stmts.NewFor(p.spanFrom(start), data)
}

// parseTargetList parses for-loop targets, which stop before 'in'.
func (p *Parser) parseTargetList() ast.ExprID {
	start := p.tok.Span
	first := p.parseBitOr()
	if !p.at(token.Comma) {
		return first
	}
	elems := []ast.ExprID{first}
	for p.accept(token.Comma) {
		if p.at(token.KwIn) {
			break
		}
		elems = append(elems, p.parseBitOr())
	}
	return p.mod.Exprs.NewSeq(p.spanFrom(start), ast.ExprTuple, elems)
}

func (p *Parser) parseTry() ast.StmtID {
	start := p.advance().Span
	var data ast.TryData
	data.Body = p.parseBlock()
	sawBare := false
	for p.at(token.KwExcept) {
		hStart := p.advance().Span
		if sawBare {
			p.errorf(diag.SynUnexpectedToken, hStart, "default 'except:' must be last")
		}
		if p.at(token.Star) {
			p.unsupported(p.tok.Span, "'except*'")
		}
		h := ast.ExceptHandler{}
		if p.at(token.Colon) {
			sawBare = true
		} else {
			h.Type = p.parseExpr()
			if p.accept(token.KwAs) {
				name := p.expect(token.Ident)
				h.Name, h.NameSpan = name.Text, name.Span
			}
		}
		h.Span = p.spanFrom(hStart)
		h.Body = p.parseBlock()
		data.Handlers = append(data.Handlers, h)
	}
	if p.accept(token.KwElse) {
		if len(data.Handlers) == 0 {
			p.errorf(diag.SynUnexpectedToken, p.lastSpan, "'else' requires at least one 'except' clause")
		}
		data.Else = p.parseBlock()
	}
	if p.accept(token.KwFinally) {
		data.Finally = p.parseBlock()
	}
	if len(data.Handlers) == 0 && data.Finally == nil {
		p.errorf(diag.SynUnexpectedToken, p.tok.Span, "expected 'except' or 'finally' block")
	}
	return p.mod.Stmts.NewTry(p.spanFrom(start), data)
}

func (p *Parser) parseDecorated() ast.StmtID {
	start := p.tok.Span
	var decorators []ast.ExprID
	for p.accept(token.At) {
		decorators = append(decorators, p.parseExpr())
		p.expect(token.Newline)
	}
	switch p.tok.Kind {
	case token.KwDef:
		return p.parseFuncDef(start, decorators)
	case token.KwClass:
		return p.parseClassDef(start, decorators)
	case token.KwAsync:
		p.unsupported(p.tok.Span, "async code")
	}
	p.errorf(diag.SynUnexpectedToken, p.tok.Span, "expected 'def' or 'class' after decorator, found "+p.describe(p.tok))
	return ast.NoStmtID
}

func (p *Parser) parseFuncDef(start source.Span, decorators []ast.ExprID) ast.StmtID {
	p.expect(token.KwDef)
	name := p.expect(token.Ident)
	data := ast.FuncDefData{Name: name.Text, NameSpan: name.Span, Decorators: decorators}
	data.Params = p.parseParams()
	if p.accept(token.Arrow) {
		data.Returns = p.parseExpr()
	}

	savedLoop := p.loopDepth
	p.loopDepth = 0
	p.funcDepth++
	data.Body = p.parseBlock()
	p.funcDepth--
	p.loopDepth = savedLoop

	return p.mod.Stmts.NewFuncDef(p.spanFrom(start), data)
}

func (p *Parser) parseParams() []ast.Param {
	p.expect(token.LParen)
	var params []ast.Param
	seen := make(map[string]bool)
	sawDefault := false
	for !p.at(token.RParen) {
		switch p.tok.Kind {
		case token.Star, token.StarStar:
			p.unsupported(p.tok.Span, "variadic parameters")
		case token.Slash:
			p.unsupported(p.tok.Span, "positional-only marker")
		}
		tok := p.expect(token.Ident)
		if seen[tok.Text] {
			p.errorf(diag.SynDuplicateParam, tok.Span, "duplicate argument '"+tok.Text+"' in function definition")
		}
		seen[tok.Text] = true
		param := ast.Param{Name: tok.Text, Span: tok.Span}
		if p.accept(token.Colon) {
			param.Annotation = p.parseExpr()
		}
		if p.accept(token.Assign) {
			param.Default = p.parseExpr()
			sawDefault = true
		} else if sawDefault {
			p.errorf(diag.SynDefaultOrder, tok.Span, "non-default argument follows default argument")
		}
		params = append(params, param)
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) parseClassDef(start source.Span, decorators []ast.ExprID) ast.StmtID {
	p.expect(token.KwClass)
	name := p.expect(token.Ident)
	data := ast.ClassDefData{Name: name.Text, NameSpan: name.Span, Decorators: decorators}
	if p.accept(token.LParen) {
		for !p.at(token.RParen) {
			if p.at(token.Ident) && p.peek().Kind == token.Assign {
				p.unsupported(p.tok.Span, "class keyword arguments")
			}
			data.Bases = append(data.Bases, p.parseExpr())
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RParen)
	}
	savedLoop := p.loopDepth
	p.loopDepth = 0
	data.Body = p.parseBlock()
	p.loopDepth = savedLoop
	return p.mod.Stmts.NewClassDef(p.spanFrom(start), data)
}
