package parser

import (
	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/token"
)

// parseStatement parses one statement line; simple statements joined by ';' yield several IDs.
func (p *Parser) parseStatement() []ast.StmtID {
	switch p.tok.Kind {
	case token.KwIf:
		return []ast.StmtID{p.parseIf()}
	case token.KwWhile:
		return []ast.StmtID{p.parseWhile()}
	case token.KwFor:
		return []ast.StmtID{p.parseFor()}
	case token.KwTry:
		return []ast.StmtID{p.parseTry()}
	case token.KwDef, token.KwClass, token.At:
		return []ast.StmtID{p.parseDecorated()}
	case token.KwWith:
		p.unsupported(p.tok.Span, "'with' statement")
	case token.KwAsync:
		p.unsupported(p.tok.Span, "async code")
	case token.Indent:
		p.errorf(diag.SynUnexpectedToken, p.tok.Span, "unexpected indent")
	}
	return p.parseSimpleStatements()
}

func (p *Parser) parseSimpleStatements() []ast.StmtID {
	var out []ast.StmtID
	for {
		out = append(out, p.parseSmallStatement())
		if !p.accept(token.Semicolon) || p.at(token.Newline) {
			break
		}
	}
	p.expect(token.Newline)
	return out
}

func (p *Parser) parseSmallStatement() ast.StmtID {
	start := p.tok.Span
	stmts := p.mod.Stmts
	switch p.tok.Kind {
	case token.KwPass:
		p.advance()
		return stmts.NewSimple(ast.StmtPass, start)
	case token.KwBreak, token.KwContinue:
		tok := p.advance()
		if p.loopDepth == 0 {
			p.errorf(diag.SynBreakOutsideLoop, tok.Span, tok.Kind.String()+" outside loop")
		}
		if tok.Kind == token.KwBreak {
			return stmts.NewSimple(ast.StmtBreak, start)
		}
		return stmts.NewSimple(ast.StmtContinue, start)
	case token.KwReturn:
		p.advance()
		if p.funcDepth == 0 {
			p.errorf(diag.SynReturnOutsideFunc, start, "'return' outside function")
		}
		value := ast.NoExprID
		if !p.atStatementEnd() {
			value = p.parseExprList()
		}
		return stmts.NewReturn(p.spanFrom(start), value)
	case token.KwRaise:
		p.advance()
		exc := ast.NoExprID
		if !p.atStatementEnd() {
			exc = p.parseExpr()
			if p.at(token.KwFrom) {
				p.unsupported(p.tok.Span, "exception chaining with 'from'")
			}
		}
		return stmts.NewRaise(p.spanFrom(start), exc)
	case token.KwGlobal:
		p.advance()
		var names []string
		for {
			names = append(names, p.expect(token.Ident).Text)
			if !p.accept(token.Comma) {
				break
			}
		}
		return stmts.NewGlobal(p.spanFrom(start), names)
	case token.KwNonlocal:
		p.unsupported(start, "'nonlocal'")
	case token.KwDel:
		p.unsupported(start, "'del'")
	case token.KwImport:
		return p.parseImport()
	case token.KwFrom:
		return p.parseFromImport()
	case token.KwAssert:
		p.advance()
		test := p.parseExpr()
		msg := ast.NoExprID
		if p.accept(token.Comma) {
			msg = p.parseExpr()
		}
		return stmts.NewAssert(p.spanFrom(start), test, msg)
	case token.KwYield, token.KwAwait:
		p.unsupported(start, "generators and coroutines")
	}
	return p.parseExprStatement()
}

func (p *Parser) atStatementEnd() bool {
	return p.at(token.Newline) || p.at(token.Semicolon) || p.at(token.EOF)
}

func (p *Parser) parseExprStatement() ast.StmtID {
	start := p.tok.Span
	stmts := p.mod.Stmts
	first := p.parseExprList()

	switch {
	case p.at(token.Colon):
		p.advance()
		p.checkTarget(first, true)
		ann := p.parseExpr()
		value := ast.NoExprID
		if p.accept(token.Assign) {
			value = p.parseExprList()
		}
		return stmts.NewAnnAssign(p.spanFrom(start), first, ann, value)

	case p.tok.Kind.IsAugAssign():
		opTok := p.advance()
		op, ok := augOps[opTok.Kind]
		if !ok {
			p.unsupported(opTok.Span, "operator "+opTok.Kind.String())
		}
		p.checkTarget(first, true)
		value := p.parseExprList()
		return stmts.NewAugAssign(p.spanFrom(start), first, op, value)

	case p.at(token.Assign):
		targets := []ast.ExprID{first}
		var value ast.ExprID
		for p.accept(token.Assign) {
			value = p.parseExprList()
			if p.at(token.Assign) {
				targets = append(targets, value)
			}
		}
		for _, t := range targets {
			p.checkTarget(t, false)
		}
		return stmts.NewAssign(p.spanFrom(start), targets, value)
	}
	return stmts.NewExpr(p.spanFrom(start), first)
}

var augOps = map[token.Kind]ast.BinaryOp{
	token.PlusAssign:    ast.BinAdd,
	token.MinusAssign:   ast.BinSub,
	token.StarAssign:    ast.BinMul,
	token.SlashAssign:   ast.BinDiv,
	token.FloorAssign:   ast.BinFloorDiv,
	token.PercentAssign: ast.BinMod,
	token.PowAssign:     ast.BinPow,
	token.AmpAssign:     ast.BinBitAnd,
	token.PipeAssign:    ast.BinBitOr,
	token.CaretAssign:   ast.BinBitXor,
	token.ShlAssign:     ast.BinShl,
	token.ShrAssign:     ast.BinShr,
}

// checkTarget validates an assignment target; single forbids tuple targets (annotated and augmented forms).
func (p *Parser) checkTarget(id ast.ExprID, single bool) {
	e := p.mod.Exprs.Get(id)
	switch e.Kind {
	case ast.ExprName, ast.ExprAttr, ast.ExprIndex:
		return
	case ast.ExprTuple, ast.ExprList:
		if !single {
			seq, _ := p.mod.Exprs.Seq(id)
			for _, el := range seq.Elems {
				p.checkTarget(el, false)
			}
			return
		}
	}
	p.errorf(diag.SynBadAssignTarget, e.Span, "cannot assign to "+e.Kind.String())
}

func (p *Parser) parseImport() ast.StmtID {
	start := p.advance().Span
	var names []ast.ImportName
	for {
		nameStart := p.tok.Span
		dotted := p.parseDottedName()
		alias := ""
		if p.accept(token.KwAs) {
			alias = p.expect(token.Ident).Text
		}
		names = append(names, ast.ImportName{Name: dotted, Alias: alias, Span: p.spanFrom(nameStart)})
		if !p.accept(token.Comma) {
			break
		}
	}
	return p.mod.Stmts.NewImport(p.spanFrom(start), names)
}

func (p *Parser) parseFromImport() ast.StmtID {
	start := p.advance().Span
	if p.at(token.Dot) || p.at(token.Ellipsis) {
		p.unsupported(p.tok.Span, "relative import")
	}
	modStart := p.tok.Span
	module := p.parseDottedName()
	data := ast.ImportFromData{Module: module, ModuleSpan: p.spanFrom(modStart)}
	p.expect(token.KwImport)
	if p.at(token.Star) {
		p.unsupported(p.tok.Span, "wildcard import")
	}
	paren := p.accept(token.LParen)
	for {
		tok := p.expect(token.Ident)
		in := ast.ImportName{Name: tok.Text, Span: tok.Span}
		if p.accept(token.KwAs) {
			in.Alias = p.expect(token.Ident).Text
			in.Span = p.spanFrom(tok.Span)
		}
		data.Names = append(data.Names, in)
		if !p.accept(token.Comma) {
			break
		}
		if paren && p.at(token.RParen) {
			break
		}
	}
	if paren {
		p.expect(token.RParen)
	}
	return p.mod.Stmts.NewImportFrom(p.spanFrom(start), data)
}

func (p *Parser) parseDottedName() string {
	name := p.expect(token.Ident).Text
	for p.accept(token.Dot) {
		name += "." + p.expect(token.Ident).Text
	}
	return name
}
