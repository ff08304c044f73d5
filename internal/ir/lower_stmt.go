package ir

import (
	"waspy/internal/ast"
	"waspy/internal/rt"
	"waspy/internal/sema"
	"waspy/internal/stdlib"
	"waspy/internal/symbols"
	"waspy/internal/types"
)

func (l *funcLowerer) block(stmts []ast.StmtID) error {
	for _, id := range stmts {
		if err := l.stmt(id); err != nil {
			return err
		}
	}
	return nil
}

func (l *funcLowerer) stmt(id ast.StmtID) error {
	st := l.ast.Stmts.Get(id)
	switch st.Kind {
	case ast.StmtExpr:
		d, _ := l.ast.Stmts.Expr(id)
		_, err := l.expr(d.X)
		return err
	case ast.StmtAssign:
		d, _ := l.ast.Stmts.Assign(id)
		v, err := l.expr(d.Value)
		if err != nil {
			return err
		}
		if len(d.Targets) > 1 {
			v = l.spill(v)
		}
		for _, t := range d.Targets {
			if err := l.assignTo(t, v); err != nil {
				return err
			}
		}
		return nil
	case ast.StmtAnnAssign:
		d, _ := l.ast.Stmts.AnnAssign(id)
		if d.Value == ast.NoExprID {
			return nil
		}
		v, err := l.expr(d.Value)
		if err != nil {
			return err
		}
		return l.assignTo(d.Target, v)
	case ast.StmtAugAssign:
		return l.augAssign(id)
	case ast.StmtIf:
		d, _ := l.ast.Stmts.If(id)
		return l.ifStmt(d)
	case ast.StmtWhile:
		d, _ := l.ast.Stmts.While(id)
		return l.whileStmt(d)
	case ast.StmtFor:
		d, _ := l.ast.Stmts.For(id)
		return l.forStmt(d)
	case ast.StmtBreak:
		return l.loopExit(true)
	case ast.StmtContinue:
		return l.loopExit(false)
	case ast.StmtReturn:
		d, _ := l.ast.Stmts.Return(id)
		return l.returnStmt(d)
	case ast.StmtRaise:
		d, _ := l.ast.Stmts.Raise(id)
		return l.raiseStmt(d)
	case ast.StmtTry:
		d, _ := l.ast.Stmts.Try(id)
		return l.tryStmt(id, d)
	case ast.StmtAssert:
		d, _ := l.ast.Stmts.Assert(id)
		return l.assertStmt(d)
	case ast.StmtClassDef:
		return l.classBody(id)
	case ast.StmtPass, ast.StmtImport, ast.StmtImportFrom, ast.StmtGlobal, ast.StmtFuncDef:
		return nil
	}
	return internalf(l.f.Name, "unexpected statement %v", st.Kind)
}

// classBody runs the class variable initializers of a class statement.
func (l *funcLowerer) classBody(id ast.StmtID) error {
	d, _ := l.ast.Stmts.ClassDef(id)
	for _, sid := range d.Body {
		switch l.ast.Stmts.Get(sid).Kind {
		case ast.StmtAssign, ast.StmtAnnAssign:
			if err := l.stmt(sid); err != nil {
				return err
			}
		}
	}
	return nil
}

// assignTo stores v into an assignment target.
func (l *funcLowerer) assignTo(target ast.ExprID, v Operand) error {
	e := l.ast.Exprs.Get(target)
	switch e.Kind {
	case ast.ExprName:
		symID, ok := l.res.Names[target]
		if !ok {
			return internalf(l.f.Name, "unresolved assignment target")
		}
		l.storeSym(symID, v)
		return nil
	case ast.ExprAttr:
		d, _ := l.ast.Exprs.Attr(target)
		info := l.res.Attrs[target]
		if info == nil {
			return internalf(l.f.Name, "unresolved attribute %s", d.Name)
		}
		if info.Kind == sema.AttrClassVar {
			l.storeSym(info.Global, v)
			return nil
		}
		obj, err := l.expr(d.Target)
		if err != nil {
			return err
		}
		fld, ok := l.field(info.Record, d.Name)
		if !ok {
			return internalf(l.f.Name, "no field %s", d.Name)
		}
		l.setField(obj, fld.Offset, l.coerce(v, fld.Type))
		return nil
	case ast.ExprIndex:
		d, _ := l.ast.Exprs.Index(target)
		seq, err := l.expr(d.Target)
		if err != nil {
			return err
		}
		idx, err := l.exprAs(d.Index, l.b.Int)
		if err != nil {
			return err
		}
		addr := l.callRT(rt.SeqSlot, l.word(), seq, idx)
		l.setField(addr, 0, l.coerce(v, l.in.Elem(seq.Type)))
		return nil
	}
	return internalf(l.f.Name, "cannot assign to %v", e.Kind)
}

// storeSym writes a local or a global symbol.
func (l *funcLowerer) storeSym(symID symbols.SymbolID, v Operand) {
	if loc, ok := l.locals[symID]; ok {
		l.assign(loc, l.coerce(v, l.f.Locals[loc].Type))
		return
	}
	if g, ok := l.globals[symID]; ok {
		l.emit(&Instr{Kind: InstrStoreGlobal, StoreGlobal: StoreGlobalInstr{Global: g, Value: l.coerce(v, l.out.Globals[g].Type)}})
	}
}

// loadSym reads a local or a global symbol.
func (l *funcLowerer) loadSym(symID symbols.SymbolID) (Operand, bool) {
	if loc, ok := l.locals[symID]; ok {
		return LocalOperand(loc, l.f.Locals[loc].Type), true
	}
	if g, ok := l.globals[symID]; ok {
		ty := l.out.Globals[g].Type
		return l.value(RValue{Kind: RValueLoadGlobal, Global: g}, ty, l.out.Globals[g].Name), true
	}
	return Operand{}, false
}

func (l *funcLowerer) setField(obj Operand, off uint32, v Operand) {
	l.emit(&Instr{Kind: InstrSetField, SetField: SetFieldInstr{Object: obj, Offset: off, Value: v}})
}

func (l *funcLowerer) field(rec types.TypeID, name string) (Field, bool) {
	for _, r := range l.out.Records {
		if r.Type != rec {
			continue
		}
		for _, f := range r.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return Field{}, false
}

func (l *funcLowerer) augAssign(id ast.StmtID) error {
	d, _ := l.ast.Stmts.AugAssign(id)
	shim := l.res.AugOps[id]
	e := l.ast.Exprs.Get(d.Target)
	switch e.Kind {
	case ast.ExprName:
		cur, err := l.expr(d.Target)
		if err != nil {
			return err
		}
		cur = l.spill(cur)
		rhs, err := l.expr(d.Value)
		if err != nil {
			return err
		}
		v, err := l.augBinary(d.Op, cur, rhs, shim)
		if err != nil {
			return err
		}
		return l.assignTo(d.Target, v)
	case ast.ExprAttr:
		a, _ := l.ast.Exprs.Attr(d.Target)
		info := l.res.Attrs[d.Target]
		if info != nil && info.Kind == sema.AttrClassVar {
			cur, _ := l.loadSym(info.Global)
			rhs, err := l.expr(d.Value)
			if err != nil {
				return err
			}
			v, err := l.augBinary(d.Op, cur, rhs, shim)
			if err != nil {
				return err
			}
			l.storeSym(info.Global, v)
			return nil
		}
		if info == nil {
			return internalf(l.f.Name, "unresolved attribute %s", a.Name)
		}
		obj, err := l.expr(a.Target)
		if err != nil {
			return err
		}
		obj = l.spill(obj)
		fld, ok := l.field(info.Record, a.Name)
		if !ok {
			return internalf(l.f.Name, "no field %s", a.Name)
		}
		cur := l.value(RValue{Kind: RValueField, X: obj, Offset: fld.Offset}, fld.Type, a.Name)
		rhs, err := l.expr(d.Value)
		if err != nil {
			return err
		}
		v, err := l.augBinary(d.Op, cur, rhs, shim)
		if err != nil {
			return err
		}
		l.setField(obj, fld.Offset, l.coerce(v, fld.Type))
		return nil
	case ast.ExprIndex:
		ix, _ := l.ast.Exprs.Index(d.Target)
		seq, err := l.expr(ix.Target)
		if err != nil {
			return err
		}
		seq = l.spill(seq)
		idx, err := l.exprAs(ix.Index, l.b.Int)
		if err != nil {
			return err
		}
		idx = l.spill(idx)
		elem := l.in.Elem(seq.Type)
		addr := l.callRT(rt.SeqSlot, l.word(), seq, idx)
		cur := l.value(RValue{Kind: RValueField, X: addr}, elem, "elem")
		rhs, err := l.expr(d.Value)
		if err != nil {
			return err
		}
		v, err := l.augBinary(d.Op, cur, rhs, shim)
		if err != nil {
			return err
		}
		// the right side may have resized the list
		addr = l.callRT(rt.SeqSlot, l.word(), seq, idx)
		l.setField(addr, 0, l.coerce(v, elem))
		return nil
	}
	return internalf(l.f.Name, "cannot assign to %v", e.Kind)
}

// augBinary combines the current value of an augmented target with the
// right side. list += extends the list in place.
func (l *funcLowerer) augBinary(op ast.BinaryOp, cur, rhs Operand, shim *stdlib.Symbol) (Operand, error) {
	if shim == nil && op == ast.BinAdd && l.in.KindOf(cur.Type) == types.KindList {
		l.callRT(rt.ListExtend, types.NoTypeID, cur, rhs)
		return cur, nil
	}
	return l.binary(op, cur, rhs, l.augResult(op, cur.Type, rhs.Type), shim)
}

// augResult is the type of "x op= y" before it is stored back into x.
func (l *funcLowerer) augResult(op ast.BinaryOp, lt, yt types.TypeID) types.TypeID {
	if l.in.IsNumeric(lt) && l.in.IsNumeric(yt) {
		switch op {
		case ast.BinDiv:
			return l.b.Float
		case ast.BinBitAnd, ast.BinBitOr, ast.BinBitXor, ast.BinShl, ast.BinShr:
			if l.in.KindOf(lt) == types.KindBool && l.in.KindOf(yt) == types.KindBool && op != ast.BinShl && op != ast.BinShr {
				return l.b.Bool
			}
			return l.b.Int
		}
		return l.promote(lt, yt)
	}
	return lt
}

func (l *funcLowerer) ifStmt(d *ast.IfData) error {
	cond, err := l.truthOf(d.Cond)
	if err != nil {
		return err
	}
	then, after := l.newBlock(), l.newBlock()
	els := after
	if len(d.Else) > 0 {
		els = l.newBlock()
	}
	l.branch(cond, then, els)
	l.startBlock(then)
	if err := l.block(d.Body); err != nil {
		return err
	}
	l.jump(after)
	if len(d.Else) > 0 {
		l.startBlock(els)
		if err := l.block(d.Else); err != nil {
			return err
		}
		l.jump(after)
	}
	l.startBlock(after)
	return nil
}

func (l *funcLowerer) returnStmt(d *ast.ReturnData) error {
	term := Terminator{Kind: TermReturn}
	if d.Value != ast.NoExprID {
		v, err := l.exprAs(d.Value, l.f.Result)
		if err != nil {
			return err
		}
		if l.in.KindOf(l.f.Result) != types.KindNone {
			term.Return = ReturnTerm{HasValue: true, Value: l.spill(v)}
		}
	}
	l.unwind(0)
	l.setTerm(&term)
	return nil
}

func (l *funcLowerer) loopExit(isBreak bool) error {
	if len(l.loops) == 0 {
		return internalf(l.f.Name, "break or continue outside of a loop")
	}
	lp := l.loops[len(l.loops)-1]
	l.unwind(lp.depth)
	if isBreak {
		l.jump(lp.brk)
	} else {
		l.jump(lp.cont)
	}
	return nil
}
