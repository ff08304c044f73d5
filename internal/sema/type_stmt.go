package sema

import (
	"github.com/hashicorp/go-set/v3"

	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/symbols"
	"waspy/internal/types"
)

func (c *checker) checkFunc(f *Func) {
	c.fn, c.scope = f, f.Scope
	c.flow = newFlow()
	c.loops = nil
	c.handlerDepth = 0
	f.reads = set.New[symbols.SymbolID](4)
	f.calls = set.New[*Func](4)
	defer func() {
		c.fn, c.scope, c.flow = nil, symbols.NoScopeID, nil
	}()

	for i, p := range f.Decl.Params {
		if i >= len(f.Params) {
			break
		}
		c.flow.assigned.Insert(f.Params[i])
		if p.Default != ast.NoExprID {
			psym := f.Params[i]
			dt := c.expr(p.Default, c.table.Symbol(psym).Type)
			c.bindParam(psym, dt, p.Default, f.Name+"()")
		}
	}
	c.block(f.Decl.Body)
	f.fallsThrough = !c.flow.dead
	if f.fallsThrough {
		c.implicitReturn(f)
	}
}

func (c *checker) implicitReturn(f *Func) {
	if f.declaredResult {
		if !c.in.Assignable(f.Result, c.b.None) {
			c.errorf(diag.TypeMissingReturn, f.Decl.NameSpan, "%q must return %s on every path", f.Name, c.typeName(f.Result))
		}
		return
	}
	if c.in.KindOf(f.Result) == types.KindUnresolved {
		// a function whose returns are still being inferred settles later
		if f.returns {
			return
		}
		f.Result = c.b.None
		c.changed = true
		return
	}
	if _, ok := c.in.Join(f.Result, c.b.None); !ok {
		c.errorf(diag.TypeMissingReturn, f.Decl.NameSpan, "%q returns %s but can also fall off the end", f.Name, c.typeName(f.Result))
	}
}

func (c *checker) checkModuleBody() {
	c.fn = nil
	c.scope = c.modScope
	c.flow = newFlow()
	c.loops = nil
	c.handlerDepth = 0
	c.steps = make(map[ast.StmtID]*stepDeps, len(c.mod.Body))
	for _, id := range c.mod.Body {
		c.step = newStepDeps()
		c.steps[id] = c.step
		c.stmt(id)
		c.flow.dead = false
	}
	c.step = nil
	c.flow = nil
	c.scope = symbols.NoScopeID
}

func (c *checker) block(stmts []ast.StmtID) {
	for _, id := range stmts {
		c.stmt(id)
	}
}

// branch walks stmts from a copy of start and returns the state at their end.
func (c *checker) branch(start *flowState, stmts []ast.StmtID) *flowState {
	c.flow = start.clone()
	c.block(stmts)
	return c.flow
}

func (c *checker) stmt(id ast.StmtID) {
	st := c.mod.Stmts.Get(id)
	switch st.Kind {
	case ast.StmtExpr:
		d, _ := c.mod.Stmts.Expr(id)
		c.expr(d.X, types.NoTypeID)
	case ast.StmtAssign:
		d, _ := c.mod.Stmts.Assign(id)
		expected := types.NoTypeID
		if len(d.Targets) == 1 {
			expected = c.targetType(d.Targets[0])
		}
		vt := c.expr(d.Value, expected)
		for _, t := range d.Targets {
			c.assignTarget(t, vt, d.Value)
		}
	case ast.StmtAnnAssign:
		c.annAssign(id)
	case ast.StmtAugAssign:
		c.augAssign(id)
	case ast.StmtIf:
		d, _ := c.mod.Stmts.If(id)
		c.truthy(d.Cond, c.expr(d.Cond, types.NoTypeID))
		entry := c.flow
		then := c.branch(entry, d.Body)
		els := c.branch(entry, d.Else)
		c.flow = mergeFlow(then, els)
	case ast.StmtWhile:
		d, _ := c.mod.Stmts.While(id)
		c.truthy(d.Cond, c.expr(d.Cond, types.NoTypeID))
		c.loop(nil, d.Body, d.Else, c.alwaysTrue(d.Cond))
	case ast.StmtFor:
		d, _ := c.mod.Stmts.For(id)
		elem := c.iterElem(d.Iter)
		c.loop(func() { c.assignTarget(d.Target, elem, d.Iter) }, d.Body, d.Else, false)
	case ast.StmtBreak:
		c.flowBreak()
	case ast.StmtContinue:
		c.flowDead()
	case ast.StmtPass, ast.StmtImport, ast.StmtImportFrom, ast.StmtGlobal, ast.StmtFuncDef:
	case ast.StmtReturn:
		c.returnStmt(id)
	case ast.StmtRaise:
		c.raiseStmt(id)
	case ast.StmtTry:
		c.tryStmt(id)
	case ast.StmtAssert:
		d, _ := c.mod.Stmts.Assert(id)
		c.truthy(d.Test, c.expr(d.Test, types.NoTypeID))
		if d.Msg != ast.NoExprID {
			c.stringable(d.Msg, c.expr(d.Msg, types.NoTypeID))
		}
	case ast.StmtClassDef:
		c.classBody(id)
	}
}

// loop walks a loop body. After the loop the state is the entry state (the
// body may not run) merged with every break; an infinite loop only exits
// through break. head runs at the top of every iteration.
func (c *checker) loop(head func(), body, els []ast.StmtID, infinite bool) {
	entry := c.flow
	l := c.enterLoop()
	c.flow = entry.clone()
	if head != nil {
		head()
	}
	c.block(body)
	c.leaveLoop()
	exits := l.breaks
	if !infinite {
		exits = append(exits, c.branch(entry, els))
	}
	c.flow = mergeFlow(exits...)
}

// iterElem types the iterable of a for loop and returns the element type.
func (c *checker) iterElem(iter ast.ExprID) types.TypeID {
	if call, ok := c.isRangeCall(iter); ok {
		c.callRange(iter, call)
		return c.b.Int
	}
	t := c.expr(iter, types.NoTypeID)
	if r, stop := c.unknown(t); stop {
		return r
	}
	switch c.in.KindOf(t) {
	case types.KindList, types.KindSet:
		return c.in.Elem(t)
	case types.KindStr:
		return c.b.Str
	case types.KindBytes:
		return c.b.Int
	}
	c.errorf(diag.TypeNotIterable, c.exprSpan(iter), "%s is not iterable", c.typeName(t))
	return types.NoTypeID
}

// targetType is the current type of an assignment target, used as the
// expected type of the value.
func (c *checker) targetType(target ast.ExprID) types.TypeID {
	if n, ok := c.mod.Exprs.Name(target); ok {
		if symID, ok := c.table.Lookup(c.scopeOrModule(), n.Name); ok {
			return c.table.Symbol(symID).Type
		}
		return types.NoTypeID
	}
	if a, ok := c.mod.Exprs.Attr(target); ok {
		if ref := c.resolveRef(a.Target); ref.kind == refClass {
			if sym, ok := c.classVar(ref.class, a.Name); ok {
				return c.table.Symbol(sym).Type
			}
			return types.NoTypeID
		}
		if self, ok := c.mod.Exprs.Name(a.Target); ok && c.fn != nil && c.fn.Class != nil && len(c.fn.Params) > 0 {
			if c.table.Symbol(c.fn.Params[0]).Name == self.Name {
				if sym, _, ok := c.fieldSym(c.fn.Class, a.Name); ok {
					return c.table.Symbol(sym).Type
				}
			}
		}
	}
	return types.NoTypeID
}

func (c *checker) assignTarget(target ast.ExprID, vt types.TypeID, value ast.ExprID) {
	e := c.mod.Exprs.Get(target)
	switch e.Kind {
	case ast.ExprName:
		n, _ := c.mod.Exprs.Name(target)
		c.assignName(target, n.Name, vt)
	case ast.ExprAttr:
		d, _ := c.mod.Exprs.Attr(target)
		c.assignAttr(target, d, vt, value)
	case ast.ExprIndex:
		d, _ := c.mod.Exprs.Index(target)
		tt := c.expr(d.Target, types.NoTypeID)
		c.indexType(d.Index)
		if _, stop := c.unknown(tt, vt); stop {
			c.record(target, types.NoTypeID)
			return
		}
		if c.in.KindOf(tt) != types.KindList {
			c.errorf(diag.TypeBadIndex, c.exprSpan(target), "%s does not support item assignment", c.typeName(tt))
			c.invalid(target)
			return
		}
		elem := c.in.Elem(tt)
		if c.in.HasUnresolved(elem) {
			c.refineExpr(d.Target, c.in.ListOf(vt))
			elem = c.in.Elem(c.res.ExprTypes[d.Target])
		}
		if !c.in.Assignable(elem, vt) {
			c.errorf(diag.TypeMismatch, c.exprSpan(value), "cannot store %s in %s", c.typeName(vt), c.typeName(tt))
		}
		c.record(target, elem)
	default:
		c.errorf(diag.TypeUnsupported, e.Span, "cannot assign to %s", e.Kind)
		c.invalid(target)
	}
}

func (c *checker) annAssign(id ast.StmtID) {
	d, _ := c.mod.Stmts.AnnAssign(id)
	ann, ok := c.annotation(d.Annotation)
	if !ok {
		if d.Value != ast.NoExprID {
			c.expr(d.Value, types.NoTypeID)
		}
		return
	}
	if n, isName := c.mod.Exprs.Name(d.Target); isName {
		if symID, found := c.table.Lookup(c.scopeOrModule(), n.Name); found {
			c.declare(symID, ann, d.Target)
		}
	}
	if d.Value == ast.NoExprID {
		if _, isName := c.mod.Exprs.Name(d.Target); isName {
			c.res.Names[d.Target], _ = c.table.Lookup(c.scopeOrModule(), c.nameOf(d.Target))
			c.record(d.Target, ann)
		} else {
			c.targetOnly(d.Target)
		}
		return
	}
	vt := c.expr(d.Value, ann)
	c.assignTarget(d.Target, vt, d.Value)
}

// declare fixes the type of a variable from an annotation.
func (c *checker) declare(symID symbols.SymbolID, ann types.TypeID, at ast.ExprID) {
	sym := c.table.Symbol(symID)
	switch sym.Kind {
	case symbols.SymbolLocal, symbols.SymbolGlobal, symbols.SymbolClassVar:
	default:
		return
	}
	if sym.Flags&symbols.SymbolFlagDeclared != 0 {
		if sym.Type != ann && !c.in.HasUnresolved(ann) {
			c.errorf(diag.TypeReassign, c.exprSpan(at), "%q is already declared as %s", sym.Name, c.typeName(sym.Type))
		}
		return
	}
	if c.in.KindOf(sym.Type) != types.KindUnresolved && !c.in.Assignable(ann, sym.Type) {
		c.errorf(diag.TypeReassign, c.exprSpan(at), "%q was first assigned %s; cannot declare it %s", sym.Name, c.typeName(sym.Type), c.typeName(ann))
		return
	}
	sym.Flags |= symbols.SymbolFlagDeclared
	c.setType(symID, ann)
}

func (c *checker) nameOf(id ast.ExprID) string {
	if n, ok := c.mod.Exprs.Name(id); ok {
		return n.Name
	}
	return ""
}

// targetOnly types a bare annotated attribute (self.x: int) without a value.
func (c *checker) targetOnly(target ast.ExprID) {
	if a, ok := c.mod.Exprs.Attr(target); ok {
		c.expr(a.Target, types.NoTypeID)
	}
}

func (c *checker) augAssign(id ast.StmtID) {
	d, _ := c.mod.Stmts.AugAssign(id)
	// the target is read, combined, then stored back
	bin := &ast.BinaryData{Op: d.Op, Left: d.Target, Right: d.Value}
	lt := c.expr(d.Target, types.NoTypeID)
	rt := c.expr(d.Value, types.NoTypeID)
	c.noteNumeric(d.Target, d.Value)
	vt := c.augResult(id, bin, lt, rt)
	if _, stop := c.unknown(lt, vt); stop {
		return
	}
	if !c.in.Assignable(lt, vt) {
		c.errorf(diag.TypeReassign, c.stmtSpan(id), "%s= produces %s, which cannot be stored in %s", d.Op, c.typeName(vt), c.typeName(lt))
	}
	if n, ok := c.mod.Exprs.Name(d.Target); ok {
		if symID, found := c.table.Lookup(c.scopeOrModule(), n.Name); found {
			if sym := c.table.Symbol(symID); sym.Kind == symbols.SymbolGlobal || sym.Kind == symbols.SymbolClassVar {
				c.noteRead(symID)
			}
			c.markAssigned(symID)
		}
	}
}

// augResult types "target op= value" like the binary expression it expands to.
func (c *checker) augResult(id ast.StmtID, d *ast.BinaryData, lt, rt types.TypeID) types.TypeID {
	if t, stop := c.unknown(lt, rt); stop {
		return t
	}
	lk, rk := c.in.KindOf(lt), c.in.KindOf(rt)
	if lk == types.KindExternal || rk == types.KindExternal {
		lref, lok := c.refOf(lt, false)
		rref, rok := c.refOf(rt, false)
		if lok && rok {
			if sym, ok := c.shims.Operator(d.Op.String(), lref, rref); ok {
				c.res.AugOps[id] = sym
				return c.typeOfRef(sym.Result)
			}
		}
	}
	if c.numeric(lt) && c.numeric(rt) {
		switch d.Op {
		case ast.BinDiv:
			return c.b.Float
		case ast.BinAdd, ast.BinSub, ast.BinMul, ast.BinFloorDiv, ast.BinMod, ast.BinPow:
			return c.promote(lt, rt)
		case ast.BinBitAnd, ast.BinBitOr, ast.BinBitXor, ast.BinShl, ast.BinShr:
			if c.intLike(lt) && c.intLike(rt) {
				return c.b.Int
			}
		}
	}
	switch {
	case lk == rk && (lk == types.KindStr || lk == types.KindBytes) && d.Op == ast.BinAdd:
		return lt
	case (lk == types.KindStr || lk == types.KindBytes || lk == types.KindList) && c.intLike(rt) && d.Op == ast.BinMul:
		return lt
	case lk == types.KindList && rk == types.KindList && d.Op == ast.BinAdd:
		if t, ok := c.in.Join(lt, rt); ok {
			return t
		}
	case lk == types.KindSet && rk == types.KindSet:
		switch d.Op {
		case ast.BinBitOr, ast.BinBitAnd, ast.BinSub, ast.BinBitXor:
			if t, ok := c.in.Join(lt, rt); ok {
				return t
			}
		}
	}
	c.errorf(diag.TypeBadOperand, c.stmtSpan(id), "unsupported operand types for %s=: %s and %s", d.Op, c.typeName(lt), c.typeName(rt))
	return types.NoTypeID
}

func (c *checker) returnStmt(id ast.StmtID) {
	d, _ := c.mod.Stmts.Return(id)
	f := c.fn
	if f == nil {
		c.errorf(diag.TypeUnsupported, c.stmtSpan(id), "return outside of a function")
		return
	}
	rt := c.b.None
	at := id
	if d.Value != ast.NoExprID {
		exp := types.NoTypeID
		if f.declaredResult {
			exp = f.Result
		}
		rt = c.expr(d.Value, exp)
	}
	f.returns = true
	c.flowDead()
	if _, stop := c.unknown(rt); stop {
		return
	}
	if f.declaredResult {
		if !c.in.Assignable(f.Result, rt) {
			c.errorf(diag.TypeReturnMismatch, c.stmtSpan(at), "%q returns %s, not %s", f.Name, c.typeName(f.Result), c.typeName(rt))
			return
		}
		if d.Value != ast.NoExprID {
			c.refineExpr(d.Value, f.Result)
		}
		return
	}
	joined, ok := c.in.Join(f.Result, rt)
	if !ok {
		c.errorf(diag.TypeReturnMismatch, c.stmtSpan(at), "%q returns both %s and %s", f.Name, c.typeName(f.Result), c.typeName(rt))
		return
	}
	if joined != f.Result {
		f.Result = joined
		c.changed = true
	}
}

func (c *checker) raiseStmt(id ast.StmtID) {
	d, _ := c.mod.Stmts.Raise(id)
	defer c.flowDead()
	if d.Exc == ast.NoExprID {
		if c.handlerDepth == 0 {
			c.errorf(diag.TypeBadRaise, c.stmtSpan(id), "bare raise outside of an except clause")
		}
		return
	}
	if ref := c.resolveRef(d.Exc); ref.kind == refClass && ref.class != nil {
		if !ref.class.IsException() {
			c.errorf(diag.TypeBadRaise, c.exprSpan(d.Exc), "exceptions must derive from BaseException, not %q", ref.class.Name)
			return
		}
		// raise C is raise C()
		c.callCtor(d.Exc, &ast.CallData{Func: d.Exc}, ref.class)
		return
	}
	t := c.expr(d.Exc, types.NoTypeID)
	if _, stop := c.unknown(t); stop {
		return
	}
	if cls := c.classByTy[t]; cls == nil || !cls.IsException() {
		c.errorf(diag.TypeBadRaise, c.exprSpan(d.Exc), "exceptions must derive from BaseException, not %s", c.typeName(t))
	}
}

func (c *checker) tryStmt(id ast.StmtID) {
	d, _ := c.mod.Stmts.Try(id)
	entry := c.flow
	body := c.branch(entry, d.Body)
	normal := c.branch(body, d.Else)
	ends := []*flowState{normal}
	for i, h := range d.Handlers {
		c.flow = entry.clone()
		var caught types.TypeID
		if h.Type != ast.NoExprID {
			classes, ok := c.classList(h.Type)
			if ok {
				for _, t := range classes {
					if cls := c.classByTy[t]; cls == nil || !cls.IsException() {
						c.errorf(diag.TypeBadExceptClass, c.exprSpan(h.Type), "%s is not an exception class", c.typeName(t))
						ok = false
					}
				}
			}
			if ok {
				c.res.ExceptTypes[h.Type] = classes
				caught = classes[0]
				for _, t := range classes[1:] {
					caught, _ = c.in.CommonBase(caught, t)
				}
			}
		}
		if h.Name != "" {
			if symID, found := c.table.Lookup(c.scopeOrModule(), h.Name); found {
				c.res.HandlerVars[HandlerKey{Stmt: id, Index: i}] = symID
				if caught != types.NoTypeID {
					c.bindValue(symID, caught, h.Type)
				}
				c.markAssigned(symID)
			}
		}
		c.handlerDepth++
		c.block(h.Body)
		c.handlerDepth--
		ends = append(ends, c.flow)
	}
	after := mergeFlow(ends...)
	if len(d.Finally) > 0 {
		fin := c.branch(entry, d.Finally)
		after.assigned = after.assigned.Union(fin.assigned).(*set.Set[symbols.SymbolID])
		after.dead = after.dead || fin.dead
	}
	c.flow = after
}

// classBody evaluates class variable initializers when the class statement runs.
func (c *checker) classBody(id ast.StmtID) {
	cls := c.classBySym[c.symOfClassStmt(id)]
	if cls == nil {
		return
	}
	data, _ := c.mod.Stmts.ClassDef(id)
	saved := c.scope
	c.scope = cls.Scope
	defer func() { c.scope = saved }()
	for _, sid := range data.Body {
		st := c.mod.Stmts.Get(sid)
		switch st.Kind {
		case ast.StmtAssign, ast.StmtAnnAssign:
			if st.Kind == ast.StmtAnnAssign {
				if d, _ := c.mod.Stmts.AnnAssign(sid); d.Value == ast.NoExprID {
					continue
				}
			}
			c.stmt(sid)
		}
	}
}

func (c *checker) symOfClassStmt(id ast.StmtID) symbols.SymbolID {
	for _, cls := range c.classes {
		if !cls.Builtin && cls.Stmt == id {
			return cls.Sym
		}
	}
	return symbols.NoSymbolID
}
