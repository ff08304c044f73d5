package sema

import (
	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/stdlib"
	"waspy/internal/types"
)

func (c *checker) exprCall(id ast.ExprID, call *ast.CallData, expected types.TypeID) types.TypeID {
	if a, ok := c.mod.Exprs.Attr(call.Func); ok && c.isSuperCall(a.Target) {
		return c.callSuper(id, call, a)
	}
	ref := c.resolveRef(call.Func)
	switch ref.kind {
	case refFunc:
		if ref.fn == nil {
			break
		}
		// f(...), Class.static(...) and Class.method(obj, ...)
		return c.callUser(id, call, ref.fn, CallFunc, 0, ast.NoExprID)
	case refClass:
		return c.callCtor(id, call, ref.class)
	case refBuiltin:
		return c.callBuiltin(id, call, ref.builtin, expected)
	case refShimFunc:
		return c.callShim(id, call, ref.shim, CallShim, ast.NoExprID, 0)
	case refShimType:
		if ref.typ.Ctor == nil {
			c.errorf(diag.TypeNotCallable, c.exprSpan(call.Func), "%s.%s cannot be constructed directly", ref.typ.Module, ref.typ.Name)
			c.typeArgs(call)
			return c.invalid(id)
		}
		return c.callShim(id, call, ref.typ.Ctor, CallShim, ast.NoExprID, 0)
	case refUndefined:
		if ref.name == "super" {
			c.errorf(diag.TypeUnsupported, c.exprSpan(id), "super() is only supported as super().method(...)")
		} else {
			c.errorf(diag.NameUndefined, c.exprSpan(call.Func), "name %q is not defined", ref.name)
		}
		c.typeArgs(call)
		return c.invalid(id)
	case refValue:
		if a, ok := c.mod.Exprs.Attr(call.Func); ok && ref.class == nil {
			return c.callMethod(id, call, a)
		}
		if ft := c.expr(call.Func, types.NoTypeID); ft != types.NoTypeID {
			c.errorf(diag.TypeNotCallable, c.exprSpan(call.Func), "value of type %s is not callable", c.typeName(ft))
		}
		c.typeArgs(call)
		return c.invalid(id)
	}
	c.errorf(diag.TypeNotCallable, c.exprSpan(call.Func), "%q is not callable", c.mod.ExprString(call.Func))
	c.typeArgs(call)
	return c.invalid(id)
}

// callUser resolves a call to a user function or method. skip drops the
// leading self parameter that a receiver or constructor supplies.
func (c *checker) callUser(id ast.ExprID, call *ast.CallData, f *Func, kind CallKind, skip int, recv ast.ExprID) types.TypeID {
	decl := f.Decl.Params
	if skip > len(decl) || len(f.Params) != len(decl) {
		c.typeArgs(call)
		return c.invalid(id)
	}
	params := decl[skip:]
	specs := make([]paramSpec, len(params))
	for i, p := range params {
		specs[i] = paramSpec{name: p.Name, hasDefault: p.Default != ast.NoExprID}
	}
	c.noteCall(f)
	args, _, ok := c.bindArgs(id, call, specs, false, f.Name+"()")
	if !ok {
		c.typeArgs(call)
		return c.record(id, f.Result)
	}
	info := &CallInfo{
		Kind:     kind,
		Func:     f,
		Class:    f.Class,
		Recv:     recv,
		Args:     args,
		Defaults: make([]ast.ExprID, len(args)),
		Params:   make([]types.TypeID, len(args)),
	}
	for i, a := range args {
		psym := f.Params[skip+i]
		if a == ast.NoExprID {
			info.Defaults[i] = params[i].Default
		} else {
			at := c.expr(a, c.table.Symbol(psym).Type)
			c.bindParam(psym, at, a, f.Name+"()")
		}
		info.Params[i] = c.table.Symbol(psym).Type
	}
	c.res.Calls[id] = info
	return c.record(id, f.Result)
}

func (c *checker) callCtor(id ast.ExprID, call *ast.CallData, cls *Class) types.TypeID {
	kind := CallCtor
	if cls.Builtin {
		kind = CallException
	}
	init, owner := cls.FindInit()
	switch {
	case init != nil:
		c.callUser(id, call, init, kind, 1, ast.NoExprID)
		if info := c.res.Calls[id]; info != nil {
			info.Class = cls
		}
	case owner != nil:
		c.callExceptionInit(id, call, cls, kind)
	default:
		if _, _, ok := c.bindArgs(id, call, nil, false, cls.Name+"()"); !ok {
			c.typeArgs(call)
		}
		c.res.Calls[id] = &CallInfo{Kind: kind, Class: cls}
	}
	return c.record(id, cls.Type)
}

// callExceptionInit binds the builtin exception initializer (message="").
// Any printable value is accepted and converted with str().
func (c *checker) callExceptionInit(id ast.ExprID, call *ast.CallData, cls *Class, kind CallKind) {
	args, _, ok := c.bindArgs(id, call, []paramSpec{{name: "message", hasDefault: true}}, false, cls.Name+"()")
	if !ok {
		c.typeArgs(call)
		return
	}
	info := &CallInfo{Kind: kind, Class: cls, Args: args, Defaults: make([]ast.ExprID, 1), Params: []types.TypeID{c.b.Str}}
	if a := args[0]; a != ast.NoExprID {
		at := c.expr(a, c.b.Str)
		c.stringable(a, at)
		if at != types.NoTypeID {
			info.Params[0] = at
		}
	}
	c.res.Calls[id] = info
}

func (c *checker) isSuperCall(id ast.ExprID) bool {
	call, ok := c.mod.Exprs.Call(id)
	if !ok || len(call.Args) != 0 || len(call.Keywords) != 0 {
		return false
	}
	n, ok := c.mod.Exprs.Name(call.Func)
	if !ok || n.Name != "super" {
		return false
	}
	_, shadowed := c.table.Lookup(c.scopeOrModule(), "super")
	return !shadowed
}

func (c *checker) callSuper(id ast.ExprID, call *ast.CallData, a *ast.AttrData) types.TypeID {
	f := c.fn
	if f == nil || f.Class == nil || f.Static || f.Class.Base == nil {
		c.errorf(diag.TypeUnsupported, c.exprSpan(a.Target), "super() is only available in methods of derived classes")
		c.typeArgs(call)
		return c.invalid(id)
	}
	base := f.Class.Base
	c.record(a.Target, base.Type)
	if a.Name == "__init__" {
		init, owner := base.FindInit()
		switch {
		case init != nil:
			c.callUser(id, call, init, CallSuper, 1, ast.NoExprID)
		case owner != nil:
			c.callExceptionInit(id, call, owner, CallSuper)
		default:
			if _, _, ok := c.bindArgs(id, call, nil, false, base.Name+".__init__()"); !ok {
				c.typeArgs(call)
			}
			c.res.Calls[id] = &CallInfo{Kind: CallSuper, Class: base}
		}
		return c.record(id, c.b.None)
	}
	m := base.FindMethod(a.Name)
	if m == nil {
		c.errorf(diag.TypeUnknownAttr, a.NameSpan, "class %q has no method %q", base.Name, a.Name)
		c.typeArgs(call)
		return c.invalid(id)
	}
	if m.Static {
		return c.callUser(id, call, m, CallFunc, 0, ast.NoExprID)
	}
	return c.callUser(id, call, m, CallSuper, 1, ast.NoExprID)
}

// callMethod resolves recv.name(...) on a runtime value.
func (c *checker) callMethod(id ast.ExprID, call *ast.CallData, a *ast.AttrData) types.TypeID {
	rt := c.expr(a.Target, types.NoTypeID)
	if t, stop := c.unknown(rt); stop {
		c.typeArgs(call)
		return c.record(id, t)
	}
	switch c.in.KindOf(rt) {
	case types.KindRecord:
		cls := c.classByTy[rt]
		if cls == nil {
			break
		}
		m := cls.FindMethod(a.Name)
		if m == nil {
			break
		}
		if m.Static {
			return c.callUser(id, call, m, CallFunc, 0, ast.NoExprID)
		}
		return c.callUser(id, call, m, CallMethod, 1, a.Target)
	case types.KindList, types.KindSet:
		return c.callContainerMethod(id, call, a, rt)
	case types.KindStr, types.KindBytes, types.KindExternal:
		if ref, ok := c.refOf(rt, true); ok {
			if sym, ok := c.shims.Method(ref, a.Name); ok {
				return c.callShim(id, call, sym, CallShimMethod, a.Target, 1)
			}
		}
	}
	c.errorf(diag.TypeUnknownAttr, a.NameSpan, "%s has no method %q", c.typeName(rt), a.Name)
	c.typeArgs(call)
	return c.invalid(id)
}

// callShim resolves a call through the shim contract. skip drops the
// receiver parameter of methods.
func (c *checker) callShim(id ast.ExprID, call *ast.CallData, sym *stdlib.Symbol, kind CallKind, recv ast.ExprID, skip int) types.TypeID {
	if skip > len(sym.Params) {
		c.typeArgs(call)
		return c.invalid(id)
	}
	params := sym.Params[skip:]
	specs := make([]paramSpec, len(params))
	for i, p := range params {
		specs[i] = paramSpec{name: p.Name, hasDefault: p.Default != nil}
	}
	what := sym.Qualified() + "()"
	args, rest, ok := c.bindArgs(id, call, specs, sym.Variadic, what)
	result := c.typeOfRef(sym.Result)
	if !ok {
		c.typeArgs(call)
		return c.record(id, result)
	}
	info := &CallInfo{
		Kind:         kind,
		Shim:         sym,
		Recv:         recv,
		Args:         args,
		VarArgs:      rest,
		ShimDefaults: make([]*stdlib.Const, len(args)),
		Params:       make([]types.TypeID, len(params)),
	}
	for i, p := range params {
		info.Params[i] = c.typeOfRef(p.Type)
	}
	for i, a := range args {
		if a == ast.NoExprID {
			info.ShimDefaults[i] = params[i].Default
			continue
		}
		c.checkArg(a, info.Params[i], c.expr(a, info.Params[i]), what)
	}
	if sym.Variadic && len(params) > 0 {
		pt := info.Params[len(params)-1]
		for _, a := range rest {
			c.checkArg(a, pt, c.expr(a, pt), what)
		}
	}
	c.res.Calls[id] = info
	return c.record(id, result)
}

func (c *checker) callContainerMethod(id ast.ExprID, call *ast.CallData, a *ast.AttrData, rt types.TypeID) types.TypeID {
	isList := c.in.KindOf(rt) == types.KindList
	table := setMethods
	if isList {
		table = listMethods
	}
	m, ok := table[a.Name]
	if !ok {
		c.errorf(diag.TypeUnknownAttr, a.NameSpan, "%s has no method %q", c.typeName(rt), a.Name)
		c.typeArgs(call)
		return c.invalid(id)
	}
	elem := c.in.Elem(rt)
	var specs []paramSpec
	switch m {
	case ListAppend, ListIndex, ListCount, SetAdd, SetDiscard, SetRemove:
		specs = []paramSpec{{name: "x"}}
	case ListExtend:
		specs = []paramSpec{{name: "items"}}
	case ListInsert:
		specs = []paramSpec{{name: "index"}, {name: "x"}}
	case ListPop:
		specs = []paramSpec{{name: "index", hasDefault: true}}
	}
	args, _, ok := c.bindArgs(id, call, specs, false, a.Name+"()")
	if !ok {
		c.typeArgs(call)
		return c.invalid(id)
	}
	info := &CallInfo{Kind: CallBuiltinMethod, Method: m, Recv: a.Target, Args: args, Params: make([]types.TypeID, len(args))}
	c.res.Calls[id] = info

	// element arguments refine an empty display's element type
	elemArg := func(i int) {
		arg := args[i]
		at := c.expr(arg, elem)
		info.Params[i] = elem
		if _, stop := c.unknown(at); stop {
			return
		}
		if c.in.KindOf(elem) == types.KindUnresolved || c.in.HasUnresolved(elem) {
			if isList {
				c.refineExpr(a.Target, c.in.ListOf(at))
			} else {
				c.refineExpr(a.Target, c.in.SetOf(at))
			}
			return
		}
		if !c.in.Assignable(elem, at) {
			c.errorf(diag.TypeMismatch, c.exprSpan(arg), "%s() expects %s, got %s", a.Name, c.typeName(elem), c.typeName(at))
		}
	}
	switch m {
	case ListAppend, ListIndex, ListCount, SetAdd, SetDiscard, SetRemove:
		elemArg(0)
	case ListInsert:
		c.indexType(args[0])
		info.Params[0] = c.b.Int
		elemArg(1)
	case ListPop:
		if args[0] != ast.NoExprID {
			c.indexType(args[0])
			info.Params[0] = c.b.Int
		}
	case ListExtend:
		at := c.expr(args[0], rt)
		info.Params[0] = at
		if _, stop := c.unknown(at); !stop {
			switch c.in.KindOf(at) {
			case types.KindList, types.KindSet:
				if c.in.HasUnresolved(elem) {
					c.refineExpr(a.Target, c.in.ListOf(c.in.Elem(at)))
				} else if !c.in.Assignable(elem, c.in.Elem(at)) {
					c.errorf(diag.TypeMismatch, c.exprSpan(args[0]), "extend() expects items of %s, got %s", c.typeName(elem), c.typeName(at))
				}
			default:
				c.errorf(diag.TypeNotIterable, c.exprSpan(args[0]), "extend() needs a list or set, got %s", c.typeName(at))
			}
		}
	}
	switch m {
	case ListPop:
		return c.record(id, c.in.Elem(c.res.ExprTypes[a.Target]))
	case ListIndex, ListCount:
		return c.record(id, c.b.Int)
	case ListCopy, SetCopy:
		return c.record(id, c.res.ExprTypes[a.Target])
	}
	return c.record(id, c.b.None)
}

// callRange resolves range() as a for-loop iterable.
func (c *checker) callRange(id ast.ExprID, call *ast.CallData) types.TypeID {
	if len(call.Keywords) > 0 {
		c.errorf(diag.TypeBadKeyword, call.Keywords[0].Span, "range() takes no keyword arguments")
	}
	if n := len(call.Args); n < 1 || n > 3 {
		c.errorf(diag.TypeArity, c.exprSpan(id), "range expected 1 to 3 arguments, got %d", n)
		c.typeArgs(call)
		return c.invalid(id)
	}
	params := make([]types.TypeID, len(call.Args))
	for i, a := range call.Args {
		c.indexType(a)
		params[i] = c.b.Int
	}
	c.res.Calls[id] = &CallInfo{Kind: CallBuiltin, Builtin: BuiltinRange, Args: call.Args, Params: params}
	return c.record(id, c.in.ListOf(c.b.Int))
}

func (c *checker) isRangeCall(id ast.ExprID) (*ast.CallData, bool) {
	call, ok := c.mod.Exprs.Call(id)
	if !ok {
		return nil, false
	}
	ref := c.resolveRef(call.Func)
	return call, ref.kind == refBuiltin && ref.builtin == BuiltinRange
}
