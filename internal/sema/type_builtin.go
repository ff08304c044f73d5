package sema

import (
	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/stdlib"
	"waspy/internal/types"
)

// callBuiltin types calls of print, len, conversions and the other builtins.
func (c *checker) callBuiltin(id ast.ExprID, call *ast.CallData, b Builtin, expected types.TypeID) types.TypeID {
	info := &CallInfo{Kind: CallBuiltin, Builtin: b}
	if b == BuiltinPrint {
		return c.callPrint(id, call, info)
	}
	if b == BuiltinRange {
		c.errorf(diag.TypeUnsupported, c.exprSpan(id), "range() is only supported as the iterable of a for loop")
		c.typeArgs(call)
		return c.invalid(id)
	}
	if len(call.Keywords) > 0 {
		c.errorf(diag.TypeBadKeyword, call.Keywords[0].Span, "%s() takes no keyword arguments", b)
		c.typeArgs(call)
		return c.invalid(id)
	}
	args := call.Args
	ts := make([]types.TypeID, len(args))
	for i, a := range args {
		exp := types.NoTypeID
		if (b == BuiltinList || b == BuiltinSet) && expected != types.NoTypeID {
			exp = c.listLike(expected)
		}
		if b == BuiltinIsinstance && i == 1 {
			continue
		}
		ts[i] = c.expr(a, exp)
	}
	info.Args = args
	info.Params = ts
	c.res.Calls[id] = info

	arity := func(min, max int) bool {
		if len(args) < min || len(args) > max {
			if min == max {
				c.errorf(diag.TypeArity, c.exprSpan(id), "%s() takes exactly %d argument(s) (%d given)", b, min, len(args))
			} else {
				c.errorf(diag.TypeArity, c.exprSpan(id), "%s() takes %d to %d arguments (%d given)", b, min, max, len(args))
			}
			return false
		}
		return true
	}
	bad := func(i int) types.TypeID {
		c.errorf(diag.TypeMismatch, c.exprSpan(args[i]), "%s() does not accept %s", b, c.typeName(ts[i]))
		return c.invalid(id)
	}
	if b != BuiltinIsinstance {
		if t, stop := c.unknown(ts...); stop {
			return c.record(id, c.pendingBuiltin(b, t))
		}
	}

	switch b {
	case BuiltinLen:
		if !arity(1, 1) {
			return c.invalid(id)
		}
		switch c.in.KindOf(ts[0]) {
		case types.KindStr, types.KindBytes, types.KindList, types.KindSet:
			return c.record(id, c.b.Int)
		}
		return bad(0)
	case BuiltinInt:
		if !arity(0, 2) {
			return c.invalid(id)
		}
		if len(args) == 2 {
			if c.in.KindOf(ts[0]) != types.KindStr {
				return bad(0)
			}
			if !c.intLike(ts[1]) {
				return bad(1)
			}
		}
		if len(args) >= 1 && !c.numeric(ts[0]) && c.in.KindOf(ts[0]) != types.KindStr {
			return bad(0)
		}
		return c.record(id, c.b.Int)
	case BuiltinFloat:
		if !arity(0, 1) {
			return c.invalid(id)
		}
		if len(args) == 1 && !c.numeric(ts[0]) && c.in.KindOf(ts[0]) != types.KindStr {
			return bad(0)
		}
		return c.record(id, c.b.Float)
	case BuiltinStr, BuiltinRepr:
		low := 0
		if b == BuiltinRepr {
			low = 1
		}
		if !arity(low, 1) {
			return c.invalid(id)
		}
		if len(args) == 1 {
			c.stringable(args[0], ts[0])
		}
		return c.record(id, c.b.Str)
	case BuiltinBool:
		if !arity(0, 1) {
			return c.invalid(id)
		}
		if len(args) == 1 {
			c.truthy(args[0], ts[0])
		}
		return c.record(id, c.b.Bool)
	case BuiltinAbs:
		if !arity(1, 1) {
			return c.invalid(id)
		}
		if !c.numeric(ts[0]) {
			return bad(0)
		}
		return c.record(id, c.promote(ts[0], ts[0]))
	case BuiltinRound:
		if !arity(1, 2) {
			return c.invalid(id)
		}
		if !c.numeric(ts[0]) {
			return bad(0)
		}
		if len(args) == 2 {
			if !c.intLike(ts[1]) {
				return bad(1)
			}
			return c.record(id, c.b.Float)
		}
		return c.record(id, c.b.Int)
	case BuiltinMin, BuiltinMax:
		return c.minMax(id, b, args, ts)
	case BuiltinSum:
		if !arity(1, 1) {
			return c.invalid(id)
		}
		k := c.in.KindOf(ts[0])
		if (k != types.KindList && k != types.KindSet) || !c.numeric(c.in.Elem(ts[0])) {
			return bad(0)
		}
		elem := c.in.Elem(ts[0])
		return c.record(id, c.promote(elem, elem))
	case BuiltinOrd:
		if !arity(1, 1) {
			return c.invalid(id)
		}
		if c.in.KindOf(ts[0]) != types.KindStr {
			return bad(0)
		}
		return c.record(id, c.b.Int)
	case BuiltinChr:
		if !arity(1, 1) {
			return c.invalid(id)
		}
		if !c.intLike(ts[0]) {
			return bad(0)
		}
		return c.record(id, c.b.Str)
	case BuiltinList, BuiltinSet:
		return c.conversionToContainer(id, b, args, ts, expected)
	case BuiltinIsinstance:
		return c.callIsinstance(id, args, ts)
	}
	c.errorf(diag.NameUnknownBuiltin, c.exprSpan(id), "builtin %s() is not supported", b)
	return c.invalid(id)
}

// pendingBuiltin keeps the known result type of a builtin while its
// arguments are still being inferred.
func (c *checker) pendingBuiltin(b Builtin, t types.TypeID) types.TypeID {
	if t == types.NoTypeID {
		return t
	}
	switch b {
	case BuiltinLen, BuiltinInt, BuiltinOrd:
		return c.b.Int
	case BuiltinFloat:
		return c.b.Float
	case BuiltinStr, BuiltinRepr, BuiltinChr:
		return c.b.Str
	case BuiltinBool, BuiltinIsinstance:
		return c.b.Bool
	}
	return t
}

func (c *checker) listLike(expected types.TypeID) types.TypeID {
	switch c.in.KindOf(expected) {
	case types.KindList:
		return expected
	case types.KindSet:
		return c.in.ListOf(c.in.Elem(expected))
	}
	return types.NoTypeID
}

func (c *checker) callPrint(id ast.ExprID, call *ast.CallData, info *CallInfo) types.TypeID {
	info.Args = call.Args
	info.Params = make([]types.TypeID, len(call.Args))
	for i, a := range call.Args {
		t := c.expr(a, types.NoTypeID)
		c.stringable(a, t)
		info.Params[i] = t
	}
	for _, kw := range call.Keywords {
		t := c.expr(kw.Value, c.b.Str)
		switch kw.Name {
		case "sep", "end":
			if _, stop := c.unknown(t); !stop && c.in.KindOf(t) != types.KindStr && c.in.KindOf(t) != types.KindNone {
				c.errorf(diag.TypeMismatch, c.exprSpan(kw.Value), "print() %s must be str, not %s", kw.Name, c.typeName(t))
			}
			if c.in.KindOf(t) == types.KindNone {
				// None selects the default separator
				continue
			}
			if kw.Name == "sep" {
				info.Sep = kw.Value
			} else {
				info.End = kw.Value
			}
		case "flush":
			c.truthy(kw.Value, t)
		default:
			c.errorf(diag.TypeBadKeyword, kw.Span, "print() got an unexpected keyword argument %q", kw.Name)
		}
	}
	c.res.Calls[id] = info
	return c.record(id, c.b.None)
}

func (c *checker) minMax(id ast.ExprID, b Builtin, args []ast.ExprID, ts []types.TypeID) types.TypeID {
	switch len(args) {
	case 0:
		c.errorf(diag.TypeArity, c.exprSpan(id), "%s() expected at least 1 argument", b)
		return c.invalid(id)
	case 1:
		k := c.in.KindOf(ts[0])
		if k != types.KindList && k != types.KindSet {
			c.errorf(diag.TypeNotIterable, c.exprSpan(args[0]), "%s() of a single %s", b, c.typeName(ts[0]))
			return c.invalid(id)
		}
		elem := c.in.Elem(ts[0])
		if !c.numeric(elem) && c.in.KindOf(elem) != types.KindStr {
			c.errorf(diag.TypeMismatch, c.exprSpan(args[0]), "%s() needs comparable elements, got %s", b, c.typeName(elem))
			return c.invalid(id)
		}
		return c.record(id, elem)
	}
	result := ts[0]
	for i, t := range ts {
		switch {
		case c.numeric(result) && c.numeric(t):
			result = c.promote(result, t)
		case c.in.KindOf(result) == types.KindStr && c.in.KindOf(t) == types.KindStr:
		default:
			c.errorf(diag.TypeMismatch, c.exprSpan(args[i]), "%s() cannot compare %s and %s", b, c.typeName(result), c.typeName(t))
			return c.invalid(id)
		}
	}
	if c.in.KindOf(result) == types.KindBool {
		result = c.b.Int
	}
	return c.record(id, result)
}

func (c *checker) conversionToContainer(id ast.ExprID, b Builtin, args []ast.ExprID, ts []types.TypeID, expected types.TypeID) types.TypeID {
	wrap := c.in.ListOf
	if b == BuiltinSet {
		wrap = c.in.SetOf
	}
	switch len(args) {
	case 0:
		elem := c.b.Unresolved
		if k := c.in.KindOf(expected); k == types.KindList || k == types.KindSet {
			elem = c.in.Elem(expected)
		}
		return c.record(id, wrap(elem))
	case 1:
		switch c.in.KindOf(ts[0]) {
		case types.KindList, types.KindSet:
			return c.record(id, wrap(c.in.Elem(ts[0])))
		case types.KindStr:
			return c.record(id, wrap(c.b.Str))
		case types.KindBytes:
			return c.record(id, wrap(c.b.Int))
		}
		c.errorf(diag.TypeNotIterable, c.exprSpan(args[0]), "%s is not iterable", c.typeName(ts[0]))
		return c.invalid(id)
	}
	c.errorf(diag.TypeArity, c.exprSpan(id), "%s() takes at most 1 argument (%d given)", b, len(args))
	return c.invalid(id)
}

// callIsinstance accepts a class or a tuple of classes. Checks against
// builtin value types are decided statically.
func (c *checker) callIsinstance(id ast.ExprID, args []ast.ExprID, ts []types.TypeID) types.TypeID {
	if len(args) != 2 {
		c.errorf(diag.TypeArity, c.exprSpan(id), "isinstance expected 2 arguments, got %d", len(args))
		return c.invalid(id)
	}
	vt := ts[0]
	if _, stop := c.unknown(vt); stop {
		return c.record(id, c.b.Bool)
	}
	if n, ok := c.mod.Exprs.Name(args[1]); ok {
		if prim, ok := c.primitiveNamed(n.Name); ok {
			k := c.in.KindOf(prim)
			match := vt == prim
			switch {
			case k == types.KindList || k == types.KindSet:
				match = c.in.KindOf(vt) == k
			case k == types.KindInt && c.in.KindOf(vt) == types.KindBool:
				// bool is a subclass of int
				match = true
			}
			c.res.Consts[id] = stdlib.Const{Kind: stdlib.ConstBool, Bool: match}
			return c.record(id, c.b.Bool)
		}
	}
	classes, ok := c.classList(args[1])
	if !ok {
		return c.invalid(id)
	}
	if c.in.KindOf(vt) != types.KindRecord {
		c.res.Consts[id] = stdlib.Const{Kind: stdlib.ConstBool}
		return c.record(id, c.b.Bool)
	}
	c.res.ExceptTypes[args[1]] = classes
	return c.record(id, c.b.Bool)
}

func (c *checker) primitiveNamed(name string) (types.TypeID, bool) {
	if _, shadowed := c.table.Lookup(c.modScope, name); shadowed {
		return types.NoTypeID, false
	}
	switch name {
	case "int", "float", "str", "bool", "bytes", "list", "set":
		return c.namedType(name)
	}
	return types.NoTypeID, false
}

// classList resolves a class name or a tuple of class names.
func (c *checker) classList(id ast.ExprID) ([]types.TypeID, bool) {
	var elems []ast.ExprID
	if c.mod.Exprs.Get(id).Kind == ast.ExprTuple {
		seq, _ := c.mod.Exprs.Seq(id)
		elems = seq.Elems
	} else {
		elems = []ast.ExprID{id}
	}
	out := make([]types.TypeID, 0, len(elems))
	for _, e := range elems {
		ref := c.resolveRef(e)
		if ref.kind != refClass || ref.class == nil {
			c.errorf(diag.TypeBadExceptClass, c.exprSpan(e), "%q is not a class", c.mod.ExprString(e))
			return nil, false
		}
		c.record(e, ref.class.Type)
		out = append(out, ref.class.Type)
	}
	if len(elems) > 1 {
		c.record(id, out[0])
	}
	return out, true
}
