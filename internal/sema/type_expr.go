package sema

import (
	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/types"
)

// expr types an expression. expected, when set, seeds the element type of
// empty displays such as [] and set().
func (c *checker) expr(id ast.ExprID, expected types.TypeID) types.TypeID {
	e := c.mod.Exprs.Get(id)
	if e == nil {
		return types.NoTypeID
	}
	switch e.Kind {
	case ast.ExprName:
		n, _ := c.mod.Exprs.Name(id)
		return c.exprName(id, n)
	case ast.ExprInt:
		return c.record(id, c.b.Int)
	case ast.ExprFloat:
		return c.record(id, c.b.Float)
	case ast.ExprStr:
		return c.record(id, c.b.Str)
	case ast.ExprBytes:
		return c.record(id, c.b.Bytes)
	case ast.ExprBool:
		return c.record(id, c.b.Bool)
	case ast.ExprNone:
		return c.record(id, c.b.None)
	case ast.ExprFString:
		d, _ := c.mod.Exprs.FString(id)
		for _, part := range d.Parts {
			if part.Expr != ast.NoExprID {
				c.stringable(part.Expr, c.expr(part.Expr, types.NoTypeID))
			}
		}
		return c.record(id, c.b.Str)
	case ast.ExprBinary:
		d, _ := c.mod.Exprs.Binary(id)
		return c.exprBinary(id, d)
	case ast.ExprUnary:
		d, _ := c.mod.Exprs.Unary(id)
		return c.exprUnary(id, d)
	case ast.ExprBoolOp:
		d, _ := c.mod.Exprs.BoolOp(id)
		lt := c.expr(d.Left, expected)
		rt := c.expr(d.Right, expected)
		c.truthy(d.Left, lt)
		return c.record(id, c.common(id, lt, rt, "operands of "+d.Op.String()))
	case ast.ExprCompare:
		d, _ := c.mod.Exprs.Compare(id)
		return c.exprCompare(id, d)
	case ast.ExprCall:
		d, _ := c.mod.Exprs.Call(id)
		return c.exprCall(id, d, expected)
	case ast.ExprAttr:
		d, _ := c.mod.Exprs.Attr(id)
		return c.exprAttr(id, d)
	case ast.ExprIndex:
		d, _ := c.mod.Exprs.Index(id)
		return c.exprIndex(id, d)
	case ast.ExprSlice:
		d, _ := c.mod.Exprs.Slice(id)
		return c.exprSlice(id, d)
	case ast.ExprList, ast.ExprSet:
		d, _ := c.mod.Exprs.Seq(id)
		return c.exprDisplay(id, e.Kind, d, expected)
	case ast.ExprTernary:
		d, _ := c.mod.Exprs.TernaryOf(id)
		c.truthy(d.Cond, c.expr(d.Cond, types.NoTypeID))
		tt := c.expr(d.Then, expected)
		et := c.expr(d.Else, expected)
		return c.record(id, c.common(id, tt, et, "branches of the conditional expression"))
	case ast.ExprDict:
		c.errorf(diag.TypeUnsupported, e.Span, "dict values are not supported")
	case ast.ExprTuple:
		c.errorf(diag.TypeUnsupported, e.Span, "tuple values are not supported")
	}
	return c.invalid(id)
}

// unknown reports whether any operand is still untyped; the result then
// propagates the placeholder (or the error) without further diagnostics.
func (c *checker) unknown(ts ...types.TypeID) (types.TypeID, bool) {
	pending := false
	for _, t := range ts {
		switch c.in.KindOf(t) {
		case types.KindInvalid:
			return types.NoTypeID, true
		case types.KindUnresolved:
			pending = true
		}
	}
	if pending {
		if c.final {
			return types.NoTypeID, true
		}
		return c.b.Unresolved, true
	}
	return types.NoTypeID, false
}

// common joins the types of two alternatives (and/or, ternary).
func (c *checker) common(id ast.ExprID, a, b types.TypeID, what string) types.TypeID {
	if t, stop := c.unknown(a, b); stop {
		return t
	}
	t, ok := c.in.Join(a, b)
	if !ok {
		c.errorf(diag.TypeMismatch, c.exprSpan(id), "%s have incompatible types %s and %s", what, c.typeName(a), c.typeName(b))
		return types.NoTypeID
	}
	return t
}

// truthy checks that a value can be tested in a condition.
func (c *checker) truthy(id ast.ExprID, t types.TypeID) {
	switch c.in.KindOf(t) {
	case types.KindAny, types.KindFunc:
		c.errorf(diag.TypeUnsupported, c.exprSpan(id), "a value of type %s cannot be used as a condition", c.typeName(t))
	}
}

// stringable checks that str(x) is defined for t.
func (c *checker) stringable(id ast.ExprID, t types.TypeID) {
	if c.in.KindOf(t) == types.KindFunc {
		c.errorf(diag.TypeFirstClassFunc, c.exprSpan(id), "functions cannot be converted to str")
	}
}

func (c *checker) numeric(t types.TypeID) bool { return c.in.IsNumeric(t) }

// promote is the arithmetic result of two numeric operands: bool counts as int.
func (c *checker) promote(a, b types.TypeID) types.TypeID {
	if c.in.KindOf(a) == types.KindFloat || c.in.KindOf(b) == types.KindFloat {
		return c.b.Float
	}
	return c.b.Int
}

func (c *checker) intLike(t types.TypeID) bool {
	k := c.in.KindOf(t)
	return k == types.KindInt || k == types.KindBool
}

func (c *checker) exprBinary(id ast.ExprID, d *ast.BinaryData) types.TypeID {
	lt := c.expr(d.Left, types.NoTypeID)
	rt := c.expr(d.Right, types.NoTypeID)
	c.noteNumeric(d.Left, d.Right)
	if t, stop := c.unknown(lt, rt); stop {
		if d.Op == ast.BinDiv && t != types.NoTypeID {
			return c.record(id, c.b.Float)
		}
		return c.record(id, t)
	}
	lk, rk := c.in.KindOf(lt), c.in.KindOf(rt)
	if lk == types.KindExternal || rk == types.KindExternal {
		return c.externalOp(id, d.Op.String(), lt, rt)
	}
	if c.numeric(lt) && c.numeric(rt) {
		switch d.Op {
		case ast.BinDiv:
			return c.record(id, c.b.Float)
		case ast.BinAdd, ast.BinSub, ast.BinMul, ast.BinFloorDiv, ast.BinMod, ast.BinPow:
			return c.record(id, c.promote(lt, rt))
		case ast.BinBitAnd, ast.BinBitOr, ast.BinBitXor:
			if lk == types.KindBool && rk == types.KindBool {
				return c.record(id, c.b.Bool)
			}
			if c.intLike(lt) && c.intLike(rt) {
				return c.record(id, c.b.Int)
			}
		case ast.BinShl, ast.BinShr:
			if c.intLike(lt) && c.intLike(rt) {
				return c.record(id, c.b.Int)
			}
		}
		return c.badOperands(id, d.Op.String(), lt, rt)
	}
	switch {
	case lk == rk && (lk == types.KindStr || lk == types.KindBytes) && d.Op == ast.BinAdd:
		return c.record(id, lt)
	case (lk == types.KindStr || lk == types.KindBytes || lk == types.KindList) && c.intLike(rt) && d.Op == ast.BinMul:
		return c.record(id, lt)
	case (rk == types.KindStr || rk == types.KindBytes || rk == types.KindList) && c.intLike(lt) && d.Op == ast.BinMul:
		return c.record(id, rt)
	case lk == types.KindList && rk == types.KindList && d.Op == ast.BinAdd:
		if t, ok := c.in.Join(lt, rt); ok {
			return c.record(id, t)
		}
	case lk == types.KindSet && rk == types.KindSet:
		switch d.Op {
		case ast.BinBitOr, ast.BinBitAnd, ast.BinSub, ast.BinBitXor:
			if t, ok := c.in.Join(lt, rt); ok {
				return c.record(id, t)
			}
		}
	}
	return c.badOperands(id, d.Op.String(), lt, rt)
}

func (c *checker) badOperands(id ast.ExprID, op string, lt, rt types.TypeID) types.TypeID {
	c.errorf(diag.TypeBadOperand, c.exprSpan(id), "unsupported operand types for %s: %s and %s", op, c.typeName(lt), c.typeName(rt))
	return c.invalid(id)
}

// externalOp resolves an operator over shim values through the operator table.
func (c *checker) externalOp(id ast.ExprID, op string, lt, rt types.TypeID) types.TypeID {
	lref, lok := c.refOf(lt, false)
	rref, rok := c.refOf(rt, false)
	if lok && rok {
		if sym, ok := c.shims.Operator(op, lref, rref); ok {
			c.res.Ops[id] = sym
			return c.record(id, c.typeOfRef(sym.Result))
		}
		// int operands also match float rules
		if c.in.KindOf(rt) == types.KindInt {
			if sym, ok := c.shims.Operator(op, lref, "float"); ok {
				c.res.Ops[id] = sym
				return c.record(id, c.typeOfRef(sym.Result))
			}
		}
	}
	return c.badOperands(id, op, lt, rt)
}

func (c *checker) exprUnary(id ast.ExprID, d *ast.UnaryData) types.TypeID {
	t := c.expr(d.Operand, types.NoTypeID)
	if d.Op == ast.UnaryNot {
		if _, stop := c.unknown(t); !stop {
			c.truthy(d.Operand, t)
		}
		return c.record(id, c.b.Bool)
	}
	c.noteNumeric(d.Operand)
	if r, stop := c.unknown(t); stop {
		return c.record(id, r)
	}
	switch d.Op {
	case ast.UnaryNeg, ast.UnaryPos:
		if c.numeric(t) {
			return c.record(id, c.promote(t, t))
		}
	case ast.UnaryInvert:
		if c.intLike(t) {
			return c.record(id, c.b.Int)
		}
	}
	c.errorf(diag.TypeBadOperand, c.exprSpan(id), "bad operand type for unary %s: %s", d.Op, c.typeName(t))
	return c.invalid(id)
}

func (c *checker) exprCompare(id ast.ExprID, d *ast.CompareData) types.TypeID {
	left := c.expr(d.Left, types.NoTypeID)
	leftID := d.Left
	for i, op := range d.Ops {
		right := c.expr(d.Rights[i], types.NoTypeID)
		switch op {
		case ast.CmpLt, ast.CmpLtEq, ast.CmpGt, ast.CmpGtEq:
			c.noteNumeric(leftID, d.Rights[i])
		}
		c.checkCompare(id, op, left, right)
		left, leftID = right, d.Rights[i]
	}
	return c.record(id, c.b.Bool)
}

func (c *checker) checkCompare(id ast.ExprID, op ast.CmpOp, lt, rt types.TypeID) {
	if _, stop := c.unknown(lt, rt); stop {
		return
	}
	lk, rk := c.in.KindOf(lt), c.in.KindOf(rt)
	ok := false
	switch op {
	case ast.CmpEq, ast.CmpNotEq:
		switch {
		case lk == types.KindNone || rk == types.KindNone:
			ok = true
		case c.numeric(lt) && c.numeric(rt):
			ok = true
		case lk == types.KindAny || rk == types.KindAny:
			ok = false
		default:
			_, ok = c.in.Join(lt, rt)
		}
	case ast.CmpIs, ast.CmpIsNot:
		switch {
		case lk == types.KindNone || rk == types.KindNone:
			ok = true
		case lk == rk && (lk == types.KindRecord || lk == types.KindExternal || lk == types.KindList || lk == types.KindSet):
			_, ok = c.in.Join(lt, rt)
		case lk == types.KindBool && rk == types.KindBool:
			ok = true
		}
	case ast.CmpLt, ast.CmpLtEq, ast.CmpGt, ast.CmpGtEq:
		switch {
		case c.numeric(lt) && c.numeric(rt):
			ok = true
		case lk == rk && (lk == types.KindStr || lk == types.KindBytes):
			ok = true
		case lk == types.KindExternal && lt == rt:
			if ref, has := c.refOf(lt, false); has {
				if def, found := c.shims.TypeDef(ref); found {
					ok = def.Comparable
				}
			}
		}
	case ast.CmpIn, ast.CmpNotIn:
		switch rk {
		case types.KindList, types.KindSet:
			elem := c.in.Elem(rt)
			ok = c.in.KindOf(elem) == types.KindUnresolved || c.in.Assignable(elem, lt) ||
				(c.numeric(elem) && c.numeric(lt))
		case types.KindStr:
			ok = lk == types.KindStr
		case types.KindBytes:
			ok = c.intLike(lt) || lk == types.KindBytes
		}
	}
	if !ok {
		c.errorf(diag.TypeBadOperand, c.exprSpan(id), "cannot compare %s %s %s", c.typeName(lt), op, c.typeName(rt))
	}
}

func (c *checker) exprDisplay(id ast.ExprID, kind ast.ExprKind, d *ast.SeqData, expected types.TypeID) types.TypeID {
	elemExpected := types.NoTypeID
	ek := c.in.KindOf(expected)
	if (kind == ast.ExprList && ek == types.KindList) || (kind == ast.ExprSet && ek == types.KindSet) {
		elemExpected = c.in.Elem(expected)
	}
	elem := c.b.Unresolved
	if elemExpected != types.NoTypeID && !c.in.HasUnresolved(elemExpected) {
		elem = elemExpected
	}
	fixed := elem != c.b.Unresolved
	for _, x := range d.Elems {
		t := c.expr(x, elemExpected)
		if t == types.NoTypeID {
			continue
		}
		if fixed {
			if !c.in.Assignable(elem, t) {
				c.errorf(diag.TypeHeterogeneousList, c.exprSpan(x), "element of type %s in a display of %s", c.typeName(t), c.typeName(elem))
			}
			continue
		}
		if c.in.KindOf(t) == types.KindUnresolved {
			continue
		}
		j, ok := c.in.Join(elem, t)
		if !ok {
			c.errorf(diag.TypeHeterogeneousList, c.exprSpan(x), "mixed element types %s and %s", c.typeName(elem), c.typeName(t))
			continue
		}
		elem = j
	}
	if kind == ast.ExprSet {
		if k := c.in.KindOf(elem); k == types.KindList || k == types.KindSet || k == types.KindAny {
			c.errorf(diag.TypeUnsupported, c.exprSpan(id), "set elements of type %s are not hashable", c.typeName(elem))
		}
		return c.record(id, c.in.SetOf(elem))
	}
	return c.record(id, c.in.ListOf(elem))
}

func (c *checker) indexType(id ast.ExprID) {
	t := c.expr(id, types.NoTypeID)
	if _, stop := c.unknown(t); stop {
		return
	}
	if !c.intLike(t) {
		c.errorf(diag.TypeBadIndex, c.exprSpan(id), "indices must be int, not %s", c.typeName(t))
	}
}

func (c *checker) exprIndex(id ast.ExprID, d *ast.IndexData) types.TypeID {
	tt := c.expr(d.Target, types.NoTypeID)
	c.indexType(d.Index)
	if t, stop := c.unknown(tt); stop {
		return c.record(id, t)
	}
	switch c.in.KindOf(tt) {
	case types.KindList:
		return c.record(id, c.in.Elem(tt))
	case types.KindStr:
		return c.record(id, c.b.Str)
	case types.KindBytes:
		return c.record(id, c.b.Int)
	}
	c.errorf(diag.TypeBadIndex, c.exprSpan(id), "%s is not subscriptable", c.typeName(tt))
	return c.invalid(id)
}

func (c *checker) exprSlice(id ast.ExprID, d *ast.SliceData) types.TypeID {
	tt := c.expr(d.Target, types.NoTypeID)
	for _, b := range []ast.ExprID{d.Lower, d.Upper, d.Step} {
		if b != ast.NoExprID {
			c.indexType(b)
		}
	}
	if t, stop := c.unknown(tt); stop {
		return c.record(id, t)
	}
	switch c.in.KindOf(tt) {
	case types.KindList, types.KindStr, types.KindBytes:
		return c.record(id, tt)
	}
	c.errorf(diag.TypeBadIndex, c.exprSpan(id), "%s cannot be sliced", c.typeName(tt))
	return c.invalid(id)
}
