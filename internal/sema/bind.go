package sema

import (
	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/symbols"
	"waspy/internal/types"
)

type paramSpec struct {
	name       string
	hasDefault bool
}

// bindArgs matches positional and keyword arguments to params. The first
// result has one entry per non-variadic parameter, NoExprID where the
// default applies; extra positionals of a variadic tail are returned second.
func (c *checker) bindArgs(id ast.ExprID, call *ast.CallData, params []paramSpec, variadic bool, what string) ([]ast.ExprID, []ast.ExprID, bool) {
	fixed := len(params)
	if variadic && fixed > 0 {
		fixed--
	}
	args := make([]ast.ExprID, fixed)
	var rest []ast.ExprID
	for i, a := range call.Args {
		switch {
		case i < fixed:
			args[i] = a
		case variadic:
			rest = append(rest, a)
		default:
			c.errorf(diag.TypeArity, c.exprSpan(id), "%s takes %d argument(s) but %d were given", what, fixed, len(call.Args))
			return args, rest, false
		}
	}
	ok := true
	for _, kw := range call.Keywords {
		idx := -1
		for i := range fixed {
			if params[i].name == kw.Name {
				idx = i
				break
			}
		}
		switch {
		case idx < 0:
			c.errorf(diag.TypeBadKeyword, kw.Span, "%s got an unexpected keyword argument %q", what, kw.Name)
			ok = false
		case args[idx] != ast.NoExprID:
			c.errorf(diag.TypeBadKeyword, kw.Span, "%s got multiple values for argument %q", what, kw.Name)
			ok = false
		default:
			args[idx] = kw.Value
		}
	}
	for i := range fixed {
		if args[i] == ast.NoExprID && !params[i].hasDefault {
			c.errorf(diag.TypeArity, c.exprSpan(id), "%s missing required argument %q", what, params[i].name)
			ok = false
		}
	}
	return args, rest, ok
}

// typeArgs walks the arguments of a call that could not be resolved so
// nested expressions are still typed.
func (c *checker) typeArgs(call *ast.CallData) {
	for _, a := range call.Args {
		c.expr(a, types.NoTypeID)
	}
	for _, kw := range call.Keywords {
		c.expr(kw.Value, types.NoTypeID)
	}
}

// bindParam feeds an argument type into a parameter of a user function.
func (c *checker) bindParam(param symbols.SymbolID, at types.TypeID, arg ast.ExprID, what string) {
	sym := c.table.Symbol(param)
	if _, stop := c.unknown(at); stop {
		return
	}
	if sym.Flags&symbols.SymbolFlagDeclared != 0 {
		if !c.in.Assignable(sym.Type, at) {
			c.errorf(diag.TypeMismatch, c.exprSpan(arg), "argument %q of %s expects %s, got %s", sym.Name, what, c.typeName(sym.Type), c.typeName(at))
			return
		}
		c.refineExpr(arg, sym.Type)
		return
	}
	c.bindValue(param, at, arg)
}

// checkArg validates an argument against a fixed parameter type.
func (c *checker) checkArg(arg ast.ExprID, pt, at types.TypeID, what string) {
	if _, stop := c.unknown(at); stop {
		return
	}
	if !c.in.Assignable(pt, at) {
		c.errorf(diag.TypeMismatch, c.exprSpan(arg), "%s expects %s, got %s", what, c.typeName(pt), c.typeName(at))
		return
	}
	c.refineExpr(arg, pt)
}

// refineExpr pushes evidence t back into the variable or field an
// expression reads, filling holes such as the element type of [].
func (c *checker) refineExpr(id ast.ExprID, t types.TypeID) {
	cur := c.res.ExprTypes[id]
	if cur == types.NoTypeID || !c.in.HasUnresolved(cur) || c.in.KindOf(t) == types.KindUnresolved {
		return
	}
	refined := c.in.Refine(cur, t)
	if refined == cur {
		return
	}
	if sym, ok := c.res.Names[id]; ok {
		c.bindValue(sym, refined, id)
		return
	}
	if info, ok := c.res.Attrs[id]; ok {
		switch info.Kind {
		case AttrField:
			if cls := c.classByTy[info.Record]; cls != nil {
				if sym, _, ok := c.fieldSym(cls, info.Field); ok {
					c.bindValue(sym, refined, id)
				}
			}
		case AttrClassVar:
			c.bindValue(info.Global, refined, id)
		}
	}
}
