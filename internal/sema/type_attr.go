package sema

import (
	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/types"
)

func (c *checker) exprAttr(id ast.ExprID, d *ast.AttrData) types.TypeID {
	ref := c.resolveRef(d.Target)
	switch ref.kind {
	case refModule:
		member := c.memberRef(ref.module, d.Name)
		if member.kind == refShimConst {
			c.res.Consts[id] = member.shim.Value
			c.res.Attrs[id] = &AttrInfo{Kind: AttrShimConst, Shim: member.shim}
			return c.record(id, c.typeOfRef(member.shim.Value.Type()))
		}
		if member.kind == refUndefined {
			c.errorf(diag.NameUnknownImport, d.NameSpan, "module %q has no attribute %q", ref.module, d.Name)
		} else {
			c.errorf(diag.TypeFirstClassFunc, c.exprSpan(id), "%s.%s cannot be used as a value", ref.module, d.Name)
		}
		return c.invalid(id)
	case refClass:
		if sym, ok := c.classVar(ref.class, d.Name); ok {
			c.res.Attrs[id] = &AttrInfo{Kind: AttrClassVar, Record: ref.class.Type, Global: sym}
			c.noteRead(sym)
			return c.record(id, c.table.Symbol(sym).Type)
		}
		c.errorf(diag.TypeUnknownAttr, d.NameSpan, "class %q has no class variable %q", ref.class.Name, d.Name)
		return c.invalid(id)
	case refUndefined:
		c.errorf(diag.NameUndefined, c.exprSpan(d.Target), "name %q is not defined", ref.name)
		return c.invalid(id)
	case refValue:
	default:
		c.errorf(diag.TypeUnknownAttr, c.exprSpan(id), "%q has no value attribute %q", c.mod.ExprString(d.Target), d.Name)
		return c.invalid(id)
	}

	tt := c.expr(d.Target, types.NoTypeID)
	if t, stop := c.unknown(tt); stop {
		return c.record(id, t)
	}
	switch c.in.KindOf(tt) {
	case types.KindRecord:
		cls := c.classByTy[tt]
		if t, ok := c.fieldType(cls, tt, d.Name); ok {
			c.res.Attrs[id] = &AttrInfo{Kind: AttrField, Record: tt, Field: d.Name}
			return c.record(id, t)
		}
		if sym, ok := c.classVar(cls, d.Name); ok {
			c.res.Attrs[id] = &AttrInfo{Kind: AttrClassVar, Record: tt, Global: sym}
			c.noteRead(sym)
			return c.record(id, c.table.Symbol(sym).Type)
		}
		if cls != nil && cls.FindMethod(d.Name) != nil {
			c.errorf(diag.TypeFirstClassFunc, c.exprSpan(id), "bound method %s.%s cannot be used as a value", cls.Name, d.Name)
			return c.invalid(id)
		}
	case types.KindExternal:
		if ref, ok := c.refOf(tt, false); ok {
			if sym, ok := c.shims.Attr(ref, d.Name); ok {
				c.res.Attrs[id] = &AttrInfo{Kind: AttrShimGetter, Shim: sym}
				return c.record(id, c.typeOfRef(sym.Result))
			}
		}
	}
	c.errorf(diag.TypeUnknownAttr, d.NameSpan, "%s has no attribute %q", c.typeName(tt), d.Name)
	return c.invalid(id)
}

// fieldType returns the current type of field name on record rec.
func (c *checker) fieldType(cls *Class, rec types.TypeID, name string) (types.TypeID, bool) {
	if cls != nil {
		if sym, _, ok := c.fieldSym(cls, name); ok {
			return c.table.Symbol(sym).Type, true
		}
	}
	f, _, ok := c.in.LookupField(rec, name)
	if !ok {
		return types.NoTypeID, false
	}
	return f.Type, true
}

// assignAttr handles obj.field = value and Class.var = value.
func (c *checker) assignAttr(id ast.ExprID, d *ast.AttrData, vt types.TypeID, value ast.ExprID) {
	ref := c.resolveRef(d.Target)
	if ref.kind == refClass {
		sym, ok := c.classVar(ref.class, d.Name)
		if !ok {
			c.errorf(diag.TypeUnknownAttr, d.NameSpan, "class %q has no class variable %q", ref.class.Name, d.Name)
			c.invalid(id)
			return
		}
		c.res.Attrs[id] = &AttrInfo{Kind: AttrClassVar, Record: ref.class.Type, Global: sym}
		c.bindValue(sym, vt, value)
		c.record(id, c.table.Symbol(sym).Type)
		return
	}
	if ref.kind != refValue {
		c.errorf(diag.TypeUnsupported, c.exprSpan(id), "cannot assign to %s", c.mod.ExprString(id))
		c.invalid(id)
		return
	}
	tt := c.expr(d.Target, types.NoTypeID)
	if _, stop := c.unknown(tt); stop {
		c.invalid(id)
		return
	}
	if c.in.KindOf(tt) != types.KindRecord {
		c.errorf(diag.TypeUnknownAttr, d.NameSpan, "cannot set attribute %q on %s", d.Name, c.typeName(tt))
		c.invalid(id)
		return
	}
	cls := c.classByTy[tt]
	if cls != nil {
		if sym, _, ok := c.fieldSym(cls, d.Name); ok {
			c.res.Attrs[id] = &AttrInfo{Kind: AttrField, Record: tt, Field: d.Name}
			c.bindValue(sym, vt, value)
			c.record(id, c.table.Symbol(sym).Type)
			return
		}
	}
	if f, _, ok := c.in.LookupField(tt, d.Name); ok {
		// builtin exception fields are fixed
		if vt != types.NoTypeID && !c.in.Assignable(f.Type, vt) {
			c.errorf(diag.TypeMismatch, c.exprSpan(value), "cannot assign %s to field %q of type %s", c.typeName(vt), d.Name, c.typeName(f.Type))
		}
		c.res.Attrs[id] = &AttrInfo{Kind: AttrField, Record: tt, Field: d.Name}
		c.record(id, f.Type)
		return
	}
	c.errorf(diag.TypeUnknownAttr, d.NameSpan, "%s has no field %q", c.typeName(tt), d.Name)
	c.invalid(id)
}
