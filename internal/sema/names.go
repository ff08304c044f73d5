package sema

import (
	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/stdlib"
	"waspy/internal/symbols"
	"waspy/internal/types"
)

type refKind uint8

const (
	refUndefined refKind = iota
	// refValue is an ordinary runtime value; the expression must be typed.
	refValue
	refModule
	refClass
	refFunc
	refBuiltin
	refShimFunc
	refShimType
	refShimConst
	refShimDecorator
	refTyping
)

// staticRef is what a Name/Attr chain denotes before any value is computed.
type staticRef struct {
	kind    refKind
	name    string
	module  string
	class   *Class
	fn      *Func
	builtin Builtin
	shim    *stdlib.Symbol
	typ     *stdlib.TypeDef
	sym     symbols.SymbolID
}

// resolveRef classifies a Name or Attr expression. Anything else is a value.
func (c *checker) resolveRef(id ast.ExprID) staticRef {
	if n, ok := c.mod.Exprs.Name(id); ok {
		return c.nameRef(n.Name)
	}
	a, ok := c.mod.Exprs.Attr(id)
	if !ok {
		return staticRef{kind: refValue}
	}
	target := c.resolveRef(a.Target)
	switch target.kind {
	case refModule:
		return c.memberRef(target.module, a.Name)
	case refShimType:
		if sym, ok := target.typ.Statics[a.Name]; ok {
			return staticRef{kind: refShimFunc, name: a.Name, shim: sym}
		}
		return staticRef{kind: refUndefined, name: target.typ.Name + "." + a.Name}
	case refClass:
		if f := target.class.FindMethod(a.Name); f != nil {
			return staticRef{kind: refFunc, name: a.Name, fn: f, class: target.class}
		}
		return staticRef{kind: refValue, class: target.class, name: a.Name}
	case refTyping:
		return staticRef{kind: refTyping, name: a.Name}
	case refUndefined:
		return target
	}
	return staticRef{kind: refValue}
}

func (c *checker) nameRef(name string) staticRef {
	symID, ok := c.table.Lookup(c.scopeOrModule(), name)
	if !ok {
		return staticRef{kind: refUndefined, name: name}
	}
	sym := c.table.Symbol(symID)
	ref := staticRef{name: name, sym: symID}
	switch sym.Kind {
	case symbols.SymbolModule:
		if sym.Module == typingModule {
			ref.kind = refTyping
			return ref
		}
		ref.kind = refModule
		ref.module = sym.Module
	case symbols.SymbolImport:
		if sym.Module == typingModule {
			ref.kind = refTyping
			return ref
		}
		return c.memberRef(sym.Module, sym.Member)
	case symbols.SymbolFunction, symbols.SymbolMethod:
		ref.kind = refFunc
		ref.fn = c.funcBySym[symID]
	case symbols.SymbolClass:
		ref.kind = refClass
		ref.class = c.classBySym[symID]
	case symbols.SymbolBuiltin:
		if b, ok := builtinNames[name]; ok {
			ref.kind = refBuiltin
			ref.builtin = b
			return ref
		}
		ref.kind = refValue
	default:
		ref.kind = refValue
	}
	return ref
}

func (c *checker) memberRef(module, name string) staticRef {
	full := module + "." + name
	if _, ok := c.shims.Module(full); ok {
		return staticRef{kind: refModule, module: full, name: name}
	}
	if sym, ok := c.shims.Lookup(module, name); ok {
		ref := staticRef{name: name, module: module, shim: sym}
		switch sym.Kind {
		case stdlib.SymConst:
			ref.kind = refShimConst
		case stdlib.SymDecorator:
			ref.kind = refShimDecorator
		default:
			ref.kind = refShimFunc
		}
		return ref
	}
	if def, ok := c.shims.TypeDef(stdlib.TypeRef(full)); ok {
		return staticRef{kind: refShimType, name: name, module: module, typ: def}
	}
	return staticRef{kind: refUndefined, name: full}
}

func (c *checker) isShimDecorator(id ast.ExprID) bool {
	return c.resolveRef(id).kind == refShimDecorator
}

// exprName types a name read.
func (c *checker) exprName(id ast.ExprID, n *ast.NameData) types.TypeID {
	symID, ok := c.table.Lookup(c.scopeOrModule(), n.Name)
	if !ok {
		c.errorf(diag.NameUndefined, c.exprSpan(id), "name %q is not defined", n.Name)
		return c.invalid(id)
	}
	sym := c.table.Symbol(symID)
	switch sym.Kind {
	case symbols.SymbolLocal, symbols.SymbolParam:
		c.res.Names[id] = symID
		c.checkAssigned(id, symID)
		return c.record(id, sym.Type)
	case symbols.SymbolGlobal, symbols.SymbolClassVar:
		c.res.Names[id] = symID
		c.noteRead(symID)
		return c.record(id, sym.Type)
	case symbols.SymbolBuiltin:
		if n.Name == "__name__" {
			c.res.Consts[id] = stdlib.Const{Kind: stdlib.ConstStr, Str: c.opts.MainName}
			return c.record(id, c.b.Str)
		}
		c.errorf(diag.TypeFirstClassFunc, c.exprSpan(id), "builtin %q cannot be used as a value", n.Name)
	case symbols.SymbolImport:
		ref := c.nameRef(n.Name)
		if ref.kind == refShimConst {
			c.res.Consts[id] = ref.shim.Value
			return c.record(id, c.typeOfRef(ref.shim.Value.Type()))
		}
		c.errorf(diag.TypeFirstClassFunc, c.exprSpan(id), "%q cannot be used as a value", n.Name)
	case symbols.SymbolModule:
		c.errorf(diag.TypeUnsupported, c.exprSpan(id), "module %q cannot be used as a value", n.Name)
	default:
		c.errorf(diag.TypeFirstClassFunc, c.exprSpan(id), "%s %q cannot be used as a value", sym.Kind, n.Name)
	}
	return c.invalid(id)
}

func (c *checker) noteRead(sym symbols.SymbolID) {
	if c.fn != nil {
		c.fn.reads.Insert(sym)
	}
	if c.step != nil {
		c.step.reads.Insert(sym)
	}
}

func (c *checker) noteCall(f *Func) {
	if f == nil {
		return
	}
	if c.fn != nil {
		c.fn.calls.Insert(f)
	}
	if c.step != nil {
		c.step.calls.Insert(f)
	}
}

// assignName binds a name target to a value of type vt.
func (c *checker) assignName(id ast.ExprID, name string, vt types.TypeID) {
	symID, ok := c.table.Lookup(c.scopeOrModule(), name)
	if !ok {
		c.errorf(diag.NameUndefined, c.exprSpan(id), "name %q is not defined", name)
		c.invalid(id)
		return
	}
	sym := c.table.Symbol(symID)
	switch sym.Kind {
	case symbols.SymbolLocal, symbols.SymbolParam, symbols.SymbolGlobal, symbols.SymbolClassVar:
	default:
		c.errorf(diag.NameDuplicate, c.exprSpan(id), "cannot assign to %s %q", sym.Kind, name)
		c.invalid(id)
		return
	}
	c.res.Names[id] = symID
	c.bindValue(symID, vt, id)
	c.record(id, sym.Type)
	c.markAssigned(symID)
}

// bindValue applies an assignment of vt to a variable: the first assignment
// fixes an unannotated variable's type, later ones must be compatible.
// Parameters and fields gather evidence by joining instead.
func (c *checker) bindValue(symID symbols.SymbolID, vt types.TypeID, at ast.ExprID) {
	sym := c.table.Symbol(symID)
	if vt == types.NoTypeID || c.in.KindOf(vt) == types.KindUnresolved {
		return
	}
	cur := sym.Type
	if cur == types.NoTypeID {
		return
	}
	switch {
	case sym.Flags&symbols.SymbolFlagDeclared != 0:
		if !c.in.Assignable(cur, vt) {
			c.errorf(diag.TypeMismatch, c.exprSpan(at), "cannot assign %s to %q of type %s", c.typeName(vt), sym.Name, c.typeName(cur))
			return
		}
		if c.in.HasUnresolved(cur) {
			c.setType(symID, c.in.Refine(cur, vt))
		}
	case sym.Kind == symbols.SymbolParam || sym.Kind == symbols.SymbolField:
		joined, ok := c.in.Join(cur, vt)
		if !ok {
			c.errorf(diag.TypeMismatch, c.exprSpan(at), "%q receives both %s and %s", sym.Name, c.typeName(cur), c.typeName(vt))
			return
		}
		c.setType(symID, joined)
	case c.in.KindOf(cur) == types.KindUnresolved:
		c.setType(symID, vt)
	default:
		if !c.in.Assignable(cur, vt) {
			c.errorf(diag.TypeReassign, c.exprSpan(at), "%q was first assigned %s; cannot assign %s", sym.Name, c.typeName(cur), c.typeName(vt))
			return
		}
		if c.in.HasUnresolved(cur) {
			c.setType(symID, c.in.Refine(cur, vt))
		}
	}
}

func (c *checker) setType(symID symbols.SymbolID, t types.TypeID) {
	sym := c.table.Symbol(symID)
	if sym.Type == t {
		return
	}
	c.table.SetType(symID, t)
	c.changed = true
	if sym.Kind == symbols.SymbolField {
		if cls := c.classBySym[sym.Owner]; cls != nil {
			c.in.SetFieldType(cls.Type, sym.Name, t)
		}
	}
}

// noteNumeric remembers unannotated parameters used as numbers so they can
// default to int when nothing else constrains them.
func (c *checker) noteNumeric(ids ...ast.ExprID) {
	if c.final {
		return
	}
	for _, id := range ids {
		n, ok := c.mod.Exprs.Name(id)
		if !ok {
			continue
		}
		symID, ok := c.table.Lookup(c.scopeOrModule(), n.Name)
		if !ok {
			continue
		}
		if sym := c.table.Symbol(symID); sym.Kind == symbols.SymbolParam && c.in.KindOf(sym.Type) == types.KindUnresolved {
			c.numericUse[symID] = true
		}
	}
}

func (c *checker) defaultNumericParams() []symbols.SymbolID {
	var out []symbols.SymbolID
	for _, f := range c.funcs {
		for _, p := range f.Params {
			if c.numericUse[p] && c.in.KindOf(c.table.Symbol(p).Type) == types.KindUnresolved {
				out = append(out, p)
			}
		}
	}
	return out
}

// fieldSym finds the field symbol declared by cls or an ancestor.
func (c *checker) fieldSym(cls *Class, name string) (symbols.SymbolID, *Class, bool) {
	for cur := cls; cur != nil; cur = cur.Base {
		if id, ok := cur.Fields[name]; ok {
			return id, cur, true
		}
	}
	return symbols.NoSymbolID, nil, false
}

func (c *checker) classVar(cls *Class, name string) (symbols.SymbolID, bool) {
	for cur := cls; cur != nil; cur = cur.Base {
		if id, ok := cur.Vars[name]; ok {
			return id, true
		}
	}
	return symbols.NoSymbolID, false
}
