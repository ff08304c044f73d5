package sema

import (
	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/stdlib"
	"waspy/internal/symbols"
	"waspy/internal/types"
)

type annotResult struct {
	ty types.TypeID
	ok bool
}

// annotation converts a type annotation to a type. Results are cached so a
// malformed annotation is reported once however many passes read it.
func (c *checker) annotation(id ast.ExprID) (types.TypeID, bool) {
	if c.annots == nil {
		c.annots = make(map[ast.ExprID]annotResult)
	}
	if r, ok := c.annots[id]; ok {
		return r.ty, r.ok
	}
	ty, ok := c.resolveAnnotation(id)
	c.annots[id] = annotResult{ty: ty, ok: ok}
	if !ok {
		c.report(diag.TypeBadAnnotation, c.exprSpan(id), "unsupported type annotation %q", c.mod.ExprString(id))
	}
	return ty, ok
}

func (c *checker) resolveAnnotation(id ast.ExprID) (types.TypeID, bool) {
	e := c.mod.Exprs.Get(id)
	if e == nil {
		return types.NoTypeID, false
	}
	switch e.Kind {
	case ast.ExprNone:
		return c.b.None, true
	case ast.ExprStr:
		// forward reference: "ClassName"
		lit, _ := c.mod.Exprs.Literal(id)
		return c.namedType(lit.Str)
	case ast.ExprName:
		n, _ := c.mod.Exprs.Name(id)
		return c.namedType(n.Name)
	case ast.ExprAttr:
		module, name, ok := c.shimTypePath(id)
		if !ok {
			return types.NoTypeID, false
		}
		if _, ok := c.shims.TypeDef(stdlib.TypeRef(module + "." + name)); !ok {
			return types.NoTypeID, false
		}
		return c.in.External(module, name), true
	case ast.ExprIndex:
		idx, _ := c.mod.Exprs.Index(id)
		head, ok := c.mod.DottedName(idx.Target)
		if !ok {
			return types.NoTypeID, false
		}
		head = c.typingAlias(head)
		if head != "list" && head != "set" {
			return types.NoTypeID, false
		}
		elem, ok := c.resolveAnnotation(idx.Index)
		if !ok {
			return types.NoTypeID, false
		}
		if head == "list" {
			return c.in.ListOf(elem), true
		}
		return c.in.SetOf(elem), true
	}
	return types.NoTypeID, false
}

// typingAlias maps typing.List / List (imported from typing) to list.
func (c *checker) typingAlias(name string) string {
	switch name {
	case "typing.List":
		return "list"
	case "typing.Set":
		return "set"
	case "typing.Any":
		return "any"
	}
	if id, ok := c.table.LookupLocal(c.modScope, name); ok {
		sym := c.table.Symbol(id)
		if sym.Kind == symbols.SymbolImport && sym.Module == typingModule {
			return c.typingAlias("typing." + sym.Member)
		}
		if sym.Kind == symbols.SymbolModule && sym.Module == typingModule {
			return name
		}
	}
	return name
}

func (c *checker) namedType(name string) (types.TypeID, bool) {
	switch c.typingAlias(name) {
	case "int":
		return c.b.Int, true
	case "float":
		return c.b.Float, true
	case "str":
		return c.b.Str, true
	case "bool":
		return c.b.Bool, true
	case "bytes":
		return c.b.Bytes, true
	case "None":
		return c.b.None, true
	case "any":
		return c.b.Any, true
	case "list":
		return c.in.ListOf(c.b.Unresolved), true
	case "set":
		return c.in.SetOf(c.b.Unresolved), true
	}
	id, ok := c.table.Lookup(c.modScope, name)
	if !ok {
		return types.NoTypeID, false
	}
	if cls := c.classBySym[id]; cls != nil {
		return cls.Type, true
	}
	sym := c.table.Symbol(id)
	if sym.Kind == symbols.SymbolImport {
		ref := stdlib.TypeRef(sym.Module + "." + sym.Member)
		if _, ok := c.shims.TypeDef(ref); ok {
			return c.in.External(sym.Module, sym.Member), true
		}
	}
	return types.NoTypeID, false
}

// shimTypePath splits an attribute chain such as datetime.timedelta, where
// the head is an imported module, into the shim module and type name.
func (c *checker) shimTypePath(id ast.ExprID) (module, name string, ok bool) {
	a, ok := c.mod.Exprs.Attr(id)
	if !ok {
		return "", "", false
	}
	module, ok = c.modulePath(a.Target)
	if !ok {
		return "", "", false
	}
	return module, a.Name, true
}

// modulePath resolves a Name/Attr chain rooted at an imported module to the
// dotted shim module it denotes ("os.path" for os.path).
func (c *checker) modulePath(id ast.ExprID) (string, bool) {
	if n, ok := c.mod.Exprs.Name(id); ok {
		symID, ok := c.table.Lookup(c.scopeOrModule(), n.Name)
		if !ok {
			return "", false
		}
		sym := c.table.Symbol(symID)
		if sym.Kind != symbols.SymbolModule {
			return "", false
		}
		return sym.Module, true
	}
	a, ok := c.mod.Exprs.Attr(id)
	if !ok {
		return "", false
	}
	prefix, ok := c.modulePath(a.Target)
	if !ok {
		return "", false
	}
	full := prefix + "." + a.Name
	if _, ok := c.shims.Module(full); !ok {
		return "", false
	}
	return full, true
}

func (c *checker) scopeOrModule() symbols.ScopeID {
	if c.scope.IsValid() {
		return c.scope
	}
	return c.modScope
}

// typeOfRef converts a shim TypeRef into a TypeID.
func (c *checker) typeOfRef(ref stdlib.TypeRef) types.TypeID {
	switch ref {
	case stdlib.Int:
		return c.b.Int
	case stdlib.Float:
		return c.b.Float
	case stdlib.Bool:
		return c.b.Bool
	case stdlib.Str:
		return c.b.Str
	case stdlib.Bytes:
		return c.b.Bytes
	case stdlib.None:
		return c.b.None
	case stdlib.Any:
		return c.b.Any
	}
	if head, elem, ok := ref.Container(); ok {
		if head == "list" {
			return c.in.ListOf(c.typeOfRef(elem))
		}
		return c.in.SetOf(c.typeOfRef(elem))
	}
	module, name, ok := ref.External()
	if !ok {
		return types.NoTypeID
	}
	if module == "builtins" {
		return c.typeOfRef(stdlib.TypeRef(name))
	}
	return c.in.External(module, name)
}

// refOf is the inverse of typeOfRef for operand lookups. Receivers of str
// and bytes methods use the builtins.* spelling.
func (c *checker) refOf(t types.TypeID, receiver bool) (stdlib.TypeRef, bool) {
	switch c.in.KindOf(t) {
	case types.KindInt:
		return stdlib.Int, true
	case types.KindFloat:
		return stdlib.Float, true
	case types.KindBool:
		return stdlib.Bool, true
	case types.KindStr:
		if receiver {
			return "builtins.str", true
		}
		return stdlib.Str, true
	case types.KindBytes:
		if receiver {
			return "builtins.bytes", true
		}
		return stdlib.Bytes, true
	case types.KindExternal:
		info, ok := c.in.ExternalInfo(t)
		if !ok {
			return "", false
		}
		return stdlib.TypeRef(info.QualifiedName()), true
	}
	return "", false
}
