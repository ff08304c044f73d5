package sema

import (
	"strings"

	"github.com/hashicorp/go-set/v3"

	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/source"
	"waspy/internal/symbols"
	"waspy/internal/types"
)

// typingModule is accepted by imports without a shim entry; it only feeds annotations.
const typingModule = "typing"

var typingNames = map[string]bool{"List": true, "Set": true, "Any": true}

func (c *checker) declareBuiltins() {
	c.builtinScope = c.table.NewScope(symbols.ScopeBuiltin, symbols.NoScopeID, "builtins", source.Span{})
	byName := make(map[string]*Class, len(builtinExceptions))
	for _, e := range builtinExceptions {
		rec := c.in.NewRecord(e.name, e.id)
		info, _ := c.in.Record(rec)
		info.Builtin = true
		info.Exception = true
		cls := &Class{Name: e.name, Type: rec, Builtin: true, Methods: map[string]*Func{}, Vars: map[string]symbols.SymbolID{}, Fields: map[string]symbols.SymbolID{}}
		if parent, ok := byName[e.parent]; ok {
			cls.Base = parent
			c.in.SetBase(rec, parent.Type)
		} else {
			c.in.AddField(rec, "message", c.b.Str)
		}
		cls.Sym, _ = c.table.Declare(c.builtinScope, symbols.Symbol{
			Name: e.name, Kind: symbols.SymbolClass, Type: rec,
			Flags: symbols.SymbolFlagException | symbols.SymbolFlagDeclared,
		})
		byName[e.name] = cls
		c.classByTy[rec] = cls
		c.classBySym[cls.Sym] = cls
		c.classes = append(c.classes, cls)
	}
	for name := range builtinNames {
		c.table.Declare(c.builtinScope, symbols.Symbol{Name: name, Kind: symbols.SymbolBuiltin})
	}
	c.table.Declare(c.builtinScope, symbols.Symbol{Name: "__name__", Kind: symbols.SymbolBuiltin, Type: c.b.Str})
	c.nextClassID = FirstUserClassID
}

func (c *checker) declareModule() {
	var span source.Span
	if n := len(c.mod.Body); n > 0 {
		span = c.stmtSpan(c.mod.Body[0]).Cover(c.stmtSpan(c.mod.Body[n-1]))
	}
	c.modScope = c.table.NewScope(symbols.ScopeModule, c.builtinScope, c.mod.Name, span)
	c.res.Module = &Module{Name: c.mod.Name, MainName: c.opts.MainName, Scope: c.modScope}

	var classStmts, funcStmts []ast.StmtID
	for _, id := range c.mod.Body {
		st := c.mod.Stmts.Get(id)
		switch st.Kind {
		case ast.StmtImport:
			c.declareImport(id)
		case ast.StmtImportFrom:
			c.declareImportFrom(id)
		case ast.StmtClassDef:
			classStmts = append(classStmts, id)
			c.declareClass(id)
		case ast.StmtFuncDef:
			funcStmts = append(funcStmts, id)
		}
	}
	// names bound by module-level code, including nested blocks
	c.walkBindings(c.mod.Body, func(name string, sp source.Span, stmt ast.StmtID) {
		c.declareGlobal(name, sp, stmt)
	}, nil)

	for _, cls := range c.classes {
		if !cls.Builtin {
			c.linkBase(cls)
		}
	}
	for _, id := range funcStmts {
		c.declareFunc(id, nil)
	}
	for _, cls := range c.orderedClasses() {
		c.declareClassBody(cls)
	}
	for _, f := range c.funcs {
		c.declareLocals(f)
	}
}

func (c *checker) declareImport(id ast.StmtID) {
	data, _ := c.mod.Stmts.Import(id)
	for _, n := range data.Names {
		if n.Name != typingModule {
			if _, ok := c.shims.Module(n.Name); !ok {
				c.report(diag.NameUnknownModule, n.Span, "no shim module named %q", n.Name)
				continue
			}
		}
		bind, module := n.Alias, n.Name
		if bind == "" {
			// "import a.b" binds a; a.b is reached through attribute access
			bind, _, _ = strings.Cut(n.Name, ".")
			module = bind
		}
		prev, ok := c.table.Declare(c.modScope, symbols.Symbol{
			Name: bind, Kind: symbols.SymbolModule, Span: n.Span, Stmt: id, Module: module,
		})
		if !ok {
			if p := c.table.Symbol(prev); p.Kind != symbols.SymbolModule || p.Module != module {
				c.report(diag.NameDuplicate, n.Span, "%q is already defined", bind)
			}
		}
	}
}

func (c *checker) declareImportFrom(id ast.StmtID) {
	data, _ := c.mod.Stmts.ImportFrom(id)
	if data.Module != typingModule {
		if _, ok := c.shims.Module(data.Module); !ok {
			c.report(diag.NameUnknownModule, data.ModuleSpan, "no shim module named %q", data.Module)
			return
		}
	}
	for _, n := range data.Names {
		if !c.importable(data.Module, n.Name) {
			c.report(diag.NameUnknownImport, n.Span, "cannot import %q from %q", n.Name, data.Module)
			continue
		}
		bind := n.Alias
		if bind == "" {
			bind = n.Name
		}
		kind := symbols.SymbolImport
		sym := symbols.Symbol{Name: bind, Kind: kind, Span: n.Span, Stmt: id, Module: data.Module, Member: n.Name}
		if _, ok := c.shims.Module(data.Module + "." + n.Name); ok {
			sym.Kind = symbols.SymbolModule
			sym.Module = data.Module + "." + n.Name
			sym.Member = ""
		}
		if _, ok := c.table.Declare(c.modScope, sym); !ok {
			c.report(diag.NameDuplicate, n.Span, "%q is already defined", bind)
		}
	}
}

func (c *checker) importable(module, name string) bool {
	if module == typingModule {
		return typingNames[name]
	}
	if _, ok := c.shims.Lookup(module, name); ok {
		return true
	}
	if m, ok := c.shims.Module(module); ok {
		if _, ok := m.Types[name]; ok {
			return true
		}
	}
	_, ok := c.shims.Module(module + "." + name)
	return ok
}

func (c *checker) declareGlobal(name string, sp source.Span, stmt ast.StmtID) symbols.SymbolID {
	if id, ok := c.table.LookupLocal(c.modScope, name); ok {
		sym := c.table.Symbol(id)
		switch sym.Kind {
		case symbols.SymbolGlobal:
		case symbols.SymbolFunction, symbols.SymbolClass:
			c.report(diag.NameDuplicate, sp, "cannot assign to %s %q", sym.Kind, name)
		default:
			c.report(diag.NameDuplicate, sp, "cannot rebind imported name %q", name)
		}
		return id
	}
	id, _ := c.table.Declare(c.modScope, symbols.Symbol{
		Name: name, Kind: symbols.SymbolGlobal, Span: sp, Stmt: stmt, Type: c.b.Unresolved,
		Index: len(c.res.Module.Globals),
	})
	c.res.Module.Globals = append(c.res.Module.Globals, id)
	return id
}

// walkBindings reports every name bound by stmts (assignment targets, loop
// targets, handler names) without descending into nested definitions.
// onGlobal, when set, receives names listed in global statements.
func (c *checker) walkBindings(stmts []ast.StmtID, bind func(string, source.Span, ast.StmtID), onGlobal func([]string, ast.StmtID)) {
	var target func(ast.ExprID, ast.StmtID)
	target = func(e ast.ExprID, stmt ast.StmtID) {
		if n, ok := c.mod.Exprs.Name(e); ok {
			bind(n.Name, c.exprSpan(e), stmt)
		}
	}
	for _, id := range stmts {
		st := c.mod.Stmts.Get(id)
		switch st.Kind {
		case ast.StmtAssign:
			d, _ := c.mod.Stmts.Assign(id)
			for _, t := range d.Targets {
				target(t, id)
			}
		case ast.StmtAnnAssign:
			d, _ := c.mod.Stmts.AnnAssign(id)
			target(d.Target, id)
		case ast.StmtAugAssign:
			d, _ := c.mod.Stmts.AugAssign(id)
			target(d.Target, id)
		case ast.StmtIf:
			d, _ := c.mod.Stmts.If(id)
			c.walkBindings(d.Body, bind, onGlobal)
			c.walkBindings(d.Else, bind, onGlobal)
		case ast.StmtWhile:
			d, _ := c.mod.Stmts.While(id)
			c.walkBindings(d.Body, bind, onGlobal)
			c.walkBindings(d.Else, bind, onGlobal)
		case ast.StmtFor:
			d, _ := c.mod.Stmts.For(id)
			target(d.Target, id)
			c.walkBindings(d.Body, bind, onGlobal)
			c.walkBindings(d.Else, bind, onGlobal)
		case ast.StmtTry:
			d, _ := c.mod.Stmts.Try(id)
			c.walkBindings(d.Body, bind, onGlobal)
			for _, h := range d.Handlers {
				if h.Name != "" {
					bind(h.Name, h.NameSpan, id)
				}
				c.walkBindings(h.Body, bind, onGlobal)
			}
			c.walkBindings(d.Else, bind, onGlobal)
			c.walkBindings(d.Finally, bind, onGlobal)
		case ast.StmtGlobal:
			if onGlobal != nil {
				d, _ := c.mod.Stmts.Global(id)
				onGlobal(d.Names, id)
			}
		}
	}
}

func (c *checker) declareClass(id ast.StmtID) {
	data, _ := c.mod.Stmts.ClassDef(id)
	for _, dec := range data.Decorators {
		c.report(diag.TypeUnsupported, c.exprSpan(dec), "class decorators are not supported")
	}
	rec := c.in.NewRecord(data.Name, c.nextClassID)
	c.nextClassID++
	cls := &Class{
		Name: data.Name, Type: rec, Stmt: id,
		Methods: map[string]*Func{}, Vars: map[string]symbols.SymbolID{}, Fields: map[string]symbols.SymbolID{},
		Export: !strings.HasPrefix(data.Name, "_"),
	}
	sym, ok := c.table.Declare(c.modScope, symbols.Symbol{
		Name: data.Name, Kind: symbols.SymbolClass, Span: data.NameSpan, Stmt: id, Type: rec,
		Flags: symbols.SymbolFlagDeclared,
	})
	if !ok {
		c.report(diag.NameDuplicate, data.NameSpan, "%q is already defined", data.Name)
		return
	}
	if cls.Export {
		c.table.Symbol(sym).Flags |= symbols.SymbolFlagPublic
	}
	cls.Sym = sym
	cls.Scope = c.table.NewScope(symbols.ScopeClass, c.modScope, data.Name, c.stmtSpan(id))
	c.classes = append(c.classes, cls)
	c.classByTy[rec] = cls
	c.classBySym[sym] = cls
}

func (c *checker) linkBase(cls *Class) {
	data, _ := c.mod.Stmts.ClassDef(cls.Stmt)
	if len(data.Bases) > 1 {
		c.report(diag.TypeBadBase, c.exprSpan(data.Bases[1]), "multiple inheritance is not supported")
	}
	if len(data.Bases) == 0 {
		return
	}
	baseExpr := data.Bases[0]
	n, ok := c.mod.Exprs.Name(baseExpr)
	if !ok {
		c.report(diag.TypeBadBase, c.exprSpan(baseExpr), "base class must be a class name")
		return
	}
	if n.Name == "object" {
		return
	}
	id, ok := c.table.Lookup(c.modScope, n.Name)
	base := c.classBySym[id]
	if !ok || base == nil {
		c.report(diag.TypeBadBase, c.exprSpan(baseExpr), "%q is not a class", n.Name)
		return
	}
	for cur := base; cur != nil; cur = cur.Base {
		if cur == cls {
			c.report(diag.TypeBadBase, c.exprSpan(baseExpr), "class %q inherits from itself", cls.Name)
			return
		}
	}
	cls.Base = base
	c.in.SetBase(cls.Type, base.Type)
	if cls.IsException() {
		c.table.Symbol(cls.Sym).Flags |= symbols.SymbolFlagException
	}
}

// orderedClasses returns user classes with bases before derived classes.
func (c *checker) orderedClasses() []*Class {
	done := set.New[*Class](len(c.classes))
	var out []*Class
	var visit func(*Class)
	visit = func(cls *Class) {
		if cls == nil || cls.Builtin || done.Contains(cls) {
			return
		}
		done.Insert(cls)
		visit(cls.Base)
		out = append(out, cls)
	}
	for _, cls := range c.classes {
		visit(cls)
	}
	return out
}

func (c *checker) declareClassBody(cls *Class) {
	data, _ := c.mod.Stmts.ClassDef(cls.Stmt)
	var methods []ast.StmtID
	for _, id := range data.Body {
		st := c.mod.Stmts.Get(id)
		switch st.Kind {
		case ast.StmtPass:
		case ast.StmtExpr:
			x, _ := c.mod.Stmts.Expr(id)
			if c.mod.Exprs.Get(x.X).Kind != ast.ExprStr {
				c.report(diag.TypeUnsupported, st.Span, "only docstrings, fields, class variables and methods may appear in a class body")
			}
		case ast.StmtAnnAssign:
			d, _ := c.mod.Stmts.AnnAssign(id)
			n, ok := c.mod.Exprs.Name(d.Target)
			if !ok {
				c.report(diag.TypeUnsupported, st.Span, "unsupported class body target")
				continue
			}
			ty, ok := c.annotation(d.Annotation)
			if !ok {
				continue
			}
			if d.Value == ast.NoExprID {
				c.declareField(cls, n.Name, c.exprSpan(d.Target), ty, true)
			} else {
				c.declareClassVar(cls, n.Name, c.exprSpan(d.Target), id, ty, true)
			}
		case ast.StmtAssign:
			d, _ := c.mod.Stmts.Assign(id)
			for _, t := range d.Targets {
				n, ok := c.mod.Exprs.Name(t)
				if !ok {
					c.report(diag.TypeUnsupported, c.exprSpan(t), "unsupported class body target")
					continue
				}
				c.declareClassVar(cls, n.Name, c.exprSpan(t), id, c.b.Unresolved, false)
			}
		case ast.StmtFuncDef:
			methods = append(methods, id)
		default:
			c.report(diag.TypeUnsupported, st.Span, "%s statements are not supported in a class body", st.Kind)
		}
	}
	for _, id := range methods {
		f := c.declareFunc(id, cls)
		if f == nil || f.Static || len(f.Params) == 0 {
			continue
		}
		self := c.table.Symbol(f.Params[0]).Name
		c.scanSelfFields(cls, f.Decl.Body, self)
	}
}

func (c *checker) declareField(cls *Class, name string, sp source.Span, ty types.TypeID, declared bool) {
	if _, _, exists := c.in.LookupField(cls.Type, name); exists {
		if _, own := cls.Fields[name]; own && declared {
			c.report(diag.NameDuplicate, sp, "field %q is already declared", name)
		}
		return
	}
	flags := symbols.SymbolFlags(0)
	if declared {
		flags |= symbols.SymbolFlagDeclared
	}
	id, ok := c.table.Declare(cls.Scope, symbols.Symbol{Name: name, Kind: symbols.SymbolField, Span: sp, Type: ty, Owner: cls.Sym, Flags: flags})
	if !ok {
		c.report(diag.NameDuplicate, sp, "%q is already defined in class %q", name, cls.Name)
		return
	}
	cls.Fields[name] = id
	c.in.AddField(cls.Type, name, ty)
}

func (c *checker) declareClassVar(cls *Class, name string, sp source.Span, stmt ast.StmtID, ty types.TypeID, declared bool) {
	if _, exists := cls.Vars[name]; exists {
		return
	}
	flags := symbols.SymbolFlags(0)
	if declared {
		flags |= symbols.SymbolFlagDeclared
	}
	id, ok := c.table.Declare(cls.Scope, symbols.Symbol{
		Name: name, Kind: symbols.SymbolClassVar, Span: sp, Stmt: stmt, Type: ty, Owner: cls.Sym, Flags: flags,
		Index: len(c.res.Module.Globals),
	})
	if !ok {
		c.report(diag.NameDuplicate, sp, "%q is already defined in class %q", name, cls.Name)
		return
	}
	cls.Vars[name] = id
	c.res.Module.Globals = append(c.res.Module.Globals, id)
}

// scanSelfFields declares a field for every self.name assignment in a method.
func (c *checker) scanSelfFields(cls *Class, body []ast.StmtID, self string) {
	isSelfAttr := func(e ast.ExprID) (string, source.Span, bool) {
		a, ok := c.mod.Exprs.Attr(e)
		if !ok {
			return "", source.Span{}, false
		}
		n, ok := c.mod.Exprs.Name(a.Target)
		if !ok || n.Name != self {
			return "", source.Span{}, false
		}
		return a.Name, a.NameSpan, true
	}
	for _, id := range body {
		st := c.mod.Stmts.Get(id)
		switch st.Kind {
		case ast.StmtAssign:
			d, _ := c.mod.Stmts.Assign(id)
			for _, t := range d.Targets {
				if name, sp, ok := isSelfAttr(t); ok {
					c.declareField(cls, name, sp, c.b.Unresolved, false)
				}
			}
		case ast.StmtAnnAssign:
			d, _ := c.mod.Stmts.AnnAssign(id)
			if name, sp, ok := isSelfAttr(d.Target); ok {
				if ty, ok := c.annotation(d.Annotation); ok {
					c.declareField(cls, name, sp, ty, true)
				}
			}
		case ast.StmtIf:
			d, _ := c.mod.Stmts.If(id)
			c.scanSelfFields(cls, d.Body, self)
			c.scanSelfFields(cls, d.Else, self)
		case ast.StmtWhile:
			d, _ := c.mod.Stmts.While(id)
			c.scanSelfFields(cls, d.Body, self)
			c.scanSelfFields(cls, d.Else, self)
		case ast.StmtFor:
			d, _ := c.mod.Stmts.For(id)
			c.scanSelfFields(cls, d.Body, self)
			c.scanSelfFields(cls, d.Else, self)
		case ast.StmtTry:
			d, _ := c.mod.Stmts.Try(id)
			c.scanSelfFields(cls, d.Body, self)
			for _, h := range d.Handlers {
				c.scanSelfFields(cls, h.Body, self)
			}
			c.scanSelfFields(cls, d.Else, self)
			c.scanSelfFields(cls, d.Finally, self)
		}
	}
}

func (c *checker) declareFunc(id ast.StmtID, cls *Class) *Func {
	data, _ := c.mod.Stmts.FuncDef(id)
	f := &Func{
		Name: data.Name, Stmt: id, Decl: data, Class: cls,
		globals: map[string]bool{},
		reads:   set.New[symbols.SymbolID](4),
		calls:   set.New[*Func](4),
	}
	parent := c.modScope
	kind := symbols.SymbolFunction
	if cls != nil {
		f.Name = cls.Name + "." + data.Name
		parent = cls.Scope
		kind = symbols.SymbolMethod
	}
	c.checkDecorators(f)
	f.Export = !strings.HasPrefix(data.Name, "_") && (cls == nil || cls.Export)
	sym := symbols.Symbol{Name: data.Name, Kind: kind, Span: data.NameSpan, Stmt: id}
	if cls != nil {
		sym.Owner = cls.Sym
	}
	if f.Export {
		sym.Flags |= symbols.SymbolFlagPublic
	}
	if f.Static {
		sym.Flags |= symbols.SymbolFlagStatic
	}
	symID, ok := c.table.Declare(parent, sym)
	if !ok {
		c.report(diag.NameDuplicate, data.NameSpan, "%q is already defined", data.Name)
		return nil
	}
	f.Sym = symID
	f.Scope = c.table.NewScope(symbols.ScopeFunction, parent, f.Name, c.stmtSpan(id))

	for i, p := range data.Params {
		ty := c.b.Unresolved
		flags := symbols.SymbolFlags(0)
		switch {
		case i == 0 && cls != nil && !f.Static:
			ty = cls.Type
			flags |= symbols.SymbolFlagDeclared
			if p.Annotation != ast.NoExprID {
				if at, ok := c.annotation(p.Annotation); ok && at != cls.Type {
					c.report(diag.TypeBadAnnotation, c.exprSpan(p.Annotation), "the first parameter of a method is the instance of %q", cls.Name)
				}
			}
		case p.Annotation != ast.NoExprID:
			at, ok := c.annotation(p.Annotation)
			if !ok {
				at = types.NoTypeID
			}
			ty = at
			flags |= symbols.SymbolFlagDeclared
		}
		if p.Default != ast.NoExprID && !c.mod.IsConstant(p.Default) {
			c.report(diag.TypeBadDefault, c.exprSpan(p.Default), "default values must be literal constants")
		}
		pid, ok := c.table.Declare(f.Scope, symbols.Symbol{Name: p.Name, Kind: symbols.SymbolParam, Span: p.Span, Type: ty, Flags: flags, Index: i})
		if !ok {
			continue
		}
		f.Params = append(f.Params, pid)
	}
	if cls != nil && !f.Static && len(f.Params) == 0 {
		c.report(diag.TypeArity, data.NameSpan, "method %q needs a self parameter", f.Name)
	}

	switch {
	case data.Returns != ast.NoExprID:
		if rt, ok := c.annotation(data.Returns); ok {
			f.Result = rt
		}
		f.declaredResult = true
	case cls != nil && data.Name == "__init__":
		f.Result = c.b.None
		f.declaredResult = true
	default:
		f.Result = c.b.Unresolved
	}
	if cls != nil {
		cls.Methods[data.Name] = f
		if data.Name == "__init__" {
			cls.Init = f
			if f.Result != c.b.None {
				c.report(diag.TypeReturnMismatch, data.NameSpan, "__init__ must return None")
			}
		}
	}
	c.funcs = append(c.funcs, f)
	c.funcBySym[symID] = f
	return f
}

func (c *checker) checkDecorators(f *Func) {
	for _, dec := range f.Decl.Decorators {
		target := dec
		if call, ok := c.mod.Exprs.Call(dec); ok {
			target = call.Func
		}
		name, _ := c.mod.DottedName(target)
		switch {
		case name == "staticmethod" && f.Class != nil:
			f.Static = true
		case c.isShimDecorator(target):
		default:
			c.report(diag.TypeUnsupported, c.exprSpan(dec), "decorator %q is not supported", name)
			continue
		}
		c.res.Decorated[f.Stmt] = append(c.res.Decorated[f.Stmt], name)
	}
}

// declareLocals binds parameters, locals and global declarations of f.
func (c *checker) declareLocals(f *Func) {
	assigned := map[string]source.Span{}
	var order []string
	c.walkBindings(f.Decl.Body, func(name string, sp source.Span, _ ast.StmtID) {
		if _, ok := assigned[name]; !ok {
			assigned[name] = sp
			order = append(order, name)
		}
	}, func(names []string, stmt ast.StmtID) {
		for _, name := range names {
			if sp, ok := assigned[name]; ok && sp.Start < c.stmtSpan(stmt).Start {
				c.report(diag.NameGlobalAfterUse, c.stmtSpan(stmt), "name %q is assigned before global declaration", name)
			}
			if _, isParam := c.table.LookupLocal(f.Scope, name); isParam {
				c.report(diag.NameGlobalAfterUse, c.stmtSpan(stmt), "name %q is parameter and global", name)
				continue
			}
			f.globals[name] = true
			if _, ok := c.table.LookupLocal(c.modScope, name); !ok {
				c.declareGlobal(name, c.stmtSpan(stmt), stmt)
			}
		}
	})
	c.rejectNestedDefs(f.Decl.Body)
	for _, name := range order {
		if f.globals[name] {
			continue
		}
		if _, isParam := c.table.LookupLocal(f.Scope, name); isParam {
			continue
		}
		id, ok := c.table.Declare(f.Scope, symbols.Symbol{
			Name: name, Kind: symbols.SymbolLocal, Span: assigned[name], Type: c.b.Unresolved,
			Index: len(f.Params) + len(f.Locals),
		})
		if ok {
			f.Locals = append(f.Locals, id)
		}
	}
}

func (c *checker) rejectNestedDefs(stmts []ast.StmtID) {
	for _, id := range stmts {
		st := c.mod.Stmts.Get(id)
		switch st.Kind {
		case ast.StmtFuncDef:
			c.report(diag.TypeUnsupported, st.Span, "nested functions are not supported")
		case ast.StmtClassDef:
			c.report(diag.TypeUnsupported, st.Span, "nested classes are not supported")
		case ast.StmtImport, ast.StmtImportFrom:
			c.report(diag.TypeUnsupported, st.Span, "imports must appear at module level")
		case ast.StmtIf:
			d, _ := c.mod.Stmts.If(id)
			c.rejectNestedDefs(d.Body)
			c.rejectNestedDefs(d.Else)
		case ast.StmtWhile:
			d, _ := c.mod.Stmts.While(id)
			c.rejectNestedDefs(d.Body)
			c.rejectNestedDefs(d.Else)
		case ast.StmtFor:
			d, _ := c.mod.Stmts.For(id)
			c.rejectNestedDefs(d.Body)
			c.rejectNestedDefs(d.Else)
		case ast.StmtTry:
			d, _ := c.mod.Stmts.Try(id)
			c.rejectNestedDefs(d.Body)
			for _, h := range d.Handlers {
				c.rejectNestedDefs(h.Body)
			}
			c.rejectNestedDefs(d.Else)
			c.rejectNestedDefs(d.Finally)
		}
	}
}
