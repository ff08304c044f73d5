package sema

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/source"
	"waspy/internal/stdlib"
	"waspy/internal/symbols"
	"waspy/internal/types"
)

// maxInferencePasses bounds the fixpoint; every pass can only move a type up
// a finite lattice, so real programs settle in a handful of passes.
const maxInferencePasses = 32

// Options configure a semantic pass over a module.
type Options struct {
	Reporter diag.Reporter
	// Shims must be frozen before any module is checked.
	Shims *stdlib.Registry
	Types *types.Interner
	// MainName is the value of __name__; empty selects "__main__".
	MainName string
}

// Check resolves names and types of mod. Errors are accumulated through
// opts.Reporter; the caller must not lower a module that produced any.
func Check(mod *ast.Module, opts Options) *Result {
	res := &Result{
		ExprTypes:   make(map[ast.ExprID]types.TypeID),
		Names:       make(map[ast.ExprID]symbols.SymbolID),
		Calls:       make(map[ast.ExprID]*CallInfo),
		Attrs:       make(map[ast.ExprID]*AttrInfo),
		Consts:      make(map[ast.ExprID]stdlib.Const),
		Ops:         make(map[ast.ExprID]*stdlib.Symbol),
		AugOps:      make(map[ast.StmtID]*stdlib.Symbol),
		ExceptTypes: make(map[ast.ExprID][]types.TypeID),
		HandlerVars: make(map[HandlerKey]symbols.SymbolID),
		Decorated:   make(map[ast.StmtID][]string),
	}
	res.TypeInterner = opts.Types
	if res.TypeInterner == nil {
		res.TypeInterner = types.NewInterner()
	}
	if opts.Shims == nil {
		opts.Shims = stdlib.Default().Freeze()
	}
	if opts.MainName == "" {
		opts.MainName = "__main__"
	}
	res.Symbols = symbols.NewTable()
	if mod == nil {
		return res
	}
	c := &checker{
		mod:        mod,
		opts:       opts,
		in:         res.TypeInterner,
		b:          res.TypeInterner.Builtins(),
		table:      res.Symbols,
		res:        res,
		shims:      opts.Shims,
		classByTy:  make(map[types.TypeID]*Class),
		funcBySym:  make(map[symbols.SymbolID]*Func),
		classBySym: make(map[symbols.SymbolID]*Class),
		reported:   make(map[symbols.SymbolID]bool),
		numericUse: make(map[symbols.SymbolID]bool),
	}
	c.run()
	return res
}

type checker struct {
	mod   *ast.Module
	opts  Options
	in    *types.Interner
	b     types.Builtins
	table *symbols.Table
	res   *Result
	shims *stdlib.Registry

	builtinScope symbols.ScopeID
	modScope     symbols.ScopeID
	funcs        []*Func
	classes      []*Class
	classByTy    map[types.TypeID]*Class
	funcBySym    map[symbols.SymbolID]*Func
	classBySym   map[symbols.SymbolID]*Class
	nextClassID  uint32

	final      bool
	changed    bool
	errors     int
	reported   map[symbols.SymbolID]bool
	numericUse map[symbols.SymbolID]bool

	annots  map[ast.ExprID]annotResult
	unbound *set.Set[symbols.SymbolID]

	// walk state
	fn           *Func
	scope        symbols.ScopeID
	handlerDepth int
	flow         *flowState
	loops        []*loopFlow
	inForIter    bool
	step         *stepDeps
	steps        map[ast.StmtID]*stepDeps
}

func (c *checker) run() {
	c.declareBuiltins()
	c.declareModule()
	if c.errors > 0 {
		// declaration errors make every later diagnostic noise
		c.finish()
		return
	}

	c.infer()
	for _, sym := range c.defaultNumericParams() {
		c.table.SetType(sym, c.b.Int)
		c.changed = true
	}
	c.infer()

	c.final = true
	c.resetTables()
	c.pass()
	c.checkUnresolved()
	c.res.Module.Init = c.orderInit()
	c.finish()
}

func (c *checker) infer() {
	for range maxInferencePasses {
		c.changed = false
		c.pass()
		if !c.changed {
			return
		}
	}
}

// pass walks every body once. The module body goes first so module
// variables take their type from the top-level assignment.
func (c *checker) pass() {
	c.checkModuleBody()
	for _, f := range c.funcs {
		if f.Decl != nil {
			c.checkFunc(f)
		}
	}
}

func (c *checker) resetTables() {
	clear(c.res.ExprTypes)
	clear(c.res.Names)
	clear(c.res.Calls)
	clear(c.res.Attrs)
	clear(c.res.Consts)
	clear(c.res.Ops)
	clear(c.res.AugOps)
	clear(c.res.ExceptTypes)
	clear(c.res.HandlerVars)
}

func (c *checker) finish() {
	if m := c.res.Module; m != nil {
		m.Funcs = c.funcs
		m.Classes = c.classes
	}
	c.table.Freeze()
}

// report emits a diagnostic unconditionally; declaration errors use it.
func (c *checker) report(code diag.Code, sp source.Span, format string, args ...any) {
	c.errors++
	if c.opts.Reporter == nil {
		return
	}
	diag.ReportError(c.opts.Reporter, code, sp, fmt.Sprintf(format, args...)).Emit()
}

// errorf emits only during the final pass; inference passes stay silent.
func (c *checker) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	if !c.final {
		return
	}
	c.report(code, sp, format, args...)
}

func (c *checker) typeName(t types.TypeID) string {
	return c.in.TypeString(t)
}

func (c *checker) exprSpan(id ast.ExprID) source.Span {
	if e := c.mod.Exprs.Get(id); e != nil {
		return e.Span
	}
	return source.Span{}
}

func (c *checker) stmtSpan(id ast.StmtID) source.Span {
	if s := c.mod.Stmts.Get(id); s != nil {
		return s.Span
	}
	return source.Span{}
}

// record stores the type of an expression and returns it.
func (c *checker) record(id ast.ExprID, t types.TypeID) types.TypeID {
	c.res.ExprTypes[id] = t
	return t
}

func (c *checker) invalid(id ast.ExprID) types.TypeID {
	c.res.ExprTypes[id] = types.NoTypeID
	return types.NoTypeID
}

// checkUnresolved reports symbols and expressions inference could not settle,
// then replaces leftover placeholders inside containers (the element type of
// an empty display nobody refined) with None so lowering sees concrete types.
func (c *checker) checkUnresolved() {
	for _, f := range c.funcs {
		for _, id := range append(append([]symbols.SymbolID(nil), f.Params...), f.Locals...) {
			c.requireResolved(id)
		}
		if c.in.KindOf(f.Result) == types.KindUnresolved {
			if c.errors == 0 {
				c.report(diag.TypeCannotInfer, f.Decl.NameSpan, "cannot infer the return type of %q", f.Name)
			}
			f.Result = c.b.None
		}
	}
	for _, id := range c.res.Module.Globals {
		c.requireResolved(id)
	}
	for _, cls := range c.classes {
		for _, id := range cls.Fields {
			c.requireResolved(id)
		}
	}
	none := c.b.None
	for id, t := range c.res.ExprTypes {
		if t == types.NoTypeID || !c.in.HasUnresolved(t) {
			continue
		}
		if c.in.KindOf(t) == types.KindUnresolved && c.errors == 0 {
			c.report(diag.TypeCannotInfer, c.exprSpan(id), "cannot infer the type of this expression")
		}
		c.res.ExprTypes[id] = c.settle(t, none)
	}
}

func (c *checker) requireResolved(id symbols.SymbolID) {
	sym := c.table.Symbol(id)
	if sym == nil || sym.Type == types.NoTypeID {
		return
	}
	if c.in.KindOf(sym.Type) == types.KindUnresolved {
		// после ошибок неизвестный тип обычно следствие, а не причина
		if !c.reported[id] && c.errors == 0 {
			c.reported[id] = true
			c.report(diag.TypeCannotInfer, sym.Span, "cannot infer the type of %q; add an annotation", sym.Name)
		}
		return
	}
	if c.in.HasUnresolved(sym.Type) {
		c.table.SetType(id, c.settle(sym.Type, c.b.None))
		if sym.Kind == symbols.SymbolField {
			c.in.SetFieldType(c.classBySym[sym.Owner].Type, sym.Name, sym.Type)
		}
	}
}

// settle replaces placeholders in t with fill.
func (c *checker) settle(t, fill types.TypeID) types.TypeID {
	tt, ok := c.in.Lookup(t)
	if !ok {
		return t
	}
	switch tt.Kind {
	case types.KindUnresolved:
		return fill
	case types.KindList:
		return c.in.ListOf(c.settle(tt.Elem, fill))
	case types.KindSet:
		return c.in.SetOf(c.settle(tt.Elem, fill))
	}
	return t
}
