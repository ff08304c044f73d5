package sema

import (
	"github.com/hashicorp/go-set/v3"

	"waspy/internal/ast"
	"waspy/internal/stdlib"
	"waspy/internal/symbols"
	"waspy/internal/types"
)

// Result stores semantic artefacts produced by the checker. Once Check
// returns without errors every expression in ExprTypes has a concrete type.
type Result struct {
	TypeInterner *types.Interner
	Symbols      *symbols.Table
	Module       *Module

	ExprTypes map[ast.ExprID]types.TypeID
	// Names maps Name expressions (reads and assignment targets) to symbols.
	Names map[ast.ExprID]symbols.SymbolID
	Calls map[ast.ExprID]*CallInfo
	Attrs map[ast.ExprID]*AttrInfo
	// Consts holds shim constants and __name__, by the expression that reads them.
	Consts map[ast.ExprID]stdlib.Const
	// Ops maps binary expressions over external operands to their shim operator.
	Ops map[ast.ExprID]*stdlib.Symbol
	// AugOps is Ops for augmented assignments, keyed by statement.
	AugOps map[ast.StmtID]*stdlib.Symbol
	// ExceptTypes lists the classes matched by an except clause, keyed by its type expression.
	ExceptTypes map[ast.ExprID][]types.TypeID
	// HandlerVars binds "except T as name" targets.
	HandlerVars map[HandlerKey]symbols.SymbolID
	// Decorated records functions whose decorators were accepted and dropped.
	Decorated map[ast.StmtID][]string
}

// HandlerKey identifies one except clause of a try statement.
type HandlerKey struct {
	Stmt  ast.StmtID
	Index int
}

// Module is the semantic view of one source module.
type Module struct {
	Name string
	// MainName is the value of __name__.
	MainName string
	// Globals lists module variables and class variables in slot order.
	Globals []symbols.SymbolID
	Funcs   []*Func
	Classes []*Class
	// Init is the module body in execution order.
	Init  []InitStep
	Scope symbols.ScopeID
}

// Func is a free function or a method.
type Func struct {
	Sym    symbols.SymbolID
	Name   string // "f" or "Class.method"
	Stmt   ast.StmtID
	Decl   *ast.FuncDefData
	Class  *Class
	Static bool
	Params []symbols.SymbolID
	Locals []symbols.SymbolID
	Result types.TypeID
	Scope  symbols.ScopeID
	Export bool

	declaredResult bool
	globals        map[string]bool
	reads          *set.Set[symbols.SymbolID]
	calls          *set.Set[*Func]
	returns        bool
	fallsThrough   bool
}

// ParamTypes returns the resolved parameter types in order.
func (f *Func) ParamTypes(t *symbols.Table) []types.TypeID {
	out := make([]types.TypeID, len(f.Params))
	for i, p := range f.Params {
		out[i] = t.Symbol(p).Type
	}
	return out
}

// Class is a user or builtin record type.
type Class struct {
	Sym     symbols.SymbolID
	Name    string
	Type    types.TypeID
	Stmt    ast.StmtID
	Base    *Class
	Builtin bool
	Init    *Func // own __init__, nil when inherited
	Methods map[string]*Func
	Vars    map[string]symbols.SymbolID
	Fields  map[string]symbols.SymbolID
	Scope   symbols.ScopeID
	Export  bool
}

// FindMethod resolves name on the class or its nearest ancestor.
func (c *Class) FindMethod(name string) *Func {
	for cur := c; cur != nil; cur = cur.Base {
		if f, ok := cur.Methods[name]; ok {
			return f
		}
	}
	return nil
}

// FindInit returns the initializer used when constructing c and the class
// that declares it. A nil Func with a builtin owner means the builtin
// exception initializer (message: str = "").
func (c *Class) FindInit() (*Func, *Class) {
	for cur := c; cur != nil; cur = cur.Base {
		if cur.Init != nil {
			return cur.Init, cur
		}
		if cur.Builtin {
			return nil, cur
		}
	}
	return nil, nil
}

// IsException reports whether c derives from BaseException.
func (c *Class) IsException() bool {
	for cur := c; cur != nil; cur = cur.Base {
		if cur.Builtin {
			return true
		}
	}
	return false
}

// InitStep is one top-level statement of the module body.
type InitStep struct {
	Stmt ast.StmtID
	// Global is set when the step is the first assignment of a module variable.
	Global symbols.SymbolID
	// Static steps have a literal initializer that lives in the global table;
	// they emit no code.
	Static bool
}

// CallKind classifies resolved call expressions.
type CallKind uint8

const (
	CallInvalid CallKind = iota
	CallFunc
	CallMethod
	CallCtor
	CallSuper
	CallBuiltin
	CallBuiltinMethod
	CallException
	CallShim
	CallShimMethod
)

// CallInfo describes a resolved call. Args is in parameter order; a
// NoExprID entry takes the default: the user default expression in
// Defaults, or the shim constant in ShimDefaults.
type CallInfo struct {
	Kind    CallKind
	Func    *Func
	Class   *Class
	Builtin Builtin
	Method  BuiltinMethod
	Shim    *stdlib.Symbol
	Recv    ast.ExprID
	Args    []ast.ExprID
	// VarArgs are the extra arguments of a variadic shim, passed as a list.
	VarArgs      []ast.ExprID
	Defaults     []ast.ExprID
	ShimDefaults []*stdlib.Const
	Params       []types.TypeID
	Sep, End     ast.ExprID
}

// AttrKind classifies resolved attribute expressions.
type AttrKind uint8

const (
	AttrInvalid AttrKind = iota
	AttrField
	AttrClassVar
	AttrShimConst
	AttrShimGetter
)

// AttrInfo describes a resolved attribute read or write.
type AttrInfo struct {
	Kind   AttrKind
	Record types.TypeID
	Field  string
	Global symbols.SymbolID
	Shim   *stdlib.Symbol
}
