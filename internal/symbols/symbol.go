package symbols

import (
	"waspy/internal/ast"
	"waspy/internal/source"
	"waspy/internal/types"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	// SymbolModule is a name bound by "import m" / "import m as x".
	SymbolModule
	// SymbolImport is a shim member bound by "from m import x".
	SymbolImport
	SymbolFunction
	SymbolClass
	SymbolGlobal
	SymbolLocal
	SymbolParam
	SymbolField
	SymbolClassVar
	SymbolMethod
	SymbolBuiltin
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolModule:
		return "module"
	case SymbolImport:
		return "import"
	case SymbolFunction:
		return "function"
	case SymbolClass:
		return "class"
	case SymbolGlobal:
		return "global"
	case SymbolLocal:
		return "local"
	case SymbolParam:
		return "param"
	case SymbolField:
		return "field"
	case SymbolClassVar:
		return "classvar"
	case SymbolMethod:
		return "method"
	case SymbolBuiltin:
		return "builtin"
	default:
		return "invalid"
	}
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	SymbolFlagPublic SymbolFlags = 1 << iota
	// SymbolFlagDeclared marks a type fixed by an annotation; inference never widens it.
	SymbolFlagDeclared
	SymbolFlagStatic
	SymbolFlagException
)

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	if f&SymbolFlagPublic != 0 {
		labels = append(labels, "public")
	}
	if f&SymbolFlagDeclared != 0 {
		labels = append(labels, "declared")
	}
	if f&SymbolFlagStatic != 0 {
		labels = append(labels, "static")
	}
	if f&SymbolFlagException != 0 {
		labels = append(labels, "exception")
	}
	return labels
}

// Symbol describes a named entity available in a scope.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Scope ScopeID
	Span  source.Span
	Flags SymbolFlags
	Stmt  ast.StmtID
	Type  types.TypeID
	// Owner links methods, fields and class variables to their class symbol.
	Owner SymbolID
	// Module and Member name the shim entry behind module and import symbols.
	Module string
	Member string
	// Index is the slot number assigned by the owner (global slot, local slot, param position).
	Index int
}

// Qualified returns "Class.name" for class members and the plain name otherwise.
func (t *Table) Qualified(id SymbolID) string {
	sym := t.Symbol(id)
	if sym == nil {
		return ""
	}
	if sym.Owner.IsValid() {
		if owner := t.Symbol(sym.Owner); owner != nil {
			return owner.Name + "." + sym.Name
		}
	}
	return sym.Name
}
