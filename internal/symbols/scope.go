package symbols

import "waspy/internal/source"

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeBuiltin            // print, len, exception classes
	ScopeModule             // module-level declarations
	ScopeClass              // class body: methods, fields, class variables
	ScopeFunction           // function body and parameters
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeBuiltin:
		return "builtin"
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope with a parent-child hierarchy.
type Scope struct {
	Kind      ScopeKind
	Name      string
	Parent    ScopeID
	Span      source.Span
	NameIndex map[string]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
}
