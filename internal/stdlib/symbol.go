package stdlib

import (
	"fmt"
	"strings"
)

// SymbolKind distinguishes entries of the shim contract.
type SymbolKind uint8

const (
	SymConst SymbolKind = iota
	SymFunc
	// SymDecorator is accepted on a def and leaves the function unchanged.
	SymDecorator
)

func (k SymbolKind) String() string {
	switch k {
	case SymConst:
		return "const"
	case SymFunc:
		return "func"
	case SymDecorator:
		return "decorator"
	default:
		return fmt.Sprintf("SymbolKind(%d)", k)
	}
}

// ConstKind tags a constant value.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstStr
	ConstBool
)

// Const is the value of a constant symbol or of a parameter default.
type Const struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

// Type returns the TypeRef of the constant.
func (c Const) Type() TypeRef {
	switch c.Kind {
	case ConstFloat:
		return Float
	case ConstStr:
		return Str
	case ConstBool:
		return Bool
	default:
		return Int
	}
}

func (c Const) String() string {
	switch c.Kind {
	case ConstFloat:
		return fmt.Sprintf("%g", c.Float)
	case ConstStr:
		return fmt.Sprintf("%q", c.Str)
	case ConstBool:
		if c.Bool {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprintf("%d", c.Int)
	}
}

// Param is one formal parameter of a shim function. A nil Default makes it required.
type Param struct {
	Name    string
	Type    TypeRef
	Default *Const
}

// Symbol is one entry of the shim contract.
type Symbol struct {
	Module string
	// Name is the member name; for members of external types it is "Type.member".
	Name     string
	Kind     SymbolKind
	Params   []Param
	Variadic bool // the last parameter repeats
	Result   TypeRef
	Value    Const
}

// ImportModule is the wasm import module for the symbol.
func (s *Symbol) ImportModule() string { return s.Module }

// ImportName is the agreed wasm import field name for the symbol.
func (s *Symbol) ImportName() string { return s.Name }

// Qualified returns "module.Name".
func (s *Symbol) Qualified() string { return s.Module + "." + s.Name }

// MinArgs counts the leading required parameters.
func (s *Symbol) MinArgs() int {
	n := 0
	for _, p := range s.Params {
		if p.Default != nil {
			break
		}
		n++
	}
	if s.Variadic && n == len(s.Params) && n > 0 {
		n--
	}
	return n
}

// Signature renders the symbol like a Python stub line.
func (s *Symbol) Signature() string {
	if s.Kind == SymConst {
		return fmt.Sprintf("%s: %s = %s", s.Qualified(), s.Value.Type(), s.Value)
	}
	parts := make([]string, 0, len(s.Params))
	for i, p := range s.Params {
		item := p.Name + ": " + string(p.Type)
		if s.Variadic && i == len(s.Params)-1 {
			item = "*" + item
		}
		if p.Default != nil {
			item += " = " + p.Default.String()
		}
		parts = append(parts, item)
	}
	return fmt.Sprintf("%s(%s) -> %s", s.Qualified(), strings.Join(parts, ", "), s.Result)
}

// TypeDef is an external (opaque) type owned by a shim module.
type TypeDef struct {
	Module string
	Name   string
	// Ctor is nil for types that cannot be constructed directly (re.Match).
	Ctor    *Symbol
	Statics map[string]*Symbol // datetime.datetime.now()
	Methods map[string]*Symbol // receiver passed as the first parameter
	Attrs   map[string]*Symbol // getters taking the receiver
	// Comparable types support ordering and equality through the host.
	Comparable bool
}

// Ref returns the qualified TypeRef of the definition.
func (t *TypeDef) Ref() TypeRef { return TypeRef(t.Module + "." + t.Name) }

// Operator is a binary operator rule over external operands.
type Operator struct {
	Op     string
	Left   TypeRef
	Right  TypeRef
	Symbol *Symbol
}

// Module groups the members of one importable shim module.
type Module struct {
	Name    string
	Members map[string]*Symbol
	Types   map[string]*TypeDef
}

func newModule(name string) *Module {
	return &Module{
		Name:    name,
		Members: make(map[string]*Symbol),
		Types:   make(map[string]*TypeDef),
	}
}
