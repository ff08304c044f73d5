package ir

import (
	"waspy/internal/stdlib"
	"waspy/internal/symbols"
	"waspy/internal/types"
)

// Module is the lowered form of one source module.
type Module struct {
	Name    string
	Types   *types.Interner
	Globals []Global
	Funcs   []*Func
	Imports []Import
	Records []Record
	// Init runs the module body; it is the wasm start function.
	Init FuncID
}

// Global is a module variable or a class variable.
type Global struct {
	Sym  symbols.SymbolID
	Name string
	Type types.TypeID
	// Init is the literal initializer of a statically initialized global.
	Init *Const
}

// Import is a shim function called through the wasm import section.
type Import struct {
	Module string
	Name   string
	Params []types.TypeID
	Result types.TypeID
	Shim   *stdlib.Symbol
}

// Record describes a class for the runtime class tables.
type Record struct {
	Type      types.TypeID
	Name      string
	ClassID   uint32
	Parent    uint32 // 0 at the root
	Size      uint32
	Exception bool
	Export    bool
	Ctor      FuncID
	Fields    []Field
}

type Field struct {
	Name   string
	Type   types.TypeID
	Offset uint32
}

// Func returns the function with the given id.
func (m *Module) Func(id FuncID) *Func {
	if m == nil || id < 0 || int(id) >= len(m.Funcs) {
		return nil
	}
	return m.Funcs[id]
}
