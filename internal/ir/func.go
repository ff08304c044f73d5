package ir

import (
	"waspy/internal/source"
	"waspy/internal/symbols"
	"waspy/internal/types"
)

type Func struct {
	ID   FuncID
	Sym  symbols.SymbolID
	Name string
	Span source.Span

	// Params counts the leading locals that are parameters.
	Params int
	Result types.TypeID

	Locals []Local
	Blocks []Block
	Entry  BlockID

	// Export is the wasm export name, empty for private functions.
	Export string
	// ArenaReset releases every allocation made by the call on normal return.
	ArenaReset bool
	// Publishes is set when the body may make a heap value reachable
	// from outside the call.
	Publishes bool
}

type Local struct {
	Sym  symbols.SymbolID
	Type types.TypeID
	Name string
}

// ParamTypes returns the parameter types in order.
func (f *Func) ParamTypes() []types.TypeID {
	out := make([]types.TypeID, f.Params)
	for i := range f.Params {
		out[i] = f.Locals[i].Type
	}
	return out
}
