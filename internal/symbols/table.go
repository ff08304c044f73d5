package symbols

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"waspy/internal/source"
	"waspy/internal/types"
)

// ErrFrozen is returned by mutations after Freeze.
var ErrFrozen = errors.New("symbols: table is frozen")

// Table aggregates scopes and symbols for one module. It is mutated only
// while resolving and frozen afterwards.
type Table struct {
	scopes  []Scope
	symbols []Symbol
	frozen  bool
}

// NewTable builds a fresh table. Index 0 of both arenas is reserved.
func NewTable() *Table {
	return &Table{
		scopes:  make([]Scope, 1, 16),
		symbols: make([]Symbol, 1, 64),
	}
}

// NewScope allocates a child scope of parent.
func (t *Table) NewScope(kind ScopeKind, parent ScopeID, name string, span source.Span) ScopeID {
	if t.frozen {
		panic(ErrFrozen)
	}
	n, err := safecast.Conv[uint32](len(t.scopes))
	if err != nil {
		panic(fmt.Errorf("scope arena overflow: %w", err))
	}
	id := ScopeID(n)
	t.scopes = append(t.scopes, Scope{
		Kind:      kind,
		Name:      name,
		Parent:    parent,
		Span:      span,
		NameIndex: make(map[string]SymbolID),
	})
	if p := t.Scope(parent); p != nil {
		p.Children = append(p.Children, id)
	}
	return id
}

// Scope returns the scope for id, nil when invalid.
func (t *Table) Scope(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(t.scopes) {
		return nil
	}
	return &t.scopes[id]
}

// Symbol returns the symbol for id, nil when invalid.
func (t *Table) Symbol(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(t.symbols) {
		return nil
	}
	return &t.symbols[id]
}

// Declare adds sym to scope. When the name is already bound in that scope
// the existing symbol is returned with ok == false.
func (t *Table) Declare(scope ScopeID, sym Symbol) (SymbolID, bool) {
	if t.frozen {
		panic(ErrFrozen)
	}
	s := t.Scope(scope)
	if s == nil {
		return NoSymbolID, false
	}
	if prev, exists := s.NameIndex[sym.Name]; exists {
		return prev, false
	}
	n, err := safecast.Conv[uint32](len(t.symbols))
	if err != nil {
		panic(fmt.Errorf("symbol arena overflow: %w", err))
	}
	id := SymbolID(n)
	sym.Scope = scope
	t.symbols = append(t.symbols, sym)
	s.NameIndex[sym.Name] = id
	s.Symbols = append(s.Symbols, id)
	return id, true
}

// LookupLocal finds name in scope only.
func (t *Table) LookupLocal(scope ScopeID, name string) (SymbolID, bool) {
	s := t.Scope(scope)
	if s == nil {
		return NoSymbolID, false
	}
	id, ok := s.NameIndex[name]
	return id, ok
}

// Lookup resolves name from scope outwards. Class scopes are only visible
// from the class body itself, never from methods nested inside it.
func (t *Table) Lookup(scope ScopeID, name string) (SymbolID, bool) {
	first := true
	for cur := scope; cur.IsValid(); {
		s := t.Scope(cur)
		if s == nil {
			break
		}
		if s.Kind != ScopeClass || first {
			if id, ok := s.NameIndex[name]; ok {
				return id, true
			}
		}
		first = false
		cur = s.Parent
	}
	return NoSymbolID, false
}

// SetType records the inferred or declared type of a symbol.
func (t *Table) SetType(id SymbolID, ty types.TypeID) {
	if t.frozen {
		panic(ErrFrozen)
	}
	if sym := t.Symbol(id); sym != nil {
		sym.Type = ty
	}
}

// Freeze forbids further mutation.
func (t *Table) Freeze() { t.frozen = true }

func (t *Table) Frozen() bool { return t.frozen }

// Len reports the number of symbols (excluding the reserved slot).
func (t *Table) Len() int { return len(t.symbols) - 1 }

// Validate checks structural invariants: parent links, name indexes and
// sibling uniqueness.
func (t *Table) Validate() error {
	var errs []error
	for i := 1; i < len(t.scopes); i++ {
		s := &t.scopes[i]
		if s.Parent.IsValid() && t.Scope(s.Parent) == nil {
			errs = append(errs, fmt.Errorf("scope %d: dangling parent %d", i, s.Parent))
		}
		seen := make(map[string]bool, len(s.Symbols))
		for _, id := range s.Symbols {
			sym := t.Symbol(id)
			if sym == nil {
				errs = append(errs, fmt.Errorf("scope %d: dangling symbol %d", i, id))
				continue
			}
			if seen[sym.Name] {
				errs = append(errs, fmt.Errorf("scope %d: duplicate name %q", i, sym.Name))
			}
			seen[sym.Name] = true
			if int(sym.Scope) != i {
				errs = append(errs, fmt.Errorf("symbol %q: scope %d, listed in %d", sym.Name, sym.Scope, i))
			}
		}
	}
	return errors.Join(errs...)
}
