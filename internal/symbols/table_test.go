package symbols

import (
	"errors"
	"testing"

	"waspy/internal/source"
)

func TestDeclareRejectsSiblingDuplicates(t *testing.T) {
	table := NewTable()
	mod := table.NewScope(ScopeModule, NoScopeID, "m", source.Span{})
	first, ok := table.Declare(mod, Symbol{Name: "f", Kind: SymbolFunction})
	if !ok || !first.IsValid() {
		t.Fatalf("first declaration failed")
	}
	second, ok := table.Declare(mod, Symbol{Name: "f", Kind: SymbolGlobal})
	if ok || second != first {
		t.Fatalf("duplicate should return the existing symbol")
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLookupSkipsEnclosingClassScope(t *testing.T) {
	table := NewTable()
	mod := table.NewScope(ScopeModule, NoScopeID, "m", source.Span{})
	cls := table.NewScope(ScopeClass, mod, "C", source.Span{})
	fn := table.NewScope(ScopeFunction, cls, "C.m", source.Span{})
	table.Declare(mod, Symbol{Name: "x", Kind: SymbolGlobal})
	table.Declare(cls, Symbol{Name: "limit", Kind: SymbolClassVar})
	table.Declare(fn, Symbol{Name: "y", Kind: SymbolLocal})

	if _, ok := table.Lookup(fn, "limit"); ok {
		t.Fatalf("class variables must not leak into method scopes")
	}
	if _, ok := table.Lookup(cls, "limit"); !ok {
		t.Fatalf("class body should see its own names")
	}
	id, ok := table.Lookup(fn, "x")
	if !ok || table.Symbol(id).Kind != SymbolGlobal {
		t.Fatalf("module names should be visible from methods")
	}
}

func TestFreeze(t *testing.T) {
	table := NewTable()
	mod := table.NewScope(ScopeModule, NoScopeID, "m", source.Span{})
	table.Freeze()
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrFrozen) {
			t.Fatalf("expected ErrFrozen panic, got %v", r)
		}
	}()
	table.Declare(mod, Symbol{Name: "late"})
}

func TestQualifiedMemberName(t *testing.T) {
	table := NewTable()
	mod := table.NewScope(ScopeModule, NoScopeID, "m", source.Span{})
	cls, _ := table.Declare(mod, Symbol{Name: "Rectangle", Kind: SymbolClass})
	scope := table.NewScope(ScopeClass, mod, "Rectangle", source.Span{})
	area, _ := table.Declare(scope, Symbol{Name: "area", Kind: SymbolMethod, Owner: cls})
	if got := table.Qualified(area); got != "Rectangle.area" {
		t.Fatalf("Qualified = %q", got)
	}
}
