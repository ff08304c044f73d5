package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Int == NoTypeID || b.Float == NoTypeID || b.Unresolved == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if got := in.KindOf(b.Str); got != KindStr {
		t.Fatalf("expected str kind, got %v", got)
	}
}

func TestInternerDeduplicatesContainers(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if in.ListOf(b.Int) != in.ListOf(b.Int) {
		t.Fatalf("list types should be deduplicated")
	}
	if in.ListOf(b.Int) == in.SetOf(b.Int) {
		t.Fatalf("list and set must differ")
	}
	f1 := in.Func([]TypeID{b.Int, b.Float}, b.Str)
	f2 := in.Func([]TypeID{b.Int, b.Float}, b.Str)
	if f1 != f2 {
		t.Fatalf("function types should be deduplicated")
	}
	if got := in.TypeString(f1); got != "(int, float) -> str" {
		t.Fatalf("unexpected func string %q", got)
	}
}

func TestRecordsAreNominal(t *testing.T) {
	in := NewInterner()
	a := in.NewRecord("Point", 32)
	b := in.NewRecord("Point", 33)
	if a == b {
		t.Fatalf("records with equal names must stay distinct")
	}
}

func TestRecordFieldsInheritPrefix(t *testing.T) {
	in := NewInterner()
	bt := in.Builtins()
	base := in.NewRecord("Shape", 32)
	in.AddField(base, "name", bt.Str)
	derived := in.NewRecord("Rect", 33)
	in.SetBase(derived, base)
	if !in.AddField(derived, "w", bt.Float) {
		t.Fatalf("AddField failed")
	}
	if in.AddField(derived, "name", bt.Str) {
		t.Fatalf("inherited field redeclared")
	}
	fields := in.Fields(derived)
	if len(fields) != 2 || fields[0].Name != "name" || fields[1].Name != "w" {
		t.Fatalf("unexpected field order %+v", fields)
	}
	if _, idx, ok := in.LookupField(derived, "w"); !ok || idx != 1 {
		t.Fatalf("LookupField(w) = %d, %v", idx, ok)
	}
	if !in.IsSubclass(derived, base) || in.IsSubclass(base, derived) {
		t.Fatalf("subclass relation is wrong")
	}
}

func TestExternalDedup(t *testing.T) {
	in := NewInterner()
	a := in.External("datetime", "date")
	if a != in.External("datetime", "date") {
		t.Fatalf("externals should be deduplicated by name")
	}
	if got := in.TypeString(a); got != "datetime.date" {
		t.Fatalf("got %q", got)
	}
}
