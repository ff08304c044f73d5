package types

import "testing"

func TestJoin(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	shape := in.NewRecord("Shape", 32)
	circle := in.NewRecord("Circle", 33)
	square := in.NewRecord("Square", 34)
	in.SetBase(circle, shape)
	in.SetBase(square, shape)

	tests := []struct {
		name string
		a, b TypeID
		want TypeID
		ok   bool
	}{
		{"int float", b.Int, b.Float, b.Float, true},
		{"bool int", b.Bool, b.Int, b.Int, true},
		{"same", b.Str, b.Str, b.Str, true},
		{"unresolved", b.Unresolved, b.Str, b.Str, true},
		{"str int", b.Str, b.Int, NoTypeID, false},
		{"empty list", in.ListOf(b.Unresolved), in.ListOf(b.Int), in.ListOf(b.Int), true},
		{"invariant list", in.ListOf(b.Int), in.ListOf(b.Float), NoTypeID, false},
		{"siblings", circle, square, shape, true},
		{"none int", b.None, b.Int, NoTypeID, false},
		{"nullable record", circle, b.None, circle, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := in.Join(tt.a, tt.b)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("Join = %s, %v; want %s, %v", in.TypeString(got), ok, in.TypeString(tt.want), tt.ok)
			}
		})
	}
}

func TestAssignable(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	base := in.NewRecord("Base", 32)
	derived := in.NewRecord("Derived", 33)
	in.SetBase(derived, base)

	tests := []struct {
		name     string
		dst, src TypeID
		want     bool
	}{
		{"int to float", b.Float, b.Int, true},
		{"float to int", b.Int, b.Float, false},
		{"bool to int", b.Int, b.Bool, true},
		{"upcast", base, derived, true},
		{"downcast", derived, base, false},
		{"any", b.Any, b.Str, true},
		{"empty set", in.SetOf(b.Str), in.SetOf(b.Unresolved), true},
		{"str to bytes", b.Bytes, b.Str, false},
		{"none to record", base, b.None, true},
		{"none to str", b.Str, b.None, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := in.Assignable(tt.dst, tt.src); got != tt.want {
				t.Fatalf("Assignable(%s, %s) = %v", in.TypeString(tt.dst), in.TypeString(tt.src), got)
			}
		})
	}
}

func TestRefineFillsHoles(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	got := in.Refine(in.ListOf(b.Unresolved), in.ListOf(b.Str))
	if got != in.ListOf(b.Str) {
		t.Fatalf("Refine = %s", in.TypeString(got))
	}
	if in.Refine(b.Int, b.Float) != b.Int {
		t.Fatalf("concrete types must not be refined")
	}
}
