package layout_test

import (
	"errors"
	"testing"

	"waspy/internal/layout"
	"waspy/internal/types"
)

func TestRecordFieldsFollowBase(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	base := in.NewRecord("Shape", 32)
	in.AddField(base, "name", b.Str)
	derived := in.NewRecord("Rectangle", 33)
	in.SetBase(derived, base)
	in.AddField(derived, "width", b.Float)
	in.AddField(derived, "height", b.Int)

	e := layout.New(layout.Wasm32(), in)
	rec, err := e.Record(derived)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	want := []struct {
		name string
		off  int
	}{{"name", 8}, {"width", 16}, {"height", 24}}
	if len(rec.Fields) != len(want) {
		t.Fatalf("fields = %d, want %d", len(rec.Fields), len(want))
	}
	for i, w := range want {
		if rec.Fields[i].Name != w.name || rec.Fields[i].Offset != w.off {
			t.Errorf("field %d = %s@%d, want %s@%d", i, rec.Fields[i].Name, rec.Fields[i].Offset, w.name, w.off)
		}
	}
	if rec.Size != 32 || rec.ClassID != 33 {
		t.Errorf("size=%d class=%d, want 32 and 33", rec.Size, rec.ClassID)
	}
	baseRec, _ := e.Record(base)
	if off, _ := e.FieldOffset(base, "name"); off != baseRec.Fields[0].Offset {
		t.Errorf("base and derived disagree on the offset of name")
	}
}

func TestValueLayouts(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	e := layout.New(layout.Wasm32(), in)
	tests := []struct {
		ty   types.TypeID
		size int
	}{
		{b.Int, 8}, {b.Float, 8}, {b.Bool, 4}, {b.None, 4}, {b.Str, 4}, {in.ListOf(b.Int), 4},
	}
	for _, tt := range tests {
		if got := e.SizeOf(tt.ty); got != tt.size {
			t.Errorf("SizeOf(%s) = %d, want %d", in.TypeString(tt.ty), got, tt.size)
		}
	}
}

func TestLayoutErrors(t *testing.T) {
	in := types.NewInterner()
	e := layout.New(layout.Wasm32(), in)
	_, err := e.Record(in.Builtins().Int)
	var le *layout.LayoutError
	if !errors.As(err, &le) || le.Kind != layout.LayoutErrNotRecord {
		t.Fatalf("Record(int) error = %v", err)
	}
	rec := in.NewRecord("P", 32)
	if _, err := e.FieldOffset(rec, "x"); !errors.As(err, &le) || le.Kind != layout.LayoutErrNoField {
		t.Fatalf("FieldOffset error = %v", err)
	}
}

func TestTagOf(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	if layout.TagOf(in, b.Str) != layout.TagStr || layout.TagOf(in, in.SetOf(b.Int)) != layout.TagSet {
		t.Fatal("unexpected tags")
	}
	if layout.TagOf(in, b.Any) != layout.TagDynamic {
		t.Fatal("any must use the dynamic tag")
	}
}
