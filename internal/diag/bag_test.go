package diag_test

import (
	"testing"

	"waspy/internal/diag"
	"waspy/internal/source"
)

func TestCodeKind(t *testing.T) {
	tests := []struct {
		code diag.Code
		want diag.Kind
		id   string
	}{
		{diag.LexBadNumber, diag.KindSyntax, "LEX1003"},
		{diag.SynUnexpectedToken, diag.KindSyntax, "SYN2001"},
		{diag.NameUndefined, diag.KindName, "NAM3001"},
		{diag.TypeMismatch, diag.KindType, "TYP3101"},
		{diag.GenTooManyLocals, diag.KindCodeGen, "GEN4001"},
	}
	for _, tt := range tests {
		if got := tt.code.Kind(); got != tt.want {
			t.Errorf("%d.Kind() = %v, want %v", tt.code, got, tt.want)
		}
		if got := tt.code.ID(); got != tt.id {
			t.Errorf("%d.ID() = %q, want %q", tt.code, got, tt.id)
		}
	}
}

func TestBagLimitSortDedup(t *testing.T) {
	bag := diag.NewBag(3)
	r := diag.BagReporter{Bag: bag}
	sp := func(start uint32) source.Span { return source.Span{Start: start, End: start + 1} }

	diag.ReportError(r, diag.TypeMismatch, sp(9), "late").Emit()
	diag.ReportError(r, diag.NameUndefined, sp(1), "early").Emit()
	diag.ReportError(r, diag.NameUndefined, sp(1), "early").Emit()
	diag.ReportError(r, diag.NameUndefined, sp(2), "dropped").Emit()

	if bag.Len() != 3 {
		t.Fatalf("Len = %d, want 3 (limit)", bag.Len())
	}
	bag.Sort()
	bag.Dedup()
	items := bag.Items()
	if len(items) != 2 || items[0].Message != "early" || items[1].Message != "late" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if !bag.HasErrors() {
		t.Fatal("HasErrors = false")
	}
	if got := items[1].Error(); got != "TypeError: late" {
		t.Fatalf("Error() = %q", got)
	}
}
