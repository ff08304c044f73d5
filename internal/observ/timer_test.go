package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	if err := tm.Measure("parse", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	want := errors.New("boom")
	if err := tm.Measure("sema", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("Measure err = %v", err)
	}
	tm.End(7, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "parse" || r.Phases[1].Note != "failed" {
		t.Fatalf("report = %+v", r)
	}
	if !strings.Contains(r.Summary(), "total") {
		t.Errorf("summary = %q", r.Summary())
	}
}

func TestSumMergesByName(t *testing.T) {
	a := Report{TotalMS: 3, Phases: []PhaseReport{{Name: "parse", DurationMS: 1}, {Name: "sema", DurationMS: 2}}}
	b := Report{TotalMS: 4, Phases: []PhaseReport{{Name: "sema", DurationMS: 1}, {Name: "codegen", DurationMS: 3}}}
	got := Sum(a, b)
	if got.TotalMS != 7 || len(got.Phases) != 3 {
		t.Fatalf("sum = %+v", got)
	}
	if got.Phases[1].Name != "sema" || got.Phases[1].DurationMS != 3 || got.Phases[2].Name != "codegen" {
		t.Errorf("phases = %+v", got.Phases)
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || r.Phases != nil {
		t.Errorf("empty report = %+v", r)
	}
}
