package ir_test

import (
	"bytes"
	"strings"
	"testing"

	"waspy/internal/diag"
	"waspy/internal/ir"
	"waspy/internal/parser"
	"waspy/internal/rt"
	"waspy/internal/sema"
	"waspy/internal/source"
)

func lower(t *testing.T, src string) *ir.Module {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("main.py", []byte(src)))
	bag := diag.NewBag(50)
	pr := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if pr.Failed || bag.HasErrors() {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	res := sema.Check(pr.Module, sema.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Errorf("%s: %s", d.Code, d.Message)
		}
		t.FailNow()
	}
	m, err := ir.LowerModule(pr.Module, res)
	if err != nil {
		t.Fatalf("lower: %+v", err)
	}
	if err := ir.Validate(m); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return m
}

func funcNamed(t *testing.T, m *ir.Module, name string) *ir.Func {
	t.Helper()
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

func countCalls(m *ir.Module, f *ir.Func, match func(ir.Callee) bool) int {
	n := 0
	for _, b := range f.Blocks {
		for _, ins := range b.Instrs {
			if ins.Kind == ir.InstrCall && match(ins.Call.Callee) {
				n++
			}
		}
	}
	return n
}

func callsFunc(m *ir.Module, name string) func(ir.Callee) bool {
	return func(c ir.Callee) bool {
		g := m.Func(c.Func)
		return c.Kind == ir.CalleeFunc && g != nil && g.Name == name
	}
}

func callsRT(f rt.Func) func(ir.Callee) bool {
	return func(c ir.Callee) bool { return c.Kind == ir.CalleeRuntime && c.Runtime == f }
}

func TestLowerFactorial(t *testing.T) {
	m := lower(t, `
def factorial(n: int) -> int:
    if n <= 1:
        return 1
    return n * factorial(n - 1)
`)
	f := funcNamed(t, m, "factorial")
	if f.Export != "factorial" {
		t.Errorf("export = %q, want factorial", f.Export)
	}
	if f.Params != 1 {
		t.Errorf("params = %d, want 1", f.Params)
	}
	if !f.ArenaReset {
		t.Errorf("factorial should reset its arena")
	}
	if n := countCalls(m, f, callsFunc(m, "factorial")); n != 1 {
		t.Errorf("recursive calls = %d, want 1", n)
	}
	if m.Func(m.Init) == nil || m.Func(m.Init).Name != ir.InitName {
		t.Errorf("missing init function")
	}
}

func TestPrivateFunctionsAreNotExported(t *testing.T) {
	m := lower(t, `
def _helper(x: int) -> int:
    return x + 1

def api(x: int) -> int:
    return _helper(x)
`)
	if got := funcNamed(t, m, "_helper").Export; got != "" {
		t.Errorf("_helper exported as %q", got)
	}
	if got := funcNamed(t, m, "api").Export; got != "api" {
		t.Errorf("api export = %q", got)
	}
}

func TestDivisionGoesThroughCheckedHelpers(t *testing.T) {
	m := lower(t, `
def q(a: int, b: int) -> int:
    return a // b + a % b

def d(a: int, b: int) -> float:
    return a / b
`)
	q := funcNamed(t, m, "q")
	if countCalls(m, q, callsRT(rt.IntFloorDiv)) != 1 || countCalls(m, q, callsRT(rt.IntMod)) != 1 {
		t.Errorf("q does not use the checked int helpers")
	}
	if countCalls(m, funcNamed(t, m, "d"), callsRT(rt.FloatDiv)) != 1 {
		t.Errorf("d does not use float_div")
	}
}

func TestFinallyIsCopiedOntoEveryExit(t *testing.T) {
	m := lower(t, `
def cleanup() -> None:
    pass

def risky(x: int) -> int:
    try:
        if x > 0:
            return x
        x = 10 // x
    finally:
        cleanup()
    return x
`)
	f := funcNamed(t, m, "risky")
	// return inside try, normal exit, exception edge
	if n := countCalls(m, f, callsFunc(m, "cleanup")); n != 3 {
		t.Errorf("cleanup copies = %d, want 3", n)
	}
}

func TestChainedCompareEvaluatesMiddleOnce(t *testing.T) {
	m := lower(t, `
def mid() -> int:
    return 5

def between(a: int, b: int) -> bool:
    return a < mid() < b
`)
	f := funcNamed(t, m, "between")
	if n := countCalls(m, f, callsFunc(m, "mid")); n != 1 {
		t.Errorf("mid() evaluated %d times, want 1", n)
	}
}

func TestPublishingDisablesArena(t *testing.T) {
	m := lower(t, `
log: list[str] = []

def record(msg: str) -> int:
    log.append(msg)
    return len(log)

def outer(msg: str) -> int:
    return record(msg)

def pure(xs: list[int]) -> int:
    total = 0
    for x in xs:
        total += x
    return total
`)
	for _, name := range []string{"record", "outer"} {
		f := funcNamed(t, m, name)
		if !f.Publishes || f.ArenaReset {
			t.Errorf("%s: publishes=%v arena=%v", name, f.Publishes, f.ArenaReset)
		}
	}
	if f := funcNamed(t, m, "pure"); f.Publishes || !f.ArenaReset {
		t.Errorf("pure: publishes=%v arena=%v", f.Publishes, f.ArenaReset)
	}
}

func TestClassLowering(t *testing.T) {
	m := lower(t, `
class Rectangle:
    def __init__(self, w: float, h: float):
        self.w = w
        self.h = h

    def area(self) -> float:
        return self.w * self.h
`)
	var rec *ir.Record
	for i := range m.Records {
		if m.Records[i].Name == "Rectangle" {
			rec = &m.Records[i]
		}
	}
	if rec == nil {
		t.Fatalf("record Rectangle not found")
	}
	if len(rec.Fields) != 2 || rec.Size != 24 {
		t.Errorf("fields=%d size=%d, want 2 and 24", len(rec.Fields), rec.Size)
	}
	ctor := m.Func(rec.Ctor)
	if ctor == nil || ctor.Export != "Rectangle" || ctor.Params != 2 {
		t.Fatalf("bad constructor wrapper: %+v", ctor)
	}
	if got := funcNamed(t, m, "Rectangle.area").Export; got != "Rectangle.area" {
		t.Errorf("area export = %q", got)
	}
}

func TestDumpModule(t *testing.T) {
	m := lower(t, `
def add(a: int, b: int) -> int:
    return a + b
`)
	var buf bytes.Buffer
	if err := ir.DumpModule(&buf, m); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"fn add(", "export=add", "add L", "return"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}
