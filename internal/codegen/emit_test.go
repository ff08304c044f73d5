package codegen_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"waspy/internal/codegen"
	"waspy/internal/diag"
	"waspy/internal/ir"
	"waspy/internal/layout"
	"waspy/internal/parser"
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
	return m
}

type instance struct {
	t   *testing.T
	ctx context.Context
	mod api.Module
}

func compile(t *testing.T, src string) (*codegen.Output, *instance) {
	t.Helper()
	out, err := codegen.Generate(lower(t, src), codegen.DefaultOptions())
	if err != nil {
		t.Fatalf("Generate: %+v", err)
	}
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })
	mod, err := r.Instantiate(ctx, out.Wasm)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	return out, &instance{t: t, ctx: ctx, mod: mod}
}

func (in *instance) call(name string, args ...uint64) uint64 {
	in.t.Helper()
	fn := in.mod.ExportedFunction(name)
	if fn == nil {
		in.t.Fatalf("no export %q", name)
	}
	res, err := fn.Call(in.ctx, args...)
	if err != nil {
		in.t.Fatalf("%s: %v", name, err)
	}
	if len(res) == 0 {
		return 0
	}
	return res[0]
}

// pending returns the class name of the pending exception and clears it.
func (in *instance) pending() string {
	in.t.Helper()
	exc := uint32(in.call("__waspy_exception"))
	if exc == 0 {
		return ""
	}
	in.call("__waspy_clear_exception")
	class, _ := in.mod.Memory().ReadUint32Le(exc + layout.OffRecordClass)
	name := uint32(in.call("__waspy_class_name", uint64(class)))
	n, _ := in.mod.Memory().ReadUint32Le(name + layout.OffStrLen)
	b, _ := in.mod.Memory().Read(name+layout.OffStrData, n)
	return string(b)
}

func i64(v int64) uint64 { return uint64(v) }

func TestGenerateRunsIntegerFunctions(t *testing.T) {
	_, in := compile(t, `
def factorial(n: int) -> int:
    if n <= 1:
        return 1
    return n * factorial(n - 1)

def fib(n: int) -> int:
    a = 0
    b = 1
    i = 0
    while i < n:
        t = a + b
        a = b
        b = t
        i += 1
    return a

def floor_div(a: int, b: int) -> int:
    return a // b

def modulo(a: int, b: int) -> int:
    return a % b
`)
	tests := []struct {
		name string
		args []uint64
		want int64
	}{
		{"factorial", []uint64{10}, 3628800},
		{"fib", []uint64{20}, 6765},
		{"floor_div", []uint64{i64(-7), 2}, -4},
		{"modulo", []uint64{i64(-7), 2}, 1},
		{"modulo", []uint64{7, i64(-2)}, -1},
	}
	for _, tt := range tests {
		if got := int64(in.call(tt.name, tt.args...)); got != tt.want {
			t.Errorf("%s(%v) = %d, want %d", tt.name, tt.args, got, tt.want)
		}
	}
}

func TestGenerateRaisesZeroDivision(t *testing.T) {
	_, in := compile(t, `
def floor_div(a: int, b: int) -> int:
    return a // b

def safe(a: int, b: int) -> int:
    try:
        return a // b
    except ZeroDivisionError:
        return -1
`)
	in.call("floor_div", 1, 0)
	if got := in.pending(); got != "ZeroDivisionError" {
		t.Fatalf("pending exception = %q, want ZeroDivisionError", got)
	}
	if got := int64(in.call("safe", 1, 0)); got != -1 {
		t.Errorf("safe(1, 0) = %d, want -1", got)
	}
	if got := in.pending(); got != "" {
		t.Errorf("handled exception still pending: %s", got)
	}
}

func TestGenerateClasses(t *testing.T) {
	out, in := compile(t, `
class Rectangle:
    def __init__(self, w: float, h: float):
        self.w = w
        self.h = h

    def area(self) -> float:
        return self.w * self.h
`)
	r := in.call("Rectangle", math.Float64bits(3), math.Float64bits(4.5))
	if r == 0 {
		t.Fatal("constructor returned null")
	}
	if got := math.Float64frombits(in.call("Rectangle.area", r)); got != 13.5 {
		t.Errorf("area = %v, want 13.5", got)
	}
	e, ok := out.Metadata.Export("Rectangle")
	if !ok || e.Kind != codegen.ExportCtor || len(e.Params) != 2 || e.Params[0].Kind != "float" {
		t.Errorf("constructor metadata = %+v", e)
	}
	if e, _ := out.Metadata.Export("Rectangle.area"); e.Kind != codegen.ExportMethod {
		t.Errorf("method kind = %q", e.Kind)
	}
}

func TestGenerateContainersAndStrings(t *testing.T) {
	_, in := compile(t, `
def same() -> bool:
    return {1, 2, 3} == {3, 2, 1}

def total(n: int) -> int:
    xs: list[int] = []
    for i in range(n):
        xs.append(i * i)
    return sum(xs)

def width() -> int:
    return len("héllo")

def both(a: int, b: int) -> bool:
    return a > 0 and b // a > 1
`)
	if in.call("same") != 1 {
		t.Error("set equality must ignore order")
	}
	if got := in.call("total", 4); got != 14 {
		t.Errorf("total(4) = %d, want 14", got)
	}
	if got := in.call("width"); got != 5 {
		t.Errorf("len = %d, want 5 code points", got)
	}
	if got := in.call("both", 0, 5); got != 0 {
		t.Errorf("both(0, 5) = %d", got)
	}
	if got := in.pending(); got != "" {
		t.Errorf("short circuit evaluated the right operand: %s", got)
	}
}

func TestGenerateInitializeExport(t *testing.T) {
	opts := codegen.DefaultOptions()
	opts.Start = false
	out, err := codegen.Generate(lower(t, "x = 1\n"), opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Module.Start != nil {
		t.Error("start function set")
	}
	found := false
	for _, e := range out.Module.Exports {
		if e.Name == "_initialize" {
			found = true
		}
	}
	if !found || out.Metadata.Init != "_initialize" {
		t.Errorf("missing _initialize export, init mode %q", out.Metadata.Init)
	}
}

func TestGenerateLimits(t *testing.T) {
	src := `
def add3(a: int, b: int, c: int) -> int:
    return a + b + c
`
	tests := []struct {
		name string
		opt  func(*codegen.Options)
		code diag.Code
	}{
		{"locals", func(o *codegen.Options) { o.MaxLocals = 2 }, diag.GenTooManyLocals},
		{"memory", func(o *codegen.Options) { o.MaxMemoryPages = 0 }, diag.GenMemoryLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := codegen.DefaultOptions()
			tt.opt(&opts)
			_, err := codegen.Generate(lower(t, src), opts)
			var cg *codegen.Error
			if !errors.As(err, &cg) || cg.Code != tt.code {
				t.Fatalf("err = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	out, _ := compile(t, `
def scale(x: float, k: int) -> float:
    return x * k
`)
	var payload []byte
	for _, c := range out.Module.Customs {
		if c.Name == codegen.MetadataSection {
			payload = c.Payload
		}
	}
	meta, err := codegen.ParseMetadata(payload)
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	e, ok := meta.Export("scale")
	if !ok || len(e.Params) != 2 || e.Params[1].Name != "k" || e.Result.Kind != "float" {
		t.Errorf("scale metadata = %+v", e)
	}
}
