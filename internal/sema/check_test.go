package sema_test

import (
	"strings"
	"testing"

	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/parser"
	"waspy/internal/sema"
	"waspy/internal/source"
	"waspy/internal/symbols"
)

func check(t *testing.T, src string) (*ast.Module, *sema.Result, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("main.py", []byte(src)))
	bag := diag.NewBag(50)
	pr := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if pr.Failed || bag.HasErrors() {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	res := sema.Check(pr.Module, sema.Options{Reporter: diag.BagReporter{Bag: bag}})
	return pr.Module, res, bag
}

func mustCheck(t *testing.T, src string) (*ast.Module, *sema.Result) {
	t.Helper()
	mod, res, bag := check(t, src)
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Errorf("%s: %s", d.Code, d.Message)
		}
		t.FailNow()
	}
	return mod, res
}

func funcNamed(t *testing.T, res *sema.Result, name string) *sema.Func {
	t.Helper()
	for _, f := range res.Module.Funcs {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

func globalType(t *testing.T, res *sema.Result, name string) string {
	t.Helper()
	id, ok := res.Symbols.Lookup(res.Module.Scope, name)
	if !ok {
		t.Fatalf("global %q not found", name)
	}
	return res.TypeInterner.TypeString(res.Symbols.Symbol(id).Type)
}

func TestWellTypedPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"factorial", `
def factorial(n):
    if n <= 1:
        return 1
    return n * factorial(n - 1)

print(factorial(5))
`},
		{"fibonacci loop", `
def fibonacci(n: int) -> int:
    a = 0
    b = 1
    for _ in range(n):
        t = a + b
        a = b
        b = t
    return a

print(fibonacci(10))
`},
		{"class with method", `
class Rectangle:
    def __init__(self, width: int, height: int):
        self.width = width
        self.height = height

    def area(self) -> int:
        return self.width * self.height

r = Rectangle(10, 5)
print(r.area())
`},
		{"try finally", `
counter = 0

def risky(x: int) -> int:
    global counter
    try:
        if x == 0:
            raise ValueError("zero")
        return 10 // x
    except ValueError as e:
        print(e.message)
        return -1
    finally:
        counter += 1
`},
		{"sets and lists", `
items = []
items.append(3)
seen = {1, 2, 3}
same = seen == {3, 2, 1}
for i in range(10):
    if i in seen:
        items.append(i)
`},
		{"nullable record", `
class Node:
    def __init__(self, value: int):
        self.value = value
        self.next = None

def find(n: Node, v: int):
    if n.value == v:
        return n
    return None
`},
		{"user exception", `
class AppError(Exception):
    pass

def check(x: int) -> None:
    if x < 0:
        raise AppError("negative")

try:
    check(-1)
except (AppError, ValueError) as err:
    print("caught", err.message, sep=": ")
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustCheck(t, tt.src)
		})
	}
}

func TestInferredTypes(t *testing.T) {
	_, res := mustCheck(t, `
DEBUG = False
items = []
items.append(1)
ratio = 3 / 2

def factorial(n):
    if n <= 1:
        return 1
    return n * factorial(n - 1)

def label(x: int):
    return "v" + str(x)

print(factorial(5), label(2))
`)
	if got := globalType(t, res, "DEBUG"); got != "bool" {
		t.Errorf("DEBUG: got %s, want bool", got)
	}
	if got := globalType(t, res, "items"); got != "list[int]" {
		t.Errorf("items: got %s, want list[int]", got)
	}
	if got := globalType(t, res, "ratio"); got != "float" {
		t.Errorf("ratio: got %s, want float", got)
	}
	in := res.TypeInterner
	if got := in.TypeString(funcNamed(t, res, "factorial").Result); got != "int" {
		t.Errorf("factorial result: got %s, want int", got)
	}
	if got := in.TypeString(funcNamed(t, res, "label").Result); got != "str" {
		t.Errorf("label result: got %s, want str", got)
	}
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diag.Code
	}{
		{"undefined name", "print(missing)\n", diag.NameUndefined},
		{"reassign other type", "x = 1\nx = \"a\"\n", diag.TypeReassign},
		{"raise non exception", "raise 5\n", diag.TypeBadRaise},
		{"bare raise outside handler", "raise\n", diag.TypeBadRaise},
		{"not iterable", "for x in 5:\n    pass\n", diag.TypeNotIterable},
		{"dict display", "d = {}\n", diag.TypeUnsupported},
		{"return mismatch", "def f() -> int:\n    return \"a\"\n", diag.TypeReturnMismatch},
		{"missing return", "def f(c: bool) -> int:\n    if c:\n        return 1\n", diag.TypeMissingReturn},
		{"possibly unbound", "def f(c: bool) -> int:\n    if c:\n        y = 1\n    return y\n", diag.NameUnbound},
		{"bad operands", "x = \"a\" - 1\n", diag.TypeBadOperand},
		{"except non exception", "class A:\n    pass\n\ntry:\n    pass\nexcept A:\n    pass\n", diag.TypeBadExceptClass},
		{"no evidence for parameter", "def ident(x):\n    return x\n", diag.TypeCannotInfer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, bag := check(t, tt.src)
			var codes []string
			for _, d := range bag.Items() {
				if d.Code == tt.want {
					return
				}
				codes = append(codes, d.Code.String())
			}
			t.Fatalf("want %s, got [%s]", tt.want, strings.Join(codes, ", "))
		})
	}
}

func TestFailedInitializerIsNotReportedTwice(t *testing.T) {
	_, _, bag := check(t, "a = undefined1\nb = undefined2\nc = 1 + \"s\"\n\ndef get():\n    return missing\n")
	bag.Sort()
	counts := map[diag.Code]int{}
	for _, d := range bag.Items() {
		counts[d.Code]++
	}
	if counts[diag.TypeCannotInfer] != 0 {
		t.Errorf("cascading cannot-infer errors: %v", bag.Items())
	}
	if counts[diag.NameUndefined] < 3 || counts[diag.TypeBadOperand] != 1 {
		t.Errorf("codes = %v", counts)
	}
	if first := bag.Items()[0]; first.Code != diag.NameUndefined {
		t.Errorf("first diagnostic = %s %q", first.Code, first.Message)
	}
}

func TestInitOrderFollowsReads(t *testing.T) {
	mod, res := mustCheck(t, `
def get():
    return LIMIT

value = get()
LIMIT = 10
`)
	var got []ast.StmtKind
	var globals []string
	for _, st := range res.Module.Init {
		got = append(got, mod.Stmts.Get(st.Stmt).Kind)
		if st.Global != symbols.NoSymbolID {
			globals = append(globals, res.Symbols.Symbol(st.Global).Name)
		}
	}
	if len(got) != 3 || got[0] != ast.StmtFuncDef {
		t.Fatalf("unexpected init order %v", got)
	}
	if strings.Join(globals, ",") != "LIMIT,value" {
		t.Fatalf("globals initialized in order %v, want LIMIT,value", globals)
	}
}

func TestStaticInit(t *testing.T) {
	_, res := mustCheck(t, `
DEBUG = True
LEVEL = -5
NAME = "app"
NEXT = LEVEL + 1
`)
	want := map[string]bool{"DEBUG": true, "LEVEL": true, "NAME": true, "NEXT": false}
	for _, st := range res.Module.Init {
		name := res.Symbols.Symbol(st.Global).Name
		if st.Static != want[name] {
			t.Errorf("%s: static = %v, want %v", name, st.Static, want[name])
		}
	}
}
