package parser_test

import (
	"testing"

	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/parser"
	"waspy/internal/source"
)

func parse(t *testing.T, src string) (*ast.Module, *diag.Bag, bool) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.py", []byte(src)))
	bag := diag.NewBag(10)
	res := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	return res.Module, bag, res.Failed
}

func mustParse(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, bag, failed := parse(t, src)
	if failed || bag.HasErrors() {
		t.Fatalf("parse %q failed: %v", src, bag.Items())
	}
	return mod
}

func exprOf(t *testing.T, src string) string {
	t.Helper()
	mod := mustParse(t, src+"\n")
	st, ok := mod.Stmts.Expr(mod.Body[0])
	if !ok {
		t.Fatalf("%q is not an expression statement", src)
	}
	return mod.ExprString(st.X)
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"-2 ** 2", "(-(2 ** 2))"},
		{"2 ** -1", "(2 ** (-1))"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"a or b and not c", "(a or (b and (not c)))"},
		{"a < b <= c", "(a < b <= c)"},
		{"x not in s", "(x not in s)"},
		{"a is not None", "(a is not None)"},
		{"1 if a else 2", "(1 if a else 2)"},
		{"a | b ^ c & d << 1", "(a | (b ^ (c & (d << 1))))"},
		{"7 // 2 % 3", "((7 // 2) % 3)"},
		{"obj.method(1, x=2)[0]", "obj.method(1, x=2)[0]"},
		{"s[1:]", "s[1:]"},
		{"s[::2]", "s[::2]"},
		{`"a" "b"`, `"ab"`},
		{"{1, 2}", "{1, 2}"},
		{"{}", "{}"},
		{"(1,)", "(1,)"},
	}
	for _, tt := range tests {
		if got := exprOf(t, tt.src); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestFString(t *testing.T) {
	mod := mustParse(t, `print(f"sum={a + b}!{{x}}")`+"\n")
	st, _ := mod.Stmts.Expr(mod.Body[0])
	call, _ := mod.Exprs.Call(st.X)
	f, ok := mod.Exprs.FString(call.Args[0])
	if !ok {
		t.Fatal("argument is not an f-string")
	}
	if len(f.Parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(f.Parts))
	}
	if f.Parts[0].Lit != "sum=" || mod.ExprString(f.Parts[1].Expr) != "(a + b)" || f.Parts[2].Lit != "!{x}" {
		t.Fatalf("unexpected parts: %q %q %q", f.Parts[0].Lit, mod.ExprString(f.Parts[1].Expr), f.Parts[2].Lit)
	}
}

func TestStatements(t *testing.T) {
	src := `import os.path as p, sys
from math import (sqrt, pi as PI,)

class Rectangle(Shape):
    default_width: int = 10

    def __init__(self, width=0, height: float = 1.5):
        self.width = width

    @staticmethod
    def unit() -> "Rectangle":
        return Rectangle(1, 1)

def loop(n):
    total = 0
    for i in range(n):
        if i % 2 == 0:
            continue
        elif i > 7:
            break
        else:
            total += i
    while total > 100:
        total -= 1
    else:
        pass
    try:
        x = 1 / 0
    except ZeroDivisionError as e:
        raise
    except:
        x = 0
    finally:
        total = total + x
    return total
a = b = 3; assert a == b, "equal"
`
	mod := mustParse(t, src)
	wantKinds := []ast.StmtKind{ast.StmtImport, ast.StmtImportFrom, ast.StmtClassDef, ast.StmtFuncDef, ast.StmtAssign, ast.StmtAssert}
	if len(mod.Body) != len(wantKinds) {
		t.Fatalf("got %d top-level statements, want %d", len(mod.Body), len(wantKinds))
	}
	for i, id := range mod.Body {
		if got := mod.Stmts.Get(id).Kind; got != wantKinds[i] {
			t.Errorf("statement %d: got %v, want %v", i, got, wantKinds[i])
		}
	}

	imp, _ := mod.Stmts.Import(mod.Body[0])
	if len(imp.Names) != 2 || imp.Names[0].Name != "os.path" || imp.Names[0].Alias != "p" {
		t.Errorf("unexpected import names: %+v", imp.Names)
	}
	from, _ := mod.Stmts.ImportFrom(mod.Body[1])
	if from.Module != "math" || len(from.Names) != 2 || from.Names[1].Alias != "PI" {
		t.Errorf("unexpected from-import: %+v", from)
	}

	cls, _ := mod.Stmts.ClassDef(mod.Body[2])
	if cls.Name != "Rectangle" || len(cls.Bases) != 1 || len(cls.Body) != 3 {
		t.Fatalf("unexpected class: %+v", cls)
	}
	init, _ := mod.Stmts.FuncDef(cls.Body[1])
	if len(init.Params) != 3 || !init.Params[1].Default.IsValid() || !init.Params[2].Annotation.IsValid() {
		t.Errorf("unexpected __init__ params: %+v", init.Params)
	}
	unit, _ := mod.Stmts.FuncDef(cls.Body[2])
	if len(unit.Decorators) != 1 || !unit.Returns.IsValid() {
		t.Errorf("decorator or return annotation lost: %+v", unit)
	}

	fn, _ := mod.Stmts.FuncDef(mod.Body[3])
	try, ok := mod.Stmts.Try(fn.Body[3])
	if !ok || len(try.Handlers) != 2 || try.Handlers[0].Name != "e" || try.Handlers[1].Type.IsValid() || len(try.Finally) != 1 {
		t.Errorf("unexpected try statement: %+v", try)
	}
	assign, _ := mod.Stmts.Assign(mod.Body[4])
	if len(assign.Targets) != 2 {
		t.Errorf("chained assignment targets: %d", len(assign.Targets))
	}
}

func TestSyntaxErrorsStopAtFirst(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"missing colon", "if x\n    pass\n", diag.SynUnexpectedToken},
		{"missing indent", "def f():\nreturn 1\n", diag.SynExpectIndent},
		{"break outside loop", "break\n", diag.SynBreakOutsideLoop},
		{"return outside function", "return 1\n", diag.SynReturnOutsideFunc},
		{"lambda", "f = lambda x: x\n", diag.SynUnsupported},
		{"bad target", "f() = 1\n", diag.SynBadAssignTarget},
		{"default order", "def f(a=1, b):\n    pass\n", diag.SynDefaultOrder},
		{"duplicate param", "def f(a, a):\n    pass\n", diag.SynDuplicateParam},
		{"format spec", "x = f'{y:>4}'\n", diag.SynUnsupported},
		{"first error only", "x = 1 +\ny = 'oops\n", diag.SynExpectExpr},
		{"unterminated", "y = 'oops\nz = (\n", diag.LexUnterminatedString},
		{"bare except last", "try:\n    pass\nexcept:\n    pass\nexcept E:\n    pass\n", diag.SynUnexpectedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag, failed := parse(t, tt.src)
			if !failed {
				t.Fatal("expected failure")
			}
			if bag.Len() != 1 {
				t.Fatalf("got %d diagnostics, want 1: %v", bag.Len(), bag.Items())
			}
			if got := bag.Items()[0].Code; got != tt.code {
				t.Fatalf("code %v, want %v (%s)", got, tt.code, bag.Items()[0].Message)
			}
			if bag.Items()[0].Kind() != diag.KindSyntax {
				t.Fatalf("kind %v, want SyntaxError", bag.Items()[0].Kind())
			}
		})
	}
}
