package stdlib_test

import (
	"errors"
	"math"
	"testing"

	"waspy/internal/stdlib"
)

func TestRequiredEntries(t *testing.T) {
	r := stdlib.Default().Freeze()
	tests := []struct {
		module, name string
		kind         stdlib.SymbolKind
	}{
		{"math", "pi", stdlib.SymConst},
		{"math", "e", stdlib.SymConst},
		{"math", "tau", stdlib.SymConst},
		{"math", "inf", stdlib.SymConst},
		{"math", "nan", stdlib.SymConst},
		{"sys", "maxsize", stdlib.SymConst},
		{"os", "name", stdlib.SymConst},
		{"os", "sep", stdlib.SymConst},
		{"os", "linesep", stdlib.SymConst},
		{"logging", "INFO", stdlib.SymConst},
		{"datetime", "MINYEAR", stdlib.SymConst},
		{"datetime", "MAXYEAR", stdlib.SymConst},
		{"math", "sqrt", stdlib.SymFunc},
		{"random", "randint", stdlib.SymFunc},
		{"json", "loads", stdlib.SymFunc},
		{"json", "dumps", stdlib.SymFunc},
		{"re", "compile", stdlib.SymFunc},
		{"re", "search", stdlib.SymFunc},
		{"re", "match", stdlib.SymFunc},
		{"re", "findall", stdlib.SymFunc},
		{"os", "getcwd", stdlib.SymFunc},
		{"os", "getpid", stdlib.SymFunc},
		{"os", "getenv", stdlib.SymFunc},
		{"os.path", "join", stdlib.SymFunc},
		{"os.path", "exists", stdlib.SymFunc},
		{"os.path", "isfile", stdlib.SymFunc},
		{"os.path", "isdir", stdlib.SymFunc},
		{"os.path", "basename", stdlib.SymFunc},
		{"os.path", "dirname", stdlib.SymFunc},
		{"os.path", "abspath", stdlib.SymFunc},
	}
	for _, tt := range tests {
		sym, ok := r.Lookup(tt.module, tt.name)
		if !ok {
			t.Errorf("%s.%s missing", tt.module, tt.name)
			continue
		}
		if sym.Kind != tt.kind {
			t.Errorf("%s.%s: kind %v, want %v", tt.module, tt.name, sym.Kind, tt.kind)
		}
	}
	if sym, _ := r.Lookup("sys", "maxsize"); sym.Value.Int != math.MaxInt64 {
		t.Errorf("sys.maxsize = %d", sym.Value.Int)
	}
	if sym, _ := r.Lookup("random", "randint"); sym.MinArgs() != 2 {
		t.Errorf("randint arity %d", sym.MinArgs())
	}
	if sym, _ := r.Lookup("os.path", "join"); !sym.Variadic || sym.MinArgs() != 1 {
		t.Errorf("os.path.join should be variadic with one required arg")
	}
}

func TestDatetimeAlgebra(t *testing.T) {
	r := stdlib.Default().Freeze()
	tests := []struct {
		op          string
		left, right stdlib.TypeRef
		want        stdlib.TypeRef
	}{
		{"-", "datetime.datetime", "datetime.datetime", "datetime.timedelta"},
		{"+", "datetime.date", "datetime.timedelta", "datetime.date"},
		{"-", "datetime.date", "datetime.timedelta", "datetime.date"},
		{"+", "datetime.timedelta", "datetime.timedelta", "datetime.timedelta"},
		{"-", "datetime.timedelta", "datetime.timedelta", "datetime.timedelta"},
	}
	for _, tt := range tests {
		sym, ok := r.Operator(tt.op, tt.left, tt.right)
		if !ok {
			t.Errorf("%s %s %s missing", tt.left, tt.op, tt.right)
			continue
		}
		if sym.Result != tt.want {
			t.Errorf("%s %s %s = %s, want %s", tt.left, tt.op, tt.right, sym.Result, tt.want)
		}
	}
	if _, ok := r.Operator("+", "datetime.datetime", "datetime.datetime"); ok {
		t.Errorf("datetime + datetime must not be defined")
	}
	def, ok := r.TypeDef("datetime.timedelta")
	if !ok || def.Ctor == nil || def.Ctor.MinArgs() != 0 {
		t.Fatalf("timedelta constructor should take only optional args")
	}
	if _, ok := r.Attr("datetime.datetime", "year"); !ok {
		t.Errorf("datetime.year attribute missing")
	}
}

func TestFrozenRegistryRejectsAdd(t *testing.T) {
	r := stdlib.Default().Freeze()
	err := r.Add(&stdlib.Symbol{Module: "m", Name: "x", Kind: stdlib.SymFunc, Result: stdlib.Int})
	if !errors.Is(err, stdlib.ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
}

func TestEntriesExtendRegistry(t *testing.T) {
	entries, err := stdlib.ParseEntries(`
[[shim]]
module = "mylib"
name = "scale"
params = ["int", "float"]
result = "float"

[[shim]]
module = "mylib"
name = "LIMIT"
kind = "const"
value = 12
`)
	if err != nil {
		t.Fatalf("ParseEntries: %v", err)
	}
	r := stdlib.Default()
	before := r.Fingerprint()
	if err := r.AddEntries(entries); err != nil {
		t.Fatalf("AddEntries: %v", err)
	}
	sym, ok := r.Lookup("mylib", "scale")
	if !ok || len(sym.Params) != 2 || sym.Result != stdlib.Float {
		t.Fatalf("scale not registered correctly: %+v", sym)
	}
	if c, ok := r.Lookup("mylib", "LIMIT"); !ok || c.Value.Int != 12 {
		t.Fatalf("LIMIT not registered")
	}
	if r.Fingerprint() == before {
		t.Fatalf("fingerprint must change when the contract changes")
	}
}

func TestBadEntryRejected(t *testing.T) {
	r := stdlib.New()
	err := r.AddEntries([]stdlib.Entry{{Module: "m", Name: "f", Params: []string{"list["}, Result: "int"}})
	if err == nil {
		t.Fatalf("expected error for malformed type")
	}
}
