package host_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"waspy/internal/codegen"
	"waspy/internal/diag"
	"waspy/internal/host"
	"waspy/internal/ir"
	"waspy/internal/parser"
	"waspy/internal/sema"
	"waspy/internal/source"
	"waspy/internal/trace"
)

func build(t *testing.T, src string) []byte {
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
	out, err := codegen.Generate(m, codegen.DefaultOptions())
	if err != nil {
		t.Fatalf("Generate: %+v", err)
	}
	return out.Wasm
}

type run struct {
	*host.Instance
	stdout, stderr bytes.Buffer
}

func load(t *testing.T, src string, opts host.Options) *run {
	t.Helper()
	r := &run{}
	opts.Stdout, opts.Stderr = &r.stdout, &r.stderr
	in, err := host.Load(context.Background(), build(t, src), opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() { _ = in.Close(context.Background()) })
	r.Instance = in
	return r
}

func (r *run) call(t *testing.T, name string, args ...any) any {
	t.Helper()
	v, err := r.Call(context.Background(), name, args...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return v
}

func TestLoadRunsModuleBody(t *testing.T) {
	r := load(t, `
xs = [1, 2]
print("hello", len(xs))
print(xs, 1.5, None, sep="|")
`, host.Options{})
	want := "hello 2\n[1, 2]|1.5|None\n"
	if got := r.stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestCallConvertsValues(t *testing.T) {
	r := load(t, `
def greet(name: str) -> str:
    return "hi " + name

def total(xs: list[int]) -> int:
    return sum(xs)

def halves(n: int) -> list[float]:
    out: list[float] = []
    for i in range(n):
        out.append(i / 2)
    return out

def flag(x: float) -> bool:
    return x > 0.5
`, host.Options{})
	if got := r.call(t, "greet", "bob"); got != "hi bob" {
		t.Errorf("greet = %#v", got)
	}
	if got := r.call(t, "total", []any{int64(1), 2, int64(3)}); got != int64(6) {
		t.Errorf("total = %#v", got)
	}
	got, ok := r.call(t, "halves", 3).([]any)
	if !ok || len(got) != 3 || got[2] != 1.0 {
		t.Errorf("halves = %#v", got)
	}
	if got := r.call(t, "flag", 0.75); got != true {
		t.Errorf("flag = %#v", got)
	}
	if _, err := r.Call(context.Background(), "greet"); err == nil {
		t.Error("missing argument accepted")
	}
	if _, err := r.Call(context.Background(), "nope"); err == nil {
		t.Error("unknown export accepted")
	}
}

func TestUncaughtExceptionIsReported(t *testing.T) {
	r := load(t, `
def check(x: int) -> int:
    if x < 0:
        raise ValueError("negative: " + str(x))
    return x * 2

def divide(a: int, b: int) -> int:
    return a // b
`, host.Options{})
	_, err := r.Call(context.Background(), "check", -3)
	var exc *host.Exception
	if !errors.As(err, &exc) {
		t.Fatalf("err = %v, want *host.Exception", err)
	}
	if exc.Class != "ValueError" || exc.Message != "negative: -3" {
		t.Errorf("exception = %+v", exc)
	}
	if got := r.call(t, "check", 4); got != int64(8) {
		t.Errorf("call after exception = %#v", got)
	}
	_, err = r.Call(context.Background(), "divide", 1, 0)
	if !errors.As(err, &exc) || exc.Class != "ZeroDivisionError" {
		t.Errorf("divide err = %v", err)
	}
}

func TestLoadReportsInitializerException(t *testing.T) {
	_, err := host.Load(context.Background(), build(t, "x = [1][3]\n"), host.Options{Stdout: &bytes.Buffer{}})
	var exc *host.Exception
	if !errors.As(err, &exc) || exc.Class != "IndexError" {
		t.Fatalf("err = %v, want IndexError", err)
	}
}

func TestSysExit(t *testing.T) {
	r := load(t, `
import sys

def leave(code: int) -> None:
    sys.exit(code)
`, host.Options{})
	_, err := r.Call(context.Background(), "leave", 3)
	var exit *host.ExitError
	if !errors.As(err, &exit) || exit.Code != 3 {
		t.Fatalf("err = %v, want exit status 3", err)
	}
}

func TestJSONShim(t *testing.T) {
	r := load(t, `
import json

def roundtrip(s: str) -> str:
    return json.dumps(json.loads(s))

def pretty(s: str) -> str:
    return json.dumps(json.loads(s), 2)
`, host.Options{})
	in := `{"b": [1, 2.5, null, true], "a": "é"}`
	if got := r.call(t, "roundtrip", in); got != `{"b": [1, 2.5, null, true], "a": "\u00e9"}` {
		t.Errorf("roundtrip = %s", got)
	}
	if got := r.call(t, "pretty", `{"k": [1]}`); got != "{\n  \"k\": [\n    1\n  ]\n}" {
		t.Errorf("pretty = %q", got)
	}
	_, err := r.Call(context.Background(), "roundtrip", "{")
	var exc *host.Exception
	if !errors.As(err, &exc) || exc.Class != "ValueError" {
		t.Errorf("bad json err = %v", err)
	}
}

func TestReShim(t *testing.T) {
	r := load(t, `
import re

def numbers(s: str) -> list[str]:
    return re.findall(r"\d+", s)

def swap(s: str) -> str:
    return re.sub(r"(\w+)@(\w+)", r"\2 at \1", s)

def words(s: str) -> int:
    p = re.compile(r"[a-z]+", re.IGNORECASE)
    return len(p.split(s))
`, host.Options{})
	got, _ := r.call(t, "numbers", "a1 b22 c333").([]any)
	if len(got) != 3 || got[2] != "333" {
		t.Errorf("numbers = %#v", got)
	}
	if got := r.call(t, "swap", "user@host"); got != "host at user" {
		t.Errorf("swap = %#v", got)
	}
	if got := r.call(t, "words", "Ab-cd-EF"); got != int64(4) {
		t.Errorf("words = %#v", got)
	}
}

func TestDatetimeShim(t *testing.T) {
	fixed := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.Local)
	r := load(t, `
import datetime

def next_day() -> str:
    d = datetime.datetime(2024, 1, 31) + datetime.timedelta(1.0)
    return d.isoformat()

def gap() -> str:
    return str(datetime.datetime(2024, 3, 1) - datetime.datetime(2024, 2, 1, 12))

def year() -> int:
    return datetime.datetime.now().year

def parse(s: str) -> str:
    return repr(datetime.datetime.fromisoformat(s))
`, host.Options{Now: func() time.Time { return fixed }})
	tests := []struct {
		name string
		args []any
		want any
	}{
		{"next_day", nil, "2024-02-01T00:00:00"},
		{"gap", nil, "28 days, 12:00:00"},
		{"year", nil, int64(2024)},
		{"parse", []any{"2024-05-06T07:08:09.5"}, "datetime.datetime(2024, 5, 6, 7, 8, 9, 500000)"},
		{"parse", []any{"2024-05-06"}, "datetime.datetime(2024, 5, 6, 0, 0)"},
	}
	for _, tt := range tests {
		if got := r.call(t, tt.name, tt.args...); got != tt.want {
			t.Errorf("%s(%v) = %#v, want %#v", tt.name, tt.args, got, tt.want)
		}
	}
	_, err := r.Call(context.Background(), "parse", "2024-13-01")
	var exc *host.Exception
	if !errors.As(err, &exc) || exc.Message != "month must be in 1..12" {
		t.Errorf("bad month err = %v", err)
	}
}

func TestLoggingShim(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelPhase)
	r := load(t, `
import logging

logging.info("hidden")
logging.warning("careful")
log = logging.getLogger("app.db")
log.error("down")
logging.basicConfig(10)
`, host.Options{Tracer: ring})
	want := "WARNING:root:careful\nERROR:app.db:down\n"
	if got := r.stderr.String(); got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
	var lines []string
	for _, ev := range ring.Snapshot() {
		if ev.Scope == trace.ScopeProgram {
			lines = append(lines, ev.Detail)
		}
	}
	if strings.Join(lines, "|") != "WARNING:root:careful|ERROR:app.db:down" {
		t.Errorf("traced records = %q", lines)
	}
}

func TestRandomSeed(t *testing.T) {
	src := `
import random

def draw() -> int:
    return random.randint(1, 1000000)
`
	a := load(t, src, host.Options{Seed: 7})
	b := load(t, src, host.Options{Seed: 7})
	for range 3 {
		if x, y := a.call(t, "draw"), b.call(t, "draw"); x != y {
			t.Fatalf("same seed drew %v and %v", x, y)
		}
	}
}

func TestImplemented(t *testing.T) {
	for _, tt := range []struct {
		module, name string
		want         bool
	}{
		{"math", "sqrt", true},
		{"re", "Pattern.search", true},
		{"datetime", "timedelta.__mul__.int", true},
		{"logging", "Logger.warning", true},
		{"builtins", "str.upper", true},
		{"math", "lgamma", false},
	} {
		if got := host.Implemented(tt.module, tt.name); got != tt.want {
			t.Errorf("Implemented(%s, %s) = %v", tt.module, tt.name, got)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{0.1, "0.1"},
		{-2.5, "-2.5"},
		{1e16, "1e+16"},
		{123456789012345.6, "123456789012345.6"},
		{1.5e-5, "1.5e-05"},
		{0.0001, "0.0001"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	}
	for _, tt := range tests {
		if got := host.FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRepr(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "None"},
		{"it's", `"it's"`},
		{[]any{int64(1), "a", 2.0}, "[1, 'a', 2.0]"},
		{host.Set{}, "set()"},
		{[]byte("a\n"), `b'a\n'`},
		{&host.Object{Class: "KeyError", Message: "k", Exception: true}, "KeyError('k')"},
	}
	for _, tt := range tests {
		if got := host.Repr(tt.in); got != tt.want {
			t.Errorf("Repr(%#v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		text, typ string
		want      any
	}{
		{"42", "int", int64(42)},
		{"-0x10", "int", int64(-16)},
		{"2.5", "float", 2.5},
		{"True", "bool", true},
		{"hi there", "str", "hi there"},
		{"[1, 2, 3]", "list[int]", []any{int64(1), int64(2), int64(3)}},
		{`["a", "b"]`, "set[str]", host.Set{"a", "b"}},
		{"[[1.5], []]", "list[list[float]]", []any{[]any{1.5}, []any{}}},
	}
	for _, tt := range tests {
		got, err := host.ParseArg(tt.text, tt.typ)
		if err != nil {
			t.Errorf("ParseArg(%q, %s): %v", tt.text, tt.typ, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseArg(%q, %s) = %#v, want %#v", tt.text, tt.typ, got, tt.want)
		}
	}
	for _, bad := range [][2]string{{"x", "int"}, {"yes", "bool"}, {"1,2", "list[int]"}, {"1", "Point"}} {
		if _, err := host.ParseArg(bad[0], bad[1]); err == nil {
			t.Errorf("ParseArg(%q, %s) accepted", bad[0], bad[1])
		}
	}
}
