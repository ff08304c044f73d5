package driver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"waspy/internal/config"
	"waspy/internal/diag"
	"waspy/internal/driver"
	"waspy/internal/stdlib"
	"waspy/internal/token"
	"waspy/internal/trace"
)

const square = `
def square(x: int) -> int:
    return x * x
`

func compile(t *testing.T, src string, opts driver.Options) *driver.Result {
	t.Helper()
	res, err := driver.Compile(context.Background(), driver.Input{Name: "m", Src: []byte(src)}, opts)
	if err != nil {
		t.Fatalf("Compile: %+v", err)
	}
	return res
}

func TestCompileProducesModule(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelDetail)
	opts := driver.DefaultOptions()
	opts.Tracer = ring
	res := compile(t, square, opts)
	if res.Failed() {
		t.Fatalf("diagnostics: %v", res.Diagnostics.Items())
	}
	if !bytes.HasPrefix(res.Wasm, []byte("\x00asm")) {
		t.Errorf("not a wasm binary: % x", res.Wasm[:min(8, len(res.Wasm))])
	}
	if _, ok := res.Metadata.Export("square"); !ok {
		t.Error("metadata lacks the square export")
	}
	if len(res.Timing.Phases) != len(driver.Stages) {
		t.Errorf("timing phases = %+v", res.Timing.Phases)
	}
	passes := map[string]bool{}
	for _, ev := range ring.Snapshot() {
		if ev.Scope == trace.ScopePass && ev.Kind == trace.KindSpanEnd {
			passes[ev.Name] = true
			if ev.Module != res.Name {
				t.Errorf("%s span module = %q, want %q", ev.Name, ev.Module, res.Name)
			}
		}
	}
	for _, st := range driver.Stages {
		if !passes[string(st)] {
			t.Errorf("no span for %s", st)
		}
	}
}

func TestCompileIsAtomic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind diag.Kind
		opt  func(*driver.Options)
	}{
		{"syntax", "def f(:\n    pass\n", diag.KindSyntax, nil},
		{"name", "x = y\n", diag.KindName, nil},
		{"type", "x = \"a\" - 1\n", diag.KindType, nil},
		{"codegen", "def add3(a: int, b: int, c: int) -> int:\n    return a + b + c\n", diag.KindCodeGen,
			func(o *driver.Options) { o.Config.Build.MaxLocals = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := driver.DefaultOptions()
			if tt.opt != nil {
				tt.opt(&opts)
			}
			res := compile(t, tt.src, opts)
			if !res.Failed() || res.Wasm != nil || res.Module != nil {
				t.Fatalf("got a binary alongside diagnostics")
			}
			errs := res.Diagnostics.Errors()
			if len(errs) == 0 || errs[0].Kind() != tt.kind {
				t.Errorf("diagnostics = %v, want %v", errs, tt.kind)
			}
		})
	}
}

func TestCompileHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := driver.Compile(ctx, driver.Input{Name: "m", Src: []byte(square)}, driver.DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCompileRejectsUnfrozenShims(t *testing.T) {
	opts := driver.DefaultOptions()
	opts.Shims = stdlib.Default()
	if _, err := driver.Compile(context.Background(), driver.Input{Src: []byte(square)}, opts); err == nil {
		t.Fatal("unfrozen registry accepted")
	}
	cfg := config.Default()
	r, err := cfg.Registry()
	if err != nil {
		t.Fatal(err)
	}
	opts.Shims = r
	if _, err := driver.Compile(context.Background(), driver.Input{Src: []byte(square)}, opts); err != nil {
		t.Fatalf("frozen registry rejected: %v", err)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []driver.Event
}

func (r *recorder) OnEvent(ev driver.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) final() map[string]driver.Status {
	out := map[string]driver.Status{}
	for _, ev := range r.events {
		if ev.Status != driver.StatusWorking {
			out[ev.Module] = ev.Status
		}
	}
	return out
}

func TestCompileAll(t *testing.T) {
	rec := &recorder{}
	opts := driver.DefaultOptions()
	opts.Sink = rec
	opts.Jobs = 2
	inputs := []driver.Input{
		{Name: "a", Src: []byte(square)},
		{Name: "b", Src: []byte("x = undefined_name\n")},
		{Name: "c", Src: []byte("print(1)\n")},
	}
	results, err := driver.CompileAll(context.Background(), inputs, opts)
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	if len(results) != 3 || results[0].Name != "a" || results[2].Name != "c" {
		t.Fatalf("results out of order: %v", results)
	}
	if results[0].Failed() || !results[1].Failed() || results[2].Failed() {
		t.Errorf("failures = %v %v %v", results[0].Failed(), results[1].Failed(), results[2].Failed())
	}
	want := map[string]driver.Status{"a": driver.StatusDone, "b": driver.StatusError, "c": driver.StatusDone}
	got := rec.final()
	for name, st := range want {
		if got[name] != st {
			t.Errorf("final status of %s = %q, want %q", name, got[name], st)
		}
	}
	if rec.events[0].Status != driver.StatusQueued {
		t.Errorf("first event = %+v", rec.events[0])
	}
	bags := driver.DiagnosticsByModule(results)
	if bags["b"].Len() == 0 || bags["a"].Len() != 0 {
		t.Errorf("diagnostics by module = %v", bags)
	}

	_, err = driver.CompileAll(context.Background(), []driver.Input{{Name: "x"}, {Name: "x"}}, opts)
	if err == nil || !strings.Contains(err.Error(), "duplicate module") {
		t.Errorf("duplicate names: err = %v", err)
	}
}

func TestDiskCache(t *testing.T) {
	cache, err := driver.NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := driver.DefaultOptions()
	opts.Cache = cache
	first := compile(t, square, opts)
	second := compile(t, square, opts)
	if first.Cached || !second.Cached {
		t.Fatalf("cached = %v, %v", first.Cached, second.Cached)
	}
	if !bytes.Equal(first.Wasm, second.Wasm) {
		t.Error("cached binary differs")
	}
	if second.Metadata == nil {
		t.Error("metadata not restored from cache")
	}

	opts.Config.Build.DebugNames = false
	if compile(t, square, opts).Cached {
		t.Error("options change did not invalidate the cache")
	}

	if compile(t, "x = y\n", opts).Cached || compile(t, "x = y\n", opts).Cached {
		t.Error("failed compilation was cached")
	}
	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	opts.Config.Build.DebugNames = true
	if compile(t, square, opts).Cached {
		t.Error("entry survived DropAll")
	}
}

func TestReadInputs(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"main.py":         "print(1)\n",
		"pkg/util.py":     square,
		"pkg/notes.txt":   "skip",
		".hidden/skip.py": "x = 1\n",
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	inputs, err := driver.ReadInputs(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, in := range inputs {
		names = append(names, in.Name)
	}
	if strings.Join(names, ",") != "main,pkg.util" {
		t.Errorf("modules = %v", names)
	}

	single, err := driver.ReadInputs(filepath.Join(dir, "main.py"))
	if err != nil || len(single) != 1 || single[0].Path == "" {
		t.Fatalf("single file: %v %v", single, err)
	}
	res, err := driver.Compile(context.Background(), single[0], driver.DefaultOptions())
	if err != nil || res.Name != "main" {
		t.Errorf("module name = %q, err %v", res.Name, err)
	}
}

func TestTokenize(t *testing.T) {
	p := filepath.Join(t.TempDir(), "t.py")
	if err := os.WriteFile(p, []byte("if x:\n    y = 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	res, err := driver.Tokenize(p, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
	var indents int
	for _, tok := range res.Tokens {
		if tok.Kind == token.Indent {
			indents++
		}
	}
	if indents != 1 || res.Tokens[len(res.Tokens)-1].Kind != token.EOF {
		t.Errorf("tokens = %v", res.Tokens)
	}
}

func TestWriteTimingsJSON(t *testing.T) {
	res := compile(t, square, driver.DefaultOptions())
	var buf bytes.Buffer
	if err := driver.WriteTimings(&buf, []*driver.Result{res}, true); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("records = %q", lines)
	}
	var rec struct {
		Kind   string `json:"kind"`
		Module string `json:"module"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil || rec.Kind != "module" || rec.Module != "m" {
		t.Errorf("first record = %s (%v)", lines[0], err)
	}
}
