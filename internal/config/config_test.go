package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"waspy/internal/config"
)

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := config.Parse(`
[package]
name = "demo"

[build]
max_locals = 100
start = false
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := config.Default().Build
	want.MaxLocals = 100
	want.Start = false
	if cfg.Build != want {
		t.Errorf("build = %+v, want %+v", cfg.Build, want)
	}
	if cfg.Package.Name != "demo" {
		t.Errorf("package name = %q", cfg.Package.Name)
	}
	if opts := cfg.Build.Codegen(); opts.Start || opts.MaxLocals != 100 || opts.MemoryPages != 2 {
		t.Errorf("codegen options = %+v", opts)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name, text, want string
	}{
		{"unknown key", "[build]\nmemory = 3\n", "unknown keys: build.memory"},
		{"empty name", "[package]\nname = \" \"\n", "[package].name"},
		{"no memory", "[build]\nmemory_pages = 0\n", "memory_pages"},
		{"max below initial", "[build]\nmemory_pages = 8\nmax_memory_pages = 4\n", "max_memory_pages"},
		{"shim without name", "[[shim]]\nmodule = \"m\"\n", "[[shim]] #1"},
		{"bad toml", "[build\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse(tt.text)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestRegistryAddsShimEntries(t *testing.T) {
	cfg, err := config.Parse(`
[[shim]]
module = "mylib"
name = "scale"
params = ["int", "float"]
result = "float"

[[shim]]
module = "mylib"
name = "LIMIT"
kind = "const"
value = 10
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	if !r.Frozen() {
		t.Error("registry not frozen")
	}
	sym, ok := r.Lookup("mylib", "scale")
	if !ok || len(sym.Params) != 2 || sym.Result != "float" {
		t.Errorf("scale = %+v", sym)
	}
	if _, ok := r.Lookup("math", "sqrt"); !ok {
		t.Error("built-in contract missing")
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "pkg")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := filepath.Join(root, config.FileName)
	if err := os.WriteFile(manifest, []byte("[package]\nname = \"app\"\n[build]\nentry = false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadNear(nested)
	if err != nil {
		t.Fatalf("LoadNear: %v", err)
	}
	if cfg.Path != manifest {
		t.Errorf("path = %q, want %q", cfg.Path, manifest)
	}
	if got := cfg.MainName("main"); got != "app" {
		t.Errorf("MainName = %q, want app", got)
	}
}

func TestLoadNearWithoutManifest(t *testing.T) {
	cfg, err := config.LoadNear(t.TempDir())
	if err != nil {
		t.Fatalf("LoadNear: %v", err)
	}
	if cfg.Path != "" || cfg.MainName("x") != "__main__" {
		t.Errorf("cfg = %+v", cfg)
	}
}
