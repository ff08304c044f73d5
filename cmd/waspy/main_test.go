package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"waspy/internal/driver"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		r      *driver.Result
		input  string
		output string
		single bool
		want   string
	}{
		{"next to source", &driver.Result{Name: "app", Path: "src/app.py"}, "src/app.py", "", true, "src/app.wasm"},
		{"explicit file", &driver.Result{Name: "app", Path: "src/app.py"}, "src/app.py", "out.wasm", true, "out.wasm"},
		{"directory default", &driver.Result{Name: "pkg.util", Path: "src/pkg/util.py"}, "src", "", false, filepath.Join("src", "build", "pkg.util.wasm")},
		{"directory output", &driver.Result{Name: "main", Path: "src/main.py"}, "src", "dist", false, filepath.Join("dist", "main.wasm")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.r, tt.input, tt.output, tt.single); got != tt.want {
				t.Errorf("outputPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff, "yes": uiModeOn, "false": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Error("invalid mode accepted")
	}
}

func TestShowProgress(t *testing.T) {
	tests := []struct {
		mode    uiMode
		modules int
		quiet   bool
		want    bool
	}{
		{uiModeOn, 3, false, true},
		{uiModeOn, 1, false, false},
		{uiModeOn, 3, true, false},
		{uiModeOff, 3, false, false},
	}
	for _, tt := range tests {
		if got := showProgress(tt.mode, tt.modules, tt.quiet); got != tt.want {
			t.Errorf("showProgress(%s, %d, %v) = %v", tt.mode, tt.modules, tt.quiet, got)
		}
	}
}

func newTestCommand(args ...string) *cobra.Command {
	root := &cobra.Command{Use: "waspy"}
	root.PersistentFlags().String("config", "", "")
	cmd := &cobra.Command{Use: "build", RunE: func(*cobra.Command, []string) error { return nil }}
	addBuildFlags(cmd)
	root.AddCommand(cmd)
	root.SetArgs(append([]string{"build"}, args...))
	return root
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	manifest := "[package]\nname = \"demo\"\n[build]\nmax_locals = 10\n"
	if err := os.WriteFile(filepath.Join(dir, "waspy.toml"), []byte(manifest), 0o600); err != nil {
		t.Fatal(err)
	}
	root := newTestCommand("--memory-pages", "4", "--no-start", "--library")
	cmd, err := root.ExecuteC()
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Package.Name != "demo" || cfg.Build.MaxLocals != 10 {
		t.Errorf("manifest values lost: %+v", cfg)
	}
	if cfg.Build.MemoryPages != 4 || cfg.Build.Start || cfg.Build.Entry || !cfg.Build.Metadata {
		t.Errorf("overrides not applied: %+v", cfg.Build)
	}
}

func TestLoadConfigRejectsBadOverrides(t *testing.T) {
	root := newTestCommand("--memory-pages", "300")
	cmd, err := root.ExecuteC()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(cmd, t.TempDir()); err == nil {
		t.Error("memory above the maximum accepted")
	}
}
