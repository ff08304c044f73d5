package version

import (
	"strings"
	"testing"
)

func TestCurrentTrimsAndDefaults(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version = "  1.2.3\n"
	GitCommit = " abc123 "
	info := Current()
	if info.Version != "1.2.3" || info.GitCommit != "abc123" {
		t.Errorf("Current() = %+v", info)
	}

	Version = ""
	if got := Current().Version; got != "dev" {
		t.Errorf("empty version = %q, want dev", got)
	}
}

func TestColored(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.1.0", "0.1.0"},
		{"1.2.3-rc.1", "1.2.3-rc.1"},
		{"dev", "dev"},
	}
	for _, tt := range tests {
		if got := Colored(tt.in, false); got != tt.want {
			t.Errorf("Colored(%q, false) = %q", tt.in, got)
		}
	}
	got := Colored("1.2.3-dev", true)
	if !strings.Contains(got, "\x1b[") || !strings.HasSuffix(got, "-dev") {
		t.Errorf("Colored(true) = %q", got)
	}
	if Colored("dev", true) != "dev" {
		t.Error("non-semver version was painted")
	}
}

func TestBanner(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()
	Version = "0.3.1"
	if got := Banner(false); got != "waspy 0.3.1 (python subset to wasm)" {
		t.Errorf("Banner = %q", got)
	}
}

// BenchmarkVersionAccess benchmarks accessing version variables
func BenchmarkVersionAccess(b *testing.B) {
	for b.Loop() {
		_ = Current()
	}
}
