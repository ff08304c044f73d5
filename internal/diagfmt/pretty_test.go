package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"waspy/internal/diag"
	"waspy/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	content := []byte("def f(x: int) -> int:\n    return x - \"a\"\n")
	id := fs.AddVirtual("/home/user/project/src/calc.py", content)

	bag := diag.NewBag(10)
	start := uint32(strings.Index(string(content), "x - "))
	d := diag.NewError(diag.TypeBadOperand, source.Span{File: id, Start: start, End: start + 7},
		"unsupported operand types for -: int and str").
		WithNote(source.Span{File: id, Start: 6, End: 7}, "x declared here")
	bag.Add(d)
	return bag, fs
}

func TestPrettyUnderlinesSpan(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename, ShowNotes: true}); err != nil {
		t.Fatal(err)
	}
	want := "calc.py:2:12: TypeError [" + diag.TypeBadOperand.ID() + "]: unsupported operand types for -: int and str\n" +
		" 1 | def f(x: int) -> int:\n" +
		" 2 |     return x - \"a\"\n" +
		"   |            ^~~~~~~\n" +
		"  note: calc.py:1:7: x declared here\n"
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	bag, fs := sampleBag(t)
	tests := []struct {
		name string
		opts PrettyOpts
		want string
	}{
		{"absolute", PrettyOpts{PathMode: PathModeAbsolute}, "/home/user/project/src/calc.py:2:12:"},
		{"relative", PrettyOpts{PathMode: PathModeRelative, BaseDir: "/home/user/project"}, "src/calc.py:2:12:"},
		{"basename", PrettyOpts{PathMode: PathModeBasename}, "calc.py:2:12:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Pretty(&buf, bag, fs, tt.opts); err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(buf.String(), tt.want) {
				t.Errorf("output %q does not start with %q", buf.String(), tt.want)
			}
		})
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := sampleBag(t)
	var plain, colored bytes.Buffer
	if err := Pretty(&plain, bag, fs, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	if err := Pretty(&colored, bag, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain.String(), "\x1b[") {
		t.Error("escape codes without Color")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Error("no escape codes with Color")
	}
}

func TestShort(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, PathModeBasename, ""); err != nil {
		t.Fatal(err)
	}
	want := "calc.py:2:12: TypeError: unsupported operand types for -: int and str\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestParsePathMode(t *testing.T) {
	for _, s := range []string{"", "auto", "absolute", "relative", "basename"} {
		if _, ok := ParsePathMode(s); !ok {
			t.Errorf("ParsePathMode(%q) rejected", s)
		}
	}
	if _, ok := ParsePathMode("full"); ok {
		t.Error("unknown mode accepted")
	}
}
