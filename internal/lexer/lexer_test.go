package lexer_test

import (
	"strings"
	"testing"

	"waspy/internal/diag"
	"waspy/internal/lexer"
	"waspy/internal/source"
	"waspy/internal/token"
)

func lex(t *testing.T, input string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.py", []byte(input)))
	bag := diag.NewBag(10)
	lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx.All(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func equalKinds(a, b []token.Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestIndentationTokens(t *testing.T) {
	src := "def f(x):\n    if x:\n        return 1\n\n    # comment\n    return 2\nprint(f(0))\n"
	toks, bag := lex(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	want := []token.Kind{
		token.KwDef, token.Ident, token.LParen, token.Ident, token.RParen, token.Colon, token.Newline,
		token.Indent, token.KwIf, token.Ident, token.Colon, token.Newline,
		token.Indent, token.KwReturn, token.IntLit, token.Newline,
		token.Dedent, token.KwReturn, token.IntLit, token.Newline,
		token.Dedent, token.Ident, token.LParen, token.Ident, token.LParen, token.IntLit, token.RParen, token.RParen, token.Newline,
		token.EOF,
	}
	if got := kinds(toks); !equalKinds(got, want) {
		t.Fatalf("kinds mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestImplicitAndExplicitJoining(t *testing.T) {
	src := "x = (1 +\n     2)\ny = 3 + \\\n    4\n"
	toks, bag := lex(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	newlines := 0
	for _, tok := range toks {
		if tok.Kind == token.Newline {
			newlines++
		}
		if tok.Kind == token.Indent {
			t.Fatal("joined lines must not produce INDENT")
		}
	}
	if newlines != 2 {
		t.Fatalf("got %d NEWLINE tokens, want 2", newlines)
	}
}

func TestMissingTrailingNewline(t *testing.T) {
	toks, _ := lex(t, "if a:\n  b")
	want := []token.Kind{token.KwIf, token.Ident, token.Colon, token.Newline, token.Indent, token.Ident, token.Newline, token.Dedent, token.EOF}
	if got := kinds(toks); !equalKinds(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		src  string
		kind token.Kind
		text string
	}{
		{"42", token.IntLit, "42"},
		{"1_000", token.IntLit, "1000"},
		{"0x_ff", token.IntLit, "255"},
		{"0o17", token.IntLit, "15"},
		{"0b101", token.IntLit, "5"},
		{"000", token.IntLit, "0"},
		{"3.25", token.FloatLit, "3.25"},
		{".5", token.FloatLit, ".5"},
		{"1e-3", token.FloatLit, "1e-3"},
		{"2.", token.FloatLit, "2."},
	}
	for _, tt := range tests {
		toks, bag := lex(t, tt.src)
		if bag.HasErrors() {
			t.Errorf("%q: unexpected errors %v", tt.src, bag.Items())
			continue
		}
		if toks[0].Kind != tt.kind || toks[0].Text != tt.text {
			t.Errorf("%q: got %v %q, want %v %q", tt.src, toks[0].Kind, toks[0].Text, tt.kind, tt.text)
		}
	}
}

func TestLexicalErrors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
	}{
		{"x = 'abc\n", diag.LexUnterminatedString},
		{"x = 0123\n", diag.LexBadNumber},
		{"x = 99999999999999999999\n", diag.LexIntOverflow},
		{"x = 1_\n", diag.LexBadNumber},
		{"x = 3j\n", diag.LexBadNumber},
		{"x = $\n", diag.LexUnknownChar},
		{"if a:\n    b\n  c\n", diag.LexBadIndent},
		{"x = b'\u00e9'\n", diag.LexBadEscape},
	}
	for _, tt := range tests {
		toks, bag := lex(t, tt.src)
		if bag.Len() != 1 {
			t.Errorf("%q: got %d diagnostics, want exactly 1", tt.src, bag.Len())
			continue
		}
		if got := bag.Items()[0].Code; got != tt.code {
			t.Errorf("%q: code %v, want %v", tt.src, got, tt.code)
		}
		if last := toks[len(toks)-1]; last.Kind != token.Invalid {
			t.Errorf("%q: last token %v, want invalid", tt.src, last.Kind)
		}
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		src  string
		kind token.Kind
		text string
	}{
		{`"a\tb"`, token.StringLit, "a\tb"},
		{`'it\'s'`, token.StringLit, "it's"},
		{`r"a\n"`, token.StringLit, `a\n`},
		{`b"\x00\xff"`, token.BytesLit, "\x00\xff"},
		{`"\xe9"`, token.StringLit, "é"},
		{`"\u00e9\N"`, token.StringLit, `é\N`},
		{"'''multi\nline'''", token.StringLit, "multi\nline"},
		{`f"x={x}"`, token.FStringLit, "x={x}"},
		{`Rb'\d'`, token.BytesLit, `\d`},
	}
	for _, tt := range tests {
		toks, bag := lex(t, tt.src)
		if bag.HasErrors() {
			t.Errorf("%s: unexpected errors %v", tt.src, bag.Items())
			continue
		}
		if toks[0].Kind != tt.kind || toks[0].Text != tt.text {
			t.Errorf("%s: got %v %q, want %v %q", tt.src, toks[0].Kind, toks[0].Text, tt.kind, tt.text)
		}
	}
}

func TestIdentifiersAreNFKCNormalized(t *testing.T) {
	// U+FB01 LATIN SMALL LIGATURE FI normalizes to "fi"
	toks, bag := lex(t, "\ufb01le = 1\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	if toks[0].Kind != token.Ident || toks[0].Text != "file" {
		t.Fatalf("got %v %q", toks[0].Kind, toks[0].Text)
	}
}

func TestFragmentLexing(t *testing.T) {
	src := `f"sum={a + b}"`
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("frag.py", []byte(src)))
	start := uint32(strings.Index(src, "a"))
	end := uint32(strings.Index(src, "}"))
	toks := lexer.NewFragment(file, start, end, lexer.Options{}).All()
	want := []token.Kind{token.Ident, token.Plus, token.Ident, token.EOF}
	if got := kinds(toks); !equalKinds(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
