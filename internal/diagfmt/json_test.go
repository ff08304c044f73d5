package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"waspy/internal/diag"
	"waspy/internal/lexer"
	"waspy/internal/source"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true})
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, buf.String())
	}
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("count = %d, items = %d", output.Count, len(output.Diagnostics))
	}
	d := output.Diagnostics[0]
	if d.Severity != "ERROR" || d.Kind != "TypeError" || d.Code != diag.TypeBadOperand.ID() {
		t.Errorf("header = %+v", d)
	}
	if d.Location.File != "calc.py" || d.Location.StartLine != 2 || d.Location.StartCol != 12 {
		t.Errorf("location = %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "x declared here" {
		t.Errorf("notes = %+v", d.Notes)
	}
}

func TestJSONOptions(t *testing.T) {
	bag, fs := sampleBag(t)
	bag.Add(diag.NewError(diag.NameUndefined, source.Span{}, "name 'y' is not defined"))

	items := BuildDiagnostics("calc", bag, fs, JSONOpts{Max: 1})
	if len(items) != 1 || items[0].Module != "calc" {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Notes != nil || items[0].Location.StartLine != 0 {
		t.Errorf("notes or positions leaked: %+v", items[0])
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	var empty DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &empty); err != nil || empty.Diagnostics == nil || empty.Count != 0 {
		t.Errorf("empty output = %s", buf.String())
	}
}

func TestFormatTokens(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("t.py", []byte("x = r'a'\n")))
	toks := lexer.New(file, lexer.Options{}).All()

	var pretty bytes.Buffer
	if err := FormatTokensPretty(&pretty, toks, fs); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(pretty.Bytes(), []byte(`"a" raw at 1:5-1:9`)) {
		t.Errorf("pretty tokens:\n%s", pretty.String())
	}

	var js bytes.Buffer
	if err := FormatTokensJSON(&js, toks); err != nil {
		t.Fatal(err)
	}
	var out []TokenOutput
	if err := json.Unmarshal(js.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != len(toks) || out[0].Kind != "identifier" || out[len(out)-1].Kind != "end of file" {
		t.Errorf("json tokens = %+v", out)
	}
}
