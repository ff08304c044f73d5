package trace_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"waspy/internal/trace"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want trace.Level
		ok   bool
	}{
		{"off", trace.LevelOff, true},
		{"PHASE", trace.LevelPhase, true},
		{"debug", trace.LevelDebug, true},
		{"loud", trace.LevelOff, false},
	}
	for _, tt := range tests {
		got, err := trace.ParseLevel(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level trace.Level
		scope trace.Scope
		want  bool
	}{
		{trace.LevelPhase, trace.ScopePass, true},
		{trace.LevelPhase, trace.ScopeModule, false},
		{trace.LevelPhase, trace.ScopeProgram, true},
		{trace.LevelError, trace.ScopeProgram, false},
		{trace.LevelDetail, trace.ScopeModule, true},
		{trace.LevelDetail, trace.ScopeNode, false},
		{trace.LevelDebug, trace.ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%v.ShouldEmit(%v) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelPhase, trace.FormatNDJSON)
	mod := trace.BeginModule(tr, "app")
	mod.Child(trace.ScopePass, "parse").End("ok")
	mod.End("")
	trace.Point(tr, trace.ScopeModule, "filtered", "")
	trace.Point(tr, trace.ScopeProgram, "log", "INFO:root:hello")
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d events:\n%s", len(lines), buf.String())
	}
	kinds := []string{"begin", "end", "point"}
	var prevSeq float64
	for i, line := range lines {
		var ev map[string]any
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if ev["kind"] != kinds[i] {
			t.Errorf("line %d kind = %v, want %s", i, ev["kind"], kinds[i])
		}
		seq, _ := ev["seq"].(float64)
		if seq <= prevSeq {
			t.Errorf("line %d seq = %v after %v", i, seq, prevSeq)
		}
		prevSeq = seq
	}
	// модульный span скрыт на LevelPhase, но модуль доходит до прохода
	if !strings.Contains(lines[1], `"module":"app"`) || !strings.Contains(lines[1], `"elapsed_ms"`) {
		t.Errorf("pass end lacks module or elapsed: %s", lines[1])
	}
	if strings.Contains(lines[0], `"parent_id"`) {
		t.Errorf("pass under a hidden module span has a parent: %s", lines[0])
	}
	if !strings.Contains(lines[2], `"scope":"program"`) {
		t.Errorf("unexpected events:\n%s", buf.String())
	}
}

func TestChildSpansLinkToParent(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelDetail)
	mod := trace.BeginModule(ring, "pkg.util")
	pass := mod.Child(trace.ScopePass, "sema")
	pass.Point(trace.ScopeModule, "cache", "miss")
	if trace.OpenSpans() < 2 {
		t.Errorf("open spans = %d", trace.OpenSpans())
	}
	pass.End("")
	pass.End("again")
	mod.End("")

	evs := ring.Snapshot()
	if len(evs) != 5 {
		t.Fatalf("got %d events: %+v", len(evs), evs)
	}
	for _, ev := range evs {
		if ev.Module != "pkg.util" {
			t.Errorf("%s %s: module = %q", ev.Kind, ev.Name, ev.Module)
		}
	}
	if evs[1].ParentID != mod.ID() || evs[2].ParentID != pass.ID() {
		t.Errorf("parents = %d, %d; want %d, %d", evs[1].ParentID, evs[2].ParentID, mod.ID(), pass.ID())
	}
	if evs[3].Kind != trace.KindSpanEnd || evs[3].Elapsed <= 0 {
		t.Errorf("pass end = %+v", evs[3])
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatText)
	trace.Begin(tr, trace.ScopeDriver, "build", nil).
		WithExtra("z", "1").
		WithExtra("a", "2").
		End("")
	trace.BeginModule(tr, "app").Point(trace.ScopeModule, "cache", "hit")
	_ = tr.Flush()

	out := buf.String()
	for _, want := range []string{"← build ", "{a=2, z=1}", "[app]   • cache (hit)"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output lacks %q:\n%s", want, out)
		}
	}
}

func TestRingKeepsLastEvents(t *testing.T) {
	ring := trace.NewRingTracer(2, trace.LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		trace.Point(ring, trace.ScopeNode, name, "")
	}
	evs := ring.Snapshot()
	if len(evs) != 2 || evs[0].Name != "b" || evs[1].Name != "c" {
		t.Errorf("snapshot = %+v", evs)
	}
	if ring.Dropped() != 1 {
		t.Errorf("dropped = %d", ring.Dropped())
	}

	var buf bytes.Buffer
	if err := ring.Dump(&buf, trace.FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 2 {
		t.Errorf("dump:\n%s", buf.String())
	}
}

func TestMultiTracerFansOut(t *testing.T) {
	var buf bytes.Buffer
	stream := trace.NewStreamTracer(&buf, trace.LevelPhase, trace.FormatText)
	ring := trace.NewRingTracer(8, trace.LevelDebug)
	multi := trace.NewMultiTracer(stream, trace.Nop, ring)
	if multi.Level() != trace.LevelDebug {
		t.Errorf("level = %v", multi.Level())
	}
	trace.Point(multi, trace.ScopeNode, "fold", "")
	trace.Point(multi, trace.ScopePass, "lower", "")
	if err := multi.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := len(ring.Snapshot()); got != 2 {
		t.Errorf("ring holds %d events", got)
	}
	if strings.Contains(buf.String(), "fold") || !strings.Contains(buf.String(), "lower") {
		t.Errorf("stream:\n%s", buf.String())
	}
	if r, ok := multi.Ring(); !ok || r != ring {
		t.Error("Ring did not find the ring tracer")
	}
}

func TestHeartbeat(t *testing.T) {
	ring := trace.NewRingTracer(8, trace.LevelError)
	hb := trace.StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	hb.Stop()
	hb.Stop()

	evs := ring.Snapshot()
	if len(evs) == 0 || evs[0].Kind != trace.KindHeartbeat {
		t.Fatalf("no heartbeat: %+v", evs)
	}
	if !strings.Contains(evs[0].Detail, "open spans") {
		t.Errorf("detail = %q", evs[0].Detail)
	}
	if trace.StartHeartbeat(trace.Nop, time.Second) != nil {
		t.Error("heartbeat started on a disabled tracer")
	}
}

func TestNewAutoFormat(t *testing.T) {
	var buf bytes.Buffer
	tr, err := trace.New(trace.Config{Level: trace.LevelPhase, Mode: trace.ModeStream, Output: &buf, OutputPath: "out.ndjson"})
	if err != nil {
		t.Fatal(err)
	}
	trace.Point(tr, trace.ScopeDriver, "start", "")
	_ = tr.Flush()
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected NDJSON, got %q", buf.String())
	}
	off, _ := trace.New(trace.Config{Level: trace.LevelOff})
	if off.Enabled() {
		t.Error("off tracer is enabled")
	}
}
