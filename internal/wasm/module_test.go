package wasm_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"waspy/internal/wasm"
)

func TestLEB128(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"u32 zero", wasm.AppendU32(nil, 0), []byte{0x00}},
		{"u32 624485", wasm.AppendU32(nil, 624485), []byte{0xe5, 0x8e, 0x26}},
		{"s32 -1", wasm.AppendS32(nil, -1), []byte{0x7f}},
		{"s32 64", wasm.AppendS32(nil, 64), []byte{0xc0, 0x00}},
		{"s64 -123456", wasm.AppendS64(nil, -123456), []byte{0xc0, 0xbb, 0x78}},
	}
	for _, tt := range tests {
		if !bytes.Equal(tt.got, tt.want) {
			t.Errorf("%s: got % x, want % x", tt.name, tt.got, tt.want)
		}
	}
}

// sumTo builds sum(n) = 0 + 1 + ... + n with a loop, exercising blocks,
// branches, locals and the type dedup.
func sumTo(m *wasm.Module) {
	sig := wasm.FuncType{Params: []wasm.ValType{wasm.I64}, Results: []wasm.ValType{wasm.I64}}
	c := wasm.NewCode()
	// locals: 0=n 1=acc
	c.Block(wasm.BlockEmpty).Loop(wasm.BlockEmpty)
	c.LocalGet(0).Op(wasm.OpI64Eqz).BrIf(1)
	c.LocalGet(1).LocalGet(0).Op(wasm.OpI64Add).LocalSet(1)
	c.LocalGet(0).I64Const(1).Op(wasm.OpI64Sub).LocalSet(0)
	c.Br(0)
	c.End().End()
	c.LocalGet(1)
	m.Funcs = append(m.Funcs, wasm.Func{Name: "sum", Type: m.AddType(sig), Locals: []wasm.ValType{wasm.I64}, Body: c})
}

func TestEncodedModuleRuns(t *testing.T) {
	m := &wasm.Module{Name: "demo", Memory: &wasm.Memory{Min: 1, Max: 2, HasMax: true}, DebugNames: true}
	sumTo(m)
	heap := m.AddGlobal(wasm.Global{Name: "heap", Type: wasm.I32, Mutable: true, Init: wasm.ConstExpr{Type: wasm.I32, Int: 1024}})
	m.Data = append(m.Data, wasm.DataSegment{Offset: 16, Bytes: []byte("hi")})
	m.AddExport("sum", wasm.ExportFunc, m.FuncIndex(0))
	m.AddExport("heap", wasm.ExportGlobal, heap)
	m.AddExport("memory", wasm.ExportMemory, 0)
	m.Customs = append(m.Customs, wasm.Custom{Name: "waspy.test", Payload: []byte{1, 2, 3}})

	bin, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)
	inst, err := r.Instantiate(ctx, bin)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	res, err := inst.ExportedFunction("sum").Call(ctx, api.EncodeI64(10))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if got := int64(res[0]); got != 55 {
		t.Fatalf("sum(10) = %d, want 55", got)
	}
	if b, ok := inst.Memory().Read(16, 2); !ok || string(b) != "hi" {
		t.Fatalf("data segment = %q", b)
	}
	if g := inst.ExportedGlobal("heap"); g == nil || api.DecodeI32(g.Get()) != 1024 {
		t.Fatalf("heap global not exported as 1024")
	}
}

func TestAddTypeDeduplicates(t *testing.T) {
	m := &wasm.Module{}
	a := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.I32}})
	b := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.I32}})
	c := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.I64}})
	if a != b || a == c || len(m.Types) != 2 {
		t.Fatalf("types = %v (a=%d b=%d c=%d)", m.Types, a, b, c)
	}
}

func TestValidateRejectsStructuralDefects(t *testing.T) {
	sig := wasm.FuncType{}
	tests := []struct {
		name string
		body func(c *wasm.Code)
		want string
	}{
		{"branch too deep", func(c *wasm.Code) { c.Block(wasm.BlockEmpty).Br(3).End() }, "branch depth"},
		{"unclosed block", func(c *wasm.Code) { c.Block(wasm.BlockEmpty) }, "unclosed"},
		{"bad local", func(c *wasm.Code) { c.LocalGet(4).Drop() }, "local index"},
		{"bad call", func(c *wasm.Code) { c.Call(9) }, "call to function"},
		{"bad global", func(c *wasm.Code) { c.GlobalGet(0).Drop() }, "global index"},
	}
	for _, tt := range tests {
		m := &wasm.Module{}
		c := wasm.NewCode()
		tt.body(c)
		m.Funcs = append(m.Funcs, wasm.Func{Name: "f", Type: m.AddType(sig), Body: c})
		_, err := m.Encode()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: error = %v, want %q", tt.name, err, tt.want)
		}
	}
}

func TestValidateDataAgainstMemory(t *testing.T) {
	m := &wasm.Module{Memory: &wasm.Memory{Min: 1, Max: 1, HasMax: true}}
	m.Data = append(m.Data, wasm.DataSegment{Offset: wasm.PageSize - 1, Bytes: []byte("ab")})
	if err := m.Validate(); err == nil {
		t.Fatal("expected data overflow error")
	}
}
