package rt_test

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"waspy/internal/layout"
	"waspy/internal/rt"
	"waspy/internal/sema"
	"waspy/internal/wasm"
)

// testData lays out literals after a small class table:
// 1 BaseException, 2 Exception, 3..15 builtin errors under 2.
type testData struct {
	buf     []byte
	strs    map[string]uint32
	parents uint32
	count   uint32
}

func newTestData() *testData {
	d := &testData{strs: make(map[string]uint32), count: 16}
	d.parents = d.reserve(4 * d.count)
	for id := uint32(2); id < d.count; id++ {
		parent := uint32(2)
		if id == 2 {
			parent = 1
		}
		binary.LittleEndian.PutUint32(d.buf[d.parents-rt.DataBase+4*id:], parent)
	}
	return d
}

func (d *testData) reserve(n uint32) uint32 {
	for len(d.buf)%8 != 0 {
		d.buf = append(d.buf, 0)
	}
	at := rt.DataBase + uint32(len(d.buf))
	d.buf = append(d.buf, make([]byte, n)...)
	return at
}

func (d *testData) Str(s string) uint32 {
	if at, ok := d.strs[s]; ok {
		return at
	}
	at := d.reserve(8 + uint32(len(s)))
	off := at - rt.DataBase
	binary.LittleEndian.PutUint32(d.buf[off:], uint32(layout.TagStr))
	binary.LittleEndian.PutUint32(d.buf[off+4:], uint32(len(s)))
	copy(d.buf[off+8:], s)
	d.strs[s] = at
	return at
}

func (d *testData) ClassTable() (parents, names, count uint32) {
	return d.parents, d.parents, d.count
}

type runtime struct {
	t   *testing.T
	ctx context.Context
	mod api.Module
}

// link builds a module exporting every runtime function under its name.
func link(t *testing.T) *runtime {
	t.Helper()
	m := &wasm.Module{Name: "rt", Memory: &wasm.Memory{Min: 1, Max: 16, HasMax: true}}
	heap := m.AddGlobal(wasm.Global{Name: "heap", Type: wasm.I32, Mutable: true, Init: wasm.ConstExpr{Type: wasm.I32}})
	exc := m.AddGlobal(wasm.Global{Name: "exc", Type: wasm.I32, Mutable: true, Init: wasm.ConstExpr{Type: wasm.I32}})
	d := newTestData()
	l := rt.NewLinker(m, d, heap, exc)
	for _, f := range rt.Funcs() {
		m.AddExport(f.String(), wasm.ExportFunc, l.Func(f))
	}
	l.Flush()
	m.Globals[heap].Init.Int = int64((rt.DataBase + len(d.buf) + 7) &^ 7)
	m.Data = append(m.Data, wasm.DataSegment{Offset: rt.DataBase, Bytes: d.buf})
	m.AddExport("memory", wasm.ExportMemory, 0)

	bin, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })
	mod, err := r.Instantiate(ctx, bin)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	return &runtime{t: t, ctx: ctx, mod: mod}
}

func (r *runtime) call(name string, args ...uint64) uint64 {
	r.t.Helper()
	res, err := r.mod.ExportedFunction(name).Call(r.ctx, args...)
	if err != nil {
		r.t.Fatalf("%s: %v", name, err)
	}
	if len(res) == 0 {
		return 0
	}
	return res[0]
}

func (r *runtime) u32(addr uint32) uint32 {
	v, ok := r.mod.Memory().ReadUint32Le(addr)
	if !ok {
		r.t.Fatalf("read %#x out of range", addr)
	}
	return v
}

func (r *runtime) str(s string) uint64 {
	p := uint32(r.call("str_new", uint64(len(s)), uint64(layout.TagStr)))
	r.mod.Memory().Write(p+layout.OffStrData, []byte(s))
	return uint64(p)
}

func (r *runtime) text(p uint64) string {
	addr := uint32(p)
	n := r.u32(addr + layout.OffStrLen)
	b, _ := r.mod.Memory().Read(addr+layout.OffStrData, n)
	return string(b)
}

// takeExc returns the class id of the pending exception and clears it.
func (r *runtime) takeExc() uint32 {
	exc := uint32(r.call("exception"))
	if exc == 0 {
		return 0
	}
	r.call("clear_exception")
	return r.u32(exc + layout.OffRecordClass)
}

func (r *runtime) intList(vs ...int64) uint64 {
	l := r.call("seq_new", uint64(layout.TagList), uint64(layout.TagInt), 0)
	for _, v := range vs {
		r.call("list_push", l, api.EncodeI64(v))
	}
	return l
}

func (r *runtime) ints(l uint64) []int64 {
	addr := uint32(l)
	n := r.u32(addr + layout.OffSeqLen)
	data := r.u32(addr + layout.OffSeqData)
	out := make([]int64, 0, n)
	for i := range n {
		v, _ := r.mod.Memory().ReadUint64Le(data + 8*i)
		out = append(out, int64(v))
	}
	return out
}

func equalInts(a, b []int64) bool {
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

func TestAllocAlignsAndZeroes(t *testing.T) {
	r := link(t)
	a := uint32(r.call("alloc", 3))
	b := uint32(r.call("alloc", 100000))
	if a%8 != 0 || b != a+8 {
		t.Fatalf("alloc addresses %#x %#x", a, b)
	}
	if r.mod.Memory().Size() < b+100000 {
		t.Fatalf("memory did not grow: %d", r.mod.Memory().Size())
	}
	mark := r.call("arena_mark")
	r.call("alloc", 64)
	r.call("arena_release", mark)
	if got := r.call("arena_mark"); got != mark {
		t.Fatalf("arena release: heap %#x, want %#x", got, mark)
	}
}

func TestIntegerDivision(t *testing.T) {
	r := link(t)
	tests := []struct{ a, b, div, mod int64 }{
		{7, 2, 3, 1},
		{-7, 2, -4, 1},
		{7, -2, -4, -1},
		{-7, -2, 3, -1},
		{math.MinInt64, -1, math.MinInt64, 0},
	}
	for _, tt := range tests {
		div := int64(r.call("int_floordiv", api.EncodeI64(tt.a), api.EncodeI64(tt.b)))
		mod := int64(r.call("int_mod", api.EncodeI64(tt.a), api.EncodeI64(tt.b)))
		if div != tt.div || mod != tt.mod {
			t.Errorf("%d //,%% %d = %d, %d; want %d, %d", tt.a, tt.b, div, mod, tt.div, tt.mod)
		}
	}
	r.call("int_mod", 5, 0)
	if got := r.takeExc(); got != sema.ClassZeroDivisionError {
		t.Fatalf("5 %% 0 raised class %d", got)
	}
	r.call("float_div", api.EncodeF64(1), api.EncodeF64(0))
	if got := r.takeExc(); got != sema.ClassZeroDivisionError {
		t.Fatalf("1.0 / 0.0 raised class %d", got)
	}
	if got := int64(r.call("int_pow", 3, 4)); got != 81 {
		t.Fatalf("3 ** 4 = %d", got)
	}
	if got := api.DecodeF64(r.call("float_mod", api.EncodeF64(-7), api.EncodeF64(2))); got != 1 {
		t.Fatalf("-7.0 %% 2.0 = %v", got)
	}
}

func TestFloatToInt(t *testing.T) {
	r := link(t)
	if got := int64(r.call("float_to_int", api.EncodeF64(-3.9))); got != -3 {
		t.Fatalf("int(-3.9) = %d", got)
	}
	r.call("float_to_int", api.EncodeF64(math.NaN()))
	if got := r.takeExc(); got != sema.ClassValueError {
		t.Fatalf("int(nan) raised %d", got)
	}
	r.call("float_to_int", api.EncodeF64(math.Inf(-1)))
	if got := r.takeExc(); got != sema.ClassOverflowError {
		t.Fatalf("int(-inf) raised %d", got)
	}
}

func TestIntStrRoundTrip(t *testing.T) {
	r := link(t)
	for _, v := range []int64{0, 7, 42, -123, math.MaxInt64, math.MinInt64} {
		s := r.call("int_to_str", api.EncodeI64(v))
		back := int64(r.call("str_to_int", s, 10))
		if exc := r.takeExc(); exc != 0 || back != v {
			t.Errorf("%d -> %q -> %d (exc %d)", v, r.text(s), back, exc)
		}
	}
	tests := []struct {
		in   string
		base int64
		want int64
	}{
		{"  -0x1F ", 0, -31},
		{"1_000", 10, 1000},
		{"ff", 16, 255},
		{"0b101", 2, 5},
		{"+17", 8, 15},
	}
	for _, tt := range tests {
		got := int64(r.call("str_to_int", r.str(tt.in), uint64(tt.base)))
		if exc := r.takeExc(); exc != 0 || got != tt.want {
			t.Errorf("int(%q, %d) = %d (exc %d), want %d", tt.in, tt.base, got, exc, tt.want)
		}
	}
	for _, bad := range []string{"", "12a", "_1", "0x"} {
		r.call("str_to_int", r.str(bad), 10)
		if got := r.takeExc(); got != sema.ClassValueError {
			t.Errorf("int(%q) raised %d, want ValueError", bad, got)
		}
	}
}

func TestStrCodePoints(t *testing.T) {
	r := link(t)
	s := r.str("héllo")
	if got := r.call("str_len", s); got != 5 {
		t.Fatalf("len = %d", got)
	}
	if got := r.text(r.call("str_char", s, api.EncodeI64(-4))); got != "é" {
		t.Fatalf("s[-4] = %q", got)
	}
	if got := r.text(r.call("str_slice", s, 1, 3, 0, 3)); got != "él" {
		t.Fatalf("s[1:3] = %q", got)
	}
	if got := r.text(r.call("str_slice", r.str("abcdef"), 0, 0, api.EncodeI64(-2), 4)); got != "fdb" {
		t.Fatalf("s[::-2] = %q", got)
	}
	r.call("str_char", s, 5)
	if got := r.takeExc(); got != sema.ClassIndexError {
		t.Fatalf("s[5] raised %d", got)
	}
	chars := r.call("str_chars", s)
	if got := r.text(r.call("str_join", chars)); got != "héllo" {
		t.Fatalf("join(chars) = %q", got)
	}
	if got := r.text(r.call("chr", 233)); got != "é" {
		t.Fatalf("chr(233) = %q", got)
	}
	if got := r.call("ord", r.str("€")); got != 0x20ac {
		t.Fatalf("ord(€) = %#x", got)
	}
}

func TestStrCompare(t *testing.T) {
	r := link(t)
	tests := []struct {
		a, b string
		cmp  int32
	}{
		{"abc", "abd", -1},
		{"abc", "abc", 0},
		{"abcd", "abc", 1},
		{"", "a", -1},
	}
	for _, tt := range tests {
		got := api.DecodeI32(r.call("str_cmp", r.str(tt.a), r.str(tt.b)))
		if got != tt.cmp {
			t.Errorf("cmp(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.cmp)
		}
		eq := r.call("str_eq", r.str(tt.a), r.str(tt.b)) == 1
		if eq != (tt.cmp == 0) {
			t.Errorf("eq(%q, %q) = %v", tt.a, tt.b, eq)
		}
	}
	if r.call("str_contains", r.str("hello world"), r.str("o w")) != 1 {
		t.Fatal("'o w' not found")
	}
	if r.call("str_contains", r.str("hello"), r.str("hello!")) != 0 {
		t.Fatal("longer needle found")
	}
	if got := r.text(r.call("str_concat", r.str("ab"), r.str("cd"))); got != "abcd" {
		t.Fatalf("concat = %q", got)
	}
	if got := r.text(r.call("str_repeat", r.str("ab"), 3)); got != "ababab" {
		t.Fatalf("repeat = %q", got)
	}
}

func TestListOperations(t *testing.T) {
	r := link(t)
	l := r.intList(1, 2, 3, 4, 5, 6, 7, 8, 9)
	if got := int64(r.call("list_pop", l, 0)); got != 1 {
		t.Fatalf("pop(0) = %d", got)
	}
	r.call("list_insert", l, api.EncodeI64(-1), 42)
	want := []int64{2, 3, 4, 5, 6, 7, 8, 42, 9}
	if got := r.ints(l); !equalInts(got, want) {
		t.Fatalf("after insert = %v, want %v", got, want)
	}
	if got := r.ints(r.call("seq_slice", l, 1, 0, 2, 5)); !equalInts(got, []int64{3, 5, 7, 42}) {
		t.Fatalf("l[1::2] = %v", got)
	}
	r.call("list_reverse", l)
	if got := r.ints(l); got[0] != 9 || got[len(got)-1] != 2 {
		t.Fatalf("reversed = %v", got)
	}
	if got := int64(r.call("list_index", l, 42)); got != 1 {
		t.Fatalf("index(42) = %d", got)
	}
	r.call("list_index", l, 100)
	if got := r.takeExc(); got != sema.ClassValueError {
		t.Fatalf("index(100) raised %d", got)
	}
	r.call("seq_slot", l, 9)
	if got := r.takeExc(); got != sema.ClassIndexError {
		t.Fatalf("l[9] raised %d", got)
	}
	both := r.call("seq_concat", r.intList(1), r.intList(2, 3))
	if r.call("seq_eq", both, r.intList(1, 2, 3)) != 1 {
		t.Fatalf("[1] + [2, 3] = %v", r.ints(both))
	}
	if got := int64(r.call("seq_minmax", both, 1)); got != 3 {
		t.Fatalf("max = %d", got)
	}
	if got := int64(r.call("seq_sum", r.call("seq_repeat", both, 2))); got != 12 {
		t.Fatalf("sum(l * 2) = %d", got)
	}
	r.call("list_pop", r.intList(), api.EncodeI64(-1))
	if got := r.takeExc(); got != sema.ClassIndexError {
		t.Fatalf("pop from empty raised %d", got)
	}
}

func TestSetOperations(t *testing.T) {
	r := link(t)
	s := r.call("seq_from", r.intList(1, 2, 2, 3), uint64(layout.TagSet))
	if got := r.ints(s); !equalInts(got, []int64{1, 2, 3}) {
		t.Fatalf("set([1, 2, 2, 3]) = %v", got)
	}
	other := r.call("seq_from", r.intList(3, 2, 1), uint64(layout.TagSet))
	if r.call("seq_eq", s, other) != 1 {
		t.Fatal("{1, 2, 3} != {3, 2, 1}")
	}
	u := r.call("set_union", s, r.call("seq_from", r.intList(4), uint64(layout.TagSet)))
	if got := r.ints(u); !equalInts(got, []int64{1, 2, 3, 4}) {
		t.Fatalf("union = %v", got)
	}
	if got := r.ints(r.call("set_symdiff", s, r.call("seq_from", r.intList(3, 5), uint64(layout.TagSet)))); !equalInts(got, []int64{1, 2, 5}) {
		t.Fatalf("symdiff = %v", got)
	}
	r.call("set_remove", s, 9)
	if got := r.takeExc(); got != sema.ClassKeyError {
		t.Fatalf("remove(9) raised %d", got)
	}
}

func TestIsInstanceWalksParents(t *testing.T) {
	r := link(t)
	r.call("raise", uint64(sema.ClassValueError), 0)
	exc := r.call("exception")
	r.call("clear_exception")
	for _, tt := range []struct {
		class uint32
		want  uint64
	}{
		{sema.ClassValueError, 1},
		{2, 1},
		{1, 1},
		{sema.ClassKeyError, 0},
	} {
		if got := r.call("isinstance", exc, uint64(tt.class)); got != tt.want {
			t.Errorf("isinstance(ValueError(), %d) = %d", tt.class, got)
		}
	}
	if r.call("isinstance", 0, 1) != 0 {
		t.Fatal("None is an instance")
	}
}

func TestBoxAndRaiseAllocate(t *testing.T) {
	r := link(t)
	p := uint32(r.call("box", uint64(layout.TagInt), api.EncodeI64(-42)))
	if p == 0 || p%8 != 0 {
		t.Fatalf("box address %#x", p)
	}
	if got := r.u32(p + layout.OffTag); got != uint32(layout.TagInt) {
		t.Errorf("box tag = %d", got)
	}
	if v, _ := r.mod.Memory().ReadUint64Le(p + layout.OffBoxPayload); int64(v) != -42 {
		t.Errorf("box payload = %d", int64(v))
	}

	msg := uint32(r.str("bad value"))
	r.call("raise", uint64(sema.ClassValueError), uint64(msg))
	exc := uint32(r.call("exception"))
	if exc == 0 || exc == p {
		t.Fatalf("exception record at %#x (box at %#x)", exc, p)
	}
	if got, _ := r.mod.Memory().ReadUint64Le(exc + layout.OffExcMessage); uint32(got) != msg {
		t.Errorf("message = %#x, want %#x", got, msg)
	}
	if got := r.takeExc(); got != sema.ClassValueError {
		t.Errorf("class = %d", got)
	}
}
