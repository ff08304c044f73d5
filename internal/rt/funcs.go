// Package rt builds the runtime object model linked into every compiled
// module: the bump allocator, string, list and set primitives, checked
// arithmetic and the exception state.
package rt

import (
	"waspy/internal/sema"
	"waspy/internal/wasm"
)

// Func identifies a runtime function.
type Func uint8

const (
	Alloc Func = iota
	ArenaMark
	ArenaRelease
	MemCopy
	Box

	Raise
	IsInstance
	ClassName
	Exception
	ClearException

	StrNew
	StrConcat
	StrRepeat
	StrEq
	StrCmp
	StrLen
	StrOffset
	StrChar
	StrSlice
	StrChars
	StrJoin
	StrContains
	BytesAt
	BytesHas
	BytesList
	BoolToStr
	IntToStr
	StrToInt
	Chr
	Ord

	SeqNew
	ListPush
	SeqSlot
	SliceIndices
	SeqSlice
	SeqConcat
	SeqRepeat
	ListPop
	ListInsert
	ListExtend
	SeqFind
	ListIndex
	ListCount
	ListReverse
	SeqClear
	SeqCopy
	SeqEq
	SlotEq
	SetAdd
	SetDiscard
	SetRemove
	SetUnion
	SetInter
	SetDiff
	SetSymDiff
	SeqFrom
	SeqMinMax
	SeqSum

	IntFloorDiv
	IntMod
	IntPow
	FloatDiv
	FloatFloorDiv
	FloatMod
	FloatToInt

	numFuncs
)

// Spec is the signature and behavior summary of a runtime function.
type Spec struct {
	Name    string
	Params  []wasm.ValType
	Results []wasm.ValType
	// MayRaise functions can leave a pending exception.
	MayRaise bool
	// Publishes functions can make memory allocated after an arena mark
	// reachable from objects allocated before it.
	Publishes bool
	// Export is the name under which the host reaches the function.
	Export string
}

const (
	i32 = wasm.I32
	i64 = wasm.I64
	f64 = wasm.F64
)

func sig(params ...wasm.ValType) []wasm.ValType { return params }

var specs = [numFuncs]Spec{
	Alloc:          {Name: "alloc", Params: sig(i32), Results: sig(i32), Export: "__waspy_alloc"},
	ArenaMark:      {Name: "arena_mark", Results: sig(i32)},
	ArenaRelease:   {Name: "arena_release", Params: sig(i32)},
	MemCopy:        {Name: "mem_copy", Params: sig(i32, i32, i32)},
	Box:            {Name: "box", Params: sig(i32, i64), Results: sig(i32)},
	Raise:          {Name: "raise", Params: sig(i32, i32), MayRaise: true, Export: "__waspy_raise"},
	IsInstance:     {Name: "isinstance", Params: sig(i32, i32), Results: sig(i32)},
	ClassName:      {Name: "class_name", Params: sig(i32), Results: sig(i32), Export: "__waspy_class_name"},
	Exception:      {Name: "exception", Results: sig(i32), Export: "__waspy_exception"},
	ClearException: {Name: "clear_exception", Export: "__waspy_clear_exception"},

	StrNew:      {Name: "str_new", Params: sig(i32, i32), Results: sig(i32)},
	StrConcat:   {Name: "str_concat", Params: sig(i32, i32), Results: sig(i32)},
	StrRepeat:   {Name: "str_repeat", Params: sig(i32, i64), Results: sig(i32)},
	StrEq:       {Name: "str_eq", Params: sig(i32, i32), Results: sig(i32)},
	StrCmp:      {Name: "str_cmp", Params: sig(i32, i32), Results: sig(i32)},
	StrLen:      {Name: "str_len", Params: sig(i32), Results: sig(i64)},
	StrOffset:   {Name: "str_offset", Params: sig(i32, i32), Results: sig(i32)},
	StrChar:     {Name: "str_char", Params: sig(i32, i64), Results: sig(i32), MayRaise: true},
	StrSlice:    {Name: "str_slice", Params: sig(i32, i64, i64, i64, i32), Results: sig(i32), MayRaise: true},
	StrChars:    {Name: "str_chars", Params: sig(i32), Results: sig(i32)},
	StrJoin:     {Name: "str_join", Params: sig(i32), Results: sig(i32)},
	StrContains: {Name: "str_contains", Params: sig(i32, i32), Results: sig(i32)},
	BytesAt:     {Name: "bytes_at", Params: sig(i32, i64), Results: sig(i64), MayRaise: true},
	BytesHas:    {Name: "bytes_has", Params: sig(i32, i64), Results: sig(i32)},
	BytesList:   {Name: "bytes_list", Params: sig(i32), Results: sig(i32)},
	BoolToStr:   {Name: "bool_to_str", Params: sig(i32), Results: sig(i32)},
	IntToStr:    {Name: "int_to_str", Params: sig(i64), Results: sig(i32)},
	StrToInt:    {Name: "str_to_int", Params: sig(i32, i64), Results: sig(i64), MayRaise: true},
	Chr:         {Name: "chr", Params: sig(i64), Results: sig(i32), MayRaise: true},
	Ord:         {Name: "ord", Params: sig(i32), Results: sig(i64), MayRaise: true},

	SeqNew:       {Name: "seq_new", Params: sig(i32, i32, i32), Results: sig(i32)},
	ListPush:     {Name: "list_push", Params: sig(i32, i64), Publishes: true},
	SeqSlot:      {Name: "seq_slot", Params: sig(i32, i64), Results: sig(i32), MayRaise: true},
	SliceIndices: {Name: "slice_indices", Params: sig(i64, i64, i64, i64, i32), Results: sig(i64), MayRaise: true},
	SeqSlice:     {Name: "seq_slice", Params: sig(i32, i64, i64, i64, i32), Results: sig(i32), MayRaise: true},
	SeqConcat:    {Name: "seq_concat", Params: sig(i32, i32), Results: sig(i32)},
	SeqRepeat:    {Name: "seq_repeat", Params: sig(i32, i64), Results: sig(i32)},
	ListPop:      {Name: "list_pop", Params: sig(i32, i64), Results: sig(i64), MayRaise: true},
	ListInsert:   {Name: "list_insert", Params: sig(i32, i64, i64), Publishes: true},
	ListExtend:   {Name: "list_extend", Params: sig(i32, i32), Publishes: true},
	SeqFind:      {Name: "seq_find", Params: sig(i32, i64), Results: sig(i64)},
	ListIndex:    {Name: "list_index", Params: sig(i32, i64), Results: sig(i64), MayRaise: true},
	ListCount:    {Name: "list_count", Params: sig(i32, i64), Results: sig(i64)},
	ListReverse:  {Name: "list_reverse", Params: sig(i32)},
	SeqClear:     {Name: "seq_clear", Params: sig(i32)},
	SeqCopy:      {Name: "seq_copy", Params: sig(i32), Results: sig(i32)},
	SeqEq:        {Name: "seq_eq", Params: sig(i32, i32), Results: sig(i32)},
	SlotEq:       {Name: "slot_eq", Params: sig(i32, i64, i64), Results: sig(i32)},
	SetAdd:       {Name: "set_add", Params: sig(i32, i64), Publishes: true},
	SetDiscard:   {Name: "set_discard", Params: sig(i32, i64), Results: sig(i32)},
	SetRemove:    {Name: "set_remove", Params: sig(i32, i64), MayRaise: true},
	SetUnion:     {Name: "set_union", Params: sig(i32, i32), Results: sig(i32)},
	SetInter:     {Name: "set_inter", Params: sig(i32, i32), Results: sig(i32)},
	SetDiff:      {Name: "set_diff", Params: sig(i32, i32), Results: sig(i32)},
	SetSymDiff:   {Name: "set_symdiff", Params: sig(i32, i32), Results: sig(i32)},
	SeqFrom:      {Name: "seq_from", Params: sig(i32, i32), Results: sig(i32)},
	SeqMinMax:    {Name: "seq_minmax", Params: sig(i32, i32), Results: sig(i64), MayRaise: true},
	SeqSum:       {Name: "seq_sum", Params: sig(i32), Results: sig(i64)},

	IntFloorDiv:   {Name: "int_floordiv", Params: sig(i64, i64), Results: sig(i64), MayRaise: true},
	IntMod:        {Name: "int_mod", Params: sig(i64, i64), Results: sig(i64), MayRaise: true},
	IntPow:        {Name: "int_pow", Params: sig(i64, i64), Results: sig(i64), MayRaise: true},
	FloatDiv:      {Name: "float_div", Params: sig(f64, f64), Results: sig(f64), MayRaise: true},
	FloatFloorDiv: {Name: "float_floordiv", Params: sig(f64, f64), Results: sig(f64), MayRaise: true},
	FloatMod:      {Name: "float_mod", Params: sig(f64, f64), Results: sig(f64), MayRaise: true},
	FloatToInt:    {Name: "float_to_int", Params: sig(f64), Results: sig(i64), MayRaise: true},
}

// Spec returns the signature of f.
func (f Func) Spec() Spec { return specs[f] }

func (f Func) String() string { return specs[f].Name }

// Type is the wasm signature of f.
func (f Func) Type() wasm.FuncType {
	s := specs[f]
	return wasm.FuncType{Params: s.Params, Results: s.Results}
}

// Exported lists the runtime functions every module exports to its host.
func Exported() []Func {
	var out []Func
	for f := range numFuncs {
		if specs[f].Export != "" {
			out = append(out, f)
		}
	}
	return out
}

// Global identifies a runtime-owned wasm global.
type Global uint8

const (
	// GlobalHeap is the next free heap address.
	GlobalHeap Global = iota
	// GlobalExc is the pending exception, 0 when none.
	GlobalExc
)

// Env resolves indices and addresses while runtime bodies are generated.
type Env interface {
	Func(Func) uint32
	Global(Global) uint32
	// Str returns the address of an immortal str literal.
	Str(s string) uint32
	// ClassTable returns the addresses of the parent and name tables and
	// the number of class ids they cover.
	ClassTable() (parents, names, count uint32)
}

// Fixed memory map below the data segments.
const (
	// ScratchAddr holds the digits of int_to_str and the results of slice_indices.
	ScratchAddr = 8
	ScratchSize = 40
	// DataBase is the first address available to literals and tables.
	DataBase = ScratchAddr + ScratchSize
)

// Builtin exception classes raised by the runtime.
const (
	classZeroDivision = sema.ClassZeroDivisionError
	classOverflow     = sema.ClassOverflowError
	classValue        = sema.ClassValueError
	classType         = sema.ClassTypeError
	classIndex        = sema.ClassIndexError
	classKey          = sema.ClassKeyError
)

// Build generates the body of f. It returns the declared locals that
// follow the parameters.
func Build(f Func, env Env) (*wasm.Code, []wasm.ValType) {
	b := &body{Code: wasm.NewCode(), env: env, nparams: len(specs[f].Params)}
	builders[f](b)
	return b.Code, b.locals
}

type body struct {
	*wasm.Code
	env     Env
	nparams int
	locals  []wasm.ValType
}

func (b *body) local(t wasm.ValType) uint32 {
	b.locals = append(b.locals, t)
	return uint32(b.nparams + len(b.locals) - 1) //nolint:gosec // small
}

func (b *body) call(f Func) *body {
	b.Call(b.fn(f))
	return b
}

// fn is the function index of f, for calls chained on *wasm.Code.
func (b *body) fn(f Func) uint32 { return b.env.Func(f) }

func (b *body) global(g Global) uint32 { return b.env.Global(g) }

// raise sets the pending exception; the caller still returns.
func (b *body) raise(class uint32, msg string) *body {
	b.U32Const(class).U32Const(b.env.Str(msg))
	return b.call(Raise)
}

// while emits block/loop around body; cond leaves an i32 and the loop runs
// while it is non-zero. Inside body, br 1 leaves the loop and br 0 repeats it.
func (b *body) while(cond func(), loopBody func()) {
	b.Block(wasm.BlockEmpty).Loop(wasm.BlockEmpty)
	cond()
	b.Op(wasm.OpI32Eqz).BrIf(1)
	loopBody()
	b.Br(0)
	b.End().End()
}

// then emits if/end around fn.
func (b *body) then(fn func()) {
	b.If(wasm.BlockEmpty)
	fn()
	b.End()
}

// incr adds delta to an i32 local.
func (b *body) incr(l uint32, delta int32) {
	b.LocalGet(l).I32Const(delta).Op(wasm.OpI32Add).LocalSet(l)
}

// incr64 adds delta to an i64 local.
func (b *body) incr64(l uint32, delta int64) {
	b.LocalGet(l).I64Const(delta).Op(wasm.OpI64Add).LocalSet(l)
}

var builders [numFuncs]func(*body)

func init() {
	for f, fn := range map[Func]func(*body){
		Alloc: buildAlloc, ArenaMark: buildArenaMark, ArenaRelease: buildArenaRelease,
		MemCopy: buildMemCopy, Box: buildBox,
		Raise: buildRaise, IsInstance: buildIsInstance, ClassName: buildClassName,
		Exception: buildException, ClearException: buildClearException,

		StrNew: buildStrNew, StrConcat: buildStrConcat, StrRepeat: buildStrRepeat,
		StrEq: buildStrEq, StrCmp: buildStrCmp, StrLen: buildStrLen, StrOffset: buildStrOffset,
		StrChar: buildStrChar, StrSlice: buildStrSlice, StrChars: buildStrChars,
		StrJoin: buildStrJoin, StrContains: buildStrContains,
		BytesAt: buildBytesAt, BytesHas: buildBytesHas, BytesList: buildBytesList,
		BoolToStr: buildBoolToStr, IntToStr: buildIntToStr, StrToInt: buildStrToInt,
		Chr: buildChr, Ord: buildOrd,

		SeqNew: buildSeqNew, ListPush: buildListPush, SeqSlot: buildSeqSlot,
		SliceIndices: buildSliceIndices, SeqSlice: buildSeqSlice, SeqConcat: buildSeqConcat,
		SeqRepeat: buildSeqRepeat, ListPop: buildListPop, ListInsert: buildListInsert,
		ListExtend: buildListExtend, SeqFind: buildSeqFind, ListIndex: buildListIndex,
		ListCount: buildListCount, ListReverse: buildListReverse, SeqClear: buildSeqClear,
		SeqCopy: buildSeqCopy, SeqEq: buildSeqEq, SlotEq: buildSlotEq,
		SetAdd: buildSetAdd, SetDiscard: buildSetDiscard, SetRemove: buildSetRemove,
		SetUnion: buildSetUnion, SetInter: buildSetInter, SetDiff: buildSetDiff,
		SetSymDiff: buildSetSymDiff, SeqFrom: buildSeqFrom, SeqMinMax: buildSeqMinMax,
		SeqSum: buildSeqSum,

		IntFloorDiv: buildIntFloorDiv, IntMod: buildIntMod, IntPow: buildIntPow,
		FloatDiv: buildFloatDiv, FloatFloorDiv: buildFloatFloorDiv, FloatMod: buildFloatMod,
		FloatToInt: buildFloatToInt,
	} {
		builders[f] = fn
	}
}
