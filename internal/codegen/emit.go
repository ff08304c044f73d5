// Package codegen translates validated IR into a WebAssembly 1.0 module.
package codegen

import (
	"fortio.org/safecast"

	"waspy/internal/diag"
	"waspy/internal/ir"
	"waspy/internal/rt"
	"waspy/internal/source"
	"waspy/internal/types"
	"waspy/internal/wasm"
)

// Engine limits shared by the major wasm runtimes.
const (
	maxBodySize = 7_654_321
	maxFuncs    = 1_000_000
)

// Options mirror the [build] table of waspy.toml.
type Options struct {
	MemoryPages    uint32
	MaxMemoryPages uint32
	MaxLocals      int
	DebugNames     bool
	Metadata       bool
	// Start registers the module initializer as the start function;
	// otherwise it is exported as "_initialize".
	Start bool
}

// DefaultOptions match config.Default.
func DefaultOptions() Options {
	return Options{MemoryPages: 2, MaxMemoryPages: 256, MaxLocals: 50000, DebugNames: true, Metadata: true, Start: true}
}

// Output is the result of a successful generation.
type Output struct {
	Wasm     []byte
	Module   *wasm.Module
	Metadata *Metadata
	// HeapBase is the first heap address after the static data.
	HeapBase uint32
}

// Emitter holds the module-wide state of one generation.
type Emitter struct {
	ir    *ir.Module
	in    *types.Interner
	opts  Options
	out   *wasm.Module
	data  *dataBuilder
	link  *rt.Linker
	heap  uint32
	exc   uint32
	funcs []uint32 // IR FuncID -> wasm function index
	// imports of host services and shims
	hosts   map[rt.Host]uint32
	shims   []uint32
	globals []uint32 // IR GlobalID -> wasm global index
}

// Generate emits m. It fails with *Error when the program exceeds a
// target limit and with an internal error when m is malformed.
func Generate(m *ir.Module, opts Options) (*Output, error) {
	if err := ir.Validate(m); err != nil {
		return nil, internalf("invalid IR: %v", err)
	}
	e := &Emitter{
		ir:    m,
		in:    m.Types,
		opts:  opts,
		out:   &wasm.Module{Name: m.Name, DebugNames: opts.DebugNames},
		data:  newDataBuilder(m.Records),
		hosts: make(map[rt.Host]uint32),
	}
	if len(m.Funcs) > maxFuncs {
		return nil, limitf(diag.GenTooManyFuncs, "", source.Span{}, "module defines %d functions, limit is %d", len(m.Funcs), maxFuncs)
	}
	e.declareImports()
	e.declareGlobals()
	if err := e.declareFuncs(); err != nil {
		return nil, err
	}
	e.link = rt.NewLinker(e.out, e.data, e.heap, e.exc)

	for i, f := range m.Funcs {
		fe := newFuncEmitter(e, f)
		fn, err := fe.emit()
		if err != nil {
			return nil, err
		}
		fn.Name = e.out.Funcs[i].Name
		fn.Type = e.out.Funcs[i].Type
		e.out.Funcs[i] = fn
	}
	e.declareExports()
	e.link.Flush()
	if e.data.err != nil {
		return nil, limitf(diag.GenMemoryLimit, "", source.Span{}, "static data: %v", e.data.err)
	}

	for i := range e.out.Funcs {
		fn := &e.out.Funcs[i]
		if fn.Body.Len() > maxBodySize {
			return nil, limitf(diag.GenBodyTooLarge, fn.Name, source.Span{}, "body is %d bytes, limit is %d", fn.Body.Len(), maxBodySize)
		}
		if err := fn.Body.Err(); err != nil {
			return nil, internalf("%s: %v", fn.Name, err)
		}
	}

	if err := e.layoutMemory(); err != nil {
		return nil, err
	}
	out := &Output{Module: e.out, HeapBase: e.data.end()}
	if opts.Metadata {
		meta := buildMetadata(m, e.data.end(), opts.Start)
		payload, err := meta.Marshal()
		if err != nil {
			return nil, internalf("metadata: %v", err)
		}
		e.out.Customs = append(e.out.Customs, wasm.Custom{Name: MetadataSection, Payload: payload})
		out.Metadata = meta
	}

	bin, err := e.out.Encode()
	if err != nil {
		return nil, internalf("%v", err)
	}
	out.Wasm = bin
	return out, nil
}

// valType maps a source type to its wasm representation.
func valType(in *types.Interner, t types.TypeID) wasm.ValType {
	switch in.KindOf(t) {
	case types.KindInt:
		return wasm.I64
	case types.KindFloat:
		return wasm.F64
	}
	return wasm.I32
}

func (e *Emitter) valType(t types.TypeID) wasm.ValType { return valType(e.in, t) }

// resultTypes is empty for functions returning None.
func (e *Emitter) resultTypes(t types.TypeID) []wasm.ValType {
	if t == types.NoTypeID || e.in.KindOf(t) == types.KindNone {
		return nil
	}
	return []wasm.ValType{e.valType(t)}
}

func (e *Emitter) funcType(params []types.TypeID, result types.TypeID) wasm.FuncType {
	ft := wasm.FuncType{Results: e.resultTypes(result)}
	for _, p := range params {
		ft.Params = append(ft.Params, e.valType(p))
	}
	return ft
}

// declareImports adds the host services the program uses, then the shim
// functions, before any defined function.
func (e *Emitter) declareImports() {
	used := make(map[rt.Host]bool)
	for _, f := range e.ir.Funcs {
		for bi := range f.Blocks {
			for _, ins := range f.Blocks[bi].Instrs {
				if ins.Kind == ir.InstrCall && ins.Call.Callee.Kind == ir.CalleeHost {
					used[ins.Call.Callee.Host] = true
				}
			}
		}
	}
	for _, h := range rt.Hosts() {
		if used[h] {
			e.hosts[h] = e.out.AddImport(rt.HostModule, h.String(), h.Type())
		}
	}
	for _, imp := range e.ir.Imports {
		e.shims = append(e.shims, e.out.AddImport(imp.Module, imp.Name, e.funcType(imp.Params, imp.Result)))
	}
}

func (e *Emitter) declareGlobals() {
	e.heap = e.out.AddGlobal(wasm.Global{Name: "heap", Type: wasm.I32, Mutable: true, Init: wasm.ConstExpr{Type: wasm.I32}})
	e.exc = e.out.AddGlobal(wasm.Global{Name: "exc", Type: wasm.I32, Mutable: true, Init: wasm.ConstExpr{Type: wasm.I32}})
	for _, g := range e.ir.Globals {
		vt := e.valType(g.Type)
		init := wasm.ConstExpr{Type: vt}
		if g.Init != nil {
			init = e.constExpr(*g.Init, vt)
		}
		e.globals = append(e.globals, e.out.AddGlobal(wasm.Global{Name: g.Name, Type: vt, Mutable: true, Init: init}))
	}
}

// constExpr is the global initializer of a static literal.
func (e *Emitter) constExpr(c ir.Const, vt wasm.ValType) wasm.ConstExpr {
	out := wasm.ConstExpr{Type: vt}
	switch c.Kind {
	case ir.ConstInt:
		out.Int, out.Float = c.Int, float64(c.Int)
	case ir.ConstFloat:
		out.Float = c.Float
	case ir.ConstBool:
		if c.Bool {
			out.Int, out.Float = 1, 1
		}
	case ir.ConstStr:
		out.Int = int64(e.data.Str(c.Str))
	case ir.ConstBytes:
		out.Int = int64(e.data.Bytes(c.Str))
	}
	return out
}

func (e *Emitter) declareFuncs() error {
	for _, f := range e.ir.Funcs {
		ft := e.funcType(f.ParamTypes(), f.Result)
		e.funcs = append(e.funcs, e.out.FuncIndex(len(e.out.Funcs)))
		e.out.Funcs = append(e.out.Funcs, wasm.Func{Name: f.Name, Type: e.out.AddType(ft)})
	}
	if m := e.ir.Func(e.ir.Init); m == nil || len(m.Blocks) == 0 {
		return internalf("module %s has no initializer", e.ir.Name)
	}
	return nil
}

func (e *Emitter) declareExports() {
	e.out.AddExport("memory", wasm.ExportMemory, 0)
	for _, f := range rt.Exported() {
		e.out.AddExport(f.Spec().Export, wasm.ExportFunc, e.link.Func(f))
	}
	for _, f := range e.ir.Funcs {
		if f.Export != "" {
			e.out.AddExport(f.Export, wasm.ExportFunc, e.funcs[f.ID])
		}
	}
	init := e.funcs[e.ir.Init]
	if e.opts.Start {
		e.out.Start = &init
	} else {
		e.out.AddExport("_initialize", wasm.ExportFunc, init)
	}
}

// layoutMemory places the static data and sizes the memory around it.
func (e *Emitter) layoutMemory() error {
	end := e.data.end()
	limit := uint64(e.opts.MaxMemoryPages) * wasm.PageSize
	if uint64(end) > limit {
		return limitf(diag.GenMemoryLimit, "", source.Span{}, "static data needs %d bytes, memory maximum is %d", end, limit)
	}
	need, err := safecast.Conv[uint32]((uint64(end) + wasm.PageSize - 1) / wasm.PageSize)
	if err != nil {
		return internalf("memory size: %v", err)
	}
	minPages := max(e.opts.MemoryPages, need, 1)
	maxPages := max(e.opts.MaxMemoryPages, minPages)
	e.out.Memory = &wasm.Memory{Min: minPages, Max: maxPages, HasMax: true}
	e.out.Globals[e.heap].Init.Int = int64(end)
	e.out.Data = append(e.out.Data, wasm.DataSegment{Offset: rt.DataBase, Bytes: e.data.buf})
	return nil
}
