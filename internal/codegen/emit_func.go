package codegen

import (
	"fortio.org/safecast"

	"waspy/internal/diag"
	"waspy/internal/ir"
	"waspy/internal/rt"
	"waspy/internal/types"
	"waspy/internal/wasm"
)

// funcEmitter translates one IR function. Blocks run inside a dispatch
// loop: the pc local selects the block through a br_table and a jump
// stores the target and branches back to the loop header.
type funcEmitter struct {
	e    *Emitter
	f    *ir.Func
	code *wasm.Code

	vts    []wasm.ValType // local index -> wasm type
	pc     uint32
	mark   uint32
	result []wasm.ValType

	// current block and the structured nesting opened inside it
	cur   int
	extra uint32
}

func newFuncEmitter(e *Emitter, f *ir.Func) *funcEmitter {
	fe := &funcEmitter{e: e, f: f, code: wasm.NewCode(), result: e.resultTypes(f.Result)}
	for _, l := range f.Locals {
		fe.vts = append(fe.vts, e.valType(l.Type))
	}
	return fe
}

func (fe *funcEmitter) newLocal(vt wasm.ValType) uint32 {
	fe.vts = append(fe.vts, vt)
	return uint32(len(fe.vts) - 1) //nolint:gosec // bounded by MaxLocals
}

func (fe *funcEmitter) emit() (wasm.Func, error) {
	f := fe.f
	dispatch := len(f.Blocks) > 1 || len(f.Blocks[0].Term.Successors()) > 0
	if dispatch {
		fe.pc = fe.newLocal(wasm.I32)
	}
	if f.ArenaReset {
		fe.mark = fe.newLocal(wasm.I32)
	}
	if n := len(fe.vts); n > fe.e.opts.MaxLocals {
		return wasm.Func{}, limitf(diag.GenTooManyLocals, f.Name, f.Span, "function needs %d locals, limit is %d", n, fe.e.opts.MaxLocals)
	}

	if f.ArenaReset {
		fe.callRT(rt.ArenaMark)
		fe.code.LocalSet(fe.mark)
	}
	var err error
	if dispatch {
		err = fe.dispatchLoop()
	} else {
		err = fe.block(&f.Blocks[0])
	}
	if err != nil {
		return wasm.Func{}, err
	}
	if fe.code.Depth() != 0 {
		return wasm.Func{}, internalf("%s: unbalanced control nesting", f.Name)
	}

	out := wasm.Func{Body: fe.code, Locals: fe.vts[f.Params:]}
	if fe.e.opts.DebugNames {
		for _, l := range f.Locals {
			out.LocalNames = append(out.LocalNames, l.Name)
		}
		if dispatch {
			out.LocalNames = append(out.LocalNames, "pc")
		}
		if f.ArenaReset {
			out.LocalNames = append(out.LocalNames, "mark")
		}
	}
	return out, nil
}

func (fe *funcEmitter) dispatchLoop() error {
	n := len(fe.f.Blocks)
	c := fe.code
	c.U32Const(blockIndex(fe.f.Entry)).LocalSet(fe.pc)
	c.Loop(wasm.BlockEmpty)
	for range n {
		c.Block(wasm.BlockEmpty)
	}
	targets := make([]uint32, n)
	for i := range targets {
		targets[i] = uint32(i) //nolint:gosec // block count is bounded
	}
	c.LocalGet(fe.pc).BrTable(targets, targets[n-1])
	for i := range fe.f.Blocks {
		c.End()
		fe.cur = i
		if err := fe.block(&fe.f.Blocks[i]); err != nil {
			return err
		}
	}
	c.End()
	c.Unreachable()
	return nil
}

// loopDepth is the branch depth of the dispatch loop from the current block.
func (fe *funcEmitter) loopDepth() uint32 {
	return uint32(len(fe.f.Blocks)-1-fe.cur) + fe.extra //nolint:gosec // block count is bounded
}

func blockIndex(id ir.BlockID) uint32 {
	v, err := safecast.Conv[uint32](id)
	if err != nil {
		return 0
	}
	return v
}

func (fe *funcEmitter) block(b *ir.Block) error {
	for i := range b.Instrs {
		if err := fe.instr(&b.Instrs[i]); err != nil {
			return err
		}
	}
	return fe.term(&b.Term)
}

// falls reports whether control reaches target by leaving the current block.
func (fe *funcEmitter) falls(target ir.BlockID) bool {
	return int(target) == fe.cur+1
}

func (fe *funcEmitter) jump(target ir.BlockID) {
	if fe.falls(target) {
		return
	}
	fe.code.U32Const(blockIndex(target)).LocalSet(fe.pc).Br(fe.loopDepth())
}

// branch emits if/else on the i32 on the stack.
func (fe *funcEmitter) branch(then, els ir.BlockID) {
	c := fe.code
	fe.extra++
	c.If(wasm.BlockEmpty)
	fe.jump(then)
	if !fe.falls(els) {
		c.Else()
		fe.jump(els)
	}
	c.End()
	fe.extra--
}

func (fe *funcEmitter) term(t *ir.Terminator) error {
	c := fe.code
	switch t.Kind {
	case ir.TermGoto:
		fe.jump(t.Goto.Target)
	case ir.TermIf:
		fe.operand(t.If.Cond, wasm.I32)
		fe.branch(t.If.Then, t.If.Else)
	case ir.TermCheckExc:
		c.GlobalGet(fe.e.exc)
		fe.branch(t.CheckExc.Err, t.CheckExc.Ok)
	case ir.TermReturn:
		fe.ret(&t.Return)
	case ir.TermUnreachable:
		c.Unreachable()
	default:
		return internalf("%s: bb%d is not terminated", fe.f.Name, fe.cur)
	}
	return nil
}

func (fe *funcEmitter) ret(r *ir.ReturnTerm) {
	c := fe.code
	if len(fe.result) == 1 {
		vt := fe.result[0]
		if r.HasValue && !r.Exceptional {
			fe.operand(r.Value, vt)
		} else {
			fe.zero(vt)
		}
	}
	// the pending exception may live in the arena
	if fe.f.ArenaReset && !r.Exceptional {
		c.LocalGet(fe.mark)
		fe.callRT(rt.ArenaRelease)
	}
	c.Return()
}

func (fe *funcEmitter) zero(vt wasm.ValType) {
	switch vt {
	case wasm.I64:
		fe.code.I64Const(0)
	case wasm.F64:
		fe.code.F64Const(0)
	default:
		fe.code.I32Const(0)
	}
}

func localIndex(id ir.LocalID) uint32 {
	return uint32(id) //nolint:gosec // validated against the local count
}

func (fe *funcEmitter) localType(id ir.LocalID) wasm.ValType {
	return fe.vts[id]
}

func (fe *funcEmitter) opType(o ir.Operand) wasm.ValType {
	if o.Kind == ir.OperandLocal {
		return fe.localType(o.Local)
	}
	return fe.e.valType(o.Type)
}

func (fe *funcEmitter) kind(t types.TypeID) types.Kind {
	return fe.e.in.KindOf(t)
}

// operand pushes o as a value of type want.
func (fe *funcEmitter) operand(o ir.Operand, want wasm.ValType) {
	if o.Kind == ir.OperandConst {
		fe.constant(o.Const, want)
		return
	}
	fe.code.LocalGet(localIndex(o.Local))
	adapt(fe.code, fe.localType(o.Local), want)
}

func (fe *funcEmitter) constant(k ir.Const, want wasm.ValType) {
	c := fe.code
	var bits int64
	switch k.Kind {
	case ir.ConstInt:
		if want == wasm.F64 {
			c.F64Const(float64(k.Int))
			return
		}
		bits = k.Int
	case ir.ConstFloat:
		if want == wasm.F64 {
			c.F64Const(k.Float)
			return
		}
		c.F64Const(k.Float)
		adapt(c, wasm.F64, want)
		return
	case ir.ConstBool:
		if k.Bool {
			bits = 1
		}
		if want == wasm.F64 {
			c.F64Const(float64(bits))
			return
		}
	case ir.ConstNone:
	case ir.ConstStr:
		bits = int64(fe.e.data.Str(k.Str))
	case ir.ConstBytes:
		bits = int64(fe.e.data.Bytes(k.Str))
	}
	switch want {
	case wasm.I64:
		c.I64Const(bits)
	case wasm.F64:
		c.F64Const(0)
	default:
		c.I32Const(int32(bits)) //nolint:gosec // i32 payloads wrap by definition
	}
}

// adapt converts the value on the stack between representations. Heap
// references widen unsigned; floats keep their bits in i64 slots.
func adapt(c *wasm.Code, from, to wasm.ValType) {
	if from == to {
		return
	}
	switch {
	case from == wasm.I32 && to == wasm.I64:
		c.Op(wasm.OpI64ExtendI32U)
	case from == wasm.I64 && to == wasm.I32:
		c.Op(wasm.OpI32WrapI64)
	case from == wasm.F64 && to == wasm.I64:
		c.Op(wasm.OpI64ReinterpretF64)
	case from == wasm.I64 && to == wasm.F64:
		c.Op(wasm.OpF64ReinterpretI64)
	case from == wasm.I32 && to == wasm.F64:
		c.Op(wasm.OpI64ExtendI32U).Op(wasm.OpF64ReinterpretI64)
	case from == wasm.F64 && to == wasm.I32:
		c.Op(wasm.OpI64ReinterpretF64).Op(wasm.OpI32WrapI64)
	}
}

func (fe *funcEmitter) callRT(f rt.Func) {
	fe.code.Call(fe.e.link.Func(f))
}
