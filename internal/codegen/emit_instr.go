package codegen

import (
	"waspy/internal/ir"
	"waspy/internal/layout"
	"waspy/internal/rt"
	"waspy/internal/types"
	"waspy/internal/wasm"
)

func (fe *funcEmitter) instr(ins *ir.Instr) error {
	c := fe.code
	switch ins.Kind {
	case ir.InstrAssign:
		a := &ins.Assign
		if a.Src.Kind == ir.RValueAlloc {
			fe.alloc(a.Dst, &a.Src)
			return nil
		}
		if err := fe.rvalue(&a.Src, fe.localType(a.Dst)); err != nil {
			return err
		}
		c.LocalSet(localIndex(a.Dst))
	case ir.InstrCall:
		return fe.call(&ins.Call)
	case ir.InstrStoreGlobal:
		s := &ins.StoreGlobal
		g := fe.e.out.Globals[fe.e.globals[s.Global]]
		fe.operand(s.Value, g.Type)
		c.GlobalSet(fe.e.globals[s.Global])
	case ir.InstrSetField:
		s := &ins.SetField
		fe.operand(s.Object, wasm.I32)
		// slots are eight bytes; narrow values are zero-extended
		switch fe.opType(s.Value) {
		case wasm.F64:
			fe.operand(s.Value, wasm.F64)
			c.F64Store(s.Offset)
		default:
			fe.operand(s.Value, wasm.I64)
			c.I64Store(s.Offset)
		}
	case ir.InstrSetExc:
		fe.operand(ins.SetExc.Value, wasm.I32)
		c.GlobalSet(fe.e.exc)
	default:
		return internalf("%s: unknown instruction kind %d", fe.f.Name, ins.Kind)
	}
	return nil
}

// signature returns the wasm parameter and result types of a callee.
func (fe *funcEmitter) signature(cl ir.Callee) (idx uint32, params, results []wasm.ValType, err error) {
	e := fe.e
	switch cl.Kind {
	case ir.CalleeFunc:
		g := e.ir.Func(cl.Func)
		if g == nil {
			return 0, nil, nil, internalf("%s: call to missing function %d", fe.f.Name, cl.Func)
		}
		ft := e.funcType(g.ParamTypes(), g.Result)
		return e.funcs[cl.Func], ft.Params, ft.Results, nil
	case ir.CalleeImport:
		if int(cl.Import) >= len(e.ir.Imports) || cl.Import < 0 {
			return 0, nil, nil, internalf("%s: call to missing import %d", fe.f.Name, cl.Import)
		}
		imp := e.ir.Imports[cl.Import]
		ft := e.funcType(imp.Params, imp.Result)
		return e.shims[cl.Import], ft.Params, ft.Results, nil
	case ir.CalleeRuntime:
		s := cl.Runtime.Spec()
		return e.link.Func(cl.Runtime), s.Params, s.Results, nil
	case ir.CalleeHost:
		idx, ok := e.hosts[cl.Host]
		if !ok {
			return 0, nil, nil, internalf("%s: host service %s was not imported", fe.f.Name, cl.Host)
		}
		s := cl.Host.Spec()
		return idx, s.Params, s.Results, nil
	}
	return 0, nil, nil, internalf("%s: unknown callee kind %d", fe.f.Name, cl.Kind)
}

func (fe *funcEmitter) call(ci *ir.CallInstr) error {
	idx, params, results, err := fe.signature(ci.Callee)
	if err != nil {
		return err
	}
	if len(params) != len(ci.Args) {
		return internalf("%s: call passes %d arguments, callee takes %d", fe.f.Name, len(ci.Args), len(params))
	}
	c := fe.code
	for i, a := range ci.Args {
		fe.operand(a, params[i])
	}
	c.Call(idx)
	switch {
	case ci.HasDst && len(results) == 1:
		adapt(c, results[0], fe.localType(ci.Dst))
		c.LocalSet(localIndex(ci.Dst))
	case ci.HasDst:
		fe.zero(fe.localType(ci.Dst))
		c.LocalSet(localIndex(ci.Dst))
	case len(results) == 1:
		c.Drop()
	}
	return nil
}

// alloc places a zeroed record and writes its header.
func (fe *funcEmitter) alloc(dst ir.LocalID, rv *ir.RValue) {
	c := fe.code
	d := localIndex(dst)
	c.U32Const(rv.Size)
	fe.callRT(rt.Alloc)
	c.LocalTee(d)
	c.U32Const(uint32(layout.TagRecord)).I32Store(layout.OffTag)
	c.LocalGet(d).U32Const(rv.Class).I32Store(layout.OffRecordClass)
}

// rvalue pushes rv as a value of type want.
func (fe *funcEmitter) rvalue(rv *ir.RValue, want wasm.ValType) error {
	c := fe.code
	switch rv.Kind {
	case ir.RValueUse:
		fe.operand(rv.X, want)
	case ir.RValueUnary:
		vt := fe.opType(rv.X)
		if err := fe.unary(rv.Op, rv.X, vt); err != nil {
			return err
		}
		adapt(c, fe.unaryResult(rv.Op, vt), want)
	case ir.RValueBinary:
		vt := fe.opType(rv.X)
		if err := fe.binary(rv.Op, rv.X, rv.Y, vt); err != nil {
			return err
		}
		res := vt
		if rv.Op.IsCompare() {
			res = wasm.I32
		}
		adapt(c, res, want)
	case ir.RValueConvert:
		fe.convert(rv.X, fe.e.valType(rv.To))
		adapt(c, fe.e.valType(rv.To), want)
	case ir.RValueTruth:
		fe.truth(rv.X)
		adapt(c, wasm.I32, want)
	case ir.RValueLoadGlobal:
		g := fe.e.globals[rv.Global]
		c.GlobalGet(g)
		adapt(c, fe.e.out.Globals[g].Type, want)
	case ir.RValueField:
		fe.operand(rv.X, wasm.I32)
		switch want {
		case wasm.I64:
			c.I64Load(rv.Offset)
		case wasm.F64:
			c.F64Load(rv.Offset)
		default:
			c.I32Load(rv.Offset)
		}
	case ir.RValueBox:
		c.U32Const(uint32(layout.TagOf(fe.e.in, rv.X.Type)))
		fe.operand(rv.X, wasm.I64)
		fe.callRT(rt.Box)
		adapt(c, wasm.I32, want)
	case ir.RValueTakeExc:
		c.GlobalGet(fe.e.exc)
		c.I32Const(0).GlobalSet(fe.e.exc)
		adapt(c, wasm.I32, want)
	case ir.RValueIsInstance:
		fe.operand(rv.X, wasm.I32)
		c.U32Const(rv.Class)
		fe.callRT(rt.IsInstance)
		adapt(c, wasm.I32, want)
	case ir.RValueLen:
		fe.length(rv.X)
		adapt(c, wasm.I64, want)
	case ir.RValueAlloc:
		return internalf("%s: allocation outside an assignment", fe.f.Name)
	default:
		return internalf("%s: unknown rvalue kind %d", fe.f.Name, rv.Kind)
	}
	return nil
}

func (fe *funcEmitter) unaryResult(op ir.Op, vt wasm.ValType) wasm.ValType {
	if op == ir.OpNot {
		return wasm.I32
	}
	return vt
}

func (fe *funcEmitter) unary(op ir.Op, x ir.Operand, vt wasm.ValType) error {
	c := fe.code
	switch vt {
	case wasm.I64:
		switch op {
		case ir.OpNeg:
			c.I64Const(0)
			fe.operand(x, vt)
			c.Op(wasm.OpI64Sub)
		case ir.OpNot:
			fe.operand(x, vt)
			c.Op(wasm.OpI64Eqz)
		case ir.OpInvert:
			fe.operand(x, vt)
			c.I64Const(-1).Op(wasm.OpI64Xor)
		case ir.OpAbs:
			// (x ^ (x >> 63)) - (x >> 63)
			fe.operand(x, vt)
			fe.operand(x, vt)
			c.I64Const(63).Op(wasm.OpI64ShrS).Op(wasm.OpI64Xor)
			fe.operand(x, vt)
			c.I64Const(63).Op(wasm.OpI64ShrS).Op(wasm.OpI64Sub)
		default:
			return internalf("%s: %s on int", fe.f.Name, op)
		}
	case wasm.F64:
		fe.operand(x, vt)
		switch op {
		case ir.OpNeg:
			c.Op(wasm.OpF64Neg)
		case ir.OpAbs:
			c.Op(wasm.OpF64Abs)
		case ir.OpNot:
			c.F64Const(0).Op(wasm.OpF64Eq)
		default:
			return internalf("%s: %s on float", fe.f.Name, op)
		}
	default:
		fe.operand(x, vt)
		switch op {
		case ir.OpNot:
			c.Op(wasm.OpI32Eqz)
		case ir.OpNeg:
			c.I32Const(-1).Op(wasm.OpI32Mul)
		case ir.OpInvert:
			c.I32Const(-1).Op(wasm.OpI32Xor)
		case ir.OpAbs:
		default:
			return internalf("%s: %s on i32", fe.f.Name, op)
		}
	}
	return nil
}

var (
	i64Ops = map[ir.Op]wasm.Opcode{
		ir.OpAdd: wasm.OpI64Add, ir.OpSub: wasm.OpI64Sub, ir.OpMul: wasm.OpI64Mul, ir.OpDiv: wasm.OpI64DivS,
		ir.OpAnd: wasm.OpI64And, ir.OpOr: wasm.OpI64Or, ir.OpXor: wasm.OpI64Xor,
		ir.OpShl: wasm.OpI64Shl, ir.OpShr: wasm.OpI64ShrS,
		ir.OpEq: wasm.OpI64Eq, ir.OpNe: wasm.OpI64Ne, ir.OpLt: wasm.OpI64LtS, ir.OpLe: wasm.OpI64LeS,
		ir.OpGt: wasm.OpI64GtS, ir.OpGe: wasm.OpI64GeS,
	}
	i32Ops = map[ir.Op]wasm.Opcode{
		ir.OpAdd: wasm.OpI32Add, ir.OpSub: wasm.OpI32Sub, ir.OpMul: wasm.OpI32Mul, ir.OpDiv: wasm.OpI32DivS,
		ir.OpAnd: wasm.OpI32And, ir.OpOr: wasm.OpI32Or, ir.OpXor: wasm.OpI32Xor,
		ir.OpShl: wasm.OpI32Shl, ir.OpShr: wasm.OpI32ShrS,
		ir.OpEq: wasm.OpI32Eq, ir.OpNe: wasm.OpI32Ne, ir.OpLt: wasm.OpI32LtS, ir.OpLe: wasm.OpI32LeS,
		ir.OpGt: wasm.OpI32GtS, ir.OpGe: wasm.OpI32GeS,
	}
	f64Ops = map[ir.Op]wasm.Opcode{
		ir.OpAdd: wasm.OpF64Add, ir.OpSub: wasm.OpF64Sub, ir.OpMul: wasm.OpF64Mul, ir.OpDiv: wasm.OpF64Div,
		ir.OpEq: wasm.OpF64Eq, ir.OpNe: wasm.OpF64Ne, ir.OpLt: wasm.OpF64Lt, ir.OpLe: wasm.OpF64Le,
		ir.OpGt: wasm.OpF64Gt, ir.OpGe: wasm.OpF64Ge,
		ir.OpMin: wasm.OpF64Min, ir.OpMax: wasm.OpF64Max,
	}
)

func (fe *funcEmitter) binary(op ir.Op, x, y ir.Operand, vt wasm.ValType) error {
	c := fe.code
	table := i32Ops
	switch vt {
	case wasm.I64:
		table = i64Ops
	case wasm.F64:
		table = f64Ops
	}
	if (op == ir.OpMin || op == ir.OpMax) && vt != wasm.F64 {
		// select keeps x when the comparison holds
		cmp := ir.OpLt
		if op == ir.OpMax {
			cmp = ir.OpGt
		}
		fe.operand(x, vt)
		fe.operand(y, vt)
		fe.operand(x, vt)
		fe.operand(y, vt)
		c.Op(table[cmp]).Select()
		return nil
	}
	code, ok := table[op]
	if !ok {
		return internalf("%s: no %s for %s", fe.f.Name, op, vt)
	}
	fe.operand(x, vt)
	fe.operand(y, vt)
	c.Op(code)
	return nil
}

// convert changes the numeric representation of x to vt.
func (fe *funcEmitter) convert(x ir.Operand, to wasm.ValType) {
	c := fe.code
	from := fe.opType(x)
	if x.Kind == ir.OperandConst {
		fe.constant(x.Const, to)
		return
	}
	fe.operand(x, from)
	switch {
	case from == to:
	case from == wasm.I64 && to == wasm.F64:
		c.Op(wasm.OpF64ConvertI64S)
	case from == wasm.I32 && to == wasm.F64:
		c.Op(wasm.OpF64ConvertI32U)
	case from == wasm.F64 && to == wasm.I64:
		c.Op(wasm.OpI64TruncF64S)
	default:
		adapt(c, from, to)
	}
}

// truth pushes the Python truth value of x as an i32.
func (fe *funcEmitter) truth(x ir.Operand) {
	c := fe.code
	switch k := fe.kind(x.Type); k {
	case types.KindInt:
		fe.operand(x, wasm.I64)
		c.I64Const(0).Op(wasm.OpI64Ne)
	case types.KindFloat:
		fe.operand(x, wasm.F64)
		c.F64Const(0).Op(wasm.OpF64Ne)
	case types.KindBool:
		fe.operand(x, wasm.I32)
	case types.KindNone:
		c.I32Const(0)
	case types.KindStr, types.KindBytes, types.KindList, types.KindSet:
		off := uint32(layout.OffStrLen)
		if k == types.KindList || k == types.KindSet {
			off = layout.OffSeqLen
		}
		fe.operand(x, wasm.I32)
		c.If(wasm.Result(wasm.I32))
		fe.operand(x, wasm.I32)
		c.I32Load(off).I32Const(0).Op(wasm.OpI32Ne)
		c.Else().I32Const(0).End()
	default:
		fe.operand(x, wasm.I32)
		c.I32Const(0).Op(wasm.OpI32Ne)
	}
}

// length pushes len(x) as an i64.
func (fe *funcEmitter) length(x ir.Operand) {
	c := fe.code
	switch fe.kind(x.Type) {
	case types.KindStr:
		fe.operand(x, wasm.I32)
		fe.callRT(rt.StrLen)
	case types.KindBytes:
		fe.operand(x, wasm.I32)
		c.I32Load(layout.OffStrLen).Op(wasm.OpI64ExtendI32U)
	default:
		fe.operand(x, wasm.I32)
		c.I32Load(layout.OffSeqLen).Op(wasm.OpI64ExtendI32U)
	}
}
