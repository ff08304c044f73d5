package ir

import (
	"waspy/internal/ast"
	"waspy/internal/rt"
	"waspy/internal/stdlib"
	"waspy/internal/types"
)

var arithOps = map[ast.BinaryOp]Op{
	ast.BinAdd: OpAdd, ast.BinSub: OpSub, ast.BinMul: OpMul,
	ast.BinBitAnd: OpAnd, ast.BinBitOr: OpOr, ast.BinBitXor: OpXor,
	ast.BinShl: OpShl, ast.BinShr: OpShr,
}

// binary lowers x op y producing ty. Division, modulo and power go
// through checked runtime helpers.
func (l *funcLowerer) binary(op ast.BinaryOp, x, y Operand, ty types.TypeID, shim *stdlib.Symbol) (Operand, error) {
	if shim != nil {
		params := make([]types.TypeID, len(shim.Params))
		args := []Operand{x, y}
		for i := range params {
			params[i] = args[i].Type
		}
		imp := l.importFor(shim, params, ty)
		return l.call(Callee{Kind: CalleeImport, Import: imp}, ty, true, args), nil
	}
	kx, ky, kt := l.in.KindOf(x.Type), l.in.KindOf(y.Type), l.in.KindOf(ty)

	if l.in.IsNumeric(x.Type) && l.in.IsNumeric(y.Type) {
		switch op {
		case ast.BinDiv:
			return l.callRT(rt.FloatDiv, l.b.Float, l.coerce(x, l.b.Float), l.coerce(y, l.b.Float)), nil
		case ast.BinFloorDiv, ast.BinMod:
			if kt == types.KindFloat {
				f := rt.FloatFloorDiv
				if op == ast.BinMod {
					f = rt.FloatMod
				}
				return l.callRT(f, ty, l.coerce(x, ty), l.coerce(y, ty)), nil
			}
			f := rt.IntFloorDiv
			if op == ast.BinMod {
				f = rt.IntMod
			}
			return l.callRT(f, ty, l.coerce(x, l.b.Int), l.coerce(y, l.b.Int)), nil
		case ast.BinPow:
			if kt == types.KindFloat {
				return l.callHost(rt.HostFloatPow, ty, l.coerce(x, ty), l.coerce(y, ty)), nil
			}
			return l.callRT(rt.IntPow, ty, l.coerce(x, l.b.Int), l.coerce(y, l.b.Int)), nil
		}
		aop, ok := arithOps[op]
		if !ok {
			return Operand{}, internalf(l.f.Name, "unsupported operator %s", op)
		}
		return l.value(RValue{Kind: RValueBinary, Op: aop, X: l.coerce(x, ty), Y: l.coerce(y, ty)}, ty, "bin"), nil
	}

	switch {
	case (kx == types.KindStr || kx == types.KindBytes) && op == ast.BinAdd:
		return l.callRT(rt.StrConcat, ty, x, y), nil
	case (kx == types.KindStr || kx == types.KindBytes) && op == ast.BinMul:
		return l.callRT(rt.StrRepeat, ty, x, l.coerce(y, l.b.Int)), nil
	case (ky == types.KindStr || ky == types.KindBytes) && op == ast.BinMul:
		return l.callRT(rt.StrRepeat, ty, y, l.coerce(x, l.b.Int)), nil
	case kx == types.KindList && op == ast.BinMul:
		return l.callRT(rt.SeqRepeat, ty, x, l.coerce(y, l.b.Int)), nil
	case ky == types.KindList && op == ast.BinMul:
		return l.callRT(rt.SeqRepeat, ty, y, l.coerce(x, l.b.Int)), nil
	case kx == types.KindList && op == ast.BinAdd:
		return l.callRT(rt.SeqConcat, ty, x, y), nil
	case kx == types.KindSet:
		switch op {
		case ast.BinBitOr:
			return l.callRT(rt.SetUnion, ty, x, y), nil
		case ast.BinBitAnd:
			return l.callRT(rt.SetInter, ty, x, y), nil
		case ast.BinSub:
			return l.callRT(rt.SetDiff, ty, x, y), nil
		case ast.BinBitXor:
			return l.callRT(rt.SetSymDiff, ty, x, y), nil
		}
	}
	return Operand{}, internalf(l.f.Name, "unsupported operands for %s: %s and %s", op, l.in.TypeString(x.Type), l.in.TypeString(y.Type))
}

// compareChain lowers a < b < c as a < b and b < c with b evaluated once.
func (l *funcLowerer) compareChain(d *ast.CompareData) (Operand, error) {
	left, err := l.expr(d.Left)
	if err != nil {
		return Operand{}, err
	}
	if len(d.Ops) == 1 {
		left = l.spill(left)
		right, err := l.expr(d.Rights[0])
		if err != nil {
			return Operand{}, err
		}
		return l.compare(d.Ops[0], left, right)
	}
	res := l.temp(l.b.Bool, "cmp")
	done := l.newBlock()
	for i, op := range d.Ops {
		left = l.spill(left)
		right, err := l.expr(d.Rights[i])
		if err != nil {
			return Operand{}, err
		}
		right = l.spill(right)
		c, err := l.compare(op, left, right)
		if err != nil {
			return Operand{}, err
		}
		l.assign(res, c)
		if i == len(d.Ops)-1 {
			l.jump(done)
			break
		}
		next := l.newBlock()
		l.branch(c, next, done)
		l.startBlock(next)
		left = right
	}
	l.startBlock(done)
	return LocalOperand(res, l.b.Bool), nil
}

var cmpOps = map[ast.CmpOp]Op{
	ast.CmpEq: OpEq, ast.CmpNotEq: OpNe, ast.CmpLt: OpLt, ast.CmpLtEq: OpLe,
	ast.CmpGt: OpGt, ast.CmpGtEq: OpGe, ast.CmpIs: OpEq, ast.CmpIsNot: OpNe,
}

func (l *funcLowerer) compare(op ast.CmpOp, x, y Operand) (Operand, error) {
	switch op {
	case ast.CmpIn, ast.CmpNotIn:
		in, err := l.contains(y, x)
		if err != nil {
			return Operand{}, err
		}
		if op == ast.CmpNotIn {
			return l.value(RValue{Kind: RValueUnary, Op: OpNot, X: in}, l.b.Bool, "notin"), nil
		}
		return in, nil
	}
	cop := cmpOps[op]
	kx, ky := l.in.KindOf(x.Type), l.in.KindOf(y.Type)
	switch {
	case l.in.IsNumeric(x.Type) && l.in.IsNumeric(y.Type):
		if kx == types.KindBool && ky == types.KindBool {
			return l.cmp(cop, x, y), nil
		}
		t := l.promote(x.Type, y.Type)
		return l.cmp(cop, l.coerce(x, t), l.coerce(y, t)), nil
	case kx == types.KindNone || ky == types.KindNone:
		if (kx == types.KindNone || l.in.IsNullable(x.Type)) && (ky == types.KindNone || l.in.IsNullable(y.Type)) {
			return l.cmp(cop, l.coerce(x, l.word()), l.coerce(y, l.word())), nil
		}
		// a value that can never be None
		return l.boolConst(cop == OpNe), nil
	case op == ast.CmpIs || op == ast.CmpIsNot:
		return l.cmp(cop, l.coerce(x, l.word()), l.coerce(y, l.word())), nil
	case (kx == types.KindStr || kx == types.KindBytes) && kx == ky:
		if cop == OpEq || cop == OpNe {
			eq := l.callRT(rt.StrEq, l.b.Bool, x, y)
			if cop == OpNe {
				return l.value(RValue{Kind: RValueUnary, Op: OpNot, X: eq}, l.b.Bool, "ne"), nil
			}
			return eq, nil
		}
		order := l.callRT(rt.StrCmp, l.word(), x, y)
		return l.cmp(cop, order, ConstOperand(IntConst(0), l.word())), nil
	case (kx == types.KindList || kx == types.KindSet) && kx == ky:
		eq := l.callRT(rt.SeqEq, l.b.Bool, x, y)
		switch cop {
		case OpEq:
			return eq, nil
		case OpNe:
			return l.value(RValue{Kind: RValueUnary, Op: OpNot, X: eq}, l.b.Bool, "ne"), nil
		}
	case kx == types.KindExternal && ky == types.KindExternal:
		order := l.callHost(rt.HostExtCmp, l.word(), x, y)
		return l.cmp(cop, order, ConstOperand(IntConst(0), l.word())), nil
	case kx == types.KindRecord && ky == types.KindRecord:
		if cop == OpEq || cop == OpNe {
			return l.cmp(cop, l.coerce(x, l.word()), l.coerce(y, l.word())), nil
		}
	}
	return Operand{}, internalf(l.f.Name, "unsupported comparison %s between %s and %s", op, l.in.TypeString(x.Type), l.in.TypeString(y.Type))
}

func (l *funcLowerer) cmp(op Op, x, y Operand) Operand {
	return l.value(RValue{Kind: RValueBinary, Op: op, X: x, Y: y}, l.b.Bool, "cmp")
}

// contains is "needle in hay".
func (l *funcLowerer) contains(hay, needle Operand) (Operand, error) {
	switch l.in.KindOf(hay.Type) {
	case types.KindList, types.KindSet:
		at := l.callRT(rt.SeqFind, l.b.Int, hay, l.coerce(needle, l.in.Elem(hay.Type)))
		return l.cmp(OpGe, at, l.intConst(0)), nil
	case types.KindStr:
		return l.callRT(rt.StrContains, l.b.Bool, hay, needle), nil
	case types.KindBytes:
		if l.in.KindOf(needle.Type) == types.KindBytes {
			return l.callRT(rt.StrContains, l.b.Bool, hay, needle), nil
		}
		return l.callRT(rt.BytesHas, l.b.Bool, hay, l.coerce(needle, l.b.Int)), nil
	}
	return Operand{}, internalf(l.f.Name, "%s is not a container", l.in.TypeString(hay.Type))
}
