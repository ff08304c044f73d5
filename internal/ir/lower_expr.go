package ir

import (
	"waspy/internal/ast"
	"waspy/internal/layout"
	"waspy/internal/rt"
	"waspy/internal/sema"
	"waspy/internal/stdlib"
	"waspy/internal/types"
)

const (
	excMessageOffset = layout.OffExcMessage
	excRecordSize    = layout.OffExcMessage + 8
)

// slice mask bits, matching slice_indices
const (
	sliceLo   = 1
	sliceHi   = 2
	sliceStep = 4
)

// exprAs lowers id and converts the value to want.
func (l *funcLowerer) exprAs(id ast.ExprID, want types.TypeID) (Operand, error) {
	v, err := l.expr(id)
	if err != nil {
		return Operand{}, err
	}
	return l.coerce(v, want), nil
}

func (l *funcLowerer) expr(id ast.ExprID) (Operand, error) {
	e := l.ast.Exprs.Get(id)
	if e == nil {
		return Operand{}, internalf(l.f.Name, "missing expression")
	}
	ty := l.typeOf(id)
	if c, ok := l.res.Consts[id]; ok {
		return l.shimConst(c, ty), nil
	}
	if info := l.res.Calls[id]; info != nil {
		// "raise C" constructs C without a call expression
		return l.callExpr(id, info)
	}
	switch e.Kind {
	case ast.ExprInt, ast.ExprFloat, ast.ExprStr, ast.ExprBytes, ast.ExprBool, ast.ExprNone:
		c, _ := l.literal(id)
		return l.coerce(ConstOperand(c, l.constType(c)), ty), nil
	case ast.ExprName:
		symID, ok := l.res.Names[id]
		if !ok {
			return Operand{}, internalf(l.f.Name, "unresolved name at %v", e.Span)
		}
		v, ok := l.loadSym(symID)
		if !ok {
			return Operand{}, internalf(l.f.Name, "name %s is not a value", l.res.Symbols.Symbol(symID).Name)
		}
		return v, nil
	case ast.ExprFString:
		d, _ := l.ast.Exprs.FString(id)
		return l.fstring(d)
	case ast.ExprBinary:
		d, _ := l.ast.Exprs.Binary(id)
		x, err := l.expr(d.Left)
		if err != nil {
			return Operand{}, err
		}
		x = l.spill(x)
		y, err := l.expr(d.Right)
		if err != nil {
			return Operand{}, err
		}
		return l.binary(d.Op, x, y, ty, l.res.Ops[id])
	case ast.ExprUnary:
		if c, ok := l.literal(id); ok {
			return l.coerce(ConstOperand(c, l.constType(c)), ty), nil
		}
		d, _ := l.ast.Exprs.Unary(id)
		return l.unary(d, ty)
	case ast.ExprBoolOp:
		d, _ := l.ast.Exprs.BoolOp(id)
		return l.boolOp(d, ty)
	case ast.ExprCompare:
		d, _ := l.ast.Exprs.Compare(id)
		return l.compareChain(d)
	case ast.ExprAttr:
		d, _ := l.ast.Exprs.Attr(id)
		return l.attr(id, d, ty)
	case ast.ExprIndex:
		d, _ := l.ast.Exprs.Index(id)
		return l.index(d, ty)
	case ast.ExprSlice:
		d, _ := l.ast.Exprs.Slice(id)
		return l.slice(d, ty)
	case ast.ExprList, ast.ExprSet:
		d, _ := l.ast.Exprs.Seq(id)
		return l.display(e.Kind == ast.ExprSet, d.Elems, ty)
	case ast.ExprTernary:
		d, _ := l.ast.Exprs.TernaryOf(id)
		return l.ternary(d, ty)
	}
	return Operand{}, internalf(l.f.Name, "unsupported expression %v", e.Kind)
}

func (l *funcLowerer) constType(c Const) types.TypeID {
	switch c.Kind {
	case ConstInt:
		return l.b.Int
	case ConstFloat:
		return l.b.Float
	case ConstBool:
		return l.b.Bool
	case ConstStr:
		return l.b.Str
	case ConstBytes:
		return l.b.Bytes
	}
	return l.b.None
}

func (l *funcLowerer) shimConst(c stdlib.Const, ty types.TypeID) Operand {
	var out Const
	switch c.Kind {
	case stdlib.ConstInt:
		out = IntConst(c.Int)
	case stdlib.ConstFloat:
		out = FloatConst(c.Float)
	case stdlib.ConstStr:
		out = StrConst(c.Str)
	default:
		out = BoolConst(c.Bool)
	}
	return l.coerce(ConstOperand(out, l.constType(out)), ty)
}

// promote is the numeric result type of mixing a and b.
func (l *funcLowerer) promote(a, b types.TypeID) types.TypeID {
	ka, kb := l.in.KindOf(a), l.in.KindOf(b)
	switch {
	case ka == types.KindFloat || kb == types.KindFloat:
		return l.b.Float
	case ka == types.KindBool && kb == types.KindBool:
		return l.b.Int
	}
	return l.b.Int
}

// coerce converts v to the representation of want: numeric widening,
// None into a reference type and boxing for untyped shim parameters.
func (l *funcLowerer) coerce(v Operand, want types.TypeID) Operand {
	if want == types.NoTypeID || v.Type == want {
		return v
	}
	from, to := l.in.KindOf(v.Type), l.in.KindOf(want)
	switch {
	case to == types.KindFloat && (from == types.KindInt || from == types.KindBool):
		if v.IsConst(ConstInt) {
			return ConstOperand(FloatConst(float64(v.Const.Int)), want)
		}
		return l.value(RValue{Kind: RValueConvert, X: v, To: want}, want, "f")
	case to == types.KindInt && from == types.KindBool:
		if v.IsConst(ConstBool) {
			return ConstOperand(IntConst(boolInt(v.Const.Bool)), want)
		}
		return l.value(RValue{Kind: RValueConvert, X: v, To: want}, want, "i")
	case to == types.KindAny:
		switch from {
		case types.KindInt, types.KindFloat, types.KindBool:
			return l.value(RValue{Kind: RValueBox, X: v}, want, "box")
		case types.KindNone:
			return ConstOperand(Const{Kind: ConstNone}, want)
		}
		v.Type = want
		return v
	case from == types.KindNone:
		return ConstOperand(Const{Kind: ConstNone}, want)
	}
	// same representation: record upcasts, container element refinement
	v.Type = want
	return v
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// truthOf lowers id and returns its truth value.
func (l *funcLowerer) truthOf(id ast.ExprID) (Operand, error) {
	v, err := l.expr(id)
	if err != nil {
		return Operand{}, err
	}
	return l.truth(v), nil
}

func (l *funcLowerer) truth(v Operand) Operand {
	if l.in.KindOf(v.Type) == types.KindBool {
		return v
	}
	if v.Kind == OperandConst {
		switch v.Const.Kind {
		case ConstInt:
			return l.boolConst(v.Const.Int != 0)
		case ConstFloat:
			return l.boolConst(v.Const.Float != 0)
		case ConstNone:
			return l.boolConst(false)
		case ConstStr, ConstBytes:
			return l.boolConst(v.Const.Str != "")
		}
	}
	return l.value(RValue{Kind: RValueTruth, X: v}, l.b.Bool, "truth")
}

func (l *funcLowerer) unary(d *ast.UnaryData, ty types.TypeID) (Operand, error) {
	switch d.Op {
	case ast.UnaryNot:
		c, err := l.truthOf(d.Operand)
		if err != nil {
			return Operand{}, err
		}
		return l.value(RValue{Kind: RValueUnary, Op: OpNot, X: c}, l.b.Bool, "not"), nil
	case ast.UnaryPos:
		return l.exprAs(d.Operand, ty)
	case ast.UnaryNeg:
		x, err := l.exprAs(d.Operand, ty)
		if err != nil {
			return Operand{}, err
		}
		return l.value(RValue{Kind: RValueUnary, Op: OpNeg, X: x}, ty, "neg"), nil
	default:
		x, err := l.exprAs(d.Operand, l.b.Int)
		if err != nil {
			return Operand{}, err
		}
		return l.value(RValue{Kind: RValueUnary, Op: OpInvert, X: x}, l.b.Int, "inv"), nil
	}
}

// boolOp yields the deciding operand: x and y is y when x is truthy.
func (l *funcLowerer) boolOp(d *ast.BoolOpData, ty types.TypeID) (Operand, error) {
	res := l.temp(ty, d.Op.String())
	x, err := l.expr(d.Left)
	if err != nil {
		return Operand{}, err
	}
	l.assign(res, l.coerce(x, ty))
	cond := l.truth(x)
	right, done := l.newBlock(), l.newBlock()
	if d.Op == ast.BoolAnd {
		l.branch(cond, right, done)
	} else {
		l.branch(cond, done, right)
	}
	l.startBlock(right)
	y, err := l.exprAs(d.Right, ty)
	if err != nil {
		return Operand{}, err
	}
	l.assign(res, y)
	l.jump(done)
	l.startBlock(done)
	return LocalOperand(res, ty), nil
}

func (l *funcLowerer) ternary(d *ast.TernaryData, ty types.TypeID) (Operand, error) {
	res := l.temp(ty, "sel")
	cond, err := l.truthOf(d.Cond)
	if err != nil {
		return Operand{}, err
	}
	then, els, done := l.newBlock(), l.newBlock(), l.newBlock()
	l.branch(cond, then, els)
	for _, arm := range []struct {
		block BlockID
		expr  ast.ExprID
	}{{then, d.Then}, {els, d.Else}} {
		l.startBlock(arm.block)
		v, err := l.exprAs(arm.expr, ty)
		if err != nil {
			return Operand{}, err
		}
		l.assign(res, v)
		l.jump(done)
	}
	l.startBlock(done)
	return LocalOperand(res, ty), nil
}

func (l *funcLowerer) attr(id ast.ExprID, d *ast.AttrData, ty types.TypeID) (Operand, error) {
	info := l.res.Attrs[id]
	if info == nil {
		return Operand{}, internalf(l.f.Name, "unresolved attribute %s", d.Name)
	}
	switch info.Kind {
	case sema.AttrClassVar:
		v, ok := l.loadSym(info.Global)
		if !ok {
			return Operand{}, internalf(l.f.Name, "class variable %s has no slot", d.Name)
		}
		return v, nil
	case sema.AttrField:
		obj, err := l.expr(d.Target)
		if err != nil {
			return Operand{}, err
		}
		fld, ok := l.field(info.Record, d.Name)
		if !ok {
			return Operand{}, internalf(l.f.Name, "no field %s", d.Name)
		}
		return l.value(RValue{Kind: RValueField, X: obj, Offset: fld.Offset}, fld.Type, d.Name), nil
	case sema.AttrShimGetter:
		recv, err := l.expr(d.Target)
		if err != nil {
			return Operand{}, err
		}
		imp := l.importFor(info.Shim, []types.TypeID{recv.Type}, ty)
		return l.call(Callee{Kind: CalleeImport, Import: imp}, ty, true, []Operand{recv}), nil
	}
	return Operand{}, internalf(l.f.Name, "unsupported attribute %s", d.Name)
}

func (l *funcLowerer) index(d *ast.IndexData, ty types.TypeID) (Operand, error) {
	target, err := l.expr(d.Target)
	if err != nil {
		return Operand{}, err
	}
	target = l.spill(target)
	idx, err := l.exprAs(d.Index, l.b.Int)
	if err != nil {
		return Operand{}, err
	}
	switch l.in.KindOf(target.Type) {
	case types.KindList:
		addr := l.callRT(rt.SeqSlot, l.word(), target, idx)
		return l.value(RValue{Kind: RValueField, X: addr}, l.in.Elem(target.Type), "elem"), nil
	case types.KindStr:
		return l.callRT(rt.StrChar, l.b.Str, target, idx), nil
	case types.KindBytes:
		return l.callRT(rt.BytesAt, l.b.Int, target, idx), nil
	}
	return Operand{}, internalf(l.f.Name, "cannot index %s", l.in.TypeString(target.Type))
}

func (l *funcLowerer) slice(d *ast.SliceData, ty types.TypeID) (Operand, error) {
	target, err := l.expr(d.Target)
	if err != nil {
		return Operand{}, err
	}
	target = l.spill(target)
	args := []Operand{target}
	var mask int64
	for i, b := range []ast.ExprID{d.Lower, d.Upper, d.Step} {
		if b == ast.NoExprID {
			args = append(args, l.intConst(0))
			continue
		}
		v, err := l.exprAs(b, l.b.Int)
		if err != nil {
			return Operand{}, err
		}
		args = append(args, l.spill(v))
		mask |= int64(1) << i
	}
	args = append(args, l.intConst(mask))
	if l.in.KindOf(target.Type) == types.KindList {
		return l.callRT(rt.SeqSlice, ty, args...), nil
	}
	return l.callRT(rt.StrSlice, ty, args...), nil
}

// display builds a list or set literal.
func (l *funcLowerer) display(isSet bool, elems []ast.ExprID, ty types.TypeID) (Operand, error) {
	seq := l.newSeq(isSet, ty, int64(len(elems)))
	elem := l.in.Elem(ty)
	push := rt.ListPush
	if isSet {
		push = rt.SetAdd
	}
	for _, e := range elems {
		v, err := l.exprAs(e, elem)
		if err != nil {
			return Operand{}, err
		}
		l.callRT(push, types.NoTypeID, seq, v)
	}
	return seq, nil
}

func (l *funcLowerer) newSeq(isSet bool, ty types.TypeID, capacity int64) Operand {
	tag := layout.TagList
	if isSet {
		tag = layout.TagSet
	}
	elemTag := layout.TagOf(l.in, l.in.Elem(ty))
	return l.callRT(rt.SeqNew, ty, l.intConst(int64(tag)), l.intConst(int64(elemTag)), l.intConst(capacity))
}

func (l *funcLowerer) classID(t types.TypeID) uint32 {
	if info, ok := l.in.Record(t); ok {
		return info.ClassID
	}
	return 0
}

func (l *funcLowerer) builtinClassType(class uint32) types.TypeID {
	for _, r := range l.out.Records {
		if r.ClassID == class {
			return r.Type
		}
	}
	return l.b.Any
}
