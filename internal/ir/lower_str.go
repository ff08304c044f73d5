package ir

import (
	"waspy/internal/ast"
	"waspy/internal/rt"
	"waspy/internal/sema"
	"waspy/internal/types"
)

// toStr is str(v).
func (l *funcLowerer) toStr(v Operand) Operand {
	if v.Kind == OperandConst {
		if s, ok := constText(v.Const); ok {
			return l.strConst(s)
		}
	}
	switch l.in.KindOf(v.Type) {
	case types.KindStr:
		return v
	case types.KindInt:
		return l.callRT(rt.IntToStr, l.b.Str, v)
	case types.KindFloat:
		return l.callHost(rt.HostFloatToStr, l.b.Str, v)
	case types.KindBool:
		return l.callRT(rt.BoolToStr, l.b.Str, v)
	case types.KindNone:
		return l.strConst("None")
	case types.KindRecord:
		if cls := l.classes[v.Type]; cls != nil && cls.IsException() {
			return l.value(RValue{Kind: RValueField, X: v, Offset: excMessageOffset}, l.b.Str, "msg")
		}
	}
	return l.callHost(rt.HostStr, l.b.Str, l.coerce(v, l.word()), ConstOperand(IntConst(0), l.word()))
}

// repr is repr(v). Scalars print the same either way.
func (l *funcLowerer) repr(v Operand) Operand {
	switch l.in.KindOf(v.Type) {
	case types.KindInt, types.KindFloat, types.KindBool, types.KindNone:
		return l.toStr(v)
	}
	return l.callHost(rt.HostStr, l.b.Str, l.coerce(v, l.word()), ConstOperand(IntConst(1), l.word()))
}

// constText renders scalar literals at compile time. Floats are left to
// the host so formatting matches the runtime path.
func constText(c Const) (string, bool) {
	switch c.Kind {
	case ConstStr:
		return c.Str, true
	case ConstBool:
		if c.Bool {
			return "True", true
		}
		return "False", true
	case ConstNone:
		return "None", true
	}
	return "", false
}

func (l *funcLowerer) concat(parts []Operand) Operand {
	var acc Operand
	have := false
	for _, p := range parts {
		if p.IsConst(ConstStr) && p.Const.Str == "" {
			continue
		}
		if !have {
			acc, have = p, true
			continue
		}
		if acc.IsConst(ConstStr) && p.IsConst(ConstStr) {
			acc = l.strConst(acc.Const.Str + p.Const.Str)
			continue
		}
		acc = l.spill(l.callRT(rt.StrConcat, l.b.Str, acc, p))
	}
	if !have {
		return l.strConst("")
	}
	return acc
}

func (l *funcLowerer) fstring(d *ast.FStringData) (Operand, error) {
	parts := make([]Operand, 0, len(d.Parts))
	for _, p := range d.Parts {
		if p.Expr == ast.NoExprID {
			parts = append(parts, l.strConst(p.Lit))
			continue
		}
		v, err := l.expr(p.Expr)
		if err != nil {
			return Operand{}, err
		}
		parts = append(parts, l.spill(l.toStr(v)))
	}
	return l.concat(parts), nil
}

// print renders the whole line first and writes it with one host call.
func (l *funcLowerer) print(info *sema.CallInfo) (Operand, error) {
	sep, end := l.strConst(" "), l.strConst("\n")
	var err error
	if info.Sep != ast.NoExprID {
		if sep, err = l.optStr(info.Sep, " "); err != nil {
			return Operand{}, err
		}
	}
	var parts []Operand
	for i, a := range info.Args {
		v, err := l.expr(a)
		if err != nil {
			return Operand{}, err
		}
		if i > 0 {
			parts = append(parts, sep)
		}
		parts = append(parts, l.spill(l.toStr(v)))
	}
	if info.End != ast.NoExprID {
		if end, err = l.optStr(info.End, "\n"); err != nil {
			return Operand{}, err
		}
	}
	parts = append(parts, end)
	line := l.concat(parts)
	if line.IsConst(ConstStr) && line.Const.Str == "" {
		return l.none(), nil
	}
	l.callHost(rt.HostWriteStr, types.NoTypeID, line)
	return l.none(), nil
}

// optStr evaluates a sep= or end= argument; None selects the default.
func (l *funcLowerer) optStr(id ast.ExprID, def string) (Operand, error) {
	v, err := l.expr(id)
	if err != nil {
		return Operand{}, err
	}
	switch l.in.KindOf(v.Type) {
	case types.KindNone:
		return l.strConst(def), nil
	case types.KindStr:
		if v.Kind == OperandConst {
			return v, nil
		}
		v = l.spill(v)
		isNone := l.cmp(OpEq, l.coerce(v, l.word()), ConstOperand(Const{Kind: ConstNone}, l.word()))
		res := l.temp(l.b.Str, "s")
		dflt, keep, done := l.newBlock(), l.newBlock(), l.newBlock()
		l.branch(isNone, dflt, keep)
		l.startBlock(dflt)
		l.assign(res, l.strConst(def))
		l.jump(done)
		l.startBlock(keep)
		l.assign(res, v)
		l.jump(done)
		l.startBlock(done)
		return LocalOperand(res, l.b.Str), nil
	}
	return l.toStr(v), nil
}
