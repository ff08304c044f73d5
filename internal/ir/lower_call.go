package ir

import (
	"slices"

	"waspy/internal/ast"
	"waspy/internal/layout"
	"waspy/internal/rt"
	"waspy/internal/sema"
	"waspy/internal/types"
)

func (l *funcLowerer) callExpr(id ast.ExprID, info *sema.CallInfo) (Operand, error) {
	ty := l.typeOf(id)
	switch info.Kind {
	case sema.CallFunc:
		args, err := l.userArgs(info, nil)
		if err != nil {
			return Operand{}, err
		}
		return l.callUser(info.Func, args), nil
	case sema.CallMethod:
		recv, err := l.expr(info.Recv)
		if err != nil {
			return Operand{}, err
		}
		var lead []Operand
		if !info.Func.Static {
			// resolved on the static type of the receiver
			lead = []Operand{l.coerce(l.spill(recv), info.Func.Class.Type)}
		}
		args, err := l.userArgs(info, lead)
		if err != nil {
			return Operand{}, err
		}
		return l.callUser(info.Func, args), nil
	case sema.CallSuper:
		self, err := l.self()
		if err != nil {
			return Operand{}, err
		}
		if info.Func == nil {
			return l.none(), l.initMessage(self, info)
		}
		args, err := l.userArgs(info, []Operand{l.coerce(self, info.Func.Class.Type)})
		if err != nil {
			return Operand{}, err
		}
		return l.callUser(info.Func, args), nil
	case sema.CallCtor, sema.CallException:
		obj := l.alloc(info.Class)
		if info.Func != nil {
			args, err := l.userArgs(info, []Operand{l.coerce(obj, info.Func.Class.Type)})
			if err != nil {
				return Operand{}, err
			}
			l.callUser(info.Func, args)
		} else if err := l.initMessage(obj, info); err != nil {
			return Operand{}, err
		}
		return obj, nil
	case sema.CallBuiltin:
		return l.builtin(id, info, ty)
	case sema.CallBuiltinMethod:
		return l.containerMethod(info, ty)
	case sema.CallShim, sema.CallShimMethod:
		return l.shimCall(info, ty)
	}
	return Operand{}, internalf(l.f.Name, "unresolved call")
}

// self is the receiver parameter of the method being lowered.
func (l *funcLowerer) self() (Operand, error) {
	if l.sf == nil || l.sf.Class == nil || l.f.Params == 0 {
		return Operand{}, internalf(l.f.Name, "super() outside of a method")
	}
	return LocalOperand(0, l.f.Locals[0].Type), nil
}

// initMessage runs the builtin exception initializer: message = str(arg).
func (l *funcLowerer) initMessage(obj Operand, info *sema.CallInfo) error {
	if len(info.Args) == 0 {
		return nil
	}
	msg := l.strConst("")
	if info.Args[0] != ast.NoExprID {
		v, err := l.expr(info.Args[0])
		if err != nil {
			return err
		}
		msg = l.toStr(v)
	}
	l.setField(obj, excMessageOffset, msg)
	return nil
}

// userArgs evaluates arguments in parameter order, substituting defaults.
func (l *funcLowerer) userArgs(info *sema.CallInfo, lead []Operand) ([]Operand, error) {
	args := slices.Clone(lead)
	for i, a := range info.Args {
		if a == ast.NoExprID && i < len(info.Defaults) {
			a = info.Defaults[i]
		}
		if a == ast.NoExprID {
			return nil, internalf(l.f.Name, "missing argument %d", i)
		}
		v, err := l.exprAs(a, info.Params[i])
		if err != nil {
			return nil, err
		}
		args = append(args, l.spill(v))
	}
	return args, nil
}

func (l *funcLowerer) builtin(id ast.ExprID, info *sema.CallInfo, ty types.TypeID) (Operand, error) {
	if info.Builtin == sema.BuiltinPrint {
		return l.print(info)
	}
	args := make([]Operand, len(info.Args))
	for i, a := range info.Args {
		if info.Builtin == sema.BuiltinIsinstance && i == 1 {
			continue
		}
		v, err := l.expr(a)
		if err != nil {
			return Operand{}, err
		}
		args[i] = l.spill(v)
	}
	kind := func(i int) types.Kind { return l.in.KindOf(args[i].Type) }

	switch info.Builtin {
	case sema.BuiltinLen:
		return l.value(RValue{Kind: RValueLen, X: args[0]}, l.b.Int, "len"), nil
	case sema.BuiltinInt:
		switch {
		case len(args) == 0:
			return l.intConst(0), nil
		case kind(0) == types.KindStr:
			base := l.intConst(10)
			if len(args) == 2 {
				base = l.coerce(args[1], l.b.Int)
			}
			return l.callRT(rt.StrToInt, l.b.Int, args[0], base), nil
		case kind(0) == types.KindFloat:
			return l.callRT(rt.FloatToInt, l.b.Int, args[0]), nil
		}
		return l.coerce(args[0], l.b.Int), nil
	case sema.BuiltinFloat:
		switch {
		case len(args) == 0:
			return ConstOperand(FloatConst(0), l.b.Float), nil
		case kind(0) == types.KindStr:
			return l.callHost(rt.HostStrToFloat, l.b.Float, args[0]), nil
		}
		return l.coerce(args[0], l.b.Float), nil
	case sema.BuiltinStr:
		if len(args) == 0 {
			return l.strConst(""), nil
		}
		return l.toStr(args[0]), nil
	case sema.BuiltinRepr:
		return l.repr(args[0]), nil
	case sema.BuiltinBool:
		if len(args) == 0 {
			return l.boolConst(false), nil
		}
		return l.truth(args[0]), nil
	case sema.BuiltinAbs:
		x := l.coerce(args[0], ty)
		return l.value(RValue{Kind: RValueUnary, Op: OpAbs, X: x}, ty, "abs"), nil
	case sema.BuiltinMin, sema.BuiltinMax:
		return l.minMax(info.Builtin == sema.BuiltinMax, args, ty), nil
	case sema.BuiltinSum:
		return l.callRT(rt.SeqSum, ty, args[0]), nil
	case sema.BuiltinRound:
		x := l.coerce(args[0], l.b.Float)
		if len(args) == 2 {
			return l.callHost(rt.HostRound, l.b.Float, x, l.coerce(args[1], l.b.Int)), nil
		}
		if kind(0) != types.KindFloat {
			return l.coerce(args[0], l.b.Int), nil
		}
		r := l.callHost(rt.HostRound, l.b.Float, x, l.intConst(0))
		return l.callRT(rt.FloatToInt, l.b.Int, r), nil
	case sema.BuiltinOrd:
		return l.callRT(rt.Ord, l.b.Int, args[0]), nil
	case sema.BuiltinChr:
		return l.callRT(rt.Chr, l.b.Str, l.coerce(args[0], l.b.Int)), nil
	case sema.BuiltinList, sema.BuiltinSet:
		isSet := info.Builtin == sema.BuiltinSet
		if len(args) == 0 {
			return l.newSeq(isSet, ty, 0), nil
		}
		src := args[0]
		switch kind(0) {
		case types.KindStr:
			src = l.callRT(rt.StrChars, l.in.ListOf(l.b.Str), src)
		case types.KindBytes:
			src = l.callRT(rt.BytesList, l.in.ListOf(l.b.Int), src)
		}
		tag := layout.TagList
		if isSet {
			tag = layout.TagSet
		}
		return l.callRT(rt.SeqFrom, ty, src, l.intConst(int64(tag))), nil
	case sema.BuiltinIsinstance:
		classes := l.res.ExceptTypes[info.Args[1]]
		res := l.temp(l.b.Bool, "isinstance")
		l.assign(res, l.boolConst(false))
		done := l.newBlock()
		for _, ct := range classes {
			next := l.newBlock()
			m := l.value(RValue{Kind: RValueIsInstance, X: args[0], Class: l.classID(ct)}, l.b.Bool, "is")
			l.assign(res, m)
			l.branch(m, done, next)
			l.startBlock(next)
		}
		l.jump(done)
		l.startBlock(done)
		return LocalOperand(res, l.b.Bool), nil
	}
	return Operand{}, internalf(l.f.Name, "unsupported builtin %s", info.Builtin)
}

// minMax folds numeric arguments with min/max operators; strings and a
// single iterable go through the runtime.
func (l *funcLowerer) minMax(isMax bool, args []Operand, ty types.TypeID) Operand {
	wantMax := l.intConst(boolInt(isMax))
	if len(args) == 1 {
		return l.callRT(rt.SeqMinMax, ty, args[0], wantMax)
	}
	if l.in.KindOf(ty) == types.KindStr {
		seq := l.newSeq(false, l.in.ListOf(l.b.Str), int64(len(args)))
		for _, a := range args {
			l.callRT(rt.ListPush, types.NoTypeID, seq, a)
		}
		return l.callRT(rt.SeqMinMax, ty, seq, wantMax)
	}
	op := OpMin
	if isMax {
		op = OpMax
	}
	acc := l.coerce(args[0], ty)
	for _, a := range args[1:] {
		acc = l.value(RValue{Kind: RValueBinary, Op: op, X: acc, Y: l.coerce(a, ty)}, ty, op.String())
	}
	return acc
}

var methodHelpers = map[sema.BuiltinMethod]rt.Func{
	sema.ListAppend: rt.ListPush, sema.ListPop: rt.ListPop, sema.ListExtend: rt.ListExtend,
	sema.ListClear: rt.SeqClear, sema.ListIndex: rt.ListIndex, sema.ListCount: rt.ListCount,
	sema.ListCopy: rt.SeqCopy, sema.ListInsert: rt.ListInsert, sema.ListReverse: rt.ListReverse,
	sema.SetAdd: rt.SetAdd, sema.SetDiscard: rt.SetDiscard, sema.SetRemove: rt.SetRemove,
	sema.SetClear: rt.SeqClear, sema.SetCopy: rt.SeqCopy,
}

func (l *funcLowerer) containerMethod(info *sema.CallInfo, ty types.TypeID) (Operand, error) {
	recv, err := l.expr(info.Recv)
	if err != nil {
		return Operand{}, err
	}
	recv = l.spill(recv)
	elem := l.in.Elem(recv.Type)
	args := []Operand{recv}
	for i, a := range info.Args {
		if a == ast.NoExprID {
			// list.pop() takes the last element
			args = append(args, l.intConst(-1))
			continue
		}
		want := info.Params[i]
		if info.Method == sema.ListInsert && i == 0 {
			want = l.b.Int
		}
		v, err := l.exprAs(a, want)
		if err != nil {
			return Operand{}, err
		}
		args = append(args, l.spill(v))
	}
	f, ok := methodHelpers[info.Method]
	if !ok {
		return Operand{}, internalf(l.f.Name, "unsupported container method")
	}
	switch info.Method {
	case sema.ListPop:
		return l.callRT(f, elem, args...), nil
	case sema.ListIndex, sema.ListCount:
		return l.callRT(f, l.b.Int, args...), nil
	case sema.ListCopy, sema.SetCopy:
		return l.callRT(f, recv.Type, args...), nil
	}
	l.callRT(f, l.word(), args...)
	return l.none(), nil
}

// shimCall passes the receiver, the fixed arguments or their defaults,
// and the variadic tail packed in a list.
func (l *funcLowerer) shimCall(info *sema.CallInfo, ty types.TypeID) (Operand, error) {
	var args []Operand
	var params []types.TypeID
	if info.Kind == sema.CallShimMethod {
		recv, err := l.expr(info.Recv)
		if err != nil {
			return Operand{}, err
		}
		args = append(args, l.spill(recv))
		params = append(params, recv.Type)
	}
	for i, a := range info.Args {
		want := info.Params[i]
		if a == ast.NoExprID {
			c := info.ShimDefaults[i]
			if c == nil {
				return Operand{}, internalf(l.f.Name, "%s: missing argument %d", info.Shim.Qualified(), i)
			}
			args = append(args, l.shimConst(*c, want))
		} else {
			v, err := l.exprAs(a, want)
			if err != nil {
				return Operand{}, err
			}
			args = append(args, l.spill(v))
		}
		params = append(params, want)
	}
	if info.Shim.Variadic && len(info.Params) > 0 {
		elem := info.Params[len(info.Params)-1]
		lt := l.in.ListOf(elem)
		rest, err := l.display(false, info.VarArgs, lt)
		if err != nil {
			return Operand{}, err
		}
		args = append(args, rest)
		params = append(params, lt)
	}
	imp := l.importFor(info.Shim, params, ty)
	return l.call(Callee{Kind: CalleeImport, Import: imp}, ty, true, args), nil
}
