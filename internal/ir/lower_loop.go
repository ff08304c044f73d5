package ir

import (
	"waspy/internal/ast"
	"waspy/internal/rt"
	"waspy/internal/sema"
	"waspy/internal/types"
)

func (l *funcLowerer) pushLoop(brk, cont BlockID) {
	l.loops = append(l.loops, loopCtx{brk: brk, cont: cont, depth: len(l.frames)})
}

func (l *funcLowerer) popLoop() {
	l.loops = l.loops[:len(l.loops)-1]
}

// loopTail lowers the else clause on the normal exit and joins at after.
func (l *funcLowerer) loopTail(exit, after BlockID, els []ast.StmtID) error {
	l.startBlock(exit)
	if err := l.block(els); err != nil {
		return err
	}
	l.jump(after)
	l.startBlock(after)
	return nil
}

func (l *funcLowerer) whileStmt(d *ast.WhileData) error {
	head, body, exit, after := l.newBlock(), l.newBlock(), l.newBlock(), l.newBlock()
	l.jump(head)
	l.startBlock(head)
	cond, err := l.truthOf(d.Cond)
	if err != nil {
		return err
	}
	l.branch(cond, body, exit)

	l.startBlock(body)
	l.pushLoop(after, head)
	err = l.block(d.Body)
	l.popLoop()
	if err != nil {
		return err
	}
	l.jump(head)
	return l.loopTail(exit, after, d.Else)
}

func (l *funcLowerer) forStmt(d *ast.ForData) error {
	if info := l.res.Calls[d.Iter]; info != nil && info.Kind == sema.CallBuiltin && info.Builtin == sema.BuiltinRange {
		return l.forRange(d, info)
	}
	iter, err := l.expr(d.Iter)
	if err != nil {
		return err
	}
	elem := l.b.Str
	switch l.in.KindOf(iter.Type) {
	case types.KindList, types.KindSet:
		elem = l.in.Elem(iter.Type)
	case types.KindStr:
		iter = l.callRT(rt.StrChars, l.in.ListOf(l.b.Str), iter)
	case types.KindBytes:
		elem = l.b.Int
		iter = l.callRT(rt.BytesList, l.in.ListOf(l.b.Int), iter)
	default:
		return internalf(l.f.Name, "cannot iterate %s", l.in.TypeString(iter.Type))
	}
	iter = l.spill(iter)
	k := l.temp(l.b.Int, "k")
	l.assign(k, l.intConst(0))
	kOp := LocalOperand(k, l.b.Int)

	head, body, step, exit, after := l.newBlock(), l.newBlock(), l.newBlock(), l.newBlock(), l.newBlock()
	l.jump(head)
	l.startBlock(head)
	// the length is read every round; the body may grow the list
	n := l.value(RValue{Kind: RValueLen, X: iter}, l.b.Int, "n")
	more := l.value(RValue{Kind: RValueBinary, Op: OpLt, X: kOp, Y: n}, l.b.Bool, "more")
	l.branch(more, body, exit)

	l.startBlock(body)
	addr := l.callRT(rt.SeqSlot, l.word(), iter, kOp)
	v := l.value(RValue{Kind: RValueField, X: addr}, elem, "item")
	if err := l.assignTo(d.Target, v); err != nil {
		return err
	}
	l.pushLoop(after, step)
	err = l.block(d.Body)
	l.popLoop()
	if err != nil {
		return err
	}
	l.jump(step)

	l.startBlock(step)
	l.emit(&Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: k, Src: RValue{Kind: RValueBinary, Op: OpAdd, X: kOp, Y: l.intConst(1)}}})
	l.jump(head)
	return l.loopTail(exit, after, d.Else)
}

// forRange counts a private counter from start towards stop and assigns
// the target from it each round, so the body cannot disturb the loop.
func (l *funcLowerer) forRange(d *ast.ForData, info *sema.CallInfo) error {
	args := make([]Operand, len(info.Args))
	for i, a := range info.Args {
		v, err := l.exprAs(a, l.b.Int)
		if err != nil {
			return err
		}
		args[i] = l.spill(v)
	}
	start, stop, stepBy := l.intConst(0), l.intConst(0), l.intConst(1)
	switch len(args) {
	case 1:
		stop = args[0]
	case 2:
		start, stop = args[0], args[1]
	case 3:
		start, stop, stepBy = args[0], args[1], args[2]
	default:
		return internalf(l.f.Name, "range() with %d arguments", len(args))
	}

	if stepBy.IsConst(ConstInt) && stepBy.Const.Int == 0 {
		l.raiseNew(sema.ClassValueError, "range() arg 3 must not be zero")
		l.startBlock(l.newBlock())
	} else if stepBy.Kind == OperandLocal {
		zero := l.value(RValue{Kind: RValueBinary, Op: OpEq, X: stepBy, Y: l.intConst(0)}, l.b.Bool, "zero")
		bad, ok := l.newBlock(), l.newBlock()
		l.branch(zero, bad, ok)
		l.startBlock(bad)
		l.raiseNew(sema.ClassValueError, "range() arg 3 must not be zero")
		l.startBlock(ok)
	}

	i := l.temp(l.b.Int, "i")
	l.assign(i, start)
	iOp := LocalOperand(i, l.b.Int)

	head, body, step, exit, after := l.newBlock(), l.newBlock(), l.newBlock(), l.newBlock(), l.newBlock()
	l.jump(head)
	l.startBlock(head)
	var more Operand
	switch {
	case stepBy.IsConst(ConstInt) && stepBy.Const.Int > 0:
		more = l.value(RValue{Kind: RValueBinary, Op: OpLt, X: iOp, Y: stop}, l.b.Bool, "more")
	case stepBy.IsConst(ConstInt):
		more = l.value(RValue{Kind: RValueBinary, Op: OpGt, X: iOp, Y: stop}, l.b.Bool, "more")
	default:
		up := l.value(RValue{Kind: RValueBinary, Op: OpGt, X: stepBy, Y: l.intConst(0)}, l.b.Bool, "up")
		below := l.value(RValue{Kind: RValueBinary, Op: OpLt, X: iOp, Y: stop}, l.b.Bool, "below")
		above := l.value(RValue{Kind: RValueBinary, Op: OpGt, X: iOp, Y: stop}, l.b.Bool, "above")
		upOk := l.value(RValue{Kind: RValueBinary, Op: OpAnd, X: up, Y: below}, l.b.Bool, "more")
		down := l.value(RValue{Kind: RValueUnary, Op: OpNot, X: up}, l.b.Bool, "down")
		downOk := l.value(RValue{Kind: RValueBinary, Op: OpAnd, X: down, Y: above}, l.b.Bool, "more")
		more = l.value(RValue{Kind: RValueBinary, Op: OpOr, X: upOk, Y: downOk}, l.b.Bool, "more")
	}
	l.branch(more, body, exit)

	l.startBlock(body)
	if err := l.assignTo(d.Target, iOp); err != nil {
		return err
	}
	l.pushLoop(after, step)
	err := l.block(d.Body)
	l.popLoop()
	if err != nil {
		return err
	}
	l.jump(step)

	l.startBlock(step)
	l.emit(&Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: i, Src: RValue{Kind: RValueBinary, Op: OpAdd, X: iOp, Y: stepBy}}})
	l.jump(head)
	return l.loopTail(exit, after, d.Else)
}
