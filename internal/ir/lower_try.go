package ir

import (
	"waspy/internal/ast"
	"waspy/internal/rt"
	"waspy/internal/sema"
)

// unwind runs, innermost first, the finally bodies of the frames above
// depth, as return, break and continue leave them.
func (l *funcLowerer) unwind(depth int) {
	saved := l.frames
	for i := len(saved) - 1; i >= depth; i-- {
		if saved[i].kind != frameFinally {
			continue
		}
		l.frames = saved[:i]
		// errors surface again when the finally body is lowered on the normal path
		_ = l.block(saved[i].finally)
	}
	l.frames = saved
}

// raise makes exc the pending exception and transfers to the handler.
func (l *funcLowerer) raise(exc Operand) {
	l.emit(&Instr{Kind: InstrSetExc, SetExc: SetExcInstr{Value: exc}})
	l.jump(l.excTarget())
}

// raiseNew raises a builtin exception with a literal message.
func (l *funcLowerer) raiseNew(class uint32, msg string) {
	l.emit(&Instr{Kind: InstrCall, Call: CallInstr{
		Dst:    NoLocalID,
		Callee: Callee{Kind: CalleeRuntime, Runtime: rt.Raise},
		Args:   []Operand{l.intConst(int64(class)), l.strConst(msg)},
	}})
	l.jump(l.excTarget())
}

func (l *funcLowerer) raiseStmt(d *ast.RaiseData) error {
	if d.Exc == ast.NoExprID {
		if len(l.active) == 0 {
			return internalf(l.f.Name, "bare raise outside of a handler")
		}
		exc := l.active[len(l.active)-1]
		l.raise(LocalOperand(exc, l.f.Locals[exc].Type))
		return nil
	}
	exc, err := l.expr(d.Exc)
	if err != nil {
		return err
	}
	l.raise(exc)
	return nil
}

func (l *funcLowerer) assertStmt(d *ast.AssertData) error {
	cond, err := l.truthOf(d.Test)
	if err != nil {
		return err
	}
	ok, fail := l.newBlock(), l.newBlock()
	l.branch(cond, ok, fail)
	l.startBlock(fail)
	msg := l.strConst("")
	if d.Msg != ast.NoExprID {
		v, err := l.expr(d.Msg)
		if err != nil {
			return err
		}
		msg = l.toStr(v)
	}
	exc := l.value(RValue{Kind: RValueAlloc, Class: sema.ClassAssertionError, Size: excRecordSize}, l.builtinClassType(sema.ClassAssertionError), "exc")
	l.setField(exc, excMessageOffset, msg)
	l.raise(exc)
	l.startBlock(ok)
	return nil
}

// tryStmt lowers
//
//	try: B except ...: H else: E finally: F
//
// B runs under the handler frame, E and every H under the finally frame.
// F is copied onto the normal exit, the exception edge and every return,
// break and continue leaving the statement.
func (l *funcLowerer) tryStmt(id ast.StmtID, d *ast.TryData) error {
	hasFinally := len(d.Finally) > 0
	after := l.newBlock()
	var finLanding, dispatch BlockID = NoBlockID, NoBlockID
	base := len(l.frames)
	if hasFinally {
		finLanding = l.newBlock()
		l.frames = append(l.frames, frame{kind: frameFinally, landing: finLanding, finally: d.Finally})
	}
	if len(d.Handlers) > 0 {
		dispatch = l.newBlock()
		l.frames = append(l.frames, frame{kind: frameHandler, landing: dispatch})
	}

	if err := l.block(d.Body); err != nil {
		return err
	}
	if len(d.Handlers) > 0 {
		l.frames = l.frames[:len(l.frames)-1]
	}
	if err := l.block(d.Else); err != nil {
		return err
	}
	normal := l.newBlock()
	l.jump(normal)

	if dispatch != NoBlockID {
		l.startBlock(dispatch)
		if err := l.dispatch(id, d, normal); err != nil {
			return err
		}
	}

	l.frames = l.frames[:base]
	if hasFinally {
		l.startBlock(finLanding)
		exc := l.value(RValue{Kind: RValueTakeExc}, l.builtinClassType(sema.ClassBaseException), "exc")
		if err := l.block(d.Finally); err != nil {
			return err
		}
		l.raise(exc)
	}

	l.startBlock(normal)
	if hasFinally {
		if err := l.block(d.Finally); err != nil {
			return err
		}
	}
	l.jump(after)
	l.startBlock(after)
	return nil
}

// dispatch tests the caught exception against each handler in order.
// An exception no handler matches is raised again outward.
func (l *funcLowerer) dispatch(id ast.StmtID, d *ast.TryData, done BlockID) error {
	exc := l.temp(l.builtinClassType(sema.ClassBaseException), "exc")
	l.emit(&Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: exc, Src: RValue{Kind: RValueTakeExc}}})
	excOp := LocalOperand(exc, l.f.Locals[exc].Type)
	for i, h := range d.Handlers {
		body, next := l.newBlock(), l.newBlock()
		if h.Type == ast.NoExprID {
			l.jump(body)
		} else {
			classes := l.res.ExceptTypes[h.Type]
			for _, ct := range classes {
				test := l.newBlock()
				class := l.classID(ct)
				match := l.value(RValue{Kind: RValueIsInstance, X: excOp, Class: class}, l.b.Bool, "match")
				l.branch(match, body, test)
				l.startBlock(test)
			}
			l.jump(next)
		}

		l.startBlock(body)
		if symID, ok := l.res.HandlerVars[sema.HandlerKey{Stmt: id, Index: i}]; ok {
			l.storeSym(symID, excOp)
		}
		l.active = append(l.active, exc)
		err := l.block(h.Body)
		l.active = l.active[:len(l.active)-1]
		if err != nil {
			return err
		}
		l.jump(done)
		l.startBlock(next)
	}
	l.raise(excOp)
	return nil
}
