package ir

type TermKind uint8

const (
	TermNone TermKind = iota
	TermGoto
	TermIf
	TermReturn
	// TermCheckExc branches to Err when an exception is pending.
	TermCheckExc
	TermUnreachable
)

type Terminator struct {
	Kind TermKind

	Goto     GotoTerm
	If       IfTerm
	Return   ReturnTerm
	CheckExc CheckExcTerm
}

type GotoTerm struct {
	Target BlockID
}

type IfTerm struct {
	Cond Operand
	Then BlockID
	Else BlockID
}

// ReturnTerm leaves the function. An exceptional return propagates the
// pending exception and yields the zero value of the result type.
type ReturnTerm struct {
	HasValue    bool
	Value       Operand
	Exceptional bool
}

type CheckExcTerm struct {
	Ok  BlockID
	Err BlockID
}

// Successors lists the blocks t may transfer control to.
func (t *Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermGoto:
		return []BlockID{t.Goto.Target}
	case TermIf:
		return []BlockID{t.If.Then, t.If.Else}
	case TermCheckExc:
		return []BlockID{t.CheckExc.Ok, t.CheckExc.Err}
	}
	return nil
}

// remap rewrites every successor through fn.
func (t *Terminator) remap(fn func(BlockID) BlockID) {
	switch t.Kind {
	case TermGoto:
		t.Goto.Target = fn(t.Goto.Target)
	case TermIf:
		t.If.Then = fn(t.If.Then)
		t.If.Else = fn(t.If.Else)
	case TermCheckExc:
		t.CheckExc.Ok = fn(t.CheckExc.Ok)
		t.CheckExc.Err = fn(t.CheckExc.Err)
	}
}
