package ast

import "waspy/internal/source"

// Stmts manages allocation of statements and their payloads.
type Stmts struct {
	Arena      *Arena[Stmt]
	Exprs      *Arena[ExprStmtData]
	Assigns    *Arena[AssignData]
	AnnAssigns *Arena[AnnAssignData]
	AugAssigns *Arena[AugAssignData]
	Ifs        *Arena[IfData]
	Whiles     *Arena[WhileData]
	Fors       *Arena[ForData]
	Returns    *Arena[ReturnData]
	Raises     *Arena[RaiseData]
	Tries      *Arena[TryData]
	Imports    *Arena[ImportData]
	FromImps   *Arena[ImportFromData]
	Globals    *Arena[GlobalData]
	Asserts    *Arena[AssertData]
	Funcs      *Arena[FuncDefData]
	Classes    *Arena[ClassDefData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Stmts{
		Arena:      NewArena[Stmt](capHint),
		Exprs:      NewArena[ExprStmtData](capHint / 2),
		Assigns:    NewArena[AssignData](capHint / 2),
		AnnAssigns: NewArena[AnnAssignData](0),
		AugAssigns: NewArena[AugAssignData](0),
		Ifs:        NewArena[IfData](0),
		Whiles:     NewArena[WhileData](0),
		Fors:       NewArena[ForData](0),
		Returns:    NewArena[ReturnData](0),
		Raises:     NewArena[RaiseData](0),
		Tries:      NewArena[TryData](0),
		Imports:    NewArena[ImportData](0),
		FromImps:   NewArena[ImportFromData](0),
		Globals:    NewArena[GlobalData](0),
		Asserts:    NewArena[AssertData](0),
		Funcs:      NewArena[FuncDefData](0),
		Classes:    NewArena[ClassDefData](0),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{Kind: kind, Span: span, Payload: PayloadID(payload)}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func stmtPayload[T any](s *Stmts, a *Arena[T], id StmtID, kind StmtKind) (*T, bool) {
	st := s.Get(id)
	if st == nil || st.Kind != kind {
		return nil, false
	}
	return a.Get(uint32(st.Payload)), true
}

// NewSimple creates payload-free statements: break, continue, pass.
func (s *Stmts) NewSimple(kind StmtKind, span source.Span) StmtID {
	return s.new(kind, span, 0)
}

func (s *Stmts) NewExpr(span source.Span, x ExprID) StmtID {
	return s.new(StmtExpr, span, s.Exprs.Allocate(ExprStmtData{X: x}))
}

func (s *Stmts) Expr(id StmtID) (*ExprStmtData, bool) {
	return stmtPayload(s, s.Exprs, id, StmtExpr)
}

func (s *Stmts) NewAssign(span source.Span, targets []ExprID, value ExprID) StmtID {
	return s.new(StmtAssign, span, s.Assigns.Allocate(AssignData{Targets: targets, Value: value}))
}

func (s *Stmts) Assign(id StmtID) (*AssignData, bool) {
	return stmtPayload(s, s.Assigns, id, StmtAssign)
}

func (s *Stmts) NewAnnAssign(span source.Span, target, annotation, value ExprID) StmtID {
	return s.new(StmtAnnAssign, span, s.AnnAssigns.Allocate(AnnAssignData{Target: target, Annotation: annotation, Value: value}))
}

func (s *Stmts) AnnAssign(id StmtID) (*AnnAssignData, bool) {
	return stmtPayload(s, s.AnnAssigns, id, StmtAnnAssign)
}

func (s *Stmts) NewAugAssign(span source.Span, target ExprID, op BinaryOp, value ExprID) StmtID {
	return s.new(StmtAugAssign, span, s.AugAssigns.Allocate(AugAssignData{Target: target, Op: op, Value: value}))
}

func (s *Stmts) AugAssign(id StmtID) (*AugAssignData, bool) {
	return stmtPayload(s, s.AugAssigns, id, StmtAugAssign)
}

func (s *Stmts) NewIf(span source.Span, data IfData) StmtID {
	return s.new(StmtIf, span, s.Ifs.Allocate(data))
}

func (s *Stmts) If(id StmtID) (*IfData, bool) {
	return stmtPayload(s, s.Ifs, id, StmtIf)
}

func (s *Stmts) NewWhile(span source.Span, data WhileData) StmtID {
	return s.new(StmtWhile, span, s.Whiles.Allocate(data))
}

func (s *Stmts) While(id StmtID) (*WhileData, bool) {
	return stmtPayload(s, s.Whiles, id, StmtWhile)
}

func (s *Stmts) NewFor(span source.Span, data ForData) StmtID {
	return s.new(StmtFor, span, s.Fors.Allocate(data))
}

func (s *Stmts) For(id StmtID) (*ForData, bool) {
	return stmtPayload(s, s.Fors, id, StmtFor)
}

func (s *Stmts) NewReturn(span source.Span, value ExprID) StmtID {
	return s.new(StmtReturn, span, s.Returns.Allocate(ReturnData{Value: value}))
}

func (s *Stmts) Return(id StmtID) (*ReturnData, bool) {
	return stmtPayload(s, s.Returns, id, StmtReturn)
}

func (s *Stmts) NewRaise(span source.Span, exc ExprID) StmtID {
	return s.new(StmtRaise, span, s.Raises.Allocate(RaiseData{Exc: exc}))
}

func (s *Stmts) Raise(id StmtID) (*RaiseData, bool) {
	return stmtPayload(s, s.Raises, id, StmtRaise)
}

func (s *Stmts) NewTry(span source.Span, data TryData) StmtID {
	return s.new(StmtTry, span, s.Tries.Allocate(data))
}

func (s *Stmts) Try(id StmtID) (*TryData, bool) {
	return stmtPayload(s, s.Tries, id, StmtTry)
}

func (s *Stmts) NewImport(span source.Span, names []ImportName) StmtID {
	return s.new(StmtImport, span, s.Imports.Allocate(ImportData{Names: names}))
}

func (s *Stmts) Import(id StmtID) (*ImportData, bool) {
	return stmtPayload(s, s.Imports, id, StmtImport)
}

func (s *Stmts) NewImportFrom(span source.Span, data ImportFromData) StmtID {
	return s.new(StmtImportFrom, span, s.FromImps.Allocate(data))
}

func (s *Stmts) ImportFrom(id StmtID) (*ImportFromData, bool) {
	return stmtPayload(s, s.FromImps, id, StmtImportFrom)
}

func (s *Stmts) NewGlobal(span source.Span, names []string) StmtID {
	return s.new(StmtGlobal, span, s.Globals.Allocate(GlobalData{Names: names}))
}

func (s *Stmts) Global(id StmtID) (*GlobalData, bool) {
	return stmtPayload(s, s.Globals, id, StmtGlobal)
}

func (s *Stmts) NewAssert(span source.Span, test, msg ExprID) StmtID {
	return s.new(StmtAssert, span, s.Asserts.Allocate(AssertData{Test: test, Msg: msg}))
}

func (s *Stmts) Assert(id StmtID) (*AssertData, bool) {
	return stmtPayload(s, s.Asserts, id, StmtAssert)
}

func (s *Stmts) NewFuncDef(span source.Span, data FuncDefData) StmtID {
	return s.new(StmtFuncDef, span, s.Funcs.Allocate(data))
}

func (s *Stmts) FuncDef(id StmtID) (*FuncDefData, bool) {
	return stmtPayload(s, s.Funcs, id, StmtFuncDef)
}

func (s *Stmts) NewClassDef(span source.Span, data ClassDefData) StmtID {
	return s.new(StmtClassDef, span, s.Classes.Allocate(data))
}

func (s *Stmts) ClassDef(id StmtID) (*ClassDefData, bool) {
	return stmtPayload(s, s.Classes, id, StmtClassDef)
}
