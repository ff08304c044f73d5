package ast

import "waspy/internal/source"

type StmtKind uint8

const (
	StmtExpr StmtKind = iota
	StmtAssign
	StmtAnnAssign
	StmtAugAssign
	StmtIf
	StmtWhile
	StmtFor
	StmtBreak
	StmtContinue
	StmtPass
	StmtReturn
	StmtRaise
	StmtTry
	StmtImport
	StmtImportFrom
	StmtGlobal
	StmtAssert
	StmtFuncDef
	StmtClassDef
)

var stmtKindNames = [...]string{
	StmtExpr: "expr", StmtAssign: "assign", StmtAnnAssign: "annassign", StmtAugAssign: "augassign",
	StmtIf: "if", StmtWhile: "while", StmtFor: "for", StmtBreak: "break", StmtContinue: "continue",
	StmtPass: "pass", StmtReturn: "return", StmtRaise: "raise", StmtTry: "try", StmtImport: "import",
	StmtImportFrom: "from-import", StmtGlobal: "global", StmtAssert: "assert", StmtFuncDef: "def",
	StmtClassDef: "class",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "stmt?"
}

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type ExprStmtData struct {
	X ExprID
}

// AssignData covers chained assignment: t1 = t2 = value.
type AssignData struct {
	Targets []ExprID
	Value   ExprID
}

type AnnAssignData struct {
	Target     ExprID
	Annotation ExprID
	Value      ExprID // NoExprID for a bare declaration
}

type AugAssignData struct {
	Target ExprID
	Op     BinaryOp
	Value  ExprID
}

// IfData: elif chains are nested IfData inside Else.
type IfData struct {
	Cond ExprID
	Body []StmtID
	Else []StmtID
}

type WhileData struct {
	Cond ExprID
	Body []StmtID
	Else []StmtID
}

type ForData struct {
	Target ExprID
	Iter   ExprID
	Body   []StmtID
	Else   []StmtID
}

type ReturnData struct {
	Value ExprID
}

type RaiseData struct {
	Exc ExprID // NoExprID re-raises the active exception
}

type ExceptHandler struct {
	Span     source.Span
	Type     ExprID // NoExprID for a bare except
	Name     string
	NameSpan source.Span
	Body     []StmtID
}

type TryData struct {
	Body     []StmtID
	Handlers []ExceptHandler
	Else     []StmtID
	Finally  []StmtID
}

// ImportName is one imported entity. For "import a.b as c" Name is "a.b";
// for "from m import x as y" Name is "x".
type ImportName struct {
	Name  string
	Alias string
	Span  source.Span
}

type ImportData struct {
	Names []ImportName
}

type ImportFromData struct {
	Module     string
	ModuleSpan source.Span
	Names      []ImportName
}

type GlobalData struct {
	Names []string
}

type AssertData struct {
	Test ExprID
	Msg  ExprID
}

type Param struct {
	Name       string
	Span       source.Span
	Annotation ExprID
	Default    ExprID
}

type FuncDefData struct {
	Name       string
	NameSpan   source.Span
	Params     []Param
	Returns    ExprID
	Body       []StmtID
	Decorators []ExprID
}

type ClassDefData struct {
	Name       string
	NameSpan   source.Span
	Bases      []ExprID
	Body       []StmtID
	Decorators []ExprID
}
