package ast

import "waspy/internal/source"

type ExprKind uint8

const (
	ExprName ExprKind = iota
	ExprInt
	ExprFloat
	ExprStr
	ExprBytes
	ExprBool
	ExprNone
	ExprFString
	ExprBinary
	ExprUnary
	ExprBoolOp
	ExprCompare
	ExprCall
	ExprAttr
	ExprIndex
	ExprSlice
	ExprList
	ExprSet
	ExprDict
	ExprTuple
	ExprTernary
)

var exprKindNames = [...]string{
	ExprName: "name", ExprInt: "int", ExprFloat: "float", ExprStr: "str", ExprBytes: "bytes",
	ExprBool: "bool", ExprNone: "None", ExprFString: "f-string", ExprBinary: "binary",
	ExprUnary: "unary", ExprBoolOp: "boolop", ExprCompare: "compare", ExprCall: "call",
	ExprAttr: "attribute", ExprIndex: "subscript", ExprSlice: "slice", ExprList: "list",
	ExprSet: "set", ExprDict: "dict", ExprTuple: "tuple", ExprTernary: "ternary",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "expr?"
}

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinFloorDiv
	BinMod
	BinPow
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinMatMul
)

var binaryOpText = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinFloorDiv: "//", BinMod: "%",
	BinPow: "**", BinBitAnd: "&", BinBitOr: "|", BinBitXor: "^", BinShl: "<<", BinShr: ">>",
	BinMatMul: "@",
}

func (op BinaryOp) String() string { return binaryOpText[op] }

type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryPos
	UnaryNot
	UnaryInvert
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryNeg:
		return "-"
	case UnaryPos:
		return "+"
	case UnaryNot:
		return "not"
	default:
		return "~"
	}
}

type BoolOp uint8

const (
	BoolAnd BoolOp = iota
	BoolOr
)

func (op BoolOp) String() string {
	if op == BoolAnd {
		return "and"
	}
	return "or"
}

type CmpOp uint8

const (
	CmpEq CmpOp = iota
	CmpNotEq
	CmpLt
	CmpLtEq
	CmpGt
	CmpGtEq
	CmpIn
	CmpNotIn
	CmpIs
	CmpIsNot
)

var cmpOpText = [...]string{
	CmpEq: "==", CmpNotEq: "!=", CmpLt: "<", CmpLtEq: "<=", CmpGt: ">", CmpGtEq: ">=",
	CmpIn: "in", CmpNotIn: "not in", CmpIs: "is", CmpIsNot: "is not",
}

func (op CmpOp) String() string { return cmpOpText[op] }

type NameData struct {
	Name string
}

// LitData holds the value of Int, Float, Str, Bytes and Bool literals.
type LitData struct {
	Int   int64
	Float float64
	Str   string // str and bytes contents
	Bool  bool
}

// FStringPart is either literal text (Expr == NoExprID) or a replacement field.
type FStringPart struct {
	Lit  string
	Expr ExprID
}

type FStringData struct {
	Parts []FStringPart
}

type BinaryData struct {
	Op          BinaryOp
	Left, Right ExprID
}

type UnaryData struct {
	Op      UnaryOp
	Operand ExprID
}

type BoolOpData struct {
	Op          BoolOp
	Left, Right ExprID
}

// CompareData is a comparison chain: Left Ops[0] Rights[0] Ops[1] Rights[1] ...
type CompareData struct {
	Left   ExprID
	Ops    []CmpOp
	Rights []ExprID
}

type Keyword struct {
	Name  string
	Span  source.Span
	Value ExprID
}

type CallData struct {
	Func     ExprID
	Args     []ExprID
	Keywords []Keyword
}

type AttrData struct {
	Target   ExprID
	Name     string
	NameSpan source.Span
}

type IndexData struct {
	Target, Index ExprID
}

// SliceData describes target[lower:upper:step]; absent bounds are NoExprID.
type SliceData struct {
	Target, Lower, Upper, Step ExprID
}

// SeqData backs list, set and tuple displays.
type SeqData struct {
	Elems []ExprID
}

type DictData struct {
	Keys, Values []ExprID
}

type TernaryData struct {
	Cond, Then, Else ExprID
}
