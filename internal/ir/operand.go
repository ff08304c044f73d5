package ir

import "waspy/internal/types"

type OperandKind uint8

const (
	OperandLocal OperandKind = iota
	OperandConst
)

// Operand is a local or a constant of a known type.
type Operand struct {
	Kind  OperandKind
	Local LocalID
	Const Const
	Type  types.TypeID
}

type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
	// ConstNone is the zero value of its operand type: None, or a null reference.
	ConstNone
	ConstStr
	ConstBytes
)

type Const struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Bool  bool
	Str   string // str and bytes contents
}

func LocalOperand(id LocalID, ty types.TypeID) Operand {
	return Operand{Kind: OperandLocal, Local: id, Type: ty}
}

func ConstOperand(c Const, ty types.TypeID) Operand {
	return Operand{Kind: OperandConst, Local: NoLocalID, Const: c, Type: ty}
}

func IntConst(v int64) Const     { return Const{Kind: ConstInt, Int: v} }
func FloatConst(v float64) Const { return Const{Kind: ConstFloat, Float: v} }
func BoolConst(v bool) Const     { return Const{Kind: ConstBool, Bool: v} }
func StrConst(s string) Const    { return Const{Kind: ConstStr, Str: s} }

// IsConst reports a constant operand of kind k.
func (o Operand) IsConst(k ConstKind) bool {
	return o.Kind == OperandConst && o.Const.Kind == k
}
