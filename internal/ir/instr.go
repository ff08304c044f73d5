package ir

import (
	"waspy/internal/rt"
	"waspy/internal/types"
)

// InstrKind enumerates instruction kinds.
type InstrKind uint8

const (
	// InstrAssign evaluates an rvalue into a local.
	InstrAssign InstrKind = iota
	// InstrCall calls a user function, an import or a runtime helper.
	InstrCall
	// InstrStoreGlobal writes a module or class variable.
	InstrStoreGlobal
	// InstrSetField stores into a record field or a container slot.
	InstrSetField
	// InstrSetExc makes a value the pending exception.
	InstrSetExc
)

// Instr is one IR instruction.
type Instr struct {
	Kind InstrKind

	Assign      AssignInstr
	Call        CallInstr
	StoreGlobal StoreGlobalInstr
	SetField    SetFieldInstr
	SetExc      SetExcInstr
}

type AssignInstr struct {
	Dst LocalID
	Src RValue
}

type CalleeKind uint8

const (
	CalleeFunc CalleeKind = iota
	CalleeImport
	CalleeRuntime
	CalleeHost
)

type Callee struct {
	Kind    CalleeKind
	Func    FuncID
	Import  ImportID
	Runtime rt.Func
	Host    rt.Host
}

type CallInstr struct {
	HasDst bool
	Dst    LocalID
	Callee Callee
	Args   []Operand
}

type StoreGlobalInstr struct {
	Global GlobalID
	Value  Operand
}

// SetFieldInstr stores Value at Object+Offset. Container slots are set
// through the address returned by the slot helper with offset zero.
type SetFieldInstr struct {
	Object Operand
	Offset uint32
	Value  Operand
}

type SetExcInstr struct {
	Value Operand
}

type RValueKind uint8

const (
	RValueUse RValueKind = iota
	RValueUnary
	RValueBinary
	// RValueConvert changes the representation of X to the type To.
	RValueConvert
	// RValueTruth is the Python truth value of X.
	RValueTruth
	RValueLoadGlobal
	// RValueField loads the slot at X+Offset as the destination type.
	RValueField
	// RValueAlloc allocates a zeroed record of Class.
	RValueAlloc
	// RValueBox wraps a primitive X for an untyped shim parameter.
	RValueBox
	// RValueTakeExc reads and clears the pending exception.
	RValueTakeExc
	RValueIsInstance
	RValueLen
)

type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpMin
	OpMax

	OpNeg
	OpNot
	OpInvert
	OpAbs
)

var opNames = [...]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpAnd: "and", OpOr: "or",
	OpXor: "xor", OpShl: "shl", OpShr: "shr", OpEq: "eq", OpNe: "ne", OpLt: "lt", OpLe: "le",
	OpGt: "gt", OpGe: "ge", OpMin: "min", OpMax: "max", OpNeg: "neg", OpNot: "not",
	OpInvert: "invert", OpAbs: "abs",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "op?"
}

// IsCompare reports ops producing a bool.
func (op Op) IsCompare() bool {
	return op >= OpEq && op <= OpGe
}

type RValue struct {
	Kind RValueKind
	Op   Op
	X, Y Operand
	To   types.TypeID

	Global GlobalID
	Offset uint32
	Class  uint32
	Size   uint32
}

// Operands lists the operands read by rv.
func (rv *RValue) Operands() []Operand {
	switch rv.Kind {
	case RValueUse, RValueUnary, RValueConvert, RValueTruth, RValueField, RValueBox, RValueIsInstance, RValueLen:
		return []Operand{rv.X}
	case RValueBinary:
		return []Operand{rv.X, rv.Y}
	}
	return nil
}
