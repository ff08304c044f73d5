package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates the closed set of type variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindUnresolved is the inference placeholder; it never survives a successful resolution.
	KindUnresolved
	KindNone
	KindBool
	KindInt
	KindFloat
	KindStr
	KindBytes
	KindList
	KindSet
	KindRecord
	KindFunc
	KindExternal
	// KindAny only appears in shim signatures (json values, logging payloads).
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnresolved:
		return "unresolved"
	case KindNone:
		return "None"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindRecord:
		return "record"
	case KindFunc:
		return "function"
	case KindExternal:
		return "external"
	case KindAny:
		return "any"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // list and set element
	Payload uint32 // index into record/function/external side tables
}
