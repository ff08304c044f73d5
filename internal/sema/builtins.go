package sema

// Builtin enumerates the builtin functions understood by the resolver.
type Builtin uint8

const (
	BuiltinInvalid Builtin = iota
	BuiltinPrint
	BuiltinLen
	BuiltinInt
	BuiltinFloat
	BuiltinStr
	BuiltinBool
	BuiltinAbs
	BuiltinMin
	BuiltinMax
	BuiltinRange
	BuiltinSet
	BuiltinList
	BuiltinIsinstance
	BuiltinSum
	BuiltinRound
	BuiltinOrd
	BuiltinChr
	BuiltinRepr
)

var builtinNames = map[string]Builtin{
	"print": BuiltinPrint, "len": BuiltinLen, "int": BuiltinInt, "float": BuiltinFloat,
	"str": BuiltinStr, "bool": BuiltinBool, "abs": BuiltinAbs, "min": BuiltinMin,
	"max": BuiltinMax, "range": BuiltinRange, "set": BuiltinSet, "list": BuiltinList,
	"isinstance": BuiltinIsinstance, "sum": BuiltinSum, "round": BuiltinRound,
	"ord": BuiltinOrd, "chr": BuiltinChr, "repr": BuiltinRepr,
}

func (b Builtin) String() string {
	for name, v := range builtinNames {
		if v == b {
			return name
		}
	}
	return "builtin?"
}

// BuiltinMethod enumerates list and set methods implemented by the runtime.
type BuiltinMethod uint8

const (
	MethodInvalid BuiltinMethod = iota
	ListAppend
	ListPop
	ListExtend
	ListClear
	ListIndex
	ListCount
	ListCopy
	ListInsert
	ListReverse
	SetAdd
	SetDiscard
	SetRemove
	SetClear
	SetCopy
)

var listMethods = map[string]BuiltinMethod{
	"append": ListAppend, "pop": ListPop, "extend": ListExtend, "clear": ListClear,
	"index": ListIndex, "count": ListCount, "copy": ListCopy, "insert": ListInsert,
	"reverse": ListReverse,
}

var setMethods = map[string]BuiltinMethod{
	"add": SetAdd, "discard": SetDiscard, "remove": SetRemove, "clear": SetClear, "copy": SetCopy,
}

// Mutates reports methods that change their receiver in place.
func (m BuiltinMethod) Mutates() bool {
	switch m {
	case ListAppend, ListPop, ListExtend, ListClear, ListInsert, ListReverse,
		SetAdd, SetDiscard, SetRemove, SetClear:
		return true
	}
	return false
}

// Class ids of the builtin exception hierarchy. User classes start at FirstUserClassID.
const (
	ClassBaseException       uint32 = 1
	ClassException           uint32 = 2
	ClassArithmeticError     uint32 = 3
	ClassZeroDivisionError   uint32 = 4
	ClassOverflowError       uint32 = 5
	ClassValueError          uint32 = 6
	ClassTypeError           uint32 = 7
	ClassLookupError         uint32 = 8
	ClassIndexError          uint32 = 9
	ClassKeyError            uint32 = 10
	ClassRuntimeError        uint32 = 11
	ClassNotImplementedError uint32 = 12
	ClassAssertionError      uint32 = 13
	ClassAttributeError      uint32 = 14
	ClassOSError             uint32 = 15

	FirstUserClassID uint32 = 32
)

type builtinException struct {
	name   string
	id     uint32
	parent string
}

// BuiltinExceptions lists the hierarchy in declaration order (parents first).
var builtinExceptions = []builtinException{
	{"BaseException", ClassBaseException, ""},
	{"Exception", ClassException, "BaseException"},
	{"ArithmeticError", ClassArithmeticError, "Exception"},
	{"ZeroDivisionError", ClassZeroDivisionError, "ArithmeticError"},
	{"OverflowError", ClassOverflowError, "ArithmeticError"},
	{"ValueError", ClassValueError, "Exception"},
	{"TypeError", ClassTypeError, "Exception"},
	{"LookupError", ClassLookupError, "Exception"},
	{"IndexError", ClassIndexError, "LookupError"},
	{"KeyError", ClassKeyError, "LookupError"},
	{"RuntimeError", ClassRuntimeError, "Exception"},
	{"NotImplementedError", ClassNotImplementedError, "RuntimeError"},
	{"AssertionError", ClassAssertionError, "Exception"},
	{"AttributeError", ClassAttributeError, "Exception"},
	{"OSError", ClassOSError, "Exception"},
}

// BuiltinExceptionNames returns class id -> name for the builtin hierarchy.
func BuiltinExceptionNames() map[uint32]string {
	out := make(map[uint32]string, len(builtinExceptions))
	for _, e := range builtinExceptions {
		out[e.id] = e.name
	}
	return out
}
