package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// лексические
	LexInfo               Code = 1000
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003
	LexIntOverflow        Code = 1004
	LexBadIndent          Code = 1005
	LexBadEscape          Code = 1006
	LexBadPrefix          Code = 1007
	LexBadFString         Code = 1008
	LexTabsMixed          Code = 1009

	// синтаксические
	SynInfo               Code = 2000
	SynUnexpectedToken    Code = 2001
	SynUnclosedDelimiter  Code = 2002
	SynExpectIndent       Code = 2003
	SynUnsupported        Code = 2004
	SynBadAssignTarget    Code = 2005
	SynExpectExpr         Code = 2006
	SynDefaultOrder       Code = 2007
	SynBreakOutsideLoop   Code = 2008
	SynReturnOutsideFunc  Code = 2009
	SynDuplicateParam     Code = 2010
	SynGlobalOutsideFunc  Code = 2011
	SynKeywordArgRepeated Code = 2012
	SynPositionalAfterKw  Code = 2013

	// имена
	NameInfo            Code = 3000
	NameUndefined       Code = 3001
	NameDuplicate       Code = 3002
	NameUnbound         Code = 3003
	NameUnknownModule   Code = 3004
	NameUnknownImport   Code = 3005
	NameGlobalAfterUse  Code = 3006
	NameUnknownBuiltin  Code = 3007
	NameShadowedBuiltin Code = 3008

	// типы
	TypeInfo              Code = 3100
	TypeMismatch          Code = 3101
	TypeBadOperand        Code = 3102
	TypeArity             Code = 3103
	TypeBadKeyword        Code = 3104
	TypeNotCallable       Code = 3105
	TypeUnknownAttr       Code = 3106
	TypeCannotInfer       Code = 3107
	TypeReassign          Code = 3108
	TypeUnsupported       Code = 3109
	TypeReturnMismatch    Code = 3110
	TypeBadRaise          Code = 3111
	TypeBadExceptClass    Code = 3112
	TypeBadDefault        Code = 3113
	TypeBadIndex          Code = 3114
	TypeNotIterable       Code = 3115
	TypeFirstClassFunc    Code = 3116
	TypeBadBase           Code = 3117
	TypeBadAnnotation     Code = 3118
	TypeMissingReturn     Code = 3119
	TypeHeterogeneousList Code = 3120

	// кодогенерация
	GenInfo          Code = 4000
	GenTooManyLocals Code = 4001
	GenMemoryLimit   Code = 4002
	GenBodyTooLarge  Code = 4003
	GenInternal      Code = 4004
	GenTooManyFuncs  Code = 4005
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	LexInfo:               "Lexical information",
	LexUnknownChar:        "Unexpected character",
	LexUnterminatedString: "Unterminated string literal",
	LexBadNumber:          "Invalid number literal",
	LexIntOverflow:        "Integer literal does not fit in 64 bits",
	LexBadIndent:          "Inconsistent indentation",
	LexBadEscape:          "Invalid escape sequence",
	LexBadPrefix:          "Invalid string prefix",
	LexBadFString:         "Malformed f-string",
	LexTabsMixed:          "Tabs and spaces mixed ambiguously",

	SynInfo:               "Syntax information",
	SynUnexpectedToken:    "Unexpected token",
	SynUnclosedDelimiter:  "Unclosed delimiter",
	SynExpectIndent:       "Expected an indented block",
	SynUnsupported:        "Unsupported syntax",
	SynBadAssignTarget:    "Invalid assignment target",
	SynExpectExpr:         "Expected expression",
	SynDefaultOrder:       "Non-default parameter follows default parameter",
	SynBreakOutsideLoop:   "Loop control outside of a loop",
	SynReturnOutsideFunc:  "'return' outside function",
	SynDuplicateParam:     "Duplicate parameter name",
	SynGlobalOutsideFunc:  "'global' at module level",
	SynKeywordArgRepeated: "Keyword argument repeated",
	SynPositionalAfterKw:  "Positional argument follows keyword argument",

	NameInfo:            "Name information",
	NameUndefined:       "Name is not defined",
	NameDuplicate:       "Duplicate declaration",
	NameUnbound:         "Local variable referenced before assignment",
	NameUnknownModule:   "Unknown module",
	NameUnknownImport:   "Cannot import name",
	NameGlobalAfterUse:  "Name used prior to global declaration",
	NameUnknownBuiltin:  "Unsupported builtin",
	NameShadowedBuiltin: "Builtin shadowed by declaration",

	TypeInfo:              "Type information",
	TypeMismatch:          "Type mismatch",
	TypeBadOperand:        "Unsupported operand types",
	TypeArity:             "Wrong number of arguments",
	TypeBadKeyword:        "Unexpected keyword argument",
	TypeNotCallable:       "Object is not callable",
	TypeUnknownAttr:       "Unknown attribute",
	TypeCannotInfer:       "Cannot infer type",
	TypeReassign:          "Incompatible reassignment",
	TypeUnsupported:       "Unsupported construct",
	TypeReturnMismatch:    "Return type mismatch",
	TypeBadRaise:          "Exceptions must derive from BaseException",
	TypeBadExceptClass:    "Handler type is not an exception class",
	TypeBadDefault:        "Default value must be a constant",
	TypeBadIndex:          "Invalid subscript",
	TypeNotIterable:       "Object is not iterable",
	TypeFirstClassFunc:    "Functions are not first-class values",
	TypeBadBase:           "Invalid base class",
	TypeBadAnnotation:     "Invalid type annotation",
	TypeMissingReturn:     "Missing return value",
	TypeHeterogeneousList: "Collection elements have incompatible types",

	GenInfo:          "Code generation information",
	GenTooManyLocals: "Too many locals in function",
	GenMemoryLimit:   "Static data exceeds memory limit",
	GenBodyTooLarge:  "Function body too large",
	GenInternal:      "Internal code generation error",
	GenTooManyFuncs:  "Too many functions in module",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 3100:
		return fmt.Sprintf("NAM%04d", ic)
	case ic >= 3100 && ic < 4000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	if desc, ok := codeDescription[c]; ok {
		return desc
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
