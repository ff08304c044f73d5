package diag

// Kind is the user-visible error category of a diagnostic.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindSyntax
	KindName
	KindType
	KindCodeGen
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindName:
		return "NameError"
	case KindType:
		return "TypeError"
	case KindCodeGen:
		return "CodeGenError"
	}
	return "Error"
}

// Kind maps a code onto its error category.
func (c Code) Kind() Kind {
	switch ic := int(c); {
	case ic >= 1000 && ic < 3000:
		return KindSyntax
	case ic >= 3000 && ic < 3100:
		return KindName
	case ic >= 3100 && ic < 4000:
		return KindType
	case ic >= 4000 && ic < 5000:
		return KindCodeGen
	}
	return KindUnknown
}
