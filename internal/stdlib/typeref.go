package stdlib

import "strings"

// TypeRef spells a type in shim signatures: int, float, bool, str, bytes,
// None, any, list[T], set[T] or a qualified external name such as
// datetime.timedelta.
type TypeRef string

const (
	Int   TypeRef = "int"
	Float TypeRef = "float"
	Bool  TypeRef = "bool"
	Str   TypeRef = "str"
	Bytes TypeRef = "bytes"
	None  TypeRef = "None"
	Any   TypeRef = "any"
)

func ListOf(elem TypeRef) TypeRef { return "list[" + elem + "]" }
func SetOf(elem TypeRef) TypeRef  { return "set[" + elem + "]" }

// Container splits list[T]/set[T] into its head and element.
func (r TypeRef) Container() (head string, elem TypeRef, ok bool) {
	s := string(r)
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	head = s[:open]
	if head != "list" && head != "set" {
		return "", "", false
	}
	return head, TypeRef(s[open+1 : len(s)-1]), true
}

// IsPrimitive reports the scalar and string refs.
func (r TypeRef) IsPrimitive() bool {
	switch r {
	case Int, Float, Bool, Str, Bytes, None, Any:
		return true
	}
	return false
}

// External splits a qualified external ref into module and type name.
func (r TypeRef) External() (module, name string, ok bool) {
	if r.IsPrimitive() {
		return "", "", false
	}
	if _, _, isContainer := r.Container(); isContainer {
		return "", "", false
	}
	dot := strings.LastIndexByte(string(r), '.')
	if dot <= 0 || dot == len(r)-1 {
		return "", "", false
	}
	return string(r[:dot]), string(r[dot+1:]), true
}

// Valid reports whether r is well formed.
func (r TypeRef) Valid() bool {
	if r.IsPrimitive() {
		return true
	}
	if _, elem, ok := r.Container(); ok {
		return elem.Valid()
	}
	_, _, ok := r.External()
	return ok
}
