package types

import "strings"

// TypeString renders id the way a user would spell the annotation.
func (in *Interner) TypeString(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch tt.Kind {
	case KindList:
		return "list[" + in.TypeString(tt.Elem) + "]"
	case KindSet:
		return "set[" + in.TypeString(tt.Elem) + "]"
	case KindRecord:
		if info, ok := in.Record(id); ok {
			return info.Name
		}
	case KindExternal:
		if info, ok := in.ExternalInfo(id); ok {
			return info.QualifiedName()
		}
	case KindFunc:
		info, ok := in.FnInfo(id)
		if !ok {
			break
		}
		var sb strings.Builder
		sb.WriteString("(")
		for i, p := range info.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(in.TypeString(p))
		}
		sb.WriteString(") -> ")
		sb.WriteString(in.TypeString(info.Result))
		return sb.String()
	case KindUnresolved:
		return "?"
	}
	return tt.Kind.String()
}
