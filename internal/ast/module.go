package ast

import "waspy/internal/source"

// Module is the parsed form of one source file.
type Module struct {
	Name  string
	File  source.FileID
	Body  []StmtID
	Exprs *Exprs
	Stmts *Stmts
}

func NewModule(name string, file source.FileID) *Module {
	return &Module{
		Name:  name,
		File:  file,
		Exprs: NewExprs(0),
		Stmts: NewStmts(0),
	}
}

// DottedName flattens a Name/Attr chain such as os.path.join into "os.path.join".
func (m *Module) DottedName(id ExprID) (string, bool) {
	if n, ok := m.Exprs.Name(id); ok {
		return n.Name, true
	}
	if a, ok := m.Exprs.Attr(id); ok {
		prefix, ok := m.DottedName(a.Target)
		if !ok {
			return "", false
		}
		return prefix + "." + a.Name, true
	}
	return "", false
}

// IsConstant reports whether id is a literal, optionally negated, usable as a default value.
func (m *Module) IsConstant(id ExprID) bool {
	e := m.Exprs.Get(id)
	if e == nil {
		return false
	}
	switch e.Kind {
	case ExprInt, ExprFloat, ExprStr, ExprBytes, ExprBool, ExprNone:
		return true
	case ExprUnary:
		u, _ := m.Exprs.Unary(id)
		if u.Op != UnaryNeg && u.Op != UnaryPos {
			return false
		}
		k := m.Exprs.Get(u.Operand).Kind
		return k == ExprInt || k == ExprFloat
	}
	return false
}
