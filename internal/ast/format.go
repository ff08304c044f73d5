package ast

import (
	"strconv"
	"strings"
)

// ExprString renders an expression back to fully parenthesized Python source.
// Used in diagnostics and tests.
func (m *Module) ExprString(id ExprID) string {
	var sb strings.Builder
	m.writeExpr(&sb, id)
	return sb.String()
}

func (m *Module) writeList(sb *strings.Builder, ids []ExprID) {
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		m.writeExpr(sb, id)
	}
}

func (m *Module) writeExpr(sb *strings.Builder, id ExprID) {
	e := m.Exprs.Get(id)
	if e == nil {
		return
	}
	switch e.Kind {
	case ExprName:
		n, _ := m.Exprs.Name(id)
		sb.WriteString(n.Name)
	case ExprInt:
		lit, _ := m.Exprs.Literal(id)
		sb.WriteString(strconv.FormatInt(lit.Int, 10))
	case ExprFloat:
		lit, _ := m.Exprs.Literal(id)
		sb.WriteString(strconv.FormatFloat(lit.Float, 'g', -1, 64))
	case ExprStr:
		lit, _ := m.Exprs.Literal(id)
		sb.WriteString(strconv.Quote(lit.Str))
	case ExprBytes:
		lit, _ := m.Exprs.Literal(id)
		sb.WriteString("b" + strconv.Quote(lit.Str))
	case ExprBool:
		lit, _ := m.Exprs.Literal(id)
		if lit.Bool {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case ExprNone:
		sb.WriteString("None")
	case ExprFString:
		f, _ := m.Exprs.FString(id)
		sb.WriteString(`f"`)
		for _, p := range f.Parts {
			if p.Expr.IsValid() {
				sb.WriteByte('{')
				m.writeExpr(sb, p.Expr)
				sb.WriteByte('}')
				continue
			}
			sb.WriteString(p.Lit)
		}
		sb.WriteByte('"')
	case ExprBinary:
		b, _ := m.Exprs.Binary(id)
		sb.WriteByte('(')
		m.writeExpr(sb, b.Left)
		sb.WriteString(" " + b.Op.String() + " ")
		m.writeExpr(sb, b.Right)
		sb.WriteByte(')')
	case ExprUnary:
		u, _ := m.Exprs.Unary(id)
		sb.WriteByte('(')
		sb.WriteString(u.Op.String())
		if u.Op == UnaryNot {
			sb.WriteByte(' ')
		}
		m.writeExpr(sb, u.Operand)
		sb.WriteByte(')')
	case ExprBoolOp:
		b, _ := m.Exprs.BoolOp(id)
		sb.WriteByte('(')
		m.writeExpr(sb, b.Left)
		sb.WriteString(" " + b.Op.String() + " ")
		m.writeExpr(sb, b.Right)
		sb.WriteByte(')')
	case ExprCompare:
		c, _ := m.Exprs.Compare(id)
		sb.WriteByte('(')
		m.writeExpr(sb, c.Left)
		for i, op := range c.Ops {
			sb.WriteString(" " + op.String() + " ")
			m.writeExpr(sb, c.Rights[i])
		}
		sb.WriteByte(')')
	case ExprCall:
		c, _ := m.Exprs.Call(id)
		m.writeExpr(sb, c.Func)
		sb.WriteByte('(')
		m.writeList(sb, c.Args)
		for i, kw := range c.Keywords {
			if i > 0 || len(c.Args) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(kw.Name + "=")
			m.writeExpr(sb, kw.Value)
		}
		sb.WriteByte(')')
	case ExprAttr:
		a, _ := m.Exprs.Attr(id)
		m.writeExpr(sb, a.Target)
		sb.WriteString("." + a.Name)
	case ExprIndex:
		ix, _ := m.Exprs.Index(id)
		m.writeExpr(sb, ix.Target)
		sb.WriteByte('[')
		m.writeExpr(sb, ix.Index)
		sb.WriteByte(']')
	case ExprSlice:
		s, _ := m.Exprs.Slice(id)
		m.writeExpr(sb, s.Target)
		sb.WriteByte('[')
		m.writeExpr(sb, s.Lower)
		sb.WriteByte(':')
		m.writeExpr(sb, s.Upper)
		if s.Step.IsValid() {
			sb.WriteByte(':')
			m.writeExpr(sb, s.Step)
		}
		sb.WriteByte(']')
	case ExprList, ExprSet, ExprTuple:
		s, _ := m.Exprs.Seq(id)
		open, closing := "[", "]"
		switch e.Kind {
		case ExprSet:
			open, closing = "{", "}"
		case ExprTuple:
			open, closing = "(", ")"
		}
		sb.WriteString(open)
		m.writeList(sb, s.Elems)
		if e.Kind == ExprTuple && len(s.Elems) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteString(closing)
	case ExprDict:
		d, _ := m.Exprs.Dict(id)
		sb.WriteByte('{')
		for i := range d.Keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			m.writeExpr(sb, d.Keys[i])
			sb.WriteString(": ")
			m.writeExpr(sb, d.Values[i])
		}
		sb.WriteByte('}')
	case ExprTernary:
		t, _ := m.Exprs.TernaryOf(id)
		sb.WriteByte('(')
		m.writeExpr(sb, t.Then)
		sb.WriteString(" if ")
		m.writeExpr(sb, t.Cond)
		sb.WriteString(" else ")
		m.writeExpr(sb, t.Else)
		sb.WriteByte(')')
	}
}
