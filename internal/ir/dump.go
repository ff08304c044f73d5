package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"waspy/internal/types"
)

// DumpModule writes a human-readable listing of m.
func DumpModule(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	p := &printer{w: w, in: m.Types, m: m}
	p.printf("module %s\n", m.Name)
	for i, g := range m.Globals {
		init := ""
		if g.Init != nil {
			init = " = " + constString(*g.Init)
		}
		p.printf("  G%d %s: %s%s\n", i, g.Name, p.typ(g.Type), init)
	}
	for i, imp := range m.Imports {
		params := make([]string, len(imp.Params))
		for j, t := range imp.Params {
			params[j] = p.typ(t)
		}
		p.printf("  import #%d %s.%s(%s) -> %s\n", i, imp.Module, imp.Name, strings.Join(params, ", "), p.typ(imp.Result))
	}
	for _, r := range m.Records {
		p.printf("  record %s class=%d parent=%d size=%d\n", r.Name, r.ClassID, r.Parent, r.Size)
		for _, f := range r.Fields {
			p.printf("    +%d %s: %s\n", f.Offset, f.Name, p.typ(f.Type))
		}
	}
	for _, f := range m.Funcs {
		p.fn(f)
	}
	return p.err
}

type printer struct {
	w   io.Writer
	in  *types.Interner
	m   *Module
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) typ(t types.TypeID) string {
	if t == types.NoTypeID {
		return "void"
	}
	return p.in.TypeString(t)
}

func (p *printer) fn(f *Func) {
	var flags []string
	if f.Export != "" {
		flags = append(flags, "export="+f.Export)
	}
	if f.ArenaReset {
		flags = append(flags, "arena")
	}
	if f.Publishes {
		flags = append(flags, "publishes")
	}
	params := make([]string, f.Params)
	for i := range params {
		params[i] = fmt.Sprintf("L%d %s: %s", i, f.Locals[i].Name, p.typ(f.Locals[i].Type))
	}
	p.printf("\nfn %s(%s) -> %s", f.Name, strings.Join(params, ", "), p.typ(f.Result))
	if len(flags) > 0 {
		p.printf(" [%s]", strings.Join(flags, " "))
	}
	p.printf("\n")
	for i := f.Params; i < len(f.Locals); i++ {
		p.printf("  let L%d %s: %s\n", i, f.Locals[i].Name, p.typ(f.Locals[i].Type))
	}
	for i := range f.Blocks {
		b := &f.Blocks[i]
		entry := ""
		if b.ID == f.Entry {
			entry = " (entry)"
		}
		p.printf("bb%d%s:\n", b.ID, entry)
		for j := range b.Instrs {
			p.printf("  %s\n", p.instr(&b.Instrs[j]))
		}
		p.printf("  %s\n", p.term(&b.Term))
	}
}

func (p *printer) operand(op Operand) string {
	if op.Kind == OperandLocal {
		return "L" + strconv.Itoa(int(op.Local))
	}
	return constString(op.Const)
}

func constString(c Const) string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ConstBool:
		if c.Bool {
			return "True"
		}
		return "False"
	case ConstNone:
		return "None"
	case ConstStr:
		return strconv.Quote(c.Str)
	case ConstBytes:
		return "b" + strconv.Quote(c.Str)
	}
	return "?"
}

func (p *printer) callee(c Callee) string {
	switch c.Kind {
	case CalleeFunc:
		if g := p.m.Func(c.Func); g != nil {
			return g.Name
		}
		return fmt.Sprintf("fn#%d", c.Func)
	case CalleeImport:
		if int(c.Import) < len(p.m.Imports) && c.Import >= 0 {
			imp := p.m.Imports[c.Import]
			return imp.Module + "." + imp.Name
		}
		return fmt.Sprintf("import#%d", c.Import)
	case CalleeRuntime:
		return "rt." + c.Runtime.String()
	case CalleeHost:
		return "host." + c.Host.String()
	}
	return "?"
}

func (p *printer) args(ops []Operand) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = p.operand(op)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) instr(ins *Instr) string {
	switch ins.Kind {
	case InstrAssign:
		return fmt.Sprintf("L%d = %s", ins.Assign.Dst, p.rvalue(&ins.Assign.Src))
	case InstrCall:
		c := &ins.Call
		call := fmt.Sprintf("call %s(%s)", p.callee(c.Callee), p.args(c.Args))
		if c.HasDst {
			return fmt.Sprintf("L%d = %s", c.Dst, call)
		}
		return call
	case InstrStoreGlobal:
		return fmt.Sprintf("G%d = %s", ins.StoreGlobal.Global, p.operand(ins.StoreGlobal.Value))
	case InstrSetField:
		s := &ins.SetField
		return fmt.Sprintf("[%s+%d] = %s", p.operand(s.Object), s.Offset, p.operand(s.Value))
	case InstrSetExc:
		return "raise " + p.operand(ins.SetExc.Value)
	}
	return "?"
}

func (p *printer) rvalue(rv *RValue) string {
	switch rv.Kind {
	case RValueUse:
		return p.operand(rv.X)
	case RValueUnary:
		return fmt.Sprintf("%s %s", rv.Op, p.operand(rv.X))
	case RValueBinary:
		return fmt.Sprintf("%s %s, %s", rv.Op, p.operand(rv.X), p.operand(rv.Y))
	case RValueConvert:
		return fmt.Sprintf("convert %s to %s", p.operand(rv.X), p.typ(rv.To))
	case RValueTruth:
		return "truth " + p.operand(rv.X)
	case RValueLoadGlobal:
		return fmt.Sprintf("G%d", rv.Global)
	case RValueField:
		return fmt.Sprintf("[%s+%d]", p.operand(rv.X), rv.Offset)
	case RValueAlloc:
		return fmt.Sprintf("alloc class=%d size=%d", rv.Class, rv.Size)
	case RValueBox:
		return "box " + p.operand(rv.X)
	case RValueTakeExc:
		return "take_exc"
	case RValueIsInstance:
		return fmt.Sprintf("isinstance %s, class=%d", p.operand(rv.X), rv.Class)
	case RValueLen:
		return "len " + p.operand(rv.X)
	}
	return "?"
}

func (p *printer) term(t *Terminator) string {
	switch t.Kind {
	case TermGoto:
		return fmt.Sprintf("goto bb%d", t.Goto.Target)
	case TermIf:
		return fmt.Sprintf("if %s then bb%d else bb%d", p.operand(t.If.Cond), t.If.Then, t.If.Else)
	case TermReturn:
		switch {
		case t.Return.Exceptional:
			return "return !exc"
		case t.Return.HasValue:
			return "return " + p.operand(t.Return.Value)
		}
		return "return"
	case TermCheckExc:
		return fmt.Sprintf("check_exc ok bb%d err bb%d", t.CheckExc.Ok, t.CheckExc.Err)
	case TermUnreachable:
		return "unreachable"
	}
	return "<unterminated>"
}
