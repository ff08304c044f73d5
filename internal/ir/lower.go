package ir

import (
	"fmt"

	"fortio.org/safecast"

	"waspy/internal/ast"
	"waspy/internal/layout"
	"waspy/internal/rt"
	"waspy/internal/sema"
	"waspy/internal/source"
	"waspy/internal/stdlib"
	"waspy/internal/symbols"
	"waspy/internal/types"
)

// InitName is the name of the function running the module body.
const InitName = "__waspy_init"

// LowerModule converts a checked module to IR. The sema result must be
// free of errors.
func LowerModule(mod *ast.Module, res *sema.Result) (*Module, error) {
	if mod == nil || res == nil || res.Module == nil {
		return nil, internalf("", "lowering without a checked module")
	}
	in := res.TypeInterner
	l := &lowerer{
		ast:     mod,
		res:     res,
		in:      in,
		b:       in.Builtins(),
		lay:     layout.New(layout.Wasm32(), in),
		out:     &Module{Name: res.Module.Name, Types: in, Init: NoFuncID},
		funcIDs: make(map[*sema.Func]FuncID),
		globals: make(map[symbols.SymbolID]GlobalID),
		imports: make(map[*stdlib.Symbol]ImportID),
		classes: make(map[types.TypeID]*sema.Class),
	}
	if err := l.declare(); err != nil {
		return nil, err
	}
	for _, sf := range res.Module.Funcs {
		fl := l.newFuncLowerer(l.out.Funcs[l.funcIDs[sf]], sf)
		if err := fl.lowerBody(sf.Decl.Body); err != nil {
			return nil, err
		}
	}
	for i := range l.out.Records {
		rec := &l.out.Records[i]
		if rec.Ctor == NoFuncID {
			continue
		}
		fl := l.newFuncLowerer(l.out.Funcs[rec.Ctor], nil)
		if err := fl.lowerCtorWrapper(l.classes[rec.Type]); err != nil {
			return nil, err
		}
	}
	fl := l.newFuncLowerer(l.out.Funcs[l.out.Init], nil)
	if err := fl.lowerInit(res.Module.Init); err != nil {
		return nil, err
	}
	for _, f := range l.out.Funcs {
		SimplifyCFG(f)
	}
	MarkArenas(l.out)
	return l.out, nil
}

type lowerer struct {
	ast *ast.Module
	res *sema.Result
	in  *types.Interner
	b   types.Builtins
	lay *layout.LayoutEngine
	out *Module

	funcIDs map[*sema.Func]FuncID
	globals map[symbols.SymbolID]GlobalID
	imports map[*stdlib.Symbol]ImportID
	classes map[types.TypeID]*sema.Class
}

// declare creates globals, records and empty functions so bodies can
// refer to any of them.
func (l *lowerer) declare() error {
	sm := l.res.Module
	statics := make(map[symbols.SymbolID]ast.StmtID)
	for _, step := range sm.Init {
		if step.Static {
			statics[step.Global] = step.Stmt
		}
	}
	for _, symID := range sm.Globals {
		sym := l.res.Symbols.Symbol(symID)
		g := Global{Sym: symID, Name: sym.Name, Type: sym.Type}
		if sym.Kind == symbols.SymbolClassVar && sym.Owner != symbols.NoSymbolID {
			g.Name = l.res.Symbols.Symbol(sym.Owner).Name + "." + sym.Name
		}
		if stmt, ok := statics[symID]; ok {
			c, err := l.staticValue(stmt, sym.Type)
			if err != nil {
				return err
			}
			g.Init = c
		}
		id, err := safecast.Conv[int32](len(l.out.Globals))
		if err != nil {
			return internalf("", "too many globals: %v", err)
		}
		l.globals[symID] = GlobalID(id)
		l.out.Globals = append(l.out.Globals, g)
	}

	for _, sf := range sm.Funcs {
		f := &Func{
			Sym:    sf.Sym,
			Name:   sf.Name,
			Span:   l.ast.Stmts.Get(sf.Stmt).Span,
			Params: len(sf.Params),
			Result: sf.Result,
			Entry:  NoBlockID,
		}
		for _, p := range sf.Params {
			f.Locals = append(f.Locals, l.localFor(p))
		}
		for _, v := range sf.Locals {
			f.Locals = append(f.Locals, l.localFor(v))
		}
		if sf.Export && (sf.Class == nil || sf.Class.Export) {
			f.Export = sf.Name
		}
		l.funcIDs[sf] = l.addFunc(f)
	}

	for _, cls := range sm.Classes {
		l.classes[cls.Type] = cls
		info, ok := l.in.Record(cls.Type)
		if !ok {
			return internalf("", "class %s has no record type", cls.Name)
		}
		rl, err := l.lay.Record(cls.Type)
		if err != nil {
			return internalf("", "class %s: %v", cls.Name, err)
		}
		size, err := safecast.Conv[uint32](rl.Size)
		if err != nil {
			return internalf("", "class %s: %v", cls.Name, err)
		}
		rec := Record{
			Type:      cls.Type,
			Name:      cls.Name,
			ClassID:   info.ClassID,
			Size:      size,
			Exception: cls.IsException(),
			Export:    cls.Export,
			Ctor:      NoFuncID,
		}
		if cls.Base != nil {
			if bi, ok := l.in.Record(cls.Base.Type); ok {
				rec.Parent = bi.ClassID
			}
		}
		for _, fl := range rl.Fields {
			off, _ := safecast.Conv[uint32](fl.Offset)
			rec.Fields = append(rec.Fields, Field{Name: fl.Name, Type: fl.Type, Offset: off})
		}
		if cls.Export && !cls.Builtin {
			f := &Func{Name: cls.Name, Span: l.ast.Stmts.Get(cls.Stmt).Span, Result: cls.Type, Entry: NoBlockID, Export: cls.Name}
			if init, _ := cls.FindInit(); init != nil {
				for _, p := range init.Params[1:] {
					f.Locals = append(f.Locals, l.localFor(p))
				}
				f.Params = len(init.Params) - 1
			}
			rec.Ctor = l.addFunc(f)
		}
		l.out.Records = append(l.out.Records, rec)
	}

	l.out.Init = l.addFunc(&Func{Name: InitName, Result: l.b.None, Entry: NoBlockID})
	return nil
}

func (l *lowerer) addFunc(f *Func) FuncID {
	id := FuncID(len(l.out.Funcs))
	f.ID = id
	l.out.Funcs = append(l.out.Funcs, f)
	return id
}

func (l *lowerer) localFor(id symbols.SymbolID) Local {
	sym := l.res.Symbols.Symbol(id)
	return Local{Sym: id, Type: sym.Type, Name: sym.Name}
}

// staticValue evaluates the literal initializer of a static global.
func (l *lowerer) staticValue(stmt ast.StmtID, ty types.TypeID) (*Const, error) {
	var value ast.ExprID
	switch l.ast.Stmts.Get(stmt).Kind {
	case ast.StmtAssign:
		d, _ := l.ast.Stmts.Assign(stmt)
		value = d.Value
	case ast.StmtAnnAssign:
		d, _ := l.ast.Stmts.AnnAssign(stmt)
		value = d.Value
	}
	c, ok := l.literal(value)
	if !ok {
		return nil, internalf("", "static initializer is not a literal")
	}
	if l.in.KindOf(ty) == types.KindFloat && c.Kind == ConstInt {
		c = FloatConst(float64(c.Int))
	}
	return &c, nil
}

// literal folds a literal expression, optionally signed.
func (l *lowerer) literal(id ast.ExprID) (Const, bool) {
	e := l.ast.Exprs.Get(id)
	if e == nil {
		return Const{}, false
	}
	switch e.Kind {
	case ast.ExprInt:
		lit, _ := l.ast.Exprs.Literal(id)
		return IntConst(lit.Int), true
	case ast.ExprFloat:
		lit, _ := l.ast.Exprs.Literal(id)
		return FloatConst(lit.Float), true
	case ast.ExprStr:
		lit, _ := l.ast.Exprs.Literal(id)
		return StrConst(lit.Str), true
	case ast.ExprBytes:
		lit, _ := l.ast.Exprs.Literal(id)
		return Const{Kind: ConstBytes, Str: lit.Str}, true
	case ast.ExprBool:
		lit, _ := l.ast.Exprs.Literal(id)
		return BoolConst(lit.Bool), true
	case ast.ExprNone:
		return Const{Kind: ConstNone}, true
	case ast.ExprUnary:
		u, _ := l.ast.Exprs.Unary(id)
		c, ok := l.literal(u.Operand)
		if !ok || (u.Op != ast.UnaryNeg && u.Op != ast.UnaryPos) {
			return Const{}, false
		}
		if u.Op == ast.UnaryNeg {
			switch c.Kind {
			case ConstInt:
				c.Int = -c.Int
			case ConstFloat:
				c.Float = -c.Float
			default:
				return Const{}, false
			}
		}
		return c, true
	}
	return Const{}, false
}

// importFor returns the import of a shim symbol, adding it on first use.
func (l *lowerer) importFor(sym *stdlib.Symbol, params []types.TypeID, result types.TypeID) ImportID {
	if id, ok := l.imports[sym]; ok {
		return id
	}
	id := ImportID(len(l.out.Imports))
	l.out.Imports = append(l.out.Imports, Import{
		Module: sym.ImportModule(),
		Name:   sym.ImportName(),
		Params: params,
		Result: result,
		Shim:   sym,
	})
	l.imports[sym] = id
	return id
}

type frameKind uint8

const (
	frameHandler frameKind = iota
	frameFinally
)

// frame is an enclosing try statement. Exceptions raised inside it go to
// landing.
type frame struct {
	kind    frameKind
	landing BlockID
	finally []ast.StmtID
}

type loopCtx struct {
	brk, cont BlockID
	depth     int
}

type funcLowerer struct {
	*lowerer
	f   *Func
	sf  *sema.Func
	cur BlockID

	locals    map[symbols.SymbolID]LocalID
	frames    []frame
	loops     []loopCtx
	active    []LocalID // exceptions being handled, for bare raise
	propagate BlockID
	nextTemp  int
}

func (l *lowerer) newFuncLowerer(f *Func, sf *sema.Func) *funcLowerer {
	fl := &funcLowerer{
		lowerer:   l,
		f:         f,
		sf:        sf,
		locals:    make(map[symbols.SymbolID]LocalID, len(f.Locals)),
		propagate: NoBlockID,
	}
	for i, loc := range f.Locals {
		if loc.Sym != symbols.NoSymbolID {
			fl.locals[loc.Sym] = LocalID(i)
		}
	}
	return fl
}

func (l *funcLowerer) lowerBody(body []ast.StmtID) error {
	l.f.Entry = l.newBlock()
	l.cur = l.f.Entry
	if err := l.block(body); err != nil {
		return err
	}
	l.finish()
	return nil
}

// finish returns None from a body that falls off its end.
func (l *funcLowerer) finish() {
	if !l.curBlock().Terminated() {
		if l.in.KindOf(l.f.Result) == types.KindNone {
			l.setTerm(&Terminator{Kind: TermReturn})
		} else {
			l.setTerm(&Terminator{Kind: TermUnreachable})
		}
	}
	for i := range l.f.Blocks {
		if l.f.Blocks[i].Term.Kind == TermNone {
			l.f.Blocks[i].Term.Kind = TermUnreachable
		}
	}
}

func (l *funcLowerer) lowerInit(steps []sema.InitStep) error {
	l.f.Entry = l.newBlock()
	l.cur = l.f.Entry
	for _, step := range steps {
		if step.Static {
			continue
		}
		if err := l.stmt(step.Stmt); err != nil {
			return err
		}
		if l.curBlock().Terminated() {
			l.startBlock(l.newBlock())
		}
	}
	l.finish()
	return nil
}

// lowerCtorWrapper builds the exported constructor of a public class.
func (l *funcLowerer) lowerCtorWrapper(cls *sema.Class) error {
	if cls == nil {
		return internalf(l.f.Name, "constructor without a class")
	}
	l.f.Entry = l.newBlock()
	l.cur = l.f.Entry
	obj := l.alloc(cls)
	if init, _ := cls.FindInit(); init != nil {
		args := []Operand{obj}
		for i := range l.f.Params {
			args = append(args, LocalOperand(LocalID(i), l.f.Locals[i].Type))
		}
		l.callUser(init, args)
	}
	l.setTerm(&Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: true, Value: obj}})
	l.finish()
	return nil
}

func (l *funcLowerer) curBlock() *Block {
	idx := int(l.cur)
	if idx < 0 || idx >= len(l.f.Blocks) {
		return nil
	}
	return &l.f.Blocks[idx]
}

func (l *funcLowerer) newBlock() BlockID {
	raw, err := safecast.Conv[int32](len(l.f.Blocks))
	if err != nil {
		panic(fmt.Errorf("ir: block id overflow: %w", err))
	}
	id := BlockID(raw)
	l.f.Blocks = append(l.f.Blocks, Block{ID: id})
	return id
}

func (l *funcLowerer) startBlock(id BlockID) {
	l.cur = id
}

func (l *funcLowerer) setTerm(t *Terminator) {
	b := l.curBlock()
	if b == nil || b.Terminated() || t == nil {
		return
	}
	b.Term = *t
}

func (l *funcLowerer) emit(ins *Instr) {
	b := l.curBlock()
	if b == nil || b.Terminated() || ins == nil {
		return
	}
	b.Instrs = append(b.Instrs, *ins)
}

func (l *funcLowerer) jump(target BlockID) {
	l.setTerm(&Terminator{Kind: TermGoto, Goto: GotoTerm{Target: target}})
}

func (l *funcLowerer) branch(cond Operand, then, els BlockID) {
	l.setTerm(&Terminator{Kind: TermIf, If: IfTerm{Cond: cond, Then: then, Else: els}})
}

func (l *funcLowerer) temp(ty types.TypeID, hint string) LocalID {
	raw, err := safecast.Conv[int32](len(l.f.Locals))
	if err != nil {
		panic(fmt.Errorf("ir: local id overflow: %w", err))
	}
	l.nextTemp++
	l.f.Locals = append(l.f.Locals, Local{Type: ty, Name: fmt.Sprintf("%s.%d", hint, l.nextTemp)})
	return LocalID(raw)
}

// value evaluates rv into a fresh temporary.
func (l *funcLowerer) value(rv RValue, ty types.TypeID, hint string) Operand {
	dst := l.temp(ty, hint)
	l.emit(&Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: dst, Src: rv}})
	return LocalOperand(dst, ty)
}

func (l *funcLowerer) assign(dst LocalID, src Operand) {
	l.emit(&Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: dst, Src: RValue{Kind: RValueUse, X: src}}})
}

// spill copies an operand into a new temporary so later writes to the
// source local cannot change it.
func (l *funcLowerer) spill(op Operand) Operand {
	if op.Kind == OperandConst {
		return op
	}
	return l.value(RValue{Kind: RValueUse, X: op}, op.Type, "t")
}

// excTarget is where a pending exception goes from the current point.
func (l *funcLowerer) excTarget() BlockID {
	if n := len(l.frames); n > 0 {
		return l.frames[n-1].landing
	}
	if l.propagate == NoBlockID {
		l.propagate = l.newBlock()
		l.f.Blocks[l.propagate].Term = Terminator{Kind: TermReturn, Return: ReturnTerm{Exceptional: true}}
	}
	return l.propagate
}

// checkExc ends the current block with a branch to the exception target.
func (l *funcLowerer) checkExc() {
	if l.curBlock().Terminated() {
		return
	}
	ok := l.newBlock()
	l.setTerm(&Terminator{Kind: TermCheckExc, CheckExc: CheckExcTerm{Ok: ok, Err: l.excTarget()}})
	l.startBlock(ok)
}

func (l *funcLowerer) call(callee Callee, result types.TypeID, mayRaise bool, args []Operand) Operand {
	ins := CallInstr{Callee: callee, Args: args, Dst: NoLocalID}
	var out Operand
	if result != types.NoTypeID && l.in.KindOf(result) != types.KindNone {
		ins.HasDst = true
		ins.Dst = l.temp(result, "call")
		out = LocalOperand(ins.Dst, result)
	} else {
		out = l.none()
	}
	l.emit(&Instr{Kind: InstrCall, Call: ins})
	if mayRaise {
		l.checkExc()
	}
	return out
}

// callRT calls a runtime helper. result is the type the helper's value is
// read as; slot-sized results are reinterpreted by the code generator.
func (l *funcLowerer) callRT(f rt.Func, result types.TypeID, args ...Operand) Operand {
	spec := f.Spec()
	if len(spec.Results) == 0 {
		result = types.NoTypeID
	}
	return l.call(Callee{Kind: CalleeRuntime, Runtime: f}, result, spec.MayRaise, args)
}

func (l *funcLowerer) callHost(h rt.Host, result types.TypeID, args ...Operand) Operand {
	spec := h.Spec()
	if len(spec.Results) == 0 {
		result = types.NoTypeID
	}
	return l.call(Callee{Kind: CalleeHost, Host: h}, result, spec.MayRaise, args)
}

func (l *funcLowerer) callUser(sf *sema.Func, args []Operand) Operand {
	id, ok := l.funcIDs[sf]
	if !ok {
		return l.none()
	}
	return l.call(Callee{Kind: CalleeFunc, Func: id}, sf.Result, true, args)
}

func (l *funcLowerer) none() Operand {
	return ConstOperand(Const{Kind: ConstNone}, l.b.None)
}

func (l *funcLowerer) intConst(v int64) Operand {
	return ConstOperand(IntConst(v), l.b.Int)
}

func (l *funcLowerer) strConst(s string) Operand {
	return ConstOperand(StrConst(s), l.b.Str)
}

func (l *funcLowerer) boolConst(v bool) Operand {
	return ConstOperand(BoolConst(v), l.b.Bool)
}

// word is the type of raw i32 values: addresses, tags and comparison results.
func (l *funcLowerer) word() types.TypeID {
	return l.b.Any
}

// alloc allocates a zeroed instance of cls.
func (l *funcLowerer) alloc(cls *sema.Class) Operand {
	var class, size uint32
	for _, rec := range l.out.Records {
		if rec.Type == cls.Type {
			class, size = rec.ClassID, rec.Size
			break
		}
	}
	return l.value(RValue{Kind: RValueAlloc, Class: class, Size: size}, cls.Type, "obj")
}

func (l *funcLowerer) exprSpan(id ast.ExprID) source.Span {
	if e := l.ast.Exprs.Get(id); e != nil {
		return e.Span
	}
	return source.Span{}
}

func (l *funcLowerer) typeOf(id ast.ExprID) types.TypeID {
	return l.res.ExprTypes[id]
}
