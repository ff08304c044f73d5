package ast

import "waspy/internal/source"

// Exprs manages allocation of expressions and their per-kind payloads.
type Exprs struct {
	Arena    *Arena[Expr]
	Names    *Arena[NameData]
	Literals *Arena[LitData]
	FStrings *Arena[FStringData]
	Binaries *Arena[BinaryData]
	Unaries  *Arena[UnaryData]
	BoolOps  *Arena[BoolOpData]
	Compares *Arena[CompareData]
	Calls    *Arena[CallData]
	Attrs    *Arena[AttrData]
	Indices  *Arena[IndexData]
	Slices   *Arena[SliceData]
	Seqs     *Arena[SeqData]
	Dicts    *Arena[DictData]
	Ternary  *Arena[TernaryData]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:    NewArena[Expr](capHint),
		Names:    NewArena[NameData](capHint),
		Literals: NewArena[LitData](capHint / 4),
		FStrings: NewArena[FStringData](0),
		Binaries: NewArena[BinaryData](capHint / 4),
		Unaries:  NewArena[UnaryData](0),
		BoolOps:  NewArena[BoolOpData](0),
		Compares: NewArena[CompareData](0),
		Calls:    NewArena[CallData](capHint / 4),
		Attrs:    NewArena[AttrData](capHint / 4),
		Indices:  NewArena[IndexData](0),
		Slices:   NewArena[SliceData](0),
		Seqs:     NewArena[SeqData](0),
		Dicts:    NewArena[DictData](0),
		Ternary:  NewArena[TernaryData](0),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{Kind: kind, Span: span, Payload: PayloadID(payload)}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

// Len reports how many expressions were allocated; valid IDs are 1..Len.
func (e *Exprs) Len() uint32 {
	return e.Arena.Len()
}

func payloadOf[T any](e *Exprs, a *Arena[T], id ExprID, kinds ...ExprKind) (*T, bool) {
	expr := e.Get(id)
	if expr == nil {
		return nil, false
	}
	for _, k := range kinds {
		if expr.Kind == k {
			return a.Get(uint32(expr.Payload)), true
		}
	}
	return nil, false
}

func (e *Exprs) NewName(span source.Span, name string) ExprID {
	return e.new(ExprName, span, e.Names.Allocate(NameData{Name: name}))
}

func (e *Exprs) Name(id ExprID) (*NameData, bool) {
	return payloadOf(e, e.Names, id, ExprName)
}

// NewLiteral creates an Int, Float, Str, Bytes or Bool literal.
func (e *Exprs) NewLiteral(span source.Span, kind ExprKind, lit LitData) ExprID {
	return e.new(kind, span, e.Literals.Allocate(lit))
}

func (e *Exprs) Literal(id ExprID) (*LitData, bool) {
	return payloadOf(e, e.Literals, id, ExprInt, ExprFloat, ExprStr, ExprBytes, ExprBool)
}

func (e *Exprs) NewNone(span source.Span) ExprID {
	return e.new(ExprNone, span, 0)
}

func (e *Exprs) NewFString(span source.Span, parts []FStringPart) ExprID {
	return e.new(ExprFString, span, e.FStrings.Allocate(FStringData{Parts: parts}))
}

func (e *Exprs) FString(id ExprID) (*FStringData, bool) {
	return payloadOf(e, e.FStrings, id, ExprFString)
}

func (e *Exprs) NewBinary(span source.Span, op BinaryOp, left, right ExprID) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Allocate(BinaryData{Op: op, Left: left, Right: right}))
}

func (e *Exprs) Binary(id ExprID) (*BinaryData, bool) {
	return payloadOf(e, e.Binaries, id, ExprBinary)
}

func (e *Exprs) NewUnary(span source.Span, op UnaryOp, operand ExprID) ExprID {
	return e.new(ExprUnary, span, e.Unaries.Allocate(UnaryData{Op: op, Operand: operand}))
}

func (e *Exprs) Unary(id ExprID) (*UnaryData, bool) {
	return payloadOf(e, e.Unaries, id, ExprUnary)
}

func (e *Exprs) NewBoolOp(span source.Span, op BoolOp, left, right ExprID) ExprID {
	return e.new(ExprBoolOp, span, e.BoolOps.Allocate(BoolOpData{Op: op, Left: left, Right: right}))
}

func (e *Exprs) BoolOp(id ExprID) (*BoolOpData, bool) {
	return payloadOf(e, e.BoolOps, id, ExprBoolOp)
}

func (e *Exprs) NewCompare(span source.Span, left ExprID, ops []CmpOp, rights []ExprID) ExprID {
	return e.new(ExprCompare, span, e.Compares.Allocate(CompareData{Left: left, Ops: ops, Rights: rights}))
}

func (e *Exprs) Compare(id ExprID) (*CompareData, bool) {
	return payloadOf(e, e.Compares, id, ExprCompare)
}

func (e *Exprs) NewCall(span source.Span, fn ExprID, args []ExprID, keywords []Keyword) ExprID {
	return e.new(ExprCall, span, e.Calls.Allocate(CallData{Func: fn, Args: args, Keywords: keywords}))
}

func (e *Exprs) Call(id ExprID) (*CallData, bool) {
	return payloadOf(e, e.Calls, id, ExprCall)
}

func (e *Exprs) NewAttr(span source.Span, target ExprID, name string, nameSpan source.Span) ExprID {
	return e.new(ExprAttr, span, e.Attrs.Allocate(AttrData{Target: target, Name: name, NameSpan: nameSpan}))
}

func (e *Exprs) Attr(id ExprID) (*AttrData, bool) {
	return payloadOf(e, e.Attrs, id, ExprAttr)
}

func (e *Exprs) NewIndex(span source.Span, target, index ExprID) ExprID {
	return e.new(ExprIndex, span, e.Indices.Allocate(IndexData{Target: target, Index: index}))
}

func (e *Exprs) Index(id ExprID) (*IndexData, bool) {
	return payloadOf(e, e.Indices, id, ExprIndex)
}

func (e *Exprs) NewSlice(span source.Span, target, lower, upper, step ExprID) ExprID {
	return e.new(ExprSlice, span, e.Slices.Allocate(SliceData{Target: target, Lower: lower, Upper: upper, Step: step}))
}

func (e *Exprs) Slice(id ExprID) (*SliceData, bool) {
	return payloadOf(e, e.Slices, id, ExprSlice)
}

// NewSeq creates a list, set or tuple display.
func (e *Exprs) NewSeq(span source.Span, kind ExprKind, elems []ExprID) ExprID {
	return e.new(kind, span, e.Seqs.Allocate(SeqData{Elems: elems}))
}

func (e *Exprs) Seq(id ExprID) (*SeqData, bool) {
	return payloadOf(e, e.Seqs, id, ExprList, ExprSet, ExprTuple)
}

func (e *Exprs) NewDict(span source.Span, keys, values []ExprID) ExprID {
	return e.new(ExprDict, span, e.Dicts.Allocate(DictData{Keys: keys, Values: values}))
}

func (e *Exprs) Dict(id ExprID) (*DictData, bool) {
	return payloadOf(e, e.Dicts, id, ExprDict)
}

func (e *Exprs) NewTernary(span source.Span, cond, then, els ExprID) ExprID {
	return e.new(ExprTernary, span, e.Ternary.Allocate(TernaryData{Cond: cond, Then: then, Else: els}))
}

func (e *Exprs) TernaryOf(id ExprID) (*TernaryData, bool) {
	return payloadOf(e, e.Ternary, id, ExprTernary)
}
