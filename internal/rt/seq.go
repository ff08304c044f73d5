package rt

import (
	"waspy/internal/layout"
	"waspy/internal/wasm"
)

// Lists and sets share one header. Sets keep insertion order and find
// members by linear search.

const minCap = 4

func (b *body) seqLen(l uint32) {
	b.LocalGet(l).I32Load(layout.OffSeqLen)
}

func (b *body) setLen(l uint32, n func()) {
	b.LocalGet(l)
	n()
	b.I32Store(layout.OffSeqLen)
}

// slotAddr pushes the address of slot i (an i32 local) of l.
func (b *body) slotAddr(l, i uint32) {
	b.LocalGet(l).I32Load(layout.OffSeqData).LocalGet(i).I32Const(3).Op(wasm.OpI32Shl).Op(wasm.OpI32Add)
}

func (b *body) slot(l, i uint32) {
	b.slotAddr(l, i)
	b.I64Load(0)
}

func (b *body) elemTag(l uint32) {
	b.LocalGet(l).I32Load(layout.OffSeqElem)
}

// each runs fn for k in [0, len(l)), reading the length every round.
func (b *body) each(l, k uint32, fn func()) {
	b.I32Const(0).LocalSet(k)
	b.while(func() {
		b.LocalGet(k)
		b.seqLen(l)
		b.Op(wasm.OpI32LtU)
	}, func() {
		fn()
		b.incr(k, 1)
	})
}

// seq_new(tag, elem, cap) allocates an empty list or set.
func buildSeqNew(b *body) {
	const tag, elem, capacity = 0, 1, 2
	p, c := b.local(i32), b.local(i32)
	b.I32Const(layout.SeqHeader).Call(b.fn(Alloc)).LocalTee(p)
	b.LocalGet(tag).I32Store(layout.OffTag)
	b.LocalGet(p).LocalGet(elem).I32Store(layout.OffSeqElem)
	b.LocalGet(capacity).I32Const(minCap).LocalGet(capacity).I32Const(minCap).Op(wasm.OpI32GtU).Select().LocalSet(c)
	b.LocalGet(p).LocalGet(c).I32Store(layout.OffSeqCap)
	b.LocalGet(p).LocalGet(c).I32Const(3).Op(wasm.OpI32Shl).Call(b.fn(Alloc)).I32Store(layout.OffSeqData)
	b.LocalGet(p)
}

// list_push appends v, doubling the slot buffer when it is full.
func buildListPush(b *body) {
	const l, v = 0, 1
	n, c, data := b.local(i32), b.local(i32), b.local(i32)
	b.seqLen(l)
	b.LocalTee(n)
	b.LocalGet(l).I32Load(layout.OffSeqCap).Op(wasm.OpI32GeU)
	b.then(func() {
		b.LocalGet(n).I32Const(1).Op(wasm.OpI32Shl).LocalTee(c)
		b.I32Const(minCap).Op(wasm.OpI32LtU)
		b.then(func() { b.I32Const(minCap).LocalSet(c) })
		b.LocalGet(c).I32Const(3).Op(wasm.OpI32Shl).Call(b.fn(Alloc)).LocalTee(data)
		b.LocalGet(l).I32Load(layout.OffSeqData)
		b.LocalGet(n).I32Const(3).Op(wasm.OpI32Shl).Call(b.fn(MemCopy))
		b.LocalGet(l).LocalGet(data).I32Store(layout.OffSeqData)
		b.LocalGet(l).LocalGet(c).I32Store(layout.OffSeqCap)
	})
	b.slotAddr(l, n)
	b.LocalGet(v).I64Store(0)
	b.setLen(l, func() { b.LocalGet(n).I32Const(1).Op(wasm.OpI32Add) })
}

// seq_slot returns the address of a checked, possibly negative, index.
func buildSeqSlot(b *body) {
	const l, idx = 0, 1
	n, i := b.local(i64), b.local(i32)
	b.seqLen(l)
	b.Op(wasm.OpI64ExtendI32U).LocalSet(n)
	b.normIndex(idx, n)
	b.then(func() {
		b.raise(classIndex, "list index out of range")
		b.I32Const(0).Return()
	})
	b.LocalGet(idx).Op(wasm.OpI32WrapI64).LocalSet(i)
	b.slotAddr(l, i)
}

// slice_indices resolves slice bounds against length n the way
// slice.indices does. It returns the element count and leaves the first
// index and the step in the scratch area. Mask bits flag which of lo, hi
// and step were given.
func buildSliceIndices(b *body) {
	const n, lo, hi, step, mask = 0, 1, 2, 3, 4
	st, lower, upper, start, stop := b.local(i64), b.local(i64), b.local(i64), b.local(i64), b.local(i64)

	b.I64Const(1).LocalSet(st)
	b.LocalGet(mask).I32Const(4).Op(wasm.OpI32And)
	b.then(func() { b.LocalGet(step).LocalSet(st) })
	b.LocalGet(st).Op(wasm.OpI64Eqz)
	b.then(func() {
		b.raise(classValue, "slice step cannot be zero")
		b.I64Const(0).Return()
	})
	b.LocalGet(st).I64Const(0).Op(wasm.OpI64GtS)
	b.If(wasm.BlockEmpty)
	b.I64Const(0).LocalSet(lower)
	b.LocalGet(n).LocalSet(upper)
	b.Else()
	b.I64Const(-1).LocalSet(lower)
	b.LocalGet(n).I64Const(1).Op(wasm.OpI64Sub).LocalSet(upper)
	b.End()

	bound := func(v uint32, bit int32, out uint32, negDefault, posDefault uint32) {
		b.LocalGet(mask).I32Const(bit).Op(wasm.OpI32And)
		b.If(wasm.BlockEmpty)
		b.LocalGet(v).LocalSet(out)
		b.LocalGet(out).I64Const(0).Op(wasm.OpI64LtS)
		b.If(wasm.BlockEmpty)
		b.LocalGet(out).LocalGet(n).Op(wasm.OpI64Add).LocalSet(out)
		b.LocalGet(out).LocalGet(lower).Op(wasm.OpI64LtS)
		b.then(func() { b.LocalGet(lower).LocalSet(out) })
		b.Else()
		b.LocalGet(out).LocalGet(upper).Op(wasm.OpI64GtS)
		b.then(func() { b.LocalGet(upper).LocalSet(out) })
		b.End()
		b.Else()
		b.LocalGet(negDefault).LocalGet(posDefault).LocalGet(st).I64Const(0).Op(wasm.OpI64LtS).Select().LocalSet(out)
		b.End()
	}
	bound(lo, 1, start, upper, lower)
	bound(hi, 2, stop, lower, upper)

	b.U32Const(ScratchAddr).LocalGet(start).I64Store(0)
	b.U32Const(ScratchAddr).LocalGet(st).I64Store(8)

	b.LocalGet(st).I64Const(0).Op(wasm.OpI64GtS)
	b.If(wasm.BlockEmpty)
	b.LocalGet(stop).LocalGet(start).Op(wasm.OpI64GtS)
	b.then(func() {
		b.LocalGet(stop).LocalGet(start).Op(wasm.OpI64Sub).I64Const(1).Op(wasm.OpI64Sub)
		b.LocalGet(st).Op(wasm.OpI64DivS).I64Const(1).Op(wasm.OpI64Add).Return()
	})
	b.Else()
	b.LocalGet(start).LocalGet(stop).Op(wasm.OpI64GtS)
	b.then(func() {
		b.LocalGet(start).LocalGet(stop).Op(wasm.OpI64Sub).I64Const(1).Op(wasm.OpI64Sub)
		b.I64Const(0).LocalGet(st).Op(wasm.OpI64Sub).Op(wasm.OpI64DivS).I64Const(1).Op(wasm.OpI64Add).Return()
	})
	b.End()
	b.I64Const(0)
}

func buildSeqSlice(b *body) {
	const l, lo, hi, step, mask = 0, 1, 2, 3, 4
	count, k, r, pos, st := b.local(i32), b.local(i32), b.local(i32), b.local(i32), b.local(i32)
	b.seqLen(l)
	b.Op(wasm.OpI64ExtendI32U).LocalGet(lo).LocalGet(hi).LocalGet(step).LocalGet(mask).Call(b.fn(SliceIndices))
	b.Op(wasm.OpI32WrapI64).LocalSet(count)
	b.pending()
	b.then(func() { b.I32Const(0).Return() })
	b.U32Const(ScratchAddr).I64Load(0).Op(wasm.OpI32WrapI64).LocalSet(pos)
	b.U32Const(ScratchAddr).I64Load(8).Op(wasm.OpI32WrapI64).LocalSet(st)
	b.tagOf(l)
	b.elemTag(l)
	b.LocalGet(count).Call(b.fn(SeqNew)).LocalSet(r)
	b.while(func() {
		b.LocalGet(k).LocalGet(count).Op(wasm.OpI32LtU)
	}, func() {
		b.slotAddr(r, k)
		b.slot(l, pos)
		b.I64Store(0)
		b.LocalGet(pos).LocalGet(st).Op(wasm.OpI32Add).LocalSet(pos)
		b.incr(k, 1)
	})
	b.setLen(r, func() { b.LocalGet(count) })
	b.LocalGet(r)
}

func buildSeqConcat(b *body) {
	const x, y = 0, 1
	lx, ly, r := b.local(i32), b.local(i32), b.local(i32)
	b.seqLen(x)
	b.LocalSet(lx)
	b.seqLen(y)
	b.LocalSet(ly)
	b.tagOf(x)
	b.elemTag(x)
	b.LocalGet(lx).LocalGet(ly).Op(wasm.OpI32Add).Call(b.fn(SeqNew)).LocalSet(r)
	b.LocalGet(r).I32Load(layout.OffSeqData)
	b.LocalGet(x).I32Load(layout.OffSeqData)
	b.LocalGet(lx).I32Const(3).Op(wasm.OpI32Shl).Call(b.fn(MemCopy))
	b.slotAddr(r, lx)
	b.LocalGet(y).I32Load(layout.OffSeqData)
	b.LocalGet(ly).I32Const(3).Op(wasm.OpI32Shl).Call(b.fn(MemCopy))
	b.setLen(r, func() { b.LocalGet(lx).LocalGet(ly).Op(wasm.OpI32Add) })
	b.LocalGet(r)
}

func buildSeqRepeat(b *body) {
	const l, n = 0, 1
	ln, count, r, i, at := b.local(i32), b.local(i32), b.local(i32), b.local(i32), b.local(i32)
	b.LocalGet(n).I64Const(0x7fffffff).Op(wasm.OpI64GtS)
	b.then(func() { b.Unreachable() })
	b.LocalGet(n).I64Const(0).Op(wasm.OpI64GtS)
	b.then(func() { b.LocalGet(n).Op(wasm.OpI32WrapI64).LocalSet(count) })
	b.seqLen(l)
	b.LocalSet(ln)
	b.tagOf(l)
	b.elemTag(l)
	b.LocalGet(ln).LocalGet(count).Op(wasm.OpI32Mul).Call(b.fn(SeqNew)).LocalTee(r)
	b.I32Load(layout.OffSeqData).LocalSet(at)
	b.while(func() {
		b.LocalGet(i).LocalGet(count).Op(wasm.OpI32LtU)
	}, func() {
		b.LocalGet(at).LocalGet(l).I32Load(layout.OffSeqData).LocalGet(ln).I32Const(3).Op(wasm.OpI32Shl).Call(b.fn(MemCopy))
		b.LocalGet(at).LocalGet(ln).I32Const(3).Op(wasm.OpI32Shl).Op(wasm.OpI32Add).LocalSet(at)
		b.incr(i, 1)
	})
	b.setLen(r, func() { b.LocalGet(ln).LocalGet(count).Op(wasm.OpI32Mul) })
	b.LocalGet(r)
}

// removeAt drops slot i (an i32 local) and shifts the tail left.
func (b *body) removeAt(l, i, n uint32) {
	b.slotAddr(l, i)
	b.slotAddr(l, i)
	b.I32Const(8).Op(wasm.OpI32Add)
	b.LocalGet(n).LocalGet(i).Op(wasm.OpI32Sub).I32Const(1).Op(wasm.OpI32Sub).I32Const(3).Op(wasm.OpI32Shl)
	b.call(MemCopy)
	b.setLen(l, func() { b.LocalGet(n).I32Const(1).Op(wasm.OpI32Sub) })
}

func buildListPop(b *body) {
	const l, idx = 0, 1
	n, n64, i, v := b.local(i32), b.local(i64), b.local(i32), b.local(i64)
	b.seqLen(l)
	b.LocalTee(n)
	b.Op(wasm.OpI32Eqz)
	b.then(func() {
		b.raise(classIndex, "pop from empty list")
		b.I64Const(0).Return()
	})
	b.LocalGet(n).Op(wasm.OpI64ExtendI32U).LocalSet(n64)
	b.normIndex(idx, n64)
	b.then(func() {
		b.raise(classIndex, "pop index out of range")
		b.I64Const(0).Return()
	})
	b.LocalGet(idx).Op(wasm.OpI32WrapI64).LocalSet(i)
	b.slot(l, i)
	b.LocalSet(v)
	b.removeAt(l, i, n)
	b.LocalGet(v)
}

// list_insert clamps the index like list.insert and shifts the tail right.
func buildListInsert(b *body) {
	const l, idx, v = 0, 1, 2
	n, i, k := b.local(i64), b.local(i32), b.local(i32)
	b.seqLen(l)
	b.Op(wasm.OpI64ExtendI32U).LocalSet(n)
	b.LocalGet(idx).I64Const(0).Op(wasm.OpI64LtS)
	b.then(func() {
		b.LocalGet(idx).LocalGet(n).Op(wasm.OpI64Add).LocalSet(idx)
		b.LocalGet(idx).I64Const(0).Op(wasm.OpI64LtS)
		b.then(func() { b.I64Const(0).LocalSet(idx) })
	})
	b.LocalGet(idx).LocalGet(n).Op(wasm.OpI64GtS)
	b.then(func() { b.LocalGet(n).LocalSet(idx) })
	b.LocalGet(idx).Op(wasm.OpI32WrapI64).LocalSet(i)
	b.LocalGet(l).I64Const(0).Call(b.fn(ListPush))
	b.LocalGet(n).Op(wasm.OpI32WrapI64).LocalSet(k)
	b.while(func() {
		b.LocalGet(k).LocalGet(i).Op(wasm.OpI32GtU)
	}, func() {
		b.slotAddr(l, k)
		b.slotAddr(l, k)
		b.I32Const(8).Op(wasm.OpI32Sub).I64Load(0)
		b.I64Store(0)
		b.incr(k, -1)
	})
	b.slotAddr(l, i)
	b.LocalGet(v).I64Store(0)
}

func buildListExtend(b *body) {
	const l, src = 0, 1
	n, k := b.local(i32), b.local(i32)
	b.seqLen(src)
	b.LocalSet(n)
	b.while(func() {
		b.LocalGet(k).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		b.LocalGet(l)
		b.slot(src, k)
		b.call(ListPush)
		b.incr(k, 1)
	})
}

// seq_find returns the index of the first slot equal to v, or -1.
func buildSeqFind(b *body) {
	const l, v = 0, 1
	k := b.local(i32)
	b.each(l, k, func() {
		b.elemTag(l)
		b.slot(l, k)
		b.LocalGet(v).Call(b.fn(SlotEq))
		b.then(func() { b.LocalGet(k).Op(wasm.OpI64ExtendI32U).Return() })
	})
	b.I64Const(-1)
}

func buildListIndex(b *body) {
	const l, v = 0, 1
	k := b.local(i64)
	b.LocalGet(l).LocalGet(v).Call(b.fn(SeqFind)).LocalTee(k)
	b.I64Const(0).Op(wasm.OpI64LtS)
	b.then(func() {
		b.raise(classValue, "list.index(x): x not in list")
		b.I64Const(0).Return()
	})
	b.LocalGet(k)
}

func buildListCount(b *body) {
	const l, v = 0, 1
	k, count := b.local(i32), b.local(i64)
	b.each(l, k, func() {
		b.elemTag(l)
		b.slot(l, k)
		b.LocalGet(v).Call(b.fn(SlotEq))
		b.then(func() { b.incr64(count, 1) })
	})
	b.LocalGet(count)
}

func buildListReverse(b *body) {
	const l = 0
	i, j, tmp := b.local(i32), b.local(i32), b.local(i64)
	b.seqLen(l)
	b.I32Const(1).Op(wasm.OpI32Sub).LocalSet(j)
	b.while(func() {
		b.LocalGet(i).LocalGet(j).Op(wasm.OpI32LtS)
	}, func() {
		b.slot(l, i)
		b.LocalSet(tmp)
		b.slotAddr(l, i)
		b.slot(l, j)
		b.I64Store(0)
		b.slotAddr(l, j)
		b.LocalGet(tmp).I64Store(0)
		b.incr(i, 1)
		b.incr(j, -1)
	})
}

func buildSeqClear(b *body) {
	b.setLen(0, func() { b.I32Const(0) })
}

func buildSeqCopy(b *body) {
	const l = 0
	n, r := b.local(i32), b.local(i32)
	b.seqLen(l)
	b.LocalSet(n)
	b.tagOf(l)
	b.elemTag(l)
	b.LocalGet(n).Call(b.fn(SeqNew)).LocalTee(r)
	b.I32Load(layout.OffSeqData).LocalGet(l).I32Load(layout.OffSeqData)
	b.LocalGet(n).I32Const(3).Op(wasm.OpI32Shl).Call(b.fn(MemCopy))
	b.setLen(r, func() { b.LocalGet(n) })
	b.LocalGet(r)
}

// seq_eq compares lists element-wise and sets by membership.
func buildSeqEq(b *body) {
	const x, y = 0, 1
	k := b.local(i32)
	b.LocalGet(x).LocalGet(y).Op(wasm.OpI32Eq)
	b.then(func() { b.I32Const(1).Return() })
	b.LocalGet(x).Op(wasm.OpI32Eqz).LocalGet(y).Op(wasm.OpI32Eqz).Op(wasm.OpI32Or)
	b.then(func() { b.I32Const(0).Return() })
	b.tagOf(x)
	b.tagOf(y)
	b.Op(wasm.OpI32Ne)
	b.then(func() { b.I32Const(0).Return() })
	b.seqLen(x)
	b.seqLen(y)
	b.Op(wasm.OpI32Ne)
	b.then(func() { b.I32Const(0).Return() })
	b.tagOf(x)
	b.I32Const(int32(layout.TagSet)).Op(wasm.OpI32Eq)
	b.then(func() {
		b.each(x, k, func() {
			b.LocalGet(y)
			b.slot(x, k)
			b.call(SeqFind).I64Const(0).Op(wasm.OpI64LtS)
			b.then(func() { b.I32Const(0).Return() })
		})
		b.I32Const(1).Return()
	})
	b.each(x, k, func() {
		b.elemTag(x)
		b.slot(x, k)
		b.slot(y, k)
		b.call(SlotEq).Op(wasm.OpI32Eqz)
		b.then(func() { b.I32Const(0).Return() })
	})
	b.I32Const(1)
}

// slot_eq compares two slots holding values of the given element tag.
func buildSlotEq(b *body) {
	const tag, x, y = 0, 1, 2
	is := func(t layout.Tag) {
		b.LocalGet(tag).I32Const(int32(t)).Op(wasm.OpI32Eq)
	}
	refs := func(f Func) {
		b.LocalGet(x).Op(wasm.OpI32WrapI64).LocalGet(y).Op(wasm.OpI32WrapI64).Call(b.fn(f)).Return()
	}
	is(layout.TagStr)
	is(layout.TagBytes)
	b.Op(wasm.OpI32Or)
	b.then(func() { refs(StrEq) })
	is(layout.TagList)
	is(layout.TagSet)
	b.Op(wasm.OpI32Or)
	b.then(func() { refs(SeqEq) })
	is(layout.TagFloat)
	b.then(func() {
		b.LocalGet(x).Op(wasm.OpF64ReinterpretI64).LocalGet(y).Op(wasm.OpF64ReinterpretI64).Op(wasm.OpF64Eq).Return()
	})
	b.LocalGet(x).LocalGet(y).Op(wasm.OpI64Eq)
}

func buildSetAdd(b *body) {
	const s, v = 0, 1
	b.LocalGet(s).LocalGet(v).Call(b.fn(SeqFind)).I64Const(0).Op(wasm.OpI64LtS)
	b.then(func() { b.LocalGet(s).LocalGet(v).Call(b.fn(ListPush)) })
}

func buildSetDiscard(b *body) {
	const s, v = 0, 1
	k, i, n := b.local(i64), b.local(i32), b.local(i32)
	b.LocalGet(s).LocalGet(v).Call(b.fn(SeqFind)).LocalTee(k)
	b.I64Const(0).Op(wasm.OpI64LtS)
	b.then(func() { b.I32Const(0).Return() })
	b.LocalGet(k).Op(wasm.OpI32WrapI64).LocalSet(i)
	b.seqLen(s)
	b.LocalSet(n)
	b.removeAt(s, i, n)
	b.I32Const(1)
}

func buildSetRemove(b *body) {
	const s, v = 0, 1
	b.LocalGet(s).LocalGet(v).Call(b.fn(SetDiscard)).Op(wasm.OpI32Eqz)
	b.then(func() { b.raise(classKey, "set.remove(x): x not in set") })
}

func buildSetUnion(b *body) {
	const x, y = 0, 1
	r, k := b.local(i32), b.local(i32)
	b.LocalGet(x).Call(b.fn(SeqCopy)).LocalSet(r)
	b.each(y, k, func() {
		b.LocalGet(r)
		b.slot(y, k)
		b.call(SetAdd)
	})
	b.LocalGet(r)
}

// filterInto pushes the members of src whose presence in other matches keep.
func (b *body) filterInto(r, src, other, k uint32, keep bool) {
	b.each(src, k, func() {
		b.LocalGet(other)
		b.slot(src, k)
		b.call(SeqFind).I64Const(0)
		if keep {
			b.Op(wasm.OpI64GeS)
		} else {
			b.Op(wasm.OpI64LtS)
		}
		b.then(func() {
			b.LocalGet(r)
			b.slot(src, k)
			b.call(ListPush)
		})
	})
}

func (b *body) emptyLike(s, r uint32) {
	b.I32Const(int32(layout.TagSet))
	b.elemTag(s)
	b.I32Const(0).Call(b.fn(SeqNew)).LocalSet(r)
}

func buildSetInter(b *body) {
	const x, y = 0, 1
	r, k := b.local(i32), b.local(i32)
	b.emptyLike(x, r)
	b.filterInto(r, x, y, k, true)
	b.LocalGet(r)
}

func buildSetDiff(b *body) {
	const x, y = 0, 1
	r, k := b.local(i32), b.local(i32)
	b.emptyLike(x, r)
	b.filterInto(r, x, y, k, false)
	b.LocalGet(r)
}

func buildSetSymDiff(b *body) {
	const x, y = 0, 1
	r, k := b.local(i32), b.local(i32)
	b.emptyLike(x, r)
	b.filterInto(r, x, y, k, false)
	b.filterInto(r, y, x, k, false)
	b.LocalGet(r)
}

// seq_from(src, tag) builds a list or a set from the slots of src.
func buildSeqFrom(b *body) {
	const src, tag = 0, 1
	r, k := b.local(i32), b.local(i32)
	b.LocalGet(tag)
	b.elemTag(src)
	b.seqLen(src)
	b.call(SeqNew).LocalSet(r)
	b.each(src, k, func() {
		b.LocalGet(tag).I32Const(int32(layout.TagSet)).Op(wasm.OpI32Eq)
		b.If(wasm.BlockEmpty)
		b.LocalGet(r)
		b.slot(src, k)
		b.call(SetAdd)
		b.Else()
		b.LocalGet(r)
		b.slot(src, k)
		b.call(ListPush)
		b.End()
	})
	b.LocalGet(r)
}

// seq_minmax returns the smallest or largest slot, ordering str
// bytewise and float numerically.
func buildSeqMinMax(b *body) {
	const l, wantMax = 0, 1
	best, e, k, cmp := b.local(i64), b.local(i64), b.local(i32), b.local(i32)
	b.seqLen(l)
	b.Op(wasm.OpI32Eqz)
	b.then(func() {
		b.raise(classValue, "arg is an empty sequence")
		b.I64Const(0).Return()
	})
	b.slot(l, k)
	b.LocalSet(best)
	b.I32Const(1).LocalSet(k)
	b.while(func() {
		b.LocalGet(k)
		b.seqLen(l)
		b.Op(wasm.OpI32LtU)
	}, func() {
		b.slot(l, k)
		b.LocalSet(e)
		b.elemTag(l)
		b.I32Const(int32(layout.TagStr)).Op(wasm.OpI32Eq)
		b.If(wasm.BlockEmpty)
		b.LocalGet(e).Op(wasm.OpI32WrapI64).LocalGet(best).Op(wasm.OpI32WrapI64).Call(b.fn(StrCmp)).LocalSet(cmp)
		b.Else()
		b.elemTag(l)
		b.I32Const(int32(layout.TagFloat)).Op(wasm.OpI32Eq)
		b.If(wasm.BlockEmpty)
		b.LocalGet(e).Op(wasm.OpF64ReinterpretI64).LocalGet(best).Op(wasm.OpF64ReinterpretI64).Op(wasm.OpF64Gt)
		b.LocalGet(e).Op(wasm.OpF64ReinterpretI64).LocalGet(best).Op(wasm.OpF64ReinterpretI64).Op(wasm.OpF64Lt)
		b.Op(wasm.OpI32Sub).LocalSet(cmp)
		b.Else()
		b.LocalGet(e).LocalGet(best).Op(wasm.OpI64GtS)
		b.LocalGet(e).LocalGet(best).Op(wasm.OpI64LtS)
		b.Op(wasm.OpI32Sub).LocalSet(cmp)
		b.End()
		b.End()
		b.LocalGet(cmp).I32Const(0).LocalGet(cmp).Op(wasm.OpI32Sub).LocalGet(wantMax).Select()
		b.I32Const(0).Op(wasm.OpI32GtS)
		b.then(func() { b.LocalGet(e).LocalSet(best) })
		b.incr(k, 1)
	})
	b.LocalGet(best)
}

// seq_sum adds int slots, or float slots returning their bits.
func buildSeqSum(b *body) {
	const l = 0
	k, acc, facc := b.local(i32), b.local(i64), b.local(f64)
	b.elemTag(l)
	b.I32Const(int32(layout.TagFloat)).Op(wasm.OpI32Eq)
	b.then(func() {
		b.each(l, k, func() {
			b.LocalGet(facc)
			b.slot(l, k)
			b.Op(wasm.OpF64ReinterpretI64).Op(wasm.OpF64Add).LocalSet(facc)
		})
		b.LocalGet(facc).Op(wasm.OpI64ReinterpretF64).Return()
	})
	b.each(l, k, func() {
		b.LocalGet(acc)
		b.slot(l, k)
		b.Op(wasm.OpI64Add).LocalSet(acc)
	})
	b.LocalGet(acc)
}
