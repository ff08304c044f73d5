package rt

import (
	"waspy/internal/layout"
	"waspy/internal/wasm"
)

// Strings are immutable UTF-8 byte runs; bytes objects share the layout
// under a different tag. Length, indexing and slicing of str count code
// points; comparisons are bytewise.

func (b *body) byteLen(s uint32) {
	b.LocalGet(s).I32Load(layout.OffStrLen)
}

// dataAt pushes the address of byte i of s.
func (b *body) dataAt(s, i uint32) {
	b.LocalGet(s).LocalGet(i).Op(wasm.OpI32Add).I32Const(layout.OffStrData).Op(wasm.OpI32Add)
}

func (b *body) tagOf(obj uint32) {
	b.LocalGet(obj).I32Load(layout.OffTag)
}

// pending pushes whether an exception is pending.
func (b *body) pending() {
	b.GlobalGet(b.global(GlobalExc))
}

// andThen computes lhs && rhs without evaluating rhs when lhs is false.
func (b *body) andThen(lhs, rhs func()) {
	lhs()
	b.If(wasm.Result(wasm.I32))
	rhs()
	b.Else().I32Const(0).End()
}

// charWidth stores into w the UTF-8 sequence length announced by lead.
func (b *body) charWidth(lead, w uint32) {
	b.I32Const(1).LocalSet(w)
	for _, step := range []int32{0xc0, 0xe0, 0xf0} {
		b.LocalGet(lead).I32Const(step).Op(wasm.OpI32GeU)
		b.then(func() { b.incr(w, 1) })
	}
}

func buildStrNew(b *body) {
	const n, tag = 0, 1
	p := b.local(i32)
	b.LocalGet(n).I32Const(layout.OffStrData).Op(wasm.OpI32Add).Call(b.fn(Alloc)).LocalTee(p)
	b.LocalGet(tag).I32Store(layout.OffTag)
	b.LocalGet(p).LocalGet(n).I32Store(layout.OffStrLen)
	b.LocalGet(p)
}

func buildStrConcat(b *body) {
	const x, y = 0, 1
	lx, ly, r := b.local(i32), b.local(i32), b.local(i32)
	b.byteLen(x)
	b.LocalSet(lx)
	b.byteLen(y)
	b.LocalSet(ly)
	b.LocalGet(lx).LocalGet(ly).Op(wasm.OpI32Add)
	b.tagOf(x)
	b.call(StrNew).LocalSet(r)
	b.LocalGet(r).I32Const(layout.OffStrData).Op(wasm.OpI32Add)
	b.LocalGet(x).I32Const(layout.OffStrData).Op(wasm.OpI32Add)
	b.LocalGet(lx).Call(b.fn(MemCopy))
	b.dataAt(r, lx)
	b.LocalGet(y).I32Const(layout.OffStrData).Op(wasm.OpI32Add)
	b.LocalGet(ly).Call(b.fn(MemCopy))
	b.LocalGet(r)
}

func buildStrRepeat(b *body) {
	const s, n = 0, 1
	ls, count, r, i, at := b.local(i32), b.local(i32), b.local(i32), b.local(i32), b.local(i32)
	b.LocalGet(n).I64Const(0).Op(wasm.OpI64LeS)
	b.then(func() {
		b.I32Const(0)
		b.tagOf(s)
		b.call(StrNew).Return()
	})
	b.LocalGet(n).I64Const(0x7fffffff).Op(wasm.OpI64GtS)
	b.then(func() { b.Unreachable() })
	b.LocalGet(n).Op(wasm.OpI32WrapI64).LocalSet(count)
	b.byteLen(s)
	b.LocalSet(ls)
	b.LocalGet(ls).LocalGet(count).Op(wasm.OpI32Mul)
	b.tagOf(s)
	b.call(StrNew).LocalSet(r)
	b.LocalGet(r).I32Const(layout.OffStrData).Op(wasm.OpI32Add).LocalSet(at)
	b.while(func() {
		b.LocalGet(i).LocalGet(count).Op(wasm.OpI32LtU)
	}, func() {
		b.LocalGet(at).LocalGet(s).I32Const(layout.OffStrData).Op(wasm.OpI32Add).LocalGet(ls).Call(b.fn(MemCopy))
		b.LocalGet(at).LocalGet(ls).Op(wasm.OpI32Add).LocalSet(at)
		b.incr(i, 1)
	})
	b.LocalGet(r)
}

func buildStrEq(b *body) {
	const x, y = 0, 1
	n, i := b.local(i32), b.local(i32)
	b.LocalGet(x).LocalGet(y).Op(wasm.OpI32Eq)
	b.then(func() { b.I32Const(1).Return() })
	b.LocalGet(x).Op(wasm.OpI32Eqz).LocalGet(y).Op(wasm.OpI32Eqz).Op(wasm.OpI32Or)
	b.then(func() { b.I32Const(0).Return() })
	b.byteLen(x)
	b.LocalTee(n)
	b.byteLen(y)
	b.Op(wasm.OpI32Ne)
	b.then(func() { b.I32Const(0).Return() })
	b.while(func() {
		b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		b.dataAt(x, i)
		b.I32Load8U(0)
		b.dataAt(y, i)
		b.I32Load8U(0)
		b.Op(wasm.OpI32Ne)
		b.then(func() { b.I32Const(0).Return() })
		b.incr(i, 1)
	})
	b.I32Const(1)
}

// str_cmp returns -1, 0 or 1 comparing the bytes of x and y.
func buildStrCmp(b *body) {
	const x, y = 0, 1
	lx, ly, n, i, cx, cy := b.local(i32), b.local(i32), b.local(i32), b.local(i32), b.local(i32), b.local(i32)
	b.byteLen(x)
	b.LocalSet(lx)
	b.byteLen(y)
	b.LocalSet(ly)
	b.LocalGet(lx).LocalGet(ly).LocalGet(lx).LocalGet(ly).Op(wasm.OpI32LtU).Select().LocalSet(n)
	b.while(func() {
		b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		b.dataAt(x, i)
		b.I32Load8U(0).LocalSet(cx)
		b.dataAt(y, i)
		b.I32Load8U(0).LocalSet(cy)
		b.LocalGet(cx).LocalGet(cy).Op(wasm.OpI32Ne)
		b.then(func() {
			b.I32Const(-1).I32Const(1).LocalGet(cx).LocalGet(cy).Op(wasm.OpI32LtU).Select().Return()
		})
		b.incr(i, 1)
	})
	b.LocalGet(lx).LocalGet(ly).Op(wasm.OpI32GtU)
	b.LocalGet(lx).LocalGet(ly).Op(wasm.OpI32LtU)
	b.Op(wasm.OpI32Sub)
}

// str_len counts code points; bytes objects report their byte length.
func buildStrLen(b *body) {
	const s = 0
	n, i, count := b.local(i32), b.local(i32), b.local(i32)
	b.byteLen(s)
	b.LocalSet(n)
	b.tagOf(s)
	b.I32Const(int32(layout.TagBytes)).Op(wasm.OpI32Eq)
	b.then(func() { b.LocalGet(n).Op(wasm.OpI64ExtendI32U).Return() })
	b.while(func() {
		b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		b.dataAt(s, i)
		b.I32Load8U(0).I32Const(0xc0).Op(wasm.OpI32And).I32Const(0x80).Op(wasm.OpI32Ne)
		b.then(func() { b.incr(count, 1) })
		b.incr(i, 1)
	})
	b.LocalGet(count).Op(wasm.OpI64ExtendI32U)
}

// str_offset returns the byte offset of code point k, or the byte length
// when k is past the end.
func buildStrOffset(b *body) {
	const s, k = 0, 1
	n, i, c := b.local(i32), b.local(i32), b.local(i32)
	b.byteLen(s)
	b.LocalSet(n)
	b.while(func() {
		b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		b.dataAt(s, i)
		b.I32Load8U(0).I32Const(0xc0).Op(wasm.OpI32And).I32Const(0x80).Op(wasm.OpI32Ne)
		b.then(func() {
			b.LocalGet(c).LocalGet(k).Op(wasm.OpI32Eq)
			b.then(func() { b.LocalGet(i).Return() })
			b.incr(c, 1)
		})
		b.incr(i, 1)
	})
	b.LocalGet(n)
}

// normIndex adds n to a negative i64 index and reports whether the
// result is outside [0, n).
func (b *body) normIndex(idx, n uint32) {
	b.LocalGet(idx).I64Const(0).Op(wasm.OpI64LtS)
	b.then(func() { b.LocalGet(idx).LocalGet(n).Op(wasm.OpI64Add).LocalSet(idx) })
	b.LocalGet(idx).I64Const(0).Op(wasm.OpI64LtS)
	b.LocalGet(idx).LocalGet(n).Op(wasm.OpI64GeS)
	b.Op(wasm.OpI32Or)
}

// copyChar returns a new one-character str holding the sequence at byte off.
func (b *body) copyChar(s, off, w, r uint32) {
	b.dataAt(s, off)
	b.I32Load8U(0).LocalSet(r)
	b.charWidth(r, w)
	b.LocalGet(w).I32Const(int32(layout.TagStr)).Call(b.fn(StrNew)).LocalTee(r)
	b.I32Const(layout.OffStrData).Op(wasm.OpI32Add)
	b.dataAt(s, off)
	b.LocalGet(w).Call(b.fn(MemCopy))
}

func buildStrChar(b *body) {
	const s, idx = 0, 1
	n, off, w, r := b.local(i64), b.local(i32), b.local(i32), b.local(i32)
	b.LocalGet(s).Call(b.fn(StrLen)).LocalSet(n)
	b.normIndex(idx, n)
	b.then(func() {
		b.raise(classIndex, "string index out of range")
		b.I32Const(0).Return()
	})
	b.LocalGet(s).LocalGet(idx).Op(wasm.OpI32WrapI64).Call(b.fn(StrOffset)).LocalSet(off)
	b.copyChar(s, off, w, r)
	b.LocalGet(r)
}

func buildStrSlice(b *body) {
	const s, lo, hi, step, mask = 0, 1, 2, 3, 4
	n, count, pos, st, r, k, chars := b.local(i64), b.local(i32), b.local(i64), b.local(i64), b.local(i32), b.local(i32), b.local(i32)
	b.LocalGet(s).Call(b.fn(StrLen)).LocalTee(n)
	b.byteLen(s)
	b.Op(wasm.OpI64ExtendI32U).Op(wasm.OpI64Ne)
	b.then(func() {
		// multi-byte text slices by characters
		b.LocalGet(s).Call(b.fn(StrChars)).LocalSet(chars)
		b.LocalGet(chars).LocalGet(lo).LocalGet(hi).LocalGet(step).LocalGet(mask).Call(b.fn(SeqSlice)).LocalSet(chars)
		b.pending()
		b.then(func() { b.I32Const(0).Return() })
		b.LocalGet(chars).Call(b.fn(StrJoin)).Return()
	})
	b.LocalGet(n).LocalGet(lo).LocalGet(hi).LocalGet(step).LocalGet(mask).Call(b.fn(SliceIndices))
	b.Op(wasm.OpI32WrapI64).LocalSet(count)
	b.pending()
	b.then(func() { b.I32Const(0).Return() })
	b.U32Const(ScratchAddr).I64Load(0).LocalSet(pos)
	b.U32Const(ScratchAddr).I64Load(8).LocalSet(st)
	b.LocalGet(count)
	b.tagOf(s)
	b.call(StrNew).LocalSet(r)
	b.while(func() {
		b.LocalGet(k).LocalGet(count).Op(wasm.OpI32LtU)
	}, func() {
		b.dataAt(r, k)
		b.LocalGet(s).LocalGet(pos).Op(wasm.OpI32WrapI64).Op(wasm.OpI32Add).I32Load8U(layout.OffStrData)
		b.I32Store8(0)
		b.LocalGet(pos).LocalGet(st).Op(wasm.OpI64Add).LocalSet(pos)
		b.incr(k, 1)
	})
	b.LocalGet(r)
}

// str_chars splits text into a list of one-character strings.
func buildStrChars(b *body) {
	const s = 0
	n, i, w, r, list := b.local(i32), b.local(i32), b.local(i32), b.local(i32), b.local(i32)
	b.byteLen(s)
	b.LocalSet(n)
	b.I32Const(int32(layout.TagList)).I32Const(int32(layout.TagStr)).LocalGet(n).Call(b.fn(SeqNew)).LocalSet(list)
	b.while(func() {
		b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		b.copyChar(s, i, w, r)
		b.LocalGet(list).LocalGet(r).Op(wasm.OpI64ExtendI32U).Call(b.fn(ListPush))
		b.LocalGet(i).LocalGet(w).Op(wasm.OpI32Add).LocalSet(i)
	})
	b.LocalGet(list)
}

// str_join concatenates a list of strings.
func buildStrJoin(b *body) {
	const list = 0
	n, i, total, item, r, at := b.local(i32), b.local(i32), b.local(i32), b.local(i32), b.local(i32), b.local(i32)
	b.LocalGet(list).I32Load(layout.OffSeqLen).LocalSet(n)
	item64 := func() {
		b.LocalGet(list).I32Load(layout.OffSeqData).LocalGet(i).I32Const(3).Op(wasm.OpI32Shl).Op(wasm.OpI32Add)
		b.I32Load(0).LocalSet(item)
	}
	b.while(func() {
		b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		item64()
		b.LocalGet(total)
		b.byteLen(item)
		b.Op(wasm.OpI32Add).LocalSet(total)
		b.incr(i, 1)
	})
	b.LocalGet(total).I32Const(int32(layout.TagStr)).Call(b.fn(StrNew)).LocalTee(r)
	b.I32Const(layout.OffStrData).Op(wasm.OpI32Add).LocalSet(at)
	b.I32Const(0).LocalSet(i)
	b.while(func() {
		b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		item64()
		b.LocalGet(at).LocalGet(item).I32Const(layout.OffStrData).Op(wasm.OpI32Add)
		b.byteLen(item)
		b.call(MemCopy)
		b.LocalGet(at)
		b.byteLen(item)
		b.Op(wasm.OpI32Add).LocalSet(at)
		b.incr(i, 1)
	})
	b.LocalGet(r)
}

// str_contains reports whether needle occurs in hay.
func buildStrContains(b *body) {
	const hay, needle = 0, 1
	lh, ln, i, j := b.local(i32), b.local(i32), b.local(i32), b.local(i32)
	b.byteLen(hay)
	b.LocalSet(lh)
	b.byteLen(needle)
	b.LocalSet(ln)
	b.while(func() {
		b.LocalGet(i).LocalGet(ln).Op(wasm.OpI32Add).LocalGet(lh).Op(wasm.OpI32LeU)
	}, func() {
		b.I32Const(0).LocalSet(j)
		b.while(func() {
			b.andThen(func() {
				b.LocalGet(j).LocalGet(ln).Op(wasm.OpI32LtU)
			}, func() {
				b.LocalGet(hay).LocalGet(i).Op(wasm.OpI32Add).LocalGet(j).Op(wasm.OpI32Add).I32Load8U(layout.OffStrData)
				b.dataAt(needle, j)
				b.I32Load8U(0)
				b.Op(wasm.OpI32Eq)
			})
		}, func() {
			b.incr(j, 1)
		})
		b.LocalGet(j).LocalGet(ln).Op(wasm.OpI32Eq)
		b.then(func() { b.I32Const(1).Return() })
		b.incr(i, 1)
	})
	b.I32Const(0)
}

func buildBytesAt(b *body) {
	const s, idx = 0, 1
	n := b.local(i64)
	b.byteLen(s)
	b.Op(wasm.OpI64ExtendI32U).LocalSet(n)
	b.normIndex(idx, n)
	b.then(func() {
		b.raise(classIndex, "index out of range")
		b.I64Const(0).Return()
	})
	b.LocalGet(s).LocalGet(idx).Op(wasm.OpI32WrapI64).Op(wasm.OpI32Add).I32Load8U(layout.OffStrData)
	b.Op(wasm.OpI64ExtendI32U)
}

func buildBytesHas(b *body) {
	const s, v = 0, 1
	n, i := b.local(i32), b.local(i32)
	b.byteLen(s)
	b.LocalSet(n)
	b.while(func() {
		b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		b.dataAt(s, i)
		b.I32Load8U(0).Op(wasm.OpI64ExtendI32U).LocalGet(v).Op(wasm.OpI64Eq)
		b.then(func() { b.I32Const(1).Return() })
		b.incr(i, 1)
	})
	b.I32Const(0)
}

// bytes_list returns the byte values as a list of ints.
func buildBytesList(b *body) {
	const s = 0
	n, i, list := b.local(i32), b.local(i32), b.local(i32)
	b.byteLen(s)
	b.LocalSet(n)
	b.I32Const(int32(layout.TagList)).I32Const(int32(layout.TagInt)).LocalGet(n).Call(b.fn(SeqNew)).LocalSet(list)
	b.while(func() {
		b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		b.LocalGet(list)
		b.dataAt(s, i)
		b.I32Load8U(0).Op(wasm.OpI64ExtendI32U).Call(b.fn(ListPush))
		b.incr(i, 1)
	})
	b.LocalGet(list)
}

func buildBoolToStr(b *body) {
	b.U32Const(b.env.Str("True")).U32Const(b.env.Str("False")).LocalGet(0).Select()
}

// int_to_str formats in base 10. Digits are produced from the negated
// value so the most negative int needs no special case.
func buildIntToStr(b *body) {
	const v = 0
	x, neg, pos, n, r := b.local(i64), b.local(i32), b.local(i32), b.local(i32), b.local(i32)
	end := int32(ScratchAddr + ScratchSize)
	b.LocalGet(v).LocalTee(x).I64Const(0).Op(wasm.OpI64LtS).LocalTee(neg)
	b.Op(wasm.OpI32Eqz)
	b.then(func() { b.I64Const(0).LocalGet(x).Op(wasm.OpI64Sub).LocalSet(x) })
	b.I32Const(end).LocalSet(pos)
	b.Loop(wasm.BlockEmpty)
	b.incr(pos, -1)
	b.LocalGet(pos)
	b.I64Const(0).LocalGet(x).I64Const(10).Op(wasm.OpI64RemS).Op(wasm.OpI64Sub)
	b.Op(wasm.OpI32WrapI64).I32Const('0').Op(wasm.OpI32Add).I32Store8(0)
	b.LocalGet(x).I64Const(10).Op(wasm.OpI64DivS).LocalTee(x)
	b.Op(wasm.OpI64Eqz).Op(wasm.OpI32Eqz).BrIf(0)
	b.End()
	b.LocalGet(neg)
	b.then(func() {
		b.incr(pos, -1)
		b.LocalGet(pos).I32Const('-').I32Store8(0)
	})
	b.I32Const(end).LocalGet(pos).Op(wasm.OpI32Sub).LocalTee(n)
	b.I32Const(int32(layout.TagStr)).Call(b.fn(StrNew)).LocalTee(r)
	b.I32Const(layout.OffStrData).Op(wasm.OpI32Add).LocalGet(pos).LocalGet(n).Call(b.fn(MemCopy))
	b.LocalGet(r)
}

// isSpace leaves whether the byte in c is ASCII whitespace.
func (b *body) isSpace(c uint32) {
	b.LocalGet(c).I32Const(' ').Op(wasm.OpI32Eq)
	b.LocalGet(c).I32Const(9).Op(wasm.OpI32Sub).I32Const(4).Op(wasm.OpI32LeU)
	b.Op(wasm.OpI32Or)
}

// str_to_int parses an integer literal with an optional sign, base prefix
// and underscores between digits, surrounded by optional whitespace.
func buildStrToInt(b *body) {
	const s, base = 0, 1
	n, i, c, neg, seen, radix, d := b.local(i32), b.local(i32), b.local(i32), b.local(i32), b.local(i32), b.local(i32), b.local(i32)
	acc := b.local(i64)

	b.LocalGet(base).Op(wasm.OpI64Eqz).Op(wasm.OpI32Eqz)
	b.LocalGet(base).I64Const(2).Op(wasm.OpI64LtS).LocalGet(base).I64Const(36).Op(wasm.OpI64GtS).Op(wasm.OpI32Or)
	b.Op(wasm.OpI32And)
	b.then(func() {
		b.raise(classValue, "int() base must be >= 2 and <= 36, or 0")
		b.I64Const(0).Return()
	})
	b.LocalGet(base).Op(wasm.OpI32WrapI64).LocalSet(radix)
	b.byteLen(s)
	b.LocalSet(n)

	cur := func() {
		b.dataAt(s, i)
		b.I32Load8U(0).LocalSet(c)
	}
	skipSpace := func() {
		b.while(func() {
			b.andThen(func() { b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU) }, func() {
				cur()
				b.isSpace(c)
			})
		}, func() { b.incr(i, 1) })
	}
	skipSpace()

	b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	b.then(func() {
		cur()
		b.LocalGet(c).I32Const('-').Op(wasm.OpI32Eq).LocalTee(neg)
		b.LocalGet(c).I32Const('+').Op(wasm.OpI32Eq).Op(wasm.OpI32Or)
		b.then(func() { b.incr(i, 1) })
	})

	b.LocalGet(i).I32Const(1).Op(wasm.OpI32Add).LocalGet(n).Op(wasm.OpI32LtU)
	b.then(func() {
		cur()
		b.LocalGet(c).I32Const('0').Op(wasm.OpI32Eq)
		b.then(func() {
			b.LocalGet(s).LocalGet(i).Op(wasm.OpI32Add).I32Load8U(layout.OffStrData + 1)
			b.I32Const(0x20).Op(wasm.OpI32Or).LocalSet(c)
			for _, p := range []struct{ letter, radix int32 }{{'x', 16}, {'o', 8}, {'b', 2}} {
				b.LocalGet(c).I32Const(p.letter).Op(wasm.OpI32Eq)
				b.LocalGet(radix).Op(wasm.OpI32Eqz).LocalGet(radix).I32Const(p.radix).Op(wasm.OpI32Eq).Op(wasm.OpI32Or)
				b.Op(wasm.OpI32And)
				b.then(func() {
					b.I32Const(p.radix).LocalSet(radix)
					b.incr(i, 2)
				})
			}
		})
	})
	b.LocalGet(radix).Op(wasm.OpI32Eqz)
	b.then(func() { b.I32Const(10).LocalSet(radix) })

	b.while(func() {
		b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		cur()
		b.andThen(func() { b.LocalGet(c).I32Const('_').Op(wasm.OpI32Eq) }, func() { b.LocalGet(seen) })
		b.then(func() {
			b.incr(i, 1)
			b.Br(1) // continue
		})
		b.I32Const(99).LocalSet(d)
		b.LocalGet(c).I32Const('0').Op(wasm.OpI32Sub).I32Const(9).Op(wasm.OpI32LeU)
		b.then(func() { b.LocalGet(c).I32Const('0').Op(wasm.OpI32Sub).LocalSet(d) })
		b.LocalGet(c).I32Const(0x20).Op(wasm.OpI32Or).I32Const('a').Op(wasm.OpI32Sub).I32Const(25).Op(wasm.OpI32LeU)
		b.then(func() { b.LocalGet(c).I32Const(0x20).Op(wasm.OpI32Or).I32Const('a' - 10).Op(wasm.OpI32Sub).LocalSet(d) })
		b.LocalGet(d).LocalGet(radix).Op(wasm.OpI32GeU).BrIf(1) // break
		b.LocalGet(acc).LocalGet(radix).Op(wasm.OpI64ExtendI32U).Op(wasm.OpI64Mul)
		b.LocalGet(d).Op(wasm.OpI64ExtendI32U).Op(wasm.OpI64Add).LocalSet(acc)
		b.I32Const(1).LocalSet(seen)
		b.incr(i, 1)
	})
	skipSpace()

	b.LocalGet(seen).Op(wasm.OpI32Eqz).LocalGet(i).LocalGet(n).Op(wasm.OpI32Ne).Op(wasm.OpI32Or)
	b.then(func() {
		b.raise(classValue, "invalid literal for int()")
		b.I64Const(0).Return()
	})
	b.I64Const(0).LocalGet(acc).Op(wasm.OpI64Sub).LocalGet(acc).LocalGet(neg).Select()
}

// chr encodes one code point as UTF-8.
func buildChr(b *body) {
	const v = 0
	c, w, r := b.local(i32), b.local(i32), b.local(i32)
	b.LocalGet(v).I64Const(0).Op(wasm.OpI64LtS).LocalGet(v).I64Const(0x10ffff).Op(wasm.OpI64GtS).Op(wasm.OpI32Or)
	b.then(func() {
		b.raise(classValue, "chr() arg not in range(0x110000)")
		b.I32Const(0).Return()
	})
	b.LocalGet(v).Op(wasm.OpI32WrapI64).LocalSet(c)
	b.I32Const(1).LocalSet(w)
	for _, limit := range []int32{0x80, 0x800, 0x10000} {
		b.LocalGet(c).I32Const(limit).Op(wasm.OpI32GeU)
		b.then(func() { b.incr(w, 1) })
	}
	b.LocalGet(w).I32Const(int32(layout.TagStr)).Call(b.fn(StrNew)).LocalSet(r)

	// continuation bytes, last first
	cont := func(at uint32, shift int32) {
		b.LocalGet(r).LocalGet(c).I32Const(shift).Op(wasm.OpI32ShrU).I32Const(0x3f).Op(wasm.OpI32And)
		b.I32Const(0x80).Op(wasm.OpI32Or).I32Store8(layout.OffStrData + at)
	}
	lead := func(prefix, shift int32) {
		b.LocalGet(r).LocalGet(c).I32Const(shift).Op(wasm.OpI32ShrU).I32Const(prefix).Op(wasm.OpI32Or).I32Store8(layout.OffStrData)
	}
	b.LocalGet(w).I32Const(1).Op(wasm.OpI32Eq)
	b.then(func() { b.LocalGet(r).LocalGet(c).I32Store8(layout.OffStrData) })
	b.LocalGet(w).I32Const(2).Op(wasm.OpI32Eq)
	b.then(func() {
		lead(0xc0, 6)
		cont(1, 0)
	})
	b.LocalGet(w).I32Const(3).Op(wasm.OpI32Eq)
	b.then(func() {
		lead(0xe0, 12)
		cont(1, 6)
		cont(2, 0)
	})
	b.LocalGet(w).I32Const(4).Op(wasm.OpI32Eq)
	b.then(func() {
		lead(0xf0, 18)
		cont(1, 12)
		cont(2, 6)
		cont(3, 0)
	})
	b.LocalGet(r)
}

// ord decodes the single character of s.
func buildOrd(b *body) {
	const s = 0
	c, w, acc, k := b.local(i32), b.local(i32), b.local(i32), b.local(i32)
	fail := func() {
		b.raise(classType, "ord() expected a character")
		b.I64Const(0).Return()
	}
	b.tagOf(s)
	b.I32Const(int32(layout.TagBytes)).Op(wasm.OpI32Eq)
	b.then(func() {
		b.byteLen(s)
		b.I32Const(1).Op(wasm.OpI32Ne)
		b.then(fail)
		b.LocalGet(s).I32Load8U(layout.OffStrData).Op(wasm.OpI64ExtendI32U).Return()
	})
	b.LocalGet(s).Call(b.fn(StrLen)).I64Const(1).Op(wasm.OpI64Ne)
	b.then(fail)
	b.LocalGet(s).I32Load8U(layout.OffStrData).LocalTee(c)
	b.LocalSet(acc)
	b.charWidth(c, w)
	// strip the length marker from the lead byte
	b.LocalGet(w).I32Const(1).Op(wasm.OpI32Ne)
	b.then(func() {
		b.LocalGet(acc).I32Const(0xff).LocalGet(w).I32Const(1).Op(wasm.OpI32Add).Op(wasm.OpI32ShrU).Op(wasm.OpI32And).LocalSet(acc)
	})
	b.I32Const(1).LocalSet(k)
	b.while(func() {
		b.LocalGet(k).LocalGet(w).Op(wasm.OpI32LtU)
	}, func() {
		b.LocalGet(acc).I32Const(6).Op(wasm.OpI32Shl)
		b.dataAt(s, k)
		b.I32Load8U(0).I32Const(0x3f).Op(wasm.OpI32And).Op(wasm.OpI32Or).LocalSet(acc)
		b.incr(k, 1)
	})
	b.LocalGet(acc).Op(wasm.OpI64ExtendI32U)
}
