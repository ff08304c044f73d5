package rt

import (
	"waspy/internal/layout"
	"waspy/internal/wasm"
)

// alloc(size) bumps the heap pointer by size rounded up to the slot size,
// growing memory as needed, and returns zeroed memory.
func buildAlloc(b *body) {
	const size = 0
	p, end, q := b.local(i32), b.local(i32), b.local(i32)
	heap := b.global(GlobalHeap)

	b.GlobalGet(heap).LocalTee(p)
	b.LocalGet(size).I32Const(7).Op(wasm.OpI32Add).I32Const(-8).Op(wasm.OpI32And)
	b.Op(wasm.OpI32Add).LocalSet(end)
	// wrapped around the address space
	b.LocalGet(end).LocalGet(p).Op(wasm.OpI32LtU)
	b.then(func() { b.Unreachable() })

	b.LocalGet(end).MemorySize().I32Const(16).Op(wasm.OpI32Shl).Op(wasm.OpI32GtU)
	b.then(func() {
		b.LocalGet(end).MemorySize().I32Const(16).Op(wasm.OpI32Shl).Op(wasm.OpI32Sub)
		b.I32Const(0xffff).Op(wasm.OpI32Add).I32Const(16).Op(wasm.OpI32ShrU)
		b.MemoryGrow().I32Const(-1).Op(wasm.OpI32Eq)
		b.then(func() { b.Unreachable() })
	})

	b.LocalGet(p).LocalSet(q)
	b.while(func() {
		b.LocalGet(q).LocalGet(end).Op(wasm.OpI32LtU)
	}, func() {
		b.LocalGet(q).I64Const(0).I64Store(0)
		b.incr(q, 8)
	})
	b.LocalGet(end).GlobalSet(heap)
	b.LocalGet(p)
}

func buildArenaMark(b *body) {
	b.GlobalGet(b.global(GlobalHeap))
}

func buildArenaRelease(b *body) {
	b.LocalGet(0).GlobalSet(b.global(GlobalHeap))
}

// mem_copy(dst, src, n) copies n bytes front to back.
func buildMemCopy(b *body) {
	const dst, src, n = 0, 1, 2
	i := b.local(i32)
	b.while(func() {
		b.LocalGet(i).LocalGet(n).Op(wasm.OpI32LtU)
	}, func() {
		b.LocalGet(dst).LocalGet(i).Op(wasm.OpI32Add)
		b.LocalGet(src).LocalGet(i).Op(wasm.OpI32Add).I32Load8U(0)
		b.I32Store8(0)
		b.incr(i, 1)
	})
}

// box(tag, payload) wraps a primitive value for a dynamically typed slot.
func buildBox(b *body) {
	const tag, payload = 0, 1
	p := b.local(i32)
	b.I32Const(layout.BoxSize).Call(b.fn(Alloc)).LocalTee(p)
	b.LocalGet(tag).I32Store(layout.OffTag)
	b.LocalGet(p).LocalGet(payload).I64Store(layout.OffBoxPayload)
	b.LocalGet(p)
}

// raise(class, msg) allocates a builtin exception record and makes it
// the pending exception.
func buildRaise(b *body) {
	const class, msg = 0, 1
	p := b.local(i32)
	b.I32Const(layout.OffExcMessage + 8).Call(b.fn(Alloc)).LocalTee(p)
	b.I32Const(int32(layout.TagRecord)).I32Store(layout.OffTag)
	b.LocalGet(p).LocalGet(class).I32Store(layout.OffRecordClass)
	b.LocalGet(p).LocalGet(msg).Op(wasm.OpI64ExtendI32U).I64Store(layout.OffExcMessage)
	b.LocalGet(p).GlobalSet(b.global(GlobalExc))
}

// isinstance(obj, class) walks the parent table from the object's class.
func buildIsInstance(b *body) {
	const obj, class = 0, 1
	c := b.local(i32)
	parents, _, count := b.env.ClassTable()

	b.LocalGet(obj).Op(wasm.OpI32Eqz)
	b.then(func() { b.I32Const(0).Return() })
	b.LocalGet(obj).I32Load(layout.OffRecordClass).LocalSet(c)
	b.while(func() {
		b.LocalGet(c).Op(wasm.OpI32Eqz).Op(wasm.OpI32Eqz)
	}, func() {
		b.LocalGet(c).LocalGet(class).Op(wasm.OpI32Eq)
		b.then(func() { b.I32Const(1).Return() })
		b.LocalGet(c).U32Const(count).Op(wasm.OpI32GeU)
		b.then(func() { b.I32Const(0).Return() })
		b.LocalGet(c).I32Const(2).Op(wasm.OpI32Shl).I32Load(parents).LocalSet(c)
	})
	b.I32Const(0)
}

// class_name(class) returns the str literal naming the class, or 0.
func buildClassName(b *body) {
	_, names, count := b.env.ClassTable()
	b.LocalGet(0).U32Const(count).Op(wasm.OpI32GeU)
	b.then(func() { b.I32Const(0).Return() })
	b.LocalGet(0).I32Const(2).Op(wasm.OpI32Shl).I32Load(names)
}

func buildException(b *body) {
	b.GlobalGet(b.global(GlobalExc))
}

func buildClearException(b *body) {
	b.I32Const(0).GlobalSet(b.global(GlobalExc))
}
