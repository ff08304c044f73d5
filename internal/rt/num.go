package rt

import (
	"math"

	"waspy/internal/wasm"
)

// Integer division rounds toward negative infinity and the remainder takes
// the sign of the divisor. Arithmetic wraps at 64 bits.

func (b *body) zeroDivisor(y uint32, float bool, msg string) {
	if float {
		b.LocalGet(y).F64Const(0).Op(wasm.OpF64Eq)
	} else {
		b.LocalGet(y).Op(wasm.OpI64Eqz)
	}
	b.then(func() {
		b.raise(classZeroDivision, msg)
		if float {
			b.F64Const(0)
		} else {
			b.I64Const(0)
		}
		b.Return()
	})
}

func buildIntFloorDiv(b *body) {
	const x, y = 0, 1
	q := b.local(i64)
	b.zeroDivisor(y, false, "integer division or modulo by zero")
	b.LocalGet(y).I64Const(-1).Op(wasm.OpI64Eq)
	b.then(func() { b.I64Const(0).LocalGet(x).Op(wasm.OpI64Sub).Return() })
	b.LocalGet(x).LocalGet(y).Op(wasm.OpI64DivS).LocalSet(q)
	b.LocalGet(x).LocalGet(y).Op(wasm.OpI64RemS).I64Const(0).Op(wasm.OpI64Ne)
	b.LocalGet(x).LocalGet(y).Op(wasm.OpI64Xor).I64Const(0).Op(wasm.OpI64LtS)
	b.Op(wasm.OpI32And)
	b.then(func() { b.incr64(q, -1) })
	b.LocalGet(q)
}

func buildIntMod(b *body) {
	const x, y = 0, 1
	r := b.local(i64)
	b.zeroDivisor(y, false, "integer modulo by zero")
	b.LocalGet(y).I64Const(-1).Op(wasm.OpI64Eq)
	b.then(func() { b.I64Const(0).Return() })
	b.LocalGet(x).LocalGet(y).Op(wasm.OpI64RemS).LocalTee(r)
	b.I64Const(0).Op(wasm.OpI64Ne)
	b.LocalGet(r).LocalGet(y).Op(wasm.OpI64Xor).I64Const(0).Op(wasm.OpI64LtS)
	b.Op(wasm.OpI32And)
	b.then(func() { b.LocalGet(r).LocalGet(y).Op(wasm.OpI64Add).LocalSet(r) })
	b.LocalGet(r)
}

// int_pow squares and multiplies; negative exponents are rejected since
// the result type stays int.
func buildIntPow(b *body) {
	const x, e = 0, 1
	r := b.local(i64)
	b.LocalGet(e).I64Const(0).Op(wasm.OpI64LtS)
	b.then(func() {
		b.raise(classValue, "negative exponent for int ** int")
		b.I64Const(0).Return()
	})
	b.I64Const(1).LocalSet(r)
	b.while(func() {
		b.LocalGet(e).Op(wasm.OpI64Eqz).Op(wasm.OpI32Eqz)
	}, func() {
		b.LocalGet(e).I64Const(1).Op(wasm.OpI64And).Op(wasm.OpI64Eqz).Op(wasm.OpI32Eqz)
		b.then(func() { b.LocalGet(r).LocalGet(x).Op(wasm.OpI64Mul).LocalSet(r) })
		b.LocalGet(x).LocalGet(x).Op(wasm.OpI64Mul).LocalSet(x)
		b.LocalGet(e).I64Const(1).Op(wasm.OpI64ShrU).LocalSet(e)
	})
	b.LocalGet(r)
}

func buildFloatDiv(b *body) {
	const x, y = 0, 1
	b.zeroDivisor(y, true, "float division by zero")
	b.LocalGet(x).LocalGet(y).Op(wasm.OpF64Div)
}

func buildFloatFloorDiv(b *body) {
	const x, y = 0, 1
	b.zeroDivisor(y, true, "float floor division by zero")
	b.LocalGet(x).LocalGet(y).Op(wasm.OpF64Div).Op(wasm.OpF64Floor)
}

func buildFloatMod(b *body) {
	const x, y = 0, 1
	b.zeroDivisor(y, true, "float modulo by zero")
	b.LocalGet(x)
	b.LocalGet(y).LocalGet(x).LocalGet(y).Op(wasm.OpF64Div).Op(wasm.OpF64Floor).Op(wasm.OpF64Mul)
	b.Op(wasm.OpF64Sub)
}

// float_to_int truncates toward zero, rejecting values int cannot hold.
func buildFloatToInt(b *body) {
	const x = 0
	b.LocalGet(x).LocalGet(x).Op(wasm.OpF64Ne)
	b.then(func() {
		b.raise(classValue, "cannot convert float NaN to integer")
		b.I64Const(0).Return()
	})
	b.LocalGet(x).Op(wasm.OpF64Abs).F64Const(math.Inf(1)).Op(wasm.OpF64Eq)
	b.then(func() {
		b.raise(classOverflow, "cannot convert float infinity to integer")
		b.I64Const(0).Return()
	})
	b.LocalGet(x).F64Const(0x1p63).Op(wasm.OpF64Ge)
	b.LocalGet(x).F64Const(-0x1p63).Op(wasm.OpF64Lt)
	b.Op(wasm.OpI32Or)
	b.then(func() {
		b.raise(classOverflow, "int too large to convert")
		b.I64Const(0).Return()
	})
	b.LocalGet(x).Op(wasm.OpI64TruncF64S)
}
