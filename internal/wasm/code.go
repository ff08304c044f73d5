package wasm

import (
	"fmt"
	"math"
)

// Code accumulates the instruction stream of one function body. It tracks
// the structured nesting and the largest index used in each index space so
// the module can check itself before it is encoded.
type Code struct {
	buf   []byte
	depth int
	err   error

	maxLocal  int64
	maxGlobal int64
	calls     []uint32
}

func NewCode() *Code {
	return &Code{maxLocal: -1, maxGlobal: -1}
}

// Bytes returns the encoded instructions without the closing end.
func (c *Code) Bytes() []byte { return c.buf }

// Len is the encoded size so far.
func (c *Code) Len() int { return len(c.buf) }

// Depth is the number of open structured instructions.
func (c *Code) Depth() int { return c.depth }

// Err reports the first structural mistake made while emitting.
func (c *Code) Err() error { return c.err }

func (c *Code) fail(format string, args ...any) {
	if c.err == nil {
		c.err = fmt.Errorf(format, args...)
	}
}

// Op emits an instruction without immediates.
func (c *Code) Op(op Opcode) *Code {
	c.buf = append(c.buf, byte(op))
	return c
}

func (c *Code) Unreachable() *Code { return c.Op(OpUnreachable) }
func (c *Code) Drop() *Code        { return c.Op(OpDrop) }
func (c *Code) Select() *Code      { return c.Op(OpSelect) }
func (c *Code) Return() *Code      { return c.Op(OpReturn) }

func (c *Code) open(op Opcode, bt BlockType) *Code {
	c.depth++
	c.buf = append(c.buf, byte(op), byte(bt))
	return c
}

func (c *Code) Block(bt BlockType) *Code { return c.open(OpBlock, bt) }
func (c *Code) Loop(bt BlockType) *Code  { return c.open(OpLoop, bt) }
func (c *Code) If(bt BlockType) *Code    { return c.open(OpIf, bt) }

func (c *Code) Else() *Code {
	if c.depth == 0 {
		c.fail("else outside of if")
	}
	return c.Op(OpElse)
}

func (c *Code) End() *Code {
	if c.depth == 0 {
		c.fail("end without an open block")
	} else {
		c.depth--
	}
	return c.Op(OpEnd)
}

func (c *Code) label(d uint32) {
	// the function body itself is label depth c.depth
	if int64(d) > int64(c.depth) {
		c.fail("branch depth %d exceeds nesting %d", d, c.depth)
	}
}

func (c *Code) Br(d uint32) *Code {
	c.label(d)
	c.buf = AppendU32(append(c.buf, byte(OpBr)), d)
	return c
}

func (c *Code) BrIf(d uint32) *Code {
	c.label(d)
	c.buf = AppendU32(append(c.buf, byte(OpBrIf)), d)
	return c
}

func (c *Code) BrTable(targets []uint32, def uint32) *Code {
	c.buf = append(c.buf, byte(OpBrTable))
	var err error
	c.buf, err = appendLen(c.buf, len(targets))
	if err != nil {
		c.fail("br_table: %v", err)
	}
	for _, t := range targets {
		c.label(t)
		c.buf = AppendU32(c.buf, t)
	}
	c.label(def)
	c.buf = AppendU32(c.buf, def)
	return c
}

func (c *Code) Call(fn uint32) *Code {
	c.calls = append(c.calls, fn)
	c.buf = AppendU32(append(c.buf, byte(OpCall)), fn)
	return c
}

func (c *Code) local(op Opcode, idx uint32) *Code {
	c.maxLocal = max(c.maxLocal, int64(idx))
	c.buf = AppendU32(append(c.buf, byte(op)), idx)
	return c
}

func (c *Code) LocalGet(idx uint32) *Code { return c.local(OpLocalGet, idx) }
func (c *Code) LocalSet(idx uint32) *Code { return c.local(OpLocalSet, idx) }
func (c *Code) LocalTee(idx uint32) *Code { return c.local(OpLocalTee, idx) }

func (c *Code) global(op Opcode, idx uint32) *Code {
	c.maxGlobal = max(c.maxGlobal, int64(idx))
	c.buf = AppendU32(append(c.buf, byte(op)), idx)
	return c
}

func (c *Code) GlobalGet(idx uint32) *Code { return c.global(OpGlobalGet, idx) }
func (c *Code) GlobalSet(idx uint32) *Code { return c.global(OpGlobalSet, idx) }

// mem emits a load or store with its natural alignment.
func (c *Code) mem(op Opcode, align, offset uint32) *Code {
	c.buf = append(c.buf, byte(op))
	c.buf = AppendU32(c.buf, align)
	c.buf = AppendU32(c.buf, offset)
	return c
}

func (c *Code) I32Load(offset uint32) *Code   { return c.mem(OpI32Load, 2, offset) }
func (c *Code) I64Load(offset uint32) *Code   { return c.mem(OpI64Load, 3, offset) }
func (c *Code) F64Load(offset uint32) *Code   { return c.mem(OpF64Load, 3, offset) }
func (c *Code) I32Load8U(offset uint32) *Code { return c.mem(OpI32Load8U, 0, offset) }
func (c *Code) I32Store(offset uint32) *Code  { return c.mem(OpI32Store, 2, offset) }
func (c *Code) I64Store(offset uint32) *Code  { return c.mem(OpI64Store, 3, offset) }
func (c *Code) F64Store(offset uint32) *Code  { return c.mem(OpF64Store, 3, offset) }
func (c *Code) I32Store8(offset uint32) *Code { return c.mem(OpI32Store8, 0, offset) }

func (c *Code) MemorySize() *Code {
	c.buf = append(c.buf, byte(OpMemorySize), 0x00)
	return c
}

func (c *Code) MemoryGrow() *Code {
	c.buf = append(c.buf, byte(OpMemoryGrow), 0x00)
	return c
}

func (c *Code) I32Const(v int32) *Code {
	c.buf = AppendS32(append(c.buf, byte(OpI32Const)), v)
	return c
}

// U32Const pushes an address or size; it is the i32 with the same bits.
func (c *Code) U32Const(v uint32) *Code {
	return c.I32Const(int32(v)) //nolint:gosec // bit pattern is intended
}

func (c *Code) I64Const(v int64) *Code {
	c.buf = AppendS64(append(c.buf, byte(OpI64Const)), v)
	return c
}

func (c *Code) F64Const(v float64) *Code {
	bits := math.Float64bits(v)
	c.buf = append(c.buf, byte(OpF64Const),
		byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24),
		byte(bits>>32), byte(bits>>40), byte(bits>>48), byte(bits>>56))
	return c
}

// ConstExpr is a constant initializer of a global or a data segment offset.
type ConstExpr struct {
	Type  ValType
	Int   int64
	Float float64
}

func (e ConstExpr) encode(out []byte) []byte {
	switch e.Type {
	case I64:
		out = AppendS64(append(out, byte(OpI64Const)), e.Int)
	case F64:
		c := &Code{buf: out}
		c.F64Const(e.Float)
		out = c.buf
	default:
		out = AppendS32(append(out, byte(OpI32Const)), int32(e.Int)) //nolint:gosec // addresses are validated by the caller
	}
	return append(out, byte(OpEnd))
}
