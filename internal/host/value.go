package host

import (
	"context"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"

	"waspy/internal/layout"
	"waspy/internal/sema"
	"waspy/internal/stdlib"
)

// Object is an instance of a program class seen from the host.
type Object struct {
	Class   string
	ClassID uint32
	Addr    uint32
	// Message is set for exception instances.
	Message   string
	Exception bool
}

// Set is a Python set in insertion order.
type Set []any

// Dict is a JSON object in key order.
type Dict struct {
	Keys   []string
	Values map[string]any
}

func newDict() *Dict { return &Dict{Values: make(map[string]any)} }

func (d *Dict) set(k string, v any) {
	if _, ok := d.Values[k]; !ok {
		d.Keys = append(d.Keys, k)
	}
	d.Values[k] = v
}

// memory reads and builds guest objects during one host call.
type memory struct {
	in  *Instance
	ctx context.Context
	mod api.Module
}

func (in *Instance) memory(ctx context.Context, mod api.Module) *memory {
	return &memory{in: in, ctx: ctx, mod: mod}
}

func (m *memory) callGuest(name string, args ...uint64) (uint64, error) {
	fn := m.mod.ExportedFunction(name)
	if fn == nil {
		return 0, fmt.Errorf("module does not export %s", name)
	}
	res, err := fn.Call(m.ctx, args...)
	if err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0], nil
}

func (m *memory) alloc(size uint32) (uint32, error) {
	p, err := m.callGuest("__waspy_alloc", uint64(size))
	return uint32(p), err
}

func (m *memory) u32(addr uint32) uint32 {
	v, _ := m.mod.Memory().ReadUint32Le(addr)
	return v
}

func (m *memory) u64(addr uint32) uint64 {
	v, _ := m.mod.Memory().ReadUint64Le(addr)
	return v
}

func (m *memory) putU32(addr, v uint32) { m.mod.Memory().WriteUint32Le(addr, v) }

func (m *memory) putU64(addr uint32, v uint64) { m.mod.Memory().WriteUint64Le(addr, v) }

func (m *memory) tag(addr uint32) layout.Tag { return layout.Tag(m.u32(addr + layout.OffTag)) }

func (m *memory) raw(addr uint32) []byte {
	n := m.u32(addr + layout.OffStrLen)
	b, ok := m.mod.Memory().Read(addr+layout.OffStrData, n)
	if !ok {
		return nil
	}
	return b
}

func (m *memory) str(addr uint32) string {
	if addr == 0 {
		return ""
	}
	return string(m.raw(addr))
}

func (m *memory) bytes(addr uint32) []byte {
	if addr == 0 {
		return nil
	}
	return append([]byte(nil), m.raw(addr)...)
}

func (m *memory) newBlob(tag layout.Tag, b []byte) (uint32, error) {
	n := uint32(len(b)) //nolint:gosec // guest objects are limited to 4 GiB
	p, err := m.alloc(layout.OffStrData + n)
	if err != nil {
		return 0, err
	}
	m.putU32(p+layout.OffTag, uint32(tag))
	m.putU32(p+layout.OffStrLen, n)
	if !m.mod.Memory().Write(p+layout.OffStrData, b) {
		return 0, fmt.Errorf("write %d bytes at %#x: out of bounds", n, p)
	}
	return p, nil
}

func (m *memory) newStr(s string) (uint32, error) {
	if !utf8.ValidString(s) {
		s = string([]rune(s))
	}
	return m.newBlob(layout.TagStr, []byte(s))
}

func (m *memory) box(tag layout.Tag, payload uint64) (uint32, error) {
	p, err := m.alloc(layout.BoxSize)
	if err != nil {
		return 0, err
	}
	m.putU32(p+layout.OffTag, uint32(tag))
	m.putU64(p+layout.OffBoxPayload, payload)
	return p, nil
}

func (m *memory) newSeq(tag, elem layout.Tag, slots []uint64) (uint32, error) {
	n := uint32(len(slots)) //nolint:gosec // bounded by guest memory
	capacity := max(n, 4)
	p, err := m.alloc(layout.SeqHeader)
	if err != nil {
		return 0, err
	}
	data, err := m.alloc(8 * capacity)
	if err != nil {
		return 0, err
	}
	m.putU32(p+layout.OffTag, uint32(tag))
	m.putU32(p+layout.OffSeqElem, uint32(elem))
	m.putU32(p+layout.OffSeqLen, n)
	m.putU32(p+layout.OffSeqCap, capacity)
	m.putU32(p+layout.OffSeqData, data)
	for i, v := range slots {
		m.putU64(data+8*uint32(i), v) //nolint:gosec // i < n
	}
	return p, nil
}

func (m *memory) seq(addr uint32, elemType string) ([]any, error) {
	if addr == 0 {
		return nil, nil
	}
	n := m.u32(addr + layout.OffSeqLen)
	data := m.u32(addr + layout.OffSeqData)
	if elemType == "" {
		elemType = tagType(layout.Tag(m.u32(addr + layout.OffSeqElem)))
	}
	out := make([]any, 0, n)
	for i := range n {
		v, err := m.decode(m.u64(data+8*i), elemType)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *memory) newExternal(v any) (uint32, error) {
	p, err := m.alloc(layout.ExternalSize)
	if err != nil {
		return 0, err
	}
	m.putU32(p+layout.OffTag, uint32(layout.TagExternal))
	m.putU32(p+layout.OffExternalHandle, m.in.handle(v))
	return p, nil
}

func (m *memory) external(addr uint32) (any, bool) {
	if addr == 0 {
		return nil, false
	}
	return m.in.object(m.u32(addr + layout.OffExternalHandle))
}

func (m *memory) className(id uint32) string {
	if c, ok := m.in.meta.Class(id); ok {
		return c.Name
	}
	if name, ok := sema.BuiltinExceptionNames()[id]; ok {
		return name
	}
	return fmt.Sprintf("<class %d>", id)
}

func (m *memory) isException(id uint32) bool {
	if c, ok := m.in.meta.Class(id); ok {
		return c.Exception
	}
	_, ok := sema.BuiltinExceptionNames()[id]
	return ok
}

func (m *memory) record(addr uint32) *Object {
	id := m.u32(addr + layout.OffRecordClass)
	o := &Object{Class: m.className(id), ClassID: id, Addr: addr, Exception: m.isException(id)}
	if o.Exception {
		o.Message = m.str(uint32(m.u64(addr + layout.OffExcMessage)))
	}
	return o
}

func (m *memory) exception(addr uint32) (class, msg string) {
	o := m.record(addr)
	return o.Class, o.Message
}

// tagType names the decoding of a slot holding a value of the tag.
func tagType(t layout.Tag) string {
	switch t {
	case layout.TagInt:
		return "int"
	case layout.TagFloat:
		return "float"
	case layout.TagBool:
		return "bool"
	case layout.TagNone:
		return "None"
	}
	return "any"
}

// tagOf is the element tag of a container of typ.
func tagOf(typ string) layout.Tag {
	switch typ {
	case "int":
		return layout.TagInt
	case "float":
		return layout.TagFloat
	case "bool":
		return layout.TagBool
	case "None":
		return layout.TagNone
	case "str":
		return layout.TagStr
	case "bytes":
		return layout.TagBytes
	case "any":
		return layout.TagDynamic
	}
	ref := stdlib.TypeRef(typ)
	if head, _, ok := ref.Container(); ok {
		if head == "set" {
			return layout.TagSet
		}
		return layout.TagList
	}
	if _, _, ok := ref.External(); ok {
		return layout.TagExternal
	}
	return layout.TagRecord
}

// decode converts a wasm value or slot payload of typ to a host value.
func (m *memory) decode(bits uint64, typ string) (any, error) {
	switch typ {
	case "int":
		return int64(bits), nil //nolint:gosec // two's complement payload
	case "float":
		return math.Float64frombits(bits), nil
	case "bool":
		return uint32(bits) != 0, nil
	case "None":
		return nil, nil
	}
	addr := uint32(bits) //nolint:gosec // references are 32-bit
	if addr == 0 {
		return nil, nil
	}
	switch typ {
	case "str":
		return m.str(addr), nil
	case "bytes":
		return m.bytes(addr), nil
	case "any":
		return m.dynamic(addr)
	}
	ref := stdlib.TypeRef(typ)
	if head, elem, ok := ref.Container(); ok {
		items, err := m.seq(addr, string(elem))
		if head == "set" {
			return Set(items), err
		}
		return items, err
	}
	if _, _, ok := ref.External(); ok {
		v, ok := m.external(addr)
		if !ok {
			return nil, fmt.Errorf("dangling %s handle", typ)
		}
		return v, nil
	}
	return m.record(addr), nil
}

// dynamic decodes a reference by its tag.
func (m *memory) dynamic(addr uint32) (any, error) {
	if addr == 0 {
		return nil, nil
	}
	switch t := m.tag(addr); t {
	case layout.TagNone:
		return nil, nil
	case layout.TagBool, layout.TagInt, layout.TagFloat:
		return m.decode(m.u64(addr+layout.OffBoxPayload), tagType(t))
	case layout.TagStr:
		return m.str(addr), nil
	case layout.TagBytes:
		return m.bytes(addr), nil
	case layout.TagList:
		return m.seq(addr, "")
	case layout.TagSet:
		items, err := m.seq(addr, "")
		return Set(items), err
	case layout.TagRecord:
		return m.record(addr), nil
	case layout.TagExternal:
		v, _ := m.external(addr)
		return v, nil
	default:
		return nil, fmt.Errorf("object at %#x has unknown tag %d", addr, t)
	}
}

// encode converts a host value to a wasm value or slot payload of typ.
func (m *memory) encode(v any, typ string) (uint64, error) {
	switch typ {
	case "int":
		n, ok := toInt(v)
		if !ok {
			return 0, fmt.Errorf("want int, got %T", v)
		}
		return uint64(n), nil //nolint:gosec // two's complement payload
	case "float":
		if f, ok := v.(float64); ok {
			return math.Float64bits(f), nil
		}
		if n, ok := toInt(v); ok {
			return math.Float64bits(float64(n)), nil
		}
		return 0, fmt.Errorf("want float, got %T", v)
	case "bool":
		b, ok := v.(bool)
		if !ok {
			return 0, fmt.Errorf("want bool, got %T", v)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case "None":
		return 0, nil
	}
	if v == nil {
		return 0, nil
	}
	var addr uint32
	var err error
	switch typ {
	case "str":
		s, ok := v.(string)
		if !ok {
			return 0, fmt.Errorf("want str, got %T", v)
		}
		addr, err = m.newStr(s)
	case "bytes":
		b, ok := v.([]byte)
		if !ok {
			return 0, fmt.Errorf("want bytes, got %T", v)
		}
		addr, err = m.newBlob(layout.TagBytes, b)
	case "any":
		addr, err = m.encodeDynamic(v)
	default:
		addr, err = m.encodeRef(v, typ)
	}
	return uint64(addr), err
}

func (m *memory) encodeRef(v any, typ string) (uint32, error) {
	ref := stdlib.TypeRef(typ)
	if head, elem, ok := ref.Container(); ok {
		items, ok := toSlice(v)
		if !ok {
			return 0, fmt.Errorf("want %s, got %T", typ, v)
		}
		slots := make([]uint64, len(items))
		for i, item := range items {
			s, err := m.encode(item, string(elem))
			if err != nil {
				return 0, err
			}
			slots[i] = s
		}
		tag := layout.TagList
		if head == "set" {
			tag = layout.TagSet
		}
		return m.newSeq(tag, tagOf(string(elem)), slots)
	}
	if _, _, ok := ref.External(); ok {
		return m.newExternal(v)
	}
	o, ok := v.(*Object)
	if !ok {
		return 0, fmt.Errorf("want %s instance, got %T", typ, v)
	}
	return o.Addr, nil
}

// encodeDynamic builds a tagged reference for an untyped slot.
func (m *memory) encodeDynamic(v any) (uint32, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case bool:
		var bit uint64
		if x {
			bit = 1
		}
		return m.box(layout.TagBool, bit)
	case float64:
		return m.box(layout.TagFloat, math.Float64bits(x))
	case string:
		return m.newStr(x)
	case []byte:
		return m.newBlob(layout.TagBytes, x)
	case *Object:
		return x.Addr, nil
	case Set:
		return m.dynamicSeq(layout.TagSet, x)
	case []any:
		return m.dynamicSeq(layout.TagList, x)
	}
	if n, ok := toInt(v); ok {
		return m.box(layout.TagInt, uint64(n)) //nolint:gosec // two's complement payload
	}
	return m.newExternal(v)
}

func (m *memory) dynamicSeq(tag layout.Tag, items []any) (uint32, error) {
	slots := make([]uint64, len(items))
	for i, item := range items {
		p, err := m.encodeDynamic(item)
		if err != nil {
			return 0, err
		}
		slots[i] = uint64(p)
	}
	return m.newSeq(tag, layout.TagDynamic, slots)
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	}
	return 0, false
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case Set:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []int64:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	}
	return nil, false
}
