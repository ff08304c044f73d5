package codegen

import (
	"encoding/binary"

	"fortio.org/safecast"

	"waspy/internal/ir"
	"waspy/internal/layout"
	"waspy/internal/rt"
)

type literalKey struct {
	tag  layout.Tag
	text string
}

// dataBuilder lays out the static data above rt.DataBase: the class
// parent and name tables first, then deduplicated literals. Literals are
// immortal; the heap starts after them.
type dataBuilder struct {
	buf      []byte
	literals map[literalKey]uint32
	parents  uint32
	names    uint32
	count    uint32
	err      error
}

func newDataBuilder(records []ir.Record) *dataBuilder {
	d := &dataBuilder{literals: make(map[literalKey]uint32)}
	for _, r := range records {
		if r.ClassID+1 > d.count {
			d.count = r.ClassID + 1
		}
	}
	d.parents = d.reserve(4 * d.count)
	d.names = d.reserve(4 * d.count)
	for _, r := range records {
		d.put32(d.parents+4*r.ClassID, r.Parent)
		d.put32(d.names+4*r.ClassID, d.Str(r.Name))
	}
	return d
}

func (d *dataBuilder) reserve(n uint32) uint32 {
	for len(d.buf)%layout.HeapAlign != 0 {
		d.buf = append(d.buf, 0)
	}
	at, err := safecast.Conv[uint32](rt.DataBase + len(d.buf))
	if err != nil && d.err == nil {
		d.err = err
	}
	d.buf = append(d.buf, make([]byte, n)...)
	return at
}

func (d *dataBuilder) put32(addr, v uint32) {
	binary.LittleEndian.PutUint32(d.buf[addr-rt.DataBase:], v)
}

func (d *dataBuilder) literal(tag layout.Tag, s string) uint32 {
	key := literalKey{tag: tag, text: s}
	if at, ok := d.literals[key]; ok {
		return at
	}
	n, err := safecast.Conv[uint32](len(s))
	if err != nil {
		if d.err == nil {
			d.err = err
		}
		return 0
	}
	at := d.reserve(layout.OffStrData + n)
	d.put32(at+layout.OffTag, uint32(tag))
	d.put32(at+layout.OffStrLen, n)
	copy(d.buf[at-rt.DataBase+layout.OffStrData:], s)
	d.literals[key] = at
	return at
}

// Str places an immortal str object holding s.
func (d *dataBuilder) Str(s string) uint32 { return d.literal(layout.TagStr, s) }

// Bytes places an immortal bytes object.
func (d *dataBuilder) Bytes(s string) uint32 { return d.literal(layout.TagBytes, s) }

func (d *dataBuilder) ClassTable() (parents, names, count uint32) {
	return d.parents, d.names, d.count
}

// end is the first address after the static data, aligned for the heap.
func (d *dataBuilder) end() uint32 {
	n := rt.DataBase + len(d.buf)
	n = (n + layout.HeapAlign - 1) &^ (layout.HeapAlign - 1)
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return ^uint32(0)
	}
	return v
}
