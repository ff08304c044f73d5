package layout

import (
	"fortio.org/safecast"

	"waspy/internal/types"
)

// TypeLayout is the ABI layout of a value type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int
}

// RecordLayout is the heap layout of a record object. Fields are flattened
// with base fields first, so a derived object is a valid base object.
type RecordLayout struct {
	Type    types.TypeID
	Name    string
	ClassID uint32
	Size    int
	Fields  []FieldLayout
}

type FieldLayout struct {
	Name   string
	Type   types.TypeID
	Offset int
}

// Field returns the layout of the named field.
func (r *RecordLayout) Field(name string) (FieldLayout, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldLayout{}, false
}

// LayoutEngine computes memory layout for types.
type LayoutEngine struct {
	Target Target
	Types  *types.Interner

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target, typesIn *types.Interner) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		Types:  typesIn,
		cache:  newCache(),
	}
}

// LayoutOf returns the size of a value of type t in a local or a slot.
// Heap types are pointers.
func (e *LayoutEngine) LayoutOf(t types.TypeID) TypeLayout {
	switch e.Types.KindOf(t) {
	case types.KindInt, types.KindFloat:
		return TypeLayout{Size: 8, Align: 8}
	case types.KindBool, types.KindNone:
		return TypeLayout{Size: 4, Align: 4}
	default:
		return TypeLayout{Size: e.Target.PtrSize, Align: e.Target.PtrAlign}
	}
}

// SizeOf returns the size of a type in bytes.
func (e *LayoutEngine) SizeOf(t types.TypeID) int {
	return e.LayoutOf(t).Size
}

// Record computes and caches the object layout of a record type.
func (e *LayoutEngine) Record(t types.TypeID) (*RecordLayout, error) {
	if cached, ok := e.cache.get(t); ok {
		return cached, nil
	}
	info, ok := e.Types.Record(t)
	if !ok {
		return nil, &LayoutError{Kind: LayoutErrNotRecord, Type: t}
	}
	fields := e.Types.Fields(t)
	rec := &RecordLayout{Type: t, Name: info.Name, ClassID: info.ClassID, Fields: make([]FieldLayout, len(fields))}
	off := OffRecordFields
	for i, f := range fields {
		rec.Fields[i] = FieldLayout{Name: f.Name, Type: f.Type, Offset: off}
		off += e.Target.SlotSize
	}
	if _, err := safecast.Conv[uint32](off); err != nil {
		return nil, &LayoutError{Kind: LayoutErrTooLarge, Type: t, Err: err}
	}
	rec.Size = off
	e.cache.put(t, rec)
	return rec, nil
}

// FieldOffset returns the byte offset of a record field.
func (e *LayoutEngine) FieldOffset(rec types.TypeID, name string) (int, error) {
	l, err := e.Record(rec)
	if err != nil {
		return 0, err
	}
	f, ok := l.Field(name)
	if !ok {
		return 0, &LayoutError{Kind: LayoutErrNoField, Type: rec, Field: name}
	}
	return f.Offset, nil
}
