package types

import "slices"

// Field is a named slot of a record.
type Field struct {
	Name string
	Type TypeID
}

// RecordInfo stores metadata for a nominal record (class) type.
type RecordInfo struct {
	Name      string
	Base      TypeID
	Fields    []Field // own fields only; inherited ones live on Base
	ClassID   uint32
	Exception bool
	Builtin   bool
}

// NewRecord allocates a nominal record type.
func (in *Interner) NewRecord(name string, classID uint32) TypeID {
	in.records = append(in.records, RecordInfo{Name: name, ClassID: classID})
	slot := slotIndex(len(in.records)-1, "record info")
	return in.internRaw(Type{Kind: KindRecord, Payload: slot})
}

// Record returns metadata for the record TypeID.
func (in *Interner) Record(id TypeID) (*RecordInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindRecord || int(tt.Payload) >= len(in.records) {
		return nil, false
	}
	return &in.records[tt.Payload], true
}

// SetBase links a record to its single base record.
func (in *Interner) SetBase(id, base TypeID) {
	info, ok := in.Record(id)
	if !ok {
		return
	}
	info.Base = base
	if b, ok := in.Record(base); ok && b.Exception {
		info.Exception = true
	}
}

// AddField declares a field on id. It returns false when the name already
// exists anywhere in the hierarchy.
func (in *Interner) AddField(id TypeID, name string, ty TypeID) bool {
	if _, _, ok := in.LookupField(id, name); ok {
		return false
	}
	info, ok := in.Record(id)
	if !ok {
		return false
	}
	info.Fields = append(info.Fields, Field{Name: name, Type: ty})
	return true
}

// SetFieldType updates the type of a field declared somewhere in id's hierarchy.
func (in *Interner) SetFieldType(id TypeID, name string, ty TypeID) {
	for cur := id; cur != NoTypeID; {
		info, ok := in.Record(cur)
		if !ok {
			return
		}
		for i := range info.Fields {
			if info.Fields[i].Name == name {
				info.Fields[i].Type = ty
				return
			}
		}
		cur = info.Base
	}
}

// LookupField finds a field by name. The returned index is the position in
// the flattened field list (base fields first).
func (in *Interner) LookupField(id TypeID, name string) (Field, int, bool) {
	for i, f := range in.Fields(id) {
		if f.Name == name {
			return f, i, true
		}
	}
	return Field{}, -1, false
}

// Fields returns the flattened field list with base fields as a prefix.
func (in *Interner) Fields(id TypeID) []Field {
	info, ok := in.Record(id)
	if !ok {
		return nil
	}
	var out []Field
	if info.Base != NoTypeID {
		out = in.Fields(info.Base)
	}
	return append(out, slices.Clone(info.Fields)...)
}

// IsSubclass reports whether sub is base or derives from it.
func (in *Interner) IsSubclass(sub, base TypeID) bool {
	for cur := sub; cur != NoTypeID; {
		if cur == base {
			return true
		}
		info, ok := in.Record(cur)
		if !ok {
			return false
		}
		cur = info.Base
	}
	return false
}

// CommonBase returns the nearest record both a and b derive from.
func (in *Interner) CommonBase(a, b TypeID) (TypeID, bool) {
	for cur := a; cur != NoTypeID; {
		if in.IsSubclass(b, cur) {
			return cur, true
		}
		info, ok := in.Record(cur)
		if !ok {
			break
		}
		cur = info.Base
	}
	return NoTypeID, false
}

// Records lists every record type in declaration order.
func (in *Interner) Records() []TypeID {
	var out []TypeID
	for id := TypeID(1); int(id) < len(in.types); id++ {
		if in.types[id].Kind == KindRecord {
			out = append(out, id)
		}
	}
	return out
}
