package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Invalid    TypeID
	Unresolved TypeID
	None       TypeID
	Bool       TypeID
	Int        TypeID
	Float      TypeID
	Str        TypeID
	Bytes      TypeID
	Any        TypeID
}

// Interner provides stable TypeIDs. Structural types (lists, sets, functions)
// are deduplicated; records and externals are nominal.
type Interner struct {
	types     []Type
	index     map[typeKey]TypeID
	builtins  Builtins
	records   []RecordInfo
	fns       []FnInfo
	externals []ExternalInfo
	extByName map[string]TypeID
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:     make(map[typeKey]TypeID, 64),
		extByName: make(map[string]TypeID),
	}
	in.records = append(in.records, RecordInfo{}) // reserve 0 as invalid sentinel
	in.fns = append(in.fns, FnInfo{})
	in.externals = append(in.externals, ExternalInfo{})
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unresolved = in.Intern(Type{Kind: KindUnresolved})
	in.builtins.None = in.Intern(Type{Kind: KindNone})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.Float = in.Intern(Type{Kind: KindFloat})
	in.builtins.Str = in.Intern(Type{Kind: KindStr})
	in.builtins.Bytes = in.Intern(Type{Kind: KindBytes})
	in.builtins.Any = in.Intern(Type{Kind: KindAny})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// KindOf returns the kind of id, KindInvalid for unknown ids.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// ListOf interns list[elem].
func (in *Interner) ListOf(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindList, Elem: elem})
}

// SetOf interns set[elem].
func (in *Interner) SetOf(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindSet, Elem: elem})
}

// Elem returns the element type of a list or set.
func (in *Interner) Elem(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindList && tt.Kind != KindSet) {
		return NoTypeID
	}
	return tt.Elem
}

// Count reports how many descriptors are interned.
func (in *Interner) Count() int {
	return len(in.types)
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Payload uint32
}

func slotIndex(n int, what string) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s overflow: %w", what, err))
	}
	return slot
}
