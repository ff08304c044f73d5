package types

// ExternalInfo names an opaque type owned by a stdlib shim module.
type ExternalInfo struct {
	Module string
	Name   string
}

// QualifiedName returns "module.Name".
func (e ExternalInfo) QualifiedName() string {
	return e.Module + "." + e.Name
}

// External returns the TypeID for module.name, registering it on first use.
func (in *Interner) External(module, name string) TypeID {
	key := module + "." + name
	if id, ok := in.extByName[key]; ok {
		return id
	}
	in.externals = append(in.externals, ExternalInfo{Module: module, Name: name})
	slot := slotIndex(len(in.externals)-1, "external info")
	id := in.internRaw(Type{Kind: KindExternal, Payload: slot})
	in.extByName[key] = id
	return id
}

// ExternalInfo returns metadata for an external TypeID.
func (in *Interner) ExternalInfo(id TypeID) (ExternalInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindExternal || int(tt.Payload) >= len(in.externals) {
		return ExternalInfo{}, false
	}
	return in.externals[tt.Payload], true
}
