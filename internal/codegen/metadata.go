package codegen

import (
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"waspy/internal/ir"
	"waspy/internal/types"
)

// MetadataSection is the custom section carrying Metadata.
const MetadataSection = "waspy.metadata"

// metadataSchema changes whenever Metadata changes shape.
const metadataSchema uint16 = 1

// Metadata describes the module interface to embedders: the exported
// functions with their source types, the class table and the imports the
// module expects.
type Metadata struct {
	Schema   uint16
	Module   string
	Init     string // "start" or "_initialize"
	HeapBase uint32
	Exports  []ExportMeta
	Classes  []ClassMeta
	Imports  []ImportMeta
}

type ExportKind string

const (
	ExportFunction ExportKind = "function"
	ExportCtor     ExportKind = "constructor"
	ExportMethod   ExportKind = "method"
)

type ExportMeta struct {
	Name   string
	Kind   ExportKind
	Params []ValueMeta
	Result ValueMeta
}

// ValueMeta is a source type as the host sees it.
type ValueMeta struct {
	Name string `msgpack:",omitempty"`
	Type string
	Kind string
}

type ClassMeta struct {
	ID        uint32
	Parent    uint32
	Name      string
	Size      uint32
	Exception bool
	Fields    []FieldMeta
}

type FieldMeta struct {
	Name   string
	Offset uint32
	Value  ValueMeta
}

type ImportMeta struct {
	Module string
	Name   string
	Params []ValueMeta
	Result ValueMeta
}

func valueMeta(in *types.Interner, name string, t types.TypeID) ValueMeta {
	if t == types.NoTypeID {
		return ValueMeta{Name: name, Type: "None", Kind: types.KindNone.String()}
	}
	return ValueMeta{Name: name, Type: in.TypeString(t), Kind: in.KindOf(t).String()}
}

func buildMetadata(m *ir.Module, heap uint32, start bool) *Metadata {
	in := m.Types
	meta := &Metadata{Schema: metadataSchema, Module: m.Name, Init: "start", HeapBase: heap}
	if !start {
		meta.Init = "_initialize"
	}
	ctors := make(map[ir.FuncID]bool)
	for _, r := range m.Records {
		cm := ClassMeta{ID: r.ClassID, Parent: r.Parent, Name: r.Name, Size: r.Size, Exception: r.Exception}
		for _, f := range r.Fields {
			cm.Fields = append(cm.Fields, FieldMeta{Name: f.Name, Offset: f.Offset, Value: valueMeta(in, "", f.Type)})
		}
		meta.Classes = append(meta.Classes, cm)
		if r.Ctor != ir.NoFuncID {
			ctors[r.Ctor] = true
		}
	}
	slices.SortFunc(meta.Classes, func(a, b ClassMeta) int { return int(a.ID) - int(b.ID) })

	for _, f := range m.Funcs {
		if f.Export == "" {
			continue
		}
		em := ExportMeta{Name: f.Export, Kind: ExportFunction, Result: valueMeta(in, "", f.Result)}
		switch {
		case ctors[f.ID]:
			em.Kind = ExportCtor
		case strings.Contains(f.Export, "."):
			em.Kind = ExportMethod
		}
		for i := range f.Params {
			em.Params = append(em.Params, valueMeta(in, f.Locals[i].Name, f.Locals[i].Type))
		}
		meta.Exports = append(meta.Exports, em)
	}
	for _, imp := range m.Imports {
		im := ImportMeta{Module: imp.Module, Name: imp.Name, Result: valueMeta(in, "", imp.Result)}
		for _, p := range imp.Params {
			im.Params = append(im.Params, valueMeta(in, "", p))
		}
		meta.Imports = append(meta.Imports, im)
	}
	return meta
}

// Marshal encodes the metadata payload.
func (m *Metadata) Marshal() ([]byte, error) {
	return msgpack.Marshal(m)
}

// Export finds an export by name.
func (m *Metadata) Export(name string) (ExportMeta, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return ExportMeta{}, false
}

// Class finds a class by id.
func (m *Metadata) Class(id uint32) (ClassMeta, bool) {
	for _, c := range m.Classes {
		if c.ID == id {
			return c, true
		}
	}
	return ClassMeta{}, false
}

// ParseMetadata decodes a payload produced by Marshal.
func ParseMetadata(payload []byte) (*Metadata, error) {
	var m Metadata
	if err := msgpack.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
