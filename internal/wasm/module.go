package wasm

import (
	"fmt"

	"fortio.org/safecast"
)

type Import struct {
	Module string
	Name   string
	Type   uint32
}

type Func struct {
	Name   string
	Type   uint32
	Locals []ValType // declared locals after the parameters
	Body   *Code
	// LocalNames are optional debug names indexed like locals (params first).
	LocalNames []string
}

type Global struct {
	Name    string
	Type    ValType
	Mutable bool
	Init    ConstExpr
}

type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

type DataSegment struct {
	Offset uint32
	Bytes  []byte
}

type Custom struct {
	Name    string
	Payload []byte
}

// Memory is the single linear memory of the module.
type Memory struct {
	Min, Max uint32
	HasMax   bool
}

// Module is an in-memory WebAssembly 1.0 module. Function indices count
// imports first, then defined functions.
type Module struct {
	Name    string
	Types   []FuncType
	Imports []Import
	Funcs   []Func
	Memory  *Memory
	Globals []Global
	Exports []Export
	Start   *uint32
	Data    []DataSegment
	Customs []Custom
	// DebugNames adds the "name" custom section.
	DebugNames bool
}

// AddType returns the index of an equal signature, adding it when new.
func (m *Module) AddType(t FuncType) uint32 {
	for i, have := range m.Types {
		if have.equal(t) {
			return uint32(i) //nolint:gosec // bounded by the type section
		}
	}
	m.Types = append(m.Types, t)
	return uint32(len(m.Types) - 1) //nolint:gosec // bounded by the type section
}

// AddImport declares an imported function. All imports must be added
// before the first defined function so indices stay stable.
func (m *Module) AddImport(module, name string, t FuncType) uint32 {
	m.Imports = append(m.Imports, Import{Module: module, Name: name, Type: m.AddType(t)})
	return uint32(len(m.Imports) - 1) //nolint:gosec // bounded by the import section
}

// FuncIndex is the index of the i-th defined function.
func (m *Module) FuncIndex(i int) uint32 {
	return uint32(len(m.Imports) + i) //nolint:gosec // bounded by the function section
}

// NumFuncs counts imported and defined functions.
func (m *Module) NumFuncs() int { return len(m.Imports) + len(m.Funcs) }

// FuncType returns the signature of function index idx.
func (m *Module) FuncType(idx uint32) (FuncType, bool) {
	var t uint32
	switch {
	case int(idx) < len(m.Imports):
		t = m.Imports[idx].Type
	case int(idx) < m.NumFuncs():
		t = m.Funcs[int(idx)-len(m.Imports)].Type
	default:
		return FuncType{}, false
	}
	if int(t) >= len(m.Types) {
		return FuncType{}, false
	}
	return m.Types[t], true
}

func (m *Module) AddGlobal(g Global) uint32 {
	m.Globals = append(m.Globals, g)
	return uint32(len(m.Globals) - 1) //nolint:gosec // bounded by the global section
}

func (m *Module) AddExport(name string, kind byte, index uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Index: index})
}

// Encode validates the module and writes its binary form.
func (m *Module) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	w := &writer{out: out}

	if len(m.Types) > 0 {
		w.section(sectionType, func(s *writer) {
			s.size(len(m.Types))
			for _, t := range m.Types {
				s.byte(funcTypeForm)
				s.size(len(t.Params))
				for _, p := range t.Params {
					s.byte(byte(p))
				}
				s.size(len(t.Results))
				for _, r := range t.Results {
					s.byte(byte(r))
				}
			}
		})
	}
	if len(m.Imports) > 0 {
		w.section(sectionImport, func(s *writer) {
			s.size(len(m.Imports))
			for _, imp := range m.Imports {
				s.name(imp.Module)
				s.name(imp.Name)
				s.byte(importKindFunc)
				s.u32(imp.Type)
			}
		})
	}
	if len(m.Funcs) > 0 {
		w.section(sectionFunc, func(s *writer) {
			s.size(len(m.Funcs))
			for _, fn := range m.Funcs {
				s.u32(fn.Type)
			}
		})
	}
	if m.Memory != nil {
		w.section(sectionMemory, func(s *writer) {
			s.u32(1)
			if m.Memory.HasMax {
				s.byte(limitsMinAndMax)
				s.u32(m.Memory.Min)
				s.u32(m.Memory.Max)
			} else {
				s.byte(limitsMinOnly)
				s.u32(m.Memory.Min)
			}
		})
	}
	if len(m.Globals) > 0 {
		w.section(sectionGlobal, func(s *writer) {
			s.size(len(m.Globals))
			for _, g := range m.Globals {
				s.byte(byte(g.Type))
				if g.Mutable {
					s.byte(0x01)
				} else {
					s.byte(0x00)
				}
				s.out = g.Init.encode(s.out)
			}
		})
	}
	if len(m.Exports) > 0 {
		w.section(sectionExport, func(s *writer) {
			s.size(len(m.Exports))
			for _, e := range m.Exports {
				s.name(e.Name)
				s.byte(e.Kind)
				s.u32(e.Index)
			}
		})
	}
	if m.Start != nil {
		w.section(sectionStart, func(s *writer) { s.u32(*m.Start) })
	}
	if len(m.Funcs) > 0 {
		w.section(sectionCode, func(s *writer) {
			s.size(len(m.Funcs))
			for _, fn := range m.Funcs {
				body := &writer{}
				body.out = encodeLocals(body.out, fn.Locals)
				body.out = append(body.out, fn.Body.Bytes()...)
				body.byte(byte(OpEnd))
				s.size(len(body.out))
				s.out = append(s.out, body.out...)
			}
		})
	}
	if len(m.Data) > 0 {
		w.section(sectionData, func(s *writer) {
			s.size(len(m.Data))
			for _, seg := range m.Data {
				s.u32(0) // memory 0
				s.out = ConstExpr{Type: I32, Int: int64(seg.Offset)}.encode(s.out)
				s.size(len(seg.Bytes))
				s.out = append(s.out, seg.Bytes...)
			}
		})
	}
	if m.DebugNames {
		w.custom("name", m.encodeNames())
	}
	for _, c := range m.Customs {
		w.custom(c.Name, c.Payload)
	}
	if w.err != nil {
		return nil, fmt.Errorf("wasm: encode: %w", w.err)
	}
	return w.out, nil
}

type writer struct {
	out []byte
	err error
}

func (w *writer) byte(b byte)  { w.out = append(w.out, b) }
func (w *writer) u32(v uint32) { w.out = AppendU32(w.out, v) }

func (w *writer) size(n int) {
	var err error
	w.out, err = appendLen(w.out, n)
	if err != nil && w.err == nil {
		w.err = err
	}
}

func (w *writer) name(s string) {
	w.size(len(s))
	w.out = append(w.out, s...)
}

func (w *writer) section(id byte, fill func(*writer)) {
	s := &writer{}
	fill(s)
	if s.err != nil && w.err == nil {
		w.err = s.err
	}
	w.byte(id)
	w.size(len(s.out))
	w.out = append(w.out, s.out...)
}

func (w *writer) custom(name string, payload []byte) {
	w.section(sectionCustom, func(s *writer) {
		s.name(name)
		s.out = append(s.out, payload...)
	})
}

func encodeLocals(out []byte, locals []ValType) []byte {
	type group struct {
		count uint32
		typ   ValType
	}
	var groups []group
	for _, typ := range locals {
		if len(groups) == 0 || groups[len(groups)-1].typ != typ {
			groups = append(groups, group{count: 1, typ: typ})
		} else {
			groups[len(groups)-1].count++
		}
	}
	n, _ := safecast.Conv[uint32](len(groups))
	out = AppendU32(out, n)
	for _, g := range groups {
		out = AppendU32(out, g.count)
		out = append(out, byte(g.typ))
	}
	return out
}
