package wasm

const (
	nameSubModule byte = 0
	nameSubFunc   byte = 1
	nameSubLocal  byte = 2
)

// encodeNames builds the payload of the "name" custom section.
func (m *Module) encodeNames() []byte {
	w := &writer{}
	if m.Name != "" {
		w.section(nameSubModule, func(s *writer) { s.name(m.Name) })
	}
	w.section(nameSubFunc, func(s *writer) {
		named := 0
		for _, imp := range m.Imports {
			if imp.Name != "" {
				named++
			}
		}
		for _, fn := range m.Funcs {
			if fn.Name != "" {
				named++
			}
		}
		s.size(named)
		for i, imp := range m.Imports {
			if imp.Name != "" {
				s.u32(uint32(i)) //nolint:gosec // bounded by the import section
				s.name(imp.Module + "." + imp.Name)
			}
		}
		for i, fn := range m.Funcs {
			if fn.Name != "" {
				s.u32(m.FuncIndex(i))
				s.name(fn.Name)
			}
		}
	})
	withLocals := 0
	for _, fn := range m.Funcs {
		if len(fn.LocalNames) > 0 {
			withLocals++
		}
	}
	if withLocals > 0 {
		w.section(nameSubLocal, func(s *writer) {
			s.size(withLocals)
			for i, fn := range m.Funcs {
				if len(fn.LocalNames) == 0 {
					continue
				}
				s.u32(m.FuncIndex(i))
				named := 0
				for _, n := range fn.LocalNames {
					if n != "" {
						named++
					}
				}
				s.size(named)
				for j, n := range fn.LocalNames {
					if n != "" {
						s.u32(uint32(j)) //nolint:gosec // bounded by the local count
						s.name(n)
					}
				}
			}
		})
	}
	return w.out
}
