package wasm

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants the encoder relies on: type
// and function indices, local and global indices, branch depths and
// balanced blocks. It does not type-check operand stacks.
func (m *Module) Validate() error {
	var errs []error
	nTypes := len(m.Types)
	for i, imp := range m.Imports {
		if int(imp.Type) >= nTypes {
			errs = append(errs, fmt.Errorf("import %d (%s.%s): type index %d out of range", i, imp.Module, imp.Name, imp.Type))
		}
	}
	nFuncs := m.NumFuncs()
	for i, fn := range m.Funcs {
		if err := m.validateFunc(fn, nFuncs); err != nil {
			errs = append(errs, fmt.Errorf("function %d (%s): %w", m.FuncIndex(i), fn.Name, err))
		}
	}
	for _, g := range m.Globals {
		if g.Init.Type != g.Type {
			errs = append(errs, fmt.Errorf("global %s: initializer of type %s for %s", g.Name, g.Init.Type, g.Type))
		}
	}
	for _, e := range m.Exports {
		switch e.Kind {
		case ExportFunc:
			if int(e.Index) >= nFuncs {
				errs = append(errs, fmt.Errorf("export %q: function %d out of range", e.Name, e.Index))
			}
		case ExportGlobal:
			if int(e.Index) >= len(m.Globals) {
				errs = append(errs, fmt.Errorf("export %q: global %d out of range", e.Name, e.Index))
			}
		case ExportMemory:
			if m.Memory == nil || e.Index != 0 {
				errs = append(errs, fmt.Errorf("export %q: no memory %d", e.Name, e.Index))
			}
		}
	}
	if m.Start != nil {
		t, ok := m.FuncType(*m.Start)
		if !ok || len(t.Params) != 0 || len(t.Results) != 0 {
			errs = append(errs, fmt.Errorf("start function %d must exist and have type () -> ()", *m.Start))
		}
	}
	if m.Memory != nil {
		if m.Memory.HasMax && m.Memory.Max < m.Memory.Min {
			errs = append(errs, fmt.Errorf("memory maximum %d below minimum %d", m.Memory.Max, m.Memory.Min))
		}
		limit := uint64(m.Memory.Min) * PageSize
		if m.Memory.HasMax {
			limit = uint64(m.Memory.Max) * PageSize
		}
		for _, d := range m.Data {
			if uint64(d.Offset)+uint64(len(d.Bytes)) > limit {
				errs = append(errs, fmt.Errorf("data segment at %d (+%d) exceeds memory", d.Offset, len(d.Bytes)))
			}
		}
	} else if len(m.Data) > 0 {
		errs = append(errs, errors.New("data segments without a memory"))
	}
	return errors.Join(errs...)
}

func (m *Module) validateFunc(fn Func, nFuncs int) error {
	if int(fn.Type) >= len(m.Types) {
		return fmt.Errorf("type index %d out of range", fn.Type)
	}
	if fn.Body == nil {
		return errors.New("missing body")
	}
	var errs []error
	if err := fn.Body.Err(); err != nil {
		errs = append(errs, err)
	}
	if d := fn.Body.Depth(); d != 0 {
		errs = append(errs, fmt.Errorf("%d unclosed block(s)", d))
	}
	nLocals := int64(len(m.Types[fn.Type].Params) + len(fn.Locals))
	if fn.Body.maxLocal >= nLocals {
		errs = append(errs, fmt.Errorf("local index %d out of range (%d locals)", fn.Body.maxLocal, nLocals))
	}
	if fn.Body.maxGlobal >= int64(len(m.Globals)) {
		errs = append(errs, fmt.Errorf("global index %d out of range", fn.Body.maxGlobal))
	}
	for _, c := range fn.Body.calls {
		if int(c) >= nFuncs {
			errs = append(errs, fmt.Errorf("call to function %d out of range", c))
			break
		}
	}
	return errors.Join(errs...)
}
