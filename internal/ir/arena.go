package ir

import "waspy/internal/types"

// MarkArenas decides which functions release their allocations on return.
//
// A function publishes when it may make an object allocated during the
// call reachable from older memory: a store of a heap value into a global
// or a field, or a runtime helper that grows or links containers. The
// property is transitive through calls. A function whose result is not a
// heap value and which never publishes resets the bump pointer on every
// normal return.
func MarkArenas(m *Module) {
	if m == nil {
		return
	}
	calls := make([][]FuncID, len(m.Funcs))
	for i, f := range m.Funcs {
		f.Publishes = false
		for bi := range f.Blocks {
			for ii := range f.Blocks[bi].Instrs {
				ins := &f.Blocks[bi].Instrs[ii]
				switch ins.Kind {
				case InstrStoreGlobal:
					if m.Types.IsHeap(ins.StoreGlobal.Value.Type) {
						f.Publishes = true
					}
				case InstrSetField:
					if m.Types.IsHeap(ins.SetField.Value.Type) {
						f.Publishes = true
					}
				case InstrCall:
					switch c := ins.Call.Callee; c.Kind {
					case CalleeRuntime:
						if c.Runtime.Spec().Publishes {
							f.Publishes = true
						}
					case CalleeFunc:
						calls[i] = append(calls[i], c.Func)
					}
				}
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for i, f := range m.Funcs {
			if f.Publishes {
				continue
			}
			for _, callee := range calls[i] {
				if g := m.Func(callee); g != nil && g.Publishes {
					f.Publishes = true
					changed = true
					break
				}
			}
		}
	}

	ctors := make(map[FuncID]bool)
	for _, rec := range m.Records {
		if rec.Ctor != NoFuncID {
			ctors[rec.Ctor] = true
		}
	}
	for _, f := range m.Funcs {
		f.ArenaReset = !f.Publishes && f.ID != m.Init && !ctors[f.ID] && scalarResult(m.Types, f.Result)
	}
}

func scalarResult(in *types.Interner, t types.TypeID) bool {
	switch in.KindOf(t) {
	case types.KindInt, types.KindFloat, types.KindBool, types.KindNone:
		return true
	}
	return false
}
