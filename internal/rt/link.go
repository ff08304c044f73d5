package rt

import "waspy/internal/wasm"

// Data places literals and the class tables in the data segments.
type Data interface {
	Str(s string) uint32
	ClassTable() (parents, names, count uint32)
}

// Linker adds runtime functions to a module the first time something
// refers to them. Every user function must already be in the module so
// runtime indices follow them.
type Linker struct {
	m       *wasm.Module
	data    Data
	globals [2]uint32
	index   map[Func]uint32
	pos     map[Func]int
	queue   []Func
}

func NewLinker(m *wasm.Module, data Data, heap, exc uint32) *Linker {
	return &Linker{
		m:       m,
		data:    data,
		globals: [2]uint32{GlobalHeap: heap, GlobalExc: exc},
		index:   make(map[Func]uint32),
		pos:     make(map[Func]int),
	}
}

// Func returns the function index of f, reserving it on first use.
func (l *Linker) Func(f Func) uint32 {
	if idx, ok := l.index[f]; ok {
		return idx
	}
	at := len(l.m.Funcs)
	idx := l.m.FuncIndex(at)
	l.m.Funcs = append(l.m.Funcs, wasm.Func{Name: "rt." + f.String(), Type: l.m.AddType(f.Type())})
	l.index[f] = idx
	l.pos[f] = at
	l.queue = append(l.queue, f)
	return idx
}

func (l *Linker) Global(g Global) uint32 { return l.globals[g] }

func (l *Linker) Str(s string) uint32 { return l.data.Str(s) }

func (l *Linker) ClassTable() (parents, names, count uint32) { return l.data.ClassTable() }

// Flush generates the bodies of every reserved function, including the
// ones they reserve in turn.
func (l *Linker) Flush() {
	for len(l.queue) > 0 {
		f := l.queue[0]
		l.queue = l.queue[1:]
		code, locals := Build(f, l)
		fn := &l.m.Funcs[l.pos[f]]
		fn.Body = code
		fn.Locals = locals
	}
}

// Linked reports whether f was placed.
func (l *Linker) Linked(f Func) (uint32, bool) {
	idx, ok := l.index[f]
	return idx, ok
}
