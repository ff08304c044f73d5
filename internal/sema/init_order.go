package sema

import (
	"github.com/hashicorp/go-set/v3"

	"waspy/internal/ast"
	"waspy/internal/source"
	"waspy/internal/symbols"
)

// stepDeps collects what one top-level statement reads directly.
type stepDeps struct {
	reads *set.Set[symbols.SymbolID]
	calls *set.Set[*Func]
}

func newStepDeps() *stepDeps {
	return &stepDeps{reads: set.New[symbols.SymbolID](4), calls: set.New[*Func](4)}
}

// orderInit schedules the module body. A statement runs after the statements
// that first assign the module variables it reads, directly or through the
// functions it calls; otherwise source order is kept. A dependency cycle
// keeps plain source order.
func (c *checker) orderInit() []InitStep {
	body := c.mod.Body
	steps := make([]InitStep, len(body))
	declOf := make(map[symbols.SymbolID]int)
	for i, id := range body {
		steps[i] = InitStep{Stmt: id}
		c.walkBindings([]ast.StmtID{id}, func(name string, _ source.Span, _ ast.StmtID) {
			symID, ok := c.table.Lookup(c.modScope, name)
			if !ok || c.table.Symbol(symID).Kind != symbols.SymbolGlobal {
				return
			}
			if _, seen := declOf[symID]; !seen {
				declOf[symID] = i
				if steps[i].Global == symbols.NoSymbolID {
					steps[i].Global = symID
				}
			}
		}, nil)
		if c.mod.Stmts.Get(id).Kind == ast.StmtClassDef {
			for _, cls := range c.classes {
				if cls.Builtin || cls.Stmt != id {
					continue
				}
				for _, v := range cls.Vars {
					declOf[v] = i
				}
			}
		}
	}
	for i := range steps {
		steps[i].Static = steps[i].Global != symbols.NoSymbolID && c.staticInit(steps[i].Stmt)
	}

	deps := make([][]int, len(body))
	for i, id := range body {
		sd := c.steps[id]
		if sd == nil {
			continue
		}
		for _, g := range c.readClosure(sd).Slice() {
			if j, ok := declOf[g]; ok && j != i {
				deps[i] = append(deps[i], j)
			}
		}
	}
	order, ok := kahn(len(body), deps)
	if !ok {
		return steps
	}
	out := make([]InitStep, 0, len(steps))
	for _, i := range order {
		out = append(out, steps[i])
	}
	return out
}

// staticInit reports a single-name assignment of a literal.
func (c *checker) staticInit(id ast.StmtID) bool {
	var target, value ast.ExprID
	switch c.mod.Stmts.Get(id).Kind {
	case ast.StmtAssign:
		d, _ := c.mod.Stmts.Assign(id)
		if len(d.Targets) != 1 {
			return false
		}
		target, value = d.Targets[0], d.Value
	case ast.StmtAnnAssign:
		d, _ := c.mod.Stmts.AnnAssign(id)
		target, value = d.Target, d.Value
	default:
		return false
	}
	if value == ast.NoExprID {
		return false
	}
	if _, ok := c.mod.Exprs.Name(target); !ok {
		return false
	}
	return c.mod.IsConstant(value)
}

// readClosure returns the globals a step reads, including everything read by
// the functions it may call. A method call may dispatch to any override.
func (c *checker) readClosure(sd *stepDeps) *set.Set[symbols.SymbolID] {
	reads := sd.reads.Copy()
	seen := set.New[*Func](8)
	work := sd.calls.Slice()
	for len(work) > 0 {
		f := work[len(work)-1]
		work = work[:len(work)-1]
		if !seen.Insert(f) {
			continue
		}
		if f.reads != nil {
			reads.InsertSet(f.reads)
		}
		if f.calls != nil {
			work = append(work, f.calls.Slice()...)
		}
		work = append(work, c.overrides(f)...)
	}
	return reads
}

func (c *checker) overrides(f *Func) []*Func {
	if f.Class == nil || f.Static || f.Decl == nil {
		return nil
	}
	var out []*Func
	for _, cls := range c.classes {
		if cls == f.Class || cls.Builtin || !c.in.IsSubclass(cls.Type, f.Class.Type) {
			continue
		}
		if m, ok := cls.Methods[f.Decl.Name]; ok {
			out = append(out, m)
		}
	}
	return out
}

// kahn sorts n nodes so that every node follows its deps, always picking the
// smallest ready index. ok is false on a cycle.
func kahn(n int, deps [][]int) ([]int, bool) {
	indeg := make([]int, n)
	users := make([][]int, n)
	for i, ds := range deps {
		for _, j := range ds {
			indeg[i]++
			users[j] = append(users[j], i)
		}
	}
	done := make([]bool, n)
	order := make([]int, 0, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !done[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, false
		}
		done[next] = true
		order = append(order, next)
		for _, u := range users[next] {
			indeg[u]--
		}
	}
	return order, true
}
