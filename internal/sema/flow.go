package sema

import (
	"github.com/hashicorp/go-set/v3"

	"waspy/internal/ast"
	"waspy/internal/diag"
	"waspy/internal/symbols"
)

// flowState tracks definitely assigned locals along the current path.
// dead marks a path that cannot fall through (after return, raise, break).
type flowState struct {
	assigned *set.Set[symbols.SymbolID]
	dead     bool
}

func newFlow() *flowState {
	return &flowState{assigned: set.New[symbols.SymbolID](8)}
}

func (s *flowState) clone() *flowState {
	return &flowState{assigned: s.assigned.Copy(), dead: s.dead}
}

// mergeFlow joins the states reaching one program point.
func mergeFlow(states ...*flowState) *flowState {
	var out *flowState
	for _, s := range states {
		if s == nil || s.dead {
			continue
		}
		if out == nil {
			out = s.clone()
			continue
		}
		out.assigned = out.assigned.Intersect(s.assigned).(*set.Set[symbols.SymbolID])
	}
	if out == nil {
		out = newFlow()
		out.dead = true
	}
	return out
}

type loopFlow struct {
	breaks []*flowState
}

func (c *checker) markAssigned(sym symbols.SymbolID) {
	if c.flow != nil {
		c.flow.assigned.Insert(sym)
	}
}

func (c *checker) checkAssigned(id ast.ExprID, sym symbols.SymbolID) {
	if !c.final || c.fn == nil || c.flow == nil || c.flow.dead {
		return
	}
	if c.flow.assigned.Contains(sym) {
		return
	}
	if c.unbound == nil {
		c.unbound = set.New[symbols.SymbolID](4)
	}
	if !c.unbound.Insert(sym) {
		return
	}
	c.report(diag.NameUnbound, c.exprSpan(id), "local variable %q may be used before it is assigned", c.table.Symbol(sym).Name)
}

func (c *checker) enterLoop() *loopFlow {
	l := &loopFlow{}
	c.loops = append(c.loops, l)
	return l
}

func (c *checker) leaveLoop() {
	c.loops = c.loops[:len(c.loops)-1]
}

func (c *checker) flowBreak() {
	if n := len(c.loops); n > 0 && c.flow != nil {
		l := c.loops[n-1]
		l.breaks = append(l.breaks, c.flow.clone())
	}
	c.flowDead()
}

func (c *checker) flowDead() {
	if c.flow != nil {
		c.flow.dead = true
	}
}

// alwaysTrue reports loop conditions such as "while True" and "while 1".
func (c *checker) alwaysTrue(id ast.ExprID) bool {
	e := c.mod.Exprs.Get(id)
	if e == nil {
		return false
	}
	lit, ok := c.mod.Exprs.Literal(id)
	if !ok {
		return false
	}
	switch e.Kind {
	case ast.ExprBool:
		return lit.Bool
	case ast.ExprInt:
		return lit.Int != 0
	}
	return false
}
