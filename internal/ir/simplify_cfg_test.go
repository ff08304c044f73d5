package ir_test

import (
	"strings"
	"testing"

	"waspy/internal/ir"
	"waspy/internal/types"
)

func gotoTerm(target ir.BlockID) ir.Terminator {
	return ir.Terminator{Kind: ir.TermGoto, Goto: ir.GotoTerm{Target: target}}
}

func TestSimplifyCFG_TrivialGotoChain(t *testing.T) {
	in := types.NewInterner()
	intType := in.Builtins().Int
	one := ir.ConstOperand(ir.IntConst(1), intType)

	// bb0 -> bb1 (empty) -> bb2 (empty) -> bb3 return; bb4 is dead
	f := &ir.Func{
		Name:   "test",
		Result: intType,
		Locals: []ir.Local{{Name: "x", Type: intType}},
		Blocks: []ir.Block{
			{ID: 0, Instrs: []ir.Instr{{Kind: ir.InstrAssign, Assign: ir.AssignInstr{Dst: 0, Src: ir.RValue{Kind: ir.RValueUse, X: one}}}}, Term: gotoTerm(1)},
			{ID: 1, Term: gotoTerm(2)},
			{ID: 2, Term: gotoTerm(3)},
			{ID: 3, Term: ir.Terminator{Kind: ir.TermReturn, Return: ir.ReturnTerm{HasValue: true, Value: ir.LocalOperand(0, intType)}}},
			{ID: 4, Term: ir.Terminator{Kind: ir.TermUnreachable}},
		},
	}
	ir.SimplifyCFG(f)

	if len(f.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(f.Blocks))
	}
	if f.Entry != 0 {
		t.Errorf("entry = bb%d", f.Entry)
	}
	if got := f.Blocks[0].Term; got.Kind != ir.TermGoto || got.Goto.Target != 1 {
		t.Errorf("bb0 terminator = %+v, want goto bb1", got)
	}
	if f.Blocks[1].Term.Kind != ir.TermReturn || f.Blocks[1].ID != 1 {
		t.Errorf("bb1 = %+v, want the return block", f.Blocks[1])
	}
}

func TestSimplifyCFG_KeepsEmptyLoop(t *testing.T) {
	f := &ir.Func{
		Name: "spin",
		Blocks: []ir.Block{
			{ID: 0, Term: gotoTerm(1)},
			{ID: 1, Term: gotoTerm(1)},
		},
	}
	ir.SimplifyCFG(f)
	if len(f.Blocks) == 0 {
		t.Fatalf("loop removed")
	}
	last := f.Blocks[len(f.Blocks)-1]
	if last.Term.Kind != ir.TermGoto || last.Term.Goto.Target != last.ID {
		t.Errorf("self loop lost: %+v", f.Blocks)
	}
}

func TestSimplifyCFG_FoldsIdenticalArms(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	f := &ir.Func{
		Name:   "same",
		Result: b.None,
		Locals: []ir.Local{{Name: "c", Type: b.Bool}},
		Blocks: []ir.Block{
			{ID: 0, Term: ir.Terminator{Kind: ir.TermIf, If: ir.IfTerm{Cond: ir.LocalOperand(0, b.Bool), Then: 1, Else: 2}}},
			{ID: 1, Term: gotoTerm(2)},
			{ID: 2, Term: ir.Terminator{Kind: ir.TermReturn}},
		},
	}
	ir.SimplifyCFG(f)
	if f.Blocks[f.Entry].Term.Kind != ir.TermGoto {
		t.Errorf("entry terminator = %v, want goto", f.Blocks[f.Entry].Term.Kind)
	}
}

func TestValidateReportsBrokenFunctions(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	m := &ir.Module{
		Types: in,
		Init:  1,
		Funcs: []*ir.Func{
			{
				ID:     0,
				Name:   "broken",
				Result: b.Int,
				Blocks: []ir.Block{
					{ID: 0, Term: gotoTerm(7)},
					{ID: 1, Instrs: []ir.Instr{{Kind: ir.InstrAssign, Assign: ir.AssignInstr{Dst: 3, Src: ir.RValue{Kind: ir.RValueUse, X: ir.ConstOperand(ir.IntConst(1), b.Int)}}}}},
					{ID: 2, Term: ir.Terminator{Kind: ir.TermReturn}},
				},
			},
			{ID: 1, Name: ir.InitName, Result: b.None, Blocks: []ir.Block{{ID: 0, Term: ir.Terminator{Kind: ir.TermReturn}}}},
		},
	}
	err := ir.Validate(m)
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"target bb7 does not exist", "unterminated", "L3 does not exist", "missing return value"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error lacks %q: %v", want, err)
		}
	}
}
