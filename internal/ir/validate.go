package ir

import (
	"errors"
	"fmt"

	"waspy/internal/types"
)

// Validate checks the structural invariants the code generator relies on.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if err := validateFunc(m, f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	if m.Func(m.Init) == nil {
		errs = append(errs, errors.New("module has no init function"))
	}
	return errors.Join(errs...)
}

func validateFunc(m *Module, f *Func) error {
	var errs []error
	if f.Entry < 0 || int(f.Entry) >= len(f.Blocks) {
		errs = append(errs, fmt.Errorf("entry bb%d does not exist", f.Entry))
	}
	if f.Params > len(f.Locals) {
		errs = append(errs, fmt.Errorf("%d params but %d locals", f.Params, len(f.Locals)))
	}
	for i, loc := range f.Locals {
		if loc.Type == types.NoTypeID {
			errs = append(errs, fmt.Errorf("local L%d (%s): unknown type", i, loc.Name))
		}
	}

	blockExists := func(id BlockID) bool { return id >= 0 && int(id) < len(f.Blocks) }
	localExists := func(id LocalID) bool { return id >= 0 && int(id) < len(f.Locals) }
	checkOperand := func(op Operand, ctx string) {
		if op.Type == types.NoTypeID {
			errs = append(errs, fmt.Errorf("%s: operand without type", ctx))
		}
		if op.Kind == OperandLocal && !localExists(op.Local) {
			errs = append(errs, fmt.Errorf("%s: local L%d does not exist", ctx, op.Local))
		}
	}

	resultNone := m.Types.KindOf(f.Result) == types.KindNone
	for i := range f.Blocks {
		bb := &f.Blocks[i]
		if bb.ID != BlockID(i) { //nolint:gosec // bounded by the block count
			errs = append(errs, fmt.Errorf("bb%d: stale id bb%d", i, bb.ID))
		}
		for j := range bb.Instrs {
			ins := &bb.Instrs[j]
			ctx := fmt.Sprintf("bb%d instr %d", i, j)
			switch ins.Kind {
			case InstrAssign:
				if !localExists(ins.Assign.Dst) {
					errs = append(errs, fmt.Errorf("%s: destination L%d does not exist", ctx, ins.Assign.Dst))
				}
				for _, op := range ins.Assign.Src.Operands() {
					checkOperand(op, ctx)
				}
			case InstrCall:
				c := &ins.Call
				if c.HasDst && !localExists(c.Dst) {
					errs = append(errs, fmt.Errorf("%s: destination L%d does not exist", ctx, c.Dst))
				}
				for _, a := range c.Args {
					checkOperand(a, ctx)
				}
				switch c.Callee.Kind {
				case CalleeFunc:
					if g := m.Func(c.Callee.Func); g == nil {
						errs = append(errs, fmt.Errorf("%s: call to missing function #%d", ctx, c.Callee.Func))
					} else if len(c.Args) != g.Params {
						errs = append(errs, fmt.Errorf("%s: %s takes %d arguments, got %d", ctx, g.Name, g.Params, len(c.Args)))
					}
				case CalleeImport:
					if c.Callee.Import < 0 || int(c.Callee.Import) >= len(m.Imports) {
						errs = append(errs, fmt.Errorf("%s: call to missing import #%d", ctx, c.Callee.Import))
					}
				case CalleeRuntime:
					if n := len(c.Callee.Runtime.Spec().Params); n != len(c.Args) {
						errs = append(errs, fmt.Errorf("%s: rt.%s takes %d arguments, got %d", ctx, c.Callee.Runtime, n, len(c.Args)))
					}
				case CalleeHost:
					if n := len(c.Callee.Host.Spec().Params); n != len(c.Args) {
						errs = append(errs, fmt.Errorf("%s: host %s takes %d arguments, got %d", ctx, c.Callee.Host, n, len(c.Args)))
					}
				}
			case InstrStoreGlobal:
				if ins.StoreGlobal.Global < 0 || int(ins.StoreGlobal.Global) >= len(m.Globals) {
					errs = append(errs, fmt.Errorf("%s: global G%d does not exist", ctx, ins.StoreGlobal.Global))
				}
				checkOperand(ins.StoreGlobal.Value, ctx)
			case InstrSetField:
				checkOperand(ins.SetField.Object, ctx)
				checkOperand(ins.SetField.Value, ctx)
			case InstrSetExc:
				checkOperand(ins.SetExc.Value, ctx)
			}
		}

		ctx := fmt.Sprintf("bb%d terminator", i)
		t := &bb.Term
		if t.Kind == TermNone {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", i))
		}
		for _, s := range t.Successors() {
			if !blockExists(s) {
				errs = append(errs, fmt.Errorf("%s: target bb%d does not exist", ctx, s))
			}
		}
		switch t.Kind {
		case TermIf:
			checkOperand(t.If.Cond, ctx)
		case TermReturn:
			switch {
			case t.Return.HasValue:
				checkOperand(t.Return.Value, ctx)
			case !resultNone && !t.Return.Exceptional:
				errs = append(errs, fmt.Errorf("%s: missing return value", ctx))
			}
		}
	}
	return errors.Join(errs...)
}
