package types

func numericRank(k Kind) int {
	switch k {
	case KindBool:
		return 1
	case KindInt:
		return 2
	case KindFloat:
		return 3
	default:
		return 0
	}
}

// IsNumeric reports bool, int and float.
func (in *Interner) IsNumeric(id TypeID) bool {
	return numericRank(in.KindOf(id)) > 0
}

// IsHeap reports types whose values are references into linear memory.
func (in *Interner) IsHeap(id TypeID) bool {
	switch in.KindOf(id) {
	case KindStr, KindBytes, KindList, KindSet, KindRecord, KindAny:
		return true
	default:
		return false
	}
}

// HasUnresolved reports whether id still contains an inference placeholder.
func (in *Interner) HasUnresolved(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return true
	}
	switch tt.Kind {
	case KindUnresolved:
		return true
	case KindList, KindSet:
		return in.HasUnresolved(tt.Elem)
	default:
		return false
	}
}

// Refine fills the unresolved parts of cur with matching parts of evidence.
// Parts of cur that are already concrete are kept.
func (in *Interner) Refine(cur, evidence TypeID) TypeID {
	ct, ok := in.Lookup(cur)
	if !ok || ct.Kind == KindUnresolved {
		return evidence
	}
	et, ok := in.Lookup(evidence)
	if !ok || et.Kind != ct.Kind {
		return cur
	}
	switch ct.Kind {
	case KindList:
		return in.ListOf(in.Refine(ct.Elem, et.Elem))
	case KindSet:
		return in.SetOf(in.Refine(ct.Elem, et.Elem))
	}
	return cur
}

// Join computes the common supertype of a and b: numeric promotion
// (bool < int < float), the nearest common base for records, and element
// refinement for containers built from empty displays.
func (in *Interner) Join(a, b TypeID) (TypeID, bool) {
	if a == b {
		return a, true
	}
	at, aok := in.Lookup(a)
	bt, bok := in.Lookup(b)
	if !aok || !bok {
		return NoTypeID, false
	}
	if at.Kind == KindUnresolved {
		return b, true
	}
	if bt.Kind == KindUnresolved {
		return a, true
	}
	if nullable(at.Kind) && bt.Kind == KindNone {
		return a, true
	}
	if nullable(bt.Kind) && at.Kind == KindNone {
		return b, true
	}
	if ra, rb := numericRank(at.Kind), numericRank(bt.Kind); ra > 0 && rb > 0 {
		if ra >= rb {
			return a, true
		}
		return b, true
	}
	if at.Kind != bt.Kind {
		return NoTypeID, false
	}
	switch at.Kind {
	case KindList, KindSet:
		elem, ok := in.joinElem(at.Elem, bt.Elem)
		if !ok {
			return NoTypeID, false
		}
		if at.Kind == KindList {
			return in.ListOf(elem), true
		}
		return in.SetOf(elem), true
	case KindRecord:
		return in.CommonBase(a, b)
	}
	return NoTypeID, false
}

// containers are invariant: elements only join through refinement.
func (in *Interner) joinElem(a, b TypeID) (TypeID, bool) {
	if a == b {
		return a, true
	}
	switch {
	case in.HasUnresolved(a):
		r := in.Refine(a, b)
		return r, r == b || in.HasUnresolved(b)
	case in.HasUnresolved(b):
		r := in.Refine(b, a)
		return r, r == a
	}
	return NoTypeID, false
}

// Assignable reports whether a value of type src may be stored where dst is expected.
// Numeric widening (bool -> int -> float) and upcasts to a base record are implicit.
func (in *Interner) Assignable(dst, src TypeID) bool {
	if dst == src {
		return true
	}
	dt, dok := in.Lookup(dst)
	st, sok := in.Lookup(src)
	if !dok || !sok {
		return false
	}
	if dt.Kind == KindUnresolved || st.Kind == KindUnresolved {
		return true
	}
	if dt.Kind == KindAny {
		return st.Kind != KindFunc
	}
	if nullable(dt.Kind) && st.Kind == KindNone {
		return true
	}
	if rd, rs := numericRank(dt.Kind), numericRank(st.Kind); rd > 0 && rs > 0 {
		return rd >= rs
	}
	if dt.Kind != st.Kind {
		return false
	}
	switch dt.Kind {
	case KindList, KindSet:
		_, ok := in.joinElem(dt.Elem, st.Elem)
		return ok
	case KindRecord:
		return in.IsSubclass(src, dst)
	}
	return false
}

// nullable kinds use the null reference for None.
func nullable(k Kind) bool {
	return k == KindRecord || k == KindExternal
}

// IsNullable reports whether None is a valid value of id.
func (in *Interner) IsNullable(id TypeID) bool {
	return nullable(in.KindOf(id))
}
