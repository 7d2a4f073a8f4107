package term

// NNF returns t in negation normal form: negation is pushed inward until it
// applies only to atoms, nominals and literals. Concept inclusion axioms are
// rewritten to their internalized form (or (not sub) super).
func NNF(t *Term) *Term {
	switch t.op {
	case OpAtom, OpTop, OpBottom, OpOneOf, OpLiteral, OpAtLeast, OpAtMost:
		return t
	case OpNot:
		return negate(t.args[0])
	case OpAnd:
		return And(mapNNF(t.args)...)
	case OpOr:
		return Or(mapNNF(t.args)...)
	case OpSome:
		return Some(t.role, NNF(t.args[0]))
	case OpAll:
		return All(t.role, NNF(t.args[0]))
	case OpImplies:
		return Or(negate(t.args[0]), NNF(t.args[1]))
	case OpEquivalent:
		a, b := t.args[0], t.args[1]
		return And(Or(negate(a), NNF(b)), Or(negate(b), NNF(a)))
	}
	return t
}

// negate returns NNF(not t).
func negate(t *Term) *Term {
	switch t.op {
	case OpTop:
		return bottom
	case OpBottom:
		return top
	case OpNot:
		return NNF(t.args[0])
	case OpAnd:
		return Or(mapNegate(t.args)...)
	case OpOr:
		return And(mapNegate(t.args)...)
	case OpSome:
		return All(t.role, negate(t.args[0]))
	case OpAll:
		return Some(t.role, negate(t.args[0]))
	case OpAtLeast:
		if t.n == 0 {
			return bottom
		}
		return AtMost(t.n-1, t.role)
	case OpAtMost:
		return AtLeast(t.n+1, t.role)
	case OpImplies:
		return And(NNF(t.args[0]), negate(t.args[1]))
	case OpEquivalent:
		return negate(NNF(t))
	}
	return Not(t)
}

func mapNNF(ts []*Term) []*Term {
	out := make([]*Term, len(ts))
	for i, t := range ts {
		out[i] = NNF(t)
	}
	return out
}

func mapNegate(ts []*Term) []*Term {
	out := make([]*Term, len(ts))
	for i, t := range ts {
		out[i] = negate(t)
	}
	return out
}

// IsNNF reports whether t is already in negation normal form.
func IsNNF(t *Term) bool {
	switch t.op {
	case OpNot:
		switch t.args[0].op {
		case OpAtom, OpOneOf, OpLiteral:
			return true
		}
		return false
	case OpImplies, OpEquivalent:
		return false
	}
	for _, a := range t.args {
		if !IsNNF(a) {
			return false
		}
	}
	return true
}
