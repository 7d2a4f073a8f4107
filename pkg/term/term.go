package term

import (
	"strconv"
	"strings"
)

// Op identifies the constructor of a term.
type Op int

const (
	// OpAtom is a named concept.
	OpAtom Op = iota
	// OpTop is the universal concept.
	OpTop
	// OpBottom is the empty concept.
	OpBottom
	// OpNot is negation.
	OpNot
	// OpAnd is an n-ary conjunction.
	OpAnd
	// OpOr is an n-ary disjunction.
	OpOr
	// OpSome is an existential restriction: (some r C).
	OpSome
	// OpAll is a universal restriction: (all r C).
	OpAll
	// OpAtLeast is an unqualified minimum cardinality: (at-least n r).
	OpAtLeast
	// OpAtMost is an unqualified maximum cardinality: (at-most n r).
	OpAtMost
	// OpOneOf is a nominal binding a node to a named individual.
	OpOneOf
	// OpLiteral binds a datatype node to a literal value.
	OpLiteral
	// OpImplies is a concept inclusion axiom.
	OpImplies
	// OpEquivalent is a concept equivalence axiom.
	OpEquivalent
)

var opNames = map[Op]string{
	OpTop:        "top",
	OpBottom:     "bottom",
	OpNot:        "not",
	OpAnd:        "and",
	OpOr:         "or",
	OpSome:       "some",
	OpAll:        "all",
	OpAtLeast:    "at-least",
	OpAtMost:     "at-most",
	OpOneOf:      "one-of",
	OpLiteral:    "literal",
	OpImplies:    "implies",
	OpEquivalent: "equivalent",
}

// String returns the keyword used for the operator in the S-expression syntax.
func (o Op) String() string {
	if o == OpAtom {
		return "atom"
	}
	return opNames[o]
}

// Term is an immutable concept, restriction or axiom.
//
// The zero value is not usable; build terms with the package constructors
// or [Parse]. Terms may be shared freely between goroutines and models.
type Term struct {
	op   Op
	name string // atom, nominal or literal value
	role string // restriction role
	n    int    // cardinality bound
	args []*Term
	key  string
}

var (
	top    = &Term{op: OpTop, key: "top"}
	bottom = &Term{op: OpBottom, key: "bottom"}
)

// Atom returns the named concept with the given name.
func Atom(name string) *Term {
	return &Term{op: OpAtom, name: name, key: name}
}

// Top returns the universal concept.
func Top() *Term { return top }

// Bottom returns the unsatisfiable concept.
func Bottom() *Term { return bottom }

// Not returns the negation of t. Double negation is removed.
func Not(t *Term) *Term {
	if t.op == OpNot {
		return t.args[0]
	}
	return build(OpNot, "", "", 0, []*Term{t})
}

// And returns the conjunction of ts. Nested conjunctions are flattened and
// operands are sorted and deduplicated. A single operand is returned as is,
// and an empty conjunction is [Top].
func And(ts ...*Term) *Term {
	return nary(OpAnd, ts, top)
}

// Or returns the disjunction of ts, normalized like [And]. An empty
// disjunction is [Bottom].
func Or(ts ...*Term) *Term {
	return nary(OpOr, ts, bottom)
}

// Some returns the existential restriction (some role filler).
func Some(role string, filler *Term) *Term {
	return build(OpSome, "", role, 0, []*Term{filler})
}

// All returns the universal restriction (all role filler).
func All(role string, filler *Term) *Term {
	return build(OpAll, "", role, 0, []*Term{filler})
}

// AtLeast returns the restriction (at-least n role).
func AtLeast(n int, role string) *Term {
	return build(OpAtLeast, "", role, n, nil)
}

// AtMost returns the restriction (at-most n role).
func AtMost(n int, role string) *Term {
	return build(OpAtMost, "", role, n, nil)
}

// OneOf returns the nominal for the named individual.
func OneOf(name string) *Term {
	return build(OpOneOf, name, "", 0, nil)
}

// Literal returns the binding of a datatype node to value.
func Literal(value string) *Term {
	return build(OpLiteral, value, "", 0, nil)
}

// Implies returns the concept inclusion axiom (implies sub super).
func Implies(sub, super *Term) *Term {
	return build(OpImplies, "", "", 0, []*Term{sub, super})
}

// Equivalent returns the concept equivalence axiom (equivalent a b).
func Equivalent(a, b *Term) *Term {
	return build(OpEquivalent, "", "", 0, []*Term{a, b})
}

func nary(op Op, ts []*Term, empty *Term) *Term {
	seen := make(map[string]bool, len(ts))
	var flat []*Term
	var add func(t *Term)
	add = func(t *Term) {
		if t.op == op {
			for _, a := range t.args {
				add(a)
			}
			return
		}
		if !seen[t.key] {
			seen[t.key] = true
			flat = append(flat, t)
		}
	}
	for _, t := range ts {
		add(t)
	}
	switch len(flat) {
	case 0:
		return empty
	case 1:
		return flat[0]
	}
	Sort(flat)
	return build(op, "", "", 0, flat)
}

func build(op Op, name, role string, n int, args []*Term) *Term {
	t := &Term{op: op, name: name, role: role, n: n, args: args}
	t.key = t.render()
	return t
}

func (t *Term) render() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(t.op.String())
	switch t.op {
	case OpSome, OpAll:
		b.WriteByte(' ')
		b.WriteString(t.role)
	case OpAtLeast, OpAtMost:
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(t.n))
		b.WriteByte(' ')
		b.WriteString(t.role)
	case OpOneOf:
		b.WriteByte(' ')
		b.WriteString(t.name)
	case OpLiteral:
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(t.name))
	}
	for _, a := range t.args {
		b.WriteByte(' ')
		b.WriteString(a.key)
	}
	b.WriteByte(')')
	return b.String()
}

// Op returns the term's constructor.
func (t *Term) Op() Op { return t.op }

// Name returns the concept name of an atom, the individual of a nominal or
// the value of a literal. It is empty for every other term.
func (t *Term) Name() string { return t.name }

// Role returns the role of a restriction, or "" for other terms.
func (t *Term) Role() string { return t.role }

// N returns the bound of a cardinality restriction.
func (t *Term) N() int { return t.n }

// Args returns the operands. The returned slice must not be modified.
func (t *Term) Args() []*Term { return t.args }

// Filler returns the concept of a (some r C) or (all r C) restriction, or
// nil for other terms.
func (t *Term) Filler() *Term {
	if t.op == OpSome || t.op == OpAll {
		return t.args[0]
	}
	return nil
}

// Key returns the canonical key of t. Two terms are structurally equal
// exactly when their keys are equal.
func (t *Term) Key() string { return t.key }

// String returns the S-expression form of t.
func (t *Term) String() string { return t.key }

// Equal reports whether t and u are structurally equal.
func (t *Term) Equal(u *Term) bool {
	if t == nil || u == nil {
		return t == u
	}
	return t.key == u.key
}

// IsAtomic reports whether t is a named concept.
func (t *Term) IsAtomic() bool { return t.op == OpAtom }

// IsNominal reports whether t is a nominal (one-of a).
func (t *Term) IsNominal() bool { return t.op == OpOneOf }

// IsAxiom reports whether t is an axiom form.
func (t *Term) IsAxiom() bool { return t.op == OpImplies || t.op == OpEquivalent }

// IsLiteral reports whether t binds a datatype node to a value.
func (t *Term) IsLiteral() bool { return t.op == OpLiteral }

// IndividualOnly reports whether t may only label individual (non-datatype)
// nodes. Role restrictions need outgoing links and nominals name individuals.
func (t *Term) IndividualOnly() bool {
	u := t
	if u.op == OpNot {
		u = u.args[0]
	}
	switch u.op {
	case OpSome, OpAll, OpAtLeast, OpAtMost, OpOneOf:
		return true
	}
	return false
}

// DatatypeOnly reports whether t may only label datatype nodes.
func (t *Term) DatatypeOnly() bool {
	u := t
	if u.op == OpNot {
		u = u.args[0]
	}
	return u.op == OpLiteral
}

// IsNegationOf reports whether t is the negation of u, taking the
// complementary pairs top/bottom into account.
func (t *Term) IsNegationOf(u *Term) bool {
	switch {
	case t.op == OpNot:
		return t.args[0].key == u.key
	case u.op == OpNot:
		return u.args[0].key == t.key
	case t.op == OpTop:
		return u.op == OpBottom
	case t.op == OpBottom:
		return u.op == OpTop
	}
	return false
}

// Compare orders terms canonically by key. It returns -1, 0 or +1.
func Compare(a, b *Term) int {
	return strings.Compare(a.key, b.key)
}
