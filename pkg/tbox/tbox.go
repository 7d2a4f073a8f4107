// Package tbox holds the terminological axioms of a knowledge base and
// computes their lazy unfolding.
//
// Axioms whose left-hand side is a named concept (or a negated named
// concept) are unfolded lazily: the right-hand side is only added to a node
// once the name itself appears there. All other axioms are internalized into
// global restrictions that hold on every node.
//
// The computed [Unfolding] is stamped with the TBox generation at the time
// it was built, so consumers can detect staleness with a single comparison.
package tbox

import (
	"slices"

	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/term"
)

// TBox is an ordered collection of concept inclusion and equivalence axioms.
//
// The zero value is not usable - use [New].
type TBox struct {
	axioms     []*term.Term
	seen       map[string]bool
	generation uint64
	unfolding  *Unfolding
}

// New returns an empty TBox.
func New() *TBox {
	return &TBox{seen: make(map[string]bool)}
}

// Add appends an axiom. It returns an [errors.ErrCodeInvalidInput] error if
// ax is not an implies or equivalent form. Adding a duplicate axiom is a
// no-op.
func (t *TBox) Add(ax *term.Term) error {
	if !ax.IsAxiom() {
		return errors.New(errors.ErrCodeInvalidInput, "not an axiom: %s", ax)
	}
	if t.seen[ax.Key()] {
		return nil
	}
	t.seen[ax.Key()] = true
	t.axioms = append(t.axioms, ax)
	t.generation++
	t.unfolding = nil
	return nil
}

// Axioms returns the axioms in insertion order.
func (t *TBox) Axioms() []*term.Term { return slices.Clone(t.axioms) }

// Len returns the number of axioms.
func (t *TBox) Len() int { return len(t.axioms) }

// Generation returns a counter incremented by every successful Add.
func (t *TBox) Generation() uint64 { return t.generation }

// Unfolding returns the unfolding of the current axioms. The result is
// cached until the next Add and must be treated as read-only.
func (t *TBox) Unfolding() *Unfolding {
	if t.unfolding == nil || t.unfolding.Generation != t.generation {
		t.unfolding = compute(t.axioms, t.generation)
	}
	return t.unfolding
}

// Unfolding is the lazily applicable form of a TBox.
type Unfolding struct {
	// Generation is the TBox generation this unfolding was computed from.
	Generation uint64

	globals  []*term.Term
	children map[string][]*term.Term
}

// Globals returns the internalized restrictions that must hold on every
// node, in canonical order.
func (u *Unfolding) Globals() []*term.Term {
	if u == nil {
		return nil
	}
	return u.globals
}

// Children returns the terms directly implied by the presence of t on a
// node, in canonical order. The returned slice must not be modified.
func (u *Unfolding) Children(t *term.Term) []*term.Term {
	if u == nil {
		return nil
	}
	return u.children[t.Key()]
}

// Size returns the number of unfoldable parent terms.
func (u *Unfolding) Size() int {
	if u == nil {
		return 0
	}
	return len(u.children)
}

func unfoldable(t *term.Term) bool {
	if t.IsAtomic() {
		return true
	}
	return t.Op() == term.OpNot && t.Args()[0].IsAtomic()
}

func compute(axioms []*term.Term, generation uint64) *Unfolding {
	u := &Unfolding{Generation: generation, children: make(map[string][]*term.Term)}

	// A definition A ≡ C may be unfolded in both directions only when A is
	// not constrained by any other axiom.
	lhsCount := map[string]int{}
	for _, ax := range axioms {
		lhs := ax.Args()[0]
		if unfoldable(lhs) {
			lhsCount[lhs.Key()]++
		}
		if ax.Op() == term.OpEquivalent && unfoldable(ax.Args()[1]) && !unfoldable(lhs) {
			lhsCount[ax.Args()[1].Key()]++
		}
	}

	globals := term.NewSet()
	childSets := map[string]*term.Set{}
	addChild := func(parent, child *term.Term) {
		child = term.NNF(child)
		s, ok := childSets[parent.Key()]
		if !ok {
			s = term.NewSet()
			childSets[parent.Key()] = s
		}
		if child.Op() == term.OpAnd {
			for _, c := range child.Args() {
				s.Add(c)
			}
			return
		}
		s.Add(child)
	}

	for _, ax := range axioms {
		lhs, rhs := ax.Args()[0], ax.Args()[1]
		switch ax.Op() {
		case term.OpImplies:
			if unfoldable(lhs) {
				addChild(term.NNF(lhs), rhs)
			} else {
				globals.Add(term.NNF(ax))
			}
		case term.OpEquivalent:
			if !unfoldable(lhs) && unfoldable(rhs) {
				lhs, rhs = rhs, lhs
			}
			switch {
			case unfoldable(lhs) && lhsCount[lhs.Key()] == 1:
				addChild(term.NNF(lhs), rhs)
				addChild(term.NNF(term.Not(lhs)), term.Not(rhs))
			case unfoldable(lhs):
				addChild(term.NNF(lhs), rhs)
				globals.Add(term.NNF(term.Implies(rhs, lhs)))
			default:
				globals.Add(term.NNF(term.Implies(lhs, rhs)))
				globals.Add(term.NNF(term.Implies(rhs, lhs)))
			}
		}
	}

	u.globals = globals.Sorted()
	for k, s := range childSets {
		u.children[k] = s.Sorted()
	}
	return u
}
