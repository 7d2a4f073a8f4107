package tableau

import (
	"fmt"

	"github.com/matzehuels/tableau/pkg/abox"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/term"
)

// clash is a contradiction together with the entries it rests on.
type clash struct {
	*errors.ClashError
	entries []abox.Entry
}

func (r *reasoner) newClash(st *state, id abox.NodeID, reason string, entries ...abox.Entry) *clash {
	entries = append(entries, st.origin[id]...)
	return &clash{
		ClashError: &errors.ClashError{Node: int64(id), Reason: reason},
		entries:    dedupEntries(entries),
	}
}

// checkClash looks for a contradiction among the terms of n.
func (r *reasoner) checkClash(st *state, n *abox.Node) error {
	id := n.ID()
	if n.HasTerm(term.Bottom()) {
		return r.newClash(st, id, "bottom", abox.EntryOf(id, term.Bottom()))
	}
	a := st.abox()
	if a.AreDistinct(id, id) {
		return r.newClash(st, id, "distinct individuals merged")
	}

	var literals []*term.Term
	var atLeast, atMost []*term.Term
	for _, t := range n.Terms() {
		switch t.Op() {
		case term.OpNot:
			if n.HasTerm(t.Args()[0]) {
				return r.newClash(st, id, fmt.Sprintf("%s and %s", t.Args()[0], t),
					abox.EntryOf(id, t), abox.EntryOf(id, t.Args()[0]))
			}
		case term.OpLiteral:
			literals = append(literals, t)
		case term.OpAtLeast:
			atLeast = append(atLeast, t)
		case term.OpAtMost:
			atMost = append(atMost, t)
		}
	}
	if len(literals) > 1 {
		return r.newClash(st, id, fmt.Sprintf("conflicting values %s and %s", literals[0], literals[1]),
			abox.EntryOf(id, literals[0]), abox.EntryOf(id, literals[1]))
	}

	rb := a.Config().RBox()
	for _, lo := range atLeast {
		for _, hi := range atMost {
			if lo.N() > hi.N() && rb.IsSubRoleOf(lo.Role(), hi.Role()) {
				return r.newClash(st, id, fmt.Sprintf("%s and %s", lo, hi),
					abox.EntryOf(id, lo), abox.EntryOf(id, hi))
			}
		}
		for _, sup := range rb.Supers(lo.Role()) {
			if lo.N() > 1 && r.functional(sup) {
				return r.newClash(st, id, fmt.Sprintf("%s on functional role %s", lo, sup),
					abox.EntryOf(id, lo))
			}
		}
	}
	return nil
}
