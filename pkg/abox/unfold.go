package abox

import (
	"strings"

	"github.com/matzehuels/tableau/internal/pq"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/term"
)

// pending is a term waiting to be added together with its justification.
type pending struct {
	t       *term.Term
	parents []Entry
	order   string // term key, then parents; unique per pending
}

func newPending(t *term.Term, parents ...Entry) pending {
	var b strings.Builder
	b.WriteString(t.Key())
	for _, p := range parents {
		b.WriteByte(0)
		b.WriteString(p.String())
	}
	return pending{t: t, parents: parents, order: b.String()}
}

func comparePending(a, b pending) int { return strings.Compare(a.order, b.order) }

// AddUnfoldedDescription adds t in negation normal form to node id together
// with everything the TBox unfolding derives from it. Each added term
// depends on the term it was unfolded from; t itself depends on parents.
//
// Only the first justification of a term is recorded. A term the node
// already knows is skipped, so a second derivation adds no dependency edge
// and backjumping sees only the culprits of the original one.
//
// Terms are processed smallest first. Adding a nominal may merge the node
// mid-way, after which all remaining work goes to the merged node, which
// the returned MergeInfo reports as Current.
func (a *ABox) AddUnfoldedDescription(id NodeID, t *term.Term, parents ...Entry) (*MergeInfo, error) {
	return a.unfold(id, []pending{newPending(term.NNF(t), parents...)})
}

// AddUnfoldedDescriptions adds every term of ts as AddUnfoldedDescription
// does, continuing on the current node after each one.
func (a *ABox) AddUnfoldedDescriptions(id NodeID, ts []*term.Term, parents ...Entry) (*MergeInfo, error) {
	info := newMergeInfo(id)
	for _, t := range ts {
		m, err := a.AddUnfoldedDescription(info.Current(), t, parents...)
		info.Append(m)
		if err != nil {
			return info, err
		}
	}
	return info, nil
}

func (a *ABox) unfold(id NodeID, seeds []pending) (*MergeInfo, error) {
	info := newMergeInfo(id)
	if _, err := a.node(id); err != nil {
		return info, err
	}
	u := a.cfg.tbox.Unfolding()
	work := pq.New(comparePending)
	queued := make(map[string]struct{})
	push := func(p pending) {
		if _, ok := queued[p.order]; ok {
			return
		}
		queued[p.order] = struct{}{}
		work.Push(p)
	}
	for _, s := range seeds {
		push(s)
	}

	for work.Len() > 0 {
		p := work.Pop()
		cur := info.Current()
		n := a.nodes[cur]
		if n == nil {
			return info, errors.New(errors.ErrCodeInternal, "node %d vanished during unfolding", cur)
		}
		if n.Knows(p.t) {
			continue
		}
		parents := make([]Entry, len(p.parents))
		for i, e := range p.parents {
			parents[i] = Entry{Node: info.Resolve(e.Node), Key: e.Key}
		}
		m, err := a.AddTerm(cur, p.t, parents...)
		info.Append(m)
		if err != nil {
			return info, err
		}
		cur = info.Current()
		for _, c := range u.Children(p.t) {
			if !a.nodes[cur].Knows(c) {
				push(newPending(c, EntryOf(cur, p.t)))
			}
		}
	}
	return info, nil
}
