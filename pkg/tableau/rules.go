package tableau

import (
	"fmt"

	"github.com/matzehuels/tableau/pkg/abox"
	"github.com/matzehuels/tableau/pkg/rbox"
	"github.com/matzehuels/tableau/pkg/term"
)

// choice is an open non-deterministic decision on a node.
type choice struct {
	node   abox.NodeID
	term   *term.Term
	retire bool // remove term from the node once the choice is taken
	alts   []alternative
}

type alternative struct {
	label string
	apply func(*state) error
}

// limit is an upper bound on the number of role neighbours of a node, from
// an at-most restriction or a functional role.
type limit struct {
	n       int
	role    string
	inverse bool       // bound applies to predecessors
	term    *term.Term // nil for functional roles
}

func (r *reasoner) functional(role string) bool {
	return r.rbox.Is(role, rbox.Functional)
}

// deterministic applies deterministic rules to id until none applies. It
// reports whether the node has an open choice point afterwards.
func (r *reasoner) deterministic(st *state, id abox.NodeID) (bool, error) {
	a := st.abox()
	for {
		n := a.Node(id)
		if n == nil {
			return false, nil
		}
		if err := r.checkClash(st, n); err != nil {
			return false, err
		}
		applied, err := r.applyRules(st, n)
		if err != nil {
			return false, err
		}
		if !applied {
			return r.choiceFor(st, id) != nil, nil
		}
	}
}

func (r *reasoner) applyRules(st *state, n *abox.Node) (bool, error) {
	rules := []func(*state, *abox.Node) (bool, error){
		r.andRule,
		r.allRule,
		r.domainRangeRule,
		r.atMostRule,
	}
	for _, rule := range rules {
		applied, err := rule(st, n)
		if err != nil || applied {
			return applied, err
		}
	}
	return false, nil
}

func (r *reasoner) andRule(st *state, n *abox.Node) (bool, error) {
	for _, t := range n.Terms() {
		if t.Op() != term.OpAnd {
			continue
		}
		var missing []*term.Term
		for _, c := range t.Args() {
			if !n.Knows(c) {
				missing = append(missing, c)
			}
		}
		if len(missing) == 0 {
			continue
		}
		info, err := st.abox().AddUnfoldedDescriptions(n.ID(), missing, abox.EntryOf(n.ID(), t))
		st.track(info)
		return true, err
	}
	return false, nil
}

func (r *reasoner) allRule(st *state, n *abox.Node) (bool, error) {
	a := st.abox()
	for _, t := range n.Terms() {
		if t.Op() != term.OpAll {
			continue
		}
		e := abox.EntryOf(n.ID(), t)
		for _, y := range a.Successors(n.ID(), t.Role()) {
			if a.Node(y).Knows(t.Filler()) {
				continue
			}
			parents := append([]abox.Entry{e}, st.linkOrigin(n.ID(), y)...)
			info, err := a.AddUnfoldedDescription(y, t.Filler(), parents...)
			st.track(info)
			return true, err
		}
		for _, s := range r.rbox.TransitiveSubs(t.Role()) {
			carried := term.All(s, t.Filler())
			for _, y := range a.Successors(n.ID(), s) {
				if a.Node(y).Knows(carried) {
					continue
				}
				parents := append([]abox.Entry{e}, st.linkOrigin(n.ID(), y)...)
				info, err := a.AddUnfoldedDescription(y, carried, parents...)
				st.track(info)
				return true, err
			}
		}
	}
	return false, nil
}

func (r *reasoner) domainRangeRule(st *state, n *abox.Node) (bool, error) {
	id := n.ID()
	try := func(ts []*term.Term, peer abox.NodeID) (bool, error) {
		for _, t := range ts {
			if n.Knows(term.NNF(t)) {
				continue
			}
			info, err := st.abox().AddUnfoldedDescription(id, t, st.linkOrigin(id, peer)...)
			st.track(info)
			return true, err
		}
		return false, nil
	}
	for _, role := range n.OutRoles() {
		info, ok := r.rbox.Role(role)
		if !ok || len(info.Domain) == 0 {
			continue
		}
		for _, y := range n.Told(role) {
			if applied, err := try(info.Domain, y); applied || err != nil {
				return applied, err
			}
		}
	}
	for _, role := range n.InRoles() {
		info, ok := r.rbox.Role(role)
		if !ok || len(info.Range) == 0 {
			continue
		}
		for _, p := range n.ToldPredecessors(role) {
			if applied, err := try(info.Range, p); applied || err != nil {
				return applied, err
			}
		}
	}
	return false, nil
}

// limits returns the upper bounds that apply to n.
func (r *reasoner) limits(n *abox.Node) []limit {
	var out []limit
	for _, t := range n.Terms() {
		if t.Op() == term.OpAtMost {
			out = append(out, limit{n: t.N(), role: t.Role(), term: t})
		}
	}
	if n.IsDatatype() {
		return out
	}
	for _, role := range r.rbox.Roles() {
		if r.rbox.Is(role, rbox.Functional) {
			out = append(out, limit{n: 1, role: role})
		}
		if r.rbox.Is(role, rbox.InverseFunctional) {
			out = append(out, limit{n: 1, role: role, inverse: true})
		}
	}
	return out
}

func (r *reasoner) neighbours(a *abox.ABox, id abox.NodeID, l limit) []abox.NodeID {
	if l.inverse {
		return a.Predecessors(id, l.role)
	}
	return a.Successors(id, l.role)
}

// mergeablePairs returns the pairs of ys that may be merged.
func mergeablePairs(a *abox.ABox, ys []abox.NodeID) [][2]abox.NodeID {
	var out [][2]abox.NodeID
	for i, x := range ys {
		for _, y := range ys[i+1:] {
			if !a.AreDistinct(x, y) && a.CanMerge(x, y) {
				out = append(out, [2]abox.NodeID{x, y})
			}
		}
	}
	return out
}

func (r *reasoner) limitEntries(st *state, id abox.NodeID, l limit, pair [2]abox.NodeID) []abox.Entry {
	var es []abox.Entry
	if l.term != nil {
		es = append(es, abox.EntryOf(id, l.term))
	}
	es = append(es, st.origin[id]...)
	es = append(es, st.origin[pair[0]]...)
	return append(es, st.origin[pair[1]]...)
}

// atMostRule merges neighbours that exceed a bound when there is only one
// way to do it, and clashes when there is none.
func (r *reasoner) atMostRule(st *state, n *abox.Node) (bool, error) {
	a := st.abox()
	id := n.ID()
	for _, l := range r.limits(n) {
		ys := r.neighbours(a, id, l)
		if len(ys) <= l.n {
			continue
		}
		pairs := mergeablePairs(a, ys)
		switch len(pairs) {
		case 0:
			var es []abox.Entry
			if l.term != nil {
				es = append(es, abox.EntryOf(id, l.term))
			}
			for _, y := range ys {
				es = append(es, st.origin[y]...)
			}
			return false, r.newClash(st, id, fmt.Sprintf("%d %s neighbours exceed %s", len(ys), l.role, l), es...)
		case 1:
			return true, r.merge(st, pairs[0][0], pairs[0][1], r.limitEntries(st, id, l, pairs[0]))
		}
	}
	return false, nil
}

func (l limit) String() string {
	if l.term != nil {
		return l.term.String()
	}
	if l.inverse {
		return "inverse functional"
	}
	return "functional"
}

// merge merges x and y, making every term moved by the merge depend on just.
func (r *reasoner) merge(st *state, x, y abox.NodeID, just []abox.Entry) error {
	a := st.abox()
	if a.AreDistinct(x, y) {
		return r.newClash(st, x, fmt.Sprintf("nodes %d and %d are distinct", x, y), just...)
	}
	source := max(x, y)
	moved := a.Node(source).Terms()
	info, err := a.MergeNodes(x, y)
	if err != nil {
		return err
	}
	st.track(info)
	target := info.Current()
	resolved := make([]abox.Entry, len(just))
	for i, e := range just {
		resolved[i] = abox.Entry{Node: info.Resolve(e.Node), Key: e.Key}
	}
	for _, t := range moved {
		for _, e := range resolved {
			a.Deps().Add(abox.EntryOf(target, t), e)
		}
	}
	st.addOrigin(target, resolved...)
	r.log.Debug("merged", "source", source, "target", target)
	return nil
}

// choiceFor returns the first open choice point on id, or nil.
func (r *reasoner) choiceFor(st *state, id abox.NodeID) *choice {
	a := st.abox()
	n := a.Node(id)
	if n == nil {
		return nil
	}
	for _, t := range n.Terms() {
		if t.Op() != term.OpOr || satisfied(n, t) {
			continue
		}
		return r.orChoice(id, t)
	}
	for _, l := range r.limits(n) {
		ys := r.neighbours(a, id, l)
		if len(ys) <= l.n {
			continue
		}
		pairs := mergeablePairs(a, ys)
		if len(pairs) < 2 {
			continue
		}
		c := &choice{node: id, term: l.term}
		if c.term == nil {
			c.term = term.AtMost(1, l.role)
		}
		for _, p := range pairs {
			just := r.limitEntries(st, id, l, p)
			just = append(just, abox.EntryOf(id, c.term))
			c.alts = append(c.alts, alternative{
				label: fmt.Sprintf("merge %d %d", p[0], p[1]),
				apply: func(s *state) error { return r.merge(s, p[0], p[1], just) },
			})
		}
		return c
	}
	return nil
}

func satisfied(n *abox.Node, or *term.Term) bool {
	for _, d := range or.Args() {
		if n.HasTerm(d) {
			return true
		}
	}
	return false
}

func (r *reasoner) orChoice(id abox.NodeID, or *term.Term) *choice {
	c := &choice{node: id, term: or, retire: true}
	e := abox.EntryOf(id, or)
	add := func(ts []*term.Term) func(*state) error {
		return func(s *state) error {
			info, err := s.abox().AddUnfoldedDescriptions(id, ts, e)
			s.track(info)
			return err
		}
	}
	ds := or.Args()
	if !r.opts.SemanticBranching {
		for _, d := range ds {
			c.alts = append(c.alts, alternative{label: d.String(), apply: add([]*term.Term{d})})
		}
		return c
	}
	// Every non-empty subset of the disjuncts, asserted true, with the
	// rest asserted false.
	for mask := 1; mask < 1<<len(ds); mask++ {
		ts := make([]*term.Term, len(ds))
		for i, d := range ds {
			if mask&(1<<i) != 0 {
				ts[i] = d
			} else {
				ts[i] = term.NNF(term.Not(d))
			}
		}
		c.alts = append(c.alts, alternative{label: term.And(ts...).String(), apply: add(ts)})
	}
	return c
}

// generating applies the first applicable node-creating rule to id.
func (r *reasoner) generating(st *state, id abox.NodeID) error {
	a := st.abox()
	n := a.Node(id)
	if n == nil || n.IsDatatype() {
		return nil
	}
	for _, t := range n.Terms() {
		switch t.Op() {
		case term.OpSome:
			if r.someSatisfied(a, id, t) {
				continue
			}
			return r.createSuccessors(st, id, t, 1, t.Filler())
		case term.OpAtLeast:
			if t.N() == 0 || atLeastSatisfied(a, a.Successors(id, t.Role()), t.N()) {
				continue
			}
			return r.createSuccessors(st, id, t, t.N(), nil)
		}
	}
	return nil
}

func (r *reasoner) someSatisfied(a *abox.ABox, id abox.NodeID, t *term.Term) bool {
	for _, y := range a.Successors(id, t.Role()) {
		if a.Node(y).Knows(t.Filler()) {
			return true
		}
	}
	return false
}

// atLeastSatisfied reports whether ys holds m pairwise distinct nodes.
func atLeastSatisfied(a *abox.ABox, ys []abox.NodeID, m int) bool {
	if len(ys) < m {
		return false
	}
	for i := range ys {
		clique := []abox.NodeID{ys[i]}
		for _, y := range ys {
			if y == ys[i] {
				continue
			}
			ok := true
			for _, c := range clique {
				if !a.AreDistinct(c, y) {
					ok = false
					break
				}
			}
			if ok {
				clique = append(clique, y)
				if len(clique) >= m {
					return true
				}
			}
		}
		if len(clique) >= m {
			return true
		}
	}
	return false
}

// createSuccessors creates count pairwise distinct role successors of id
// for the restriction t, labelling each with filler if it is not nil.
func (r *reasoner) createSuccessors(st *state, id abox.NodeID, t *term.Term, count int, filler *term.Term) error {
	a := st.abox()
	e := abox.EntryOf(id, t)
	datatype := r.rbox.Type(t.Role()) == rbox.Data
	created := make([]abox.NodeID, 0, count)
	for range count {
		y, err := a.CreateNode(datatype)
		if err != nil {
			return err
		}
		yid := y.ID()
		st.addOrigin(yid, e)
		if _, err := a.AddLink(id, t.Role(), yid); err != nil {
			return err
		}
		if filler != nil {
			info, err := a.AddUnfoldedDescription(yid, filler, e)
			st.track(info)
			if err != nil {
				return err
			}
			yid = info.Current()
		}
		created = append(created, yid)
	}
	for i, x := range created {
		for _, y := range created[i+1:] {
			a.AddDistinct(x, y)
		}
	}
	r.log.Debug("created successors", "node", id, "term", t, "nodes", created)
	return nil
}
