package tableau

import (
	"slices"

	"github.com/matzehuels/tableau/pkg/abox"
	"github.com/matzehuels/tableau/pkg/branch"
)

// state is one branch of the search together with the bookkeeping the
// rules need on top of the ABox.
type state struct {
	br    *branch.Branch
	level int // number of choice points above this branch

	// origin holds the entries that caused a node and its incoming links to
	// be created. Nodes asserted in the knowledge base have none.
	origin map[abox.NodeID][]abox.Entry
	// levels maps the governing entry of each choice point on the path to
	// its level.
	levels map[abox.Entry]int
	// deferred holds nodes with an open choice point; waiting holds nodes
	// whose generating rules were skipped because they were blocked. Both
	// may name merged-away nodes and are resolved through the branch.
	deferred map[abox.NodeID]struct{}
	waiting  map[abox.NodeID]struct{}

	// pending is the alternative to apply before expanding the branch.
	pending func(*state) error
}

func newState(a *abox.ABox) *state {
	return &state{
		br:       branch.New(a, branch.WithMergeHistory()),
		origin:   make(map[abox.NodeID][]abox.Entry),
		levels:   make(map[abox.Entry]int),
		deferred: make(map[abox.NodeID]struct{}),
		waiting:  make(map[abox.NodeID]struct{}),
	}
}

func (s *state) abox() *abox.ABox { return s.br.ABox() }

func (s *state) clone() *state {
	c := &state{
		br:       s.br.Clone(),
		level:    s.level,
		origin:   make(map[abox.NodeID][]abox.Entry, len(s.origin)),
		levels:   make(map[abox.Entry]int, len(s.levels)),
		deferred: make(map[abox.NodeID]struct{}, len(s.deferred)),
		waiting:  make(map[abox.NodeID]struct{}, len(s.waiting)),
	}
	for id, es := range s.origin {
		c.origin[id] = slices.Clone(es)
	}
	for e, l := range s.levels {
		c.levels[e] = l
	}
	for id := range s.deferred {
		c.deferred[id] = struct{}{}
	}
	for id := range s.waiting {
		c.waiting[id] = struct{}{}
	}
	return c
}

func (s *state) dispose() {
	if s.br != nil && !s.br.Disposed() {
		s.br.Dispose()
	}
}

// track renames the bookkeeping after the merges reported by info.
func (s *state) track(info *abox.MergeInfo) {
	if info == nil {
		return
	}
	for _, m := range info.Merges() {
		if es, ok := s.origin[m.Source]; ok {
			s.origin[m.Target] = append(s.origin[m.Target], es...)
			delete(s.origin, m.Source)
		}
		rename := func(e abox.Entry) abox.Entry {
			if e.Node == m.Source {
				e.Node = m.Target
			}
			return e
		}
		for id, es := range s.origin {
			for i := range es {
				es[i] = rename(es[i])
			}
			s.origin[id] = dedupEntries(es)
		}
		levels := make(map[abox.Entry]int, len(s.levels))
		for e, l := range s.levels {
			e = rename(e)
			if l > levels[e] {
				levels[e] = l
			}
		}
		s.levels = levels
	}
}

// addOrigin records es as causes of node id.
func (s *state) addOrigin(id abox.NodeID, es ...abox.Entry) {
	s.origin[id] = dedupEntries(append(s.origin[id], es...))
}

// linkOrigin returns the entries that a link between x and y may rest on.
func (s *state) linkOrigin(x, y abox.NodeID) []abox.Entry {
	es := append(slices.Clone(s.origin[x]), s.origin[y]...)
	return dedupEntries(es)
}

// resolved returns the live representatives of the ids in set, sorted, and
// rewrites set to contain exactly those.
func (s *state) resolved(set map[abox.NodeID]struct{}) []abox.NodeID {
	a := s.abox()
	out := make(map[abox.NodeID]struct{}, len(set))
	for id := range set {
		id = s.br.Resolve(id)
		if a.Contains(id) {
			out[id] = struct{}{}
		}
	}
	clear(set)
	ids := make([]abox.NodeID, 0, len(out))
	for id := range out {
		set[id] = struct{}{}
		ids = append(ids, id)
	}
	return abox.SortIDs(ids)
}

func dedupEntries(es []abox.Entry) []abox.Entry {
	slices.SortFunc(es, abox.CompareEntries)
	return slices.Compact(es)
}
