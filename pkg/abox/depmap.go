package abox

import (
	"cmp"
	"slices"

	"github.com/matzehuels/tableau/pkg/term"
)

// Entry names one term on one node: the unit of provenance.
type Entry struct {
	Node NodeID
	Key  string // canonical term key
}

// EntryOf returns the entry for t on node id.
func EntryOf(id NodeID, t *term.Term) Entry { return Entry{Node: id, Key: t.Key()} }

// String returns "id:key".
func (e Entry) String() string { return e.Node.String() + ":" + e.Key }

// CompareEntries orders entries by node, then by term key.
func CompareEntries(a, b Entry) int {
	if c := cmp.Compare(a.Node, b.Node); c != 0 {
		return c
	}
	return cmp.Compare(a.Key, b.Key)
}

type entrySet map[Entry]struct{}

func (s entrySet) sorted() []Entry {
	out := make([]Entry, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	slices.SortFunc(out, CompareEntries)
	return out
}

// DependencyMap records, for every entry, the entries that justify it.
//
// An entry with no recorded parents is a root: an asserted fact or a global
// restriction. Governing entries are roots of a different kind: choice
// points whose term may no longer be present on any node, kept so that
// dependency chains passing through them can still be followed.
type DependencyMap struct {
	parents   map[Entry]entrySet
	children  map[Entry]entrySet
	governing entrySet
}

// NewDependencyMap returns an empty map.
func NewDependencyMap() *DependencyMap {
	return &DependencyMap{
		parents:   make(map[Entry]entrySet),
		children:  make(map[Entry]entrySet),
		governing: make(entrySet),
	}
}

// Add records that parent justifies e and reports whether the edge is new.
// Self edges are ignored.
func (d *DependencyMap) Add(e, parent Entry) bool {
	if e == parent {
		return false
	}
	ps, ok := d.parents[e]
	if !ok {
		ps = make(entrySet)
		d.parents[e] = ps
	}
	if _, ok := ps[parent]; ok {
		return false
	}
	ps[parent] = struct{}{}
	cs, ok := d.children[parent]
	if !ok {
		cs = make(entrySet)
		d.children[parent] = cs
	}
	cs[e] = struct{}{}
	return true
}

// Has reports whether e has recorded parents or is governing.
func (d *DependencyMap) Has(e Entry) bool {
	if _, ok := d.governing[e]; ok {
		return true
	}
	return len(d.parents[e]) > 0
}

// Parents returns the entries justifying e, sorted. With recursive set the
// result is the transitive closure, which never contains e itself unless
// the recorded edges form a cycle through e.
func (d *DependencyMap) Parents(e Entry, recursive bool) []Entry {
	return d.walk(d.parents, e, recursive)
}

// Children returns the entries justified by e, sorted; with recursive set,
// everything transitively derived from e.
func (d *DependencyMap) Children(e Entry, recursive bool) []Entry {
	return d.walk(d.children, e, recursive)
}

func (d *DependencyMap) walk(rel map[Entry]entrySet, e Entry, recursive bool) []Entry {
	if !recursive {
		return rel[e].sorted()
	}
	seen := make(entrySet)
	stack := []Entry{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range rel[cur] {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			stack = append(stack, next)
		}
	}
	return seen.sorted()
}

// AddGoverning marks e as a governing entry.
func (d *DependencyMap) AddGoverning(e Entry) {
	d.governing[e] = struct{}{}
}

// IsGoverning reports whether e is a governing entry.
func (d *DependencyMap) IsGoverning(e Entry) bool {
	_, ok := d.governing[e]
	return ok
}

// Governing returns all governing entries, sorted.
func (d *DependencyMap) Governing() []Entry { return d.governing.sorted() }

// GoverningAncestors returns the governing entries among es and their
// transitive parents, sorted.
func (d *DependencyMap) GoverningAncestors(es ...Entry) []Entry {
	out := make(entrySet)
	for _, e := range es {
		if d.IsGoverning(e) {
			out[e] = struct{}{}
		}
		for _, p := range d.Parents(e, true) {
			if d.IsGoverning(p) {
				out[p] = struct{}{}
			}
		}
	}
	return out.sorted()
}

// Len returns the number of entries with recorded parents.
func (d *DependencyMap) Len() int { return len(d.parents) }

// Entries returns every entry that appears in the map as a child, a parent
// or a governing root, sorted.
func (d *DependencyMap) Entries() []Entry {
	all := make(entrySet)
	for e, ps := range d.parents {
		all[e] = struct{}{}
		for p := range ps {
			all[p] = struct{}{}
		}
	}
	for e := range d.governing {
		all[e] = struct{}{}
	}
	return all.sorted()
}

// Rename rewrites every entry naming from to name to instead. Edges that
// become self edges are dropped.
func (d *DependencyMap) Rename(from, to NodeID) {
	re := func(e Entry) Entry {
		if e.Node == from {
			e.Node = to
		}
		return e
	}
	parents := make(map[Entry]entrySet, len(d.parents))
	children := make(map[Entry]entrySet, len(d.children))
	for e, ps := range d.parents {
		ne := re(e)
		for p := range ps {
			np := re(p)
			if np == ne {
				continue
			}
			addEdge(parents, ne, np)
			addEdge(children, np, ne)
		}
	}
	gov := make(entrySet, len(d.governing))
	for e := range d.governing {
		gov[re(e)] = struct{}{}
	}
	d.parents, d.children, d.governing = parents, children, gov
}

func addEdge(rel map[Entry]entrySet, from, to Entry) {
	s, ok := rel[from]
	if !ok {
		s = make(entrySet)
		rel[from] = s
	}
	s[to] = struct{}{}
}

// Clone returns an independent copy of d.
func (d *DependencyMap) Clone() *DependencyMap {
	c := NewDependencyMap()
	for e, ps := range d.parents {
		for p := range ps {
			addEdge(c.parents, e, p)
			addEdge(c.children, p, e)
		}
	}
	for e := range d.governing {
		c.governing[e] = struct{}{}
	}
	return c
}
