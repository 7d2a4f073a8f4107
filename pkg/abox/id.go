package abox

import (
	"slices"
	"strconv"
)

// NodeID identifies a node within an ABox and all of its clones. IDs are
// allocated in increasing order and never reused within one session.
type NodeID int64

// String returns the decimal form of the id.
func (id NodeID) String() string { return strconv.FormatInt(int64(id), 10) }

// IDGenerator allocates increasing node ids. It is copied, not shared,
// when an ABox is cloned, so sibling branches never race on allocation.
type IDGenerator struct {
	next NodeID
}

// Next returns a fresh id.
func (g *IDGenerator) Next() NodeID {
	id := g.next
	g.next++
	return id
}

// Peek returns the id the next call to Next will return.
func (g *IDGenerator) Peek() NodeID { return g.next }

// SortIDs sorts ids in ascending order in place and returns them.
func SortIDs(ids []NodeID) []NodeID {
	slices.Sort(ids)
	return ids
}

// idSet is a set of node ids.
type idSet map[NodeID]struct{}

func (s idSet) sorted() []NodeID {
	out := make([]NodeID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return SortIDs(out)
}

func (s idSet) clone() idSet {
	c := make(idSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}
