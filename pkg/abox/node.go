package abox

import (
	"maps"
	"slices"
	"strconv"

	"github.com/matzehuels/tableau/pkg/term"
)

// Node is one element of the model: an individual or, for datatype nodes,
// a data value.
//
// Nodes are owned by their ABox and are only mutated through ABox methods.
// A *Node obtained from an ABox is a live view; it becomes stale once the
// node is merged away (check with [ABox.Contains]).
type Node struct {
	id       NodeID
	datatype bool
	names    []string // sorted; first is the primary name
	terms    *term.Set
	retired  *term.Set        // choice points removed by RetireTerm
	out      map[string]idSet // role -> successors
	in       map[string]idSet // role -> predecessors
}

func newNode(id NodeID, datatype bool) *Node {
	return &Node{
		id:       id,
		datatype: datatype,
		terms:    term.NewSet(),
		retired:  term.NewSet(),
		out:      make(map[string]idSet),
		in:       make(map[string]idSet),
	}
}

func (n *Node) clone() *Node {
	c := &Node{
		id:       n.id,
		datatype: n.datatype,
		names:    slices.Clone(n.names),
		terms:    n.terms.Clone(),
		retired:  n.retired.Clone(),
		out:      make(map[string]idSet, len(n.out)),
		in:       make(map[string]idSet, len(n.in)),
	}
	for r, s := range n.out {
		c.out[r] = s.clone()
	}
	for r, s := range n.in {
		c.in[r] = s.clone()
	}
	return c
}

// ID returns the node's id.
func (n *Node) ID() NodeID { return n.id }

// IsDatatype reports whether the node represents a data value.
func (n *Node) IsDatatype() bool { return n.datatype }

// Names returns the nominal bindings of the node in sorted order.
func (n *Node) Names() []string { return slices.Clone(n.names) }

// Name returns the primary name of the node, or its id prefixed with "_:"
// for anonymous nodes.
func (n *Node) Name() string {
	if len(n.names) > 0 {
		return n.names[0]
	}
	return "_:" + strconv.FormatInt(int64(n.id), 10)
}

// IsNamed reports whether the node carries at least one nominal binding.
func (n *Node) IsNamed() bool { return len(n.names) > 0 }

// Terms returns the node's terms in canonical order.
func (n *Node) Terms() []*term.Term { return n.terms.Sorted() }

// HasTerm reports whether t is on the node.
func (n *Node) HasTerm(t *term.Term) bool { return n.terms.Contains(t) }

// IsRetired reports whether t was on the node and has been retired.
func (n *Node) IsRetired(t *term.Term) bool { return n.retired.Contains(t) }

// Retired returns the retired terms of the node in canonical order.
func (n *Node) Retired() []*term.Term { return n.retired.Sorted() }

// Knows reports whether t is on the node or was retired from it.
func (n *Node) Knows(t *term.Term) bool {
	return n.terms.Contains(t) || n.retired.Contains(t)
}

// TermCount returns the number of terms on the node.
func (n *Node) TermCount() int { return n.terms.Len() }

// TermsSubsetOf reports whether every term of n is also on o.
func (n *Node) TermsSubsetOf(o *Node) bool { return n.terms.SubsetOf(o.terms) }

// TermsEqual reports whether n and o carry exactly the same terms.
func (n *Node) TermsEqual(o *Node) bool { return n.terms.Equal(o.terms) }

// OutRoles returns the roles with at least one told outgoing link, sorted.
func (n *Node) OutRoles() []string { return nonEmptyRoles(n.out) }

// InRoles returns the roles with at least one told incoming link, sorted.
func (n *Node) InRoles() []string { return nonEmptyRoles(n.in) }

// Told returns the direct successors under exactly role, ignoring the role
// hierarchy. Use [ABox.Successors] for hierarchy-aware queries.
func (n *Node) Told(role string) []NodeID { return n.out[role].sorted() }

// ToldPredecessors returns the direct predecessors under exactly role.
func (n *Node) ToldPredecessors(role string) []NodeID { return n.in[role].sorted() }

// HasOutgoing reports whether the node has any outgoing link.
func (n *Node) HasOutgoing() bool {
	for _, s := range n.out {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

// Parents returns every node with a told link into n, sorted.
func (n *Node) Parents() []NodeID {
	all := idSet{}
	for _, s := range n.in {
		for id := range s {
			all[id] = struct{}{}
		}
	}
	return all.sorted()
}

// LinkRoles returns the roles of the told links from p to n, sorted.
func (n *Node) LinkRoles(p NodeID) []string {
	var roles []string
	for r, s := range n.in {
		if _, ok := s[p]; ok {
			roles = append(roles, r)
		}
	}
	slices.Sort(roles)
	return roles
}

func nonEmptyRoles(m map[string]idSet) []string {
	var roles []string
	for _, r := range slices.Sorted(maps.Keys(m)) {
		if len(m[r]) > 0 {
			roles = append(roles, r)
		}
	}
	return roles
}

func (n *Node) addName(name string) {
	i, found := slices.BinarySearch(n.names, name)
	if !found {
		n.names = slices.Insert(n.names, i, name)
	}
}

func link(m map[string]idSet, role string, id NodeID) bool {
	s, ok := m[role]
	if !ok {
		s = idSet{}
		m[role] = s
	}
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

func unlink(m map[string]idSet, role string, id NodeID) bool {
	s, ok := m[role]
	if !ok {
		return false
	}
	if _, ok := s[id]; !ok {
		return false
	}
	delete(s, id)
	if len(s) == 0 {
		delete(m, role)
	}
	return true
}
