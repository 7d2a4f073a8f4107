package abox

import (
	"github.com/matzehuels/tableau/pkg/errors"
)

// NoNode is the id reported by a MergeInfo that does not describe a
// particular node.
const NoNode NodeID = -1

// Merge records that Source was merged into Target.
type Merge struct {
	Source NodeID
	Target NodeID
}

// MergeInfo reports the effect of one or more ABox operations: the node the
// operation was about, the nodes whose content changed and the merges that
// happened along the way, in order.
//
// A node reported by an earlier operation may have been merged away by a
// later one, so always continue with [MergeInfo.Current].
type MergeInfo struct {
	node     NodeID
	modified idSet
	merges   []Merge
}

func newMergeInfo(node NodeID) *MergeInfo {
	return &MergeInfo{node: node, modified: idSet{}}
}

// Node returns the node the operation started on.
func (m *MergeInfo) Node() NodeID { return m.node }

// Current returns the node that represents Node after all recorded merges.
func (m *MergeInfo) Current() NodeID { return m.Resolve(m.node) }

// Resolve returns the representative of id after all recorded merges.
func (m *MergeInfo) Resolve(id NodeID) NodeID {
	for _, mg := range m.merges {
		if mg.Source == id {
			id = mg.Target
		}
	}
	return id
}

// Modified returns the nodes whose terms or links changed and that still
// exist after the recorded merges, sorted.
func (m *MergeInfo) Modified() []NodeID {
	out := idSet{}
	removed := idSet{}
	for _, mg := range m.merges {
		removed[mg.Source] = struct{}{}
	}
	for id := range m.modified {
		if _, gone := removed[id]; gone {
			id = m.Resolve(id)
		}
		out[id] = struct{}{}
	}
	return out.sorted()
}

// Merges returns the merges in the order they happened.
func (m *MergeInfo) Merges() []Merge {
	out := make([]Merge, len(m.merges))
	copy(out, m.merges)
	return out
}

// Changed reports whether anything was modified or merged.
func (m *MergeInfo) Changed() bool {
	return len(m.modified) > 0 || len(m.merges) > 0
}

// Append folds the effects of a later operation into m and returns m. The
// node m reports on is unchanged; a nil other is ignored.
func (m *MergeInfo) Append(other *MergeInfo) *MergeInfo {
	if other == nil {
		return m
	}
	for id := range other.modified {
		m.modified[id] = struct{}{}
	}
	m.merges = append(m.merges, other.merges...)
	return m
}

func (m *MergeInfo) touch(id NodeID) { m.modified[id] = struct{}{} }

// CanMerge reports whether n1 and n2 could be merged: both exist, they
// agree in kind, and no datatype node involved has outgoing links.
func (a *ABox) CanMerge(n1, n2 NodeID) bool {
	x, y := a.nodes[n1], a.nodes[n2]
	if x == nil || y == nil {
		return false
	}
	if x.datatype != y.datatype {
		return false
	}
	return !(x.datatype && (x.HasOutgoing() || y.HasOutgoing()))
}

// MergeNodes collapses n1 and n2 into the node with the smaller id.
//
// Observers are told about the merge before anything changes. Terms, names,
// links, distinctness and dependency entries of the source node are moved
// to the target, and the source is removed. Merging a node with itself is a
// no-op. Merging nodes of different kinds fails with
// [errors.ErrCodeNodeMerge] and leaves the ABox untouched.
func (a *ABox) MergeNodes(n1, n2 NodeID) (*MergeInfo, error) {
	if n1 == n2 {
		return newMergeInfo(n1), nil
	}
	x, err := a.node(n1)
	if err != nil {
		return nil, err
	}
	y, err := a.node(n2)
	if err != nil {
		return nil, err
	}
	if x.datatype != y.datatype {
		return nil, errors.New(errors.ErrCodeNodeMerge,
			"cannot merge datatype and individual nodes %d and %d", n1, n2)
	}
	tgt, src := x, y
	if src.id < tgt.id {
		tgt, src = src, tgt
	}
	if tgt.datatype && src.HasOutgoing() {
		return nil, errors.New(errors.ErrCodeNodeMerge,
			"datatype node %d cannot receive the outgoing links of node %d", tgt.id, src.id)
	}
	source, target := src.id, tgt.id
	info := newMergeInfo(n1)

	a.notifyMerging(source, target)

	// Terms and names.
	terms, retired := src.terms, src.retired
	src.terms, src.retired = nil, nil
	for _, t := range terms.Sorted() {
		tgt.terms.Add(t)
	}
	for _, t := range retired.Sorted() {
		tgt.retired.Add(t)
	}
	for _, name := range src.names {
		a.names[name] = target
		tgt.addName(name)
	}
	src.names = nil
	info.touch(target)

	// Outgoing links. A self loop on the source becomes a self loop on
	// the target.
	for _, role := range nonEmptyRoles(src.out) {
		for _, m := range src.out[role].sorted() {
			dst := m
			if m == source {
				dst = target
			}
			peer := a.nodes[m]
			mustHold(peer != nil, "link to missing node")
			unlink(peer.in, role, source)
			link(tgt.out, role, dst)
			link(a.nodes[dst].in, role, target)
			info.touch(dst)
		}
	}
	clear(src.out)

	// Incoming links. Self loops were already rewritten above.
	for _, role := range nonEmptyRoles(src.in) {
		for _, p := range src.in[role].sorted() {
			peer := a.nodes[p]
			mustHold(peer != nil, "back link to missing node")
			unlink(peer.out, role, source)
			link(peer.out, role, target)
			link(tgt.in, role, p)
			info.touch(p)
		}
	}
	clear(src.in)

	// Distinctness.
	if ds, ok := a.distinct[source]; ok {
		for d := range ds {
			delete(a.distinct[d], source)
			if d == source {
				d = target
			}
			a.AddDistinct(target, d)
		}
		delete(a.distinct, source)
	}

	a.deps.Rename(source, target)
	delete(a.nodes, source)
	info.merges = append(info.merges, Merge{Source: source, Target: target})

	a.notifyRemoved(source)
	for _, id := range info.Modified() {
		a.notifyChanged(id)
	}
	return info, nil
}
