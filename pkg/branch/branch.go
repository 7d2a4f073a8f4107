// Package branch schedules rule application over one ABox during the
// tableau search.
//
// A [Branch] keeps two ordered work queues of node ids. Rules that never
// create nodes draw from the non-generating queue; rules that may create
// nodes, such as existential restrictions, draw from the generating queue
// and only once the non-generating queue is empty. Both queues are kept
// current by subscribing to the ABox: new and changed nodes are queued,
// removed nodes are dropped.
//
// Branching at a choice point is [Branch.Clone]: the ABox is deep-copied
// and the queues are copied by id, giving an independent sibling the search
// driver can resume later.
package branch

import (
	"github.com/matzehuels/tableau/pkg/abox"
)

// Option configures a Branch.
type Option func(*Branch)

// WithMergeHistory makes the branch record every merge so that node ids
// captured earlier can be resolved with [Branch.Resolve].
func WithMergeHistory() Option {
	return func(b *Branch) { b.history = newHistory() }
}

// Branch is a scheduling cursor over one ABox.
type Branch struct {
	abox          *abox.ABox
	nonGenerating *queue
	generating    *queue
	history       *History
	unsubscribe   func()
}

// New wraps a, queueing every node it already contains.
func New(a *abox.ABox, opts ...Option) *Branch {
	b := &Branch{
		abox:          a,
		nonGenerating: newQueue(),
		generating:    newQueue(),
	}
	for _, o := range opts {
		o(b)
	}
	for _, id := range a.IDs() {
		b.TouchNode(id)
	}
	b.unsubscribe = a.Subscribe(b)
	return b
}

// ABox returns the model the branch works on, or nil once disposed.
func (b *Branch) ABox() *abox.ABox { return b.abox }

// Disposed reports whether Dispose was called.
func (b *Branch) Disposed() bool { return b.abox == nil }

// TouchNode queues id for both kinds of rules.
func (b *Branch) TouchNode(id abox.NodeID) {
	b.nonGenerating.push(id)
	b.generating.push(id)
}

func (b *Branch) live(id abox.NodeID) bool { return b.abox.Contains(id) }

// NextNonGeneratingNode removes and returns the smallest queued node that
// still exists.
func (b *Branch) NextNonGeneratingNode() (abox.NodeID, bool) {
	return b.nonGenerating.pop(b.live)
}

// NextGeneratingNode removes and returns the smallest queued node that still
// exists.
func (b *Branch) NextGeneratingNode() (abox.NodeID, bool) {
	return b.generating.pop(b.live)
}

// Next returns the next node to work on: from the non-generating queue
// while it has live entries, then from the generating queue. generating
// reports which queue the node came from.
func (b *Branch) Next() (id abox.NodeID, generating, ok bool) {
	if id, ok := b.NextNonGeneratingNode(); ok {
		return id, false, true
	}
	id, ok = b.NextGeneratingNode()
	return id, true, ok
}

// HasNonGenerating reports whether the non-generating queue holds any node.
func (b *Branch) HasNonGenerating() bool { return b.nonGenerating.len() > 0 }

// HasGenerating reports whether the generating queue holds any node.
func (b *Branch) HasGenerating() bool { return b.generating.len() > 0 }

// Pending returns the queued ids of both queues, sorted.
func (b *Branch) Pending() (nonGenerating, generating []abox.NodeID) {
	return b.nonGenerating.ids(), b.generating.ids()
}

// Resolve returns the node that currently represents id. Without merge
// history it returns id unchanged.
func (b *Branch) Resolve(id abox.NodeID) abox.NodeID { return b.history.Resolve(id) }

// History returns the merge history, or nil if it is not tracked.
func (b *Branch) History() *History { return b.history }

// Clone returns an independent branch over a deep copy of the ABox with
// the same queued ids and merge history.
func (b *Branch) Clone() *Branch {
	c := &Branch{
		abox:          b.abox.Clone(),
		nonGenerating: b.nonGenerating.clone(),
		generating:    b.generating.clone(),
		history:       b.history.clone(),
	}
	c.unsubscribe = c.abox.Subscribe(c)
	return c
}

// Dispose detaches the branch from its ABox. The branch must not be used
// afterwards.
func (b *Branch) Dispose() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
	b.abox = nil
	b.nonGenerating = newQueue()
	b.generating = newQueue()
}

// NodeAdded implements abox.Observer.
func (b *Branch) NodeAdded(id abox.NodeID) { b.TouchNode(id) }

// NodeChanged implements abox.Observer.
func (b *Branch) NodeChanged(id abox.NodeID) { b.TouchNode(id) }

// NodeRemoved implements abox.Observer.
func (b *Branch) NodeRemoved(id abox.NodeID) {
	b.nonGenerating.remove(id)
	b.generating.remove(id)
}

// Merging implements abox.Observer.
func (b *Branch) Merging(source, target abox.NodeID) {
	if b.history != nil {
		b.history.record(source, target)
	}
}
