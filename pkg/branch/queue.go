package branch

import (
	"cmp"
	"maps"

	"github.com/matzehuels/tableau/internal/pq"
	"github.com/matzehuels/tableau/pkg/abox"
)

// queue is a set of node ids popped in ascending order.
type queue struct {
	heap    *pq.Queue[abox.NodeID]
	members map[abox.NodeID]struct{}
}

func newQueue() *queue {
	return &queue{
		heap:    pq.New(cmp.Compare[abox.NodeID]),
		members: make(map[abox.NodeID]struct{}),
	}
}

// push adds id unless it is already queued.
func (q *queue) push(id abox.NodeID) {
	if _, ok := q.members[id]; ok {
		return
	}
	q.members[id] = struct{}{}
	q.heap.Push(id)
}

// remove drops id. The heap entry is discarded lazily by pop.
func (q *queue) remove(id abox.NodeID) {
	delete(q.members, id)
}

// pop removes and returns the smallest queued id for which live holds.
// Ids that are no longer live are dropped on the way.
func (q *queue) pop(live func(abox.NodeID) bool) (abox.NodeID, bool) {
	for q.heap.Len() > 0 {
		id := q.heap.Pop()
		if _, ok := q.members[id]; !ok {
			continue
		}
		delete(q.members, id)
		if live(id) {
			return id, true
		}
	}
	return 0, false
}

func (q *queue) len() int { return len(q.members) }

func (q *queue) ids() []abox.NodeID {
	out := make([]abox.NodeID, 0, len(q.members))
	for id := range q.members {
		out = append(out, id)
	}
	return abox.SortIDs(out)
}

// clone copies the heap as is. Stale entries stay stale in the copy because
// membership is cloned alongside.
func (q *queue) clone() *queue {
	return &queue{heap: q.heap.Clone(), members: maps.Clone(q.members)}
}
