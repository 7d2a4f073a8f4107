package branch

import "github.com/matzehuels/tableau/pkg/abox"

// History maps merged-away node ids to their current representatives.
// Chains are collapsed on insertion, so every lookup is a single step.
type History struct {
	to map[abox.NodeID]abox.NodeID
}

func newHistory() *History {
	return &History{to: make(map[abox.NodeID]abox.NodeID)}
}

// record notes that source was merged into target.
func (h *History) record(source, target abox.NodeID) {
	target = h.Resolve(target)
	for k, v := range h.to {
		if v == source {
			h.to[k] = target
		}
	}
	h.to[source] = target
}

// Resolve returns the current representative of id.
func (h *History) Resolve(id abox.NodeID) abox.NodeID {
	if h == nil {
		return id
	}
	if t, ok := h.to[id]; ok {
		return t
	}
	return id
}

// Len returns the number of merged-away ids.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.to)
}

func (h *History) clone() *History {
	if h == nil {
		return nil
	}
	c := newHistory()
	for k, v := range h.to {
		c.to[k] = v
	}
	return c
}
