package abox

// Observer receives structural change notifications from an ABox.
//
// Notifications are delivered synchronously in subscription order.
// Observers must not mutate the ABox from inside a callback.
type Observer interface {
	// NodeAdded is called after a node is created.
	NodeAdded(id NodeID)
	// NodeRemoved is called after a node has been removed by a merge.
	NodeRemoved(id NodeID)
	// NodeChanged is called after a node's term set or links change.
	NodeChanged(id NodeID)
	// Merging is called before source is merged into target, while both
	// nodes are still intact.
	Merging(source, target NodeID)
}

// NoopObserver is an Observer that ignores every notification. Embed it to
// implement only the callbacks of interest.
type NoopObserver struct{}

func (NoopObserver) NodeAdded(NodeID)       {}
func (NoopObserver) NodeRemoved(NodeID)     {}
func (NoopObserver) NodeChanged(NodeID)     {}
func (NoopObserver) Merging(NodeID, NodeID) {}

// Subscribe registers o and returns a function that removes it again.
// Observers are not carried over to clones.
func (a *ABox) Subscribe(o Observer) (unsubscribe func()) {
	a.observers = append(a.observers, o)
	return func() {
		for i, x := range a.observers {
			if x == o {
				a.observers = append(a.observers[:i:i], a.observers[i+1:]...)
				return
			}
		}
	}
}

func (a *ABox) notifyAdded(id NodeID) {
	for _, o := range a.observers {
		o.NodeAdded(id)
	}
}

func (a *ABox) notifyRemoved(id NodeID) {
	for _, o := range a.observers {
		o.NodeRemoved(id)
	}
}

func (a *ABox) notifyChanged(id NodeID) {
	a.invalidateBlocking()
	for _, o := range a.observers {
		o.NodeChanged(id)
	}
}

func (a *ABox) notifyMerging(source, target NodeID) {
	for _, o := range a.observers {
		o.Merging(source, target)
	}
}
