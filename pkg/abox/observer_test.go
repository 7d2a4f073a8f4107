package abox

import (
	"fmt"
	"slices"
	"testing"

	"github.com/matzehuels/tableau/pkg/term"
)

type recorder struct {
	NoopObserver
	events []string
}

func (r *recorder) NodeAdded(id NodeID)   { r.events = append(r.events, fmt.Sprintf("add %d", id)) }
func (r *recorder) NodeRemoved(id NodeID) { r.events = append(r.events, fmt.Sprintf("remove %d", id)) }
func (r *recorder) Merging(s, t NodeID)   { r.events = append(r.events, fmt.Sprintf("merge %d->%d", s, t)) }

type mergeSnapshot struct {
	NoopObserver
	a        *ABox
	contains bool
}

func (m *mergeSnapshot) Merging(source, _ NodeID) { m.contains = m.a.Contains(source) }

func TestObserverEvents(t *testing.T) {
	a := New(nil)
	rec := &recorder{}
	unsubscribe := a.Subscribe(rec)
	snap := &mergeSnapshot{a: a}
	a.Subscribe(snap)

	x := mustNode(t, a)
	y := mustNode(t, a)
	if _, err := a.AddTerm(y, term.Atom("A")); err != nil {
		t.Fatal(err)
	}
	if _, err := a.MergeNodes(x, y); err != nil {
		t.Fatal(err)
	}
	want := []string{"add 0", "add 1", "merge 1->0", "remove 1"}
	if !slices.Equal(rec.events, want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
	if !snap.contains {
		t.Error("Merging was called after the source was removed")
	}

	unsubscribe()
	mustNode(t, a)
	if len(rec.events) != len(want) {
		t.Errorf("unsubscribed observer still notified: %v", rec.events)
	}
	if c := a.Clone(); len(c.observers) != 0 {
		t.Error("observers carried over to clone")
	}
}
