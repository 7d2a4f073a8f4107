// Package abox provides the evolving model of a tableau search: nodes,
// role links, term sets and the provenance of every term.
//
// # Overview
//
// An [ABox] owns an arena of [Node] values indexed by [NodeID]. All
// cross-references (links, the name index, dependency entries) are NodeID
// lookups through the owning ABox, so merging or removing a node can never
// leave a dangling pointer behind.
//
//	a := abox.New(abox.NewConfig(rb, tb))
//	alice, _ := a.CreateIndividual("alice")
//	bob, _ := a.CreateIndividual("bob")
//	_, _ = a.AddLink(alice.ID(), "knows", bob.ID())
//	info, err := a.AddUnfoldedDescription(alice.ID(), term.MustParse("Person"))
//
// # Node Merge
//
// [ABox.MergeNodes] collapses two nodes known to denote the same individual.
// The node with the smaller id always survives so that iteration in id order
// never moves backwards past processed nodes. Merges are reported through a
// composable [MergeInfo]; callers must resolve node ids through
// [MergeInfo.Current] before continuing to work on a node.
//
// # Unfolding
//
// [ABox.AddUnfoldedDescription] adds a term in negation normal form and
// everything the TBox unfolding derives from it, recording a dependency edge
// from every derived term to the term that justified it.
//
// # Provenance
//
// The [DependencyMap] maps every (node, term) [Entry] to the entries that
// justify it. Terms removed from a node after they served as a choice
// point are kept as governing entries so backtracking can still find them.
//
// # Observers
//
// Branch bookkeeping subscribes to an ABox through the [Observer]
// interface. The ABox calls observers synchronously after every structural
// change, and once before any merge mutates state.
//
// # Concurrency
//
// An ABox is not safe for concurrent use. Clones share only the immutable
// [Config] and may be used from different goroutines independently.
package abox
