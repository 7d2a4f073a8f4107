// Package tableau is the search driver: it applies the completion rules of
// the calculus to an ABox, branches at non-deterministic choices and
// collects the complete, clash-free ABoxes it reaches.
//
// # Rules
//
// Deterministic rules that never create nodes run first, in
// node-id order: conjunction, universal restriction (including propagation
// over transitive sub-roles), domain and range, and the merges forced by
// at-most restrictions and functional roles. Disjunctions and at-most
// restrictions with more than one way to merge are choice points. They are
// only taken once every node is saturated with the deterministic rules.
// Existential and at-least restrictions create nodes and run last, skipping
// nodes that are blocked.
//
// # Branching
//
// Each choice point clones the current [branch.Branch] once per alternative
// and explores the alternatives depth first. With
// [Options.SemanticBranching] a disjunction of n terms yields one
// alternative for every non-empty subset of disjuncts asserted true, with
// the others asserted false; otherwise one alternative per disjunct.
//
// # Backjumping
//
// The term a choice was made on is retired as a governing entry of the
// dependency map. When a branch clashes with [Options.Backjump] set, the
// governing ancestors of the clashing terms name the choice points the clash
// depends on, and pending alternatives of later choice points are dropped
// without being explored.
package tableau
