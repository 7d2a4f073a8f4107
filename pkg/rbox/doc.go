// Package rbox provides the role box: the role hierarchy and role
// characteristics of a knowledge base.
//
// # Overview
//
// Every role has a [RoleType] (object or data), a set of [Property] flags and
// domain and range restrictions. Roles are related by told sub-role,
// equivalence and inverse axioms. After every mutation the [RBox] recomputes
// the closures that queries read: the reflexive-transitive super-role
// relation, equivalence classes, inverse sets and derived flags.
//
// # Transactions
//
// Mutations are all-or-nothing. A mutation first runs local prechecks
// (matching types, no self-inverse, no inverse/sub-role conflict, at most one
// top role per type, transitivity and symmetry only on object roles), then
// applies the change to a copy of the told axioms and recomputes the closures
// on that copy. Only if both steps succeed is the copy swapped in, so a
// partially applied RBox is never observable:
//
//	b := rbox.New()
//	_ = b.AddRole("hasParent", rbox.Object)
//	_ = b.AddRole("hasAncestor", rbox.Object)
//	_ = b.AddSubRole("hasParent", "hasAncestor")
//	_ = b.SetProperty("hasAncestor", rbox.Transitive)
//
// Failed mutations return [errors.ErrCodeInconsistentRBox] or
// [errors.ErrCodeInvalidInput] errors and leave the box untouched.
//
// # Concurrency
//
// An RBox is mutated while a knowledge base is loaded and is read-only
// afterwards. Read-only use from multiple goroutines is safe; mutation is not.
package rbox
