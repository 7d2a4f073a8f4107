// Package term provides the concept and restriction terms manipulated by the
// tableau engine.
//
// # Overview
//
// A [Term] is an immutable tree: named concepts ([Atom]), the constants
// [Top] and [Bottom], the boolean connectives [Not], [And] and [Or], role
// restrictions ([Some], [All], [AtLeast], [AtMost]), nominals ([OneOf]) and
// data literals ([Literal]). The axiom forms [Implies] and [Equivalent] are
// only valid at the top level of a TBox.
//
// Terms print as S-expressions and [Parse] reads the same syntax back:
//
//	t, err := term.Parse("(some hasChild (and Person (not Rich)))")
//
// # Canonical Form
//
// Constructors normalize as they build: nested conjunctions and disjunctions
// are flattened, their operands sorted and deduplicated. Every term carries
// a canonical key (its printed form), so structural equality is string
// equality and [Compare] gives a total order used for deterministic
// worklists and queues.
//
// # Negation Normal Form
//
// [NNF] pushes negation inward until it applies only to atoms and nominals.
// The engine stores only NNF terms on model nodes.
//
// # Sets
//
// [Set] is a sorted term set with explicit [Set.Clone]. Clones never alias
// their source.
package term
