// Package blocking decides whether an anonymous node's expansion can be
// skipped because an earlier node already stands for it.
//
// A node is directly blocked by an ancestor with a smaller id whose term set
// satisfies the strategy's predicate, and indirectly blocked when any of its
// ancestors is directly blocked. Named and datatype nodes are never blocked.
//
// Results are cached in the ABox per strategy and the cache is dropped on
// every change to a term set or link, so a strategy may be asked repeatedly
// at no cost.
package blocking

import (
	"slices"
	"strings"

	"github.com/matzehuels/tableau/pkg/abox"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/rbox"
)

// Strategy is a blocking condition.
type Strategy interface {
	// Name returns the strategy name as accepted by [New].
	Name() string
	// IsBlocked reports whether the node is blocked.
	IsBlocked(a *abox.ABox, id abox.NodeID) bool
}

// Strategy names.
const (
	KindSubset   = "subset"
	KindEquality = "equality"
	KindDouble   = "double"
	KindAuto     = "auto"
)

// Kinds lists the names accepted by New.
var Kinds = []string{KindAuto, KindSubset, KindEquality, KindDouble}

// New returns the strategy with the given name. "auto" and "" select a
// strategy for the role box with [For].
func New(kind string, rb *rbox.RBox) (Strategy, error) {
	switch strings.ToLower(kind) {
	case "", KindAuto:
		return For(rb), nil
	case KindSubset:
		return Subset{}, nil
	case KindEquality:
		return Equality{}, nil
	case KindDouble:
		return Double{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"unknown blocking strategy %q (want one of %s)", kind, strings.Join(Kinds, ", "))
}

// For returns the weakest strategy that is sound for rb: subset blocking
// without inverse roles, double blocking when inverse roles meet functional
// or transitive roles, equality blocking otherwise.
func For(rb *rbox.RBox) Strategy {
	if rb == nil || !rb.HasInverseRoles() {
		return Subset{}
	}
	for _, r := range rb.Roles() {
		if rb.Is(r, rbox.Functional) || rb.Is(r, rbox.InverseFunctional) || rb.Is(r, rbox.Transitive) {
			return Double{}
		}
	}
	return Equality{}
}

// Subset blocks a node by an earlier ancestor whose terms are a subset of
// the node's terms.
type Subset struct{}

func (Subset) Name() string { return KindSubset }

func (Subset) IsBlocked(a *abox.ABox, id abox.NodeID) bool {
	return isBlocked(a, KindSubset, id, func(blocker, n *abox.Node) bool {
		return blocker.TermsSubsetOf(n)
	})
}

// Equality blocks a node by an earlier ancestor with exactly the same terms.
type Equality struct{}

func (Equality) Name() string { return KindEquality }

func (Equality) IsBlocked(a *abox.ABox, id abox.NodeID) bool {
	return isBlocked(a, KindEquality, id, func(blocker, n *abox.Node) bool {
		return blocker.TermsEqual(n)
	})
}

// Double is pairwise blocking: the blocker must have the same terms as the
// node, and some predecessor of each must have the same terms as the other,
// connected to them over the same roles.
type Double struct{}

func (Double) Name() string { return KindDouble }

func (Double) IsBlocked(a *abox.ABox, id abox.NodeID) bool {
	return isBlocked(a, KindDouble, id, func(blocker, n *abox.Node) bool {
		if !blocker.TermsEqual(n) {
			return false
		}
		for _, np := range n.Parents() {
			npn := a.Node(np)
			for _, bp := range blocker.Parents() {
				bpn := a.Node(bp)
				if npn.TermsEqual(bpn) && slices.Equal(n.LinkRoles(np), blocker.LinkRoles(bp)) {
					return true
				}
			}
		}
		return false
	})
}

type predicate func(blocker, n *abox.Node) bool

func isBlocked(a *abox.ABox, kind string, id abox.NodeID, pred predicate) bool {
	if blocked, known := a.BlockState(kind, id); known {
		return blocked
	}
	n := a.Node(id)
	if n == nil || n.IsNamed() || n.IsDatatype() {
		return false
	}
	anc := ancestors(a, id)
	blocked := directlyBlocked(a, n, anc, pred)
	if !blocked {
		for _, p := range anc {
			pn := a.Node(p)
			if pn.IsNamed() || pn.IsDatatype() {
				continue
			}
			if directlyBlocked(a, pn, ancestors(a, p), pred) {
				blocked = true
				break
			}
		}
	}
	a.SetBlockState(kind, id, blocked)
	return blocked
}

func directlyBlocked(a *abox.ABox, n *abox.Node, anc []abox.NodeID, pred predicate) bool {
	for _, b := range anc {
		if b >= n.ID() {
			continue
		}
		bn := a.Node(b)
		if bn.IsDatatype() {
			continue
		}
		if pred(bn, n) {
			return true
		}
	}
	return false
}

// ancestors returns every node reachable from id over told predecessor
// links, excluding id itself, in ascending order.
func ancestors(a *abox.ABox, id abox.NodeID) []abox.NodeID {
	seen := map[abox.NodeID]bool{id: true}
	stack := []abox.NodeID{id}
	var out []abox.NodeID
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := a.Node(cur)
		if n == nil {
			continue
		}
		for _, p := range n.Parents() {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
			stack = append(stack, p)
		}
	}
	return abox.SortIDs(out)
}
