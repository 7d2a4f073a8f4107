package abox

import (
	"slices"

	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/rbox"
	"github.com/matzehuels/tableau/pkg/tbox"
	"github.com/matzehuels/tableau/pkg/term"
)

// Config is the configuration shared by an ABox and all of its clones.
// Neither box may be mutated while a search over the ABox is running,
// except that axioms may be added to the TBox between steps; the ABox picks
// them up on the next [ABox.Refresh].
type Config struct {
	rbox *rbox.RBox
	tbox *tbox.TBox
}

// NewConfig bundles the role and terminological boxes of a session. Nil
// arguments are replaced by empty boxes.
func NewConfig(rb *rbox.RBox, tb *tbox.TBox) *Config {
	if rb == nil {
		rb = rbox.New()
	}
	if tb == nil {
		tb = tbox.New()
	}
	return &Config{rbox: rb, tbox: tb}
}

// RBox returns the role box.
func (c *Config) RBox() *rbox.RBox { return c.rbox }

// TBox returns the terminological box.
func (c *Config) TBox() *tbox.TBox { return c.tbox }

// ABox is the model under construction.
type ABox struct {
	cfg      *Config
	nodes    map[NodeID]*Node
	names    map[string]NodeID
	ids      IDGenerator
	deps     *DependencyMap
	distinct map[NodeID]idSet
	blocked  map[string]map[NodeID]bool
	lastGen  uint64

	observers []Observer
}

// New returns an empty ABox. A nil cfg is replaced by an empty configuration.
func New(cfg *Config) *ABox {
	if cfg == nil {
		cfg = NewConfig(nil, nil)
	}
	return &ABox{
		cfg:      cfg,
		nodes:    make(map[NodeID]*Node),
		names:    make(map[string]NodeID),
		deps:     NewDependencyMap(),
		distinct: make(map[NodeID]idSet),
		blocked:  make(map[string]map[NodeID]bool),
		lastGen:  cfg.tbox.Generation(),
	}
}

// Config returns the shared configuration.
func (a *ABox) Config() *Config { return a.cfg }

// Deps returns the dependency map.
func (a *ABox) Deps() *DependencyMap { return a.deps }

// Len returns the number of nodes.
func (a *ABox) Len() int { return len(a.nodes) }

// NextID returns the id the next created node will get.
func (a *ABox) NextID() NodeID { return a.ids.Peek() }

// Node returns the node with the given id, or nil.
func (a *ABox) Node(id NodeID) *Node { return a.nodes[id] }

// Contains reports whether a node with the given id exists.
func (a *ABox) Contains(id NodeID) bool {
	_, ok := a.nodes[id]
	return ok
}

// NodeByName returns the node bound to name, or nil.
func (a *ABox) NodeByName(name string) *Node {
	id, ok := a.names[name]
	if !ok {
		return nil
	}
	return a.nodes[id]
}

// IDs returns the ids of all nodes in ascending order.
func (a *ABox) IDs() []NodeID {
	ids := make([]NodeID, 0, len(a.nodes))
	for id := range a.nodes {
		ids = append(ids, id)
	}
	return SortIDs(ids)
}

// Nodes returns all nodes in ascending id order.
func (a *ABox) Nodes() []*Node {
	ids := a.IDs()
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = a.nodes[id]
	}
	return out
}

func (a *ABox) node(id NodeID) (*Node, error) {
	n, ok := a.nodes[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no node %d", id)
	}
	return n, nil
}

// CreateNode adds a fresh node. Individual nodes receive the global
// restrictions of the current TBox unfolding. Because a global nominal can
// merge the new node into an existing one, the returned node is the one
// that represents it afterwards.
func (a *ABox) CreateNode(datatype bool) (*Node, error) {
	id := a.ids.Next()
	a.nodes[id] = newNode(id, datatype)
	a.notifyAdded(id)
	if datatype {
		return a.nodes[id], nil
	}
	info, err := a.AddUnfoldedDescriptions(id, a.cfg.tbox.Unfolding().Globals())
	if err != nil {
		return nil, err
	}
	return a.nodes[info.Current()], nil
}

// CreateIndividual returns the node bound to name, creating it first if
// necessary.
func (a *ABox) CreateIndividual(name string) (*Node, error) {
	if n := a.NodeByName(name); n != nil {
		return n, nil
	}
	if err := errors.ValidateName("individual", name); err != nil {
		return nil, err
	}
	n, err := a.CreateNode(false)
	if err != nil {
		return nil, err
	}
	info, err := a.AddTerm(n.id, term.OneOf(name))
	if err != nil {
		return nil, err
	}
	return a.nodes[info.Current()], nil
}

// CreateValue returns the datatype node holding the literal value, creating
// it first if necessary.
func (a *ABox) CreateValue(value string) (*Node, error) {
	lit := term.Literal(value)
	if n := a.NodeByName(lit.Key()); n != nil {
		return n, nil
	}
	n, err := a.CreateNode(true)
	if err != nil {
		return nil, err
	}
	info, err := a.AddTerm(n.id, lit)
	if err != nil {
		return nil, err
	}
	return a.nodes[info.Current()], nil
}

func checkTermType(n *Node, t *term.Term) error {
	switch {
	case n.datatype && t.IndividualOnly():
		return errors.New(errors.ErrCodeIllegalTermType, "%s cannot label datatype node %d", t, n.id)
	case !n.datatype && t.DatatypeOnly():
		return errors.New(errors.ErrCodeIllegalTermType, "%s cannot label individual node %d", t, n.id)
	}
	return nil
}

// bindingName returns the name a term binds its node to, if any.
func bindingName(t *term.Term) (string, bool) {
	switch t.Op() {
	case term.OpOneOf:
		return t.Name(), true
	case term.OpLiteral:
		return t.Key(), true
	}
	return "", false
}

// AddTerm adds t to node id without unfolding it, recording parents as its
// justification. A term that is already present (or was retired) only gains
// the dependency edges. Adding a nominal or literal binds the node to that
// name and merges it with any node already bound to it.
func (a *ABox) AddTerm(id NodeID, t *term.Term, parents ...Entry) (*MergeInfo, error) {
	n, err := a.node(id)
	if err != nil {
		return nil, err
	}
	if err := checkTermType(n, t); err != nil {
		return nil, err
	}
	info := newMergeInfo(id)
	e := EntryOf(id, t)
	for _, p := range parents {
		a.deps.Add(e, p)
	}
	if n.Knows(t) {
		return info, nil
	}
	n.terms.Add(t)
	info.touch(id)
	a.notifyChanged(id)

	name, ok := bindingName(t)
	if !ok {
		return info, nil
	}
	other, bound := a.names[name]
	if !bound {
		a.names[name] = id
		n.addName(name)
		return info, nil
	}
	if other == id {
		return info, nil
	}
	m, err := a.MergeNodes(id, other)
	if err != nil {
		return info, err
	}
	return info.Append(m), nil
}

// RetireTerm removes t from node id after it has served as a choice point.
// The entry is kept as a governing root of the dependency map and the node
// keeps treating t as known, so it is never re-added or unfolded again.
func (a *ABox) RetireTerm(id NodeID, t *term.Term) error {
	n, err := a.node(id)
	if err != nil {
		return err
	}
	if !n.terms.Remove(t) {
		return errors.New(errors.ErrCodeNotFound, "node %d has no term %s", id, t)
	}
	n.retired.Add(t)
	a.deps.AddGoverning(EntryOf(id, t))
	a.notifyChanged(id)
	return nil
}

// AddLink adds the link from --role--> to and reports whether it is new.
// Datatype nodes cannot have outgoing links. Roles declared in the RBox
// are checked against the kind of the target; undeclared roles are object
// roles without hierarchy.
func (a *ABox) AddLink(from NodeID, role string, to NodeID) (bool, error) {
	src, err := a.node(from)
	if err != nil {
		return false, err
	}
	dst, err := a.node(to)
	if err != nil {
		return false, err
	}
	if src.datatype {
		return false, errors.New(errors.ErrCodeNodeMerge, "datatype node %d cannot have outgoing %s link", from, role)
	}
	if wantData := a.cfg.rbox.Type(role) == rbox.Data; wantData != dst.datatype {
		return false, errors.New(errors.ErrCodeIllegalTermType,
			"%s role %s cannot link to node %d", a.cfg.rbox.Type(role), role, to)
	}
	if !link(src.out, role, to) {
		return false, nil
	}
	link(dst.in, role, from)
	a.notifyChanged(from)
	if to != from {
		a.notifyChanged(to)
	}
	return true, nil
}

// RemoveLink removes the link from --role--> to and reports whether it
// existed.
func (a *ABox) RemoveLink(from NodeID, role string, to NodeID) bool {
	src, dst := a.nodes[from], a.nodes[to]
	if src == nil || dst == nil {
		return false
	}
	if !unlink(src.out, role, to) {
		return false
	}
	unlink(dst.in, role, from)
	a.notifyChanged(from)
	if to != from {
		a.notifyChanged(to)
	}
	return true
}

// Successors returns the nodes reachable from id over role, taking the role
// hierarchy into account: links asserted under a sub-role count, and so do
// incoming links asserted under any sub-role of an inverse.
func (a *ABox) Successors(id NodeID, role string) []NodeID {
	return a.neighbors(id, role, false)
}

// Predecessors returns the nodes with id among their role successors.
func (a *ABox) Predecessors(id NodeID, role string) []NodeID {
	return a.neighbors(id, role, true)
}

// HasSuccessor reports whether m is a role successor of n.
func (a *ABox) HasSuccessor(n NodeID, role string, m NodeID) bool {
	return slices.Contains(a.Successors(n, role), m)
}

func (a *ABox) neighbors(id NodeID, role string, reverse bool) []NodeID {
	n := a.nodes[id]
	if n == nil {
		return nil
	}
	fwd, back := n.out, n.in
	if reverse {
		fwd, back = back, fwd
	}
	rb := a.cfg.rbox
	all := idSet{}
	for _, sub := range rb.Subs(role) {
		for m := range fwd[sub] {
			all[m] = struct{}{}
		}
		for _, inv := range rb.Inverses(sub) {
			for _, invSub := range rb.Subs(inv) {
				for m := range back[invSub] {
					all[m] = struct{}{}
				}
			}
		}
	}
	return all.sorted()
}

// AddDistinct records that a and b denote different individuals.
func (a *ABox) AddDistinct(x, y NodeID) {
	addDistinct(a.distinct, x, y)
	addDistinct(a.distinct, y, x)
}

func addDistinct(m map[NodeID]idSet, x, y NodeID) {
	s, ok := m[x]
	if !ok {
		s = idSet{}
		m[x] = s
	}
	s[y] = struct{}{}
}

// AreDistinct reports whether x and y were recorded as distinct. A node
// that is distinct from itself is the result of merging two distinct nodes.
func (a *ABox) AreDistinct(x, y NodeID) bool {
	_, ok := a.distinct[x][y]
	return ok
}

// BlockState returns the blocking status of id cached for the strategy
// named kind and whether it is known. The cache is cleared by every change
// to a term set or link.
func (a *ABox) BlockState(kind string, id NodeID) (blocked, known bool) {
	blocked, known = a.blocked[kind][id]
	return blocked, known
}

// SetBlockState caches the blocking status of id for the strategy named kind.
func (a *ABox) SetBlockState(kind string, id NodeID, blocked bool) {
	m := a.blocked[kind]
	if m == nil {
		m = make(map[NodeID]bool)
		a.blocked[kind] = m
	}
	m[id] = blocked
}

func (a *ABox) invalidateBlocking() {
	if len(a.blocked) > 0 {
		clear(a.blocked)
	}
}

// Generation returns the TBox generation last applied to the nodes.
func (a *ABox) Generation() uint64 { return a.lastGen }

// Stale reports whether the TBox changed since the last Refresh.
func (a *ABox) Stale() bool {
	return a.cfg.tbox.Unfolding().Generation > a.lastGen
}

// Refresh brings every individual node up to date with the current TBox
// unfolding: global restrictions are added and present terms are unfolded
// again. It does nothing when the unfolding is not newer than the last one
// applied.
func (a *ABox) Refresh() (*MergeInfo, error) {
	info := newMergeInfo(NoNode)
	u := a.cfg.tbox.Unfolding()
	if u.Generation <= a.lastGen {
		return info, nil
	}
	for _, id := range a.IDs() {
		id = info.Resolve(id)
		n := a.nodes[id]
		if n == nil || n.datatype {
			continue
		}
		seeds := make([]pending, 0, len(u.Globals()))
		for _, g := range u.Globals() {
			seeds = append(seeds, newPending(g))
		}
		for _, t := range n.terms.Sorted() {
			for _, c := range u.Children(t) {
				seeds = append(seeds, newPending(c, EntryOf(id, t)))
			}
		}
		m, err := a.unfold(id, seeds)
		info.Append(m)
		if err != nil {
			return info, err
		}
	}
	a.lastGen = u.Generation
	return info, nil
}

// Clone returns an independent deep copy of a sharing only the Config.
// Node ids are preserved and the id generator is copied. Observers and the
// blocking cache are not carried over.
func (a *ABox) Clone() *ABox {
	c := &ABox{
		cfg:      a.cfg,
		nodes:    make(map[NodeID]*Node, len(a.nodes)),
		names:    make(map[string]NodeID, len(a.names)),
		ids:      a.ids,
		deps:     a.deps.Clone(),
		distinct: make(map[NodeID]idSet, len(a.distinct)),
		blocked:  make(map[string]map[NodeID]bool),
		lastGen:  a.lastGen,
	}
	for id, n := range a.nodes {
		c.nodes[id] = n.clone()
	}
	for name, id := range a.names {
		c.names[name] = id
	}
	for id, s := range a.distinct {
		c.distinct[id] = s.clone()
	}
	return c
}

// Validate checks the structural invariants of the ABox: agreement of the
// name index with the nodes, link symmetry, datatype nodes without outgoing
// links, and references to contained nodes only. A failure indicates a bug.
func (a *ABox) Validate() error {
	fail := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInternal, "invariant violated: "+format, args...)
	}
	for name, id := range a.names {
		n := a.nodes[id]
		if n == nil {
			return fail("name %q bound to missing node %d", name, id)
		}
		if !slices.Contains(n.names, name) {
			return fail("name %q bound to node %d which does not carry it", name, id)
		}
	}
	for _, n := range a.Nodes() {
		for _, name := range n.names {
			if a.names[name] != n.id {
				return fail("node %d carries name %q bound elsewhere", n.id, name)
			}
		}
		if n.datatype && n.HasOutgoing() {
			return fail("datatype node %d has outgoing links", n.id)
		}
		for role, succs := range n.out {
			for m := range succs {
				dst := a.nodes[m]
				if dst == nil {
					return fail("node %d links over %s to missing node %d", n.id, role, m)
				}
				if _, ok := dst.in[role][n.id]; !ok {
					return fail("link %d -%s-> %d has no back link", n.id, role, m)
				}
			}
		}
		for role, preds := range n.in {
			for p := range preds {
				src := a.nodes[p]
				if src == nil {
					return fail("node %d has %s back link to missing node %d", n.id, role, p)
				}
				if _, ok := src.out[role][n.id]; !ok {
					return fail("back link %d <-%s- %d has no forward link", n.id, role, p)
				}
			}
		}
	}
	for _, e := range a.deps.Entries() {
		if !a.Contains(e.Node) {
			return fail("dependency entry %s names missing node", e)
		}
	}
	for id, s := range a.distinct {
		if !a.Contains(id) {
			return fail("distinctness recorded for missing node %d", id)
		}
		for m := range s {
			if !a.Contains(m) {
				return fail("node %d distinct from missing node %d", id, m)
			}
		}
	}
	return nil
}

func mustHold(cond bool, msg string) {
	if !cond {
		panic("abox: " + msg)
	}
}
