package rbox

import (
	"maps"
	"slices"

	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/term"
)

// closure is the derived view of a set of told role axioms. It is a pure
// function of the told axioms and is never mutated after computeClosure
// returns, so RBox clones may share it.
type closure struct {
	supers   map[string]map[string]bool // reflexive, transitive
	subs     map[string]map[string]bool
	inverses map[string]map[string]bool
	props    map[string]Property
	domain   map[string][]*term.Term
	rng      map[string][]*term.Term
}

func (c *closure) isSub(sub, super string) bool {
	if sub == super {
		return true
	}
	return c.supers[sub][super]
}

func (c *closure) sorted(rel map[string]map[string]bool, name string) []string {
	set, ok := rel[name]
	if !ok {
		return []string{name}
	}
	return slices.Sorted(maps.Keys(set))
}

// computeClosure derives sub/super/equivalent/inverse relations and flags
// from told axioms. It fails if the axioms cannot be satisfied together.
func computeClosure(told map[string]*roleDef) (*closure, error) {
	c := &closure{
		supers:   make(map[string]map[string]bool, len(told)),
		subs:     make(map[string]map[string]bool, len(told)),
		inverses: make(map[string]map[string]bool, len(told)),
		props:    make(map[string]Property, len(told)),
		domain:   make(map[string][]*term.Term, len(told)),
		rng:      make(map[string][]*term.Term, len(told)),
	}

	edges := make(map[string]map[string]bool, len(told))
	addEdge := func(from, to string) bool {
		if from == to {
			return false
		}
		if edges[from] == nil {
			edges[from] = map[string]bool{}
		}
		if edges[from][to] {
			return false
		}
		edges[from][to] = true
		return true
	}

	tops := map[RoleType]string{}
	for name, d := range told {
		c.inverses[name] = map[string]bool{}
		for s := range d.supers {
			addEdge(name, s)
		}
		for e := range d.equivs {
			addEdge(name, e)
			addEdge(e, name)
		}
		if d.inverse != "" {
			c.inverses[name][d.inverse] = true
		}
		if d.props.Has(Symmetric) {
			c.inverses[name][name] = true
		}
		if d.props.Has(Top) {
			if other, ok := tops[d.typ]; ok {
				return nil, errors.New(errors.ErrCodeInconsistentRBox, "%s roles %q and %q are both top roles", d.typ, other, name)
			}
			tops[d.typ] = name
		}
	}
	for name, d := range told {
		if top, ok := tops[d.typ]; ok {
			addEdge(name, top)
		}
	}

	// Alternate transitive closure with inverse propagation until stable:
	// r ⊑ s implies inv(r) ⊑ inv(s), and equivalent roles share inverses.
	for {
		c.transitiveClose(told, edges)
		changed := false
		for r := range told {
			for s := range c.supers[r] {
				for a := range c.inverses[r] {
					for bb := range c.inverses[s] {
						if addEdge(a, bb) {
							changed = true
						}
					}
				}
				if c.isSub(s, r) {
					for a := range c.inverses[r] {
						if !c.inverses[s][a] {
							c.inverses[s][a] = true
							changed = true
						}
					}
				}
			}
			for a := range c.inverses[r] {
				if _, ok := c.inverses[a]; ok && !c.inverses[a][r] {
					c.inverses[a][r] = true
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	for name, d := range told {
		for s := range c.supers[name] {
			o, ok := told[s]
			if !ok {
				return nil, errors.New(errors.ErrCodeNotFound, "role %q refers to unknown role %q", name, s)
			}
			if o.typ != d.typ {
				return nil, errors.New(errors.ErrCodeInconsistentRBox, "role %q (%s) is a sub-role of %q (%s)", name, d.typ, s, o.typ)
			}
		}
		if d.props.Has(Top) && len(c.supers[name]) > 1 {
			return nil, errors.New(errors.ErrCodeInconsistentRBox, "top role %q is subsumed by a non-top role", name)
		}
		if d.typ == Data && len(c.inverses[name]) > 0 {
			return nil, errors.New(errors.ErrCodeInconsistentRBox, "data role %q cannot have an inverse", name)
		}
	}

	c.deriveProps(told)
	c.deriveRestrictions(told)
	return c, nil
}

// transitiveClose recomputes supers and subs from edges by a breadth-first
// walk from every role.
func (c *closure) transitiveClose(told map[string]*roleDef, edges map[string]map[string]bool) {
	for name := range told {
		seen := map[string]bool{name: true}
		queue := []string{name}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for next := range edges[cur] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		c.supers[name] = seen
	}
	for name := range told {
		c.subs[name] = map[string]bool{}
	}
	for name, sups := range c.supers {
		for s := range sups {
			if c.subs[s] == nil {
				c.subs[s] = map[string]bool{}
			}
			c.subs[s][name] = true
		}
	}
}

func (c *closure) deriveProps(told map[string]*roleDef) {
	for name, d := range told {
		c.props[name] |= d.props
	}
	for name, d := range told {
		for s := range c.supers[name] {
			equivalent := c.isSub(s, name)
			if equivalent {
				c.props[s] |= d.props &^ Top
			}
			// Sub-roles of functional roles are functional.
			c.props[name] |= told[s].props & (Functional | InverseFunctional)
		}
		if d.props.Has(Symmetric) {
			c.inverses[name][name] = true
		}
	}
	for name := range told {
		p := c.props[name]
		for a := range c.inverses[name] {
			if p.Has(Transitive) {
				c.props[a] |= Transitive
			}
			if p.Has(Functional) {
				c.props[a] |= InverseFunctional
			}
			if p.Has(InverseFunctional) {
				c.props[a] |= Functional
			}
		}
	}
}

func (c *closure) deriveRestrictions(told map[string]*roleDef) {
	for name := range told {
		dom := term.NewSet()
		rng := term.NewSet()
		for s := range c.supers[name] {
			for _, t := range told[s].domain.Sorted() {
				dom.Add(t)
			}
			for _, t := range told[s].rng.Sorted() {
				rng.Add(t)
			}
			for a := range c.inverses[s] {
				for _, t := range told[a].rng.Sorted() {
					dom.Add(t)
				}
				for _, t := range told[a].domain.Sorted() {
					rng.Add(t)
				}
			}
		}
		c.domain[name] = dom.Sorted()
		c.rng[name] = rng.Sorted()
	}
}
