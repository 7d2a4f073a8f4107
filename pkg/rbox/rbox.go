package rbox

import (
	"maps"
	"slices"

	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/term"
)

// RBox is the role box of one reasoning session.
//
// The zero value is not usable - use [New]. See the package documentation
// for the transactional mutation contract.
type RBox struct {
	told       map[string]*roleDef
	closure    *closure
	generation uint64
}

// New returns an empty RBox.
func New() *RBox {
	b := &RBox{told: make(map[string]*roleDef)}
	b.closure, _ = computeClosure(b.told)
	return b
}

// Clone returns an independent copy of b.
func (b *RBox) Clone() *RBox {
	return &RBox{
		told:       cloneTold(b.told),
		closure:    b.closure,
		generation: b.generation,
	}
}

// Generation returns a counter incremented by every successful mutation.
func (b *RBox) Generation() uint64 { return b.generation }

func cloneTold(told map[string]*roleDef) map[string]*roleDef {
	c := make(map[string]*roleDef, len(told))
	for k, d := range told {
		c[k] = d.clone()
	}
	return c
}

// mutate applies fn to a copy of the told axioms and swaps the copy in only
// if fn and the closure recomputation both succeed.
func (b *RBox) mutate(fn func(told map[string]*roleDef) error) error {
	next := cloneTold(b.told)
	if err := fn(next); err != nil {
		return err
	}
	c, err := computeClosure(next)
	if err != nil {
		return err
	}
	b.told = next
	b.closure = c
	b.generation++
	return nil
}

func lookup(told map[string]*roleDef, name string) (*roleDef, error) {
	d, ok := told[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "unknown role %q", name)
	}
	return d, nil
}

func sameType(a, b *roleDef, what string) error {
	if a.typ != b.typ {
		return errors.New(errors.ErrCodeInconsistentRBox,
			"%s: %s role %q and %s role %q have different types", what, a.typ, a.name, b.typ, b.name)
	}
	return nil
}

// AddRole declares a role. Declaring an existing role again with the same
// type is a no-op; a different type is an error.
func (b *RBox) AddRole(name string, typ RoleType) error {
	if err := errors.ValidateName("role", name); err != nil {
		return err
	}
	if d, ok := b.told[name]; ok {
		if d.typ != typ {
			return errors.New(errors.ErrCodeInconsistentRBox, "role %q already declared as %s", name, d.typ)
		}
		return nil
	}
	return b.mutate(func(told map[string]*roleDef) error {
		told[name] = &roleDef{
			name:   name,
			typ:    typ,
			supers: map[string]bool{},
			equivs: map[string]bool{},
			domain: term.NewSet(),
			rng:    term.NewSet(),
		}
		return nil
	})
}

// AddSubRole records that sub is a sub-role of super.
func (b *RBox) AddSubRole(sub, super string) error {
	return b.mutate(func(told map[string]*roleDef) error {
		s, err := lookup(told, sub)
		if err != nil {
			return err
		}
		p, err := lookup(told, super)
		if err != nil {
			return err
		}
		if err := sameType(s, p, "sub-role"); err != nil {
			return err
		}
		if s.inverse == super {
			return errors.New(errors.ErrCodeInconsistentRBox, "role %q cannot be a sub-role of its inverse %q", sub, super)
		}
		if s.props.Has(Top) && !p.props.Has(Top) {
			return errors.New(errors.ErrCodeInconsistentRBox, "top role %q cannot be a sub-role of %q", sub, super)
		}
		if sub != super {
			s.supers[super] = true
		}
		return nil
	})
}

// AddEquivalentRole records that a and c are equivalent.
func (b *RBox) AddEquivalentRole(a, c string) error {
	return b.mutate(func(told map[string]*roleDef) error {
		x, err := lookup(told, a)
		if err != nil {
			return err
		}
		y, err := lookup(told, c)
		if err != nil {
			return err
		}
		if err := sameType(x, y, "equivalent role"); err != nil {
			return err
		}
		if x.inverse == c {
			return errors.New(errors.ErrCodeInconsistentRBox, "role %q cannot be equivalent to its inverse %q", a, c)
		}
		if a != c {
			x.equivs[c] = true
		}
		return nil
	})
}

// AddInverseRole records that r and s are inverses of each other. Only
// object roles may have inverses, a role cannot be its own declared inverse
// (use [Symmetric]) and a role cannot be inverse to one of its told sub- or
// super-roles.
func (b *RBox) AddInverseRole(r, s string) error {
	return b.mutate(func(told map[string]*roleDef) error {
		x, err := lookup(told, r)
		if err != nil {
			return err
		}
		y, err := lookup(told, s)
		if err != nil {
			return err
		}
		if r == s {
			return errors.New(errors.ErrCodeInconsistentRBox, "role %q cannot be its own inverse", r)
		}
		if x.typ != Object || y.typ != Object {
			return errors.New(errors.ErrCodeInconsistentRBox, "inverse roles %q and %q must both be object roles", r, s)
		}
		if x.inverse != "" && x.inverse != s {
			return errors.New(errors.ErrCodeInconsistentRBox, "role %q already has inverse %q", r, x.inverse)
		}
		if y.inverse != "" && y.inverse != r {
			return errors.New(errors.ErrCodeInconsistentRBox, "role %q already has inverse %q", s, y.inverse)
		}
		if b.closure.isSub(r, s) || b.closure.isSub(s, r) {
			return errors.New(errors.ErrCodeInconsistentRBox, "roles %q and %q are related by sub-role axioms and cannot be inverses", r, s)
		}
		x.inverse = s
		y.inverse = r
		return nil
	})
}

// SetProperty adds the flags in p to the named role.
func (b *RBox) SetProperty(name string, p Property) error {
	return b.mutate(func(told map[string]*roleDef) error {
		d, err := lookup(told, name)
		if err != nil {
			return err
		}
		if d.typ == Data && (p.Has(Transitive) || p.Has(Symmetric) || p.Has(InverseFunctional) || p.Has(Reflexive)) {
			return errors.New(errors.ErrCodeInconsistentRBox, "data role %q cannot be %s", name, p)
		}
		if p.Has(Top) {
			for _, o := range told {
				if o.name != name && o.typ == d.typ && o.props.Has(Top) {
					return errors.New(errors.ErrCodeInconsistentRBox, "%s role %q is already the top role", o.typ, o.name)
				}
			}
		}
		d.props |= p
		return nil
	})
}

// AddDomain adds t to the domain restrictions of the named role.
func (b *RBox) AddDomain(name string, t *term.Term) error {
	return b.mutate(func(told map[string]*roleDef) error {
		d, err := lookup(told, name)
		if err != nil {
			return err
		}
		d.domain.Add(term.NNF(t))
		return nil
	})
}

// AddRange adds t to the range restrictions of the named role.
func (b *RBox) AddRange(name string, t *term.Term) error {
	return b.mutate(func(told map[string]*roleDef) error {
		d, err := lookup(told, name)
		if err != nil {
			return err
		}
		d.rng.Add(term.NNF(t))
		return nil
	})
}

// Has reports whether name is a declared role.
func (b *RBox) Has(name string) bool {
	_, ok := b.told[name]
	return ok
}

// Roles returns the declared role names in sorted order.
func (b *RBox) Roles() []string {
	return slices.Sorted(maps.Keys(b.told))
}

// Role returns the view of the named role and true, or a zero Role and
// false if the role is not declared.
func (b *RBox) Role(name string) (Role, bool) {
	d, ok := b.told[name]
	if !ok {
		return Role{}, false
	}
	return Role{
		Name:   name,
		Type:   d.typ,
		Props:  b.closure.props[name],
		Domain: b.closure.domain[name],
		Range:  b.closure.rng[name],
	}, true
}

// Type returns the type of the named role. Undeclared roles are object roles.
func (b *RBox) Type(name string) RoleType {
	if d, ok := b.told[name]; ok {
		return d.typ
	}
	return Object
}

// Is reports whether the named role carries all flags of p, told or derived.
func (b *RBox) Is(name string, p Property) bool {
	return b.closure.props[name].Has(p)
}

// Supers returns the super-roles of name including name itself, sorted.
func (b *RBox) Supers(name string) []string {
	return b.closure.sorted(b.closure.supers, name)
}

// Subs returns the sub-roles of name including name itself, sorted.
func (b *RBox) Subs(name string) []string {
	return b.closure.sorted(b.closure.subs, name)
}

// Equivalents returns the roles equivalent to name including name, sorted.
func (b *RBox) Equivalents(name string) []string {
	var out []string
	for _, s := range b.Supers(name) {
		if b.closure.isSub(s, name) {
			out = append(out, s)
		}
	}
	return out
}

// Inverses returns the roles that are inverse to name, sorted. A symmetric
// role is its own inverse.
func (b *RBox) Inverses(name string) []string {
	return slices.Sorted(maps.Keys(b.closure.inverses[name]))
}

// IsSubRoleOf reports whether sub is a (reflexive, transitive) sub-role of
// super.
func (b *RBox) IsSubRoleOf(sub, super string) bool {
	return b.closure.isSub(sub, super)
}

// TransitiveSubs returns the transitive sub-roles of name (including name
// when it is transitive), sorted.
func (b *RBox) TransitiveSubs(name string) []string {
	var out []string
	for _, s := range b.Subs(name) {
		if b.Is(s, Transitive) {
			out = append(out, s)
		}
	}
	return out
}

// HasInverseRoles reports whether any role has an inverse, including
// symmetric roles. Blocking must use equality blocking when it does.
func (b *RBox) HasInverseRoles() bool {
	for _, inv := range b.closure.inverses {
		if len(inv) > 0 {
			return true
		}
	}
	return false
}

// TopRole returns the top role of the given type, or "" if none is declared.
func (b *RBox) TopRole(typ RoleType) string {
	for _, name := range b.Roles() {
		d := b.told[name]
		if d.typ == typ && d.props.Has(Top) {
			return name
		}
	}
	return ""
}
