package rbox

import (
	"strings"

	"github.com/matzehuels/tableau/pkg/term"
)

// RoleType distinguishes roles between individuals from roles to data values.
type RoleType int

const (
	// Object roles link individuals to individuals.
	Object RoleType = iota
	// Data roles link individuals to datatype nodes.
	Data
)

// String returns "object" or "data".
func (t RoleType) String() string {
	if t == Data {
		return "data"
	}
	return "object"
}

// ParseRoleType converts "object" or "data" (case-insensitive, empty meaning
// object) to a RoleType.
func ParseRoleType(s string) (RoleType, bool) {
	switch strings.ToLower(s) {
	case "", "object":
		return Object, true
	case "data", "datatype":
		return Data, true
	}
	return Object, false
}

// Property is a bit set of role characteristics.
type Property uint

const (
	// Functional roles have at most one successor per node.
	Functional Property = 1 << iota
	// InverseFunctional roles have at most one predecessor per node.
	InverseFunctional
	// Transitive roles propagate universal restrictions along chains.
	Transitive
	// Symmetric roles are their own inverse.
	Symmetric
	// Reflexive roles relate every individual to itself.
	Reflexive
	// Top marks the universal role of its type.
	Top
)

var propertyNames = []struct {
	p    Property
	name string
}{
	{Functional, "functional"},
	{InverseFunctional, "inverse-functional"},
	{Transitive, "transitive"},
	{Symmetric, "symmetric"},
	{Reflexive, "reflexive"},
	{Top, "top"},
}

// Has reports whether all flags of q are set in p.
func (p Property) Has(q Property) bool { return p&q == q }

// String returns the flag names joined by "|".
func (p Property) String() string {
	var names []string
	for _, pn := range propertyNames {
		if p.Has(pn.p) {
			names = append(names, pn.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseProperty converts a flag name such as "functional" to a Property.
func ParseProperty(s string) (Property, bool) {
	for _, pn := range propertyNames {
		if strings.EqualFold(s, pn.name) {
			return pn.p, true
		}
	}
	return 0, false
}

// Role is a read-only view of a role's told and derived characteristics.
type Role struct {
	Name   string
	Type   RoleType
	Props  Property     // told and derived flags
	Domain []*term.Term // told and inherited from super-roles
	Range  []*term.Term // told and inherited from super-roles
}

// Is reports whether the role carries all flags of p.
func (r Role) Is(p Property) bool { return r.Props.Has(p) }

// roleDef holds the told axioms of one role.
type roleDef struct {
	name    string
	typ     RoleType
	props   Property
	supers  map[string]bool
	equivs  map[string]bool
	inverse string
	domain  *term.Set
	rng     *term.Set
}

func (d *roleDef) clone() *roleDef {
	c := *d
	c.supers = cloneSet(d.supers)
	c.equivs = cloneSet(d.equivs)
	c.domain = d.domain.Clone()
	c.rng = d.rng.Clone()
	return &c
}

func cloneSet(m map[string]bool) map[string]bool {
	c := make(map[string]bool, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
