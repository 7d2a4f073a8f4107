package kb

import (
	"fmt"

	"github.com/matzehuels/tableau/pkg/abox"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/rbox"
	"github.com/matzehuels/tableau/pkg/tbox"
	"github.com/matzehuels/tableau/pkg/term"
)

// KB is a built knowledge base, ready to be checked.
type KB struct {
	RBox *rbox.RBox
	TBox *tbox.TBox
	ABox *abox.ABox
}

// Build constructs the role box, TBox and ABox described by f. Roles come
// first, then axioms, individuals and finally links, so that every
// assertion sees the complete terminology.
func (f *File) Build() (*KB, error) {
	rb, err := f.buildRBox()
	if err != nil {
		return nil, err
	}
	tb := tbox.New()
	for i, s := range f.Axioms {
		ax, err := term.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("axiom %d: %w", i, err)
		}
		if err := tb.Add(ax); err != nil {
			return nil, fmt.Errorf("axiom %d: %w", i, err)
		}
	}

	a := abox.New(abox.NewConfig(rb, tb))
	if err := f.assert(a); err != nil {
		return nil, err
	}
	return &KB{RBox: rb, TBox: tb, ABox: a}, nil
}

func (f *File) buildRBox() (*rbox.RBox, error) {
	rb := rbox.New()
	types := make(map[string]rbox.RoleType, len(f.Roles))
	for _, r := range f.Roles {
		typ, ok := rbox.ParseRoleType(r.Type)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "role %q: unknown type %q", r.Name, r.Type)
		}
		if err := rb.AddRole(r.Name, typ); err != nil {
			return nil, err
		}
		types[r.Name] = typ
	}
	// Roles named only as parents, equivalents or inverses take the type of
	// the role that names them.
	for _, r := range f.Roles {
		refs := append(append([]string{}, r.Parents...), r.Equivalent...)
		if r.Inverse != "" {
			refs = append(refs, r.Inverse)
		}
		for _, ref := range refs {
			if _, ok := types[ref]; ok {
				continue
			}
			if err := rb.AddRole(ref, types[r.Name]); err != nil {
				return nil, err
			}
			types[ref] = types[r.Name]
		}
	}

	for _, r := range f.Roles {
		for _, p := range r.Parents {
			if err := rb.AddSubRole(r.Name, p); err != nil {
				return nil, err
			}
		}
		for _, e := range r.Equivalent {
			if err := rb.AddEquivalentRole(r.Name, e); err != nil {
				return nil, err
			}
		}
		if r.Inverse != "" {
			if err := rb.AddInverseRole(r.Name, r.Inverse); err != nil {
				return nil, err
			}
		}
		if p := r.properties(); p != 0 {
			if err := rb.SetProperty(r.Name, p); err != nil {
				return nil, err
			}
		}
		for _, s := range r.Domain {
			t, err := term.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("role %q domain: %w", r.Name, err)
			}
			if err := rb.AddDomain(r.Name, t); err != nil {
				return nil, err
			}
		}
		for _, s := range r.Range {
			t, err := term.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("role %q range: %w", r.Name, err)
			}
			if err := rb.AddRange(r.Name, t); err != nil {
				return nil, err
			}
		}
	}
	return rb, nil
}

func (r Role) properties() rbox.Property {
	var p rbox.Property
	flags := []struct {
		set  bool
		prop rbox.Property
	}{
		{r.Functional, rbox.Functional},
		{r.InverseFunctional, rbox.InverseFunctional},
		{r.Transitive, rbox.Transitive},
		{r.Symmetric, rbox.Symmetric},
		{r.Reflexive, rbox.Reflexive},
	}
	for _, f := range flags {
		if f.set {
			p |= f.prop
		}
	}
	return p
}

func (f *File) assert(a *abox.ABox) error {
	node := func(name string, datatype bool) (*abox.Node, error) {
		if datatype {
			return a.CreateValue(name)
		}
		return a.CreateIndividual(name)
	}

	for _, ind := range f.Individuals {
		n, err := node(ind.Name, ind.Datatype)
		if err != nil {
			return fmt.Errorf("individual %q: %w", ind.Name, err)
		}
		id := n.ID()
		for _, s := range ind.Terms {
			t, err := term.Parse(s)
			if err != nil {
				return fmt.Errorf("individual %q: %w", ind.Name, err)
			}
			info, err := a.AddUnfoldedDescription(id, t)
			if err != nil {
				return fmt.Errorf("individual %q: %w", ind.Name, err)
			}
			id = info.Current()
		}
	}

	for _, l := range f.Links {
		if (l.To == "") == (l.Value == "") {
			return errors.New(errors.ErrCodeInvalidInput, "link %s -%s->: exactly one of to and value must be set", l.From, l.Role)
		}
		from, err := a.CreateIndividual(l.From)
		if err != nil {
			return fmt.Errorf("link from %q: %w", l.From, err)
		}
		var to *abox.Node
		if l.Value != "" {
			to, err = a.CreateValue(l.Value)
		} else {
			to, err = a.CreateIndividual(l.To)
		}
		if err != nil {
			return fmt.Errorf("link to %q: %w", l.To+l.Value, err)
		}
		if _, err := a.AddLink(from.ID(), l.Role, to.ID()); err != nil {
			return fmt.Errorf("link %s -%s-> %s: %w", l.From, l.Role, l.To+l.Value, err)
		}
	}

	// Distinctness is recorded last so that it applies to the nodes the
	// names end up on after nominal merges.
	for _, ind := range f.Individuals {
		for _, other := range ind.DifferentFrom {
			x, y := a.NodeByName(ind.Name), a.NodeByName(other)
			if x == nil || y == nil {
				return errors.New(errors.ErrCodeNotFound, "individual %q: different_from names unknown individual %q", ind.Name, other)
			}
			a.AddDistinct(x.ID(), y.ID())
		}
	}
	return nil
}
