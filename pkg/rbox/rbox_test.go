package rbox

import (
	"slices"
	"testing"

	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/term"
)

func mustRoles(t *testing.T, b *RBox, typ RoleType, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := b.AddRole(n, typ); err != nil {
			t.Fatalf("AddRole(%s): %v", n, err)
		}
	}
}

func TestSubRoleClosure(t *testing.T) {
	b := New()
	mustRoles(t, b, Object, "hasParent", "hasAncestor", "hasRelative")
	if err := b.AddSubRole("hasParent", "hasAncestor"); err != nil {
		t.Fatal(err)
	}
	if err := b.AddSubRole("hasAncestor", "hasRelative"); err != nil {
		t.Fatal(err)
	}

	if got := b.Supers("hasParent"); !slices.Equal(got, []string{"hasAncestor", "hasParent", "hasRelative"}) {
		t.Errorf("Supers(hasParent) = %v", got)
	}
	if got := b.Subs("hasRelative"); !slices.Equal(got, []string{"hasAncestor", "hasParent", "hasRelative"}) {
		t.Errorf("Subs(hasRelative) = %v", got)
	}
	if !b.IsSubRoleOf("hasParent", "hasRelative") {
		t.Error("IsSubRoleOf(hasParent, hasRelative) = false")
	}
	if b.IsSubRoleOf("hasRelative", "hasParent") {
		t.Error("IsSubRoleOf(hasRelative, hasParent) = true")
	}
}

func TestEquivalentRoles(t *testing.T) {
	b := New()
	mustRoles(t, b, Object, "r", "s", "t")
	_ = b.AddSubRole("r", "s")
	_ = b.AddSubRole("s", "t")
	_ = b.AddSubRole("t", "r")
	if got := b.Equivalents("s"); !slices.Equal(got, []string{"r", "s", "t"}) {
		t.Errorf("Equivalents(s) = %v", got)
	}
	if err := b.SetProperty("r", Transitive); err != nil {
		t.Fatal(err)
	}
	if !b.Is("t", Transitive) {
		t.Error("transitivity not shared by equivalent role")
	}
}

func TestInverseRoles(t *testing.T) {
	b := New()
	mustRoles(t, b, Object, "hasChild", "hasParent", "hasSon", "hasFather")
	_ = b.AddSubRole("hasSon", "hasChild")
	if err := b.AddInverseRole("hasChild", "hasParent"); err != nil {
		t.Fatal(err)
	}
	if err := b.AddInverseRole("hasSon", "hasFather"); err != nil {
		t.Fatal(err)
	}
	if got := b.Inverses("hasParent"); !slices.Equal(got, []string{"hasChild"}) {
		t.Errorf("Inverses(hasParent) = %v", got)
	}
	if !b.IsSubRoleOf("hasFather", "hasParent") {
		t.Error("inverse propagation: hasFather should be a sub-role of hasParent")
	}
	if !b.HasInverseRoles() {
		t.Error("HasInverseRoles() = false")
	}
	_ = b.SetProperty("hasParent", Functional)
	if !b.Is("hasChild", InverseFunctional) {
		t.Error("inverse of functional role should be inverse-functional")
	}
	if !b.Is("hasFather", Functional) {
		t.Error("sub-role of functional role should be functional")
	}
}

func TestSymmetricIsOwnInverse(t *testing.T) {
	b := New()
	mustRoles(t, b, Object, "knows")
	if b.HasInverseRoles() {
		t.Error("HasInverseRoles() = true before symmetric flag")
	}
	if err := b.SetProperty("knows", Symmetric); err != nil {
		t.Fatal(err)
	}
	if got := b.Inverses("knows"); !slices.Equal(got, []string{"knows"}) {
		t.Errorf("Inverses(knows) = %v", got)
	}
}

func TestMutationPrechecks(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *RBox) error
		code  errors.Code
	}{
		{
			name: "type mismatch on sub-role",
			setup: func(b *RBox) error {
				_ = b.AddRole("r", Object)
				_ = b.AddRole("age", Data)
				return b.AddSubRole("r", "age")
			},
			code: errors.ErrCodeInconsistentRBox,
		},
		{
			name: "self inverse",
			setup: func(b *RBox) error {
				_ = b.AddRole("r", Object)
				return b.AddInverseRole("r", "r")
			},
			code: errors.ErrCodeInconsistentRBox,
		},
		{
			name: "inverse of sub-role",
			setup: func(b *RBox) error {
				_ = b.AddRole("r", Object)
				_ = b.AddRole("s", Object)
				_ = b.AddSubRole("r", "s")
				return b.AddInverseRole("r", "s")
			},
			code: errors.ErrCodeInconsistentRBox,
		},
		{
			name: "two top roles",
			setup: func(b *RBox) error {
				_ = b.AddRole("u", Object)
				_ = b.AddRole("v", Object)
				_ = b.SetProperty("u", Top)
				return b.SetProperty("v", Top)
			},
			code: errors.ErrCodeInconsistentRBox,
		},
		{
			name: "transitive data role",
			setup: func(b *RBox) error {
				_ = b.AddRole("age", Data)
				return b.SetProperty("age", Transitive)
			},
			code: errors.ErrCodeInconsistentRBox,
		},
		{
			name: "redeclared with other type",
			setup: func(b *RBox) error {
				_ = b.AddRole("r", Object)
				return b.AddRole("r", Data)
			},
			code: errors.ErrCodeInconsistentRBox,
		},
		{
			name: "unknown role",
			setup: func(b *RBox) error {
				_ = b.AddRole("r", Object)
				return b.AddSubRole("r", "missing")
			},
			code: errors.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.setup(New())
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestFailedMutationRollsBack(t *testing.T) {
	b := New()
	mustRoles(t, b, Object, "universal", "r")
	if err := b.SetProperty("universal", Top); err != nil {
		t.Fatal(err)
	}
	gen := b.Generation()
	before := b.Supers("universal")

	// The top role may not be subsumed by an ordinary role; the failure is
	// only detected during closure recomputation.
	err := b.AddEquivalentRole("r", "universal")
	if !errors.Is(err, errors.ErrCodeInconsistentRBox) {
		t.Fatalf("AddEquivalentRole error = %v", err)
	}
	if b.Generation() != gen {
		t.Errorf("Generation changed on failed mutation: %d -> %d", gen, b.Generation())
	}
	if got := b.Supers("universal"); !slices.Equal(got, before) {
		t.Errorf("Supers(universal) = %v after rollback, want %v", got, before)
	}
	if got := b.Equivalents("r"); !slices.Equal(got, []string{"r"}) {
		t.Errorf("Equivalents(r) = %v after rollback", got)
	}
}

func TestTopRoleSubsumesAll(t *testing.T) {
	b := New()
	mustRoles(t, b, Object, "u", "r")
	mustRoles(t, b, Data, "age")
	_ = b.SetProperty("u", Top)
	if !b.IsSubRoleOf("r", "u") {
		t.Error("object role r should be a sub-role of the object top role")
	}
	if b.IsSubRoleOf("age", "u") {
		t.Error("data role must not be a sub-role of the object top role")
	}
	if b.TopRole(Object) != "u" || b.TopRole(Data) != "" {
		t.Errorf("TopRole = %q/%q", b.TopRole(Object), b.TopRole(Data))
	}
}

func TestDomainAndRangeInheritance(t *testing.T) {
	b := New()
	mustRoles(t, b, Object, "hasChild", "hasParent", "hasSon")
	_ = b.AddSubRole("hasSon", "hasChild")
	_ = b.AddInverseRole("hasChild", "hasParent")
	_ = b.AddDomain("hasChild", term.Atom("Parent"))
	_ = b.AddRange("hasSon", term.Atom("Male"))

	son, _ := b.Role("hasSon")
	if len(son.Domain) != 1 || son.Domain[0].Name() != "Parent" {
		t.Errorf("hasSon domain = %v", son.Domain)
	}
	parent, _ := b.Role("hasParent")
	if len(parent.Range) != 1 || parent.Range[0].Name() != "Parent" {
		t.Errorf("hasParent range = %v", parent.Range)
	}
}

func TestCloneIndependent(t *testing.T) {
	b := New()
	mustRoles(t, b, Object, "r", "s")
	c := b.Clone()
	if err := c.AddSubRole("r", "s"); err != nil {
		t.Fatal(err)
	}
	if b.IsSubRoleOf("r", "s") {
		t.Error("mutation of clone leaked into original")
	}
	if !c.IsSubRoleOf("r", "s") {
		t.Error("clone missing mutation")
	}
}

func TestParseHelpers(t *testing.T) {
	if p, ok := ParseProperty("Functional"); !ok || p != Functional {
		t.Errorf("ParseProperty = %v, %v", p, ok)
	}
	if _, ok := ParseProperty("bogus"); ok {
		t.Error("ParseProperty(bogus) ok")
	}
	if typ, ok := ParseRoleType("data"); !ok || typ != Data {
		t.Errorf("ParseRoleType(data) = %v, %v", typ, ok)
	}
	if got := (Functional | Transitive).String(); got != "functional|transitive" {
		t.Errorf("String() = %q", got)
	}
}
