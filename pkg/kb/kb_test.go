package kb

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/rbox"
	"github.com/matzehuels/tableau/pkg/term"
)

const family = `
axioms = ["(implies Parent Person)", "(equivalent Parent (some hasChild Person))"]

[[roles]]
name = "hasChild"
inverse = "hasParent"
parents = ["relative"]

[[roles]]
name = "age"
type = "data"
functional = true

[[individuals]]
name = "alice"
terms = ["Parent"]
different_from = ["bob"]

[[individuals]]
name = "bob"

[[links]]
from = "alice"
role = "hasChild"
to = "bob"

[[links]]
from = "alice"
role = "age"
value = "42"
`

func mustBuild(t *testing.T, src string) *KB {
	t.Helper()
	f, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	k, err := f.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return k
}

func TestBuild(t *testing.T) {
	k := mustBuild(t, family)

	if k.TBox.Len() != 2 {
		t.Errorf("TBox has %d axioms, want 2", k.TBox.Len())
	}
	for _, role := range []string{"age", "hasChild", "hasParent", "relative"} {
		if !k.RBox.Has(role) {
			t.Errorf("role %q not declared", role)
		}
	}
	if !k.RBox.IsSubRoleOf("hasChild", "relative") {
		t.Error("hasChild is not a sub-role of relative")
	}
	if got := k.RBox.Inverses("hasChild"); len(got) != 1 || got[0] != "hasParent" {
		t.Errorf("Inverses(hasChild) = %v", got)
	}
	if k.RBox.Type("age") != rbox.Data || !k.RBox.Is("age", rbox.Functional) {
		t.Error("age is not a functional data role")
	}

	a := k.ABox
	alice, bob := a.NodeByName("alice"), a.NodeByName("bob")
	if alice == nil || bob == nil {
		t.Fatal("individuals missing")
	}
	if !alice.HasTerm(term.Atom("Parent")) || !alice.HasTerm(term.Atom("Person")) {
		t.Errorf("alice terms = %v, want Parent and its unfolding", alice.Terms())
	}
	if !a.HasSuccessor(alice.ID(), "relative", bob.ID()) {
		t.Error("bob is not a relative of alice")
	}
	if !a.AreDistinct(alice.ID(), bob.ID()) {
		t.Error("alice and bob are not distinct")
	}
	ages := a.Successors(alice.ID(), "age")
	if len(ages) != 1 || !a.Node(ages[0]).IsDatatype() {
		t.Errorf("age successors = %v, want one value node", ages)
	}
	if err := a.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.Code
	}{
		{"syntax", `axioms = [`, errors.ErrCodeParse},
		{"unknown key", `axiom = ["A"]`, errors.ErrCodeParse},
		{"bad axiom", `axioms = ["(implies A"]`, errors.ErrCodeParse},
		{"bad role type", "[[roles]]\nname = \"r\"\ntype = \"string\"", errors.ErrCodeInvalidInput},
		{"bad role name", "[[roles]]\nname = \"not\"", errors.ErrCodeInvalidName},
		{"data role transitive", "[[roles]]\nname = \"d\"\ntype = \"data\"\ntransitive = true", errors.ErrCodeInconsistentRBox},
		{"link without target", "[[links]]\nfrom = \"a\"\nrole = \"r\"", errors.ErrCodeInvalidInput},
		{"value over object role", "[[links]]\nfrom = \"a\"\nrole = \"r\"\nvalue = \"1\"", errors.ErrCodeIllegalTermType},
		{"unknown different_from", "[[individuals]]\nname = \"a\"\ndifferent_from = [\"z\"]", errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.src))
			if err == nil {
				_, err = f.Build()
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	a := `
axioms = ["(implies B C)", "(implies A B)"]
[[individuals]]
name = "y"
terms = ["B", "A"]
[[individuals]]
name = "x"
`
	b := `
# same knowledge base, different layout
axioms = ["(implies A B)", "(implies B C)"]

[[individuals]]
name = "x"

[[individuals]]
name = "y"
terms = ["A", "B"]
`
	canon := func(src string) []byte {
		f, err := Parse([]byte(src))
		if err != nil {
			t.Fatal(err)
		}
		data, err := f.Canonical()
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	ca, cb := canon(a), canon(b)
	if !bytes.Equal(ca, cb) {
		t.Errorf("canonical forms differ:\n%s\n---\n%s", ca, cb)
	}
	if bytes.Equal(ca, canon(`axioms = ["(implies A B)"]`)) {
		t.Error("different knowledge bases share a canonical form")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "family.toml")
	if err := os.WriteFile(path, []byte(family), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Individuals) != 2 || len(f.Links) != 2 {
		t.Errorf("loaded %d individuals and %d links", len(f.Individuals), len(f.Links))
	}

	_, err = Load(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v", err)
	}
	_, err = Load("../family.toml")
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("traversal: err = %v", err)
	}
}
