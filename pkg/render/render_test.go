package render

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/tableau/pkg/abox"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/rbox"
	"github.com/matzehuels/tableau/pkg/term"
)

func sample(t *testing.T) *abox.ABox {
	t.Helper()
	rb := rbox.New()
	if err := rb.AddRole("age", rbox.Data); err != nil {
		t.Fatal(err)
	}
	a := abox.New(abox.NewConfig(rb, nil))
	alice, err := a.CreateIndividual("alice")
	if err != nil {
		t.Fatal(err)
	}
	anon, err := a.CreateNode(false)
	if err != nil {
		t.Fatal(err)
	}
	age, err := a.CreateValue("42")
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range []struct {
		from abox.NodeID
		role string
		to   abox.NodeID
	}{
		{alice.ID(), "knows", anon.ID()},
		{alice.ID(), "age", age.ID()},
	} {
		if _, err := a.AddLink(l.from, l.role, l.to); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := a.AddUnfoldedDescription(anon.ID(), term.MustParse("(or A B)")); err != nil {
		t.Fatal(err)
	}
	if err := a.RetireTerm(anon.ID(), term.MustParse("(or A B)")); err != nil {
		t.Fatal(err)
	}
	if _, err := a.AddUnfoldedDescription(anon.ID(), term.Atom("A")); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestSnapshot(t *testing.T) {
	m := Snapshot(sample(t))
	if len(m.Nodes) != 3 || len(m.Links) != 2 {
		t.Fatalf("snapshot has %d nodes and %d links", len(m.Nodes), len(m.Links))
	}
	alice := m.Node(0)
	if alice == nil || alice.Label != "alice" {
		t.Fatalf("node 0 = %+v", alice)
	}
	anon := m.Node(1)
	if anon.Label != "_:1" || len(anon.Names) != 0 {
		t.Errorf("anonymous node = %+v", anon)
	}
	if fmt.Sprint(anon.Terms) != "[A]" || fmt.Sprint(anon.Retired) != "[(or A B)]" {
		t.Errorf("anonymous terms = %v retired = %v", anon.Terms, anon.Retired)
	}
	if !m.Node(2).Datatype {
		t.Error("value node is not a datatype node")
	}
	if len(Snapshot(nil).Nodes) != 0 {
		t.Error("nil ABox snapshot is not empty")
	}
}

func TestToDOT(t *testing.T) {
	m := Snapshot(sample(t))

	dot := ToDOT(m, Options{})
	for _, want := range []string{
		`n0 [label="alice"]`,
		`n1 [label="_:1", style="rounded,filled,dashed"`,
		`shape=ellipse`,
		`n0 -> n1 [label="knows"]`,
		`n0 -> n2 [label="age"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	detailed := ToDOT(m, Options{Detailed: true, Retired: true})
	if !strings.Contains(detailed, `label="_:1\nA\n~(or A B)"`) {
		t.Errorf("detailed DOT lacks terms:\n%s", detailed)
	}
}

func TestRenderJSON(t *testing.T) {
	m := Snapshot(sample(t))
	data, err := Render(context.Background(), m, FormatJSON, Options{})
	if err != nil {
		t.Fatal(err)
	}
	back, err := ParseJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Nodes) != len(m.Nodes) || back.Links[1].Role != m.Links[1].Role {
		t.Errorf("decoded model = %+v", back)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(context.Background(), &Model{}, "pdf", Options{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50">`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox changed")
	}
}

func ExampleToDOT() {
	m := &Model{
		Nodes: []Node{{ID: 0, Label: "alice", Names: []string{"alice"}}, {ID: 1, Label: "bob", Names: []string{"bob"}}},
		Links: []Link{{From: 0, Role: "knows", To: 1}},
	}
	fmt.Print(ToDOT(m, Options{}))
	// Output:
	// digraph G {
	//   rankdir=LR;
	//   bgcolor="transparent";
	//   node [shape=box, style="rounded,filled", fillcolor=white, fontsize=14, margin="0.2,0.1"];
	//   edge [fontsize=12];
	//
	//   n0 [label="alice"];
	//   n1 [label="bob"];
	//
	//   n0 -> n1 [label="knows"];
	// }
}
