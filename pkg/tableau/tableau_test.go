package tableau

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tableau/pkg/abox"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/rbox"
	"github.com/matzehuels/tableau/pkg/tbox"
	"github.com/matzehuels/tableau/pkg/term"
)

var quiet = log.New(io.Discard)

// fixture builds an ABox with a single anonymous node labelled with labels.
type fixture struct {
	rb     *rbox.RBox
	tb     *tbox.TBox
	labels []string
}

func (f fixture) build(t *testing.T) (*abox.ABox, abox.NodeID) {
	t.Helper()
	a := abox.New(abox.NewConfig(f.rb, f.tb))
	n, err := a.CreateNode(false)
	if err != nil {
		t.Fatal(err)
	}
	id := n.ID()
	for _, l := range f.labels {
		info, err := a.AddUnfoldedDescription(id, term.MustParse(l))
		if err != nil {
			t.Fatalf("AddUnfoldedDescription(%s): %v", l, err)
		}
		id = info.Current()
	}
	return a, id
}

func check(t *testing.T, a *abox.ABox, opts Options) *Result {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quiet
	}
	res, err := Check(context.Background(), a, opts)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	return res
}

func roles(t *testing.T, setup func(rb *rbox.RBox) error) *rbox.RBox {
	t.Helper()
	rb := rbox.New()
	if err := setup(rb); err != nil {
		t.Fatal(err)
	}
	return rb
}

func axioms(t *testing.T, axs ...string) *tbox.TBox {
	t.Helper()
	tb := tbox.New()
	for _, ax := range axs {
		if err := tb.Add(term.MustParse(ax)); err != nil {
			t.Fatal(err)
		}
	}
	return tb
}

func disjunctions(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("(or A%d B%d)", i, i)
	}
	return out
}

func TestConsistency(t *testing.T) {
	functional := func(t *testing.T) *rbox.RBox {
		return roles(t, func(rb *rbox.RBox) error {
			if err := rb.AddRole("r", rbox.Object); err != nil {
				return err
			}
			return rb.SetProperty("r", rbox.Functional)
		})
	}
	transitive := func(t *testing.T) *rbox.RBox {
		return roles(t, func(rb *rbox.RBox) error {
			if err := rb.AddRole("r", rbox.Object); err != nil {
				return err
			}
			return rb.SetProperty("r", rbox.Transitive)
		})
	}
	ranged := func(t *testing.T) *rbox.RBox {
		return roles(t, func(rb *rbox.RBox) error {
			if err := rb.AddRole("r", rbox.Object); err != nil {
				return err
			}
			return rb.AddRange("r", term.Atom("B"))
		})
	}

	tests := []struct {
		name   string
		rb     func(*testing.T) *rbox.RBox
		tbox   []string
		labels []string
		want   bool
	}{
		{"empty", nil, nil, nil, true},
		{"atom", nil, nil, []string{"A"}, true},
		{"bottom", nil, nil, []string{"bottom"}, false},
		{"complement", nil, nil, []string{"A", "(not A)"}, false},
		{"conjunction", nil, nil, []string{"(and A (not A))"}, false},
		{"disjunction with one way out", nil, nil, []string{"(or A B)", "(not A)"}, true},
		{"disjunction without way out", nil, nil, []string{"(or A B)", "(not A)", "(not B)"}, false},
		{"exists and forall", nil, nil, []string{"(some r C)", "(all r (not C))"}, false},
		{"forall without successor", nil, nil, []string{"(all r bottom)"}, true},
		{"nested exists", nil, nil, []string{"(some r (some s A))", "(all r (all s (not A)))"}, false},
		{"at-least over at-most", nil, nil, []string{"(at-least 3 r)", "(at-most 2 r)"}, false},
		{"at-least within at-most", nil, nil, []string{"(at-least 2 r)", "(at-most 2 r)"}, true},
		{"at-most forces merge", nil, nil, []string{"(some r A)", "(some r (not A))", "(at-most 1 r)"}, false},
		{"at-most allows merge", nil, nil, []string{"(some r A)", "(some r B)", "(at-most 1 r)"}, true},
		{"functional forces merge", functional, nil, []string{"(some r A)", "(some r (not A))"}, false},
		{"functional at-least", functional, nil, []string{"(at-least 2 r)"}, false},
		{"transitive forall", transitive, nil, []string{"(some r (some r A))", "(all r (not A))"}, false},
		{"non-transitive forall", nil, nil, []string{"(some r (some r A))", "(all r (not A))"}, true},
		{"range", ranged, nil, []string{"(some r (not B))"}, false},
		{"tbox subsumption", nil, []string{"(implies A B)"}, []string{"A", "(not B)"}, false},
		{"tbox equivalence", nil, []string{"(equivalent A (and B C))"}, []string{"B", "C", "(not A)"}, false},
		{"cyclic tbox terminates", nil, []string{"(implies C (some r C))"}, []string{"C"}, true},
		{"global restriction", nil, []string{"(implies top (all r A))"}, []string{"(some r (not A))"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fixture{labels: tt.labels}
			if tt.rb != nil {
				f.rb = tt.rb(t)
			}
			if tt.tbox != nil {
				f.tb = axioms(t, tt.tbox...)
			}
			for _, backjump := range []bool{false, true} {
				a, _ := f.build(t)
				res := check(t, a, Options{Backjump: backjump, StopAtFirst: true})
				if res.Consistent != tt.want {
					t.Errorf("backjump=%v: Consistent = %v, want %v (clash: %v)", backjump, res.Consistent, tt.want, res.Clash)
				}
				if !tt.want && res.Clash == nil {
					t.Errorf("backjump=%v: inconsistent result without clash", backjump)
				}
			}
		})
	}
}

func TestFunctionalRoleMergesSuccessors(t *testing.T) {
	rb := roles(t, func(rb *rbox.RBox) error {
		if err := rb.AddRole("r", rbox.Object); err != nil {
			return err
		}
		return rb.SetProperty("r", rbox.Functional)
	})
	a, id := fixture{rb: rb, labels: []string{"(some r A)", "(some r B)"}}.build(t)
	res := check(t, a, Options{StopAtFirst: true})
	if !res.Consistent {
		t.Fatalf("inconsistent: %v", res.Clash)
	}
	m := res.Model
	if m.Len() != 2 {
		t.Fatalf("model has %d nodes, want 2", m.Len())
	}
	succ := m.Successors(id, "r")
	if len(succ) != 1 {
		t.Fatalf("successors = %v, want one", succ)
	}
	y := m.Node(succ[0])
	if !y.HasTerm(term.Atom("A")) || !y.HasTerm(term.Atom("B")) {
		t.Errorf("successor terms = %v, want A and B", y.Terms())
	}
	if a.Len() != 1 {
		t.Errorf("input ABox modified: %d nodes", a.Len())
	}
}

func TestCompletionCounts(t *testing.T) {
	tests := []struct {
		name     string
		semantic bool
		want     int
	}{
		{"syntactic", false, 256},
		{"semantic", true, 6561},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := fixture{labels: disjunctions(8)}.build(t)
			res := check(t, a, Options{SemanticBranching: tt.semantic})
			if res.ModelCount != tt.want {
				t.Errorf("ModelCount = %d, want %d", res.ModelCount, tt.want)
			}
			if res.Stats.MaxDepth != 8 {
				t.Errorf("MaxDepth = %d, want 8", res.Stats.MaxDepth)
			}
		})
	}
}

func TestSemanticBranchingAssertsComplements(t *testing.T) {
	a, id := fixture{labels: []string{"(or A B)"}}.build(t)
	res := check(t, a, Options{SemanticBranching: true, KeepModels: 3})
	if len(res.Models) != 3 {
		t.Fatalf("kept %d models, want 3", len(res.Models))
	}
	var got []string
	for _, m := range res.Models {
		n := m.Node(id)
		if n.HasTerm(term.MustParse("(or A B)")) {
			t.Errorf("disjunction still present after branching: %v", n.Terms())
		}
		if !n.Knows(term.MustParse("(or A B)")) {
			t.Errorf("node forgot the retired disjunction")
		}
		var labels []string
		for _, x := range n.Terms() {
			labels = append(labels, x.String())
		}
		got = append(got, strings.Join(labels, " "))
	}
	want := []string{"(not B) A", "(not A) B", "A B"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("model %d terms = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBackjumpingPrunesIrrelevantChoices(t *testing.T) {
	labels := append(disjunctions(8), "(some r C)", "(all r (not C))")
	tests := []struct {
		backjump bool
		clashes  int
		branches int
	}{
		{false, 256, 511},
		{true, 1, 9},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("backjump=%v", tt.backjump), func(t *testing.T) {
			a, _ := fixture{labels: labels}.build(t)
			res := check(t, a, Options{Backjump: tt.backjump})
			if res.Consistent {
				t.Fatal("consistent, want inconsistent")
			}
			if res.Stats.Clashes != tt.clashes {
				t.Errorf("Clashes = %d, want %d", res.Stats.Clashes, tt.clashes)
			}
			if res.Stats.Branches != tt.branches {
				t.Errorf("Branches = %d, want %d", res.Stats.Branches, tt.branches)
			}
		})
	}
}

func TestBackjumpingKeepsRelevantChoices(t *testing.T) {
	// The clash on A depends on the first disjunction only, so the search
	// must still try B.
	labels := append(disjunctions(3), "(not A0)")
	a, _ := fixture{labels: labels}.build(t)
	res := check(t, a, Options{Backjump: true})
	if res.ModelCount != 4 {
		t.Errorf("ModelCount = %d, want 4", res.ModelCount)
	}
	if res.Stats.Clashes != 1 {
		t.Errorf("Clashes = %d, want 1", res.Stats.Clashes)
	}
	if res.Clash == nil || len(res.Clash.Culprits) != 1 {
		t.Fatalf("Clash = %v, want one culprit", res.Clash)
	}
}

func TestStopAtFirst(t *testing.T) {
	a, _ := fixture{labels: disjunctions(4)}.build(t)
	res := check(t, a, Options{StopAtFirst: true})
	if res.ModelCount != 1 || res.Model == nil {
		t.Errorf("ModelCount = %d, Model = %v", res.ModelCount, res.Model)
	}
	if res.Stats.Branches != 5 {
		t.Errorf("Branches = %d, want 5", res.Stats.Branches)
	}
}

func TestBlockingStopsCyclicExpansion(t *testing.T) {
	tb := axioms(t, "(implies C (some r C))")
	tests := []struct {
		kind  string
		nodes int
	}{
		{"subset", 2},
		{"equality", 2},
		// The root has no predecessor to pair with, so its child cannot be
		// blocked by it.
		{"double", 3},
	}
	for _, tt := range tests {
		kind := tt.kind
		t.Run(kind, func(t *testing.T) {
			a, id := fixture{tb: tb, labels: []string{"C"}}.build(t)
			res := check(t, a, Options{Blocking: kind, StopAtFirst: true})
			if !res.Consistent {
				t.Fatalf("inconsistent: %v", res.Clash)
			}
			if res.Stats.Blocking != kind {
				t.Errorf("Blocking = %q, want %q", res.Stats.Blocking, kind)
			}
			if n := res.Model.Len(); n != tt.nodes {
				t.Errorf("model has %d nodes, want %d", n, tt.nodes)
			}
			if len(res.Model.Successors(id, "r")) != 1 {
				t.Errorf("root has no r successor")
			}
		})
	}
}

func TestNamedIndividuals(t *testing.T) {
	a := abox.New(abox.NewConfig(nil, nil))
	x, err := a.CreateIndividual("alice")
	if err != nil {
		t.Fatal(err)
	}
	y, err := a.CreateIndividual("bob")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.AddLink(x.ID(), "knows", y.ID()); err != nil {
		t.Fatal(err)
	}
	if _, err := a.AddUnfoldedDescription(x.ID(), term.MustParse("(all knows (not Person))")); err != nil {
		t.Fatal(err)
	}
	if !check(t, a.Clone(), Options{}).Consistent {
		t.Fatal("inconsistent before asserting Person(bob)")
	}
	if _, err := a.AddUnfoldedDescription(y.ID(), term.Atom("Person")); err != nil {
		t.Fatal(err)
	}
	if check(t, a, Options{}).Consistent {
		t.Fatal("consistent after asserting Person(bob)")
	}
}

func TestSatisfiable(t *testing.T) {
	cfg := abox.NewConfig(nil, axioms(t, "(implies A (not B))"))
	tests := []struct {
		concept string
		want    bool
	}{
		{"A", true},
		{"(and A B)", false},
		{"(or (and A B) C)", true},
	}
	for _, tt := range tests {
		got, err := Satisfiable(context.Background(), cfg, term.MustParse(tt.concept), Options{Logger: quiet})
		if err != nil {
			t.Fatalf("Satisfiable(%s): %v", tt.concept, err)
		}
		if got != tt.want {
			t.Errorf("Satisfiable(%s) = %v, want %v", tt.concept, got, tt.want)
		}
	}
}

func TestCheckErrors(t *testing.T) {
	t.Run("blocking", func(t *testing.T) {
		a, _ := fixture{}.build(t)
		_, err := Check(context.Background(), a, Options{Blocking: "bogus", Logger: quiet})
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("err = %v, want %s", err, errors.ErrCodeInvalidInput)
		}
	})
	t.Run("canceled", func(t *testing.T) {
		a, _ := fixture{labels: disjunctions(4)}.build(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Check(ctx, a, Options{Logger: quiet})
		if !errors.Is(err, errors.ErrCodeCanceled) {
			t.Errorf("err = %v, want %s", err, errors.ErrCodeCanceled)
		}
	})
	t.Run("branch limit", func(t *testing.T) {
		a, _ := fixture{labels: disjunctions(4)}.build(t)
		_, err := Check(context.Background(), a, Options{MaxBranches: 3, Logger: quiet})
		if !errors.Is(err, errors.ErrCodeCanceled) {
			t.Errorf("err = %v, want %s", err, errors.ErrCodeCanceled)
		}
	})
}

func TestResultErr(t *testing.T) {
	a, _ := fixture{labels: []string{"A", "(not A)"}}.build(t)
	res := check(t, a, Options{})
	err := res.Err()
	if !errors.IsInconsistency(err) {
		t.Fatalf("Err() = %v, want inconsistency", err)
	}
	var ce *errors.ClashError
	if !errors.As(err, &ce) || ce.Node != 0 {
		t.Errorf("Err() = %#v, want clash on node 0", err)
	}
}

func ExampleCheck() {
	a := abox.New(abox.NewConfig(nil, nil))
	n, _ := a.CreateNode(false)
	_, _ = a.AddUnfoldedDescriptions(n.ID(), []*term.Term{
		term.MustParse("(or A B)"),
		term.MustParse("(not A)"),
	})

	res, err := Check(context.Background(), a, Options{Logger: log.New(io.Discard)})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.Consistent, res.ModelCount, res.Stats.Clashes)
	fmt.Println(res.Model.Node(n.ID()).Terms())
	// Output:
	// true 1 1
	// [(not A) B]
}
