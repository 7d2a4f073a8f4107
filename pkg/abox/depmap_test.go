package abox

import (
	"slices"
	"testing"
)

func e(node NodeID, key string) Entry { return Entry{Node: node, Key: key} }

func TestDependencyMapParents(t *testing.T) {
	d := NewDependencyMap()
	d.Add(e(0, "B"), e(0, "A"))
	d.Add(e(0, "C"), e(0, "B"))
	d.Add(e(1, "D"), e(0, "C"))
	d.Add(e(1, "D"), e(1, "X"))
	if d.Add(e(1, "D"), e(1, "X")) {
		t.Error("duplicate edge reported as new")
	}
	if d.Add(e(1, "D"), e(1, "D")) {
		t.Error("self edge reported as new")
	}

	direct := d.Parents(e(1, "D"), false)
	if want := []Entry{e(0, "C"), e(1, "X")}; !slices.Equal(direct, want) {
		t.Errorf("Parents(D, false) = %v, want %v", direct, want)
	}
	all := d.Parents(e(1, "D"), true)
	want := []Entry{e(0, "A"), e(0, "B"), e(0, "C"), e(1, "X")}
	if !slices.Equal(all, want) {
		t.Errorf("Parents(D, true) = %v, want %v", all, want)
	}
	kids := d.Children(e(0, "A"), true)
	if want := []Entry{e(0, "B"), e(0, "C"), e(1, "D")}; !slices.Equal(kids, want) {
		t.Errorf("Children(A, true) = %v, want %v", kids, want)
	}
}

func TestDependencyMapParentsFixpoint(t *testing.T) {
	d := NewDependencyMap()
	d.Add(e(0, "B"), e(0, "A"))
	d.Add(e(0, "A"), e(0, "B")) // cycle
	d.Add(e(0, "C"), e(0, "B"))
	d.Add(e(2, "E"), e(0, "C"))
	d.Add(e(2, "E"), e(1, "Z"))
	d.Add(e(1, "Z"), e(1, "Y"))

	for _, start := range d.Entries() {
		once := d.Parents(start, true)
		set := map[Entry]bool{}
		for _, p := range once {
			set[p] = true
		}
		for _, p := range once {
			for _, q := range d.Parents(p, true) {
				set[q] = true
			}
		}
		var twice []Entry
		for q := range set {
			twice = append(twice, q)
		}
		slices.SortFunc(twice, CompareEntries)
		if !slices.Equal(once, twice) {
			t.Errorf("Parents(%s) is not closed: %v vs %v", start, once, twice)
		}
	}
}

func TestDependencyMapGoverning(t *testing.T) {
	d := NewDependencyMap()
	or := e(0, "(or A B)")
	d.AddGoverning(or)
	d.Add(e(0, "A"), or)
	d.Add(e(1, "C"), e(0, "A"))
	d.Add(e(1, "C"), e(1, "F"))

	if !d.Has(or) || !d.IsGoverning(or) {
		t.Error("governing entry not recorded")
	}
	got := d.GoverningAncestors(e(1, "C"), e(1, "F"))
	if !slices.Equal(got, []Entry{or}) {
		t.Errorf("GoverningAncestors = %v, want [%s]", got, or)
	}
	if got := d.GoverningAncestors(e(1, "F")); len(got) != 0 {
		t.Errorf("fact has governing ancestors %v", got)
	}
}

func TestDependencyMapRename(t *testing.T) {
	d := NewDependencyMap()
	d.Add(e(1, "A"), e(0, "A"))
	d.Add(e(1, "B"), e(1, "A"))
	d.Add(e(2, "C"), e(1, "B"))
	d.AddGoverning(e(1, "G"))

	d.Rename(1, 0)
	if d.Has(e(0, "A")) {
		t.Error("edge that became a self edge was kept")
	}
	if got := d.Parents(e(0, "B"), false); !slices.Equal(got, []Entry{e(0, "A")}) {
		t.Errorf("Parents(0:B) = %v", got)
	}
	if got := d.Parents(e(2, "C"), false); !slices.Equal(got, []Entry{e(0, "B")}) {
		t.Errorf("Parents(2:C) = %v", got)
	}
	if !d.IsGoverning(e(0, "G")) || d.IsGoverning(e(1, "G")) {
		t.Error("governing entry not renamed")
	}
	for _, x := range d.Entries() {
		if x.Node == 1 {
			t.Errorf("entry %s still names the renamed node", x)
		}
	}
}

func TestDependencyMapClone(t *testing.T) {
	d := NewDependencyMap()
	d.Add(e(0, "B"), e(0, "A"))
	c := d.Clone()
	c.Add(e(0, "C"), e(0, "B"))
	c.AddGoverning(e(0, "A"))
	if d.Has(e(0, "C")) || d.IsGoverning(e(0, "A")) {
		t.Error("mutating the clone changed the original")
	}
	d.Add(e(0, "D"), e(0, "A"))
	if c.Has(e(0, "D")) {
		t.Error("mutating the original changed the clone")
	}
}
