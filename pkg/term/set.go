package term

import (
	"slices"
	"strings"
)

// Sort orders ts canonically in place.
func Sort(ts []*Term) {
	slices.SortFunc(ts, Compare)
}

// Set is a sorted set of terms keyed by canonical key.
//
// The zero value is an empty set ready to use. Sets are not safe for
// concurrent mutation. Use [Set.Clone] to obtain an independent copy.
type Set struct {
	items  map[string]*Term
	sorted []*Term // cached ascending order; nil when stale
}

// NewSet returns a set containing ts.
func NewSet(ts ...*Term) *Set {
	s := &Set{}
	for _, t := range ts {
		s.Add(t)
	}
	return s
}

// Add inserts t and reports whether it was not already present.
func (s *Set) Add(t *Term) bool {
	if s.items == nil {
		s.items = make(map[string]*Term)
	}
	if _, ok := s.items[t.key]; ok {
		return false
	}
	s.items[t.key] = t
	s.sorted = nil
	return true
}

// Remove deletes t and reports whether it was present.
func (s *Set) Remove(t *Term) bool {
	if _, ok := s.items[t.key]; !ok {
		return false
	}
	delete(s.items, t.key)
	s.sorted = nil
	return true
}

// Contains reports whether t is in the set.
func (s *Set) Contains(t *Term) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[t.key]
	return ok
}

// Len returns the number of terms.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Sorted returns the terms in canonical order. The returned slice is a
// copy and may be modified by the caller.
func (s *Set) Sorted() []*Term {
	if s == nil || len(s.items) == 0 {
		return nil
	}
	if s.sorted == nil {
		s.sorted = make([]*Term, 0, len(s.items))
		for _, t := range s.items {
			s.sorted = append(s.sorted, t)
		}
		Sort(s.sorted)
	}
	return slices.Clone(s.sorted)
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	c := &Set{}
	if s == nil || len(s.items) == 0 {
		return c
	}
	c.items = make(map[string]*Term, len(s.items))
	for k, t := range s.items {
		c.items[k] = t
	}
	return c
}

// SubsetOf reports whether every term of s is in o.
func (s *Set) SubsetOf(o *Set) bool {
	if s.Len() > o.Len() {
		return false
	}
	for k := range s.items {
		if _, ok := o.items[k]; !ok {
			return false
		}
	}
	return true
}

// Equal reports whether s and o contain the same terms.
func (s *Set) Equal(o *Set) bool {
	return s.Len() == o.Len() && s.SubsetOf(o)
}

// String returns the terms separated by spaces and wrapped in braces.
func (s *Set) String() string {
	keys := make([]string, 0, s.Len())
	for _, t := range s.Sorted() {
		keys = append(keys, t.key)
	}
	return "{" + strings.Join(keys, " ") + "}"
}
