// Package kb reads knowledge bases from TOML files and builds the role box,
// TBox and ABox they describe.
//
// A knowledge base file looks like this:
//
//	axioms = ["(implies Parent Person)", "(equivalent Parent (some hasChild Person))"]
//
//	[[roles]]
//	name = "hasChild"
//	inverse = "hasParent"
//	parents = ["relative"]
//
//	[[roles]]
//	name = "age"
//	type = "data"
//	functional = true
//
//	[[individuals]]
//	name = "alice"
//	terms = ["Parent"]
//	different_from = ["bob"]
//
//	[[links]]
//	from = "alice"
//	role = "hasChild"
//	to = "bob"
//
//	[[links]]
//	from = "alice"
//	role = "age"
//	value = "42"
//
// Roles referenced only by terms or links need no declaration; they are
// object roles without sub-roles or characteristics.
package kb

import (
	"bytes"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tableau/pkg/errors"
)

// File is the decoded form of a knowledge base file.
type File struct {
	Axioms      []string     `toml:"axioms,omitempty" json:"axioms,omitempty"`
	Roles       []Role       `toml:"roles,omitempty" json:"roles,omitempty"`
	Individuals []Individual `toml:"individuals,omitempty" json:"individuals,omitempty"`
	Links       []Link       `toml:"links,omitempty" json:"links,omitempty"`
}

// Role declares a role and its characteristics.
type Role struct {
	Name              string   `toml:"name" json:"name"`
	Type              string   `toml:"type,omitempty" json:"type,omitempty"` // "object" (default) or "data"
	Functional        bool     `toml:"functional,omitempty" json:"functional,omitempty"`
	InverseFunctional bool     `toml:"inverse_functional,omitempty" json:"inverse_functional,omitempty"`
	Transitive        bool     `toml:"transitive,omitempty" json:"transitive,omitempty"`
	Symmetric         bool     `toml:"symmetric,omitempty" json:"symmetric,omitempty"`
	Reflexive         bool     `toml:"reflexive,omitempty" json:"reflexive,omitempty"`
	Inverse           string   `toml:"inverse,omitempty" json:"inverse,omitempty"`
	Parents           []string `toml:"parents,omitempty" json:"parents,omitempty"`
	Equivalent        []string `toml:"equivalent,omitempty" json:"equivalent,omitempty"`
	Domain            []string `toml:"domain,omitempty" json:"domain,omitempty"`
	Range             []string `toml:"range,omitempty" json:"range,omitempty"`
}

// Individual asserts a named individual, or a data value when Datatype is
// set, and the terms that hold for it.
type Individual struct {
	Name          string   `toml:"name" json:"name"`
	Datatype      bool     `toml:"datatype,omitempty" json:"datatype,omitempty"`
	Terms         []string `toml:"terms,omitempty" json:"terms,omitempty"`
	DifferentFrom []string `toml:"different_from,omitempty" json:"different_from,omitempty"`
}

// Link asserts a role link from an individual to another individual (To)
// or to a data value (Value).
type Link struct {
	From  string `toml:"from" json:"from"`
	Role  string `toml:"role" json:"role"`
	To    string `toml:"to,omitempty" json:"to,omitempty"`
	Value string `toml:"value,omitempty" json:"value,omitempty"`
}

// Parse decodes a knowledge base from TOML. Unknown keys are rejected so
// that typos do not silently drop assertions.
func Parse(data []byte) (*File, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode knowledge base")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeParse, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return &f, nil
}

// Read decodes a knowledge base from r.
func Read(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read knowledge base")
	}
	return Parse(data)
}

// Load decodes the knowledge base file at path.
func Load(path string) (*File, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "knowledge base %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "knowledge base %s", path)
	}
	return Parse(data)
}

// Encode writes f as TOML.
func (f *File) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(f)
}

// Canonical returns f re-encoded as TOML with roles, individuals and links
// sorted, so that files differing only in layout, comments or ordering map
// to the same bytes. It is the basis of cache keys.
func (f *File) Canonical() ([]byte, error) {
	c := File{
		Axioms:      sortedCopy(f.Axioms),
		Roles:       make([]Role, len(f.Roles)),
		Individuals: make([]Individual, len(f.Individuals)),
		Links:       append([]Link(nil), f.Links...),
	}
	for i, r := range f.Roles {
		r.Parents = sortedCopy(r.Parents)
		r.Equivalent = sortedCopy(r.Equivalent)
		r.Domain = sortedCopy(r.Domain)
		r.Range = sortedCopy(r.Range)
		c.Roles[i] = r
	}
	for i, ind := range f.Individuals {
		ind.Terms = sortedCopy(ind.Terms)
		ind.DifferentFrom = sortedCopy(ind.DifferentFrom)
		c.Individuals[i] = ind
	}
	sort.SliceStable(c.Roles, func(i, j int) bool { return c.Roles[i].Name < c.Roles[j].Name })
	sort.SliceStable(c.Individuals, func(i, j int) bool { return c.Individuals[i].Name < c.Individuals[j].Name })
	sort.SliceStable(c.Links, func(i, j int) bool {
		a, b := c.Links[i], c.Links[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Role != b.Role {
			return a.Role < b.Role
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Value < b.Value
	})

	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode knowledge base")
	}
	return buf.Bytes(), nil
}

func sortedCopy(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
