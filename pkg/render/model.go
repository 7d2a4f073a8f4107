package render

import (
	"github.com/matzehuels/tableau/pkg/abox"
)

// Model is a serializable snapshot of an ABox.
type Model struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node is one node of a Model.
type Node struct {
	ID       int64    `json:"id"`
	Label    string   `json:"label"`
	Names    []string `json:"names,omitempty"`
	Datatype bool     `json:"datatype,omitempty"`
	Terms    []string `json:"terms,omitempty"`
	Retired  []string `json:"retired,omitempty"`
}

// Link is one told role link of a Model.
type Link struct {
	From int64  `json:"from"`
	Role string `json:"role"`
	To   int64  `json:"to"`
}

// Snapshot captures a. Nodes and links are in id order. A nil ABox yields
// an empty Model.
func Snapshot(a *abox.ABox) *Model {
	m := &Model{Nodes: []Node{}, Links: []Link{}}
	if a == nil {
		return m
	}
	for _, n := range a.Nodes() {
		node := Node{
			ID:       int64(n.ID()),
			Label:    n.Name(),
			Names:    n.Names(),
			Datatype: n.IsDatatype(),
		}
		for _, t := range n.Terms() {
			node.Terms = append(node.Terms, t.String())
		}
		for _, t := range n.Retired() {
			node.Retired = append(node.Retired, t.String())
		}
		m.Nodes = append(m.Nodes, node)

		for _, role := range n.OutRoles() {
			for _, to := range n.Told(role) {
				m.Links = append(m.Links, Link{From: int64(n.ID()), Role: role, To: int64(to)})
			}
		}
	}
	return m
}

// Node returns the node with the given id, or nil.
func (m *Model) Node(id int64) *Node {
	for i := range m.Nodes {
		if m.Nodes[i].ID == id {
			return &m.Nodes[i]
		}
	}
	return nil
}
