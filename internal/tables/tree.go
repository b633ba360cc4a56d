package tables

import "lineagecore/pkg/domain"

// Tree is the local genealogy at one genome position: a parent pointer per
// node, built from the edges whose interval covers the position.
type Tree struct {
	parent []domain.ID
}

// TreeAt builds the local tree covering the given position. Edges are
// non-overlapping per child by construction of the substrate, so the last
// covering edge per child is also the only one.
func (c *Collection) TreeAt(position float64) *Tree {
	parent := make([]domain.ID, c.Nodes.Len())
	for i := range parent {
		parent[i] = domain.NullID
	}
	for i := range c.Edges.Left {
		if c.Edges.Left[i] <= position && position < c.Edges.Right[i] {
			parent[c.Edges.Child[i]] = c.Edges.Parent[i]
		}
	}
	return &Tree{parent: parent}
}

// Parent returns the parent of node at this tree's position, or NullID at a
// root.
func (t *Tree) Parent(node domain.ID) domain.ID {
	if node < 0 || int(node) >= len(t.parent) {
		return domain.NullID
	}
	return t.parent[node]
}
