// Package tables implements the immutable columnar substrate the engine reads:
// node, edge, individual, site, mutation, population, migration, and
// provenance tables with stable column semantics, plus deep cloning for the
// copy-then-mutate edit discipline and a local-tree builder for ancestry
// walks.
package tables

import (
	"fmt"

	"lineagecore/pkg/domain"
)

// NodeTable holds one genome copy per row.
type NodeTable struct {
	Flags      []uint32     `json:"flags"`
	Time       []float64    `json:"time"`
	Population []domain.ID  `json:"population"`
	Individual []domain.ID  `json:"individual"`
	Metadata   RaggedBytes  `json:"metadata"`
}

// Len returns the number of node rows.
func (t NodeTable) Len() int { return len(t.Time) }

// Append adds a node row and returns its index.
func (t *NodeTable) Append(flags uint32, time float64, population, individual domain.ID, metadata []byte) domain.ID {
	t.Flags = append(t.Flags, flags)
	t.Time = append(t.Time, time)
	t.Population = append(t.Population, population)
	t.Individual = append(t.Individual, individual)
	t.Metadata.Append(metadata)
	return domain.ID(len(t.Time) - 1)
}

// EdgeTable holds parent/child inheritance intervals.
type EdgeTable struct {
	Left   []float64   `json:"left"`
	Right  []float64   `json:"right"`
	Parent []domain.ID `json:"parent"`
	Child  []domain.ID `json:"child"`
}

// Len returns the number of edge rows.
func (t EdgeTable) Len() int { return len(t.Left) }

// Append adds an edge row and returns its index.
func (t *EdgeTable) Append(left, right float64, parent, child domain.ID) domain.ID {
	t.Left = append(t.Left, left)
	t.Right = append(t.Right, right)
	t.Parent = append(t.Parent, parent)
	t.Child = append(t.Child, child)
	return domain.ID(len(t.Left) - 1)
}

// IndividualTable holds one organism per row.
type IndividualTable struct {
	Flags    []uint32     `json:"flags"`
	Location RaggedFloats `json:"location"`
	Metadata RaggedBytes  `json:"metadata"`
}

// Len returns the number of individual rows.
func (t IndividualTable) Len() int { return len(t.Flags) }

// Append adds an individual row and returns its index.
func (t *IndividualTable) Append(flags uint32, location []float64, metadata []byte) domain.ID {
	t.Flags = append(t.Flags, flags)
	t.Location.Append(location)
	t.Metadata.Append(metadata)
	return domain.ID(len(t.Flags) - 1)
}

// SiteTable holds mutated genome positions.
type SiteTable struct {
	Position       []float64 `json:"position"`
	AncestralState []string  `json:"ancestral_state"`
}

// Len returns the number of site rows.
func (t SiteTable) Len() int { return len(t.Position) }

// Append adds a site row and returns its index.
func (t *SiteTable) Append(position float64, ancestralState string) domain.ID {
	t.Position = append(t.Position, position)
	t.AncestralState = append(t.AncestralState, ancestralState)
	return domain.ID(len(t.Position) - 1)
}

// Lookup returns the index of the site at the given position, or NullID.
func (t SiteTable) Lookup(position float64) domain.ID {
	for i, p := range t.Position {
		if p == position {
			return domain.ID(i)
		}
	}
	return domain.NullID
}

// MutationTable holds mutation events attached to sites and nodes.
type MutationTable struct {
	Site         []domain.ID `json:"site"`
	Node         []domain.ID `json:"node"`
	Parent       []domain.ID `json:"parent"`
	DerivedState []string    `json:"derived_state"`
	Metadata     RaggedBytes `json:"metadata"`
}

// Len returns the number of mutation rows.
func (t MutationTable) Len() int { return len(t.Site) }

// Append adds a mutation row and returns its index.
func (t *MutationTable) Append(site, node, parent domain.ID, derivedState string, metadata []byte) domain.ID {
	t.Site = append(t.Site, site)
	t.Node = append(t.Node, node)
	t.Parent = append(t.Parent, parent)
	t.DerivedState = append(t.DerivedState, derivedState)
	t.Metadata.Append(metadata)
	return domain.ID(len(t.Site) - 1)
}

// PopulationTable holds one row per population index; unused index-padding
// rows carry empty metadata.
type PopulationTable struct {
	Metadata RaggedBytes `json:"metadata"`
}

// Len returns the number of population rows.
func (t PopulationTable) Len() int { return t.Metadata.Len() }

// Append adds a population row and returns its index.
func (t *PopulationTable) Append(metadata []byte) domain.ID {
	return domain.ID(t.Metadata.Append(metadata))
}

// MigrationTable records ancestral migration events.
type MigrationTable struct {
	Left   []float64   `json:"left"`
	Right  []float64   `json:"right"`
	Node   []domain.ID `json:"node"`
	Source []domain.ID `json:"source"`
	Dest   []domain.ID `json:"dest"`
	Time   []float64   `json:"time"`
}

// Len returns the number of migration rows.
func (t MigrationTable) Len() int { return len(t.Time) }

// ProvenanceTable is the append-only history of JSON provenance records.
type ProvenanceTable struct {
	Timestamp []string `json:"timestamp"`
	Record    []string `json:"record"`
}

// Len returns the number of provenance rows.
func (t ProvenanceTable) Len() int { return len(t.Record) }

// Append adds a provenance row and returns its index.
func (t *ProvenanceTable) Append(timestamp, record string) domain.ID {
	t.Timestamp = append(t.Timestamp, timestamp)
	t.Record = append(t.Record, record)
	return domain.ID(len(t.Record) - 1)
}

// Collection is the full table set describing one tree sequence. Wrapped
// collections are treated as immutable; every edit path works on a Clone.
type Collection struct {
	SequenceLength float64         `json:"sequence_length"`
	Nodes          NodeTable       `json:"nodes"`
	Edges          EdgeTable       `json:"edges"`
	Individuals    IndividualTable `json:"individuals"`
	Sites          SiteTable       `json:"sites"`
	Mutations      MutationTable   `json:"mutations"`
	Populations    PopulationTable `json:"populations"`
	Migrations     MigrationTable  `json:"migrations"`
	Provenances    ProvenanceTable `json:"provenances"`
}

// New returns an empty collection over a genome of the given length.
func New(sequenceLength float64) *Collection {
	return &Collection{
		SequenceLength: sequenceLength,
		Nodes:          NodeTable{Metadata: NewRaggedBytes()},
		Individuals:    IndividualTable{Location: NewRaggedFloats(), Metadata: NewRaggedBytes()},
		Mutations:      MutationTable{Metadata: NewRaggedBytes()},
		Populations:    PopulationTable{Metadata: NewRaggedBytes()},
	}
}

// Clone returns a deep copy of the collection, the staging copy for any edit.
func (c *Collection) Clone() *Collection {
	out := &Collection{SequenceLength: c.SequenceLength}
	out.Nodes = NodeTable{
		Flags:      append([]uint32(nil), c.Nodes.Flags...),
		Time:       append([]float64(nil), c.Nodes.Time...),
		Population: append([]domain.ID(nil), c.Nodes.Population...),
		Individual: append([]domain.ID(nil), c.Nodes.Individual...),
		Metadata:   c.Nodes.Metadata.Clone(),
	}
	out.Edges = EdgeTable{
		Left:   append([]float64(nil), c.Edges.Left...),
		Right:  append([]float64(nil), c.Edges.Right...),
		Parent: append([]domain.ID(nil), c.Edges.Parent...),
		Child:  append([]domain.ID(nil), c.Edges.Child...),
	}
	out.Individuals = IndividualTable{
		Flags:    append([]uint32(nil), c.Individuals.Flags...),
		Location: c.Individuals.Location.Clone(),
		Metadata: c.Individuals.Metadata.Clone(),
	}
	out.Sites = SiteTable{
		Position:       append([]float64(nil), c.Sites.Position...),
		AncestralState: append([]string(nil), c.Sites.AncestralState...),
	}
	out.Mutations = MutationTable{
		Site:         append([]domain.ID(nil), c.Mutations.Site...),
		Node:         append([]domain.ID(nil), c.Mutations.Node...),
		Parent:       append([]domain.ID(nil), c.Mutations.Parent...),
		DerivedState: append([]string(nil), c.Mutations.DerivedState...),
		Metadata:     c.Mutations.Metadata.Clone(),
	}
	out.Populations = PopulationTable{Metadata: c.Populations.Metadata.Clone()}
	out.Migrations = MigrationTable{
		Left:   append([]float64(nil), c.Migrations.Left...),
		Right:  append([]float64(nil), c.Migrations.Right...),
		Node:   append([]domain.ID(nil), c.Migrations.Node...),
		Source: append([]domain.ID(nil), c.Migrations.Source...),
		Dest:   append([]domain.ID(nil), c.Migrations.Dest...),
		Time:   append([]float64(nil), c.Migrations.Time...),
	}
	out.Provenances = ProvenanceTable{
		Timestamp: append([]string(nil), c.Provenances.Timestamp...),
		Record:    append([]string(nil), c.Provenances.Record...),
	}
	return out
}

// CheckIntegrity validates cross-table references and column lengths.
func (c *Collection) CheckIntegrity() error {
	n := c.Nodes.Len()
	if len(c.Nodes.Flags) != n || len(c.Nodes.Population) != n ||
		len(c.Nodes.Individual) != n || c.Nodes.Metadata.Len() != n {
		return fmt.Errorf("node table columns disagree on length")
	}
	e := c.Edges.Len()
	if len(c.Edges.Right) != e || len(c.Edges.Parent) != e || len(c.Edges.Child) != e {
		return fmt.Errorf("edge table columns disagree on length")
	}
	ind := c.Individuals.Len()
	if c.Individuals.Location.Len() != ind || c.Individuals.Metadata.Len() != ind {
		return fmt.Errorf("individual table columns disagree on length")
	}
	m := c.Mutations.Len()
	if len(c.Mutations.Node) != m || len(c.Mutations.Parent) != m ||
		len(c.Mutations.DerivedState) != m || c.Mutations.Metadata.Len() != m {
		return fmt.Errorf("mutation table columns disagree on length")
	}
	if len(c.Sites.AncestralState) != c.Sites.Len() {
		return fmt.Errorf("site table columns disagree on length")
	}
	g := c.Migrations.Len()
	if len(c.Migrations.Left) != g || len(c.Migrations.Right) != g ||
		len(c.Migrations.Node) != g || len(c.Migrations.Source) != g || len(c.Migrations.Dest) != g {
		return fmt.Errorf("migration table columns disagree on length")
	}
	if len(c.Provenances.Timestamp) != c.Provenances.Len() {
		return fmt.Errorf("provenance table columns disagree on length")
	}
	for i, owner := range c.Nodes.Individual {
		if owner != domain.NullID && (owner < 0 || int(owner) >= ind) {
			return fmt.Errorf("node %d references individual %d out of range", i, owner)
		}
	}
	for i := range c.Edges.Left {
		if c.Edges.Left[i] >= c.Edges.Right[i] {
			return fmt.Errorf("edge %d has empty interval [%g, %g)", i, c.Edges.Left[i], c.Edges.Right[i])
		}
		if int(c.Edges.Parent[i]) >= n || int(c.Edges.Child[i]) >= n ||
			c.Edges.Parent[i] < 0 || c.Edges.Child[i] < 0 {
			return fmt.Errorf("edge %d references node out of range", i)
		}
	}
	for i, site := range c.Mutations.Site {
		if site < 0 || int(site) >= c.Sites.Len() {
			return fmt.Errorf("mutation %d references site %d out of range", i, site)
		}
		if c.Mutations.Node[i] < 0 || int(c.Mutations.Node[i]) >= n {
			return fmt.Errorf("mutation %d references node out of range", i)
		}
	}
	return nil
}
