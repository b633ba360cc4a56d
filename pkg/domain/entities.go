// Package domain defines the entity value types, enums, and decoded metadata
// records shared by the lineagecore engine and its infrastructure layers.
package domain

// ID indexes a row in one of the columnar tables. The zero-based index is
// stable for the lifetime of a wrapped sequence.
type ID = int32

// NullID marks the absence of a table reference (no parent, no owning
// individual, no resolved mutation).
const NullID ID = -1

// ModelType identifies the lifecycle model the simulator ran under.
type ModelType string

// Supported lifecycle models.
const (
	// ModelWF is the discrete non-overlapping-generations model: individuals
	// are born after the early stage and live through exactly one late stage.
	ModelWF ModelType = "WF"
	// ModelNonWF is the overlapping-generations model with explicit aging.
	ModelNonWF ModelType = "nonWF"
)

// Valid reports whether the model type is one of the recognised values.
func (m ModelType) Valid() bool { return m == ModelWF || m == ModelNonWF }

// Stage is one of the two sub-phases of a simulator time step.
type Stage string

// Lifecycle stages within a single time step. Mortality happens between the
// two, so an individual's final time step ends after its last early stage.
const (
	StageEarly Stage = "early"
	StageLate  Stage = "late"
)

// Valid reports whether the stage is one of the recognised values.
func (s Stage) Valid() bool { return s == StageEarly || s == StageLate }

// IndividualFlags is the bitset stored in the individual table flags column.
type IndividualFlags uint32

// Status bits recorded by the simulator for each individual.
const (
	// IndividualAlive marks individuals alive at the end of the simulation.
	IndividualAlive IndividualFlags = 1 << 16
	// IndividualRemembered marks individuals explicitly retained by the
	// simulation script.
	IndividualRemembered IndividualFlags = 1 << 17
	// IndividualFirstGeneration marks founders retained so ancestry can later
	// be extended past the simulated window.
	IndividualFirstGeneration IndividualFlags = 1 << 18
)

// Alive reports whether the alive bit is set.
func (f IndividualFlags) Alive() bool { return f&IndividualAlive != 0 }

// Remembered reports whether the remembered bit is set.
func (f IndividualFlags) Remembered() bool { return f&IndividualRemembered != 0 }

// FirstGeneration reports whether the founder bit is set.
func (f IndividualFlags) FirstGeneration() bool { return f&IndividualFirstGeneration != 0 }

// NodeFlags is the bitset stored in the node table flags column.
type NodeFlags uint32

// NodeIsSample marks a node as a sample of the tree sequence.
const NodeIsSample NodeFlags = 1

// Sample reports whether the sample bit is set.
func (f NodeFlags) Sample() bool { return f&NodeIsSample != 0 }

// Sex encodes the recorded sex of an individual.
type Sex int32

// Recorded sex values. Hermaphrodite is the default for non-sexual models.
const (
	SexHermaphrodite Sex = -1
	SexFemale        Sex = 0
	SexMale          Sex = 1
)

// GenomeType tags the kind of chromosome a node represents.
type GenomeType uint8

// Genome type tags recorded in node metadata.
const (
	GenomeAutosome GenomeType = 0
	GenomeX        GenomeType = 1
	GenomeY        GenomeType = 2
)

// Nucleotide is an index into the four-symbol nucleotide alphabet.
type Nucleotide int8

// NucleotideNone marks mutation metadata recorded under a non-nucleotide model.
const NucleotideNone Nucleotide = -1

// Nucleotides is the alphabet indexed by Nucleotide values: a nucleotide k in
// mutation metadata means the base Nucleotides[k].
var Nucleotides = [4]byte{'A', 'C', 'G', 'T'}

// NucleotideFromBase returns the alphabet index of a base symbol.
func NucleotideFromBase(b byte) (Nucleotide, bool) {
	for i, n := range Nucleotides {
		if n == b {
			return Nucleotide(i), true
		}
	}
	return NucleotideNone, false
}

// Individual is an individual-table row overlaid with derived fields and
// decoded metadata. Time and Population are taken from the individual's nodes,
// which are required to agree.
type Individual struct {
	ID          ID
	Flags       IndividualFlags
	Location    [3]float64
	Nodes       []ID
	Time        float64
	Population  ID
	Metadata    IndividualMetadata
	HasMetadata bool
}

// Node is a node-table row overlaid with decoded metadata. Each node is one
// genome copy; diploid individuals own two.
type Node struct {
	ID          ID
	Flags       NodeFlags
	Time        float64
	Population  ID
	Individual  ID
	Metadata    NodeMetadata
	HasMetadata bool
}

// Edge records that Child inherits from Parent over the half-open genomic
// interval [Left, Right).
type Edge struct {
	ID     ID
	Left   float64
	Right  float64
	Parent ID
	Child  ID
}

// Site is a genome position carrying mutations.
type Site struct {
	ID             ID
	Position       float64
	AncestralState string
}

// Mutation is a mutation-table row overlaid with decoded stacked metadata.
// Parent is the mutation this one replaced at the same site, or NullID.
type Mutation struct {
	ID           ID
	Site         ID
	Node         ID
	Parent       ID
	DerivedState string
	Metadata     []MutationMetadata
	HasMetadata  bool
}

// Population is a population-table row overlaid with decoded metadata.
// Populations referenced only to pad the index space carry no metadata.
type Population struct {
	ID          ID
	Metadata    PopulationMetadata
	HasMetadata bool
}
