package domain

// IndividualMetadata is the decoded per-individual record packed into the
// individual table's metadata column by the simulator.
type IndividualMetadata struct {
	PedigreeID int64
	Age        int32
	Population ID
	Sex        Sex
	Flags      uint32
}

// NodeMetadata is the decoded per-node record. GenomeID is the simulator's
// own identifier for the genome copy.
type NodeMetadata struct {
	GenomeID   int64
	IsNull     bool
	GenomeType GenomeType
}

// MutationMetadata is one stacked entry of a mutation row's metadata. Several
// entries accumulate on one row when mutation events co-locate at the same
// site and node.
type MutationMetadata struct {
	MutationType   int32
	SelectionCoeff float32
	Population     ID
	OriginTime     int32
	Nucleotide     Nucleotide
}

// MigrationRecord is one per-population migration entry: a fraction of the
// population arrives from Source each time step.
type MigrationRecord struct {
	Source ID
	Rate   float64
}

// PopulationMetadata is the decoded per-population demographic record.
type PopulationMetadata struct {
	PopulationID          ID
	SelfingFraction       float64
	FemaleCloningFraction float64
	MaleCloningFraction   float64
	SexRatio              float64
	BoundsX0              float64
	BoundsX1              float64
	BoundsY0              float64
	BoundsY1              float64
	BoundsZ0              float64
	BoundsZ1              float64
	MigrationRecords      []MigrationRecord
}

// ProvenanceInfo is the simulator-authored slice of one provenance record:
// the format version the tables were written under, the lifecycle model, and
// the simulator's time step counter at the time of writing.
type ProvenanceInfo struct {
	FormatVersion string
	ModelType     ModelType
	Generation    int
}
