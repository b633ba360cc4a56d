// Package core implements the temporal-lifecycle and ancestry-reconstruction
// engine over the columnar tables substrate: wrapping a table collection with
// derived per-individual caches, resolving alive/dead status and ages against
// the simulator's discrete two-stage clock, certifying parent/offspring
// relationships from edge topology, and resolving point-in-time genetic state
// for a lineage node.
package core

import (
	"math"
	"time"

	"lineagecore/internal/metadata"
	"lineagecore/internal/tables"
	"lineagecore/pkg/domain"
)

// Sequence is an immutable wrapped view of a table collection. All derived
// arrays are computed once at wrap time; edit paths clone the tables and
// rewrap, leaving existing instances untouched.
type Sequence struct {
	col               *tables.Collection
	referenceSequence string

	modelType     domain.ModelType
	generation    int
	formatVersion string

	individualTimes       []float64
	individualPopulations []domain.ID
	individualAges        []int32
	individualNodes       [][]domain.ID

	warn      WarningSink
	collector *WarningCollector
	metrics   MetricsRecorder
}

type sequenceOptions struct {
	referenceSequence string
	warn              WarningSink
	metrics           MetricsRecorder
}

// Option configures sequence construction.
type Option func(*sequenceOptions)

// WithReferenceSequence attaches a nucleotide reference sequence. Its length
// must equal the genome length; supplying one enables nucleotide queries.
func WithReferenceSequence(ref string) Option {
	return func(o *sequenceOptions) { o.referenceSequence = ref }
}

// WithWarningSink routes compatibility warnings to the given sink instead of
// the sequence's internal collector.
func WithWarningSink(sink WarningSink) Option {
	return func(o *sequenceOptions) { o.warn = sink }
}

// WithMetrics records query timings through the given recorder.
func WithMetrics(rec MetricsRecorder) Option {
	return func(o *sequenceOptions) { o.metrics = rec }
}

// New validates the collection and wraps it. The collection is treated as
// immutable from here on; if its schema version predates
// CurrentFormatVersion it is upgraded on a clone first and a compatibility
// warning is emitted. Construction fails with a ValidationError when any
// individual's nodes disagree on time or population, when the reference
// sequence does not span the genome, or when no simulator provenance record
// is present.
func New(col *tables.Collection, opts ...Option) (*Sequence, error) {
	var o sequenceOptions
	for _, opt := range opts {
		opt(&o)
	}
	s := &Sequence{referenceSequence: o.referenceSequence, metrics: o.metrics}
	if o.warn != nil {
		s.warn = o.warn
	} else {
		s.collector = &WarningCollector{}
		s.warn = s.collector.Sink()
	}

	prov, err := lastSimulatorProvenance(col)
	if err != nil {
		return nil, err
	}
	if prov.FormatVersion != CurrentFormatVersion {
		col, err = upgradeCollection(col, prov, s.warn)
		if err != nil {
			return nil, err
		}
		prov, err = lastSimulatorProvenance(col)
		if err != nil {
			return nil, err
		}
	}
	if err := col.CheckIntegrity(); err != nil {
		return nil, validationf("wrap", "%v", err)
	}
	if s.referenceSequence != "" {
		if len(s.referenceSequence) != int(col.SequenceLength) {
			return nil, validationf("wrap", "reference sequence has length %d, want %d",
				len(s.referenceSequence), int(col.SequenceLength))
		}
		for i := 0; i < len(s.referenceSequence); i++ {
			if _, ok := domain.NucleotideFromBase(s.referenceSequence[i]); !ok {
				return nil, validationf("wrap", "reference sequence has invalid base %q at position %d",
					s.referenceSequence[i], i)
			}
		}
	}

	s.col = col
	s.modelType = prov.ModelType
	s.generation = prov.Generation
	s.formatVersion = prov.FormatVersion
	if err := s.derive(); err != nil {
		return nil, err
	}
	return s, nil
}

// derive computes the per-individual cached arrays, failing when an
// individual's nodes disagree on time or population.
func (s *Sequence) derive() error {
	n := s.col.Individuals.Len()
	s.individualTimes = make([]float64, n)
	s.individualPopulations = make([]domain.ID, n)
	s.individualNodes = make([][]domain.ID, n)
	seen := make([]bool, n)
	for i := range s.individualTimes {
		s.individualTimes[i] = math.NaN()
		s.individualPopulations[i] = domain.NullID
	}
	for node := 0; node < s.col.Nodes.Len(); node++ {
		ind := s.col.Nodes.Individual[node]
		if ind == domain.NullID {
			continue
		}
		if !seen[ind] {
			seen[ind] = true
			s.individualTimes[ind] = s.col.Nodes.Time[node]
			s.individualPopulations[ind] = s.col.Nodes.Population[node]
		} else {
			if s.col.Nodes.Time[node] != s.individualTimes[ind] {
				return validationf("wrap", "individual %d has nodes from more than one time", ind)
			}
			if s.col.Nodes.Population[node] != s.individualPopulations[ind] {
				return validationf("wrap", "individual %d has nodes from more than one population", ind)
			}
		}
		s.individualNodes[ind] = append(s.individualNodes[ind], domain.ID(node))
	}

	s.individualAges = make([]int32, n)
	if s.modelType != domain.ModelWF {
		for i := 0; i < n; i++ {
			md, err := metadata.DecodeIndividual(s.col.Individuals.Metadata.At(i))
			if err != nil {
				return validationf("wrap", "individual %d has undecodable metadata required for aging: %v", i, err)
			}
			s.individualAges[i] = md.Age
		}
	}
	return nil
}

// Tables returns the wrapped collection. Callers must treat it as read-only;
// edits go through Clone on the collection followed by a fresh New.
func (s *Sequence) Tables() *tables.Collection { return s.col }

// ReferenceSequence returns the attached reference sequence, or "".
func (s *Sequence) ReferenceSequence() string { return s.referenceSequence }

// ModelType returns the lifecycle model the tables were produced under.
func (s *Sequence) ModelType() domain.ModelType { return s.modelType }

// Generation returns the simulator's time step counter at write-out.
func (s *Sequence) Generation() int { return s.generation }

// FormatVersion returns the schema version of the wrapped tables.
func (s *Sequence) FormatVersion() string { return s.formatVersion }

// SequenceLength returns the total genome length.
func (s *Sequence) SequenceLength() float64 { return s.col.SequenceLength }

// NumIndividuals returns the number of individual rows.
func (s *Sequence) NumIndividuals() int { return s.col.Individuals.Len() }

// NumNodes returns the number of node rows.
func (s *Sequence) NumNodes() int { return s.col.Nodes.Len() }

// NumMutations returns the number of mutation rows.
func (s *Sequence) NumMutations() int { return s.col.Mutations.Len() }

// IndividualTimes returns the cached per-individual birth times ago. Entries
// for individuals without nodes are NaN. The slice is shared; do not mutate.
func (s *Sequence) IndividualTimes() []float64 { return s.individualTimes }

// IndividualPopulations returns the cached per-individual populations, NullID
// for individuals without nodes. The slice is shared; do not mutate.
func (s *Sequence) IndividualPopulations() []domain.ID { return s.individualPopulations }

// IndividualAges returns the cached per-individual last-observed ages. Always
// zero under WF models, which have no persisted aging concept. The slice is
// shared; do not mutate.
func (s *Sequence) IndividualAges() []int32 { return s.individualAges }

// Provenance returns the most recent simulator provenance record.
func (s *Sequence) Provenance() domain.ProvenanceInfo {
	return domain.ProvenanceInfo{
		FormatVersion: s.formatVersion,
		ModelType:     s.modelType,
		Generation:    s.generation,
	}
}

// Provenances returns every simulator provenance record in table order.
func (s *Sequence) Provenances() ([]domain.ProvenanceInfo, error) {
	return simulatorProvenances(s.col)
}

// Warnings returns the compatibility warnings collected so far. Empty when a
// custom sink was installed.
func (s *Sequence) Warnings() []string {
	if s.collector == nil {
		return nil
	}
	return s.collector.Warnings()
}

// Individual returns the individual record with derived time/population and
// decoded metadata overlaid. A failed metadata decode leaves HasMetadata
// false rather than failing the call.
func (s *Sequence) Individual(id domain.ID) (domain.Individual, error) {
	if id < 0 || int(id) >= s.col.Individuals.Len() {
		return domain.Individual{}, validationf("individual", "id %d out of range", id)
	}
	ind := domain.Individual{
		ID:         id,
		Flags:      domain.IndividualFlags(s.col.Individuals.Flags[id]),
		Nodes:      append([]domain.ID(nil), s.individualNodes[id]...),
		Time:       s.individualTimes[id],
		Population: s.individualPopulations[id],
	}
	loc := s.col.Individuals.Location.At(int(id))
	for i := 0; i < len(loc) && i < 3; i++ {
		ind.Location[i] = loc[i]
	}
	if md, err := metadata.DecodeIndividual(s.col.Individuals.Metadata.At(int(id))); err == nil {
		ind.Metadata = md
		ind.HasMetadata = true
	}
	return ind, nil
}

// Node returns the node record with decoded metadata overlaid.
func (s *Sequence) Node(id domain.ID) (domain.Node, error) {
	if id < 0 || int(id) >= s.col.Nodes.Len() {
		return domain.Node{}, validationf("node", "id %d out of range", id)
	}
	nd := domain.Node{
		ID:         id,
		Flags:      domain.NodeFlags(s.col.Nodes.Flags[id]),
		Time:       s.col.Nodes.Time[id],
		Population: s.col.Nodes.Population[id],
		Individual: s.col.Nodes.Individual[id],
	}
	if md, err := metadata.DecodeNode(s.col.Nodes.Metadata.At(int(id))); err == nil {
		nd.Metadata = md
		nd.HasMetadata = true
	}
	return nd, nil
}

// Mutation returns the mutation record with its decoded metadata stack
// overlaid.
func (s *Sequence) Mutation(id domain.ID) (domain.Mutation, error) {
	if id < 0 || int(id) >= s.col.Mutations.Len() {
		return domain.Mutation{}, validationf("mutation", "id %d out of range", id)
	}
	mut := domain.Mutation{
		ID:           id,
		Site:         s.col.Mutations.Site[id],
		Node:         s.col.Mutations.Node[id],
		Parent:       s.col.Mutations.Parent[id],
		DerivedState: s.col.Mutations.DerivedState[id],
	}
	if entries, err := metadata.DecodeMutation(s.col.Mutations.Metadata.At(int(id))); err == nil {
		mut.Metadata = entries
		mut.HasMetadata = true
	}
	return mut, nil
}

// Population returns the population record with decoded metadata overlaid.
// Index-padding populations keep HasMetadata false.
func (s *Sequence) Population(id domain.ID) (domain.Population, error) {
	if id < 0 || int(id) >= s.col.Populations.Len() {
		return domain.Population{}, validationf("population", "id %d out of range", id)
	}
	pop := domain.Population{ID: id}
	if md, err := metadata.DecodePopulation(s.col.Populations.Metadata.At(int(id))); err == nil {
		pop.Metadata = md
		pop.HasMetadata = true
	}
	return pop, nil
}

// Edge returns the edge record.
func (s *Sequence) Edge(id domain.ID) (domain.Edge, error) {
	if id < 0 || int(id) >= s.col.Edges.Len() {
		return domain.Edge{}, validationf("edge", "id %d out of range", id)
	}
	return domain.Edge{
		ID:     id,
		Left:   s.col.Edges.Left[id],
		Right:  s.col.Edges.Right[id],
		Parent: s.col.Edges.Parent[id],
		Child:  s.col.Edges.Child[id],
	}, nil
}

// Site returns the site record.
func (s *Sequence) Site(id domain.ID) (domain.Site, error) {
	if id < 0 || int(id) >= s.col.Sites.Len() {
		return domain.Site{}, validationf("site", "id %d out of range", id)
	}
	return domain.Site{
		ID:             id,
		Position:       s.col.Sites.Position[id],
		AncestralState: s.col.Sites.AncestralState[id],
	}, nil
}

// observe returns a completion callback recording the operation outcome, or a
// no-op when no recorder is installed.
func (s *Sequence) observe(op string) func(err error) {
	if s.metrics == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		s.metrics.Observe(op, err == nil, time.Since(start))
	}
}
