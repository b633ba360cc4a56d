package core

import (
	"sort"

	"lineagecore/internal/metadata"
	"lineagecore/internal/tables"
	"lineagecore/pkg/domain"
)

// Annotate takes a generic ancestry result (tables without simulator
// annotations, as produced by a coalescent backend) and fills in the default
// metadata the simulator needs to adopt it as an initial state: diploid
// individuals over the sample nodes, population demographics, mutation
// records, and a provenance pair. The input collection is not modified; the
// annotated clone is wrapped and returned.
func Annotate(col *tables.Collection, modelType domain.ModelType, generation int, opts ...Option) (*Sequence, error) {
	staged := col.Clone()
	if err := AnnotateTables(staged, modelType, generation); err != nil {
		return nil, err
	}
	return New(staged, opts...)
}

// AnnotateTables does the work of Annotate in place on the supplied staging
// copy. Generation must be at least 1; sample nodes must come in pairs since
// individuals are diploid.
func AnnotateTables(col *tables.Collection, modelType domain.ModelType, generation int) error {
	if !modelType.Valid() {
		return configurationf("annotate", "model type must be %q or %q", domain.ModelWF, domain.ModelNonWF)
	}
	if generation < 1 {
		return validationf("annotate", "generation must be at least 1")
	}
	// WF tables carry no aging concept; the simulator expects -1 there.
	defaultAge := int32(0)
	if modelType == domain.ModelWF {
		defaultAge = -1
	}
	if err := annotateNodesIndividuals(col, defaultAge); err != nil {
		return err
	}
	if err := annotatePopulations(col); err != nil {
		return err
	}
	annotateMutations(col)
	return appendProvenancePair(col, modelType, generation)
}

// annotateNodesIndividuals pairs consecutive sample nodes into diploid
// individuals and writes default individual and node metadata. It replaces
// any existing individual table.
func annotateNodesIndividuals(col *tables.Collection, defaultAge int32) error {
	var samples []domain.ID
	for i := 0; i < col.Nodes.Len(); i++ {
		if domain.NodeFlags(col.Nodes.Flags[i]).Sample() {
			samples = append(samples, domain.ID(i))
		}
	}
	if len(samples)%2 != 0 {
		return validationf("annotate", "there must be an even number of sample nodes, since organisms are diploid")
	}
	numIndividuals := len(samples) / 2

	nodeIndividual := make([]domain.ID, col.Nodes.Len())
	for i := range nodeIndividual {
		nodeIndividual[i] = domain.NullID
	}
	individualPopulation := make([]domain.ID, numIndividuals)
	for i := range individualPopulation {
		individualPopulation[i] = domain.NullID
	}
	for j, node := range samples {
		ind := domain.ID(j / 2)
		nodeIndividual[node] = ind
		if individualPopulation[ind] == domain.NullID {
			individualPopulation[ind] = col.Nodes.Population[node]
		} else if individualPopulation[ind] != col.Nodes.Population[node] {
			return validationf("annotate", "inconsistent populations: nodes of individual %d do not agree", ind)
		}
	}

	// Genome ids: samples first in order, then the remaining nodes by index.
	genomeID := make([]int64, col.Nodes.Len())
	isSample := make([]bool, col.Nodes.Len())
	for _, node := range samples {
		isSample[node] = true
	}
	var rest []int
	for i := range genomeID {
		if !isSample[i] {
			rest = append(rest, i)
		}
	}
	sort.Ints(rest)
	next := int64(0)
	for _, node := range samples {
		genomeID[node] = next
		next++
	}
	for _, node := range rest {
		genomeID[node] = next
		next++
	}

	col.Individuals = tables.IndividualTable{
		Location: tables.NewRaggedFloats(),
		Metadata: tables.NewRaggedBytes(),
	}
	for i := 0; i < numIndividuals; i++ {
		col.Individuals.Append(uint32(domain.IndividualAlive), []float64{0, 0, 0},
			metadata.EncodeIndividual(domain.IndividualMetadata{
				PedigreeID: int64(i),
				Age:        defaultAge,
				Population: individualPopulation[i],
				Sex:        domain.SexHermaphrodite,
			}))
	}

	nodeRecords := make([][]byte, col.Nodes.Len())
	for i := range nodeRecords {
		if isSample[i] {
			nodeRecords[i] = metadata.EncodeNode(domain.NodeMetadata{
				GenomeID:   genomeID[i],
				GenomeType: domain.GenomeAutosome,
			})
		}
	}
	col.Nodes.Individual = nodeIndividual
	col.Nodes.Metadata.Set(nodeRecords)
	return nil
}

// annotatePopulations writes default demographic metadata for every
// population index referenced by the nodes, replacing any existing rows.
func annotatePopulations(col *tables.Collection) error {
	numPops := domain.ID(0)
	for _, pop := range col.Nodes.Population {
		if pop+1 > numPops {
			numPops = pop + 1
		}
	}
	for i := 0; i < col.Individuals.Len(); i++ {
		md, err := metadata.DecodeIndividual(col.Individuals.Metadata.At(i))
		if err != nil {
			return validationf("annotate", "individuals do not have metadata: annotate nodes and individuals first")
		}
		if md.Population >= numPops {
			return validationf("annotate", "individual %d references population %d beyond the node populations", i, md.Population)
		}
	}
	col.Populations = tables.PopulationTable{Metadata: tables.NewRaggedBytes()}
	for id := domain.ID(0); id < numPops; id++ {
		col.Populations.Append(metadata.EncodePopulation(domain.PopulationMetadata{
			PopulationID: id,
			SexRatio:     0.5,
		}))
	}
	return nil
}

// annotateMutations writes a default single-entry metadata stack for every
// mutation row, replacing any existing metadata.
func annotateMutations(col *tables.Collection) {
	records := make([][]byte, col.Mutations.Len())
	for i := range records {
		records[i] = metadata.EncodeMutation([]domain.MutationMetadata{{
			MutationType:   1,
			SelectionCoeff: 0,
			Population:     domain.NullID,
			OriginTime:     0,
			Nucleotide:     domain.NucleotideNone,
		}})
	}
	col.Mutations.Metadata.Set(records)
}
