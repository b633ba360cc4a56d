package core

import "lineagecore/pkg/domain"

// HasIndividualParents reports, for every individual, whether both biological
// parents are fully present: every edge terminating in the individual's nodes
// comes from a node owned by an individual, each child node inherits from a
// single parent individual only, those parents were alive when the child was
// born, and the surviving edges account for exactly two whole genomes. Any
// gap, excess, or split parentage yields false; there is no partial credit.
//
// rememberedStage carries the same meaning as in IndividualsAliveAt and is
// validated here for consistency of the API surface.
func (s *Sequence) HasIndividualParents(rememberedStage domain.Stage) ([]bool, error) {
	done := s.observe("has_individual_parents")
	out, err := s.hasIndividualParents(rememberedStage)
	done(err)
	return out, err
}

func (s *Sequence) hasIndividualParents(rememberedStage domain.Stage) ([]bool, error) {
	if !rememberedStage.Valid() {
		return nil, configurationf("has_individual_parents", "unknown stage %q: should be either %q or %q", rememberedStage, domain.StageEarly, domain.StageLate)
	}
	edges := &s.col.Edges
	nodeIndividual := s.col.Nodes.Individual

	// Per child node, check that every incoming edge names a parent node
	// owned by one and the same parent individual. A child node with mixed
	// parent individuals is ambiguous and disqualifies all its edges.
	type parentage struct {
		individual domain.ID
		seen       bool
		unique     bool
	}
	byChildNode := make([]parentage, s.col.Nodes.Len())
	for i := range byChildNode {
		byChildNode[i].unique = true
	}
	for e := 0; e < edges.Len(); e++ {
		child := edges.Child[e]
		parentIndiv := nodeIndividual[edges.Parent[e]]
		p := &byChildNode[child]
		if !p.seen {
			p.seen = true
			p.individual = parentIndiv
		} else if p.individual != parentIndiv {
			p.unique = false
		}
	}

	parentalSpan := make([]float64, s.col.Individuals.Len())
	for e := 0; e < edges.Len(); e++ {
		parentIndiv := nodeIndividual[edges.Parent[e]]
		childIndiv := nodeIndividual[edges.Child[e]]
		if parentIndiv == domain.NullID || childIndiv == domain.NullID {
			continue
		}
		if !byChildNode[edges.Child[e]].unique {
			continue
		}
		childBirth := s.individualTimes[childIndiv]
		parentBirth := s.individualTimes[parentIndiv]
		if s.modelType == domain.ModelWF {
			// WF parents live exactly one step: the step before the child's birth.
			if childBirth+1 != parentBirth {
				continue
			}
		} else {
			parentDeath := parentBirth - float64(s.individualAges[parentIndiv])
			if childBirth+1 < parentDeath {
				continue
			}
		}
		parentalSpan[childIndiv] += edges.Right[e] - edges.Left[e]
	}

	out := make([]bool, s.col.Individuals.Len())
	for i := range out {
		out[i] = parentalSpan[i] == 2*s.col.SequenceLength
	}
	return out, nil
}
