package core

import (
	"lineagecore/internal/metadata"
	"lineagecore/pkg/domain"
)

// MutationAt finds the mutation present in the genome of node at position,
// returning NullID if no mutation is recorded there on the node's lineage.
// The query is bounded at the node's own time; use MutationAtTime to bound it
// elsewhere. If node is not actually in the tree at position (not ancestral
// to any sample there), the result is NullID, possibly erroneously.
func (s *Sequence) MutationAt(node domain.ID, position float64) (domain.ID, error) {
	if node < 0 || int(node) >= s.col.Nodes.Len() {
		return domain.NullID, validationf("mutation_at", "node %d not valid", node)
	}
	return s.MutationAtTime(node, position, s.col.Nodes.Time[node])
}

// MutationAtTime is MutationAt bounded at timeAgo: only mutations whose
// recorded origin time is at or before that moment qualify, using the origin
// time stored in mutation metadata.
func (s *Sequence) MutationAtTime(node domain.ID, position, timeAgo float64) (domain.ID, error) {
	done := s.observe("mutation_at")
	id, err := s.mutationAt(node, position, timeAgo)
	done(err)
	return id, err
}

func (s *Sequence) mutationAt(node domain.ID, position, timeAgo float64) (domain.ID, error) {
	if position < 0 || position >= s.col.SequenceLength {
		return domain.NullID, validationf("mutation_at", "position %g not valid", position)
	}
	if node < 0 || int(node) >= s.col.Nodes.Len() {
		return domain.NullID, validationf("mutation_at", "node %d not valid", node)
	}

	// Convert time-ago to the simulator's time-of-origin units. Under WF the
	// tree's time zero sits one step before the founding generation when the
	// tables were written during early; the gap between the current
	// generation and a founder's birth captures that offset.
	originBound := float64(s.generation) - timeAgo
	if s.modelType == domain.ModelWF {
		if firstGen := s.FirstGenerationIndividuals(); len(firstGen) > 0 {
			originBound -= float64(s.generation) - s.individualTimes[firstGen[0]]
		}
	}

	site := s.col.Sites.Lookup(position)
	if site == domain.NullID {
		return domain.NullID, nil
	}

	// Candidate nodes: those carrying a mutation at this site whose newest
	// stacked entry originated at or before the bound.
	candidates := make(map[domain.ID]bool)
	for m := 0; m < s.col.Mutations.Len(); m++ {
		if s.col.Mutations.Site[m] != site {
			continue
		}
		entries, err := metadata.DecodeMutation(s.col.Mutations.Metadata.At(m))
		if err != nil || len(entries) == 0 {
			return domain.NullID, validationf("mutation_at", "mutation %d at site %d lacks required metadata", m, site)
		}
		newest := entries[0].OriginTime
		for _, e := range entries[1:] {
			if e.OriginTime > newest {
				newest = e.OriginTime
			}
		}
		if float64(newest) <= originBound {
			candidates[s.col.Mutations.Node[m]] = true
		}
	}

	tree := s.col.TreeAt(position)
	n := node
	for n != domain.NullID && !candidates[n] {
		n = tree.Parent(n)
	}
	if n == domain.NullID {
		return domain.NullID, nil
	}

	// Several stacked rows can sit on the same node; any second match must be
	// the direct ancestor of the first, never a conflicting sibling.
	out := domain.NullID
	for m := 0; m < s.col.Mutations.Len(); m++ {
		if s.col.Mutations.Site[m] != site || s.col.Mutations.Node[m] != n {
			continue
		}
		if out != domain.NullID && out != s.col.Mutations.Parent[m] {
			return domain.NullID, validationf("mutation_at", "conflicting mutations %d and %d at site %d on node %d", out, m, site, n)
		}
		out = domain.ID(m)
	}
	return out, nil
}

// NucleotideAt finds the base present in the genome of node at position,
// bounded at the node's own time. It requires a reference sequence; without
// one the sequence cannot answer nucleotide queries.
func (s *Sequence) NucleotideAt(node domain.ID, position float64) (domain.Nucleotide, error) {
	if node < 0 || int(node) >= s.col.Nodes.Len() {
		return domain.NucleotideNone, validationf("nucleotide_at", "node %d not valid", node)
	}
	return s.NucleotideAtTime(node, position, s.col.Nodes.Time[node])
}

// NucleotideAtTime is NucleotideAt bounded at timeAgo.
func (s *Sequence) NucleotideAtTime(node domain.ID, position, timeAgo float64) (domain.Nucleotide, error) {
	done := s.observe("nucleotide_at")
	nt, err := s.nucleotideAt(node, position, timeAgo)
	done(err)
	return nt, err
}

func (s *Sequence) nucleotideAt(node domain.ID, position, timeAgo float64) (domain.Nucleotide, error) {
	if s.referenceSequence == "" {
		return domain.NucleotideNone, validationf("nucleotide_at", "this tree sequence has no reference sequence")
	}
	mut, err := s.mutationAt(node, position, timeAgo)
	if err != nil {
		return domain.NucleotideNone, err
	}
	if mut == domain.NullID {
		nt, ok := domain.NucleotideFromBase(s.referenceSequence[int(position)])
		if !ok {
			return domain.NucleotideNone, validationf("nucleotide_at", "reference base %q at position %g is not a nucleotide", s.referenceSequence[int(position)], position)
		}
		return nt, nil
	}
	entries, err := metadata.DecodeMutation(s.col.Mutations.Metadata.At(int(mut)))
	if err != nil || len(entries) == 0 {
		return domain.NucleotideNone, validationf("nucleotide_at", "mutation %d lacks required metadata", mut)
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.OriginTime > best.OriginTime {
			best = e
		}
	}
	return best.Nucleotide, nil
}
