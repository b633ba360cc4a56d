package core

import (
	"context"

	"lineagecore/internal/tables"
	"lineagecore/pkg/domain"
)

// MarkFirstGeneration returns a new sequence in which every node belonging to
// a first-generation individual is marked as a sample, so an ancestry
// completion keeps founder lineages anchored. Callers must not simplify
// before extending: simplification drops unmarked founders irrecoverably,
// which is what the emitted warning points at when no founders are found.
// The receiver is unchanged.
func (s *Sequence) MarkFirstGeneration() (*Sequence, error) {
	staged := s.col.Clone()
	marked := false
	for node := 0; node < staged.Nodes.Len(); node++ {
		ind := staged.Nodes.Individual[node]
		if ind == domain.NullID {
			continue
		}
		if domain.IndividualFlags(staged.Individuals.Flags[ind]).FirstGeneration() {
			staged.Nodes.Flags[node] |= uint32(domain.NodeIsSample)
			marked = true
		}
	}
	if !marked {
		s.warn("tree sequence does not have the initial generation; did you simplify it after the simulation wrote it out?")
	}
	return s.rewrap(staged)
}

// rewrap wraps an edited staging copy, carrying over the reference sequence,
// warning sink, and metrics recorder of the receiver.
func (s *Sequence) rewrap(staged *tables.Collection) (*Sequence, error) {
	out, err := New(staged,
		WithReferenceSequence(s.referenceSequence),
		WithWarningSink(s.warn),
		WithMetrics(s.metrics))
	if err != nil {
		return nil, err
	}
	// Share the collector so Warnings() keeps working across rewraps.
	out.collector = s.collector
	return out, nil
}

// RateMapSegment is one piece of a recombination map: a constant rate over
// the half-open interval [Left, Right).
type RateMapSegment struct {
	Left  float64
	Right float64
	Rate  float64
}

// CompletionRequest describes the coalescent completion handed to an
// AncestryCompleter: simulate further into the past from StartTime until all
// lineages coalesce, recombining at the requested rate or map.
type CompletionRequest struct {
	StartTime         float64
	RecombinationRate float64
	RecombinationMap  []RateMapSegment
}

// AncestryCompleter is the external coalescent backend used to extend
// ancestry beyond the simulated window. Implementations receive a private
// staging copy of the tables and return a completed collection.
type AncestryCompleter interface {
	Complete(ctx context.Context, col *tables.Collection, req CompletionRequest) (*tables.Collection, error)
}

// RecapitateOptions configures Recapitate. RecombinationRate and
// RecombinationMap are mutually exclusive.
type RecapitateOptions struct {
	RecombinationRate   float64
	RecombinationMap    []RateMapSegment
	KeepFirstGeneration bool
}

// Recapitate completes any uncoalesced lineages by handing the tables to the
// supplied completer, starting at the current generation, and rewraps the
// result. With KeepFirstGeneration the founders are marked as samples first
// so they survive the completion.
func (s *Sequence) Recapitate(ctx context.Context, completer AncestryCompleter, opts RecapitateOptions) (*Sequence, error) {
	if completer == nil {
		return nil, configurationf("recapitate", "an ancestry completer is required")
	}
	if opts.RecombinationRate != 0 && len(opts.RecombinationMap) > 0 {
		return nil, configurationf("recapitate", "cannot specify a recombination rate along with a recombination map")
	}
	base := s
	if opts.KeepFirstGeneration {
		marked, err := s.MarkFirstGeneration()
		if err != nil {
			return nil, err
		}
		base = marked
	}
	req := CompletionRequest{
		StartTime:         float64(s.generation),
		RecombinationRate: opts.RecombinationRate,
		RecombinationMap:  opts.RecombinationMap,
	}
	completed, err := completer.Complete(ctx, base.col.Clone(), req)
	if err != nil {
		return nil, err
	}
	return s.rewrap(completed)
}
