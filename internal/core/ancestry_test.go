package core

import (
	"errors"
	"testing"

	"lineagecore/pkg/domain"
)

func TestHasIndividualParentsRejectsUnknownStage(t *testing.T) {
	seq := mustWrap(t, newSimCollection(domain.ModelWF, 1, 10))
	var cerr ConfigurationError
	if _, err := seq.HasIndividualParents("noon"); !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

// Parent born at 2, child at 1, full diploid inheritance: the child qualifies,
// the parent (with no recorded ancestry) does not.
func TestHasIndividualParentsWF(t *testing.T) {
	col := newSimCollection(domain.ModelWF, 10, 10)
	parent := addIndividual(col, 0, 2, 0) // nodes 0,1
	child := addIndividual(col, domain.IndividualAlive, 1, 0) // nodes 2,3
	col.Edges.Append(0, 10, 0, 2)
	col.Edges.Append(0, 10, 1, 3)
	seq := mustWrap(t, col)

	got, err := seq.HasIndividualParents(domain.StageLate)
	if err != nil {
		t.Fatalf("has parents: %v", err)
	}
	if !got[child] {
		t.Fatalf("child with both genomes accounted for should qualify")
	}
	if got[parent] {
		t.Fatalf("parent without recorded ancestry should not qualify")
	}
}

func TestHasIndividualParentsRequiresFullSpan(t *testing.T) {
	col := newSimCollection(domain.ModelWF, 10, 10)
	addIndividual(col, 0, 2, 0)                         // parent, nodes 0,1
	child := addIndividual(col, domain.IndividualAlive, 1, 0) // nodes 2,3
	col.Edges.Append(0, 10, 0, 2)
	col.Edges.Append(0, 4, 1, 3) // genome 2 only partially covered
	seq := mustWrap(t, col)

	got, err := seq.HasIndividualParents(domain.StageLate)
	if err != nil {
		t.Fatalf("has parents: %v", err)
	}
	if got[child] {
		t.Fatalf("partial parental span must not qualify")
	}
}

func TestHasIndividualParentsRejectsWrongWFTiming(t *testing.T) {
	col := newSimCollection(domain.ModelWF, 10, 10)
	addIndividual(col, 0, 3, 0) // born two steps before the child
	child := addIndividual(col, domain.IndividualAlive, 1, 0)
	col.Edges.Append(0, 10, 0, 2)
	col.Edges.Append(0, 10, 1, 3)
	seq := mustWrap(t, col)

	got, err := seq.HasIndividualParents(domain.StageLate)
	if err != nil {
		t.Fatalf("has parents: %v", err)
	}
	if got[child] {
		t.Fatalf("a WF parent born more than one step before the child is not a direct parent")
	}
}

func TestHasIndividualParentsSplitParentageDisqualifies(t *testing.T) {
	col := newSimCollection(domain.ModelWF, 10, 10)
	addIndividual(col, 0, 2, 0)                         // parent A, nodes 0,1
	addIndividual(col, 0, 2, 0)                         // parent B, nodes 2,3
	child := addIndividual(col, domain.IndividualAlive, 1, 0) // nodes 4,5
	// Node 4 draws from two different parent individuals: ambiguous, so all of
	// its edges are discarded.
	col.Edges.Append(0, 5, 0, 4)
	col.Edges.Append(5, 10, 2, 4)
	col.Edges.Append(0, 10, 1, 5)
	seq := mustWrap(t, col)

	got, err := seq.HasIndividualParents(domain.StageLate)
	if err != nil {
		t.Fatalf("has parents: %v", err)
	}
	if got[child] {
		t.Fatalf("split parentage on a child node must disqualify the individual")
	}
}

func TestHasIndividualParentsNonWFUsesDeathBound(t *testing.T) {
	col := newSimCollection(domain.ModelNonWF, 10, 10)
	// Parent born at 6 with age 4 dies at 2; a child born at 3 overlaps it,
	// a child born at 0 does not.
	addIndividual(col, 0, 6, 4)                               // nodes 0,1
	inRange := addIndividual(col, domain.IndividualAlive, 3, 0)  // nodes 2,3
	tooLate := addIndividual(col, domain.IndividualAlive, 0, 0) // nodes 4,5
	col.Edges.Append(0, 10, 0, 2)
	col.Edges.Append(0, 10, 1, 3)
	col.Edges.Append(0, 10, 0, 4)
	col.Edges.Append(0, 10, 1, 5)
	seq := mustWrap(t, col)

	got, err := seq.HasIndividualParents(domain.StageLate)
	if err != nil {
		t.Fatalf("has parents: %v", err)
	}
	if !got[inRange] {
		t.Fatalf("child born within the parent's lifetime should qualify")
	}
	if got[tooLate] {
		t.Fatalf("child born after the parent's death must not qualify")
	}
}

func TestHasIndividualParentsIgnoresUnownedNodes(t *testing.T) {
	col := newSimCollection(domain.ModelWF, 10, 10)
	child := addIndividual(col, domain.IndividualAlive, 1, 0) // nodes 0,1
	free := col.Nodes.Append(0, 2, 0, domain.NullID, nil)     // node without an individual
	col.Edges.Append(0, 10, free, 0)
	col.Edges.Append(0, 10, free, 1)
	seq := mustWrap(t, col)

	got, err := seq.HasIndividualParents(domain.StageLate)
	if err != nil {
		t.Fatalf("has parents: %v", err)
	}
	if got[child] {
		t.Fatalf("edges from unowned nodes must not count toward parentage")
	}
}
