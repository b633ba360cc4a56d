package core

import (
	"errors"
	"math"
	"strings"
	"testing"

	"lineagecore/pkg/domain"
)

func aliveIDs(t *testing.T, seq *Sequence, timeAgo float64, stage, remembered domain.Stage) []domain.ID {
	t.Helper()
	ids, err := seq.IndividualsAliveAt(timeAgo, stage, remembered)
	if err != nil {
		t.Fatalf("alive at %g (%s): %v", timeAgo, stage, err)
	}
	return ids
}

func containsID(ids []domain.ID, want domain.ID) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func TestIndividualsAliveAtRejectsUnknownStage(t *testing.T) {
	seq := mustWrap(t, newSimCollection(domain.ModelWF, 1, 10))
	var cerr ConfigurationError
	if _, err := seq.IndividualsAliveAt(0, "dusk", domain.StageLate); !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if _, err := seq.IndividualsAliveAt(0, domain.StageLate, "dawn"); !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError for remembered stage, got %v", err)
	}
}

func TestIndividualsAliveAtWF(t *testing.T) {
	col := newSimCollection(domain.ModelWF, 10, 10)
	born1 := addIndividual(col, domain.IndividualAlive, 1, 0)
	born3 := addIndividual(col, 0, 3, 0)
	seq := mustWrap(t, col)

	// WF individuals live exactly one step; at late they are alive only in
	// their birth step.
	late1 := aliveIDs(t, seq, 1, domain.StageLate, domain.StageLate)
	if !containsID(late1, born1) || containsID(late1, born3) {
		t.Fatalf("late at 1: got %v", late1)
	}
	if got := aliveIDs(t, seq, 0, domain.StageLate, domain.StageLate); containsID(got, born1) {
		t.Fatalf("late at 0 should not include the individual born at 1: %v", got)
	}

	// Birth happens after early, so the early an individual lives through is
	// one step later than its birth step.
	if got := aliveIDs(t, seq, 1, domain.StageEarly, domain.StageLate); containsID(got, born1) {
		t.Fatalf("early at 1 should not include the individual born at 1: %v", got)
	}
	if got := aliveIDs(t, seq, 0, domain.StageEarly, domain.StageLate); !containsID(got, born1) {
		t.Fatalf("early at 0 should include the individual born at 1: %v", got)
	}
}

func TestIndividualsAliveAtNonWF(t *testing.T) {
	col := newSimCollection(domain.ModelNonWF, 10, 10)
	ind := addIndividual(col, domain.IndividualAlive, 5, 2)
	seq := mustWrap(t, col)

	// Born at 5 with age 2: alive at late for times 5 down to 3.
	for _, timeAgo := range []float64{5, 4, 3} {
		if got := aliveIDs(t, seq, timeAgo, domain.StageLate, domain.StageLate); !containsID(got, ind) {
			t.Fatalf("late at %g should include the individual: %v", timeAgo, got)
		}
	}
	if got := aliveIDs(t, seq, 2, domain.StageLate, domain.StageLate); containsID(got, ind) {
		t.Fatalf("late at 2 should not include the individual")
	}
	if got := aliveIDs(t, seq, 6, domain.StageLate, domain.StageLate); containsID(got, ind) {
		t.Fatalf("late at 6 predates birth")
	}

	// A nonWF individual lives through one more early than late: when ages
	// were remembered at late, the early query reaches one step further back.
	if got := aliveIDs(t, seq, 2, domain.StageEarly, domain.StageLate); !containsID(got, ind) {
		t.Fatalf("early at 2 should include the individual")
	}
	// And the opposite offset when ages were remembered at early.
	if got := aliveIDs(t, seq, 3, domain.StageLate, domain.StageEarly); containsID(got, ind) {
		t.Fatalf("late at 3 with early-remembered ages should exclude the individual")
	}
}

func TestIndividualsAliveAtSkipsNodelessIndividuals(t *testing.T) {
	col := newSimCollection(domain.ModelWF, 10, 10)
	col.Individuals.Append(0, nil, nil) // no nodes, NaN birth
	seq := mustWrap(t, col)
	if got := aliveIDs(t, seq, 0, domain.StageLate, domain.StageLate); len(got) != 0 {
		t.Fatalf("nodeless individual reported alive: %v", got)
	}
}

func TestRememberedStageHeuristicWarning(t *testing.T) {
	// WF founders born exactly at the current generation imply a late-stage
	// write-out; claiming early should warn.
	col := newSimCollection(domain.ModelWF, 10, 10)
	addIndividual(col, domain.IndividualFirstGeneration, 10, 0)
	seq := mustWrap(t, col)

	if _, err := seq.IndividualsAliveAt(0, domain.StageLate, domain.StageLate); err != nil {
		t.Fatalf("alive: %v", err)
	}
	if got := seq.Warnings(); len(got) != 0 {
		t.Fatalf("consistent remembered stage should not warn: %v", got)
	}
	if _, err := seq.IndividualsAliveAt(0, domain.StageLate, domain.StageEarly); err != nil {
		t.Fatalf("alive: %v", err)
	}
	warnings := seq.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "do not look like they were saved") {
		t.Fatalf("expected remembered-stage warning, got %v", warnings)
	}
}

func TestIndividualAgesAt(t *testing.T) {
	col := newSimCollection(domain.ModelNonWF, 10, 10)
	ind := addIndividual(col, domain.IndividualAlive, 5, 2)
	other := addIndividual(col, 0, 9, 0)
	seq := mustWrap(t, col)

	ages, err := seq.IndividualAgesAt(3, domain.StageLate, domain.StageLate)
	if err != nil {
		t.Fatalf("ages: %v", err)
	}
	if ages[ind] != 2 {
		t.Fatalf("individual born at 5 queried at 3 should be 2, got %g", ages[ind])
	}
	if !math.IsNaN(ages[other]) {
		t.Fatalf("dead individual should have NaN age, got %g", ages[other])
	}
}

func TestFirstGenerationIndividuals(t *testing.T) {
	col := newSimCollection(domain.ModelNonWF, 10, 10)
	founder := addIndividual(col, domain.IndividualFirstGeneration|domain.IndividualAlive, 10, 0)
	addIndividual(col, domain.IndividualAlive, 2, 0)
	seq := mustWrap(t, col)

	got := seq.FirstGenerationIndividuals()
	if len(got) != 1 || got[0] != founder {
		t.Fatalf("founders = %v, want [%d]", got, founder)
	}
}
