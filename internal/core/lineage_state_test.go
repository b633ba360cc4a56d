package core

import (
	"errors"
	"testing"

	"lineagecore/internal/metadata"
	"lineagecore/pkg/domain"
)

func mutationRecord(originTime int32, nucleotide domain.Nucleotide) []byte {
	return metadata.EncodeMutation([]domain.MutationMetadata{{
		MutationType: 1,
		Population:   domain.NullID,
		OriginTime:   originTime,
		Nucleotide:   nucleotide,
	}})
}

// mutationFixture is a two-node chain under a nonWF clock: the child inherits
// the whole genome from the parent, and a mutation with the given origin time
// sits on the parent at position 3.
func mutationFixture(t *testing.T, originTime int32, opts ...Option) (*Sequence, domain.ID, domain.ID) {
	t.Helper()
	col := newSimCollection(domain.ModelNonWF, 10, 10)
	parent := col.Nodes.Append(0, 2, 0, domain.NullID, nil)
	child := col.Nodes.Append(uint32(domain.NodeIsSample), 1, 0, domain.NullID, nil)
	col.Edges.Append(0, 10, parent, child)
	site := col.Sites.Append(3, "A")
	col.Mutations.Append(site, parent, domain.NullID, "C", mutationRecord(originTime, 2))
	return mustWrap(t, col, opts...), parent, child
}

func TestMutationAtWalksToAncestor(t *testing.T) {
	seq, _, child := mutationFixture(t, 5)
	got, err := seq.MutationAt(child, 3)
	if err != nil {
		t.Fatalf("mutation at: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected mutation 0 via the ancestor walk, got %d", got)
	}
}

func TestMutationAtUnmutatedPosition(t *testing.T) {
	seq, _, child := mutationFixture(t, 5)
	got, err := seq.MutationAt(child, 7)
	if err != nil {
		t.Fatalf("mutation at: %v", err)
	}
	if got != domain.NullID {
		t.Fatalf("position without a site should yield NullID, got %d", got)
	}
}

func TestMutationAtValidatesArguments(t *testing.T) {
	seq, _, child := mutationFixture(t, 5)
	var verr ValidationError
	if _, err := seq.MutationAt(99, 3); !errors.As(err, &verr) {
		t.Fatalf("expected node range error, got %v", err)
	}
	if _, err := seq.MutationAt(child, 10); !errors.As(err, &verr) {
		t.Fatalf("expected position range error, got %v", err)
	}
	if _, err := seq.MutationAt(child, -1); !errors.As(err, &verr) {
		t.Fatalf("expected position range error, got %v", err)
	}
}

func TestMutationAtTimeBound(t *testing.T) {
	// Generation 10, mutation originated at simulator time 5. Querying at
	// time-ago 6 bounds origins at 10-6=4, excluding the mutation.
	seq, _, child := mutationFixture(t, 5)
	got, err := seq.MutationAtTime(child, 3, 6)
	if err != nil {
		t.Fatalf("mutation at time: %v", err)
	}
	if got != domain.NullID {
		t.Fatalf("mutation newer than the bound should be excluded, got %d", got)
	}
	got, err = seq.MutationAtTime(child, 3, 5)
	if err != nil {
		t.Fatalf("mutation at time: %v", err)
	}
	if got != 0 {
		t.Fatalf("mutation at the bound should be included, got %d", got)
	}
}

func TestMutationAtWFFounderAdjustment(t *testing.T) {
	// Under WF written out at early, founders are born one step after the
	// tree's time zero; the origin bound shifts by that gap.
	col := newSimCollection(domain.ModelWF, 10, 10)
	addIndividual(col, domain.IndividualFirstGeneration, 9, 0) // dt = 1
	parent := col.Nodes.Append(0, 2, 0, domain.NullID, nil)
	child := col.Nodes.Append(uint32(domain.NodeIsSample), 1, 0, domain.NullID, nil)
	col.Edges.Append(0, 10, parent, child)
	site := col.Sites.Append(3, "A")
	col.Mutations.Append(site, parent, domain.NullID, "C", mutationRecord(5, 2))
	seq := mustWrap(t, col)

	// Bound at time-ago 4 is 10-4-1=5: the mutation just qualifies.
	got, err := seq.MutationAtTime(child, 3, 4)
	if err != nil {
		t.Fatalf("mutation at time: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected mutation 0 at the adjusted bound, got %d", got)
	}
	// One step later the adjusted bound is 4 and the mutation is too new.
	got, err = seq.MutationAtTime(child, 3, 5)
	if err != nil {
		t.Fatalf("mutation at time: %v", err)
	}
	if got != domain.NullID {
		t.Fatalf("expected NullID past the adjusted bound, got %d", got)
	}
}

func TestMutationAtRequiresMetadata(t *testing.T) {
	col := newSimCollection(domain.ModelNonWF, 10, 10)
	node := col.Nodes.Append(uint32(domain.NodeIsSample), 1, 0, domain.NullID, nil)
	site := col.Sites.Append(3, "A")
	col.Mutations.Append(site, node, domain.NullID, "C", nil) // empty stack
	seq := mustWrap(t, col)

	var verr ValidationError
	if _, err := seq.MutationAt(node, 3); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for missing mutation metadata, got %v", err)
	}
}

func TestMutationAtStackedRowsResolveToNewest(t *testing.T) {
	col := newSimCollection(domain.ModelNonWF, 10, 10)
	node := col.Nodes.Append(uint32(domain.NodeIsSample), 1, 0, domain.NullID, nil)
	site := col.Sites.Append(3, "A")
	first := col.Mutations.Append(site, node, domain.NullID, "C", mutationRecord(2, 1))
	second := col.Mutations.Append(site, node, first, "G", mutationRecord(4, 2))
	seq := mustWrap(t, col)

	got, err := seq.MutationAt(node, 3)
	if err != nil {
		t.Fatalf("mutation at: %v", err)
	}
	if got != second {
		t.Fatalf("chained rows should resolve to the newest, got %d", got)
	}
}

func TestMutationAtIsIdempotent(t *testing.T) {
	col := newSimCollection(domain.ModelNonWF, 10, 10)
	node := col.Nodes.Append(uint32(domain.NodeIsSample), 1, 0, domain.NullID, nil)
	site := col.Sites.Append(3, "A")
	first := col.Mutations.Append(site, node, domain.NullID, "C", mutationRecord(2, 1))
	col.Mutations.Append(site, node, first, "G", mutationRecord(4, 2))
	seq := mustWrap(t, col)

	a, err := seq.MutationAt(node, 3)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	b, err := seq.MutationAt(node, 3)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if a != b {
		t.Fatalf("repeated MutationAt disagreed: %d then %d", a, b)
	}
	ta, err := seq.MutationAtTime(node, 3, 5)
	if err != nil {
		t.Fatalf("first bounded call: %v", err)
	}
	tb, err := seq.MutationAtTime(node, 3, 5)
	if err != nil {
		t.Fatalf("second bounded call: %v", err)
	}
	if ta != tb {
		t.Fatalf("repeated MutationAtTime disagreed: %d then %d", ta, tb)
	}
}

func TestMutationAtConflictingRows(t *testing.T) {
	col := newSimCollection(domain.ModelNonWF, 10, 10)
	node := col.Nodes.Append(uint32(domain.NodeIsSample), 1, 0, domain.NullID, nil)
	site := col.Sites.Append(3, "A")
	col.Mutations.Append(site, node, domain.NullID, "C", mutationRecord(2, 1))
	col.Mutations.Append(site, node, domain.NullID, "G", mutationRecord(4, 2)) // not chained
	seq := mustWrap(t, col)

	var verr ValidationError
	if _, err := seq.MutationAt(node, 3); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for conflicting rows, got %v", err)
	}
}

func TestNucleotideAtRequiresReferenceSequence(t *testing.T) {
	seq, _, child := mutationFixture(t, 5)
	var verr ValidationError
	if _, err := seq.NucleotideAt(child, 3); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError without a reference sequence, got %v", err)
	}
}

func TestNucleotideAt(t *testing.T) {
	ref := "ACGTACGTAC"
	seq, _, child := mutationFixture(t, 5, WithReferenceSequence(ref))

	// The mutated position carries the mutation's nucleotide.
	nt, err := seq.NucleotideAt(child, 3)
	if err != nil {
		t.Fatalf("nucleotide at: %v", err)
	}
	if nt != 2 {
		t.Fatalf("expected mutated base G (2), got %d", nt)
	}

	// An unmutated position falls back to the reference base.
	nt, err = seq.NucleotideAt(child, 7)
	if err != nil {
		t.Fatalf("nucleotide at: %v", err)
	}
	if want, _ := domain.NucleotideFromBase(ref[7]); nt != want {
		t.Fatalf("expected reference base %d, got %d", want, nt)
	}

	// Bounding out the mutation also falls back to the reference.
	nt, err = seq.NucleotideAtTime(child, 3, 6)
	if err != nil {
		t.Fatalf("nucleotide at time: %v", err)
	}
	if want, _ := domain.NucleotideFromBase(ref[3]); nt != want {
		t.Fatalf("expected reference base %d, got %d", want, nt)
	}
}
