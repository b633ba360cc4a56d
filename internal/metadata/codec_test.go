package metadata

import (
	"errors"
	"reflect"
	"testing"

	"lineagecore/pkg/domain"
)

func TestIndividualRoundTrip(t *testing.T) {
	in := domain.IndividualMetadata{
		PedigreeID: 1234567890123,
		Age:        -1,
		Population: 2,
		Sex:        domain.SexHermaphrodite,
		Flags:      0x10000,
	}
	b := EncodeIndividual(in)
	if len(b) != 24 {
		t.Fatalf("individual record is %d bytes, want 24", len(b))
	}
	out, err := DecodeIndividual(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip changed record: %+v != %+v", out, in)
	}
}

func TestDecodeIndividualMalformed(t *testing.T) {
	if _, err := DecodeIndividual(make([]byte, 23)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestNodeRoundTrip(t *testing.T) {
	in := domain.NodeMetadata{GenomeID: 42, IsNull: true, GenomeType: domain.GenomeX}
	b := EncodeNode(in)
	if len(b) != 10 {
		t.Fatalf("node record is %d bytes, want 10", len(b))
	}
	out, err := DecodeNode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip changed record: %+v != %+v", out, in)
	}
	if _, err := DecodeNode(b[:9]); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestMutationStackRoundTrip(t *testing.T) {
	in := []domain.MutationMetadata{
		{MutationType: 1, SelectionCoeff: 0.5, Population: 0, OriginTime: 10, Nucleotide: 2},
		{MutationType: 3, SelectionCoeff: -0.25, Population: domain.NullID, OriginTime: -4, Nucleotide: domain.NucleotideNone},
	}
	b := EncodeMutation(in)
	if len(b) != 34 {
		t.Fatalf("stacked blob is %d bytes, want 34", len(b))
	}
	out, err := DecodeMutation(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip changed stack: %+v != %+v", out, in)
	}
}

func TestDecodeMutationEmptyAndMalformed(t *testing.T) {
	out, err := DecodeMutation(nil)
	if err != nil || len(out) != 0 {
		t.Fatalf("empty blob should decode to empty stack, got %v / %v", out, err)
	}
	if _, err := DecodeMutation(make([]byte, 18)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeMutationLegacy(t *testing.T) {
	// A legacy blob is the modern layout per entry minus the nucleotide byte.
	modern := EncodeMutation([]domain.MutationMetadata{
		{MutationType: 7, SelectionCoeff: 1.5, Population: 1, OriginTime: 9, Nucleotide: 3},
	})
	legacy := modern[:16]
	out, err := DecodeMutationLegacy(legacy)
	if err != nil {
		t.Fatalf("decode legacy: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	if out[0].MutationType != 7 || out[0].OriginTime != 9 || out[0].Population != 1 {
		t.Fatalf("legacy fields lost: %+v", out[0])
	}
	if out[0].Nucleotide != domain.NucleotideNone {
		t.Fatalf("legacy entries must carry NucleotideNone, got %d", out[0].Nucleotide)
	}
	if _, err := DecodeMutationLegacy(make([]byte, 15)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestPopulationRoundTrip(t *testing.T) {
	in := domain.PopulationMetadata{
		PopulationID:          3,
		SelfingFraction:       0.1,
		FemaleCloningFraction: 0.2,
		MaleCloningFraction:   0.3,
		SexRatio:              0.5,
		BoundsX0:              -1, BoundsX1: 1,
		BoundsY0: -2, BoundsY1: 2,
		BoundsZ0: -3, BoundsZ1: 3,
		MigrationRecords: []domain.MigrationRecord{
			{Source: 0, Rate: 0.01},
			{Source: 2, Rate: 0.05},
		},
	}
	b := EncodePopulation(in)
	if len(b) != 88+2*12 {
		t.Fatalf("population record is %d bytes, want %d", len(b), 88+2*12)
	}
	out, err := DecodePopulation(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip changed record: %+v != %+v", out, in)
	}
}

func TestDecodePopulationMalformed(t *testing.T) {
	if _, err := DecodePopulation(make([]byte, 87)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("short record: expected ErrMalformed, got %v", err)
	}
	// A record whose declared migration count disagrees with its length.
	b := EncodePopulation(domain.PopulationMetadata{MigrationRecords: []domain.MigrationRecord{{Source: 1, Rate: 0.5}}})
	if _, err := DecodePopulation(b[:len(b)-12]); !errors.Is(err, ErrMalformed) {
		t.Fatalf("truncated migrations: expected ErrMalformed, got %v", err)
	}
}
