// Package metadata implements the fixed-layout binary codec for the opaque
// metadata blobs attached to individual, node, mutation, and population rows.
// All records are packed little-endian. Decoders return ErrMalformed on bytes
// of the wrong shape and never panic; callers treat a failed decode as
// "metadata absent".
package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"lineagecore/pkg/domain"
)

// ErrMalformed reports a metadata blob whose length or contents do not match
// the schema layout.
var ErrMalformed = errors.New("metadata: malformed record")

// Record sizes in bytes.
const (
	individualRecordSize     = 24
	nodeRecordSize           = 10
	mutationEntrySize        = 17
	mutationEntrySizeLegacy  = 16
	populationBaseRecordSize = 88
	migrationRecordSize      = 12
)

// EncodeIndividual packs an individual record.
func EncodeIndividual(m domain.IndividualMetadata) []byte {
	buf := make([]byte, individualRecordSize)
	binary.LittleEndian.PutUint64(buf[0:], uint64(m.PedigreeID))
	binary.LittleEndian.PutUint32(buf[8:], uint32(m.Age))
	binary.LittleEndian.PutUint32(buf[12:], uint32(m.Population))
	binary.LittleEndian.PutUint32(buf[16:], uint32(m.Sex))
	binary.LittleEndian.PutUint32(buf[20:], m.Flags)
	return buf
}

// DecodeIndividual unpacks an individual record.
func DecodeIndividual(b []byte) (domain.IndividualMetadata, error) {
	if len(b) != individualRecordSize {
		return domain.IndividualMetadata{}, fmt.Errorf("%w: individual record is %d bytes, want %d", ErrMalformed, len(b), individualRecordSize)
	}
	return domain.IndividualMetadata{
		PedigreeID: int64(binary.LittleEndian.Uint64(b[0:])),
		Age:        int32(binary.LittleEndian.Uint32(b[8:])),
		Population: domain.ID(binary.LittleEndian.Uint32(b[12:])),
		Sex:        domain.Sex(binary.LittleEndian.Uint32(b[16:])),
		Flags:      binary.LittleEndian.Uint32(b[20:]),
	}, nil
}

// EncodeNode packs a node record.
func EncodeNode(m domain.NodeMetadata) []byte {
	buf := make([]byte, nodeRecordSize)
	binary.LittleEndian.PutUint64(buf[0:], uint64(m.GenomeID))
	if m.IsNull {
		buf[8] = 1
	}
	buf[9] = byte(m.GenomeType)
	return buf
}

// DecodeNode unpacks a node record.
func DecodeNode(b []byte) (domain.NodeMetadata, error) {
	if len(b) != nodeRecordSize {
		return domain.NodeMetadata{}, fmt.Errorf("%w: node record is %d bytes, want %d", ErrMalformed, len(b), nodeRecordSize)
	}
	return domain.NodeMetadata{
		GenomeID:   int64(binary.LittleEndian.Uint64(b[0:])),
		IsNull:     b[8] != 0,
		GenomeType: domain.GenomeType(b[9]),
	}, nil
}

// EncodeMutation packs a stack of mutation entries into one blob.
func EncodeMutation(entries []domain.MutationMetadata) []byte {
	buf := make([]byte, 0, len(entries)*mutationEntrySize)
	for _, e := range entries {
		var rec [mutationEntrySize]byte
		binary.LittleEndian.PutUint32(rec[0:], uint32(e.MutationType))
		binary.LittleEndian.PutUint32(rec[4:], math.Float32bits(e.SelectionCoeff))
		binary.LittleEndian.PutUint32(rec[8:], uint32(e.Population))
		binary.LittleEndian.PutUint32(rec[12:], uint32(e.OriginTime))
		rec[16] = byte(e.Nucleotide)
		buf = append(buf, rec[:]...)
	}
	return buf
}

// DecodeMutation unpacks a stacked mutation blob. An empty blob decodes to an
// empty stack.
func DecodeMutation(b []byte) ([]domain.MutationMetadata, error) {
	if len(b)%mutationEntrySize != 0 {
		return nil, fmt.Errorf("%w: mutation blob is %d bytes, want a multiple of %d", ErrMalformed, len(b), mutationEntrySize)
	}
	entries := make([]domain.MutationMetadata, 0, len(b)/mutationEntrySize)
	for off := 0; off < len(b); off += mutationEntrySize {
		rec := b[off : off+mutationEntrySize]
		entries = append(entries, domain.MutationMetadata{
			MutationType:   int32(binary.LittleEndian.Uint32(rec[0:])),
			SelectionCoeff: math.Float32frombits(binary.LittleEndian.Uint32(rec[4:])),
			Population:     domain.ID(binary.LittleEndian.Uint32(rec[8:])),
			OriginTime:     int32(binary.LittleEndian.Uint32(rec[12:])),
			Nucleotide:     domain.Nucleotide(int8(rec[16])),
		})
	}
	return entries, nil
}

// DecodeMutationLegacy unpacks a stacked mutation blob written before the
// nucleotide slot existed (schema 0.1/0.2). Every decoded entry carries
// NucleotideNone; re-encoding with EncodeMutation upgrades the blob.
func DecodeMutationLegacy(b []byte) ([]domain.MutationMetadata, error) {
	if len(b)%mutationEntrySizeLegacy != 0 {
		return nil, fmt.Errorf("%w: legacy mutation blob is %d bytes, want a multiple of %d", ErrMalformed, len(b), mutationEntrySizeLegacy)
	}
	entries := make([]domain.MutationMetadata, 0, len(b)/mutationEntrySizeLegacy)
	for off := 0; off < len(b); off += mutationEntrySizeLegacy {
		rec := b[off : off+mutationEntrySizeLegacy]
		entries = append(entries, domain.MutationMetadata{
			MutationType:   int32(binary.LittleEndian.Uint32(rec[0:])),
			SelectionCoeff: math.Float32frombits(binary.LittleEndian.Uint32(rec[4:])),
			Population:     domain.ID(binary.LittleEndian.Uint32(rec[8:])),
			OriginTime:     int32(binary.LittleEndian.Uint32(rec[12:])),
			Nucleotide:     domain.NucleotideNone,
		})
	}
	return entries, nil
}

// EncodePopulation packs a population record including its migration list.
func EncodePopulation(m domain.PopulationMetadata) []byte {
	buf := make([]byte, populationBaseRecordSize+len(m.MigrationRecords)*migrationRecordSize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(m.PopulationID))
	binary.LittleEndian.PutUint64(buf[4:], math.Float64bits(m.SelfingFraction))
	binary.LittleEndian.PutUint64(buf[12:], math.Float64bits(m.FemaleCloningFraction))
	binary.LittleEndian.PutUint64(buf[20:], math.Float64bits(m.MaleCloningFraction))
	binary.LittleEndian.PutUint64(buf[28:], math.Float64bits(m.SexRatio))
	bounds := []float64{m.BoundsX0, m.BoundsX1, m.BoundsY0, m.BoundsY1, m.BoundsZ0, m.BoundsZ1}
	for i, v := range bounds {
		binary.LittleEndian.PutUint64(buf[36+8*i:], math.Float64bits(v))
	}
	binary.LittleEndian.PutUint32(buf[84:], uint32(len(m.MigrationRecords)))
	off := populationBaseRecordSize
	for _, rec := range m.MigrationRecords {
		binary.LittleEndian.PutUint32(buf[off:], uint32(rec.Source))
		binary.LittleEndian.PutUint64(buf[off+4:], math.Float64bits(rec.Rate))
		off += migrationRecordSize
	}
	return buf
}

// DecodePopulation unpacks a population record.
func DecodePopulation(b []byte) (domain.PopulationMetadata, error) {
	if len(b) < populationBaseRecordSize {
		return domain.PopulationMetadata{}, fmt.Errorf("%w: population record is %d bytes, want at least %d", ErrMalformed, len(b), populationBaseRecordSize)
	}
	m := domain.PopulationMetadata{
		PopulationID:          domain.ID(binary.LittleEndian.Uint32(b[0:])),
		SelfingFraction:       math.Float64frombits(binary.LittleEndian.Uint64(b[4:])),
		FemaleCloningFraction: math.Float64frombits(binary.LittleEndian.Uint64(b[12:])),
		MaleCloningFraction:   math.Float64frombits(binary.LittleEndian.Uint64(b[20:])),
		SexRatio:              math.Float64frombits(binary.LittleEndian.Uint64(b[28:])),
	}
	bounds := make([]float64, 6)
	for i := range bounds {
		bounds[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[36+8*i:]))
	}
	m.BoundsX0, m.BoundsX1 = bounds[0], bounds[1]
	m.BoundsY0, m.BoundsY1 = bounds[2], bounds[3]
	m.BoundsZ0, m.BoundsZ1 = bounds[4], bounds[5]
	count := int(binary.LittleEndian.Uint32(b[84:]))
	if len(b) != populationBaseRecordSize+count*migrationRecordSize {
		return domain.PopulationMetadata{}, fmt.Errorf("%w: population record declares %d migration records but is %d bytes", ErrMalformed, count, len(b))
	}
	for i := 0; i < count; i++ {
		off := populationBaseRecordSize + i*migrationRecordSize
		m.MigrationRecords = append(m.MigrationRecords, domain.MigrationRecord{
			Source: domain.ID(binary.LittleEndian.Uint32(b[off:])),
			Rate:   math.Float64frombits(binary.LittleEndian.Uint64(b[off+4:])),
		})
	}
	return m, nil
}
