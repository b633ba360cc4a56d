package core

import (
	"fmt"

	"lineagecore/internal/metadata"
	"lineagecore/internal/tables"
	"lineagecore/pkg/domain"
)

// upgradeCollection converts tables written under a legacy schema version to
// CurrentFormatVersion on a clone of the input. Schema 0.1 and 0.2 predate
// nucleotide slots in mutation metadata, so those blobs are re-encoded with
// empty slots; schema 0.1 additionally recorded node and migration times
// relative to the simulation start instead of time-ago, so times are shifted
// by the current generation. A provenance record pair marking the conversion
// is appended.
func upgradeCollection(col *tables.Collection, prov domain.ProvenanceInfo, warn WarningSink) (*tables.Collection, error) {
	switch prov.FormatVersion {
	case formatVersion01, formatVersion02, formatVersion03:
	default:
		return nil, validationf("upgrade", "unknown schema version %q", prov.FormatVersion)
	}
	warn(fmt.Sprintf("these tables use schema version %s; converting to version %s",
		prov.FormatVersion, CurrentFormatVersion))

	out := col.Clone()
	if prov.FormatVersion == formatVersion01 || prov.FormatVersion == formatVersion02 {
		records := make([][]byte, out.Mutations.Metadata.Len())
		for i := range records {
			entries, err := metadata.DecodeMutationLegacy(out.Mutations.Metadata.At(i))
			if err != nil {
				return nil, validationf("upgrade", "mutation %d: %v", i, err)
			}
			records[i] = metadata.EncodeMutation(entries)
		}
		out.Mutations.Metadata.Set(records)
	}
	if prov.FormatVersion == formatVersion01 {
		shift := float64(prov.Generation)
		for i := range out.Nodes.Time {
			out.Nodes.Time[i] += shift
		}
		for i := range out.Migrations.Time {
			out.Migrations.Time[i] += shift
		}
	}
	if err := appendProvenancePair(out, prov.ModelType, prov.Generation); err != nil {
		return nil, err
	}
	return out, nil
}
