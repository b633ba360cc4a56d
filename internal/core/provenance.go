package core

import (
	"encoding/json"
	"fmt"
	"time"

	"lineagecore/internal/tables"
	"lineagecore/pkg/domain"
)

// CurrentFormatVersion is the schema version this package reads and writes.
// Older versions are upgraded in place at wrap time.
const CurrentFormatVersion = "0.4"

// Known legacy schema versions, oldest first.
const (
	formatVersion01 = "0.1"
	formatVersion02 = "0.2"
	formatVersion03 = "0.3"
)

// simulatorProgram tags provenance records authored by the forward simulator;
// toolProgram tags records appended by this library.
const (
	simulatorProgram = "forward-sim"
	toolProgram      = "lineagecore"
	toolVersion      = "0.4.0"
)

// provenanceRecord is the JSON shape of one provenance table entry. Only
// simulator-tagged records carry the model/generation fields the engine needs.
type provenanceRecord struct {
	Program       string `json:"program"`
	Version       string `json:"version,omitempty"`
	FileVersion   string `json:"file_version,omitempty"`
	ModelType     string `json:"model_type,omitempty"`
	Generation    int    `json:"generation,omitempty"`
	RememberCount int    `json:"remembered_node_count,omitempty"`
}

// lastSimulatorProvenance extracts the authoritative simulator record: the
// most recent provenance row tagged with the simulator program.
func lastSimulatorProvenance(col *tables.Collection) (domain.ProvenanceInfo, error) {
	records, err := simulatorProvenances(col)
	if err != nil {
		return domain.ProvenanceInfo{}, err
	}
	if len(records) == 0 {
		return domain.ProvenanceInfo{}, validationf("provenance", "no simulator provenance record found")
	}
	return records[len(records)-1], nil
}

// simulatorProvenances returns every simulator-tagged provenance record in
// table order. Rows that are not valid JSON are skipped: the history may
// contain records from other tools.
func simulatorProvenances(col *tables.Collection) ([]domain.ProvenanceInfo, error) {
	var out []domain.ProvenanceInfo
	for i := 0; i < col.Provenances.Len(); i++ {
		var rec provenanceRecord
		if err := json.Unmarshal([]byte(col.Provenances.Record[i]), &rec); err != nil {
			continue
		}
		if rec.Program != simulatorProgram {
			continue
		}
		model := domain.ModelType(rec.ModelType)
		if !model.Valid() {
			return nil, validationf("provenance", "record %d has unknown model type %q", i, rec.ModelType)
		}
		out = append(out, domain.ProvenanceInfo{
			FormatVersion: rec.FileVersion,
			ModelType:     model,
			Generation:    rec.Generation,
		})
	}
	return out, nil
}

// appendProvenancePair appends the tool-provenance and simulator-provenance
// records produced when this library synthesizes or upgrades annotations.
func appendProvenancePair(col *tables.Collection, modelType domain.ModelType, generation int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	tool := provenanceRecord{Program: toolProgram, Version: toolVersion, FileVersion: CurrentFormatVersion}
	sim := provenanceRecord{
		Program:     simulatorProgram,
		FileVersion: CurrentFormatVersion,
		ModelType:   string(modelType),
		Generation:  generation,
	}
	for _, rec := range []provenanceRecord{tool, sim} {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode provenance: %w", err)
		}
		col.Provenances.Append(now, string(raw))
	}
	return nil
}
