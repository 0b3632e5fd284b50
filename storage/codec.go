package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pthm-cable/evogrid/neural"
)

// CurrentSchemaVersion is written with every payload.
const CurrentSchemaVersion = 1

var ErrVersionMismatch = errors.New("record version mismatch")

type payload struct {
	SchemaVersion int             `json:"schema_version"`
	Genomes       []neural.Genome `json:"genomes"`
}

// EncodeGenomes serialises genomes for storage.
func EncodeGenomes(genomes []neural.Genome) ([]byte, error) {
	return json.Marshal(payload{SchemaVersion: CurrentSchemaVersion, Genomes: genomes})
}

// DecodeGenomes reverses EncodeGenomes.
func DecodeGenomes(data []byte) ([]neural.Genome, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.SchemaVersion != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: schema %d, want %d", ErrVersionMismatch, p.SchemaVersion, CurrentSchemaVersion)
	}
	return p.Genomes, nil
}

func cloneGenomes(genomes []neural.Genome) []neural.Genome {
	out := make([]neural.Genome, len(genomes))
	for i, g := range genomes {
		out[i] = g.Clone()
	}
	return out
}
