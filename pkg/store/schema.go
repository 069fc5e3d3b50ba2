package store

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/bundlesize/pkg/snapshot"
)

//go:embed snapshot-schema.json
var schemaJSON []byte

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Schema returns the JSON schema that archived snapshots conform to.
func Schema() []byte {
	return schemaJSON
}

// Parse validates a persisted snapshot document and decodes it.
func Parse(raw []byte) (snapshot.Snapshot, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}

	var snap snapshot.Snapshot

	unmarshalErr := json.Unmarshal(raw, &snap)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, unmarshalErr)
	}

	validateErr := snap.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, validateErr)
	}

	return snap, nil
}
