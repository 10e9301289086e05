package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ralt/pupa/internal/conda"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeDocuments prints one document per record: the full CondaMetadata,
// or only index.json when indexOnly is set. YAML output is a multi-document
// stream.
func writeDocuments(w io.Writer, format string, indexOnly bool, records []*conda.CondaMetadata) error {
	docs := make([]map[string]any, 0, len(records))
	for _, cm := range records {
		if indexOnly {
			docs = append(docs, cm.IndexJSON())
		} else {
			docs = append(docs, cm.ToDocument())
		}
	}

	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, doc := range docs {
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("failed to encode yaml: %w", err)
			}
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		for _, doc := range docs {
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("failed to encode json: %w", err)
			}
		}
		return nil
	}
}
