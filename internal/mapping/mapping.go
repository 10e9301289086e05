// Package mapping translates canonical PyPI project names to conda package
// names using a table in the grayskull_pypi_mapping.json format. The table
// built into the binary is a sample of common renames; the full table is
// loaded from a file with Load.
package mapping

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ralt/pupa/internal/pep508"
)

//go:embed sample_pypi_mapping.json
var sampleTable []byte

// Entry is one row of the mapping table.
type Entry struct {
	PyPIName      string  `json:"pypi_name"`
	CondaName     string  `json:"conda_name"`
	ImportName    *string `json:"import_name"`
	MappingSource *string `json:"mapping_source"`
}

// Table maps canonical PyPI names to entries. It is never modified after
// construction and is safe for concurrent use. A nil Table maps every name
// to itself.
type Table struct {
	entries map[string]Entry
}

// Parse decodes a mapping document of the form {"<pypi name>": Entry}.
// Keys are canonicalized so lookups by canonical name always hit.
func Parse(data []byte) (*Table, error) {
	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse mapping table: %w", err)
	}
	entries := make(map[string]Entry, len(raw))
	for name, entry := range raw {
		if entry.CondaName == "" {
			return nil, fmt.Errorf("mapping entry %q has no conda_name", name)
		}
		entries[pep508.CanonicalizeName(name)] = entry
	}
	return &Table{entries: entries}, nil
}

// Load reads the table at path. A missing or malformed file is logged as a
// warning and yields an empty table.
func Load(path string, log logrus.FieldLogger) *Table {
	data, err := os.ReadFile(path)
	if err != nil {
		log.WithField("path", path).Warnf("MissingMappingTable: %v; names will not be translated", err)
		return &Table{}
	}
	return parseOrEmpty(data, path, log)
}

// Default returns the sample table shipped with the binary.
func Default(log logrus.FieldLogger) *Table {
	return parseOrEmpty(sampleTable, "embedded sample", log)
}

func parseOrEmpty(data []byte, source string, log logrus.FieldLogger) *Table {
	t, err := Parse(data)
	if err != nil {
		log.WithField("path", source).Warnf("MissingMappingTable: %v; names will not be translated", err)
		return &Table{}
	}
	log.WithField("path", source).Debugf("Loaded %d name mappings", t.Len())
	return t
}

// Translate returns the conda name for a canonical PyPI name, or the name
// itself when the table has no entry.
func (t *Table) Translate(name string) string {
	if e, ok := t.Lookup(name); ok {
		return e.CondaName
	}
	return name
}

// Lookup returns the entry for a canonical PyPI name.
func (t *Table) Lookup(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[name]
	return e, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
