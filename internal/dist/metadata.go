// Package dist reads the metadata of Python distributions: installed
// *.dist-info directories, wheels, sdists, standalone core metadata files and
// pyproject.toml source trees.
package dist

import (
	"net/textproto"
	"sort"
	"strings"
)

// Metadata is the core metadata of a distribution (the METADATA or PKG-INFO
// file). Field lookups are case-insensitive and accept "_" for "-".
type Metadata struct {
	header textproto.MIMEHeader
}

// NewMetadata returns an empty Metadata.
func NewMetadata() Metadata {
	return Metadata{header: make(textproto.MIMEHeader)}
}

// ParseMetadata parses RFC 822 style core metadata the way Python's email
// parser does. Folded values keep their line breaks and continuation
// indentation. The header ends at the first blank line or at the first line
// that is neither a field nor a continuation; what follows is stored as
// Description unless that field is already set.
func ParseMetadata(data []byte) Metadata {
	m := NewMetadata()
	lines := strings.SplitAfter(string(data), "\n")

	var key, value string
	flush := func() {
		if key != "" {
			m.Add(key, value)
		}
		key, value = "", ""
	}

	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r\n")
		if line == "" {
			i++
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			if key != "" {
				value += "\n" + line
			}
			continue
		}
		name, v, ok := strings.Cut(line, ":")
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			break
		}
		flush()
		key, value = name, strings.TrimLeft(v, " \t")
	}
	flush()

	body := strings.Join(lines[min(i, len(lines)):], "")
	if text := strings.TrimSpace(body); text != "" && m.Get("Description") == "" {
		m.Add("Description", text)
	}
	return m
}

func canonicalKey(key string) string {
	return textproto.CanonicalMIMEHeaderKey(strings.ReplaceAll(key, "_", "-"))
}

// Get returns the first value of key, or "".
func (m Metadata) Get(key string) string {
	return m.header.Get(canonicalKey(key))
}

// Lookup returns the first value of key and whether it is present.
func (m Metadata) Lookup(key string) (string, bool) {
	values := m.header.Values(canonicalKey(key))
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Values returns every value of a multi-use field such as Requires-Dist.
func (m Metadata) Values(key string) []string {
	return m.header.Values(canonicalKey(key))
}

// Add appends a value to key.
func (m Metadata) Add(key, value string) {
	m.header.Add(canonicalKey(key), value)
}

// Keys returns the field names present, sorted.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m.header))
	for k := range m.header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns the fields as a plain map, single-valued fields as strings and
// repeated fields as string slices.
func (m Metadata) Map() map[string]any {
	out := make(map[string]any, len(m.header))
	for k, v := range m.header {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}
