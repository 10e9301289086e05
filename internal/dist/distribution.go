package dist

import (
	"fmt"
	"io/fs"
)

// Distribution is a read-only view of one Python distribution's metadata.
type Distribution interface {
	Name() string
	Version() string
	Metadata() Metadata
	// Requires returns the raw requirement strings in declaration order.
	Requires() []string
	EntryPoints() []EntryPoint
}

// PayloadFile is one file to install, with its path relative to the
// environment prefix.
type PayloadFile struct {
	Path string
	Mode fs.FileMode
	Data []byte
}

// Payload is implemented by distributions that carry installable files.
type Payload interface {
	Files() ([]PayloadFile, error)
}

// base implements Distribution over already-read metadata.
type base struct {
	metadata    Metadata
	entryPoints []EntryPoint
	// requiresTxt is the egg-info fallback used when Requires-Dist is absent.
	requiresTxt []string
}

func (b *base) Name() string { return b.metadata.Get("Name") }

func (b *base) Version() string { return b.metadata.Get("Version") }

func (b *base) Metadata() Metadata { return b.metadata }

func (b *base) EntryPoints() []EntryPoint { return b.entryPoints }

func (b *base) Requires() []string {
	if reqs := b.metadata.Values("Requires-Dist"); len(reqs) > 0 {
		return reqs
	}
	return b.requiresTxt
}

// MetadataDistribution is a distribution known only by its core metadata,
// such as a .metadata file served by a package index.
type MetadataDistribution struct {
	base
}

// ParseMetadataFile builds a distribution from core metadata bytes. It has
// no entry points.
func ParseMetadataFile(data []byte) (*MetadataDistribution, error) {
	m := ParseMetadata(data)
	if _, ok := m.Lookup("Name"); !ok {
		return nil, fmt.Errorf("core metadata has no Name field")
	}
	return &MetadataDistribution{base{metadata: m}}, nil
}
