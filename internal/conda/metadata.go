package conda

import (
	"github.com/ralt/pupa/internal/dist"
)

// About is the free-text package description written to info/about.json.
type About struct {
	Summary     string `json:"summary" yaml:"summary"`
	License     string `json:"license" yaml:"license"`
	LicenseFile string `json:"license_file" yaml:"license_file"`
}

// CondaMetadata is everything needed to describe one converted
// distribution. It is built once by an Assembler and not modified after.
type CondaMetadata struct {
	Metadata       dist.Metadata
	ConsoleScripts []string
	PackageRecord  PackageRecord
	About          About
}

// IndexJSON returns the info/index.json document.
func (c *CondaMetadata) IndexJSON() map[string]any {
	return c.PackageRecord.ToIndexJSON()
}

// AboutJSON returns the info/about.json document.
func (c *CondaMetadata) AboutJSON() map[string]any {
	return map[string]any{
		"summary":      c.About.Summary,
		"license":      c.About.License,
		"license_file": c.About.LicenseFile,
	}
}

// LinkJSON returns the info/link.json document, which is where conda reads
// the console scripts of noarch python packages.
func (c *CondaMetadata) LinkJSON() map[string]any {
	entryPoints := c.ConsoleScripts
	if entryPoints == nil {
		entryPoints = []string{}
	}
	return map[string]any{
		"noarch": map[string]any{
			"type":         NoarchPython,
			"entry_points": entryPoints,
		},
		"package_metadata_version": 1,
	}
}

// ToDocument returns the full record as a plain document suitable for JSON
// or YAML encoding.
func (c *CondaMetadata) ToDocument() map[string]any {
	scripts := c.ConsoleScripts
	if scripts == nil {
		scripts = []string{}
	}
	return map[string]any{
		"metadata":        c.Metadata.Map(),
		"console_scripts": scripts,
		"package_record":  c.IndexJSON(),
		"about":           c.AboutJSON(),
	}
}
