// Package conda assembles conda package metadata from Python distributions.
package conda

import "fmt"

// Fixed values for pure-Python packages.
const (
	DefaultBuild       = "0"
	DefaultBuildNumber = "0"
	NoarchPython       = "python"
	SubdirNoarch       = "noarch"
)

// PackageRecord is the content of a package's info/index.json.
type PackageRecord struct {
	BuildNumber   string   `json:"build_number" yaml:"build_number"`
	Build         string   `json:"build" yaml:"build"`
	Depends       []string `json:"depends" yaml:"depends"`
	LicenseFamily string   `json:"license_family" yaml:"license_family"`
	License       string   `json:"license" yaml:"license"`
	Name          string   `json:"name" yaml:"name"`
	Noarch        string   `json:"noarch" yaml:"noarch"`
	Subdir        string   `json:"subdir" yaml:"subdir"`
	Timestamp     int64    `json:"timestamp" yaml:"timestamp"`
	Version       string   `json:"version" yaml:"version"`
}

// ToIndexJSON projects the record onto the index.json document. This is
// the only place the record's wire shape is defined.
func (r PackageRecord) ToIndexJSON() map[string]any {
	depends := r.Depends
	if depends == nil {
		depends = []string{}
	}
	return map[string]any{
		"build_number":   r.BuildNumber,
		"build":          r.Build,
		"depends":        depends,
		"license_family": r.LicenseFamily,
		"license":        r.License,
		"name":           r.Name,
		"noarch":         r.Noarch,
		"subdir":         r.Subdir,
		"timestamp":      r.Timestamp,
		"version":        r.Version,
	}
}

// Filename returns the package file name "<name>-<version>-<build><ext>".
func (r PackageRecord) Filename(ext string) string {
	return fmt.Sprintf("%s-%s-%s%s", r.Name, r.Version, r.Build, ext)
}
