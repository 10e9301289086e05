package conda

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	meta "github.com/ralt/pupa/internal/conda"
	"github.com/ralt/pupa/internal/models"
)

// RepodataVersion is the repodata.json schema version written
const RepodataVersion = 1

// RepodataInfo is the info section of repodata.json
type RepodataInfo struct {
	Subdir string `json:"subdir"`
}

// RepodataEntry describes one package file in repodata.json
type RepodataEntry struct {
	Build         string   `json:"build"`
	BuildNumber   int      `json:"build_number"`
	Depends       []string `json:"depends"`
	License       string   `json:"license"`
	LicenseFamily string   `json:"license_family"`
	MD5           string   `json:"md5"`
	Name          string   `json:"name"`
	Noarch        string   `json:"noarch,omitempty"`
	SHA256        string   `json:"sha256"`
	Size          int64    `json:"size"`
	Subdir        string   `json:"subdir"`
	Timestamp     int64    `json:"timestamp"`
	Version       string   `json:"version"`
}

// Repodata is the channel index of one subdir
type Repodata struct {
	Info            RepodataInfo             `json:"info"`
	Packages        map[string]RepodataEntry `json:"packages"`
	PackagesConda   map[string]RepodataEntry `json:"packages.conda"`
	Removed         []string                 `json:"removed"`
	RepodataVersion int                      `json:"repodata_version"`
}

// NewRepodata returns an empty index for subdir
func NewRepodata(subdir string) *Repodata {
	return &Repodata{
		Info:            RepodataInfo{Subdir: subdir},
		Packages:        map[string]RepodataEntry{},
		PackagesConda:   map[string]RepodataEntry{},
		Removed:         []string{},
		RepodataVersion: RepodataVersion,
	}
}

// ReadRepodata loads an existing repodata.json
func ReadRepodata(path string) (*Repodata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rd Repodata
	if err := json.Unmarshal(data, &rd); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if rd.Packages == nil {
		rd.Packages = map[string]RepodataEntry{}
	}
	if rd.PackagesConda == nil {
		rd.PackagesConda = map[string]RepodataEntry{}
	}
	if rd.Removed == nil {
		rd.Removed = []string{}
	}
	return &rd, nil
}

// Marshal encodes the index with stable key order
func (r *Repodata) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Add records pkg under packages.conda
func (r *Repodata) Add(pkg models.Package) {
	r.PackagesConda[pkg.Filename] = entryFromPackage(pkg)
}

// CondaPackages returns the packages.conda entries as packages
func (r *Repodata) CondaPackages() []models.Package {
	packages := make([]models.Package, 0, len(r.PackagesConda))
	for filename, entry := range r.PackagesConda {
		packages = append(packages, packageFromEntry(filename, entry))
	}
	return packages
}

func entryFromPackage(pkg models.Package) RepodataEntry {
	rec := pkg.Record
	buildNumber, err := strconv.Atoi(rec.BuildNumber)
	if err != nil {
		buildNumber = 0
	}
	depends := rec.Depends
	if depends == nil {
		depends = []string{}
	}
	return RepodataEntry{
		Build:         rec.Build,
		BuildNumber:   buildNumber,
		Depends:       depends,
		License:       rec.License,
		LicenseFamily: rec.LicenseFamily,
		MD5:           pkg.MD5Sum,
		Name:          rec.Name,
		Noarch:        rec.Noarch,
		SHA256:        pkg.SHA256Sum,
		Size:          pkg.Size,
		Subdir:        rec.Subdir,
		Timestamp:     rec.Timestamp,
		Version:       rec.Version,
	}
}

func packageFromEntry(filename string, e RepodataEntry) models.Package {
	return models.Package{
		Record: meta.PackageRecord{
			BuildNumber:   strconv.Itoa(e.BuildNumber),
			Build:         e.Build,
			Depends:       e.Depends,
			LicenseFamily: e.LicenseFamily,
			License:       e.License,
			Name:          e.Name,
			Noarch:        e.Noarch,
			Subdir:        e.Subdir,
			Timestamp:     e.Timestamp,
			Version:       e.Version,
		},
		Filename:  filename,
		Size:      e.Size,
		MD5Sum:    e.MD5,
		SHA256Sum: e.SHA256,
	}
}
