package dist

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
)

// PyProjectTOML is the subset of pyproject.toml that carries PEP 621 project
// metadata.
type PyProjectTOML struct {
	Project struct {
		Name                 string                       `toml:"name"`
		Version              string                       `toml:"version"`
		Description          string                       `toml:"description"`
		License              interface{}                  `toml:"license"` // string, {text = "..."} or {file = "..."}
		LicenseFiles         []string                     `toml:"license-files"`
		RequiresPython       string                       `toml:"requires-python"`
		Dependencies         []string                     `toml:"dependencies"`
		OptionalDependencies map[string][]string          `toml:"optional-dependencies"`
		Scripts              map[string]string            `toml:"scripts"`
		GUIScripts           map[string]string            `toml:"gui-scripts"`
		EntryPoints          map[string]map[string]string `toml:"entry-points"`
		Dynamic              []string                     `toml:"dynamic"`
	} `toml:"project"`
}

// PyProjectDistribution is a source tree described by pyproject.toml.
type PyProjectDistribution struct {
	base
}

// OpenPyProject reads dir/pyproject.toml and converts its [project] table
// into core metadata fields.
func OpenPyProject(dir string) (*PyProjectDistribution, error) {
	path := dir
	if filepath.Base(dir) != "pyproject.toml" {
		path = filepath.Join(dir, "pyproject.toml")
	}

	var pyproject PyProjectTOML
	md, err := toml.DecodeFile(path, &pyproject)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pyproject.toml: %w", err)
	}
	project := pyproject.Project
	if project.Name == "" {
		return nil, fmt.Errorf("pyproject.toml has no [project] name")
	}

	m := NewMetadata()
	m.Add("Metadata-Version", "2.4")
	m.Add("Name", project.Name)
	if project.Version != "" {
		m.Add("Version", project.Version)
	}
	if project.Description != "" {
		m.Add("Summary", project.Description)
	}
	if project.RequiresPython != "" {
		m.Add("Requires-Python", project.RequiresPython)
	}

	switch license := project.License.(type) {
	case string:
		m.Add("License-Expression", license)
		m.Add("License", license)
	case map[string]interface{}:
		if text, ok := license["text"].(string); ok {
			m.Add("License", text)
		}
		if file, ok := license["file"].(string); ok {
			m.Add("License-File", file)
		}
	}
	for _, file := range project.LicenseFiles {
		m.Add("License-File", file)
	}

	for _, dep := range project.Dependencies {
		m.Add("Requires-Dist", dep)
	}
	for _, extra := range tableKeys(md, "project", "optional-dependencies") {
		m.Add("Provides-Extra", extra)
		for _, dep := range project.OptionalDependencies[extra] {
			m.Add("Requires-Dist", dep+sectionMarker(dep, extra))
		}
	}

	var entryPoints []EntryPoint
	addGroup := func(group string, items map[string]string, table ...string) {
		for _, name := range tableKeys(md, table...) {
			entryPoints = append(entryPoints, EntryPoint{Group: group, Name: name, Value: items[name]})
		}
	}
	addGroup("console_scripts", project.Scripts, "project", "scripts")
	addGroup("gui_scripts", project.GUIScripts, "project", "gui-scripts")
	for _, group := range tableKeys(md, "project", "entry-points") {
		addGroup(group, project.EntryPoints[group], "project", "entry-points", group)
	}

	return &PyProjectDistribution{base{metadata: m, entryPoints: entryPoints}}, nil
}

// tableKeys returns the names defined in the table at path, in the order
// they appear in the document.
func tableKeys(md toml.MetaData, path ...string) []string {
	var names []string
	for _, key := range md.Keys() {
		if len(key) <= len(path) || !slices.Equal([]string(key[:len(path)]), path) {
			continue
		}
		if name := key[len(path)]; !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}
