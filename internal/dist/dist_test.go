package dist

import (
	"archive/tar"
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralt/pupa/internal/scanner"
)

const zopeMetadata = `Metadata-Version: 2.1
Name: zope.hookable
Version: 6.0
Summary: Efficient creation of "hookable" objects
License: ZPL 2.1
License-File: LICENSE.txt
Requires-Python: >=3.7
Requires-Dist: setuptools
Requires-Dist: zope.testing ; extra == 'test'
Requires-Dist: typing_extensions>=4; python_version < "3.8"

Long description
spanning lines.
`

const consoleEntryPoints = `[console_scripts]
hook = zope.hookable.cli:main
other = pkg:run

[gui_scripts]
hook-gui = zope.hookable.gui:main
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestParseMetadata(t *testing.T) {
	m := ParseMetadata([]byte(zopeMetadata))

	assert.Equal(t, "zope.hookable", m.Get("name"))
	assert.Equal(t, ">=3.7", m.Get("requires_python"))
	assert.Equal(t, "LICENSE.txt", m.Get("License-File"))
	assert.Len(t, m.Values("Requires-Dist"), 3)
	assert.Equal(t, "Long description\nspanning lines.", m.Get("Description"))

	_, ok := m.Lookup("Home-page")
	assert.False(t, ok)
	assert.Contains(t, m.Keys(), "Requires-Dist")
	assert.IsType(t, []string{}, m.Map()["Requires-Dist"])
	assert.Equal(t, "6.0", m.Map()["Version"])
}

func TestParseMetadataWithoutTrailingNewline(t *testing.T) {
	m := ParseMetadata([]byte("Name: foo\nVersion: 1.0"))
	assert.Equal(t, "foo", m.Get("Name"))
	assert.Equal(t, "1.0", m.Get("Version"))
}

func TestParseMetadataKeepsFoldedValues(t *testing.T) {
	m := ParseMetadata([]byte("Name: foo\nLicense: MIT\n  line two\n\tline three\nVersion: 1.0\n"))
	assert.Equal(t, "MIT\n  line two\n\tline three", m.Get("License"))
	assert.Equal(t, "1.0", m.Get("Version"))
}

func TestParseMetadataStopsAtNonHeaderLine(t *testing.T) {
	m := ParseMetadata([]byte("Name: foo\nVersion: 1.0\nnot a header\nRequires-Dist: bar\n"))
	assert.Equal(t, "foo", m.Get("Name"))
	assert.Equal(t, "1.0", m.Get("Version"))
	assert.Empty(t, m.Values("Requires-Dist"))
	assert.Equal(t, "not a header\nRequires-Dist: bar", m.Get("Description"))
}

func TestParseMetadataFileRequiresName(t *testing.T) {
	_, err := ParseMetadataFile([]byte("Version: 1.0\n"))
	assert.Error(t, err)

	d, err := ParseMetadataFile([]byte("Name: foo\nVersion: 1.0\nstray line\n"))
	require.NoError(t, err)
	assert.Equal(t, "foo", d.Name())
}

func TestParseEntryPoints(t *testing.T) {
	eps := ParseEntryPoints(consoleEntryPoints)
	require.Len(t, eps, 3)
	assert.Equal(t, EntryPoint{Group: "console_scripts", Name: "hook", Value: "zope.hookable.cli:main"}, eps[0])
	assert.Equal(t, "other = pkg:run", eps[1].String())
	assert.Equal(t, "gui_scripts", eps[2].Group)
}

func TestParseRequiresTxt(t *testing.T) {
	got := parseRequiresTxt(`requests>=2
# comment

[test]
pytest

[:sys_platform == "win32"]
pywin32

[docs:python_version < "3.9"]
sphinx
foo @ https://example.com/foo.whl
`)
	assert.Equal(t, []string{
		"requests>=2",
		`pytest; extra == "test"`,
		`pywin32; sys_platform == "win32"`,
		`sphinx; (python_version < "3.9") and extra == "docs"`,
		`foo @ https://example.com/foo.whl ; (python_version < "3.9") and extra == "docs"`,
	}, got)
}

func TestOpenDistInfo(t *testing.T) {
	site := t.TempDir()
	dir := filepath.Join(site, "zope.hookable-6.0.dist-info")
	writeFile(t, filepath.Join(dir, "METADATA"), zopeMetadata)
	writeFile(t, filepath.Join(dir, "entry_points.txt"), consoleEntryPoints)
	writeFile(t, filepath.Join(dir, "RECORD"), `zope/hookable/__init__.py,sha256=abc,5
zope/hookable/__pycache__/__init__.cpython-312.pyc,,
zope.hookable-6.0.dist-info/METADATA,,
../../../bin/hook,,
`)
	writeFile(t, filepath.Join(site, "zope", "hookable", "__init__.py"), "x = 1")

	d, err := OpenDistInfo(dir)
	require.NoError(t, err)
	assert.Equal(t, "zope.hookable", d.Name())
	assert.Equal(t, "6.0", d.Version())
	assert.Len(t, d.Requires(), 3)
	assert.Len(t, d.EntryPoints(), 3)

	files, err := d.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "site-packages/zope/hookable/__init__.py", files[0].Path)
	assert.Equal(t, []byte("x = 1"), files[0].Data)
	assert.Equal(t, "site-packages/zope.hookable-6.0.dist-info/METADATA", files[1].Path)
}

func TestOpenEggInfoFallsBackToRequiresTxt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "legacy-1.0.egg-info")
	writeFile(t, filepath.Join(dir, "PKG-INFO"), "Metadata-Version: 1.1\nName: legacy\nVersion: 1.0\n")
	writeFile(t, filepath.Join(dir, "requires.txt"), "six\n[test]\nnose\n")

	d, err := OpenDistInfo(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"six", `nose; extra == "test"`}, d.Requires())
	assert.Empty(t, d.EntryPoints())
}

func TestOpenDistInfoMissingMetadata(t *testing.T) {
	_, err := OpenDistInfo(filepath.Join(t.TempDir(), "missing-1.0.dist-info"))
	assert.Error(t, err)
}

func writeWheel(t *testing.T, path string, members map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestOpenWheel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zope.hookable-6.0-py3-none-any.whl")
	writeWheel(t, path, map[string]string{
		"zope/hookable/__init__.py":                      "x = 1",
		"zope.hookable-6.0.dist-info/METADATA":           zopeMetadata,
		"zope.hookable-6.0.dist-info/entry_points.txt":   consoleEntryPoints,
		"zope.hookable-6.0.data/scripts/hook-legacy":     "#!python",
		"zope.hookable-6.0.data/purelib/extra_module.py": "y = 2",
		"zope.hookable-6.0.data/data/share/doc.txt":      "doc",
		"zope.hookable-6.0.data/headers/hook.h":          "",
	})

	w, err := OpenWheel(path)
	require.NoError(t, err)
	assert.Equal(t, "zope.hookable", w.Name())
	assert.Len(t, w.EntryPoints(), 3)

	files, err := w.Files()
	require.NoError(t, err)
	paths := make(map[string]bool)
	for _, f := range files {
		paths[f.Path] = true
	}
	assert.Equal(t, map[string]bool{
		"site-packages/zope/hookable/__init__.py":                    true,
		"site-packages/zope.hookable-6.0.dist-info/METADATA":         true,
		"site-packages/zope.hookable-6.0.dist-info/entry_points.txt": true,
		"python-scripts/hook-legacy":                                 true,
		"site-packages/extra_module.py":                              true,
		"share/doc.txt":                                              true,
	}, paths)
}

func TestOpenWheelWithoutMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken-1.0-py3-none-any.whl")
	writeWheel(t, path, map[string]string{"broken/__init__.py": ""})
	_, err := OpenWheel(path)
	assert.Error(t, err)
}

func TestOpenSdist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy-1.0.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	for name, content := range map[string]string{
		"legacy-1.0/PKG-INFO":                             "Metadata-Version: 1.2\nName: legacy\nVersion: 1.0\n",
		"legacy-1.0/src/legacy.egg-info/PKG-INFO":         "Name: wrong\n",
		"legacy-1.0/src/legacy.egg-info/requires.txt":     "six\n",
		"legacy-1.0/src/legacy.egg-info/entry_points.txt": "[console_scripts]\nlegacy = legacy:main\n",
	} {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(content)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	d, err := OpenSdist(path)
	require.NoError(t, err)
	assert.Equal(t, "legacy", d.Name())
	assert.Equal(t, []string{"six"}, d.Requires())
	require.Len(t, d.EntryPoints(), 1)
	assert.Equal(t, "legacy = legacy:main", d.EntryPoints()[0].String())
}

func TestOpenPyProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), `
[project]
name = "demo-app"
version = "0.3.0"
description = "A demo"
requires-python = ">=3.9"
license = {text = "MIT"}
dependencies = ["requests>=2", "click"]

[project.optional-dependencies]
test = ["pytest>=7"]

[project.scripts]
demo = "demo_app.cli:main"

[project.entry-points."demo.plugins"]
basic = "demo_app.plugins:basic"
`)

	d, err := OpenPyProject(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo-app", d.Name())
	assert.Equal(t, "0.3.0", d.Version())
	assert.Equal(t, "A demo", d.Metadata().Get("Summary"))
	assert.Equal(t, "MIT", d.Metadata().Get("License"))
	assert.Equal(t, ">=3.9", d.Metadata().Get("Requires-Python"))
	assert.Equal(t, []string{"requests>=2", "click", `pytest>=7; extra == "test"`}, d.Requires())
	require.Len(t, d.EntryPoints(), 2)
	assert.Equal(t, EntryPoint{Group: "console_scripts", Name: "demo", Value: "demo_app.cli:main"}, d.EntryPoints()[0])
	assert.Equal(t, "demo.plugins", d.EntryPoints()[1].Group)
}

func TestOpenPyProjectKeepsDeclarationOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), `
[project]
name = "demo"
version = "1.0"
dependencies = ["zeta", "alpha"]
gui-scripts = {zeta-gui = "demo:zeta_gui", alpha-gui = "demo:alpha_gui"}

[project.optional-dependencies]
zz = ["b"]
aa = ["a"]

[project.scripts]
zeta-cli = "demo:zeta"
alpha-cli = "demo:alpha"

[project.entry-points.zgroup]
one = "demo:one"

[project.entry-points.agroup]
two = "demo:two"
`)

	d, err := OpenPyProject(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", `b; extra == "zz"`, `a; extra == "aa"`}, d.Requires())
	assert.Equal(t, []string{"zz", "aa"}, d.Metadata().Values("Provides-Extra"))

	var got []string
	for _, ep := range d.EntryPoints() {
		got = append(got, ep.Group+":"+ep.Name)
	}
	assert.Equal(t, []string{
		"console_scripts:zeta-cli",
		"console_scripts:alpha-cli",
		"gui_scripts:zeta-gui",
		"gui_scripts:alpha-gui",
		"zgroup:one",
		"agroup:two",
	}, got)
}

func TestOpenDispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foo-1.0-py3-none-any.whl.metadata")
	writeFile(t, path, "Name: foo\nVersion: 1.0\nRequires-Dist: bar\n")

	d, err := Open(path, scanner.TypeMetadataFile)
	require.NoError(t, err)
	assert.Equal(t, "foo", d.Name())
	assert.Equal(t, []string{"bar"}, d.Requires())
	assert.Empty(t, d.EntryPoints())

	_, err = Open(path, scanner.TypeUnknown)
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "nope.whl"), scanner.TypeWheel)
	assert.Error(t, err)
}
