package dist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DirDistribution is an installed distribution: a *.dist-info or *.egg-info
// directory inside site-packages.
type DirDistribution struct {
	base
	dir string
}

// OpenDistInfo reads the distribution rooted at dir. For *.dist-info the
// metadata file is METADATA, for *.egg-info it is PKG-INFO.
func OpenDistInfo(dir string) (*DirDistribution, error) {
	metadataName := "METADATA"
	if strings.HasSuffix(dir, ".egg-info") {
		metadataName = "PKG-INFO"
	}

	data, err := os.ReadFile(filepath.Join(dir, metadataName))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", metadataName, err)
	}
	m := ParseMetadata(data)

	d := &DirDistribution{base: base{metadata: m}, dir: dir}

	// Optional files
	entryPoints, err := readOptional(filepath.Join(dir, "entry_points.txt"))
	if err != nil {
		return nil, err
	}
	d.entryPoints = ParseEntryPoints(entryPoints)

	requiresTxt, err := readOptional(filepath.Join(dir, "requires.txt"))
	if err != nil {
		return nil, err
	}
	d.requiresTxt = parseRequiresTxt(requiresTxt)
	return d, nil
}

// OpenMetadataFile reads a standalone core metadata file, such as the
// <wheel>.metadata file published by package indexes.
func OpenMetadataFile(path string) (*MetadataDistribution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	return ParseMetadataFile(data)
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return string(data), nil
}

// Files returns the installed files listed in RECORD, relative to
// site-packages. Files outside site-packages and compiled bytecode are
// skipped.
func (d *DirDistribution) Files() ([]PayloadFile, error) {
	f, err := os.Open(filepath.Join(d.dir, "RECORD"))
	if err != nil {
		return nil, fmt.Errorf("failed to open RECORD: %w", err)
	}
	defer f.Close()

	siteDir := filepath.Dir(d.dir)
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var files []PayloadFile
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse RECORD: %w", err)
		}
		if len(record) == 0 || record[0] == "" {
			continue
		}
		rel := path.Clean(filepath.ToSlash(record[0]))
		if strings.HasPrefix(rel, "../") || path.IsAbs(rel) || isBytecode(rel) {
			continue
		}

		full := filepath.Join(siteDir, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", rel, err)
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rel, err)
		}
		files = append(files, PayloadFile{
			Path: "site-packages/" + rel,
			Mode: info.Mode().Perm(),
			Data: data,
		})
	}
	return files, nil
}

func isBytecode(p string) bool {
	return strings.HasSuffix(p, ".pyc") || strings.Contains(p, "__pycache__/")
}
