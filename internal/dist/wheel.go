package dist

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// WheelDistribution is a built wheel (.whl) archive.
type WheelDistribution struct {
	base
	path    string
	distDir string
}

// OpenWheel reads the metadata of the wheel at path.
func OpenWheel(path string) (*WheelDistribution, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wheel: %w", err)
	}
	defer zr.Close()

	distDir := ""
	for _, f := range zr.File {
		dir, name, ok := strings.Cut(f.Name, "/")
		if ok && name == "METADATA" && strings.HasSuffix(dir, ".dist-info") {
			distDir = dir
			break
		}
	}
	if distDir == "" {
		return nil, fmt.Errorf("no .dist-info/METADATA in wheel")
	}

	data, err := readZipMember(&zr.Reader, distDir+"/METADATA")
	if err != nil {
		return nil, err
	}
	m := ParseMetadata(data)
	w := &WheelDistribution{base: base{metadata: m}, path: path, distDir: distDir}

	if data, err := readZipMember(&zr.Reader, distDir+"/entry_points.txt"); err == nil {
		w.entryPoints = ParseEntryPoints(string(data))
	}
	return w, nil
}

func readZipMember(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}

// Files returns the wheel members laid out for a noarch python package:
// importable code under site-packages/, scripts under python-scripts/ and
// data files at the prefix root. Headers are not installed.
func (w *WheelDistribution) Files() ([]PayloadFile, error) {
	zr, err := zip.OpenReader(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wheel: %w", err)
	}
	defer zr.Close()

	dataDir := strings.TrimSuffix(w.distDir, ".dist-info") + ".data/"

	var files []PayloadFile
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		target, ok := wheelTarget(f.Name, dataDir)
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}

		mode := f.Mode().Perm()
		if mode == 0 {
			mode = 0644
		}
		files = append(files, PayloadFile{Path: target, Mode: mode, Data: data})
	}
	return files, nil
}

func wheelTarget(name, dataDir string) (string, bool) {
	clean := path.Clean(name)
	if strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", false
	}
	if !strings.HasPrefix(clean, dataDir) {
		return "site-packages/" + clean, true
	}
	scheme, rest, ok := strings.Cut(strings.TrimPrefix(clean, dataDir), "/")
	if !ok {
		return "", false
	}
	switch scheme {
	case "purelib", "platlib":
		return "site-packages/" + rest, true
	case "scripts":
		return "python-scripts/" + rest, true
	case "data":
		return rest, true
	}
	return "", false
}
