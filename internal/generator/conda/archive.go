package conda

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	meta "github.com/ralt/pupa/internal/conda"
	"github.com/ralt/pupa/internal/dist"
	"github.com/ralt/pupa/internal/utils"
)

// PackageExtension is the file extension of v2 conda packages
const PackageExtension = ".conda"

type pathEntry struct {
	Path        string `json:"_path"`
	PathType    string `json:"path_type"`
	SHA256      string `json:"sha256"`
	SizeInBytes int64  `json:"size_in_bytes"`
}

type pathsDocument struct {
	Paths        []pathEntry `json:"paths"`
	PathsVersion int         `json:"paths_version"`
}

// BuildPackage creates a .conda archive: an uncompressed zip holding
// metadata.json and two zstd compressed tarballs, one with the info/ files
// and one with the payload. Output is deterministic for a given record.
func BuildPackage(cm *meta.CondaMetadata, files []dist.PayloadFile) ([]byte, error) {
	files = append([]dist.PayloadFile(nil), files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	mtime := time.UnixMilli(cm.PackageRecord.Timestamp).UTC().Truncate(time.Second)
	stem := strings.TrimSuffix(cm.PackageRecord.Filename(PackageExtension), PackageExtension)

	// Payload tarball
	pkgTar, err := buildTar(files, mtime)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload tarball: %w", err)
	}

	// Info tarball
	infoFiles, err := infoFiles(cm, files)
	if err != nil {
		return nil, err
	}
	infoTar, err := buildTar(infoFiles, mtime)
	if err != nil {
		return nil, fmt.Errorf("failed to build info tarball: %w", err)
	}

	pkgZst, err := utils.ZstdCompress(pkgTar)
	if err != nil {
		return nil, fmt.Errorf("failed to compress payload: %w", err)
	}
	infoZst, err := utils.ZstdCompress(infoTar)
	if err != nil {
		return nil, fmt.Errorf("failed to compress info: %w", err)
	}

	// Outer zip, stored without compression
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	members := []struct {
		name string
		data []byte
	}{
		{"metadata.json", []byte(`{"conda_pkg_format_version": 2}`)},
		{"pkg-" + stem + ".tar.zst", pkgZst},
		{"info-" + stem + ".tar.zst", infoZst},
	}
	for _, m := range members {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     m.name,
			Method:   zip.Store,
			Modified: mtime,
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(m.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func infoFiles(cm *meta.CondaMetadata, payload []dist.PayloadFile) ([]dist.PayloadFile, error) {
	paths := pathsDocument{Paths: []pathEntry{}, PathsVersion: 1}
	var fileList strings.Builder
	for _, f := range payload {
		paths.Paths = append(paths.Paths, pathEntry{
			Path:        f.Path,
			PathType:    "hardlink",
			SHA256:      utils.SHA256Hex(f.Data),
			SizeInBytes: int64(len(f.Data)),
		})
		fileList.WriteString(f.Path + "\n")
	}

	documents := []struct {
		name string
		doc  any
	}{
		{"info/about.json", cm.AboutJSON()},
		{"info/index.json", cm.IndexJSON()},
		{"info/link.json", cm.LinkJSON()},
		{"info/paths.json", paths},
	}

	var out []dist.PayloadFile
	for _, d := range documents {
		data, err := json.MarshalIndent(d.doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", d.name, err)
		}
		out = append(out, dist.PayloadFile{Path: d.name, Mode: 0644, Data: append(data, '\n')})
	}
	out = append(out, dist.PayloadFile{Path: "info/files", Mode: 0644, Data: []byte(fileList.String())})
	return out, nil
}

func buildTar(files []dist.PayloadFile, mtime time.Time) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for _, f := range files {
		mode := int64(f.Mode.Perm())
		if mode == 0 {
			mode = 0644
		}
		err := tw.WriteHeader(&tar.Header{
			Name:     f.Path,
			Mode:     mode,
			Size:     int64(len(f.Data)),
			ModTime:  mtime,
			Typeflag: tar.TypeReg,
		})
		if err != nil {
			return nil, err
		}
		if _, err := tw.Write(f.Data); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
