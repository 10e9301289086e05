package scanner

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// Magic bytes for archive detection
var (
	zipMagic   = []byte{0x50, 0x4B, 0x03, 0x04}
	gzipMagic  = []byte{0x1F, 0x8B}
	zstdMagic  = []byte{0x28, 0xB5, 0x2F, 0xFD}
	xzMagic    = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
	bzip2Magic = []byte("BZh")
)

// sdistSuffixes maps source archive suffixes to their expected magic bytes
var sdistSuffixes = []struct {
	suffix string
	magic  []byte
}{
	{".tar.gz", gzipMagic},
	{".tgz", gzipMagic},
	{".tar.xz", xzMagic},
	{".tar.zst", zstdMagic},
	{".tar.bz2", bzip2Magic},
	{".zip", zipMagic},
}

// DetectInputType determines the input type of path from its name, its
// contents for directories, and its magic bytes for files
func DetectInputType(path string) (InputType, error) {
	info, err := os.Stat(path)
	if err != nil {
		return TypeUnknown, err
	}
	if info.IsDir() {
		return detectDir(path), nil
	}

	basename := filepath.Base(path)
	if basename == "pyproject.toml" {
		return TypePyProject, nil
	}
	if strings.HasSuffix(basename, ".metadata") || basename == "METADATA" || basename == "PKG-INFO" {
		return TypeMetadataFile, nil
	}

	header, err := readHeader(path)
	if err != nil {
		return TypeUnknown, err
	}

	// Check for wheel (zip with .whl extension)
	if strings.HasSuffix(basename, ".whl") && bytes.HasPrefix(header, zipMagic) {
		return TypeWheel, nil
	}

	// Check for source distribution
	for _, s := range sdistSuffixes {
		if strings.HasSuffix(basename, s.suffix) && bytes.HasPrefix(header, s.magic) {
			return TypeSdist, nil
		}
	}

	return TypeUnknown, nil
}

func detectDir(path string) InputType {
	switch {
	case strings.HasSuffix(path, ".dist-info") && exists(filepath.Join(path, "METADATA")):
		return TypeDistInfo
	case strings.HasSuffix(path, ".egg-info") && exists(filepath.Join(path, "PKG-INFO")):
		return TypeEggInfo
	case exists(filepath.Join(path, "pyproject.toml")):
		return TypePyProject
	}
	return TypeUnknown
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Read first 512 bytes for magic byte detection
	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return nil, err
	}
	return header[:n], nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
