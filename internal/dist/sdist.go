package dist

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// SdistExtensions lists the source archive suffixes OpenSdist understands.
var SdistExtensions = []string{".tar.gz", ".tgz", ".tar.xz", ".tar.zst", ".tar.bz2", ".zip"}

// SdistDistribution is a source distribution archive. Only metadata is
// available; it has no installable payload.
type SdistDistribution struct {
	base
}

// sdistMembers collects the metadata files found in a source archive.
type sdistMembers struct {
	pkgInfo     []byte
	requiresTxt []byte
	entryPoints []byte
}

func (s *sdistMembers) visit(name string, open func() ([]byte, error)) error {
	clean := path.Clean(name)
	parts := strings.Split(clean, "/")

	var err error
	switch {
	case len(parts) == 2 && parts[1] == "PKG-INFO" && s.pkgInfo == nil:
		s.pkgInfo, err = open()
	case len(parts) >= 2 && strings.HasSuffix(parts[len(parts)-2], ".egg-info"):
		switch parts[len(parts)-1] {
		case "requires.txt":
			if s.requiresTxt == nil {
				s.requiresTxt, err = open()
			}
		case "entry_points.txt":
			if s.entryPoints == nil {
				s.entryPoints, err = open()
			}
		}
	}
	return err
}

// OpenSdist reads the PKG-INFO of a source distribution, falling back to the
// egg-info requires.txt for requirements when PKG-INFO has none.
func OpenSdist(archivePath string) (*SdistDistribution, error) {
	var (
		members sdistMembers
		err     error
	)
	if strings.HasSuffix(archivePath, ".zip") {
		err = walkZip(archivePath, members.visit)
	} else {
		err = walkTar(archivePath, members.visit)
	}
	if err != nil {
		return nil, err
	}
	if members.pkgInfo == nil {
		return nil, fmt.Errorf("PKG-INFO not found in %s", filepath.Base(archivePath))
	}

	m := ParseMetadata(members.pkgInfo)
	return &SdistDistribution{base{
		metadata:    m,
		entryPoints: ParseEntryPoints(string(members.entryPoints)),
		requiresTxt: parseRequiresTxt(string(members.requiresTxt)),
	}}, nil
}

func walkTar(archivePath string, visit func(string, func() ([]byte, error)) error) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open sdist: %w", err)
	}
	defer f.Close()

	// Detect compression from extension
	var r io.Reader
	switch {
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gr.Close()
		r = gr
	case strings.HasSuffix(archivePath, ".tar.xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xr
	case strings.HasSuffix(archivePath, ".tar.zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(archivePath, ".tar.bz2"):
		r = bzip2.NewReader(f)
	default:
		return fmt.Errorf("unsupported sdist format: %s", filepath.Base(archivePath))
	}

	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read sdist: %w", err)
		}
		if !header.FileInfo().Mode().IsRegular() {
			continue
		}
		if err := visit(header.Name, func() ([]byte, error) { return io.ReadAll(tr) }); err != nil {
			return err
		}
	}
}

func walkZip(archivePath string, visit func(string, func() ([]byte, error)) error) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open sdist: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		open := func() ([]byte, error) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
		if err := visit(f.Name, open); err != nil {
			return err
		}
	}
	return nil
}
