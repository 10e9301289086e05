package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileSystemScanner implements Scanner interface for filesystem scanning
type FileSystemScanner struct {
	// Recursive descends into subdirectories; otherwise only direct
	// children of the scanned directory are considered.
	Recursive bool
}

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner(recursive bool) *FileSystemScanner {
	return &FileSystemScanner{Recursive: recursive}
}

// Resolve returns path itself when it is a distribution, or the
// distributions found by scanning it when it is a plain directory
func (s *FileSystemScanner) Resolve(ctx context.Context, path string) ([]ScannedInput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	inputType, err := s.DetectType(path)
	if err != nil {
		return nil, err
	}
	if inputType != TypeUnknown {
		return []ScannedInput{{Path: path, Type: inputType, Size: info.Size()}}, nil
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a Python distribution", path)
	}
	return s.Scan(ctx, path)
}

// Scan finds distributions below dir. Metadata directories are not
// descended into, and source trees are only recognized at dir itself.
func (s *FileSystemScanner) Scan(ctx context.Context, dir string) ([]ScannedInput, error) {
	var inputs []ScannedInput

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path == dir {
			return nil
		}

		inputType, err := s.DetectType(path)
		if err != nil {
			logrus.Warnf("Failed to detect type for %s: %v", path, err)
			return nil
		}
		if inputType == TypePyProject || (inputType == TypeMetadataFile && filepath.Ext(path) != ".metadata") {
			inputType = TypeUnknown
		}

		if inputType != TypeUnknown {
			logrus.Debugf("Found %s: %s", inputType, path)
			var size int64
			if info, err := d.Info(); err == nil && !d.IsDir() {
				size = info.Size()
			}
			inputs = append(inputs, ScannedInput{Path: path, Type: inputType, Size: size})
		}

		if d.IsDir() && (inputType != TypeUnknown || !s.Recursive) {
			return filepath.SkipDir
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	logrus.Infof("Found %d distributions in %s", len(inputs), dir)
	return inputs, nil
}

// DetectType determines the input type of a file or directory
func (s *FileSystemScanner) DetectType(path string) (InputType, error) {
	return DetectInputType(path)
}
