package scanner

import "context"

// InputType represents the kind of Python distribution found on disk
type InputType int

const (
	TypeUnknown InputType = iota
	TypeDistInfo
	TypeEggInfo
	TypeWheel
	TypeMetadataFile
	TypeSdist
	TypePyProject
)

// String returns the string representation of InputType
func (t InputType) String() string {
	switch t {
	case TypeDistInfo:
		return "dist-info"
	case TypeEggInfo:
		return "egg-info"
	case TypeWheel:
		return "wheel"
	case TypeMetadataFile:
		return "metadata"
	case TypeSdist:
		return "sdist"
	case TypePyProject:
		return "pyproject"
	default:
		return "unknown"
	}
}

// HasPayload reports whether inputs of this type carry installable files.
func (t InputType) HasPayload() bool {
	return t == TypeDistInfo || t == TypeWheel
}

// ScannedInput represents a distribution found during scanning
type ScannedInput struct {
	Path string
	Type InputType
	Size int64
}

// Scanner interface for detecting and scanning distributions
type Scanner interface {
	// Scan finds distributions below dir
	Scan(ctx context.Context, dir string) ([]ScannedInput, error)

	// Resolve returns path itself when it is a distribution, or what Scan
	// finds below it otherwise
	Resolve(ctx context.Context, path string) ([]ScannedInput, error)

	// DetectType determines the input type of a file or directory
	DetectType(path string) (InputType, error)
}
