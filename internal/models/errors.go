package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrDistributionRead ErrorType = iota
	ErrMalformedRequirement
	ErrMetadataGen
	ErrPackageBuild
	ErrSigning
	ErrFileOp
	ErrInvalidConfig
	ErrFetch
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrDistributionRead:
		return "DistributionRead"
	case ErrMalformedRequirement:
		return "MalformedRequirement"
	case ErrMetadataGen:
		return "MetadataGen"
	case ErrPackageBuild:
		return "PackageBuild"
	case ErrSigning:
		return "Signing"
	case ErrFileOp:
		return "FileOp"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrFetch:
		return "Fetch"
	default:
		return "Unknown"
	}
}

// PupaError represents an error while converting or indexing distributions
type PupaError struct {
	Type    ErrorType
	Package string
	Err     error
}

// Error implements the error interface
func (e *PupaError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *PupaError) Unwrap() error {
	return e.Err
}
