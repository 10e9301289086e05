package models

import "github.com/ralt/pupa/internal/conda"

// Package represents a built conda package and its place in a channel
type Package struct {
	// Core metadata
	Record conda.PackageRecord

	// File information, Filename is relative to the subdir
	Filename  string
	Size      int64
	MD5Sum    string
	SHA256Sum string
}
