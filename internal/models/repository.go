package models

// ChannelConfig contains configuration for converting distributions and
// generating a conda channel
type ChannelConfig struct {
	// Input/Output
	InputDir  string
	OutputDir string

	// Translation
	MappingPath   string // Name mapping JSON; empty uses the embedded table
	PythonVersion string // Target interpreter for marker evaluation
	Platform      string // conda subdir markers are evaluated for, e.g. linux-64
	Timestamp     int64  // Fixed record timestamp in ms; 0 uses the current time

	// Processing
	Workers int

	// Output format for convert
	Format    string // json or yaml
	IndexOnly bool

	// Channel layout
	Subdirs []string // Platform subdirs that get an empty repodata.json

	// Signing
	GPGKeyPath    string
	GPGPassphrase string

	// Remote index for fetch
	IndexURL string

	// Incremental mode
	Incremental bool // Add new packages to existing channel without removing existing ones
}
