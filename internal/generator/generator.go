package generator

import (
	"context"

	"github.com/ralt/pupa/internal/conda"
	"github.com/ralt/pupa/internal/dist"
	"github.com/ralt/pupa/internal/models"
)

// Input is one converted distribution ready to be packaged
type Input struct {
	// Source is the path the distribution was read from
	Source   string
	Metadata *conda.CondaMetadata
	Payload  dist.Payload
}

// Generator interface for channel generators
type Generator interface {
	// Generate creates a channel structure from the provided inputs
	Generate(ctx context.Context, config *models.ChannelConfig, inputs []Input) error

	// ValidateInputs checks if inputs are valid for this generator
	ValidateInputs(inputs []Input) error
}
