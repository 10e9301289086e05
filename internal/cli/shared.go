package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ralt/pupa/internal/batch"
	"github.com/ralt/pupa/internal/conda"
	"github.com/ralt/pupa/internal/dist"
	"github.com/ralt/pupa/internal/mapping"
	"github.com/ralt/pupa/internal/matchspec"
	"github.com/ralt/pupa/internal/models"
	"github.com/ralt/pupa/internal/pep508"
	"github.com/ralt/pupa/internal/scanner"
	"github.com/ralt/pupa/internal/translate"
)

// converted is one distribution together with its assembled metadata
type converted struct {
	input    scanner.ScannedInput
	dist     dist.Distribution
	metadata *conda.CondaMetadata
}

// newAssembler builds the shared, read-only translation pipeline
func newAssembler(config *models.ChannelConfig) (*conda.Assembler, error) {
	log := logrus.StandardLogger()

	var table *mapping.Table
	if config.MappingPath != "" {
		table = mapping.Load(config.MappingPath, log)
	} else {
		table = mapping.Default(log)
		logrus.Infof("Using the built-in sample name table (%d entries); pass --mapping for the full grayskull table", table.Len())
	}

	env, err := pep508.EnvironmentForSubdir(config.Platform, config.PythonVersion)
	if err != nil {
		return nil, &models.PupaError{Type: models.ErrInvalidConfig, Err: err}
	}
	logrus.Debugf("Evaluating markers for %s on %s", env.PythonFullVersion, env.SysPlatform)

	var opts []conda.Option
	if config.Timestamp != 0 {
		ts := time.UnixMilli(config.Timestamp)
		opts = append(opts, conda.WithClock(func() time.Time { return ts }))
	}

	tr := translate.New(table, env, matchspec.NewNormalizer(log))
	return conda.NewAssembler(table, tr, opts...), nil
}

// assemble wraps Assemble errors in the matching PupaError category
func assemble(assembler *conda.Assembler, source string, d dist.Distribution) (*conda.CondaMetadata, error) {
	cm, err := assembler.Assemble(d)
	if err != nil {
		errType := models.ErrMetadataGen
		var mre *pep508.MalformedRequirementError
		if errors.As(err, &mre) {
			errType = models.ErrMalformedRequirement
		}
		return nil, &models.PupaError{Type: errType, Package: source, Err: err}
	}
	return cm, nil
}

// convertAll reads and assembles every input on the worker pool. Results
// follow input order; the first failure aborts the run.
func convertAll(ctx context.Context, config *models.ChannelConfig, assembler *conda.Assembler, inputs []scanner.ScannedInput) ([]converted, error) {
	results := batch.Run(ctx, config.Workers, inputs, func(_ context.Context, in scanner.ScannedInput) (converted, error) {
		logrus.Debugf("Reading %s distribution: %s", in.Type, in.Path)

		d, err := dist.Open(in.Path, in.Type)
		if err != nil {
			return converted{}, &models.PupaError{Type: models.ErrDistributionRead, Package: in.Path, Err: err}
		}

		cm, err := assemble(assembler, in.Path, d)
		if err != nil {
			return converted{}, err
		}
		return converted{input: in, dist: d, metadata: cm}, nil
	})

	out := make([]converted, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		out = append(out, r.Value)
	}
	return out, nil
}

// resolveInputs expands every path into the distributions it names
func resolveInputs(ctx context.Context, sc scanner.Scanner, paths []string) ([]scanner.ScannedInput, error) {
	var inputs []scanner.ScannedInput
	for _, path := range paths {
		found, err := sc.Resolve(ctx, path)
		if err != nil {
			return nil, &models.PupaError{
				Type:    models.ErrFileOp,
				Package: path,
				Err:     fmt.Errorf("failed to resolve input: %w", err),
			}
		}
		inputs = append(inputs, found...)
	}
	return inputs, nil
}
