package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ralt/pupa/internal/dist"
	"github.com/ralt/pupa/internal/generator"
	channel "github.com/ralt/pupa/internal/generator/conda"
	"github.com/ralt/pupa/internal/models"
	"github.com/ralt/pupa/internal/scanner"
	"github.com/ralt/pupa/internal/signer"
)

// newIndexCmd creates the index command
func newIndexCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build a conda channel from wheels and installed distributions",
		Long: `Scans the input directory for wheels and *.dist-info directories, builds a
noarch .conda package for each and writes the channel index
(noarch/repodata.json and repodata.json.zst) that conda can install from.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadChannelConfig(v)
			if err := validateIndexConfig(config); err != nil {
				return err
			}

			logrus.Info("Starting channel generation...")
			logrus.Debugf("Configuration: %+v", *config)

			return runIndex(cmd.Context(), config)
		},
	}

	// Input/Output flags
	cmd.Flags().StringP("input-dir", "i", ".", "Input directory to scan")
	cmd.Flags().StringP("output-dir", "o", "./channel", "Channel output directory")
	cmd.Flags().Bool("incremental", false, "Keep packages already listed in the channel index")
	cmd.Flags().StringSlice("subdirs", []string{"noarch"}, "Platform subdirs that get a (possibly empty) index")

	// GPG signing flags
	cmd.Flags().StringP("gpg-key", "k", "", "Path to GPG private key used to sign repodata.json")
	cmd.Flags().StringP("gpg-passphrase", "p", "", "GPG key passphrase")

	return cmd
}

func validateIndexConfig(config *models.ChannelConfig) error {
	if config.InputDir == "" {
		return &models.PupaError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("input-dir is required"),
		}
	}

	if config.OutputDir == "" {
		return &models.PupaError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("output-dir is required"),
		}
	}

	return validateConfig(config)
}

func runIndex(ctx context.Context, config *models.ChannelConfig) error {
	// Step 1: Scan for distributions
	logrus.Infof("Scanning directory: %s", config.InputDir)
	sc := scanner.NewFileSystemScanner(true)
	scanned, err := sc.Scan(ctx, config.InputDir)
	if err != nil {
		return &models.PupaError{
			Type: models.ErrFileOp,
			Err:  fmt.Errorf("failed to scan directory: %w", err),
		}
	}

	var packagable []scanner.ScannedInput
	for _, in := range scanned {
		if !in.Type.HasPayload() {
			logrus.Warnf("Skipping %s: a %s carries no installable files", in.Path, in.Type)
			continue
		}
		packagable = append(packagable, in)
	}

	if len(packagable) == 0 {
		logrus.Warn("No wheels or installed distributions found in input directory")
		return nil
	}

	// Step 2: Assemble metadata
	assembler, err := newAssembler(config)
	if err != nil {
		return err
	}

	results, err := convertAll(ctx, config, assembler, packagable)
	if err != nil {
		return err
	}

	inputs := make([]generator.Input, 0, len(results))
	for _, r := range results {
		payload, ok := r.dist.(dist.Payload)
		if !ok {
			logrus.Warnf("Skipping %s: no installable files", r.input.Path)
			continue
		}
		inputs = append(inputs, generator.Input{
			Source:   r.input.Path,
			Metadata: r.metadata,
			Payload:  payload,
		})
	}

	// Step 3: Initialize signer
	var gpgSigner signer.Signer
	if config.GPGKeyPath != "" {
		s, err := signer.NewGPGSigner(config.GPGKeyPath, config.GPGPassphrase)
		if err != nil {
			return &models.PupaError{
				Type: models.ErrSigning,
				Err:  fmt.Errorf("failed to initialize GPG signer: %w", err),
			}
		}
		gpgSigner = s
		logrus.Info("GPG signer initialized")
	}

	// Step 4: Generate the channel
	gen := channel.NewGenerator(gpgSigner)

	if err := gen.ValidateInputs(inputs); err != nil {
		return &models.PupaError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("input validation failed: %w", err),
		}
	}

	if err := gen.Generate(ctx, config, inputs); err != nil {
		var pe *models.PupaError
		if errors.As(err, &pe) {
			return err
		}
		return &models.PupaError{
			Type: models.ErrMetadataGen,
			Err:  fmt.Errorf("failed to generate channel: %w", err),
		}
	}

	logrus.Info("Channel generation completed successfully!")
	logrus.Infof("Output directory: %s", config.OutputDir)

	return nil
}
