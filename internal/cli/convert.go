package cli

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ralt/pupa/internal/conda"
	"github.com/ralt/pupa/internal/models"
	"github.com/ralt/pupa/internal/scanner"
)

// newConvertCmd creates the convert command
func newConvertCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [PATH...]",
		Short: "Print the conda metadata of Python distributions",
		Long: `Reads each PATH (default: the current directory) and prints the conda
metadata assembled from it. A PATH that is itself a distribution is read
directly; any other directory contributes the distributions found directly
inside it, such as the *.dist-info directories of a site-packages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadChannelConfig(v)
			if err := validateConfig(config); err != nil {
				return err
			}
			logrus.Debugf("Configuration: %+v", *config)

			if len(args) == 0 {
				args = []string{"."}
			}
			return runConvert(cmd.Context(), cmd.OutOrStdout(), config, args)
		},
	}

	cmd.Flags().StringP("format", "f", formatJSON, "Output format (json, yaml)")
	cmd.Flags().Bool("index-only", false, "Print only the index.json record")

	return cmd
}

func runConvert(ctx context.Context, w io.Writer, config *models.ChannelConfig, paths []string) error {
	inputs, err := resolveInputs(ctx, scanner.NewFileSystemScanner(false), paths)
	if err != nil {
		return err
	}

	if len(inputs) == 0 {
		logrus.Warn("No distributions found")
		return nil
	}

	assembler, err := newAssembler(config)
	if err != nil {
		return err
	}

	results, err := convertAll(ctx, config, assembler, inputs)
	if err != nil {
		return err
	}

	records := make([]*conda.CondaMetadata, len(results))
	for i, r := range results {
		records[i] = r.metadata
	}
	return writeDocuments(w, config.Format, config.IndexOnly, records)
}
