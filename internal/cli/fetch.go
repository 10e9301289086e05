package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ralt/pupa/internal/conda"
	"github.com/ralt/pupa/internal/models"
	"github.com/ralt/pupa/internal/pypi"
)

// newFetchCmd creates the fetch command
func newFetchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch NAME VERSION",
		Short: "Print the conda metadata of a release published on a package index",
		Long: `Downloads the core metadata file of a wheel of NAME==VERSION from a
simple repository index and prints the conda metadata assembled from it.
Only the metadata file is transferred, never the wheel itself.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadChannelConfig(v)
			if err := validateConfig(config); err != nil {
				return err
			}

			client := pypi.NewClient(config.IndexURL)
			d, err := client.FetchMetadata(cmd.Context(), args[0], args[1])
			if err != nil {
				return &models.PupaError{
					Type:    models.ErrFetch,
					Package: fmt.Sprintf("%s==%s", args[0], args[1]),
					Err:     err,
				}
			}

			assembler, err := newAssembler(config)
			if err != nil {
				return err
			}

			cm, err := assemble(assembler, args[0], d)
			if err != nil {
				return err
			}

			return writeDocuments(cmd.OutOrStdout(), config.Format, config.IndexOnly, []*conda.CondaMetadata{cm})
		},
	}

	cmd.Flags().String("index-url", pypi.DefaultIndexURL, "Simple repository index URL")
	cmd.Flags().StringP("format", "f", formatJSON, "Output format (json, yaml)")
	cmd.Flags().Bool("index-only", false, "Print only the index.json record")

	return cmd
}
