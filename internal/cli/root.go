package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ralt/pupa/internal/pep508"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "pupa",
		Short: "Translate Python distribution metadata into conda packages",
		Long: `Pupa reads the metadata of installed or built Python distributions and
translates it into conda package records: names are mapped through a
PyPI to conda table, requirements are filtered by environment markers and
their version constraints rewritten as conda match specs.

The built-in name table is a small sample. Pass --mapping with the full
grayskull_pypi_mapping.json from regro/cf-graph-countyfair to translate
every conda-forge rename.

Supported inputs:
  - *.dist-info and *.egg-info directories
  - Wheels (.whl) and standalone .metadata files
  - Source distributions (.tar.gz, .tar.xz, .tar.zst, .zip)
  - pyproject.toml source trees`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cmd.Flags()); err != nil {
				return err
			}

			// Setup logging
			if v.GetBool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
			return nil
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.String("config", "", "Config file (default ./pupa.yaml or ~/.config/pupa/pupa.yaml)")

	// Translation flags shared by every command
	flags.String("mapping", "", "grayskull_pypi_mapping.json to translate names with (default: small built-in sample)")
	flags.String("python-version", pep508.DefaultPythonVersion, "Python version environment markers are evaluated for")
	flags.String("platform", "noarch", "conda subdir environment markers are evaluated for (noarch uses the host)")
	flags.Int64("timestamp", 0, "Fixed record timestamp in milliseconds since the epoch (default: now)")
	flags.IntP("workers", "j", 0, "Number of parallel workers (default: number of CPUs)")

	// Add subcommands
	rootCmd.AddCommand(newConvertCmd(v))
	rootCmd.AddCommand(newIndexCmd(v))
	rootCmd.AddCommand(newFetchCmd(v))

	return rootCmd
}
