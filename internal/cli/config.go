package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ralt/pupa/internal/models"
)

const envPrefix = "PUPA"

// initConfig layers the config file and PUPA_* environment variables
// under flags
func initConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	cfgFile, _ := flags.GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pupa")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pupa"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return &models.PupaError{
				Type: models.ErrInvalidConfig,
				Err:  fmt.Errorf("failed to read config: %w", err),
			}
		}
	} else {
		logrus.Debugf("Using config file: %s", v.ConfigFileUsed())
	}

	return nil
}

// loadChannelConfig reads the merged configuration. Keys that the running
// command does not define keep their zero value unless set in the config
// file or environment.
func loadChannelConfig(v *viper.Viper) *models.ChannelConfig {
	return &models.ChannelConfig{
		InputDir:      v.GetString("input-dir"),
		OutputDir:     v.GetString("output-dir"),
		MappingPath:   v.GetString("mapping"),
		PythonVersion: v.GetString("python-version"),
		Platform:      v.GetString("platform"),
		Timestamp:     v.GetInt64("timestamp"),
		Workers:       v.GetInt("workers"),
		Format:        v.GetString("format"),
		IndexOnly:     v.GetBool("index-only"),
		Subdirs:       v.GetStringSlice("subdirs"),
		GPGKeyPath:    v.GetString("gpg-key"),
		GPGPassphrase: v.GetString("gpg-passphrase"),
		IndexURL:      v.GetString("index-url"),
		Incremental:   v.GetBool("incremental"),
	}
}

func validateConfig(config *models.ChannelConfig) error {
	if config.Workers < 0 {
		return &models.PupaError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("workers must not be negative, got %d", config.Workers),
		}
	}

	switch config.Format {
	case "", formatJSON, formatYAML:
	default:
		return &models.PupaError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("unsupported format %q (expected json or yaml)", config.Format),
		}
	}

	return nil
}
