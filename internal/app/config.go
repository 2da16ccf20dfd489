package app

import (
	"io"

	"github.com/spf13/viper"
)

// Config holds what the command line decided before bootstrap.
type Config struct {
	// ConfigPath is the directory holding config.yaml. Empty means the XDG
	// default.
	ConfigPath string

	// Overrides carries environment variables and bound flags. May be nil.
	Overrides *viper.Viper

	// LogOutput receives log records. Defaults to stderr.
	LogOutput io.Writer

	// Version is the build version, sent as software_version when the
	// client registers.
	Version string
}

// NewConfig creates a new application configuration.
func NewConfig(configPath string, overrides *viper.Viper) *Config {
	return &Config{
		ConfigPath: configPath,
		Overrides:  overrides,
	}
}
