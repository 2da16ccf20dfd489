package config

import (
	"errors"
	"os"
	"path/filepath"

	"dcrclient/pkg/logging"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// LoadConfig loads config.yaml from configPath on top of the defaults.
// A missing file is not an error; the defaults are returned as-is.
func LoadConfig(configPath string) (Config, error) {
	if configPath == "" {
		configPath = DefaultConfigDir()
	}
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return Config{}, &ConfigurationError{FilePath: configFilePath, ErrorType: "io", Err: err}
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, &ConfigurationError{FilePath: configFilePath, ErrorType: "parse", Err: err}
	}

	fillZeroDefaults(&config)
	logging.Info("Config", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// fillZeroDefaults restores defaults for fields a config file explicitly
// blanked, e.g. "storage: {}".
func fillZeroDefaults(cfg *Config) {
	def := GetDefaultConfig()
	if cfg.Scope == "" {
		cfg.Scope = def.Scope
	}
	if cfg.DCRScope == "" {
		cfg.DCRScope = def.DCRScope
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = def.Storage.Backend
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = def.Storage.Dir
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = def.Storage.KeyPrefix
	}
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = def.HTTP.Timeout
	}
}
