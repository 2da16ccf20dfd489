package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"dcrclient/internal/config"
	"dcrclient/pkg/logging"
)

// Application is a bootstrapped dcrclient: validated settings plus the
// services built from them.
//
// Bootstrap has two phases. NewApplication loads and validates
// configuration, sets up logging and builds the services. Run then starts
// the interactive shell.
type Application struct {
	config   *Config
	settings config.Config
	services *Services
}

// LoadSettings reads config.yaml, applies overrides and validates the
// result. Logging is configured from the final log level.
func LoadSettings(cfg *Config) (config.Config, error) {
	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	logging.InitForCLI(logging.LevelInfo, logOutput)

	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigDir()
	}

	settings, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from %s", configPath)
		return config.Config{}, err
	}
	if cfg.Overrides != nil {
		config.ApplyOverrides(&settings, cfg.Overrides)
	}

	level, levelErr := logging.ParseLevel(settings.LogLevel)
	logging.InitForCLI(level, logOutput)
	if levelErr != nil {
		logging.Warn("Bootstrap", "%v, using %s", levelErr, level)
	}

	if err := settings.Validate(); err != nil {
		return config.Config{}, err
	}
	logging.Debug("Bootstrap", "Loaded configuration for issuer %s (storage: %s)", settings.Issuer, settings.Storage.Backend)
	return settings, nil
}

// NewApplication loads settings and initializes services.
func NewApplication(ctx context.Context, cfg *Config) (*Application, error) {
	settings, err := LoadSettings(cfg)
	if err != nil {
		return nil, err
	}

	services, err := InitializeServices(ctx, settings)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		settings: settings,
		services: services,
	}, nil
}

// Settings returns the validated configuration.
func (a *Application) Settings() config.Config {
	return a.settings
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Run starts the interactive shell and blocks until it exits.
func (a *Application) Run(ctx context.Context) error {
	return runShell(ctx, a.settings, a.services, a.config.Version)
}

// Close releases the services.
func (a *Application) Close() error {
	return a.services.Close()
}
