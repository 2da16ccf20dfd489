package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const (
	appName = "dcrclient"

	DefaultScope                 = "openid profile"
	DefaultDCRScope              = "dcr"
	DefaultRedirectURI           = "http://127.0.0.1:3000/callback"
	DefaultPostLogoutRedirectURI = "http://127.0.0.1:3000/logout"
	DefaultKeyPrefix             = "dcrclient:"

	// DefaultHTTPTimeout bounds discovery and token endpoint calls.
	DefaultHTTPTimeout = 30 * time.Second
)

// DefaultConfigDir returns $XDG_CONFIG_HOME/dcrclient.
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// DefaultDataDir returns $XDG_DATA_HOME/dcrclient, where the file storage
// backend keeps the registration record.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// GetDefaultConfig returns the configuration used when no config.yaml exists.
// Issuer and RegistrationClientID have no sensible default and must be set.
func GetDefaultConfig() Config {
	return Config{
		RedirectURI:           DefaultRedirectURI,
		PostLogoutRedirectURI: DefaultPostLogoutRedirectURI,
		Scope:                 DefaultScope,
		DCRScope:              DefaultDCRScope,
		Storage: StorageConfig{
			Backend:   StorageBackendFile,
			Dir:       DefaultDataDir(),
			KeyPrefix: DefaultKeyPrefix,
		},
		HTTP: HTTPConfig{
			Timeout: DefaultHTTPTimeout,
		},
		LogLevel: "info",
	}
}
