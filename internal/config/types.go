package config

import "time"

// Config is the top-level configuration structure for dcrclient.
type Config struct {
	// Issuer is the OpenID Provider issuer URL used for discovery.
	Issuer string `yaml:"issuer"`

	// RegistrationClientID is the pre-provisioned client used only for the
	// DCR bootstrap login that yields the registration access token.
	RegistrationClientID string `yaml:"registrationClientID"`

	// RedirectURI receives authorization responses. It must be a loopback
	// http URL because the shell listens on it.
	RedirectURI string `yaml:"redirectURI"`

	// PostLogoutRedirectURI receives end-session responses.
	PostLogoutRedirectURI string `yaml:"postLogoutRedirectURI"`

	// Scope is requested by the main login of the registered client.
	Scope string `yaml:"scope"`

	// DCRScope is the administrative scope of the registration bootstrap login.
	DCRScope string `yaml:"dcrScope"`

	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`

	LogLevel    string `yaml:"logLevel,omitempty"`
	MetricsAddr string `yaml:"metricsAddr,omitempty"`
}

// StorageBackend names a durable key-value backend.
type StorageBackend string

const (
	StorageBackendFile   StorageBackend = "file"
	StorageBackendRedis  StorageBackend = "redis"
	StorageBackendMemory StorageBackend = "memory"
)

// StorageConfig selects where the client registration is persisted.
type StorageConfig struct {
	Backend   StorageBackend `yaml:"backend"`
	Dir       string         `yaml:"dir,omitempty"`       // file backend (default: $XDG_DATA_HOME/dcrclient)
	RedisURL  string         `yaml:"redisURL,omitempty"`  // redis backend, e.g. redis://localhost:6379/0
	KeyPrefix string         `yaml:"keyPrefix,omitempty"` // redis backend key prefix
}

// HTTPConfig tunes provider communication.
type HTTPConfig struct {
	// Timeout bounds discovery and token endpoint calls. Client
	// registration always uses a fixed 10 second deadline.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
