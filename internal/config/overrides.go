package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override config.yaml,
// e.g. DCRCLIENT_ISSUER or DCRCLIENT_STORAGE_BACKEND.
const EnvPrefix = "DCRCLIENT"

// Override keys, shared between environment variables and CLI flags.
const (
	KeyIssuer                = "issuer"
	KeyRegistrationClientID  = "registrationClientID"
	KeyRedirectURI           = "redirectURI"
	KeyPostLogoutRedirectURI = "postLogoutRedirectURI"
	KeyScope                 = "scope"
	KeyDCRScope              = "dcrScope"
	KeyStorageBackend        = "storage.backend"
	KeyStorageDir            = "storage.dir"
	KeyStorageRedisURL       = "storage.redisURL"
	KeyStorageKeyPrefix      = "storage.keyPrefix"
	KeyHTTPTimeout           = "http.timeout"
	KeyLogLevel              = "logLevel"
	KeyMetricsAddr           = "metricsAddr"
)

// NewViper returns a viper instance reading DCRCLIENT_* environment
// variables. Dots in keys map to underscores.
func NewViper() *viper.Viper {
	v := viper.NewWithOptions(
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_")),
	)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for _, key := range overrideKeys {
		// AutomaticEnv only resolves keys viper already knows about.
		_ = v.BindEnv(key)
	}
	return v
}

var overrideKeys = []string{
	KeyIssuer, KeyRegistrationClientID, KeyRedirectURI, KeyPostLogoutRedirectURI,
	KeyScope, KeyDCRScope,
	KeyStorageBackend, KeyStorageDir, KeyStorageRedisURL, KeyStorageKeyPrefix,
	KeyHTTPTimeout,
	KeyLogLevel, KeyMetricsAddr,
}

// ApplyOverrides copies every key set in v (environment or bound flag) onto
// cfg. Values from config.yaml are kept for keys v does not set.
func ApplyOverrides(cfg *Config, v *viper.Viper) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	setString(KeyIssuer, &cfg.Issuer)
	setString(KeyRegistrationClientID, &cfg.RegistrationClientID)
	setString(KeyRedirectURI, &cfg.RedirectURI)
	setString(KeyPostLogoutRedirectURI, &cfg.PostLogoutRedirectURI)
	setString(KeyScope, &cfg.Scope)
	setString(KeyDCRScope, &cfg.DCRScope)
	setString(KeyStorageDir, &cfg.Storage.Dir)
	setString(KeyStorageRedisURL, &cfg.Storage.RedisURL)
	setString(KeyStorageKeyPrefix, &cfg.Storage.KeyPrefix)
	setString(KeyLogLevel, &cfg.LogLevel)
	setString(KeyMetricsAddr, &cfg.MetricsAddr)

	if v.IsSet(KeyStorageBackend) {
		cfg.Storage.Backend = StorageBackend(strings.ToLower(v.GetString(KeyStorageBackend)))
	}
	if v.IsSet(KeyHTTPTimeout) {
		cfg.HTTP.Timeout = v.GetDuration(KeyHTTPTimeout)
	}
}
